package profile

import (
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// DefaultTeams is the fixed allow-list of team identities accepted at login.
var DefaultTeams = []string{"team 1", "team 2", "team 3", "team 4", "team 5", "team 6"}

// Profile is the configuration to start the main server.
type Profile struct {
	// Mode can be "prod" or "dev" or "demo"
	Mode string
	// Addr is the binding address for server
	Addr string
	// Port is the binding port for server
	Port int
	// Version is the current version of server
	Version string

	// SessionSecret signs session tokens. Generated (with a warning) when
	// unset outside prod.
	SessionSecret string
	// SessionTTL is how long an idle session survives before the janitor
	// removes it.
	SessionTTL time.Duration
	// Teams is the allow-list of identities accepted at login.
	Teams []string

	// Image generation configuration
	ImageAPIKey      string        // PROMPTJAM_IMAGE_API_KEY
	ImageBaseURL     string        // PROMPTJAM_IMAGE_BASE_URL (default: https://api.openai.com/v1)
	ImageModel       string        // PROMPTJAM_IMAGE_MODEL (default: dall-e-3)
	ImageSize        string        // PROMPTJAM_IMAGE_SIZE (default: 1024x1024)
	ImageTimeout     time.Duration // PROMPTJAM_IMAGE_TIMEOUT (default: 60s)
	ImageMaxInFlight int64         // PROMPTJAM_IMAGE_MAX_IN_FLIGHT (default: 3)

	// Mail submission configuration
	MailHost      string        // PROMPTJAM_MAIL_HOST (default: smtp.gmail.com)
	MailPort      int           // PROMPTJAM_MAIL_PORT (default: 587)
	MailUseTLS    bool          // PROMPTJAM_MAIL_USE_TLS, STARTTLS (default: true)
	MailUseSSL    bool          // PROMPTJAM_MAIL_USE_SSL, implicit TLS (default: false)
	MailUsername  string        // PROMPTJAM_MAIL_USERNAME, also the envelope sender
	MailPassword  string        // PROMPTJAM_MAIL_PASSWORD
	MailRecipient string        // PROMPTJAM_MAIL_RECIPIENT
	MailTimeout   time.Duration // PROMPTJAM_MAIL_TIMEOUT (default: 30s)
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// MailConfigured reports whether the mail transport has everything it needs
// to deliver a submission.
func (p *Profile) MailConfigured() bool {
	return p.MailUsername != "" && p.MailPassword != "" && p.MailRecipient != ""
}

// newViper builds the environment-backed viper instance with defaults applied.
func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("promptjam")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("mode", "dev")
	v.SetDefault("addr", "")
	v.SetDefault("port", 8081)
	v.SetDefault("session.secret", "")
	v.SetDefault("session.ttl", 30*time.Minute)
	v.SetDefault("teams", strings.Join(DefaultTeams, ","))
	v.SetDefault("image.api.key", "")
	v.SetDefault("image.base.url", "https://api.openai.com/v1")
	v.SetDefault("image.model", "dall-e-3")
	v.SetDefault("image.size", "1024x1024")
	v.SetDefault("image.timeout", 60*time.Second)
	v.SetDefault("image.max.in.flight", 3)
	v.SetDefault("mail.host", "smtp.gmail.com")
	v.SetDefault("mail.port", 587)
	v.SetDefault("mail.use.tls", true)
	v.SetDefault("mail.use.ssl", false)
	v.SetDefault("mail.username", "")
	v.SetDefault("mail.password", "")
	v.SetDefault("mail.recipient", "")
	v.SetDefault("mail.timeout", 30*time.Second)

	return v
}

// FromEnv loads configuration from PROMPTJAM_* environment variables.
// Fields already set (e.g. from command-line flags) are kept.
func (p *Profile) FromEnv() {
	v := newViper()

	if p.Mode == "" {
		p.Mode = v.GetString("mode")
	}
	if p.Addr == "" {
		p.Addr = v.GetString("addr")
	}
	if p.Port == 0 {
		p.Port = v.GetInt("port")
	}

	p.SessionSecret = v.GetString("session.secret")
	p.SessionTTL = v.GetDuration("session.ttl")
	p.Teams = splitTeams(v.GetString("teams"))

	p.ImageAPIKey = v.GetString("image.api.key")
	p.ImageBaseURL = v.GetString("image.base.url")
	p.ImageModel = v.GetString("image.model")
	p.ImageSize = v.GetString("image.size")
	p.ImageTimeout = v.GetDuration("image.timeout")
	p.ImageMaxInFlight = v.GetInt64("image.max.in.flight")

	p.MailHost = v.GetString("mail.host")
	p.MailPort = v.GetInt("mail.port")
	p.MailUseTLS = v.GetBool("mail.use.tls")
	p.MailUseSSL = v.GetBool("mail.use.ssl")
	p.MailUsername = v.GetString("mail.username")
	p.MailPassword = v.GetString("mail.password")
	p.MailRecipient = v.GetString("mail.recipient")
	p.MailTimeout = v.GetDuration("mail.timeout")
}

// Validate normalizes the profile and reports unusable configuration.
// Missing mail configuration is a warning, not an error: the server still
// starts and submission attempts fail with a classified error. A missing
// image API key likewise only surfaces at the remote-call boundary.
func (p *Profile) Validate() error {
	if p.Mode != "demo" && p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "demo"
	}

	if p.Port <= 0 || p.Port > 65535 {
		return errors.Errorf("invalid port %d", p.Port)
	}

	if p.SessionSecret == "" {
		if p.Mode == "prod" {
			return errors.New("PROMPTJAM_SESSION_SECRET is required in prod mode")
		}
		secret, err := randomSecret()
		if err != nil {
			return errors.Wrap(err, "failed to generate session secret")
		}
		p.SessionSecret = secret
		slog.Warn("session secret not set, generated an ephemeral one; sessions will not survive a restart")
	}

	if p.SessionTTL <= 0 {
		p.SessionTTL = 30 * time.Minute
	}
	if len(p.Teams) == 0 {
		p.Teams = DefaultTeams
	}

	if !p.MailConfigured() {
		slog.Warn("mail environment variables not fully set, submission emails will fail",
			slog.Bool("username_set", p.MailUsername != ""),
			slog.Bool("password_set", p.MailPassword != ""),
			slog.Bool("recipient_set", p.MailRecipient != ""))
	}
	if p.ImageAPIKey == "" {
		slog.Warn("image API key not set, prompt submissions will fail at the provider")
	}

	return nil
}

func splitTeams(raw string) []string {
	var teams []string
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			teams = append(teams, t)
		}
	}
	return teams
}

func randomSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
