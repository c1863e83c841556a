package profile

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv_Defaults(t *testing.T) {
	p := &Profile{}
	p.FromEnv()

	assert.Equal(t, "dev", p.Mode)
	assert.Equal(t, 8081, p.Port)
	assert.Equal(t, DefaultTeams, p.Teams)
	assert.Equal(t, "dall-e-3", p.ImageModel)
	assert.Equal(t, "1024x1024", p.ImageSize)
	assert.Equal(t, 60*time.Second, p.ImageTimeout)
	assert.Equal(t, "smtp.gmail.com", p.MailHost)
	assert.Equal(t, 587, p.MailPort)
	assert.True(t, p.MailUseTLS)
	assert.False(t, p.MailUseSSL)
	assert.False(t, p.MailConfigured())
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("PROMPTJAM_MODE", "prod")
	t.Setenv("PROMPTJAM_PORT", "9090")
	t.Setenv("PROMPTJAM_TEAMS", "alpha, beta ,gamma")
	t.Setenv("PROMPTJAM_MAIL_USERNAME", "sender@example.com")
	t.Setenv("PROMPTJAM_MAIL_PASSWORD", "app-password")
	t.Setenv("PROMPTJAM_MAIL_RECIPIENT", "organizers@example.com")
	t.Setenv("PROMPTJAM_IMAGE_API_KEY", "sk-test")

	p := &Profile{}
	p.FromEnv()

	assert.Equal(t, "prod", p.Mode)
	assert.Equal(t, 9090, p.Port)
	assert.Equal(t, []string{"alpha", "beta", "gamma"}, p.Teams)
	assert.True(t, p.MailConfigured())
	assert.Equal(t, "sk-test", p.ImageAPIKey)
}

func TestFromEnv_FlagsKept(t *testing.T) {
	t.Setenv("PROMPTJAM_PORT", "9090")

	p := &Profile{Mode: "prod", Port: 7070}
	p.FromEnv()

	assert.Equal(t, "prod", p.Mode)
	assert.Equal(t, 7070, p.Port)
}

func TestValidate(t *testing.T) {
	t.Run("GeneratesSecretOutsideProd", func(t *testing.T) {
		p := &Profile{Mode: "dev", Port: 8081}
		require.NoError(t, p.Validate())
		assert.NotEmpty(t, p.SessionSecret)
		assert.Equal(t, 30*time.Minute, p.SessionTTL)
		assert.Equal(t, DefaultTeams, p.Teams)
	})

	t.Run("ProdRequiresSecret", func(t *testing.T) {
		p := &Profile{Mode: "prod", Port: 8081}
		require.Error(t, p.Validate())
	})

	t.Run("UnknownModeFallsBackToDemo", func(t *testing.T) {
		p := &Profile{Mode: "staging", Port: 8081}
		require.NoError(t, p.Validate())
		assert.Equal(t, "demo", p.Mode)
	})

	t.Run("RejectsInvalidPort", func(t *testing.T) {
		p := &Profile{Mode: "dev", Port: -1}
		require.Error(t, p.Validate())
	})
}
