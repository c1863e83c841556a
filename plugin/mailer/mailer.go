// Package mailer delivers submission notifications over SMTP and classifies
// delivery failures by protocol stage so the workflow can tell the user
// whether to fix configuration, retry, or give up.
package mailer

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"mime/multipart"
	"net"
	"net/smtp"
	"net/textproto"
	"strconv"
	"time"

	werrors "github.com/promptjam/promptjam/internal/errors"
)

// Submission is the selected history entry forwarded to the organizers.
type Submission struct {
	Team     string
	Prompt   string
	ImageURL string
}

// Sender delivers one submission.
type Sender interface {
	Send(ctx context.Context, sub Submission) error
}

// Config holds the mail transport configuration.
type Config struct {
	Host      string
	Port      int
	UseTLS    bool // STARTTLS upgrade on a plain connection
	UseSSL    bool // implicit TLS from the first byte
	Username  string
	Password  string
	Recipient string
	Timeout   time.Duration
}

// Complete reports whether the transport has everything it needs to deliver.
func (c *Config) Complete() bool {
	return c.Host != "" && c.Port > 0 && c.Username != "" && c.Password != "" && c.Recipient != ""
}

// SMTPSender delivers submissions through a fixed configured SMTP transport.
type SMTPSender struct {
	config *Config
}

// NewSMTPSender creates a sender. Incomplete configuration is allowed and
// warned about; sends then fail with a classified error instead of crashing
// at startup.
func NewSMTPSender(cfg *Config) *SMTPSender {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if !cfg.Complete() {
		slog.Warn("mail transport not fully configured, submissions will fail",
			"host", cfg.Host, "recipient_set", cfg.Recipient != "")
	}
	return &SMTPSender{config: cfg}
}

// Send composes the notification and attempts a single delivery. The error,
// if any, is always a *errors.WorkflowError with one of the notification
// codes.
func (s *SMTPSender) Send(ctx context.Context, sub Submission) error {
	cfg := s.config
	if !cfg.Complete() {
		return werrors.Notification(werrors.CodeNotificationGeneric,
			"mail transport is not configured", nil)
	}

	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	dialer := &net.Dialer{Timeout: cfg.Timeout}

	var (
		conn net.Conn
		err  error
	)
	if cfg.UseSSL {
		conn, err = tls.DialWithDialer(dialer, "tcp", addr, &tls.Config{ServerName: cfg.Host})
	} else {
		conn, err = dialer.DialContext(ctx, "tcp", addr)
	}
	if err != nil {
		return werrors.Notification(werrors.CodeNotificationConnect,
			"could not connect to mail server", err)
	}
	defer conn.Close()

	// Bound the whole SMTP conversation, not just the dial.
	deadline := time.Now().Add(cfg.Timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = conn.SetDeadline(deadline)

	client, err := smtp.NewClient(conn, cfg.Host)
	if err != nil {
		return werrors.Notification(werrors.CodeNotificationConnect,
			"mail server greeting failed", err)
	}
	defer client.Close()

	if cfg.UseTLS && !cfg.UseSSL {
		if err := client.StartTLS(&tls.Config{ServerName: cfg.Host}); err != nil {
			return werrors.Notification(werrors.CodeNotificationConnect,
				"STARTTLS negotiation failed", err)
		}
	}

	auth := smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	if err := client.Auth(auth); err != nil {
		return werrors.Notification(werrors.CodeNotificationAuth,
			"mail server rejected credentials", err)
	}

	if err := client.Mail(cfg.Username); err != nil {
		return werrors.Notification(classifyProtocolErr(err, werrors.CodeNotificationGeneric),
			"sender address rejected", err)
	}
	if err := client.Rcpt(cfg.Recipient); err != nil {
		return werrors.Notification(werrors.CodeNotificationRecipient,
			"recipient address refused", err)
	}

	w, err := client.Data()
	if err != nil {
		return werrors.Notification(werrors.CodeNotificationGeneric,
			"failed to open message body", err)
	}
	msg, err := buildMessage(cfg, sub)
	if err != nil {
		return werrors.Notification(werrors.CodeNotificationGeneric,
			"failed to compose message", err)
	}
	if _, err := w.Write(msg); err != nil {
		return werrors.Notification(werrors.CodeNotificationGeneric,
			"failed to write message body", err)
	}
	if err := w.Close(); err != nil {
		return werrors.Notification(werrors.CodeNotificationGeneric,
			"mail server rejected message", err)
	}

	if err := client.Quit(); err != nil {
		// Delivery already succeeded; log and move on.
		slog.Debug("smtp quit failed", "error", err)
	}

	slog.Info("submission email sent", "team", sub.Team, "recipient", cfg.Recipient)
	return nil
}

// classifyProtocolErr maps permanent authentication-class reply codes that
// can surface outside the AUTH stage.
func classifyProtocolErr(err error, fallback werrors.Code) werrors.Code {
	var proto *textproto.Error
	if errors.As(err, &proto) {
		switch proto.Code {
		case 530, 534, 535:
			return werrors.CodeNotificationAuth
		}
	}
	return fallback
}

// buildMessage renders the multipart/alternative notification with plain and
// HTML bodies.
func buildMessage(cfg *Config, sub Submission) ([]byte, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	fmt.Fprintf(&buf, "From: %s via PromptJam <%s>\r\n", sub.Team, cfg.Username)
	fmt.Fprintf(&buf, "To: %s\r\n", cfg.Recipient)
	fmt.Fprintf(&buf, "Subject: [Image Submission] From %s\r\n", sub.Team)
	fmt.Fprintf(&buf, "MIME-Version: 1.0\r\n")
	fmt.Fprintf(&buf, "Content-Type: multipart/alternative; boundary=%q\r\n", mw.Boundary())
	fmt.Fprintf(&buf, "\r\n")

	plain, err := mw.CreatePart(textproto.MIMEHeader{
		"Content-Type": {"text/plain; charset=UTF-8"},
	})
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(plain, "Team Name: %s\r\n\r\nSelected Prompt:\r\n----------------\r\n%s\r\n\r\nImage URL:\r\n----------\r\n%s\r\n",
		sub.Team, sub.Prompt, sub.ImageURL)

	htmlPart, err := mw.CreatePart(textproto.MIMEHeader{
		"Content-Type": {"text/html; charset=UTF-8"},
	})
	if err != nil {
		return nil, err
	}
	team, prompt, url := html.EscapeString(sub.Team), html.EscapeString(sub.Prompt), html.EscapeString(sub.ImageURL)
	fmt.Fprintf(htmlPart, `<html><body>
<p><strong>Team Name:</strong> %s</p>
<p><strong>Selected Prompt:</strong></p>
<p style="font-family: monospace; background-color: #f0f0f0; padding: 10px;">%s</p>
<p><strong>Image URL:</strong></p>
<p><a href="%s">%s</a></p>
<p><img src="%s" alt="Submitted Image" style="max-width: 100%%;"></p>
</body></html>`, team, prompt, url, url, url)

	if err := mw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

var _ Sender = (*SMTPSender)(nil)
