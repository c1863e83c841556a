// Package server assembles the HTTP server: configuration in, Echo instance
// with the workflow and its collaborators out.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"golang.org/x/time/rate"

	"github.com/promptjam/promptjam/internal/profile"
	"github.com/promptjam/promptjam/plugin/imagegen"
	"github.com/promptjam/promptjam/plugin/mailer"
	"github.com/promptjam/promptjam/server/router/web"
	"github.com/promptjam/promptjam/server/session"
	"github.com/promptjam/promptjam/server/workflow"
)

// Server is the assembled PromptJam HTTP server.
type Server struct {
	Profile *profile.Profile
	Store   *session.Store

	echoServer *echo.Echo
	janitor    *session.Janitor
}

// NewServer builds the server from the profile. Every collaborator is
// constructed here and injected; request handlers hold no ambient state.
func NewServer(_ context.Context, prof *profile.Profile) (*Server, error) {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	renderer, err := web.NewRenderer()
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse templates")
	}
	e.Renderer = renderer

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			slog.Info("http request",
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency_ms", v.Latency.Milliseconds(),
				"request_id", v.RequestID)
			return nil
		},
	}))

	store := session.NewStore(prof.SessionTTL)
	tokens := session.NewTokenManager(prof.SessionSecret, prof.SessionTTL)

	generator := imagegen.NewClient(&imagegen.Config{
		APIKey:      prof.ImageAPIKey,
		BaseURL:     prof.ImageBaseURL,
		Model:       prof.ImageModel,
		Size:        prof.ImageSize,
		Timeout:     prof.ImageTimeout,
		MaxInFlight: prof.ImageMaxInFlight,
	})
	sender := mailer.NewSMTPSender(&mailer.Config{
		Host:      prof.MailHost,
		Port:      prof.MailPort,
		UseTLS:    prof.MailUseTLS,
		UseSSL:    prof.MailUseSSL,
		Username:  prof.MailUsername,
		Password:  prof.MailPassword,
		Recipient: prof.MailRecipient,
		Timeout:   prof.MailTimeout,
	})

	wf := workflow.NewService(store, generator, sender, prof.Teams)

	// One login attempt per second per IP with a small burst keeps the fixed
	// team list from being enumerated by brute force.
	loginLimiter := middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
			Rate:      rate.Limit(1),
			Burst:     10,
			ExpiresIn: 3 * time.Minute,
		}),
	})

	handler := web.NewHandler(wf, tokens, !prof.IsDev())
	handler.Register(e, loginLimiter)

	return &Server{
		Profile:    prof,
		Store:      store,
		echoServer: e,
		janitor:    session.NewJanitor(store, session.DefaultSweepInterval),
	}, nil
}

// Start runs the janitor and blocks serving HTTP until the listener fails or
// Shutdown is called.
func (s *Server) Start(ctx context.Context) error {
	s.janitor.Start(ctx)

	addr := fmt.Sprintf("%s:%d", s.Profile.Addr, s.Profile.Port)
	slog.Info("server started", "addr", addr, "mode", s.Profile.Mode, "version", s.Profile.Version)
	return s.echoServer.Start(addr)
}

// Shutdown drains in-flight requests and stops background work.
func (s *Server) Shutdown(ctx context.Context) {
	if err := s.echoServer.Shutdown(ctx); err != nil {
		slog.Error("failed to shut down server gracefully", "error", err)
	}
	s.janitor.Stop()
	slog.Info("server shut down")
}

// Echo exposes the underlying Echo instance for tests.
func (s *Server) Echo() *echo.Echo {
	return s.echoServer
}
