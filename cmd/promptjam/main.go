package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/promptjam/promptjam/internal/profile"
	"github.com/promptjam/promptjam/server"
)

var version = "0.1.0"

var (
	mode string
	addr string
	port int

	rootCmd = &cobra.Command{
		Use:   "promptjam",
		Short: "Team image-prompt showcase server",
		Long:  "PromptJam lets logged-in teams generate images from prompts and email a selected result to the organizers.",
		RunE:  run,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&mode, "mode", "m", "dev", `server mode, can be "prod", "dev" or "demo"`)
	rootCmd.PersistentFlags().StringVarP(&addr, "addr", "a", "", "address of the server")
	rootCmd.PersistentFlags().IntVarP(&port, "port", "p", 8081, "port of the server")
}

func run(cmd *cobra.Command, _ []string) error {
	prof := &profile.Profile{Version: version}
	// Explicit flags win over PROMPTJAM_* environment variables.
	if cmd.Flags().Changed("mode") {
		prof.Mode = mode
	}
	if cmd.Flags().Changed("addr") {
		prof.Addr = addr
	}
	if cmd.Flags().Changed("port") {
		prof.Port = port
	}
	prof.FromEnv()

	initLogger(prof)

	if err := prof.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := server.NewServer(ctx, prof)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.Start(ctx)
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.Shutdown(shutdownCtx)
	return nil
}

func initLogger(p *profile.Profile) {
	var handler slog.Handler
	if p.IsDev() {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	} else {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	}
	slog.SetDefault(slog.New(handler))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
