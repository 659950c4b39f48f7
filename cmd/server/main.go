package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/rs/zerolog"
	"github.com/teamforge/auth-service/auth"
	"github.com/teamforge/auth-service/internal/config"
	"github.com/teamforge/auth-service/ratelimit"
	"github.com/teamforge/auth-service/server"
	"github.com/teamforge/auth-service/token"
	"github.com/teamforge/auth-service/users"
	"github.com/teamforge/auth-service/users/repofake"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error running server: %s\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}

	log := newLogger(cfg)
	displayAppname(cfg.AppName)

	if cfg.RefreshSecretDefaulted() {
		log.Warn().Msg("REFRESH_TOKEN_SECRET not set, refresh tokens share the access secret")
	}

	codec := token.NewCodec(
		token.NewHMACSigner(cfg.AccessTokenSecret),
		token.NewHMACSigner(cfg.RefreshTokenSecret),
	)
	hasher := users.NewPasswordHasher(cfg.BcryptCost)

	// TODO: replace with the SQL-backed UserRepo once the store service
	// exposes its driver package.
	userRepo := repofake.NewFakeUserRepo()

	authService, err := auth.NewService(userRepo, codec, hasher, auth.TTLConfig{
		Access:     cfg.AccessTokenTTL,
		Refresh:    cfg.RefreshTokenTTL,
		RememberMe: cfg.RememberMeTTL,
	})
	if err != nil {
		return err
	}

	limiter := ratelimit.New(ratelimit.NewMemoryStore(), cfg.RateLimitWindow, cfg.RateLimitMaxAttempts)

	srv := server.New(cfg, authService, limiter, log)
	for _, route := range srv.Routes() {
		log.Info().Str("route", route).Msg("registered")
	}

	httpServer := &http.Server{Addr: cfg.Addr(), Handler: srv}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", httpServer.Addr).Msg("server listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-waitForStopSignal():
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	log.Info().Msg("server stopped")
	return nil
}

func waitForStopSignal() <-chan os.Signal {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	return stop
}

func newLogger(cfg *config.Config) zerolog.Logger {
	if cfg.DevMode() {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
