package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/chayannito26/order-notify/internal/config"
	"github.com/chayannito26/order-notify/internal/logger"
	"github.com/chayannito26/order-notify/internal/providers/factory"
	"github.com/chayannito26/order-notify/internal/server"
	"github.com/chayannito26/order-notify/internal/service"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		fail("config load", err)
	}

	baseLogger, err := logger.New(cfg.App.Env, cfg.App.LogLevel)
	if err != nil {
		fail("logger init", err)
	}
	log := baseLogger.With().Str("service", "notify-server").Logger()

	provider, err := factory.Email(cfg.Provider, log.With().Str("component", "email-provider").Logger())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialise email provider")
	}

	svc, err := service.New(cfg, provider, log.With().Str("component", "email-service").Logger())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialise email service")
	}

	srv := server.New(svc, log.With().Str("component", "http-server").Logger())

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(cfg.App.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	log.Info().
		Int("port", cfg.App.Port).
		Str("backend", cfg.Provider.Backend).
		Msg("notification service started")

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("http server terminated with error")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}

func fail(stage string, err error) {
	log := zerolog.New(os.Stdout).With().Timestamp().Logger()
	log.Fatal().Err(err).Str("stage", stage).Msg("notify server init failed")
}
