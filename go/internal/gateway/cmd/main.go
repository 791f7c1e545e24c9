package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mcdev12/livecountdown/go/internal/config"
	"github.com/mcdev12/livecountdown/go/internal/gateway"
	"github.com/mcdev12/livecountdown/go/internal/notify"
	"github.com/mcdev12/livecountdown/go/internal/schedule"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

func main() {
	// Setup logging
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg := config.Load()
	zerolog.SetGlobalLevel(cfg.LogLevel)

	sched, err := schedule.Load(cfg.ScheduleFile)
	if err != nil {
		log.Fatal().Err(err).Str("file", cfg.ScheduleFile).Msg("failed to load schedule")
	}

	publisher := setupPublisher(cfg)
	defer publisher.Close()

	log.Info().
		Str("schedule_file", cfg.ScheduleFile).
		Int("streams", len(sched.Streams)).
		Str("nats_url", cfg.NATSURL).
		Str("port", cfg.Port).
		Msg("starting countdown gateway")

	gatewayService := gateway.NewService(gateway.DefaultConfig(), sched, publisher)

	server := &http.Server{
		Addr:        fmt.Sprintf(":%s", cfg.Port),
		Handler:     h2c.NewHandler(gatewayService.Handler(), &http2.Server{}),
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 120 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := gatewayService.Start(ctx); err != nil {
			log.Error().Err(err).Msg("gateway service failed")
		}
	}()

	go func() {
		log.Info().Str("addr", server.Addr).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	sig := <-sigChan

	log.Info().Str("signal", sig.String()).Msg("received shutdown signal")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}

	cancel()
	gatewayService.Stop()

	log.Info().Msg("countdown gateway shutdown complete")
}

func setupPublisher(cfg config.Config) notify.Publisher {
	if cfg.NATSURL == "" {
		log.Warn().Msg("NATS_URL not set, LiveStarted events will only be logged")
		return notify.NewLogPublisher()
	}

	natsConfig := notify.DefaultNATSConfig()
	natsConfig.URL = cfg.NATSURL
	natsConfig.SubjectPrefix = cfg.NATSSubjectPrefix

	publisher, err := notify.NewNATSPublisher(natsConfig)
	if err != nil {
		log.Fatal().Err(err).Str("nats_url", cfg.NATSURL).Msg("failed to connect to NATS")
	}
	return publisher
}
