package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/campustrade/backend/internal/config"
	"github.com/campustrade/backend/internal/db"
	"github.com/campustrade/backend/internal/logging"
	"github.com/campustrade/backend/internal/model"
	"github.com/campustrade/backend/internal/server"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		bootLog := logging.New("info", "json")
		bootLog.Fatal().Err(err).Msg("load config")
	}
	log := logging.New(cfg.LogLevel, cfg.LogFormat)

	conn, err := db.Connect(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("connect database")
	}
	if err := conn.AutoMigrate(&model.Item{}, &model.Appointment{}, &model.Notification{}); err != nil {
		log.Fatal().Err(err).Msg("auto migrate")
	}

	srv, err := server.New(conn, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("build server")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		addr := ":" + cfg.Port
		log.Info().Str("addr", addr).Msg("starting server")
		errCh <- srv.Start(ctx, addr)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown")
		}
	case err := <-errCh:
		if err != nil {
			log.Fatal().Err(err).Msg("server stopped")
		}
	}
}
