// Command server runs the dealership back-office HTTP API.
//
// @title       Dealership Back-Office API
// @version     1.0
// @description Vehicle inventory, contact intake, and newsletter subscriptions for a car dealership.
// @BasePath    /api
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/dealership-backend/internal/bootstrap"
	"github.com/tbourn/dealership-backend/internal/config"
	httpapi "github.com/tbourn/dealership-backend/internal/http"
	"github.com/tbourn/dealership-backend/internal/observability"
	"github.com/tbourn/dealership-backend/internal/sysutil"
)

var version = "dev"

const shutdownTimeout = 15 * time.Second

func main() {
	_ = godotenv.Load()

	cfg := config.MustLoad()
	sysutil.ConfigureLogger(cfg.LogLevel, cfg.LogPretty, os.Stdout)
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, observability.Deployment{
		Version:        version,
		StoreBackend:   cfg.Store.Backend,
		NotifyProvider: cfg.Notify.Provider,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup failed")
	}

	backend, db, err := bootstrap.Store(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("backend", cfg.Store.Backend).Msg("record store init failed")
	}
	if db != nil {
		defer func() {
			if sqlDB, err := db.DB(); err == nil {
				_ = sqlDB.Close()
			}
		}()
		go bootstrap.PurgeIdempotency(ctx, db, time.Hour)
	}

	replay, closeReplay := bootstrap.Replay(ctx, cfg.RedisURL, db)
	if closeReplay != nil {
		defer func() { _ = closeReplay() }()
	}

	notifier, err := bootstrap.Notifier(ctx, cfg.Notify, cfg.AWS)
	if err != nil {
		log.Fatal().Err(err).Str("provider", cfg.Notify.Provider).Msg("notifier init failed")
	}

	r := gin.New()
	httpapi.RegisterRoutes(r, httpapi.Deps{Store: backend, Notifier: notifier, Replay: replay}, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go func() {
		log.Info().
			Str("addr", srv.Addr).
			Str("store", cfg.Store.Backend).
			Str("notify", cfg.Notify.Provider).
			Bool("replay", replay != nil).
			Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("listen failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	if err := shutdownOTel(sctx); err != nil {
		log.Error().Err(err).Msg("otel shutdown")
	}
}
