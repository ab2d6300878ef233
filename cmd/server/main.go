// Courtesy inspection server.
//
// Multi-tenant API for automotive courtesy inspections: authentication,
// inspection lifecycle, voice-note parsing, SMS notifications, and signed
// customer portal links.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/courtesyinspect/courtesyinspect/internal/api"
	"github.com/courtesyinspect/courtesyinspect/internal/api/handlers"
	apimw "github.com/courtesyinspect/courtesyinspect/internal/api/middleware"
	"github.com/courtesyinspect/courtesyinspect/internal/auth"
	"github.com/courtesyinspect/courtesyinspect/internal/config"
	"github.com/courtesyinspect/courtesyinspect/internal/inspection"
	"github.com/courtesyinspect/courtesyinspect/internal/photos"
	"github.com/courtesyinspect/courtesyinspect/internal/portal"
	"github.com/courtesyinspect/courtesyinspect/internal/sms"
	"github.com/courtesyinspect/courtesyinspect/internal/store"
	"github.com/courtesyinspect/courtesyinspect/internal/telemetry"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	shutdownTracing, err := telemetry.Init(cfg.Telemetry)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}

	ctx := context.Background()

	// Postgres when reachable, in-memory otherwise so local development
	// needs zero setup.
	var st store.Store
	pg, err := store.NewPostgres(ctx, cfg.Database)
	if err != nil {
		log.Warn().Err(err).Msg("database unreachable, using in-memory store")
		st = store.NewMemoryStore()
	} else {
		if err := pg.Migrate(ctx); err != nil {
			log.Fatal().Err(err).Msg("migrations failed")
		}
		st = pg
	}
	defer st.Close()

	hasher := auth.NewPasswordHasher(cfg.Auth.BcryptCost)
	tokens := auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.AccessTTL, cfg.Auth.RefreshTTL, st)
	authSvc := auth.NewService(st, hasher, tokens)
	inspSvc := inspection.NewService(st)
	photoSvc := photos.NewService(st, photos.NewDiskStorage(cfg.UploadPath, cfg.Portal.BaseURL))
	portalSvc := portal.NewService(st, []byte(cfg.Auth.JWTSecret), cfg.Portal.TokenTTL, cfg.Portal.BaseURL)
	smsSvc := sms.NewService(&sms.LogTransport{Logger: log.Logger}, cfg.EnableSMS)

	h := handlers.New(st, authSvc, inspSvc, photoSvc, portalSvc, smsSvc)
	router := api.NewRouter(cfg, h, apimw.NewAuthenticator(tokens))

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Info().Msg("shutting down gracefully")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		httpServer.Shutdown(shutdownCtx)
		shutdownTracing(shutdownCtx)
	}()

	log.Info().Int("port", cfg.Port).Msg("courtesy inspection server listening")

	if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("server failed")
	}
}
