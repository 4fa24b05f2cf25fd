// Command server runs the growth-tools backend: chat history, message votes,
// and the quota-gated speech/transcription endpoints.
//
// @title           Growth Tools Backend API
// @version         1.0
// @description     Quota-gated speech and transcription endpoints plus chat history and votes for the portfolio AI demo.
// @BasePath        /api
package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/growth-tools-backend/docs"
	"github.com/tbourn/growth-tools-backend/internal/config"
	httpapi "github.com/tbourn/growth-tools-backend/internal/http"
	"github.com/tbourn/growth-tools-backend/internal/observability"
	"github.com/tbourn/growth-tools-backend/internal/provider"
	"github.com/tbourn/growth-tools-backend/internal/quota"
	"github.com/tbourn/growth-tools-backend/internal/repo"
	"github.com/tbourn/growth-tools-backend/internal/sysutil"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	// Optional .env for local runs; real deployments use the environment.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	_, logCloser := sysutil.SetupLogger(sysutil.LogOptions{
		Level:      cfg.LogLevel,
		Pretty:     cfg.LogPretty,
		File:       cfg.LogFile.Path,
		MaxSizeMB:  cfg.LogFile.MaxSizeMB,
		MaxBackups: cfg.LogFile.MaxBackups,
		MaxAgeDays: cfg.LogFile.MaxAgeDays,
		Compress:   cfg.LogFile.Compress,
	}, os.Stdout)
	defer logCloser.Close()

	ver := sysutil.FirstNonEmpty(os.Getenv("APP_VERSION"), version)
	ctx := context.Background()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, observability.BuildInfo{Version: ver, Environment: cfg.AppEnv})
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup failed")
	}

	db, err := repo.Open(repo.OpenOptions{
		Driver:      cfg.DB.Driver,
		SQLitePath:  cfg.DB.Path,
		PostgresDSN: cfg.DB.URL,
		Tracing:     cfg.OTEL.Enabled,
	})
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.DB.Driver).Msg("database open failed")
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migration failed")
	}

	gate := quota.NewGate(repo.NewUsageStore(db), cfg.Quota.Limit, cfg.Quota.Window)
	gate.DevMode = cfg.IsDevelopment()
	gate.Cache = quota.NewMemoryCache(cfg.Quota.CacheTTL)
	var redisCache *quota.RedisCache
	if cfg.Quota.Cache == "redis" {
		redisCache, err = quota.NewRedisCache(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("redis cache setup failed")
		}
		gate.Cache = redisCache
	}

	deps := httpapi.Deps{DB: db, Gate: gate}
	oa, err := provider.NewOpenAI(provider.OpenAIOptions{
		APIKey:             cfg.Provider.APIKey,
		BaseURL:            cfg.Provider.BaseURL,
		SpeechModel:        cfg.Provider.SpeechModel,
		TranscriptionModel: cfg.Provider.TranscriptionModel,
		DefaultVoice:       cfg.Provider.DefaultVoice,
	})
	switch {
	case err == nil:
		deps.Speaker, deps.Transcriber = oa, oa
	case errors.Is(err, provider.ErrNotConfigured):
		log.Warn().Msg("OPENAI_API_KEY not set; voice endpoints will answer 500 not_configured")
	default:
		log.Fatal().Err(err).Msg("provider setup failed")
	}

	docs.SwaggerInfo.BasePath = cfg.APIBasePath
	docs.SwaggerInfo.Version = ver

	gin.SetMode(cfg.GinMode)
	r := gin.New()
	httpapi.RegisterRoutes(r, deps, cfg)

	srv := &http.Server{
		Addr:              net.JoinHostPort("", cfg.Port),
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
			Str("env", cfg.AppEnv).
			Str("db", cfg.DB.Driver).
			Str("quota_cache", cfg.Quota.Cache).
			Int64("token_limit", cfg.Quota.Limit).
			Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}
	if redisCache != nil {
		if err := redisCache.Close(); err != nil {
			log.Warn().Err(err).Msg("redis close")
		}
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	if err := shutdownOTel(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("otel shutdown")
	}
	log.Info().Msg("server exited")
}
