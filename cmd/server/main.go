// Command server runs the part-matching API: interactive AI match
// suggestions plus the automatic cross-matching sweep, over SQLite storage
// with Prometheus metrics, OTLP tracing, and optional Kafka notifications.
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
	zlog "github.com/rs/zerolog/log"

	"github.com/LewisZett/tech-part-finder/internal/ai/gemini"
	"github.com/LewisZett/tech-part-finder/internal/auth"
	"github.com/LewisZett/tech-part-finder/internal/config"
	httpapi "github.com/LewisZett/tech-part-finder/internal/http"
	"github.com/LewisZett/tech-part-finder/internal/notify"
	"github.com/LewisZett/tech-part-finder/internal/observability"
	"github.com/LewisZett/tech-part-finder/internal/repo"
	"github.com/LewisZett/tech-part-finder/internal/services"
	"github.com/LewisZett/tech-part-finder/internal/sysutil"
)

const version = "1.0.0"

func main() {
	// .env is a convenience for local runs; absent in production.
	_ = godotenv.Load()

	cfg := config.MustLoad()
	sysutil.SetupLogger(cfg.LogLevel, cfg.LogPretty)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.SetupTracing(ctx, cfg.OTEL, version)
	if err != nil {
		zlog.Fatal().Err(err).Msg("tracing setup failed")
	}

	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		zlog.Fatal().Err(err).Str("path", cfg.DBPath).Msg("database open failed")
	}
	if err := repo.AutoMigrate(db); err != nil {
		zlog.Fatal().Err(err).Msg("database migration failed")
	}

	// The ranker is optional: without an API key the interactive path
	// degrades to empty suggestion lists and the sweep refuses to run.
	var ranker services.Ranker
	if cfg.Gemini.APIKey != "" {
		gen, err := gemini.NewGenerator(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model, cfg.Gemini.Timeout)
		if err != nil {
			zlog.Fatal().Err(err).Msg("ranking client setup failed")
		}
		ranker = gemini.NewRanker(gen, zlog.Logger)
		zlog.Info().Str("model", gen.Model()).Msg("ranking client ready")
	} else {
		zlog.Warn().Msg("GEMINI_API_KEY not set, match suggestions disabled")
	}

	var pub notify.Publisher
	var kafkaPub *notify.KafkaPublisher
	if cfg.Kafka.Enabled {
		kafkaPub = notify.NewKafkaPublisher(cfg.Kafka.Broker, cfg.Kafka.Topic)
		pub = kafkaPub
		zlog.Info().Str("broker", cfg.Kafka.Broker).Str("topic", cfg.Kafka.Topic).Msg("kafka notifications enabled")
	} else {
		pub = notify.LogPublisher{Logger: zlog.Logger}
	}
	dispatcher := notify.NewDispatcher(pub, zlog.Logger, 0)
	dispatcher.Start()

	authSvc := auth.NewService(cfg.JWTSecret)
	if key := os.Getenv("ADMIN_API_KEY"); key != "" {
		authSvc.RegisterCredentials(key, os.Getenv("ADMIN_API_SECRET"))
	}

	gin.SetMode(cfg.GinMode)
	router := gin.New()
	httpapi.RegisterRoutes(router, db, cfg, ranker, dispatcher, authSvc)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go func() {
		zlog.Info().Str("addr", srv.Addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal().Err(err).Msg("listen failed")
		}
	}()

	<-ctx.Done()
	zlog.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Error().Err(err).Msg("server shutdown")
	}

	dispatcher.Close()
	if kafkaPub != nil {
		if err := kafkaPub.Close(); err != nil {
			zlog.Error().Err(err).Msg("kafka close")
		}
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		zlog.Error().Err(err).Msg("tracing shutdown")
	}

	zlog.Info().Msg("bye")
}
