package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"insight-api/internal/config"
	"insight-api/internal/database"
	"insight-api/internal/generator"
	"insight-api/internal/routers"
	"insight-api/internal/shared"
	"insight-api/internal/telemetry"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Parse()
	if err != nil {
		panic(err)
	}

	var logger *zap.Logger
	if !cfg.Debug {
		logger, err = zap.NewProduction()
		if err != nil {
			panic("Failed init logger")
		}
	}
	if cfg.Debug {
		logger, err = zap.NewDevelopment()
		if err != nil {
			panic("Failed init logger")
		}
	}
	log := logger.Sugar()
	defer func() {
		_ = log.Sync()
	}()

	if cfg.MissingCredential() {
		log.Warn("GEMINI_API_KEY is not set, generation requests will fail until it is configured")
	}

	shutdownTracing, err := telemetry.Init(context.Background(), telemetry.Config{
		Exporter: cfg.TraceExporter,
		Endpoint: cfg.OTLPEndpoint,
	})
	if err != nil {
		panic(err)
	}

	// Usage ledger db is optional
	var db *sql.DB
	if cfg.DSN != "" {
		db, err = database.Open(cfg.DSN)
		if err != nil {
			panic(err)
		}
		defer func() {
			_ = db.Close()
		}()
	}

	gen := generator.NewGemini(generator.GeminiConfig{
		APIKey:   cfg.GeminiAPIKey,
		Model:    cfg.Model,
		Endpoint: cfg.GeminiEndpoint,
	}, log)
	defer func() {
		_ = gen.Close()
	}()

	e, base := routers.NewServer(routers.ServerConfig{
		MetricsAPIKey: cfg.MetricsAPIKey,
		Tracing:       cfg.TraceExporter != telemetry.ExporterNone,
	}, log)

	shutdownLedger, err := routers.RegisterInsightRoutes(base, routers.InsightRouterConfig{
		Path:      cfg.Path,
		Generator: gen,
		DB:        db,
	}, log)
	if err != nil {
		panic(err)
	}
	defer shutdownLedger()

	go func() {
		log.Infow("Starting server", "port", cfg.Port, "path", cfg.Path, "model", gen.Model())
		if err := e.Start(fmt.Sprintf(":%d", cfg.Port)); err != nil && err != http.ErrServerClosed {
			log.Fatalw("shutting down the server", "error", err)
		}
	}()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), shared.DefaultShutdownTimeout)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Errorw("Failed graceful shutdown", "error", err)
	}
	if err := shutdownTracing(ctx); err != nil {
		log.Errorw("Failed flushing traces", "error", err)
	}
}
