package routers

import (
	"database/sql"
	"errors"

	"insight-api/internal/buckets"
	"insight-api/internal/generator"
	"insight-api/internal/handlers/insight"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type InsightRouterConfig struct {
	Path      string
	Generator generator.TextGenerator
	// DB enables the usage ledger when set
	DB *sql.DB
}

// RegisterInsightRoutes serves the insight endpoint for every method; the
// handler itself answers non-POST requests. Any only covers echo's fixed
// method list, so the path's not-found route catches the rest. The returned func flushes the
// usage ledger and must be called on shutdown.
func RegisterInsightRoutes(e *echo.Group, config InsightRouterConfig, log *zap.SugaredLogger) (func(), error) {
	if config.Generator == nil {
		return nil, errors.New("insight routes need a generator")
	}
	if config.Path == "" {
		return nil, errors.New("insight routes need a path")
	}

	shutdown := func() {}
	var usage insight.UsageRecorder
	if config.DB != nil {
		cache := buckets.NewUsageCache(log, config.DB)
		usage = cache
		shutdown = cache.Shutdown
		log.Info("Usage ledger enabled")
	}

	ih := insight.NewInsightHandler(config.Generator, usage, log)
	e.Any(config.Path, ih.Generate)
	e.RouteNotFound(config.Path, ih.Generate)
	return shutdown, nil
}
