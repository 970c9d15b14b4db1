// Package routers wires handlers onto the echo server
package routers

import (
	"insight-api/internal/middleware"
	"insight-api/internal/shared"
	"insight-api/internal/telemetry"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type ServerConfig struct {
	MetricsAPIKey string
	Tracing       bool
}

// NewServer builds the echo instance with the base routes and returns the
// group that application routes should be registered on.
func NewServer(config ServerConfig, log *zap.SugaredLogger) (*echo.Echo, *echo.Group) {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.JSONSerializer = shared.JSONSerializer{}

	if config.Tracing {
		e.Use(telemetry.Middleware())
	}

	e.GET("/ping", func(c echo.Context) error {
		return c.String(200, "")
	})
	if config.MetricsAPIKey != "" {
		e.GET("/metrics", echo.WrapHandler(promhttp.Handler()), middleware.NewMetricsAuthMiddleware(config.MetricsAPIKey))
	}

	base := e.Group("")
	base.Use(middleware.NewTrackMiddleware(log))
	base.Use(middleware.NewRecoverMiddleware(log))
	return e, base
}
