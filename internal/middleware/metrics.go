// Package middleware holds the base echo middleware shared by every route
package middleware

import (
	"errors"
	"fmt"
	"time"

	"insight-api/internal/ctx"
	"insight-api/internal/metrics"
	"insight-api/internal/shared"

	"github.com/aidarkhanov/nanoid"
	"github.com/labstack/echo/v4"
	emw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

const reqIDAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

func NewTrackMiddleware(log *zap.SugaredLogger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			reqID, err := nanoid.Generate(reqIDAlphabet, 28)
			if err != nil {
				reqID = fmt.Sprintf("%d", time.Now().UnixNano())
			}
			reqID = "req_" + reqID
			logger := log.With("request_id", reqID)

			cc := ctx.New(c, logger, reqID)
			cc.LogValues.ExternalID = c.Request().Header.Get("X-Request-Id")
			c.Response().Header().Set("X-Request-Id", reqID)

			err = next(cc)
			if err != nil {
				// Let echo write the error response so the logged status is final
				c.Error(err)
			}

			cc.LogValues.RequestDuration = time.Since(cc.LogValues.StartTime)
			cc.LogValues.StatusCode = cc.Response().Status
			logEndOfRequest(cc)
			metrics.ResponseCodes.WithLabelValues(cc.Path(), fmt.Sprintf("%d", cc.Response().Status)).Inc()
			return nil
		}
	}
}

func logEndOfRequest(c *ctx.Context) {
	level := c.LogValues.LogLevel
	if level == "" {
		switch {
		case c.LogValues.StatusCode >= 500:
			level = "ERROR"
		case c.LogValues.StatusCode >= 400:
			level = "WARN"
		default:
			level = "INFO"
		}
	}
	fields := []any{zap.Object("request", c.LogValues)}
	switch level {
	case "ERROR":
		c.Log.Errorw("end_of_request", fields...)
	case "WARN":
		c.Log.Warnw("end_of_request", fields...)
	default:
		c.Log.Infow("end_of_request", fields...)
	}
}

func NewRecoverMiddleware(log *zap.SugaredLogger) echo.MiddlewareFunc {
	return emw.RecoverWithConfig(emw.RecoverConfig{
		StackSize: 1 << 10, // 1 KB
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			defer func() {
				_ = log.Sync()
			}()
			log.Errorw("Api Panic", "error", err.Error(), "stack", string(stack))
			return c.JSON(shared.ErrInternalServerError.StatusCode, shared.Failed(shared.ErrInternalServerError.Err.Error()))
		},
	})
}

// NewMetricsAuthMiddleware guards /metrics behind a bearer key.
func NewMetricsAuthMiddleware(metricsAPIKey string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			apiKey, err := shared.ExtractAPIKey(c)
			if err != nil {
				rerr := shared.ErrUnauthorized
				errors.As(err, &rerr)
				return c.String(rerr.StatusCode, rerr.Err.Error())
			}
			if apiKey != metricsAPIKey {
				return c.String(shared.ErrUnauthorized.StatusCode, shared.ErrUnauthorized.Err.Error())
			}
			return next(c)
		}
	}
}
