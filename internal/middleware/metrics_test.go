package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"insight-api/internal/ctx"
	"insight-api/internal/shared"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestMetricsAuthMiddleware(t *testing.T) {
	e := echo.New()
	e.GET("/metrics", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	}, NewMetricsAuthMiddleware("metrics-secret"))

	tests := []struct {
		name     string
		header   string
		wantCode int
		wantBody string
	}{
		{"no header", "", http.StatusUnauthorized, "missing authorization header"},
		{"bad format", "Token metrics-secret", http.StatusUnauthorized, "invalid authentication format"},
		{"wrong key", "Bearer nope", http.StatusUnauthorized, "unauthorized"},
		{"right key", "Bearer metrics-secret", http.StatusOK, "ok"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, tt.wantBody, rec.Body.String())
		})
	}
}

func TestTrackAndRecoverMiddleware(t *testing.T) {
	e := echo.New()
	e.JSONSerializer = shared.JSONSerializer{}
	g := e.Group("")
	g.Use(NewTrackMiddleware(zap.NewNop().Sugar()))
	g.Use(NewRecoverMiddleware(zap.NewNop().Sugar()))

	var seenReqID string
	g.GET("/panic", func(cc echo.Context) error {
		seenReqID = cc.(*ctx.Context).Reqid
		panic("boom")
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/panic", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"success":false,"error":"Internal server error."}`, rec.Body.String())
	assert.True(t, strings.HasPrefix(seenReqID, "req_"))
	assert.Equal(t, seenReqID, rec.Header().Get("X-Request-Id"))
}
