package ctx

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestAddErrorChains(t *testing.T) {
	first := errors.New("first")
	second := errors.New("second")

	lv := &ContextLogValues{}
	lv.AddError(nil)
	assert.Nil(t, lv.Error)

	lv.AddError(first)
	lv.AddError(second)
	require.Error(t, lv.Error)
	assert.ErrorIs(t, lv.Error, first)
	assert.ErrorIs(t, lv.Error, second)
	assert.Equal(t, "second: first", lv.Error.Error())
}

func TestNewAndMarshal(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/insight", nil)
	core, logs := observer.New(zapcore.InfoLevel)

	c := New(e.NewContext(req, httptest.NewRecorder()), zap.New(core).Sugar(), "req_abc")
	assert.Equal(t, "req_abc", c.Reqid)
	assert.Equal(t, http.MethodPost, c.LogValues.Method)
	assert.Equal(t, "/api/insight", c.LogValues.Path)

	c.LogValues.Model = "gemini-1.5-flash"
	c.LogValues.PromptChars = 5
	c.LogValues.AddError(errors.New("boom"))
	c.Log.Infow("end_of_request", zap.Object("request", c.LogValues))

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()["request"].(map[string]any)
	assert.Equal(t, "req_abc", fields["request_id"])
	assert.Equal(t, "gemini-1.5-flash", fields["model"])
	assert.Equal(t, 5, fields["prompt_chars"])
	assert.Equal(t, "boom", fields["error"])
}
