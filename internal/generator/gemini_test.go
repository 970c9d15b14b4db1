package generator

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"insight-api/internal/shared"

	"cloud.google.com/go/ai/generativelanguage/apiv1beta/generativelanguagepb"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestGemini(t *testing.T, handler http.HandlerFunc) *Gemini {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	g := NewGemini(GeminiConfig{
		APIKey:   "test-key",
		Endpoint: srv.URL,
	}, zap.NewNop().Sugar())
	t.Cleanup(func() { _ = g.Close() })
	return g
}

func TestGeminiGenerate(t *testing.T) {
	var calls atomic.Int32
	g := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1beta/models/gemini-1.5-flash:generateContent", r.URL.Path)
		key := r.URL.Query().Get("key")
		if key == "" {
			key = r.Header.Get("X-Goog-Api-Key")
		}
		assert.Equal(t, "test-key", key)

		raw, err := io.ReadAll(r.Body)
		if !assert.NoError(t, err) {
			return
		}
		var body struct {
			Contents []struct {
				Role  string `json:"role"`
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"contents"`
		}
		if assert.NoError(t, json.Unmarshal(raw, &body)) &&
			assert.Len(t, body.Contents, 1) &&
			assert.Len(t, body.Contents[0].Parts, 1) {
			assert.Equal(t, "user", body.Contents[0].Role)
			assert.Equal(t, "Hello", body.Contents[0].Parts[0].Text)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"candidates": [{
				"content": {"role": "model", "parts": [{"text": "Hi "}, {"text": "there!"}]},
				"finishReason": "STOP"
			}],
			"usageMetadata": {"promptTokenCount": 2, "candidatesTokenCount": 3, "totalTokenCount": 5}
		}`))
	})

	assert.Equal(t, shared.DefaultModel, g.Model())

	res, err := g.Generate(context.Background(), "Hello")
	require.NoError(t, err)
	assert.Equal(t, "Hi there!", res.Text)
	require.NotNil(t, res.Usage)
	assert.Equal(t, uint64(2), res.Usage.PromptTokens)
	assert.Equal(t, uint64(3), res.Usage.CompletionTokens)
	assert.Equal(t, uint64(5), res.Usage.TotalTokens)

	// the service is reused across calls
	_, err = g.Generate(context.Background(), "Hello")
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestGeminiGenerateUpstreamError(t *testing.T) {
	g := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error": {"code": 400, "message": "API key not valid. Please pass a valid API key.", "status": "INVALID_ARGUMENT"}}`))
	})

	res, err := g.Generate(context.Background(), "Hello")
	require.Error(t, err)
	assert.Nil(t, res)
	assert.Contains(t, err.Error(), "API key not valid")
}

func TestGeminiGenerateWithoutKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.URL.Query().Get("key"))
		assert.Empty(t, r.Header.Get("X-Goog-Api-Key"))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error": {"code": 403, "message": "Method doesn't allow unregistered callers.", "status": "PERMISSION_DENIED"}}`))
	}))
	defer srv.Close()

	g := NewGemini(GeminiConfig{Endpoint: srv.URL}, zap.NewNop().Sugar())
	defer g.Close()

	_, err := g.Generate(context.Background(), "Hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unregistered callers")
}

func TestModelResource(t *testing.T) {
	assert.Equal(t, "models/gemini-1.5-flash", modelResource("gemini-1.5-flash"))
	assert.Equal(t, "models/gemini-pro", modelResource("models/gemini-pro"))
}

func TestResultFromResponse(t *testing.T) {
	t.Run("no candidates", func(t *testing.T) {
		_, err := resultFromResponse(&generativelanguagepb.GenerateContentResponse{})
		require.Error(t, err)
		assert.True(t, errors.Is(err, shared.ErrEmptyCandidates))
	})

	t.Run("nil response", func(t *testing.T) {
		_, err := resultFromResponse(nil)
		assert.True(t, errors.Is(err, shared.ErrEmptyCandidates))
	})

	t.Run("blocked prompt", func(t *testing.T) {
		_, err := resultFromResponse(&generativelanguagepb.GenerateContentResponse{
			PromptFeedback: &generativelanguagepb.GenerateContentResponse_PromptFeedback{
				BlockReason: generativelanguagepb.GenerateContentResponse_PromptFeedback_SAFETY,
			},
		})
		require.Error(t, err)
		assert.Equal(t, shared.ErrEmptyCandidates.Code, shared.ErrorCode(err))
		assert.Contains(t, err.Error(), "SAFETY")
	})

	t.Run("parts are joined", func(t *testing.T) {
		res, err := resultFromResponse(&generativelanguagepb.GenerateContentResponse{
			Candidates: []*generativelanguagepb.Candidate{{
				Content: &generativelanguagepb.Content{
					Parts: []*generativelanguagepb.Part{
						{Data: &generativelanguagepb.Part_Text{Text: "a"}},
						nil,
						{Data: &generativelanguagepb.Part_Text{Text: "b"}},
					},
				},
			}},
		})
		require.NoError(t, err)
		assert.Equal(t, "ab", res.Text)
		assert.Nil(t, res.Usage)
	})
}

func TestGeminiCloseBeforeUse(t *testing.T) {
	g := NewGemini(GeminiConfig{}, zap.NewNop().Sugar())
	assert.NoError(t, g.Close())
}

func TestFuncGenerator(t *testing.T) {
	var gen TextGenerator = Func{
		ModelName: "fake",
		Fn: func(_ context.Context, prompt string) (*Result, error) {
			return &Result{Text: prompt + "!"}, nil
		},
	}
	res, err := gen.Generate(context.Background(), "hey")
	require.NoError(t, err)
	assert.Equal(t, "hey!", res.Text)
	assert.Equal(t, "fake", gen.Model())
}
