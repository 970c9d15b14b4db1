// Package insight holds the generative-text proxy endpoint
package insight

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"time"
	"unicode/utf8"

	"insight-api/internal/ctx"
	"insight-api/internal/generator"
	"insight-api/internal/metrics"
	"insight-api/internal/shared"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// UsageRecorder receives one record per finished generation.
type UsageRecorder interface {
	AddRecord(record *shared.GenerationRecord)
}

// InsightHandler proxies prompts to a TextGenerator and answers with the
// shared.Envelope. Usage is optional.
type InsightHandler struct {
	Generator generator.TextGenerator
	Usage     UsageRecorder
	Log       *zap.SugaredLogger
}

// NewInsightHandler builds the handler. usage may be nil.
func NewInsightHandler(gen generator.TextGenerator, usage UsageRecorder, log *zap.SugaredLogger) *InsightHandler {
	return &InsightHandler{
		Generator: gen,
		Usage:     usage,
		Log:       log,
	}
}

// Generate validates the request, forwards the prompt to the generator and
// writes the response envelope.
func (ih *InsightHandler) Generate(cc echo.Context) error {
	c, ok := cc.(*ctx.Context)
	if !ok {
		c = ctx.New(cc, ih.Log, "")
	}

	if c.Request().Method != http.MethodPost {
		c.LogValues.AddError(shared.ErrMethodNotAllowed)
		return writeRequestError(c, shared.ErrMethodNotAllowed)
	}

	prompt, err := readPrompt(c)
	if err != nil {
		c.LogValues.AddError(err)
		return writeRequestError(c, shared.ErrMissingPrompt)
	}

	model := ih.Generator.Model()
	c.LogValues.Model = model
	promptChars := utf8.RuneCountInString(prompt)
	c.LogValues.PromptChars = promptChars

	start := time.Now()
	res, genErr := ih.generate(c, prompt)
	elapsed := time.Since(start)
	metrics.GenerationDuration.WithLabelValues(model).Observe(elapsed.Seconds())

	if genErr == nil && res == nil {
		genErr = shared.ErrEmptyCandidates
	}

	record := &shared.GenerationRecord{
		RequestID:   c.Reqid,
		Model:       model,
		PromptChars: promptChars,
		TotalTime:   elapsed,
		Success:     genErr == nil,
		CreatedAt:   start,
	}

	if genErr != nil {
		code := shared.ErrorCode(genErr)
		switch {
		case c.Request().Context().Err() != nil:
			code = shared.ErrModelContext.Code
		case code == "unknown":
			code = shared.ErrFailedModelReq.Code
		}
		record.ErrorCode = code
		ih.recordUsage(record)
		metrics.GenerationCount.WithLabelValues(model, "error").Inc()
		metrics.ErrorCount.WithLabelValues(model, code).Inc()

		c.Log.Errorw("Failed to generate AI insight", "error", genErr.Error(), "model", model)
		c.LogValues.AddError(genErr)
		c.LogValues.LogLevel = "ERROR"
		return c.JSON(http.StatusInternalServerError, shared.UpstreamFailed(genErr))
	}

	record.Usage = res.Usage
	ih.recordUsage(record)
	metrics.GenerationCount.WithLabelValues(model, "success").Inc()
	if res.Usage != nil {
		metrics.PromptTokens.WithLabelValues(model).Add(float64(res.Usage.PromptTokens))
		metrics.CompletionTokens.WithLabelValues(model).Add(float64(res.Usage.CompletionTokens))
	}

	return c.JSON(http.StatusOK, shared.Succeeded(res.Text))
}

func (ih *InsightHandler) generate(c *ctx.Context, prompt string) (*generator.Result, error) {
	metrics.InflightGenerations.Inc()
	defer metrics.InflightGenerations.Dec()
	return ih.Generator.Generate(c.Request().Context(), prompt)
}

func (ih *InsightHandler) recordUsage(record *shared.GenerationRecord) {
	if ih.Usage == nil {
		return
	}
	ih.Usage.AddRecord(record)
}

func readPrompt(c *ctx.Context) (string, error) {
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, shared.MaxRequestBodyBytes+1))
	if err != nil {
		return "", errors.Join(errors.New("failed to read request body"), err)
	}
	if len(body) > shared.MaxRequestBodyBytes {
		return "", shared.ErrBodyTooLarge
	}

	c.Request().Body = io.NopCloser(bytes.NewReader(body))
	var req shared.InsightRequestBody
	if err := c.Echo().JSONSerializer.Deserialize(c, &req); err != nil {
		return "", errors.Join(errors.New("failed to parse request body"), err)
	}
	prompt, ok := shared.PromptFromBody(&req)
	if !ok {
		return "", errors.New("prompt missing or empty")
	}
	return prompt, nil
}

func writeRequestError(c *ctx.Context, rerr *shared.RequestError) error {
	return c.JSON(rerr.StatusCode, shared.Failed(rerr.Err.Error()))
}
