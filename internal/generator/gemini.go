package generator

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"insight-api/internal/shared"

	generativelanguage "cloud.google.com/go/ai/generativelanguage/apiv1beta"
	"cloud.google.com/go/ai/generativelanguage/apiv1beta/generativelanguagepb"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

type GeminiConfig struct {
	APIKey string
	Model  string
	// Endpoint overrides the API base URL, e.g. for a regional proxy or tests.
	Endpoint string
}

// Gemini calls the Google generativelanguage generateContent API over REST.
// The underlying client is built on first use.
type Gemini struct {
	cfg GeminiConfig
	log *zap.SugaredLogger

	mu     sync.Mutex
	client *generativelanguage.GenerativeClient
}

func NewGemini(cfg GeminiConfig, log *zap.SugaredLogger) *Gemini {
	if cfg.Model == "" {
		cfg.Model = shared.DefaultModel
	}
	return &Gemini{cfg: cfg, log: log}
}

func (g *Gemini) Model() string {
	return g.cfg.Model
}

func (g *Gemini) getClient(ctx context.Context) (*generativelanguage.GenerativeClient, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.client != nil {
		return g.client, nil
	}

	opts := []option.ClientOption{}
	if g.cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(g.cfg.APIKey))
	} else {
		// Upstream rejects the call; that is where a missing key surfaces
		opts = append(opts, option.WithoutAuthentication())
	}
	if g.cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(g.cfg.Endpoint))
	}

	// The client outlives the request that built it
	client, err := generativelanguage.NewGenerativeRESTClient(context.WithoutCancel(ctx), opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrFailedClientInit, err)
	}
	g.client = client
	g.log.Infow("Created generative language client", "model", g.cfg.Model)
	return client, nil
}

func (g *Gemini) Generate(ctx context.Context, prompt string) (*Result, error) {
	client, err := g.getClient(ctx)
	if err != nil {
		return nil, err
	}

	req := &generativelanguagepb.GenerateContentRequest{
		Model: modelResource(g.cfg.Model),
		Contents: []*generativelanguagepb.Content{
			{
				Role: "user",
				Parts: []*generativelanguagepb.Part{
					{Data: &generativelanguagepb.Part_Text{Text: prompt}},
				},
			},
		},
	}

	res, err := client.GenerateContent(ctx, req)
	if err != nil {
		// Returned as is so the caller sees the upstream message
		return nil, err
	}
	return resultFromResponse(res)
}

// Close releases the client connection if one was built.
func (g *Gemini) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.client == nil {
		return nil
	}
	err := g.client.Close()
	g.client = nil
	return err
}

func modelResource(model string) string {
	if strings.HasPrefix(model, "models/") {
		return model
	}
	return "models/" + model
}

func resultFromResponse(res *generativelanguagepb.GenerateContentResponse) (*Result, error) {
	candidates := res.GetCandidates()
	if len(candidates) == 0 || candidates[0].GetContent() == nil {
		reason := res.GetPromptFeedback().GetBlockReason()
		if reason != generativelanguagepb.GenerateContentResponse_PromptFeedback_BLOCK_REASON_UNSPECIFIED {
			return nil, fmt.Errorf("%w: prompt blocked: %s", shared.ErrEmptyCandidates, reason.String())
		}
		return nil, shared.ErrEmptyCandidates
	}

	var sb strings.Builder
	for _, part := range candidates[0].GetContent().GetParts() {
		sb.WriteString(part.GetText())
	}

	out := &Result{Text: sb.String()}
	if um := res.GetUsageMetadata(); um != nil {
		out.Usage = &shared.Usage{
			PromptTokens:     uint64(um.GetPromptTokenCount()),
			CompletionTokens: uint64(um.GetCandidatesTokenCount()),
			TotalTokens:      uint64(um.GetTotalTokenCount()),
		}
	}
	return out, nil
}
