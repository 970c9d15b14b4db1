package shared

import "time"

// Envelope is the fixed-shape body of every response from the insight
// endpoint. Text is only set on success; Error only on failure and Details
// only when the generator failed.
type Envelope struct {
	Success bool    `json:"success"`
	Text    *string `json:"text,omitempty"`
	Error   string  `json:"error,omitempty"`
	Details *string `json:"details,omitempty"`
}

func Succeeded(text string) Envelope {
	return Envelope{Success: true, Text: &text}
}

func Failed(msg string) Envelope {
	return Envelope{Success: false, Error: msg}
}

// UpstreamFailed reports a generator failure with its raw message as details.
func UpstreamFailed(err error) Envelope {
	details := err.Error()
	return Envelope{Success: false, Error: MsgGenerationFailed, Details: &details}
}

type InsightRequestBody struct {
	Prompt any `json:"prompt"`
}

type Usage struct {
	PromptTokens     uint64 `json:"prompt_tokens"`
	CompletionTokens uint64 `json:"completion_tokens"`
	TotalTokens      uint64 `json:"total_tokens"`
}

// GenerationRecord is what the usage ledger stores for one finished
// generation. Prompt text is never kept.
type GenerationRecord struct {
	RequestID   string
	Model       string
	PromptChars int
	Usage       *Usage
	TotalTime   time.Duration
	Success     bool
	ErrorCode   string
	CreatedAt   time.Time
}
