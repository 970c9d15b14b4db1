package shared

import "time"

// HTTP Configuration
const (
	DefaultPort            = 80
	DefaultPath            = "/api/insight"
	DefaultShutdownTimeout = 30 * time.Second
	MaxRequestBodyBytes    = 1 << 20
)

// Generator Configuration
const (
	DefaultModel = "gemini-1.5-flash"
)

// Bucket Configuration
const (
	BucketFlushInterval = 1 * time.Minute
	BucketRetryDelay    = 5 * time.Second
	MaxBucketSize       = 500
	MaxFlushRetries     = 3
)

// Envelope messages returned to callers
const (
	MsgMethodNotAllowed  = "Method Not Allowed. Only POST requests are supported."
	MsgMissingPrompt     = `Missing "prompt" in request body.`
	MsgGenerationFailed  = "Failed to generate AI insight."
	MsgInternalServerErr = "Internal server error."
)
