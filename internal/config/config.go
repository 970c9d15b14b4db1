// Package config reads process configuration once at startup
package config

import (
	"flag"

	"insight-api/internal/shared"

	"github.com/manifold-inc/manifold-sdk/lib/eflag"
)

// Config is immutable after Parse and is passed explicitly to constructors.
type Config struct {
	Port  int
	Path  string
	Debug bool

	GeminiAPIKey   string
	Model          string
	GeminiEndpoint string

	MetricsAPIKey string
	DSN           string

	TraceExporter string
	OTLPEndpoint  string
}

// MissingCredential reports whether the generative API key is unset. This
// is not fatal; the first generation attempt will fail instead.
func (c *Config) MissingCredential() bool {
	return c.GeminiAPIKey == ""
}

// Register declares every flag on fs and returns the config they fill.
func Register(fs *flag.FlagSet) *Config {
	cfg := &Config{}
	fs.IntVar(&cfg.Port, "port", shared.DefaultPort, "HTTP port")
	fs.StringVar(&cfg.Path, "path", shared.DefaultPath, "Path the insight endpoint is served on")
	fs.BoolVar(&cfg.Debug, "debug", false, "Debug enabled")

	fs.StringVar(&cfg.GeminiAPIKey, "gemini-api-key", "", "Generative language API key")
	fs.StringVar(&cfg.Model, "gemini-model", shared.DefaultModel, "Model used for generation")
	fs.StringVar(&cfg.GeminiEndpoint, "gemini-endpoint", "", "Override for the generative language API base URL")

	fs.StringVar(&cfg.MetricsAPIKey, "metrics-api-key", "", "Metrics api key, /metrics is disabled when empty")
	fs.StringVar(&cfg.DSN, "dsn", "", "MySQL DSN for the usage ledger, disabled when empty")

	fs.StringVar(&cfg.TraceExporter, "trace-exporter", "", "Trace exporter: otlp, stdout or empty to disable")
	fs.StringVar(&cfg.OTLPEndpoint, "otlp-endpoint", "", "OTLP HTTP endpoint host:port")
	return cfg
}

// Parse fills the config from flags, falling back to environment variables
// named after the flags (gemini-api-key -> GEMINI_API_KEY).
func Parse() (*Config, error) {
	cfg := Register(flag.CommandLine)
	if err := eflag.SetFlagsFromEnvironment(); err != nil {
		return nil, err
	}
	flag.Parse()
	return cfg, nil
}
