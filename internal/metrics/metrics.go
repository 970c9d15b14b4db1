// Package metrics defines prometheus metrics to expose
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	GenerationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "insight_api_generation_duration_seconds",
			Help:    "Time spent waiting on the model in seconds",
			Buckets: []float64{.25, .5, 1, 2.5, 5, 10, 15, 20, 30, 45, 60, 90, 120},
		},
		[]string{"model"},
	)

	GenerationCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "insight_api_generation_count_total",
			Help: "Total number of generations attempted",
		},
		[]string{"model", "status"},
	)

	PromptTokens = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "insight_api_prompt_tokens_total",
			Help: "Total number of prompt tokens used",
		},
		[]string{"model"},
	)

	CompletionTokens = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "insight_api_completion_tokens_total",
			Help: "Total number of completion tokens used",
		},
		[]string{"model"},
	)

	InflightGenerations = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "insight_api_inflight_generations",
			Help: "Current inflight generations",
		},
	)

	ErrorCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "insight_api_error_count",
			Help: "Error count",
		},
		[]string{"model", "from"},
	)

	ResponseCodes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "insight_api_status_code",
			Help: "Status Codes",
		},
		[]string{"path", "status_code"},
	)

	LedgerRecords = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "insight_api_ledger_records_total",
			Help: "Generation records flushed to the usage ledger",
		},
		[]string{"result"},
	)
)
