// Package metrics holds the Prometheus metrics for the ingestion pipeline
// and digest compiler. Metrics live in their own registry so tests and
// embedded use do not collide with the global default registry.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the registry every scribble metric is registered with.
var Registry = prometheus.NewRegistry()

var (
	filesProcessed = promauto.With(Registry).NewCounterVec(prometheus.CounterOpts{
		Name: "scribble_files_processed_total",
		Help: "Total number of files dispatched by kind and outcome status",
	}, []string{"kind", "status"})

	pdfStrategies = promauto.With(Registry).NewCounterVec(prometheus.CounterOpts{
		Name: "scribble_pdf_strategy_total",
		Help: "PDF recovery strategy verdicts",
	}, []string{"strategy", "verdict"})

	llmRequests = promauto.With(Registry).NewCounterVec(prometheus.CounterOpts{
		Name: "scribble_llm_requests_total",
		Help: "LLM calls by operation and outcome",
	}, []string{"operation", "outcome"})

	digestsGenerated = promauto.With(Registry).NewCounterVec(prometheus.CounterOpts{
		Name: "scribble_digests_generated_total",
		Help: "Digests generated by kind",
	}, []string{"kind"})

	pipelineDuration = promauto.With(Registry).NewHistogramVec(prometheus.HistogramOpts{
		Name:    "scribble_pipeline_duration_seconds",
		Help:    "Time to extract, enrich and store one file",
		Buckets: []float64{0.05, 0.25, 1, 5, 15, 30, 60, 120, 300},
	}, []string{"kind"})
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// RecordFile counts a dispatched file.
func RecordFile(kind, status string) {
	filesProcessed.WithLabelValues(kind, status).Inc()
}

// RecordPDFStrategy counts a PDF recovery verdict.
func RecordPDFStrategy(strategy, verdict string) {
	pdfStrategies.WithLabelValues(strategy, verdict).Inc()
}

// RecordLLM counts an LLM call. Outcome is "ok" or "error".
func RecordLLM(operation string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	llmRequests.WithLabelValues(operation, outcome).Inc()
}

// RecordDigest counts a generated digest.
func RecordDigest(kind string) {
	digestsGenerated.WithLabelValues(kind).Inc()
}

// ObservePipeline records how long one file took.
func ObservePipeline(kind string, d time.Duration) {
	pipelineDuration.WithLabelValues(kind).Observe(d.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{Registry: Registry})
}
