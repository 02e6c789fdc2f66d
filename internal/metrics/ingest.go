package metrics

import "github.com/prometheus/client_golang/prometheus"

// Ingestion pipeline Prometheus metrics.
var (
	IngestJobsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "silodex",
			Name:      "ingest_jobs_total",
			Help:      "Total number of ingestion jobs by outcome",
		},
		[]string{"status"}, // "done" / "failed" / "busy"
	)

	IngestDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "silodex",
			Name:      "ingest_duration_seconds",
			Help:      "End-to-end ingestion duration in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
	)

	IngestChunksPerMedia = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "silodex",
			Name:      "ingest_chunks_per_media",
			Help:      "Number of chunks produced per ingested media item",
			Buckets:   []float64{1, 2, 5, 10, 25, 50, 100, 250, 500},
		},
	)
)

var ingestMetricsRegistered bool

// RegisterIngestMetrics registers Prometheus ingestion metrics. Must be called once from main.
func RegisterIngestMetrics() {
	if ingestMetricsRegistered {
		return
	}
	prometheus.MustRegister(IngestJobsTotal)
	prometheus.MustRegister(IngestDuration)
	prometheus.MustRegister(IngestChunksPerMedia)
	ingestMetricsRegistered = true
}
