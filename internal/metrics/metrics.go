package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "batchscribe"

// Batch counters (incremented directly by the runner).
var (
	JobsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "jobs_total",
		Help:      "Jobs finished, by terminal status.",
	}, []string{"status"})

	JobDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "job_duration_seconds",
		Help:      "Wall-clock duration of one job, staging through write.",
		Buckets:   prometheus.ExponentialBuckets(0.5, 2, 12), // 0.5s → ~17min
	})

	AudioBytesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "audio_bytes_total",
		Help:      "Bytes of audio successfully transcribed.",
	})

	BatchesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "batches_total",
		Help:      "Completed batch runs.",
	})

	runInfo = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "run_info",
		Help:      "Always 1; carries the run ID as a label.",
	}, []string{"run_id"})
)

func init() {
	prometheus.MustRegister(
		JobsTotal,
		JobDuration,
		AudioBytesTotal,
		BatchesTotal,
		runInfo,
	)
}

// MarkRun stamps the snapshot with this run's identity.
func MarkRun(id string) {
	runInfo.WithLabelValues(id).Set(1)
}

// WriteSnapshot dumps the current metric values to path in the
// Prometheus text exposition format, for a node_exporter textfile
// collector to pick up. Nothing is ever served over the network.
func WriteSnapshot(path string) error {
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}
