// Package metrics exposes Prometheus metrics describing chat model adoption
// across workflows and the health of workflow fetches.
//
// Metrics (namespace "n8n_model_tracker"):
//
//	workflows{category}          gauge    workflows per category (all, preferred, other)
//	preferred_ratio              gauge    preferred / all, 0 when there are no workflows
//	batches_fetched_total        counter  workflow pages received
//	fetch_runs_total{status}     counter  completed fetch runs (success, error)
//	fetch_duration_seconds       histogram
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/younsl/n8n-model-tracker/pkg/models"
)

const namespace = "n8n_model_tracker"

const (
	CategoryAll       = "all"
	CategoryPreferred = "preferred"
	CategoryOther     = "other"

	StatusSuccess = "success"
	StatusError   = "error"
)

// Recorder records tracker metrics. A nil *Recorder is valid and records
// nothing.
type Recorder struct {
	workflows      *prometheus.GaugeVec
	preferredRatio prometheus.Gauge
	batches        prometheus.Counter
	runs           *prometheus.CounterVec
	duration       prometheus.Histogram
}

// NewRecorder registers all metrics with the given registerer. A nil
// registerer falls back to the default one.
func NewRecorder(registry prometheus.Registerer) *Recorder {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registry)

	return &Recorder{
		workflows: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "workflows",
			Help:      "Number of workflows per chat model category in the last classification",
		}, []string{"category"}),
		preferredRatio: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "preferred_ratio",
			Help:      "Share of workflows using the preferred chat model provider",
		}),
		batches: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batches_fetched_total",
			Help:      "Workflow pages received from the n8n API",
		}),
		runs: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_runs_total",
			Help:      "Completed workflow fetch runs by outcome",
		}, []string{"status"}),
		duration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Duration of complete workflow fetch runs",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
	}
}

// ObserveBatch counts one received page.
func (r *Recorder) ObserveBatch() {
	if r == nil {
		return
	}
	r.batches.Inc()
}

// ObserveResult sets the category gauges from a classification.
func (r *Recorder) ObserveResult(result *models.ScanResult) {
	if r == nil || result == nil {
		return
	}
	r.workflows.WithLabelValues(CategoryAll).Set(float64(len(result.All)))
	r.workflows.WithLabelValues(CategoryPreferred).Set(float64(len(result.Preferred)))
	r.workflows.WithLabelValues(CategoryOther).Set(float64(len(result.Other)))
	r.preferredRatio.Set(result.PreferredPercent() / 100)
}

// ObserveRun records the outcome and duration of a fetch run.
func (r *Recorder) ObserveRun(d time.Duration, err error) {
	if r == nil {
		return
	}
	status := StatusSuccess
	if err != nil {
		status = StatusError
	}
	r.runs.WithLabelValues(status).Inc()
	r.duration.Observe(d.Seconds())
}
