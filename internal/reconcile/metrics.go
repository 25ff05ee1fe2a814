package reconcile

import (
	"fmt"
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/five82/drift/internal/backend"
)

// Metrics bundles Prometheus collectors for sync activity.
type Metrics struct {
	Registry      *prometheus.Registry
	RunsTotal     *prometheus.CounterVec
	ErrorsTotal   *prometheus.CounterVec
	MergedTotal   prometheus.Counter
	UploadedTotal prometheus.Counter
	RunDuration   *prometheus.HistogramVec
}

// NewMetrics constructs and registers all collectors on a dedicated registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	runs := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "drift_sync_runs_total",
			Help: "Sync operations attempted, by operation.",
		},
		[]string{"op"},
	)
	errorsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "drift_sync_errors_total",
			Help: "Failed sync operations by error type.",
		},
		[]string{"error_type"},
	)
	merged := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "drift_sync_records_merged_total",
			Help: "Local records inserted, refreshed or moved by pull-merges.",
		},
	)
	uploaded := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "drift_sync_records_uploaded_total",
			Help: "Local-only records that received a server id.",
		},
	)
	duration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "drift_sync_duration_seconds",
			Help:    "Wall time of sync operations.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"op"},
	)

	registry.MustRegister(runs, errorsTotal, merged, uploaded, duration)

	return &Metrics{
		Registry:      registry,
		RunsTotal:     runs,
		ErrorsTotal:   errorsTotal,
		MergedTotal:   merged,
		UploadedTotal: uploaded,
		RunDuration:   duration,
	}
}

// observe records one finished operation.
func (m *Metrics) observe(op string, start time.Time, err error) {
	if m == nil {
		return
	}
	m.RunsTotal.WithLabelValues(op).Inc()
	m.RunDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if err != nil {
		m.ErrorsTotal.WithLabelValues(backend.ErrorLabel(err)).Inc()
	}
}

func (m *Metrics) addMerged(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.MergedTotal.Add(float64(n))
}

func (m *Metrics) addUploaded(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.UploadedTotal.Add(float64(n))
}

// WriteText prints counters and histogram totals in a compact
// "name{labels} value" form.
func (m *Metrics) WriteText(w io.Writer) error {
	if m == nil {
		return nil
	}
	families, err := m.Registry.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	for _, mf := range families {
		for _, metric := range mf.GetMetric() {
			labels := ""
			for i, lp := range metric.GetLabel() {
				if i > 0 {
					labels += ","
				}
				labels += fmt.Sprintf("%s=%q", lp.GetName(), lp.GetValue())
			}
			if labels != "" {
				labels = "{" + labels + "}"
			}
			switch {
			case metric.GetCounter() != nil:
				_, err = fmt.Fprintf(w, "%s%s %g\n", mf.GetName(), labels, metric.GetCounter().GetValue())
			case metric.GetHistogram() != nil:
				h := metric.GetHistogram()
				_, err = fmt.Fprintf(w, "%s_count%s %d\n%s_sum%s %g\n",
					mf.GetName(), labels, h.GetSampleCount(), mf.GetName(), labels, h.GetSampleSum())
			}
			if err != nil {
				return err
			}
		}
	}
	return nil
}
