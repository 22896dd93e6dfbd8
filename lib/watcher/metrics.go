package watcher

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	cycles        *prometheus.CounterVec
	cycleSeconds  prometheus.Histogram
	fetchErrors   prometheus.Counter
	candidates    prometheus.Counter
	statusWrites  *prometheus.CounterVec
	notifications *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		cycles: f.NewCounterVec(prometheus.CounterOpts{
			Name: "seatwatch_cycles_total",
			Help: "Scheduler ticks, labeled by whether a cycle ran or the tick fell outside the window.",
		}, []string{"outcome"}),
		cycleSeconds: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "seatwatch_cycle_duration_seconds",
			Help:    "Wall time of completed cycles.",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		}),
		fetchErrors: f.NewCounter(prometheus.CounterOpts{
			Name: "seatwatch_fetch_errors_total",
			Help: "Catalog fetches that failed.",
		}),
		candidates: f.NewCounter(prometheus.CounterOpts{
			Name: "seatwatch_candidates_total",
			Help: "Sections that passed a preference's filters with a known seat count.",
		}),
		statusWrites: f.NewCounterVec(prometheus.CounterOpts{
			Name: "seatwatch_status_writes_total",
			Help: "Course status upserts, labeled by result.",
		}, []string{"result"}),
		notifications: f.NewCounterVec(prometheus.CounterOpts{
			Name: "seatwatch_notifications_total",
			Help: "Notification attempts, labeled by result.",
		}, []string{"result"}),
	}
}

// cycleMetrics is the per-cycle tally logged when a cycle finishes.
type cycleMetrics struct {
	preferences  int
	fetched      int
	fetchErrored int
	candidates   int
	notified     int
	sendFailed   int
	storeErrored int
}

func (m *cycleMetrics) logArgs() []any {
	args := make([]any, 0)
	if m.fetched != 0 {
		args = append(args, "fetched", m.fetched)
	}
	if m.fetchErrored != 0 {
		args = append(args, "fetch_errored", m.fetchErrored)
	}
	if m.candidates != 0 {
		args = append(args, "candidates", m.candidates)
	}
	if m.notified != 0 {
		args = append(args, "notified", m.notified)
	}
	if m.sendFailed != 0 {
		args = append(args, "send_failed", m.sendFailed)
	}
	if m.storeErrored != 0 {
		args = append(args, "store_errored", m.storeErrored)
	}
	return args
}
