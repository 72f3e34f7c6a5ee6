package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "mailagent"

// Cycle results.
const (
	CycleOK    = "ok"
	CycleEmpty = "empty"
	CycleError = "error"
)

// Action results. Rejected marks a permanent send failure.
const (
	ActionOK       = "ok"
	ActionSkipped  = "skipped"
	ActionFailed   = "failed"
	ActionRejected = "rejected"
)

// Reply results.
const (
	ReplySent       = "sent"
	ReplyEmpty      = "empty"
	ReplySuppressed = "suppressed"
	ReplyFailed     = "failed"
	ReplyRejected   = "rejected"
)

// Metrics holds the agent's Prometheus collectors on a private registry.
// All methods are safe to call on a nil *Metrics.
type Metrics struct {
	registry *prometheus.Registry

	CyclesTotal     *prometheus.CounterVec
	CycleDuration   prometheus.Histogram
	EmailsProcessed *prometheus.CounterVec
	EmailsSkipped   prometheus.Counter
	ActionsTotal    *prometheus.CounterVec
	RepliesTotal    *prometheus.CounterVec
	LedgerEntries   prometheus.Gauge
	LedgerEvictions prometheus.Counter
}

// New creates and registers all collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		CyclesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cycles_total",
				Help:      "Polling cycles by result",
			},
			[]string{"result"},
		),
		CycleDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "cycle_duration_seconds",
				Help:      "Duration of polling cycles in seconds",
				Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
			},
		),
		EmailsProcessed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "emails_processed_total",
				Help:      "Emails processed by category",
			},
			[]string{"category"},
		),
		EmailsSkipped: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "emails_skipped_total",
				Help:      "Emails skipped because they were already processed",
			},
		),
		ActionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "actions_total",
				Help:      "Rule actions executed by kind and result",
			},
			[]string{"action", "result"},
		),
		RepliesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "replies_total",
				Help:      "Generated replies by result",
			},
			[]string{"result"},
		),
		LedgerEntries: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "processed_set_entries",
				Help:      "Entries in the in-memory processed set",
			},
		),
		LedgerEvictions: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "processed_set_evictions_total",
				Help:      "Processed set entries evicted by compaction",
			},
		),
	}
}

// Registry returns the registry the collectors are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) ObserveCycle(result string, d time.Duration) {
	if m == nil {
		return
	}
	m.CyclesTotal.WithLabelValues(result).Inc()
	m.CycleDuration.Observe(d.Seconds())
}

func (m *Metrics) EmailProcessed(category string) {
	if m == nil {
		return
	}
	m.EmailsProcessed.WithLabelValues(category).Inc()
}

func (m *Metrics) EmailSkipped() {
	if m == nil {
		return
	}
	m.EmailsSkipped.Inc()
}

func (m *Metrics) Action(kind, result string) {
	if m == nil {
		return
	}
	m.ActionsTotal.WithLabelValues(kind, result).Inc()
}

// Reply records a generated reply with one of the Reply* results.
func (m *Metrics) Reply(result string) {
	if m == nil {
		return
	}
	m.RepliesTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) Ledger(entries, evicted int) {
	if m == nil {
		return
	}
	m.LedgerEntries.Set(float64(entries))
	m.LedgerEvictions.Add(float64(evicted))
}
