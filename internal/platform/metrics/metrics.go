package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	SessionsCreated  prometheus.Counter
	RemindersSent    *prometheus.CounterVec
	ReminderSkips    *prometheus.CounterVec
	RenewalsProposed *prometheus.CounterVec
	RenewalsApplied  *prometheus.CounterVec
	RenewalNoops     prometheus.Counter
	SweepDuration    prometheus.Histogram
	ComposerFailures prometheus.Counter
	RequestDuration  *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics on the default registry.
func New() *Metrics {
	return &Metrics{
		SessionsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "absher_sessions_created_total",
			Help: "Total number of session users created at login",
		}),
		RemindersSent: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "absher_reminders_sent_total",
			Help: "Total proactive reminders appended, by service kind",
		}, []string{"service_kind"}),
		ReminderSkips: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "absher_reminder_skips_total",
			Help: "Reminder scan skips, by reason (valid, dedup, compose_failed)",
		}, []string{"reason"}),
		RenewalsProposed: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "absher_renewals_proposed_total",
			Help: "Renewal proposals created, by service kind",
		}, []string{"service_kind"}),
		RenewalsApplied: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "absher_renewals_applied_total",
			Help: "Renewals applied after confirmation, by service kind",
		}, []string{"service_kind"}),
		RenewalNoops: promauto.NewCounter(prometheus.CounterOpts{
			Name: "absher_renewal_noops_total",
			Help: "Confirmations that resulted in no mutation",
		}),
		SweepDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "absher_sweep_duration_seconds",
			Help:    "Duration of periodic reminder sweeps",
			Buckets: prometheus.DefBuckets,
		}),
		ComposerFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "absher_composer_failures_total",
			Help: "Message composer call failures",
		}),
		RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "absher_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "status"}),
	}
}

// ObserveSweep records the duration of one sweep cycle.
func (m *Metrics) ObserveSweep(d time.Duration) {
	m.SweepDuration.Observe(d.Seconds())
}
