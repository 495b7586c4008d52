package approval

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the approval module.
type Metrics struct {
	Approved           prometheus.Counter
	Rejected           prometheus.Counter
	ParentsAutoCreated prometheus.Counter
	EmailsAttempted    prometheus.Counter
	PromoteDuration    prometheus.Histogram
}

// NewMetrics registers and returns the approval module metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		Approved: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vanshavali_registrations_approved_total",
			Help: "Total number of registrations promoted to members",
		}),
		Rejected: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vanshavali_registrations_rejected_total",
			Help: "Total number of registrations moved to the rejected archive",
		}),
		ParentsAutoCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vanshavali_parents_autocreated_total",
			Help: "Total number of parent stand-in members created during promotion",
		}),
		EmailsAttempted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vanshavali_approval_emails_attempted_total",
			Help: "Total number of credential emails attempted with a valid address",
		}),
		PromoteDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "vanshavali_promote_duration_seconds",
			Help:    "Duration of the full promotion path including parent resolution",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
	}
}

func (m *Metrics) IncrementApproved() {
	if m != nil {
		m.Approved.Inc()
	}
}

func (m *Metrics) IncrementRejected() {
	if m != nil {
		m.Rejected.Inc()
	}
}

func (m *Metrics) IncrementParentsAutoCreated() {
	if m != nil {
		m.ParentsAutoCreated.Inc()
	}
}

func (m *Metrics) IncrementEmailsAttempted() {
	if m != nil {
		m.EmailsAttempted.Inc()
	}
}

func (m *Metrics) ObservePromote(start time.Time) {
	if m != nil {
		m.PromoteDuration.Observe(time.Since(start).Seconds())
	}
}
