package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the referral module.
// Tracks link generation, form submissions and listing latency.
type Metrics struct {
	ReferralsCreated *prometheus.CounterVec
	SubmissionsTotal *prometheus.CounterVec
	SubmitDuration   prometheus.Histogram
	ListingDuration  prometheus.Histogram
}

// New registers the referral metrics on reg, or the default registry when
// reg is nil.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		ReferralsCreated: f.NewCounterVec(prometheus.CounterOpts{
			Name: "refeera_referrals_created_total",
			Help: "Referral links generated, by offer",
		}, []string{"offer"}),
		SubmissionsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "refeera_submissions_total",
			Help: "Accepted form submissions, by offer and qualification outcome",
		}, []string{"offer", "outcome"}),
		SubmitDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "refeera_submit_duration_seconds",
			Help:    "Duration of form submission processing",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		ListingDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "refeera_submission_listing_duration_seconds",
			Help:    "Duration of partner submission listings",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

func (m *Metrics) IncrementReferralCreated(offer string) {
	if m == nil {
		return
	}
	m.ReferralsCreated.WithLabelValues(offer).Inc()
}

// IncrementSubmission records an accepted submission.
func (m *Metrics) IncrementSubmission(offer string, disqualified bool) {
	if m == nil {
		return
	}
	outcome := "qualified"
	if disqualified {
		outcome = "disqualified"
	}
	m.SubmissionsTotal.WithLabelValues(offer, outcome).Inc()
}

// ObserveSubmit records the duration of a submission.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveSubmit(start time.Time) {
	if m == nil {
		return
	}
	m.SubmitDuration.Observe(time.Since(start).Seconds())
}

func (m *Metrics) ObserveListing(start time.Time) {
	if m == nil {
		return
	}
	m.ListingDuration.Observe(time.Since(start).Seconds())
}
