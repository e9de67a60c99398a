// Package metrics holds the Prometheus instruments of the claim services.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Failure reasons used as the "reason" label of SubmissionFailures.
const (
	ReasonValidation = "validation"
	ReasonDuplicate  = "duplicate"
	ReasonTooLarge   = "too_large"
	ReasonInternal   = "internal"
)

// Compensation results used as the "result" label of BlobCompensations.
const (
	CompensationDeleted = "deleted"
	CompensationFailed  = "failed"
)

// Metrics tracks submissions, reviews and blob cleanup after failed
// submissions.
type Metrics struct {
	ClaimsSubmitted    prometheus.Counter
	SubmissionFailures *prometheus.CounterVec
	ClaimsReviewed     *prometheus.CounterVec
	BlobCompensations  *prometheus.CounterVec
	AttachmentBytes    prometheus.Counter
	SubmitDuration     prometheus.Histogram
}

// New registers all instruments on reg. Pass prometheus.DefaultRegisterer in
// the server and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		ClaimsSubmitted: f.NewCounter(prometheus.CounterOpts{
			Name: "claims_submitted_total",
			Help: "Total number of claims committed",
		}),
		SubmissionFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "claims_submission_failures_total",
			Help: "Total number of rejected or failed submissions",
		}, []string{"reason"}),
		ClaimsReviewed: f.NewCounterVec(prometheus.CounterOpts{
			Name: "claims_reviewed_total",
			Help: "Total number of review decisions by resulting status",
		}, []string{"status"}),
		BlobCompensations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "claims_blob_compensations_total",
			Help: "Blobs removed (or not) after a submission failed",
		}, []string{"result"}),
		AttachmentBytes: f.NewCounter(prometheus.CounterOpts{
			Name: "claims_attachment_bytes_total",
			Help: "Bytes of attachment content committed",
		}),
		SubmitDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "claims_submit_duration_seconds",
			Help:    "Duration of Submit calls",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
	}
}

func (m *Metrics) IncrementSubmitted(attachmentBytes int64) {
	m.ClaimsSubmitted.Inc()
	m.AttachmentBytes.Add(float64(attachmentBytes))
}

func (m *Metrics) IncrementFailure(reason string) {
	m.SubmissionFailures.WithLabelValues(reason).Inc()
}

func (m *Metrics) IncrementReviewed(status string) {
	m.ClaimsReviewed.WithLabelValues(status).Inc()
}

func (m *Metrics) IncrementCompensation(result string) {
	m.BlobCompensations.WithLabelValues(result).Inc()
}

// ObserveSubmit records the duration of a Submit call.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveSubmit(start time.Time) {
	m.SubmitDuration.Observe(time.Since(start).Seconds())
}
