package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SubmissionMetrics records outcomes for the submission commit pipeline.
type SubmissionMetrics struct {
	stageOutcomes       *prometheus.CounterVec
	uploadDuration      prometheus.Histogram
	compensationFailure *prometheus.CounterVec
	orphansSwept        prometheus.Counter
}

// NewSubmissionMetrics registers the submission metrics on the provided registerer.
func NewSubmissionMetrics(reg prometheus.Registerer) *SubmissionMetrics {
	if reg == nil {
		return &SubmissionMetrics{}
	}
	stageOutcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "submission_stage_outcomes",
		Help: "Submission pipeline outcomes per stage.",
	}, []string{"stage", "outcome"})
	uploadDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "submission_upload_duration_seconds",
		Help:    "Duration of the media upload batch in seconds.",
		Buckets: []float64{1, 5, 10, 30, 60, 90, 120},
	})
	compensationFailure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "submission_compensation_failures",
		Help: "Compensation steps that failed during rollback.",
	}, []string{"step"})
	orphansSwept := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "submission_orphans_swept",
		Help: "Orphaned detail records cleaned by the reconciler.",
	})
	reg.MustRegister(stageOutcomes, uploadDuration, compensationFailure, orphansSwept)
	return &SubmissionMetrics{
		stageOutcomes:       stageOutcomes,
		uploadDuration:      uploadDuration,
		compensationFailure: compensationFailure,
		orphansSwept:        orphansSwept,
	}
}

// IncStage records a stage outcome ("success" or "failure").
func (m *SubmissionMetrics) IncStage(stage, outcome string) {
	if m == nil || m.stageOutcomes == nil {
		return
	}
	m.stageOutcomes.WithLabelValues(normalizeLabel(stage), normalizeLabel(outcome)).Inc()
}

// ObserveUploadDuration records how long the upload batch took.
func (m *SubmissionMetrics) ObserveUploadDuration(duration time.Duration) {
	if m == nil || m.uploadDuration == nil {
		return
	}
	m.uploadDuration.Observe(duration.Seconds())
}

// IncCompensationFailure records a failed rollback step.
func (m *SubmissionMetrics) IncCompensationFailure(step string) {
	if m == nil || m.compensationFailure == nil {
		return
	}
	m.compensationFailure.WithLabelValues(normalizeLabel(step)).Inc()
}

// AddOrphansSwept records orphan rows cleaned by the reconciler.
func (m *SubmissionMetrics) AddOrphansSwept(n int) {
	if m == nil || m.orphansSwept == nil || n <= 0 {
		return
	}
	m.orphansSwept.Add(float64(n))
}
