package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func TestSubmissionMetricsExports(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewSubmissionMetrics(reg)

	metrics.IncStage("upload", "success")
	metrics.IncStage("index", "failure")
	metrics.ObserveUploadDuration(2 * time.Second)
	metrics.IncCompensationFailure("blob_delete")
	metrics.AddOrphansSwept(3)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "submission_stage_outcomes", "stage", "upload"); err != nil {
		t.Fatalf("fetch stage outcome: %v", err)
	} else if got != 1 {
		t.Fatalf("expected upload success=1, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "submission_compensation_failures", "step", "blob_delete"); err != nil {
		t.Fatalf("fetch compensation failure: %v", err)
	} else if got != 1 {
		t.Fatalf("expected blob_delete=1, got %f", got)
	}

	orphans := findMetricFamily(mfs, "submission_orphans_swept")
	if orphans == nil {
		t.Fatal("orphans counter not exported")
	}
	if got := orphans.GetMetric()[0].GetCounter().GetValue(); got != 3 {
		t.Fatalf("expected orphans=3, got %f", got)
	}

	hist := findMetricFamily(mfs, "submission_upload_duration_seconds")
	if hist == nil {
		t.Fatal("upload histogram not exported")
	}
	if got := hist.GetMetric()[0].GetHistogram().GetSampleSum(); got <= 0 {
		t.Fatalf("expected upload duration sum > 0, got %f", got)
	}
}

func TestSubmissionMetricsNilSafe(t *testing.T) {
	var metrics *SubmissionMetrics
	metrics.IncStage("upload", "success")
	metrics.ObserveUploadDuration(time.Second)
	metrics.IncCompensationFailure("detail_delete")
	metrics.AddOrphansSwept(1)
}
