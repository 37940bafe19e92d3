package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/roomscout/roomscout-backend/internal/details"
	"github.com/roomscout/roomscout-backend/pkg/enums"
	"github.com/roomscout/roomscout-backend/pkg/logger"
	"github.com/roomscout/roomscout-backend/pkg/metrics"
)

const (
	defaultOrphanGracePeriod = time.Hour
	defaultOrphanBatchSize   = 100

	blobDeleteMaxRetries     = 3
	blobDeleteInitialBackoff = 500 * time.Millisecond
)

type blobDeleter interface {
	DeleteObject(ctx context.Context, bucket, object string) error
}

// OrphanSweepJobParams configure the detail-record reconciliation sweep.
type OrphanSweepJobParams struct {
	Logger      *logger.Logger
	Registry    *details.Registry
	Blobs       blobDeleter
	Bucket      string
	GracePeriod time.Duration
	BatchSize   int
	Metrics     *metrics.SubmissionMetrics
}

// NewOrphanSweepJob builds the job that removes detail records whose index
// transaction never committed: rows past the grace period with no listing
// reference, together with their uploaded blobs.
func NewOrphanSweepJob(params OrphanSweepJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Registry == nil {
		return nil, fmt.Errorf("detail registry required")
	}
	if params.Blobs == nil {
		return nil, fmt.Errorf("blob client required")
	}
	if params.Bucket == "" {
		return nil, fmt.Errorf("bucket required")
	}
	grace := params.GracePeriod
	if grace <= 0 {
		grace = defaultOrphanGracePeriod
	}
	batch := params.BatchSize
	if batch <= 0 {
		batch = defaultOrphanBatchSize
	}
	return &orphanSweepJob{
		logg:      params.Logger,
		registry:  params.Registry,
		blobs:     params.Blobs,
		bucket:    params.Bucket,
		grace:     grace,
		batch:     batch,
		metrics:   params.Metrics,
		retryBase: blobDeleteInitialBackoff,
		now:       time.Now,
	}, nil
}

type orphanSweepJob struct {
	logg      *logger.Logger
	registry  *details.Registry
	blobs     blobDeleter
	bucket    string
	grace     time.Duration
	batch     int
	metrics   *metrics.SubmissionMetrics
	retryBase time.Duration
	now       func() time.Time
}

func (j *orphanSweepJob) Name() string { return "orphan-detail-sweep" }

func (j *orphanSweepJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.grace)
	var swept, skipped int

	for _, category := range enums.Categories() {
		store, err := j.registry.For(category)
		if err != nil {
			return fmt.Errorf("resolve store for %s: %w", category, err)
		}
		orphans, err := store.ListOrphans(ctx, cutoff, j.batch)
		if err != nil {
			return fmt.Errorf("list %s orphans: %w", category, err)
		}
		for _, orphan := range orphans {
			if !j.deleteBlobs(ctx, category, orphan) {
				skipped++
				continue
			}
			if err := store.Delete(ctx, orphan.ID); err != nil {
				return fmt.Errorf("delete %s orphan %s: %w", category, orphan.ID, err)
			}
			swept++
		}
	}

	if j.metrics != nil && swept > 0 {
		j.metrics.AddOrphansSwept(swept)
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":  cutoff,
		"swept":   swept,
		"skipped": skipped,
	})
	j.logg.Info(logCtx, "orphan detail sweep complete")
	return nil
}

// deleteBlobs removes the orphan's objects with bounded backoff. When any
// object cannot be deleted the row is kept so the next sweep retries it.
func (j *orphanSweepJob) deleteBlobs(ctx context.Context, category enums.Category, orphan details.OrphanDetail) bool {
	for _, ref := range orphan.Media {
		if ref.ObjectKey == "" {
			continue
		}
		backoff := retry.WithMaxRetries(blobDeleteMaxRetries, retry.NewFibonacci(j.retryBase))
		err := retry.Do(ctx, backoff, func(ctx context.Context) error {
			if err := j.blobs.DeleteObject(ctx, j.bucket, ref.ObjectKey); err != nil {
				return retry.RetryableError(err)
			}
			return nil
		})
		if err != nil {
			logCtx := j.logg.WithFields(ctx, map[string]any{
				"category":  string(category),
				"detail_id": orphan.ID.String(),
				"object":    ref.ObjectKey,
			})
			j.logg.Error(logCtx, "failed to delete orphan blob", err)
			return false
		}
	}
	return true
}
