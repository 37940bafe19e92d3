package uploads

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	dbtypes "github.com/roomscout/roomscout-backend/pkg/db/types"
	pkgerrors "github.com/roomscout/roomscout-backend/pkg/errors"
	"github.com/roomscout/roomscout-backend/pkg/logger"
	"github.com/roomscout/roomscout-backend/pkg/metrics"
)

// uploadParallelism bounds concurrent object uploads per batch.
const uploadParallelism = 4

var allowedImageMimeTypes = []string{"image/png", "image/jpeg", "image/webp"}

type blobClient interface {
	UploadObject(ctx context.Context, bucket, object, contentType string, body io.Reader) (string, error)
	DeleteObject(ctx context.Context, bucket, object string) error
}

// File describes one pending upload. Open is called once, inside the worker
// goroutine, so multipart parts are not buffered up front.
type File struct {
	Name        string
	ContentType string
	SizeBytes   int64
	Open        func() (io.ReadCloser, error)
}

// Coordinator fans a batch of files out to blob storage under a single deadline.
type Coordinator struct {
	gcs      blobClient
	bucket   string
	timeout  time.Duration
	maxFiles int
	maxBytes int64
	metrics  *metrics.SubmissionMetrics
	logg     *logger.Logger
}

// NewCoordinator wires the upload fan-out.
func NewCoordinator(gcs blobClient, bucket string, timeout time.Duration, maxFiles int, maxBytes int64, m *metrics.SubmissionMetrics, logg *logger.Logger) (*Coordinator, error) {
	if gcs == nil {
		return nil, fmt.Errorf("gcs client required")
	}
	if bucket == "" {
		return nil, fmt.Errorf("bucket required")
	}
	if timeout <= 0 {
		return nil, fmt.Errorf("batch timeout must be positive")
	}
	if maxFiles <= 0 {
		return nil, fmt.Errorf("max files must be positive")
	}
	if maxBytes <= 0 {
		return nil, fmt.Errorf("max bytes must be positive")
	}
	return &Coordinator{
		gcs:      gcs,
		bucket:   bucket,
		timeout:  timeout,
		maxFiles: maxFiles,
		maxBytes: maxBytes,
		metrics:  m,
		logg:     logg,
	}, nil
}

// UploadBatch pushes every file to storage in parallel. The returned refs
// preserve input order. On failure the error carries the refs that completed
// so the caller can roll them back; nothing is deleted here.
func (c *Coordinator) UploadBatch(ctx context.Context, listingID uuid.UUID, files []File) ([]dbtypes.MediaRef, error) {
	if listingID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "listing id required")
	}
	if err := c.validate(files); err != nil {
		return nil, err
	}

	batchCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	refs := make([]dbtypes.MediaRef, len(files))

	var mu sync.Mutex
	var completed []dbtypes.MediaRef

	g, groupCtx := errgroup.WithContext(batchCtx)
	g.SetLimit(uploadParallelism)

	for i, file := range files {
		g.Go(func() error {
			object := buildObjectKey(listingID, i, file.Name)

			body, err := file.Open()
			if err != nil {
				return &uploadFailure{name: file.Name, err: err}
			}
			defer func() { _ = body.Close() }()

			url, err := c.gcs.UploadObject(groupCtx, c.bucket, object, file.ContentType, body)
			if err != nil {
				return &uploadFailure{name: file.Name, err: err}
			}

			ref := dbtypes.MediaRef{URL: url, ObjectKey: object}
			refs[i] = ref
			mu.Lock()
			completed = append(completed, ref)
			mu.Unlock()
			return nil
		})
	}

	err := g.Wait()
	c.observe(time.Since(start), err)
	if err == nil {
		return refs, nil
	}

	mu.Lock()
	done := make([]dbtypes.MediaRef, len(completed))
	copy(done, completed)
	mu.Unlock()

	if deadlineExceeded(batchCtx, err) {
		return nil, &BatchTimeoutError{Completed: done}
	}

	var failure *uploadFailure
	if errors.As(err, &failure) {
		return nil, &PartialUploadError{Failed: failure.name, Completed: done, Err: failure.err}
	}
	return nil, &PartialUploadError{Completed: done, Err: err}
}

// Cleanup deletes the given objects, collecting every failure. Safe to call
// repeatedly for the same refs.
func (c *Coordinator) Cleanup(ctx context.Context, refs []dbtypes.MediaRef) error {
	var errs error
	for _, ref := range refs {
		if ref.ObjectKey == "" {
			continue
		}
		if err := c.gcs.DeleteObject(ctx, c.bucket, ref.ObjectKey); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("delete %s: %w", ref.ObjectKey, err))
		}
	}
	return errs
}

func (c *Coordinator) validate(files []File) error {
	if len(files) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "at least one media file is required")
	}
	if len(files) > c.maxFiles {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("at most %d media files allowed", c.maxFiles))
	}
	for _, file := range files {
		if strings.TrimSpace(file.Name) == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "file name is required")
		}
		if file.SizeBytes <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("file %q is empty", file.Name))
		}
		if file.SizeBytes > c.maxBytes {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("file %q exceeds %d bytes", file.Name, c.maxBytes))
		}
		if !isAllowedMime(file.ContentType) {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("file %q has unsupported content type %q", file.Name, file.ContentType))
		}
		if file.Open == nil {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("file %q has no content", file.Name))
		}
	}
	return nil
}

func (c *Coordinator) observe(elapsed time.Duration, err error) {
	c.metrics.ObserveUploadDuration(elapsed)
	if err != nil {
		c.metrics.IncStage("upload", "failure")
		if c.logg != nil {
			c.logg.Warn(context.Background(), "upload batch failed")
		}
		return
	}
	c.metrics.IncStage("upload", "success")
}

type uploadFailure struct {
	name string
	err  error
}

func (f *uploadFailure) Error() string {
	return fmt.Sprintf("upload %q: %v", f.name, f.err)
}

func (f *uploadFailure) Unwrap() error {
	return f.err
}

func deadlineExceeded(ctx context.Context, err error) bool {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}

func isAllowedMime(mimeType string) bool {
	for _, candidate := range allowedImageMimeTypes {
		if strings.EqualFold(candidate, mimeType) {
			return true
		}
	}
	return false
}

func buildObjectKey(listingID uuid.UUID, index int, fileName string) string {
	cleanName := sanitizeFileName(fileName)
	if cleanName == "" {
		cleanName = uuid.NewString()
	}
	return fmt.Sprintf("listings/%s/%d-%s", listingID, index, cleanName)
}

func sanitizeFileName(name string) string {
	if name == "" {
		return ""
	}
	clean := path.Base(strings.TrimSpace(name))
	if clean == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(clean))
	for _, r := range clean {
		switch {
		case r == '/' || r == '\\' || unicode.IsControl(r):
			continue
		case unicode.IsSpace(r):
			b.WriteRune('-')
		default:
			b.WriteRune(r)
		}
	}
	return strings.Trim(b.String(), "-_.")
}
