package uploads

import (
	"fmt"

	dbtypes "github.com/roomscout/roomscout-backend/pkg/db/types"
)

// PartialUploadError reports a failed batch along with the objects that made
// it to storage before the failure. Callers use Completed to compensate.
type PartialUploadError struct {
	Failed    string
	Completed []dbtypes.MediaRef
	Err       error
}

func (e *PartialUploadError) Error() string {
	return fmt.Sprintf("upload of %q failed after %d completed: %v", e.Failed, len(e.Completed), e.Err)
}

func (e *PartialUploadError) Unwrap() error {
	return e.Err
}

// BatchTimeoutError reports that the batch deadline elapsed. Completed holds
// every object confirmed uploaded before the cutoff.
type BatchTimeoutError struct {
	Completed []dbtypes.MediaRef
}

func (e *BatchTimeoutError) Error() string {
	return fmt.Sprintf("upload batch deadline exceeded with %d completed", len(e.Completed))
}
