package workflow

import (
	"errors"
	"fmt"
)

// ErrNoChanges means the rendered set commands were empty, so there is
// nothing to upload and the candidate is rolled back.
var ErrNoChanges = errors.New("no configuration changes")

// OperationError is a failed device operation with its context.
type OperationError struct {
	// Host the operation ran against
	Host string

	// Operation name, e.g. "lock" or "put"
	Operation string

	// Err is the last underlying error
	Err error

	// Retries made before giving up
	Retries int
}

func (e *OperationError) Error() string {
	if e.Retries > 0 {
		return fmt.Sprintf("%s: %s failed: %v (retries: %d)", e.Host, e.Operation, e.Err, e.Retries)
	}
	return fmt.Sprintf("%s: %s failed: %v", e.Host, e.Operation, e.Err)
}

func (e *OperationError) Unwrap() error {
	return e.Err
}
