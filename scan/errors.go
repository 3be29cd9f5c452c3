package scan

import "github.com/pkg/errors"

var (
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrInvalidCursor    = errors.New("invalid cursor")
	ErrStoreUnavailable = errors.New("store unavailable")

	// errStaleCursor is returned by a single attempt when a cursor led to an
	// empty page. ScanPage absorbs it with one restart and never returns it.
	errStaleCursor = errors.New("stale cursor")
)

// StoreError wraps a failure of the store collaborator. It matches
// ErrStoreUnavailable and unwraps to the store's own error, so context
// cancellation and deadlines stay visible to errors.Is.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return "scan: store " + e.Op + ": " + e.Err.Error()
}

func (e *StoreError) Unwrap() error { return e.Err }

func (e *StoreError) Is(target error) bool { return target == ErrStoreUnavailable }
