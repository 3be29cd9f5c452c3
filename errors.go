package kvview

import "github.com/pkg/errors"

var (
	ErrNotFound   = errors.New("key not found")
	ErrEmptyKey   = errors.New("key is empty")
	ErrEmptyValue = errors.New("value is empty")
	ErrClosed     = errors.New("database is closed")

	// ErrCommitted is returned when a batch is used after Commit.
	ErrCommitted = errors.New("batch already committed")
)

// ErrIterator returns an iterator that yields nothing and reports err.
// Engines use it when an iterator cannot be created.
func ErrIterator(err error) Iterator {
	return &errIterator{err: err}
}

type errIterator struct {
	err error
}

func (it *errIterator) Next() bool      { return false }
func (it *errIterator) Key() []byte     { return nil }
func (it *errIterator) Value() []byte   { return nil }
func (it *errIterator) Version() uint64 { return 0 }
func (it *errIterator) Release()        {}
func (it *errIterator) Error() error    { return it.err }
