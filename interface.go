package kvview

import "context"

// Core defines the main interface for an ordered key-value database
type Core interface {
	// Put inserts or updates a key-value pair in the database
	Put(ctx context.Context, key []byte, data []byte) error
	// Get retrieves the value for a given key, ErrNotFound when absent
	Get(ctx context.Context, key []byte) ([]byte, error)
	// Delete removes a key-value pair from the database. Deleting a missing key is a no-op
	Delete(ctx context.Context, key []byte) error
	// Batch creates a new write batch that needs to be committed separately
	Batch() Batch
	// Scan returns an ascending iterator over the keys selected by opts
	Scan(ctx context.Context, opts ScanOptions) Iterator
	// Close closes the database connection
	Close() error
}

// ScanOptions selects the keys an iterator walks over.
type ScanOptions struct {
	// Prefix restricts the scan to keys starting with these bytes. Empty means all keys.
	Prefix []byte
	// After, when set, positions the iterator strictly after this key.
	After []byte
	// End, when set, is the exclusive upper bound used instead of PrefixEnd(Prefix).
	End []byte
}

// Upper returns the exclusive upper bound of the scan, nil for unbounded.
func (o ScanOptions) Upper() []byte {
	if o.End != nil {
		return o.End
	}
	return PrefixEnd(o.Prefix)
}

// Iterator defines methods for iterating over key-value pairs in the database
type Iterator interface {
	Next() bool      // advances the iterator to the next key-value pair
	Key() []byte     // returns the current key, the slice stays valid after Next
	Value() []byte   // returns the current value, the slice stays valid after Next
	Version() uint64 // returns the version of the current pair, 0 when the engine keeps none
	Release()        // releases the iterator resources
	Error() error    // returns any error encountered during iteration
}

// Batch defines methods for batching multiple write operations together
type Batch interface {
	// Commit writes all batched operations to the database
	Commit(ctx context.Context) error
	// Put inserts or updates a key-value pair in the database
	Put(key []byte, data []byte) error
	// Delete deletes a key-value pair from the database
	Delete(key []byte) error
}

// VersionedGetter is implemented by engines that track a version per key.
type VersionedGetter interface {
	GetVersioned(ctx context.Context, key []byte) ([]byte, uint64, error)
}
