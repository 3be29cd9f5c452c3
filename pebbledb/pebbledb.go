package pebbledb

import (
	"bytes"
	"context"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
	"github.com/pkg/errors"
	"github.com/rawbytedev/kvview"
	"go.uber.org/atomic"
)

type PebbleDB struct {
	db     *pebble.DB
	closed atomic.Bool
}
type pebbleBatch struct {
	db        *PebbleDB
	batch     *pebble.Batch
	committed bool
}
type pebbleIterator struct {
	Iterator *pebble.Iterator
	after    []byte
	started  bool
	valid    bool
	err      []error
}

// NewPebbleDB initializes and returns a kvview.Core instance at the specified path(PebbleDB).
func NewPebbleDB(cfg Config) (kvview.Core, error) {
	opts := &pebble.Options{}
	if cfg.PebbleConfigs != nil {
		opts = cfg.PebbleConfigs
	}
	if cfg.InMemory {
		opts.FS = vfs.NewMem()
	}
	db, err := pebble.Open(cfg.Dir, opts)
	if err != nil {
		return nil, errors.Wrapf(err, "pebbledb: open %q", cfg.Dir)
	}
	return &PebbleDB{db: db}, nil
}

// --- Basic CRUD operations ---

// Put inserts or updates a key-value pair in the database.
func (p *PebbleDB) Put(ctx context.Context, key []byte, data []byte) error {
	if err := p.check(ctx, key); err != nil {
		return err
	}
	if data == nil {
		return kvview.ErrEmptyValue
	}
	return p.db.Set(key, data, pebble.Sync)
}

// Get retrieves the value for a given key. Returns kvview.ErrNotFound if absent.
func (p *PebbleDB) Get(ctx context.Context, key []byte) ([]byte, error) {
	if err := p.check(ctx, key); err != nil {
		return nil, err
	}
	val, closer, err := p.db.Get(key)
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, kvview.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	defer closer.Close()
	// val is only valid until closer is closed
	return append([]byte(nil), val...), nil
}

// Delete deletes a key-value pair from the database.
func (p *PebbleDB) Delete(ctx context.Context, key []byte) error {
	if err := p.check(ctx, key); err != nil {
		return err
	}
	return p.db.Delete(key, pebble.Sync)
}

// Close closes the database and releases all resources.
func (p *PebbleDB) Close() error {
	if p.closed.Swap(true) {
		return nil
	}
	return p.db.Close()
}

func (p *PebbleDB) check(ctx context.Context, key []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if p.closed.Load() {
		return kvview.ErrClosed
	}
	if len(key) == 0 {
		return kvview.ErrEmptyKey
	}
	return nil
}

// -- Batch operations

func (p *PebbleDB) Batch() kvview.Batch {
	return &pebbleBatch{db: p, batch: p.db.NewBatch()}
}

func (p *pebbleBatch) Put(key []byte, data []byte) error {
	if p.committed {
		return kvview.ErrCommitted
	}
	if len(key) == 0 {
		return kvview.ErrEmptyKey
	}
	return p.batch.Set(key, data, pebble.NoSync)
}

// Delete adds a delete operation to the current batch.
func (p *pebbleBatch) Delete(key []byte) error {
	if p.committed {
		return kvview.ErrCommitted
	}
	if len(key) == 0 {
		return kvview.ErrEmptyKey
	}
	return p.batch.Delete(key, pebble.NoSync)
}

// Commit writes the batch and releases it. The batch cannot be reused.
func (p *pebbleBatch) Commit(ctx context.Context) error {
	if p.committed {
		return kvview.ErrCommitted
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if p.db.closed.Load() {
		return kvview.ErrClosed
	}
	// pebble recycles a closed batch, so it must not be touched again
	p.committed = true
	defer p.batch.Close()
	return p.batch.Commit(pebble.Sync)
}

// -- Iterator operations

// Scan bounds the pebble iterator to [opts.Prefix, opts.Upper()).
func (p *PebbleDB) Scan(ctx context.Context, opts kvview.ScanOptions) kvview.Iterator {
	if err := ctx.Err(); err != nil {
		return kvview.ErrIterator(err)
	}
	if p.closed.Load() {
		return kvview.ErrIterator(kvview.ErrClosed)
	}
	iterOpts := &pebble.IterOptions{UpperBound: opts.Upper()}
	if len(opts.Prefix) > 0 {
		iterOpts.LowerBound = opts.Prefix
	}
	it, err := p.db.NewIter(iterOpts)
	if err != nil {
		return kvview.ErrIterator(errors.Wrap(err, "pebbledb: new iterator"))
	}
	return &pebbleIterator{Iterator: it, after: opts.After}
}

func (it *pebbleIterator) Next() bool {
	// this comes from how iterators works in pebble
	if it.started {
		it.valid = it.Iterator.Next()
		return it.valid
	}
	it.started = true
	if it.after == nil {
		it.valid = it.Iterator.First()
		return it.valid
	}
	it.valid = it.Iterator.SeekGE(it.after)
	if it.valid && bytes.Equal(it.Iterator.Key(), it.after) {
		it.valid = it.Iterator.Next()
	}
	return it.valid
}

func (it *pebbleIterator) Key() []byte {
	if !it.valid {
		return nil
	}
	// pebble reuses the key buffer on Next
	return append([]byte(nil), it.Iterator.Key()...)
}
func (it *pebbleIterator) Value() []byte {
	if !it.valid {
		return nil
	}
	data, err := it.Iterator.ValueAndErr()
	if err != nil {
		it.err = append(it.err, err)
		return nil
	}
	return append([]byte(nil), data...)
}

// Version is always 0, pebble sequence numbers are not exposed.
func (it *pebbleIterator) Version() uint64 { return 0 }

func (it *pebbleIterator) Release() {
	it.valid = false
	if err := it.Iterator.Close(); err != nil {
		it.err = append(it.err, err)
	}
}
func (it *pebbleIterator) Error() error {
	if len(it.err) == 0 {
		return it.Iterator.Error()
	}
	return it.err[len(it.err)-1] // returns the most recent error
}
