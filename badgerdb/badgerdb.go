package badgerdb

import (
	"bytes"
	"context"

	"github.com/dgraph-io/badger/v4"
	"github.com/pkg/errors"
	"github.com/rawbytedev/kvview"
)

type badgerdb struct {
	db *badger.DB
}
type badgerBatch struct {
	batch *badger.WriteBatch
}

// badgerIterator owns a read-only transaction for the lifetime of the scan.
type badgerIterator struct {
	txn     *badger.Txn
	it      *badger.Iterator
	prefix  []byte
	after   []byte
	end     []byte
	started bool
	err     []error
}

// NewBadgerDB initializes and returns a BadgerDB instance at the specified path.
func NewBadgerDB(cfg Config) (kvview.Core, error) {
	var opts badger.Options
	switch {
	case cfg.BadgerConfigs != nil:
		opts = *cfg.BadgerConfigs
	case cfg.InMemory:
		opts = badger.DefaultOptions("").WithInMemory(true)
	default:
		opts = badger.DefaultOptions(cfg.Dir)
	}
	if cfg.Logger != nil {
		opts = opts.WithLogger(cfg.Logger)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, errors.Wrapf(err, "badgerdb: open %q", cfg.Dir)
	}
	return &badgerdb{db: db}, nil
}

// Put inserts or updates a key-value pair in the database.
func (b *badgerdb) Put(ctx context.Context, key, value []byte) error {
	if err := b.check(ctx, key); err != nil {
		return err
	}
	if value == nil {
		return kvview.ErrEmptyValue
	}
	return mapErr(b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, value)
	}))
}

// Get retrieves the value for a given key. Returns kvview.ErrNotFound if absent.
func (b *badgerdb) Get(ctx context.Context, key []byte) ([]byte, error) {
	data, _, err := b.GetVersioned(ctx, key)
	return data, err
}

// GetVersioned retrieves the value together with the commit version of the key.
func (b *badgerdb) GetVersioned(ctx context.Context, key []byte) ([]byte, uint64, error) {
	if err := b.check(ctx, key); err != nil {
		return nil, 0, err
	}
	var (
		data    []byte
		version uint64
	)
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		version = item.Version()
		data, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, 0, mapErr(err)
	}
	return data, version, nil
}

// Delete removes a key-value pair from the database.
func (b *badgerdb) Delete(ctx context.Context, key []byte) error {
	if err := b.check(ctx, key); err != nil {
		return err
	}
	return mapErr(b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(key)
	}))
}

// Close closes the BadgerDB instance and releases all resources.
func (b *badgerdb) Close() error {
	if b.db.IsClosed() {
		return nil
	}
	return b.db.Close()
}

func (b *badgerdb) check(ctx context.Context, key []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if b.db.IsClosed() {
		return kvview.ErrClosed
	}
	if len(key) == 0 {
		return kvview.ErrEmptyKey
	}
	return nil
}

func mapErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, badger.ErrKeyNotFound):
		return kvview.ErrNotFound
	case errors.Is(err, badger.ErrDBClosed):
		return kvview.ErrClosed
	case errors.Is(err, badger.ErrEmptyKey):
		return kvview.ErrEmptyKey
	}
	return err
}

// Batch creates a new batch operation for the BadgerDB instance.
/*
Must be used carefully calling Batch creates a new write batch that needs to be committed separately.
or else it may lead to uncommitted data. and data loss.
*/
func (b *badgerdb) Batch() kvview.Batch {
	return &badgerBatch{batch: b.db.NewWriteBatch()}
}

// Put inserts or updates a key-value pair in the batch.
func (b *badgerBatch) Put(key, value []byte) error {
	return mapErr(b.batch.Set(key, value))
}

// Delete removes a key-value pair from the batch.
func (b *badgerBatch) Delete(key []byte) error {
	return mapErr(b.batch.Delete(key))
}

// Commit commits the batch operations to the database.
/*
Note: no insertions/updates/deletions are saved until Commit is called.
Inserting to an already committed batch is forbidden and will lead to errors.
*/
func (b *badgerBatch) Commit(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		b.batch.Cancel()
		return err
	}
	return mapErr(b.batch.Flush())
}

// Scan opens a read-only transaction which stays open until Release.
func (b *badgerdb) Scan(ctx context.Context, opts kvview.ScanOptions) kvview.Iterator {
	if err := ctx.Err(); err != nil {
		return kvview.ErrIterator(err)
	}
	if b.db.IsClosed() {
		return kvview.ErrIterator(kvview.ErrClosed)
	}
	txn := b.db.NewTransaction(false)
	iterOpts := badger.DefaultIteratorOptions
	iterOpts.Prefix = opts.Prefix
	return &badgerIterator{
		txn:    txn,
		it:     txn.NewIterator(iterOpts),
		prefix: opts.Prefix,
		after:  opts.After,
		end:    opts.End,
	}
}

func (it *badgerIterator) Next() bool {
	if it.started {
		it.it.Next()
		return it.valid()
	}
	it.started = true
	if it.after == nil {
		it.it.Seek(it.prefix)
		return it.valid()
	}
	it.it.Seek(it.after)
	if it.it.Valid() && bytes.Equal(it.it.Item().Key(), it.after) {
		it.it.Next()
	}
	return it.valid()
}

// valid also applies the End bound, the badger Prefix option only covers the prefix.
func (it *badgerIterator) valid() bool {
	if !it.started || !it.it.Valid() {
		return false
	}
	return it.end == nil || bytes.Compare(it.it.Item().Key(), it.end) < 0
}

func (it *badgerIterator) Key() []byte {
	if !it.valid() {
		return nil
	}
	return it.it.Item().KeyCopy(nil) // safer, doesn't make changes to key
}
func (it *badgerIterator) Value() []byte {
	if !it.valid() {
		return nil
	}
	data, err := it.it.Item().ValueCopy(nil)
	if err != nil {
		it.err = append(it.err, err)
		return nil
	}
	return data
}
func (it *badgerIterator) Version() uint64 {
	if !it.valid() {
		return 0
	}
	return it.it.Item().Version()
}
func (it *badgerIterator) Release() {
	it.it.Close()
	it.txn.Discard()
}
func (it *badgerIterator) Error() error {
	if len(it.err) == 0 {
		return nil
	}
	return it.err[len(it.err)-1] // returns the most recent error
}
