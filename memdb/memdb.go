package memdb

import (
	"bytes"
	"context"
	"sync"

	"github.com/google/btree"
	"github.com/rawbytedev/kvview"
	"github.com/rawbytedev/kvview/helpers"
	"go.uber.org/atomic"
)

// fetchSize is how many items an iterator pulls from its snapshot at a time.
const fetchSize = 64

type item struct {
	key     []byte
	value   []byte
	version uint64
}

func less(a, b item) bool {
	return bytes.Compare(a.key, b.key) < 0
}

// MemDB is an ordered in-memory store. Each write gets a fresh version.
type MemDB struct {
	lock    sync.RWMutex
	tree    *btree.BTreeG[item]
	version atomic.Uint64
	closed  atomic.Bool
}

type memBatch struct {
	db  *MemDB
	ops []batchOp
}

type batchOp struct {
	key    []byte
	value  []byte
	delete bool
}

// memIterator walks a copy-on-write clone of the tree taken at Scan time.
type memIterator struct {
	snapshot *btree.BTreeG[item]
	end      []byte
	pivot    []byte
	skip     bool // skip the pivot itself on the next fetch
	buf      []item
	cur      item
	valid    bool
	done     bool
}

func NewMemDB(cfg Config) (kvview.Core, error) {
	degree := cfg.Degree
	if degree <= 1 {
		degree = 32
	}
	return &MemDB{tree: btree.NewG(degree, less)}, nil
}

func (m *MemDB) Put(ctx context.Context, key []byte, data []byte) error {
	if err := m.check(key); err != nil {
		return err
	}
	if data == nil {
		return kvview.ErrEmptyValue
	}
	return helpers.IgnoreContext(ctx, func() error {
		m.lock.Lock()
		defer m.lock.Unlock()
		m.put(key, data)
		return nil
	})
}

// put requires m.lock held for writing.
func (m *MemDB) put(key, data []byte) {
	m.tree.ReplaceOrInsert(item{
		key:     append([]byte(nil), key...),
		value:   append(make([]byte, 0, len(data)), data...),
		version: m.version.Inc(),
	})
}

func (m *MemDB) Get(ctx context.Context, key []byte) ([]byte, error) {
	data, _, err := m.GetVersioned(ctx, key)
	return data, err
}

func (m *MemDB) GetVersioned(ctx context.Context, key []byte) ([]byte, uint64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	if err := m.check(key); err != nil {
		return nil, 0, err
	}
	m.lock.RLock()
	defer m.lock.RUnlock()
	it, ok := m.tree.Get(item{key: key})
	if !ok {
		return nil, 0, kvview.ErrNotFound
	}
	return append([]byte(nil), it.value...), it.version, nil
}

func (m *MemDB) Delete(ctx context.Context, key []byte) error {
	if err := m.check(key); err != nil {
		return err
	}
	return helpers.IgnoreContext(ctx, func() error {
		m.lock.Lock()
		defer m.lock.Unlock()
		m.tree.Delete(item{key: key})
		return nil
	})
}

func (m *MemDB) Close() error {
	if m.closed.Swap(true) {
		return nil
	}
	m.lock.Lock()
	defer m.lock.Unlock()
	m.tree.Clear(false)
	return nil
}

func (m *MemDB) check(key []byte) error {
	if m.closed.Load() {
		return kvview.ErrClosed
	}
	if len(key) == 0 {
		return kvview.ErrEmptyKey
	}
	return nil
}

func (m *MemDB) Batch() kvview.Batch {
	return &memBatch{db: m}
}

func (b *memBatch) Put(key []byte, data []byte) error {
	if len(key) == 0 {
		return kvview.ErrEmptyKey
	}
	b.ops = append(b.ops, batchOp{key: append([]byte(nil), key...), value: append(make([]byte, 0, len(data)), data...)})
	return nil
}

func (b *memBatch) Delete(key []byte) error {
	if len(key) == 0 {
		return kvview.ErrEmptyKey
	}
	b.ops = append(b.ops, batchOp{key: append([]byte(nil), key...), delete: true})
	return nil
}

// Commit applies every queued operation under one write lock.
func (b *memBatch) Commit(ctx context.Context) error {
	if b.db.closed.Load() {
		return kvview.ErrClosed
	}
	return helpers.IgnoreContext(ctx, func() error {
		b.db.lock.Lock()
		defer b.db.lock.Unlock()
		for _, op := range b.ops {
			if op.delete {
				b.db.tree.Delete(item{key: op.key})
				continue
			}
			b.db.put(op.key, op.value)
		}
		b.ops = nil
		return nil
	})
}

func (m *MemDB) Scan(ctx context.Context, opts kvview.ScanOptions) kvview.Iterator {
	if err := ctx.Err(); err != nil {
		return kvview.ErrIterator(err)
	}
	if m.closed.Load() {
		return kvview.ErrIterator(kvview.ErrClosed)
	}
	// Clone must not race with writers.
	m.lock.Lock()
	snapshot := m.tree.Clone()
	m.lock.Unlock()

	it := &memIterator{
		snapshot: snapshot,
		end:      opts.Upper(),
		pivot:    opts.Prefix,
	}
	if opts.After != nil && bytes.Compare(opts.After, opts.Prefix) >= 0 {
		it.pivot = opts.After
		it.skip = true
	}
	return it
}

func (it *memIterator) fetch() {
	it.buf = it.buf[:0]
	it.snapshot.AscendGreaterOrEqual(item{key: it.pivot}, func(i item) bool {
		if it.skip && bytes.Equal(i.key, it.pivot) {
			return true
		}
		if it.end != nil && bytes.Compare(i.key, it.end) >= 0 {
			return false
		}
		it.buf = append(it.buf, i)
		return len(it.buf) < fetchSize
	})
	if len(it.buf) < fetchSize {
		it.done = true
	}
	if len(it.buf) > 0 {
		it.pivot = it.buf[len(it.buf)-1].key
		it.skip = true
	}
}

func (it *memIterator) Next() bool {
	if len(it.buf) == 0 {
		if it.done {
			it.valid = false
			return false
		}
		it.fetch()
		if len(it.buf) == 0 {
			it.valid = false
			return false
		}
	}
	it.cur, it.buf = it.buf[0], it.buf[1:]
	it.valid = true
	return true
}

func (it *memIterator) Key() []byte {
	if !it.valid {
		return nil
	}
	return it.cur.key
}

func (it *memIterator) Value() []byte {
	if !it.valid {
		return nil
	}
	return it.cur.value
}

func (it *memIterator) Version() uint64 {
	if !it.valid {
		return 0
	}
	return it.cur.version
}

func (it *memIterator) Release() {
	it.valid = false
	it.buf = nil
	it.snapshot = nil
}

func (it *memIterator) Error() error { return nil }
