package leveldb

import (
	"bytes"
	"context"

	"github.com/pkg/errors"
	"github.com/rawbytedev/kvview"
	"github.com/rawbytedev/kvview/helpers"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/iterator"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"
)

var syncWrite = &opt.WriteOptions{Sync: true}

type LevelDB struct {
	Path string
	db   *leveldb.DB
}

type levelBatch struct {
	db    *leveldb.DB
	batch *leveldb.Batch
}

type levelIterator struct {
	iterator iterator.Iterator
	after    []byte
	started  bool
	valid    bool
}

// NewLevelDB opens a goleveldb database at cfg.Dir, or in memory when cfg.InMemory is set.
func NewLevelDB(cfg Config) (kvview.Core, error) {
	var (
		db  *leveldb.DB
		err error
	)
	if cfg.InMemory {
		db, err = leveldb.Open(storage.NewMemStorage(), cfg.LevelConfigs)
	} else {
		db, err = leveldb.OpenFile(cfg.Dir, cfg.LevelConfigs)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "leveldb: open %q", cfg.Dir)
	}
	return &LevelDB{Path: cfg.Dir, db: db}, nil
}

func (l *LevelDB) Put(ctx context.Context, key []byte, data []byte) error {
	if len(key) == 0 {
		return kvview.ErrEmptyKey
	}
	if data == nil {
		return kvview.ErrEmptyValue
	}
	return helpers.IgnoreContext(ctx, func() error {
		return mapErr(l.db.Put(key, data, syncWrite))
	})
}

// Get reads run in a goroutine so a cancelled ctx returns without waiting on disk.
func (l *LevelDB) Get(ctx context.Context, key []byte) ([]byte, error) {
	if len(key) == 0 {
		return nil, kvview.ErrEmptyKey
	}
	data, _, err := helpers.RunWithContext(ctx, func() ([]byte, uint64, error) {
		v, err := l.db.Get(key, nil)
		return v, 0, err
	})
	if err != nil {
		return nil, mapErr(err)
	}
	return data, nil
}

func (l *LevelDB) Delete(ctx context.Context, key []byte) error {
	if len(key) == 0 {
		return kvview.ErrEmptyKey
	}
	return helpers.IgnoreContext(ctx, func() error {
		return mapErr(l.db.Delete(key, syncWrite))
	})
}

func (l *LevelDB) Close() error {
	err := l.db.Close()
	if errors.Is(err, leveldb.ErrClosed) {
		return nil
	}
	return err
}

func mapErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, leveldb.ErrNotFound):
		return kvview.ErrNotFound
	case errors.Is(err, leveldb.ErrClosed):
		return kvview.ErrClosed
	}
	return err
}

func (l *LevelDB) Batch() kvview.Batch {
	return &levelBatch{db: l.db, batch: new(leveldb.Batch)}
}

func (b *levelBatch) Put(key []byte, data []byte) error {
	if len(key) == 0 {
		return kvview.ErrEmptyKey
	}
	b.batch.Put(key, data)
	return nil
}

func (b *levelBatch) Delete(key []byte) error {
	if len(key) == 0 {
		return kvview.ErrEmptyKey
	}
	b.batch.Delete(key)
	return nil
}

func (b *levelBatch) Commit(ctx context.Context) error {
	return helpers.IgnoreContext(ctx, func() error {
		defer b.batch.Reset()
		return mapErr(b.db.Write(b.batch, syncWrite))
	})
}

// Scan uses a leveldb snapshot iterator bounded to the prefix range.
func (l *LevelDB) Scan(ctx context.Context, opts kvview.ScanOptions) kvview.Iterator {
	if err := ctx.Err(); err != nil {
		return kvview.ErrIterator(err)
	}
	slice := &util.Range{Limit: opts.Upper()}
	if len(opts.Prefix) > 0 {
		slice.Start = opts.Prefix
	}
	return &levelIterator{iterator: l.db.NewIterator(slice, nil), after: opts.After}
}

func (it *levelIterator) Next() bool {
	if it.started {
		it.valid = it.iterator.Next()
		return it.valid
	}
	it.started = true
	if it.after == nil {
		it.valid = it.iterator.First()
		return it.valid
	}
	it.valid = it.iterator.Seek(it.after)
	if it.valid && bytes.Equal(it.iterator.Key(), it.after) {
		it.valid = it.iterator.Next()
	}
	return it.valid
}

func (it *levelIterator) Key() []byte {
	if !it.valid {
		return nil
	}
	return append([]byte(nil), it.iterator.Key()...)
}

func (it *levelIterator) Value() []byte {
	if !it.valid {
		return nil
	}
	return append([]byte(nil), it.iterator.Value()...)
}

func (it *levelIterator) Version() uint64 { return 0 }

func (it *levelIterator) Release() {
	it.valid = false
	it.iterator.Release()
}

func (it *levelIterator) Error() error {
	return mapErr(it.iterator.Error())
}
