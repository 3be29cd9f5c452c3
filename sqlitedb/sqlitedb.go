package sqlitedb

import (
	"context"
	"database/sql"
	"strings"

	"github.com/pkg/errors"
	"github.com/rawbytedev/kvview"
	"go.uber.org/atomic"
	_ "modernc.org/sqlite"
)

const schema = `CREATE TABLE IF NOT EXISTS kv (
	k BLOB PRIMARY KEY,
	v BLOB NOT NULL,
	version INTEGER NOT NULL
) WITHOUT ROWID`

const upsert = `INSERT INTO kv (k, v, version) VALUES (?, ?, ?)
	ON CONFLICT(k) DO UPDATE SET v = excluded.v, version = excluded.version`

// SQLiteDB stores pairs in a single WITHOUT ROWID table. BLOB keys compare
// with memcmp, so ORDER BY k gives the same order as the LSM engines.
type SQLiteDB struct {
	db      *sql.DB
	version atomic.Uint64
	closed  atomic.Bool
}

type sqliteBatch struct {
	db  *SQLiteDB
	ops []batchOp
}

type batchOp struct {
	key    []byte
	value  []byte
	delete bool
}

type sqliteIterator struct {
	rows    *sql.Rows
	key     []byte
	value   []byte
	version uint64
	valid   bool
	err     error
}

func NewSQLiteDB(cfg Config) (kvview.Core, error) {
	dsn := cfg.Dir
	if cfg.InMemory || dsn == "" {
		dsn = ":memory:"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.Wrapf(err, "sqlitedb: open %q", dsn)
	}
	// one connection keeps :memory: databases shared and serialises writers
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "sqlitedb: create schema")
	}
	s := &SQLiteDB{db: db}
	var maxVersion sql.NullInt64
	if err := db.QueryRow(`SELECT MAX(version) FROM kv`).Scan(&maxVersion); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "sqlitedb: load version")
	}
	s.version.Store(uint64(maxVersion.Int64))
	return s, nil
}

func (s *SQLiteDB) Put(ctx context.Context, key []byte, data []byte) error {
	if err := s.check(key); err != nil {
		return err
	}
	if data == nil {
		return kvview.ErrEmptyValue
	}
	_, err := s.db.ExecContext(ctx, upsert, key, data, s.version.Inc())
	return mapErr(err)
}

func (s *SQLiteDB) Get(ctx context.Context, key []byte) ([]byte, error) {
	data, _, err := s.GetVersioned(ctx, key)
	return data, err
}

func (s *SQLiteDB) GetVersioned(ctx context.Context, key []byte) ([]byte, uint64, error) {
	if err := s.check(key); err != nil {
		return nil, 0, err
	}
	var (
		data    []byte
		version int64
	)
	err := s.db.QueryRowContext(ctx, `SELECT v, version FROM kv WHERE k = ?`, key).Scan(&data, &version)
	if err != nil {
		return nil, 0, mapErr(err)
	}
	return data, uint64(version), nil
}

func (s *SQLiteDB) Delete(ctx context.Context, key []byte) error {
	if err := s.check(key); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE k = ?`, key)
	return mapErr(err)
}

func (s *SQLiteDB) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteDB) check(key []byte) error {
	if s.closed.Load() {
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
	case errors.Is(err, sql.ErrNoRows):
		return kvview.ErrNotFound
	case errors.Is(err, sql.ErrConnDone):
		return kvview.ErrClosed
	}
	return err
}

func (s *SQLiteDB) Batch() kvview.Batch {
	return &sqliteBatch{db: s}
}

func (b *sqliteBatch) Put(key []byte, data []byte) error {
	if len(key) == 0 {
		return kvview.ErrEmptyKey
	}
	// a nil value would bind as NULL, keep empty values non-nil
	b.ops = append(b.ops, batchOp{key: append([]byte(nil), key...), value: append(make([]byte, 0, len(data)), data...)})
	return nil
}

func (b *sqliteBatch) Delete(key []byte) error {
	if len(key) == 0 {
		return kvview.ErrEmptyKey
	}
	b.ops = append(b.ops, batchOp{key: append([]byte(nil), key...), delete: true})
	return nil
}

// Commit applies the queued operations in one transaction.
func (b *sqliteBatch) Commit(ctx context.Context) error {
	if b.db.closed.Load() {
		return kvview.ErrClosed
	}
	tx, err := b.db.db.BeginTx(ctx, nil)
	if err != nil {
		return mapErr(err)
	}
	for _, op := range b.ops {
		if op.delete {
			_, err = tx.ExecContext(ctx, `DELETE FROM kv WHERE k = ?`, op.key)
		} else {
			_, err = tx.ExecContext(ctx, upsert, op.key, op.value, b.db.version.Inc())
		}
		if err != nil {
			tx.Rollback()
			return mapErr(err)
		}
	}
	b.ops = nil
	return mapErr(tx.Commit())
}

// Scan runs one ordered range query; rows are pulled lazily by Next.
func (s *SQLiteDB) Scan(ctx context.Context, opts kvview.ScanOptions) kvview.Iterator {
	if s.closed.Load() {
		return kvview.ErrIterator(kvview.ErrClosed)
	}
	var (
		where []string
		args  []any
	)
	if len(opts.Prefix) > 0 {
		where = append(where, "k >= ?")
		args = append(args, opts.Prefix)
	}
	if end := opts.Upper(); end != nil {
		where = append(where, "k < ?")
		args = append(args, end)
	}
	if opts.After != nil {
		where = append(where, "k > ?")
		args = append(args, opts.After)
	}
	query := `SELECT k, v, version FROM kv`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY k"
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return kvview.ErrIterator(mapErr(err))
	}
	return &sqliteIterator{rows: rows}
}

func (it *sqliteIterator) Next() bool {
	it.valid = false
	if it.err != nil || !it.rows.Next() {
		return false
	}
	var version int64
	if err := it.rows.Scan(&it.key, &it.value, &version); err != nil {
		it.err = err
		return false
	}
	it.version = uint64(version)
	it.valid = true
	return true
}

func (it *sqliteIterator) Key() []byte {
	if !it.valid {
		return nil
	}
	return it.key
}

func (it *sqliteIterator) Value() []byte {
	if !it.valid {
		return nil
	}
	return it.value
}

func (it *sqliteIterator) Version() uint64 {
	if !it.valid {
		return 0
	}
	return it.version
}

func (it *sqliteIterator) Release() {
	it.valid = false
	it.rows.Close()
}

func (it *sqliteIterator) Error() error {
	if it.err != nil {
		return it.err
	}
	return mapErr(it.rows.Err())
}
