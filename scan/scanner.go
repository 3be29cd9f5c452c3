// Package scan pages through the keys under a prefix.
//
// A page is one bounded ascending range read. The next page resumes strictly
// after the last key of the previous one through an opaque Cursor. When a
// cursor yields an empty page its resume point is taken to be stale and the
// scan restarts once from the beginning of the prefix.
package scan

import (
	"context"
	"io"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rawbytedev/kvview"
	"github.com/rawbytedev/kvview/keys"
	"github.com/sirupsen/logrus"
)

// Entry is one stored pair. Versionstamp is empty for engines without versions.
type Entry struct {
	Key          keys.Key
	Value        []byte
	Versionstamp string
}

// Page is the result of one ScanPage call.
type Page struct {
	Entries []Entry
	// Cursor is the cursor the returned entries were read with, nil for a
	// fresh or restarted scan.
	Cursor *Cursor
	// NextCursor is nil when the prefix range is exhausted.
	NextCursor *Cursor
}

// Scanner holds no per call state and is safe for concurrent use. The store
// is borrowed, closing it is up to the caller.
type Scanner struct {
	store    kvview.Core
	log      logrus.FieldLogger
	restarts prometheus.Counter
}

type Option func(*Scanner)

func WithLogger(log logrus.FieldLogger) Option {
	return func(s *Scanner) { s.log = log }
}

// WithRestartCounter counts stale cursor restarts.
func WithRestartCounter(c prometheus.Counter) Option {
	return func(s *Scanner) { s.restarts = c }
}

func New(store kvview.Core, opts ...Option) *Scanner {
	s := &Scanner{store: store}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		s.log = l
	}
	return s
}

// ScanPage returns up to pageSize entries whose keys extend prefix, in
// ascending order, resuming after cursor when it is not nil.
//
// A cursor issued for another prefix is ignored. A cursor that leads to an
// empty page triggers exactly one restart without it. Store failures come
// back as *StoreError and are never retried.
func (s *Scanner) ScanPage(ctx context.Context, prefix keys.Key, pageSize int, cursor *Cursor) (*Page, error) {
	if pageSize <= 0 {
		return nil, errors.Wrapf(ErrInvalidArgument, "page size %d", pageSize)
	}
	start, end := keys.Range(prefix)
	if cursor != nil && !cursor.boundTo(start) {
		s.log.WithField("prefix", prefix.String()).Debug("ignoring cursor issued for another prefix")
		cursor = nil
	}

	page, err := s.scanOnce(ctx, start, end, pageSize, cursor)
	if errors.Is(err, errStaleCursor) {
		s.log.WithFields(logrus.Fields{
			"prefix": prefix.String(),
			"cursor": cursor.String(),
		}).Debug("cursor returned nothing, restarting from the prefix start")
		if s.restarts != nil {
			s.restarts.Inc()
		}
		// Without a cursor scanOnce cannot report a stale cursor again.
		page, err = s.scanOnce(ctx, start, end, pageSize, nil)
	}
	if err != nil {
		return nil, err
	}
	return page, nil
}

func (s *Scanner) scanOnce(ctx context.Context, start, end []byte, pageSize int, cursor *Cursor) (*Page, error) {
	r := kvview.Range{Prefix: start, End: end, Limit: pageSize}
	if cursor != nil {
		r.After = cursor.position(start)
	}
	res, err := kvview.List(ctx, s.store, r)
	if err != nil {
		return nil, &StoreError{Op: "list", Err: err}
	}
	if len(res.Entries) == 0 && cursor != nil {
		return nil, errStaleCursor
	}

	page := &Page{Cursor: cursor, Entries: make([]Entry, 0, len(res.Entries))}
	for _, raw := range res.Entries {
		key, err := keys.Unpack(raw.Key)
		if err != nil {
			return nil, &StoreError{Op: "unpack", Err: errors.Wrapf(err, "stored key %x", raw.Key)}
		}
		page.Entries = append(page.Entries, Entry{
			Key:          key,
			Value:        raw.Value,
			Versionstamp: kvview.FormatVersionstamp(raw.Version),
		})
	}
	if res.More {
		last := res.Entries[len(res.Entries)-1].Key
		page.NextCursor = newCursor(start, last)
	}
	return page, nil
}
