// Package browse is the request layer between text queries and the store.
//
// Prefixes, keys and cursors arrive as text. A prefix or cursor that does not
// decode yields an empty result marked invalid, never an error, so stale or
// hand edited links degrade to "nothing here".
package browse

import (
	"context"
	"encoding/base64"
	"unicode/utf8"

	"github.com/pkg/errors"
	"github.com/rawbytedev/kvview"
	"github.com/rawbytedev/kvview/keys"
	"github.com/rawbytedev/kvview/scan"
	"github.com/sirupsen/logrus"
)

// Item is an entry as shown to a caller. Value holds the raw bytes as text
// when they are valid UTF-8 and as standard base64 otherwise.
type Item struct {
	Key          string `json:"key" yaml:"key"`
	Value        string `json:"value" yaml:"value"`
	Encoding     string `json:"encoding" yaml:"encoding"`
	Versionstamp string `json:"versionstamp,omitempty" yaml:"versionstamp,omitempty"`
}

type ListResult struct {
	// Prefix is the canonical text of the decoded prefix, empty when Valid is false.
	Prefix     string `json:"prefix" yaml:"prefix"`
	Valid      bool   `json:"valid" yaml:"valid"`
	Items      []Item `json:"items" yaml:"items"`
	Cursor     string `json:"cursor,omitempty" yaml:"cursor,omitempty"`
	NextCursor string `json:"nextCursor,omitempty" yaml:"nextCursor,omitempty"`
}

type GetResult struct {
	Query string `json:"query" yaml:"query"`
	Valid bool   `json:"valid" yaml:"valid"`
	Found bool   `json:"found" yaml:"found"`
	Item  *Item  `json:"item,omitempty" yaml:"item,omitempty"`
}

// Record is one key-value pair to store.
type Record struct {
	Key   keys.Key
	Value []byte
}

type Service struct {
	store   kvview.Core
	scanner *scan.Scanner
	limit   int
	log     logrus.FieldLogger
}

// DefaultLimit is the page size used when New is given a non-positive limit.
const DefaultLimit = 10

// New returns a Service listing limit entries per page. The scanner must read
// from the same store.
func New(store kvview.Core, scanner *scan.Scanner, limit int, log logrus.FieldLogger) *Service {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Service{store: store, scanner: scanner, limit: limit, log: log}
}

func (s *Service) Limit() int { return s.limit }

// List returns one page under the prefix text, resuming after cursorText when
// it is not empty.
func (s *Service) List(ctx context.Context, prefixText, cursorText string) (*ListResult, error) {
	res := &ListResult{Items: []Item{}}
	prefix, err := keys.Decode(prefixText)
	if err != nil {
		s.log.WithError(err).WithField("prefix", prefixText).Debug("undecodable prefix")
		return res, nil
	}
	cursor, err := scan.ParseCursor(cursorText)
	if err != nil {
		s.log.WithError(err).WithField("cursor", cursorText).Debug("undecodable cursor")
		return res, nil
	}
	page, err := s.scanner.ScanPage(ctx, prefix, s.limit, cursor)
	if err != nil {
		return nil, err
	}
	res.Prefix = prefix.String()
	res.Valid = true
	res.Cursor = page.Cursor.String()
	res.NextCursor = page.NextCursor.String()
	for _, e := range page.Entries {
		res.Items = append(res.Items, newItem(e.Key, e.Value, e.Versionstamp))
	}
	return res, nil
}

// Get looks up one key. An undecodable key gives Valid false, a missing one Found false.
func (s *Service) Get(ctx context.Context, keyText string) (*GetResult, error) {
	key, err := decodeKey(keyText)
	if err != nil {
		s.log.WithError(err).WithField("key", keyText).Debug("undecodable key")
		return &GetResult{}, nil
	}
	res := &GetResult{Query: key.String(), Valid: true}
	value, version, err := s.get(ctx, keys.Pack(key))
	switch {
	case errors.Is(err, kvview.ErrNotFound):
		return res, nil
	case err != nil:
		return nil, &scan.StoreError{Op: "get", Err: err}
	}
	item := newItem(key, value, kvview.FormatVersionstamp(version))
	res.Found = true
	res.Item = &item
	return res, nil
}

func (s *Service) get(ctx context.Context, packed []byte) ([]byte, uint64, error) {
	if vg, ok := s.store.(kvview.VersionedGetter); ok {
		return vg.GetVersioned(ctx, packed)
	}
	value, err := s.store.Get(ctx, packed)
	return value, 0, err
}

// Delete removes one key and returns its canonical text. Deleting a missing
// key succeeds. An undecodable key returns an error wrapping keys.ErrDecode.
func (s *Service) Delete(ctx context.Context, keyText string) (string, error) {
	key, err := decodeKey(keyText)
	if err != nil {
		return "", err
	}
	if err := s.store.Delete(ctx, keys.Pack(key)); err != nil {
		return "", &scan.StoreError{Op: "delete", Err: err}
	}
	s.log.WithField("key", key.String()).Info("deleted key")
	return key.String(), nil
}

// Put stores value under the key text and returns the canonical key text.
func (s *Service) Put(ctx context.Context, keyText string, value []byte) (string, error) {
	key, err := decodeKey(keyText)
	if err != nil {
		return "", err
	}
	if err := s.store.Put(ctx, keys.Pack(key), value); err != nil {
		return "", &scan.StoreError{Op: "put", Err: err}
	}
	return key.String(), nil
}

// Import writes records in batches of batchSize and returns how many were committed.
func (s *Service) Import(ctx context.Context, records []Record, batchSize int) (int, error) {
	for i, r := range records {
		if r.Key.Len() == 0 {
			return 0, errors.Wrapf(keys.ErrDecode, "record %d: empty key", i)
		}
	}
	if batchSize <= 0 {
		batchSize = len(records)
	}
	done := 0
	for done < len(records) {
		n := min(batchSize, len(records)-done)
		batch := s.store.Batch()
		for _, r := range records[done : done+n] {
			if err := batch.Put(keys.Pack(r.Key), r.Value); err != nil {
				return done, &scan.StoreError{Op: "import", Err: err}
			}
		}
		if err := batch.Commit(ctx); err != nil {
			return done, &scan.StoreError{Op: "import", Err: err}
		}
		done += n
		s.log.WithField("records", done).Debug("import batch committed")
	}
	return done, nil
}

// decodeKey also rejects the empty key, it names no single entry.
func decodeKey(text string) (keys.Key, error) {
	key, err := keys.Decode(text)
	if err != nil {
		return keys.Key{}, err
	}
	if key.Len() == 0 {
		return keys.Key{}, errors.Wrap(keys.ErrDecode, "empty key")
	}
	return key, nil
}

func newItem(key keys.Key, value []byte, versionstamp string) Item {
	item := Item{Key: key.String(), Versionstamp: versionstamp}
	if utf8.Valid(value) {
		item.Value, item.Encoding = string(value), "utf8"
	} else {
		item.Value, item.Encoding = base64.StdEncoding.EncodeToString(value), "base64"
	}
	return item
}
