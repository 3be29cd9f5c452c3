package kvview

import (
	"bytes"
	"context"
	"fmt"

	"github.com/pkg/errors"
)

// Range describes one bounded ascending read over a prefix.
type Range struct {
	Prefix []byte
	// After is the exclusive start position. Nil starts at the beginning of the prefix.
	After []byte
	// End optionally narrows the exclusive upper bound, see ScanOptions.End.
	End []byte

	Limit int
}

// RangeResult is what one List call returns.
type RangeResult struct {
	Entries []RawEntry
	// More is set when at least one matching key exists after the last entry.
	More bool
}

// RawEntry is a key-value pair as stored by the engine.
type RawEntry struct {
	Key     []byte
	Value   []byte
	Version uint64
}

// List reads at most r.Limit entries whose keys extend r.Prefix and sort
// before r.End when it is set, in ascending order, starting strictly after
// r.After. The key equal to the prefix itself is never returned. One extra
// key is looked at to fill in More.
func List(ctx context.Context, db Core, r Range) (RangeResult, error) {
	if r.Limit <= 0 {
		return RangeResult{}, errors.Errorf("kvview: invalid range limit %d", r.Limit)
	}
	if err := ctx.Err(); err != nil {
		return RangeResult{}, err
	}
	it := db.Scan(ctx, ScanOptions{Prefix: r.Prefix, After: r.After, End: r.End})
	defer it.Release()

	res := RangeResult{Entries: make([]RawEntry, 0, r.Limit)}
	for it.Next() {
		if err := ctx.Err(); err != nil {
			return RangeResult{}, err
		}
		key := it.Key()
		if bytes.Equal(key, r.Prefix) {
			continue
		}
		if len(res.Entries) == r.Limit {
			res.More = true
			break
		}
		res.Entries = append(res.Entries, RawEntry{
			Key:     append([]byte(nil), key...),
			Value:   append([]byte(nil), it.Value()...),
			Version: it.Version(),
		})
	}
	if err := it.Error(); err != nil {
		return RangeResult{}, errors.Wrap(err, "kvview: range scan")
	}
	return res, nil
}

// PrefixEnd returns the smallest key greater than every key starting with
// prefix, or nil when no such key exists (empty or all 0xff prefix).
func PrefixEnd(prefix []byte) []byte {
	end := append([]byte(nil), prefix...)
	for i := len(end) - 1; i >= 0; i-- {
		if end[i] < 0xff {
			end[i]++
			return end[:i+1]
		}
	}
	return nil
}

// FormatVersionstamp renders an engine version as a 20 character hex
// versionstamp. Zero means the engine keeps no version and yields "".
func FormatVersionstamp(version uint64) string {
	if version == 0 {
		return ""
	}
	return fmt.Sprintf("%016x0000", version)
}
