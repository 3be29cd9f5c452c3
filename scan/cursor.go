package scan

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
	"github.com/pkg/errors"
)

const tagSize = 4

var cursorEncoding = base64.RawURLEncoding

// Cursor marks a resume point strictly after one key of a prefix scan.
// Callers only ever get one from a Page or from ParseCursor and hand it
// back unchanged.
type Cursor struct {
	tag    uint32
	suffix []byte
}

func prefixTag(prefix []byte) uint32 {
	return uint32(xxhash.Sum64(prefix))
}

// newCursor positions after key, which must extend prefix.
func newCursor(prefix, key []byte) *Cursor {
	return &Cursor{
		tag:    prefixTag(prefix),
		suffix: append([]byte(nil), key[len(prefix):]...),
	}
}

// String returns the URL safe text form.
func (c *Cursor) String() string {
	if c == nil {
		return ""
	}
	buf := make([]byte, tagSize, tagSize+len(c.suffix))
	binary.BigEndian.PutUint32(buf, c.tag)
	return cursorEncoding.EncodeToString(append(buf, c.suffix...))
}

// ParseCursor reads the text form of a cursor. Empty text is no cursor and
// returns nil without error.
func ParseCursor(text string) (*Cursor, error) {
	if text == "" {
		return nil, nil
	}
	raw, err := cursorEncoding.DecodeString(text)
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidCursor, "%v", err)
	}
	if len(raw) <= tagSize {
		return nil, errors.Wrap(ErrInvalidCursor, "too short")
	}
	return &Cursor{
		tag:    binary.BigEndian.Uint32(raw[:tagSize]),
		suffix: raw[tagSize:],
	}, nil
}

// Equal reports whether both cursors denote the same position.
func (c *Cursor) Equal(o *Cursor) bool {
	if c == nil || o == nil {
		return c == o
	}
	return c.tag == o.tag && bytes.Equal(c.suffix, o.suffix)
}

func (c *Cursor) boundTo(prefix []byte) bool {
	return c.tag == prefixTag(prefix)
}

// position is the store key the cursor resumes after.
func (c *Cursor) position(prefix []byte) []byte {
	pos := make([]byte, 0, len(prefix)+len(c.suffix))
	return append(append(pos, prefix...), c.suffix...)
}
