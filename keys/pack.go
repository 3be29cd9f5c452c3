package keys

import (
	"encoding/binary"
	"math"
	"unicode/utf8"

	"github.com/pkg/errors"
)

// Packed layout tags. Their order is the cross-kind order of keys.
const (
	tagBytes  byte = 0x01
	tagString byte = 0x02
	tagInt    byte = 0x14
	tagFloat  byte = 0x21
	tagFalse  byte = 0x26
	tagTrue   byte = 0x27

	escape byte = 0xff
)

// Pack encodes k so that bytes.Compare on packed keys orders them like the
// keys. Strings and bytes end with 0x00, an inner 0x00 is written 0x00 0xff.
// Ints are 8 big-endian bytes with the sign bit flipped; floats are their
// IEEE bits with the sign bit flipped, or all bits flipped when negative.
func Pack(k Key) []byte {
	var out []byte
	for _, p := range k.parts {
		out = appendPart(out, p)
	}
	return out
}

func appendPart(out []byte, p Part) []byte {
	switch p.kind {
	case KindBytes, KindString:
		tag := tagString
		if p.kind == KindBytes {
			tag = tagBytes
		}
		out = append(out, tag)
		for i := 0; i < len(p.s); i++ {
			out = append(out, p.s[i])
			if p.s[i] == 0x00 {
				out = append(out, escape)
			}
		}
		return append(out, 0x00)
	case KindInt:
		out = append(out, tagInt)
		return binary.BigEndian.AppendUint64(out, uint64(p.i)^(1<<63))
	case KindFloat:
		bits := math.Float64bits(p.f)
		if bits&(1<<63) != 0 {
			bits = ^bits
		} else {
			bits |= 1 << 63
		}
		out = append(out, tagFloat)
		return binary.BigEndian.AppendUint64(out, bits)
	case KindBool:
		if p.b {
			return append(out, tagTrue)
		}
		return append(out, tagFalse)
	}
	panic("keys: pack of invalid part")
}

// Range returns the packed bounds [start, end) of every key that strictly
// extends prefix, plus the packed prefix itself as start. A plain byte prefix
// is not enough: the packed ["a\x00"] starts with the packed ["a"].
func Range(prefix Key) (start, end []byte) {
	start = Pack(prefix)
	end = append(append([]byte(nil), start...), escape)
	return start, end
}

// Unpack parses a packed key. Any malformed input returns an error wrapping ErrDecode.
func Unpack(b []byte) (Key, error) {
	var parts []Part
	for pos := 0; pos < len(b); {
		tag := b[pos]
		pos++
		switch tag {
		case tagBytes, tagString:
			raw, n, err := unescape(b[pos:])
			if err != nil {
				return Key{}, errors.Wrapf(err, "part %d", len(parts))
			}
			pos += n
			if tag == tagBytes {
				parts = append(parts, Part{kind: KindBytes, s: string(raw)})
				continue
			}
			if !utf8.Valid(raw) {
				return Key{}, errors.Wrapf(ErrDecode, "part %d: invalid utf-8 string", len(parts))
			}
			parts = append(parts, String(string(raw)))
		case tagInt, tagFloat:
			if len(b)-pos < 8 {
				return Key{}, errors.Wrapf(ErrDecode, "part %d: truncated number", len(parts))
			}
			bits := binary.BigEndian.Uint64(b[pos : pos+8])
			pos += 8
			if tag == tagInt {
				parts = append(parts, Int(int64(bits^(1<<63))))
				continue
			}
			if bits&(1<<63) != 0 {
				bits &^= 1 << 63
			} else {
				bits = ^bits
			}
			parts = append(parts, Float(math.Float64frombits(bits)))
		case tagFalse:
			parts = append(parts, Bool(false))
		case tagTrue:
			parts = append(parts, Bool(true))
		default:
			return Key{}, errors.Wrapf(ErrDecode, "part %d: unknown tag 0x%02x", len(parts), tag)
		}
	}
	return Key{parts: parts}, nil
}

// unescape reads an escaped string payload up to its terminator and returns
// the payload and the number of bytes consumed, terminator included.
func unescape(b []byte) ([]byte, int, error) {
	var out []byte
	for i := 0; i < len(b); i++ {
		if b[i] != 0x00 {
			out = append(out, b[i])
			continue
		}
		if i+1 < len(b) && b[i+1] == escape {
			out = append(out, 0x00)
			i++
			continue
		}
		return out, i + 1, nil
	}
	return nil, 0, errors.Wrap(ErrDecode, "unterminated string")
}
