// Package keys implements structured, ordered keys and their two encodings:
// a typed JSON array literal that survives a URL query string, and a packed
// byte layout whose bytes.Compare order is the key order.
//
// A key is a sequence of parts. Each part is bytes, a string, an int64, a
// float64 or a bool. Keys compare part by part; parts of different kinds
// compare by kind in that order (false sorts before true).
package keys

import (
	"bytes"
	"math"
	"strconv"
)

// Kind identifies the type of a key part.
type Kind uint8

const (
	KindBytes Kind = iota + 1
	KindString
	KindInt
	KindFloat
	KindBool
)

func (k Kind) String() string {
	switch k {
	case KindBytes:
		return "bytes"
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Part is one typed segment of a Key. The zero Part is invalid.
type Part struct {
	kind Kind
	s    string // string and bytes payload
	i    int64
	f    float64
	b    bool
}

func String(s string) Part { return Part{kind: KindString, s: s} }
func Int(i int64) Part     { return Part{kind: KindInt, i: i} }
func Bool(b bool) Part     { return Part{kind: KindBool, b: b} }

// Bytes copies b.
func Bytes(b []byte) Part { return Part{kind: KindBytes, s: string(b)} }

// Float stores f; every NaN is stored as the canonical math.NaN().
func Float(f float64) Part {
	if math.IsNaN(f) {
		f = math.NaN()
	}
	return Part{kind: KindFloat, f: f}
}

func (p Part) Kind() Kind { return p.kind }

// Value returns the part as string, []byte, int64, float64 or bool.
func (p Part) Value() any {
	switch p.kind {
	case KindBytes:
		return []byte(p.s)
	case KindString:
		return p.s
	case KindInt:
		return p.i
	case KindFloat:
		return p.f
	case KindBool:
		return p.b
	}
	return nil
}

// Key is an immutable sequence of parts.
type Key struct {
	parts []Part
}

// New builds a key from parts. The slice is copied.
func New(parts ...Part) Key {
	if len(parts) == 0 {
		return Key{}
	}
	return Key{parts: append([]Part(nil), parts...)}
}

// Strings is a shorthand for a key made only of string parts.
func Strings(ss ...string) Key {
	parts := make([]Part, len(ss))
	for i, s := range ss {
		parts[i] = String(s)
	}
	return Key{parts: parts}
}

func (k Key) Len() int { return len(k.parts) }

// Part returns the i-th part, it panics when i is out of range.
func (k Key) Part(i int) Part { return k.parts[i] }

// Parts returns a copy of the parts.
func (k Key) Parts() []Part { return append([]Part(nil), k.parts...) }

// Append returns a new key with parts added at the end; k is unchanged.
func (k Key) Append(parts ...Part) Key {
	out := make([]Part, 0, len(k.parts)+len(parts))
	out = append(out, k.parts...)
	return Key{parts: append(out, parts...)}
}

// HasPrefix reports whether k starts with every part of prefix.
func (k Key) HasPrefix(prefix Key) bool {
	if prefix.Len() > k.Len() {
		return false
	}
	for i, p := range prefix.parts {
		if comparePart(k.parts[i], p) != 0 {
			return false
		}
	}
	return true
}

// String is the text form, same as Encode.
func (k Key) String() string { return Encode(k) }

// Compare orders keys the way the packed layout does.
func Compare(a, b Key) int {
	return bytes.Compare(Pack(a), Pack(b))
}

func Equal(a, b Key) bool { return Compare(a, b) == 0 }

func comparePart(a, b Part) int {
	return bytes.Compare(appendPart(nil, a), appendPart(nil, b))
}
