package keys

import (
	"encoding/base64"
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
)

// codec keeps numbers as json.Number so ints and floats stay apart.
var codec = jsoniter.Config{
	EscapeHTML:             false,
	UseNumber:              true,
	ValidateJsonRawMessage: true,
}.Froze()

var bytesEncoding = base64.RawURLEncoding

// Encode returns the text form of k: a JSON array where strings are JSON
// strings, ints are integer literals, floats always carry a '.' or an
// exponent, bools are true/false, bytes are {"bytes":"<base64url>"} and
// non-finite floats are {"float":"NaN"|"Infinity"|"-Infinity"}.
func Encode(k Key) string {
	stream := codec.BorrowStream(nil)
	defer codec.ReturnStream(stream)
	stream.WriteArrayStart()
	for i, p := range k.parts {
		if i > 0 {
			stream.WriteMore()
		}
		writePart(stream, p)
	}
	stream.WriteArrayEnd()
	return string(stream.Buffer())
}

func writePart(stream *jsoniter.Stream, p Part) {
	switch p.kind {
	case KindString:
		stream.WriteString(p.s)
	case KindInt:
		stream.WriteInt64(p.i)
	case KindFloat:
		if text, ok := finiteFloat(p.f); ok {
			stream.WriteRaw(text)
			return
		}
		stream.WriteObjectStart()
		stream.WriteObjectField("float")
		stream.WriteString(nonFinite(p.f))
		stream.WriteObjectEnd()
	case KindBool:
		stream.WriteBool(p.b)
	case KindBytes:
		stream.WriteObjectStart()
		stream.WriteObjectField("bytes")
		stream.WriteString(bytesEncoding.EncodeToString([]byte(p.s)))
		stream.WriteObjectEnd()
	default:
		panic("keys: encode of invalid part")
	}
}

func finiteFloat(f float64) (string, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "", false
	}
	text := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(text, ".eE") {
		text += ".0"
	}
	return text, true
}

func nonFinite(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	return "NaN"
}

// Decode parses the text form produced by Encode. Every failure wraps ErrDecode.
func Decode(text string) (Key, error) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "[") {
		return Key{}, errors.Wrap(ErrDecode, "not an array literal")
	}
	var raw []any
	if err := codec.UnmarshalFromString(text, &raw); err != nil {
		return Key{}, errors.Wrapf(ErrDecode, "%v", err)
	}
	parts := make([]Part, 0, len(raw))
	for i, v := range raw {
		p, err := partFromJSON(v)
		if err != nil {
			return Key{}, errors.Wrapf(err, "part %d", i)
		}
		parts = append(parts, p)
	}
	return New(parts...), nil
}

func partFromJSON(v any) (Part, error) {
	switch v := v.(type) {
	case string:
		if !utf8.ValidString(v) {
			return Part{}, errors.Wrap(ErrDecode, "invalid utf-8 string")
		}
		return String(v), nil
	case bool:
		return Bool(v), nil
	case json.Number:
		return numberPart(string(v))
	case map[string]any:
		return taggedPart(v)
	case nil:
		return Part{}, errors.Wrap(ErrDecode, "null is not a key part")
	}
	return Part{}, errors.Wrapf(ErrDecode, "unsupported %T key part", v)
}

// jsonNumber is the JSON number grammar. The iterator does not enforce it
// under UseNumber, so literals such as 01 or 1. would slip through.
var jsonNumber = regexp.MustCompile(`^-?(0|[1-9][0-9]*)(\.[0-9]+)?([eE][+-]?[0-9]+)?$`)

func numberPart(text string) (Part, error) {
	if !jsonNumber.MatchString(text) {
		return Part{}, errors.Wrapf(ErrDecode, "malformed number %s", text)
	}
	if strings.ContainsAny(text, ".eE") {
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return Part{}, errors.Wrapf(ErrDecode, "float %s", text)
		}
		return Float(f), nil
	}
	i, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return Part{}, errors.Wrapf(ErrDecode, "int %s", text)
	}
	return Int(i), nil
}

func taggedPart(obj map[string]any) (Part, error) {
	if len(obj) != 1 {
		return Part{}, errors.Wrap(ErrDecode, "tagged part needs exactly one field")
	}
	if v, ok := obj["bytes"]; ok {
		s, ok := v.(string)
		if !ok {
			return Part{}, errors.Wrap(ErrDecode, "bytes must be a base64url string")
		}
		b, err := bytesEncoding.DecodeString(s)
		if err != nil {
			return Part{}, errors.Wrapf(ErrDecode, "bytes: %v", err)
		}
		return Bytes(b), nil
	}
	if v, ok := obj["float"]; ok {
		switch v {
		case "NaN":
			return Float(math.NaN()), nil
		case "Infinity":
			return Float(math.Inf(1)), nil
		case "-Infinity":
			return Float(math.Inf(-1)), nil
		}
		return Part{}, errors.Wrapf(ErrDecode, "float %v", v)
	}
	return Part{}, errors.Wrap(ErrDecode, "unknown tagged part")
}
