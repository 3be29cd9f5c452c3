package keys_test

import (
	"bytes"
	"math"
	"testing"

	"github.com/rawbytedev/kvview/helpers"
	"github.com/rawbytedev/kvview/keys"
	"github.com/stretchr/testify/require"
)

func sampleKeys() []keys.Key {
	return []keys.Key{
		keys.New(),
		keys.Strings("users"),
		keys.Strings("users", "1"),
		keys.Strings("", "ünïcödé", "emoji 🚀", "quote \" and \\ slash"),
		keys.Strings("nul\x00inside", "ends\x00"),
		keys.New(keys.Int(0), keys.Int(-1), keys.Int(math.MaxInt64), keys.Int(math.MinInt64)),
		keys.New(keys.Float(0), keys.Float(1), keys.Float(-2.5), keys.Float(1e21), keys.Float(5e-324)),
		keys.New(keys.Float(math.Inf(1)), keys.Float(math.Inf(-1)), keys.Float(math.NaN())),
		keys.New(keys.Bool(true), keys.Bool(false)),
		keys.New(keys.Bytes(nil), keys.Bytes([]byte{0x00, 0xff, 0x00}), keys.Bytes([]byte("<html>"))),
		keys.New(keys.String("mixed"), keys.Int(7), keys.Float(7), keys.Bool(true), keys.Bytes([]byte{1})),
	}
}

func TestTextRoundTrip(t *testing.T) {
	for _, k := range sampleKeys() {
		text := keys.Encode(k)
		got, err := keys.Decode(text)
		require.NoError(t, err, text)
		require.True(t, keys.Equal(k, got), "%s decoded to %s", text, got)
		require.Equal(t, text, keys.Encode(got), "encoding is deterministic")
	}
}

func TestEncodeForms(t *testing.T) {
	cases := []struct {
		key  keys.Key
		want string
	}{
		{keys.New(), `[]`},
		{keys.Strings("users", "1"), `["users","1"]`},
		{keys.New(keys.Int(1), keys.Float(1), keys.Float(0.5)), `[1,1.0,0.5]`},
		{keys.New(keys.Bool(false)), `[false]`},
		{keys.New(keys.Bytes([]byte{0xfb, 0xff})), `[{"bytes":"-_8"}]`},
		{keys.New(keys.Float(math.NaN()), keys.Float(math.Inf(-1))), `[{"float":"NaN"},{"float":"-Infinity"}]`},
		{keys.Strings("<a&b>"), `["<a&b>"]`},
	}
	for _, c := range cases {
		require.Equal(t, c.want, keys.Encode(c.key))
		require.Equal(t, c.want, c.key.String())
	}
}

func TestDecodeKinds(t *testing.T) {
	k, err := keys.Decode(` ["users", 42, 2.5, 1e3, true, {"bytes":"AAE"}, {"float":"Infinity"}] `)
	require.NoError(t, err)
	require.Equal(t, 7, k.Len())
	want := []keys.Kind{keys.KindString, keys.KindInt, keys.KindFloat, keys.KindFloat, keys.KindBool, keys.KindBytes, keys.KindFloat}
	for i, kind := range want {
		require.Equal(t, kind, k.Part(i).Kind(), "part %d", i)
	}
	require.Equal(t, int64(42), k.Part(1).Value())
	require.Equal(t, 1000.0, k.Part(3).Value())
	require.Equal(t, []byte{0x00, 0x01}, k.Part(5).Value())
	require.True(t, math.IsInf(k.Part(6).Value().(float64), 1))
}

func TestDecodeMalformed(t *testing.T) {
	inputs := []string{
		``,
		`   `,
		`users`,
		`"users"`,
		`{}`,
		`{"prefix":["a"]}`,
		`42`,
		`null`,
		`[`,
		`["a"`,
		`["a"] trailing`,
		`["a"]]`,
		`[null]`,
		`[["nested"]]`,
		`[{}]`,
		`[{"x":1}]`,
		`[{"bytes":1}]`,
		`[{"bytes":"!!!"}]`,
		`[{"bytes":"AA","float":"NaN"}]`,
		`[{"float":"nan"}]`,
		`[{"float":1.5}]`,
		`[99999999999999999999]`,
		`[1e999]`,
		`['single']`,
		`[undefined]`,
	}
	for _, in := range inputs {
		_, err := keys.Decode(in)
		require.ErrorIs(t, err, keys.ErrDecode, "input %q", in)
	}
}

// TestDecodeNumberGrammar checks number literals follow JSON exactly.
func TestDecodeNumberGrammar(t *testing.T) {
	for _, in := range []string{`[01]`, `[-01]`, `[00]`, `[1.]`, `[1.e5]`, `[-]`, `[1e]`, `[1e+]`} {
		_, err := keys.Decode(in)
		require.ErrorIs(t, err, keys.ErrDecode, "input %q", in)
	}
	for in, want := range map[string]keys.Key{
		`[0]`:     keys.New(keys.Int(0)),
		`[-7]`:    keys.New(keys.Int(-7)),
		`[-0.5]`:  keys.New(keys.Float(-0.5)),
		`[1e3]`:   keys.New(keys.Float(1000)),
		`[1E-2]`:  keys.New(keys.Float(0.01)),
		`[10.25]`: keys.New(keys.Float(10.25)),
	} {
		got, err := keys.Decode(in)
		require.NoError(t, err, "input %q", in)
		require.True(t, keys.Equal(want, got), "input %q gave %s", in, got)
	}
}

// TestDecodeGarbage feeds random bytes; every outcome must be a clean
// error or a key that encodes and decodes again.
func TestDecodeGarbage(t *testing.T) {
	alphabet := []byte(`[]{}",:0123456789.eE-+truefalsnbyt\ `)
	for i := 0; i < 2000; i++ {
		raw := helpers.RandomBytes(1 + i%24)
		if i%2 == 0 {
			for j := range raw {
				raw[j] = alphabet[int(raw[j])%len(alphabet)]
			}
			raw[0] = '['
		}
		require.NotPanics(t, func() {
			k, err := keys.Decode(string(raw))
			if err != nil {
				require.ErrorIs(t, err, keys.ErrDecode)
				return
			}
			again, err := keys.Decode(keys.Encode(k))
			require.NoError(t, err)
			require.True(t, keys.Equal(k, again))
		}, "input %q", raw)
	}
}

func TestPackOrder(t *testing.T) {
	ordered := []keys.Key{
		keys.New(),
		keys.New(keys.Bytes(nil)),
		keys.New(keys.Bytes([]byte{0x00})),
		keys.New(keys.Bytes([]byte("a"))),
		keys.Strings(""),
		keys.Strings("a"),
		keys.Strings("a", "b"),
		keys.Strings("a\x00"),
		keys.Strings("b"),
		keys.New(keys.Int(math.MinInt64)),
		keys.New(keys.Int(-1)),
		keys.New(keys.Int(0)),
		keys.New(keys.Int(1)),
		keys.New(keys.Int(math.MaxInt64)),
		keys.New(keys.Float(math.Inf(-1))),
		keys.New(keys.Float(-1.5)),
		keys.New(keys.Float(0)),
		keys.New(keys.Float(2.5)),
		keys.New(keys.Float(math.Inf(1))),
		keys.New(keys.Bool(false)),
		keys.New(keys.Bool(true)),
	}
	for i := 1; i < len(ordered); i++ {
		a, b := ordered[i-1], ordered[i]
		require.Negative(t, keys.Compare(a, b), "%s < %s", a, b)
		require.Positive(t, keys.Compare(b, a))
	}
}

func TestRangeMatchesExtension(t *testing.T) {
	all := append(sampleKeys(),
		keys.Strings("us"),
		keys.Strings("us\x00"),
		keys.Strings("us", ""),
		keys.Strings("usa"),
		keys.New(keys.String("us"), keys.Bytes([]byte{0xff, 0xff})),
		keys.New(keys.String("us"), keys.Bool(true)),
	)
	for _, p := range all {
		start, end := keys.Range(p)
		for _, k := range all {
			packed := keys.Pack(k)
			in := bytes.Compare(packed, start) > 0 && bytes.Compare(packed, end) < 0
			extends := k.Len() > p.Len() && k.HasPrefix(p)
			require.Equal(t, extends, in, "prefix %s key %s", p, k)
		}
	}
}

func TestUnpackRoundTrip(t *testing.T) {
	for _, k := range sampleKeys() {
		got, err := keys.Unpack(keys.Pack(k))
		require.NoError(t, err)
		require.True(t, keys.Equal(k, got), "%s unpacked to %s", k, got)
	}
}

func TestUnpackMalformed(t *testing.T) {
	inputs := [][]byte{
		{0x02, 'a'},             // unterminated string
		{0x01, 0x00, 0xff},      // unterminated after escape
		{0x14, 0x01, 0x02},      // truncated int
		{0x21},                  // truncated float
		{0x7f},                  // unknown tag
		{0xff},                  // unknown tag
		{0x02, 0xc3, 0x28, 0x00}, // invalid utf-8
		{0x02, 'a', 0x00, 0x00}, // trailing terminator
	}
	for _, in := range inputs {
		_, err := keys.Unpack(in)
		require.ErrorIs(t, err, keys.ErrDecode, "input %x", in)
	}
}

func TestKeyImmutable(t *testing.T) {
	parts := []keys.Part{keys.String("a"), keys.String("b")}
	k := keys.New(parts...)
	parts[0] = keys.String("changed")
	require.Equal(t, `["a","b"]`, k.String())

	raw := []byte("xy")
	b := keys.New(keys.Bytes(raw))
	raw[0] = 'z'
	require.Equal(t, []byte("xy"), b.Part(0).Value())

	got := k.Parts()
	got[1] = keys.Int(1)
	require.Equal(t, `["a","b"]`, k.String())

	longer := k.Append(keys.Int(3))
	require.Equal(t, `["a","b"]`, k.String())
	require.Equal(t, `["a","b",3]`, longer.String())
	require.True(t, longer.HasPrefix(k))
	require.False(t, k.HasPrefix(longer))
}

func TestNaNIsCanonical(t *testing.T) {
	odd := math.Float64frombits(0x7ff8000000000abc)
	require.True(t, keys.Equal(keys.New(keys.Float(odd)), keys.New(keys.Float(math.NaN()))))
}
