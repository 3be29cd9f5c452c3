package kvview_test

import (
	"context"
	"testing"

	"github.com/rawbytedev/kvview"
	"github.com/rawbytedev/kvview/memdb"
	"github.com/stretchr/testify/require"
)

func newMemDB(t *testing.T, keys ...string) kvview.Core {
	db, err := memdb.NewMemDB(memdb.Config{})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	for _, k := range keys {
		require.NoError(t, db.Put(t.Context(), []byte(k), []byte("v:"+k)))
	}
	return db
}

func listKeys(res kvview.RangeResult) []string {
	out := make([]string, 0, len(res.Entries))
	for _, e := range res.Entries {
		out = append(out, string(e.Key))
	}
	return out
}

func TestListLimit(t *testing.T) {
	db := newMemDB(t, "a", "b")
	for _, limit := range []int{0, -1} {
		_, err := kvview.List(t.Context(), db, kvview.Range{Limit: limit})
		require.Error(t, err)
	}
}

func TestListMore(t *testing.T) {
	db := newMemDB(t, "p", "p1", "p2", "p3", "q")

	res, err := kvview.List(t.Context(), db, kvview.Range{Prefix: []byte("p"), Limit: 2})
	require.NoError(t, err)
	require.Equal(t, []string{"p1", "p2"}, listKeys(res))
	require.True(t, res.More)

	// exactly full: nothing left after p3
	res, err = kvview.List(t.Context(), db, kvview.Range{Prefix: []byte("p"), After: []byte("p1"), Limit: 2})
	require.NoError(t, err)
	require.Equal(t, []string{"p2", "p3"}, listKeys(res))
	require.False(t, res.More)
	require.Equal(t, []byte("v:p3"), res.Entries[1].Value)
	require.NotZero(t, res.Entries[1].Version)

	res, err = kvview.List(t.Context(), db, kvview.Range{Prefix: []byte("p"), After: []byte("p3"), Limit: 2})
	require.NoError(t, err)
	require.Empty(t, res.Entries)
	require.False(t, res.More)
}

func TestListEnd(t *testing.T) {
	db := newMemDB(t, "p1", "p2", "p\xff1")
	res, err := kvview.List(t.Context(), db, kvview.Range{Prefix: []byte("p"), End: []byte("p\xff"), Limit: 10})
	require.NoError(t, err)
	require.Equal(t, []string{"p1", "p2"}, listKeys(res))
}

func TestListCancelled(t *testing.T) {
	db := newMemDB(t, "a")
	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	_, err := kvview.List(ctx, db, kvview.Range{Limit: 1})
	require.ErrorIs(t, err, context.Canceled)
}

func TestListIteratorError(t *testing.T) {
	db := newMemDB(t, "a")
	require.NoError(t, db.Close())
	_, err := kvview.List(t.Context(), db, kvview.Range{Limit: 1})
	require.ErrorIs(t, err, kvview.ErrClosed)
}

func TestPrefixEnd(t *testing.T) {
	cases := []struct {
		prefix, want []byte
	}{
		{nil, nil},
		{[]byte{}, nil},
		{[]byte("abc"), []byte("abd")},
		{[]byte{0x01, 0xff}, []byte{0x02}},
		{[]byte{0xff, 0xff}, nil},
	}
	for _, c := range cases {
		require.Equal(t, c.want, kvview.PrefixEnd(c.prefix), "prefix %x", c.prefix)
	}
	in := []byte("abc")
	kvview.PrefixEnd(in)
	require.Equal(t, []byte("abc"), in, "input is not modified")
}

func TestFormatVersionstamp(t *testing.T) {
	require.Equal(t, "", kvview.FormatVersionstamp(0))
	require.Equal(t, "00000000000000010000", kvview.FormatVersionstamp(1))
	require.Len(t, kvview.FormatVersionstamp(^uint64(0)), 20)
}
