package browse_test

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/rawbytedev/kvview"
	"github.com/rawbytedev/kvview/browse"
	"github.com/rawbytedev/kvview/helpers/dbtest"
	"github.com/rawbytedev/kvview/keys"
	"github.com/rawbytedev/kvview/memdb"
	"github.com/rawbytedev/kvview/scan"
	"github.com/stretchr/testify/require"
)

func newService(t *testing.T, store kvview.Core, limit int) *browse.Service {
	return browse.New(store, scan.New(store), limit, nil)
}

func seed(t *testing.T, svc *browse.Service, pairs ...string) {
	for i := 0; i+1 < len(pairs); i += 2 {
		_, err := svc.Put(t.Context(), pairs[i], []byte(pairs[i+1]))
		require.NoError(t, err)
	}
}

func TestListPages(t *testing.T) {
	svc := newService(t, dbtest.SetupDB(t, "memory"), 2)
	seed(t, svc, `["users","1"]`, "alice", `["users","2"]`, "bob", `["users","3"]`, "carol")

	res, err := svc.List(t.Context(), ` ["users"] `, "")
	require.NoError(t, err)
	require.True(t, res.Valid)
	require.Equal(t, `["users"]`, res.Prefix)
	require.Len(t, res.Items, 2)
	require.Equal(t, browse.Item{Key: `["users","1"]`, Value: "alice", Encoding: "utf8", Versionstamp: res.Items[0].Versionstamp}, res.Items[0])
	require.NotEmpty(t, res.Items[0].Versionstamp)
	require.Empty(t, res.Cursor)
	require.NotEmpty(t, res.NextCursor)

	next, err := svc.List(t.Context(), `["users"]`, res.NextCursor)
	require.NoError(t, err)
	require.Equal(t, res.NextCursor, next.Cursor)
	require.Empty(t, next.NextCursor)
	require.Len(t, next.Items, 1)
	require.Equal(t, "carol", next.Items[0].Value)
}

func TestListUndecodableInputIsEmpty(t *testing.T) {
	svc := newService(t, dbtest.SetupDB(t, "memory"), 10)
	seed(t, svc, `["users","1"]`, "alice")

	for _, c := range []struct{ prefix, cursor string }{
		{prefix: `users`},
		{prefix: ``},
		{prefix: `["users"`},
		{prefix: `["users"]`, cursor: "%%%"},
		{prefix: `["users"]`, cursor: "AAAA"},
	} {
		res, err := svc.List(t.Context(), c.prefix, c.cursor)
		require.NoError(t, err)
		require.False(t, res.Valid)
		require.Empty(t, res.Items)
		require.NotNil(t, res.Items, "items render as [] not null")
		require.Empty(t, res.Prefix)
	}
}

func TestListStoreFailure(t *testing.T) {
	db, err := memdb.NewMemDB(memdb.Config{})
	require.NoError(t, err)
	svc := newService(t, db, 10)
	require.NoError(t, db.Close())

	_, err = svc.List(t.Context(), `[]`, "")
	require.ErrorIs(t, err, scan.ErrStoreUnavailable)
	require.ErrorIs(t, err, kvview.ErrClosed)
}

func TestGet(t *testing.T) {
	svc := newService(t, dbtest.SetupDB(t, "badger"), 10)
	seed(t, svc, `["users",1]`, "alice")
	_, err := svc.Put(t.Context(), `["blob"]`, []byte{0xff, 0x00})
	require.NoError(t, err)

	res, err := svc.Get(t.Context(), `["users", 1]`)
	require.NoError(t, err)
	require.True(t, res.Valid)
	require.True(t, res.Found)
	require.Equal(t, `["users",1]`, res.Query)
	require.Equal(t, "alice", res.Item.Value)
	require.Len(t, res.Item.Versionstamp, 20)

	res, err = svc.Get(t.Context(), `["blob"]`)
	require.NoError(t, err)
	require.Equal(t, "base64", res.Item.Encoding)
	require.Equal(t, "/wA=", res.Item.Value)

	res, err = svc.Get(t.Context(), `["users", 2]`)
	require.NoError(t, err)
	require.True(t, res.Valid)
	require.False(t, res.Found)
	require.Nil(t, res.Item)

	for _, bad := range []string{`nope`, `[]`, `[null]`} {
		res, err = svc.Get(t.Context(), bad)
		require.NoError(t, err)
		require.False(t, res.Valid, bad)
	}
}

func TestGetWithoutVersions(t *testing.T) {
	svc := newService(t, dbtest.SetupDB(t, "leveldb"), 10)
	seed(t, svc, `["k"]`, "v")
	res, err := svc.Get(t.Context(), `["k"]`)
	require.NoError(t, err)
	require.True(t, res.Found)
	require.Empty(t, res.Item.Versionstamp)
}

func TestDelete(t *testing.T) {
	svc := newService(t, dbtest.SetupDB(t, "memory"), 10)
	seed(t, svc, `["users","1"]`, "alice")

	key, err := svc.Delete(t.Context(), `[ "users", "1" ]`)
	require.NoError(t, err)
	require.Equal(t, `["users","1"]`, key)

	res, err := svc.Get(t.Context(), key)
	require.NoError(t, err)
	require.False(t, res.Found)

	_, err = svc.Delete(t.Context(), `["users","1"]`)
	require.NoError(t, err, "deleting a missing key succeeds")

	_, err = svc.Delete(t.Context(), `not a key`)
	require.ErrorIs(t, err, keys.ErrDecode)
	_, err = svc.Delete(t.Context(), `[]`)
	require.ErrorIs(t, err, keys.ErrDecode)
}

func TestImport(t *testing.T) {
	store := dbtest.SetupDB(t, "sqlite")
	svc := newService(t, store, 100)
	var records []browse.Record
	for i := 0; i < 25; i++ {
		records = append(records, browse.Record{
			Key:   keys.New(keys.String("seq"), keys.Int(int64(i))),
			Value: []byte{byte(i)},
		})
	}
	n, err := svc.Import(t.Context(), records, 10)
	require.NoError(t, err)
	require.Equal(t, 25, n)

	res, err := svc.List(t.Context(), `["seq"]`, "")
	require.NoError(t, err)
	require.Len(t, res.Items, 25)
	require.Equal(t, `["seq",0]`, res.Items[0].Key)
	require.Equal(t, `["seq",24]`, res.Items[24].Key)

	n, err = svc.Import(t.Context(), []browse.Record{{Key: keys.New(), Value: []byte("x")}}, 10)
	require.True(t, errors.Is(err, keys.ErrDecode))
	require.Zero(t, n)
}

func TestNonPositiveLimitDefaults(t *testing.T) {
	store := dbtest.SetupDB(t, "memory")
	for _, limit := range []int{0, -3} {
		svc := newService(t, store, limit)
		require.Equal(t, browse.DefaultLimit, svc.Limit())
	}
	svc := newService(t, store, 0)
	for i := 0; i < browse.DefaultLimit+2; i++ {
		seed(t, svc, keys.New(keys.String("n"), keys.Int(int64(i))).String(), "v")
	}
	res, err := svc.List(t.Context(), `["n"]`, "")
	require.NoError(t, err)
	require.Len(t, res.Items, browse.DefaultLimit)
	require.NotEmpty(t, res.NextCursor)
}

func TestImportEmptyValue(t *testing.T) {
	for _, engine := range dbtest.Engines() {
		t.Run(engine, func(t *testing.T) {
			svc := newService(t, dbtest.SetupDB(t, engine), 10)
			n, err := svc.Import(t.Context(), []browse.Record{
				{Key: keys.Strings("empty"), Value: []byte{}},
				{Key: keys.Strings("nil")},
			}, 10)
			require.NoError(t, err)
			require.Equal(t, 2, n)

			for _, k := range []string{`["empty"]`, `["nil"]`} {
				res, err := svc.Get(t.Context(), k)
				require.NoError(t, err)
				require.True(t, res.Found, k)
				require.Empty(t, res.Item.Value)
				require.Equal(t, "utf8", res.Item.Encoding)
			}
		})
	}
}
