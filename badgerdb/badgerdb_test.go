package badgerdb_test

import (
	"testing"

	"github.com/rawbytedev/kvview"
	"github.com/rawbytedev/kvview/badgerdb"
	"github.com/rawbytedev/kvview/helpers"
	"github.com/rawbytedev/kvview/helpers/dbtest"
	"github.com/stretchr/testify/require"
)

// TestBadgerBatchOperations tests batch Put and Get operations.
func TestBadgerBatchOperations(t *testing.T) {
	db := dbtest.SetupDB(t, "badger")
	batch := db.Batch()
	keys := make([][]byte, 5)
	values := make([][]byte, 5)
	for i := 0; i < 5; i++ {
		keys[i] = helpers.RandomBytes(16)
		values[i] = helpers.RandomBytes(32)
		err := batch.Put(keys[i], values[i])
		require.NoError(t, err, "Error adding Put operation to batch")
	}
	err := batch.Commit(t.Context())
	require.NoError(t, err, "Error committing batch operations")
	for i := 0; i < 5; i++ {
		retrievedValue, err := db.Get(t.Context(), keys[i])
		require.NoError(t, err, "Error getting value after batch commit")
		require.Equal(t, values[i], retrievedValue, "Retrieved value does not match expected after batch commit")
	}
	// This should fail because the batch has already been committed
	err = batch.Put(keys[0], values[1])
	require.Error(t, err, "This transaction has been discarded. Create a new one")
}

// TestBadgerVersions checks every write gets a newer version and that the
// iterator reports the same version as GetVersioned.
func TestBadgerVersions(t *testing.T) {
	db := dbtest.SetupDB(t, "badger")
	vg, ok := db.(kvview.VersionedGetter)
	require.True(t, ok, "badger tracks versions")

	require.NoError(t, db.Put(t.Context(), []byte("pre_a"), []byte("1")))
	_, first, err := vg.GetVersioned(t.Context(), []byte("pre_a"))
	require.NoError(t, err)
	require.NotZero(t, first)

	require.NoError(t, db.Put(t.Context(), []byte("pre_a"), []byte("2")))
	value, second, err := vg.GetVersioned(t.Context(), []byte("pre_a"))
	require.NoError(t, err)
	require.Equal(t, []byte("2"), value)
	require.Greater(t, second, first)

	it := db.Scan(t.Context(), kvview.ScanOptions{Prefix: []byte("pre_")})
	defer it.Release()
	require.True(t, it.Next())
	require.Equal(t, second, it.Version())
	require.False(t, it.Next())
}

// TestBadgerScanEnd checks the End bound is applied on top of badger's prefix option.
func TestBadgerScanEnd(t *testing.T) {
	db, err := badgerdb.NewBadgerDB(badgerdb.Config{InMemory: true})
	require.NoError(t, err)
	defer db.Close()

	for _, k := range []string{"key_01", "key_02", "key_03", "key_04"} {
		require.NoError(t, db.Put(t.Context(), []byte(k), []byte("value")))
	}
	it := db.Scan(t.Context(), kvview.ScanOptions{
		Prefix: []byte("key_"),
		After:  []byte("key_01"),
		End:    []byte("key_04"),
	})
	defer it.Release()
	var got []string
	for it.Next() {
		got = append(got, string(it.Key()))
	}
	require.NoError(t, it.Error())
	require.Equal(t, []string{"key_02", "key_03"}, got)
	require.Nil(t, it.Key(), "no key once the iterator is exhausted")
}

func TestBadgerClosed(t *testing.T) {
	db := dbtest.SetupDB(t, "badger")
	require.NoError(t, db.Close())
	require.NoError(t, db.Close(), "closing twice is a no-op")

	_, err := db.Get(t.Context(), []byte("k"))
	require.ErrorIs(t, err, kvview.ErrClosed)
	it := db.Scan(t.Context(), kvview.ScanOptions{})
	require.False(t, it.Next())
	require.ErrorIs(t, it.Error(), kvview.ErrClosed)
}
