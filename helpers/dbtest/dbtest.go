// Package dbtest opens throwaway stores for tests.
package dbtest

import (
	"testing"

	"github.com/rawbytedev/kvview"
	"github.com/rawbytedev/kvview/configs"
	"github.com/rawbytedev/kvview/dbs"
	"github.com/stretchr/testify/require"
)

// SetupDB opens engine in a fresh temporary directory. The store is closed
// when the test ends; closing it earlier is fine.
func SetupDB(t testing.TB, engine string) kvview.Core {
	t.Helper()
	db, err := dbs.Open(configs.StoreConfig{Engine: engine, Dir: t.TempDir()}, nil)
	require.NoError(t, err, "open %s", engine)
	t.Cleanup(func() { db.Close() })
	return db
}

// Engines are the engine names SetupDB accepts.
func Engines() []string { return dbs.Engines() }
