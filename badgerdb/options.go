package badgerdb

import "github.com/dgraph-io/badger/v4"

// specific badgerdb options
type Config struct {
	Dir string
	// InMemory runs badger without touching disk. Ignored when BadgerConfigs is set.
	InMemory      bool
	BadgerConfigs *badger.Options
	// Logger receives badger's internal log lines. Nil keeps badger's default logger.
	Logger badger.Logger
}
