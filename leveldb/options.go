package leveldb

import "github.com/syndtr/goleveldb/leveldb/opt"

// specific leveldb options
type Config struct {
	Dir string
	// InMemory opens the database on a memory storage instead of Dir.
	InMemory     bool
	LevelConfigs *opt.Options
}
