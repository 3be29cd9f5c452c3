package pebbledb

import "github.com/cockroachdb/pebble"

// specific pebbledb options
type Config struct {
	Dir string
	// InMemory keeps the whole database in a memory filesystem; Dir is then only a name.
	InMemory      bool
	PebbleConfigs *pebble.Options
}
