package configs

import (
	"fmt"

	"github.com/cockroachdb/pebble"
	"github.com/dgraph-io/badger/v4"
)

// Config is the full kvview process configuration.
type Config struct {
	Server ServerConfig
	Store  StoreConfig
	Log    LogConfig
	// ListLimit is the page size used for every list request.
	ListLimit int
}

type ServerConfig struct {
	Host string
	Port int
}

// Address returns the listen address, host may be empty.
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// StoreConfig selects and configures the storage engine.
type StoreConfig struct {
	Engine string // badger, pebble, leveldb, sqlite or memory
	Dir    string // some databases may require to specify the storage directory seperatly
	// InMemory asks disk engines to run without touching Dir.
	InMemory      bool
	BadgerConfigs *badger.Options
	PebbleConfigs *pebble.Options
}

type LogConfig struct {
	Level  string
	Format string // text or json
}
