// Package dbs opens the storage engine named in a configs.StoreConfig.
//
// Usage:
//
//	db, err := dbs.Open(cfg.Store, logger)
//	defer db.Close()
package dbs

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/pkg/errors"
	"github.com/rawbytedev/kvview"
	"github.com/rawbytedev/kvview/badgerdb"
	"github.com/rawbytedev/kvview/configs"
	"github.com/rawbytedev/kvview/leveldb"
	"github.com/rawbytedev/kvview/memdb"
	"github.com/rawbytedev/kvview/pebbledb"
	"github.com/rawbytedev/kvview/sqlitedb"
	"github.com/sirupsen/logrus"
)

// sqliteFile is the database file the sqlite engine keeps inside the store dir.
const sqliteFile = "kvview.sqlite"

type opener func(cfg configs.StoreConfig, log logrus.FieldLogger) (kvview.Core, error)

var engines = map[string]opener{
	"badger": func(cfg configs.StoreConfig, log logrus.FieldLogger) (kvview.Core, error) {
		c := badgerdb.Config{Dir: cfg.Dir, InMemory: cfg.InMemory, BadgerConfigs: cfg.BadgerConfigs}
		if log != nil {
			c.Logger = badgerLogger{log.WithField("engine", "badger")}
		}
		return badgerdb.NewBadgerDB(c)
	},
	"pebble": func(cfg configs.StoreConfig, _ logrus.FieldLogger) (kvview.Core, error) {
		return pebbledb.NewPebbleDB(pebbledb.Config{Dir: cfg.Dir, InMemory: cfg.InMemory, PebbleConfigs: cfg.PebbleConfigs})
	},
	"leveldb": func(cfg configs.StoreConfig, _ logrus.FieldLogger) (kvview.Core, error) {
		return leveldb.NewLevelDB(leveldb.Config{Dir: cfg.Dir, InMemory: cfg.InMemory})
	},
	"sqlite": func(cfg configs.StoreConfig, _ logrus.FieldLogger) (kvview.Core, error) {
		c := sqlitedb.Config{InMemory: cfg.InMemory}
		if !cfg.InMemory {
			if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
				return nil, errors.Wrap(err, "sqlite dir")
			}
			c.Dir = filepath.Join(cfg.Dir, sqliteFile)
		}
		return sqlitedb.NewSQLiteDB(c)
	},
	"memory": func(configs.StoreConfig, logrus.FieldLogger) (kvview.Core, error) {
		return memdb.NewMemDB(memdb.Config{})
	},
}

// Open returns the engine selected by cfg.Engine. log may be nil.
func Open(cfg configs.StoreConfig, log logrus.FieldLogger) (kvview.Core, error) {
	open, ok := engines[cfg.Engine]
	if !ok {
		return nil, ErrUnknownEngine(cfg.Engine)
	}
	if log != nil {
		log.WithFields(logrus.Fields{"engine": cfg.Engine, "dir": cfg.Dir, "in_memory": cfg.InMemory}).Info("opening store")
	}
	return open(cfg, log)
}

// Engines lists the engine names Open accepts.
func Engines() []string {
	names := make([]string, 0, len(engines))
	for name := range engines {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// badgerLogger adapts a logrus logger to badger.Logger, badger is chatty at
// info so its info lines are logged at debug.
type badgerLogger struct {
	log logrus.FieldLogger
}

func (l badgerLogger) Errorf(f string, v ...interface{})   { l.log.Errorf(f, v...) }
func (l badgerLogger) Warningf(f string, v ...interface{}) { l.log.Warnf(f, v...) }
func (l badgerLogger) Infof(f string, v ...interface{})    { l.log.Debugf(f, v...) }
func (l badgerLogger) Debugf(f string, v ...interface{})   { l.log.Debugf(f, v...) }
