package commands

import (
	"fmt"
	"os"

	"github.com/rawbytedev/kvview"
	"github.com/rawbytedev/kvview/browse"
	"github.com/rawbytedev/kvview/configs"
	"github.com/rawbytedev/kvview/dbs"
	"github.com/rawbytedev/kvview/scan"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "kvview",
	Short:         "browse, page through and edit an ordered key-value store",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "kvview:", err)
		os.Exit(1)
	}
}

func init() {
	f := rootCmd.PersistentFlags()
	f.StringVar(&configPath, "config", "", "config file (yaml, json or toml)")
	f.String("engine", configs.DefaultEngine, "storage engine: badger, pebble, leveldb, sqlite or memory")
	f.String("dir", configs.DefaultDir, "storage directory")
	f.Bool("in-memory", false, "run the engine in memory")
	f.String("log-level", "info", "log level")
	f.String("log-format", "text", "log format: text or json")
}

// env is everything a command needs once the configuration is loaded.
type env struct {
	cfg     *configs.Config
	log     *logrus.Logger
	store   kvview.Core
	scanner *scan.Scanner
	svc     *browse.Service
}

func setup(cmd *cobra.Command, opts ...scan.Option) (*env, error) {
	cfg, err := configs.Load(configPath, cmd.Flags())
	if err != nil {
		return nil, err
	}
	log, err := configs.NewLogger(cfg.Log)
	if err != nil {
		return nil, err
	}
	store, err := dbs.Open(cfg.Store, log)
	if err != nil {
		return nil, err
	}
	scanner := scan.New(store, append([]scan.Option{scan.WithLogger(log)}, opts...)...)
	return &env{
		cfg:     cfg,
		log:     log,
		store:   store,
		scanner: scanner,
		svc:     browse.New(store, scanner, cfg.ListLimit, log),
	}, nil
}

// close folds the store close error into err.
func (e *env) close(err error) error {
	return multierr.Append(err, e.store.Close())
}
