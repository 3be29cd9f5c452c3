package configs

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	DefaultPort      = 8000
	DefaultListLimit = 10
	DefaultEngine    = "badger"
	DefaultDir       = "kvview_data"
)

// flagKeys maps command line flag names to configuration keys.
var flagKeys = map[string]string{
	"host":       "server.host",
	"port":       "server.port",
	"engine":     "store.engine",
	"dir":        "store.dir",
	"in-memory":  "store.in_memory",
	"limit":      "list_limit",
	"log-level":  "log.level",
	"log-format": "log.format",
}

// Load reads the configuration. Later sources override earlier ones:
// defaults, the file at path (optional), environment, then flags that were set.
// Besides KVVIEW_* variables the plain PORT, KV_PATH and LIST_LIMIT are honoured.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	v.SetDefault("server.host", "")
	v.SetDefault("server.port", DefaultPort)
	v.SetDefault("store.engine", DefaultEngine)
	v.SetDefault("store.dir", DefaultDir)
	v.SetDefault("store.in_memory", false)
	v.SetDefault("list_limit", DefaultListLimit)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "configs: read %s", path)
		}
	}

	v.SetEnvPrefix("KVVIEW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, names := range map[string][]string{
		"server.port": {"KVVIEW_SERVER_PORT", "PORT"},
		"store.dir":   {"KVVIEW_STORE_DIR", "KV_PATH"},
		"list_limit":  {"KVVIEW_LIST_LIMIT", "LIST_LIMIT"},
	} {
		if err := v.BindEnv(append([]string{key}, names...)...); err != nil {
			return nil, errors.Wrapf(err, "configs: bind env %s", key)
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, errors.Wrapf(err, "configs: bind flag %s", name)
				}
			}
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Host: v.GetString("server.host"),
			Port: v.GetInt("server.port"),
		},
		Store: StoreConfig{
			Engine:   strings.ToLower(v.GetString("store.engine")),
			Dir:      v.GetString("store.dir"),
			InMemory: v.GetBool("store.in_memory"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
		ListLimit: v.GetInt("list_limit"),
	}
	applyDefaults(cfg)
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		cfg.Server.Port = DefaultPort
	}
	if cfg.ListLimit <= 0 {
		cfg.ListLimit = DefaultListLimit
	}
	if cfg.Store.Engine == "" {
		cfg.Store.Engine = DefaultEngine
	}
}
