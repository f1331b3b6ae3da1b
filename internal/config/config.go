// Package config loads arcdb's on-disk configuration: the data
// directory, buffer pool size, WAL and catalog file names, and the
// default listen address for the TCP server, with defaults applied
// when the optional YAML file is absent.
package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/chocapikk/arcdb/internal/dblog"
)

// Config is the top-level configuration loaded from arcdb.yaml.
type Config struct {
	DataDir          string    `yaml:"data_dir"`
	BufferPoolFrames int       `yaml:"buffer_pool_frames"`
	WALPath          string    `yaml:"wal_path"`
	CatalogPath      string    `yaml:"catalog_path"`
	ListenAddr       string    `yaml:"listen_addr"`
	Log              LogConfig `yaml:"log"`
}

// LogConfig mirrors dblog.Config in a form yaml.v3 can unmarshal.
type LogConfig struct {
	Level      string `yaml:"level"`
	JSONOutput bool   `yaml:"json_output"`
}

// Default returns the configuration used when no arcdb.yaml is found.
func Default() Config {
	return Config{
		DataDir:          "data",
		BufferPoolFrames: 256,
		WALPath:          "arcdb.wal",
		CatalogPath:      "arcdb.meta",
		ListenAddr:       "127.0.0.1:7171",
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads path and unmarshals it over Default(), so a partial file
// only overrides the fields it sets. A missing file is not an error:
// Load returns the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return Config{}, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// DBLogConfig converts the YAML-facing LogConfig into dblog.Config.
func (c Config) DBLogConfig() dblog.Config {
	return dblog.Config{Level: dblog.Level(c.Log.Level), JSONOutput: c.Log.JSONOutput}
}
