// Package config loads the YAML configuration of the mtblock command.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/arloliu/mtblock/format"
	"github.com/arloliu/mtblock/storage"
)

// EnvPath names the environment variable consulted when no path is given.
const EnvPath = "MTBLOCK_CONFIG"

// Config is the root of the configuration file.
type Config struct {
	// World is the world directory holding world.mt and the map database.
	World string `yaml:"world"`
	// Backend overrides the backend named in world.mt.
	Backend string        `yaml:"backend"`
	Redis   RedisConfig   `yaml:"redis"`
	Log     LogConfig     `yaml:"log"`
	Metrics MetricsConfig `yaml:"metrics"`
	Archive ArchiveConfig `yaml:"archive"`
	// CreateMissing is the fill node of blocks created by edits to
	// positions with no stored block. Empty disables creation.
	CreateMissing string `yaml:"create_missing"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Hash     string `yaml:"hash"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type MetricsConfig struct {
	// Textfile is written in the node exporter text format on exit.
	Textfile string `yaml:"textfile"`
}

type ArchiveConfig struct {
	Compression string `yaml:"compression"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		World: ".",
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Archive: ArchiveConfig{Compression: format.CompressionZstd.String()},
	}
}

// Load reads the YAML file at path over the defaults. An empty path falls
// back to $MTBLOCK_CONFIG; when both are empty the defaults are returned.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv(EnvPath)
		if path == "" {
			return cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}

	return cfg, nil
}

// Validate checks enumerated fields.
func (c *Config) Validate() error {
	if _, err := c.LogLevel(); err != nil {
		return err
	}

	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.Log.Format)
	}

	switch c.Backend {
	case "", storage.BackendSQLite3, storage.BackendLevelDB, storage.BackendRedis, storage.BackendDummy:
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}

	if _, err := c.ArchiveCompression(); err != nil {
		return err
	}

	return nil
}

// LogLevel parses Log.Level; empty means info.
func (c *Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	if c.Log.Level == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return 0, fmt.Errorf("log level: %w", err)
	}

	return level, nil
}

// ArchiveCompression parses Archive.Compression; empty means zstd.
func (c *Config) ArchiveCompression() (format.CompressionType, error) {
	if c.Archive.Compression == "" {
		return format.CompressionZstd, nil
	}

	ct, ok := format.ParseCompressionType(c.Archive.Compression)
	if !ok {
		return 0, fmt.Errorf("unknown archive compression %q", c.Archive.Compression)
	}

	return ct, nil
}

// OpenOptions converts the storage settings into storage.Open options.
func (c *Config) OpenOptions() []storage.OpenOption {
	var opts []storage.OpenOption
	if c.Backend != "" {
		opts = append(opts, storage.WithBackend(c.Backend))
	}
	if c.Redis != (RedisConfig{}) {
		opts = append(opts, storage.WithRedis(storage.RedisOptions{
			Address:  c.Redis.Address,
			Hash:     c.Redis.Hash,
			Password: c.Redis.Password,
			DB:       c.Redis.DB,
		}))
	}

	return opts
}
