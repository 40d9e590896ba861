// Package config loads entitymesh settings from defaults, an optional YAML
// file and ENTITYMESH_ environment variables, and turns them into a backend
// and a logger.
package config

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/hupe1980/entitymesh/core"
	"github.com/hupe1980/entitymesh/logging"
	"github.com/hupe1980/entitymesh/table"
	"github.com/hupe1980/entitymesh/table/redis"
	"github.com/hupe1980/entitymesh/table/sqlite"
)

// EnvPrefix prefixes environment overrides. A double underscore separates
// nesting levels: ENTITYMESH_BACKEND__REDIS__URL sets backend.redis.url.
const EnvPrefix = "ENTITYMESH_"

// Backend kinds.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendSQLite = "sqlite"
)

// Config is the root configuration document.
type Config struct {
	Backend BackendConfig `koanf:"backend"`
	Log     LogConfig     `koanf:"log"`
}

// BackendConfig selects and configures the storage backend.
type BackendConfig struct {
	Kind   string       `koanf:"kind"`
	Redis  RedisConfig  `koanf:"redis"`
	SQLite SQLiteConfig `koanf:"sqlite"`
}

// RedisConfig configures table/redis.
type RedisConfig struct {
	URL            string        `koanf:"url"`
	Prefix         string        `koanf:"prefix"`
	ConnectTimeout time.Duration `koanf:"connect_timeout"`
	ReadTimeout    time.Duration `koanf:"read_timeout"`
	WriteTimeout   time.Duration `koanf:"write_timeout"`
}

// SQLiteConfig configures table/sqlite.
type SQLiteConfig struct {
	Path string `koanf:"path"`
}

// LogConfig configures the MeshLogger.
type LogConfig struct {
	Level     string `koanf:"level"`
	Format    string `koanf:"format"`
	AddSource bool   `koanf:"add_source"`
}

func defaults() map[string]interface{} {
	return map[string]interface{}{
		"backend.kind":                  BackendMemory,
		"backend.redis.url":             "redis://localhost:6379",
		"backend.redis.prefix":          redis.DefaultPrefix,
		"backend.redis.connect_timeout": "5s",
		"backend.redis.read_timeout":    "3s",
		"backend.redis.write_timeout":   "3s",
		"backend.sqlite.path":           "entitymesh.db",
		"log.level":                     "info",
		"log.format":                    "json",
		"log.add_source":                false,
	}
}

// Load builds a Config. Precedence (highest to lowest): env vars > config
// file > defaults. An empty path skips the file layer.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", path, err)
		}
	}

	// ENTITYMESH_LOG__ADD_SOURCE -> log.add_source
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration for unusable values.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Backend.Kind) {
	case BackendMemory:
	case BackendRedis:
		if c.Backend.Redis.URL == "" {
			return fmt.Errorf("backend.redis.url is required for the redis backend")
		}
	case BackendSQLite:
		if c.Backend.SQLite.Path == "" {
			return fmt.Errorf("backend.sqlite.path is required for the sqlite backend")
		}
	default:
		return fmt.Errorf("unknown backend kind %q (expected memory, redis or sqlite)", c.Backend.Kind)
	}
	if _, ok := logging.ParseLevel(c.Log.Level); !ok {
		return fmt.Errorf("unknown log level %q", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "text":
	default:
		return fmt.Errorf("unknown log format %q (expected json or text)", c.Log.Format)
	}
	return nil
}

// OpenBackend constructs the configured backend.
func (c *Config) OpenBackend(ctx context.Context) (core.Backend, error) {
	switch strings.ToLower(c.Backend.Kind) {
	case BackendRedis:
		r := c.Backend.Redis
		return redis.NewBackend(redis.Options{
			URL:            r.URL,
			Prefix:         r.Prefix,
			ConnectTimeout: r.ConnectTimeout,
			ReadTimeout:    r.ReadTimeout,
			WriteTimeout:   r.WriteTimeout,
		})
	case BackendSQLite:
		return sqlite.Open(ctx, c.Backend.SQLite.Path)
	case BackendMemory, "":
		return table.NewInMemoryBackend(), nil
	default:
		return nil, fmt.Errorf("unknown backend kind %q", c.Backend.Kind)
	}
}

// Logger builds a MeshLogger writing to out (stderr when nil).
func (c *Config) Logger(out io.Writer) *logging.MeshLogger {
	level, _ := logging.ParseLevel(c.Log.Level)
	cfg := logging.DefaultLoggerConfig()
	cfg.Level = level
	cfg.Format = c.Log.Format
	cfg.AddSource = c.Log.AddSource
	if out != nil {
		cfg.Output = out
	}
	return logging.NewLogger(cfg)
}
