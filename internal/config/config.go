package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type ServerConfig struct {
	Port int `yaml:"port"`
}

type LogConfig struct {
	Level  string `yaml:"level"`  // trace|debug|info|warn|error
	Format string `yaml:"format"` // json|console
}

type FileStorageConfig struct {
	Dir string `yaml:"dir"`
}

type PostgresConfig struct {
	URL      string `yaml:"url"`
	MaxConns int32  `yaml:"max_conns"`
}

type MongoConfig struct {
	URI      string `yaml:"uri"`
	Database string `yaml:"database"`
}

type StorageConfig struct {
	Driver   string            `yaml:"driver"` // file | postgres | mongo
	File     FileStorageConfig `yaml:"file"`
	Postgres PostgresConfig    `yaml:"postgres"`
	Mongo    MongoConfig       `yaml:"mongo"`
}

type RedisConfig struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type AuthConfig struct {
	Salt       string   `yaml:"salt"`
	KeyHashes  []string `yaml:"key_hashes"` // hex HMAC-SHA256 of accepted API keys
	OpenRedeem bool     `yaml:"open_redeem"`
}

type RateLimitConfig struct {
	Backend string        `yaml:"backend"` // memory | redis
	Limit   int           `yaml:"limit"`
	Window  time.Duration `yaml:"window"`
}

type PurgeConfig struct {
	Interval time.Duration `yaml:"interval"`
}

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
	Storage   StorageConfig   `yaml:"storage"`
	Redis     RedisConfig     `yaml:"redis"`
	Auth      AuthConfig      `yaml:"auth"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Purge     PurgeConfig     `yaml:"purge"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// defaults
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 10000
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = "file"
	}
	if cfg.Storage.File.Dir == "" {
		cfg.Storage.File.Dir = "data"
	}
	if cfg.Storage.Postgres.MaxConns <= 0 {
		cfg.Storage.Postgres.MaxConns = 10
	}
	if cfg.RateLimit.Backend == "" {
		cfg.RateLimit.Backend = "memory"
	}
	if cfg.RateLimit.Limit <= 0 {
		cfg.RateLimit.Limit = 15
	}
	if cfg.RateLimit.Window <= 0 {
		cfg.RateLimit.Window = 60 * time.Second
	}
	if cfg.Purge.Interval <= 0 {
		cfg.Purge.Interval = 10 * time.Minute
	}

	// Minimal validation
	if cfg.Auth.Salt == "" {
		return nil, errors.New("auth.salt is required")
	}
	if len(cfg.Auth.KeyHashes) == 0 {
		return nil, errors.New("auth.key_hashes must list at least one accepted hash")
	}
	switch cfg.Storage.Driver {
	case "file":
		// dir default is enough
	case "postgres":
		if cfg.Storage.Postgres.URL == "" {
			return nil, errors.New("storage.postgres.url is required")
		}
	case "mongo":
		if cfg.Storage.Mongo.URI == "" {
			return nil, errors.New("storage.mongo.uri is required")
		}
		if cfg.Storage.Mongo.Database == "" {
			cfg.Storage.Mongo.Database = "pcred"
		}
	default:
		return nil, fmt.Errorf("unknown storage.driver %q", cfg.Storage.Driver)
	}
	if cfg.RateLimit.Backend == "redis" && cfg.Redis.URL == "" {
		return nil, errors.New("redis.url is required when rate_limit.backend is redis")
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}
