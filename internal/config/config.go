// Package config loads the run configuration from a YAML file, with secrets
// optionally overridden from the environment or a .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/joho/godotenv"

	"github.com/justyntemme/bookcache/internal/metadata"
	"github.com/justyntemme/bookcache/internal/storage"
)

// DefaultPath is read when no -config flag is given
const DefaultPath = "config.yaml"

// Environment overrides for secrets
const (
	EnvAPIKey        = "BOOKCACHE_API_KEY"
	EnvRedisPassword = "BOOKCACHE_REDIS_PASSWORD"
)

// Config mirrors the layout of config.yaml
type Config struct {
	ISBN   ISBNSection   `yaml:"ISBN"`
	APIKey APIKeySection `yaml:"API KEY"`
	Redis  RedisSection  `yaml:"REDIS CRED"`
	Fetch  FetchSection  `yaml:"FETCH"`
	Store  StoreSection  `yaml:"STORE"`
	Log    LogSection    `yaml:"LOG"`
}

type ISBNSection struct {
	Numbers []string `yaml:"isbn_numbers"`
}

type APIKeySection struct {
	Key string `yaml:"API_KEY"`
}

type RedisSection struct {
	Host     string `yaml:"REDIS_HOST"`
	Port     int    `yaml:"REDIS_PORT"`
	Password string `yaml:"REDIS_PASSWORD"`
	DB       int    `yaml:"REDIS_DB"`
}

type FetchSection struct {
	Retention         string  `yaml:"retention"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	TimeoutSeconds    int     `yaml:"timeout_seconds"`
	BaseURL           string  `yaml:"base_url"`
}

type StoreSection struct {
	Backend    string `yaml:"backend"`
	SQLitePath string `yaml:"sqlite_path"`
	Key        string `yaml:"key"`
}

type LogSection struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// Load reads path, applies defaults and environment overrides, and validates
// the result. A .env file in the same directory is loaded first if present.
func Load(path string) (*Config, error) {
	envFile := filepath.Join(filepath.Dir(path), ".env")
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", envFile, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML config data, then applies defaults and overrides
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyEnv()
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvAPIKey); v != "" {
		c.APIKey.Key = v
	}
	if v := os.Getenv(EnvRedisPassword); v != "" {
		c.Redis.Password = v
	}
}

func (c *Config) applyDefaults() {
	if c.Redis.Host == "" {
		c.Redis.Host = "localhost"
	}
	if c.Redis.Port == 0 {
		c.Redis.Port = 6379
	}
	if c.Fetch.Retention == "" {
		c.Fetch.Retention = string(metadata.RetainLast)
	}
	if c.Fetch.RequestsPerSecond == 0 {
		c.Fetch.RequestsPerSecond = 2
	}
	if c.Fetch.TimeoutSeconds == 0 {
		c.Fetch.TimeoutSeconds = 10
	}
	if c.Fetch.BaseURL == "" {
		c.Fetch.BaseURL = metadata.DefaultBaseURL
	}
	if c.Store.Backend == "" {
		c.Store.Backend = storage.BackendRedis
	}
	if c.Store.SQLitePath == "" {
		c.Store.SQLitePath = "bookcache.db"
	}
	if c.Store.Key == "" {
		c.Store.Key = storage.DefaultKey
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// Validate reports the first invalid setting
func (c *Config) Validate() error {
	var isbns []string
	for _, isbn := range c.ISBN.Numbers {
		if s := strings.TrimSpace(isbn); s != "" {
			isbns = append(isbns, s)
		}
	}
	if len(isbns) == 0 {
		return errors.New("ISBN.isbn_numbers: at least one ISBN is required")
	}
	c.ISBN.Numbers = isbns

	if strings.TrimSpace(c.APIKey.Key) == "" {
		return fmt.Errorf("API KEY.API_KEY: required (or set %s)", EnvAPIKey)
	}
	if c.Redis.Port < 1 || c.Redis.Port > 65535 {
		return fmt.Errorf("REDIS CRED.REDIS_PORT: %d out of range", c.Redis.Port)
	}
	if _, err := metadata.ParseRetention(c.Fetch.Retention); err != nil {
		return fmt.Errorf("FETCH.retention: %w", err)
	}
	if c.Fetch.RequestsPerSecond < 0 {
		return fmt.Errorf("FETCH.requests_per_second: must not be negative")
	}
	switch c.Store.Backend {
	case storage.BackendRedis, storage.BackendSQLite, storage.BackendMemory:
	default:
		return fmt.Errorf("STORE.backend: unknown backend %q", c.Store.Backend)
	}
	return nil
}

// Retention returns the parsed retention policy
func (c *Config) Retention() metadata.Retention {
	r, _ := metadata.ParseRetention(c.Fetch.Retention)
	return r
}

// Timeout returns the catalog request timeout
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.Fetch.TimeoutSeconds) * time.Second
}

// StoreOptions returns the store backend options
func (c *Config) StoreOptions() storage.Options {
	return storage.Options{
		Backend: c.Store.Backend,
		Redis: storage.RedisOptions{
			Host:     c.Redis.Host,
			Port:     c.Redis.Port,
			Password: c.Redis.Password,
			DB:       c.Redis.DB,
		},
		SQLitePath: c.Store.SQLitePath,
	}
}
