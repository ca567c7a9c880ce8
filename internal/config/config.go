// Package config loads the server and tool configuration from a YAML file,
// an optional .env file and the environment.
package config

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/FocuswithJustin/writings/core/errors"
	"github.com/FocuswithJustin/writings/core/search"
	"github.com/FocuswithJustin/writings/internal/logging"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variables that override file settings.
const (
	EnvHost      = "HTTP_HOST"
	EnvPort      = "HTTP_PORT"
	EnvSnapshots = "WRITINGS_SNAPSHOTS"
	EnvIndex     = "WRITINGS_INDEX"
	EnvAPIKey    = "WRITINGS_API_KEY"
	EnvLogLevel  = "LOG_LEVEL"
	EnvLogFormat = "LOG_FORMAT"
)

// Config is the full configuration.
type Config struct {
	Server ServerConfig `yaml:"server"`
	Corpus CorpusConfig `yaml:"corpus"`
	Search SearchConfig `yaml:"search"`
	Log    LogConfig    `yaml:"log"`
}

// ServerConfig configures the REST API.
type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// APIKey, when set, is required in the X-API-Key header.
	APIKey string `yaml:"api_key"`

	// RateLimit is requests per minute per client; 0 disables limiting.
	RateLimit      int      `yaml:"rate_limit"`
	RateBurst      int      `yaml:"rate_burst"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// CorpusConfig locates the snapshots and derived files.
type CorpusConfig struct {
	SnapshotDir string `yaml:"snapshot_dir"`
	IndexPath   string `yaml:"index_path"`
	ArchiveDir  string `yaml:"archive_dir"`
	Compress    bool   `yaml:"compress"`
}

// SearchConfig tunes the search engine.
type SearchConfig struct {
	DefaultLimit int           `yaml:"default_limit"`
	MaxLimit     int           `yaml:"max_limit"`
	CacheTTL     time.Duration `yaml:"cache_ttl"`
	CacheSize    int           `yaml:"cache_size"`
}

// LogConfig selects the log level and format.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Defaults returns the configuration used when nothing is set.
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "127.0.0.1",
			Port:         3000,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
			RateBurst:    10,
		},
		Corpus: CorpusConfig{
			SnapshotDir: "snapshots",
		},
		Search: SearchConfig{
			DefaultLimit: search.DefaultLimit,
			MaxLimit:     search.MaxLimit,
			CacheTTL:     5 * time.Minute,
			CacheSize:    256,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads the YAML file at path over the defaults, applies environment
// overrides and validates the result. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Defaults()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if stderrors.Is(err, fs.ErrNotExist) {
				return nil, errors.NewNotFound("config", path)
			}
			return nil, errors.NewIO("read", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.NewParse("YAML", path, err.Error())
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDotEnv loads variables from the given .env files into the process
// environment without overriding variables already set. Missing files are
// skipped.
func LoadDotEnv(files ...string) error {
	for _, f := range files {
		if _, err := os.Stat(f); stderrors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return errors.NewParse("dotenv", f, err.Error())
		}
	}
	return nil
}

// ApplyEnv overrides settings from the environment.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvHost); ok && v != "" {
		c.Server.Host = v
	}
	if v, ok := lookup(EnvPort); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return &errors.ValidationError{Field: EnvPort, Value: v, Message: "not a number"}
		}
		c.Server.Port = port
	}
	if v, ok := lookup(EnvSnapshots); ok && v != "" {
		c.Corpus.SnapshotDir = v
	}
	if v, ok := lookup(EnvIndex); ok && v != "" {
		c.Corpus.IndexPath = v
	}
	if v, ok := lookup(EnvAPIKey); ok && v != "" {
		c.Server.APIKey = v
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		c.Log.Level = v
	}
	if v, ok := lookup(EnvLogFormat); ok && v != "" {
		c.Log.Format = v
	}
	return nil
}

// Validate reports every invalid setting.
func (c *Config) Validate() error {
	var errs []error
	invalid := func(field, value, msg string) {
		errs = append(errs, &errors.ValidationError{Field: field, Value: value, Message: msg})
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		invalid("server.port", strconv.Itoa(c.Server.Port), "must be between 1 and 65535")
	}
	if c.Server.ReadTimeout < 0 || c.Server.WriteTimeout < 0 {
		invalid("server.timeouts", "", "must not be negative")
	}
	if c.Server.APIKey != "" && len(c.Server.APIKey) < 16 {
		invalid("server.api_key", "", "must be at least 16 characters")
	}
	if c.Server.RateLimit < 0 || c.Server.RateBurst < 0 {
		invalid("server.rate_limit", strconv.Itoa(c.Server.RateLimit), "must not be negative")
	}
	if c.Corpus.SnapshotDir == "" {
		invalid("corpus.snapshot_dir", "", "is required")
	}
	if c.Search.MaxLimit < 1 || c.Search.MaxLimit > search.MaxLimit {
		invalid("search.max_limit", strconv.Itoa(c.Search.MaxLimit), fmt.Sprintf("must be between 1 and %d", search.MaxLimit))
	}
	if c.Search.DefaultLimit < 1 || c.Search.DefaultLimit > c.Search.MaxLimit {
		invalid("search.default_limit", strconv.Itoa(c.Search.DefaultLimit), "must be between 1 and max_limit")
	}
	if c.Search.CacheTTL < 0 || c.Search.CacheSize < 0 {
		invalid("search.cache", "", "must not be negative")
	}
	if _, ok := logging.ParseLevel(c.Log.Level); !ok {
		invalid("log.level", c.Log.Level, "must be debug, info, warn or error")
	}
	if _, ok := logging.ParseFormat(c.Log.Format); !ok {
		invalid("log.format", c.Log.Format, "must be json or text")
	}
	return errors.Join(errs...)
}

// InitLogging configures the package logger from c.Log, writing to stderr.
func (c *Config) InitLogging() {
	level, _ := logging.ParseLevel(c.Log.Level)
	format, _ := logging.ParseFormat(c.Log.Format)
	logging.Init(logging.Config{Level: level, Format: format, Output: os.Stderr})
}
