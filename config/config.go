// Package config loads the service configuration from an optional YAML
// file and DATAINSIGHT_* environment variables, and builds the process
// logger from it.
package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Store drivers.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
)

// Config is the complete service configuration.
type Config struct {
	Server ServerConfig `yaml:"server"`
	Store  StoreConfig  `yaml:"store"`
	Log    LogConfig    `yaml:"log"`
	Engine EngineConfig `yaml:"engine"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr           string   `yaml:"addr"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	MaxUploadBytes int64    `yaml:"max_upload_bytes"`
}

// StoreConfig selects where the current dataset lives.
type StoreConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
	// Keep is the number of snapshots the sqlite driver retains.
	Keep int `yaml:"keep"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// EngineConfig configures the engine facade.
type EngineConfig struct {
	// SampleSeed makes random sampling reproducible when set.
	SampleSeed  *uint64 `yaml:"sample_seed"`
	PreviewRows int     `yaml:"preview_rows"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:           ":8000",
			AllowedOrigins: []string{"http://localhost:3000", "http://127.0.0.1:3000"},
			MaxUploadBytes: 32 << 20,
		},
		Store: StoreConfig{Driver: DriverMemory, Keep: 10},
		Log:   LogConfig{Level: "info"},
		Engine: EngineConfig{
			PreviewRows: 5,
		},
	}
}

// Load reads the YAML file at path over the defaults, applies environment
// overrides and validates the result. An empty path skips the file.
func Load(path string) (Config, error) {
	return load(path, os.LookupEnv)
}

func load(path string, lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, errors.Wrapf(err, "failed to read config %s", path)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, errors.Wrapf(err, "failed to parse config %s", path)
		}
	}
	if err := cfg.applyEnv(lookup); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup("DATAINSIGHT_ADDR"); ok {
		c.Server.Addr = v
	}
	if v, ok := lookup("DATAINSIGHT_ALLOWED_ORIGINS"); ok {
		c.Server.AllowedOrigins = splitList(v)
	}
	if v, ok := lookup("DATAINSIGHT_STORE_DRIVER"); ok {
		c.Store.Driver = v
	}
	if v, ok := lookup("DATAINSIGHT_STORE_DSN"); ok {
		c.Store.DSN = v
	}
	if v, ok := lookup("DATAINSIGHT_LOG_LEVEL"); ok {
		c.Log.Level = v
	}
	if v, ok := lookup("DATAINSIGHT_SAMPLE_SEED"); ok {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return errors.Wrapf(err, "DATAINSIGHT_SAMPLE_SEED %q", v)
		}
		c.Engine.SampleSeed = &seed
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Validate checks the configuration for values the service cannot run with.
func (c Config) Validate() error {
	if c.Server.Addr == "" {
		return errors.New("server.addr must be set")
	}
	if c.Server.MaxUploadBytes <= 0 {
		return errors.New("server.max_upload_bytes must be positive")
	}
	switch c.Store.Driver {
	case DriverMemory:
	case DriverSQLite:
		if c.Store.DSN == "" {
			return errors.New("store.dsn is required for the sqlite driver")
		}
	default:
		return errors.Newf("unknown store driver %q", c.Store.Driver)
	}
	if c.Store.Keep < 0 {
		return errors.New("store.keep must not be negative")
	}
	if c.Engine.PreviewRows < 0 {
		return errors.New("engine.preview_rows must not be negative")
	}
	if _, err := zap.ParseAtomicLevel(c.Log.Level); err != nil {
		return errors.Wrapf(err, "log.level %q", c.Log.Level)
	}
	return nil
}

// Logger builds the process logger.
func (c LogConfig) Logger() (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(c.Level)
	if err != nil {
		return nil, errors.Wrapf(err, "log.level %q", c.Level)
	}
	zc := zap.NewProductionConfig()
	if c.Development {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = level
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zc.EncoderConfig.TimeKey = "timestamp"
	return zc.Build()
}
