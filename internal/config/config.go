// Package config loads layered application configuration.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// EnvPrefix prefixes every environment variable the configuration reads
const EnvPrefix = "RECALLDB_"

// Config holds all application configuration
type Config struct {
	// Database configuration
	DBDriver          string `koanf:"db_driver" validate:"oneof=sqlite sqlite3"` // sqlite (pure go) or sqlite3 (cgo)
	DBPath            string `koanf:"db_path" validate:"required"`
	DBConnectionLimit int    `koanf:"db_connection_limit" validate:"min=1"`
	SQLLog            bool   `koanf:"sql_log"`

	// Logging
	LogLevel  string `koanf:"log_level" validate:"oneof=debug info warn error"`
	LogFormat string `koanf:"log_format" validate:"oneof=text json"`

	// Server configuration
	Port         string        `koanf:"port" validate:"required,numeric"`
	TidyInterval time.Duration `koanf:"tidy_interval"`

	// Ingest
	RenderTimeout     time.Duration `koanf:"render_timeout"`
	RenderConcurrency int           `koanf:"render_concurrency" validate:"min=1"`
	ReposDir          string        `koanf:"repos_dir" validate:"required"`
}

// RegisterFlags adds the configuration flags, and their defaults, to fs
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "path to a YAML configuration file")
	fs.String("db-driver", "sqlite", "database driver: sqlite or sqlite3")
	fs.String("db-path", "recalldb.db", "path to the SQLite database file")
	fs.Int("db-connection-limit", 1, "maximum open database connections")
	fs.Bool("sql-log", false, "log every SQL statement")
	fs.String("log-level", "info", "log level: debug, info, warn or error")
	fs.String("log-format", "text", "log format: text or json")
	fs.String("port", "3000", "HTTP listen port")
	fs.Duration("tidy-interval", time.Hour, "interval between scheduled sweeps, 0 disables them")
	fs.Duration("render-timeout", 5*time.Second, "time limit for expanding one note")
	fs.Int("render-concurrency", 8, "notes expanded concurrently during a load")
	fs.String("repos-dir", "repos", "directory git document sources are cloned into")
}

// Load builds the configuration from, in increasing precedence, flag defaults,
// the --config file, RECALLDB_ environment variables and explicitly set flags.
func Load(fs *pflag.FlagSet) (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	k := koanf.New(".")

	if path, _ := fs.GetString("config"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	// Unchanged flags only fill keys no other source set
	if err := k.Load(posflag.ProviderWithFlag(fs, ".", k, func(f *pflag.Flag) (string, interface{}) {
		if f.Name == "config" {
			return "", nil
		}
		return strings.ReplaceAll(f.Name, "-", "_"), posflag.FlagVal(fs, f)
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to read flags: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks every field constraint
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.RenderTimeout < 0 || c.TidyInterval < 0 {
		return fmt.Errorf("invalid configuration: durations must not be negative")
	}
	return nil
}

// Logger builds the slog logger the configuration describes
func (c *Config) Logger() *slog.Logger {
	var level slog.Level
	switch c.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}
