// Package config assembles knexgen settings from, in increasing order of
// precedence: built-in defaults, a YAML file, environment variables and
// command-line flags (applied by the caller).
package config

import (
	"bytes"
	"errors"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/koustreak/knexgen/internal/database"
	"github.com/koustreak/knexgen/internal/errs"
	"github.com/koustreak/knexgen/internal/filestore"
	"go.yaml.in/yaml/v3"
)

// Generation targets.
const (
	TargetTypeScript = "typescript"
	TargetGo         = "go"
)

// Config is the full knexgen configuration.
type Config struct {
	Database DatabaseConfig   `yaml:"database"`
	Generate GenerateConfig   `yaml:"generate"`
	Output   OutputConfig     `yaml:"output"`
	Store    filestore.Config `yaml:"store"`
	Log      LogConfig        `yaml:"log"`
	Server   ServerConfig     `yaml:"server"`
}

// DatabaseConfig holds connection settings. DSN wins over the split fields.
type DatabaseConfig struct {
	DSN            string        `yaml:"dsn"`
	Host           string        `yaml:"host"`
	Port           int           `yaml:"port"`
	User           string        `yaml:"user"`
	Password       string        `yaml:"password"`
	Database       string        `yaml:"database"`
	SSLMode        string        `yaml:"sslmode"`
	MaxConns       int32         `yaml:"max_conns"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
	QueryTimeout   time.Duration `yaml:"query_timeout"`
}

// GenerateConfig controls what is introspected and how it is rendered.
type GenerateConfig struct {
	Schema      string `yaml:"schema"`
	Target      string `yaml:"target"`  // typescript or go
	Package     string `yaml:"package"` // Go package name for the go target
	Concurrency int    `yaml:"concurrency"`
}

// OutputConfig controls where the generated text goes.
type OutputConfig struct {
	Path   string `yaml:"path"`
	DryRun bool   `yaml:"dry_run"`
	Upload string `yaml:"upload"` // bucket/key in the object store
}

// LogConfig mirrors logger.Config.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// ServerConfig configures the serve command.
type ServerConfig struct {
	Listen string `yaml:"listen"`
}

// Default returns the built-in defaults.
func Default() *Config {
	db := database.DefaultConfig()
	return &Config{
		Database: DatabaseConfig{
			Host:           db.Host,
			Port:           db.Port,
			User:           db.User,
			SSLMode:        db.SSLMode,
			MaxConns:       db.MaxConns,
			ConnectTimeout: db.ConnectTimeout,
		},
		Generate: GenerateConfig{
			Schema:      "public",
			Target:      TargetTypeScript,
			Package:     "dbtypes",
			Concurrency: 1,
		},
		Output: OutputConfig{
			Path: "./types/db.ts",
		},
		Store: filestore.Config{
			Provider: filestore.ProviderMinIO,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Server: ServerConfig{
			Listen: ":8080",
		},
	}
}

// Load returns the defaults overlaid with the YAML file at path. An empty
// path skips the file. Unknown keys are rejected.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, errs.Wrap(errs.ErrKindNotFound, "config file not found", err)
		}
		return nil, errs.Wrap(errs.ErrKindInvalidInput, "read config file", err)
	}
	if err := cfg.decode(data); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) decode(data []byte) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return errs.Wrap(errs.ErrKindInvalidInput, "parse config file", err)
	}
	return nil
}

// ApplyEnv overlays the DB_* variables (and DATABASE_URL) found through
// lookup, typically os.LookupEnv.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	str("DATABASE_URL", &c.Database.DSN)
	str("DB_HOST", &c.Database.Host)
	str("DB_USER", &c.Database.User)
	str("DB_PASSWORD", &c.Database.Password)
	str("DB_DATABASE", &c.Database.Database)
	str("DB_SSLMODE", &c.Database.SSLMode)
	str("MINIO_ENDPOINT", &c.Store.Endpoint)
	str("MINIO_ACCESS_KEY", &c.Store.AccessKey)
	str("MINIO_SECRET_KEY", &c.Store.SecretKey)

	if v, ok := lookup("DB_PORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return errs.Wrap(errs.ErrKindInvalidInput, "DB_PORT must be a valid number", err)
		}
		c.Database.Port = port
	}
	return nil
}

// LoadDotenv loads KEY=VALUE pairs from the given files into the process
// environment. Variables already set are left alone and missing files are
// skipped. With no paths it reads ./.env.
func LoadDotenv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return errs.Wrap(errs.ErrKindInvalidInput, "load "+p, err)
		}
	}
	return nil
}

// Validate checks the settings every command relies on.
func (c *Config) Validate() error {
	if c.Generate.Schema == "" {
		return errs.New(errs.ErrKindInvalidInput, "schema name is required")
	}
	switch c.Generate.Target {
	case TargetTypeScript, TargetGo:
	default:
		return errs.Newf(errs.ErrKindInvalidInput, "unknown target %q, want typescript or go", c.Generate.Target)
	}
	if c.Generate.Target == TargetGo && c.Generate.Package == "" {
		return errs.New(errs.ErrKindInvalidInput, "package name is required for the go target")
	}
	if c.Generate.Concurrency < 0 {
		return errs.New(errs.ErrKindInvalidInput, "concurrency must not be negative")
	}
	return c.DB().Validate()
}

// DB converts the database section into a driver config.
func (c *Config) DB() *database.Config {
	db := database.DefaultConfig()
	db.DSN = c.Database.DSN
	db.Host = c.Database.Host
	db.Port = c.Database.Port
	db.User = c.Database.User
	db.Password = c.Database.Password
	db.Database = c.Database.Database
	db.SSLMode = c.Database.SSLMode
	if c.Database.MaxConns > 0 {
		db.MaxConns = c.Database.MaxConns
		if db.MinConns > db.MaxConns {
			db.MinConns = db.MaxConns
		}
	}
	if c.Database.ConnectTimeout > 0 {
		db.ConnectTimeout = c.Database.ConnectTimeout
	}
	db.QueryTimeout = c.Database.QueryTimeout
	return db
}
