package main

import (
	"context"
	"os"

	"github.com/koustreak/knexgen/internal/config"
	"github.com/koustreak/knexgen/internal/database/postgres"
	"github.com/koustreak/knexgen/internal/logger"
)

// ConnFlags are shared by every subcommand that talks to the database.
// Zero values mean "not given" and leave the file or environment value in
// place.
type ConnFlags struct {
	Config    string `help:"YAML config file." type:"path"`
	Host      string `short:"H" help:"Database host (env DB_HOST)."`
	Port      int    `short:"p" help:"Database port (env DB_PORT)."`
	User      string `short:"u" help:"Database user (env DB_USER)."`
	Password  string `help:"Database password (env DB_PASSWORD)."`
	Database  string `short:"d" help:"Database name (env DB_DATABASE)."`
	DSN       string `name:"dsn" help:"Full connection string, overrides the individual settings (env DATABASE_URL)."`
	LogLevel  string `help:"Log level: debug, info, warn or error."`
	LogFormat string `help:"Log format: console or json."`
}

// load builds the effective configuration: defaults, config file, .env and
// environment, then these flags.
func (f *ConnFlags) load() (*config.Config, error) {
	if err := config.LoadDotenv(); err != nil {
		return nil, err
	}
	cfg, err := config.Load(f.Config)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	setString(&cfg.Database.Host, f.Host)
	setString(&cfg.Database.User, f.User)
	setString(&cfg.Database.Password, f.Password)
	setString(&cfg.Database.Database, f.Database)
	setString(&cfg.Database.DSN, f.DSN)
	setString(&cfg.Log.Level, f.LogLevel)
	setString(&cfg.Log.Format, f.LogFormat)
	if f.Port != 0 {
		cfg.Database.Port = f.Port
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) *logger.Logger {
	lc := logger.DefaultConfig()
	setString(&lc.Level, cfg.Log.Level)
	setString(&lc.Format, cfg.Log.Format)
	return logger.New(lc)
}

func connect(ctx context.Context, cfg *config.Config, log *logger.Logger) (*postgres.Driver, error) {
	db := cfg.DB()
	log.With().
		Str("host", db.Host).
		Int("port", db.Port).
		Str("database", db.Database).
		Logger().
		Debug("connecting to database")

	driver, err := postgres.New(ctx, db)
	if err != nil {
		return nil, err
	}
	log.Info("connected to database")
	return driver, nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
