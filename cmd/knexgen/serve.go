package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/koustreak/knexgen/internal/schema"
	"github.com/koustreak/knexgen/internal/server"
)

// ServeCmd runs the HTTP server until interrupted.
type ServeCmd struct {
	ConnFlags `embed:""`

	Listen      string `help:"Address to listen on (default :8080)."`
	Package     string `help:"Default package name for types.go."`
	Concurrency int    `help:"Number of tables whose columns are read in parallel."`
}

func (c *ServeCmd) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := c.load()
	if err != nil {
		return err
	}
	setString(&cfg.Server.Listen, c.Listen)
	setString(&cfg.Generate.Package, c.Package)
	if c.Concurrency != 0 {
		cfg.Generate.Concurrency = c.Concurrency
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	log := newLogger(cfg)

	db, err := connect(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer db.Close()

	reader := schema.NewPgIntrospector(db,
		schema.WithLogger(log),
		schema.WithConcurrency(cfg.Generate.Concurrency),
	)
	srv := server.New(reader,
		server.WithPinger(db),
		server.WithLogger(log),
		server.WithPackage(cfg.Generate.Package),
	)
	return srv.ListenAndServe(ctx, cfg.Server.Listen)
}
