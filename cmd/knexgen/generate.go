package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/koustreak/knexgen/internal/config"
	"github.com/koustreak/knexgen/internal/filestore/minio"
	"github.com/koustreak/knexgen/internal/generator"
	"github.com/koustreak/knexgen/internal/logger"
	"github.com/koustreak/knexgen/internal/output"
	"github.com/koustreak/knexgen/internal/schema"
)

// GenerateCmd introspects one schema and writes its declarations.
type GenerateCmd struct {
	ConnFlags `embed:""`

	Output      string `short:"o" help:"Output file path (default ./types/db.ts)." type:"path"`
	Schema      string `short:"s" help:"Schema to introspect (default public)."`
	DryRun      bool   `help:"Print the declarations to stdout instead of writing a file."`
	Target      string `help:"Output language: typescript or go."`
	Package     string `help:"Package name for the go target."`
	Concurrency int    `help:"Number of tables whose columns are read in parallel."`
	Upload      string `help:"Upload to the object store as bucket/key instead of writing a file."`
}

func (c *GenerateCmd) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := c.config()
	if err != nil {
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
	sch, err := reader.Introspect(ctx, cfg.Generate.Schema)
	if err != nil {
		return err
	}
	log.With().
		Str("schema", cfg.Generate.Schema).
		Int("tables", len(sch.Tables)).
		Int("enums", len(sch.Enums)).
		Logger().
		Info("schema introspected")

	f, err := generator.Build(sch)
	if err != nil {
		return err
	}
	logUnmapped(log, f.Unmapped)

	content, err := render(f, cfg)
	if err != nil {
		return err
	}

	sink, closeSink, err := c.sink(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeSink()

	location, err := sink.Write(ctx, content)
	if err != nil {
		return err
	}
	if location != "" {
		log.With().Str("location", location).Logger().Info("types written")
	}
	return nil
}

func (c *GenerateCmd) config() (*config.Config, error) {
	cfg, err := c.load()
	if err != nil {
		return nil, err
	}

	setString(&cfg.Generate.Schema, c.Schema)
	setString(&cfg.Generate.Target, c.Target)
	setString(&cfg.Generate.Package, c.Package)
	setString(&cfg.Output.Upload, c.Upload)
	if c.Concurrency != 0 {
		cfg.Generate.Concurrency = c.Concurrency
	}
	if c.DryRun {
		cfg.Output.DryRun = true
	}

	switch {
	case c.Output != "":
		cfg.Output.Path = c.Output
	case cfg.Generate.Target == config.TargetGo && cfg.Output.Path == config.Default().Output.Path:
		cfg.Output.Path = strings.TrimSuffix(cfg.Output.Path, filepath.Ext(cfg.Output.Path)) + ".go"
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// sink picks the destination. Dry run wins over upload, upload over file.
// The returned func releases whatever the sink holds open.
func (c *GenerateCmd) sink(ctx context.Context, cfg *config.Config) (output.Sink, func(), error) {
	noop := func() {}
	if cfg.Output.DryRun {
		return output.DryRun{W: os.Stdout}, noop, nil
	}
	if cfg.Output.Upload == "" {
		return output.FileSink{Path: cfg.Output.Path}, noop, nil
	}

	bucket, key, err := output.ParseObjectTarget(cfg.Output.Upload)
	if err != nil {
		return nil, nil, err
	}
	store, err := minio.New(ctx, &cfg.Store)
	if err != nil {
		return nil, nil, err
	}
	sink := output.ObjectSink{
		Store:       store,
		Bucket:      bucket,
		Key:         key,
		ContentType: output.ContentType(cfg.Generate.Target),
	}
	return sink, func() { _ = store.Close() }, nil
}

func render(f *generator.File, cfg *config.Config) (string, error) {
	if cfg.Generate.Target == config.TargetGo {
		return generator.RenderGo(f, cfg.Generate.Package)
	}
	return generator.Render(f), nil
}

func logUnmapped(log *logger.Logger, cols []generator.ColumnRef) {
	for _, c := range cols {
		log.With().
			Str("table", c.Table).
			Str("column", c.Column).
			Str("type", c.Type).
			Logger().
			Debug("column type has no mapping, emitted as unknown")
	}
}
