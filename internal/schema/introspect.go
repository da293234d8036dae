package schema

import (
	"context"
	"strings"

	"github.com/koustreak/knexgen/internal/database"
	"github.com/koustreak/knexgen/internal/errs"
	"github.com/koustreak/knexgen/internal/logger"
	"golang.org/x/sync/errgroup"
)

// Every selected column is cast to text so the driver hands back plain Go
// strings instead of information_schema domain values.
const (
	tablesQuery = `
		SELECT
			t.table_name::text   AS table_name,
			t.table_schema::text AS table_schema
		FROM information_schema.tables t
		WHERE t.table_schema = $1
		  AND t.table_type   = 'BASE TABLE'
		ORDER BY t.table_name`

	columnsQuery = `
		SELECT
			c.column_name::text          AS column_name,
			c.data_type::text            AS data_type,
			c.udt_name::text             AS udt_name,
			(c.is_nullable = 'YES')      AS is_nullable,
			c.column_default::text       AS column_default,
			pgd.description              AS description
		FROM information_schema.columns c
		LEFT JOIN pg_catalog.pg_statio_all_tables st
			ON st.schemaname = c.table_schema
			AND st.relname   = c.table_name
		LEFT JOIN pg_catalog.pg_description pgd
			ON pgd.objoid    = st.relid
			AND pgd.objsubid = c.ordinal_position
		WHERE c.table_name   = $1
		  AND c.table_schema = $2
		ORDER BY c.ordinal_position`

	enumsQuery = `
		SELECT
			t.typname::text AS typname,
			n.nspname::text AS nspname,
			array_agg(e.enumlabel::text ORDER BY e.enumsortorder) AS enumlabels
		FROM pg_catalog.pg_type t
		JOIN pg_catalog.pg_enum e      ON t.oid = e.enumtypid
		JOIN pg_catalog.pg_namespace n ON n.oid = t.typnamespace
		WHERE n.nspname = $1
		GROUP BY t.typname, n.nspname
		ORDER BY t.typname`
)

// PgIntrospector implements Reader for PostgreSQL using information_schema
// and pg_catalog. It only ever issues read-only queries.
type PgIntrospector struct {
	exec        database.Executor
	log         *logger.Logger
	concurrency int
}

var _ Reader = (*PgIntrospector)(nil)

// Option configures a PgIntrospector.
type Option func(*PgIntrospector)

// WithLogger sets the logger used for per-table debug output.
func WithLogger(l *logger.Logger) Option {
	return func(p *PgIntrospector) {
		if l != nil {
			p.log = l
		}
	}
}

// WithConcurrency lets up to n column queries run at once. Values below 2
// keep the default sequential behaviour. Table and column order in the
// result do not depend on n.
func WithConcurrency(n int) Option {
	return func(p *PgIntrospector) {
		p.concurrency = n
	}
}

// NewPgIntrospector creates a new Postgres schema introspector
func NewPgIntrospector(exec database.Executor, opts ...Option) *PgIntrospector {
	p := &PgIntrospector{exec: exec, log: logger.Nop(), concurrency: 1}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Introspect lists the base tables of schema, then the columns of each
// table, then the schema's enums. The first failure aborts the pass.
func (p *PgIntrospector) Introspect(ctx context.Context, schema string) (*Schema, error) {
	tables, err := p.ListTables(ctx, schema)
	if err != nil {
		return nil, err
	}

	if err := p.fillColumns(ctx, schema, tables); err != nil {
		return nil, err
	}

	enums, err := p.ListEnums(ctx, schema)
	if err != nil {
		return nil, err
	}

	p.log.With().
		Str("schema", schema).
		Int("tables", len(tables)).
		Int("enums", len(enums)).
		Logger().
		Debug("schema introspected")

	return &Schema{Name: schema, Tables: tables, Enums: enums}, nil
}

// ListTables returns the base tables of schema ordered by name, without
// their columns.
func (p *PgIntrospector) ListTables(ctx context.Context, schema string) ([]Table, error) {
	rows, err := p.exec.Execute(ctx, tablesQuery, schema)
	if err != nil {
		return nil, &Error{Stage: StageTables, Schema: schema, Err: err}
	}

	tables := make([]Table, 0, len(rows))
	for _, row := range rows {
		name, err := stringField(row, "table_name")
		if err != nil {
			return nil, &Error{Stage: StageTables, Schema: schema, Err: err}
		}
		owner, err := stringField(row, "table_schema")
		if err != nil {
			return nil, &Error{Stage: StageTables, Schema: schema, Err: err}
		}
		tables = append(tables, Table{Name: name, Schema: owner})
	}
	return tables, nil
}

// InspectColumns returns the columns of one table in ordinal order. A table
// without columns yields an empty, non-nil slice.
func (p *PgIntrospector) InspectColumns(ctx context.Context, schema, table string) ([]Column, error) {
	fail := func(err error) error {
		return &Error{Stage: StageColumns, Schema: schema, Table: table, Err: err}
	}

	rows, err := p.exec.Execute(ctx, columnsQuery, table, schema)
	if err != nil {
		return nil, fail(err)
	}

	cols := make([]Column, 0, len(rows))
	for _, row := range rows {
		col, err := decodeColumn(row)
		if err != nil {
			return nil, fail(err)
		}
		cols = append(cols, col)
	}

	p.log.With().
		Str("table", table).
		Int("columns", len(cols)).
		Logger().
		Debug("table inspected")

	return cols, nil
}

// ListEnums returns the enum types declared in schema, labels in
// enumsortorder.
func (p *PgIntrospector) ListEnums(ctx context.Context, schema string) ([]Enum, error) {
	fail := func(err error) error {
		return &Error{Stage: StageEnums, Schema: schema, Err: err}
	}

	rows, err := p.exec.Execute(ctx, enumsQuery, schema)
	if err != nil {
		return nil, fail(err)
	}

	enums := make([]Enum, 0, len(rows))
	for _, row := range rows {
		name, err := stringField(row, "typname")
		if err != nil {
			return nil, fail(err)
		}
		owner, err := stringField(row, "nspname")
		if err != nil {
			return nil, fail(err)
		}
		labels, err := labelsField(row, "enumlabels")
		if err != nil {
			return nil, fail(err)
		}
		enums = append(enums, Enum{Name: name, Schema: owner, Labels: labels})
	}
	return enums, nil
}

// fillColumns populates tables[i].Columns, either one table at a time or
// through a bounded errgroup. Each goroutine writes only its own index.
func (p *PgIntrospector) fillColumns(ctx context.Context, schema string, tables []Table) error {
	if p.concurrency < 2 {
		for i := range tables {
			cols, err := p.InspectColumns(ctx, schema, tables[i].Name)
			if err != nil {
				return err
			}
			tables[i].Columns = cols
		}
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)
	for i := range tables {
		g.Go(func() error {
			cols, err := p.InspectColumns(gctx, schema, tables[i].Name)
			if err != nil {
				return err
			}
			tables[i].Columns = cols
			return nil
		})
	}
	return g.Wait()
}

// --- row decoding ---

func decodeColumn(row database.Record) (Column, error) {
	var col Column
	var err error

	if col.Name, err = stringField(row, "column_name"); err != nil {
		return col, err
	}
	dataType, err := optionalString(row, "data_type")
	if err != nil {
		return col, err
	}
	udtName, err := optionalString(row, "udt_name")
	if err != nil {
		return col, err
	}
	col.Type = nativeType(deref(dataType), deref(udtName))

	if col.Nullable, err = boolField(row, "is_nullable"); err != nil {
		return col, err
	}
	if col.Default, err = optionalString(row, "column_default"); err != nil {
		return col, err
	}
	if col.Comment, err = optionalString(row, "description"); err != nil {
		return col, err
	}
	return col, nil
}

// nativeType picks the lookup key for a column. udt_name is the pg_type
// name (int4, _text, user_role); data_type only says "USER-DEFINED" or
// "ARRAY" for enums and arrays, so it is a last resort.
func nativeType(dataType, udtName string) string {
	if udtName != "" {
		return udtName
	}
	return dataType
}

func stringField(row database.Record, key string) (string, error) {
	v, ok := row[key]
	if !ok || v == nil {
		return "", errs.Newf(errs.ErrKindInvalidInput, "column %q missing from result", key)
	}
	s, ok := v.(string)
	if !ok {
		return "", errs.Newf(errs.ErrKindInvalidInput, "column %q: expected text, got %T", key, v)
	}
	return s, nil
}

func optionalString(row database.Record, key string) (*string, error) {
	v := row[key]
	if v == nil {
		return nil, nil
	}
	s, ok := v.(string)
	if !ok {
		return nil, errs.Newf(errs.ErrKindInvalidInput, "column %q: expected text, got %T", key, v)
	}
	return &s, nil
}

// boolField accepts a boolean or the information_schema YES/NO spelling.
func boolField(row database.Record, key string) (bool, error) {
	switch v := row[key].(type) {
	case bool:
		return v, nil
	case string:
		return strings.EqualFold(v, "YES"), nil
	case nil:
		return false, errs.Newf(errs.ErrKindInvalidInput, "column %q missing from result", key)
	default:
		return false, errs.Newf(errs.ErrKindInvalidInput, "column %q: expected boolean, got %T", key, v)
	}
}

// labelsField decodes an aggregated label array. pgx hands text[] back as
// []any when scanning into *any.
func labelsField(row database.Record, key string) ([]string, error) {
	switch v := row[key].(type) {
	case nil:
		return []string{}, nil
	case []string:
		return append([]string{}, v...), nil
	case []any:
		labels := make([]string, len(v))
		for i, e := range v {
			s, ok := e.(string)
			if !ok {
				return nil, errs.Newf(errs.ErrKindInvalidInput, "column %q: label %d is %T", key, i, e)
			}
			labels[i] = s
		}
		return labels, nil
	default:
		return nil, errs.Newf(errs.ErrKindInvalidInput, "column %q: expected text[], got %T", key, v)
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
