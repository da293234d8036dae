package schema

import "context"

// Reader is the interface for introspecting a database schema
type Reader interface {
	// Introspect returns the tables, columns and enums of the named schema
	// (e.g. "public"). A failure at any stage returns a nil Schema.
	Introspect(ctx context.Context, schema string) (*Schema, error)
}
