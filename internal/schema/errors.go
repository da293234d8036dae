package schema

import "fmt"

// Stage names the introspection query that failed.
type Stage string

const (
	StageTables  Stage = "tables"
	StageColumns Stage = "columns"
	StageEnums   Stage = "enums"
)

// Error is returned for any failure during Introspect. Err is usually an
// *errs.Error from the driver, so errs.Is* predicates see through it.
type Error struct {
	Stage  Stage
	Schema string
	Table  string // set for StageColumns
	Err    error
}

func (e *Error) Error() string {
	if e.Table != "" {
		return fmt.Sprintf("introspect %s of %s.%s: %v", e.Stage, e.Schema, e.Table, e.Err)
	}
	return fmt.Sprintf("introspect %s of schema %s: %v", e.Stage, e.Schema, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
