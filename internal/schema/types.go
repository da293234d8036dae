package schema

import "github.com/koustreak/knexgen/internal/typemap"

// Column describes a single column in a table
type Column struct {
	Name     string
	Type     string // native type identifier: int4, _text, user_role, etc.
	Nullable bool
	Default  *string // raw default expression, nil if none
	Comment  *string // COMMENT ON COLUMN text, nil if none
}

// Table describes a base table and its columns in ordinal order
type Table struct {
	Name    string
	Schema  string
	Columns []Column
}

// Enum describes an enumerated type and its labels in declared sort order
type Enum struct {
	Name   string
	Schema string
	Labels []string
}

// Schema is one introspected database schema. It is rebuilt on every run.
type Schema struct {
	Name   string
	Tables []Table
	Enums  []Enum
}

// EnumNames returns the set of enum type names, for column classification.
func (s *Schema) EnumNames() typemap.EnumSet {
	names := make([]string, len(s.Enums))
	for i, e := range s.Enums {
		names[i] = e.Name
	}
	return typemap.NewEnumSet(names...)
}
