// Package generator turns an introspected schema into declaration files.
//
// Build produces a File: plain data describing every declaration in output
// order. Render (TypeScript) and RenderGo serialize a File to text. Neither
// step reads the database and both are deterministic.
package generator

import (
	"github.com/koustreak/knexgen/internal/errs"
	"github.com/koustreak/knexgen/internal/schema"
	"github.com/koustreak/knexgen/internal/typemap"
)

// File is the target-neutral model of one generated declaration file.
type File struct {
	Enums    []EnumDecl
	Records  []RecordDecl
	Registry []RegistryEntry

	// Unmapped lists columns whose native type fell back to the opaque
	// marker, so callers can report them.
	Unmapped []ColumnRef
}

// EnumDecl is a union of string literals, labels in declared order.
type EnumDecl struct {
	Name   string
	Labels []string
}

// RecordDecl is the shape of one table, fields in ordinal order.
type RecordDecl struct {
	Name   string
	Fields []Field
}

// Field is one column of a record.
type Field struct {
	Name       string
	NativeType string
	Type       string // TypeScript expression, nullability applied
	Nullable   bool
	Enum       string  // referenced enum, empty for built-in types
	EnumArray  bool    // NativeType is "_" + Enum
	Comment    *string // column comment
	Default    *string // raw default expression, documentation only
}

// RegistryEntry binds a table name to its record type.
type RegistryEntry struct {
	Table  string
	Record string
}

// ColumnRef points at one column.
type ColumnRef struct {
	Table  string
	Column string
	Type   string
}

// Build maps s to a File. It rejects a schema in which an enum and a table
// share a name, since both become top-level type names, and any table or
// enum name that is not a valid type identifier. Duplicate column names are
// passed through unchanged.
func Build(s *schema.Schema) (*File, error) {
	enums := s.EnumNames()

	for _, e := range s.Enums {
		if !identRe.MatchString(e.Name) {
			return nil, errs.Newf(errs.ErrKindInvalidInput,
				"enum %q in schema %q is not a valid type name", e.Name, s.Name)
		}
	}
	for _, t := range s.Tables {
		if !identRe.MatchString(t.Name) {
			return nil, errs.Newf(errs.ErrKindInvalidInput,
				"table %q in schema %q is not a valid type name", t.Name, s.Name)
		}
		if enums.Has(t.Name) {
			return nil, errs.Newf(errs.ErrKindInvalidInput,
				"enum and table %q share a name in schema %q", t.Name, s.Name)
		}
	}

	f := &File{
		Enums:    make([]EnumDecl, 0, len(s.Enums)),
		Records:  make([]RecordDecl, 0, len(s.Tables)),
		Registry: make([]RegistryEntry, 0, len(s.Tables)),
	}

	for _, e := range s.Enums {
		f.Enums = append(f.Enums, EnumDecl{
			Name:   e.Name,
			Labels: append([]string{}, e.Labels...),
		})
	}

	for _, t := range s.Tables {
		rec := RecordDecl{Name: t.Name, Fields: make([]Field, 0, len(t.Columns))}
		for _, c := range t.Columns {
			field := Field{
				Name:       c.Name,
				NativeType: c.Type,
				Type:       typemap.Column(c.Type, c.Nullable, enums),
				Nullable:   c.Nullable,
				Comment:    c.Comment,
				Default:    c.Default,
			}
			if enums.Has(c.Type) {
				field.Enum = c.Type
			} else if elem, ok := typemap.EnumElem(c.Type, enums); ok {
				field.Enum, field.EnumArray = elem, true
			}
			if _, known := typemap.Lookup(c.Type); !known && field.Enum == "" {
				f.Unmapped = append(f.Unmapped, ColumnRef{Table: t.Name, Column: c.Name, Type: c.Type})
			}
			rec.Fields = append(rec.Fields, field)
		}
		f.Records = append(f.Records, rec)
		f.Registry = append(f.Registry, RegistryEntry{Table: t.Name, Record: t.Name})
	}

	return f, nil
}
