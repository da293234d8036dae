package generator

import (
	"strings"
	"testing"

	"github.com/koustreak/knexgen/internal/errs"
	"github.com/koustreak/knexgen/internal/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func usersSchema() *schema.Schema {
	return &schema.Schema{
		Name: "public",
		Tables: []schema.Table{{
			Name:   "users",
			Schema: "public",
			Columns: []schema.Column{
				{Name: "id", Type: "int4", Default: strPtr("nextval('users_id_seq'::regclass)")},
				{Name: "email", Type: "text", Comment: strPtr("User email address")},
				{Name: "role", Type: "user_role", Nullable: true},
			},
		}},
		Enums: []schema.Enum{{Name: "user_role", Schema: "public", Labels: []string{"admin", "user", "guest"}}},
	}
}

func TestGenerate_Golden(t *testing.T) {
	want := `// This file is auto-generated. Do not edit it manually.

export type user_role =
  'admin' |
  'user' |
  'guest';

export interface users {
  /**
   * @default nextval('users_id_seq'::regclass)
   */
  id: number;

  /**
   * User email address
   * @default null
   */
  email: string;

  /**
   * @default null
   */
  role: user_role | null;
}

declare module 'knex/types/tables' {
  interface Tables {
    users: users;
  }
}
`
	got, err := Generate(usersSchema())
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestGenerate_EmptySchema(t *testing.T) {
	got, err := Generate(&schema.Schema{Name: "empty"})
	require.NoError(t, err)

	want := Header + `

declare module 'knex/types/tables' {
  interface Tables {
  }
}
`
	assert.Equal(t, want, got)
}

func TestGenerate_Deterministic(t *testing.T) {
	s := usersSchema()
	first, err := Generate(s)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := Generate(s)
		require.NoError(t, err)
		require.Equal(t, first, again)
	}
}

func TestGenerate_EnumLabelOrder(t *testing.T) {
	s := &schema.Schema{Enums: []schema.Enum{{Name: "status", Labels: []string{"draft", "published", "archived"}}}}
	got, err := Generate(s)
	require.NoError(t, err)
	assert.Contains(t, got, "export type status =\n  'draft' |\n  'published' |\n  'archived';")
}

func TestGenerate_ColumnOrderIsOrdinal(t *testing.T) {
	s := &schema.Schema{Tables: []schema.Table{{
		Name: "t",
		Columns: []schema.Column{
			{Name: "zeta", Type: "text"},
			{Name: "alpha", Type: "text"},
			{Name: "mid", Type: "text"},
		},
	}}}
	got, err := Generate(s)
	require.NoError(t, err)

	z := strings.Index(got, "zeta:")
	a := strings.Index(got, "alpha:")
	m := strings.Index(got, "mid:")
	assert.True(t, z < a && a < m, "fields must follow ordinal order")
}

func TestGenerate_BigintIsString(t *testing.T) {
	s := &schema.Schema{Tables: []schema.Table{{
		Name:    "counters",
		Columns: []schema.Column{{Name: "hits", Type: "int8"}, {Name: "total", Type: "int8", Nullable: true}},
	}}}
	got, err := Generate(s)
	require.NoError(t, err)
	assert.Contains(t, got, "  hits: string;\n")
	assert.Contains(t, got, "  total: string | null;\n")
}

func TestBuild(t *testing.T) {
	s := usersSchema()
	s.Tables[0].Columns = append(s.Tables[0].Columns,
		schema.Column{Name: "search", Type: "tsvector", Nullable: true})

	f, err := Build(s)
	require.NoError(t, err)

	require.Len(t, f.Records, 1)
	fields := f.Records[0].Fields
	require.Len(t, fields, 4)
	assert.Equal(t, "number", fields[0].Type)
	assert.Equal(t, "string", fields[1].Type)
	assert.Equal(t, "user_role | null", fields[2].Type)
	assert.Equal(t, "user_role", fields[2].Enum)
	assert.False(t, fields[2].EnumArray)
	assert.Equal(t, "unknown | null", fields[3].Type)

	assert.Equal(t, []RegistryEntry{{Table: "users", Record: "users"}}, f.Registry)
	assert.Equal(t, []ColumnRef{{Table: "users", Column: "search", Type: "tsvector"}}, f.Unmapped)
}

func TestBuild_DoesNotMutateSchema(t *testing.T) {
	s := usersSchema()
	f, err := Build(s)
	require.NoError(t, err)

	f.Enums[0].Labels[0] = "changed"
	assert.Equal(t, "admin", s.Enums[0].Labels[0])
}

func TestBuild_RejectsEnumTableCollision(t *testing.T) {
	s := usersSchema()
	s.Enums = append(s.Enums, schema.Enum{Name: "users", Labels: []string{"a"}})

	_, err := Build(s)
	require.Error(t, err)
	assert.True(t, errs.IsInvalidInput(err))
}

func TestBuild_EnumArray(t *testing.T) {
	s := usersSchema()
	s.Tables[0].Columns = append(s.Tables[0].Columns,
		schema.Column{Name: "past_roles", Type: "_user_role", Nullable: true})

	f, err := Build(s)
	require.NoError(t, err)

	field := f.Records[0].Fields[3]
	assert.Equal(t, "user_role[] | null", field.Type)
	assert.Equal(t, "user_role", field.Enum)
	assert.True(t, field.EnumArray)
	assert.Empty(t, f.Unmapped)
}

func TestBuild_RejectsInvalidTypeNames(t *testing.T) {
	tests := []struct {
		name   string
		schema *schema.Schema
	}{
		{"hyphenated table", &schema.Schema{Tables: []schema.Table{{Name: "order-items"}}}},
		{"table with space", &schema.Schema{Tables: []schema.Table{{Name: "order items"}}}},
		{"table starting with digit", &schema.Schema{Tables: []schema.Table{{Name: "1st_table"}}}},
		{"hyphenated enum", &schema.Schema{Enums: []schema.Enum{{Name: "post-status", Labels: []string{"a"}}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build(tt.schema)
			require.Error(t, err)
			assert.True(t, errs.IsInvalidInput(err))
		})
	}
}

func TestRender_Escaping(t *testing.T) {
	f := &File{
		Enums: []EnumDecl{{Name: "quirky", Labels: []string{"it's", `back\slash`}}},
		Records: []RecordDecl{{
			Name: "notes",
			Fields: []Field{{
				Name:    "body-text",
				Type:    "string",
				Comment: strPtr("first line\nends with */ marker"),
				Default: strPtr("'/* x */'::text"),
			}},
		}},
		Registry: []RegistryEntry{{Table: "notes", Record: "notes"}},
	}
	got := Render(f)

	assert.Contains(t, got, `  'it\'s' |`)
	assert.Contains(t, got, `  'back\\slash';`)
	assert.Contains(t, got, "   * first line\n   * ends with *\\/ marker\n")
	assert.Contains(t, got, "   * @default '/* x *\\/'::text\n")
	assert.Contains(t, got, "  'body-text': string;\n")
}

func TestRender_EmptyEnum(t *testing.T) {
	got := Render(&File{Enums: []EnumDecl{{Name: "nothing"}}})
	assert.Contains(t, got, "export type nothing = never;")
}
