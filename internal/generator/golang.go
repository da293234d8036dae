package generator

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/dave/jennifer/jen"
	"github.com/koustreak/knexgen/internal/errs"
	"github.com/koustreak/knexgen/internal/schema"
)

// goScalars maps native types to Go types for the Go target. Pointer-free
// for non-null columns; see goType for nullability.
var goScalars = map[string]func() *jen.Statement{
	"int2":        jen.Int16,
	"int4":        jen.Int32,
	"int8":        jen.Int64,
	"float4":      jen.Float32,
	"float8":      jen.Float64,
	"numeric":     jen.String,
	"money":       jen.String,
	"varchar":     jen.String,
	"char":        jen.String,
	"bpchar":      jen.String,
	"text":        jen.String,
	"citext":      jen.String,
	"uuid":        jen.String,
	"bool":        jen.Bool,
	"timestamp":   timeType,
	"timestamptz": timeType,
	"date":        timeType,
	"time":        jen.String,
	"timetz":      jen.String,
	"interval":    jen.String,
	"json":        rawJSONType,
	"jsonb":       rawJSONType,
	"inet":        jen.String,
	"cidr":        jen.String,
	"macaddr":     jen.String,
	"macaddr8":    jen.String,
	"point":       jen.String,
	"line":        jen.String,
	"lseg":        jen.String,
	"box":         jen.String,
	"path":        jen.String,
	"polygon":     jen.String,
	"circle":      jen.String,
}

func timeType() *jen.Statement    { return jen.Qual("time", "Time") }
func rawJSONType() *jen.Statement { return jen.Qual("encoding/json", "RawMessage") }

// GenerateGo builds and renders s as Go source in package pkg.
func GenerateGo(s *schema.Schema, pkg string) (string, error) {
	f, err := Build(s)
	if err != nil {
		return "", err
	}
	return RenderGo(f, pkg)
}

// RenderGo serializes f as a Go file: a string type with one constant per
// label for each enum, a struct per table with db tags, and a Tables map
// from table name to a zero value of its struct.
//
// Distinct database names can collapse to one Go identifier ("user_id" and
// "userID"); such a file would not compile, so RenderGo reports the clash as
// invalid input instead.
func RenderGo(f *File, pkg string) (string, error) {
	if err := checkGoNames(f); err != nil {
		return "", err
	}

	gf := jen.NewFile(pkg)
	gf.HeaderComment("Code generated by knexgen. DO NOT EDIT.")

	for _, e := range f.Enums {
		enumName := ToGoName(e.Name)
		gf.Commentf("%s mirrors the %s enum.", enumName, e.Name)
		gf.Type().Id(enumName).String()
		if len(e.Labels) > 0 {
			gf.Const().DefsFunc(func(g *jen.Group) {
				for _, label := range e.Labels {
					g.Id(enumName + ToGoName(label)).Id(enumName).Op("=").Lit(label)
				}
			})
		}
		gf.Line()
	}

	for _, r := range f.Records {
		structName := ToGoName(r.Name)
		gf.Commentf("%s is a row of the %s table.", structName, r.Name)
		gf.Type().Id(structName).StructFunc(func(g *jen.Group) {
			for _, field := range r.Fields {
				if field.Comment != nil {
					g.Comment(strings.ReplaceAll(*field.Comment, "\n", " "))
				}
				g.Id(ToGoName(field.Name)).Add(goType(field)).Tag(map[string]string{"db": field.Name})
			}
		})
		gf.Line()
	}

	gf.Comment("Tables maps each table name to a zero value of its row type.")
	gf.Var().Id("Tables").Op("=").Map(jen.String()).Interface().Values(jen.DictFunc(func(d jen.Dict) {
		for _, e := range f.Registry {
			d[jen.Lit(e.Table)] = jen.Id(ToGoName(e.Record)).Values()
		}
	}))

	var buf bytes.Buffer
	if err := gf.Render(&buf); err != nil {
		return "", errs.Wrap(errs.ErrKindInvalidInput, "render go declarations", err)
	}
	return buf.String(), nil
}

// goType resolves a field to a Go type. Nullable scalars become pointers;
// slices, json.RawMessage and interface{} are already nil-able.
func goType(f Field) *jen.Statement {
	if f.EnumArray {
		return jen.Index().Id(ToGoName(f.Enum))
	}
	if f.Enum != "" {
		return nullable(jen.Id(ToGoName(f.Enum)), f.Nullable)
	}

	native := f.NativeType
	if elem, ok := goScalars[strings.TrimPrefix(native, "_")]; ok && strings.HasPrefix(native, "_") {
		return jen.Index().Add(elem())
	}

	ctor, ok := goScalars[native]
	if !ok {
		return jen.Interface()
	}
	if native == "json" || native == "jsonb" {
		return ctor()
	}
	return nullable(ctor(), f.Nullable)
}

// goNames records which database object claimed each Go identifier.
type goNames map[string]string

func (n goNames) claim(ident, owner string) error {
	if prev, ok := n[ident]; ok {
		return errs.Newf(errs.ErrKindInvalidInput, "%s and %s both map to Go identifier %s", prev, owner, ident)
	}
	n[ident] = owner
	return nil
}

// checkGoNames verifies that package-level identifiers are unique across
// enum types, enum constants, structs and the Tables map, and that field
// names are unique within each struct.
func checkGoNames(f *File) error {
	top := goNames{"Tables": "the table registry"}
	for _, e := range f.Enums {
		enumName := ToGoName(e.Name)
		if err := top.claim(enumName, "enum "+e.Name); err != nil {
			return err
		}
		for _, label := range e.Labels {
			if err := top.claim(enumName+ToGoName(label), fmt.Sprintf("label %q of enum %s", label, e.Name)); err != nil {
				return err
			}
		}
	}
	for _, r := range f.Records {
		if err := top.claim(ToGoName(r.Name), "table "+r.Name); err != nil {
			return err
		}
		fields := goNames{}
		for _, field := range r.Fields {
			if err := fields.claim(ToGoName(field.Name), "column "+r.Name+"."+field.Name); err != nil {
				return err
			}
		}
	}
	return nil
}

func nullable(base *jen.Statement, isNull bool) *jen.Statement {
	if isNull {
		return jen.Op("*").Add(base)
	}
	return base
}
