package generator

import (
	"regexp"
	"strings"

	"github.com/koustreak/knexgen/internal/schema"
)

// Header is the first line of every generated TypeScript file.
const Header = "// This file is auto-generated. Do not edit it manually."

// registryModule is the knex module whose Tables interface is augmented.
const registryModule = "knex/types/tables"

var identRe = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)

// Generate builds and renders s as a TypeScript declaration file.
func Generate(s *schema.Schema) (string, error) {
	f, err := Build(s)
	if err != nil {
		return "", err
	}
	return Render(f), nil
}

// Render serializes f as TypeScript: header, enum unions, record
// interfaces and the knex Tables registry, separated by blank lines.
func Render(f *File) string {
	sections := []string{Header}

	if len(f.Enums) > 0 {
		decls := make([]string, len(f.Enums))
		for i, e := range f.Enums {
			decls[i] = renderEnum(e)
		}
		sections = append(sections, strings.Join(decls, "\n\n"))
	}

	if len(f.Records) > 0 {
		decls := make([]string, len(f.Records))
		for i, r := range f.Records {
			decls[i] = renderRecord(r)
		}
		sections = append(sections, strings.Join(decls, "\n\n"))
	}

	sections = append(sections, renderRegistry(f.Registry))

	return strings.Join(sections, "\n\n") + "\n"
}

func renderEnum(e EnumDecl) string {
	if len(e.Labels) == 0 {
		return "export type " + e.Name + " = never;"
	}
	members := make([]string, len(e.Labels))
	for i, l := range e.Labels {
		members[i] = "  " + quote(l)
	}
	return "export type " + e.Name + " =\n" + strings.Join(members, " |\n") + ";"
}

func renderRecord(r RecordDecl) string {
	var b strings.Builder
	b.WriteString("export interface " + r.Name + " {\n")
	for i, f := range r.Fields {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString("  /**\n")
		if f.Comment != nil {
			for _, line := range strings.Split(*f.Comment, "\n") {
				b.WriteString(strings.TrimRight("   * "+docText(line), " ") + "\n")
			}
		}
		def := "null"
		if f.Default != nil {
			def = docText(*f.Default)
		}
		b.WriteString("   * @default " + def + "\n")
		b.WriteString("   */\n")
		b.WriteString("  " + propertyKey(f.Name) + ": " + f.Type + ";\n")
	}
	b.WriteString("}")
	return b.String()
}

func renderRegistry(entries []RegistryEntry) string {
	var b strings.Builder
	b.WriteString("declare module '" + registryModule + "' {\n")
	b.WriteString("  interface Tables {\n")
	for _, e := range entries {
		b.WriteString("    " + propertyKey(e.Table) + ": " + e.Record + ";\n")
	}
	b.WriteString("  }\n")
	b.WriteString("}")
	return b.String()
}

// quote renders s as a single-quoted string literal.
func quote(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`, "\n", `\n`, "\r", `\r`)
	return "'" + r.Replace(s) + "'"
}

// propertyKey leaves identifiers bare and quotes anything else.
func propertyKey(name string) string {
	if identRe.MatchString(name) {
		return name
	}
	return quote(name)
}

// docText keeps a line from closing the surrounding JSDoc block.
func docText(s string) string {
	return strings.ReplaceAll(strings.TrimRight(s, "\r"), "*/", `*\/`)
}
