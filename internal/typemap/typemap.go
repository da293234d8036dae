// Package typemap maps PostgreSQL native type identifiers (pg_type.typname,
// e.g. "int4", "_text") to TypeScript type expressions.
package typemap

// Unknown is the expression emitted for any native type the table does not
// cover. It is a fallback, never an error.
const Unknown = "unknown"

// Null is the marker unioned onto nullable columns.
const Null = "null"

// scalars holds the non-array entries; array entries are derived from it in
// init so the two can never drift apart.
var scalars = map[string]string{
	// Numeric types
	"int2":    "number",
	"int4":    "number",
	"int8":    "string", // bigint as string to avoid precision loss
	"float4":  "number",
	"float8":  "number",
	"numeric": "string", // decimal as string to avoid precision loss
	"money":   "string",

	// Character types
	"varchar": "string",
	"char":    "string",
	"bpchar":  "string",
	"text":    "string",
	"citext":  "string",
	"uuid":    "string",

	// Boolean type
	"bool": "boolean",

	// Date/Time types
	"timestamp":   "Date",
	"timestamptz": "Date",
	"date":        "Date",
	"time":        "string",
	"timetz":      "string",
	"interval":    "string",

	// JSON types are opaque, their shape is not introspected
	"json":  Unknown,
	"jsonb": Unknown,

	// Network address types
	"inet":     "string",
	"cidr":     "string",
	"macaddr":  "string",
	"macaddr8": "string",

	// Geometric types
	"point":   "string",
	"line":    "string",
	"lseg":    "string",
	"box":     "string",
	"path":    "string",
	"polygon": "string",
	"circle":  "string",
}

var table map[string]string

func init() {
	table = make(map[string]string, 2*len(scalars))
	for name, ts := range scalars {
		table[name] = ts
		// pg_type names the one-dimensional array of T as "_T".
		table["_"+name] = ts + "[]"
	}
}

// Lookup returns the mapped expression for nativeType and whether the table
// knows it. Enum names are not consulted.
func Lookup(nativeType string) (string, bool) {
	ts, ok := table[nativeType]
	return ts, ok
}

// MapType resolves nativeType to a TypeScript type expression. Enum names
// take precedence over the table so an enum column references its generated
// union type, and "_" + enum becomes an array of it. Anything else not in
// the table maps to Unknown.
func MapType(nativeType string, enums EnumSet) string {
	if enums.Has(nativeType) {
		return nativeType
	}
	if elem, ok := EnumElem(nativeType, enums); ok {
		return elem + "[]"
	}
	if ts, ok := table[nativeType]; ok {
		return ts
	}
	return Unknown
}

// EnumElem reports whether nativeType is the array type of an enum in
// enums, and returns that enum's name.
func EnumElem(nativeType string, enums EnumSet) (string, bool) {
	if len(nativeType) < 2 || nativeType[0] != '_' || enums.Has(nativeType) {
		return "", false
	}
	elem := nativeType[1:]
	return elem, enums.Has(elem)
}

// Nullable applies the nullability modifier to an already resolved
// expression.
func Nullable(expr string, nullable bool) string {
	if nullable {
		return expr + " | " + Null
	}
	return expr
}

// Column is MapType followed by Nullable.
func Column(nativeType string, nullable bool, enums EnumSet) string {
	return Nullable(MapType(nativeType, enums), nullable)
}

// EnumSet is the set of enum type names known for one schema.
type EnumSet map[string]struct{}

// NewEnumSet builds an EnumSet from names.
func NewEnumSet(names ...string) EnumSet {
	s := make(EnumSet, len(names))
	for _, n := range names {
		s[n] = struct{}{}
	}
	return s
}

// Has reports membership. A nil set has no members.
func (s EnumSet) Has(name string) bool {
	_, ok := s[name]
	return ok
}
