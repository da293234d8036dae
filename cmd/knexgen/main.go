// Command knexgen reads a PostgreSQL schema and writes typed declarations
// for it: TypeScript for Knex, or Go structs.
package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"
)

var cli struct {
	Generate GenerateCmd `cmd:"" help:"Introspect a schema and write its type declarations."`
	Serve    ServeCmd    `cmd:"" help:"Serve generated declarations over HTTP."`
}

func main() {
	ctx := kong.Parse(&cli,
		kong.Name("knexgen"),
		kong.Description("Generate TypeScript (Knex) or Go declarations from a PostgreSQL schema."),
		kong.UsageOnError(),
	)

	if err := ctx.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
