// Package graph exposes the ledger through a GraphQL query surface.
//
// Singular lookup fields go through per-request batched loaders, plural
// fields go through the cursor-pagination bridge, and every plural field
// returns the standard edges/cursor/pageInfo envelope.
package graph

import (
	_ "embed"

	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"
)

//go:embed schema.graphql
var schemaSDL string

// SDL returns the schema source served by this gateway.
func SDL() string { return schemaSDL }

// LoadSchema parses and validates the embedded schema.
func LoadSchema() (*ast.Schema, error) {
	return gqlparser.LoadSchema(&ast.Source{Name: "schema.graphql", Input: schemaSDL})
}
