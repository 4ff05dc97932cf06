// Package graphql holds the catalog GraphQL contract: the embedded SDL, Go
// mirrors of the types this service exchanges, and a small client that only
// sends operations validated against that SDL.
package graphql

import (
	_ "embed"
	"fmt"
	"sync"

	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"
)

//go:embed schema.graphql
var sdl string

var (
	loadOnce sync.Once
	loaded   *ast.Schema
	loadErr  error
)

// SDL returns the schema source.
func SDL() string {
	return sdl
}

// Schema parses and validates the embedded SDL once.
func Schema() (*ast.Schema, error) {
	loadOnce.Do(func() {
		s, err := gqlparser.LoadSchema(&ast.Source{Name: "schema.graphql", Input: sdl})
		if err != nil {
			loadErr = fmt.Errorf("loading catalog schema: %w", err)
			return
		}
		loaded = s
	})
	return loaded, loadErr
}

// Validate checks that query is a valid document against the catalog schema.
func Validate(query string) (*ast.QueryDocument, error) {
	s, err := Schema()
	if err != nil {
		return nil, err
	}
	doc, errs := gqlparser.LoadQuery(s, query)
	if len(errs) > 0 {
		return nil, fmt.Errorf("invalid operation: %w", errs)
	}
	return doc, nil
}
