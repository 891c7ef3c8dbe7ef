// Package codegen holds the read-only type-system consumers that emit
// host-language declarations matching a compiled binary layout. Per the
// core contract, generators are collaborators: they read a
// *blobc.TypeSystem and write text, and their output dialects carry no
// weight in the layout engine itself.
package codegen

import (
	"io"

	"github.com/clarete/blobc"
)

// Generator is implemented by each target-language emitter. Primitive
// and Struct are visited in declaration order; Finish is called once
// after every type has been visited, to emit anything that needs the
// full set (e.g. closing a header guard).
type Generator interface {
	VisitPrimitive(p *blobc.Primitive) error
	VisitStruct(s *blobc.Struct) error
	VisitEnum(e *blobc.Enum) error
	Finish() error
}

// Run walks ts.Order, dispatching each declared type to g, then calls
// g.Finish. Types whose SourceLocation is marked IsImport are skipped
// unless includeImports is true — the generator-side half of the
// `-m`/merge-imports CLI option (spec.md §6).
func Run(ts *blobc.TypeSystem, g Generator, includeImports bool) error {
	for _, name := range ts.Order {
		switch t := ts.Types[name].(type) {
		case *blobc.Primitive:
			if !includeImports && t.Loc.IsImport {
				continue
			}
			if err := g.VisitPrimitive(t); err != nil {
				return err
			}
		case *blobc.Struct:
			if !includeImports && t.Loc.IsImport {
				continue
			}
			if err := g.VisitStruct(t); err != nil {
				return err
			}
		case *blobc.Enum:
			if !includeImports && t.Loc.IsImport {
				continue
			}
			if err := g.VisitEnum(t); err != nil {
				return err
			}
		}
	}
	return g.Finish()
}

// writeString is a small helper shared by emitters, matching the
// teacher's gen_*.go style of writing straight to an io.Writer rather
// than building an intermediate string tree.
func writeString(w io.Writer, s string) error {
	_, err := io.WriteString(w, s)
	return err
}
