package codegen

import (
	"crypto/md5"
	"fmt"
	"io"
	"strings"

	"github.com/clarete/blobc"
)

// CGenerator emits a C header whose struct layout matches the
// serializer's, grounded on original_source/blobc/codegen/CGenerator.py:
// a `#ifndef` guard keyed off the filename's hash, one typedef per
// primitive, a forward-declared struct tag per struct visited, and the
// full member lists written out in Finish once every struct is known
// (so a struct can reference one declared after it).
type CGenerator struct {
	filename string
	w        io.Writer
	structs  []*blobc.Struct
}

func NewCGenerator(filename string, w io.Writer) *CGenerator {
	return &CGenerator{filename: filename, w: w}
}

func (g *CGenerator) guard() string {
	sum := md5.Sum([]byte(g.filename))
	return fmt.Sprintf("BLOBC_%x", sum)
}

func (g *CGenerator) WriteHeader() error {
	guard := g.guard()
	return writeString(g.w, fmt.Sprintf("#ifndef %s\n#define %s\n\n#include <stdint.h>\n\n", guard, guard))
}

func (g *CGenerator) VisitPrimitive(p *blobc.Primitive) error {
	if p.External {
		return nil
	}
	return writeString(g.w, fmt.Sprintf("typedef %s %s;\n", cPrimName(p), p.Name))
}

func cPrimName(p *blobc.Primitive) string {
	switch p.Kind {
	case blobc.PrimFloat:
		if p.Size == 4 {
			return "float"
		}
		return "double"
	case blobc.PrimChar:
		return "char"
	default:
		if p.Signed {
			return fmt.Sprintf("int%d_t", p.Size*8)
		}
		return fmt.Sprintf("uint%d_t", p.Size*8)
	}
}

func (g *CGenerator) VisitStruct(s *blobc.Struct) error {
	g.structs = append(g.structs, s)
	return writeString(g.w, fmt.Sprintf("struct %s_TAG;\n", s.Name))
}

func (g *CGenerator) VisitEnum(e *blobc.Enum) error {
	var b strings.Builder
	fmt.Fprintf(&b, "typedef enum %s_TAG {\n", e.Name)
	for _, m := range e.Members {
		fmt.Fprintf(&b, "\t%s_%s = %d,\n", e.Name, m.Name, m.Value)
	}
	fmt.Fprintf(&b, "} %s;\n", e.Name)
	return writeString(g.w, b.String())
}

func (g *CGenerator) Finish() error {
	for _, t := range g.structs {
		var b strings.Builder
		fmt.Fprintf(&b, "\ntypedef struct %s_TAG {\n", t.Name)
		for _, m := range t.Members {
			fmt.Fprintf(&b, "\t%s;\n", g.vardef(m.Type, m.Name))
		}
		fmt.Fprintf(&b, "} %s;\n", t.Name)
		if err := writeString(g.w, b.String()); err != nil {
			return err
		}
	}
	return writeString(g.w, "\n#endif\n")
}

// vardef renders a C declarator for a member, unwrapping array and
// pointer layers the way CGenerator.py's vardef does.
func (g *CGenerator) vardef(t blobc.ResolvedType, name string) string {
	switch n := t.(type) {
	case *blobc.Struct:
		return fmt.Sprintf("struct %s_TAG %s", n.Name, name)
	case *blobc.Enum:
		return fmt.Sprintf("%s %s", n.Name, name)
	case *blobc.ArrayType:
		return fmt.Sprintf("%s[%d]", g.vardef(n.Elem, name), n.Dim)
	case *blobc.PointerType:
		return fmt.Sprintf("%s*%s", g.vardef(n.Target, ""), name)
	case *blobc.Primitive:
		return fmt.Sprintf("%s %s", n.Name, name)
	case blobc.VoidType:
		return strings.TrimSpace("void " + name)
	default:
		return strings.TrimSpace("void " + name)
	}
}
