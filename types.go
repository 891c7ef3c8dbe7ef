package blobc

// ResolvedType is the closed interface for blobc's type system: Void,
// Primitive, Enum, Struct, Pointer and Array. Pointer and Array are
// structurally interned per base type (see typeInterner below).
type ResolvedType interface {
	TypeName() string
}

type VoidType struct{}

func (VoidType) TypeName() string { return "void" }

var theVoid = VoidType{}

type PrimitiveKind int

const (
	PrimInt PrimitiveKind = iota
	PrimFloat
	PrimChar
)

type Primitive struct {
	Name     string
	Kind     PrimitiveKind
	Size     int
	Signed   bool
	External bool // spec.md §9 supplement: declared-but-not-defined-here
	Loc      SourceLocation
}

func (p *Primitive) TypeName() string { return p.Name }

// PointerType is also used to represent cstrings (IsCString true), keyed
// distinctly from a plain pointer to the same element type per spec.md §3.
type PointerType struct {
	Target    ResolvedType
	IsCString bool
}

func (p *PointerType) TypeName() string {
	if p.IsCString {
		return "__cstring<" + p.Target.TypeName() + ">"
	}
	return p.Target.TypeName() + "*"
}

type ArrayType struct {
	Elem ResolvedType
	Dim  int
}

func (a *ArrayType) TypeName() string {
	return a.Elem.TypeName() + "[]"
}

type EnumMemberValue struct {
	Name  string
	Value int64
}

type Enum struct {
	Name    string
	Members []EnumMemberValue
	Scope   *ConstantScope
	Loc     SourceLocation
}

func (e *Enum) TypeName() string { return e.Name }

func (e *Enum) MemberValue(name string) (int64, bool) {
	for _, m := range e.Members {
		if m.Name == name {
			return m.Value, true
		}
	}
	return 0, false
}

type StructMember struct {
	Name   string
	Type   ResolvedType
	Opts   []Option
	Loc    SourceLocation
	Offset int // filled by SizeOf/AlignOf for a given TargetMachine
}

type Struct struct {
	Name    string
	Base    *Struct
	Members []StructMember // includes inherited members, base's first
	Loc     SourceLocation
}

func (s *Struct) TypeName() string { return s.Name }

// IsSupersetOf reports whether s is other, or inherits from other
// (directly or transitively) via the base chain — the reflexive-
// transitive closure spec.md §3 requires.
func (s *Struct) IsSupersetOf(other *Struct) bool {
	for c := s; c != nil; c = c.Base {
		if c == other {
			return true
		}
	}
	return false
}

// ownMemberCount returns how many of s's members are declared directly
// on s, excluding those inherited from Base.
func (s *Struct) ownMemberCount() int {
	if s.Base == nil {
		return len(s.Members)
	}
	return len(s.Members) - len(s.Base.Members)
}

// typeInterner externalizes the pointer/array structural-deduplication
// cache away from each base type node, per spec.md §9's recommended
// design (keyed externally by (base, dim-or-cstring) rather than
// interior-mutable caches hung off every type).
type typeInterner struct {
	pointers  map[ResolvedType]*PointerType
	cstrings  map[ResolvedType]*PointerType
	arrays    map[arrayKey]*ArrayType
}

type arrayKey struct {
	base ResolvedType
	dim  int
}

func newTypeInterner() *typeInterner {
	return &typeInterner{
		pointers: map[ResolvedType]*PointerType{},
		cstrings: map[ResolvedType]*PointerType{},
		arrays:   map[arrayKey]*ArrayType{},
	}
}

func (ti *typeInterner) Pointer(target ResolvedType) *PointerType {
	if p, ok := ti.pointers[target]; ok {
		return p
	}
	p := &PointerType{Target: target}
	ti.pointers[target] = p
	return p
}

func (ti *typeInterner) CString(elem ResolvedType) *PointerType {
	if p, ok := ti.cstrings[elem]; ok {
		return p
	}
	p := &PointerType{Target: elem, IsCString: true}
	ti.cstrings[elem] = p
	return p
}

func (ti *typeInterner) Array(base ResolvedType, dim int) *ArrayType {
	key := arrayKey{base: base, dim: dim}
	if a, ok := ti.arrays[key]; ok {
		return a
	}
	a := &ArrayType{Elem: base, Dim: dim}
	ti.arrays[key] = a
	return a
}

// TypeSystem is the registry produced by BuildTypeSystem: resolved types
// by name, in declaration order, plus the root constant scope and the
// shared interner.
type TypeSystem struct {
	Order     []string // declaration order of Primitive/Struct/Enum names
	Types     map[string]ResolvedType
	Constants map[string]int64
	ConstOrder []string
	RootScope *ConstantScope
	Generators []*RawGeneratorConfig

	interner *typeInterner
}

func (ts *TypeSystem) Struct(name string) (*Struct, bool) {
	t, ok := ts.Types[name]
	if !ok {
		return nil, false
	}
	s, ok := t.(*Struct)
	return s, ok
}

func (ts *TypeSystem) Enum(name string) (*Enum, bool) {
	t, ok := ts.Types[name]
	if !ok {
		return nil, false
	}
	e, ok := t.(*Enum)
	return e, ok
}
