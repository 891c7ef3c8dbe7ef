package blobc

// RawItem is the sum of top-level items the parser emits: primitives,
// structs, enums, integer constants, imports, and generator-config
// statements. Each carries its own SourceLocation for diagnostics.
type RawItem interface {
	Location() SourceLocation
}

// OptValueKind discriminates the kind of value an Option's positional or
// keyed slot holds.
type OptValueKind int

const (
	OptInt OptValueKind = iota
	OptString
	OptIdent
)

type OptValue struct {
	Kind OptValueKind
	Int  int64
	Str  string
}

// Option is one `name` or `name(k=v, v, ...)` entry from an opt_list.
type Option struct {
	Name       string
	Positional []OptValue
	Keyed      map[string]OptValue
	Loc        SourceLocation
}

func (o Option) Get(key string) (OptValue, bool) {
	v, ok := o.Keyed[key]
	return v, ok
}

// RawPrimitiveClass is the `uint|sint|float|character` class tag.
type RawPrimitiveClass int

const (
	ClassUint RawPrimitiveClass = iota
	ClassSint
	ClassFloat
	ClassChar
)

type RawPrimitive struct {
	Name string
	Class RawPrimitiveClass
	Size int
	Opts []Option
	Loc  SourceLocation
}

func (r *RawPrimitive) Location() SourceLocation { return r.Loc }

// RawTypeRef is the parse-tree representation of a member/pointer/array
// type expression, resolved later by the type builder.
type RawTypeRef struct {
	// Exactly one of Name, Void, or Cstring is set for the base type.
	Name    string
	Void    bool
	Cstring *RawTypeRef

	// Pointer/array wrapping in source order: the first entry wraps the
	// base type, each later entry wraps the result of the one before.
	// A WrapPointer entry is a `*`; a WrapArray entry is one `[...]`
	// group whose Dims are applied left to right.
	Wraps []RawWrap
	Loc   SourceLocation
}

type RawWrapKind int

const (
	WrapPointer RawWrapKind = iota
	WrapArray
)

type RawWrap struct {
	Kind RawWrapKind
	Dims []Expression // for WrapArray; one expression per `[...]` group
}

type RawMember struct {
	Name string
	Type RawTypeRef
	Opts []Option
	Loc  SourceLocation
}

type RawStruct struct {
	Name    string
	Opts    []Option
	Members []RawMember
	Loc     SourceLocation
}

func (r *RawStruct) Location() SourceLocation { return r.Loc }

type RawEnumMember struct {
	Name  string
	Value Expression // nil means implicit prev+1 / 0
	Loc   SourceLocation
}

type RawEnum struct {
	Name    string
	Members []RawEnumMember
	Loc     SourceLocation
}

func (r *RawEnum) Location() SourceLocation { return r.Loc }

type RawConstant struct {
	Name  string
	Value Expression
	Loc   SourceLocation
}

func (r *RawConstant) Location() SourceLocation { return r.Loc }

type RawImport struct {
	Path string
	Loc  SourceLocation
}

func (r *RawImport) Location() SourceLocation { return r.Loc }

type RawGeneratorConfig struct {
	Name string
	Opts []Option
	Loc  SourceLocation
}

func (r *RawGeneratorConfig) Location() SourceLocation { return r.Loc }

// Unit is everything parsed out of one file, pre-import-resolution.
type Unit struct {
	Items []RawItem
}
