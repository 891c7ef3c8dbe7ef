package blobc

// Value is the closed interface for the in-memory tree passed into the
// serializer: integers, floats, characters, enum references, struct and
// array literals, null, and the three pointer-value shapes (to a struct,
// to an array literal, or an offset into an already-placed array).
type Value interface {
	isValue()
}

type IntValue struct{ V int64 }

func (IntValue) isValue() {}

type FloatValue struct{ V float64 }

func (FloatValue) isValue() {}

// CharValue holds a single-byte string per spec.md §8's boundary
// ("a character value must be a single-byte string").
type CharValue struct{ V byte }

func (CharValue) isValue() {}

type EnumValue struct {
	Enum *Enum
	Name string
}

func (EnumValue) isValue() {}

// StructValue is keyed by field name; StructType pins the static struct
// type the literal was built for (used for pointer-legality checks).
type StructValue struct {
	StructType *Struct
	Fields     map[string]Value
}

func (*StructValue) isValue() {}

// ArrayValue is an ordered literal `[v0, v1, ...]` of a known element type.
type ArrayValue struct {
	ElemType ResolvedType
	Items    []Value
}

func (*ArrayValue) isValue() {}

type NullValue struct{}

func (NullValue) isValue() {}

// PtrToStruct is a pointer value aimed at a struct literal.
type PtrToStruct struct {
	Struct *StructValue
}

func (PtrToStruct) isValue() {}

// PtrToArray is a pointer value aimed at an array literal (the pointer
// itself owns the array; serializing it diverts, serializes the array,
// resumes, and writes the pointer).
type PtrToArray struct {
	Array *ArrayValue
}

func (PtrToArray) isValue() {}

// PtrOffset is a pointer value aimed at element Index of an
// already-known array value (spec.md's "offset pointer").
type PtrOffset struct {
	Array *ArrayValue
	Index int
}

func (PtrOffset) isValue() {}

// CStringValue wraps a Go string destined to become a NUL-terminated
// char array reached via a pointer.
type CStringValue struct {
	CharType *Primitive
	Text     string
}

func (CStringValue) isValue() {}
