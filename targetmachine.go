package blobc

import "encoding/binary"

// TargetMachine is an immutable value object describing pointer size,
// pointer alignment, and endianness, plus a memoized per-type size/align
// cache. Per spec.md §4.4.1/§9, the cache must never cross machines —
// each TargetMachine value owns its own cache instance.
type TargetMachine struct {
	PointerSize  int
	PointerAlign int
	ByteOrder    binary.ByteOrder

	cache *sizeAlignCache
}

type sizeAlignCache struct {
	size  map[ResolvedType]int
	align map[ResolvedType]int
}

func NewTargetMachine(pointerSize int, order binary.ByteOrder) TargetMachine {
	return TargetMachine{
		PointerSize:  pointerSize,
		PointerAlign: pointerSize,
		ByteOrder:    order,
		cache:        &sizeAlignCache{size: map[ResolvedType]int{}, align: map[ResolvedType]int{}},
	}
}

func TargetMachine32BE() TargetMachine { return NewTargetMachine(4, binary.BigEndian) }
func TargetMachine32LE() TargetMachine { return NewTargetMachine(4, binary.LittleEndian) }
func TargetMachine64BE() TargetMachine { return NewTargetMachine(8, binary.BigEndian) }
func TargetMachine64LE() TargetMachine { return NewTargetMachine(8, binary.LittleEndian) }

// SizeOf and AlignOf are memoized per (type, machine) as spec.md §4.4.1
// requires. Struct computation also populates each StructMember's Offset.
func (tm TargetMachine) SizeOf(t ResolvedType) int {
	if v, ok := tm.cache.size[t]; ok {
		return v
	}
	size, align := tm.computeStruct(t)
	if align == -1 {
		size, align = tm.computeLeaf(t)
	}
	tm.cache.size[t] = size
	tm.cache.align[t] = align
	return size
}

func (tm TargetMachine) AlignOf(t ResolvedType) int {
	if v, ok := tm.cache.align[t]; ok {
		return v
	}
	tm.SizeOf(t) // populates both caches
	return tm.cache.align[t]
}

// computeLeaf handles every ResolvedType kind except Struct.
func (tm TargetMachine) computeLeaf(t ResolvedType) (size, align int) {
	switch n := t.(type) {
	case *Primitive:
		return n.Size, n.Size
	case *PointerType:
		return tm.PointerSize, tm.PointerAlign
	case *ArrayType:
		elemSize := tm.SizeOf(n.Elem)
		elemAlign := tm.AlignOf(n.Elem)
		return n.Dim * elemSize, elemAlign
	case *Enum:
		return 4, 4
	case VoidType:
		return 0, 1
	default:
		panic("computeLeaf: unknown ResolvedType")
	}
}

// computeStruct returns (-1,-1) to signal "not a struct", deferring to
// computeLeaf, otherwise lays out members in order, offsetting each at
// the next multiple of its alignment, and rounds the total size up to
// the struct's own alignment (the max member alignment, or 1 if empty).
func (tm TargetMachine) computeStruct(t ResolvedType) (size, align int) {
	st, ok := t.(*Struct)
	if !ok {
		return -1, -1
	}
	offset := 0
	maxAlign := 1
	for i := range st.Members {
		m := &st.Members[i]
		a := tm.AlignOf(m.Type)
		if a > maxAlign {
			maxAlign = a
		}
		offset = roundUp(offset, a)
		m.Offset = offset
		offset += tm.SizeOf(m.Type)
	}
	size = roundUp(offset, maxAlign)
	return size, maxAlign
}

func roundUp(v, align int) int {
	if align <= 1 {
		return v
	}
	rem := v % align
	if rem == 0 {
		return v
	}
	return v + (align - rem)
}
