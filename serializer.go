package blobc

import "math"

const padByte = 0xFD

type blockPos struct {
	Block  int
	Offset int
}

type block struct {
	buf []byte
}

// reloc is a pending or placed relocation entry. Per spec.md §9's
// recommendation, pending and placed states are two distinct shapes
// (the `resolved` flag plus either a concrete destination or an owned
// pending Value), rather than the source's ad hoc type punning.
type reloc struct {
	src      blockPos
	resolved bool
	dst      blockPos
	extraOff int
	pending  Value
}

// Serializer is the layout engine described in spec.md §4.5: a
// multi-block writer that emits a value graph into a flat byte sequence
// with alignment padding, and a parallel relocation stream.
type Serializer struct {
	tm         TargetMachine
	blocks     []*block
	current    int
	blockStack []int
	locations  map[Value]blockPos
	relocs     []*reloc
	unresolved bool
}

func newSerializer(tm TargetMachine) *Serializer {
	return &Serializer{
		tm:        tm,
		blocks:    []*block{{}},
		current:   0,
		locations: map[Value]blockPos{},
	}
}

func (s *Serializer) here() blockPos {
	return blockPos{Block: s.current, Offset: len(s.blocks[s.current].buf)}
}

// divert pushes the current block and moves to the block for the next
// diversion depth, creating it only the first time that depth is
// reached. Per spec.md §4.5.2's "push a new target block (append if
// needed)" wording — and original_source/blobc/Layout.py's
// depth-indexed `_block_index` — two independent out-of-line targets
// diverted from the same depth land in the *same* growing block, one
// after the other, rather than each getting its own fresh block.
func (s *Serializer) divert() blockPos {
	s.blockStack = append(s.blockStack, s.current)
	idx := len(s.blockStack)
	if idx >= len(s.blocks) {
		s.blocks = append(s.blocks, &block{})
	}
	s.current = idx
	return s.here()
}

func (s *Serializer) resume() {
	n := len(s.blockStack)
	s.current = s.blockStack[n-1]
	s.blockStack = s.blockStack[:n-1]
}

func (s *Serializer) align(a int) {
	if a <= 1 {
		return
	}
	buf := &s.blocks[s.current].buf
	for len(*buf)%a != 0 {
		*buf = append(*buf, padByte)
	}
}

func (s *Serializer) write(b []byte) {
	buf := &s.blocks[s.current].buf
	*buf = append(*buf, b...)
}

func (s *Serializer) writeNullPtr() {
	s.write(make([]byte, s.tm.PointerSize))
}

func (s *Serializer) writePtrKnown(dst blockPos, extraOff int) {
	s.relocs = append(s.relocs, &reloc{src: s.here(), resolved: true, dst: dst, extraOff: extraOff})
	s.writeNullPtr()
}

func (s *Serializer) writePtrPending(pending Value, extraOff int) {
	s.relocs = append(s.relocs, &reloc{src: s.here(), resolved: false, pending: pending, extraOff: extraOff})
	s.unresolved = true
	s.writeNullPtr()
}

func (s *Serializer) updateLocation(v Value, pos blockPos) {
	s.locations[v] = pos
}

func (s *Serializer) locationOf(v Value) (blockPos, bool) {
	pos, ok := s.locations[v]
	return pos, ok
}

func layoutErr(format string, args ...any) error {
	return NewTypeSystemException(SourceLocation{File: "<value>"}, format, args...)
}

// typeAccepts implements spec.md §4.5.5's pointer-target legality rule.
// By-value struct members do not use it: serializeStructMember requires
// the value's struct type to be exactly the member's type.
func typeAccepts(target, actual ResolvedType) bool {
	if _, ok := target.(VoidType); ok {
		return true
	}
	if target == actual {
		return true
	}
	ts, tok := target.(*Struct)
	as, aok := actual.(*Struct)
	if tok && aok {
		return as.IsSupersetOf(ts)
	}
	return false
}

func checkIntRange(p *Primitive, v int64, loc SourceLocation) error {
	bits := uint(p.Size * 8)
	if p.Signed {
		if bits >= 64 {
			return nil
		}
		min := -(int64(1) << (bits - 1))
		max := (int64(1) << (bits - 1)) - 1
		if v < min || v > max {
			return NewTypeSystemException(loc, "integer value %d out of range for %d-byte signed primitive", v, p.Size)
		}
		return nil
	}
	if bits >= 64 {
		return nil
	}
	max := (int64(1) << bits) - 1
	if v < 0 || v > max {
		return NewTypeSystemException(loc, "integer value %d out of range for %d-byte unsigned primitive", v, p.Size)
	}
	return nil
}

func (s *Serializer) putUint(v uint64, size int) {
	buf := make([]byte, size)
	switch size {
	case 1:
		buf[0] = byte(v)
	case 2:
		s.tm.ByteOrder.PutUint16(buf, uint16(v))
	case 4:
		s.tm.ByteOrder.PutUint32(buf, uint32(v))
	case 8:
		s.tm.ByteOrder.PutUint64(buf, v)
	}
	s.write(buf)
}

// serializeValue is the type-directed dispatcher of spec.md §4.5.3.
func (s *Serializer) serializeValue(t ResolvedType, v Value) error {
	switch t := t.(type) {
	case *Primitive:
		return s.serializePrimitive(t, v)
	case *Enum:
		return s.serializeEnum(t, v)
	case *ArrayType:
		return s.serializeArrayMember(t, v)
	case *Struct:
		return s.serializeStructMember(t, v)
	case *PointerType:
		return s.serializePointer(t, v)
	default:
		return layoutErr("don't know how to serialize a value of type %s", t.TypeName())
	}
}

func (s *Serializer) serializePrimitive(p *Primitive, v Value) error {
	switch p.Kind {
	case PrimChar:
		cv, ok := v.(CharValue)
		if !ok {
			return layoutErr("expected a single-byte character value for %s", p.Name)
		}
		s.write([]byte{cv.V})
		return nil
	case PrimFloat:
		fv, ok := v.(FloatValue)
		if !ok {
			return layoutErr("expected a float value for %s", p.Name)
		}
		s.align(p.Size)
		if p.Size == 4 {
			s.putUint(uint64(math.Float32bits(float32(fv.V))), 4)
		} else {
			s.putUint(math.Float64bits(fv.V), 8)
		}
		return nil
	default: // PrimInt
		iv, ok := v.(IntValue)
		if !ok {
			return layoutErr("expected an integer value for %s", p.Name)
		}
		if err := checkIntRange(p, iv.V, SourceLocation{}); err != nil {
			return err
		}
		s.align(p.Size)
		s.putUint(uint64(iv.V), p.Size)
		return nil
	}
}

// serializeEnum writes the member's u32 value. Per spec.md §4.5.3, no
// alignment padding is inserted beyond natural flow.
func (s *Serializer) serializeEnum(e *Enum, v Value) error {
	ev, ok := v.(EnumValue)
	if !ok {
		return layoutErr("expected an enum value for %s", e.Name)
	}
	val, ok := ev.Enum.MemberValue(ev.Name)
	if !ok {
		return layoutErr("%s has no member '%s'", e.Name, ev.Name)
	}
	s.putUint(uint64(uint32(val)), 4)
	return nil
}

// serializeArrayMember handles a fixed-size array embedded by value
// directly in a struct (as opposed to one reached through a pointer).
func (s *Serializer) serializeArrayMember(t *ArrayType, v Value) error {
	av, ok := v.(*ArrayValue)
	if !ok {
		return layoutErr("expected an array literal for %s", t.TypeName())
	}
	if len(av.Items) != t.Dim {
		return layoutErr("array literal has %d items; expected %d", len(av.Items), t.Dim)
	}
	return s.serializeArrayLiteral(t.Elem, av)
}

// serializeArrayLiteral is the "Array[N] of T" rule from spec.md §4.5.3:
// align, record location, then serialize each item in order.
func (s *Serializer) serializeArrayLiteral(elem ResolvedType, av *ArrayValue) error {
	s.align(s.tm.AlignOf(elem))
	s.updateLocation(av, s.here())
	for _, item := range av.Items {
		if err := s.serializeValue(elem, item); err != nil {
			return err
		}
	}
	return nil
}

func (s *Serializer) serializeStructMember(t *Struct, v Value) error {
	sv, ok := v.(*StructValue)
	if !ok {
		return layoutErr("expected a struct literal for %s", t.Name)
	}
	if sv.StructType != t {
		return layoutErr("struct value of type %s assigned to field of type %s", sv.StructType.Name, t.Name)
	}
	return s.serializeStructLiteral(t, sv)
}

// serializeStructLiteral is the "Struct" rule from spec.md §4.5.3.
func (s *Serializer) serializeStructLiteral(t *Struct, sv *StructValue) error {
	s.align(s.tm.AlignOf(t))
	start := s.here()
	s.updateLocation(sv, start)
	for _, m := range t.Members {
		val, ok := sv.Fields[m.Name]
		if !ok {
			return layoutErr("missing value for field '%s' of struct %s", m.Name, t.Name)
		}
		if err := s.serializeValue(m.Type, val); err != nil {
			return err
		}
	}
	end := s.here()
	got := end.Offset - start.Offset
	want := s.tm.SizeOf(t)
	if end.Block != start.Block || got != want {
		return layoutErr("%s serialized to %d bytes; expected %d", t.Name, got, want)
	}
	return nil
}

func (s *Serializer) serializePointer(t *PointerType, v Value) error {
	switch pv := v.(type) {
	case NullValue:
		s.writeNullPtr()
		return nil
	case PtrToStruct:
		return s.serializePtrToStruct(t, pv)
	case PtrToArray:
		return s.serializePtrToArray(t, pv)
	case PtrOffset:
		return s.serializePtrOffset(t, pv)
	case CStringValue:
		return s.serializeCString(t, pv)
	default:
		return layoutErr("value is not a valid pointer payload for %s", t.TypeName())
	}
}

func (s *Serializer) serializePtrToStruct(t *PointerType, pv PtrToStruct) error {
	actual := ResolvedType(pv.Struct.StructType)
	if !typeAccepts(t.Target, actual) {
		return layoutErr("pointer to %s cannot point to incompatible type %s", t.Target.TypeName(), actual.TypeName())
	}
	if pos, ok := s.locationOf(pv.Struct); ok {
		s.writePtrKnown(pos, 0)
		return nil
	}
	s.divert()
	if err := s.serializeStructLiteral(pv.Struct.StructType, pv.Struct); err != nil {
		return err
	}
	s.resume()
	pos, _ := s.locationOf(pv.Struct)
	s.writePtrKnown(pos, 0)
	return nil
}

func (s *Serializer) serializePtrToArray(t *PointerType, pv PtrToArray) error {
	if !typeAccepts(t.Target, pv.Array.ElemType) {
		return layoutErr("pointer to %s cannot point to array of %s", t.Target.TypeName(), pv.Array.ElemType.TypeName())
	}
	if pos, ok := s.locationOf(pv.Array); ok {
		s.writePtrKnown(pos, 0)
		return nil
	}
	start := s.divert()
	if len(pv.Array.Items) > 0 {
		if err := s.serializeArrayLiteral(pv.Array.ElemType, pv.Array); err != nil {
			return err
		}
	} else {
		s.updateLocation(pv.Array, start)
	}
	s.resume()
	pos, _ := s.locationOf(pv.Array)
	s.writePtrKnown(pos, 0)
	return nil
}

func (s *Serializer) serializePtrOffset(t *PointerType, pv PtrOffset) error {
	if !typeAccepts(t.Target, pv.Array.ElemType) {
		return layoutErr("offset pointer to %s cannot point into array of %s", t.Target.TypeName(), pv.Array.ElemType.TypeName())
	}
	extra := pv.Index * s.tm.SizeOf(pv.Array.ElemType)
	if pos, ok := s.locationOf(pv.Array); ok {
		s.writePtrKnown(pos, extra)
		return nil
	}
	s.writePtrPending(pv.Array, extra)
	return nil
}

// serializeCString wraps the string as an Array of the char type with a
// trailing NUL and serializes it as an array-valued pointer.
func (s *Serializer) serializeCString(t *PointerType, pv CStringValue) error {
	items := make([]Value, 0, len(pv.Text)+1)
	for i := 0; i < len(pv.Text); i++ {
		items = append(items, CharValue{V: pv.Text[i]})
	}
	items = append(items, CharValue{V: 0})
	av := &ArrayValue{ElemType: pv.CharType, Items: items}
	return s.serializePtrToArray(t, PtrToArray{Array: av})
}

// freeze implements spec.md §4.5.4: resolve any remaining pending
// relocations (which may themselves create new ones), then concatenate
// blocks, patch pointer cells, and emit the relocation stream.
func (s *Serializer) freeze() ([]byte, []byte, error) {
	for s.unresolved {
		s.unresolved = false
		for i := 0; i < len(s.relocs); i++ {
			e := s.relocs[i]
			if e.resolved {
				continue
			}
			s.divert()
			var err error
			switch pv := e.pending.(type) {
			case *StructValue:
				err = s.serializeStructLiteral(pv.StructType, pv)
			case *ArrayValue:
				if len(pv.Items) > 0 {
					err = s.serializeArrayLiteral(pv.ElemType, pv)
				} else {
					s.updateLocation(pv, s.here())
				}
			default:
				err = layoutErr("pending relocation owns an unplaceable value")
			}
			s.resume()
			if err != nil {
				return nil, nil, err
			}
			pos, ok := s.locationOf(e.pending)
			if !ok {
				return nil, nil, layoutErr("internal: pending value was never placed")
			}
			e.dst = pos
			e.resolved = true
		}
	}

	bases := make([]int, len(s.blocks))
	total := 0
	for i, b := range s.blocks {
		bases[i] = total
		total += len(b.buf)
	}
	blob := make([]byte, 0, total)
	for _, b := range s.blocks {
		blob = append(blob, b.buf...)
	}

	relocStream := make([]byte, 0, 4*len(s.relocs))
	for _, e := range s.relocs {
		absDst := bases[e.dst.Block] + e.dst.Offset + e.extraOff
		absSrc := bases[e.src.Block] + e.src.Offset

		ptrBuf := make([]byte, s.tm.PointerSize)
		if s.tm.PointerSize == 8 {
			s.tm.ByteOrder.PutUint64(ptrBuf, uint64(absDst))
		} else {
			s.tm.ByteOrder.PutUint32(ptrBuf, uint32(absDst))
		}
		copy(blob[absSrc:absSrc+s.tm.PointerSize], ptrBuf)

		relocEntry := make([]byte, 4)
		s.tm.ByteOrder.PutUint32(relocEntry, uint32(absSrc))
		relocStream = append(relocStream, relocEntry...)
	}

	return blob, relocStream, nil
}

// Layout serializes root (a literal of type rootType) under tm,
// producing the concatenated blob and its relocation stream — the
// top-level entry point described in spec.md §2/§4.5.
func Layout(tm TargetMachine, rootType *Struct, root *StructValue) ([]byte, []byte, error) {
	if root.StructType != rootType {
		return nil, nil, layoutErr("root value of type %s does not match root type %s", root.StructType.Name, rootType.Name)
	}
	s := newSerializer(tm)
	if err := s.serializeStructLiteral(rootType, root); err != nil {
		return nil, nil, err
	}
	return s.freeze()
}
