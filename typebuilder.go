package blobc

// BuildTypeSystem runs the four-pass construction described in spec.md
// §4.4 over a flattened (import-resolved) item list, in the teacher's
// sequential-pipeline idiom (grammar_compiler.go's
// AddBuiltins → InjectWhitespaces → AddCaptures → Compile chain,
// generalized from AST transforms to type-system passes).
func BuildTypeSystem(items []RawItem) (*TypeSystem, error) {
	ts := &TypeSystem{
		Types:     map[string]ResolvedType{},
		Constants: map[string]int64{},
		RootScope: NewRootScope(),
		interner:  newTypeInterner(),
	}

	structsByName := map[string]*RawStruct{}
	if err := declareNames(items, ts, structsByName); err != nil {
		return nil, err
	}
	if err := evaluateConstants(items, ts); err != nil {
		return nil, err
	}
	if err := resolveMembers(items, ts, structsByName); err != nil {
		return nil, err
	}
	if err := checkRecursion(ts); err != nil {
		return nil, err
	}

	for _, item := range items {
		if gc, ok := item.(*RawGeneratorConfig); ok {
			ts.Generators = append(ts.Generators, gc)
		}
	}

	return ts, nil
}

// pass 1: declare names, failing on duplicate and recording declaration order.
func declareNames(items []RawItem, ts *TypeSystem, structsByName map[string]*RawStruct) error {
	for _, item := range items {
		switch n := item.(type) {
		case *RawPrimitive:
			if _, exists := ts.Types[n.Name]; exists {
				return NewTypeSystemException(n.Loc, "duplicate type '%s'", n.Name)
			}
			prim := &Primitive{Name: n.Name, Size: n.Size, External: hasOpt(n.Opts, "external"), Loc: n.Loc}
			switch n.Class {
			case ClassUint:
				prim.Kind = PrimInt
				prim.Signed = false
			case ClassSint:
				prim.Kind = PrimInt
				prim.Signed = true
			case ClassFloat:
				prim.Kind = PrimFloat
			case ClassChar:
				prim.Kind = PrimChar
			}
			ts.Types[n.Name] = prim
			ts.Order = append(ts.Order, n.Name)
		case *RawStruct:
			if _, exists := ts.Types[n.Name]; exists {
				return NewTypeSystemException(n.Loc, "duplicate type '%s'", n.Name)
			}
			st := &Struct{Name: n.Name, Loc: n.Loc}
			ts.Types[n.Name] = st
			ts.Order = append(ts.Order, n.Name)
			structsByName[n.Name] = n
		case *RawEnum:
			if _, exists := ts.Types[n.Name]; exists {
				return NewTypeSystemException(n.Loc, "duplicate type '%s'", n.Name)
			}
			en := &Enum{Name: n.Name, Loc: n.Loc, Scope: ts.RootScope.Child(n.Name)}
			ts.Types[n.Name] = en
			ts.Order = append(ts.Order, n.Name)
		case *RawImport:
			return NewTypeSystemException(n.Loc, "unresolved import reached the type builder")
		}
	}
	return nil
}

func hasOpt(opts []Option, name string) bool {
	for _, o := range opts {
		if o.Name == name {
			return true
		}
	}
	return false
}

// pass 2: evaluate enum members (in the enum's own scope), then iconsts
// (in the root scope). Enums are evaluated in a sub-pass ahead of iconsts
// — not strict source order — so an iconst may reference a member of an
// enum declared later in the file, matching original_source/blobc's
// Typesys.py evaluation order (every enum's scope is fully populated
// before any iconst expression is evaluated).
func evaluateConstants(items []RawItem, ts *TypeSystem) error {
	for _, item := range items {
		en, ok := item.(*RawEnum)
		if !ok {
			continue
		}
		enum, _ := ts.Enum(en.Name)
		prev := int64(-1)
		for _, m := range en.Members {
			var value int64
			if m.Value != nil {
				v, err := m.Value.Eval(enum.Scope, m.Loc)
				if err != nil {
					return err
				}
				value = v
			} else {
				value = prev + 1
			}
			prev = value
			if !enum.Scope.Define(m.Name, value) {
				return NewTypeSystemException(m.Loc, "duplicate enum member '%s.%s'", en.Name, m.Name)
			}
			enum.Members = append(enum.Members, EnumMemberValue{Name: m.Name, Value: value})
		}
	}

	for _, item := range items {
		n, ok := item.(*RawConstant)
		if !ok {
			continue
		}
		v, err := n.Value.Eval(ts.RootScope, n.Loc)
		if err != nil {
			return err
		}
		if !ts.RootScope.Define(n.Name, v) {
			return NewTypeSystemException(n.Loc, "redefinition of constant '%s'", n.Name)
		}
		ts.Constants[n.Name] = v
		ts.ConstOrder = append(ts.ConstOrder, n.Name)
	}
	return nil
}

// pass 3: resolve struct members (applying `base`, interning
// pointer/array/cstring types along the way).
func resolveMembers(items []RawItem, ts *TypeSystem, structsByName map[string]*RawStruct) error {
	resolved := map[string]bool{}
	var resolveOne func(name string) error
	resolveOne = func(name string) error {
		if resolved[name] {
			return nil
		}
		raw, ok := structsByName[name]
		if !ok {
			// not a struct (primitive/enum); nothing to do.
			resolved[name] = true
			return nil
		}
		resolved[name] = true // guard against base cycles; checkRecursion catches by-value cycles separately

		st, _ := ts.Struct(name)

		var baseOptSeen bool
		for _, o := range raw.Opts {
			if o.Name != "base" {
				continue
			}
			if baseOptSeen {
				return NewTypeSystemException(raw.Loc, "multiple base options on struct '%s'", name)
			}
			baseOptSeen = true
			if len(o.Positional) == 0 || o.Positional[0].Kind != OptIdent {
				return NewTypeSystemException(o.Loc, "base option requires a struct name")
			}
			baseName := o.Positional[0].Str
			if err := resolveOne(baseName); err != nil {
				return err
			}
			baseStruct, ok := ts.Struct(baseName)
			if !ok {
				return NewTypeSystemException(o.Loc, "undefined base struct '%s'", baseName)
			}
			st.Base = baseStruct
			st.Members = append(st.Members, baseStruct.Members...)
		}

		seenNames := map[string]bool{}
		for _, m := range st.Members {
			seenNames[m.Name] = true
		}

		for _, rm := range raw.Members {
			if seenNames[rm.Name] {
				return NewTypeSystemException(rm.Loc, "duplicate member '%s' in struct '%s'", rm.Name, name)
			}
			seenNames[rm.Name] = true

			typ, err := resolveTypeRef(rm.Type, ts, resolveOne)
			if err != nil {
				return err
			}
			st.Members = append(st.Members, StructMember{
				Name: rm.Name, Type: typ, Opts: rm.Opts, Loc: rm.Loc,
			})
		}
		return nil
	}

	for _, item := range items {
		if n, ok := item.(*RawStruct); ok {
			if err := resolveOne(n.Name); err != nil {
				return err
			}
		}
	}
	return nil
}

func resolveTypeRef(ref RawTypeRef, ts *TypeSystem, resolveBase func(string) error) (ResolvedType, error) {
	var base ResolvedType
	switch {
	case ref.Void:
		if len(ref.Wraps) == 0 {
			return nil, NewTypeSystemException(ref.Loc, "void is only legal as a pointer base")
		}
		base = theVoid
	case ref.Cstring != nil:
		inner, err := resolveTypeRef(*ref.Cstring, ts, resolveBase)
		if err != nil {
			return nil, err
		}
		base = ts.interner.CString(inner)
	default:
		if err := resolveBase(ref.Name); err != nil {
			return nil, err
		}
		t, ok := ts.Types[ref.Name]
		if !ok {
			return nil, NewTypeSystemException(ref.Loc, "undefined type '%s'", ref.Name)
		}
		base = t
	}

	result := base
	for _, w := range ref.Wraps {
		switch w.Kind {
		case WrapPointer:
			if result == theVoid {
				result = ts.interner.Pointer(theVoid)
			} else {
				result = ts.interner.Pointer(result)
			}
		case WrapArray:
			for _, dimExpr := range w.Dims {
				dim, err := dimExpr.Eval(ts.RootScope, ref.Loc)
				if err != nil {
					return nil, err
				}
				if _, isVoid := result.(VoidType); isVoid {
					return nil, NewTypeSystemException(ref.Loc, "void is only legal as a pointer base")
				}
				result = ts.interner.Array(result, int(dim))
			}
		}
	}
	return result, nil
}

// pass 4: depth-first walk following only by-value containment (struct
// member whose unwrapped type is itself a struct); arrays count,
// pointers don't. A back-edge to a struct already on the stack fails.
func checkRecursion(ts *TypeSystem) error {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := map[*Struct]int{}

	var visit func(s *Struct) error
	visit = func(s *Struct) error {
		if color[s] == black {
			return nil
		}
		if color[s] == gray {
			return NewTypeSystemException(s.Loc, "recursive structure not allowed: %s", s.Name)
		}
		color[s] = gray
		for _, m := range s.Members {
			if sub, ok := byValueStruct(m.Type); ok {
				if err := visit(sub); err != nil {
					return err
				}
			}
		}
		color[s] = black
		return nil
	}

	for _, name := range ts.Order {
		if st, ok := ts.Struct(name); ok {
			if err := visit(st); err != nil {
				return err
			}
		}
	}
	return nil
}

// byValueStruct unwraps Array layers (which contain by value) and
// returns the Struct underneath, if any. Pointers never count.
func byValueStruct(t ResolvedType) (*Struct, bool) {
	for {
		switch n := t.(type) {
		case *ArrayType:
			t = n.Elem
			continue
		case *Struct:
			return n, true
		default:
			return nil, false
		}
	}
}
