package blobc

// Compile is the top-level entry point mirroring the teacher's
// api.go/api_internal.go split between public entry points and the
// wiring that chains Tokenize → Parse → ResolveImports → BuildTypes.
//
// It reads `file` through loader, inlines its imports (searched across
// importDirs, defaulting to ["."]), and runs the four-pass type system
// builder over the flattened item list.
func Compile(loader ImportLoader, file string, importDirs []string) (*TypeSystem, error) {
	items, err := ResolveFile(loader, file, importDirs)
	if err != nil {
		return nil, err
	}
	return BuildTypeSystem(items)
}

// CompileString builds a type system directly from in-memory schema
// source, useful for tests and for callers embedding a single-file
// schema without touching a filesystem.
func CompileString(file string, src []byte) (*TypeSystem, error) {
	loader := NewInMemoryImportLoader()
	loader.Add(file, src)
	return Compile(loader, file, []string{"."})
}

// MergeImports strips the IsImport flag from every type and generator
// config in ts, matching the CLI's `-m` option (spec.md §6): after this
// call a generator walking ts sees imported and local declarations
// alike.
func MergeImports(ts *TypeSystem) {
	for _, name := range ts.Order {
		switch t := ts.Types[name].(type) {
		case *Primitive:
			t.Loc.IsImport = false
		case *Struct:
			t.Loc.IsImport = false
		case *Enum:
			t.Loc.IsImport = false
		}
	}
	for _, gc := range ts.Generators {
		gc.Loc.IsImport = false
	}
}
