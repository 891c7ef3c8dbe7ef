package blobc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileStringEndToEnd(t *testing.T) {
	ts, err := CompileString("t.blob", []byte(`
		defprimitive u32 uint 4;
		struct foo { u32 a; }
	`))
	require.NoError(t, err)
	foo, ok := ts.Struct("foo")
	require.True(t, ok)
	assert.Equal(t, 4, TargetMachine32BE().SizeOf(foo))
}

func TestCompileResolvesImportsAcrossLoader(t *testing.T) {
	loader := NewInMemoryImportLoader()
	loader.Add("common.blob", []byte(`defprimitive u32 uint 4;`))
	loader.Add("main.blob", []byte(`import "common.blob"; struct foo { u32 a; }`))

	ts, err := Compile(loader, "main.blob", []string{"."})
	require.NoError(t, err)
	_, ok := ts.Types["u32"]
	require.True(t, ok)
	foo, ok := ts.Struct("foo")
	require.True(t, ok)
	assert.Len(t, foo.Members, 1)
}

func TestMergeImportsClearsIsImportFlag(t *testing.T) {
	loader := NewInMemoryImportLoader()
	loader.Add("common.blob", []byte(`struct common { u32 a; } defprimitive u32 uint 4;`))
	loader.Add("main.blob", []byte(`import "common.blob"; struct foo { u32 b; }`))

	ts, err := Compile(loader, "main.blob", []string{"."})
	require.NoError(t, err)
	common, ok := ts.Struct("common")
	require.True(t, ok)
	assert.True(t, common.Loc.IsImport)

	MergeImports(ts)
	assert.False(t, common.Loc.IsImport)
}

func TestCompileStringSurfacesTypeSystemException(t *testing.T) {
	_, err := CompileString("t.blob", []byte(`
		struct foo { bar b; }
		struct bar { foo f; }
	`))
	require.Error(t, err)
	var te *TypeSystemException
	require.ErrorAs(t, err, &te)
}
