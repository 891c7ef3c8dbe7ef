package blobc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseSrc(t *testing.T, src string) *Unit {
	t.Helper()
	p := NewParser("t.blob", []byte(src))
	u, err := p.ParseUnit()
	require.NoError(t, err)
	return u
}

func TestParserDefPrimitive(t *testing.T) {
	u := parseSrc(t, `defprimitive u32 uint 4;`)
	require.Len(t, u.Items, 1)
	prim, ok := u.Items[0].(*RawPrimitive)
	require.True(t, ok)
	assert.Equal(t, "u32", prim.Name)
	assert.Equal(t, ClassUint, prim.Class)
	assert.Equal(t, 4, prim.Size)
}

func TestParserDefPrimitiveRejectsBadSize(t *testing.T) {
	p := NewParser("t.blob", []byte(`defprimitive u3 uint 3;`))
	_, err := p.ParseUnit()
	require.Error(t, err)
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
}

func TestParserStructWithBaseOption(t *testing.T) {
	u := parseSrc(t, `struct foo : base(bar) { u32 a; }`)
	st := u.Items[0].(*RawStruct)
	assert.Equal(t, "foo", st.Name)
	require.Len(t, st.Opts, 1)
	assert.Equal(t, "base", st.Opts[0].Name)
	require.Len(t, st.Opts[0].Positional, 1)
	assert.Equal(t, "bar", st.Opts[0].Positional[0].Str)
	require.Len(t, st.Members, 1)
	assert.Equal(t, "a", st.Members[0].Name)
}

func TestParserPointerAndArrayTypeWraps(t *testing.T) {
	u := parseSrc(t, `struct foo { u32* a; u32[4] b; __cstring<u8>* c; }`)
	st := u.Items[0].(*RawStruct)
	require.Len(t, st.Members, 3)

	assert.Len(t, st.Members[0].Type.Wraps, 1)
	assert.Equal(t, WrapPointer, st.Members[0].Type.Wraps[0].Kind)

	assert.Len(t, st.Members[1].Type.Wraps, 1)
	assert.Equal(t, WrapArray, st.Members[1].Type.Wraps[0].Kind)

	assert.NotNil(t, st.Members[2].Type.Cstring)
	assert.Equal(t, "u8", st.Members[2].Type.Cstring.Name)
}

func TestParserVoidPointerMember(t *testing.T) {
	u := parseSrc(t, `struct foo { void* a; }`)
	st := u.Items[0].(*RawStruct)
	assert.True(t, st.Members[0].Type.Void)
}

func TestParserEnumImplicitAndExplicitValues(t *testing.T) {
	u := parseSrc(t, `enum Color { Red, Green = 10, Blue }`)
	en := u.Items[0].(*RawEnum)
	require.Len(t, en.Members, 3)
	assert.Nil(t, en.Members[0].Value)
	assert.NotNil(t, en.Members[1].Value)
	assert.Nil(t, en.Members[2].Value)
}

func TestParserIconstExpression(t *testing.T) {
	u := parseSrc(t, `iconst Baz = 1 + 2 * 3;`)
	c := u.Items[0].(*RawConstant)
	assert.Equal(t, "Baz", c.Name)
	v, err := c.Value.Eval(NewRootScope(), SourceLocation{})
	require.NoError(t, err)
	assert.EqualValues(t, 7, v)
}

func TestParserImportAndGeneratorConfig(t *testing.T) {
	u := parseSrc(t, `import "common.blob"; generator c : output(path="out.h");`)
	require.Len(t, u.Items, 2)
	imp := u.Items[0].(*RawImport)
	assert.Equal(t, "common.blob", imp.Path)
	gc := u.Items[1].(*RawGeneratorConfig)
	assert.Equal(t, "c", gc.Name)
	require.Len(t, gc.Opts, 1)
	v, ok := gc.Opts[0].Get("path")
	require.True(t, ok)
	assert.Equal(t, "out.h", v.Str)
}

func TestParserDottedNameInExpr(t *testing.T) {
	u := parseSrc(t, `enum Foo { Bar = 10 } iconst Baz = Foo.Bar + 1;`)
	en := u.Items[0].(*RawEnum)
	c := u.Items[1].(*RawConstant)
	ts, err := BuildTypeSystem([]RawItem{en, c})
	require.NoError(t, err)
	assert.EqualValues(t, 11, ts.Constants["Baz"])
}
