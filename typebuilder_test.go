package blobc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildFrom(t *testing.T, src string) *TypeSystem {
	t.Helper()
	p := NewParser("t.blob", []byte(src))
	u, err := p.ParseUnit()
	require.NoError(t, err)
	ts, err := BuildTypeSystem(u.Items)
	require.NoError(t, err)
	return ts
}

func TestTypeBuilderDuplicateTypeFails(t *testing.T) {
	p := NewParser("t.blob", []byte(`defprimitive u32 uint 4; struct u32 { u32 a; }`))
	u, err := p.ParseUnit()
	require.NoError(t, err)
	_, err = BuildTypeSystem(u.Items)
	require.Error(t, err)
	var te *TypeSystemException
	require.ErrorAs(t, err, &te)
}

func TestTypeBuilderEnumImplicitValues(t *testing.T) {
	ts := buildFrom(t, `enum Color { Red, Green, Blue = 10, Cyan }`)
	en, ok := ts.Enum("Color")
	require.True(t, ok)
	want := map[string]int64{"Red": 0, "Green": 1, "Blue": 10, "Cyan": 11}
	for _, m := range en.Members {
		assert.Equal(t, want[m.Name], m.Value, m.Name)
	}
}

func TestTypeBuilderEnumDuplicateMemberFails(t *testing.T) {
	p := NewParser("t.blob", []byte(`enum Color { Red, Red }`))
	u, err := p.ParseUnit()
	require.NoError(t, err)
	_, err = BuildTypeSystem(u.Items)
	require.Error(t, err)
}

func TestTypeBuilderStructBaseFlattensMembers(t *testing.T) {
	ts := buildFrom(t, `
		defprimitive u32 uint 4;
		struct base { u32 a; }
		struct derived : base(base) { u32 b; }
	`)
	derived, ok := ts.Struct("derived")
	require.True(t, ok)
	require.Len(t, derived.Members, 2)
	assert.Equal(t, "a", derived.Members[0].Name)
	assert.Equal(t, "b", derived.Members[1].Name)

	base, _ := ts.Struct("base")
	assert.True(t, derived.IsSupersetOf(base))
	assert.False(t, base.IsSupersetOf(derived))
}

func TestTypeBuilderPointerAndArrayInterning(t *testing.T) {
	ts := buildFrom(t, `
		defprimitive u32 uint 4;
		struct foo { u32* a; u32* b; u32[4] c; u32[4] d; }
	`)
	foo, _ := ts.Struct("foo")
	assert.Same(t, foo.Members[0].Type, foo.Members[1].Type)
	assert.Same(t, foo.Members[2].Type, foo.Members[3].Type)
}

func TestTypeBuilderVoidOnlyLegalAsPointerBase(t *testing.T) {
	p := NewParser("t.blob", []byte(`struct foo { void a; }`))
	u, err := p.ParseUnit()
	require.NoError(t, err)
	_, err = BuildTypeSystem(u.Items)
	require.Error(t, err)
}

func TestTypeBuilderRecursiveStructByValueFails(t *testing.T) {
	p := NewParser("t.blob", []byte(`
		struct foo { bar b; }
		struct bar { foo f; }
	`))
	u, err := p.ParseUnit()
	require.NoError(t, err)
	_, err = BuildTypeSystem(u.Items)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "recursive")
}

func TestTypeBuilderRecursionAllowedThroughPointer(t *testing.T) {
	ts := buildFrom(t, `struct node { node* next; }`)
	n, ok := ts.Struct("node")
	require.True(t, ok)
	require.Len(t, n.Members, 1)
	ptr, ok := n.Members[0].Type.(*PointerType)
	require.True(t, ok)
	assert.Same(t, n, ptr.Target)
}

func TestTypeBuilderDottedEnumConstantExpression(t *testing.T) {
	ts := buildFrom(t, `enum Foo { Bar = 10 } iconst Baz = Foo.Bar + 1;`)
	assert.EqualValues(t, 11, ts.Constants["Baz"])
	en, _ := ts.Enum("Foo")
	assert.EqualValues(t, 10, en.Members[0].Value)
}

func TestTypeBuilderDottedEnumConstantForwardReference(t *testing.T) {
	ts := buildFrom(t, `iconst Baz = Foo.Bar + 1; enum Foo { Bar = 10 }`)
	assert.EqualValues(t, 11, ts.Constants["Baz"])
	en, _ := ts.Enum("Foo")
	assert.EqualValues(t, 10, en.Members[0].Value)
}

func TestTypeBuilderDuplicateMemberFails(t *testing.T) {
	p := NewParser("t.blob", []byte(`
		defprimitive u32 uint 4;
		struct foo { u32 a; u32 a; }
	`))
	u, err := p.ParseUnit()
	require.NoError(t, err)
	_, err = BuildTypeSystem(u.Items)
	require.Error(t, err)
}

func TestTypeBuilderExternalPrimitiveFlag(t *testing.T) {
	ts := buildFrom(t, `defprimitive size_t uint 8 : external;`)
	prim, ok := ts.Types["size_t"].(*Primitive)
	require.True(t, ok)
	assert.True(t, prim.External)
}
