package codegen_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clarete/blobc"
	"github.com/clarete/blobc/codegen"
)

func TestCGeneratorEmitsTypedefsAndStructs(t *testing.T) {
	ts, err := blobc.CompileString("t.blob", []byte(`
		defprimitive u32 uint 4;
		enum Color { Red, Green, Blue }
		struct foo { u32 a; Color c; }
	`))
	require.NoError(t, err)

	var out strings.Builder
	g := codegen.NewCGenerator("t.blob", &out)
	require.NoError(t, g.WriteHeader())
	require.NoError(t, codegen.Run(ts, g, false))

	text := out.String()
	assert.Contains(t, text, "#ifndef BLOBC_")
	assert.Contains(t, text, "typedef uint32_t u32;")
	assert.Contains(t, text, "struct foo_TAG;")
	assert.Contains(t, text, "typedef enum Color_TAG {")
	assert.Contains(t, text, "Color_Red = 0,")
	assert.Contains(t, text, "typedef struct foo_TAG {")
	assert.Contains(t, text, "u32 a;")
	assert.Contains(t, text, "Color c;")
	assert.Contains(t, text, "#endif")
}

func TestCGeneratorSkipsExternalPrimitives(t *testing.T) {
	ts, err := blobc.CompileString("t.blob", []byte(`defprimitive size_t uint 8 : external;`))
	require.NoError(t, err)

	var out strings.Builder
	g := codegen.NewCGenerator("t.blob", &out)
	require.NoError(t, codegen.Run(ts, g, false))
	assert.NotContains(t, out.String(), "typedef")
}
