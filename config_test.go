package blobc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigFromOptionsBareAndKeyed(t *testing.T) {
	u := parseSrc(t, `generator c : merge, output(path="out.h"), width(32);`)
	gc := u.Items[0].(*RawGeneratorConfig)
	cfg := NewConfigFromOptions(gc.Opts)

	merge, err := cfg.GetBool("merge")
	require.NoError(t, err)
	assert.True(t, merge)

	path, err := cfg.GetString("output.path")
	require.NoError(t, err)
	assert.Equal(t, "out.h", path)

	width, err := cfg.GetInt("width")
	require.NoError(t, err)
	assert.Equal(t, 32, width)
}

func TestConfigMissingKeyErrors(t *testing.T) {
	cfg := make(Config)
	_, err := cfg.GetString("missing")
	require.Error(t, err)
}
