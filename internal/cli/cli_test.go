package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_WorkflowFromFlagAndPositional(t *testing.T) {
	t.Parallel()

	t.Run("long flag", func(t *testing.T) {
		config, shouldExit, err := Parse([]string{"-workflow", "run.hcl"}, &bytes.Buffer{})
		require.NoError(t, err)
		require.False(t, shouldExit)
		assert.Equal(t, "run.hcl", config.WorkflowPath)
	})

	t.Run("shorthand", func(t *testing.T) {
		config, _, err := Parse([]string{"-w", "run.hcl"}, &bytes.Buffer{})
		require.NoError(t, err)
		assert.Equal(t, "run.hcl", config.WorkflowPath)
	})

	t.Run("positional", func(t *testing.T) {
		config, _, err := Parse([]string{"run.hcl"}, &bytes.Buffer{})
		require.NoError(t, err)
		assert.Equal(t, "run.hcl", config.WorkflowPath)
	})
}

func TestParse_Defaults(t *testing.T) {
	t.Parallel()

	config, _, err := Parse([]string{"run.hcl"}, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, "text", config.LogFormat)
	assert.Equal(t, "info", config.LogLevel)
	assert.False(t, config.SkipMissing)
	assert.False(t, config.NoPlot)
}

func TestParse_BooleanFlags(t *testing.T) {
	t.Parallel()

	config, _, err := Parse([]string{"-skip-missing", "-no-plot", "run.hcl"}, &bytes.Buffer{})
	require.NoError(t, err)
	assert.True(t, config.SkipMissing)
	assert.True(t, config.NoPlot)
}

func TestParse_NoPathPrintsUsage(t *testing.T) {
	t.Parallel()

	out := &bytes.Buffer{}
	config, shouldExit, err := Parse(nil, out)
	require.NoError(t, err)
	assert.True(t, shouldExit)
	assert.Nil(t, config)
	assert.Contains(t, out.String(), "Usage:")
}

func TestParse_InvalidLogOptions(t *testing.T) {
	t.Parallel()

	t.Run("format", func(t *testing.T) {
		_, _, err := Parse([]string{"-log-format", "xml", "run.hcl"}, &bytes.Buffer{})
		var exitErr *ExitError
		require.ErrorAs(t, err, &exitErr)
		assert.Equal(t, 2, exitErr.Code)
	})

	t.Run("level", func(t *testing.T) {
		_, _, err := Parse([]string{"-log-level", "loud", "run.hcl"}, &bytes.Buffer{})
		var exitErr *ExitError
		require.ErrorAs(t, err, &exitErr)
		assert.Equal(t, 2, exitErr.Code)
	})
}

func TestParse_UnknownFlag(t *testing.T) {
	t.Parallel()

	_, _, err := Parse([]string{"--bogus"}, &bytes.Buffer{})
	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 2, exitErr.Code)
}
