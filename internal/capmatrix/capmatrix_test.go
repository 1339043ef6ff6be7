package capmatrix

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/spiralflow/internal/layout"
)

// writeMatrix places a capacitance matrix artifact under variant in the
// conventional solver layout.
func writeMatrix(t *testing.T, variant, content string) {
	t.Helper()
	path := layout.SolverLayout{}.CapacitanceMatrix(variant)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestLoad(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	t.Run("square matrix", func(t *testing.T) {
		path := filepath.Join(dir, "square.txt")
		require.NoError(t, os.WriteFile(path, []byte("1.0 -0.2\n-0.2 1.5\n"), 0644))

		matrix, err := Load(path)
		require.NoError(t, err)
		require.Len(t, matrix, 2)
		assert.Equal(t, []float64{1.0, -0.2}, matrix[0])
		assert.Equal(t, []float64{-0.2, 1.5}, matrix[1])
	})

	t.Run("blank lines ignored", func(t *testing.T) {
		path := filepath.Join(dir, "blanks.txt")
		require.NoError(t, os.WriteFile(path, []byte("\n1.0\n\n"), 0644))

		matrix, err := Load(path)
		require.NoError(t, err)
		assert.Len(t, matrix, 1)
	})

	t.Run("ragged rows rejected", func(t *testing.T) {
		path := filepath.Join(dir, "ragged.txt")
		require.NoError(t, os.WriteFile(path, []byte("1 2\n3\n"), 0644))

		_, err := Load(path)
		assert.ErrorContains(t, err, "expected 2")
	})

	t.Run("non-square rejected", func(t *testing.T) {
		path := filepath.Join(dir, "rect.txt")
		require.NoError(t, os.WriteFile(path, []byte("1 2 3\n4 5 6\n"), 0644))

		_, err := Load(path)
		assert.ErrorContains(t, err, "expected square")
	})

	t.Run("non-numeric rejected", func(t *testing.T) {
		path := filepath.Join(dir, "junk.txt")
		require.NoError(t, os.WriteFile(path, []byte("1 x\n2 3\n"), 0644))

		_, err := Load(path)
		assert.Error(t, err)
	})

	t.Run("empty rejected", func(t *testing.T) {
		path := filepath.Join(dir, "empty.txt")
		require.NoError(t, os.WriteFile(path, nil, 0644))

		_, err := Load(path)
		assert.ErrorContains(t, err, "empty")
	})
}

func TestInspectorCount(t *testing.T) {
	t.Parallel()

	inspector := NewInspector(layout.SolverLayout{})

	t.Run("unsolved variant counts zero", func(t *testing.T) {
		assert.Equal(t, 0, inspector.Count(t.TempDir()))
	})

	t.Run("malformed artifact counts zero", func(t *testing.T) {
		variant := t.TempDir()
		writeMatrix(t, variant, "not a matrix\n")
		assert.Equal(t, 0, inspector.Count(variant))
	})

	t.Run("solved variant counts rows, idempotently", func(t *testing.T) {
		variant := t.TempDir()
		writeMatrix(t, variant, "1 0 0\n0 1 0\n0 0 1\n")
		assert.Equal(t, 3, inspector.Count(variant))
		assert.Equal(t, 3, inspector.Count(variant))
	})
}
