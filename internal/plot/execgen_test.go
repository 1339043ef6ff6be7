package plot

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/spiralflow/internal/layout"
	"github.com/vk/spiralflow/internal/ports"
	"github.com/vk/spiralflow/internal/testutil"
)

func newTestExecGenerator(command []string, sink *testutil.SafeBuffer) *ExecGenerator {
	loc := layout.SolverLayout{}
	return NewExecGenerator(command, loc.PlotRecords, loc.PortsConfig, sink)
}

func TestExecGenerator_ReadsRecordsLeftByTool(t *testing.T) {
	t.Parallel()

	variant := t.TempDir()
	loc := layout.SolverLayout{}
	require.NoError(t, loc.EnsureAnalysisDirs(variant))

	// The fake tool writes its records file to the path given convention;
	// $1 is the variant directory appended by the generator.
	script := `echo '[{"port":"Port1","c_eff":1.25,"resonant":true}]' > "$1/Analysis/plot_records.json"`
	sink := &testutil.SafeBuffer{}
	gen := newTestExecGenerator([]string{"sh", "-c", script, "plotgen"}, sink)

	records, err := gen.Generate(context.Background(), variant, map[string]ports.Definition{})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, variant, records[0].Variant)
	assert.Equal(t, "Port1", records[0].Port)
	assert.Equal(t, "1.25", records[0].Values["c_eff"])
	assert.Equal(t, "true", records[0].Values["resonant"])
}

func TestExecGenerator_CleanExitWithoutRecordsMeansNone(t *testing.T) {
	t.Parallel()

	sink := &testutil.SafeBuffer{}
	gen := newTestExecGenerator([]string{"true"}, sink)

	records, err := gen.Generate(context.Background(), t.TempDir(), nil)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestExecGenerator_ToolFailurePropagates(t *testing.T) {
	t.Parallel()

	sink := &testutil.SafeBuffer{}
	gen := newTestExecGenerator([]string{"sh", "-c", "echo plot-broke >&2; exit 1"}, sink)

	_, err := gen.Generate(context.Background(), t.TempDir(), nil)
	require.Error(t, err)
	assert.Contains(t, sink.String(), "plot-broke")
}

func TestExecGenerator_MalformedRecordsFile(t *testing.T) {
	t.Parallel()

	variant := t.TempDir()
	loc := layout.SolverLayout{}
	require.NoError(t, loc.EnsureAnalysisDirs(variant))
	require.NoError(t, os.WriteFile(filepath.Join(variant, "Analysis", "plot_records.json"), []byte("nope"), 0644))

	sink := &testutil.SafeBuffer{}
	gen := newTestExecGenerator([]string{"true"}, sink)

	_, err := gen.Generate(context.Background(), variant, nil)
	assert.ErrorContains(t, err, "parsing")
}
