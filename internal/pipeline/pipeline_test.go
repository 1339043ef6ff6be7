package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/spiralflow/internal/testutil"
)

func shStage(name, script string) Stage {
	return Stage{Name: name, Command: []string{"sh", "-c", script}}
}

func TestRun_AllStagesSucceed(t *testing.T) {
	t.Parallel()

	sink := &testutil.SafeBuffer{}
	runner := NewRunner(sink)

	err := runner.Run(context.Background(), []Stage{
		shStage("convert", "echo converting"),
		shStage("solve", "echo solving"),
	})

	require.NoError(t, err)
	out := sink.String()
	assert.Contains(t, out, "converting")
	assert.Contains(t, out, "solving")
	assert.Less(t, strings.Index(out, "converting"), strings.Index(out, "solving"), "stage output must appear in stage order")
}

func TestRun_FailFastSkipsLaterStages(t *testing.T) {
	t.Parallel()

	sink := &testutil.SafeBuffer{}
	runner := NewRunner(sink)

	err := runner.Run(context.Background(), []Stage{
		shStage("a", "echo stage-a-ran"),
		shStage("b", "echo stage-b-dying >&2; exit 3"),
		shStage("c", "echo stage-c-ran"),
	})

	var stageErr *StageError
	require.True(t, errors.As(err, &stageErr))
	assert.Equal(t, "b", stageErr.Stage)
	assert.Equal(t, 3, stageErr.ExitCode)

	out := sink.String()
	assert.Contains(t, out, "stage-a-ran")
	assert.Contains(t, out, "stage-b-dying", "the failing stage's stderr must reach the sink")
	assert.NotContains(t, out, "stage-c-ran", "stages after the first failure must never run")
}

func TestRun_EchoesCommandLine(t *testing.T) {
	t.Parallel()

	sink := &testutil.SafeBuffer{}
	runner := NewRunner(sink)

	require.NoError(t, runner.Run(context.Background(), []Stage{
		{Name: "noop", Command: []string{"true"}},
	}))
	assert.Contains(t, sink.String(), "$ true")
}

func TestRun_WorkingDirectory(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	sink := &testutil.SafeBuffer{}
	runner := NewRunner(sink)

	err := runner.Run(context.Background(), []Stage{
		{Name: "touch", Command: []string{"sh", "-c", "touch marker"}, Dir: dir},
	})
	require.NoError(t, err)

	_, statErr := os.Stat(filepath.Join(dir, "marker"))
	assert.NoError(t, statErr)
}

func TestRun_EmptyCommand(t *testing.T) {
	t.Parallel()

	runner := NewRunner(&testutil.SafeBuffer{})

	err := runner.Run(context.Background(), []Stage{{Name: "bad"}})
	var stageErr *StageError
	require.True(t, errors.As(err, &stageErr))
	assert.Equal(t, "bad", stageErr.Stage)
}

func TestRun_MissingExecutable(t *testing.T) {
	t.Parallel()

	sink := &testutil.SafeBuffer{}
	runner := NewRunner(sink)

	err := runner.Run(context.Background(), []Stage{
		{Name: "ghost", Command: []string{"/definitely/not/a/real/tool"}},
	})

	var stageErr *StageError
	require.True(t, errors.As(err, &stageErr))
	assert.Equal(t, "ghost", stageErr.Stage)
	assert.Contains(t, sink.String(), "Command failed:")
}
