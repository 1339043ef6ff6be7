// Package pipeline executes the external solve pipeline: an ordered sequence
// of child-process stages with fail-fast gating. Stages are opaque to the
// runner (an argv plus an optional working directory); the runner performs
// no retries, no timeouts, and no output parsing. The caller is responsible
// for validating the manifest before any stage runs.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/vk/spiralflow/internal/ctxlog"
)

// Stage is one external tool invocation in the solve pipeline.
type Stage struct {
	Name    string
	Command []string
	Dir     string
}

// StageError reports the first stage that exited non-zero. Stages after it
// were never started.
type StageError struct {
	Stage    string
	ExitCode int
	Err      error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %q failed with exit status %d", e.Stage, e.ExitCode)
}

func (e *StageError) Unwrap() error { return e.Err }

// Runner executes stages strictly in order, streaming every stage's
// combined stdout and stderr to a cumulative log sink.
type Runner struct {
	sink io.Writer
}

// NewRunner creates a Runner appending to the given log sink.
func NewRunner(sink io.Writer) *Runner {
	return &Runner{sink: sink}
}

// Run executes the stages sequentially, one child process in flight at a
// time. Each stage's command line is echoed to the sink, then its output
// streams there in the order produced. The first non-zero exit stops the
// run immediately; Run returns nil only when every stage exits 0.
func (r *Runner) Run(ctx context.Context, stages []Stage) error {
	logger := ctxlog.FromContext(ctx)

	for _, stage := range stages {
		if len(stage.Command) == 0 {
			return &StageError{Stage: stage.Name, ExitCode: -1, Err: errors.New("empty command")}
		}

		fmt.Fprintf(r.sink, "\n$ %s\n", strings.Join(stage.Command, " "))
		logger.Info("Stage starting.", "stage", stage.Name, "dir", stage.Dir)

		cmd := exec.CommandContext(ctx, stage.Command[0], stage.Command[1:]...)
		cmd.Dir = stage.Dir
		// Stdout and Stderr share the sink; os/exec serializes writes to an
		// identical writer, so interleaving follows production order.
		cmd.Stdout = r.sink
		cmd.Stderr = r.sink

		if err := cmd.Run(); err != nil {
			exitCode := -1
			var exitErr *exec.ExitError
			if errors.As(err, &exitErr) {
				exitCode = exitErr.ExitCode()
			}
			fmt.Fprintf(r.sink, "Command failed: %v\n", err)
			logger.Error("Stage failed, aborting pipeline.", "stage", stage.Name, "exit_code", exitCode)
			return &StageError{Stage: stage.Name, ExitCode: exitCode, Err: err}
		}

		logger.Info("Stage finished.", "stage", stage.Name)
	}
	return nil
}
