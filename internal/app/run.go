package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/vk/spiralflow/internal/capmatrix"
	"github.com/vk/spiralflow/internal/ctxlog"
	"github.com/vk/spiralflow/internal/flow"
	"github.com/vk/spiralflow/internal/manifest"
	"github.com/vk/spiralflow/internal/pipeline"
	"github.com/vk/spiralflow/internal/plot"
	"github.com/vk/spiralflow/internal/ports"
)

// summaryFileName is written next to the manifest after plot dispatch.
const summaryFileName = "ports_summary.csv"

// Run executes one full batch: workflow load, manifest validation, the
// external solve pipeline, port application and persistence, and plot
// dispatch with its summary artifact.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	wf, err := a.loader.Load(ctx, a.config.WorkflowPath)
	if err != nil {
		return fmt.Errorf("failed to load workflow: %w", err)
	}

	variants, err := a.buildRegistry(ctx, wf)
	if err != nil {
		return err
	}

	if len(wf.Stages) > 0 {
		a.logger.Info("🚀 Starting solve pipeline.", "stages", len(wf.Stages))
		runner := pipeline.NewRunner(a.outW)
		if err := runner.Run(ctx, wf.Stages); err != nil {
			return fmt.Errorf("solve pipeline aborted: %w", err)
		}
		a.logger.Info("🏁 Solve pipeline finished.")
	} else {
		a.logger.Warn("Workflow defines no pipeline stages, skipping the solve phase.")
	}

	store := ports.NewStore(capmatrix.NewInspector(a.loc), a.loc)
	store.Load(ctx, variants)

	persistErrs, err := a.applyPorts(ctx, wf, store, variants)
	if err != nil {
		return err
	}

	if !a.config.NoPlot && wf.Plot != nil {
		a.dispatchPlots(ctx, wf, store, variants)
	}

	a.logger.Debug("App.Run method finished.")
	return errors.Join(persistErrs...)
}

// buildRegistry parses and validates the manifest. Missing variants abort
// the run unless the operator explicitly opted to skip them, in which case
// the run continues over the variants that do exist.
func (a *App) buildRegistry(ctx context.Context, wf *flow.Workflow) ([]string, error) {
	variants, err := manifest.Parse(ctx, wf.Manifest)
	if err != nil {
		return nil, err
	}
	a.logger.Info("Manifest parsed.", "path", wf.Manifest, "variants", len(variants))

	missing := manifest.Validate(variants)
	if len(missing) == 0 {
		return variants, nil
	}
	for _, m := range missing {
		a.logger.Error("Variant directory from manifest is missing.", "variant", m)
	}
	if !a.config.SkipMissing {
		return nil, &manifest.MissingError{Missing: missing}
	}

	missingSet := make(map[string]bool, len(missing))
	for _, m := range missing {
		missingSet[m] = true
	}
	var usable []string
	for _, v := range variants {
		if !missingSet[v] {
			usable = append(usable, v)
		}
	}
	a.logger.Warn("Continuing without missing variants.", "skipped", len(missing), "remaining", len(usable))
	return usable, nil
}

// applyPorts applies the workflow's port blocks across all variants with
// batch-or-nothing validation, then persists every touched variant. Persist
// failures are collected, not fatal mid-batch; they surface after the run.
func (a *App) applyPorts(ctx context.Context, wf *flow.Workflow, store *ports.Store, variants []string) ([]error, error) {
	if len(wf.Ports) == 0 {
		return nil, nil
	}

	for _, port := range wf.Ports {
		failed, err := store.DefineForMany(variants, port.Name, port.Type, port.Signs)
		if err != nil {
			return nil, fmt.Errorf("defining port %q: %w", port.Name, err)
		}
		if len(failed) > 0 {
			for _, v := range failed {
				a.logger.Error("Signs vector does not match conductor count.", "port", port.Name, "variant", v)
			}
			return nil, fmt.Errorf("port %q rejected by %d of %d variants, nothing applied", port.Name, len(failed), len(variants))
		}
		a.logger.Info("Port applied to all variants.", "port", port.Name, "type", port.Type)
	}

	persistErrs := store.PersistAll(ctx, variants)
	for _, err := range persistErrs {
		a.logger.Error("Port document could not be persisted.", "error", err)
	}
	a.logger.Info("Port documents saved.", "variants", len(variants)-len(persistErrs), "failures", len(persistErrs))
	return persistErrs, nil
}

// dispatchPlots runs the plot collaborator over every variant and writes the
// CSV summary next to the manifest when any records came back.
func (a *App) dispatchPlots(ctx context.Context, wf *flow.Workflow, store *ports.Store, variants []string) {
	gen := plot.NewExecGenerator(wf.Plot.Command, a.loc.PlotRecords, a.loc.PortsConfig, a.outW)
	dispatcher := plot.NewDispatcher(gen, store, a.loc)

	records := dispatcher.DispatchAll(ctx, variants, wf.Plot.ReuseExistingPorts)
	if len(records) == 0 {
		a.logger.Info("Plot generation finished, no records written.")
		return
	}

	summaryPath := filepath.Join(filepath.Dir(wf.Manifest), summaryFileName)
	if err := plot.WriteSummary(summaryPath, records); err != nil {
		a.logger.Error("Plot summary could not be written.", "path", summaryPath, "error", err)
		return
	}
	a.logger.Info("Plot generation complete.", "summary", summaryPath, "records", len(records))
}
