// Package plot dispatches the external plot-generation collaborator once per
// variant and aggregates the records it returns into a tabular summary.
// Unlike the solve pipeline, per-variant plotting is independent: a failure
// for one variant is logged and skipped, never propagated, and the
// per-variant calls may run concurrently.
package plot

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/vk/spiralflow/internal/ctxlog"
	"github.com/vk/spiralflow/internal/layout"
	"github.com/vk/spiralflow/internal/ports"
)

// Record is one row of plot output for a (variant, port) pair. Values holds
// whatever extra columns the plotting collaborator produced.
type Record struct {
	Variant string
	Port    string
	Values  map[string]string
}

// Generator produces plot records for one variant given its port mapping.
type Generator interface {
	Generate(ctx context.Context, variant string, defs map[string]ports.Definition) ([]Record, error)
}

// defaultConcurrency bounds the per-variant fan-out.
const defaultConcurrency = 4

// Dispatcher runs a Generator over every variant of a batch.
type Dispatcher struct {
	gen         Generator
	store       *ports.Store
	loc         layout.Locator
	concurrency int
}

// NewDispatcher creates a Dispatcher over the given generator and port store.
func NewDispatcher(gen Generator, store *ports.Store, loc layout.Locator) *Dispatcher {
	return &Dispatcher{gen: gen, store: store, loc: loc, concurrency: defaultConcurrency}
}

// DispatchAll invokes the generator for every variant and returns the
// aggregate records in manifest order. When reuseExisting is true and a
// variant has no in-memory ports, its persisted document is used instead.
// Generator failures are isolated per variant: logged, skipped, never
// raised to the caller.
func (d *Dispatcher) DispatchAll(ctx context.Context, variants []string, reuseExisting bool) []Record {
	logger := ctxlog.FromContext(ctx)

	// One result slot per variant keeps the aggregate deterministic without
	// sharing a mutable slice between goroutines.
	results := make([][]Record, len(variants))

	var group errgroup.Group
	group.SetLimit(d.concurrency)
	for i, variant := range variants {
		i, variant := i, variant
		group.Go(func() error {
			defs := d.store.Ports(variant)
			if len(defs) == 0 && reuseExisting {
				if persisted, err := ports.ReadDocument(d.loc.PortsConfig(variant)); err == nil {
					defs = persisted
				}
			}
			records, err := d.gen.Generate(ctx, variant, defs)
			if err != nil {
				logger.Warn("Plot generation failed for variant, continuing with the rest.",
					"variant", variant, "error", err)
				return nil
			}
			results[i] = records
			return nil
		})
	}
	// Goroutines never return errors; Wait only fences completion.
	_ = group.Wait()

	var aggregate []Record
	for _, records := range results {
		aggregate = append(aggregate, records...)
	}
	logger.Debug("Plot dispatch complete.", "variants", len(variants), "records", len(aggregate))
	return aggregate
}
