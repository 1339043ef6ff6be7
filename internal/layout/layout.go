// Package layout maps a variant directory to the artifact paths the rest of
// the system reads and writes. The on-disk convention lives here and only
// here; everything else depends on the Locator interface so tests can swap
// in a fake layout.
package layout

import (
	"os"
	"path/filepath"
)

// Locator resolves per-variant artifact paths.
type Locator interface {
	// CapacitanceMatrix is the solver-produced matrix artifact for a variant.
	CapacitanceMatrix(variant string) string
	// PortsConfig is the persisted port-configuration document for a variant.
	PortsConfig(variant string) string
	// PlotRecords is where the plotting tool leaves its per-variant records.
	PlotRecords(variant string) string
	// EnsureAnalysisDirs creates the analysis subdirectory for a variant.
	EnsureAnalysisDirs(variant string) error
}

const (
	solverDirName   = "FastSolver"
	matrixFileName  = "CapacitanceMatrix.txt"
	analysisDirName = "Analysis"
	portsFileName   = "ports_config.json"
	recordsFileName = "plot_records.json"
)

// SolverLayout is the conventional layout produced by the solver automation
// tooling: solver outputs under FastSolver/, analysis artifacts under
// Analysis/.
type SolverLayout struct{}

func (SolverLayout) CapacitanceMatrix(variant string) string {
	return filepath.Join(variant, solverDirName, matrixFileName)
}

func (SolverLayout) PortsConfig(variant string) string {
	return filepath.Join(variant, analysisDirName, portsFileName)
}

func (SolverLayout) PlotRecords(variant string) string {
	return filepath.Join(variant, analysisDirName, recordsFileName)
}

func (SolverLayout) EnsureAnalysisDirs(variant string) error {
	return os.MkdirAll(filepath.Join(variant, analysisDirName), 0755)
}
