// Package capmatrix reads the solver's capacitance-matrix artifact and
// derives the conductor count of a variant from its square dimension.
package capmatrix

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/vk/spiralflow/internal/layout"
)

// Load parses a capacitance matrix: whitespace-separated numeric rows, all
// of equal length, forming a square matrix. Blank lines are ignored.
func Load(path string) ([][]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var matrix [][]float64
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		row := make([]float64, len(fields))
		for i, field := range fields {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("row %d: parsing %q: %w", len(matrix), field, err)
			}
			row[i] = v
		}
		if len(matrix) > 0 && len(row) != len(matrix[0]) {
			return nil, fmt.Errorf("row %d has %d entries, expected %d", len(matrix), len(row), len(matrix[0]))
		}
		matrix = append(matrix, row)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(matrix) == 0 {
		return nil, fmt.Errorf("matrix file %s is empty", path)
	}
	if len(matrix) != len(matrix[0]) {
		return nil, fmt.Errorf("matrix is %dx%d, expected square", len(matrix), len(matrix[0]))
	}
	return matrix, nil
}

// Inspector derives conductor counts from capacitance-matrix artifacts.
type Inspector struct {
	loc layout.Locator
}

// NewInspector creates an Inspector using the given artifact locator.
func NewInspector(loc layout.Locator) *Inspector {
	return &Inspector{loc: loc}
}

// Count returns the number of conductors of a variant: the row count of its
// capacitance matrix. A variant whose matrix is missing or malformed has
// simply not been solved yet, so Count returns 0 rather than an error.
func (i *Inspector) Count(variant string) int {
	matrix, err := Load(i.loc.CapacitanceMatrix(variant))
	if err != nil {
		return 0
	}
	return len(matrix)
}
