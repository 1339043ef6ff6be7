package plot

import (
	"encoding/csv"
	"fmt"
	"os"
	"sort"
)

// WriteSummary writes the aggregate records as a CSV file: one row per
// record, columns variant, port, then the sorted union of every extra key.
// Callers skip the write entirely for an empty aggregate.
func WriteSummary(path string, records []Record) error {
	keySet := make(map[string]bool)
	for _, rec := range records {
		for k := range rec.Values {
			keySet[k] = true
		}
	}
	extra := make([]string, 0, len(keySet))
	for k := range keySet {
		extra = append(extra, k)
	}
	sort.Strings(extra)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating summary %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := append([]string{"variant", "port"}, extra...)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("writing summary %s: %w", path, err)
	}
	for _, rec := range records {
		row := []string{rec.Variant, rec.Port}
		for _, k := range extra {
			row = append(row, rec.Values[k])
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("writing summary %s: %w", path, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("writing summary %s: %w", path, err)
	}
	return nil
}
