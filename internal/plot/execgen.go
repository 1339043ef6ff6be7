package plot

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/vk/spiralflow/internal/ports"
)

// ExecGenerator invokes an external plotting command per variant. The
// variant directory and the path of its port document are appended to the
// configured argv; the tool is expected to leave its records as a JSON
// array of objects at the layout's plot-records path. A clean exit without
// a records file simply means zero records for that variant.
type ExecGenerator struct {
	command     []string
	recordsPath func(variant string) string
	portsPath   func(variant string) string
	sink        io.Writer
}

// NewExecGenerator creates an ExecGenerator around the given argv.
func NewExecGenerator(command []string, recordsPath, portsPath func(string) string, sink io.Writer) *ExecGenerator {
	return &ExecGenerator{
		command:     command,
		recordsPath: recordsPath,
		portsPath:   portsPath,
		sink:        sink,
	}
}

// Generate runs the plot command for one variant and reads back its records.
func (g *ExecGenerator) Generate(ctx context.Context, variant string, defs map[string]ports.Definition) ([]Record, error) {
	if len(g.command) == 0 {
		return nil, fmt.Errorf("no plot command configured")
	}

	argv := append(append([]string(nil), g.command...), variant, g.portsPath(variant))
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = variant
	cmd.Stdout = g.sink
	cmd.Stderr = g.sink
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("plot command for %s: %w", filepath.Base(variant), err)
	}

	return readRecords(g.recordsPath(variant), variant)
}

// readRecords parses the JSON records the plotting tool left behind.
func readRecords(path, variant string) ([]Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var rows []map[string]any
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	records := make([]Record, 0, len(rows))
	for _, row := range rows {
		rec := Record{Variant: variant, Values: make(map[string]string)}
		keys := make([]string, 0, len(row))
		for k := range row {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			v := formatValue(row[k])
			switch k {
			case "port":
				rec.Port = v
			case "variant":
				// The dispatcher keys records by canonical variant path.
			default:
				rec.Values[k] = v
			}
		}
		records = append(records, rec)
	}
	return records, nil
}

func formatValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case nil:
		return ""
	default:
		return fmt.Sprint(t)
	}
}
