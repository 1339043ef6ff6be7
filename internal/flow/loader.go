package flow

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"

	"github.com/vk/spiralflow/internal/ctxlog"
	"github.com/vk/spiralflow/internal/fsutil"
	"github.com/vk/spiralflow/internal/pipeline"
	"github.com/vk/spiralflow/internal/ports"
)

// defaultPermittivity is forwarded to the solve stage when the workflow
// leaves the permittivity blank.
const defaultPermittivity = "1"

// Workflow is the fully resolved configuration of one batch run.
type Workflow struct {
	Manifest     string
	Permittivity string
	Stages       []pipeline.Stage
	Ports        []PortSpec
	Plot         *PlotSpec
}

// PortSpec is one port definition to apply across every variant.
type PortSpec struct {
	Name  string
	Type  string
	Signs []float64
}

// PlotSpec configures the external plot command.
type PlotSpec struct {
	Command            []string
	ReuseExistingPorts bool
}

// HCL schema structs. Command attributes stay undecoded expressions until
// the evaluation context (manifest, permittivity) has been built.
type fileSchema struct {
	Manifest     *string       `hcl:"manifest"`
	Permittivity *string       `hcl:"permittivity"`
	Stages       []stageSchema `hcl:"stage,block"`
	Ports        []portSchema  `hcl:"port,block"`
	Plot         *plotSchema   `hcl:"plot,block"`
}

type stageSchema struct {
	Name    string         `hcl:"name,label"`
	Command hcl.Expression `hcl:"command"`
	Workdir *string        `hcl:"workdir"`
}

type portSchema struct {
	Name  string    `hcl:"name,label"`
	Type  string    `hcl:"type"`
	Signs []float64 `hcl:"signs"`
}

type plotSchema struct {
	Command            hcl.Expression `hcl:"command"`
	ReuseExistingPorts *bool          `hcl:"reuse_existing_ports"`
}

// Loader parses workflow HCL files into a resolved Workflow.
type Loader struct {
	parser *hclparse.Parser
}

// NewLoader creates a workflow loader.
func NewLoader() *Loader {
	return &Loader{parser: hclparse.NewParser()}
}

// Load reads the workflow at path. A directory loads every .hcl file inside
// it, merged in path order: scalar settings take the last value set, blocks
// append.
func (l *Loader) Load(ctx context.Context, path string) (*Workflow, error) {
	logger := ctxlog.FromContext(ctx)

	files, err := l.workflowFiles(path)
	if err != nil {
		return nil, err
	}
	logger.Debug("Workflow files resolved.", "path", path, "count", len(files))

	var merged fileSchema
	baseDir := ""
	for _, file := range files {
		hclFile, diags := l.parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("parsing workflow %s: %w", file, diags)
		}
		var schema fileSchema
		if diags := gohcl.DecodeBody(hclFile.Body, nil, &schema); diags.HasErrors() {
			return nil, fmt.Errorf("decoding workflow %s: %w", file, diags)
		}
		if schema.Manifest != nil {
			merged.Manifest = schema.Manifest
			baseDir = filepath.Dir(file)
		}
		if schema.Permittivity != nil {
			merged.Permittivity = schema.Permittivity
		}
		merged.Stages = append(merged.Stages, schema.Stages...)
		merged.Ports = append(merged.Ports, schema.Ports...)
		if schema.Plot != nil {
			merged.Plot = schema.Plot
		}
	}

	return l.resolve(ctx, &merged, baseDir)
}

// workflowFiles expands a directory path into its .hcl files.
func (l *Loader) workflowFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("workflow path %s: %w", path, err)
	}
	if !info.IsDir() {
		return []string{path}, nil
	}
	files, err := fsutil.FindFilesByExtension(path, ".hcl")
	if err != nil {
		return nil, fmt.Errorf("scanning workflow directory %s: %w", path, err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no .hcl workflow files found under %s", path)
	}
	return files, nil
}

// resolve turns the merged schema into a Workflow: the manifest path is
// absolutized against its workflow file, the permittivity gets its default,
// and command expressions are evaluated with both exposed as variables.
func (l *Loader) resolve(ctx context.Context, schema *fileSchema, baseDir string) (*Workflow, error) {
	logger := ctxlog.FromContext(ctx)

	if schema.Manifest == nil || strings.TrimSpace(*schema.Manifest) == "" {
		return nil, fmt.Errorf("workflow does not set the manifest attribute")
	}
	manifestPath := *schema.Manifest
	if !filepath.IsAbs(manifestPath) {
		manifestPath = filepath.Join(baseDir, manifestPath)
	}
	if abs, err := filepath.Abs(manifestPath); err == nil {
		manifestPath = abs
	}

	permittivity := defaultPermittivity
	if schema.Permittivity != nil && strings.TrimSpace(*schema.Permittivity) != "" {
		permittivity = strings.TrimSpace(*schema.Permittivity)
	}

	evalCtx := &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"manifest":     cty.StringVal(manifestPath),
			"permittivity": cty.StringVal(permittivity),
		},
	}

	wf := &Workflow{
		Manifest:     manifestPath,
		Permittivity: permittivity,
	}

	for _, stage := range schema.Stages {
		command, err := commandFromExpr(stage.Command, evalCtx)
		if err != nil {
			return nil, fmt.Errorf("stage %q: %w", stage.Name, err)
		}
		dir := ""
		if stage.Workdir != nil {
			dir = *stage.Workdir
			if !filepath.IsAbs(dir) {
				dir = filepath.Join(baseDir, dir)
			}
		}
		wf.Stages = append(wf.Stages, pipeline.Stage{Name: stage.Name, Command: command, Dir: dir})
	}

	for _, port := range schema.Ports {
		if !ports.ValidType(port.Type) {
			return nil, fmt.Errorf("port %q: unknown type %q (want series, parallel or custom)", port.Name, port.Type)
		}
		wf.Ports = append(wf.Ports, PortSpec{Name: port.Name, Type: port.Type, Signs: port.Signs})
	}

	if schema.Plot != nil {
		command, err := commandFromExpr(schema.Plot.Command, evalCtx)
		if err != nil {
			return nil, fmt.Errorf("plot block: %w", err)
		}
		reuse := false
		if schema.Plot.ReuseExistingPorts != nil {
			reuse = *schema.Plot.ReuseExistingPorts
		}
		wf.Plot = &PlotSpec{Command: command, ReuseExistingPorts: reuse}
	}

	logger.Debug("Workflow resolved.",
		"manifest", wf.Manifest,
		"permittivity", wf.Permittivity,
		"stages", len(wf.Stages),
		"ports", len(wf.Ports),
		"plot", wf.Plot != nil,
	)
	return wf, nil
}

// commandFromExpr evaluates a command expression into a non-empty argv.
func commandFromExpr(expr hcl.Expression, evalCtx *hcl.EvalContext) ([]string, error) {
	if expr == nil {
		return nil, fmt.Errorf("command is required")
	}
	val, diags := expr.Value(evalCtx)
	if diags.HasErrors() {
		return nil, fmt.Errorf("evaluating command: %w", diags)
	}
	if val.IsNull() {
		return nil, fmt.Errorf("command must not be null")
	}
	listVal, err := convert.Convert(val, cty.List(cty.String))
	if err != nil {
		return nil, fmt.Errorf("command must be a list of strings: %w", err)
	}

	var command []string
	for it := listVal.ElementIterator(); it.Next(); {
		_, elem := it.Element()
		command = append(command, elem.AsString())
	}
	if len(command) == 0 {
		return nil, fmt.Errorf("command must not be empty")
	}
	return command, nil
}
