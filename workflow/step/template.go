package step

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/c360studio/knowhook/graph"
	"github.com/c360studio/knowhook/workflow"
)

// TemplateExecutor renders a template body against the merged run
// context, optionally writing the result to a file.
type TemplateExecutor struct {
	root string
}

// Kind returns "template".
func (e *TemplateExecutor) Kind() string { return "template" }

// Execute renders the template. A reference to a missing variable is a
// RenderError, not an empty substitution.
func (e *TemplateExecutor) Execute(ctx context.Context, step *workflow.Step, run *workflow.Context, g *graph.Graph) (map[string]any, error) {
	body := step.Config["template"]
	if body == "" {
		return nil, fmt.Errorf("template step requires a template body")
	}

	tmpl, err := template.New(step.ID).Option("missingkey=error").Parse(body)
	if err != nil {
		return nil, &RenderError{Detail: "parse template", Cause: err}
	}

	env := run.Outputs()
	var sb strings.Builder
	if err := tmpl.Execute(&sb, env); err != nil {
		return nil, &RenderError{Detail: "render template", Cause: err}
	}
	rendered := sb.String()

	outputs := map[string]any{"rendered": rendered}

	if rawPath := workflow.Interpolate(step.Config["filePath"], env); rawPath != "" {
		path, err := resolvePath(e.root, rawPath)
		if err != nil {
			return nil, err
		}
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, &IOError{Op: "write", Path: rawPath, Cause: err}
		}
		if err := os.WriteFile(path, []byte(rendered), 0644); err != nil {
			return nil, &IOError{Op: "write", Path: rawPath, Cause: err}
		}
		outputs["path"] = rawPath
		outputs["bytes"] = len(rendered)
	}

	return outputs, nil
}
