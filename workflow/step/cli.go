package step

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"

	"github.com/c360studio/knowhook/graph"
	"github.com/c360studio/knowhook/workflow"
)

// CliExecutor runs one shell command per step and captures its output.
// A non-zero exit is a step failure.
type CliExecutor struct {
	shell string
	dir   string
}

// Kind returns "cli".
func (e *CliExecutor) Kind() string { return "cli" }

// Execute runs the command under the configured shell.
func (e *CliExecutor) Execute(ctx context.Context, step *workflow.Step, run *workflow.Context, g *graph.Graph) (map[string]any, error) {
	command := workflow.Interpolate(step.Config["command"], run.Outputs())
	if command == "" {
		return nil, fmt.Errorf("cli step requires a command")
	}

	shell := e.shell
	if shell == "" {
		shell = "sh"
	}

	cmd := exec.CommandContext(ctx, shell, "-c", command)
	cmd.Dir = e.dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, fmt.Errorf("command exited with code %d: %s",
				exitErr.ExitCode(), bytes.TrimSpace(stderr.Bytes()))
		}
		return nil, fmt.Errorf("run command: %w", err)
	}

	return map[string]any{
		"stdout":   stdout.String(),
		"stderr":   stderr.String(),
		"exitCode": 0,
	}, nil
}
