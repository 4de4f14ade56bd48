package step

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/c360studio/knowhook/graph"
	"github.com/c360studio/knowhook/workflow"
)

// FileExecutor runs file steps: read, write, or copy bytes. Writes
// create missing parent directories first.
type FileExecutor struct {
	// root, when set, confines every path to this directory.
	root string
}

// Kind returns "file".
func (e *FileExecutor) Kind() string { return "file" }

// Execute performs the configured operation.
func (e *FileExecutor) Execute(ctx context.Context, step *workflow.Step, run *workflow.Context, g *graph.Graph) (map[string]any, error) {
	env := run.Outputs()

	rawPath := workflow.Interpolate(step.Config["filePath"], env)
	if rawPath == "" {
		return nil, fmt.Errorf("file step requires filePath")
	}
	path, err := resolvePath(e.root, rawPath)
	if err != nil {
		return nil, err
	}

	op := step.Config["operation"]
	switch op {
	case "read":
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, &IOError{Op: "read", Path: rawPath, Cause: err}
		}
		return map[string]any{"content": string(content), "path": rawPath}, nil

	case "write":
		content := workflow.Interpolate(step.Config["content"], env)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, &IOError{Op: "write", Path: rawPath, Cause: err}
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			return nil, &IOError{Op: "write", Path: rawPath, Cause: err}
		}
		return map[string]any{"path": rawPath, "bytes": len(content)}, nil

	case "copy":
		rawTarget := workflow.Interpolate(step.Config["targetPath"], env)
		if rawTarget == "" {
			return nil, fmt.Errorf("file copy requires targetPath")
		}
		target, err := resolvePath(e.root, rawTarget)
		if err != nil {
			return nil, err
		}
		n, err := copyFile(path, target)
		if err != nil {
			return nil, &IOError{Op: "copy", Path: rawPath, Cause: err}
		}
		return map[string]any{"source": rawPath, "path": rawTarget, "bytes": n}, nil

	case "":
		return nil, fmt.Errorf("file step requires operation (read|write|copy)")
	default:
		return nil, fmt.Errorf("unsupported file operation %q", op)
	}
}

func copyFile(src, dst string) (int64, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return 0, err
	}
	out, err := os.Create(dst)
	if err != nil {
		return 0, err
	}
	defer out.Close()

	n, err := io.Copy(out, in)
	if err != nil {
		return n, err
	}
	return n, out.Close()
}

// resolvePath joins a step path against the root and rejects escapes
// outside it. With no root configured paths are used as given.
func resolvePath(root, path string) (string, error) {
	if root == "" {
		return filepath.Clean(path), nil
	}

	full := path
	if !filepath.IsAbs(full) {
		full = filepath.Join(root, full)
	}
	full = filepath.Clean(full)

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("resolve root: %w", err)
	}
	abs, err := filepath.Abs(full)
	if err != nil {
		return "", fmt.Errorf("resolve path: %w", err)
	}
	if abs != absRoot && !strings.HasPrefix(abs, absRoot+string(filepath.Separator)) {
		return "", fmt.Errorf("access denied: %s is outside the workspace root", path)
	}
	return abs, nil
}
