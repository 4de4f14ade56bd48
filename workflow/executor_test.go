package workflow_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/knowhook/graph"
	"github.com/c360studio/knowhook/workflow"
	"github.com/c360studio/knowhook/workflow/step"
)

const executorFixture = `@prefix kh: <https://knowhook.dev/ontology/> .
@prefix ex: <https://knowhook.dev/entity/test/> .

ex:docs-pipeline a kh:Pipeline ;
    kh:steps ( ex:read ex:render ex:publish ) .

ex:read a kh:Step ;
    kh:stepType "file" ;
    kh:operation "read" ;
    kh:filePath "source.txt" .

ex:render a kh:Step ;
    kh:stepType "template" ;
    kh:template "greeting: {{.read.content}}" ;
    kh:dependsOn ex:read ;
    kh:outputMapping """{"rendered": "text"}""" .

ex:publish a kh:Step ;
    kh:stepType "file" ;
    kh:operation "write" ;
    kh:filePath "out.txt" ;
    kh:content "${render.text}" ;
    kh:dependsOn ex:render .

ex:broken-pipeline a kh:Pipeline ;
    kh:steps ( ex:list-root ex:read-missing ex:never-runs ) .

ex:list-root a kh:Step ;
    kh:stepType "cli" ;
    kh:command "true" .

ex:read-missing a kh:Step ;
    kh:stepType "file" ;
    kh:operation "read" ;
    kh:filePath "does-not-exist.txt" ;
    kh:dependsOn ex:list-root .

ex:never-runs a kh:Step ;
    kh:stepType "file" ;
    kh:operation "write" ;
    kh:filePath "never.txt" ;
    kh:content "unreachable" ;
    kh:dependsOn ex:read-missing .

ex:exit-pipeline a kh:Pipeline ;
    kh:steps ( ex:exit-step ) .

ex:exit-step a kh:Step ;
    kh:stepType "cli" ;
    kh:command "echo oops >&2; exit 3" .

ex:slow-pipeline a kh:Pipeline ;
    kh:steps ( ex:slow-step ) .

ex:slow-step a kh:Step ;
    kh:stepType "cli" ;
    kh:command "sleep 5" .

ex:cyclic-pipeline a kh:Pipeline ;
    kh:steps ( ex:loop-a ex:loop-b ) .

ex:loop-a a kh:Step ;
    kh:stepType "cli" ;
    kh:command "true" ;
    kh:dependsOn ex:loop-b .

ex:loop-b a kh:Step ;
    kh:stepType "cli" ;
    kh:command "true" ;
    kh:dependsOn ex:loop-a .
`

const exNS = "https://knowhook.dev/entity/test/"

func newExecutor(t *testing.T, opts ...workflow.ExecutorOption) (*workflow.Executor, string) {
	t.Helper()

	g := graph.New()
	require.NoError(t, g.LoadString(executorFixture))

	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "source.txt"), []byte("hello world"), 0644))

	registry := step.NewRegistry(step.WithRoot(root))
	return workflow.NewExecutor(g, registry, opts...), root
}

func TestExecutor_Execute(t *testing.T) {
	exec, root := newExecutor(t)

	res, err := exec.Execute(context.Background(), exNS+"docs-pipeline", nil)
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.Equal(t, exNS+"docs-pipeline", res.WorkflowID)
	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, 3, res.StepCount)
	require.Len(t, res.Steps, 3)
	assert.Equal(t, "read", res.Steps[0].StepID)
	assert.Equal(t, "render", res.Steps[1].StepID)
	assert.Equal(t, "publish", res.Steps[2].StepID)
	for _, sr := range res.Steps {
		assert.True(t, sr.Success)
		assert.Empty(t, sr.Error)
	}

	// The mapped key is what later steps and the final outputs see.
	render, ok := res.Outputs["render"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "greeting: hello world", render["text"])

	out, err := os.ReadFile(filepath.Join(root, "out.txt"))
	require.NoError(t, err)
	assert.Equal(t, "greeting: hello world", string(out))
}

func TestExecutor_Execute_FailFast(t *testing.T) {
	exec, root := newExecutor(t)

	res, err := exec.Execute(context.Background(), exNS+"broken-pipeline", nil)
	require.NoError(t, err)

	assert.False(t, res.Success)
	assert.Equal(t, 3, res.StepCount)
	// History stops at the failing step; the third step never runs.
	require.Len(t, res.Steps, 2)
	assert.True(t, res.Steps[0].Success)
	assert.False(t, res.Steps[1].Success)
	assert.Equal(t, "read-missing", res.Steps[1].StepID)
	assert.Contains(t, res.Error, "read-missing")

	_, statErr := os.Stat(filepath.Join(root, "never.txt"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestExecutor_Execute_CliExit(t *testing.T) {
	exec, _ := newExecutor(t)

	res, err := exec.Execute(context.Background(), exNS+"exit-pipeline", nil)
	require.NoError(t, err)

	assert.False(t, res.Success)
	require.Len(t, res.Steps, 1)
	assert.Contains(t, res.Steps[0].Error, "code 3")
	assert.Contains(t, res.Steps[0].Error, "oops")
}

func TestExecutor_Execute_Errors(t *testing.T) {
	exec, _ := newExecutor(t)

	t.Run("unknown workflow", func(t *testing.T) {
		_, err := exec.Execute(context.Background(), exNS+"phantom", nil)
		assert.ErrorIs(t, err, workflow.ErrWorkflowNotFound)
	})

	t.Run("cycle fails planning", func(t *testing.T) {
		_, err := exec.Execute(context.Background(), exNS+"cyclic-pipeline", nil)
		var cerr *workflow.CycleDetectedError
		assert.ErrorAs(t, err, &cerr)
	})
}

func TestExecutor_Execute_Cancelled(t *testing.T) {
	exec, _ := newExecutor(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := exec.Execute(ctx, exNS+"docs-pipeline", nil)
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Empty(t, res.Steps)
	assert.Contains(t, res.Error, "cancelled")
}

func TestExecutor_Execute_Timeout(t *testing.T) {
	exec, _ := newExecutor(t, workflow.WithTimeout(time.Nanosecond))

	res, err := exec.Execute(context.Background(), exNS+"docs-pipeline", nil)
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "timed out")
}

func TestExecutor_Execute_TimeoutMidStep(t *testing.T) {
	exec, _ := newExecutor(t, workflow.WithTimeout(200*time.Millisecond))

	res, err := exec.Execute(context.Background(), exNS+"slow-pipeline", nil)
	require.NoError(t, err)

	// The deadline fires while the step is running. The killed step
	// stays in the history, but the run reports the timeout.
	assert.False(t, res.Success)
	require.Len(t, res.Steps, 1)
	assert.False(t, res.Steps[0].Success)
	assert.Contains(t, res.Error, "timed out")
}

func TestExecutor_ValidateWorkflow(t *testing.T) {
	exec, root := newExecutor(t)

	t.Run("valid pipeline", func(t *testing.T) {
		v := exec.ValidateWorkflow(exNS + "docs-pipeline")
		assert.True(t, v.Valid)
		assert.Equal(t, 3, v.StepCount)
		assert.Equal(t, []string{"read"}, v.Dependencies["render"])
		assert.Greater(t, v.EstimatedDuration, time.Duration(0))
		assert.Empty(t, v.Error)

		// Validation never executes a step.
		_, statErr := os.Stat(filepath.Join(root, "out.txt"))
		assert.True(t, os.IsNotExist(statErr))
	})

	t.Run("cycle reported", func(t *testing.T) {
		v := exec.ValidateWorkflow(exNS + "cyclic-pipeline")
		assert.False(t, v.Valid)
		assert.Contains(t, v.Error, "cycle")
	})

	t.Run("unknown workflow reported", func(t *testing.T) {
		v := exec.ValidateWorkflow(exNS + "phantom")
		assert.False(t, v.Valid)
		assert.Contains(t, v.Error, "not found")
	})
}

func TestExecutor_ListWorkflows(t *testing.T) {
	exec, _ := newExecutor(t)

	summaries := exec.ListWorkflows()
	ids := make(map[string]int, len(summaries))
	for _, s := range summaries {
		ids[s.ID] = s.StepCount
	}
	assert.Equal(t, 3, ids[exNS+"docs-pipeline"])
	assert.Equal(t, 1, ids[exNS+"exit-pipeline"])
}
