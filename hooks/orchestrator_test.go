package hooks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/knowhook/graph"
	"github.com/c360studio/knowhook/workflow"
	"github.com/c360studio/knowhook/workflow/step"
)

const orchestratorFixture = `@prefix kh: <https://knowhook.dev/ontology/> .
@prefix ex: <https://knowhook.dev/entity/test/> .

ex:trigger a kh:TriggerEvent ;
    kh:event "post-commit" .

# Alphabetically first: parse error isolation.
ex:a-broken-hook a kh:Hook ;
    kh:title "Broken predicate" ;
    kh:predicate ex:broken-predicate ;
    kh:pipelines ( ex:write-pipeline ) .

ex:broken-predicate a kh:Predicate ;
    kh:kind "ask" ;
    kh:queryText "ASK WHERE { unclosed" .

ex:b-write-hook a kh:Hook ;
    kh:title "Write on commit" ;
    kh:predicate ex:commit-predicate ;
    kh:pipelines ( ex:write-pipeline ) .

ex:commit-predicate a kh:Predicate ;
    kh:kind "ask" ;
    kh:queryText """PREFIX kh: <https://knowhook.dev/ontology/>
        ASK WHERE { ?t kh:event "post-commit" }""" .

ex:c-quiet-hook a kh:Hook ;
    kh:title "Never fires" ;
    kh:predicate ex:merge-predicate ;
    kh:pipelines ( ex:write-pipeline ) .

ex:merge-predicate a kh:Predicate ;
    kh:kind "select-nonempty" ;
    kh:queryText """PREFIX kh: <https://knowhook.dev/ontology/>
        SELECT ?t WHERE { ?t kh:event "post-merge" }""" .

ex:d-failing-hook a kh:Hook ;
    kh:title "Pipeline fails" ;
    kh:predicate ex:commit-predicate ;
    kh:pipelines ( ex:fail-pipeline ex:write-pipeline ) .

ex:write-pipeline a kh:Pipeline ;
    kh:steps ( ex:write-step ) .

ex:write-step a kh:Step ;
    kh:stepType "template" ;
    kh:template "fired" ;
    kh:filePath "fired.txt" .

ex:fail-pipeline a kh:Pipeline ;
    kh:steps ( ex:fail-step ) .

ex:fail-step a kh:Step ;
    kh:stepType "cli" ;
    kh:command "exit 1" .
`

const exNS = "https://knowhook.dev/entity/test/"

type recordingSink struct {
	records []*EvaluationResult
	fail    bool
}

func (s *recordingSink) Record(ctx context.Context, res *EvaluationResult) error {
	if s.fail {
		return fmt.Errorf("sink unavailable")
	}
	s.records = append(s.records, res)
	return nil
}

func newOrchestrator(t *testing.T, opts ...Option) (*Orchestrator, string) {
	t.Helper()

	g := graph.New()
	require.NoError(t, g.LoadString(orchestratorFixture))

	root := t.TempDir()
	registry := step.NewRegistry(step.WithRoot(root))
	exec := workflow.NewExecutor(g, registry)
	return NewOrchestrator(g, exec, opts...), root
}

func TestOrchestrator_DiscoverHooks(t *testing.T) {
	o, _ := newOrchestrator(t)

	ids := o.DiscoverHooks()
	assert.Equal(t, []string{
		exNS + "a-broken-hook",
		exNS + "b-write-hook",
		exNS + "c-quiet-hook",
		exNS + "d-failing-hook",
	}, ids)
}

func TestOrchestrator_Evaluate(t *testing.T) {
	sink := &recordingSink{}
	o, root := newOrchestrator(t,
		WithMetrics(NewMetrics(prometheus.NewRegistry())),
		WithReceiptSink(sink))

	res, err := o.Evaluate(context.Background(), Options{})
	require.NoError(t, err)

	// The broken predicate never counts as evaluated; the other three do.
	assert.Equal(t, 3, res.HooksEvaluated)
	// b-write-hook and d-failing-hook fire; c-quiet-hook does not.
	assert.Equal(t, 2, res.HooksTriggered)
	// b's pipeline plus d's first (failing) pipeline. d's second pipeline
	// is skipped after the failure.
	assert.Equal(t, 2, res.WorkflowsExecuted)
	assert.Len(t, res.Executions, 2)

	// Orchestration-level success is independent of per-hook failures.
	assert.True(t, res.Success)
	require.Len(t, res.Errors, 2)
	assert.Equal(t, exNS+"a-broken-hook", res.Errors[0].HookID)
	assert.Equal(t, exNS+"d-failing-hook", res.Errors[1].HookID)
	assert.Contains(t, res.Errors[1].Error, "fail-pipeline")

	assert.NotEmpty(t, res.EvaluationID)
	assert.False(t, res.StartedAt.IsZero())

	// The triggered pipeline produced its side effect.
	data, err := os.ReadFile(filepath.Join(root, "fired.txt"))
	require.NoError(t, err)
	assert.Equal(t, "fired", string(data))

	// The receipt sink saw the finished result.
	require.Len(t, sink.records, 1)
	assert.Equal(t, res.EvaluationID, sink.records[0].EvaluationID)
}

func TestOrchestrator_Evaluate_SinkFailureNotFatal(t *testing.T) {
	failing := &recordingSink{fail: true}
	working := &recordingSink{}
	o, _ := newOrchestrator(t, WithReceiptSink(failing), WithReceiptSink(working))

	res, err := o.Evaluate(context.Background(), Options{})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Len(t, working.records, 1)
}

func TestOrchestrator_Evaluate_EmptyGraph(t *testing.T) {
	g := graph.New()
	exec := workflow.NewExecutor(g, step.NewRegistry())
	o := NewOrchestrator(g, exec)

	res, err := o.Evaluate(context.Background(), Options{})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Zero(t, res.HooksEvaluated)
	assert.Zero(t, res.HooksTriggered)
	assert.Empty(t, res.Errors)
}

func TestOrchestrator_Evaluate_Unconfigured(t *testing.T) {
	o := &Orchestrator{}
	_, err := o.Evaluate(context.Background(), Options{})
	assert.Error(t, err)
}

func TestOrchestrator_EvaluatePredicate(t *testing.T) {
	o, _ := newOrchestrator(t)

	t.Run("ask true", func(t *testing.T) {
		ok, err := o.evaluatePredicate(workflow.Predicate{
			Kind: workflow.KindAsk,
			Query: `PREFIX kh: <https://knowhook.dev/ontology/>
				ASK WHERE { ?t kh:event "post-commit" }`,
		})
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("select-nonempty false", func(t *testing.T) {
		ok, err := o.evaluatePredicate(workflow.Predicate{
			Kind: workflow.KindSelectNonEmpty,
			Query: `PREFIX kh: <https://knowhook.dev/ontology/>
				SELECT ?t WHERE { ?t kh:event "post-merge" }`,
		})
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("unknown kind", func(t *testing.T) {
		_, err := o.evaluatePredicate(workflow.Predicate{Kind: "vote", Query: "ASK WHERE { ?s ?p ?o }"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "vote")
	})
}

func TestOrchestrator_Evaluate_Inputs(t *testing.T) {
	g := graph.New()
	require.NoError(t, g.LoadString(`@prefix kh: <https://knowhook.dev/ontology/> .
@prefix ex: <https://knowhook.dev/entity/test/> .

ex:t a kh:TriggerEvent ; kh:event "pre-push" .

ex:hook a kh:Hook ;
    kh:predicate ex:pred ;
    kh:pipelines ( ex:pipe ) .

ex:pred a kh:Predicate ;
    kh:queryText """PREFIX kh: <https://knowhook.dev/ontology/>
        ASK WHERE { ?t kh:event "pre-push" }""" .

ex:pipe a kh:Pipeline ;
    kh:steps ( ex:echo ) .

ex:echo a kh:Step ;
    kh:stepType "template" ;
    kh:template "branch is {{.branch}}" .
`))

	root := t.TempDir()
	exec := workflow.NewExecutor(g, step.NewRegistry(step.WithRoot(root)))
	o := NewOrchestrator(g, exec)

	res, err := o.Evaluate(context.Background(), Options{Inputs: map[string]any{"branch": "main"}})
	require.NoError(t, err)
	require.Len(t, res.Executions, 1)
	require.True(t, res.Executions[0].Success)

	echo, ok := res.Executions[0].Outputs["echo"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "branch is main", echo["rendered"])
}
