// Package hooks implements the hook orchestrator: the top-level entry
// point that discovers hooks in the knowledge graph, evaluates each
// predicate, and triggers workflow runs for the satisfied ones.
package hooks

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/c360studio/knowhook/graph"
	vocab "github.com/c360studio/knowhook/vocabulary/hooks"
	"github.com/c360studio/knowhook/workflow"
)

// HookError records one hook's failure during a pass.
type HookError struct {
	HookID string `json:"hook_id"`
	Error  string `json:"error"`
}

// EvaluationResult is the outcome of one orchestrator pass. Success
// reflects orchestration-level health only; individual hook and
// pipeline failures are recorded in Errors without flipping it.
type EvaluationResult struct {
	EvaluationID      string                      `json:"evaluation_id"`
	StartedAt         time.Time                   `json:"started_at"`
	HooksEvaluated    int                         `json:"hooks_evaluated"`
	HooksTriggered    int                         `json:"hooks_triggered"`
	WorkflowsExecuted int                         `json:"workflows_executed"`
	EvaluationTime    time.Duration               `json:"evaluation_time"`
	Success           bool                        `json:"success"`
	Errors            []HookError                 `json:"errors,omitempty"`
	Executions        []*workflow.ExecutionResult `json:"executions,omitempty"`
}

// ReceiptSink persists evaluation receipts after a pass.
type ReceiptSink interface {
	Record(ctx context.Context, res *EvaluationResult) error
}

// Options configures one evaluation pass.
type Options struct {
	// Inputs seed every workflow run's execution context.
	Inputs map[string]any
}

// Orchestrator evaluates all discovered hooks in one pass. Each call is
// self-contained: runs own their contexts, and the graph is read-only
// during evaluation, so calls may overlap freely.
type Orchestrator struct {
	graph   *graph.Graph
	exec    *workflow.Executor
	logger  *slog.Logger
	metrics *Metrics
	sinks   []ReceiptSink
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the orchestrator's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = logger }
}

// WithMetrics registers pass metrics on the given registerer.
func WithMetrics(m *Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// WithReceiptSink adds a sink receipts are recorded to after a pass.
// Sink failures are logged, never fatal.
func WithReceiptSink(sink ReceiptSink) Option {
	return func(o *Orchestrator) { o.sinks = append(o.sinks, sink) }
}

// NewOrchestrator creates an orchestrator over the given graph and
// workflow executor.
func NewOrchestrator(g *graph.Graph, exec *workflow.Executor, opts ...Option) *Orchestrator {
	o := &Orchestrator{graph: g, exec: exec}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	return o
}

// DiscoverHooks returns every hook IRI in the graph, sorted.
func (o *Orchestrator) DiscoverHooks() []string {
	return o.graph.SubjectsOfType(vocab.ClassHook)
}

// Evaluate runs one pass: for each discovered hook, evaluate its
// predicate and, when true, run its pipelines in declared order. A
// failure in one hook never prevents evaluation of the others; it is
// recorded per hook in the result. Evaluate itself errors only when
// orchestration cannot proceed at all.
func (o *Orchestrator) Evaluate(ctx context.Context, opts Options) (*EvaluationResult, error) {
	if o.graph == nil || o.exec == nil {
		return nil, fmt.Errorf("orchestrator not configured with graph and executor")
	}

	start := time.Now()
	result := &EvaluationResult{
		EvaluationID: uuid.New().String(),
		StartedAt:    start,
		Success:      true,
	}

	hookIDs := o.DiscoverHooks()
	o.logger.Debug("evaluation pass started",
		slog.String("evaluation_id", result.EvaluationID),
		slog.Int("hooks", len(hookIDs)))

	for _, hookID := range hookIDs {
		o.evaluateHook(ctx, hookID, opts, result)
	}

	result.EvaluationTime = time.Since(start)
	o.metrics.observePass(result)

	for _, sink := range o.sinks {
		if err := sink.Record(ctx, result); err != nil {
			o.logger.Warn("receipt sink failed",
				slog.String("evaluation_id", result.EvaluationID),
				slog.String("error", err.Error()))
		}
	}

	o.logger.Info("evaluation pass finished",
		slog.String("evaluation_id", result.EvaluationID),
		slog.Int("hooks_evaluated", result.HooksEvaluated),
		slog.Int("hooks_triggered", result.HooksTriggered),
		slog.Int("workflows_executed", result.WorkflowsExecuted),
		slog.Duration("elapsed", result.EvaluationTime))
	return result, nil
}

// evaluateHook processes one hook with full isolation: any error, panic
// included, is recorded against the hook and the pass continues.
func (o *Orchestrator) evaluateHook(ctx context.Context, hookID string, opts Options, result *EvaluationResult) {
	defer func() {
		if r := recover(); r != nil {
			result.Errors = append(result.Errors, HookError{
				HookID: hookID,
				Error:  fmt.Sprintf("panic during evaluation: %v", r),
			})
		}
	}()

	hook, err := o.exec.ParseHook(hookID)
	if err != nil {
		result.Errors = append(result.Errors, HookError{HookID: hookID, Error: err.Error()})
		return
	}

	satisfied, err := o.evaluatePredicate(hook.Predicate)
	if err != nil {
		result.Errors = append(result.Errors, HookError{HookID: hookID, Error: err.Error()})
		return
	}

	result.HooksEvaluated++
	o.metrics.hookEvaluated()
	if !satisfied {
		return
	}

	result.HooksTriggered++
	o.metrics.hookTriggered()
	o.logger.Debug("hook triggered",
		slog.String("hook_id", hookID),
		slog.String("title", hook.Title),
		slog.Int("pipelines", len(hook.Pipelines)))

	// Pipelines run sequentially in declared order; later pipelines may
	// depend on side effects of earlier ones, so a failure stops the
	// remainder of this hook's pipelines.
	for _, pipelineID := range hook.Pipelines {
		run, err := o.exec.Execute(ctx, pipelineID, opts.Inputs)
		if err != nil {
			result.Errors = append(result.Errors, HookError{
				HookID: hookID,
				Error:  fmt.Sprintf("pipeline %s: %v", pipelineID, err),
			})
			return
		}

		result.WorkflowsExecuted++
		o.metrics.workflowExecuted(run)
		result.Executions = append(result.Executions, run)
		if !run.Success {
			result.Errors = append(result.Errors, HookError{
				HookID: hookID,
				Error:  fmt.Sprintf("pipeline %s: %s", pipelineID, run.Error),
			})
			return
		}
	}
}

// evaluatePredicate reduces a predicate to a boolean according to its
// kind. Kinds are open: ask is the boolean form, select-nonempty is
// true when the query yields at least one row.
func (o *Orchestrator) evaluatePredicate(p workflow.Predicate) (bool, error) {
	switch p.Kind {
	case workflow.KindAsk:
		return o.graph.Ask(p.Query)
	case workflow.KindSelectNonEmpty:
		res, err := o.graph.Select(p.Query)
		if err != nil {
			return false, err
		}
		return len(res.Rows) > 0, nil
	default:
		return false, fmt.Errorf("unsupported predicate kind %q", p.Kind)
	}
}
