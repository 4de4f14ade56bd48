package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/c360studio/knowhook/graph"
)

// DefaultRunTimeout bounds one workflow run. Side effects performed
// before the deadline are not rolled back.
const DefaultRunTimeout = 5 * time.Minute

// StepRunner executes one step of a given kind against the run context
// and graph. The step registry implements it.
type StepRunner interface {
	TypeChecker
	Execute(ctx context.Context, step *Step, run *Context, g *graph.Graph) (map[string]any, error)
}

// Phase names one state of a run. Terminal phases are PhaseSucceeded
// and PhaseFailed; there is no retry transition.
type Phase string

const (
	PhaseParsing     Phase = "parsing"
	PhasePlanning    Phase = "planning"
	PhaseContextInit Phase = "context-init"
	PhaseExecuting   Phase = "executing"
	PhaseFinalizing  Phase = "finalizing"
	PhaseSucceeded   Phase = "succeeded"
	PhaseFailed      Phase = "failed"
)

// Executor runs workflows. It is safe for concurrent use: every
// Execute call builds its own plan and owns its own Context.
type Executor struct {
	graph   *graph.Graph
	runner  StepRunner
	parser  *Parser
	logger  *slog.Logger
	timeout time.Duration
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithLogger sets the executor's logger.
func WithLogger(logger *slog.Logger) ExecutorOption {
	return func(e *Executor) { e.logger = logger }
}

// WithTimeout sets the per-run deadline.
func WithTimeout(d time.Duration) ExecutorOption {
	return func(e *Executor) { e.timeout = d }
}

// NewExecutor creates a workflow executor over the given graph and
// step runner.
func NewExecutor(g *graph.Graph, runner StepRunner, opts ...ExecutorOption) *Executor {
	e := &Executor{
		graph:   g,
		runner:  runner,
		timeout: DefaultRunTimeout,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	e.parser = NewParser(g, runner, e.logger)
	return e
}

// Execute runs one workflow: parse, plan, then execute each step
// sequentially in plan order, fail-fast. It returns an error only when
// the workflow cannot be parsed or planned; a step failure yields a
// Failed result with the partial step history instead.
func (e *Executor) Execute(ctx context.Context, workflowID string, inputs map[string]any) (*ExecutionResult, error) {
	start := time.Now()

	// Parsing
	wf, err := e.parser.ParseWorkflow(workflowID)
	if err != nil {
		return nil, err
	}

	// Planning
	plan, err := CreatePlan(wf.Steps)
	if err != nil {
		return nil, err
	}

	// ContextInit
	run := NewContext()
	if err := run.Initialize(InitOptions{WorkflowID: workflowID, Inputs: inputs, StartTime: start}); err != nil {
		return nil, err
	}

	result := &ExecutionResult{
		WorkflowID: workflowID,
		RunID:      run.RunID(),
		StepCount:  len(plan.Steps),
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	e.logger.Debug("executing workflow",
		slog.String("workflow_id", workflowID),
		slog.String("run_id", run.RunID()),
		slog.Int("steps", len(plan.Steps)))

	// Executing(i): sequential, cancellation checked between steps.
	for i, step := range plan.Steps {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return e.fail(run, result, start, runInterruption(ctxErr)), nil
		}

		stepStart := time.Now()
		outputs, stepErr := e.runner.Execute(ctx, step, run, e.graph)
		elapsed := time.Since(stepStart)

		if stepErr != nil {
			wrapped := &StepExecutionError{StepID: step.ID, Cause: stepErr}
			result.Steps = append(result.Steps, StepResult{
				StepID:   step.ID,
				Success:  false,
				Duration: elapsed,
				Error:    wrapped.Error(),
			})
			e.logger.Warn("step failed",
				slog.String("workflow_id", workflowID),
				slog.String("step_id", step.ID),
				slog.Int("step_index", i),
				slog.String("error", stepErr.Error()))
			// A deadline or cancellation that fired mid-step killed the
			// step; the run reports the interruption, not a plain step
			// failure.
			if ctxErr := ctx.Err(); ctxErr != nil {
				return e.fail(run, result, start, runInterruption(ctxErr)), nil
			}
			return e.fail(run, result, start, wrapped), nil
		}

		mapped := applyMapping(outputs, step.OutputMapping)
		// Recorded before the next dependent step runs.
		run.RecordOutput(step.ID, mapped)
		result.Steps = append(result.Steps, StepResult{
			StepID:   step.ID,
			Success:  true,
			Outputs:  mapped,
			Duration: elapsed,
		})
	}

	// Finalizing
	run.SetStatus(StatusSucceeded)
	result.Success = true
	result.Outputs = run.Outputs()
	result.Duration = time.Since(start)
	return result, nil
}

func (e *Executor) fail(run *Context, result *ExecutionResult, start time.Time, cause error) *ExecutionResult {
	run.SetStatus(StatusFailed)
	result.Success = false
	result.Error = cause.Error()
	result.Outputs = run.Outputs()
	result.Duration = time.Since(start)
	return result
}

// runInterruption maps a context error to the run-level sentinel.
func runInterruption(ctxErr error) error {
	if errors.Is(ctxErr, context.DeadlineExceeded) {
		return ErrTimeout
	}
	return fmt.Errorf("%w: %v", ErrCancelled, ctxErr)
}

// ValidateWorkflow runs parsing and planning only. It never executes a
// step and never produces side effects.
func (e *Executor) ValidateWorkflow(workflowID string) *Validation {
	wf, err := e.parser.ParseWorkflow(workflowID)
	if err != nil {
		return &Validation{WorkflowID: workflowID, Valid: false, Error: err.Error()}
	}
	plan, err := CreatePlan(wf.Steps)
	if err != nil {
		return &Validation{WorkflowID: workflowID, Valid: false, Error: err.Error()}
	}
	return &Validation{
		WorkflowID:        workflowID,
		Valid:             true,
		StepCount:         len(plan.Steps),
		Dependencies:      plan.Dependencies,
		EstimatedDuration: EstimateDuration(plan),
	}
}

// ListWorkflows returns summaries for every pipeline in the graph.
func (e *Executor) ListWorkflows() []Summary {
	return e.parser.ListWorkflows()
}

// ParseHook exposes hook parsing for the orchestrator.
func (e *Executor) ParseHook(hookID string) (*Hook, error) {
	return e.parser.ParseHook(hookID)
}

func applyMapping(outputs map[string]any, mapping map[string]string) map[string]any {
	if len(mapping) == 0 {
		return outputs
	}
	mapped := make(map[string]any, len(outputs))
	for k, v := range outputs {
		if renamed, ok := mapping[k]; ok {
			mapped[renamed] = v
			continue
		}
		mapped[k] = v
	}
	return mapped
}
