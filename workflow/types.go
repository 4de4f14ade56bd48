// Package workflow provides the knowhook workflow model: hooks parsed
// from graph data, dependency-planned pipelines, and the per-run
// execution machinery that turns a satisfied predicate into side
// effects.
package workflow

import (
	"time"
)

// PredicateKind tags how a predicate's query reduces to a boolean.
type PredicateKind string

const (
	// KindAsk evaluates the query as a boolean ASK.
	KindAsk PredicateKind = "ask"

	// KindSelectNonEmpty evaluates a SELECT and is true when it yields
	// at least one row.
	KindSelectNonEmpty PredicateKind = "select-nonempty"
)

// Predicate is a boolean test over the knowledge graph.
type Predicate struct {
	ID    string
	Kind  PredicateKind
	Query string
}

// Hook pairs one predicate with an ordered list of pipelines.
type Hook struct {
	ID        string
	Title     string
	Predicate Predicate
	Pipelines []string
}

// Step is one typed unit of work within a pipeline.
type Step struct {
	// ID is the step's local name (the IRI fragment or last path
	// segment), used as the context key and in dependsOn references.
	ID string

	// IRI is the full step resource IRI in the graph.
	IRI string

	Type string

	// Config holds the type-specific literals (query, filePath, url,
	// command, ...) keyed by local property name.
	Config map[string]string

	// DependsOn lists the step IDs that must complete first.
	DependsOn []string

	// OutputMapping renames output keys before they are recorded in the
	// execution context. Parsed once at workflow-build time from the
	// JSON-encoded graph literal. Keys absent from the map pass through.
	OutputMapping map[string]string
}

// Workflow is a parsed pipeline ready to plan and run.
type Workflow struct {
	ID    string
	Steps []*Step
}

// ExecutionPlan is a dependency-resolved, deterministic step order.
type ExecutionPlan struct {
	Steps []*Step

	// Dependencies maps each step ID to its dependsOn list, in plan order.
	Dependencies map[string][]string
}

// StepResult is the outcome of one step.
type StepResult struct {
	StepID   string         `json:"step_id"`
	Success  bool           `json:"success"`
	Outputs  map[string]any `json:"outputs,omitempty"`
	Duration time.Duration  `json:"duration"`
	Error    string         `json:"error,omitempty"`
}

// ExecutionResult is the outcome of one workflow run. On the first
// failing step the Steps list is truncated at the failure.
type ExecutionResult struct {
	WorkflowID string         `json:"workflow_id"`
	RunID      string         `json:"run_id"`
	Success    bool           `json:"success"`
	Duration   time.Duration  `json:"duration"`
	StepCount  int            `json:"step_count"`
	Steps      []StepResult   `json:"steps"`
	Outputs    map[string]any `json:"outputs,omitempty"`
	Error      string         `json:"error,omitempty"`
}

// Validation is the result of the validate-only path: parsing and
// planning without executing a step.
type Validation struct {
	WorkflowID        string              `json:"workflow_id"`
	Valid             bool                `json:"valid"`
	StepCount         int                 `json:"step_count"`
	Dependencies      map[string][]string `json:"dependencies,omitempty"`
	EstimatedDuration time.Duration       `json:"estimated_duration"`
	Error             string              `json:"error,omitempty"`
}

// Summary describes one workflow for listing.
type Summary struct {
	ID        string `json:"id"`
	StepCount int    `json:"step_count"`
}
