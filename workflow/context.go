package workflow

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a run context.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Context holds the per-run input/output state. Every Execute call
// creates its own Context; it is never shared across concurrent runs,
// which is what makes concurrent orchestrator passes safe.
type Context struct {
	mu sync.RWMutex

	runID       string
	workflowID  string
	inputs      map[string]any
	outputs     map[string]map[string]any
	startTime   time.Time
	status      Status
	initialized bool
}

// NewContext creates an uninitialized run context.
func NewContext() *Context {
	return &Context{
		runID:   uuid.New().String(),
		outputs: make(map[string]map[string]any),
		status:  StatusPending,
	}
}

// InitOptions seeds a context for one run.
type InitOptions struct {
	WorkflowID string
	Inputs     map[string]any
	StartTime  time.Time
}

// Initialize resets the context for a run. Must be called exactly once
// before any step executes.
func (c *Context) Initialize(opts InitOptions) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.initialized {
		return fmt.Errorf("context for run %s already initialized", c.runID)
	}

	c.workflowID = opts.WorkflowID
	c.inputs = make(map[string]any, len(opts.Inputs))
	for k, v := range opts.Inputs {
		c.inputs[k] = v
	}
	c.startTime = opts.StartTime
	if c.startTime.IsZero() {
		c.startTime = time.Now()
	}
	c.status = StatusRunning
	c.initialized = true
	return nil
}

// RunID returns the unique ID for this run.
func (c *Context) RunID() string {
	return c.runID
}

// WorkflowID returns the workflow this context belongs to.
func (c *Context) WorkflowID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.workflowID
}

// StartTime returns when the run began.
func (c *Context) StartTime() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.startTime
}

// Status returns the current run status.
func (c *Context) Status() Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.status
}

// SetStatus moves the run to a new status.
func (c *Context) SetStatus(s Status) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.status = s
}

// RecordOutput stores a step's (already output-mapped) result under its
// ID. Later steps read it through Outputs.
func (c *Context) RecordOutput(stepID string, outputs map[string]any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	stored := make(map[string]any, len(outputs))
	for k, v := range outputs {
		stored[k] = v
	}
	c.outputs[stepID] = stored
}

// StepOutput returns the recorded outputs for one step.
func (c *Context) StepOutput(stepID string) (map[string]any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out, ok := c.outputs[stepID]
	return out, ok
}

// Outputs returns the merged data environment for template rendering
// and step configuration interpolation: input keys at the top level,
// overlaid by each executed step's outputs under its step ID.
func (c *Context) Outputs() map[string]any {
	c.mu.RLock()
	defer c.mu.RUnlock()

	merged := make(map[string]any, len(c.inputs)+len(c.outputs))
	for k, v := range c.inputs {
		merged[k] = v
	}
	for stepID, out := range c.outputs {
		merged[stepID] = out
	}
	return merged
}
