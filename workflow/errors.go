package workflow

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for run-level conditions.
var (
	// ErrWorkflowNotFound reports a workflow ID with no backing triples.
	ErrWorkflowNotFound = errors.New("workflow not found")

	// ErrTimeout reports a run that exceeded its deadline. Side effects
	// already performed are not rolled back.
	ErrTimeout = errors.New("workflow run timed out")

	// ErrCancelled reports a run cancelled between steps.
	ErrCancelled = errors.New("workflow run cancelled")
)

// MalformedStepError reports a step whose graph data cannot form a
// valid Step: unrecognized type, self-dependency, or bad literals.
type MalformedStepError struct {
	StepID string
	Reason string
}

func (e *MalformedStepError) Error() string {
	return fmt.Sprintf("malformed step %s: %s", e.StepID, e.Reason)
}

// UnresolvedReferenceError reports a reference to a step that is not
// present in the step set.
type UnresolvedReferenceError struct {
	Referrer string
	Ref      string
}

func (e *UnresolvedReferenceError) Error() string {
	return fmt.Sprintf("%s references unknown step %s", e.Referrer, e.Ref)
}

// CycleDetectedError reports a dependency cycle, naming the steps that
// could not be ordered.
type CycleDetectedError struct {
	StepIDs []string
}

func (e *CycleDetectedError) Error() string {
	return fmt.Sprintf("dependency cycle involving steps: %s", strings.Join(e.StepIDs, ", "))
}

// StepExecutionError wraps a step failure with the offending step ID.
// It is fatal to the enclosing run.
type StepExecutionError struct {
	StepID string
	Cause  error
}

func (e *StepExecutionError) Error() string {
	return fmt.Sprintf("step %s failed: %v", e.StepID, e.Cause)
}

func (e *StepExecutionError) Unwrap() error {
	return e.Cause
}
