// Package trigger defines the git lifecycle event interface the hook
// engine consumes. The git integration layer detects lifecycle points
// and changed paths; the engine only receives the resulting Event.
package trigger

import "fmt"

// EventType names a git lifecycle point.
type EventType string

// Supported lifecycle events.
const (
	PreCommit    EventType = "pre-commit"
	PostCommit   EventType = "post-commit"
	PrePush      EventType = "pre-push"
	PostMerge    EventType = "post-merge"
	PostCheckout EventType = "post-checkout"
	PreReceive   EventType = "pre-receive"
	PostReceive  EventType = "post-receive"
	PreRebase    EventType = "pre-rebase"
	PostRewrite  EventType = "post-rewrite"
)

var knownEvents = map[EventType]bool{
	PreCommit:    true,
	PostCommit:   true,
	PrePush:      true,
	PostMerge:    true,
	PostCheckout: true,
	PreReceive:   true,
	PostReceive:  true,
	PreRebase:    true,
	PostRewrite:  true,
}

// Event is one git lifecycle invocation.
type Event struct {
	// Type is the lifecycle point that fired.
	Type EventType `json:"type"`

	// ChangedPaths are the repository-relative paths the git operation
	// touched, as reported by the git layer.
	ChangedPaths []string `json:"changed_paths,omitempty"`

	// Branch is the current branch name, if known.
	Branch string `json:"branch,omitempty"`

	// HeadCommit is the current HEAD SHA, if known.
	HeadCommit string `json:"head_commit,omitempty"`
}

// Validate checks the event names a known lifecycle point.
func (e *Event) Validate() error {
	if e.Type == "" {
		return fmt.Errorf("event type is required")
	}
	if !knownEvents[e.Type] {
		return fmt.Errorf("unknown lifecycle event %q", e.Type)
	}
	return nil
}

// Known reports whether name is a recognized lifecycle event.
func Known(name string) bool {
	return knownEvents[EventType(name)]
}
