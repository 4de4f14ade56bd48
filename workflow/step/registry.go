// Package step implements the step execution protocol: a registry of
// typed executors (sparql, template, file, http, cli) dispatched by the
// step's type string. Adding a step kind means registering a new
// Executor; the dispatcher itself never changes.
package step

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/c360studio/knowhook/graph"
	"github.com/c360studio/knowhook/workflow"
)

// Executor runs steps of one kind.
type Executor interface {
	// Kind returns the type string this executor handles.
	Kind() string

	// Execute performs the step's unit of work, reading earlier outputs
	// from the run context. Side effects occur at most once per call.
	Execute(ctx context.Context, step *workflow.Step, run *workflow.Context, g *graph.Graph) (map[string]any, error)
}

// Registry manages step executors keyed by type string. It implements
// workflow.StepRunner.
type Registry struct {
	mu        sync.RWMutex
	executors map[string]Executor
}

// Option configures the default executors in NewRegistry.
type Option func(*options)

type options struct {
	root       string
	httpClient *http.Client
	shell      string
}

// WithRoot confines file and template writes (and cli working
// directories) to the given directory.
func WithRoot(root string) Option {
	return func(o *options) { o.root = root }
}

// WithHTTPClient sets the client http steps use.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// WithShell sets the shell cli steps run under. Default "sh".
func WithShell(shell string) Option {
	return func(o *options) { o.shell = shell }
}

// NewRegistry creates a registry with the default executors registered.
func NewRegistry(opts ...Option) *Registry {
	o := &options{shell: "sh"}
	for _, opt := range opts {
		opt(o)
	}
	if o.httpClient == nil {
		o.httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	r := &Registry{executors: make(map[string]Executor)}
	r.Register(&SparqlExecutor{})
	r.Register(&TemplateExecutor{root: o.root})
	r.Register(&FileExecutor{root: o.root})
	r.Register(&HTTPExecutor{client: o.httpClient})
	r.Register(&CliExecutor{shell: o.shell, dir: o.root})
	return r
}

// Register adds an executor, replacing any existing one for its kind.
func (r *Registry) Register(e Executor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.executors[e.Kind()] = e
}

// Known reports whether a type string has a registered executor.
func (r *Registry) Known(kind string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.executors[kind]
	return ok
}

// Execute dispatches the step to its executor.
func (r *Registry) Execute(ctx context.Context, step *workflow.Step, run *workflow.Context, g *graph.Graph) (map[string]any, error) {
	r.mu.RLock()
	e, ok := r.executors[step.Type]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("no executor registered for step type %q", step.Type)
	}
	return e.Execute(ctx, step, run, g)
}
