package workflow

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/c360studio/knowhook/graph"
	"github.com/c360studio/knowhook/vocabulary/hooks"
)

// TypeChecker reports whether a step type string has a registered
// executor. The step registry implements it; the parser uses it so an
// unrecognized type fails at parse time, not mid-run.
type TypeChecker interface {
	Known(kind string) bool
}

// configProps are the type-specific step literals the parser lifts into
// Step.Config, keyed by local name.
var configProps = map[string]string{
	"query":        hooks.PropQuery,
	"template":     hooks.PropTemplate,
	"filePath":     hooks.PropFilePath,
	"targetPath":   hooks.PropTargetPath,
	"operation":    hooks.PropOperation,
	"content":      hooks.PropContent,
	"url":          hooks.PropURL,
	"method":       hooks.PropMethod,
	"headers":      hooks.PropHeaders,
	"body":         hooks.PropBody,
	"allowFailure": hooks.PropAllowFailure,
	"command":      hooks.PropCommand,
}

// Parser builds the workflow object model from graph triples. Parsing
// is a pure function of graph state: the same graph and ID always yield
// the same Workflow.
type Parser struct {
	graph  *graph.Graph
	types  TypeChecker
	logger *slog.Logger
}

// NewParser creates a parser over the given graph.
func NewParser(g *graph.Graph, types TypeChecker, logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{graph: g, types: types, logger: logger}
}

// ParseWorkflow resolves the pipeline and step triples reachable from
// workflowID into a Workflow.
func (p *Parser) ParseWorkflow(workflowID string) (*Workflow, error) {
	head, ok := p.graph.Object(workflowID, hooks.PropSteps)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrWorkflowNotFound, workflowID)
	}

	stepTerms := p.graph.List(head)
	if len(stepTerms) == 0 {
		return nil, fmt.Errorf("%w: %s has an empty step list", ErrWorkflowNotFound, workflowID)
	}

	wf := &Workflow{ID: workflowID, Steps: make([]*Step, 0, len(stepTerms))}
	seen := make(map[string]bool, len(stepTerms))
	for _, term := range stepTerms {
		iri := term.RawValue()
		step, err := p.parseStep(workflowID, iri)
		if err != nil {
			return nil, err
		}
		if seen[step.ID] {
			return nil, &MalformedStepError{StepID: step.ID, Reason: "duplicate step id in pipeline"}
		}
		seen[step.ID] = true
		wf.Steps = append(wf.Steps, step)
	}

	// Dependency refs must resolve within the step set.
	for _, step := range wf.Steps {
		for _, dep := range step.DependsOn {
			if !seen[dep] {
				return nil, &UnresolvedReferenceError{Referrer: step.ID, Ref: dep}
			}
		}
	}

	p.logger.Debug("parsed workflow",
		slog.String("workflow_id", workflowID),
		slog.Int("steps", len(wf.Steps)))
	return wf, nil
}

func (p *Parser) parseStep(pipelineID, stepIRI string) (*Step, error) {
	stepType := p.graph.Literal(stepIRI, hooks.PropStepType)
	if stepType == "" {
		if !p.graph.Has(stepIRI, graph.RDFType) {
			// No triples at all: the pipeline points at nothing.
			return nil, &UnresolvedReferenceError{Referrer: pipelineID, Ref: stepIRI}
		}
		return nil, &MalformedStepError{StepID: LocalName(stepIRI), Reason: "missing step type"}
	}
	if p.types != nil && !p.types.Known(stepType) {
		return nil, &MalformedStepError{StepID: LocalName(stepIRI), Reason: fmt.Sprintf("unrecognized step type %q", stepType)}
	}

	step := &Step{
		ID:     LocalName(stepIRI),
		IRI:    stepIRI,
		Type:   stepType,
		Config: make(map[string]string),
	}

	for key, prop := range configProps {
		if v := p.graph.Literal(stepIRI, prop); v != "" {
			step.Config[key] = v
		}
	}

	for _, dep := range p.graph.Objects(stepIRI, hooks.PropDependsOn) {
		step.DependsOn = append(step.DependsOn, LocalName(dep.RawValue()))
	}
	// dependsOn is a set; sort for deterministic plans and error text.
	sort.Strings(step.DependsOn)

	if raw := p.graph.Literal(stepIRI, hooks.PropOutputMapping); raw != "" {
		mapping := make(map[string]string)
		if err := json.Unmarshal([]byte(raw), &mapping); err != nil {
			return nil, &MalformedStepError{StepID: step.ID, Reason: fmt.Sprintf("invalid outputMapping JSON: %v", err)}
		}
		step.OutputMapping = mapping
	}

	return step, nil
}

// ParseHook resolves a Hook resource: title, its single predicate, and
// the ordered pipeline list.
func (p *Parser) ParseHook(hookID string) (*Hook, error) {
	predTerm, ok := p.graph.Object(hookID, hooks.PropPredicate)
	if !ok {
		return nil, fmt.Errorf("hook %s: missing predicate", hookID)
	}
	predIRI := predTerm.RawValue()

	query := p.graph.Literal(predIRI, hooks.PropQueryText)
	if query == "" {
		return nil, fmt.Errorf("hook %s: predicate %s has no query text", hookID, predIRI)
	}

	kind := PredicateKind(p.graph.Literal(predIRI, hooks.PropKind))
	if kind == "" {
		kind = KindAsk
	}

	hook := &Hook{
		ID:    hookID,
		Title: p.graph.Literal(hookID, hooks.PropTitle),
		Predicate: Predicate{
			ID:    predIRI,
			Kind:  kind,
			Query: query,
		},
	}

	if head, ok := p.graph.Object(hookID, hooks.PropPipelines); ok {
		for _, t := range p.graph.List(head) {
			hook.Pipelines = append(hook.Pipelines, t.RawValue())
		}
	}

	return hook, nil
}

// ListWorkflows returns a summary for every pipeline in the graph. May
// be empty when the backing store is not populated.
func (p *Parser) ListWorkflows() []Summary {
	ids := p.graph.SubjectsOfType(hooks.ClassPipeline)
	summaries := make([]Summary, 0, len(ids))
	for _, id := range ids {
		count := 0
		if head, ok := p.graph.Object(id, hooks.PropSteps); ok {
			count = len(p.graph.List(head))
		}
		summaries = append(summaries, Summary{ID: id, StepCount: count})
	}
	return summaries
}

// LocalName returns the fragment or last path segment of an IRI, used
// as the short step identifier.
func LocalName(iri string) string {
	if i := strings.LastIndex(iri, "#"); i >= 0 && i < len(iri)-1 {
		return iri[i+1:]
	}
	if i := strings.LastIndex(iri, "/"); i >= 0 && i < len(iri)-1 {
		return iri[i+1:]
	}
	return iri
}
