package graph

import (
	rdf "github.com/deiu/rdf2go"

	"github.com/c360studio/knowhook/trigger"
	"github.com/c360studio/knowhook/vocabulary/hooks"
)

// TriggerEntityID is the fixed subject for the current trigger facts.
// Each evaluation pass loads a fresh graph, so the ID does not need to
// vary per invocation.
const TriggerEntityID = hooks.EntityNamespace + "trigger/current"

// IngestTrigger records a git lifecycle event as triples so predicates
// can match on repo state. Must run before an evaluation pass; the
// graph is read-only during the pass itself.
func (g *Graph) IngestTrigger(ev *trigger.Event) error {
	if err := ev.Validate(); err != nil {
		return err
	}

	g.Add(TriggerEntityID, RDFType, rdf.NewResource(hooks.ClassTriggerEvent))
	g.Add(TriggerEntityID, hooks.PropEvent, rdf.NewLiteral(string(ev.Type)))
	for _, path := range ev.ChangedPaths {
		g.Add(TriggerEntityID, hooks.PropChangedPath, rdf.NewLiteral(path))
	}
	if ev.Branch != "" {
		g.Add(TriggerEntityID, hooks.PropBranch, rdf.NewLiteral(ev.Branch))
	}
	if ev.HeadCommit != "" {
		g.Add(TriggerEntityID, hooks.PropHeadCommit, rdf.NewLiteral(ev.HeadCommit))
	}
	return nil
}
