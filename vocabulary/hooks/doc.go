// Package hooks defines the RDF vocabulary for knowhook hook definitions.
//
// Hooks are declared as Turtle graph data, not code. A Hook resource
// references exactly one Predicate and an ordered list of Pipelines; each
// Pipeline references an ordered list of Steps; each Step carries a type
// and type-specific literals. The constants here are the fixed IRIs the
// workflow parser resolves against.
package hooks
