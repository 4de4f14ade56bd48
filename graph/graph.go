// Package graph provides the in-memory knowledge graph the hook engine
// evaluates against: a triple store loaded from Turtle files plus
// repository-derived facts, with ASK/SELECT-style query support.
package graph

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	rdf "github.com/deiu/rdf2go"
)

// Well-known RDF IRIs used for typing and list traversal.
const (
	RDFType  = "http://www.w3.org/1999/02/22-rdf-syntax-ns#type"
	RDFFirst = "http://www.w3.org/1999/02/22-rdf-syntax-ns#first"
	RDFRest  = "http://www.w3.org/1999/02/22-rdf-syntax-ns#rest"
	RDFNil   = "http://www.w3.org/1999/02/22-rdf-syntax-ns#nil"
)

// DefaultBase is the base URI for parsing Turtle documents.
const DefaultBase = "https://knowhook.dev/"

// HookFilePattern matches hook definition files under a hooks directory.
const HookFilePattern = "**/*.ttl"

// Graph is a read-shared triple store. Mutation happens only while
// loading (before an evaluation pass); reads are safe to share across
// concurrent passes.
type Graph struct {
	mu sync.RWMutex
	g  *rdf.Graph
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{g: rdf.NewGraph(DefaultBase)}
}

// LoadString parses Turtle text into the graph.
func (g *Graph) LoadString(ttl string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.g.Parse(strings.NewReader(ttl), "text/turtle"); err != nil {
		return fmt.Errorf("parse turtle: %w", err)
	}
	return nil
}

// LoadFile parses one Turtle file into the graph.
func (g *Graph) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.g.Parse(f, "text/turtle"); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

// LoadDir parses every Turtle file under dir (recursive) into the graph.
// Files load in sorted path order so repeated loads are deterministic.
func (g *Graph) LoadDir(dir string) error {
	matches, err := doublestar.Glob(os.DirFS(dir), HookFilePattern)
	if err != nil {
		return fmt.Errorf("glob %s: %w", dir, err)
	}
	sort.Strings(matches)

	for _, m := range matches {
		if err := g.LoadFile(filepath.Join(dir, m)); err != nil {
			return err
		}
	}
	return nil
}

// Add inserts one triple. Object may be any rdf term.
func (g *Graph) Add(subject, predicate string, object rdf.Term) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.g.AddTriple(rdf.NewResource(subject), rdf.NewResource(predicate), object)
}

// Len returns the number of triples in the graph.
func (g *Graph) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.g.Len()
}

// Object returns the single object for a subject/predicate pair.
func (g *Graph) Object(subject, predicate string) (rdf.Term, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	t := g.g.One(rdf.NewResource(subject), rdf.NewResource(predicate), nil)
	if t == nil {
		return nil, false
	}
	return t.Object, true
}

// ObjectOf is Object for a subject already held as a term (blank nodes
// from list traversal included).
func (g *Graph) ObjectOf(subject rdf.Term, predicate string) (rdf.Term, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	t := g.g.One(subject, rdf.NewResource(predicate), nil)
	if t == nil {
		return nil, false
	}
	return t.Object, true
}

// Literal returns the raw value of the single literal object for a
// subject/predicate pair, or "" when absent.
func (g *Graph) Literal(subject, predicate string) string {
	o, ok := g.Object(subject, predicate)
	if !ok {
		return ""
	}
	return o.RawValue()
}

// Objects returns every object for a subject/predicate pair.
func (g *Graph) Objects(subject, predicate string) []rdf.Term {
	g.mu.RLock()
	defer g.mu.RUnlock()
	triples := g.g.All(rdf.NewResource(subject), rdf.NewResource(predicate), nil)
	objects := make([]rdf.Term, 0, len(triples))
	for _, t := range triples {
		objects = append(objects, t.Object)
	}
	return objects
}

// SubjectsOfType returns the IRIs of every subject typed as class,
// sorted for deterministic iteration.
func (g *Graph) SubjectsOfType(class string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	triples := g.g.All(nil, rdf.NewResource(RDFType), rdf.NewResource(class))
	subjects := make([]string, 0, len(triples))
	for _, t := range triples {
		subjects = append(subjects, t.Subject.RawValue())
	}
	sort.Strings(subjects)
	return subjects
}

// Has reports whether the subject carries the predicate at all.
func (g *Graph) Has(subject, predicate string) bool {
	_, ok := g.Object(subject, predicate)
	return ok
}

// List walks an rdf:first/rdf:rest chain starting at head and returns
// the member terms in list order. A malformed chain terminates at the
// first node without rdf:first.
func (g *Graph) List(head rdf.Term) []rdf.Term {
	var members []rdf.Term
	node := head
	for node != nil && node.RawValue() != RDFNil {
		first, ok := g.ObjectOf(node, RDFFirst)
		if !ok {
			break
		}
		members = append(members, first)
		rest, ok := g.ObjectOf(node, RDFRest)
		if !ok {
			break
		}
		node = rest
	}
	return members
}

// all is the raw triple-pattern primitive the query evaluator builds on.
// Any nil term is a wildcard.
func (g *Graph) all(s, p, o rdf.Term) []*rdf.Triple {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.g.All(s, p, o)
}
