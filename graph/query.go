package graph

import (
	"fmt"
	"strings"
	"unicode"

	rdf "github.com/deiu/rdf2go"
)

// QueryError reports query text the evaluator could not parse or execute.
type QueryError struct {
	Query  string
	Reason string
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("query error: %s", e.Reason)
}

// Binding maps variable names (without the leading '?') to matched terms.
type Binding map[string]rdf.Term

// SelectResult is the tabular result of a SELECT query.
type SelectResult struct {
	Vars []string
	Rows []Binding
}

// Triple is a materialized triple produced by a CONSTRUCT query.
type Triple struct {
	Subject   string `json:"subject"`
	Predicate string `json:"predicate"`
	Object    string `json:"object"`
}

// The evaluator covers the basic-graph-pattern subset the hook
// vocabulary needs: PREFIX declarations, ASK/SELECT/CONSTRUCT forms,
// triple patterns with variables, IRIs, prefixed names, plain literals,
// and the 'a' keyword. Patterns are joined left to right.

// Ask evaluates a boolean query: true when the pattern has at least one
// solution in the graph.
func (g *Graph) Ask(query string) (bool, error) {
	q, err := parseQuery(query)
	if err != nil {
		return false, err
	}
	if q.form != "ASK" {
		return false, &QueryError{Query: query, Reason: fmt.Sprintf("expected ASK query, got %s", q.form)}
	}
	return len(g.solve(q.where)) > 0, nil
}

// Select evaluates a tabular query and returns the projected rows.
func (g *Graph) Select(query string) (*SelectResult, error) {
	q, err := parseQuery(query)
	if err != nil {
		return nil, err
	}
	if q.form != "SELECT" {
		return nil, &QueryError{Query: query, Reason: fmt.Sprintf("expected SELECT query, got %s", q.form)}
	}

	vars := q.vars
	if q.selectAll {
		vars = patternVars(q.where)
	}

	solutions := g.solve(q.where)
	rows := make([]Binding, 0, len(solutions))
	for _, sol := range solutions {
		row := make(Binding, len(vars))
		for _, v := range vars {
			if term, ok := sol[v]; ok {
				row[v] = term
			}
		}
		rows = append(rows, row)
	}
	return &SelectResult{Vars: vars, Rows: rows}, nil
}

// Construct evaluates the WHERE pattern and instantiates the template
// once per solution. Template patterns with unbound variables are
// skipped for that solution.
func (g *Graph) Construct(query string) ([]Triple, error) {
	q, err := parseQuery(query)
	if err != nil {
		return nil, err
	}
	if q.form != "CONSTRUCT" {
		return nil, &QueryError{Query: query, Reason: fmt.Sprintf("expected CONSTRUCT query, got %s", q.form)}
	}

	var out []Triple
	seen := make(map[Triple]bool)
	for _, sol := range g.solve(q.where) {
		for _, pat := range q.template {
			s, ok := substitute(pat.s, sol)
			if !ok {
				continue
			}
			p, ok := substitute(pat.p, sol)
			if !ok {
				continue
			}
			o, ok := substitute(pat.o, sol)
			if !ok {
				continue
			}
			t := Triple{Subject: s.RawValue(), Predicate: p.RawValue(), Object: o.RawValue()}
			if !seen[t] {
				seen[t] = true
				out = append(out, t)
			}
		}
	}
	return out, nil
}

// solve joins the patterns left to right against the store.
func (g *Graph) solve(patterns []pattern) []Binding {
	bindings := []Binding{{}}
	for _, pat := range patterns {
		var next []Binding
		for _, b := range bindings {
			s, _ := substitute(pat.s, b)
			p, _ := substitute(pat.p, b)
			o, _ := substitute(pat.o, b)
			for _, t := range g.all(s, p, o) {
				if nb, ok := extend(b, pat, t); ok {
					next = append(next, nb)
				}
			}
		}
		bindings = next
		if len(bindings) == 0 {
			break
		}
	}
	return bindings
}

// substitute resolves a pattern node under a binding. Unbound variables
// yield (nil, false); nil is the wildcard for the store lookup.
func substitute(n node, b Binding) (rdf.Term, bool) {
	if !n.isVar {
		return n.term, true
	}
	term, ok := b[n.varName]
	return term, ok
}

// extend binds the pattern's unbound variables from a matched triple,
// rejecting matches that conflict with existing bindings.
func extend(b Binding, pat pattern, t *rdf.Triple) (Binding, bool) {
	nb := make(Binding, len(b)+3)
	for k, v := range b {
		nb[k] = v
	}
	for _, pos := range []struct {
		n    node
		term rdf.Term
	}{{pat.s, t.Subject}, {pat.p, t.Predicate}, {pat.o, t.Object}} {
		if !pos.n.isVar {
			continue
		}
		if existing, ok := nb[pos.n.varName]; ok {
			if !existing.Equal(pos.term) {
				return nil, false
			}
			continue
		}
		nb[pos.n.varName] = pos.term
	}
	return nb, true
}

// patternVars returns the distinct variable names in first-use order.
func patternVars(patterns []pattern) []string {
	var vars []string
	seen := make(map[string]bool)
	for _, pat := range patterns {
		for _, n := range []node{pat.s, pat.p, pat.o} {
			if n.isVar && !seen[n.varName] {
				seen[n.varName] = true
				vars = append(vars, n.varName)
			}
		}
	}
	return vars
}

type pattern struct {
	s, p, o node
}

type node struct {
	isVar   bool
	varName string
	term    rdf.Term
}

type parsedQuery struct {
	form      string
	vars      []string
	selectAll bool
	template  []pattern
	where     []pattern
	prefixes  map[string]string
}

func parseQuery(query string) (*parsedQuery, error) {
	tokens, err := lexQuery(query)
	if err != nil {
		return nil, &QueryError{Query: query, Reason: err.Error()}
	}

	p := &queryParser{query: query, tokens: tokens, prefixes: map[string]string{}}
	q, err := p.parse()
	if err != nil {
		return nil, &QueryError{Query: query, Reason: err.Error()}
	}
	return q, nil
}

type queryParser struct {
	query    string
	tokens   []string
	pos      int
	prefixes map[string]string
}

func (p *queryParser) parse() (*parsedQuery, error) {
	for strings.EqualFold(p.peek(), "PREFIX") {
		if err := p.parsePrefix(); err != nil {
			return nil, err
		}
	}

	q := &parsedQuery{prefixes: p.prefixes}
	switch form := strings.ToUpper(p.next()); form {
	case "ASK":
		q.form = "ASK"
	case "SELECT":
		q.form = "SELECT"
		for {
			tok := p.peek()
			if tok == "*" {
				q.selectAll = true
				p.next()
				continue
			}
			if strings.HasPrefix(tok, "?") {
				q.vars = append(q.vars, strings.TrimPrefix(p.next(), "?"))
				continue
			}
			break
		}
		if !q.selectAll && len(q.vars) == 0 {
			return nil, fmt.Errorf("SELECT requires projection variables or *")
		}
	case "CONSTRUCT":
		template, err := p.parseGroup()
		if err != nil {
			return nil, err
		}
		q.form = "CONSTRUCT"
		q.template = template
	case "":
		return nil, fmt.Errorf("empty query")
	default:
		return nil, fmt.Errorf("unsupported query form %q", form)
	}

	if strings.EqualFold(p.peek(), "WHERE") {
		p.next()
	}
	where, err := p.parseGroup()
	if err != nil {
		return nil, err
	}
	if len(where) == 0 {
		return nil, fmt.Errorf("empty graph pattern")
	}
	q.where = where

	if tok := p.peek(); tok != "" {
		return nil, fmt.Errorf("unexpected trailing token %q", tok)
	}
	return q, nil
}

func (p *queryParser) parsePrefix() error {
	p.next() // PREFIX
	name := p.next()
	if !strings.HasSuffix(name, ":") {
		return fmt.Errorf("malformed PREFIX name %q", name)
	}
	iri := p.next()
	if !strings.HasPrefix(iri, "<") || !strings.HasSuffix(iri, ">") {
		return fmt.Errorf("malformed PREFIX IRI %q", iri)
	}
	p.prefixes[strings.TrimSuffix(name, ":")] = strings.Trim(iri, "<>")
	return nil
}

func (p *queryParser) parseGroup() ([]pattern, error) {
	if tok := p.next(); tok != "{" {
		return nil, fmt.Errorf("expected '{', got %q", tok)
	}

	var patterns []pattern
	for {
		tok := p.peek()
		if tok == "}" {
			p.next()
			return patterns, nil
		}
		if tok == "" {
			return nil, fmt.Errorf("unterminated graph pattern")
		}

		s, err := p.parseNode()
		if err != nil {
			return nil, err
		}
		pr, err := p.parseNode()
		if err != nil {
			return nil, err
		}
		o, err := p.parseNode()
		if err != nil {
			return nil, err
		}
		patterns = append(patterns, pattern{s: s, p: pr, o: o})

		if p.peek() == "." {
			p.next()
		}
	}
}

func (p *queryParser) parseNode() (node, error) {
	tok := p.next()
	switch {
	case tok == "":
		return node{}, fmt.Errorf("incomplete triple pattern")
	case tok == "a":
		return node{term: rdf.NewResource(RDFType)}, nil
	case strings.HasPrefix(tok, "?"):
		name := strings.TrimPrefix(tok, "?")
		if name == "" {
			return node{}, fmt.Errorf("empty variable name")
		}
		return node{isVar: true, varName: name}, nil
	case strings.HasPrefix(tok, "<") && strings.HasSuffix(tok, ">"):
		return node{term: rdf.NewResource(strings.Trim(tok, "<>"))}, nil
	case strings.HasPrefix(tok, `"`):
		return node{term: rdf.NewLiteral(strings.Trim(tok, `"`))}, nil
	case strings.Contains(tok, ":"):
		parts := strings.SplitN(tok, ":", 2)
		base, ok := p.prefixes[parts[0]]
		if !ok {
			return node{}, fmt.Errorf("undeclared prefix %q", parts[0])
		}
		return node{term: rdf.NewResource(base + parts[1])}, nil
	default:
		// Bare tokens (numbers, booleans) match plain literals.
		return node{term: rdf.NewLiteral(tok)}, nil
	}
}

func (p *queryParser) peek() string {
	if p.pos >= len(p.tokens) {
		return ""
	}
	return p.tokens[p.pos]
}

func (p *queryParser) next() string {
	tok := p.peek()
	if tok != "" {
		p.pos++
	}
	return tok
}

// lexQuery splits query text into tokens: punctuation, quoted literals,
// IRIs, and bare words. Comments run from '#' to end of line.
func lexQuery(query string) ([]string, error) {
	var tokens []string
	runes := []rune(query)
	for i := 0; i < len(runes); {
		r := runes[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case r == '#':
			for i < len(runes) && runes[i] != '\n' {
				i++
			}
		case r == '{' || r == '}' || r == '.' || r == '*':
			tokens = append(tokens, string(r))
			i++
		case r == '<':
			j := i + 1
			for j < len(runes) && runes[j] != '>' {
				j++
			}
			if j >= len(runes) {
				return nil, fmt.Errorf("unterminated IRI")
			}
			tokens = append(tokens, string(runes[i:j+1]))
			i = j + 1
		case r == '"':
			j := i + 1
			for j < len(runes) && runes[j] != '"' {
				if runes[j] == '\\' {
					j++
				}
				j++
			}
			if j >= len(runes) {
				return nil, fmt.Errorf("unterminated literal")
			}
			tokens = append(tokens, string(runes[i:j+1]))
			i = j + 1
		default:
			j := i
			for j < len(runes) && !unicode.IsSpace(runes[j]) && !strings.ContainsRune("{}<>\"#", runes[j]) {
				// '.' ends a token only when it terminates a pattern,
				// not when it appears inside a prefixed name.
				if runes[j] == '.' && (j+1 >= len(runes) || unicode.IsSpace(runes[j+1]) || runes[j+1] == '}') {
					break
				}
				j++
			}
			tokens = append(tokens, string(runes[i:j]))
			i = j
		}
	}
	return tokens, nil
}
