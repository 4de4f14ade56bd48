package step

import (
	"context"
	"fmt"
	"strings"

	"github.com/c360studio/knowhook/graph"
	"github.com/c360studio/knowhook/workflow"
)

// SparqlExecutor runs query steps against the knowledge graph. The
// query text may carry ${...} placeholders bound from the run context.
type SparqlExecutor struct{}

// Kind returns "sparql".
func (e *SparqlExecutor) Kind() string { return "sparql" }

// Execute evaluates the query. The output shape follows the query form:
// ASK yields {result}, SELECT yields {rows, count}, CONSTRUCT yields
// {triples, count}.
func (e *SparqlExecutor) Execute(ctx context.Context, step *workflow.Step, run *workflow.Context, g *graph.Graph) (map[string]any, error) {
	query := step.Config["query"]
	if query == "" {
		return nil, fmt.Errorf("sparql step requires a query")
	}
	query = workflow.Interpolate(query, run.Outputs())

	switch queryForm(query) {
	case "ASK":
		result, err := g.Ask(query)
		if err != nil {
			return nil, err
		}
		return map[string]any{"result": result}, nil

	case "SELECT":
		res, err := g.Select(query)
		if err != nil {
			return nil, err
		}
		rows := make([]map[string]string, 0, len(res.Rows))
		for _, row := range res.Rows {
			out := make(map[string]string, len(row))
			for v, term := range row {
				out[v] = term.RawValue()
			}
			rows = append(rows, out)
		}
		return map[string]any{"rows": rows, "count": len(rows)}, nil

	case "CONSTRUCT":
		triples, err := g.Construct(query)
		if err != nil {
			return nil, err
		}
		return map[string]any{"triples": triples, "count": len(triples)}, nil

	default:
		return nil, &graph.QueryError{Query: query, Reason: "unsupported query form"}
	}
}

// queryForm returns the first keyword after any PREFIX declarations.
func queryForm(query string) string {
	fields := strings.Fields(query)
	for i := 0; i < len(fields); i++ {
		word := strings.ToUpper(fields[i])
		if word == "PREFIX" {
			i += 2 // skip name and IRI
			continue
		}
		return word
	}
	return ""
}
