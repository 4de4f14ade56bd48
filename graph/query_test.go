package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const queryFixture = `@prefix kh: <https://knowhook.dev/ontology/> .
@prefix ex: <https://knowhook.dev/entity/test/> .

ex:trigger a kh:TriggerEvent ;
    kh:event "post-commit" ;
    kh:changedPath "docs/readme.md" ;
    kh:changedPath "internal/a.go" ;
    kh:branch "main" .

ex:other a kh:TriggerEvent ;
    kh:event "pre-push" .
`

func queryGraph(t *testing.T) *Graph {
	t.Helper()
	g := New()
	require.NoError(t, g.LoadString(queryFixture))
	return g
}

func TestGraph_Ask(t *testing.T) {
	g := queryGraph(t)

	tests := []struct {
		name  string
		query string
		want  bool
	}{
		{
			name: "matching literal",
			query: `PREFIX kh: <https://knowhook.dev/ontology/>
				ASK WHERE { ?t kh:event "post-commit" }`,
			want: true,
		},
		{
			name: "no match",
			query: `PREFIX kh: <https://knowhook.dev/ontology/>
				ASK WHERE { ?t kh:event "post-merge" }`,
			want: false,
		},
		{
			name: "join across patterns",
			query: `PREFIX kh: <https://knowhook.dev/ontology/>
				ASK WHERE { ?t kh:event "post-commit" . ?t kh:branch "main" }`,
			want: true,
		},
		{
			name: "join with conflicting binding",
			query: `PREFIX kh: <https://knowhook.dev/ontology/>
				ASK WHERE { ?t kh:event "pre-push" . ?t kh:branch "main" }`,
			want: false,
		},
		{
			name: "a keyword with full IRI object",
			query: `ASK WHERE { ?t a <https://knowhook.dev/ontology/TriggerEvent> }`,
			want: true,
		},
		{
			name: "comment lines ignored",
			query: `PREFIX kh: <https://knowhook.dev/ontology/>
				# does the trigger touch docs?
				ASK WHERE { ?t kh:changedPath "docs/readme.md" }`,
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := g.Ask(tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGraph_Select(t *testing.T) {
	g := queryGraph(t)

	t.Run("projected variable", func(t *testing.T) {
		res, err := g.Select(`PREFIX kh: <https://knowhook.dev/ontology/>
			SELECT ?path WHERE { ?t kh:event "post-commit" . ?t kh:changedPath ?path }`)
		require.NoError(t, err)
		require.Equal(t, []string{"path"}, res.Vars)
		require.Len(t, res.Rows, 2)

		var paths []string
		for _, row := range res.Rows {
			paths = append(paths, row["path"].RawValue())
		}
		assert.ElementsMatch(t, []string{"docs/readme.md", "internal/a.go"}, paths)
	})

	t.Run("select star", func(t *testing.T) {
		res, err := g.Select(`PREFIX kh: <https://knowhook.dev/ontology/>
			SELECT * WHERE { ?t kh:branch ?b }`)
		require.NoError(t, err)
		assert.Equal(t, []string{"t", "b"}, res.Vars)
		require.Len(t, res.Rows, 1)
		assert.Equal(t, "main", res.Rows[0]["b"].RawValue())
	})

	t.Run("empty result", func(t *testing.T) {
		res, err := g.Select(`PREFIX kh: <https://knowhook.dev/ontology/>
			SELECT ?t WHERE { ?t kh:event "post-merge" }`)
		require.NoError(t, err)
		assert.Empty(t, res.Rows)
	})
}

func TestGraph_Construct(t *testing.T) {
	g := queryGraph(t)

	triples, err := g.Construct(`PREFIX kh: <https://knowhook.dev/ontology/>
		CONSTRUCT { ?t kh:touched ?path } WHERE { ?t kh:changedPath ?path }`)
	require.NoError(t, err)
	require.Len(t, triples, 2)
	for _, tr := range triples {
		assert.Equal(t, "https://knowhook.dev/ontology/touched", tr.Predicate)
	}
}

func TestGraph_QueryErrors(t *testing.T) {
	g := queryGraph(t)

	tests := []struct {
		name  string
		query string
	}{
		{"empty query", ""},
		{"unsupported form", "DESCRIBE ?x WHERE { ?x ?p ?o }"},
		{"undeclared prefix", `ASK WHERE { ?t kh:event "post-commit" }`},
		{"unterminated IRI", `ASK WHERE { ?t <https://knowhook.dev/ontology/event "x" }`},
		{"unterminated literal", `ASK WHERE { ?t ?p "open }`},
		{"unterminated pattern", `ASK WHERE { ?t ?p ?o`},
		{"missing pattern", `ASK WHERE { }`},
		{"select without projection", `SELECT WHERE { ?s ?p ?o }`},
		{"trailing garbage", `ASK WHERE { ?s ?p ?o } extra`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := g.Ask(tt.query)
			require.Error(t, err)
			var qe *QueryError
			assert.ErrorAs(t, err, &qe)
		})
	}

	t.Run("ask form mismatch", func(t *testing.T) {
		_, err := g.Ask(`SELECT ?s WHERE { ?s ?p ?o }`)
		var qe *QueryError
		require.ErrorAs(t, err, &qe)
		assert.Contains(t, qe.Reason, "expected ASK")
	})

	t.Run("select form mismatch", func(t *testing.T) {
		_, err := g.Select(`ASK WHERE { ?s ?p ?o }`)
		require.Error(t, err)
	})
}
