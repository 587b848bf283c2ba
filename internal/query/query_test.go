package query

import (
	"slices"
	"testing"

	"github.com/starford/arbor/internal/graph"
	"github.com/starford/arbor/internal/hierarchy"
	"github.com/starford/arbor/internal/testutil/notetest"
)

// r ── a ── a1
//   └─ b
// x (separate root), a1 links to b.
func fixture() *Service {
	notes := notetest.Forest(
		"r", "",
		"a", "r",
		"b", "r",
		"a1", "a",
		"x", "",
	)
	notes[3] = notetest.WithText(notes[3], "see [[b]]")
	return New(graph.Build(hierarchy.Resolve(notes)))
}

func nodeIDs(nodes []graph.Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.ID
	}
	return out
}

func TestNeighbors(t *testing.T) {
	s := fixture()
	tests := []struct {
		id   string
		want []string
	}{
		{"r", []string{"a", "b"}},
		{"b", []string{"r", "a1"}},
		{"x", []string{}},
		{"missing", []string{}},
	}
	for _, tt := range tests {
		got := nodeIDs(s.Neighbors(tt.id))
		if !slices.Equal(got, tt.want) {
			t.Errorf("Neighbors(%s) = %v, want %v", tt.id, got, tt.want)
		}
	}
}

func TestShortestPath(t *testing.T) {
	s := fixture()
	tests := []struct {
		from, to string
		want     []string
		ok       bool
	}{
		{"r", "a1", []string{"r", "a", "a1"}, true},
		{"b", "a1", []string{"b", "a1"}, true},
		{"a1", "a1", []string{"a1"}, true},
		{"r", "x", nil, false},
		{"r", "missing", nil, false},
		{"missing", "r", nil, false},
	}
	for _, tt := range tests {
		got, ok := s.ShortestPath(tt.from, tt.to)
		if ok != tt.ok || !slices.Equal(got, tt.want) {
			t.Errorf("ShortestPath(%s, %s) = %v, %t; want %v, %t", tt.from, tt.to, got, ok, tt.want, tt.ok)
		}
	}
}

func TestSubgraph_HierarchyOnly(t *testing.T) {
	s := fixture()

	g := s.Subgraph("a", -1)
	if got := nodeIDs(g.Nodes); !slices.Equal(got, []string{"a", "a1"}) {
		t.Errorf("Subgraph(a) nodes = %v", got)
	}
	// b is reachable from a1 only over a link edge.
	if len(g.Edges) != 1 || g.Edges[0].Type != graph.EdgeHierarchy {
		t.Errorf("Subgraph(a) edges = %+v", g.Edges)
	}

	shallow := s.Subgraph("r", 1)
	if got := nodeIDs(shallow.Nodes); !slices.Equal(got, []string{"r", "a", "b"}) {
		t.Errorf("Subgraph(r, 1) nodes = %v", got)
	}
	if !slices.Equal(shallow.Roots, []string{"r"}) {
		t.Errorf("roots = %v", shallow.Roots)
	}

	if empty := s.Subgraph("missing", -1); len(empty.Nodes) != 0 || len(empty.Roots) != 0 {
		t.Errorf("missing root should give an empty graph, got %+v", empty)
	}
}

func TestNeighborhood(t *testing.T) {
	s := fixture()

	one := s.Neighborhood("b", 1)
	if got := nodeIDs(one.Nodes); !slices.Equal(got, []string{"b", "r", "a1"}) {
		t.Errorf("Neighborhood(b, 1) = %v", got)
	}
	// r->b and a1->b; the r->a and a->a1 edges need a.
	if len(one.Edges) != 2 {
		t.Errorf("edges = %d, want 2", len(one.Edges))
	}

	zero := s.Neighborhood("b", 0)
	if len(zero.Nodes) != 1 || len(zero.Edges) != 0 {
		t.Errorf("Neighborhood(b, 0) = %+v", zero)
	}
}

func TestStats(t *testing.T) {
	st := fixture().Stats()
	want := Stats{
		Nodes:          5,
		Edges:          4,
		HierarchyEdges: 3,
		LinkEdges:      1,
		Roots:          2,
		MaxDepth:       2,
		AvgChildren:    3.0 / 5.0,
	}
	if st != want {
		t.Errorf("Stats() = %+v, want %+v", st, want)
	}

	if empty := New(nil).Stats(); empty != (Stats{}) {
		t.Errorf("empty stats = %+v", empty)
	}
}
