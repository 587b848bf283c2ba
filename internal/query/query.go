// Package query answers read-only questions about a built graph.
//
// Unknown ids never cause errors: lookups return empty results or false.
package query

import (
	"github.com/starford/arbor/internal/graph"
)

// Stats summarises a graph.
type Stats struct {
	Nodes          int     `json:"nodes"`
	Edges          int     `json:"edges"`
	HierarchyEdges int     `json:"hierarchy_edges"`
	LinkEdges      int     `json:"link_edges"`
	Roots          int     `json:"roots"`
	MaxDepth       int     `json:"max_depth"`
	AvgChildren    float64 `json:"avg_children"`
}

type arc struct {
	to   int
	edge int
}

// Service indexes one graph. It never modifies the graph and is safe for
// concurrent use once built.
type Service struct {
	g    *graph.Graph
	pos  map[string]int
	adj  [][]arc // undirected, edge order
	down [][]arc // hierarchy edges, parent to child
}

// New indexes g.
func New(g *graph.Graph) *Service {
	if g == nil {
		g = &graph.Graph{}
	}
	s := &Service{
		g:    g,
		pos:  make(map[string]int, len(g.Nodes)),
		adj:  make([][]arc, len(g.Nodes)),
		down: make([][]arc, len(g.Nodes)),
	}
	for i, n := range g.Nodes {
		if _, dup := s.pos[n.ID]; !dup {
			s.pos[n.ID] = i
		}
	}
	for ei, e := range g.Edges {
		a, ok1 := s.pos[e.Source]
		b, ok2 := s.pos[e.Target]
		if !ok1 || !ok2 {
			continue
		}
		s.adj[a] = append(s.adj[a], arc{b, ei})
		if a != b {
			s.adj[b] = append(s.adj[b], arc{a, ei})
		}
		if e.Type == graph.EdgeHierarchy {
			s.down[a] = append(s.down[a], arc{b, ei})
		}
	}
	return s
}

// Node returns the node with the given id.
func (s *Service) Node(id string) (graph.Node, bool) {
	i, ok := s.pos[id]
	if !ok {
		return graph.Node{}, false
	}
	return s.g.Nodes[i], true
}

// Neighbors returns the nodes sharing an edge of any type with id, each
// once, in edge order.
func (s *Service) Neighbors(id string) []graph.Node {
	i, ok := s.pos[id]
	if !ok {
		return []graph.Node{}
	}
	seen := map[int]bool{i: true}
	out := []graph.Node{}
	for _, a := range s.adj[i] {
		if seen[a.to] {
			continue
		}
		seen[a.to] = true
		out = append(out, s.g.Nodes[a.to])
	}
	return out
}

// ShortestPath returns the ids on a shortest path from one node to another,
// ignoring edge direction and type. ok is false when either id is unknown or
// no path exists.
func (s *Service) ShortestPath(from, to string) ([]string, bool) {
	src, ok1 := s.pos[from]
	dst, ok2 := s.pos[to]
	if !ok1 || !ok2 {
		return nil, false
	}
	if src == dst {
		return []string{from}, true
	}

	prev := make([]int, len(s.g.Nodes))
	for i := range prev {
		prev[i] = -1
	}
	prev[src] = src
	queue := []int{src}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, a := range s.adj[cur] {
			if prev[a.to] != -1 {
				continue
			}
			prev[a.to] = cur
			if a.to == dst {
				return s.trace(prev, src, dst), true
			}
			queue = append(queue, a.to)
		}
	}
	return nil, false
}

func (s *Service) trace(prev []int, src, dst int) []string {
	var rev []string
	for v := dst; ; v = prev[v] {
		rev = append(rev, s.g.Nodes[v].ID)
		if v == src {
			break
		}
	}
	out := make([]string, len(rev))
	for i, id := range rev {
		out[len(rev)-1-i] = id
	}
	return out
}

// Subgraph returns rootID and its descendants reached over hierarchy edges,
// at most maxDepth levels down (unbounded when maxDepth < 0). Edges of any
// type between included nodes are kept, and coordinates are those of the
// source graph.
func (s *Service) Subgraph(rootID string, maxDepth int) *graph.Graph {
	return s.collect(rootID, maxDepth, s.down)
}

// Neighborhood returns the nodes within depth hops of id over edges of any
// type, with the edges between them.
func (s *Service) Neighborhood(id string, depth int) *graph.Graph {
	return s.collect(id, depth, s.adj)
}

func (s *Service) collect(id string, maxDepth int, next [][]arc) *graph.Graph {
	out := &graph.Graph{
		Nodes:  []graph.Node{},
		Edges:  []graph.Edge{},
		Roots:  []string{},
		Width:  s.g.Width,
		Height: s.g.Height,
	}
	start, ok := s.pos[id]
	if !ok {
		return out
	}

	type item struct{ node, depth int }
	included := map[int]bool{start: true}
	order := []int{start}
	queue := []item{{start, 0}}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if maxDepth >= 0 && cur.depth >= maxDepth {
			continue
		}
		for _, a := range next[cur.node] {
			if included[a.to] {
				continue
			}
			included[a.to] = true
			order = append(order, a.to)
			queue = append(queue, item{a.to, cur.depth + 1})
		}
	}

	for _, i := range order {
		out.Nodes = append(out.Nodes, s.g.Nodes[i])
	}
	for _, e := range s.g.Edges {
		a, ok1 := s.pos[e.Source]
		b, ok2 := s.pos[e.Target]
		if ok1 && ok2 && included[a] && included[b] {
			out.Edges = append(out.Edges, e)
		}
	}
	out.Roots = append(out.Roots, id)
	return out
}

// Stats computes aggregate counts. AvgChildren is the mean ChildrenCount over
// all nodes.
func (s *Service) Stats() Stats {
	var st Stats
	st.Nodes = len(s.g.Nodes)
	st.Edges = len(s.g.Edges)
	for _, e := range s.g.Edges {
		switch e.Type {
		case graph.EdgeHierarchy:
			st.HierarchyEdges++
		case graph.EdgeLink:
			st.LinkEdges++
		}
	}
	children := 0
	for _, n := range s.g.Nodes {
		if n.IsRoot {
			st.Roots++
		}
		st.MaxDepth = max(st.MaxDepth, n.Depth)
		children += n.ChildrenCount
	}
	if st.Nodes > 0 {
		st.AvgChildren = float64(children) / float64(st.Nodes)
	}
	return st
}
