// Package layout assigns canvas coordinates to a graph whose hierarchy edges
// form a forest.
//
// Every node is placed in exactly one tree. Trees start at the graph roots,
// left to right; nodes no root can reach (orphans, cycle members) start
// further trees afterwards. A node shared by several parents is placed under
// the first parent that reaches it. Both passes use explicit stacks, so deep
// hierarchies cannot exhaust the goroutine stack.
package layout

import (
	"math"

	"github.com/starford/arbor/internal/graph"
)

// Extra horizontal room added to the canvas beyond the margins.
const safetyMargin = 100

// MinWidth is the narrowest canvas Layout produces for a non-empty graph.
const MinWidth = 800

// Trace counts node visits per pass.
type Trace struct {
	WidthVisits    int
	PositionVisits int
}

// Total returns the number of visits across both passes.
func (t Trace) Total() int {
	return t.WidthVisits + t.PositionVisits
}

// Layout returns a copy of g with X, Y, Width and Height set. g is not
// modified.
func Layout(g *graph.Graph, cfg Config) *graph.Graph {
	out, _ := LayoutWithTrace(g, cfg)
	return out
}

// LayoutWithTrace is Layout and also reports how many times each pass
// visited a node.
func LayoutWithTrace(g *graph.Graph, cfg Config) (*graph.Graph, Trace) {
	var tr Trace
	if g == nil {
		return &graph.Graph{Nodes: []graph.Node{}, Edges: []graph.Edge{}, Roots: []string{}}, tr
	}
	out := g.Clone()
	if len(out.Nodes) == 0 {
		out.Width, out.Height = 0, 0
		return out, tr
	}

	f := plant(out)
	w := f.widths(cfg.NodeSpacing, &tr)
	x := f.positions(w, cfg, &tr)

	minX, maxX := math.Inf(1), math.Inf(-1)
	maxDepth := 0
	for i := range out.Nodes {
		n := &out.Nodes[i]
		n.X = x[i]
		n.Y = cfg.Margin.Top + float64(f.depth[i])*cfg.LevelSpacing
		if s, ok := cfg.NodeSize[n.Type]; ok && s > 0 {
			n.Size = s
		}
		minX = math.Min(minX, n.X)
		maxX = math.Max(maxX, n.X)
		maxDepth = max(maxDepth, f.depth[i])
	}

	out.Width = math.Max(MinWidth, maxX-minX+cfg.Margin.Left+cfg.Margin.Right+safetyMargin)
	out.Height = cfg.Margin.Top + float64(maxDepth)*cfg.LevelSpacing + cfg.Margin.Bottom
	return out, tr
}

// forest is the spanning forest chosen for layout, over node indexes.
type forest struct {
	// trees holds the root index of each tree, left to right.
	trees []int
	// kids holds the children each node owns in the layout, in edge order.
	kids [][]int
	// pre lists every node once, tree by tree, in pre-order.
	pre   []int
	depth []int
}

// plant claims every node for exactly one tree.
func plant(g *graph.Graph) *forest {
	n := len(g.Nodes)
	pos := make(map[string]int, n)
	for i, node := range g.Nodes {
		if _, dup := pos[node.ID]; !dup {
			pos[node.ID] = i
		}
	}

	edges := make([][]int, n)
	hasParent := make([]bool, n)
	for _, e := range g.Edges {
		if e.Type != graph.EdgeHierarchy {
			continue
		}
		s, ok1 := pos[e.Source]
		t, ok2 := pos[e.Target]
		if !ok1 || !ok2 || s == t {
			continue
		}
		edges[s] = append(edges[s], t)
		hasParent[t] = true
	}

	f := &forest{
		kids:  make([][]int, n),
		pre:   make([]int, 0, n),
		depth: make([]int, n),
	}
	// Roots start their own trees even when another node lists them as a
	// child, so they stay on the top row.
	isRoot := make([]bool, n)
	for _, id := range g.Roots {
		if i, ok := pos[id]; ok {
			isRoot[i] = true
		}
	}
	claimed := make([]bool, n)
	grow := func(root int) {
		if claimed[root] {
			return
		}
		claimed[root] = true
		f.trees = append(f.trees, root)
		stack := []int{root}
		for len(stack) > 0 {
			v := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			f.pre = append(f.pre, v)
			for _, c := range edges[v] {
				if claimed[c] || isRoot[c] {
					continue
				}
				claimed[c] = true
				f.depth[c] = f.depth[v] + 1
				f.kids[v] = append(f.kids[v], c)
			}
			for j := len(f.kids[v]) - 1; j >= 0; j-- {
				stack = append(stack, f.kids[v][j])
			}
		}
	}

	for _, id := range g.Roots {
		if i, ok := pos[id]; ok {
			grow(i)
		}
	}
	for i := range g.Nodes {
		if !hasParent[i] {
			grow(i)
		}
	}
	// Whatever is left sits on a parent cycle.
	for i := range g.Nodes {
		grow(i)
	}
	return f
}

// widths computes subtree widths children-first by walking pre-order
// backwards.
func (f *forest) widths(spacing float64, tr *Trace) []float64 {
	w := make([]float64, len(f.kids))
	for i := len(f.pre) - 1; i >= 0; i-- {
		v := f.pre[i]
		tr.WidthVisits++
		kids := f.kids[v]
		if len(kids) == 0 {
			w[v] = spacing
			continue
		}
		sum := float64(len(kids)-1) * spacing
		for _, c := range kids {
			sum += w[c]
		}
		w[v] = sum
	}
	return w
}

// positions places tree roots left to right and then centres each node's
// children span on the node.
func (f *forest) positions(w []float64, cfg Config, tr *Trace) []float64 {
	x := make([]float64, len(f.kids))
	cur := cfg.Margin.Left
	for _, r := range f.trees {
		x[r] = cur + w[r]/2
		cur += w[r] + cfg.NodeSpacing
	}
	for _, v := range f.pre {
		tr.PositionVisits++
		kids := f.kids[v]
		if len(kids) == 0 {
			continue
		}
		start := x[v] - w[v]/2
		for _, c := range kids {
			x[c] = start + w[c]/2
			start += w[c] + cfg.NodeSpacing
		}
	}
	return x
}
