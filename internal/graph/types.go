// Package graph turns a note collection into typed nodes and classified edges
// ready for layout.
package graph

// NodeType classifies a node by its place in the hierarchy.
type NodeType string

// Node types.
const (
	NodeRoot   NodeType = "root"
	NodeParent NodeType = "parent"
	NodeChild  NodeType = "child"
	NodeOrphan NodeType = "orphan"
)

// NodeTypes lists every node type in a stable order.
var NodeTypes = []NodeType{NodeRoot, NodeParent, NodeChild, NodeOrphan}

// EdgeType distinguishes structural edges from inline references.
type EdgeType string

// Edge types.
const (
	EdgeHierarchy EdgeType = "hierarchy"
	EdgeLink      EdgeType = "link"
)

// EdgeStyle is the stroke used to draw an edge.
type EdgeStyle string

// Edge styles.
const (
	StyleSolid  EdgeStyle = "solid"
	StyleDashed EdgeStyle = "dashed"
)

// Edge weights.
const (
	WeightHierarchy = 2
	WeightLink      = 1
)

// Node is one note in the graph. X and Y are zero until the graph has been
// laid out.
type Node struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	Tags          []string `json:"tags"`
	Connections   int      `json:"connections"`
	Depth         int      `json:"depth"`
	IsRoot        bool     `json:"is_root"`
	ChildrenCount int      `json:"children_count"`
	Type          NodeType `json:"type"`
	Color         string   `json:"color"`
	Accent        string   `json:"accent,omitempty"`
	Size          float64  `json:"size"`
	X             float64  `json:"x"`
	Y             float64  `json:"y"`
}

// Edge connects two nodes.
type Edge struct {
	ID     string    `json:"id"`
	Source string    `json:"source"`
	Target string    `json:"target"`
	Weight int       `json:"weight"`
	Type   EdgeType  `json:"type"`
	Style  EdgeStyle `json:"style"`
}

// Graph is the output of Build and of the layout engine. A Graph handed out
// by this module is never mutated afterwards; a change to the note collection
// produces a new Graph.
type Graph struct {
	Nodes  []Node   `json:"nodes"`
	Edges  []Edge   `json:"edges"`
	Width  float64  `json:"width"`
	Height float64  `json:"height"`
	Roots  []string `json:"roots"`
}

// Clone returns a deep copy of g.
func (g *Graph) Clone() *Graph {
	out := &Graph{
		Nodes:  make([]Node, len(g.Nodes)),
		Edges:  make([]Edge, len(g.Edges)),
		Width:  g.Width,
		Height: g.Height,
		Roots:  append([]string(nil), g.Roots...),
	}
	copy(out.Nodes, g.Nodes)
	copy(out.Edges, g.Edges)
	for i := range out.Nodes {
		out.Nodes[i].Tags = append([]string(nil), g.Nodes[i].Tags...)
	}
	return out
}

// NodeByID returns the node with the given id.
func (g *Graph) NodeByID(id string) (*Node, bool) {
	for i := range g.Nodes {
		if g.Nodes[i].ID == id {
			return &g.Nodes[i], true
		}
	}
	return nil, false
}
