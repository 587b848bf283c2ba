package graph

// depthPalette colours nodes by depth; depths past the end wrap around.
var depthPalette = []string{
	"#6366f1",
	"#8b5cf6",
	"#ec4899",
	"#f43f5e",
	"#f97316",
	"#eab308",
	"#22c55e",
	"#14b8a6",
	"#06b6d4",
	"#3b82f6",
}

const orphanColor = "#9ca3af"

// baseSizes are the default node radii per type.
var baseSizes = map[NodeType]float64{
	NodeRoot:   24,
	NodeParent: 18,
	NodeChild:  14,
	NodeOrphan: 12,
}

// ColorFor returns the rendering colour for a node of type t at depth.
func ColorFor(t NodeType, depth int) string {
	if t == NodeOrphan {
		return orphanColor
	}
	if depth < 0 {
		depth = 0
	}
	return depthPalette[depth%len(depthPalette)]
}

// SizeFor returns the default rendering size for a node of type t.
func SizeFor(t NodeType) float64 {
	return baseSizes[t]
}
