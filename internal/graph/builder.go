package graph

import (
	"path"
	"strings"

	"github.com/starford/arbor/internal/hierarchy"
	"github.com/starford/arbor/internal/models"
	"github.com/starford/arbor/internal/parser"
)

type edgeKey struct {
	source, target string
}

// Build converts notes into a graph without coordinates. It never fails:
// children, parents and link targets that do not resolve to a note in the
// collection are skipped. When two notes share an id the first one wins.
func Build(notes []models.Note) *Graph {
	g := &Graph{
		Nodes: make([]Node, 0, len(notes)),
		Edges: []Edge{},
		Roots: []string{},
	}

	byID := make(map[string]*models.Note, len(notes))
	unique := make([]*models.Note, 0, len(notes))
	for i := range notes {
		if _, dup := byID[notes[i].ID]; dup {
			continue
		}
		byID[notes[i].ID] = &notes[i]
		unique = append(unique, &notes[i])
	}
	exists := func(id string) bool {
		_, ok := byID[id]
		return ok
	}

	hier := make(map[edgeKey]struct{})
	for _, n := range unique {
		for _, cid := range n.ChildrenIDs {
			k := edgeKey{n.ID, cid}
			if cid == n.ID || !exists(cid) {
				continue
			}
			if _, dup := hier[k]; dup {
				continue
			}
			hier[k] = struct{}{}
			g.Edges = append(g.Edges, Edge{
				ID:     "h:" + n.ID + "->" + cid,
				Source: n.ID,
				Target: cid,
				Weight: WeightHierarchy,
				Type:   EdgeHierarchy,
				Style:  StyleSolid,
			})
		}
	}

	resolver := NewResolver(notes)
	links := make(map[edgeKey]struct{})
	for _, n := range unique {
		for _, ref := range References(n) {
			target, ok := resolver.Resolve(ref)
			if !ok || target == n.ID {
				continue
			}
			k := edgeKey{n.ID, target}
			if _, dup := hier[k]; dup {
				continue
			}
			if _, dup := links[k]; dup {
				continue
			}
			links[k] = struct{}{}
			g.Edges = append(g.Edges, Edge{
				ID:     "l:" + n.ID + "->" + target,
				Source: n.ID,
				Target: target,
				Weight: WeightLink,
				Type:   EdgeLink,
				Style:  StyleDashed,
			})
		}
	}

	degree := make(map[string]int, len(unique))
	childCount := make(map[string]int, len(unique))
	for _, e := range g.Edges {
		degree[e.Source]++
		degree[e.Target]++
		if e.Type == EdgeHierarchy {
			childCount[e.Source]++
		}
	}

	broken := brokenWalks(byID)
	for _, n := range unique {
		t := classify(n, childCount[n.ID], broken[n.ID], exists)
		g.Nodes = append(g.Nodes, Node{
			ID:            n.ID,
			Title:         n.Title,
			Tags:          append([]string{}, n.Tags...),
			Connections:   degree[n.ID],
			Depth:         n.Depth,
			IsRoot:        n.IsRoot,
			ChildrenCount: childCount[n.ID],
			Type:          t,
			Color:         ColorFor(t, n.Depth),
			Accent:        n.Color,
			Size:          SizeFor(t),
		})
		if n.IsRoot {
			g.Roots = append(g.Roots, n.ID)
		}
	}
	return g
}

// classify applies root > parent > child > orphan. A parent pointer that does
// not resolve, or a parent walk that never ends, makes the note an orphan.
func classify(n *models.Note, children int, broken bool, exists func(string) bool) NodeType {
	switch {
	case n.IsRoot:
		return NodeRoot
	case broken:
		return NodeOrphan
	case children > 0:
		return NodeParent
	case n.HasParent() && exists(n.ParentID):
		return NodeChild
	default:
		return NodeOrphan
	}
}

// brokenWalks reports the notes whose parent walk revisits a note or runs
// past hierarchy.MaxHops: members of a parent cycle and notes hanging below
// one. A walk that stops at a missing parent is not broken.
func brokenWalks(byID map[string]*models.Note) map[string]bool {
	out := make(map[string]bool)
	for id, n := range byID {
		seen := map[string]struct{}{id: {}}
		for cur, hops := n, 0; cur.HasParent(); hops++ {
			p, ok := byID[cur.ParentID]
			if !ok {
				break
			}
			if _, again := seen[p.ID]; again || hops >= hierarchy.MaxHops {
				out[id] = true
				break
			}
			seen[p.ID] = struct{}{}
			cur = p
		}
	}
	return out
}

// References returns the raw [[wikilink]] targets found in the blocks of n,
// deduplicated, in document order.
func References(n *models.Note) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, b := range n.Blocks {
		for _, ref := range parser.Links(b.PlainText()) {
			if _, ok := seen[ref]; ok {
				continue
			}
			seen[ref] = struct{}{}
			out = append(out, ref)
		}
	}
	return out
}

// Resolver maps wikilink references to note ids.
type Resolver struct {
	byID    map[string]string
	byFile  map[string]string
	byTitle map[string]string
}

// NewResolver indexes notes by id, vault file (with and without the .md
// extension, and by bare file stem) and case-folded title. Earlier notes win
// on collisions.
func NewResolver(notes []models.Note) *Resolver {
	r := &Resolver{
		byID:    make(map[string]string, len(notes)),
		byFile:  make(map[string]string, len(notes)),
		byTitle: make(map[string]string, len(notes)),
	}
	put := func(m map[string]string, k, id string) {
		if k == "" {
			return
		}
		if _, ok := m[k]; !ok {
			m[k] = id
		}
	}
	for _, n := range notes {
		put(r.byID, n.ID, n.ID)
		if n.File != "" {
			file := strings.ToLower(n.File)
			stem := strings.TrimSuffix(file, ".md")
			put(r.byFile, file, n.ID)
			put(r.byFile, stem, n.ID)
			put(r.byFile, path.Base(stem), n.ID)
		}
		put(r.byTitle, foldTitle(n.Title), n.ID)
	}
	return r
}

// Resolve returns the id of the note ref points at. Any "#heading" anchor is
// ignored.
func (r *Resolver) Resolve(ref string) (string, bool) {
	if i := strings.Index(ref, "#"); i >= 0 {
		ref = ref[:i]
	}
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", false
	}
	if id, ok := r.byID[ref]; ok {
		return id, true
	}
	if id, ok := r.byFile[strings.ToLower(ref)]; ok {
		return id, true
	}
	id, ok := r.byTitle[foldTitle(ref)]
	return id, ok
}

func foldTitle(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
