// Package hierarchy provides read-only lookups over the parent/child note
// hierarchy: parent, children, siblings, ancestry, depth and path, plus a
// consistency check.
//
// Notes are held in an id-indexed arena and every traversal goes through id
// lookups guarded by a visited set and a hop ceiling, so malformed parent
// chains (cycles, dangling references) can never cause unbounded work.
package hierarchy

import (
	"sort"

	"github.com/starford/arbor/internal/models"
)

// MaxHops bounds every walk toward the root.
const MaxHops = 1000

// Index is an id-indexed view over a note collection. It is immutable after
// construction and safe for concurrent reads.
type Index struct {
	notes []models.Note
	byID  map[string]int
}

// NewIndex indexes notes by id. When ids collide the first note wins.
func NewIndex(notes []models.Note) *Index {
	ix := &Index{
		notes: notes,
		byID:  make(map[string]int, len(notes)),
	}
	for i := range notes {
		if _, dup := ix.byID[notes[i].ID]; !dup {
			ix.byID[notes[i].ID] = i
		}
	}
	return ix
}

// Len returns the number of indexed notes.
func (ix *Index) Len() int { return len(ix.byID) }

// Get returns the note with the given id.
func (ix *Index) Get(id string) (*models.Note, bool) {
	i, ok := ix.byID[id]
	if !ok {
		return nil, false
	}
	return &ix.notes[i], true
}

// Parent returns the parent of id, if both exist.
func (ix *Index) Parent(id string) (*models.Note, bool) {
	n, ok := ix.Get(id)
	if !ok || !n.HasParent() {
		return nil, false
	}
	return ix.Get(n.ParentID)
}

// Children returns the children of id in ChildrenIDs order. Ids that do not
// resolve to a note are skipped.
func (ix *Index) Children(id string) []*models.Note {
	n, ok := ix.Get(id)
	if !ok {
		return nil
	}
	out := make([]*models.Note, 0, len(n.ChildrenIDs))
	for _, cid := range n.ChildrenIDs {
		if c, ok := ix.Get(cid); ok {
			out = append(out, c)
		}
	}
	return out
}

// Siblings returns the notes sharing id's parent, excluding id itself, ordered
// by HierarchyOrder then ID. Roots are siblings of every other root.
func (ix *Index) Siblings(id string) []*models.Note {
	n, ok := ix.Get(id)
	if !ok {
		return nil
	}
	var out []*models.Note
	for i := range ix.notes {
		other := &ix.notes[i]
		if other.ID == id || ix.byID[other.ID] != i {
			continue
		}
		if other.ParentID == n.ParentID {
			out = append(out, other)
		}
	}
	SortByOrder(out)
	return out
}

// Ancestors returns the ancestors of id, root first. ok is false when the walk
// is broken (unknown id, dangling parent, cycle or hop ceiling); the returned
// slice is then nil.
func (ix *Index) Ancestors(id string) ([]*models.Note, bool) {
	chain, reason := ix.walk(id)
	if reason != walkOK {
		return nil, false
	}
	out := make([]*models.Note, len(chain))
	for i, n := range chain {
		out[len(chain)-1-i] = n
	}
	return out, true
}

// Depth computes the hop count from id to its root from parent pointers.
// A broken walk yields 0 and ok == false.
func (ix *Index) Depth(id string) (int, bool) {
	chain, reason := ix.walk(id)
	if reason != walkOK {
		return 0, false
	}
	return len(chain), true
}

// Path computes the ancestor ids of id, root first, excluding id.
// A broken walk yields an empty path and ok == false.
func (ix *Index) Path(id string) ([]string, bool) {
	anc, ok := ix.Ancestors(id)
	if !ok {
		return []string{}, false
	}
	path := make([]string, len(anc))
	for i, a := range anc {
		path[i] = a.ID
	}
	return path, true
}

// Descendants returns the subtree below id in pre-order, following
// ChildrenIDs. Each note is emitted at most once, so a cyclic ChildrenIDs graph
// terminates.
func (ix *Index) Descendants(id string) []*models.Note {
	root, ok := ix.Get(id)
	if !ok {
		return nil
	}
	visited := map[string]struct{}{root.ID: {}}
	var out []*models.Note
	stack := pushChildren(nil, ix.Children(root.ID))
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, seen := visited[n.ID]; seen {
			continue
		}
		visited[n.ID] = struct{}{}
		out = append(out, n)
		stack = pushChildren(stack, ix.Children(n.ID))
	}
	return out
}

// pushChildren pushes children in reverse so they pop in order.
func pushChildren(stack, children []*models.Note) []*models.Note {
	for i := len(children) - 1; i >= 0; i-- {
		stack = append(stack, children[i])
	}
	return stack
}

type walkResult int

const (
	walkOK walkResult = iota
	walkUnknown
	walkDangling
	walkCycle
	walkTooDeep
)

// walk follows parent pointers from id and returns the ancestors nearest
// first.
func (ix *Index) walk(id string) ([]*models.Note, walkResult) {
	n, ok := ix.Get(id)
	if !ok {
		return nil, walkUnknown
	}
	visited := map[string]struct{}{n.ID: {}}
	var chain []*models.Note
	for hops := 0; n.HasParent(); hops++ {
		if hops >= MaxHops {
			return nil, walkTooDeep
		}
		if _, seen := visited[n.ParentID]; seen {
			return nil, walkCycle
		}
		p, ok := ix.Get(n.ParentID)
		if !ok {
			return nil, walkDangling
		}
		visited[p.ID] = struct{}{}
		chain = append(chain, p)
		n = p
	}
	return chain, walkOK
}

// SortByOrder sorts notes by HierarchyOrder, then ID.
func SortByOrder(notes []*models.Note) {
	sort.SliceStable(notes, func(i, j int) bool {
		if notes[i].HierarchyOrder != notes[j].HierarchyOrder {
			return notes[i].HierarchyOrder < notes[j].HierarchyOrder
		}
		return notes[i].ID < notes[j].ID
	})
}
