package hierarchy

import "github.com/starford/arbor/internal/models"

// Resolve returns a copy of notes with ChildrenIDs, Depth, Path and IsRoot
// derived from the ParentID pointers alone. It is meant for sources that only
// persist the parent link.
//
// Children are ordered by HierarchyOrder then ID. A note whose ancestor walk is
// broken keeps depth 0 and an empty path. A note pointing at a missing parent
// keeps its ParentID, so it is neither a root nor anyone's child.
func Resolve(notes []models.Note) []models.Note {
	out := make([]models.Note, len(notes))
	copy(out, notes)

	ix := NewIndex(out)
	children := make(map[string][]*models.Note)
	for i := range out {
		n := &out[i]
		if ix.byID[n.ID] != i || !n.HasParent() {
			continue
		}
		if _, ok := ix.Get(n.ParentID); ok {
			children[n.ParentID] = append(children[n.ParentID], n)
		}
	}

	for i := range out {
		n := &out[i]
		kids := children[n.ID]
		SortByOrder(kids)
		n.ChildrenIDs = make([]string, len(kids))
		for j, c := range kids {
			n.ChildrenIDs[j] = c.ID
		}
		n.IsRoot = !n.HasParent()
	}

	// Depth and path only read ParentID, which is unchanged above.
	for i := range out {
		n := &out[i]
		n.Path, _ = ix.Path(n.ID)
		n.Depth = len(n.Path)
	}
	return out
}
