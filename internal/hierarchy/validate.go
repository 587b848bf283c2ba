package hierarchy

import (
	"fmt"
	"slices"
)

// Reason classifies a hierarchy inconsistency.
type Reason string

// Inconsistency reasons reported by Validate.
const (
	ReasonDanglingParent   Reason = "dangling_parent"
	ReasonNotInParent      Reason = "missing_from_parent_children"
	ReasonDanglingChild    Reason = "dangling_child"
	ReasonChildMismatch    Reason = "child_parent_mismatch"
	ReasonCycle            Reason = "cycle"
	ReasonTooDeep          Reason = "too_deep"
	ReasonRootFlagMismatch Reason = "root_flag_mismatch"
	ReasonDepthMismatch    Reason = "depth_mismatch"
	ReasonPathMismatch     Reason = "path_mismatch"
)

// Issue is one inconsistency found on a note.
type Issue struct {
	NoteID string `json:"note_id"`
	Reason Reason `json:"reason"`
	Detail string `json:"detail"`
}

// Validate checks every note for parent existence, parent/children symmetry,
// termination of the ancestor walk, and agreement of the stored IsRoot, Depth
// and Path fields with values derived from parent pointers. It reports and
// never repairs. Issues are ordered by note position, then by check.
func (ix *Index) Validate() []Issue {
	var issues []Issue
	add := func(id string, r Reason, format string, args ...any) {
		issues = append(issues, Issue{NoteID: id, Reason: r, Detail: fmt.Sprintf(format, args...)})
	}

	for i := range ix.notes {
		n := &ix.notes[i]
		if ix.byID[n.ID] != i {
			continue
		}

		if n.IsRoot != !n.HasParent() {
			add(n.ID, ReasonRootFlagMismatch, "is_root=%t with parent %q", n.IsRoot, n.ParentID)
		}

		if n.HasParent() {
			p, ok := ix.Get(n.ParentID)
			switch {
			case !ok:
				add(n.ID, ReasonDanglingParent, "parent %q does not exist", n.ParentID)
			case !slices.Contains(p.ChildrenIDs, n.ID):
				add(n.ID, ReasonNotInParent, "parent %q does not list it as a child", n.ParentID)
			}
		}

		for _, cid := range n.ChildrenIDs {
			c, ok := ix.Get(cid)
			switch {
			case !ok:
				add(n.ID, ReasonDanglingChild, "child %q does not exist", cid)
			case c.ParentID != n.ID:
				add(n.ID, ReasonChildMismatch, "child %q has parent %q", cid, c.ParentID)
			}
		}

		chain, res := ix.walk(n.ID)
		switch res {
		case walkCycle:
			add(n.ID, ReasonCycle, "ancestor walk revisits a note")
			continue
		case walkTooDeep:
			add(n.ID, ReasonTooDeep, "ancestor walk exceeds %d hops", MaxHops)
			continue
		case walkDangling:
			// Reported above when the direct parent is missing; an ancestor
			// further up with a missing parent is reported on that ancestor.
			continue
		}

		if n.Depth != len(chain) {
			add(n.ID, ReasonDepthMismatch, "stored depth %d, derived %d", n.Depth, len(chain))
		}
		path := make([]string, len(chain))
		for j, a := range chain {
			path[len(chain)-1-j] = a.ID
		}
		if !slices.Equal(n.Path, path) {
			add(n.ID, ReasonPathMismatch, "stored path %v, derived %v", n.Path, path)
		}
	}
	return issues
}

// InvalidIDs returns the distinct note ids present in issues, in first-seen
// order.
func InvalidIDs(issues []Issue) []string {
	seen := make(map[string]struct{}, len(issues))
	var out []string
	for _, is := range issues {
		if _, ok := seen[is.NoteID]; ok {
			continue
		}
		seen[is.NoteID] = struct{}{}
		out = append(out, is.NoteID)
	}
	return out
}
