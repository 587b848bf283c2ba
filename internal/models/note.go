// Package models defines the domain types shared by the vault, the index and
// the graph engine.
package models

import "time"

// Note is a single user document and its position in the note hierarchy.
//
// ParentID is empty for hierarchy roots. ChildrenIDs, Depth, Path and IsRoot
// are derived fields; sources that only store the parent pointer fill them with
// hierarchy.Resolve.
type Note struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Blocks         Blocks    `json:"blocks"`
	Tags           []string  `json:"tags"`
	ParentID       string    `json:"parent_id,omitempty"`
	ChildrenIDs    []string  `json:"children_ids"`
	Depth          int       `json:"depth"`
	Path           []string  `json:"path"`
	IsRoot         bool      `json:"is_root"`
	HierarchyOrder int       `json:"hierarchy_order"`
	Color          string    `json:"color,omitempty"`
	File           string    `json:"file,omitempty"`
	Checksum       string    `json:"checksum,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// HasParent reports whether the note points at a parent.
func (n *Note) HasParent() bool {
	return n.ParentID != ""
}

// NoteMetadata is a lightweight representation returned by list operations.
type NoteMetadata struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Link represents a directed inline reference between two notes.
type Link struct {
	Source string `json:"source"`
	Target string `json:"target"`
}
