// Package notetest builds in-memory note collections for tests.
package notetest

import (
	"fmt"
	"time"

	"github.com/starford/arbor/internal/models"
)

// Epoch is the UpdatedAt stamp given to fixture notes.
var Epoch = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

// Note returns a note with id, title = id and the given parent. Derived
// hierarchy fields are left empty.
func Note(id, parent string) models.Note {
	return models.Note{
		ID:        id,
		Title:     id,
		ParentID:  parent,
		IsRoot:    parent == "",
		CreatedAt: Epoch,
		UpdatedAt: Epoch,
	}
}

// WithText appends a text block to n.
func WithText(n models.Note, text string) models.Note {
	n.Blocks = append(n.Blocks, models.TextBlock{Text: text})
	return n
}

// Forest returns notes from (id, parent) pairs, in order.
func Forest(pairs ...string) []models.Note {
	if len(pairs)%2 != 0 {
		panic("notetest: Forest needs id/parent pairs")
	}
	out := make([]models.Note, 0, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		out = append(out, Note(pairs[i], pairs[i+1]))
	}
	return out
}

// BinaryTree returns n notes "n0".."n<n-1>" in heap order: the parent of
// note i is note (i-1)/2.
func BinaryTree(n int) []models.Note {
	out := make([]models.Note, n)
	for i := range out {
		parent := ""
		if i > 0 {
			parent = fmt.Sprintf("n%d", (i-1)/2)
		}
		out[i] = Note(fmt.Sprintf("n%d", i), parent)
		out[i].HierarchyOrder = i
	}
	return out
}
