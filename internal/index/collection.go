package index

import (
	"fmt"

	"github.com/starford/arbor/internal/graph"
	"github.com/starford/arbor/internal/hierarchy"
	"github.com/starford/arbor/internal/models"
)

// Notes returns the whole indexed collection, ordered by path, with parent
// references resolved to note ids and hierarchy fields derived.
func (db *DB) Notes() ([]models.Note, error) {
	rows, err := db.conn.Query(`SELECT ` + noteColumns + ` FROM notes ORDER BY path`)
	if err != nil {
		return nil, fmt.Errorf("index: notes: %w", err)
	}
	defer rows.Close()

	notes := []models.Note{}
	for rows.Next() {
		r, err := scanRow(rows)
		if err != nil {
			return nil, err
		}
		notes = append(notes, r.Note())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("index: notes: %w", err)
	}
	return Collection(notes), nil
}

// Collection resolves each note's ParentID, which may name the parent by id,
// file or title, to the parent's id, then derives children, depth and path.
// An unresolvable parent is kept verbatim, so the note ends up an orphan.
func Collection(notes []models.Note) []models.Note {
	r := graph.NewResolver(notes)
	for i := range notes {
		if !notes[i].HasParent() {
			continue
		}
		if id, ok := r.Resolve(notes[i].ParentID); ok {
			notes[i].ParentID = id
		}
	}
	return hierarchy.Resolve(notes)
}
