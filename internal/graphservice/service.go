// Package graphservice serves the positioned note graph and the queries over
// it to the API and MCP layers. Each call reads the current note collection;
// the layout cache decides whether a rebuild is needed.
package graphservice

import (
	"context"
	"fmt"

	"github.com/starford/arbor/internal/apperr"
	"github.com/starford/arbor/internal/graph"
	"github.com/starford/arbor/internal/hierarchy"
	"github.com/starford/arbor/internal/layoutcache"
	"github.com/starford/arbor/internal/models"
	"github.com/starford/arbor/internal/query"
)

// NoteSource supplies the current, hierarchy-resolved note collection.
type NoteSource interface {
	Notes() ([]models.Note, error)
}

// Snapshot is a positioned graph and the content hash it was built from.
type Snapshot struct {
	Graph *graph.Graph
	Hash  string
}

// Path is a shortest path between two notes.
type Path struct {
	From  string       `json:"from"`
	To    string       `json:"to"`
	Nodes []graph.Node `json:"nodes"`
	Hops  int          `json:"hops"`
}

// Service is safe for concurrent use.
type Service struct {
	src   NoteSource
	cache *layoutcache.Cache
}

// New returns a service reading notes from src through cache.
func New(src NoteSource, cache *layoutcache.Cache) *Service {
	return &Service{src: src, cache: cache}
}

func (s *Service) notes() ([]models.Note, error) {
	notes, err := s.src.Notes()
	if err != nil {
		return nil, fmt.Errorf("graphservice: load notes: %w", err)
	}
	return notes, nil
}

func (s *Service) snapshot() (Snapshot, []models.Note, error) {
	notes, err := s.notes()
	if err != nil {
		return Snapshot{}, nil, err
	}
	e := s.cache.EntryFor(layoutcache.DefaultKey, notes)
	return Snapshot{Graph: e.Graph, Hash: layoutcache.FormatHash(e.Hash)}, notes, nil
}

// FullGraph returns the positioned graph of every note.
func (s *Service) FullGraph(_ context.Context) (Snapshot, error) {
	snap, _, err := s.snapshot()
	return snap, err
}

func (s *Service) query() (*query.Service, error) {
	snap, _, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	return query.New(snap.Graph), nil
}

// Neighborhood returns the notes within depth hops of id, with full-graph
// coordinates.
func (s *Service) Neighborhood(_ context.Context, id string, depth int) (*graph.Graph, error) {
	if depth < 0 {
		return nil, fmt.Errorf("graphservice: neighborhood: depth %d: %w", depth, apperr.ErrInvalid)
	}
	q, err := s.query()
	if err != nil {
		return nil, err
	}
	if _, ok := q.Node(id); !ok {
		return nil, fmt.Errorf("graphservice: neighborhood: note %q: %w", id, apperr.ErrNotFound)
	}
	return q.Neighborhood(id, depth), nil
}

// Subtree returns id and its hierarchy descendants down to depth levels
// (unbounded when depth < 0).
func (s *Service) Subtree(_ context.Context, id string, depth int) (*graph.Graph, error) {
	q, err := s.query()
	if err != nil {
		return nil, err
	}
	if _, ok := q.Node(id); !ok {
		return nil, fmt.Errorf("graphservice: subtree: note %q: %w", id, apperr.ErrNotFound)
	}
	return q.Subgraph(id, depth), nil
}

// ShortestPath returns a shortest path between two notes over any edge.
// An unknown id or an unreachable target is apperr.ErrNotFound.
func (s *Service) ShortestPath(_ context.Context, from, to string) (*Path, error) {
	q, err := s.query()
	if err != nil {
		return nil, err
	}
	for _, id := range []string{from, to} {
		if _, ok := q.Node(id); !ok {
			return nil, fmt.Errorf("graphservice: shortest path: note %q: %w", id, apperr.ErrNotFound)
		}
	}
	ids, ok := q.ShortestPath(from, to)
	if !ok {
		return nil, fmt.Errorf("graphservice: shortest path: no path from %q to %q: %w", from, to, apperr.ErrNotFound)
	}
	p := &Path{From: from, To: to, Nodes: make([]graph.Node, len(ids)), Hops: len(ids) - 1}
	for i, id := range ids {
		p.Nodes[i], _ = q.Node(id)
	}
	return p, nil
}

// Stats returns aggregate counts over the full graph.
func (s *Service) Stats(_ context.Context) (query.Stats, error) {
	q, err := s.query()
	if err != nil {
		return query.Stats{}, err
	}
	return q.Stats(), nil
}

// Validate reports hierarchy inconsistencies in the current collection.
func (s *Service) Validate(_ context.Context) ([]hierarchy.Issue, error) {
	notes, err := s.notes()
	if err != nil {
		return nil, err
	}
	issues := hierarchy.NewIndex(notes).Validate()
	if issues == nil {
		issues = []hierarchy.Issue{}
	}
	return issues, nil
}

// NoteRef names a note.
type NoteRef struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Lineage is a note's place in the hierarchy, computed from parent pointers.
// Broken is set when the ancestor walk hit a cycle, a missing parent or the
// hop ceiling; Depth and Path are then zero values.
type Lineage struct {
	Note        NoteRef   `json:"note"`
	Parent      *NoteRef  `json:"parent,omitempty"`
	Children    []NoteRef `json:"children"`
	Siblings    []NoteRef `json:"siblings"`
	Ancestors   []NoteRef `json:"ancestors"`
	Descendants []NoteRef `json:"descendants"`
	Depth       int       `json:"depth"`
	Path        []string  `json:"path"`
	Broken      bool      `json:"broken"`
}

func refs(notes []*models.Note) []NoteRef {
	out := make([]NoteRef, len(notes))
	for i, n := range notes {
		out[i] = NoteRef{ID: n.ID, Title: n.Title}
	}
	return out
}

// Lineage returns the hierarchy around id.
func (s *Service) Lineage(_ context.Context, id string) (*Lineage, error) {
	notes, err := s.notes()
	if err != nil {
		return nil, err
	}
	ix := hierarchy.NewIndex(notes)
	n, ok := ix.Get(id)
	if !ok {
		return nil, fmt.Errorf("graphservice: lineage: note %q: %w", id, apperr.ErrNotFound)
	}

	ancestors, walked := ix.Ancestors(id)
	depth, _ := ix.Depth(id)
	path, _ := ix.Path(id)
	l := &Lineage{
		Note:      NoteRef{ID: n.ID, Title: n.Title},
		Children:  refs(ix.Children(id)),
		Siblings:  refs(ix.Siblings(id)),
		Ancestors: refs(ancestors),
		Depth:     depth,
		Path:      path,
		Broken:    !walked,
	}
	if p, ok := ix.Parent(id); ok {
		l.Parent = &NoteRef{ID: p.ID, Title: p.Title}
	}
	l.Descendants = refs(ix.Descendants(id))
	return l, nil
}

// Invalidate drops cached layouts.
func (s *Service) Invalidate() {
	s.cache.Invalidate()
}
