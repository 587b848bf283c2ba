// Package noteservice coordinates vault writes with the index. It is the
// mutation layer for notes: hierarchy changes happen by rewriting a note's
// frontmatter here, and the graph engine only ever reads the result.
package noteservice

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/starford/arbor/internal/apperr"
	"github.com/starford/arbor/internal/checksum"
	"github.com/starford/arbor/internal/index"
	"github.com/starford/arbor/internal/models"
	"github.com/starford/arbor/internal/parser"
	"github.com/starford/arbor/internal/storage"
)

// NoteDetail is the full representation of a note.
type NoteDetail struct {
	Path        string         `json:"path"`
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Content     string         `json:"content"`
	Checksum    string         `json:"checksum"`
	Tags        []string       `json:"tags"`
	Parent      string         `json:"parent,omitempty"`
	Order       int            `json:"order"`
	Color       string         `json:"color,omitempty"`
	Blocks      models.Blocks  `json:"blocks"`
	Frontmatter map[string]any `json:"frontmatter,omitempty"`
	Backlinks   []string       `json:"backlinks"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// NoteListItem is a lightweight item in a list response.
type NoteListItem struct {
	Path      string    `json:"path"`
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Checksum  string    `json:"checksum"`
	Tags      []string  `json:"tags"`
	Parent    string    `json:"parent,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ChangeFunc is told about every note the service writes or deletes.
type ChangeFunc func(kind index.ChangeKind, path string)

// Option configures a Service.
type Option func(*Service)

// WithChangeHook registers fn to run after each successful mutation.
func WithChangeHook(fn ChangeFunc) Option {
	return func(s *Service) {
		s.onChange = fn
	}
}

// Service coordinates storage and index operations.
type Service struct {
	store    storage.Provider
	db       *index.DB
	onChange ChangeFunc
}

// NewService creates a new note service.
func NewService(store storage.Provider, db *index.DB, opts ...Option) *Service {
	s := &Service{store: store, db: db}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) notify(kind index.ChangeKind, p string) {
	if s.onChange != nil {
		s.onChange(kind, p)
	}
}

// validPath rejects anything that is not a visible Markdown file.
func validPath(p string) error {
	if p == "" || !storage.IsNoteFile(p) {
		return fmt.Errorf("note path %q: %w", p, apperr.ErrInvalid)
	}
	return nil
}

// GetNote reads a note from storage, parses it, and enriches with backlinks.
func (s *Service) GetNote(_ context.Context, p string) (*NoteDetail, error) {
	data, err := s.store.Read(p)
	if err != nil {
		return nil, err
	}
	meta, err := s.store.Stat(p)
	if err != nil {
		return nil, err
	}
	return s.buildNoteDetail(p, data, meta.UpdatedAt)
}

// CreateNote writes a new note and indexes it.
func (s *Service) CreateNote(_ context.Context, p string, content []byte) (*NoteDetail, error) {
	if err := validPath(p); err != nil {
		return nil, err
	}
	if _, err := s.store.Stat(p); err == nil {
		return nil, apperr.ErrAlreadyExists
	} else if !errors.Is(err, apperr.ErrNotFound) {
		return nil, err
	}
	detail, err := s.write(p, content)
	if err != nil {
		return nil, err
	}
	s.notify(index.ChangeCreated, detail.Path)
	return detail, nil
}

// UpdateNote writes updated content with optimistic concurrency: a non-empty
// ifMatch must equal the checksum of the stored file.
func (s *Service) UpdateNote(_ context.Context, p string, content []byte, ifMatch string) (*NoteDetail, error) {
	existing, err := s.store.Read(p)
	if err != nil {
		return nil, err
	}
	if !checksum.Matches(existing, ifMatch) {
		return nil, apperr.ErrConflict
	}
	detail, err := s.write(p, content)
	if err != nil {
		return nil, err
	}
	s.notify(index.ChangeUpdated, detail.Path)
	return detail, nil
}

func (s *Service) write(p string, content []byte) (*NoteDetail, error) {
	if err := s.store.Write(p, content); err != nil {
		return nil, err
	}
	meta, err := s.store.Stat(p)
	if err != nil {
		return nil, err
	}
	if err := index.IndexFile(s.db, meta.Path, content, meta.UpdatedAt); err != nil {
		return nil, err
	}
	return s.buildNoteDetail(meta.Path, content, meta.UpdatedAt)
}

// DeleteNote removes a note from storage and index.
func (s *Service) DeleteNote(_ context.Context, p string) error {
	if err := s.store.Delete(p); err != nil {
		return err
	}
	if err := s.db.DeleteNote(p); err != nil {
		return err
	}
	s.notify(index.ChangeDeleted, p)
	return nil
}

// ListNotes returns paginated notes with optional tag filter.
func (s *Service) ListNotes(_ context.Context, q index.ListQuery) ([]NoteListItem, int, error) {
	rows, total, err := s.db.ListNotes(q)
	if err != nil {
		return nil, 0, err
	}
	items := make([]NoteListItem, len(rows))
	for i, r := range rows {
		items[i] = NoteListItem{
			Path:      r.Path,
			ID:        r.ID,
			Title:     r.Title,
			Checksum:  r.Checksum,
			Tags:      nonNilSlice(r.Tags),
			Parent:    r.Parent,
			UpdatedAt: r.UpdatedAt,
		}
	}
	return items, total, nil
}

// Search delegates full-text search to the index.
func (s *Service) Search(_ context.Context, query string, limit int) ([]index.SearchResult, error) {
	return s.db.Search(query, limit)
}

// Backlinks returns the paths of notes whose wikilinks name the note at p by
// id, path, file stem or title.
func (s *Service) Backlinks(_ context.Context, p string) ([]string, error) {
	row, err := s.db.GetNote(p)
	if err != nil {
		return nil, err
	}
	return s.backlinks(row.Path, row.ID, row.Title)
}

func (s *Service) backlinks(p, id, title string) ([]string, error) {
	stem := index.NoteID(p)
	names := []string{id, stem, path.Base(stem), p}
	if title != "" {
		names = append(names, title)
	}
	bl, err := s.db.Backlinks(names...)
	if err != nil {
		return nil, err
	}
	out := bl[:0]
	for _, src := range bl {
		if src != p {
			out = append(out, src)
		}
	}
	return out, nil
}

// buildNoteDetail constructs a NoteDetail from raw data without re-reading the file.
func (s *Service) buildNoteDetail(p string, data []byte, updated time.Time) (*NoteDetail, error) {
	res, err := parser.Parse(data)
	if err != nil {
		return nil, err
	}
	id := res.Meta.ID
	if id == "" {
		id = index.NoteID(p)
	}
	title := res.Title
	if title == "" {
		title = path.Base(index.NoteID(p))
	}
	bl, err := s.backlinks(p, id, title)
	if err != nil {
		return nil, err
	}
	return &NoteDetail{
		Path:        p,
		ID:          id,
		Title:       title,
		Content:     string(data),
		Checksum:    checksum.Sum(data),
		Tags:        nonNilSlice(res.Tags),
		Parent:      res.Meta.Parent,
		Order:       res.Meta.Order,
		Color:       res.Meta.Color,
		Blocks:      res.Blocks,
		Frontmatter: res.Frontmatter,
		Backlinks:   nonNilSlice(bl),
		UpdatedAt:   updated,
	}, nil
}

// NormalizePath trims a leading slash so API and MCP callers can pass either
// form.
func NormalizePath(p string) string {
	return strings.TrimPrefix(strings.TrimSpace(p), "/")
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
