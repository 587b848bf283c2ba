package index

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/starford/arbor/internal/apperr"
	"github.com/starford/arbor/internal/models"
)

// NoteRow represents a row in the notes table. Parent holds the raw
// frontmatter reference, which may be an id, a file stem or a title.
type NoteRow struct {
	Path      string
	ID        string
	Title     string
	Checksum  string
	Tags      []string
	Parent    string
	Order     int
	Color     string
	Blocks    models.Blocks
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Note converts the row to a note with unresolved hierarchy fields.
func (r *NoteRow) Note() models.Note {
	blocks := r.Blocks
	if blocks == nil {
		blocks = models.Blocks{}
	}
	tags := r.Tags
	if tags == nil {
		tags = []string{}
	}
	return models.Note{
		ID:             r.ID,
		Title:          r.Title,
		Blocks:         blocks,
		Tags:           tags,
		ParentID:       r.Parent,
		HierarchyOrder: r.Order,
		Color:          r.Color,
		File:           r.Path,
		Checksum:       r.Checksum,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

// SearchResult represents one search hit.
type SearchResult struct {
	Path    string
	ID      string
	Title   string
	Snippet string
}

// ListQuery filters and pages ListNotes.
type ListQuery struct {
	Limit  int
	Offset int
	Tag    string
	// Sort is "path" (default), "title" or "updated" (newest first).
	Sort string
}

const noteColumns = `path, id, title, checksum, tags, parent, hierarchy_order, color, blocks, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanRow(s scanner) (NoteRow, error) {
	var (
		r               NoteRow
		tags, blocksRaw string
	)
	if err := s.Scan(&r.Path, &r.ID, &r.Title, &r.Checksum, &tags, &r.Parent, &r.Order, &r.Color, &blocksRaw, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return r, err
	}
	if err := json.Unmarshal([]byte(tags), &r.Tags); err != nil {
		return r, fmt.Errorf("index: decode tags for %s: %w", r.Path, err)
	}
	if err := json.Unmarshal([]byte(blocksRaw), &r.Blocks); err != nil {
		return r, fmt.Errorf("index: decode blocks for %s: %w", r.Path, err)
	}
	return r, nil
}

// UpsertNote inserts or replaces a note, its FTS entry, and links within a transaction.
func (db *DB) UpsertNote(n NoteRow, body string, links []string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	if n.Tags == nil {
		n.Tags = []string{}
	}
	if n.Blocks == nil {
		n.Blocks = models.Blocks{}
	}
	tagsJSON, _ := json.Marshal(n.Tags)
	blocksJSON, err := json.Marshal(n.Blocks)
	if err != nil {
		return fmt.Errorf("index: encode blocks: %w", err)
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = n.UpdatedAt
	}

	// Upsert notes table (includes body for fallback search).
	_, err = tx.Exec(`
		INSERT INTO notes (`+noteColumns+`, body)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			id              = excluded.id,
			title           = excluded.title,
			checksum        = excluded.checksum,
			tags            = excluded.tags,
			parent          = excluded.parent,
			hierarchy_order = excluded.hierarchy_order,
			color           = excluded.color,
			blocks          = excluded.blocks,
			created_at      = excluded.created_at,
			updated_at      = excluded.updated_at,
			body            = excluded.body
	`, n.Path, n.ID, n.Title, n.Checksum, string(tagsJSON), n.Parent, n.Order, n.Color, string(blocksJSON), n.CreatedAt, n.UpdatedAt, body)
	if err != nil {
		return fmt.Errorf("index: upsert note: %w", err)
	}

	// FTS upsert (no-op when FTS5 tag is absent).
	if err := ftsUpsert(tx, n.Path, n.ID, n.Title, body, n.Tags); err != nil {
		return err
	}

	// Replace links: delete old then bulk insert.
	_, _ = tx.Exec(`DELETE FROM links WHERE source = ?`, n.Path)
	if len(links) > 0 {
		stmt, err := tx.Prepare(`INSERT OR IGNORE INTO links (source, target, type) VALUES (?, ?, 'inline')`)
		if err != nil {
			return fmt.Errorf("index: prepare link insert: %w", err)
		}
		defer stmt.Close()
		for _, target := range links {
			if _, err := stmt.Exec(n.Path, target); err != nil {
				return fmt.Errorf("index: insert link: %w", err)
			}
		}
	}

	return tx.Commit()
}

// DeleteNote removes a note, its FTS entry, and outgoing links.
func (db *DB) DeleteNote(path string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	ftsDelete(tx, path)
	_, _ = tx.Exec(`DELETE FROM links WHERE source = ?`, path)
	_, _ = tx.Exec(`DELETE FROM notes WHERE path = ?`, path)

	return tx.Commit()
}

// GetChecksum returns the stored checksum for a note, or empty string if not found.
func (db *DB) GetChecksum(path string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM notes WHERE path = ?`, path).Scan(&cs)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("index: get checksum: %w", err)
	}
	return cs, nil
}

// GetNote returns the row stored for path.
func (db *DB) GetNote(path string) (*NoteRow, error) {
	r, err := scanRow(db.conn.QueryRow(`SELECT `+noteColumns+` FROM notes WHERE path = ?`, path))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("index: get note: %w", err)
	}
	return &r, nil
}

// GetNoteByID returns the row whose note id is id.
func (db *DB) GetNoteByID(id string) (*NoteRow, error) {
	r, err := scanRow(db.conn.QueryRow(`SELECT `+noteColumns+` FROM notes WHERE id = ? ORDER BY path LIMIT 1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("index: get note by id: %w", err)
	}
	return &r, nil
}

// ListNotes returns one page of notes and the total matching count.
func (db *DB) ListNotes(q ListQuery) ([]NoteRow, int, error) {
	if q.Limit <= 0 {
		q.Limit = 50
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	order := "path"
	switch q.Sort {
	case "title":
		order = "title COLLATE NOCASE, path"
	case "updated":
		order = "updated_at DESC, path"
	}

	where, args := "", []any{}
	if q.Tag != "" {
		where = `WHERE tags LIKE ?`
		args = append(args, `%"`+q.Tag+`"%`)
	}

	var total int
	if err := db.conn.QueryRow(`SELECT count(*) FROM notes `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("index: count notes: %w", err)
	}

	rows, err := db.conn.Query(`SELECT `+noteColumns+` FROM notes `+where+` ORDER BY `+order+` LIMIT ? OFFSET ?`,
		append(args, q.Limit, q.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("index: list notes: %w", err)
	}
	defer rows.Close()

	out := []NoteRow{}
	for rows.Next() {
		r, err := scanRow(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, r)
	}
	return out, total, rows.Err()
}

// AllPaths returns every indexed note path.
func (db *DB) AllPaths() (map[string]struct{}, error) {
	rows, err := db.conn.Query(`SELECT path FROM notes`)
	if err != nil {
		return nil, fmt.Errorf("index: all paths: %w", err)
	}
	defer rows.Close()
	out := make(map[string]struct{})
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		out[p] = struct{}{}
	}
	return out, rows.Err()
}

// AllChecksums returns path → checksum for every indexed note.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT path, checksum FROM notes`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var p, cs string
		if err := rows.Scan(&p, &cs); err != nil {
			return nil, err
		}
		out[p] = cs
	}
	return out, rows.Err()
}

// Backlinks returns the paths of notes linking to any of targets. Targets
// match case-insensitively; callers pass every name a note is known by.
func (db *DB) Backlinks(targets ...string) ([]string, error) {
	if len(targets) == 0 {
		return []string{}, nil
	}
	args := make([]any, len(targets))
	for i, t := range targets {
		args[i] = t
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(targets)), ",")
	rows, err := db.conn.Query(`SELECT DISTINCT source FROM links WHERE target IN (`+placeholders+`) ORDER BY source`, args...)
	if err != nil {
		return nil, fmt.Errorf("index: backlinks: %w", err)
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
