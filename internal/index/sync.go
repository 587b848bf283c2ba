package index

import (
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/starford/arbor/internal/checksum"
	"github.com/starford/arbor/internal/parser"
	"github.com/starford/arbor/internal/storage"
)

// Sync walks the vault and brings the index up to date:
//   - new/changed files are parsed and upserted
//   - files removed from disk are deleted from the index
//
// It reports whether anything changed.
func Sync(db *DB, store storage.Provider, logger *slog.Logger) (bool, error) {
	metas, err := store.List("")
	if err != nil {
		return false, err
	}

	checksums, err := db.AllChecksums()
	if err != nil {
		return false, err
	}

	changed := false
	disk := make(map[string]struct{}, len(metas))
	for _, m := range metas {
		disk[m.Path] = struct{}{}

		if checksums[m.Path] == m.Checksum {
			continue
		}

		data, err := store.Read(m.Path)
		if err != nil {
			logger.Warn("sync: read failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			continue
		}
		if err := indexFile(db, m.Path, data, m.UpdatedAt); err != nil {
			logger.Warn("sync: index failed", slog.String("path", m.Path), slog.String("error", err.Error()))
		} else {
			changed = true
			logger.Debug("sync: indexed", slog.String("path", m.Path))
		}
	}

	// Remove stale entries.
	for p := range checksums {
		if _, ok := disk[p]; !ok {
			if err := db.DeleteNote(p); err != nil {
				logger.Warn("sync: delete failed", slog.String("path", p), slog.String("error", err.Error()))
			} else {
				changed = true
				logger.Debug("sync: removed stale", slog.String("path", p))
			}
		}
	}

	return changed, nil
}

// IndexFile parses data and upserts it into the DB; modTime becomes the
// note's UpdatedAt.
func IndexFile(db *DB, path string, data []byte, modTime time.Time) error {
	return indexFile(db, path, data, modTime)
}

func indexFile(db *DB, path string, data []byte, modTime time.Time) error {
	res, err := parser.Parse(data)
	if err != nil {
		return err
	}
	path = filepath.ToSlash(path)

	id := res.Meta.ID
	if id == "" {
		id = NoteID(path)
	}
	title := res.Title
	if title == "" {
		title = filepath.Base(NoteID(path))
	}
	created := res.Meta.Created
	if created.IsZero() {
		created = modTime
	}

	row := NoteRow{
		Path:      path,
		ID:        id,
		Title:     title,
		Checksum:  checksum.Sum(data),
		Tags:      res.Tags,
		Parent:    res.Meta.Parent,
		Order:     res.Meta.Order,
		Color:     res.Meta.Color,
		Blocks:    res.Blocks,
		CreatedAt: created,
		UpdatedAt: modTime,
	}
	return db.UpsertNote(row, res.Body, res.Links)
}

// NoteID is the id of a note without an explicit frontmatter id: its vault
// path without the .md extension.
func NoteID(path string) string {
	return strings.TrimSuffix(filepath.ToSlash(path), ".md")
}
