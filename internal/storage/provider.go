// Package storage is the note vault: a directory tree of Markdown files.
package storage

import "github.com/starford/arbor/internal/models"

// Provider is the interface for vault file operations. All paths are
// relative to the vault root. Missing files are reported as
// apperr.ErrNotFound.
type Provider interface {
	// List returns metadata for every .md file under dir.
	List(dir string) ([]models.NoteMetadata, error)
	// Stat returns metadata for the file at path.
	Stat(path string) (models.NoteMetadata, error)
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Write atomically writes content to path, creating parent directories.
	Write(path string, content []byte) error
	// Delete removes the file at path.
	Delete(path string) error
	// Move renames oldPath to newPath.
	Move(oldPath, newPath string) error
}
