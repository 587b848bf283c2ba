// Package apperr holds the sentinel errors shared by the services and mapped
// to HTTP statuses by the API layer.
package apperr

import "errors"

var (
	// ErrNotFound reports a missing note or graph node.
	ErrNotFound = errors.New("not found")
	// ErrConflict reports a stale checksum on update.
	ErrConflict = errors.New("conflict")
	// ErrAlreadyExists reports a create over an existing note.
	ErrAlreadyExists = errors.New("already exists")
	// ErrInvalid reports a malformed request argument.
	ErrInvalid = errors.New("invalid argument")
)
