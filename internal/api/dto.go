package api

import (
	"github.com/starford/arbor/internal/graph"
	"github.com/starford/arbor/internal/graphservice"
	"github.com/starford/arbor/internal/hierarchy"
	"github.com/starford/arbor/internal/noteservice"
	"github.com/starford/arbor/internal/query"
)

// CreateNoteRequest is the request body for creating a note.
type CreateNoteRequest struct {
	Path    string `json:"path" example:"notes/hello.md" validate:"required"`
	Content string `json:"content" example:"---\nparent: \"[[projects]]\"\n---\n# Hello\nWorld" validate:"required"`
}

// UpdateNoteRequest is the request body for updating a note.
type UpdateNoteRequest struct {
	Content string `json:"content" example:"# Updated\nContent" validate:"required"`
}

// NoteDetail is the full note response type (aliased from the domain layer).
type NoteDetail = noteservice.NoteDetail

// NoteListItem is a lightweight item in a list response (aliased from the domain layer).
type NoteListItem = noteservice.NoteListItem

// NoteListResponse wraps paginated note listings.
type NoteListResponse struct {
	Notes []NoteListItem `json:"notes" validate:"required"`
	Total int            `json:"total" example:"42" validate:"required"`
}

// BacklinksResponse lists the notes linking to Path.
type BacklinksResponse struct {
	Path      string   `json:"path" example:"notes/hello.md" validate:"required"`
	Backlinks []string `json:"backlinks" validate:"required"`
}

// SearchResult is a single search hit in the API response.
type SearchResult struct {
	Path    string `json:"path" example:"notes/hello.md" validate:"required"`
	ID      string `json:"id" example:"notes/hello" validate:"required"`
	Title   string `json:"title" example:"Hello" validate:"required"`
	Snippet string `json:"snippet" example:"...matched text..." validate:"required"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []SearchResult `json:"results" validate:"required"`
}

// GraphResponse is a positioned graph or a slice of one.
type GraphResponse = graph.Graph

// PathResponse is a shortest path between two notes.
type PathResponse = graphservice.Path

// StatsResponse holds aggregate graph counts.
type StatsResponse = query.Stats

// Lineage is a note's place in the hierarchy.
type Lineage = graphservice.Lineage

// IssuesResponse wraps hierarchy inconsistencies.
type IssuesResponse struct {
	Issues []hierarchy.Issue `json:"issues" validate:"required"`
}
