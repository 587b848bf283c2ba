// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes arbor note and graph tools for LLM integration via stdio
// transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/arbor/internal/apperr"
	"github.com/starford/arbor/internal/graphservice"
	"github.com/starford/arbor/internal/noteservice"
	"github.com/starford/arbor/internal/storage"
)

const contractURI = "arbor://note-format"

// Server wraps the MCP server with arbor tools.
type Server struct {
	mcp    *server.MCPServer
	store  storage.Provider
	notes  *noteservice.Service
	graphs *graphservice.Service
}

// New creates a new MCP server with all arbor tools registered.
func New(store storage.Provider, notes *noteservice.Service, graphs *graphservice.Service, version string) *Server {
	s := &Server{store: store, notes: notes, graphs: graphs}

	s.mcp = server.NewMCPServer(
		"Arbor",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("search_notes",
		mcp.WithDescription("Full-text search through notes content and titles."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of hits (default 20)")),
	), s.searchNotes)

	s.mcp.AddTool(mcp.NewTool("read_note",
		mcp.WithDescription("Read the full content of a Markdown note."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the note (e.g. folder/note.md)")),
	), s.readNote)

	s.mcp.AddTool(mcp.NewTool("create_note",
		mcp.WithDescription("Create a new Markdown note at the specified path. "+
			"Set the frontmatter parent field to place it in the hierarchy. Read the "+
			"contract first via the get_note_contract tool or the "+contractURI+" resource."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path for the new note (must end with .md)")),
		mcp.WithString("content", mcp.Required(), mcp.Description("Markdown content following the arbor note format contract")),
	), s.createNote)

	s.mcp.AddTool(mcp.NewTool("update_note",
		mcp.WithDescription("Replace the content of an existing note. Moving a note in the "+
			"hierarchy means rewriting its parent frontmatter field."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path of the note")),
		mcp.WithString("content", mcp.Required(), mcp.Description("New Markdown content")),
		mcp.WithString("checksum", mcp.Description("Checksum from read; the update fails if the note changed since")),
	), s.updateNote)

	s.mcp.AddTool(mcp.NewTool("get_note_contract",
		mcp.WithDescription("Returns the canonical arbor note format contract. "+
			"Call this before creating or updating notes to ensure correct structure."),
	), s.getNoteContract)

	s.mcp.AddTool(mcp.NewTool("list_notes",
		mcp.WithDescription("List all notes or notes in a specific folder."),
		mcp.WithString("folder", mcp.Description("Optional folder to list (empty for all)")),
	), s.listNotes)

	s.mcp.AddTool(mcp.NewTool("get_backlinks",
		mcp.WithDescription("Find all notes that link to the specified note."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path of the note to find backlinks for")),
	), s.getBacklinks)

	s.mcp.AddTool(mcp.NewTool("graph_stats",
		mcp.WithDescription("Counts of nodes, edges by type, roots, maximum depth and mean children per note."),
	), s.graphStats)

	s.mcp.AddTool(mcp.NewTool("graph_neighborhood",
		mcp.WithDescription("Notes within a number of hops of a note, over hierarchy and link edges."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Note id")),
		mcp.WithNumber("depth", mcp.Description("Hop count (default 1)")),
	), s.graphNeighborhood)

	s.mcp.AddTool(mcp.NewTool("graph_path",
		mcp.WithDescription("Shortest chain of notes connecting two notes."),
		mcp.WithString("from", mcp.Required(), mcp.Description("Start note id")),
		mcp.WithString("to", mcp.Required(), mcp.Description("End note id")),
	), s.graphPath)

	s.mcp.AddTool(mcp.NewTool("note_lineage",
		mcp.WithDescription("A note's parent, children, siblings, ancestors and descendants."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Note id")),
	), s.noteLineage)

	s.mcp.AddTool(mcp.NewTool("validate_hierarchy",
		mcp.WithDescription("Report dangling parents, cycles and other hierarchy inconsistencies."),
	), s.validateHierarchy)

	// Resource: note format contract.
	s.mcp.AddResource(
		mcp.NewResource(contractURI, "Note Format Contract",
			mcp.WithResourceDescription("Canonical Markdown note format that all notes must follow."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readNoteFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

// toolError turns a service error into a tool-level error result.
func toolError(err error, subject string) *mcp.CallToolResult {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", subject))
	case errors.Is(err, apperr.ErrAlreadyExists):
		return mcp.NewToolResultError(fmt.Sprintf("note already exists: %s", subject))
	case errors.Is(err, apperr.ErrConflict):
		return mcp.NewToolResultError(fmt.Sprintf("note changed since it was read: %s", subject))
	default:
		return mcp.NewToolResultError(err.Error())
	}
}

func (s *Server) searchNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.notes.Search(ctx, query, req.GetInt("limit", 20))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(results)
}

func (s *Server) readNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	data, err := s.store.Read(noteservice.NormalizePath(path))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", path)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) createNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	path = noteservice.NormalizePath(path)
	if _, err := s.notes.CreateNote(ctx, path, []byte(content)); err != nil {
		return toolError(err, path), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("created: %s", path)), nil
}

func (s *Server) updateNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	path = noteservice.NormalizePath(path)
	n, err := s.notes.UpdateNote(ctx, path, []byte(content), req.GetString("checksum", ""))
	if err != nil {
		return toolError(err, path), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("updated: %s (checksum %s)", path, n.Checksum)), nil
}

func (s *Server) listNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	folder := noteservice.NormalizePath(req.GetString("folder", ""))

	metas, err := s.store.List(folder)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var paths []string
	for _, m := range metas {
		paths = append(paths, m.Path)
	}
	return mcp.NewToolResultText(strings.Join(paths, "\n")), nil
}

func (s *Server) getNoteContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(NoteFormatContract), nil
}

func (s *Server) readNoteFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      contractURI,
			MIMEType: "text/markdown",
			Text:     NoteFormatContract,
		},
	}, nil
}

func (s *Server) getBacklinks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	path = noteservice.NormalizePath(path)
	bl, err := s.notes.Backlinks(ctx, path)
	if err != nil {
		return toolError(err, path), nil
	}
	if len(bl) == 0 {
		return mcp.NewToolResultText("no backlinks found"), nil
	}
	return mcp.NewToolResultText(strings.Join(bl, "\n")), nil
}

func (s *Server) graphStats(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	st, err := s.graphs.Stats(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(st)
}

func (s *Server) graphNeighborhood(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	g, err := s.graphs.Neighborhood(ctx, id, req.GetInt("depth", 1))
	if err != nil {
		return toolError(err, id), nil
	}
	// Coordinates are meaningless to a language model; send the structure.
	type node struct {
		ID    string `json:"id"`
		Title string `json:"title"`
		Type  string `json:"type"`
		Depth int    `json:"depth"`
	}
	type edge struct {
		Source string `json:"source"`
		Target string `json:"target"`
		Type   string `json:"type"`
	}
	out := struct {
		Nodes []node `json:"nodes"`
		Edges []edge `json:"edges"`
	}{Nodes: []node{}, Edges: []edge{}}
	for _, n := range g.Nodes {
		out.Nodes = append(out.Nodes, node{n.ID, n.Title, string(n.Type), n.Depth})
	}
	for _, e := range g.Edges {
		out.Edges = append(out.Edges, edge{e.Source, e.Target, string(e.Type)})
	}
	return jsonResult(out)
}

func (s *Server) graphPath(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	from, err := req.RequireString("from")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	to, err := req.RequireString("to")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	p, err := s.graphs.ShortestPath(ctx, from, to)
	if err != nil {
		return toolError(err, from+" -> "+to), nil
	}
	ids := make([]string, len(p.Nodes))
	for i, n := range p.Nodes {
		ids[i] = n.ID
	}
	return mcp.NewToolResultText(strings.Join(ids, " -> ")), nil
}

func (s *Server) noteLineage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	l, err := s.graphs.Lineage(ctx, id)
	if err != nil {
		return toolError(err, id), nil
	}
	return jsonResult(l)
}

func (s *Server) validateHierarchy(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	issues, err := s.graphs.Validate(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(issues) == 0 {
		return mcp.NewToolResultText("hierarchy is consistent"), nil
	}
	return jsonResult(issues)
}
