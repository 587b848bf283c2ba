package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/arbor/internal/graphservice"
	"github.com/starford/arbor/internal/noteservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *noteservice.Service, graphs *graphservice.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc, graphs)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Notes CRUD.
	r.Get("/notes", h.ListNotes)
	r.Post("/notes", h.CreateNote)
	r.Get("/notes/*", h.GetNote)
	r.Put("/notes/*", h.UpdateNote)
	r.Delete("/notes/*", h.DeleteNote)
	r.Get("/backlinks/*", h.Backlinks)

	// Search.
	r.Get("/search", h.Search)

	// Graph. Note ids may contain slashes, so they travel as wildcards.
	r.Route("/graph", func(r chi.Router) {
		r.Get("/", h.Graph)
		r.Get("/stats", h.Stats)
		r.Get("/path", h.Path)
		r.Get("/neighborhood/*", h.Neighborhood)
		r.Get("/subtree/*", h.Subtree)
		r.Post("/invalidate", h.InvalidateGraph)
	})

	// Hierarchy.
	r.Get("/hierarchy/issues", h.HierarchyIssues)
	r.Get("/hierarchy/note/*", h.Lineage)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
