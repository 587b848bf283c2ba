package api

import (
	"log/slog"
	"net/http"
	"strconv"
)

// intParam reads an integer query parameter, falling back to def when it is
// absent. ok is false when the value is present but not an integer.
func intParam(r *http.Request, name string, def int) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}

// Graph handles GET /api/graph.
//
//	@Summary		Get the positioned note graph
//	@Description	The X-Graph-Hash header and ETag carry the content hash; a
//	@Description	matching If-None-Match yields 304.
//	@Tags			graph
//	@Produce		json
//	@Success		200	{object}	GraphResponse
//	@Success		304	"Graph unchanged"
//	@Security		BearerAuth
//	@Router			/graph [get]
func (h *Handler) Graph(w http.ResponseWriter, r *http.Request) {
	snap, err := h.graphs.FullGraph(r.Context())
	if err != nil {
		writeError(w, "graph", err)
		return
	}
	w.Header().Set("X-Graph-Hash", snap.Hash)
	writeVersioned(w, r, snap.Hash, snap.Graph)
}

// Neighborhood handles GET /api/graph/neighborhood/*.
//
//	@Summary		Notes within depth hops of a note
//	@Tags			graph
//	@Produce		json
//	@Param			id		path		string	true	"Note id"
//	@Param			depth	query		int		false	"Hop count (default 1)"
//	@Success		200		{object}	GraphResponse
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/graph/neighborhood/{id} [get]
func (h *Handler) Neighborhood(w http.ResponseWriter, r *http.Request) {
	id := wildcardParam(r)
	depth, ok := intParam(r, "depth", 1)
	if id == "" || !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("id and an integer depth are required"))
		return
	}
	g, err := h.graphs.Neighborhood(r.Context(), id, depth)
	if err != nil {
		writeError(w, "neighborhood", err, slog.String("id", id))
		return
	}
	writeJSON(w, http.StatusOK, g)
}

// Subtree handles GET /api/graph/subtree/*.
//
//	@Summary		A note and its hierarchy descendants
//	@Tags			graph
//	@Produce		json
//	@Param			id		path		string	true	"Note id"
//	@Param			depth	query		int		false	"Levels below the note (default unbounded)"
//	@Success		200		{object}	GraphResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/graph/subtree/{id} [get]
func (h *Handler) Subtree(w http.ResponseWriter, r *http.Request) {
	id := wildcardParam(r)
	depth, ok := intParam(r, "depth", -1)
	if id == "" || !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("id and an integer depth are required"))
		return
	}
	g, err := h.graphs.Subtree(r.Context(), id, depth)
	if err != nil {
		writeError(w, "subtree", err, slog.String("id", id))
		return
	}
	writeJSON(w, http.StatusOK, g)
}

// Path handles GET /api/graph/path.
//
//	@Summary		Shortest path between two notes over any edge
//	@Tags			graph
//	@Produce		json
//	@Param			from	query		string	true	"Start note id"
//	@Param			to		query		string	true	"End note id"
//	@Success		200		{object}	PathResponse
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/graph/path [get]
func (h *Handler) Path(w http.ResponseWriter, r *http.Request) {
	from, to := r.URL.Query().Get("from"), r.URL.Query().Get("to")
	if from == "" || to == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameters 'from' and 'to' are required"))
		return
	}
	p, err := h.graphs.ShortestPath(r.Context(), from, to)
	if err != nil {
		writeError(w, "path", err, slog.String("from", from), slog.String("to", to))
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// Stats handles GET /api/graph/stats.
//
//	@Summary		Aggregate graph counts
//	@Tags			graph
//	@Produce		json
//	@Success		200	{object}	StatsResponse
//	@Security		BearerAuth
//	@Router			/graph/stats [get]
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	st, err := h.graphs.Stats(r.Context())
	if err != nil {
		writeError(w, "stats", err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// InvalidateGraph handles POST /api/graph/invalidate.
//
//	@Summary		Drop cached layouts
//	@Tags			graph
//	@Success		204	"Cache cleared"
//	@Security		BearerAuth
//	@Router			/graph/invalidate [post]
func (h *Handler) InvalidateGraph(w http.ResponseWriter, _ *http.Request) {
	h.graphs.Invalidate()
	w.WriteHeader(http.StatusNoContent)
}

// HierarchyIssues handles GET /api/hierarchy/issues.
//
//	@Summary		Report hierarchy inconsistencies
//	@Tags			hierarchy
//	@Produce		json
//	@Success		200	{object}	IssuesResponse
//	@Security		BearerAuth
//	@Router			/hierarchy/issues [get]
func (h *Handler) HierarchyIssues(w http.ResponseWriter, r *http.Request) {
	issues, err := h.graphs.Validate(r.Context())
	if err != nil {
		writeError(w, "validate hierarchy", err)
		return
	}
	writeJSON(w, http.StatusOK, IssuesResponse{Issues: issues})
}

// Lineage handles GET /api/hierarchy/note/*.
//
//	@Summary		A note's parent, children, siblings, ancestors and descendants
//	@Tags			hierarchy
//	@Produce		json
//	@Param			id	path		string	true	"Note id"
//	@Success		200	{object}	Lineage
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/hierarchy/note/{id} [get]
func (h *Handler) Lineage(w http.ResponseWriter, r *http.Request) {
	id := wildcardParam(r)
	if id == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("id is required"))
		return
	}
	l, err := h.graphs.Lineage(r.Context(), id)
	if err != nil {
		writeError(w, "lineage", err, slog.String("id", id))
		return
	}
	writeJSON(w, http.StatusOK, l)
}
