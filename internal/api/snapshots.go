package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// ListSnapshots handles GET /api/snapshots. The optional path query limits
// the list to one note.
func (h *Handler) ListSnapshots(w http.ResponseWriter, r *http.Request) {
	snaps, err := h.svc.Snapshots().List(r.URL.Query().Get("path"))
	if err != nil {
		writeError(w, "list snapshots", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"snapshots": snaps})
}

// CreateSnapshot handles POST /api/snapshots.
//
//	@Summary		Save a manual snapshot of a note's live content
//	@Tags			snapshots
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateSnapshotRequest	true	"Note, title and description"
//	@Success		201		{object}	models.Snapshot
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/snapshots [post]
func (h *Handler) CreateSnapshot(w http.ResponseWriter, r *http.Request) {
	var req CreateSnapshotRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	snap, err := h.svc.CreateSnapshot(r.Context(), req.Path, req.Title, req.Description)
	if err != nil {
		writeError(w, "create snapshot", err)
		return
	}
	writeJSON(w, http.StatusCreated, snap)
}

// GetSnapshot handles GET /api/snapshots/{id}.
func (h *Handler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := h.svc.Snapshots().Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "get snapshot", err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// DeleteSnapshot handles DELETE /api/snapshots/{id}.
func (h *Handler) DeleteSnapshot(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Snapshots().Delete(chi.URLParam(r, "id")); err != nil {
		writeError(w, "delete snapshot", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RestoreSnapshot handles POST /api/snapshots/{id}/restore.
func (h *Handler) RestoreSnapshot(w http.ResponseWriter, r *http.Request) {
	note, err := h.svc.RestoreSnapshot(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "restore snapshot", err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// CompareSnapshots handles GET /api/snapshots/compare?from=&to=.
//
//	@Summary		Diff two snapshots line by line
//	@Tags			snapshots
//	@Produce		json
//	@Param			from	query		string	true	"Older snapshot id"
//	@Param			to		query		string	true	"Newer snapshot id"
//	@Success		200		{object}	CompareResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/snapshots/compare [get]
func (h *Handler) CompareSnapshots(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, to := q.Get("from"), q.Get("to")
	if from == "" || to == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameters 'from' and 'to' are required"))
		return
	}
	diff, err := h.svc.Snapshots().Compare(from, to)
	if err != nil {
		writeError(w, "compare snapshots", err)
		return
	}
	writeJSON(w, http.StatusOK, diff)
}

// SearchSnapshots handles GET /api/snapshots/search.
func (h *Handler) SearchSnapshots(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.svc.Snapshots().Search(q, limit)
	if err != nil {
		writeError(w, "search snapshots", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}
