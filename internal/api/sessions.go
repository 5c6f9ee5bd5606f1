package api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/quire/internal/apperr"
	"github.com/starford/quire/internal/convert"
	"github.com/starford/quire/internal/editor"
	"github.com/starford/quire/internal/session"
	"github.com/starford/quire/internal/workspace"
)

func (h *Handler) session(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	s, err := h.svc.Sessions().Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "get session", err)
		return nil, false
	}
	return s, true
}

func (h *Handler) writeState(w http.ResponseWriter, status int, s *session.Session) {
	st, err := s.State()
	if err != nil {
		writeError(w, "session state", err)
		return
	}
	writeJSON(w, status, toSessionState(st))
}

func (h *Handler) writeInput(w http.ResponseWriter, s *session.Session, rule string, applied bool) {
	st, err := s.State()
	if err != nil {
		writeError(w, "session state", err)
		return
	}
	writeJSON(w, http.StatusOK, InputResponse{Rule: rule, Applied: applied, State: toSessionState(st)})
}

// OpenSession handles POST /api/sessions.
//
//	@Summary		Open an editing session on a note, or return the open one
//	@Tags			sessions
//	@Accept			json
//	@Produce		json
//	@Param			body	body		OpenSessionRequest	true	"Note path"
//	@Success		200		{object}	SessionState
//	@Success		201		{object}	SessionState
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/sessions [post]
func (h *Handler) OpenSession(w http.ResponseWriter, r *http.Request) {
	var req OpenSessionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	s, created, err := h.svc.Sessions().Open(r.Context(), req.Path)
	if err != nil {
		writeError(w, "open session", err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	h.writeState(w, status, s)
}

// ListSessions handles GET /api/sessions.
func (h *Handler) ListSessions(w http.ResponseWriter, _ *http.Request) {
	sessions := h.svc.Sessions().List()
	out := make([]SessionSummary, 0, len(sessions))
	for _, s := range sessions {
		st, err := s.State()
		if err != nil {
			continue
		}
		out = append(out, toSessionSummary(st))
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions": out})
}

// GetSession handles GET /api/sessions/{id}.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	h.writeState(w, http.StatusOK, s)
}

// CloseSession handles DELETE /api/sessions/{id}.
func (h *Handler) CloseSession(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Sessions().Close(chi.URLParam(r, "id")); err != nil {
		writeError(w, "close session", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Key handles POST /api/sessions/{id}/keys.
//
//	@Summary		Dispatch a key press through the intent rules
//	@Tags			sessions
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string		true	"Session id"
//	@Param			body	body		KeyRequest	true	"Key"
//	@Success		200		{object}	InputResponse
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/sessions/{id}/keys [post]
func (h *Handler) Key(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req KeyRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	ev, err := editor.ParseKey(req.Key)
	if err != nil {
		writeError(w, "key", fmt.Errorf("%w: %w", apperr.ErrInvalidInput, err))
		return
	}
	ev.Shift, ev.Ctrl, ev.Alt, ev.Meta = req.Shift, req.Ctrl, req.Alt, req.Meta

	rule, err := s.Key(ev)
	if err != nil {
		writeError(w, "key", err)
		return
	}
	h.writeInput(w, s, rule, rule != "")
}

// Click handles POST /api/sessions/{id}/clicks.
//
//	@Summary		Dispatch a pointer press at a 0-based position
//	@Tags			sessions
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string			true	"Session id"
//	@Param			body	body		ClickRequest	true	"Position and button"
//	@Success		200		{object}	InputResponse
//	@Security		BearerAuth
//	@Router			/sessions/{id}/clicks [post]
func (h *Handler) Click(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req ClickRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	button := editor.MouseButtonPrimary
	switch req.Button {
	case ButtonMiddle:
		button = editor.MouseButtonMiddle
	case ButtonSecondary:
		button = editor.MouseButtonSecondary
	}

	rule, err := s.Click(convert.PositionFrom(req.Position), button)
	if err != nil {
		writeError(w, "click", err)
		return
	}
	h.writeInput(w, s, rule, rule != "")
}

// ApplyEdit handles POST /api/sessions/{id}/edits. The body is a workspace
// edit whose changes are keyed by note path.
func (h *Handler) ApplyEdit(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req workspace.WorkspaceEdit
	if !decodeJSON(w, r, &req) {
		return
	}
	applied, err := s.ApplyWorkspaceEdit(&req)
	if err != nil {
		writeError(w, "apply edit", err)
		return
	}
	h.writeInput(w, s, "", applied)
}

// SetSelections handles PUT /api/sessions/{id}/selections.
func (h *Handler) SetSelections(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req SelectionsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := s.SetSelections(convert.SelectionsFrom(req.Selections)); err != nil {
		writeError(w, "set selections", err)
		return
	}
	h.writeState(w, http.StatusOK, s)
}

// SetEOL handles PUT /api/sessions/{id}/eol.
//
//	@Summary		Switch the line terminator of a session
//	@Tags			sessions
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string		true	"Session id"
//	@Param			body	body		EOLRequest	true	"lf or crlf"
//	@Success		200		{object}	InputResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/sessions/{id}/eol [put]
func (h *Handler) SetEOL(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req EOLRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	eol, ok := convert.EndOfLineFrom(req.EOL)
	if !ok {
		writeError(w, "set eol", fmt.Errorf("end of line %s: %w", req.EOL, apperr.ErrInvalidInput))
		return
	}
	applied, err := s.SetEOL(eol)
	if err != nil {
		writeError(w, "set eol", err)
		return
	}
	h.writeInput(w, s, "", applied)
}

// Undo handles POST /api/sessions/{id}/undo.
func (h *Handler) Undo(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	applied, err := s.Undo()
	if err != nil {
		writeError(w, "undo", err)
		return
	}
	h.writeInput(w, s, "", applied)
}

// Redo handles POST /api/sessions/{id}/redo.
func (h *Handler) Redo(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	applied, err := s.Redo()
	if err != nil {
		writeError(w, "redo", err)
		return
	}
	h.writeInput(w, s, "", applied)
}

// Flush handles POST /api/sessions/{id}/flush and writes pending content
// to the vault immediately.
func (h *Handler) Flush(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	s.Flush()
	h.writeState(w, http.StatusOK, s)
}
