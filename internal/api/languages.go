package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/quire/internal/appearance"
	"github.com/starford/quire/internal/langreg"
)

// ListLanguages handles GET /api/languages.
func (h *Handler) ListLanguages(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"languages": h.langs.Definitions()})
}

// GetLanguage handles GET /api/languages/{id} and loads the language
// configuration on first use.
func (h *Handler) GetLanguage(w http.ResponseWriter, r *http.Request) {
	lang, err := h.langs.Load(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, langreg.ErrUnknownLanguage) {
		writeJSON(w, http.StatusNotFound, errorBody(err.Error()))
		return
	}
	if err != nil {
		writeError(w, "load language", err)
		return
	}
	writeJSON(w, http.StatusOK, lang)
}

// ListThemes handles GET /api/themes.
func (h *Handler) ListThemes(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"themes": appearance.Themes()})
}
