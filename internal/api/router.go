package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/quire/internal/langreg"
	"github.com/starford/quire/internal/noteservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
// Session, snapshot and language routes are mounted only when the service
// and registry provide them.
func NewRouter(svc *noteservice.Service, langs *langreg.Registry, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc, langs)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Notes CRUD.
	r.Get("/notes", h.ListNotes)
	r.Post("/notes", h.CreateNote)
	r.Get("/notes/*", h.GetNote)
	r.Put("/notes/*", h.UpdateNote)
	r.Delete("/notes/*", h.DeleteNote)
	r.Post("/move", h.MoveNote)

	// Tasks.
	r.Post("/tasks", h.AddTask)
	r.Post("/tasks/toggle", h.ToggleTask)
	r.Get("/tasks/*", h.ListTasks)

	// Search.
	r.Get("/search", h.Search)

	if svc.Sessions() != nil {
		r.Route("/sessions", func(r chi.Router) {
			r.Get("/", h.ListSessions)
			r.Post("/", h.OpenSession)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetSession)
				r.Delete("/", h.CloseSession)
				r.Post("/keys", h.Key)
				r.Post("/clicks", h.Click)
				r.Post("/edits", h.ApplyEdit)
				r.Put("/selections", h.SetSelections)
				r.Put("/eol", h.SetEOL)
				r.Post("/undo", h.Undo)
				r.Post("/redo", h.Redo)
				r.Post("/flush", h.Flush)
			})
		})
	}

	if svc.Snapshots() != nil {
		r.Route("/snapshots", func(r chi.Router) {
			r.Get("/", h.ListSnapshots)
			r.Post("/", h.CreateSnapshot)
			r.Get("/compare", h.CompareSnapshots)
			r.Get("/search", h.SearchSnapshots)
			r.Get("/{id}", h.GetSnapshot)
			r.Delete("/{id}", h.DeleteSnapshot)
			r.Post("/{id}/restore", h.RestoreSnapshot)
		})
	}

	if langs != nil {
		r.Get("/languages", h.ListLanguages)
		r.Get("/languages/{id}", h.GetLanguage)
	}
	r.Get("/themes", h.ListThemes)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
