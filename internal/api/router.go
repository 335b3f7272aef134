package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/notekeeper/internal/store"
)

// NewRouter creates a chi router with the note routes mounted under /notes.
// Every /notes request runs inside its own store session. events may be nil.
func NewRouter(open store.Opener, events Publisher) chi.Router {
	h := NewHandler(events)

	r := chi.NewRouter()
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, http.StatusText(http.StatusNotFound))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, http.StatusText(http.StatusMethodNotAllowed))
	})

	r.Route("/notes", func(r chi.Router) {
		r.Use(SessionMiddleware(open))

		r.Post("/", h.CreateNote)
		r.Get("/", h.ListNotes)

		// Static segments win over {note_id} in chi's tree.
		r.Get("/search", h.SearchNotes)
		r.Get("/search/", h.SearchNotes)

		r.Get("/{note_id}", h.GetNote)
		r.Delete("/{note_id}", h.DeleteNote)
	})

	return r
}
