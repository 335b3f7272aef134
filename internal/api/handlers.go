package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/notekeeper/internal/models"
	"github.com/starford/notekeeper/internal/sse"
)

const maxBodyBytes = 1 << 20

// Fixed 404 details.
const (
	DetailNoteNotFound = "Note not found"
	DetailDeleteFailed = "Failed to delete note"
)

// Publisher receives note change events. *sse.Broker implements it.
type Publisher interface {
	Publish(event sse.Event)
}

// Handler holds API route handlers.
type Handler struct {
	events Publisher
}

// NewHandler creates a new Handler. events may be nil.
func NewHandler(events Publisher) *Handler {
	return &Handler{events: events}
}

func (h *Handler) publish(event sse.Event) {
	if h.events != nil {
		h.events.Publish(event)
	}
}

// CreateNote handles POST /notes/.
//
//	@Summary	Create a note
//	@Tags		notes
//	@Accept		json
//	@Produce	json
//	@Param		body	body		CreateNoteRequest	true	"Note to create"
//	@Success	200		{object}	models.Note
//	@Failure	422		{object}	ErrorResponse
//	@Router		/notes/ [post]
func (h *Handler) CreateNote(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req CreateNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid JSON body")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	note, err := notesFrom(r).Create(r.Context(), *req.Title, *req.Content)
	if err != nil {
		internalError(w, "create note failed", err)
		return
	}
	h.publish(sse.NoteCreated(*note))
	writeJSON(w, http.StatusOK, note)
}

// ListNotes handles GET /notes/.
//
//	@Summary	List notes
//	@Tags		notes
//	@Produce	json
//	@Param		skip	query		int	false	"Notes to skip"	default(0)
//	@Param		limit	query		int	false	"Max notes"		default(10)
//	@Success	200		{array}		models.Note
//	@Failure	422		{object}	ErrorResponse
//	@Router		/notes/ [get]
func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	p, err := parseListParams(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	notes, err := notesFrom(r).List(r.Context(), p.Skip, p.Limit)
	if err != nil {
		internalError(w, "list notes failed", err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(notes))
}

// GetNote handles GET /notes/{note_id}.
//
//	@Summary	Get a note by id
//	@Tags		notes
//	@Produce	json
//	@Param		note_id	path		int	true	"Note id"
//	@Success	200		{object}	models.Note
//	@Failure	404		{object}	ErrorResponse
//	@Router		/notes/{note_id} [get]
func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	id, err := parseNoteID(chi.URLParam(r, "note_id"))
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	note, err := notesFrom(r).GetByID(r.Context(), id)
	if err != nil {
		internalError(w, "get note failed", err, slog.Int64("note_id", id))
		return
	}
	if note == nil {
		writeError(w, http.StatusNotFound, DetailNoteNotFound)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// DeleteNote handles DELETE /notes/{note_id}. The lookup and the delete are
// separate statements; a note removed by another request in between yields
// DetailDeleteFailed rather than DetailNoteNotFound.
//
//	@Summary	Delete a note
//	@Tags		notes
//	@Produce	json
//	@Param		note_id	path		int	true	"Note id"
//	@Success	200		{object}	models.Note
//	@Failure	404		{object}	ErrorResponse
//	@Router		/notes/{note_id} [delete]
func (h *Handler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	id, err := parseNoteID(chi.URLParam(r, "note_id"))
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	notes := notesFrom(r)
	note, err := notes.GetByID(r.Context(), id)
	if err != nil {
		internalError(w, "get note failed", err, slog.Int64("note_id", id))
		return
	}
	if note == nil {
		writeError(w, http.StatusNotFound, DetailNoteNotFound)
		return
	}
	deleted, err := notes.DeleteByID(r.Context(), id)
	if err != nil {
		internalError(w, "delete note failed", err, slog.Int64("note_id", id))
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, DetailDeleteFailed)
		return
	}
	h.publish(sse.NoteDeleted(id))
	writeJSON(w, http.StatusOK, note)
}

// SearchNotes handles GET /notes/search/.
//
//	@Summary	Substring search over title and content
//	@Tags		notes
//	@Produce	json
//	@Param		keyword	query		string	true	"Case-sensitive substring"	minlength(1)
//	@Success	200		{array}		models.Note
//	@Failure	422		{object}	ErrorResponse
//	@Router		/notes/search/ [get]
func (h *Handler) SearchNotes(w http.ResponseWriter, r *http.Request) {
	p := SearchParams{Keyword: r.URL.Query().Get("keyword")}
	if err := p.Validate(); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	notes, err := notesFrom(r).Search(r.Context(), p.Keyword)
	if err != nil {
		internalError(w, "search notes failed", err, slog.String("keyword", p.Keyword))
		return
	}
	writeJSON(w, http.StatusOK, nonNil(notes))
}

func nonNil(notes []models.Note) []models.Note {
	if notes == nil {
		return []models.Note{}
	}
	return notes
}
