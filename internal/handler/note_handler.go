package handler

import (
	"encoding/json"
	"net/http"

	"collabnotes-server/internal/access"
	"collabnotes-server/internal/domain"
	"collabnotes-server/internal/middleware"
	"collabnotes-server/internal/service"
	"collabnotes-server/internal/session"
	"collabnotes-server/internal/store"
	"collabnotes-server/pkg/response"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
)

// The user-facing not-found message. Deliberately identical for
// missing notes and notes the caller has no access to, so existence
// is never leaked.
const noteNotFoundMsg = "Note not found or you don't have access"

type NoteHandler struct {
	sessions *session.Manager
	users    *service.UserService
	validate *validator.Validate
}

func NewNoteHandler(sessions *session.Manager, users *service.UserService) *NoteHandler {
	return &NoteHandler{
		sessions: sessions,
		users:    users,
		validate: validator.New(),
	}
}

// List returns the session's reduced state. An optional noteId query
// parameter preselects the active note, which is how share links deep
// link into the main app.
func (h *NoteHandler) List(w http.ResponseWriter, r *http.Request) {
	sess := h.sessions.Session(middleware.GetUserID(r))

	if noteID := r.URL.Query().Get("noteId"); noteID != "" {
		sess.Store.Dispatch(r.Context(), store.SelectNote{ID: noteID})
	}

	response.Success(w, sess.Store.State())
}

func (h *NoteHandler) Create(w http.ResponseWriter, r *http.Request) {
	sess := h.sessions.Session(middleware.GetUserID(r))

	id, err := sess.Store.CreateNote(r.Context())
	if err != nil {
		response.InternalError(w, "Failed to create note")
		return
	}

	response.Created(w, map[string]string{"note_id": id})
}

func (h *NoteHandler) Select(w http.ResponseWriter, r *http.Request) {
	var req domain.SelectNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request payload")
		return
	}

	sess := h.sessions.Session(middleware.GetUserID(r))
	sess.Store.Dispatch(r.Context(), store.SelectNote{ID: req.NoteID})

	response.Success(w, sess.Store.State())
}

func (h *NoteHandler) UpdateTitle(w http.ResponseWriter, r *http.Request) {
	sess, noteID, ok := h.editable(w, r)
	if !ok {
		return
	}

	var req domain.UpdateTitleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request payload")
		return
	}

	sess.Store.Dispatch(r.Context(), store.UpdateTitle{ID: noteID, Title: req.Title})
	response.JSON(w, http.StatusAccepted, map[string]string{"message": "Title change queued"})
}

func (h *NoteHandler) UpdateContent(w http.ResponseWriter, r *http.Request) {
	sess, noteID, ok := h.editable(w, r)
	if !ok {
		return
	}

	var req domain.UpdateContentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request payload")
		return
	}

	sess.Store.Dispatch(r.Context(), store.UpdateContent{ID: noteID, Content: req.Content})
	response.JSON(w, http.StatusAccepted, map[string]string{"message": "Content change queued"})
}

func (h *NoteHandler) Restore(w http.ResponseWriter, r *http.Request) {
	sess, noteID, ok := h.editable(w, r)
	if !ok {
		return
	}

	var req domain.RestoreVersionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request payload")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	sess.Store.Dispatch(r.Context(), store.RestoreVersion{NoteID: noteID, VersionID: req.VersionID})
	response.JSON(w, http.StatusAccepted, map[string]string{"message": "Restore queued"})
}

func (h *NoteHandler) AddCollaborator(w http.ResponseWriter, r *http.Request) {
	sess, noteID, ok := h.editable(w, r)
	if !ok {
		return
	}

	var req domain.AddCollaboratorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request payload")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	sess.Store.Dispatch(r.Context(), store.AddCollaborator{NoteID: noteID, Email: req.Email})
	response.JSON(w, http.StatusAccepted, map[string]string{"message": "Collaborator request queued"})
}

func (h *NoteHandler) Share(w http.ResponseWriter, r *http.Request) {
	sess, noteID, ok := h.editable(w, r)
	if !ok {
		return
	}

	sess.Store.Dispatch(r.Context(), store.MakeNotePublic{ID: noteID})
	response.JSON(w, http.StatusAccepted, map[string]string{"message": "Note shared publicly"})
}

func (h *NoteHandler) Delete(w http.ResponseWriter, r *http.Request) {
	sess, noteID, ok := h.editable(w, r)
	if !ok {
		return
	}

	sess.Store.Dispatch(r.Context(), store.DeleteNote{ID: noteID})
	response.Success(w, map[string]string{"message": "Note deleted successfully"})
}

func (h *NoteHandler) Collaborators(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r)
	sess := h.sessions.Session(userID)

	note := sess.Store.Note(mux.Vars(r)["id"])
	if note == nil || !access.CanRead(note, userID) {
		response.NotFound(w, noteNotFoundMsg)
		return
	}

	profiles, err := h.users.Profiles(r.Context(), note.Editors)
	if err != nil {
		response.InternalError(w, "Failed to load collaborators")
		return
	}

	response.Success(w, profiles)
}

// editable resolves the target note and gates it behind edit access.
// Both "does not exist" and "no access" yield the same not-found
// reply.
func (h *NoteHandler) editable(w http.ResponseWriter, r *http.Request) (*session.Session, string, bool) {
	userID := middleware.GetUserID(r)
	sess := h.sessions.Session(userID)

	noteID := mux.Vars(r)["id"]
	note := sess.Store.Note(noteID)
	if note == nil || !access.CanEdit(note, userID) {
		response.NotFound(w, noteNotFoundMsg)
		return nil, "", false
	}

	return sess, noteID, true
}
