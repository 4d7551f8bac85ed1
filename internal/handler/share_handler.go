package handler

import (
	"errors"
	"net/http"

	"collabnotes-server/internal/access"
	"collabnotes-server/internal/middleware"
	"collabnotes-server/internal/notestore"
	"collabnotes-server/internal/store"
	"collabnotes-server/pkg/response"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// ShareHandler serves the shareable note URL. Anonymous viewers get a
// read-only rendering of public notes; an authenticated visitor of a
// public note is promoted to editor on first visit.
type ShareHandler struct {
	backend notestore.NoteStore
	logger  *zap.Logger
}

func NewShareHandler(backend notestore.NoteStore, logger *zap.Logger) *ShareHandler {
	return &ShareHandler{backend: backend, logger: logger}
}

type sharedNoteResponse struct {
	Note    any    `json:"note"`
	Role    string `json:"role"`
	CanEdit bool   `json:"can_edit"`
}

func (h *ShareHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r)
	noteID := mux.Vars(r)["id"]

	note, err := h.backend.GetNote(r.Context(), noteID)
	if err != nil {
		if !errors.Is(err, notestore.ErrNotFound) {
			h.logger.Warn("shared note lookup failed", zap.String("note", noteID), zap.Error(err))
		}
		response.NotFound(w, noteNotFoundMsg)
		return
	}

	if access.CanEdit(note, userID) {
		response.Success(w, sharedNoteResponse{Note: note, Role: "editor", CanEdit: true})
		return
	}

	if !access.CanRead(note, userID) {
		// A private note the caller cannot see looks exactly like a
		// missing one.
		response.NotFound(w, noteNotFoundMsg)
		return
	}

	role := "viewer"
	canEdit := false
	if userID != "" {
		// Self-promotion: joining a public note grants edit access. A
		// rejection (backend security rules) keeps the read-only view.
		if err := store.PromoteVisitor(r.Context(), h.backend, note, userID); err != nil {
			h.logger.Warn("visitor promotion rejected",
				zap.String("note", noteID),
				zap.String("user", userID),
				zap.Error(err),
			)
		} else {
			role = "editor"
			canEdit = true
		}
	}

	response.Success(w, sharedNoteResponse{Note: note, Role: role, CanEdit: canEdit})
}
