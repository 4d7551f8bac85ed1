package store

import (
	"context"

	"collabnotes-server/internal/access"
	"collabnotes-server/internal/domain"
	"collabnotes-server/internal/notestore"
)

// PromoteVisitor appends an authenticated visitor of a public note to
// its editor set. Idempotent: an existing editor is left untouched. A
// backend rejection (security rules) is returned so the caller keeps
// the visitor in the read-only view rather than a half-promoted state.
func PromoteVisitor(ctx context.Context, backend notestore.NoteStore, note *domain.Note, userID string) error {
	if note == nil || userID == "" || !note.IsPublic {
		return nil
	}
	if access.CanEdit(note, userID) {
		return nil
	}

	editors := appendUnique(note.Editors, userID)
	return backend.PatchNote(ctx, note.ID, map[string]any{"editors": editors})
}
