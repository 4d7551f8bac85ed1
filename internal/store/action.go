package store

import "collabnotes-server/internal/domain"

// Action is the closed set of inputs the store accepts. The sealed
// marker method keeps the union closed so Dispatch can switch over it
// exhaustively; adding an action type is a compile-visible change.
type Action interface {
	isAction()
}

// SetNotes carries one full subscription snapshot: the owned and
// editor query results, merged and reduced into canonical state.
type SetNotes struct {
	Owned  []*domain.Note
	Editor []*domain.Note
}

// SelectNote changes the active note locally. Never touches the
// backend. An empty ID clears the selection.
type SelectNote struct {
	ID string
}

// AddNote creates a fresh note owned by the session user and selects
// it once the backend returns its id.
type AddNote struct{}

// DeleteNote removes the note from backend storage.
type DeleteNote struct {
	ID string
}

// UpdateTitle feeds the debounced title path; on quiescence the title
// field is patched directly, with no new version.
type UpdateTitle struct {
	ID    string
	Title string
}

// UpdateContent feeds the debounced content path; on quiescence a new
// version is committed and the history truncated to the cap.
type UpdateContent struct {
	ID      string
	Content string
}

// RestoreVersion duplicates a historical snapshot's content as a new
// current version. The historical record stays where it is.
type RestoreVersion struct {
	NoteID    string
	VersionID string
}

// AddCollaborator resolves the email to a user id and appends it to
// the note's editor set, duplicate-safe.
type AddCollaborator struct {
	NoteID string
	Email  string
}

// MakeNotePublic flips the note's public flag on. Idempotent; the
// editor set is untouched.
type MakeNotePublic struct {
	ID string
}

func (SetNotes) isAction()        {}
func (SelectNote) isAction()      {}
func (AddNote) isAction()         {}
func (DeleteNote) isAction()      {}
func (UpdateTitle) isAction()     {}
func (UpdateContent) isAction()   {}
func (RestoreVersion) isAction()  {}
func (AddCollaborator) isAction() {}
func (MakeNotePublic) isAction()  {}
