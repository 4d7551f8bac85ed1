package domain

// Request payloads for the note dispatch surface. Title and content
// may legitimately be empty strings (the client renders a placeholder),
// so neither carries a required tag.

type UpdateTitleRequest struct {
	Title string `json:"title"`
}

type UpdateContentRequest struct {
	Content string `json:"content"`
}

type RestoreVersionRequest struct {
	VersionID string `json:"version_id" validate:"required"`
}

type AddCollaboratorRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type SelectNoteRequest struct {
	NoteID string `json:"note_id"`
}
