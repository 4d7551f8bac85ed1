// Package access holds the pure policy predicates gating note reads
// and mutations. userID == "" means the caller is unauthenticated.
package access

import (
	"slices"

	"collabnotes-server/internal/domain"
)

// CanRead reports whether the given user may see the note at all. A
// private note a user cannot read must be presented as not found, not
// as forbidden; callers at the HTTP boundary are responsible for that.
func CanRead(note *domain.Note, userID string) bool {
	if note == nil {
		return false
	}
	if note.IsPublic {
		return true
	}
	return CanEdit(note, userID)
}

// CanEdit reports whether the user may mutate the note's title,
// versions, or access fields. Never true for unauthenticated callers.
func CanEdit(note *domain.Note, userID string) bool {
	if note == nil || userID == "" {
		return false
	}
	if note.OwnerID == userID {
		return true
	}
	return slices.Contains(note.Editors, userID)
}

// IsOwner is true only for the original creator, distinct from editors
// added later.
func IsOwner(note *domain.Note, userID string) bool {
	return note != nil && userID != "" && note.OwnerID == userID
}
