// Package notestore is the adapter to the external document backend.
// All timestamp normalization and query shaping happens here; the
// reducer and commit pipeline only ever see domain types.
package notestore

import (
	"context"
	"errors"

	"collabnotes-server/internal/domain"
)

var ErrNotFound = errors.New("document not found")

// Snapshot is one full delivery of the live subscription: the owned
// and editor-membership query results, undeduplicated. The reducer
// merges them; a note can satisfy both predicates at once.
type Snapshot struct {
	Owned  []*domain.Note
	Editor []*domain.Note
}

// NoteStore is the contract the core relies on. Mutations are point
// writes; reads round-trip through Subscribe, which re-delivers the
// whole visible set on every backend change rather than diffs.
type NoteStore interface {
	GetNote(ctx context.Context, id string) (*domain.Note, error)
	CreateNote(ctx context.Context, note *domain.Note) (string, error)
	// PatchNote merge-patches the identified document: fields absent
	// from patch are left untouched.
	PatchNote(ctx context.Context, id string, patch map[string]any) error
	DeleteNote(ctx context.Context, id string) error

	OwnedNotes(ctx context.Context, userID string) ([]*domain.Note, error)
	EditorNotes(ctx context.Context, userID string) ([]*domain.Note, error)

	// Subscribe delivers an initial snapshot, then one snapshot per
	// observed backend change, until ctx is cancelled. Subscription
	// errors arrive on the second channel; both close on teardown.
	Subscribe(ctx context.Context, userID string) (<-chan Snapshot, <-chan error)
}

// UserStore resolves user identities: registration, login lookup, and
// the id-set query used to render collaborator profiles.
type UserStore interface {
	CreateUser(ctx context.Context, user *domain.User) error
	UpdateUser(ctx context.Context, user *domain.User) error
	UserByID(ctx context.Context, id string) (*domain.User, error)
	UserByEmail(ctx context.Context, email string) (*domain.User, error)
	UserByUsername(ctx context.Context, username string) (*domain.User, error)
	UsersByIDs(ctx context.Context, ids []string) ([]*domain.User, error)
}
