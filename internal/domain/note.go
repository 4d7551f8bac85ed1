package domain

import (
	"fmt"
	"time"

	"collabnotes-server/pkg/timeutil"

	"github.com/google/uuid"
)

const (
	// DefaultTitle is assigned to freshly created notes.
	DefaultTitle = "Untitled Note"

	// MaxVersions bounds a note's history. The oldest snapshot beyond
	// the cap is discarded whenever a new version is committed.
	MaxVersions = 20
)

// Version is an immutable content snapshot. A note's version list is
// ordered newest first; index 0 is the current content.
type Version struct {
	ID        string        `json:"id"`
	Content   string        `json:"content"`
	Timestamp timeutil.Time `json:"timestamp"`
}

// Note is the unit of storage and access control. Title edits patch
// the field directly; content edits prepend a Version.
type Note struct {
	ID        string        `json:"id"`
	Title     string        `json:"title"`
	OwnerID   string        `json:"ownerId"`
	Editors   []string      `json:"editors"`
	IsPublic  bool          `json:"isPublic"`
	CreatedAt timeutil.Time `json:"createdAt"`
	Versions  []Version     `json:"versions"`
}

// NewNote builds a note for the given creator with the default title
// and a single seed version holding empty content.
func NewNote(ownerID string) *Note {
	now := timeutil.Now()
	return &Note{
		Title:     DefaultTitle,
		OwnerID:   ownerID,
		Editors:   []string{ownerID},
		IsPublic:  false,
		CreatedAt: now,
		Versions:  []Version{{ID: NewVersionID(), Content: "", Timestamp: now}},
	}
}

// NewVersionID generates a client-side version identifier, wall-clock
// prefixed so ids stay unique and roughly ordered across commits.
func NewVersionID() string {
	return fmt.Sprintf("v-%d-%s", time.Now().UnixMilli(), uuid.NewString()[:8])
}

// NewVersion snapshots the given content with a fresh id and stamp.
func NewVersion(content string) Version {
	return Version{
		ID:        NewVersionID(),
		Content:   content,
		Timestamp: timeutil.Now(),
	}
}

// PrependVersion places v at the head of versions and truncates the
// result to MaxVersions entries. The input slice is not modified.
func PrependVersion(versions []Version, v Version) []Version {
	out := make([]Version, 0, len(versions)+1)
	out = append(out, v)
	out = append(out, versions...)
	if len(out) > MaxVersions {
		out = out[:MaxVersions]
	}
	return out
}

// CurrentVersion returns the newest snapshot, or nil for a note with
// no history (which only occurs on malformed documents).
func (n *Note) CurrentVersion() *Version {
	if len(n.Versions) == 0 {
		return nil
	}
	return &n.Versions[0]
}

// FindVersion looks a snapshot up by id, nil when absent. A version
// that fell off the cap is simply gone.
func (n *Note) FindVersion(id string) *Version {
	for i := range n.Versions {
		if n.Versions[i].ID == id {
			return &n.Versions[i]
		}
	}
	return nil
}
