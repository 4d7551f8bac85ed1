package access

import (
	"testing"

	"collabnotes-server/internal/domain"
)

func note(ownerID string, editors []string, public bool) *domain.Note {
	return &domain.Note{
		ID:       "n1",
		OwnerID:  ownerID,
		Editors:  editors,
		IsPublic: public,
	}
}

func TestCanRead(t *testing.T) {
	tests := []struct {
		name   string
		note   *domain.Note
		userID string
		want   bool
	}{
		{"anonymous reads public note", note("owner", []string{"owner"}, true), "", true},
		{"anonymous cannot read private note", note("owner", []string{"owner"}, false), "", false},
		{"owner reads private note", note("owner", []string{"owner"}, false), "owner", true},
		{"editor reads private note", note("owner", []string{"owner", "e1"}, false), "e1", true},
		{"outsider reads public note", note("owner", []string{"owner"}, true), "stranger", true},
		{"outsider cannot read private note", note("owner", []string{"owner"}, false), "stranger", false},
		{"nil note never readable", nil, "owner", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanRead(tt.note, tt.userID); got != tt.want {
				t.Errorf("CanRead() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCanEdit(t *testing.T) {
	tests := []struct {
		name   string
		note   *domain.Note
		userID string
		want   bool
	}{
		{"anonymous never edits, even public", note("owner", []string{"owner"}, true), "", false},
		{"owner edits", note("owner", []string{"owner"}, false), "owner", true},
		{"editor edits", note("owner", []string{"owner", "e1"}, false), "e1", true},
		{"public does not grant edit", note("owner", []string{"owner"}, true), "stranger", false},
		{"owner outside editors list still edits", note("owner", nil, false), "owner", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanEdit(tt.note, tt.userID); got != tt.want {
				t.Errorf("CanEdit() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsOwner(t *testing.T) {
	n := note("owner", []string{"owner", "e1"}, false)

	if !IsOwner(n, "owner") {
		t.Error("expected owner to be recognized")
	}
	if IsOwner(n, "e1") {
		t.Error("a later-added editor is not the owner")
	}
	if IsOwner(n, "") {
		t.Error("anonymous caller is never the owner")
	}
}
