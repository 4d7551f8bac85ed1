package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"collabnotes-server/internal/domain"
	"collabnotes-server/internal/notestore"
)

func seedUser(users *mockUserStore, id, username, email string) {
	users.users[id] = &domain.User{
		ID:        id,
		Username:  username,
		Email:     email,
		Password:  "hashed",
		CreatedAt: time.Now().Add(-time.Hour),
		UpdatedAt: time.Now().Add(-time.Hour),
	}
}

func TestUpdateProfile(t *testing.T) {
	users := newMockUserStore()
	seedUser(users, "u1", "alice", "alice@example.com")
	svc := NewUserService(users)

	updated, err := svc.UpdateProfile(context.Background(), "u1",
		&domain.UpdateProfileRequest{Username: "alice2"})
	if err != nil {
		t.Fatalf("UpdateProfile() error = %v", err)
	}
	if updated.Username != "alice2" {
		t.Errorf("username = %q, want alice2", updated.Username)
	}
	if updated.Password != "" {
		t.Error("password leaked in update response")
	}

	stored, err := users.UserByUsername(context.Background(), "alice2")
	if err != nil {
		t.Fatalf("rename not persisted: %v", err)
	}
	if stored.ID != "u1" {
		t.Errorf("persisted user = %q, want u1", stored.ID)
	}
}

func TestUpdateProfileKeepingUsername(t *testing.T) {
	users := newMockUserStore()
	seedUser(users, "u1", "alice", "alice@example.com")
	svc := NewUserService(users)

	if _, err := svc.UpdateProfile(context.Background(), "u1",
		&domain.UpdateProfileRequest{Username: "alice"}); err != nil {
		t.Errorf("re-saving the current username must succeed, got %v", err)
	}
}

func TestUpdateProfileUsernameTaken(t *testing.T) {
	users := newMockUserStore()
	seedUser(users, "u1", "alice", "alice@example.com")
	seedUser(users, "u2", "bob", "bob@example.com")
	svc := NewUserService(users)

	_, err := svc.UpdateProfile(context.Background(), "u1",
		&domain.UpdateProfileRequest{Username: "bob"})
	if !errors.Is(err, ErrUsernameTaken) {
		t.Errorf("UpdateProfile() error = %v, want ErrUsernameTaken", err)
	}

	if u, _ := users.UserByID(context.Background(), "u1"); u.Username != "alice" {
		t.Errorf("username = %q after rejected rename, want alice", u.Username)
	}
}

func TestUpdateProfileUnknownUser(t *testing.T) {
	svc := NewUserService(newMockUserStore())

	_, err := svc.UpdateProfile(context.Background(), "ghost",
		&domain.UpdateProfileRequest{Username: "whoever"})
	if !errors.Is(err, notestore.ErrNotFound) {
		t.Errorf("UpdateProfile() error = %v, want ErrNotFound", err)
	}
}
