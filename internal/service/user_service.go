package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"collabnotes-server/internal/domain"
	"collabnotes-server/internal/notestore"
)

type UserService struct {
	users notestore.UserStore
}

func NewUserService(users notestore.UserStore) *UserService {
	return &UserService{users: users}
}

func (s *UserService) GetByID(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.users.UserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	user.Password = ""
	return user, nil
}

// UpdateProfile renames the user. The new username must be free;
// keeping the current one is always allowed.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, req *domain.UpdateProfileRequest) (*domain.User, error) {
	user, err := s.users.UserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.Username != user.Username {
		if existing, err := s.users.UserByUsername(ctx, req.Username); err == nil && existing.ID != userID {
			return nil, ErrUsernameTaken
		} else if err != nil && !errors.Is(err, notestore.ErrNotFound) {
			return nil, fmt.Errorf("failed to check username existence: %w", err)
		}
		user.Username = req.Username
	}
	user.UpdatedAt = time.Now()

	if err := s.users.UpdateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	user.Password = ""
	return user, nil
}

// Profiles resolves a note's editor ids to displayable profiles with
// a single membership query.
func (s *UserService) Profiles(ctx context.Context, ids []string) ([]domain.Profile, error) {
	users, err := s.users.UsersByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	profiles := make([]domain.Profile, 0, len(users))
	for _, u := range users {
		profiles = append(profiles, u.Profile())
	}
	return profiles, nil
}
