package notestore

import (
	"context"
	"fmt"

	"collabnotes-server/internal/domain"

	"go.uber.org/zap"
)

func (s *CouchStore) CreateUser(ctx context.Context, user *domain.User) error {
	db := s.client.DB(s.dbName)

	if _, err := db.Put(ctx, userDocID(user.ID), user); err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (s *CouchStore) UpdateUser(ctx context.Context, user *domain.User) error {
	db := s.client.DB(s.dbName)
	docID := userDocID(user.ID)

	var doc map[string]any
	if err := db.Get(ctx, docID).ScanDoc(&doc); err != nil {
		return translateErr(err, "failed to fetch user for update")
	}

	doc["username"] = user.Username
	doc["email"] = user.Email
	if user.Password != "" {
		doc["password"] = user.Password
	}
	doc["updated_at"] = user.UpdatedAt

	if _, err := db.Put(ctx, docID, doc); err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	return nil
}

func (s *CouchStore) UserByID(ctx context.Context, id string) (*domain.User, error) {
	db := s.client.DB(s.dbName)

	var user domain.User
	if err := db.Get(ctx, userDocID(id)).ScanDoc(&user); err != nil {
		return nil, translateErr(err, "failed to get user")
	}
	return &user, nil
}

func (s *CouchStore) UserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.findOneUser(ctx, map[string]any{"email": email})
}

func (s *CouchStore) UserByUsername(ctx context.Context, username string) (*domain.User, error) {
	return s.findOneUser(ctx, map[string]any{"username": username})
}

func (s *CouchStore) findOneUser(ctx context.Context, selector map[string]any) (*domain.User, error) {
	db := s.client.DB(s.dbName)

	rows := db.Find(ctx, map[string]any{"selector": selector, "limit": 1})
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, ErrNotFound
	}

	var user domain.User
	if err := rows.ScanDoc(&user); err != nil {
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	return &user, nil
}

// UsersByIDs resolves a small id set to profiles in one $in query,
// used when rendering a note's collaborator list.
func (s *CouchStore) UsersByIDs(ctx context.Context, ids []string) ([]*domain.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	db := s.client.DB(s.dbName)

	rows := db.Find(ctx, map[string]any{
		"selector": map[string]any{
			"id":    map[string]any{"$in": ids},
			"email": map[string]any{"$exists": true},
		},
	})
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var users []*domain.User
	for rows.Next() {
		var user domain.User
		if err := rows.ScanDoc(&user); err != nil {
			s.logger.Warn("skipping malformed user document", zap.Error(err))
			continue
		}
		users = append(users, &user)
	}
	return users, nil
}
