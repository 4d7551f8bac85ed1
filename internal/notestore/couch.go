package notestore

import (
	"context"
	"fmt"
	"net/http"

	"collabnotes-server/internal/domain"

	"github.com/go-kivik/kivik/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CouchStore implements NoteStore and UserStore over a single CouchDB
// database. Notes and users share the database, discriminated by doc
// id prefix and by which fields the Mango selectors match on.
type CouchStore struct {
	client *kivik.Client
	dbName string
	logger *zap.Logger
}

func NewCouchStore(client *kivik.Client, dbName string, logger *zap.Logger) *CouchStore {
	return &CouchStore{
		client: client,
		dbName: dbName,
		logger: logger,
	}
}

func noteDocID(id string) string { return fmt.Sprintf("note:%s", id) }
func userDocID(id string) string { return fmt.Sprintf("user:%s", id) }

func translateErr(err error, what string) error {
	if err == nil {
		return nil
	}
	if kivik.HTTPStatus(err) == http.StatusNotFound {
		return ErrNotFound
	}
	return fmt.Errorf("%s: %w", what, err)
}

func (s *CouchStore) GetNote(ctx context.Context, id string) (*domain.Note, error) {
	db := s.client.DB(s.dbName)

	var note domain.Note
	if err := db.Get(ctx, noteDocID(id)).ScanDoc(&note); err != nil {
		return nil, translateErr(err, "failed to get note")
	}
	return &note, nil
}

func (s *CouchStore) CreateNote(ctx context.Context, note *domain.Note) (string, error) {
	db := s.client.DB(s.dbName)

	note.ID = uuid.New().String()
	if _, err := db.Put(ctx, noteDocID(note.ID), note); err != nil {
		return "", fmt.Errorf("failed to create note: %w", err)
	}
	return note.ID, nil
}

// PatchNote fetches the current document, overlays only the fields in
// patch, and writes it back. The fetched map carries _rev, so the Put
// is rejected by the backend if the doc moved underneath us; the next
// subscription snapshot then carries the winner. Last writer wins at
// note granularity.
func (s *CouchStore) PatchNote(ctx context.Context, id string, patch map[string]any) error {
	db := s.client.DB(s.dbName)
	docID := noteDocID(id)

	var doc map[string]any
	if err := db.Get(ctx, docID).ScanDoc(&doc); err != nil {
		return translateErr(err, "failed to fetch note for patch")
	}

	for field, value := range patch {
		doc[field] = value
	}

	if _, err := db.Put(ctx, docID, doc); err != nil {
		return fmt.Errorf("failed to patch note: %w", err)
	}
	return nil
}

func (s *CouchStore) DeleteNote(ctx context.Context, id string) error {
	db := s.client.DB(s.dbName)
	docID := noteDocID(id)

	var doc map[string]any
	if err := db.Get(ctx, docID).ScanDoc(&doc); err != nil {
		return translateErr(err, "failed to fetch note for delete")
	}

	rev, _ := doc["_rev"].(string)
	if _, err := db.Delete(ctx, docID, rev); err != nil {
		return fmt.Errorf("failed to delete note: %w", err)
	}
	return nil
}

func (s *CouchStore) OwnedNotes(ctx context.Context, userID string) ([]*domain.Note, error) {
	return s.findNotes(ctx, map[string]any{
		"ownerId":  userID,
		"versions": map[string]any{"$exists": true},
	})
}

func (s *CouchStore) EditorNotes(ctx context.Context, userID string) ([]*domain.Note, error) {
	return s.findNotes(ctx, map[string]any{
		"editors":  map[string]any{"$elemMatch": map[string]any{"$eq": userID}},
		"versions": map[string]any{"$exists": true},
	})
}

func (s *CouchStore) findNotes(ctx context.Context, selector map[string]any) ([]*domain.Note, error) {
	db := s.client.DB(s.dbName)

	rows := db.Find(ctx, map[string]any{"selector": selector})
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to query notes: %w", err)
	}
	defer rows.Close()

	var notes []*domain.Note
	for rows.Next() {
		var note domain.Note
		if err := rows.ScanDoc(&note); err != nil {
			s.logger.Warn("skipping malformed note document", zap.Error(err))
			continue
		}
		notes = append(notes, &note)
	}
	return notes, nil
}
