// Package store is the single source of truth for a session's
// client-visible note state. Local actions go through the pure
// reducer; mutations are translated into store adapter calls and the
// resulting change arrives back through the next subscription
// snapshot, so local state never runs ahead of the backend.
package store

import (
	"context"
	"errors"
	"slices"
	"sync"

	"collabnotes-server/internal/access"
	"collabnotes-server/internal/commit"
	"collabnotes-server/internal/domain"
	"collabnotes-server/internal/notestore"

	"go.uber.org/zap"
)

// NotesState is the reducer's canonical state: the deduplicated,
// sorted note list and the current selection. Derived, not
// authoritative; rebuilt on every snapshot.
type NotesState struct {
	Notes        []*domain.Note `json:"notes"`
	ActiveNoteID string         `json:"active_note_id"`
	IsLoading    bool           `json:"is_loading"`
}

// Event is a transient user-facing notification: save failures,
// collaborator lookups, and the like. Never fatal.
type Event struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

const eventBuffer = 16

// Store owns NotesState exclusively. Consumers read through State and
// ActiveNote and write through Dispatch; nothing else mutates it.
type Store struct {
	userID  string
	backend notestore.NoteStore
	users   notestore.UserStore
	logger  *zap.Logger

	mu       sync.Mutex
	state    NotesState
	pipeline *commit.Pipeline

	events chan Event
	watch  chan struct{}
}

func New(userID string, backend notestore.NoteStore, users notestore.UserStore, logger *zap.Logger) *Store {
	return &Store{
		userID:  userID,
		backend: backend,
		users:   users,
		logger:  logger,
		state:   NotesState{IsLoading: true},
		events:  make(chan Event, eventBuffer),
		watch:   make(chan struct{}, 1),
	}
}

// SetPipeline wires the commit pipeline in after construction; the
// pipeline needs the store as its note source, so the two are built in
// sequence by the session.
func (s *Store) SetPipeline(p *commit.Pipeline) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pipeline = p
}

// Dispatch processes one action. It never returns an error: mutation
// failures surface as notification events, and the reducer itself
// cannot fail. Exhaustive over the Action union.
func (s *Store) Dispatch(ctx context.Context, action Action) {
	switch a := action.(type) {
	case SetNotes:
		s.applySetNotes(a)
	case SelectNote:
		s.applySelect(a.ID)
	case AddNote:
		s.addNote(ctx)
	case DeleteNote:
		s.deleteNote(ctx, a.ID)
	case UpdateTitle:
		s.editTitle(a)
	case UpdateContent:
		s.editContent(a)
	case RestoreVersion:
		s.restoreVersion(ctx, a)
	case AddCollaborator:
		s.addCollaborator(ctx, a)
	case MakeNotePublic:
		s.makePublic(ctx, a.ID)
	}
}

// State returns a read-only projection of the current state. The note
// pointers are shared; the reducer replaces notes wholesale and never
// mutates them in place.
func (s *Store) State() NotesState {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := s.state
	out.Notes = slices.Clone(s.state.Notes)
	return out
}

// ActiveNote returns the selected note, nil when nothing is selected
// or the selection has not arrived in a snapshot yet.
func (s *Store) ActiveNote() *domain.Note {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.findNote(s.state.ActiveNoteID)
}

// Note implements commit.NoteSource.
func (s *Store) Note(id string) *domain.Note {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.findNote(id)
}

// Report surfaces a notification event from a collaborating component
// (the commit pipeline, the subscription loop).
func (s *Store) Report(title, description string) {
	s.report(title, description)
}

// Events delivers notification events. The channel is buffered; if no
// consumer keeps up, events are dropped rather than blocking dispatch.
func (s *Store) Events() <-chan Event {
	return s.events
}

// Watch signals state generations. Coalesced: a receive means the
// state changed at least once since the previous receive.
func (s *Store) Watch() <-chan struct{} {
	return s.watch
}

func (s *Store) findNote(id string) *domain.Note {
	if id == "" {
		return nil
	}
	for _, n := range s.state.Notes {
		if n.ID == id {
			return n
		}
	}
	return nil
}

func (s *Store) notify() {
	select {
	case s.watch <- struct{}{}:
	default:
	}
}

func (s *Store) report(title, description string) {
	select {
	case s.events <- Event{Title: title, Description: description}:
	default:
		s.logger.Warn("notification dropped", zap.String("title", title))
	}
}

// applySetNotes merges the two query results by id (the later source
// wins on collision), sorts by creation time newest first, and keeps
// the current selection when it survived the refresh.
func (s *Store) applySetNotes(a SetNotes) {
	s.mu.Lock()
	defer s.mu.Unlock()

	merged := make([]*domain.Note, 0, len(a.Owned)+len(a.Editor))
	index := make(map[string]int, len(a.Owned)+len(a.Editor))
	for _, src := range [][]*domain.Note{a.Owned, a.Editor} {
		for _, note := range src {
			if at, ok := index[note.ID]; ok {
				merged[at] = note
				continue
			}
			index[note.ID] = len(merged)
			merged = append(merged, note)
		}
	}

	slices.SortStableFunc(merged, func(x, y *domain.Note) int {
		switch {
		case x.CreatedAt.After(y.CreatedAt):
			return -1
		case x.CreatedAt.Before(y.CreatedAt):
			return 1
		default:
			return 0
		}
	})

	active := s.state.ActiveNoteID
	if _, ok := index[active]; !ok {
		active = ""
		if len(merged) > 0 {
			active = merged[0].ID
		}
	}

	// Notes that vanished remotely must not receive a stale commit.
	if s.pipeline != nil {
		for _, old := range s.state.Notes {
			if _, ok := index[old.ID]; !ok {
				s.pipeline.Abandon(old.ID)
			}
		}
	}

	s.state = NotesState{Notes: merged, ActiveNoteID: active, IsLoading: false}
	s.notify()
}

func (s *Store) applySelect(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.state.ActiveNoteID
	if prev != "" && prev != id && s.pipeline != nil {
		s.pipeline.Abandon(prev)
	}
	s.state.ActiveNoteID = id
	s.notify()
}

func (s *Store) editTitle(a UpdateTitle) {
	s.mu.Lock()
	p := s.pipeline
	s.mu.Unlock()
	if p != nil {
		p.EditTitle(a.ID, a.Title)
	}
}

func (s *Store) editContent(a UpdateContent) {
	s.mu.Lock()
	p := s.pipeline
	s.mu.Unlock()
	if p != nil {
		p.EditContent(a.ID, a.Content)
	}
}

// CreateNote runs the add-note mutation synchronously and returns the
// new note's id. The create endpoint needs the id in its reply and
// must not infer it from the selection, which still points at the
// previously active note when the backend write fails.
func (s *Store) CreateNote(ctx context.Context) (string, error) {
	return s.addNote(ctx)
}

func (s *Store) addNote(ctx context.Context) (string, error) {
	note := domain.NewNote(s.userID)

	id, err := s.backend.CreateNote(ctx, note)
	if err != nil {
		s.logger.Warn("note creation failed", zap.Error(err))
		s.report("Could not create note", "The note could not be saved. Please try again.")
		return "", err
	}

	// Select the fresh note immediately; the snapshot carrying it
	// arrives on its own schedule.
	s.applySelect(id)
	return id, nil
}

func (s *Store) deleteNote(ctx context.Context, id string) {
	s.mu.Lock()
	if s.pipeline != nil {
		s.pipeline.Abandon(id)
	}
	s.mu.Unlock()

	if err := s.backend.DeleteNote(ctx, id); err != nil {
		s.logger.Warn("note delete failed", zap.String("note", id), zap.Error(err))
		s.report("Could not delete note", "The note could not be deleted. Please try again.")
	}
}

func (s *Store) restoreVersion(ctx context.Context, a RestoreVersion) {
	s.mu.Lock()
	note := s.findNote(a.NoteID)
	var versions []domain.Version
	if note != nil {
		if historical := note.FindVersion(a.VersionID); historical != nil {
			versions = domain.PrependVersion(note.Versions, domain.NewVersion(historical.Content))
		}
	}
	s.mu.Unlock()

	if versions == nil {
		s.report("Version not found", "That version is no longer available and cannot be restored.")
		return
	}

	if err := s.backend.PatchNote(ctx, a.NoteID, map[string]any{"versions": versions}); err != nil {
		s.logger.Warn("version restore failed", zap.String("note", a.NoteID), zap.Error(err))
		s.report("Could not restore version", "The version could not be restored. Please try again.")
	}
}

func (s *Store) addCollaborator(ctx context.Context, a AddCollaborator) {
	s.mu.Lock()
	note := s.findNote(a.NoteID)
	s.mu.Unlock()
	if note == nil {
		s.report("Note not found", "The note is no longer available.")
		return
	}

	user, err := s.users.UserByEmail(ctx, a.Email)
	if err != nil {
		if errors.Is(err, notestore.ErrNotFound) {
			s.report("User not found", "No account exists for "+a.Email+".")
		} else {
			s.logger.Warn("collaborator lookup failed", zap.Error(err))
			s.report("Could not add collaborator", "Something went wrong looking up that user.")
		}
		return
	}

	if access.CanEdit(note, user.ID) {
		s.report("Already a collaborator", user.Email+" already has access to this note.")
		return
	}

	editors := appendUnique(note.Editors, user.ID)
	if err := s.backend.PatchNote(ctx, a.NoteID, map[string]any{"editors": editors}); err != nil {
		s.logger.Warn("collaborator add failed", zap.String("note", a.NoteID), zap.Error(err))
		s.report("Could not add collaborator", "The collaborator could not be added. Please try again.")
		return
	}

	s.report("Collaborator added", user.Email+" can now edit this note.")
}

func (s *Store) makePublic(ctx context.Context, id string) {
	s.mu.Lock()
	note := s.findNote(id)
	s.mu.Unlock()
	if note == nil {
		s.report("Note not found", "The note is no longer available.")
		return
	}

	if err := s.backend.PatchNote(ctx, id, map[string]any{"isPublic": true}); err != nil {
		s.logger.Warn("share failed", zap.String("note", id), zap.Error(err))
		s.report("Could not share note", "The note could not be made public. Please try again.")
	}
}

func appendUnique(ids []string, id string) []string {
	if slices.Contains(ids, id) {
		return slices.Clone(ids)
	}
	out := make([]string, 0, len(ids)+1)
	out = append(out, ids...)
	return append(out, id)
}
