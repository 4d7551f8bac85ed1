package notestore

import (
	"context"
	"strings"

	"collabnotes-server/internal/domain"

	"github.com/go-kivik/kivik/v4"
	"go.uber.org/zap"
)

// Subscribe tails the database changes feed and re-runs both note
// selectors whenever a note document changes, delivering the full
// visible set each time. There are no incremental diffs; the consumer
// re-derives its state from whole snapshots, which is what makes the
// backend the single source of truth.
func (s *CouchStore) Subscribe(ctx context.Context, userID string) (<-chan Snapshot, <-chan error) {
	snaps := make(chan Snapshot, 4)
	errs := make(chan error, 1)

	go func() {
		defer close(snaps)
		defer close(errs)

		if !s.deliver(ctx, userID, snaps, errs) {
			return
		}

		db := s.client.DB(s.dbName)
		changes := db.Changes(ctx, kivik.Params(map[string]any{
			"feed":      "continuous",
			"since":     "now",
			"heartbeat": 30000,
		}))
		defer changes.Close()

		for changes.Next() {
			if !strings.HasPrefix(changes.ID(), "note:") {
				continue
			}
			if !s.deliver(ctx, userID, snaps, errs) {
				return
			}
		}

		if err := changes.Err(); err != nil && ctx.Err() == nil {
			s.logger.Error("changes feed terminated", zap.String("user", userID), zap.Error(err))
			select {
			case errs <- err:
			case <-ctx.Done():
			}
		}
	}()

	return snaps, errs
}

// deliver queries both predicates and sends one snapshot. Returns
// false once ctx is done and the subscription should stop.
func (s *CouchStore) deliver(ctx context.Context, userID string, snaps chan<- Snapshot, errs chan<- error) bool {
	owned, err := s.OwnedNotes(ctx, userID)
	if err == nil {
		var editor []*domain.Note
		editor, err = s.EditorNotes(ctx, userID)
		if err == nil {
			select {
			case snaps <- Snapshot{Owned: owned, Editor: editor}:
				return true
			case <-ctx.Done():
				return false
			}
		}
	}

	if ctx.Err() != nil {
		return false
	}
	s.logger.Warn("subscription query failed", zap.String("user", userID), zap.Error(err))
	select {
	case errs <- err:
	default:
	}
	return true
}
