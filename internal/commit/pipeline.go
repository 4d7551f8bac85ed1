package commit

import (
	"context"
	"errors"
	"time"

	"collabnotes-server/internal/domain"
	"collabnotes-server/internal/notestore"

	"go.uber.org/zap"
)

const (
	// DefaultTitleDebounce is short: title edits are cheap, frequent,
	// and not part of the versioned history.
	DefaultTitleDebounce = 500 * time.Millisecond

	// DefaultContentDebounce is longer: each flush mints a version, so
	// the settle window keeps bursts of keystrokes to one snapshot.
	DefaultContentDebounce = 1500 * time.Millisecond

	commitTimeout = 10 * time.Second
)

// NoteSource yields the last-known state of a note, nil when the note
// is no longer visible. A commit whose note has vanished (deleted, or
// access revoked) is abandoned rather than reviving the document.
type NoteSource interface {
	Note(id string) *domain.Note
}

// Patcher is the slice of the store adapter the pipeline writes with.
type Patcher interface {
	PatchNote(ctx context.Context, id string, patch map[string]any) error
}

// Pipeline debounces title and content edits per note with
// independent timers, and flushes each as a point mutation.
type Pipeline struct {
	source       NoteSource
	backend      Patcher
	sched        Scheduler
	titleDelay   time.Duration
	contentDelay time.Duration
	report       func(title, description string)
	logger       *zap.Logger
}

func NewPipeline(source NoteSource, backend Patcher, sched Scheduler, titleDelay, contentDelay time.Duration, report func(title, description string), logger *zap.Logger) *Pipeline {
	if titleDelay <= 0 {
		titleDelay = DefaultTitleDebounce
	}
	if contentDelay <= 0 {
		contentDelay = DefaultContentDebounce
	}
	if report == nil {
		report = func(string, string) {}
	}
	return &Pipeline{
		source:       source,
		backend:      backend,
		sched:        sched,
		titleDelay:   titleDelay,
		contentDelay: contentDelay,
		report:       report,
		logger:       logger,
	}
}

func titleKey(noteID string) string   { return "title:" + noteID }
func contentKey(noteID string) string { return "content:" + noteID }

// EditTitle restarts the note's title timer. On quiescence the title
// is patched directly; no version is minted for title changes.
func (p *Pipeline) EditTitle(noteID, title string) {
	p.sched.Schedule(titleKey(noteID), p.titleDelay, func() {
		p.commitTitle(noteID, title)
	})
}

// EditContent restarts the note's content timer. On quiescence a new
// version carrying the full pending content is prepended and the list
// truncated to the cap.
func (p *Pipeline) EditContent(noteID, content string) {
	p.sched.Schedule(contentKey(noteID), p.contentDelay, func() {
		p.commitContent(noteID, content)
	})
}

// Abandon drops both pending timers for the note. Required when the
// note is deselected or disappears from the visible set, so a stale
// commit cannot overwrite newer state or revive a deleted note.
func (p *Pipeline) Abandon(noteID string) {
	p.sched.Cancel(titleKey(noteID))
	p.sched.Cancel(contentKey(noteID))
}

// Shutdown abandons every pending commit.
func (p *Pipeline) Shutdown() {
	p.sched.CancelAll()
}

func (p *Pipeline) commitTitle(noteID, title string) {
	note := p.source.Note(noteID)
	if note == nil {
		return
	}
	if note.Title == title {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), commitTimeout)
	defer cancel()

	if err := p.backend.PatchNote(ctx, noteID, map[string]any{"title": title}); err != nil {
		p.fail(noteID, "title", err)
	}
}

func (p *Pipeline) commitContent(noteID, content string) {
	note := p.source.Note(noteID)
	if note == nil {
		return
	}
	if current := note.CurrentVersion(); current != nil && current.Content == content {
		return
	}

	versions := domain.PrependVersion(note.Versions, domain.NewVersion(content))

	ctx, cancel := context.WithTimeout(context.Background(), commitTimeout)
	defer cancel()

	if err := p.backend.PatchNote(ctx, noteID, map[string]any{"versions": versions}); err != nil {
		p.fail(noteID, "content", err)
	}
}

func (p *Pipeline) fail(noteID, kind string, err error) {
	if errors.Is(err, notestore.ErrNotFound) {
		// Note was deleted between quiescence and the write. Nothing
		// to save anymore.
		return
	}
	p.logger.Warn("commit failed",
		zap.String("note", noteID),
		zap.String("kind", kind),
		zap.Error(err),
	)
	p.report("Save failed", "Your latest "+kind+" change could not be saved. Keep typing to retry.")
}
