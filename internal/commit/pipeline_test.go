package commit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"collabnotes-server/internal/domain"
	"collabnotes-server/internal/notestore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeSource struct {
	mu    sync.Mutex
	notes map[string]*domain.Note
}

func (f *fakeSource) Note(id string) *domain.Note {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.notes[id]
}

func (f *fakeSource) set(n *domain.Note) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notes[n.ID] = n
}

type patchRecord struct {
	noteID string
	patch  map[string]any
}

type fakePatcher struct {
	mu    sync.Mutex
	calls []patchRecord
	err   error
}

func (f *fakePatcher) PatchNote(_ context.Context, id string, patch map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.calls = append(f.calls, patchRecord{noteID: id, patch: patch})
	return nil
}

func (f *fakePatcher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakePatcher) last() patchRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[len(f.calls)-1]
}

func newTestPipeline(reports chan string) (*Pipeline, *fakeSource, *fakePatcher) {
	source := &fakeSource{notes: make(map[string]*domain.Note)}
	patcher := &fakePatcher{}
	report := func(string, string) {}
	if reports != nil {
		report = func(title, _ string) { reports <- title }
	}
	p := NewPipeline(source, patcher, NewScheduler(),
		10*time.Millisecond, 15*time.Millisecond, report, zap.NewNop())
	return p, source, patcher
}

func TestEditTitleCoalesces(t *testing.T) {
	p, source, patcher := newTestPipeline(nil)
	defer p.Shutdown()
	source.set(&domain.Note{ID: "n1", Title: "old"})

	for _, title := range []string{"n", "ne", "new"} {
		p.EditTitle("n1", title)
	}

	require.Eventually(t, func() bool { return patcher.count() == 1 }, time.Second, 2*time.Millisecond)

	last := patcher.last()
	assert.Equal(t, "n1", last.noteID)
	assert.Equal(t, map[string]any{"title": "new"}, last.patch)

	// Quiescence passed; no second flush follows.
	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, 1, patcher.count())
}

func TestEditTitleUnchangedSkipsWrite(t *testing.T) {
	p, source, patcher := newTestPipeline(nil)
	defer p.Shutdown()
	source.set(&domain.Note{ID: "n1", Title: "same"})

	p.EditTitle("n1", "same")

	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, 0, patcher.count())
}

func TestEditContentMintsOneVersion(t *testing.T) {
	p, source, patcher := newTestPipeline(nil)
	defer p.Shutdown()
	source.set(&domain.Note{
		ID:       "n1",
		Versions: []domain.Version{{ID: "v1", Content: "draft"}},
	})

	for _, content := range []string{"draft o", "draft on", "draft one"} {
		p.EditContent("n1", content)
	}

	require.Eventually(t, func() bool { return patcher.count() == 1 }, time.Second, 2*time.Millisecond)

	versions := patcher.last().patch["versions"].([]domain.Version)
	require.Len(t, versions, 2)
	assert.Equal(t, "draft one", versions[0].Content)
	assert.Equal(t, "v1", versions[1].ID)
}

func TestEditContentUnchangedSkipsVersion(t *testing.T) {
	p, source, patcher := newTestPipeline(nil)
	defer p.Shutdown()
	source.set(&domain.Note{
		ID:       "n1",
		Versions: []domain.Version{{ID: "v1", Content: "draft"}},
	})

	p.EditContent("n1", "draft")

	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, 0, patcher.count())
}

func TestTitleAndContentTimersAreIndependent(t *testing.T) {
	p, source, patcher := newTestPipeline(nil)
	defer p.Shutdown()
	source.set(&domain.Note{
		ID:       "n1",
		Title:    "old",
		Versions: []domain.Version{{ID: "v1", Content: ""}},
	})

	p.EditTitle("n1", "new")
	p.EditContent("n1", "body")

	require.Eventually(t, func() bool { return patcher.count() == 2 }, time.Second, 2*time.Millisecond)
}

func TestAbandonDropsPendingCommits(t *testing.T) {
	p, source, patcher := newTestPipeline(nil)
	defer p.Shutdown()
	source.set(&domain.Note{
		ID:       "n1",
		Title:    "old",
		Versions: []domain.Version{{ID: "v1", Content: ""}},
	})

	p.EditTitle("n1", "new")
	p.EditContent("n1", "body")
	p.Abandon("n1")

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 0, patcher.count())
}

func TestVanishedNoteIsNotCommitted(t *testing.T) {
	p, _, patcher := newTestPipeline(nil)
	defer p.Shutdown()

	// The source never knew this note; the flush gives up silently.
	p.EditContent("ghost", "body")

	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, 0, patcher.count())
}

func TestCommitFailureReports(t *testing.T) {
	reports := make(chan string, 1)
	p, source, patcher := newTestPipeline(reports)
	defer p.Shutdown()
	source.set(&domain.Note{ID: "n1", Title: "old"})
	patcher.err = errors.New("unavailable")

	p.EditTitle("n1", "new")

	select {
	case title := <-reports:
		assert.Equal(t, "Save failed", title)
	case <-time.After(time.Second):
		t.Fatal("no failure notification arrived")
	}
}

func TestCommitAfterDeleteStaysQuiet(t *testing.T) {
	reports := make(chan string, 1)
	p, source, patcher := newTestPipeline(reports)
	defer p.Shutdown()
	source.set(&domain.Note{ID: "n1", Title: "old"})
	patcher.err = notestore.ErrNotFound

	p.EditTitle("n1", "new")

	time.Sleep(40 * time.Millisecond)
	select {
	case title := <-reports:
		t.Fatalf("unexpected notification %q for a deleted note", title)
	default:
	}
}
