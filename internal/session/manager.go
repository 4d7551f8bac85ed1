// Package session ties one authenticated user to a live note store:
// it owns the store, the commit pipeline, and the backend
// subscription, and pushes every state generation to the user's open
// websocket connections. Sessions are constructed on demand and torn
// down explicitly; nothing here is a process-wide singleton.
package session

import (
	"context"
	"sync"
	"time"

	"collabnotes-server/internal/commit"
	"collabnotes-server/internal/notestore"
	"collabnotes-server/internal/store"
	"collabnotes-server/internal/websocket"

	"go.uber.org/zap"
)

type Config struct {
	TitleDebounce   time.Duration
	ContentDebounce time.Duration
}

type Session struct {
	UserID   string
	Store    *store.Store
	Pipeline *commit.Pipeline
	cancel   context.CancelFunc
}

func (s *Session) Close() {
	s.Pipeline.Shutdown()
	s.cancel()
}

type Manager struct {
	backend notestore.NoteStore
	users   notestore.UserStore
	hub     *websocket.Manager
	cfg     Config
	logger  *zap.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewManager(backend notestore.NoteStore, users notestore.UserStore, hub *websocket.Manager, cfg Config, logger *zap.Logger) *Manager {
	return &Manager{
		backend:  backend,
		users:    users,
		hub:      hub,
		cfg:      cfg,
		logger:   logger,
		sessions: make(map[string]*Session),
	}
}

// Session returns the user's live session, starting one on first use.
func (m *Manager) Session(userID string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	if sess, ok := m.sessions[userID]; ok {
		return sess
	}

	sess := m.start(userID)
	m.sessions[userID] = sess
	return sess
}

func (m *Manager) start(userID string) *Session {
	ctx, cancel := context.WithCancel(context.Background())

	st := store.New(userID, m.backend, m.users, m.logger.Named("store"))
	pipeline := commit.NewPipeline(
		st,
		m.backend,
		commit.NewScheduler(),
		m.cfg.TitleDebounce,
		m.cfg.ContentDebounce,
		st.Report,
		m.logger.Named("commit"),
	)
	st.SetPipeline(pipeline)

	sess := &Session{
		UserID:   userID,
		Store:    st,
		Pipeline: pipeline,
		cancel:   cancel,
	}

	snaps, errs := m.backend.Subscribe(ctx, userID)
	go m.run(ctx, sess, snaps, errs)

	m.logger.Info("session started", zap.String("user", userID))
	return sess
}

// run pumps subscription snapshots into the reducer and fans state
// generations and notifications out to the user's connections.
func (m *Manager) run(ctx context.Context, sess *Session, snaps <-chan notestore.Snapshot, errs <-chan error) {
	watch := sess.Store.Watch()
	events := sess.Store.Events()

	for {
		select {
		case snap, ok := <-snaps:
			if !ok {
				return
			}
			sess.Store.Dispatch(ctx, store.SetNotes{Owned: snap.Owned, Editor: snap.Editor})

		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			m.logger.Warn("subscription error", zap.String("user", sess.UserID), zap.Error(err))
			sess.Store.Report("Sync issue", "Your notes may be out of date. Reconnecting...")

		case <-watch:
			m.pushState(sess)

		case ev := <-events:
			m.pushNotification(sess.UserID, ev)

		case <-ctx.Done():
			return
		}
	}
}

func (m *Manager) pushState(sess *Session) {
	msg, err := websocket.NewMessage(websocket.TypeState, sess.Store.State())
	if err != nil {
		m.logger.Warn("state push marshal failed", zap.Error(err))
		return
	}
	m.hub.BroadcastToUser(sess.UserID, msg)
}

func (m *Manager) pushNotification(userID string, ev store.Event) {
	msg, err := websocket.NewMessage(websocket.TypeNotification, ev)
	if err != nil {
		return
	}
	m.hub.BroadcastToUser(userID, msg)
}

// Release tears the user's session down once their last websocket
// connection is gone: the subscription, the pipeline timers, and the
// reducer all go with it. A reconnect that raced in keeps the session
// alive; the next disconnect gets another chance to reap it.
func (m *Manager) Release(userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.sessions[userID]
	if !ok {
		return
	}
	if m.hub.UserConnections(userID) > 0 {
		return
	}

	sess.Close()
	delete(m.sessions, userID)
	m.logger.Info("session released", zap.String("user", userID))
}

// CloseAll tears every session down; used on server shutdown.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for userID, sess := range m.sessions {
		sess.Close()
		delete(m.sessions, userID)
	}
}
