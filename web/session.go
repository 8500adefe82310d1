package web

import (
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/kaundalabs/dumsor/pkg/conversation"
)

var (
	errSessionNotFound = errors.New("session not found")
	errSessionBusy     = errors.New("an interaction is already in flight for this session")
)

// session pairs a conversation store with an in-flight marker. The store
// itself needs no locking: the busy flag guarantees a single writer, which is
// the model the whole interaction flow assumes — one synchronous round trip
// per session at a time.
type session struct {
	store *conversation.Store
	busy  bool
}

// sessionManager owns the in-memory session map. Sessions live exactly as
// long as the caller keeps them: created empty, ended explicitly or when the
// process exits. Nothing is persisted.
type sessionManager struct {
	mu       sync.Mutex
	sessions map[string]*session
}

func newSessionManager() *sessionManager {
	return &sessionManager{
		sessions: make(map[string]*session),
	}
}

// Create initializes an empty conversation store and returns its session id.
func (m *sessionManager) Create() string {
	id := uuid.NewString()

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[id] = &session{store: conversation.NewStore()}

	return id
}

// End tears down a session. Returns false if the id is unknown.
func (m *sessionManager) End(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[id]; !ok {
		return false
	}
	delete(m.sessions, id)
	return true
}

// History returns a snapshot of the session's turns.
func (m *sessionManager) History(id string) ([]conversation.Turn, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.sessions[id]
	if !ok {
		return nil, errSessionNotFound
	}
	return sess.store.History(), nil
}

// Begin marks the session as having an interaction in flight and returns its
// store. Callers must pair every successful Begin with Finish.
func (m *sessionManager) Begin(id string) (*conversation.Store, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.sessions[id]
	if !ok {
		return nil, errSessionNotFound
	}
	if sess.busy {
		return nil, errSessionBusy
	}

	sess.busy = true
	return sess.store, nil
}

// Finish clears the in-flight marker.
func (m *sessionManager) Finish(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if sess, ok := m.sessions[id]; ok {
		sess.busy = false
	}
}
