package api

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// SessionCookie carries the session token between requests.
const SessionCookie = "portal_session"

// Session is one logged-in browser or client.
type Session struct {
	Token    string
	Admin    bool
	Viewer   bool
	lastSeen time.Time
}

// SessionManager keeps sessions in memory with an idle timeout. Restarting
// the server logs everyone out, like the original's process-bound sessions.
type SessionManager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	timeout  time.Duration
	stopChan chan struct{}
}

func NewSessionManager(timeout time.Duration) *SessionManager {
	m := &SessionManager{
		sessions: make(map[string]*Session),
		timeout:  timeout,
		stopChan: make(chan struct{}),
	}

	go m.sweepLoop()

	return m
}

// Grant marks a role on the session behind token, creating a session when
// the token is empty or unknown. Roles accumulate: a viewer session that
// later logs in as admin keeps both.
func (m *SessionManager) Grant(token string, admin, viewer bool) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.sessions[token]
	if !ok {
		sess = &Session{Token: uuid.NewString()}
		m.sessions[sess.Token] = sess
	}

	sess.Admin = sess.Admin || admin
	sess.Viewer = sess.Viewer || viewer
	sess.lastSeen = time.Now()
	return sess
}

// Get looks up a session and refreshes its idle timer.
func (m *SessionManager) Get(token string) (*Session, bool) {
	if token == "" {
		return nil, false
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.sessions[token]
	if !ok {
		return nil, false
	}
	if m.timeout > 0 && time.Since(sess.lastSeen) >= m.timeout {
		delete(m.sessions, token)
		return nil, false
	}

	sess.lastSeen = time.Now()
	return sess, true
}

// Drop removes a session.
func (m *SessionManager) Drop(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, token)
}

// Stop terminates the sweep goroutine.
func (m *SessionManager) Stop() {
	close(m.stopChan)
}

func (m *SessionManager) sweepLoop() {
	if m.timeout <= 0 {
		return
	}

	ticker := time.NewTicker(m.timeout / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.sweep()
		case <-m.stopChan:
			return
		}
	}
}

func (m *SessionManager) sweep() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for token, sess := range m.sessions {
		if time.Since(sess.lastSeen) >= m.timeout {
			delete(m.sessions, token)
		}
	}
}
