package handler

import (
	"sync"

	"github.com/use-agent/harvest/models"
)

// SessionStore retains recent extraction sessions so download endpoints can
// serve buffers after the extraction response has gone out. Sessions are
// keyed by group name and evicted oldest-first; eviction releases the
// buffers to the garbage collector.
type SessionStore struct {
	mu          sync.RWMutex
	current     *models.Session
	sessions    map[string]*models.Session
	order       []string
	maxSessions int
}

// NewSessionStore creates a store retaining at most maxSessions sessions.
func NewSessionStore(maxSessions int) *SessionStore {
	if maxSessions <= 0 {
		maxSessions = 20
	}
	return &SessionStore{
		sessions:    make(map[string]*models.Session),
		maxSessions: maxSessions,
	}
}

// Open creates a new session, registers it, and makes it the current one.
// Starting a new extraction supersedes the previous current session.
func (s *SessionStore) Open(targetURL, mechanism string) *models.Session {
	sess := models.NewSession(targetURL, mechanism)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.register(sess)
	s.current = sess
	return sess
}

// Register adds a session without touching the current pointer. Batch
// extractions use this so they do not steal the interactive session.
func (s *SessionStore) Register(sess *models.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.register(sess)
}

func (s *SessionStore) register(sess *models.Session) {
	if _, ok := s.sessions[sess.GroupName]; !ok {
		s.order = append(s.order, sess.GroupName)
	}
	s.sessions[sess.GroupName] = sess

	for len(s.order) > s.maxSessions {
		oldest := s.order[0]
		s.order = s.order[1:]
		if evicted := s.sessions[oldest]; evicted == s.current {
			s.current = nil
		}
		delete(s.sessions, oldest)
	}
}

// Current returns the session of the most recent interactive extraction.
func (s *SessionStore) Current() (*models.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil, false
	}
	return s.current, true
}

// FindBuffer looks up an asset buffer by ID across retained sessions,
// newest first. The second return is the owning session.
func (s *SessionStore) FindBuffer(id string) (*models.AssetBuffer, *models.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := len(s.order) - 1; i >= 0; i-- {
		sess := s.sessions[s.order[i]]
		if b, ok := sess.Buffer(id); ok {
			return b, sess, true
		}
	}
	return nil, nil, false
}
