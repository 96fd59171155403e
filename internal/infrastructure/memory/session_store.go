package memory

import (
	"context"
	"sync"
	"time"

	"github.com/oksasatya/clinical-monitor/internal/domain/entity"
	"github.com/oksasatya/clinical-monitor/internal/domain/repository"
)

// SessionStore keeps sessions in a map and honors TTLs against Now.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]entity.Session
	Now      func() time.Time
}

func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: map[string]entity.Session{}, Now: time.Now}
}

func (s *SessionStore) Save(_ context.Context, sess *entity.Session, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *sess
	cp.ExpiresAt = s.Now().Add(ttl)
	s.sessions[sess.ID] = cp
	return nil
}

func (s *SessionStore) Get(_ context.Context, sid string) (*entity.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[sid]
	if !ok || !s.Now().Before(sess.ExpiresAt) {
		delete(s.sessions, sid)
		return nil, repository.ErrNotFound
	}
	return &sess, nil
}

func (s *SessionStore) Renew(_ context.Context, sid string, renewedAt time.Time, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[sid]
	if !ok || !s.Now().Before(sess.ExpiresAt) {
		return repository.ErrNotFound
	}
	sess.RenewedAt = renewedAt
	sess.ExpiresAt = s.Now().Add(ttl)
	s.sessions[sid] = sess
	return nil
}

func (s *SessionStore) Delete(_ context.Context, sid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sid)
	return nil
}

// Len reports how many sessions are stored, expired ones included.
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

var _ repository.SessionStore = (*SessionStore)(nil)
