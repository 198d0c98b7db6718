package memory

import (
	"context"
	"sync"
	"time"

	"github.com/baechuer/admin-console/internal/domain"
)

// SessionStore is the single-process fallback when Redis is not configured.
// Expired entries are dropped lazily on read.
type SessionStore struct {
	mu   sync.RWMutex
	data map[string]domain.Session
	now  func() time.Time
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		data: make(map[string]domain.Session),
		now:  time.Now,
	}
}

func (s *SessionStore) Save(ctx context.Context, sess domain.Session) error {
	if sess.ID == "" {
		return domain.ErrMissingField("id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[sess.ID] = sess
	return nil
}

func (s *SessionStore) Get(ctx context.Context, id string) (domain.Session, error) {
	s.mu.RLock()
	sess, ok := s.data[id]
	s.mu.RUnlock()

	if !ok {
		return domain.Session{}, domain.ErrSessionNotFound()
	}
	if sess.Expired(s.now()) {
		_ = s.Delete(ctx, id)
		return domain.Session{}, domain.ErrSessionNotFound()
	}
	return sess, nil
}

func (s *SessionStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, id) // idempotent
	return nil
}

// Len is the number of stored sessions, expired ones included.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}
