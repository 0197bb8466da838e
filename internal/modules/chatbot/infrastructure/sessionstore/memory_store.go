package sessionstore

import (
	"context"
	"sync"
	"time"

	"alphabot/internal/modules/chatbot/domain/session"
)

// MemoryStore 进程内会话存储, 带 TTL 过期
type MemoryStore struct {
	mu    sync.RWMutex
	ttl   time.Duration
	items map[string]memoryItem
	now   func() time.Time
}

type memoryItem struct {
	sess      *session.Session
	expiresAt time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &MemoryStore{
		ttl:   ttl,
		items: make(map[string]memoryItem),
		now:   time.Now,
	}
}

var _ Store = (*MemoryStore)(nil)

func (s *MemoryStore) Get(_ context.Context, key string) (*session.Session, error) {
	s.mu.RLock()
	it, ok := s.items[key]
	s.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	if s.now().After(it.expiresAt) {
		s.mu.Lock()
		delete(s.items, key)
		s.mu.Unlock()
		return nil, nil
	}
	cp := *it.sess
	cp.Turns = append([]session.Turn(nil), it.sess.Turns...)
	return &cp, nil
}

func (s *MemoryStore) Save(_ context.Context, sess *session.Session) error {
	cp := *sess
	cp.Turns = append([]session.Turn(nil), sess.Turns...)
	s.mu.Lock()
	s.items[sess.Key] = memoryItem{sess: &cp, expiresAt: s.now().Add(s.ttl)}
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.items, key)
	s.mu.Unlock()
	return nil
}
