package sessionstore

import (
	"context"
	"sync"

	"alphabot/internal/modules/chatbot/domain/session"
)

// Store 会话存储端口
type Store interface {
	// Get 返回 key 对应的会话, 不存在时返回 (nil, nil)
	Get(ctx context.Context, key string) (*session.Session, error)
	Save(ctx context.Context, sess *session.Session) error
	Delete(ctx context.Context, key string) error
}

// Locker 用户级互斥端口, 同一用户的对话轮次串行执行
type Locker interface {
	Lock(ctx context.Context, userID string) (unlock func(), err error)
}

// KeyedMutex 进程内按 key 互斥
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[string]*entry
}

type entry struct {
	mu   sync.Mutex
	refs int
}

func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{locks: make(map[string]*entry)}
}

var _ Locker = (*KeyedMutex)(nil)

func (k *KeyedMutex) Lock(_ context.Context, userID string) (func(), error) {
	k.mu.Lock()
	e := k.locks[userID]
	if e == nil {
		e = &entry{}
		k.locks[userID] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		k.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(k.locks, userID)
		}
		k.mu.Unlock()
	}, nil
}
