package sessionstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"alphabot/internal/modules/chatbot/domain/session"
	pkgredis "alphabot/pkg/redis"
)

const (
	sessionKeyPrefix = "alphabot:session:"
	lockKeyPrefix    = "alphabot:lock:user:"
	lockTTL          = 30 * time.Second
	lockRetryDelay   = 50 * time.Millisecond
)

// RedisStore 基于 redis 的会话存储, 多实例部署时共享会话
type RedisStore struct {
	ttl time.Duration
}

func NewRedisStore(ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &RedisStore{ttl: ttl}
}

var _ Store = (*RedisStore)(nil)

func (s *RedisStore) Get(ctx context.Context, key string) (*session.Session, error) {
	raw, err := pkgredis.Get(ctx, sessionKeyPrefix+key)
	if err != nil {
		if pkgredis.IsNil(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis get session: %w", err)
	}

	var sess session.Session
	if err := json.Unmarshal([]byte(raw), &sess); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &sess, nil
}

func (s *RedisStore) Save(ctx context.Context, sess *session.Session) error {
	b, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	return pkgredis.Set(ctx, sessionKeyPrefix+sess.Key, string(b), s.ttl)
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	_, err := pkgredis.Del(ctx, sessionKeyPrefix+key)
	return err
}

// RedisLocker 基于 SetNX 租约的跨实例用户锁
type RedisLocker struct{}

func NewRedisLocker() *RedisLocker { return &RedisLocker{} }

var _ Locker = (*RedisLocker)(nil)

func (l *RedisLocker) Lock(ctx context.Context, userID string) (func(), error) {
	key := lockKeyPrefix + userID
	for {
		ok, err := pkgredis.SetNX(ctx, key, "1", lockTTL)
		if err != nil {
			return nil, fmt.Errorf("acquire user lock: %w", err)
		}
		if ok {
			return func() {
				_, _ = pkgredis.Del(context.Background(), key)
			}, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(lockRetryDelay):
		}
	}
}
