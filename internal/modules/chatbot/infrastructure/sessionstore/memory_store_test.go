package sessionstore

import (
	"context"
	"sync"
	"testing"
	"time"

	"alphabot/internal/modules/chatbot/domain/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	s := NewMemoryStore(time.Minute)
	sess := session.NewSession("k1", "u1", 2)
	sess.Params.FromDate = "2023-01-01"
	require.NoError(t, s.Save(context.Background(), sess))

	got, err := s.Get(context.Background(), "k1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "u1", got.UserID)
	assert.Equal(t, "2023-01-01", got.Params.FromDate)
}

func TestMemoryStoreMissingKey(t *testing.T) {
	s := NewMemoryStore(time.Minute)
	got, err := s.Get(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMemoryStoreTTLExpiry(t *testing.T) {
	s := NewMemoryStore(time.Minute)
	base := time.Now()
	s.now = func() time.Time { return base }

	require.NoError(t, s.Save(context.Background(), session.NewSession("k1", "u1", 1)))

	s.now = func() time.Time { return base.Add(2 * time.Minute) }
	got, err := s.Get(context.Background(), "k1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMemoryStoreReturnsCopy(t *testing.T) {
	s := NewMemoryStore(time.Minute)
	sess := session.NewSession("k1", "u1", 1)
	require.NoError(t, s.Save(context.Background(), sess))

	got, err := s.Get(context.Background(), "k1")
	require.NoError(t, err)
	got.Params.FromDate = "2024-09-09"

	again, err := s.Get(context.Background(), "k1")
	require.NoError(t, err)
	assert.Equal(t, session.NotAvailable, again.Params.FromDate)
}

func TestKeyedMutexSerializesSameUser(t *testing.T) {
	km := NewKeyedMutex()
	var active, maxActive int
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := km.Lock(context.Background(), "u1")
			assert.NoError(t, err)
			mu.Lock()
			active++
			if active > maxActive {
				maxActive = active
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			active--
			mu.Unlock()
			unlock()
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, maxActive)
}

func TestKeyedMutexIndependentUsers(t *testing.T) {
	km := NewKeyedMutex()
	unlockA, err := km.Lock(context.Background(), "a")
	require.NoError(t, err)
	defer unlockA()

	done := make(chan struct{})
	go func() {
		unlockB, err := km.Lock(context.Background(), "b")
		assert.NoError(t, err)
		unlockB()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("independent user lock blocked")
	}
}
