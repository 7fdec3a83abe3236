package printlink

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"printdesk/internal/model"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type storeFactory func(t *testing.T, clock *fakeClock) Store

func newMemory(t *testing.T, clock *fakeClock) Store {
	return NewMemoryStoreWithClock(clock.Now)
}

func newRedis(t *testing.T, clock *fakeClock) Store {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	s := NewRedisStoreWithClient(client, "test:")
	s.now = clock.Now
	return s
}

func forEachStore(t *testing.T, fn func(t *testing.T, s Store, clock *fakeClock)) {
	factories := map[string]storeFactory{
		"memory": newMemory,
		"redis":  newRedis,
	}
	for name, factory := range factories {
		t.Run(name, func(t *testing.T) {
			clock := &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
			fn(t, factory(t, clock), clock)
		})
	}
}

func link(clock *fakeClock, id string, ttl time.Duration) *model.PrintLink {
	now := clock.Now()
	return &model.PrintLink{
		ID:         id,
		DocumentID: "doc-1",
		UserID:     "user-1",
		CreatedAt:  now,
		ExpiresAt:  now.Add(ttl),
	}
}

func TestStore_SaveGetConsume(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store, clock *fakeClock) {
		ctx := context.Background()
		require.NoError(t, s.Save(ctx, link(clock, "l1", time.Minute)))

		got, err := s.Get(ctx, "l1")
		require.NoError(t, err)
		assert.Equal(t, "doc-1", got.DocumentID)

		// Get does not consume.
		_, err = s.Get(ctx, "l1")
		require.NoError(t, err)

		consumed, err := s.Consume(ctx, "l1")
		require.NoError(t, err)
		assert.Equal(t, "user-1", consumed.UserID)

		_, err = s.Consume(ctx, "l1")
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = s.Get(ctx, "l1")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestStore_Expiry(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store, clock *fakeClock) {
		ctx := context.Background()
		require.NoError(t, s.Save(ctx, link(clock, "l1", time.Minute)))

		clock.Advance(time.Minute)

		_, err := s.Get(ctx, "l1")
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = s.Consume(ctx, "l1")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestStore_SaveRejects(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store, clock *fakeClock) {
		ctx := context.Background()

		assert.ErrorIs(t, s.Save(ctx, link(clock, "old", 0)), ErrExpired)

		require.NoError(t, s.Save(ctx, link(clock, "dup", time.Minute)))
		assert.ErrorContains(t, s.Save(ctx, link(clock, "dup", time.Minute)), "already in use")
	})
}

func TestStore_UnknownID(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store, clock *fakeClock) {
		_, err := s.Consume(context.Background(), "nope")
		assert.ErrorIs(t, err, ErrNotFound)
		assert.NoError(t, s.PingContext(context.Background()))
	})
}

func TestStore_ConcurrentConsumeSucceedsOnce(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store, clock *fakeClock) {
		ctx := context.Background()
		require.NoError(t, s.Save(ctx, link(clock, "race", time.Minute)))

		var wins atomic.Int32
		var wg sync.WaitGroup
		for i := 0; i < 16; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := s.Consume(ctx, "race"); err == nil {
					wins.Add(1)
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, int32(1), wins.Load())
	})
}

func TestMemoryStore_EvictsOnSave(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	s := NewMemoryStoreWithClock(clock.Now)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, link(clock, "a", time.Second)))
	clock.Advance(2 * time.Second)
	require.NoError(t, s.Save(ctx, link(clock, "b", time.Minute)))

	assert.Equal(t, 1, s.Len())
}
