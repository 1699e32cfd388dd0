package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client, time.Minute), mr
}

func TestRedisStoreRoundTrip(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	sess := &Session{
		ChatID: 42,
		Step:   StepDate,
		Draft: Draft{
			ServiceID:   5,
			ServiceName: "Thai Massage",
			Duration:    60,
		},
	}
	require.NoError(t, store.Set(ctx, sess))

	got, err := store.Get(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, StepDate, got.Step)
	assert.Equal(t, int64(5), got.Draft.ServiceID)
	assert.Equal(t, "Thai Massage", got.Draft.ServiceName)
	assert.False(t, got.UpdatedAt.IsZero())
}

func TestRedisStoreMissing(t *testing.T) {
	store, _ := newTestStore(t)

	_, err := store.Get(context.Background(), 99)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStoreClear(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, &Session{ChatID: 42, Step: StepService}))
	require.NoError(t, store.Clear(ctx, 42))

	_, err := store.Get(ctx, 42)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStoreTTL(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, &Session{ChatID: 42, Step: StepTime}))

	// Idle past the TTL the session evicts on its own.
	mr.FastForward(2 * time.Minute)
	_, err := store.Get(ctx, 42)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStoreTTLRefresh(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, &Session{ChatID: 42, Step: StepService}))
	mr.FastForward(45 * time.Second)

	// A write inside the window restarts the clock.
	require.NoError(t, store.Set(ctx, &Session{ChatID: 42, Step: StepDate}))
	mr.FastForward(45 * time.Second)

	got, err := store.Get(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, StepDate, got.Step)
}
