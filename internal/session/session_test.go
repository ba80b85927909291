package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/fjod/go_store/internal/domain"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestRedis creates a miniredis server and returns a RedisStore on top of it
func setupTestRedis(t *testing.T) (*RedisStore, *miniredis.Miniredis, func()) {
	mr := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	store := NewRedisStore(client, time.Hour)

	cleanup := func() {
		client.Close()
		mr.Close()
	}

	return store, mr, cleanup
}

func testUser() *domain.User {
	return &domain.User{
		ID:     "65a1f0c2b4d3e2a1f0c2b4d3",
		Name:   "Ana",
		Email:  "ana@example.com",
		Role:   domain.RoleUser,
		CartID: "65a1f0c2b4d3e2a1f0c2b4d4",
	}
}

func TestCreateAndGet(t *testing.T) {
	store, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	ctx := context.Background()
	s, err := store.Create(ctx, testUser())
	require.NoError(t, err)
	require.NotEmpty(t, s.Token)

	assert.True(t, mr.Exists(sessionKey(s.Token)))
	ttl := mr.TTL(sessionKey(s.Token))
	assert.GreaterOrEqual(t, ttl, time.Hour)
	assert.Less(t, ttl, time.Hour+5*time.Minute)

	got, err := store.Get(ctx, s.Token)
	require.NoError(t, err)
	assert.Equal(t, s, got)
	assert.Equal(t, "65a1f0c2b4d3e2a1f0c2b4d4", got.CartID)
}

func TestGet_Missing(t *testing.T) {
	store, _, cleanup := setupTestRedis(t)
	defer cleanup()

	_, err := store.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	_, err = store.Get(context.Background(), "")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestGet_Expired(t *testing.T) {
	store, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	s, err := store.Create(context.Background(), testUser())
	require.NoError(t, err)

	mr.FastForward(2 * time.Hour)

	_, err = store.Get(context.Background(), s.Token)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestGet_InvalidJSON(t *testing.T) {
	store, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	require.NoError(t, mr.Set(sessionKey("bad"), "{not json"))

	_, err := store.Get(context.Background(), "bad")
	assert.ErrorContains(t, err, "unmarshal session failed")
}

func TestDelete(t *testing.T) {
	store, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	ctx := context.Background()
	s, err := store.Create(ctx, testUser())
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, s.Token))
	assert.False(t, mr.Exists(sessionKey(s.Token)))

	_, err = store.Get(ctx, s.Token)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestRedisDown(t *testing.T) {
	store, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	mr.Close()

	_, err := store.Create(context.Background(), testUser())
	assert.ErrorContains(t, err, "redis set failed")
}
