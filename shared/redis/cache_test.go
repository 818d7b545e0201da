package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cachedThing struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

func newTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := NewClient(context.Background(), Options{Addr: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return client, mr
}

func TestNewClient_InvalidAddress(t *testing.T) {
	client, err := NewClient(context.Background(), Options{Addr: "127.0.0.1:1", DialTimeout: 200 * time.Millisecond})

	assert.Error(t, err)
	assert.Nil(t, client)
	assert.Contains(t, err.Error(), "failed to connect to redis")
}

func TestNewClient_WrongPassword(t *testing.T) {
	mr := miniredis.RunT(t)
	mr.RequireAuth("secret")

	client, err := NewClient(context.Background(), Options{Addr: mr.Addr(), Password: "wrong"})

	assert.Error(t, err)
	assert.Nil(t, client)
}

func TestViewCache_SetGetDelete(t *testing.T) {
	client, _ := newTestClient(t)
	cache := NewViewCache[cachedThing](client.Client, 0, nil)
	ctx := context.Background()

	_, ok := cache.Get(ctx, "thing:1")
	assert.False(t, ok, "empty cache should miss")

	cache.Set(ctx, "thing:1", &cachedThing{ID: 1, Name: "first"})
	got, ok := cache.Get(ctx, "thing:1")
	require.True(t, ok)
	assert.Equal(t, cachedThing{ID: 1, Name: "first"}, *got)

	cache.Evict(ctx, "thing:1")
	_, ok = cache.Get(ctx, "thing:1")
	assert.False(t, ok)
}

func TestViewCache_SetAfterEvict(t *testing.T) {
	client, mr := newTestClient(t)
	cache := NewViewCache[cachedThing](client.Client, time.Minute, nil)
	ctx := context.Background()

	cache.Set(ctx, "thing:3", &cachedThing{ID: 3})
	cache.Evict(ctx, "thing:3")

	// a read that started before the eviction tries to warm the key
	cache.Set(ctx, "thing:3", &cachedThing{ID: 3, Name: "stale"})
	assert.False(t, mr.Exists("thing:3"), "evicted key must not be re-cached")

	mr.FastForward(evictMarkerTTL + time.Second)
	cache.Set(ctx, "thing:3", &cachedThing{ID: 3, Name: "fresh"})
	got, ok := cache.Get(ctx, "thing:3")
	require.True(t, ok, "marker expiry re-enables writes")
	assert.Equal(t, "fresh", got.Name)
}

func TestViewCache_TTL(t *testing.T) {
	client, mr := newTestClient(t)
	cache := NewViewCache[cachedThing](client.Client, time.Minute, nil)
	ctx := context.Background()

	cache.Set(ctx, "thing:2", &cachedThing{ID: 2})
	assert.Equal(t, time.Minute, mr.TTL("thing:2"))

	mr.FastForward(2 * time.Minute)
	_, ok := cache.Get(ctx, "thing:2")
	assert.False(t, ok, "expired entry should miss")
}

func TestViewCache_CorruptEntry(t *testing.T) {
	client, mr := newTestClient(t)
	cache := NewViewCache[cachedThing](client.Client, 0, nil)

	require.NoError(t, mr.Set("thing:3", "{not json"))

	_, ok := cache.Get(context.Background(), "thing:3")
	assert.False(t, ok)
}
