package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCache(client, time.Minute)
}

func TestCacheFetchJSONCachesResult(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	calls := 0
	loader := func(ctx context.Context) (any, error) {
		calls++
		return map[string]int{"kegs": 7}, nil
	}

	var first map[string]int
	require.NoError(t, cache.FetchJSON(ctx, "overview", &first, loader))
	require.Equal(t, 7, first["kegs"])

	var second map[string]int
	require.NoError(t, cache.FetchJSON(ctx, "overview", &second, loader))
	require.Equal(t, 7, second["kegs"])
	require.Equal(t, 1, calls, "second fetch must hit the cache")
}

func TestCacheBumpInvalidates(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	calls := 0
	loader := func(ctx context.Context) (any, error) {
		calls++
		return calls, nil
	}

	var got int
	require.NoError(t, cache.FetchJSON(ctx, "overview", &got, loader))
	require.Equal(t, 1, got)

	require.NoError(t, cache.Bump(ctx))

	require.NoError(t, cache.FetchJSON(ctx, "overview", &got, loader))
	require.Equal(t, 2, got, "bump must force a rebuild")
}

func TestCacheLoaderErrorPropagates(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	boom := errors.New("boom")
	var got int
	err := cache.FetchJSON(ctx, "overview", &got, func(ctx context.Context) (any, error) {
		return nil, boom
	})
	require.ErrorIs(t, err, boom)
}

func TestCacheNilPassThrough(t *testing.T) {
	var cache *Cache
	ctx := context.Background()

	require.NoError(t, cache.Bump(ctx))

	var got int
	require.NoError(t, cache.FetchJSON(ctx, "overview", &got, func(ctx context.Context) (any, error) {
		return 42, nil
	}))
	require.Equal(t, 42, got)
}
