package warehouse

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewCache(client, time.Minute), mr
}

func TestFetchRowsMissThenHit(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()
	key := Key("repurchase_rate", "SELECT 1", "BRAND_A", "2025", "6")

	calls := 0
	loader := func(ctx context.Context) ([]Row, error) {
		calls++
		return []Row{{"ORDER_COUNT": float64(1), "USER_COUNT": float64(120)}}, nil
	}

	rows, hit, err := cache.FetchRows(ctx, key, loader)
	require.NoError(t, err)
	require.False(t, hit)
	require.Len(t, rows, 1)
	require.Equal(t, 1, calls)

	rows, hit, err = cache.FetchRows(ctx, key, loader)
	require.NoError(t, err)
	require.True(t, hit)
	require.Len(t, rows, 1)
	require.Equal(t, float64(120), rows[0]["USER_COUNT"])
	require.Equal(t, 1, calls, "hit must not re-run the loader")
}

func TestFetchRowsExpiry(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()
	key := Key("sales_by_category", "SELECT 2", "BRAND_B")

	calls := 0
	loader := func(ctx context.Context) ([]Row, error) {
		calls++
		return []Row{{"CATEGORY": "espresso"}}, nil
	}

	_, _, err := cache.FetchRows(ctx, key, loader)
	require.NoError(t, err)

	mr.FastForward(2 * time.Minute)

	_, hit, err := cache.FetchRows(ctx, key, loader)
	require.NoError(t, err)
	require.False(t, hit)
	require.Equal(t, 2, calls, "expired entry must recompute")
}

func TestFetchRowsNilClientPassthrough(t *testing.T) {
	cache := NewCache(nil, time.Minute)
	calls := 0
	loader := func(ctx context.Context) ([]Row, error) {
		calls++
		return nil, nil
	}
	for i := 0; i < 2; i++ {
		_, hit, err := cache.FetchRows(context.Background(), "k", loader)
		require.NoError(t, err)
		require.False(t, hit)
	}
	require.Equal(t, 2, calls)
}

func TestFetchRowsTransportErrorFallsThrough(t *testing.T) {
	cache, mr := newTestCache(t)
	mr.Close()

	rows, hit, err := cache.FetchRows(context.Background(), "k", func(ctx context.Context) ([]Row, error) {
		return []Row{{"A": "b"}}, nil
	})
	require.NoError(t, err)
	require.False(t, hit)
	require.Len(t, rows, 1)
}

func TestKeyStableAndScoped(t *testing.T) {
	a := Key("page", "SELECT 1", "BRAND_A")
	b := Key("page", "SELECT 1", "BRAND_A")
	c := Key("page", "SELECT 1", "BRAND_B")
	d := Key("page", "SELECT 2", "BRAND_A")
	require.Equal(t, a, b)
	require.NotEqual(t, a, c)
	require.NotEqual(t, a, d)
}
