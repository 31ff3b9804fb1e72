package cache

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/resilience"
)

var errDown = errors.New("connection refused")

type downStore struct{ calls atomic.Int64 }

func (s *downStore) Get(context.Context, string) (string, error) {
	s.calls.Add(1)
	return "", errDown
}

func (s *downStore) Set(context.Context, string, interface{}, time.Duration) error {
	s.calls.Add(1)
	return errDown
}

func (s *downStore) FlushByPattern(context.Context, string) (int64, error) {
	s.calls.Add(1)
	return 0, errDown
}

type slowStore struct{ *memStore }

func (s *slowStore) Get(ctx context.Context, key string) (string, error) {
	select {
	case <-time.After(time.Second):
		return s.memStore.Get(ctx, key)
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func TestGuardedStoreOpensOnFailures(t *testing.T) {
	down := &downStore{}
	g := NewGuardedStore(down, time.Second, resilience.CircuitBreakerConfig{FailureThreshold: 2, ResetTimeout: time.Hour})
	ctx := context.Background()

	_, err := g.Get(ctx, "k")
	assert.ErrorIs(t, err, errDown)
	assert.ErrorIs(t, g.Set(ctx, "k", []byte("v"), 0), errDown)
	assert.Equal(t, resilience.StateOpen, g.State())

	_, err = g.Get(ctx, "k")
	assert.ErrorIs(t, err, resilience.ErrCircuitOpen)
	assert.Equal(t, int64(2), down.calls.Load())
}

func TestGuardedStoreMissesKeepCircuitClosed(t *testing.T) {
	g := NewGuardedStore(newMemStore(), time.Second, resilience.CircuitBreakerConfig{FailureThreshold: 1, ResetTimeout: time.Hour})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := g.Get(ctx, "absent")
		assert.ErrorIs(t, err, goredis.Nil)
	}
	assert.Equal(t, resilience.StateClosed, g.State())

	require.NoError(t, g.Set(ctx, "k", []byte("v"), 0))
	v, err := g.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", v)
}

func TestGuardedStoreTimesOut(t *testing.T) {
	g := NewGuardedStore(&slowStore{memStore: newMemStore()}, 10*time.Millisecond, resilience.CircuitBreakerConfig{})
	_, err := g.Get(context.Background(), "k")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestQueryCacheDegradesWhenStoreIsDown(t *testing.T) {
	g := NewGuardedStore(&downStore{}, time.Second, resilience.CircuitBreakerConfig{FailureThreshold: 1, ResetTimeout: time.Hour})
	c := New(g, time.Minute, nil)
	plan := parser.Parse("cat", parser.ModeBoolean)

	calls := 0
	for i := 0; i < 2; i++ {
		got, cached, err := c.GetOrCompute(context.Background(), plan, 10, func() (*executor.SearchResult, error) {
			calls++
			return result("cat"), nil
		})
		require.NoError(t, err)
		assert.False(t, cached)
		assert.Equal(t, "cat", got.Query)
	}
	assert.Equal(t, 2, calls)
}
