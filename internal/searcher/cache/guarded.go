package cache

import (
	"context"
	"time"

	pkgredis "github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/resilience"
)

// GuardedStore bounds every call to the wrapped store by a timeout and
// stops calling it while its circuit is open, so a slow or dead Redis
// degrades searches to uncached instead of failing them.
type GuardedStore struct {
	next    Store
	breaker *resilience.CircuitBreaker
	timeout time.Duration
}

func NewGuardedStore(next Store, timeout time.Duration, cfg resilience.CircuitBreakerConfig) *GuardedStore {
	return &GuardedStore{
		next:    next,
		breaker: resilience.NewCircuitBreaker("search-cache", cfg),
		timeout: timeout,
	}
}

func (g *GuardedStore) Get(ctx context.Context, key string) (string, error) {
	var val string
	err := g.breaker.Execute(func() error {
		v, err := resilience.WithTimeout(ctx, g.timeout, "cache get", func(ctx context.Context) (string, error) {
			return g.next.Get(ctx, key)
		})
		val = v
		return err
	}, pkgredis.IsNilError)
	return val, err
}

func (g *GuardedStore) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return g.breaker.Execute(func() error {
		_, err := resilience.WithTimeout(ctx, g.timeout, "cache set", func(ctx context.Context) (struct{}, error) {
			return struct{}{}, g.next.Set(ctx, key, value, ttl)
		})
		return err
	}, nil)
}

// FlushByPattern is not time-bounded: an invalidation must run to the end.
func (g *GuardedStore) FlushByPattern(ctx context.Context, pattern string) (int64, error) {
	var n int64
	err := g.breaker.Execute(func() error {
		var err error
		n, err = g.next.FlushByPattern(ctx, pattern)
		return err
	}, nil)
	return n, err
}

func (g *GuardedStore) State() resilience.State {
	return g.breaker.State()
}
