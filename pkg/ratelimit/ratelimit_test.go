package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestLimiter(limit int, window time.Duration) (*Limiter, *time.Time) {
	now := time.Unix(1_700_000_000, 0)
	l := New(limit, window)
	l.now = func() time.Time { return now }
	return l, &now
}

func TestAllowBurstThenRefill(t *testing.T) {
	l, now := newTestLimiter(3, 3*time.Second)

	for i := 0; i < 3; i++ {
		ok, _ := l.Allow("10.0.0.1")
		assert.True(t, ok, "request %d", i)
	}
	ok, wait := l.Allow("10.0.0.1")
	assert.False(t, ok)
	assert.Equal(t, time.Second, wait)

	ok, _ = l.Allow("10.0.0.2")
	assert.True(t, ok, "keys are independent")

	*now = now.Add(time.Second)
	ok, _ = l.Allow("10.0.0.1")
	assert.True(t, ok)
	ok, _ = l.Allow("10.0.0.1")
	assert.False(t, ok)
}

func TestEvictIdleBuckets(t *testing.T) {
	l, now := newTestLimiter(1, time.Second)
	l.Allow("a")
	*now = now.Add(1500 * time.Millisecond)
	l.Allow("b")
	*now = now.Add(time.Second)

	l.evict()
	assert.Equal(t, 1, l.Len())
	_, ok := l.buckets["b"]
	assert.True(t, ok)
}
