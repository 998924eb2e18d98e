package peer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiterAllow(t *testing.T) {
	limiter := NewRateLimiter(10, time.Second)

	for i := range 10 {
		assert.True(t, limiter.Allow("conn-1"), "request %d should be allowed", i+1)
	}
	assert.False(t, limiter.Allow("conn-1"), "11th request should be denied")
}

func TestRateLimiterWindowReset(t *testing.T) {
	limiter := NewRateLimiter(2, 100*time.Millisecond)

	assert.True(t, limiter.Allow("conn-2"))
	assert.True(t, limiter.Allow("conn-2"))
	assert.False(t, limiter.Allow("conn-2"))

	time.Sleep(150 * time.Millisecond)

	assert.True(t, limiter.Allow("conn-2"))
}

func TestRateLimiterPerConnection(t *testing.T) {
	limiter := NewRateLimiter(5, time.Second)

	for range 5 {
		limiter.Allow("conn-1")
	}
	assert.False(t, limiter.Allow("conn-1"))

	for i := range 5 {
		assert.True(t, limiter.Allow("conn-2"), "conn-2 request %d should be allowed", i+1)
	}
}

func TestRateLimiterCleanup(t *testing.T) {
	limiter := NewRateLimiter(10, 50*time.Millisecond)

	limiter.Allow("a")
	limiter.Allow("b")
	assert.Equal(t, 2, limiter.tracked())

	time.Sleep(80 * time.Millisecond)
	limiter.Allow("c")
	limiter.Cleanup()

	assert.Equal(t, 1, limiter.tracked())
}

func TestRateLimiterRemoveConnection(t *testing.T) {
	limiter := NewRateLimiter(1, time.Second)

	assert.True(t, limiter.Allow("conn"))
	assert.False(t, limiter.Allow("conn"))

	limiter.RemoveConnection("conn")
	assert.True(t, limiter.Allow("conn"))
}

func TestListenerSweepsIdleConnections(t *testing.T) {
	l := &Listener{
		limiter: NewRateLimiter(10, 20*time.Millisecond),
		done:    make(chan struct{}),
	}
	l.limiter.Allow("a")
	l.limiter.Allow("b")

	go l.sweep(10 * time.Millisecond)
	defer close(l.done)

	assert.Eventually(t, func() bool {
		return l.limiter.tracked() == 0
	}, time.Second, 10*time.Millisecond)
}
