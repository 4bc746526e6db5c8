package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time           { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestLimiter(limit int, window time.Duration) (*Limiter, *clock) {
	c := &clock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	l := New(limit, window)
	l.now = c.now
	return l, c
}

func TestAllowDrainsAndRefills(t *testing.T) {
	l, c := newTestLimiter(3, time.Minute)
	defer l.Close()

	for i := 0; i < 3; i++ {
		assert.True(t, l.Allow("10.0.0.1"), "request %d", i)
	}
	assert.False(t, l.Allow("10.0.0.1"))
	assert.True(t, l.Allow("10.0.0.2"), "keys are independent")

	c.advance(20 * time.Second)
	assert.True(t, l.Allow("10.0.0.1"))
	assert.False(t, l.Allow("10.0.0.1"))
}

func TestRefillIsCapped(t *testing.T) {
	l, c := newTestLimiter(2, time.Minute)
	defer l.Close()

	assert.True(t, l.Allow("k"))
	c.advance(time.Hour)
	assert.True(t, l.Allow("k"))
	assert.True(t, l.Allow("k"))
	assert.False(t, l.Allow("k"))
}

func TestResetAndEvict(t *testing.T) {
	l, c := newTestLimiter(1, time.Minute)
	defer l.Close()

	assert.True(t, l.Allow("a"))
	assert.False(t, l.Allow("a"))
	l.Reset("a")
	assert.True(t, l.Allow("a"))

	l.Allow("b")
	assert.Equal(t, 2, l.Len())
	c.advance(3 * time.Minute)
	l.evictIdle()
	assert.Zero(t, l.Len())
}

func TestRetryAfter(t *testing.T) {
	l := New(60, time.Minute)
	defer l.Close()
	assert.Equal(t, time.Second, l.RetryAfter())
	l.Close()
}
