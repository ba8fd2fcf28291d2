package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestPacerUnpacedUsesFallback(t *testing.T) {
	p := NewPacer(0, 500)
	assert.False(t, p.Paced())
	assert.Equal(t, 500, p.Budget())
	assert.Equal(t, 500, p.Budget())
	assert.Zero(t, p.Interval())
}

func TestPacerAccumulatesSteps(t *testing.T) {
	clock := &fakeClock{t: time.Unix(100, 0)}
	p := NewPacer(100, 1)
	p.now = clock.now

	assert.True(t, p.Paced())
	assert.Equal(t, 10*time.Millisecond, p.Interval())
	assert.Equal(t, 1, p.Budget(), "first call primes the clock")

	clock.advance(35 * time.Millisecond)
	assert.Equal(t, 3, p.Budget())

	clock.advance(5 * time.Millisecond)
	assert.Equal(t, 1, p.Budget(), "leftover 5ms carries over")

	clock.advance(2 * time.Millisecond)
	assert.Equal(t, 0, p.Budget())
}

func TestPacerSetRateDisables(t *testing.T) {
	p := NewPacer(60, 7)
	p.SetRate(-1)
	assert.False(t, p.Paced())
	assert.Equal(t, 7, p.Budget())
}
