package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestManual_Advance(t *testing.T) {
	c := NewManual(5 * time.Millisecond)
	assert.Equal(t, 5*time.Millisecond, c.Now())

	c.Advance(12 * time.Millisecond)
	assert.Equal(t, 17*time.Millisecond, c.Now())

	c.Advance(-time.Second)
	assert.Equal(t, 17*time.Millisecond, c.Now(), "negative advance must be ignored")
}

func TestManual_SetNeverGoesBack(t *testing.T) {
	c := NewManual(0)
	c.Set(100 * time.Millisecond)
	assert.Equal(t, 100*time.Millisecond, c.Now())

	c.Set(50 * time.Millisecond)
	assert.Equal(t, 100*time.Millisecond, c.Now())
}

func TestMonotonic_NonDecreasing(t *testing.T) {
	c := NewMonotonic()
	prev := c.Now()
	for range 1000 {
		now := c.Now()
		assert.GreaterOrEqual(t, now, prev)
		prev = now
	}
}
