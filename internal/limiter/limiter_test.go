package limiter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDisabledLimiterAllowsEverything(t *testing.T) {
	l := New(Config{RPS: 0})
	for i := 0; i < 1000; i++ {
		assert.True(t, l.Allow())
	}
}

func TestLimiterThrottlesBeyondBurst(t *testing.T) {
	l := New(Config{RPS: 1, Burst: 2})

	assert.True(t, l.Allow())
	assert.True(t, l.Allow())
	assert.False(t, l.Allow())
}

func TestBurstDefaultsToRPS(t *testing.T) {
	l := New(Config{RPS: 3})

	allowed := 0
	for i := 0; i < 10; i++ {
		if l.Allow() {
			allowed++
		}
	}
	assert.Equal(t, 3, allowed)
}
