package ratelimit

import (
	"context"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRandomPauserStaysInRange(t *testing.T) {
	p := NewRandomPauser(1500*time.Millisecond, 3*time.Second)
	r := rand.New(rand.NewPCG(1, 2))
	p.rnd = r.Float64

	var waited []time.Duration
	p.wait = func(_ context.Context, d time.Duration) { waited = append(waited, d) }

	for i := 0; i < 500; i++ {
		p.Pause(context.Background())
	}

	require.Len(t, waited, 500)
	for _, d := range waited {
		assert.GreaterOrEqual(t, d, 1500*time.Millisecond)
		assert.LessOrEqual(t, d, 3*time.Second)
	}
}

func TestRandomPauserBounds(t *testing.T) {
	p := NewRandomPauser(time.Second, 2*time.Second)

	p.rnd = func() float64 { return 0 }
	assert.Equal(t, time.Second, p.Next())

	p.rnd = func() float64 { return 0.5 }
	assert.Equal(t, 1500*time.Millisecond, p.Next())
}

func TestNewRandomPauserSwapsInvertedRange(t *testing.T) {
	p := NewRandomPauser(3*time.Second, time.Second)
	assert.Equal(t, time.Second, p.Min)
	assert.Equal(t, 3*time.Second, p.Max)
}

func TestPauseReturnsOnCancel(t *testing.T) {
	p := NewRandomPauser(time.Hour, time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan struct{})
	go func() {
		p.Pause(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Pause did not return after cancellation")
	}
}

func TestPauseSleeps(t *testing.T) {
	p := NewRandomPauser(20*time.Millisecond, 20*time.Millisecond)
	start := time.Now()
	p.Pause(context.Background())
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}
