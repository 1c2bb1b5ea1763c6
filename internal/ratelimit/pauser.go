// Package ratelimit spaces outbound requests with randomized pauses.
package ratelimit

import (
	"context"
	"math/rand/v2"
	"time"

	"mangazek/internal/metrics"
)

// Pauser blocks between remote requests.
type Pauser interface {
	Pause(ctx context.Context)
}

// RandomPauser sleeps for a duration drawn uniformly from [Min, Max].
type RandomPauser struct {
	Min time.Duration
	Max time.Duration

	rnd  func() float64
	wait func(ctx context.Context, d time.Duration)
}

func NewRandomPauser(minDelay, maxDelay time.Duration) *RandomPauser {
	if maxDelay < minDelay {
		minDelay, maxDelay = maxDelay, minDelay
	}
	return &RandomPauser{
		Min:  minDelay,
		Max:  maxDelay,
		rnd:  rand.Float64,
		wait: sleep,
	}
}

// Next draws the next pause duration without sleeping.
func (p *RandomPauser) Next() time.Duration {
	span := p.Max - p.Min
	if span <= 0 {
		return p.Min
	}
	return p.Min + time.Duration(p.rnd()*float64(span))
}

// Pause returns early once ctx is done.
func (p *RandomPauser) Pause(ctx context.Context) {
	d := p.Next()
	metrics.ObservePause(d)
	p.wait(ctx, d)
}

func sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

// Noop never pauses.
type Noop struct{}

func (Noop) Pause(context.Context) {}
