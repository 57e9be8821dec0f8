package portal

import (
	"context"
	"math/rand/v2"
	"time"
)

// Pacer inserts human-like pauses between browser actions.
// The zero value never waits.
type Pacer struct {
	Min time.Duration
	Max time.Duration
}

func NewPacer(min, max time.Duration) *Pacer {
	if max < min {
		max = min
	}
	return &Pacer{Min: min, Max: max}
}

func (p *Pacer) delay() time.Duration {
	if p == nil || p.Max <= 0 {
		return 0
	}
	if p.Max == p.Min {
		return p.Min
	}
	return p.Min + rand.N(p.Max-p.Min)
}

// Pause sleeps for a random duration in [Min, Max) or until ctx is done.
func (p *Pacer) Pause(ctx context.Context) error {
	d := p.delay()
	if d == 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Scroll moves down the page in `steps` uneven increments with pauses between them.
func (p *Pacer) Scroll(ctx context.Context, br Browser, steps int) error {
	for i := 0; i < steps; i++ {
		if err := br.Scroll(ctx, 250+rand.IntN(450)); err != nil {
			return err
		}
		if err := p.Pause(ctx); err != nil {
			return err
		}
	}
	return nil
}
