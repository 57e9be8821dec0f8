package portal

import (
	"context"
	"errors"
	"testing"
	"time"

	"bakehouse/internal/portal/portaltest"
)

func TestPacerDelayWithinBounds(t *testing.T) {
	p := NewPacer(100*time.Millisecond, 300*time.Millisecond)
	for i := 0; i < 200; i++ {
		d := p.delay()
		if d < p.Min || d >= p.Max {
			t.Fatalf("delay %s outside [%s, %s)", d, p.Min, p.Max)
		}
	}

	var zero *Pacer
	if zero.delay() != 0 {
		t.Fatal("nil pacer must not wait")
	}
}

func TestPacerPauseHonoursContext(t *testing.T) {
	p := NewPacer(time.Hour, time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := p.Pause(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestPacerScroll(t *testing.T) {
	br := portaltest.New()
	if err := (&Pacer{}).Scroll(context.Background(), br, 3); err != nil {
		t.Fatal(err)
	}
	if br.Scrolled != 3 {
		t.Fatalf("scrolled %d times", br.Scrolled)
	}
}
