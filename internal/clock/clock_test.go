package clock

import (
	"testing"
	"time"
)

func TestClockAdvance(t *testing.T) {
	c := New()
	base := c.Now()

	c.Advance(5 * time.Second)
	after := c.Now()

	if after.Sub(base) < 4*time.Second {
		t.Fatalf("expected Now() to move forward by ~5s, got delta %v", after.Sub(base))
	}
}

func TestClockSetOffset(t *testing.T) {
	c := New()
	c.SetOffset(time.Hour)
	if c.Now().Sub(time.Now()) < 59*time.Minute {
		t.Fatalf("expected offset to hold at ~1h")
	}
	c.SetOffset(0)
	if c.Now().Sub(time.Now()) > time.Minute {
		t.Fatalf("expected offset reset to ~0")
	}
}

func TestNilClockFallsBackToSystemTime(t *testing.T) {
	var c *Clock
	if c.Now().IsZero() {
		t.Fatalf("nil clock should still return a usable time")
	}
}
