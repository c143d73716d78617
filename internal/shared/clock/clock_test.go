package clock

import (
	"testing"
	"time"
)

func TestRealClockNow(t *testing.T) {
	clk := RealClock{}
	before := time.Now()
	got := clk.Now()
	if got.Before(before.Add(-time.Second)) {
		t.Fatalf("expected current time got %v", got)
	}
	if got.Location() != time.UTC {
		t.Fatalf("expected UTC got %v", got.Location())
	}
}

func TestFixedClock(t *testing.T) {
	at := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	clk := Fixed(at)
	if !clk.Now().Equal(at) {
		t.Fatalf("expected %v got %v", at, clk.Now())
	}
}
