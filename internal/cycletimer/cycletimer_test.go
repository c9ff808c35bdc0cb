package cycletimer

import "testing"

func TestSystemWallClockAdvances(t *testing.T) {
	var wc SystemWallClock

	a := wc.Now()
	b := wc.Now()
	if !b.After(a) && !b.Equal(a) {
		t.Fatalf("second Now() = %v, want >= first Now() = %v", b, a)
	}
}

func TestNewReturnsUsableTimer(t *testing.T) {
	timer := New()
	first := timer.Now()
	second := timer.Now()
	if second < first {
		t.Fatalf("Timer went backwards: first=%d second=%d", first, second)
	}
}
