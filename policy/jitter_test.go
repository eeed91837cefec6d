package policy

import (
	"testing"
	"time"
)

func TestNoJitter(t *testing.T) {
	if d := NoJitter(time.Second); d != time.Second {
		t.Errorf("NoJitter(1s) = %v, want 1s", d)
	}
}

func TestFullJitter_Bounds(t *testing.T) {
	for i := 0; i < 100; i++ {
		d := FullJitter(time.Second)
		if d < 0 || d > time.Second {
			t.Fatalf("FullJitter(1s) = %v, out of [0, 1s]", d)
		}
	}
}

func TestFullJitter_Zero(t *testing.T) {
	if d := FullJitter(0); d != 0 {
		t.Errorf("FullJitter(0) = %v, want 0", d)
	}
}

func TestEqualJitter_Bounds(t *testing.T) {
	for i := 0; i < 100; i++ {
		d := EqualJitter(time.Second)
		if d < 500*time.Millisecond || d > time.Second {
			t.Fatalf("EqualJitter(1s) = %v, out of [500ms, 1s]", d)
		}
	}
}

func TestProportionalJitter_Bounds(t *testing.T) {
	jitter := ProportionalJitter(0.25)
	for i := 0; i < 100; i++ {
		d := jitter(time.Second)
		if d < 750*time.Millisecond || d > 1250*time.Millisecond {
			t.Fatalf("jitter(1s) = %v, out of [750ms, 1.25s]", d)
		}
	}
}

func TestProportionalJitter_ZeroFactor(t *testing.T) {
	jitter := ProportionalJitter(0)
	if d := jitter(time.Second); d != time.Second {
		t.Errorf("jitter(1s) with zero factor = %v, want 1s", d)
	}
}
