package resolver

import (
	"testing"
	"time"
)

func TestDebouncerSuppressesBursts(t *testing.T) {
	d := newDebouncer(50 * time.Millisecond)

	if !d.ShouldEmit("file:///a.ipynb") {
		t.Fatal("first event should emit")
	}
	if d.ShouldEmit("file:///a.ipynb") {
		t.Fatal("immediate repeat should be suppressed")
	}

	time.Sleep(60 * time.Millisecond)
	if !d.ShouldEmit("file:///a.ipynb") {
		t.Fatal("event after the delay should emit")
	}
}

func TestDebouncerKeysAreIndependent(t *testing.T) {
	d := newDebouncer(time.Minute)

	if !d.ShouldEmit("file:///a.ipynb") {
		t.Fatal("first event for a should emit")
	}
	if !d.ShouldEmit("file:///b.ipynb") {
		t.Fatal("first event for b should emit despite a's suppression window")
	}
	if d.ShouldEmit("file:///a.ipynb") {
		t.Fatal("repeat for a should be suppressed")
	}
}

func TestDebouncerDefaultDelay(t *testing.T) {
	d := newDebouncer(0)
	if d.delay != 100*time.Millisecond {
		t.Fatalf("delay = %v, want 100ms default", d.delay)
	}
	d = newDebouncer(-time.Second)
	if d.delay != 100*time.Millisecond {
		t.Fatalf("delay = %v, want 100ms default", d.delay)
	}
}
