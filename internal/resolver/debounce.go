package resolver

import (
	"sync"
	"time"
)

// debouncer suppresses event bursts per key. Editors rewrite notebooks with
// several syscalls in quick succession; one reload per burst is enough.
type debouncer struct {
	mu    sync.Mutex
	delay time.Duration
	last  map[string]time.Time
}

func newDebouncer(delay time.Duration) *debouncer {
	if delay <= 0 {
		delay = 100 * time.Millisecond
	}
	return &debouncer{
		delay: delay,
		last:  make(map[string]time.Time),
	}
}

// ShouldEmit reports whether enough time has passed since the last emitted
// event for this key, recording the emission when it has.
func (d *debouncer) ShouldEmit(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := time.Now()
	if prev, ok := d.last[key]; ok && now.Sub(prev) < d.delay {
		return false
	}
	d.last[key] = now
	return true
}
