package widgetpool

import (
	"sync"

	"github.com/Dicklesworthstone/nbview/internal/pane"
)

// Lease is the borrowed-widget handle the pool hands to panes. Release is
// idempotent; after release the widget accessor returns nil so a stale
// holder cannot mutate a recycled widget.
type Lease struct {
	pool     *Pool
	key      string
	group    int
	viewType string

	mu       sync.Mutex
	widget   pane.Widget
	released bool
}

var _ pane.BorrowedWidget = (*Lease)(nil)

// Widget returns the leased widget, or nil once released.
func (l *Lease) Widget() pane.Widget {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.released {
		return nil
	}
	return l.widget
}

// Release returns the widget to the pool's warm set.
func (l *Lease) Release() {
	l.mu.Lock()
	if l.released {
		l.mu.Unlock()
		return
	}
	l.released = true
	l.mu.Unlock()

	l.pool.release(l)
}

// Key returns the (group, input) key this lease was taken for.
func (l *Lease) Key() string { return l.key }
