// Package widgetpool manages the shared set of render widgets that panes
// borrow. Widgets are expensive to build, so released widgets stay warm for
// reuse: a pane re-opening the same input gets its old widget back with state
// intact, and any pane can recycle a warm widget of the right view type.
package widgetpool

import (
	"fmt"
	"sync"
	"time"

	"github.com/Dicklesworthstone/nbview/internal/document"
	"github.com/Dicklesworthstone/nbview/internal/pane"
)

// Factory builds a fresh widget for a view type.
type Factory func(viewType string) (pane.Widget, error)

// EventType classifies pool state changes.
type EventType int

const (
	EventCreated EventType = iota
	EventRecycled
	EventRebound
	EventReleased
	EventEvicted
)

func (t EventType) String() string {
	switch t {
	case EventCreated:
		return "created"
	case EventRecycled:
		return "recycled"
	case EventRebound:
		return "rebound"
	case EventReleased:
		return "released"
	case EventEvicted:
		return "evicted"
	default:
		return fmt.Sprintf("unknown(%d)", int(t))
	}
}

// Event describes one pool state change.
type Event struct {
	Type     EventType
	ViewType string
	Group    int
	WidgetID string
}

// Pool hands out widget leases keyed by (group, input). It retains the
// authoritative widget lifetime; panes only hold leases.
type Pool struct {
	mu      sync.Mutex
	factory Factory
	maxIdle int
	closed  bool

	warm   []*warmWidget
	leased map[string]*Lease

	created  int
	recycled int
	rebound  int
	evicted  int

	onStateChange func(Event)
}

type warmWidget struct {
	widget     pane.Widget
	viewType   string
	key        string // lease key the widget last served
	releasedAt time.Time
}

// Option configures a Pool.
type Option func(*Pool)

// WithMaxIdle bounds the number of warm widgets kept per pool.
func WithMaxIdle(n int) Option {
	return func(p *Pool) {
		p.maxIdle = n
	}
}

// WithOnStateChange sets a callback for pool state changes.
func WithOnStateChange(fn func(Event)) Option {
	return func(p *Pool) {
		p.onStateChange = fn
	}
}

// New creates a pool that builds widgets with the given factory.
func New(factory Factory, opts ...Option) *Pool {
	p := &Pool{
		factory: factory,
		maxIdle: 4, // Default: a handful of warm widgets per session
		leased:  make(map[string]*Lease),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// leaseKey generates the map key for a group:input pair.
func leaseKey(group int, input document.InputRef) string {
	return fmt.Sprintf("%d:%s", group, input.Key())
}

// Retrieve returns a leased widget for (group, input). Preference order:
// the warm widget that last served this exact key, then any warm widget of
// the same view type (reset before reuse), then a fresh widget from the
// factory. Errors are fatal to the caller.
func (p *Pool) Retrieve(group int, input document.InputRef) (pane.BorrowedWidget, error) {
	key := leaseKey(group, input)

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, fmt.Errorf("widget pool is closed")
	}
	if _, ok := p.leased[key]; ok {
		p.mu.Unlock()
		return nil, fmt.Errorf("widget for %s already leased", key)
	}

	var (
		w  pane.Widget
		ev Event
	)

	if idx := p.findWarmLocked(key, input.ViewType); idx >= 0 {
		entry := p.warm[idx]
		p.warm = append(p.warm[:idx], p.warm[idx+1:]...)
		w = entry.widget
		if entry.key == key {
			p.rebound++
			ev = Event{Type: EventRebound, ViewType: input.ViewType, Group: group, WidgetID: w.ID()}
		} else {
			// Recycled across inputs: prior document state must not leak.
			if r, ok := w.(interface{ Reset() }); ok {
				r.Reset()
			}
			p.recycled++
			ev = Event{Type: EventRecycled, ViewType: input.ViewType, Group: group, WidgetID: w.ID()}
		}
	} else {
		built, err := p.factory(input.ViewType)
		if err != nil {
			p.mu.Unlock()
			return nil, fmt.Errorf("build widget for view type %q: %w", input.ViewType, err)
		}
		w = built
		p.created++
		ev = Event{Type: EventCreated, ViewType: input.ViewType, Group: group, WidgetID: w.ID()}
	}

	lease := &Lease{pool: p, widget: w, key: key, group: group, viewType: input.ViewType}
	p.leased[key] = lease
	cb := p.onStateChange
	p.mu.Unlock()

	// Fire callback outside lock
	if cb != nil {
		go cb(ev)
	}
	return lease, nil
}

// findWarmLocked prefers an exact key match over a view-type match.
func (p *Pool) findWarmLocked(key, viewType string) int {
	byType := -1
	for i, entry := range p.warm {
		if entry.key == key {
			return i
		}
		if byType < 0 && entry.viewType == viewType {
			byType = i
		}
	}
	return byType
}

// release is called by Lease.Release. The widget returns to the warm set;
// the oldest warm widget is evicted when the set exceeds maxIdle.
func (p *Pool) release(l *Lease) {
	p.mu.Lock()
	delete(p.leased, l.key)

	if p.closed {
		p.mu.Unlock()
		disposeWidget(l.widget)
		return
	}

	p.warm = append(p.warm, &warmWidget{
		widget:     l.widget,
		viewType:   l.viewType,
		key:        l.key,
		releasedAt: time.Now(),
	})

	events := []Event{{Type: EventReleased, ViewType: l.viewType, Group: l.group, WidgetID: l.widget.ID()}}
	var toDispose []pane.Widget
	for len(p.warm) > p.maxIdle {
		oldest := p.oldestWarmLocked()
		entry := p.warm[oldest]
		p.warm = append(p.warm[:oldest], p.warm[oldest+1:]...)
		p.evicted++
		toDispose = append(toDispose, entry.widget)
		events = append(events, Event{Type: EventEvicted, ViewType: entry.viewType, WidgetID: entry.widget.ID()})
	}
	cb := p.onStateChange
	p.mu.Unlock()

	for _, w := range toDispose {
		disposeWidget(w)
	}
	// Fire callbacks outside lock
	if cb != nil {
		for _, ev := range events {
			go cb(ev)
		}
	}
}

func (p *Pool) oldestWarmLocked() int {
	oldest := 0
	for i, entry := range p.warm {
		if entry.releasedAt.Before(p.warm[oldest].releasedAt) {
			oldest = i
		}
	}
	return oldest
}

func disposeWidget(w pane.Widget) {
	if d, ok := w.(interface{ Dispose() }); ok {
		d.Dispose()
	}
}

// Close disposes all warm widgets and rejects further retrieves. Leased
// widgets are disposed as their leases release.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	warm := p.warm
	p.warm = nil
	p.mu.Unlock()

	for _, entry := range warm {
		disposeWidget(entry.widget)
	}
}

// Summary is a snapshot of pool accounting.
type Summary struct {
	Leased   int `json:"leased"`
	Warm     int `json:"warm"`
	Created  int `json:"created"`
	Recycled int `json:"recycled"`
	Rebound  int `json:"rebound"`
	Evicted  int `json:"evicted"`
}

// Summary returns current pool accounting.
func (p *Pool) Summary() Summary {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Summary{
		Leased:   len(p.leased),
		Warm:     len(p.warm),
		Created:  p.created,
		Recycled: p.recycled,
		Rebound:  p.rebound,
		Evicted:  p.evicted,
	}
}
