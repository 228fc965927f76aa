// Package pane binds a host editor pane to a pooled notebook render widget.
// The controller owns the pane's lifecycle: it saves and restores view state
// around every input switch, borrows widgets from a shared pool, and keeps
// layout, visibility, and close events consistent while document resolution
// is in flight.
package pane

import (
	"context"

	"github.com/Dicklesworthstone/nbview/internal/document"
	"github.com/Dicklesworthstone/nbview/internal/viewstate"
)

// Size is the pane geometry forwarded to widgets.
type Size struct {
	Width  int
	Height int
}

// IsZero reports whether no layout has been observed yet.
func (s Size) IsZero() bool { return s.Width == 0 && s.Height == 0 }

// Options tunes how a model is installed into a widget.
type Options struct {
	// RestoreFocus moves terminal focus to the widget after attach.
	RestoreFocus bool
	// RevealCell scrolls to a specific cell index; -1 leaves the restored
	// scroll position alone.
	RevealCell int
}

// Widget is the capability set the controller consumes from a pooled render
// widget. Widgets are created and recycled by the pool; the controller only
// holds a lease.
type Widget interface {
	// ID identifies the widget instance for resolver routing.
	ID() string
	// Layout applies pane geometry.
	Layout(size Size)
	// SetModel installs a loaded document plus any restored view state.
	SetModel(doc *document.Model, st viewstate.State, opts Options) error
	// ViewState reports the widget's current visual state.
	ViewState() viewstate.State
	// DocumentURI reports the URI of the document the widget currently
	// renders, or "" when it has none. Used to detect stale widgets.
	DocumentURI() string
	// OnWillHide tells the widget it is about to leave the screen so it can
	// drop transient resources. It does not end the lease.
	OnWillHide()
	// OnDidFocus registers a focus listener and returns its remover.
	OnDidFocus(fn func()) (unsubscribe func())
	// Focus moves input focus into the widget.
	Focus()
	// View renders the widget's surface for the host to composite.
	View() string
}

// DropTarget is an optional widget capability: widgets that support drag and
// drop expose a registration scoped to one editor group.
type DropTarget interface {
	RegisterDropTarget(group int) (unsubscribe func())
}

// BorrowedWidget is the lease a pool hands out. The pool retains the
// authoritative lifetime; Release returns the widget for recycling and must
// be called exactly once.
type BorrowedWidget interface {
	Widget() Widget
	Release()
}

// WidgetPool supplies leased widgets for (group, input) pairs. The returned
// widget may be freshly created or recycled; callers must not assume either.
// Pool errors are fatal to the caller and propagate unchanged.
type WidgetPool interface {
	Retrieve(group int, input document.InputRef) (BorrowedWidget, error)
}

// DocumentResolver turns an input reference into a loaded document model.
// A nil model with a nil error means no handler is registered for the input's
// view type, which is a user-recoverable condition, not a fault.
type DocumentResolver interface {
	Resolve(ctx context.Context, input document.InputRef, widgetID string) (*document.Model, error)
}

// ViewStateStore persists per-widget view state across input switches.
type ViewStateStore interface {
	Save(group int, uri string, st viewstate.State)
	Load(group int, uri string) (viewstate.State, bool)
}

// Prompter surfaces the recovery choice when no viewer handles a document
// type. Implementations show UI; the controller never blocks on the answer.
type Prompter interface {
	OfferOpenAsText(input document.InputRef)
}

// Host is the container the pane lives in. GroupID scopes widget leases and
// view-state keys. Containers that support drag and drop additionally
// implement the DropTargetHost upgrade.
type Host interface {
	GroupID() int
}

// DropTargetHost is an optional host capability gate: only when the concrete
// container implements it does the controller register widget drop targets.
type DropTargetHost interface {
	WantsDropTargets() bool
}
