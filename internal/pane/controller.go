package pane

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/Dicklesworthstone/nbview/internal/document"
)

// LifecycleState tracks where the pane is in its attach cycle.
type LifecycleState int

const (
	StateEmpty LifecycleState = iota
	StateAttaching
	StateAttached
	StateHidden
)

func (s LifecycleState) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateAttaching:
		return "attaching"
	case StateAttached:
		return "attached"
	case StateHidden:
		return "hidden"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// ErrDisposed is returned when an operation reaches a disposed controller.
var ErrDisposed = errors.New("pane controller disposed")

// Controller mediates between the host container, the widget pool, and the
// view-state store for one pane. All methods are safe for concurrent use,
// though the host is expected to drive them from a single event loop; the
// lock exists so a suspended AssignInput continuation can be superseded.
type Controller struct {
	host     Host
	pool     WidgetPool
	resolver DocumentResolver
	states   ViewStateStore
	prompter Prompter

	mu           sync.Mutex
	state        LifecycleState
	currentInput document.InputRef
	hasInput     bool
	borrowed     *borrow
	layoutSize   Size
	generation   uint64
	widgetSubs   []func()
	lastModel    *document.Model
	disposed     bool

	nextListener   int
	modelListeners map[int]func(*document.Model)
	focusListeners map[int]func()
}

// NewController wires a controller to its collaborators. Prompter may be nil
// when the host has no way to surface recovery choices.
func NewController(host Host, pool WidgetPool, resolver DocumentResolver, states ViewStateStore, prompter Prompter) *Controller {
	return &Controller{
		host:           host,
		pool:           pool,
		resolver:       resolver,
		states:         states,
		prompter:       prompter,
		state:          StateEmpty,
		modelListeners: make(map[int]func(*document.Model)),
		focusListeners: make(map[int]func()),
	}
}

// AssignInput switches the pane to a new document reference. The outgoing
// widget's view state is saved and its lease released before resolution is
// awaited, so no state can be lost even if resolution never completes. A
// later AssignInput or ClearInput supersedes a pending one: the stale
// continuation detects it and performs no further mutation.
func (c *Controller) AssignInput(ctx context.Context, input document.InputRef, opts Options) error {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return ErrDisposed
	}

	c.generation++
	gen := c.generation

	// Pre-borrow sequence: runs to completion before the suspension point.
	c.saveCurrentViewStateLocked()
	c.clearWidgetSubsLocked()
	if c.borrowed != nil {
		c.borrowed.release()
		c.borrowed = nil
	}

	c.currentInput = input
	c.hasInput = true
	c.state = StateAttaching

	group := c.host.GroupID()
	lease, err := c.pool.Retrieve(group, input)
	if err != nil {
		// Pool failures are fatal; the pane ends up empty and the error
		// propagates to the host unchanged beyond context.
		c.currentInput = document.InputRef{}
		c.hasInput = false
		c.state = StateEmpty
		c.mu.Unlock()
		return fmt.Errorf("retrieve widget for %s: %w", input, err)
	}

	c.borrowed = newBorrow(lease, group, input)
	w := c.borrowed.widget()
	if w == nil {
		c.borrowed = nil
		c.currentInput = document.InputRef{}
		c.hasInput = false
		c.state = StateEmpty
		c.mu.Unlock()
		return fmt.Errorf("widget pool returned empty lease for %s", input)
	}

	// A widget attached after a resize must never render at zero size.
	if !c.layoutSize.IsZero() {
		w.Layout(c.layoutSize)
	}
	widgetID := w.ID()
	c.mu.Unlock()

	// Suspension point: everything after this must re-check currency.
	doc, resolveErr := c.resolver.Resolve(ctx, input, widgetID)

	c.mu.Lock()
	if c.generation != gen || !c.currentInput.Matches(input) {
		// Superseded while suspended. The borrow now belongs to whoever
		// superseded us; touch nothing.
		c.mu.Unlock()
		return nil
	}

	if resolveErr != nil {
		if errors.Is(resolveErr, context.Canceled) || errors.Is(resolveErr, context.DeadlineExceeded) {
			// Silent abandon. The lease stays tracked and is released by
			// the next assign, clear, or dispose.
			c.mu.Unlock()
			return nil
		}
		c.borrowed.release()
		c.borrowed = nil
		c.currentInput = document.InputRef{}
		c.hasInput = false
		c.state = StateEmpty
		c.mu.Unlock()
		return fmt.Errorf("resolve %s: %w", input, resolveErr)
	}

	if doc == nil {
		// No viewer registered for this document type: user-recoverable,
		// not a fault.
		c.borrowed.release()
		c.borrowed = nil
		c.currentInput = document.InputRef{}
		c.hasInput = false
		c.state = StateEmpty
		prompter := c.prompter
		c.mu.Unlock()
		if prompter != nil {
			prompter.OfferOpenAsText(input)
		}
		return nil
	}

	st, _ := c.states.Load(group, input.URI)
	if err := w.SetModel(doc, st, opts); err != nil {
		c.borrowed.release()
		c.borrowed = nil
		c.currentInput = document.InputRef{}
		c.hasInput = false
		c.state = StateEmpty
		c.mu.Unlock()
		return fmt.Errorf("install model for %s: %w", input, err)
	}

	c.widgetSubs = append(c.widgetSubs, w.OnDidFocus(c.fireFocus))
	if dth, ok := c.host.(DropTargetHost); ok && dth.WantsDropTargets() {
		if dt, ok := w.(DropTarget); ok {
			c.widgetSubs = append(c.widgetSubs, dt.RegisterDropTarget(group))
		}
	}

	c.lastModel = doc
	c.state = StateAttached
	listeners := c.copyModelListenersLocked()
	c.mu.Unlock()

	for _, fn := range listeners {
		fn(doc)
	}
	if opts.RestoreFocus {
		w.Focus()
	}
	return nil
}

// ClearInput detaches the pane from its input without assigning a new one.
// View state is not saved here: the close/hide path is expected to have done
// that already via NotifyClosing or NotifyHiding.
func (c *Controller) ClearInput() {
	c.mu.Lock()
	c.generation++ // supersede any pending resolution
	c.clearWidgetSubsLocked()
	if c.borrowed != nil {
		c.borrowed.release()
		c.borrowed = nil
	}
	c.currentInput = document.InputRef{}
	c.hasInput = false
	c.lastModel = nil
	c.state = StateEmpty
	listeners := c.copyModelListenersLocked()
	c.mu.Unlock()

	for _, fn := range listeners {
		fn(nil)
	}
}

// NotifyClosing is called when some input in the group is about to close.
// Saving here covers the pane itself being closed, which races with teardown.
func (c *Controller) NotifyClosing(closing document.InputRef) {
	if closing.ViewType == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.hasInput || !c.currentInput.Matches(closing) {
		return
	}
	c.saveCurrentViewStateLocked()
}

// NotifyHiding is called when the pane becomes invisible while keeping its
// input. The widget keeps its lease; it only gets a chance to drop transient
// resources.
func (c *Controller) NotifyHiding() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.saveCurrentViewStateLocked()
	if w := c.borrowed.widget(); w != nil {
		w.OnWillHide()
	}
	if c.state == StateAttached {
		c.state = StateHidden
	}
}

// Layout caches the pane geometry and forwards it to the widget, unless the
// widget's reported document identity no longer matches the current input.
// That mismatch means a queued resize is targeting a stale widget from a
// prior open/close/open sequence, and forwarding would resize the wrong
// surface.
func (c *Controller) Layout(size Size) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.layoutSize = size

	w := c.borrowed.widget()
	if w == nil || !c.hasInput {
		return
	}
	if w.DocumentURI() != c.currentInput.URI {
		return
	}
	w.Layout(size)
}

// PersistState saves view state for the current input. Called by the host
// before teardown; idempotent.
func (c *Controller) PersistState() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.saveCurrentViewStateLocked()
}

// Focus forwards input focus to the attached widget.
func (c *Controller) Focus() {
	c.mu.Lock()
	w := c.borrowed.widget()
	c.mu.Unlock()
	if w != nil {
		w.Focus()
	}
}

// Dispose releases the lease and drops all listeners. Further calls to
// AssignInput fail with ErrDisposed.
func (c *Controller) Dispose() {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return
	}
	c.disposed = true
	c.generation++
	c.clearWidgetSubsLocked()
	if c.borrowed != nil {
		c.borrowed.release()
		c.borrowed = nil
	}
	c.currentInput = document.InputRef{}
	c.hasInput = false
	c.lastModel = nil
	c.state = StateEmpty
	c.modelListeners = make(map[int]func(*document.Model))
	c.focusListeners = make(map[int]func())
	c.mu.Unlock()
}

// OnDidChangeModel registers a listener fired whenever the attached model
// changes, including to nil on clear. Returns the remover.
func (c *Controller) OnDidChangeModel(fn func(*document.Model)) (unsubscribe func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextListener
	c.nextListener++
	c.modelListeners[id] = fn
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.modelListeners, id)
	}
}

// OnDidFocus registers a listener for focus events forwarded from the
// attached widget.
func (c *Controller) OnDidFocus(fn func()) (unsubscribe func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextListener
	c.nextListener++
	c.focusListeners[id] = fn
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.focusListeners, id)
	}
}

// Snapshot is the serializable pane state used for session restore.
type Snapshot struct {
	DocumentHandle string `json:"document_handle"`
}

// Snapshot reports the attached document's handle, if any.
func (c *Controller) Snapshot() (Snapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.lastModel == nil {
		return Snapshot{}, false
	}
	return Snapshot{DocumentHandle: c.lastModel.Handle}, true
}

// State returns the lifecycle state.
func (c *Controller) State() LifecycleState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// CurrentInput returns the active input reference, if any.
func (c *Controller) CurrentInput() (document.InputRef, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentInput, c.hasInput
}

// Model returns the attached document model, or nil.
func (c *Controller) Model() *document.Model {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastModel
}

// Widget returns the leased widget so the host can route input to it, or
// nil when nothing is borrowed. Callers must not retain it across input
// switches; the lease can end at any time.
func (c *Controller) Widget() Widget {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.borrowed.widget()
}

// WidgetView renders the attached widget's surface, or "" when empty.
func (c *Controller) WidgetView() string {
	c.mu.Lock()
	w := c.borrowed.widget()
	c.mu.Unlock()
	if w == nil {
		return ""
	}
	return w.View()
}

// saveCurrentViewStateLocked writes the outgoing widget's view state keyed by
// the current input's URI. Saving happens before any detach so in-flight
// state is never lost.
func (c *Controller) saveCurrentViewStateLocked() {
	if !c.hasInput {
		return
	}
	w := c.borrowed.widget()
	if w == nil || w.DocumentURI() == "" {
		return
	}
	c.states.Save(c.host.GroupID(), c.currentInput.URI, w.ViewState())
}

// clearWidgetSubsLocked tears down the subscription set accumulated for the
// previous widget in one step.
func (c *Controller) clearWidgetSubsLocked() {
	for _, unsub := range c.widgetSubs {
		unsub()
	}
	c.widgetSubs = nil
}

func (c *Controller) fireFocus() {
	c.mu.Lock()
	listeners := make([]func(), 0, len(c.focusListeners))
	for _, fn := range c.focusListeners {
		listeners = append(listeners, fn)
	}
	c.mu.Unlock()
	for _, fn := range listeners {
		fn()
	}
}

func (c *Controller) copyModelListenersLocked() []func(*document.Model) {
	out := make([]func(*document.Model), 0, len(c.modelListeners))
	for _, fn := range c.modelListeners {
		out = append(out, fn)
	}
	return out
}
