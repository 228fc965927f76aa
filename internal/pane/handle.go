package pane

import (
	"github.com/Dicklesworthstone/nbview/internal/document"
)

// borrow wraps one widget lease together with the (group, input) key it was
// taken for. At most one borrow exists per controller; releasing is
// idempotent so every exit path of an input switch can call it safely.
type borrow struct {
	lease    BorrowedWidget
	group    int
	inputKey string
	released bool
}

func newBorrow(lease BorrowedWidget, group int, input document.InputRef) *borrow {
	return &borrow{lease: lease, group: group, inputKey: input.Key()}
}

// widget returns the leased widget, or nil after release.
func (b *borrow) widget() Widget {
	if b == nil || b.released || b.lease == nil {
		return nil
	}
	return b.lease.Widget()
}

// matches reports whether the borrow was taken for the given key.
func (b *borrow) matches(group int, input document.InputRef) bool {
	return b != nil && !b.released && b.group == group && b.inputKey == input.Key()
}

// release signals the widget it is no longer visible and ends the lease.
// The pool may keep the widget warm; the controller must not touch it again.
func (b *borrow) release() {
	if b == nil || b.released {
		return
	}
	b.released = true
	if w := b.lease.Widget(); w != nil {
		w.OnWillHide()
	}
	b.lease.Release()
}
