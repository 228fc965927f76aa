package pane

import "testing"

func TestBorrowNilSafety(t *testing.T) {
	var b *borrow
	if b.widget() != nil {
		t.Fatal("nil borrow should have no widget")
	}
	if b.matches(0, notebookInput("doc://A")) {
		t.Fatal("nil borrow matches nothing")
	}
	b.release() // must not panic
}

func TestBorrowReleaseIdempotent(t *testing.T) {
	rec := &recorder{}
	lease := &fakeLease{widget: newFakeWidget("w1", rec)}
	b := newBorrow(lease, 1, notebookInput("doc://A"))

	if b.widget() == nil {
		t.Fatal("borrow should expose the leased widget")
	}

	b.release()
	b.release()

	if !lease.isReleased() {
		t.Fatal("lease should be released")
	}
	if lease.widget.hidden != 1 {
		t.Fatalf("OnWillHide calls = %d, want exactly 1", lease.widget.hidden)
	}
	if b.widget() != nil {
		t.Fatal("released borrow should have no widget")
	}
}

func TestBorrowMatches(t *testing.T) {
	rec := &recorder{}
	lease := &fakeLease{widget: newFakeWidget("w1", rec)}
	a := notebookInput("doc://A")
	b := newBorrow(lease, 1, a)

	if !b.matches(1, a) {
		t.Fatal("borrow should match its own key")
	}
	if b.matches(2, a) {
		t.Fatal("different group must not match")
	}
	if b.matches(1, notebookInput("doc://B")) {
		t.Fatal("different input must not match")
	}

	b.release()
	if b.matches(1, a) {
		t.Fatal("released borrow matches nothing")
	}
}
