package viewstate

import (
	"path/filepath"
	"testing"

	"github.com/Dicklesworthstone/nbview/internal/db"
)

func openTestDB(t *testing.T) *db.DB {
	t.Helper()
	d, err := db.OpenAt(filepath.Join(t.TempDir(), "nbview.db"))
	if err != nil {
		t.Fatalf("OpenAt() error = %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })
	return d
}

func TestFlushAndLoadPersisted(t *testing.T) {
	d := openTestDB(t)

	s := NewStore()
	s.Save(1, "file:///a.ipynb", State{ScrollOffset: 10, SelectedCell: 2, Collapsed: []int{0, 4}})
	s.Save(2, "file:///b.ipynb", State{ScrollOffset: 3, FocusEditor: true})

	if err := s.Flush(d); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}

	reloaded := NewStore()
	if err := reloaded.LoadPersisted(d); err != nil {
		t.Fatalf("LoadPersisted() error = %v", err)
	}

	a, ok := reloaded.Load(1, "file:///a.ipynb")
	if !ok {
		t.Fatal("entry for a should persist")
	}
	if a.ScrollOffset != 10 || a.SelectedCell != 2 || len(a.Collapsed) != 2 {
		t.Fatalf("a = %+v", a)
	}

	b, ok := reloaded.Load(2, "file:///b.ipynb")
	if !ok {
		t.Fatal("entry for b should persist")
	}
	if b.ScrollOffset != 3 || !b.FocusEditor {
		t.Fatalf("b = %+v", b)
	}
}

func TestFlushSkipsWhenClean(t *testing.T) {
	d := openTestDB(t)

	s := NewStore()
	s.Save(1, "file:///a.ipynb", State{ScrollOffset: 1})
	if err := s.Flush(d); err != nil {
		t.Fatalf("first Flush() error = %v", err)
	}

	// Write a marker row directly; a clean flush must not rewrite the table.
	if _, err := d.Conn().Exec(
		`INSERT INTO view_state(group_id, uri, state) VALUES (9, 'file:///marker.ipynb', '{}')`,
	); err != nil {
		t.Fatalf("insert marker: %v", err)
	}

	if err := s.Flush(d); err != nil {
		t.Fatalf("second Flush() error = %v", err)
	}

	var count int
	if err := d.Conn().QueryRow(
		`SELECT COUNT(*) FROM view_state WHERE uri = 'file:///marker.ipynb'`,
	).Scan(&count); err != nil {
		t.Fatalf("count marker: %v", err)
	}
	if count != 1 {
		t.Fatal("clean flush should not have rewritten the table")
	}
}

func TestFlushRemovesForgottenEntries(t *testing.T) {
	d := openTestDB(t)

	s := NewStore()
	s.Save(1, "file:///a.ipynb", State{ScrollOffset: 1})
	s.Save(1, "file:///b.ipynb", State{ScrollOffset: 2})
	if err := s.Flush(d); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}

	s.Forget("file:///a.ipynb")
	if err := s.Flush(d); err != nil {
		t.Fatalf("Flush() after Forget error = %v", err)
	}

	reloaded := NewStore()
	if err := reloaded.LoadPersisted(d); err != nil {
		t.Fatalf("LoadPersisted() error = %v", err)
	}
	if _, ok := reloaded.Load(1, "file:///a.ipynb"); ok {
		t.Fatal("forgotten entry should not persist")
	}
	if _, ok := reloaded.Load(1, "file:///b.ipynb"); !ok {
		t.Fatal("kept entry should persist")
	}
}

func TestLoadPersistedSkipsBadBlob(t *testing.T) {
	d := openTestDB(t)

	if _, err := d.Conn().Exec(
		`INSERT INTO view_state(group_id, uri, state) VALUES (1, 'file:///bad.ipynb', 'not json')`,
	); err != nil {
		t.Fatalf("insert bad blob: %v", err)
	}
	if _, err := d.Conn().Exec(
		`INSERT INTO view_state(group_id, uri, state) VALUES (1, 'file:///good.ipynb', '{"scroll_offset":7}')`,
	); err != nil {
		t.Fatalf("insert good blob: %v", err)
	}

	s := NewStore()
	if err := s.LoadPersisted(d); err != nil {
		t.Fatalf("LoadPersisted() error = %v", err)
	}
	if _, ok := s.Load(1, "file:///bad.ipynb"); ok {
		t.Fatal("bad blob should be skipped")
	}
	good, ok := s.Load(1, "file:///good.ipynb")
	if !ok || good.ScrollOffset != 7 {
		t.Fatalf("good = %+v, %v", good, ok)
	}
}

func TestLoadPersistedClearsDirty(t *testing.T) {
	d := openTestDB(t)

	s := NewStore()
	s.Save(1, "file:///a.ipynb", State{ScrollOffset: 1})
	if err := s.LoadPersisted(d); err != nil {
		t.Fatalf("LoadPersisted() error = %v", err)
	}

	// The in-memory entry was replaced by the (empty) persisted set.
	if s.Len() != 0 {
		t.Fatalf("Len() = %d, want 0", s.Len())
	}
	if err := s.Flush(d); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
}

func TestFlushRequiresOpenDB(t *testing.T) {
	s := NewStore()
	if err := s.Flush(nil); err == nil {
		t.Fatal("Flush(nil) should fail")
	}
	if err := s.LoadPersisted(nil); err == nil {
		t.Fatal("LoadPersisted(nil) should fail")
	}
}
