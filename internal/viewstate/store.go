package viewstate

import (
	"sync"
)

// Store is a process-wide map of saved view states keyed by editor group and
// document URI. Writes are last-write-wins per key. Access from the UI loop is
// effectively single-threaded, but the store locks anyway so background flush
// can run concurrently.
type Store struct {
	mu     sync.RWMutex
	states map[storeKey]State
	dirty  bool
}

type storeKey struct {
	group int
	uri   string
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{states: make(map[storeKey]State)}
}

// Save records state for (group, uri), replacing any prior entry.
func (s *Store) Save(group int, uri string, st State) {
	if uri == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[storeKey{group: group, uri: uri}] = st.Clone()
	s.dirty = true
}

// Load returns the saved state for (group, uri), if any.
func (s *Store) Load(group int, uri string) (State, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.states[storeKey{group: group, uri: uri}]
	if !ok {
		return State{}, false
	}
	return st.Clone(), true
}

// Forget drops all saved state for a URI across every group. Used when a
// document is deleted or its resource becomes invalid.
func (s *Store) Forget(uri string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for k := range s.states {
		if k.uri == uri {
			delete(s.states, k)
			removed++
		}
	}
	if removed > 0 {
		s.dirty = true
	}
	return removed
}

// Len returns the number of saved entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.states)
}

// Entry is a snapshot row for listing and persistence.
type Entry struct {
	Group int    `json:"group"`
	URI   string `json:"uri"`
	State State  `json:"state"`
}

// Snapshot returns a copy of all entries.
func (s *Store) Snapshot() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Entry, 0, len(s.states))
	for k, st := range s.states {
		out = append(out, Entry{Group: k.group, URI: k.uri, State: st.Clone()})
	}
	return out
}

// restore replaces the store contents without marking it dirty. Used when
// loading persisted state at startup.
func (s *Store) restore(entries []Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.states = make(map[storeKey]State, len(entries))
	for _, e := range entries {
		s.states[storeKey{group: e.Group, uri: e.URI}] = e.State.Clone()
	}
	s.dirty = false
}

// consumeDirty reports and clears the dirty flag in one step.
func (s *Store) consumeDirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	was := s.dirty
	s.dirty = false
	return was
}
