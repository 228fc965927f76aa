package viewstate

import (
	"encoding/json"
	"fmt"

	"github.com/Dicklesworthstone/nbview/internal/db"
)

// Flush writes the store to the database when it has unsaved changes. The
// store is small, so a full rewrite inside one transaction is simpler and
// safer than tracking per-key deltas.
func (s *Store) Flush(d *db.DB) error {
	if d == nil || d.Conn() == nil {
		return fmt.Errorf("db is not open")
	}
	if !s.consumeDirty() {
		return nil
	}

	entries := s.Snapshot()

	tx, err := d.Conn().Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.Exec(`DELETE FROM view_state`); err != nil {
		return fmt.Errorf("clear view_state: %w", err)
	}

	for _, e := range entries {
		blob, err := json.Marshal(e.State)
		if err != nil {
			return fmt.Errorf("marshal state for %s: %w", e.URI, err)
		}
		if _, err := tx.Exec(
			`INSERT INTO view_state(group_id, uri, state) VALUES (?, ?, ?)`,
			e.Group, e.URI, string(blob),
		); err != nil {
			return fmt.Errorf("insert state for %s: %w", e.URI, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// LoadPersisted replaces the store contents with what the database holds.
// A missing or empty table is not an error; the store just starts empty.
func (s *Store) LoadPersisted(d *db.DB) error {
	if d == nil || d.Conn() == nil {
		return fmt.Errorf("db is not open")
	}

	rows, err := d.Conn().Query(`SELECT group_id, uri, state FROM view_state`)
	if err != nil {
		return fmt.Errorf("query view_state: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e    Entry
			blob string
		)
		if err := rows.Scan(&e.Group, &e.URI, &blob); err != nil {
			return fmt.Errorf("scan view_state row: %w", err)
		}
		if err := json.Unmarshal([]byte(blob), &e.State); err != nil {
			// One bad blob should not poison the whole session.
			continue
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate view_state: %w", err)
	}

	s.restore(entries)
	return nil
}
