package db

import (
	"fmt"
	"time"
)

// SessionEvent is one row of the session log: which documents were opened or
// closed, and when.
type SessionEvent struct {
	ID        int64     `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	EventType string    `json:"event_type"`
	URI       string    `json:"uri"`
	ViewType  string    `json:"view_type,omitempty"`
	Details   string    `json:"details,omitempty"`
}

// LogSessionEvent appends a row to the session log.
func (d *DB) LogSessionEvent(eventType, uri, viewType, details string) error {
	if d == nil || d.conn == nil {
		return fmt.Errorf("db is not open")
	}
	if eventType == "" || uri == "" {
		return fmt.Errorf("event_type and uri are required")
	}

	_, err := d.conn.Exec(
		`INSERT INTO session_log(event_type, uri, view_type, details) VALUES (?, ?, ?, ?)`,
		eventType, uri, viewType, details,
	)
	if err != nil {
		return fmt.Errorf("insert session event: %w", err)
	}
	return nil
}

// RecentSessionEvents returns up to limit events, newest first.
func (d *DB) RecentSessionEvents(limit int) ([]SessionEvent, error) {
	if d == nil || d.conn == nil {
		return nil, fmt.Errorf("db is not open")
	}
	if limit <= 0 {
		limit = 50
	}

	rows, err := d.conn.Query(
		`SELECT id, timestamp, event_type, uri, COALESCE(view_type, ''), COALESCE(details, '')
		 FROM session_log ORDER BY timestamp DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query session log: %w", err)
	}
	defer rows.Close()

	var out []SessionEvent
	for rows.Next() {
		var ev SessionEvent
		if err := rows.Scan(&ev.ID, &ev.Timestamp, &ev.EventType, &ev.URI, &ev.ViewType, &ev.Details); err != nil {
			return nil, fmt.Errorf("scan session event: %w", err)
		}
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate session log: %w", err)
	}
	return out, nil
}
