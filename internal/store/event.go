package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// EventKind classifies journal entries.
type EventKind string

const (
	// EventGesture records a change of the classified gesture.
	EventGesture EventKind = "gesture"
	// EventAction records a discrete action: click, drag start or end, hotkey.
	EventAction EventKind = "action"
	// EventScrollLock records a scroll lock engaging.
	EventScrollLock EventKind = "scroll_lock"
)

// DefaultEventLimit caps List when no limit is given.
const DefaultEventLimit = 100

// Event is one journal entry.
type Event struct {
	ID        int64     `json:"id"`
	SessionID string    `json:"session_id"`
	Seq       uint64    `json:"seq"`
	Kind      EventKind `json:"kind"`
	Gesture   string    `json:"gesture"`
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// EventFilter narrows List. Zero values match everything.
type EventFilter struct {
	SessionID string
	Kind      EventKind
	Limit     int
}

// GestureCount is the number of times a gesture was entered.
type GestureCount struct {
	Gesture string `json:"gesture"`
	Count   int    `json:"count"`
}

// EventRepository stores journal events.
type EventRepository struct {
	db *sql.DB
}

// Events returns the event repository for this store.
func (s *Store) Events() *EventRepository {
	return &EventRepository{db: s.db}
}

// Add inserts events in one transaction and fills in their IDs.
func (r *EventRepository) Add(events ...*Event) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(
		`INSERT INTO events (session_id, seq, kind, gesture, detail, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, e := range events {
		if e.CreatedAt.IsZero() {
			e.CreatedAt = time.Now()
		}
		result, err := stmt.Exec(e.SessionID, int64(e.Seq), string(e.Kind), e.Gesture, e.Detail, e.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert %s event: %w", e.Kind, err)
		}
		if e.ID, err = result.LastInsertId(); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// List returns matching events, newest first.
func (r *EventRepository) List(f EventFilter) ([]*Event, error) {
	var (
		where []string
		args  []any
	)
	if f.SessionID != "" {
		where = append(where, "session_id = ?")
		args = append(args, f.SessionID)
	}
	if f.Kind != "" {
		where = append(where, "kind = ?")
		args = append(args, string(f.Kind))
	}

	query := `SELECT id, session_id, seq, kind, gesture, detail, created_at FROM events`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY id DESC LIMIT ?"

	limit := f.Limit
	if limit <= 0 {
		limit = DefaultEventLimit
	}
	args = append(args, limit)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*Event
	for rows.Next() {
		e := &Event{}
		var seq int64
		var kind string
		if err := rows.Scan(&e.ID, &e.SessionID, &seq, &kind, &e.Gesture, &e.Detail, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Seq = uint64(seq)
		e.Kind = EventKind(kind)
		events = append(events, e)
	}
	return events, rows.Err()
}

// GestureCounts returns how often each gesture was entered, most frequent
// first. An empty sessionID counts across all sessions.
func (r *EventRepository) GestureCounts(sessionID string) ([]GestureCount, error) {
	query := `SELECT gesture, COUNT(*) FROM events WHERE kind = ?`
	args := []any{string(EventGesture)}
	if sessionID != "" {
		query += " AND session_id = ?"
		args = append(args, sessionID)
	}
	query += " GROUP BY gesture ORDER BY COUNT(*) DESC, gesture ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := []GestureCount{}
	for rows.Next() {
		var c GestureCount
		if err := rows.Scan(&c.Gesture, &c.Count); err != nil {
			return nil, err
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}
