package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/aviary/feedwindow/internal/feeditem"
	"github.com/aviary/feedwindow/internal/scrollwindow"
)

const activityEventsSchema = `
CREATE TABLE IF NOT EXISTS activity_events (
    id TEXT PRIMARY KEY,
    actor_id TEXT NOT NULL,
    verb TEXT NOT NULL,
    object_id TEXT NOT NULL DEFAULT '',
    occurred_at_ns INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_activity_events_actor_occurred ON activity_events(actor_id, occurred_at_ns);
`

var activityEventColumns = map[string]string{
	"id":        "id",
	"actor_id":  "actor_id",
	"verb":      "verb",
	"object_id": "object_id",
	"timestamp": "occurred_at_ns",
}

// EnsureActivitySchema creates the activity_events table and its indexes if
// they don't already exist.
func EnsureActivitySchema(conn *sql.DB) error {
	if _, err := conn.Exec(activityEventsSchema); err != nil {
		return fmt.Errorf("create activity_events schema: %w", err)
	}
	return nil
}

// NewActivityEngine builds an Engine[feeditem.ActivityEvent] over the
// activity_events table.
func NewActivityEngine(conn *sql.DB, pollInterval time.Duration) *Engine[feeditem.ActivityEvent] {
	columnOf := func(field string) string {
		if col, ok := activityEventColumns[field]; ok {
			return col
		}
		return field
	}

	mapper := func(rows *sql.Rows) (feeditem.ActivityEvent, error) {
		var e feeditem.ActivityEvent
		var occurredAtNs int64
		if err := rows.Scan(&e.ID, &e.ActorID, &e.Verb, &e.ObjectID, &occurredAtNs); err != nil {
			return e, err
		}
		e.OccurredAt = time.Unix(0, occurredAtNs)
		return e, nil
	}

	return NewEngine[feeditem.ActivityEvent](conn, "activity_events",
		[]string{"id", "actor_id", "verb", "object_id", "occurred_at_ns"},
		columnOf, mapper, pollInterval)
}

var _ scrollwindow.Engine[feeditem.ActivityEvent] = (*Engine[feeditem.ActivityEvent])(nil)

// InsertActivityEvent upserts an activity event row, keyed by id.
func InsertActivityEvent(conn *sql.DB, e feeditem.ActivityEvent) error {
	_, err := conn.Exec(
		`INSERT INTO activity_events (id, actor_id, verb, object_id, occurred_at_ns)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET actor_id=excluded.actor_id, verb=excluded.verb,
		   object_id=excluded.object_id, occurred_at_ns=excluded.occurred_at_ns`,
		e.ID, e.ActorID, e.Verb, e.ObjectID, e.OccurredAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("insert activity event %s: %w", e.ID, err)
	}
	return nil
}
