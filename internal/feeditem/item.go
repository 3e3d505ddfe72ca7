// Package feeditem provides the concrete scrollwindow.Item implementations
// this repository ships: chat messages and activity-stream events. Neither
// type is interpreted by internal/scrollwindow itself — it only ever calls
// EntityID and TimestampKey.
package feeditem

import "time"

// ChatMessage is one message in a room-scoped, timestamp-ordered chat feed.
type ChatMessage struct {
	ID      string    `json:"id"`
	RoomID  string    `json:"room_id"`
	Author  string    `json:"author"`
	Body    string    `json:"body"`
	SentAt  time.Time `json:"sent_at"`
}

// EntityID implements scrollwindow.Item.
func (m ChatMessage) EntityID() string { return m.ID }

// TimestampKey implements scrollwindow.Item, ordering by send time.
func (m ChatMessage) TimestampKey() int64 { return m.SentAt.UnixNano() }

// ActivityEvent is one entry in an actor-scoped activity/notification feed.
type ActivityEvent struct {
	ID         string    `json:"id"`
	ActorID    string    `json:"actor_id"`
	Verb       string    `json:"verb"`
	ObjectID   string    `json:"object_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

// EntityID implements scrollwindow.Item.
func (e ActivityEvent) EntityID() string { return e.ID }

// TimestampKey implements scrollwindow.Item, ordering by occurrence time.
func (e ActivityEvent) TimestampKey() int64 { return e.OccurredAt.UnixNano() }
