package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/aviary/feedwindow/internal/feeditem"
	"github.com/aviary/feedwindow/internal/scrollwindow"
)

// chatMessagesSchema creates the table NewChatEngine reads from.
const chatMessagesSchema = `
CREATE TABLE IF NOT EXISTS chat_messages (
    id TEXT PRIMARY KEY,
    room_id TEXT NOT NULL,
    author TEXT NOT NULL,
    body TEXT NOT NULL DEFAULT '',
    sent_at_ns INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_chat_messages_room_sent ON chat_messages(room_id, sent_at_ns);
`

var chatMessageColumns = map[string]string{
	"id":      "id",
	"room_id": "room_id",
	"author":  "author",
	"body":    "body",
	"sent_at": "sent_at_ns",
}

// EnsureChatSchema creates the chat_messages table and its indexes if they
// don't already exist.
func EnsureChatSchema(conn *sql.DB) error {
	if _, err := conn.Exec(chatMessagesSchema); err != nil {
		return fmt.Errorf("create chat_messages schema: %w", err)
	}
	return nil
}

// NewChatEngine builds an Engine[feeditem.ChatMessage] over the
// chat_messages table. "timestamp" in a Selection's TSField resolves to
// sent_at_ns.
func NewChatEngine(conn *sql.DB, pollInterval time.Duration) *Engine[feeditem.ChatMessage] {
	columnOf := func(field string) string {
		if field == "timestamp" {
			return "sent_at_ns"
		}
		if col, ok := chatMessageColumns[field]; ok {
			return col
		}
		return field
	}

	mapper := func(rows *sql.Rows) (feeditem.ChatMessage, error) {
		var m feeditem.ChatMessage
		var sentAtNs int64
		if err := rows.Scan(&m.ID, &m.RoomID, &m.Author, &m.Body, &sentAtNs); err != nil {
			return m, err
		}
		m.SentAt = time.Unix(0, sentAtNs)
		return m, nil
	}

	return NewEngine[feeditem.ChatMessage](conn, "chat_messages",
		[]string{"id", "room_id", "author", "body", "sent_at_ns"},
		columnOf, mapper, pollInterval)
}

var _ scrollwindow.Engine[feeditem.ChatMessage] = (*Engine[feeditem.ChatMessage])(nil)

// InsertChatMessage upserts a chat message row, keyed by id.
func InsertChatMessage(conn *sql.DB, m feeditem.ChatMessage) error {
	_, err := conn.Exec(
		`INSERT INTO chat_messages (id, room_id, author, body, sent_at_ns)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET room_id=excluded.room_id, author=excluded.author,
		   body=excluded.body, sent_at_ns=excluded.sent_at_ns`,
		m.ID, m.RoomID, m.Author, m.Body, m.SentAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("insert chat message %s: %w", m.ID, err)
	}
	return nil
}
