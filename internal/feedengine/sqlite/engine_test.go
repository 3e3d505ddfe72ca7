package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/aviary/feedwindow/internal/feeditem"
	"github.com/aviary/feedwindow/internal/feedquery"
	"github.com/aviary/feedwindow/internal/scrollwindow"
)

// openFuncs exercises both SQLite drivers this package wires: OpenServer
// (mattn/go-sqlite3, cgo) and OpenClient (modernc.org/sqlite, pure Go). Every
// query/cursor/ordering behavior below is verified against both.
var openFuncs = map[string]func(string) (*sql.DB, error){
	"mattn/go-sqlite3":   OpenServer,
	"modernc.org/sqlite": OpenClient,
}

func seedChatMessages(t *testing.T, conn *sql.DB) []feeditem.ChatMessage {
	t.Helper()
	msgs := make([]feeditem.ChatMessage, 0, 5)
	for i := int64(1); i <= 5; i++ {
		m := feeditem.ChatMessage{
			ID:     feedMsgID(i),
			RoomID: "lobby",
			Author: "alice",
			Body:   "message",
			SentAt: time.Unix(0, i*1000),
		}
		if err := InsertChatMessage(conn, m); err != nil {
			t.Fatalf("InsertChatMessage(%d): %v", i, err)
		}
		msgs = append(msgs, m)
	}
	// A message in a different room must never satisfy a room_id-scoped
	// predicate.
	if err := InsertChatMessage(conn, feeditem.ChatMessage{
		ID: "other-1", RoomID: "hallway", Author: "bob", Body: "hi",
		SentAt: time.Unix(0, 9000),
	}); err != nil {
		t.Fatalf("InsertChatMessage(other room): %v", err)
	}
	return msgs
}

func feedMsgID(i int64) string {
	return "lobby-" + string(rune('0'+i))
}

func recvResult(t *testing.T, ch <-chan scrollwindow.Result[feeditem.ChatMessage]) scrollwindow.Result[feeditem.ChatMessage] {
	t.Helper()
	select {
	case res := <-ch:
		return res
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a query result")
		return scrollwindow.Result[feeditem.ChatMessage]{}
	}
}

func ids(msgs []feeditem.ChatMessage) []string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.EntityID()
	}
	return out
}

func TestChatEngine_LiveBackwardForward(t *testing.T) {
	for name, openFn := range openFuncs {
		t.Run(name, func(t *testing.T) {
			dbPath := filepath.Join(t.TempDir(), "feed.db")
			conn, err := openFn(dbPath)
			if err != nil {
				t.Fatalf("open: %v", err)
			}
			defer conn.Close()

			if err := EnsureChatSchema(conn); err != nil {
				t.Fatalf("EnsureChatSchema: %v", err)
			}
			seedChatMessages(t, conn)

			pred, err := feedquery.Parse(`room_id = "lobby"`)
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}

			engine := NewChatEngine(conn, 10*time.Millisecond)
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			// Live: DESC, newest first, scoped to the room predicate.
			liveCh, err := engine.Run(ctx, scrollwindow.Selection{
				Predicate: pred, TSField: "timestamp", Order: scrollwindow.OrderDesc, Limit: 10,
			})
			if err != nil {
				t.Fatalf("Run (live): %v", err)
			}
			live := recvResult(t, liveCh)
			if live.Err != nil {
				t.Fatalf("live query error: %v", live.Err)
			}
			wantLive := []string{feedMsgID(5), feedMsgID(4), feedMsgID(3), feedMsgID(2), feedMsgID(1)}
			if got := ids(live.Items); !equalStrings(got, wantLive) {
				t.Errorf("live ids = %v, want %v", got, wantLive)
			}

			// Backward: cursor <= ts(3), DESC, limited to 2 rows.
			cursor := int64(3000)
			backCh, err := engine.Run(ctx, scrollwindow.Selection{
				Predicate: pred, TSField: "timestamp",
				Cursor: &cursor, CursorOp: "<=",
				Order: scrollwindow.OrderDesc, Limit: 2,
			})
			if err != nil {
				t.Fatalf("Run (backward): %v", err)
			}
			back := recvResult(t, backCh)
			if back.Err != nil {
				t.Fatalf("backward query error: %v", back.Err)
			}
			wantBack := []string{feedMsgID(3), feedMsgID(2)}
			if got := ids(back.Items); !equalStrings(got, wantBack) {
				t.Errorf("backward ids = %v, want %v", got, wantBack)
			}

			// Forward: cursor >= ts(3), ASC, limited to 2 rows.
			fwdCh, err := engine.Run(ctx, scrollwindow.Selection{
				Predicate: pred, TSField: "timestamp",
				Cursor: &cursor, CursorOp: ">=",
				Order: scrollwindow.OrderAsc, Limit: 2,
			})
			if err != nil {
				t.Fatalf("Run (forward): %v", err)
			}
			fwd := recvResult(t, fwdCh)
			if fwd.Err != nil {
				t.Fatalf("forward query error: %v", fwd.Err)
			}
			wantFwd := []string{feedMsgID(3), feedMsgID(4)}
			if got := ids(fwd.Items); !equalStrings(got, wantFwd) {
				t.Errorf("forward ids = %v, want %v", got, wantFwd)
			}
		})
	}
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
