package memory

import (
	"context"
	"testing"
	"time"

	"github.com/aviary/feedwindow/internal/feedquery"
	"github.com/aviary/feedwindow/internal/scrollwindow"
)

type fakeItem struct {
	id string
	ts int64
	tag string
}

func (f fakeItem) EntityID() string    { return f.id }
func (f fakeItem) TimestampKey() int64 { return f.ts }

func fieldsOf(item fakeItem, field string) (interface{}, bool) {
	if field == "tag" {
		return item.tag, true
	}
	return nil, false
}

func recv(t *testing.T, ch <-chan scrollwindow.Result[fakeItem]) scrollwindow.Result[fakeItem] {
	t.Helper()
	select {
	case res := <-ch:
		return res
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for a result")
		return scrollwindow.Result[fakeItem]{}
	}
}

func TestEngine_RunReturnsCurrentMatches(t *testing.T) {
	e := NewFieldEngine[fakeItem](fieldsOf)
	e.Insert(fakeItem{id: "a", ts: 1, tag: "x"})
	e.Insert(fakeItem{id: "b", ts: 2, tag: "y"})

	pred, err := feedquery.Parse(`tag = "x"`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := e.Run(ctx, scrollwindow.Selection{Predicate: pred, Order: scrollwindow.OrderDesc, Limit: 10})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	res := recv(t, ch)
	if len(res.Items) != 1 || res.Items[0].EntityID() != "a" {
		t.Errorf("Items = %+v, want just [a]", res.Items)
	}
}

func TestEngine_InsertPushesUpdateToLiveQueries(t *testing.T) {
	e := NewFieldEngine[fakeItem](fieldsOf)
	e.Insert(fakeItem{id: "a", ts: 1, tag: "x"})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := e.Run(ctx, scrollwindow.Selection{Predicate: feedquery.True, Order: scrollwindow.OrderDesc, Limit: 10})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	recv(t, ch) // initial batch

	e.Insert(fakeItem{id: "b", ts: 2, tag: "y"})

	res := recv(t, ch)
	if len(res.Items) != 2 {
		t.Fatalf("Items = %+v, want 2 items after insert", res.Items)
	}
}

func TestEngine_RunRespectsCursorAndOrder(t *testing.T) {
	e := NewFieldEngine[fakeItem](fieldsOf)
	for i := int64(1); i <= 5; i++ {
		e.Insert(fakeItem{id: string(rune('a' + i - 1)), ts: i, tag: "x"})
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cursor := int64(3)
	ch, err := e.Run(ctx, scrollwindow.Selection{
		Predicate: feedquery.True, Cursor: &cursor, CursorOp: ">=",
		Order: scrollwindow.OrderAsc, Limit: 10,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	res := recv(t, ch)
	if len(res.Items) != 3 {
		t.Fatalf("Items = %+v, want 3 items with ts >= 3", res.Items)
	}
	if res.Items[0].TimestampKey() != 3 {
		t.Errorf("first item ts = %d, want 3 (ascending order)", res.Items[0].TimestampKey())
	}
}
