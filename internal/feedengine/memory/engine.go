// Package memory provides an in-process, reactive reference implementation
// of scrollwindow.Engine: a mutex-protected, timestamp-sorted slice that
// re-evaluates every live Selection whenever items are inserted.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/aviary/feedwindow/internal/feedquery"
	"github.com/aviary/feedwindow/internal/scrollwindow"
)

// Matcher reports whether an item satisfies a predicate. Engine does not use
// this type: it never interprets item content itself, and instead asks the
// caller-supplied func(predicate, item) bool given to NewEngine, which
// NewFieldEngine builds from feedquery.ToMatcher and the caller's own field
// accessor.
type Matcher[V scrollwindow.Item] func(item V) bool

// Engine is a sorted-slice, single-process implementation of
// scrollwindow.Engine[V]. It is intended for tests and for small, single-node
// deployments; internal/feedengine/sqlite is the persisted counterpart.
type Engine[V scrollwindow.Item] struct {
	matchFn func(predicate feedquery.Node, item V) bool

	mu    sync.Mutex
	items []V
	subs  map[*liveQuery[V]]struct{}
}

// liveQuery is one outstanding Run call: its Selection, the channel it
// streams Result batches on, and whether it has since been superseded.
type liveQuery[V scrollwindow.Item] struct {
	sel  scrollwindow.Selection
	ch   chan scrollwindow.Result[V]
	done bool
}

// NewEngine constructs an Engine that evaluates predicates via matchFn. Most
// callers should use NewFieldEngine instead.
func NewEngine[V scrollwindow.Item](matchFn func(predicate feedquery.Node, item V) bool) *Engine[V] {
	return &Engine[V]{
		matchFn: matchFn,
		subs:    make(map[*liveQuery[V]]struct{}),
	}
}

// FieldAccessor exposes an item's fields by name for predicate evaluation,
// the same shape feedquery.ToMatcher consumes.
type FieldAccessor[V scrollwindow.Item] func(item V, field string) (interface{}, bool)

// NewFieldEngine builds an Engine[V] whose predicate matching is delegated
// to feedquery.ToMatcher against fields exposed via accessor. The matcher is
// recompiled on every item evaluation rather than cached: predicate ASTs may
// embed ListValue, which is not a comparable map key.
func NewFieldEngine[V scrollwindow.Item](accessor FieldAccessor[V]) *Engine[V] {
	match := func(predicate feedquery.Node, item V) bool {
		fn, err := feedquery.ToMatcher(predicate)
		if err != nil {
			return false
		}
		return fn(func(field string) (interface{}, bool) {
			return accessor(item, field)
		})
	}

	return NewEngine[V](match)
}

// Insert adds or replaces (by EntityID) an item and re-evaluates every live
// Selection, pushing a fresh Result to each of them whether or not its
// matched set changed.
func (e *Engine[V]) Insert(item V) {
	e.mu.Lock()
	defer e.mu.Unlock()

	replaced := false
	for i, it := range e.items {
		if it.EntityID() == item.EntityID() {
			e.items[i] = item
			replaced = true
			break
		}
	}
	if !replaced {
		e.items = append(e.items, item)
	}
	sort.SliceStable(e.items, func(i, j int) bool {
		return e.items[i].TimestampKey() < e.items[j].TimestampKey()
	})

	for lq := range e.subs {
		e.pushLocked(lq)
	}
}

// Run implements scrollwindow.Engine. Each call installs a fresh liveQuery
// and marks any previous one belonging to this Engine instance's earlier
// calls as done — the core never reads from an old call's channel once it
// has issued a new one, but marking it done also stops this Engine from
// doing further work for it.
func (e *Engine[V]) Run(ctx context.Context, sel scrollwindow.Selection) (<-chan scrollwindow.Result[V], error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for old := range e.subs {
		old.done = true
		delete(e.subs, old)
	}

	lq := &liveQuery[V]{sel: sel, ch: make(chan scrollwindow.Result[V], 1)}
	e.subs[lq] = struct{}{}
	e.pushLocked(lq)

	go func() {
		<-ctx.Done()
		e.mu.Lock()
		lq.done = true
		delete(e.subs, lq)
		close(lq.ch)
		e.mu.Unlock()
	}()

	return lq.ch, nil
}

// pushLocked evaluates sel against the current item set and sends the
// result, replacing any unread pending value (latest-wins). Caller must hold
// e.mu.
func (e *Engine[V]) pushLocked(lq *liveQuery[V]) {
	if lq.done {
		return
	}
	items := e.evaluateLocked(lq.sel)

	select {
	case <-lq.ch:
	default:
	}
	select {
	case lq.ch <- scrollwindow.Result[V]{Items: items}:
	default:
	}
}

func (e *Engine[V]) evaluateLocked(sel scrollwindow.Selection) []V {
	matched := make([]V, 0, len(e.items))
	for _, it := range e.items {
		if !e.matchFn(sel.Predicate, it) {
			continue
		}
		if sel.Cursor != nil {
			ts := it.TimestampKey()
			switch sel.CursorOp {
			case "<=":
				if ts > *sel.Cursor {
					continue
				}
			case ">=":
				if ts < *sel.Cursor {
					continue
				}
			}
		}
		matched = append(matched, it)
	}

	// e.items is already ascending; reverse for DESC so the newest-first
	// windowing/limit logic below matches the Selection's requested order.
	if sel.Order == scrollwindow.OrderDesc {
		for i, j := 0, len(matched)-1; i < j; i, j = i+1, j-1 {
			matched[i], matched[j] = matched[j], matched[i]
		}
	}

	if sel.Limit > 0 && len(matched) > sel.Limit {
		matched = matched[:sel.Limit]
	}
	return matched
}
