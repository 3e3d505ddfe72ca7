// Package scrollwindow implements the windowing/pagination state machine for
// virtually scrolled, timestamp-ordered feeds. It decides which contiguous
// slice of an ordered collection a client should render and which
// continuation query to issue to a reactive data source, while keeping
// scroll position pixel-stable across window changes.
//
// The package never measures pixels, never picks anchors by geometric
// position, and never connects to storage directly — it operates purely on
// item counts and timestamp cursors, consuming an Engine and exposing a
// VisibleSet stream for a platform renderer to consume.
package scrollwindow

import "github.com/aviary/feedwindow/internal/feedquery"

// Item is the element type the manager windows over. The core never
// interprets Item content beyond these two accessors.
type Item interface {
	// EntityID uniquely identifies this item across result sets.
	EntityID() string
	// TimestampKey returns the monotonic ordering key (nanoseconds, or any
	// consistent integer unit) used to sort and cursor the feed.
	TimestampKey() int64
}

// Mode is the scroll mode: Live, Backward, or Forward.
type Mode int

const (
	// Live pins the window to the newest items; should_auto_scroll is true.
	Live Mode = iota
	// Backward is the user navigating toward older items.
	Backward
	// Forward is the user returning toward newer items.
	Forward
)

func (m Mode) String() string {
	switch m {
	case Live:
		return "Live"
	case Backward:
		return "Backward"
	case Forward:
		return "Forward"
	default:
		return "Unknown"
	}
}

// Order is the result ordering requested from the Engine.
type Order int

const (
	// OrderDesc returns newest items first.
	OrderDesc Order = iota
	// OrderAsc returns oldest items first.
	OrderAsc
)

func (o Order) String() string {
	if o == OrderAsc {
		return "ASC"
	}
	return "DESC"
}

// AnchorDirection records which side of the viewport an Intersection anchor
// came from.
type AnchorDirection int

const (
	// AnchorBackward means the anchor is the newest-visible item.
	AnchorBackward AnchorDirection = iota
	// AnchorForward means the anchor is the oldest-visible item.
	AnchorForward
)

func (d AnchorDirection) String() string {
	if d == AnchorForward {
		return "Forward"
	}
	return "Backward"
}

// Intersection is the anchor item chosen when the window changes, so the
// renderer can keep that item at the same pixel Y.
type Intersection struct {
	EntityID  string
	Index     int
	Direction AnchorDirection
}

// Selection is an immutable continuation query: the base predicate, a
// cursor-bound clause, the requested order, and a result limit.
type Selection struct {
	Predicate  feedquery.Node
	TSField    string
	Cursor     *int64 // nil in Live mode (no cursor clause)
	CursorOp   string // "<=" or ">=", meaningful only when Cursor != nil
	Order      Order
	Limit      int
}

// VisibleSet is the published output of the window evaluator: the items
// currently in view (ascending by timestamp), the window's edges, and the
// intersection anchor chosen on the last window replacement, if any.
type VisibleSet[V Item] struct {
	Items             []V
	Intersection      *Intersection
	HasMorePreceding  bool
	HasMoreFollowing  bool
	ShouldAutoScroll  bool
	Error             string
}
