package scrollwindow

import (
	"log/slog"
	"sort"
)

// evalState carries the pieces of Manager state the window evaluator reads
// and mutates on every Result it processes. It is only ever touched from
// inside Manager.run, so it needs no locking of its own.
type evalState[V Item] struct {
	mode         Mode
	activeSel    Selection
	lastPublished VisibleSet[V]
	haveLast     bool
	newestEverTS *int64
	logger       *slog.Logger
}

// evaluate implements the window evaluator (§4.3) for one Result arriving
// against the Selection that produced it. It returns the VisibleSet to
// publish and, when the arriving batch satisfies the Forward→Live graduation
// condition, the Mode the manager should transition to.
func (s *evalState[V]) evaluate(res Result[V]) (VisibleSet[V], Mode) {
	if res.Err != nil {
		vs := s.lastPublished
		vs.Error = res.Err.Error()
		return vs, s.mode
	}

	items := append([]V(nil), res.Items...)
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].TimestampKey() < items[j].TimestampKey()
	})

	hasPreceding, hasFollowing := s.evaluateEdges(items)

	if len(items) > 0 {
		newest := items[len(items)-1].TimestampKey()
		if s.newestEverTS == nil || newest > *s.newestEverTS {
			s.newestEverTS = &newest
		}
	}

	intersection := s.anchor(items)

	nextMode := s.mode
	if s.mode == Forward && !hasFollowing && len(items) > 0 && s.newestEverTS != nil {
		if items[len(items)-1].TimestampKey() >= *s.newestEverTS {
			nextMode = Live
		}
	}

	shouldAutoScroll := s.mode == Live && intersection == nil

	vs := VisibleSet[V]{
		Items:            items,
		Intersection:     intersection,
		HasMorePreceding: hasPreceding,
		HasMoreFollowing: hasFollowing,
		ShouldAutoScroll: shouldAutoScroll,
	}

	s.lastPublished = vs
	s.haveLast = true

	return vs, nextMode
}

// evaluateEdges computes has_more_preceding/has_more_following for the
// current mode, per §4.3 step 2. Live always reports has_more_following
// false (its window always ends at the live edge by definition); Backward
// always reports has_more_following true (it has left the live edge, and
// only a transition through Forward re-establishes it); Forward is the
// mirror image on the preceding side. The boundary in the query's own
// direction is detected by a short batch (|R| < limit).
func (s *evalState[V]) evaluateEdges(items []V) (hasPreceding, hasFollowing bool) {
	full := len(items) >= s.activeSel.Limit

	switch s.mode {
	case Live:
		return full, false
	case Backward:
		return full, true
	case Forward:
		return true, full
	default:
		return full, full
	}
}

// anchor implements §4.3 step 3: on a Backward replacement the anchor is the
// newest item of the previous window also present in the new one; on a
// Forward replacement it is the oldest. Live never anchors. A miss
// (AnchorLost) is non-fatal and only logged.
func (s *evalState[V]) anchor(items []V) *Intersection {
	if s.mode == Live || !s.haveLast || len(s.lastPublished.Items) == 0 {
		return nil
	}

	present := make(map[string]int, len(items))
	for i, it := range items {
		present[it.EntityID()] = i
	}

	prev := s.lastPublished.Items

	switch s.mode {
	case Backward:
		for i := len(prev) - 1; i >= 0; i-- {
			id := prev[i].EntityID()
			if idx, ok := present[id]; ok {
				return &Intersection{EntityID: id, Index: idx, Direction: AnchorBackward}
			}
		}
	case Forward:
		for i := 0; i < len(prev); i++ {
			id := prev[i].EntityID()
			if idx, ok := present[id]; ok {
				return &Intersection{EntityID: id, Index: idx, Direction: AnchorForward}
			}
		}
	}

	if s.logger != nil {
		s.logger.Warn("scrollwindow: anchor lost", "err", &AnchorLostError{Mode: s.mode})
	}
	return nil
}
