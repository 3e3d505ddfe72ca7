package scrollwindow

// ScrollRequest is the renderer's report of what's currently on screen,
// passed to Manager.OnScroll. EntityIDs are looked up against the most
// recently published VisibleSet; a request naming an item outside that set
// is ignored (the renderer is presumably mid-transition and a fresher
// request will follow).
type ScrollRequest struct {
	FirstVisibleID   string
	LastVisibleID    string
	ScrollingBackward bool
}

// triggerDecision is the outcome of evaluating a ScrollRequest against the
// current VisibleSet and mode (§4.5).
type triggerDecision struct {
	nextMode   Mode
	cursor     int64
	windowSize int
}

// decideTrigger implements the scroll-event handler. threshold/buffer come
// from the manager's derived sizes; windowSize is the size to use for the
// next continuation query, grown from the current one per growWindow.
// timestampAt looks up the timestamp of the item at a given index in the
// currently published window (kept free of the Item generic so this stays a
// plain, easily-tested function).
func decideTrigger(mode Mode, n int, hasMorePreceding, hasMoreFollowing bool, timestampAt func(int) int64, firstIdx, lastIdx int, backward bool, sz sizes, curWindowSize int) (triggerDecision, bool) {
	if n == 0 || firstIdx < 0 || lastIdx < 0 {
		return triggerDecision{}, false
	}

	itemsAbove := firstIdx
	itemsBelow := n - 1 - lastIdx

	backwardTrigger := backward && hasMorePreceding && itemsAbove <= sz.threshold
	forwardTrigger := !backward && hasMoreFollowing && itemsBelow <= sz.threshold

	// Tie-break: direction of travel wins when both conditions hold.
	if backwardTrigger && forwardTrigger {
		if backward {
			forwardTrigger = false
		} else {
			backwardTrigger = false
		}
	}

	switch {
	case backwardTrigger:
		// Forward→Backward is not a legal mode edge (§4.4); a backward
		// trigger while already in Forward is a no-op (see DESIGN.md).
		if mode == Forward {
			return triggerDecision{}, false
		}
		idx := firstIdx + sz.buffer
		if idx > n-1 {
			idx = n - 1
		}
		return triggerDecision{
			nextMode:   Backward,
			cursor:     timestampAt(idx),
			windowSize: growWindow(curWindowSize, sz),
		}, true

	case forwardTrigger:
		idx := lastIdx - sz.buffer
		if idx < 0 {
			idx = 0
		}
		next := Forward
		if mode == Live {
			// Forward trigger is meaningless in Live: HasMoreFollowing is
			// always false there, so this branch is unreachable from Live
			// in practice. Kept for defensiveness.
			next = Live
		}
		return triggerDecision{
			nextMode:   next,
			cursor:     timestampAt(idx),
			windowSize: growWindow(curWindowSize, sz),
		}, true
	}

	return triggerDecision{}, false
}

// growWindow implements §4.3's window_size growth: one buffer's worth per
// pagination trigger, capped at screen_items + 2*buffer. The growth step
// size is not pinned by the spec beyond the cap; a buffer-sized increment is
// this implementation's choice (see DESIGN.md).
func growWindow(cur int, sz sizes) int {
	if cur <= 0 {
		cur = sz.screenItems + sz.buffer
	} else {
		cur += sz.buffer
	}
	if cur > sz.windowCap {
		cur = sz.windowCap
	}
	return cur
}
