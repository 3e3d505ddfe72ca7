package scrollwindow

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/aviary/feedwindow/internal/feedquery"
)

// published is the atomically-swapped snapshot backing Mode, CurrentSelection,
// and Subscribe's "current" return value, so those accessors never block on
// or race with the manager's single executor goroutine.
type published[V Item] struct {
	mode      Mode
	selection Selection
	visible   VisibleSet[V]
}

// subscriber is one live Subscribe() registration. ch is buffered to 1 and
// updates are delivered by replace-not-block: a slow subscriber only ever
// sees the latest VisibleSet, never a backlog.
type subscriber[V Item] struct {
	ch chan VisibleSet[V]
}

// Manager is the windowing/pagination state machine described by this
// package's doc comment. It owns a single executor goroutine (started by
// Start) that processes engine results and scroll events serially — the
// "single-threaded cooperative" executor described in §5 — modelled on this
// codebase's Elm-style single-dispatch-loop TUI update pattern generalized
// away from terminal rendering.
type Manager[V Item] struct {
	engine Engine[V]
	sizes  sizes
	tsField string
	basePredicate feedquery.Node
	logger *slog.Logger

	scrollCh chan ScrollRequest
	stopCh   chan struct{}
	doneCh   chan struct{}

	current atomic.Pointer[published[V]]

	subsMu sync.Mutex
	subs   map[*subscriber[V]]struct{}

	startOnce sync.Once
}

// New validates cfg and constructs a Manager bound to engine. It does not
// start the executor; call Start to begin issuing selections.
func New[V Item](cfg Config, engine Engine[V], logger *slog.Logger) (*Manager[V], error) {
	if engine == nil {
		return nil, &InvalidConfigError{Reason: "engine must not be nil"}
	}
	if cfg.TimestampField == "" {
		return nil, &InvalidConfigError{Reason: "timestamp_field must not be empty"}
	}

	sz, err := deriveSizes(cfg)
	if err != nil {
		return nil, err
	}
	pred, err := parseBasePredicate(cfg.BasePredicate)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	m := &Manager[V]{
		engine:        engine,
		sizes:         sz,
		tsField:       cfg.TimestampField,
		basePredicate: pred,
		logger:        logger,
		scrollCh:      make(chan ScrollRequest, 1),
		stopCh:        make(chan struct{}),
		doneCh:        make(chan struct{}),
		subs:          make(map[*subscriber[V]]struct{}),
	}

	initial := buildSelection(pred, cfg.TimestampField, Live, nil, sz.liveWindow)
	m.current.Store(&published[V]{mode: Live, selection: initial})

	return m, nil
}

// Start installs the initial Live selection against the Engine and launches
// the executor goroutine. Start must be called at most once; ctx bounds the
// manager's entire lifetime, and cancelling it is equivalent to Close.
func (m *Manager[V]) Start(ctx context.Context) error {
	var startErr error
	m.startOnce.Do(func() {
		sel := m.current.Load().selection
		resultCh, err := m.engine.Run(ctx, sel)
		if err != nil {
			startErr = err
			return
		}
		go m.run(ctx, sel, resultCh)
	})
	return startErr
}

// run is the single executor loop: it serially consumes engine results and
// scroll requests, evaluating the window and publishing a new VisibleSet
// after each. Reassigning resultCh to the channel of a newly-issued
// selection, and never again reading the old one, is this manager's
// mechanism for dropping stale-generation results (§5): nothing is left
// listening to a superseded selection's channel.
func (m *Manager[V]) run(ctx context.Context, initialSel Selection, resultCh <-chan Result[V]) {
	defer close(m.doneCh)

	st := &evalState[V]{
		mode:      Live,
		activeSel: initialSel,
		logger:    m.logger,
	}
	windowSize := 0 // grown lazily on first Backward/Forward trigger

	for {
		select {
		case <-ctx.Done():
			return
		case <-m.stopCh:
			return

		case res, ok := <-resultCh:
			if !ok {
				resultCh = nil
				continue
			}
			prevMode := st.mode
			vs, nextMode := st.evaluate(res)
			st.mode = nextMode

			if nextMode == Live && prevMode != Live {
				// Graduating into Live: vs is still the Forward-evaluated
				// VisibleSet (its intersection and should_auto_scroll reflect
				// leaving Forward, not arriving in Live). Re-issue the Live
				// selection and wait for its own result rather than publish
				// this one stamped with mode=Live, so §8-D's
				// should_auto_scroll=true/intersection=None always lands
				// together.
				windowSize = 0
				sel := buildSelection(m.basePredicate, m.tsField, Live, nil, m.sizes.liveWindow)
				st.activeSel = sel
				newCh, err := m.engine.Run(ctx, sel)
				if err != nil {
					m.logger.Error("scrollwindow: re-entering Live failed", "err", err)
					m.publish(st.mode, st.activeSel, vs)
				} else {
					resultCh = newCh
				}
				continue
			}

			m.publish(st.mode, st.activeSel, vs)

		case req, ok := <-m.scrollCh:
			if !ok {
				return
			}
			vs := m.current.Load().visible
			firstIdx := indexOf(vs.Items, req.FirstVisibleID)
			lastIdx := indexOf(vs.Items, req.LastVisibleID)

			timestampAt := func(i int) int64 { return vs.Items[i].TimestampKey() }

			dec, fire := decideTrigger(st.mode, len(vs.Items), vs.HasMorePreceding, vs.HasMoreFollowing,
				timestampAt, firstIdx, lastIdx, req.ScrollingBackward, m.sizes, windowSize)
			if !fire {
				continue
			}

			windowSize = dec.windowSize
			cursor := dec.cursor
			sel := buildSelection(m.basePredicate, m.tsField, dec.nextMode, &cursor, windowSize)
			st.mode = dec.nextMode
			st.activeSel = sel

			newCh, err := m.engine.Run(ctx, sel)
			if err != nil {
				m.logger.Error("scrollwindow: issuing continuation selection failed", "err", err)
				continue
			}
			resultCh = newCh
		}
	}
}

// indexOf returns the index of the item with the given EntityID, or -1.
func indexOf[V Item](items []V, id string) int {
	if id == "" {
		return -1
	}
	for i, it := range items {
		if it.EntityID() == id {
			return i
		}
	}
	return -1
}

func (m *Manager[V]) publish(mode Mode, sel Selection, vs VisibleSet[V]) {
	m.current.Store(&published[V]{mode: mode, selection: sel, visible: vs})

	m.subsMu.Lock()
	defer m.subsMu.Unlock()
	for s := range m.subs {
		select {
		case <-s.ch:
		default:
		}
		s.ch <- vs
	}
}

// Mode returns the mode of the most recently published VisibleSet. A
// selection issued by OnScroll updates the executor's internal mode
// immediately, but Mode only reflects it once that selection's result has
// been evaluated and published — the same point at which VisibleSet
// observers see it. Safe for concurrent use.
func (m *Manager[V]) Mode() Mode {
	return m.current.Load().mode
}

// CurrentSelection returns the diagnostic string form of the selection
// behind the most recently published VisibleSet (§6). Like Mode, it lags a
// selection OnScroll just issued until that selection's own result is
// published.
func (m *Manager[V]) CurrentSelection() string {
	return m.current.Load().selection.String()
}

// Subscribe registers for VisibleSet updates. It returns the current
// snapshot, a channel that receives every subsequent replacement (buffered
// to 1, latest-wins), and a cancel function that must be called to release
// the subscription.
func (m *Manager[V]) Subscribe() (VisibleSet[V], <-chan VisibleSet[V], func()) {
	sub := &subscriber[V]{ch: make(chan VisibleSet[V], 1)}

	m.subsMu.Lock()
	m.subs[sub] = struct{}{}
	m.subsMu.Unlock()

	cancel := func() {
		m.subsMu.Lock()
		delete(m.subs, sub)
		m.subsMu.Unlock()
	}

	return m.current.Load().visible, sub.ch, cancel
}

// OnScroll reports the renderer's current first/last visible items and
// scroll direction. It is non-blocking: a pending request is coalesced with
// a newer one if the executor hasn't processed it yet.
func (m *Manager[V]) OnScroll(req ScrollRequest) {
	select {
	case m.scrollCh <- req:
	default:
		select {
		case <-m.scrollCh:
		default:
		}
		select {
		case m.scrollCh <- req:
		default:
		}
	}
}

// Close stops the executor and releases resources. It is safe to call more
// than once; subsequent calls are no-ops.
func (m *Manager[V]) Close() error {
	select {
	case <-m.stopCh:
		return nil
	default:
		close(m.stopCh)
	}
	<-m.doneCh
	return nil
}
