package scrollwindow

import "context"

// Result is one batch pushed by an Engine for the Selection it was asked to
// run. Err is set on QueryError; Items is nil in that case.
type Result[V Item] struct {
	Items []V
	Err   error
}

// Engine is the reactive query engine external collaborator (§6): it issues
// predicate/order/limit selections and streams back ordered result sets,
// replacing — not queuing behind — the results of any previously active
// selection once a new one is installed (reactive-replacement semantics).
//
// Implementations MUST document that guarantee against whatever storage or
// subscription mechanism they wrap; the core itself only relies on it, it
// never enforces it.
type Engine[V Item] interface {
	// Run installs sel as the active selection and returns a channel of
	// result batches for it. A call to Run with a new Selection must cause
	// any channel returned by a prior call to stop receiving further sends
	// for the superseded selection (it may be closed, or simply left idle —
	// the core never reads from a stale channel past the replacement point).
	Run(ctx context.Context, sel Selection) (<-chan Result[V], error)
}
