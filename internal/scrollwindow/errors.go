package scrollwindow

import "fmt"

// AnchorLostError records that a window replacement produced no common
// item with the previous window (§7). It is never returned from the public
// API; it is logged and folded into a nil Intersection.
type AnchorLostError struct {
	Mode Mode
}

func (e *AnchorLostError) Error() string {
	return fmt.Sprintf("scrollwindow: anchor lost during %s window replacement", e.Mode)
}
