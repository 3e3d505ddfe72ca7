package scrollwindow

import (
	"errors"
	"fmt"
	"math"

	"github.com/aviary/feedwindow/internal/feedquery"
)

// DefaultBufferFactor is used when Config.BufferFactor is zero.
const DefaultBufferFactor = 2.0

// Config is the raw, user-supplied sizing and predicate configuration for a
// Manager.
type Config struct {
	// ViewportHeight is the viewport height in pixels. Required, > 0.
	ViewportHeight int
	// MinRowHeight is the minimum row height in pixels. Required, > 0.
	MinRowHeight int
	// BufferFactor scales ScreenItems into the buffer size. Defaults to 2.0.
	BufferFactor float64
	// BasePredicate is parsed via feedquery.Parse and ANDed into every
	// selection this manager issues. A nil or empty value means TRUE.
	BasePredicate string
	// TimestampField names the field used for cursor clauses.
	TimestampField string
}

// InvalidConfigError reports a Config that violates its preconditions.
type InvalidConfigError struct {
	Reason string
}

func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("invalid scrollwindow config: %s", e.Reason)
}

// Is supports errors.Is(err, ErrInvalidConfig) style checks without pinning
// callers to the exact Reason string.
func (e *InvalidConfigError) Is(target error) bool {
	_, ok := target.(*InvalidConfigError)
	return ok
}

// ErrInvalidConfig is a sentinel usable with errors.Is; its Reason is empty.
var ErrInvalidConfig = &InvalidConfigError{}

// sizes holds the four derived integer sizes computed from a Config.
type sizes struct {
	screenItems int
	buffer      int
	threshold   int
	liveWindow  int
	// windowCap bounds window_size growth during Backward/Forward paging.
	windowCap int
}

// deriveSizes validates Config and computes its derived sizes, per §4.1:
// screen_items = viewport_height / min_row_height (floor)
// buffer       = round(screen_items * buffer_factor)
// threshold    = screen_items
// live_window  = screen_items + buffer
func deriveSizes(cfg Config) (sizes, error) {
	if cfg.MinRowHeight <= 0 {
		return sizes{}, &InvalidConfigError{Reason: "min_row_height must be > 0"}
	}
	if cfg.ViewportHeight < cfg.MinRowHeight {
		return sizes{}, &InvalidConfigError{Reason: "viewport_height must be >= min_row_height"}
	}

	bufferFactor := cfg.BufferFactor
	if bufferFactor <= 0 {
		bufferFactor = DefaultBufferFactor
	}

	screenItems := cfg.ViewportHeight / cfg.MinRowHeight
	if screenItems < 1 {
		return sizes{}, &InvalidConfigError{Reason: "derived screen_items must be >= 1"}
	}

	buffer := int(math.Round(float64(screenItems) * bufferFactor))
	if buffer < 0 {
		buffer = 0
	}

	threshold := screenItems
	liveWindow := screenItems + buffer
	if liveWindow < 1 {
		return sizes{}, &InvalidConfigError{Reason: "derived live_window must be >= 1"}
	}

	return sizes{
		screenItems: screenItems,
		buffer:      buffer,
		threshold:   threshold,
		liveWindow:  liveWindow,
		windowCap:   screenItems + 2*buffer,
	}, nil
}

// parseBasePredicate parses Config.BasePredicate, defaulting to TRUE.
func parseBasePredicate(raw string) (feedquery.Node, error) {
	if raw == "" {
		return feedquery.True, nil
	}
	node, err := feedquery.Parse(raw)
	if err != nil {
		return nil, errors.Join(&InvalidConfigError{Reason: "invalid base_predicate"}, err)
	}
	return node, nil
}
