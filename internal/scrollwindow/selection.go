package scrollwindow

import (
	"fmt"

	"github.com/aviary/feedwindow/internal/feedquery"
)

// buildSelection produces the continuation query for the current mode,
// cursor, and window size, per §4.2. It is a pure function of its
// arguments — deterministic and side-effect-free.
func buildSelection(predicate feedquery.Node, tsField string, mode Mode, cursor *int64, windowSize int) Selection {
	sel := Selection{
		Predicate: predicate,
		TSField:   tsField,
		Limit:     windowSize,
	}

	switch mode {
	case Live:
		sel.Order = OrderDesc
		sel.Cursor = nil
	case Backward:
		sel.Order = OrderDesc
		sel.Cursor = cursor
		sel.CursorOp = "<="
	case Forward:
		sel.Order = OrderAsc
		sel.Cursor = cursor
		sel.CursorOp = ">="
	}

	return sel
}

// String renders the selection in the exact diagnostic/test form from §6:
//
//	<base_predicate> AND "<ts_field>" <op> <cursor> ORDER BY <ts_field> <DIR> LIMIT <n>
//
// In Live mode the cursor clause is omitted entirely.
func (s Selection) String() string {
	if s.Cursor == nil {
		return fmt.Sprintf("%s ORDER BY %s %s LIMIT %d", s.Predicate.String(), s.TSField, s.Order, s.Limit)
	}
	return fmt.Sprintf("%s AND %q %s %d ORDER BY %s %s LIMIT %d",
		s.Predicate.String(), s.TSField, s.CursorOp, *s.Cursor, s.TSField, s.Order, s.Limit)
}
