package feedquery

import (
	"fmt"
	"strings"
)

// FieldValues exposes a single item's fields to the matcher. Callers supply
// one per concrete item type; the predicate AST never interprets item
// content beyond what this function reports.
type FieldValues func(field string) (interface{}, bool)

// Matcher reports whether a single item satisfies a predicate.
type Matcher func(fields FieldValues) bool

// ToMatcher compiles a predicate AST into an in-memory matcher function,
// used by reference engine implementations that cannot push the predicate
// down into a query planner.
func ToMatcher(n Node) (Matcher, error) {
	switch node := n.(type) {
	case Literal:
		val := bool(node)
		return func(FieldValues) bool { return val }, nil
	case *BinaryExpr:
		left, err := ToMatcher(node.Left)
		if err != nil {
			return nil, err
		}
		right, err := ToMatcher(node.Right)
		if err != nil {
			return nil, err
		}
		switch node.Op {
		case OpAnd:
			return func(f FieldValues) bool { return left(f) && right(f) }, nil
		case OpOr:
			return func(f FieldValues) bool { return left(f) || right(f) }, nil
		default:
			return nil, fmt.Errorf("unknown binary operator %q", node.Op)
		}
	case *UnaryExpr:
		inner, err := ToMatcher(node.Expr)
		if err != nil {
			return nil, err
		}
		return func(f FieldValues) bool { return !inner(f) }, nil
	case *FieldExpr:
		return fieldMatcher(node)
	default:
		return nil, fmt.Errorf("unsupported predicate node %T", n)
	}
}

func fieldMatcher(f *FieldExpr) (Matcher, error) {
	switch f.Operator {
	case OpEq, OpNeq, OpContains, OpNotContains, OpLt, OpGt, OpLte, OpGte:
		return func(fields FieldValues) bool {
			actual, ok := fields(f.Field)
			if !ok {
				return false
			}
			return compare(actual, f.Operator, f.Value)
		}, nil
	case OpIn, OpNotIn:
		list, ok := f.Value.(*ListValue)
		if !ok {
			return nil, fmt.Errorf("operator %s requires a list value", f.Operator)
		}
		return func(fields FieldValues) bool {
			actual, ok := fields(f.Field)
			if !ok {
				return f.Operator == OpNotIn
			}
			in := false
			for _, v := range list.Values {
				if compare(actual, OpEq, v) {
					in = true
					break
				}
			}
			if f.Operator == OpNotIn {
				return !in
			}
			return in
		}, nil
	default:
		return nil, fmt.Errorf("unsupported operator %q", f.Operator)
	}
}

// compare implements the comparison semantics shared by SQL pushdown and the
// in-memory matcher: strings compare lexically (or via substring for ~/!~),
// numbers compare numerically, everything else falls back to string form.
func compare(actual interface{}, op string, expected interface{}) bool {
	switch op {
	case OpContains:
		return strings.Contains(toString(actual), toString(expected))
	case OpNotContains:
		return !strings.Contains(toString(actual), toString(expected))
	}

	aNum, aIsNum := toInt64(actual)
	eNum, eIsNum := toInt64(expected)
	if aIsNum && eIsNum {
		switch op {
		case OpEq:
			return aNum == eNum
		case OpNeq:
			return aNum != eNum
		case OpLt:
			return aNum < eNum
		case OpGt:
			return aNum > eNum
		case OpLte:
			return aNum <= eNum
		case OpGte:
			return aNum >= eNum
		}
	}

	as, es := toString(actual), toString(expected)
	switch op {
	case OpEq:
		return as == es
	case OpNeq:
		return as != es
	case OpLt:
		return as < es
	case OpGt:
		return as > es
	case OpLte:
		return as <= es
	case OpGte:
		return as >= es
	}
	return false
}

func toString(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

func toInt64(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	}
	return 0, false
}
