package feedquery

import "fmt"

// SQLCondition is a WHERE-clause fragment with its positional arguments,
// adapted from the teacher's AST-to-SQL evaluator.
type SQLCondition struct {
	Clause string
	Args   []interface{}
}

// ToSQL converts a predicate AST into a parameterized SQL WHERE fragment.
// columnOf maps a predicate field name to its underlying SQL column name,
// letting callers rename fields without touching the predicate language.
func ToSQL(n Node, columnOf func(field string) string) (SQLCondition, error) {
	switch node := n.(type) {
	case Literal:
		if node {
			return SQLCondition{Clause: "1=1"}, nil
		}
		return SQLCondition{Clause: "1=0"}, nil
	case *BinaryExpr:
		left, err := ToSQL(node.Left, columnOf)
		if err != nil {
			return SQLCondition{}, err
		}
		right, err := ToSQL(node.Right, columnOf)
		if err != nil {
			return SQLCondition{}, err
		}
		joiner := " AND "
		if node.Op == OpOr {
			joiner = " OR "
		}
		args := append(append([]interface{}{}, left.Args...), right.Args...)
		return SQLCondition{Clause: fmt.Sprintf("(%s%s%s)", left.Clause, joiner, right.Clause), Args: args}, nil
	case *UnaryExpr:
		inner, err := ToSQL(node.Expr, columnOf)
		if err != nil {
			return SQLCondition{}, err
		}
		return SQLCondition{Clause: fmt.Sprintf("NOT (%s)", inner.Clause), Args: inner.Args}, nil
	case *FieldExpr:
		return fieldToSQL(node, columnOf)
	default:
		return SQLCondition{}, fmt.Errorf("unsupported predicate node %T", n)
	}
}

func fieldToSQL(f *FieldExpr, columnOf func(string) string) (SQLCondition, error) {
	col := columnOf(f.Field)
	switch f.Operator {
	case OpEq:
		return SQLCondition{Clause: col + " = ?", Args: []interface{}{f.Value}}, nil
	case OpNeq:
		return SQLCondition{Clause: col + " != ?", Args: []interface{}{f.Value}}, nil
	case OpLt:
		return SQLCondition{Clause: col + " < ?", Args: []interface{}{f.Value}}, nil
	case OpGt:
		return SQLCondition{Clause: col + " > ?", Args: []interface{}{f.Value}}, nil
	case OpLte:
		return SQLCondition{Clause: col + " <= ?", Args: []interface{}{f.Value}}, nil
	case OpGte:
		return SQLCondition{Clause: col + " >= ?", Args: []interface{}{f.Value}}, nil
	case OpContains:
		return SQLCondition{Clause: col + " LIKE ? ESCAPE '\\'", Args: []interface{}{"%" + escapeLikeWildcards(toString(f.Value)) + "%"}}, nil
	case OpNotContains:
		return SQLCondition{Clause: col + " NOT LIKE ? ESCAPE '\\'", Args: []interface{}{"%" + escapeLikeWildcards(toString(f.Value)) + "%"}}, nil
	case OpIn, OpNotIn:
		list, ok := f.Value.(*ListValue)
		if !ok {
			return SQLCondition{}, fmt.Errorf("operator %s requires a list value", f.Operator)
		}
		placeholders := ""
		args := make([]interface{}, len(list.Values))
		for i, v := range list.Values {
			if i > 0 {
				placeholders += ", "
			}
			placeholders += "?"
			args[i] = v
		}
		verb := "IN"
		if f.Operator == OpNotIn {
			verb = "NOT IN"
		}
		return SQLCondition{Clause: fmt.Sprintf("%s %s (%s)", col, verb, placeholders), Args: args}, nil
	default:
		return SQLCondition{}, fmt.Errorf("unsupported operator %q", f.Operator)
	}
}

// escapeLikeWildcards escapes SQL LIKE pattern wildcards in user input so a
// `~` comparison never turns into an unintended pattern match.
func escapeLikeWildcards(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '%', '_', '\\':
			out = append(out, '\\')
		}
		out = append(out, s[i])
	}
	return string(out)
}
