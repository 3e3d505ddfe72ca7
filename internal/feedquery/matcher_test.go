package feedquery

import "testing"

func fields(m map[string]interface{}) FieldValues {
	return func(field string) (interface{}, bool) {
		v, ok := m[field]
		return v, ok
	}
}

func TestToMatcher(t *testing.T) {
	tests := []struct {
		name  string
		query string
		item  map[string]interface{}
		want  bool
	}{
		{"true matches everything", "TRUE", map[string]interface{}{}, true},
		{"false matches nothing", "FALSE", map[string]interface{}{"room": "lobby"}, false},
		{"eq match", "room = lobby", map[string]interface{}{"room": "lobby"}, true},
		{"eq mismatch", "room = lobby", map[string]interface{}{"room": "hallway"}, false},
		{"neq", "room != lobby", map[string]interface{}{"room": "hallway"}, true},
		{"and both true", "room = lobby AND type = message", map[string]interface{}{"room": "lobby", "type": "message"}, true},
		{"and one false", "room = lobby AND type = message", map[string]interface{}{"room": "lobby", "type": "system"}, false},
		{"or either true", "room = lobby OR room = hallway", map[string]interface{}{"room": "hallway"}, true},
		{"not", "NOT room = lobby", map[string]interface{}{"room": "hallway"}, true},
		{"contains", "body ~ hello", map[string]interface{}{"body": "say hello there"}, true},
		{"numeric gte", "priority >= 3", map[string]interface{}{"priority": int64(5)}, true},
		{"numeric lt false", "priority < 3", map[string]interface{}{"priority": int64(5)}, false},
		{"missing field", "room = lobby", map[string]interface{}{}, false},
		{"in list", "room IN (a, b)", map[string]interface{}{"room": "b"}, true},
		{"not in list", "room IN (a, b)", map[string]interface{}{"room": "c"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node, err := Parse(tt.query)
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			matcher, err := ToMatcher(node)
			if err != nil {
				t.Fatalf("compile matcher: %v", err)
			}
			if got := matcher(fields(tt.item)); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}
