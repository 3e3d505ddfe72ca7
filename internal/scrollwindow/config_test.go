package scrollwindow

import "testing"

func TestDeriveSizes(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		want    sizes
		wantErr bool
	}{
		{
			name: "typical viewport",
			cfg:  Config{ViewportHeight: 600, MinRowHeight: 60, BufferFactor: 2.0},
			want: sizes{screenItems: 10, buffer: 20, threshold: 10, liveWindow: 30, windowCap: 50},
		},
		{
			name: "default buffer factor",
			cfg:  Config{ViewportHeight: 600, MinRowHeight: 60},
			want: sizes{screenItems: 10, buffer: 20, threshold: 10, liveWindow: 30, windowCap: 50},
		},
		{
			name: "rounds buffer",
			cfg:  Config{ViewportHeight: 700, MinRowHeight: 60, BufferFactor: 1.5},
			// screen_items = 700/60 = 11, buffer = round(11*1.5) = round(16.5) = 17 (round-half-away-from-zero via math.Round)
			want: sizes{screenItems: 11, buffer: 17, threshold: 11, liveWindow: 28, windowCap: 45},
		},
		{
			name:    "zero min row height",
			cfg:     Config{ViewportHeight: 600, MinRowHeight: 0},
			wantErr: true,
		},
		{
			name:    "viewport smaller than row height",
			cfg:     Config{ViewportHeight: 10, MinRowHeight: 60},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := deriveSizes(tt.cfg)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("deriveSizes() error = nil, want error")
				}
				return
			}
			if err != nil {
				t.Fatalf("deriveSizes() unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("deriveSizes() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParseBasePredicate(t *testing.T) {
	node, err := parseBasePredicate("")
	if err != nil {
		t.Fatalf("empty predicate: unexpected error: %v", err)
	}
	if node.String() != "TRUE" {
		t.Errorf("empty predicate = %q, want TRUE", node.String())
	}

	node, err = parseBasePredicate(`room_id = "lobby"`)
	if err != nil {
		t.Fatalf("valid predicate: unexpected error: %v", err)
	}
	if node.String() != `room_id = "lobby"` {
		t.Errorf("predicate = %q, want room_id = \"lobby\"", node.String())
	}

	if _, err := parseBasePredicate("room_id ="); err == nil {
		t.Error("malformed predicate: expected error, got nil")
	}
}
