package tokens

import "testing"

func TestEstimate(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{"empty", "", 0},
		{"whitespace", "  \n\t", 0},
		{"single short word", "go", 1},
		{"runes dominate", "abcdefghijklmnop", 4},
		{"words dominate", "a b c d e f", 6},
		{"multibyte counts runes", "ééééééééé", 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Estimate(tt.text); got != tt.want {
				t.Errorf("Estimate(%q) = %d, want %d", tt.text, got, tt.want)
			}
		})
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		kind     Kind
		wantName string
		wantErr  bool
	}{
		{"", "heuristic", false},
		{KindHeuristic, "heuristic", false},
		{KindTiktoken, "tiktoken:cl100k_base", false},
		{"bpe", "", true},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			c, err := New(tt.kind)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			if c.Name() != tt.wantName {
				t.Errorf("Name = %s, want %s", c.Name(), tt.wantName)
			}
		})
	}
}

func TestTiktoken_EmptyTextSkipsEncoding(t *testing.T) {
	c := NewTiktoken("")
	if got := c.Count("   "); got != 0 {
		t.Errorf("Count(blank) = %d, want 0", got)
	}
}
