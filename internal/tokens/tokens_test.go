package tokens

import "testing"

func TestEstimate(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"", 0},
		{"a", 1},
		{"abcd", 1},
		{"abcde", 2},
		{"hello go", 2},
	}
	for _, tt := range tests {
		if got := Estimate(tt.text); got != tt.want {
			t.Errorf("Estimate(%q) = %d, want %d", tt.text, got, tt.want)
		}
	}
}

func TestEstimateLongPrompt(t *testing.T) {
	text := make([]byte, 4100)
	for i := range text {
		text[i] = 'x'
	}
	if got := Estimate(string(text)); got != 1025 {
		t.Errorf("Estimate(4100 chars) = %d, want 1025", got)
	}
}

func TestChars(t *testing.T) {
	if got := Chars(250); got != 1000 {
		t.Errorf("Chars(250) = %d, want 1000", got)
	}
	if got := Chars(0); got != 0 {
		t.Errorf("Chars(0) = %d, want 0", got)
	}
	if got := Chars(-3); got != 0 {
		t.Errorf("Chars(-3) = %d, want 0", got)
	}
}
