package testutil

import "testing"

func TestGolden_NormalizesLineEndings(t *testing.T) {
	Golden(t, "lines", []byte("   1  [ ] first\r\n   2  [x] second\r\n"))
	Golden(t, "lines", []byte("   1  [ ] first\n   2  [x] second\n"))
}

func TestNormalizeNewlines(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"a\r\nb\r\n", "a\nb\n"},
		{"a\nb", "a\nb"},
		{"lone\rcarriage", "lone\rcarriage"},
	}
	for _, tt := range tests {
		if got := string(normalizeNewlines([]byte(tt.in))); got != tt.want {
			t.Errorf("normalizeNewlines(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
