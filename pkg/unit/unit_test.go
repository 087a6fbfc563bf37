package unit

import "testing"

func TestIsImportOnly(t *testing.T) {
	tests := []struct {
		code string
		want bool
	}{
		{"from x import y", true},
		{"  \n  import foo", true},
		{"import (\n\t\"fmt\"\n)", true},
		{"func f() {}", false},
		{"x := \"import nothing\"", false},
	}
	for _, tt := range tests {
		if got := IsImportOnly(tt.code); got != tt.want {
			t.Errorf("IsImportOnly(%q) = %v, want %v", tt.code, got, tt.want)
		}
	}
}

func TestDedupFirstOccurrenceWins(t *testing.T) {
	units := []CodeUnit{
		{Kind: KindFunction, Name: "f", StartLine: 1, EndLine: 5, NodeCount: 7},
		{Kind: KindFunction, Name: "f", StartLine: 1, EndLine: 5, NodeCount: 99},
		{Kind: KindFunction, Name: "g", StartLine: 10, EndLine: 12, NodeCount: 3},
	}
	got := Dedup(units)
	if len(got) != 2 {
		t.Fatalf("Dedup() returned %d units, want 2", len(got))
	}
	if got[0].NodeCount != 7 {
		t.Errorf("Dedup() kept NodeCount=%d, want first occurrence's 7", got[0].NodeCount)
	}
}

func TestLineCount(t *testing.T) {
	u := CodeUnit{StartLine: 10, EndLine: 12}
	if u.LineCount() != 3 {
		t.Errorf("LineCount() = %d, want 3", u.LineCount())
	}
}

func TestNormalizeForImportCheckCollapsesWhitespace(t *testing.T) {
	got := NormalizeForImportCheck([]byte("\n\n  from x import y  \n\n"))
	if got != "from x import y" {
		t.Errorf("NormalizeForImportCheck() = %q, want %q", got, "from x import y")
	}
}
