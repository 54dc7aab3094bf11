package base

import "testing"

func TestTruncateString(t *testing.T) {
	tests := []struct {
		in    string
		width int
		want  string
	}{
		{"hello", 10, "hello"},
		{"hello world", 8, "hello..."},
		{"hello", 2, "he"},
		{"héllo wörld", 6, "hél..."},
	}
	for _, tt := range tests {
		if got := TruncateString(tt.in, tt.width); got != tt.want {
			t.Errorf("TruncateString(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.want)
		}
	}
}

func TestPadString(t *testing.T) {
	if got := PadString("ab", 4); got != "ab  " {
		t.Errorf("PadString = %q", got)
	}
	if got := PadString("abcdef", 4); got != "abcdef" {
		t.Errorf("PadString should not cut, got %q", got)
	}
}

func TestColumnWidth(t *testing.T) {
	rows := [][]string{{"1", "alice"}, {"22", "a-much-longer-username-here-and-more"}}

	tests := []struct {
		name  string
		index int
		want  int
	}{
		{"minimum applies", 0, 10},
		{"maximum applies", 1, 30},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ColumnWidth("col", rows, tt.index, 10, 30); got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestPageKindColor(t *testing.T) {
	p := DarkPalette
	if p.PageKindColor("leaf") != p.Leaf || p.PageKindColor("internal") != p.Internal {
		t.Error("known kinds should map to their colors")
	}
	if p.PageKindColor("unknown(7)") != p.Unknown {
		t.Error("other kinds should map to Unknown")
	}
}
