package core

import "testing"

func TestSpanOverlaps(t *testing.T) {
	tests := []struct {
		name     string
		a, b     Span
		expected bool
	}{
		{"overlapping", NewSpan(0, 10), NewSpan(5, 15), true},
		{"disjoint", NewSpan(0, 10), NewSpan(20, 30), false},
		{"touching (no overlap)", NewSpan(0, 10), NewSpan(10, 20), false},
		{"contained", NewSpan(0, 20), NewSpan(5, 6), true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.a.Overlaps(tc.b); got != tc.expected {
				t.Errorf("Overlaps() = %v, expected %v", got, tc.expected)
			}
			if got := tc.b.Overlaps(tc.a); got != tc.expected {
				t.Errorf("Overlaps() (reversed) = %v, expected %v", got, tc.expected)
			}
		})
	}
}

func TestSpanContainsSpan(t *testing.T) {
	gap := NewSpan(225, 375)

	tests := []struct {
		name     string
		inner    Span
		expected bool
	}{
		{"centered", NewSpan(290, 310), true},
		{"flush with top", NewSpan(225, 245), true},
		{"flush with bottom", NewSpan(355, 375), true},
		{"pokes above", NewSpan(224, 244), false},
		{"pokes below", NewSpan(360, 380), false},
		{"larger than gap", NewSpan(200, 400), false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := gap.ContainsSpan(tc.inner); got != tc.expected {
				t.Errorf("ContainsSpan(%v) = %v, expected %v", tc.inner, got, tc.expected)
			}
		})
	}
}

func TestNewSpanOrdersBounds(t *testing.T) {
	s := NewSpan(10, 2)
	if s.Lo != 2 || s.Hi != 10 {
		t.Errorf("NewSpan(10, 2) = %v, expected {2 10}", s)
	}
	if s.Len() != 8 {
		t.Errorf("Len() = %v, expected 8", s.Len())
	}
}

func TestClampF(t *testing.T) {
	tests := []struct {
		val, min, max, expected float64
	}{
		{0.5, -1, 1, 0.5},
		{-3, -1, 1, -1},
		{12.35, -12, 12, 12},
	}

	for _, tc := range tests {
		if got := ClampF(tc.val, tc.min, tc.max); got != tc.expected {
			t.Errorf("ClampF(%v, %v, %v) = %v, expected %v", tc.val, tc.min, tc.max, got, tc.expected)
		}
	}
}

func TestClamp(t *testing.T) {
	if Clamp(-5, 0, 10) != 0 {
		t.Error("Clamp should raise values below min")
	}
	if Clamp(50, 0, 10) != 10 {
		t.Error("Clamp should lower values above max")
	}
	if Clamp(7, 0, 10) != 7 {
		t.Error("Clamp should keep values in range")
	}
}
