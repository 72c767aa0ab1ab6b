// Package core provides geometry helpers and the character cell buffer
// shared by the simulation and the renderers. It has no external
// dependencies (especially no Bubble Tea) so simulation code stays pure.
package core

// Span is a closed 1-D interval [Lo, Hi] on a world axis.
type Span struct {
	Lo, Hi float64
}

// NewSpan creates a span, swapping the bounds if needed.
func NewSpan(lo, hi float64) Span {
	if hi < lo {
		lo, hi = hi, lo
	}
	return Span{Lo: lo, Hi: hi}
}

// Len returns the span length.
func (s Span) Len() float64 {
	return s.Hi - s.Lo
}

// Overlaps returns true if the open interiors of the spans intersect.
// Spans that only touch at an endpoint do not overlap.
func (s Span) Overlaps(other Span) bool {
	return s.Hi > other.Lo && s.Lo < other.Hi
}

// ContainsSpan returns true if other lies fully inside s (endpoints inclusive).
func (s Span) ContainsSpan(other Span) bool {
	return other.Lo >= s.Lo && other.Hi <= s.Hi
}

// Rect represents an axis-aligned box in screen cells.
type Rect struct {
	X, Y int // Top-left corner position
	W, H int // Width and height
}

// NewRect creates a new rectangle with the given position and dimensions.
func NewRect(x, y, w, h int) Rect {
	return Rect{X: x, Y: y, W: w, H: h}
}

// Right returns the x-coordinate of the right edge.
func (r Rect) Right() int {
	return r.X + r.W
}

// Bottom returns the y-coordinate of the bottom edge.
func (r Rect) Bottom() int {
	return r.Y + r.H
}

// Clamp restricts a value to be within [min, max].
func Clamp(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}

// ClampF restricts a float64 value to be within [min, max].
func ClampF(val, min, max float64) float64 {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}

// Min returns the smaller of two integers.
func Min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// Max returns the larger of two integers.
func Max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
