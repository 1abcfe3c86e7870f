package common

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r2"
)

// Rect is an axis-aligned rectangle in screen coordinates (y grows downwards).
// Walls, the ball's bounding box and the viewport are all expressed as Rects.
type Rect struct {
	Left, Top, Right, Bottom float64
}

// NewRect creates a rectangle from two corners, swapping coordinates where
// needed so that Left <= Right and Top <= Bottom always hold.
func NewRect(left, top, right, bottom float64) Rect {
	if left > right {
		left, right = right, left
	}
	if top > bottom {
		top, bottom = bottom, top
	}
	return Rect{Left: left, Top: top, Right: right, Bottom: bottom}
}

// RectAround returns the bounding box of a circle.
func RectAround(center r2.Vec, radius float64) Rect {
	return NewRect(center.X-radius, center.Y-radius, center.X+radius, center.Y+radius)
}

// Width returns the horizontal extent of the rectangle.
func (r Rect) Width() float64 {
	return r.Right - r.Left
}

// Height returns the vertical extent of the rectangle.
func (r Rect) Height() float64 {
	return r.Bottom - r.Top
}

// Intersects reports whether r and other overlap. Rectangles that only share
// an edge or a corner count as overlapping.
func (r Rect) Intersects(other Rect) bool {
	return r.Left <= other.Right && other.Left <= r.Right &&
		r.Top <= other.Bottom && other.Top <= r.Bottom
}

// Box converts the rectangle to a gonum box.
func (r Rect) Box() r2.Box {
	return r2.Box{Min: r2.Vec{X: r.Left, Y: r.Top}, Max: r2.Vec{X: r.Right, Y: r.Bottom}}
}

// String representation for logging
func (r Rect) String() string {
	return fmt.Sprintf("Rect[%.1f,%.1f %.1fx%.1f]", r.Left, r.Top, r.Width(), r.Height())
}
