package common

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Zero is the origin / a resting velocity.
var Zero = r2.Vec{}

// Vec builds an r2.Vec from its components.
func Vec(x, y float64) r2.Vec {
	return r2.Vec{X: x, Y: y}
}

// IsFinite reports whether both components of v are neither NaN nor infinite.
func IsFinite(v r2.Vec) bool {
	return !math.IsNaN(v.X) && !math.IsInf(v.X, 0) && !math.IsNaN(v.Y) && !math.IsInf(v.Y, 0)
}

// Clamp limits x to the closed interval [lo, hi].
// If the interval is empty (lo > hi) the midpoint is returned.
func Clamp(x, lo, hi float64) float64 {
	if lo > hi {
		return (lo + hi) / 2
	}
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// Format returns a short string representation of the vector for logging.
func Format(v r2.Vec) string {
	return fmt.Sprintf("[%.3f, %.3f]", v.X, v.Y)
}
