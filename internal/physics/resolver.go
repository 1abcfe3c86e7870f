package physics

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/spatial/r2"

	"tiltmaze/internal/common"
)

// Arena is the static geometry a ball moves in.
type Arena struct {
	Walls  []common.Rect // checked in order
	Bounds common.Rect   // the playfield
	Radius float64       // ball radius
}

// Resolution is the outcome of checking a candidate motion against the arena.
type Resolution struct {
	Position  r2.Vec
	Velocity  r2.Vec
	Collided  bool
	Discarded bool // the candidate was not finite and was replaced by the previous position
	Wall      int  // index of the wall that was hit, -1 if none
}

// Resolver corrects a candidate motion so the ball does not end up inside a
// wall. Implementations are deterministic and finish in one pass.
type Resolver interface {
	Resolve(arena *Arena, previous r2.Vec, m Motion) Resolution
}

// firstHit returns the index of the first wall the box overlaps, or -1.
func firstHit(walls []common.Rect, box common.Rect) int {
	for i, wall := range walls {
		if wall.Intersects(box) {
			return i
		}
	}
	return -1
}

// settle discards a candidate that is not finite, keeping the ball at its
// previous position with no velocity. It reports whether it did so.
func settle(previous r2.Vec, m Motion) (Motion, bool) {
	if common.IsFinite(m.Position) && common.IsFinite(m.Velocity) {
		return m, false
	}
	return Motion{Position: previous, Velocity: common.Zero}, true
}

// HardStop freezes the ball at its last valid position when the candidate
// overlaps any wall.
type HardStop struct{}

// Resolve implements Resolver.
func (HardStop) Resolve(arena *Arena, previous r2.Vec, m Motion) Resolution {
	m, discarded := settle(previous, m)
	hit := firstHit(arena.Walls, common.RectAround(m.Position, arena.Radius))
	if hit < 0 {
		return Resolution{Position: m.Position, Velocity: m.Velocity, Discarded: discarded, Wall: -1}
	}
	return Resolution{Position: previous, Velocity: common.Zero, Collided: true, Discarded: discarded, Wall: hit}
}

// Bounce pushes the ball out of the first wall it overlaps along the axis of
// least penetration and reflects that velocity component, keeping only
// Restitution of it. The result is always clamped to the playfield.
//
// Only one wall is resolved per step, so a large step into a concave corner
// can leave the ball inside the second wall.
type Bounce struct {
	Restitution float64
}

// NewBounce creates a bounce resolver.
func NewBounce(restitution float64) *Bounce {
	return &Bounce{Restitution: restitution}
}

// Resolve implements Resolver.
func (b *Bounce) Resolve(arena *Arena, previous r2.Vec, m Motion) Resolution {
	m, discarded := settle(previous, m)
	r := arena.Radius
	pos, vel := m.Position, m.Velocity
	ball := common.RectAround(pos, r)

	res := Resolution{Discarded: discarded, Wall: firstHit(arena.Walls, ball)}
	if res.Wall >= 0 {
		wall := arena.Walls[res.Wall]
		res.Collided = true

		overlapLeft := ball.Right - wall.Left
		overlapRight := wall.Right - ball.Left
		overlapTop := ball.Bottom - wall.Top
		overlapBottom := wall.Bottom - ball.Top
		overlapX := math.Min(overlapLeft, overlapRight)
		overlapY := math.Min(overlapTop, overlapBottom)

		if overlapX < overlapY {
			if overlapLeft < overlapRight {
				pos.X = wall.Left - r
			} else {
				pos.X = wall.Right + r
			}
			vel.X = -vel.X * b.Restitution
		} else {
			if pos.Y < wall.Top {
				pos.Y = wall.Top - r
			} else {
				pos.Y = wall.Bottom + r
			}
			vel.Y = -vel.Y * b.Restitution
		}
	}

	pos.X = common.Clamp(pos.X, arena.Bounds.Left+r, arena.Bounds.Right-r)
	pos.Y = common.Clamp(pos.Y, arena.Bounds.Top+r, arena.Bounds.Bottom-r)
	res.Position = pos
	res.Velocity = vel
	return res
}

// NewResolver returns the resolver registered under name ("hardstop" or "bounce").
func NewResolver(name string, restitution float64) (Resolver, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "hardstop", "hard-stop", "stop":
		return HardStop{}, nil
	case "bounce":
		return NewBounce(restitution), nil
	default:
		return nil, fmt.Errorf("unknown resolver %q", name)
	}
}
