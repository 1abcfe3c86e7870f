package simulation

import (
	"sync"

	"gonum.org/v1/gonum/spatial/r2"

	"tiltmaze/internal/physics"
)

// Snapshot is a consistent copy of the simulation state.
type Snapshot struct {
	Position   r2.Vec
	Velocity   r2.Vec
	LastUpdate int64 // nanoseconds of the last recorded sample
	Seeded     bool  // false until the first sample has been recorded
}

// Body returns the view of the snapshot an integrator works on.
func (s Snapshot) Body() physics.Body {
	return physics.Body{
		Position:   s.Position,
		Velocity:   s.Velocity,
		LastUpdate: s.LastUpdate,
		Seeded:     s.Seeded,
	}
}

// State is the authoritative ball state. ApplyUpdate is the only mutation
// path; readers always observe a position and velocity written together.
type State struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewState creates a resting ball at start with no recorded timestamp.
func NewState(start r2.Vec) *State {
	return &State{snap: Snapshot{Position: start}}
}

// CurrentPosition returns the committed ball center.
func (s *State) CurrentPosition() r2.Vec {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.Position
}

// CurrentVelocity returns the committed ball velocity.
func (s *State) CurrentVelocity() r2.Vec {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.Velocity
}

// Snapshot returns a copy of the whole state.
func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// ApplyUpdate commits a new position, velocity and sample timestamp.
func (s *State) ApplyUpdate(position, velocity r2.Vec, timestamp int64) {
	s.mu.Lock()
	s.snap = Snapshot{
		Position:   position,
		Velocity:   velocity,
		LastUpdate: timestamp,
		Seeded:     true,
	}
	s.mu.Unlock()
}

// Reset puts the ball back at start, at rest, and forgets the timestamp.
func (s *State) Reset(start r2.Vec) {
	s.mu.Lock()
	s.snap = Snapshot{Position: start}
	s.mu.Unlock()
}
