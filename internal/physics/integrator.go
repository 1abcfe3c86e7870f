package physics

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r2"

	"tiltmaze/internal/sensor"
)

// Default tuning values. They were found by trial on a handset and have no
// physical derivation; configuration may override all of them.
const (
	DefaultAccelScale  = 1000.0
	DefaultDamping     = 0.1
	DefaultRestitution = 0.15
)

const nanosPerSecond = 1e9

// Body is the part of the simulation state an integrator reads.
type Body struct {
	Position   r2.Vec
	Velocity   r2.Vec
	LastUpdate int64 // nanoseconds, meaningful only when Seeded
	Seeded     bool  // false until the first sample has been recorded
}

// Motion is a candidate position and velocity, not yet checked against walls.
type Motion struct {
	Position r2.Vec
	Velocity r2.Vec
	Moved    bool // false when the sample produced no movement (bootstrap)
}

// Integrator turns one raw sensor sample into a candidate motion.
type Integrator interface {
	// Kind returns the sensor kind the integrator consumes.
	Kind() sensor.Kind
	// Integrate computes the candidate motion. It never mutates state.
	Integrate(body Body, sample sensor.Sample) Motion
}

// GyroIntegrator scales angular-rate readings into an acceleration and
// integrates it over the time elapsed since the previous sample.
type GyroIntegrator struct {
	Scale float64
}

// NewGyroIntegrator creates a timestamp-scaled integrator.
func NewGyroIntegrator(scale float64) *GyroIntegrator {
	return &GyroIntegrator{Scale: scale}
}

// Kind implements Integrator.
func (g *GyroIntegrator) Kind() sensor.Kind {
	return sensor.KindAngularRate
}

// Integrate implements Integrator. The first sample after (re)start only
// seeds the clock; samples that do not advance the clock are ignored.
func (g *GyroIntegrator) Integrate(body Body, sample sensor.Sample) Motion {
	still := Motion{Position: body.Position, Velocity: body.Velocity}
	if !body.Seeded {
		return still
	}
	deltaTime := float64(sample.Timestamp-body.LastUpdate) / nanosPerSecond
	if deltaTime <= 0 {
		return still
	}

	acceleration := r2.Scale(g.Scale, r2.Vec{X: sample.Values[1], Y: sample.Values[0]})
	velocity := r2.Add(body.Velocity, r2.Scale(deltaTime, acceleration))
	position := r2.Add(body.Position, r2.Scale(deltaTime, velocity))

	return Motion{Position: position, Velocity: velocity, Moved: true}
}

// AccelIntegrator applies a fixed fraction of each accelerometer reading to
// the velocity and moves the ball by the velocity once per sample. It does
// not look at timestamps.
type AccelIntegrator struct {
	Damping float64
}

// NewAccelIntegrator creates a fixed-step integrator.
func NewAccelIntegrator(damping float64) *AccelIntegrator {
	return &AccelIntegrator{Damping: damping}
}

// Kind implements Integrator.
func (a *AccelIntegrator) Kind() sensor.Kind {
	return sensor.KindLinearAcceleration
}

// Integrate implements Integrator.
func (a *AccelIntegrator) Integrate(body Body, sample sensor.Sample) Motion {
	velocity := r2.Vec{
		X: body.Velocity.X - sample.Values[0]*a.Damping,
		Y: body.Velocity.Y + sample.Values[1]*a.Damping,
	}
	return Motion{
		Position: r2.Add(body.Position, velocity),
		Velocity: velocity,
		Moved:    true,
	}
}

// NewIntegrator returns the integrator for the given sensor kind.
func NewIntegrator(kind sensor.Kind, accelScale, damping float64) (Integrator, error) {
	switch kind {
	case sensor.KindAngularRate:
		return NewGyroIntegrator(accelScale), nil
	case sensor.KindLinearAcceleration:
		return NewAccelIntegrator(damping), nil
	default:
		return nil, fmt.Errorf("no integrator for sensor kind %s", kind)
	}
}
