package sensor

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/spatial/r2"
)

// Kind tags the physical quantity a sample measures.
type Kind uint8

const (
	// KindUnknown marks samples from sensors the simulation does not use.
	KindUnknown Kind = iota
	// KindAngularRate is a gyroscope reading in rad/s around the device axes.
	KindAngularRate
	// KindLinearAcceleration is an accelerometer reading in m/s^2.
	KindLinearAcceleration
)

func (k Kind) String() string {
	switch k {
	case KindAngularRate:
		return "gyroscope"
	case KindLinearAcceleration:
		return "accelerometer"
	default:
		return "unknown"
	}
}

// ParseKind accepts the names used in configuration files.
func ParseKind(name string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "gyroscope", "gyro", "angular-rate":
		return KindAngularRate, nil
	case "accelerometer", "accel", "linear-acceleration":
		return KindLinearAcceleration, nil
	default:
		return KindUnknown, fmt.Errorf("unknown sensor kind %q", name)
	}
}

// Sample is one reading delivered by the sensor collaborator.
// Timestamp is a monotonic clock value in nanoseconds; only angular-rate
// samples are required to carry one.
type Sample struct {
	Kind      Kind
	Values    [3]float64
	Timestamp int64
}

// String representation for logging
func (s Sample) String() string {
	return fmt.Sprintf("Sample[%s] (%.3f, %.3f, %.3f) t=%d", s.Kind, s.Values[0], s.Values[1], s.Values[2], s.Timestamp)
}

// Synthesize builds a raw sample of the given kind that tilts the ball in the
// direction of tilt (screen coordinates, x right, y down).
//
// Angular-rate samples feed acceleration as (values[1], values[0]).
// Linear-acceleration samples subtract values[0] from the x velocity and add
// values[1] to the y velocity, so the x axis is mirrored.
func Synthesize(kind Kind, tilt r2.Vec, timestamp int64) Sample {
	s := Sample{Kind: kind, Timestamp: timestamp}
	switch kind {
	case KindAngularRate:
		s.Values = [3]float64{tilt.Y, tilt.X, 0}
	case KindLinearAcceleration:
		s.Values = [3]float64{-tilt.X, tilt.Y, 0}
	}
	return s
}
