package sensor

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/spatial/r2"
)

// TiltFunc returns the tilt direction the source should report after the
// given amount of simulated time.
type TiltFunc func(elapsed time.Duration) r2.Vec

// ConstantTilt is a TiltFunc that always reports the same direction.
func ConstantTilt(tilt r2.Vec) TiltFunc {
	return func(time.Duration) r2.Vec { return tilt }
}

// SourceConfig configures a synthetic sensor.
type SourceConfig struct {
	Kind     Kind
	Interval time.Duration // nominal delivery interval
	Jitter   float64       // fraction of Interval the actual gap may deviate by, 0..1
	Tilt     TiltFunc
	Noise    NoiseFunction // applied to every axis, nil for none
	Seed     int64         // 0 uses the current time
}

// Source produces timestamped samples the way a device sensor would:
// at an irregular cadence and with noisy readings.
type Source struct {
	id       string
	kind     Kind
	interval time.Duration
	jitter   float64
	tilt     TiltFunc
	noise    NoiseFunction
	rng      *rand.Rand
	start    int64
	clock    int64
}

// NewSource creates a synthetic sensor source.
func NewSource(cfg SourceConfig) (*Source, error) {
	if cfg.Kind != KindAngularRate && cfg.Kind != KindLinearAcceleration {
		return nil, fmt.Errorf("unsupported sensor kind %s", cfg.Kind)
	}
	if cfg.Interval <= 0 {
		return nil, fmt.Errorf("interval must be positive, got %s", cfg.Interval)
	}
	if cfg.Jitter < 0 || cfg.Jitter >= 1 {
		return nil, fmt.Errorf("jitter must be in [0, 1), got %.3f", cfg.Jitter)
	}
	if cfg.Tilt == nil {
		cfg.Tilt = ConstantTilt(r2.Vec{})
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	// Device clocks never start at zero.
	start := int64(time.Second)
	return &Source{
		id:       fmt.Sprintf("sensor-%s", uuid.NewString()[:8]),
		kind:     cfg.Kind,
		interval: cfg.Interval,
		jitter:   cfg.Jitter,
		tilt:     cfg.Tilt,
		noise:    cfg.Noise,
		rng:      rand.New(rand.NewSource(seed)),
		start:    start,
		clock:    start,
	}, nil
}

// GetID returns the unique identifier of the source.
func (s *Source) GetID() string {
	return s.id
}

// Kind returns the kind of samples the source emits.
func (s *Source) Kind() Kind {
	return s.kind
}

// Next advances the source clock by one (jittered) interval and returns the
// reading at that instant.
func (s *Source) Next() Sample {
	gap := float64(s.interval)
	if s.jitter > 0 {
		gap *= 1 + (s.rng.Float64()*2-1)*s.jitter
	}
	s.clock += int64(gap)

	sample := Synthesize(s.kind, s.tilt(time.Duration(s.clock-s.start)), s.clock)
	if s.noise != nil {
		for i := range sample.Values {
			sample.Values[i] = s.noise(sample.Values[i])
		}
	}
	return sample
}

// Stream sends count samples to out (count <= 0 means until ctx is done).
// It does not close out.
func (s *Source) Stream(ctx context.Context, count int, out chan<- Sample) error {
	for i := 0; count <= 0 || i < count; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case out <- s.Next():
		}
	}
	return nil
}

// String representation for logging
func (s *Source) String() string {
	noiseDesc := "no"
	if s.noise != nil {
		noiseDesc = "yes"
	}
	return fmt.Sprintf("Source[%s] Kind: %s Interval: %s Jitter: %.2f Noise: %s", s.id, s.kind, s.interval, s.jitter, noiseDesc)
}
