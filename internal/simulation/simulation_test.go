package simulation

import (
	"context"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"

	"tiltmaze/internal/common"
	"tiltmaze/internal/config"
	"tiltmaze/internal/physics"
	"tiltmaze/internal/sensor"
)

func newTestSimulation(t *testing.T, mutate func(*config.Config)) *Simulation {
	t.Helper()
	cfg := config.Default()
	if mutate != nil {
		mutate(&cfg)
	}
	sim, err := NewSimulation(cfg, nil)
	require.NoError(t, err)
	return sim
}

func gyroSample(values [3]float64, ts int64) sensor.Sample {
	return sensor.Sample{Kind: sensor.KindAngularRate, Values: values, Timestamp: ts}
}

func TestNewSimulationDefaults(t *testing.T) {
	sim := newTestSimulation(t, nil)

	center, radius := sim.Ball()
	assert.Equal(t, r2.Vec{X: 50, Y: 50}, center)
	assert.Equal(t, 20.0, radius)
	assert.Len(t, sim.Walls(), 8)
	assert.Equal(t, common.NewRect(0, 0, 400, 800), sim.Bounds())
	assert.Equal(t, sensor.KindAngularRate, sim.SensorKind())
	assert.Contains(t, sim.GetID(), "session-")

	snap := sim.Snapshot()
	assert.False(t, snap.Seeded)
	assert.Equal(t, common.Zero, snap.Velocity)
}

func TestNewSimulationRejectsInvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Physics.Resolver = "magnet"
	_, err := NewSimulation(cfg, nil)
	require.ErrorIs(t, err, config.ErrInvalidConfig)
}

func TestNoSamplesLeavesStateStatic(t *testing.T) {
	sim := newTestSimulation(t, nil)
	before := sim.Snapshot()

	samples := make(chan sensor.Sample)
	close(samples)
	require.NoError(t, sim.Run(context.Background(), samples))

	assert.Equal(t, before, sim.Snapshot())
	assert.Equal(t, Telemetry{}, sim.Telemetry())
}

func TestFirstGyroSampleOnlySeedsClock(t *testing.T) {
	sim := newTestSimulation(t, nil)
	before := sim.Snapshot()

	require.True(t, sim.HandleSample(gyroSample([3]float64{50, 50, 50}, 5_000_000_000)))

	after := sim.Snapshot()
	assert.Equal(t, before.Position, after.Position)
	assert.Equal(t, before.Velocity, after.Velocity)
	assert.True(t, after.Seeded)
	assert.Equal(t, int64(5_000_000_000), after.LastUpdate)
	assert.Equal(t, uint64(1), sim.Telemetry().Bootstraps)
}

func TestMismatchedKindIsIgnored(t *testing.T) {
	sim := newTestSimulation(t, nil)
	before := sim.Snapshot()

	accepted := sim.HandleSample(sensor.Sample{Kind: sensor.KindLinearAcceleration, Values: [3]float64{1, 1, 1}, Timestamp: 10})
	assert.False(t, accepted)
	assert.False(t, sim.HandleSample(sensor.Sample{Kind: sensor.KindUnknown}))

	assert.Equal(t, before, sim.Snapshot())
	tel := sim.Telemetry()
	assert.Equal(t, uint64(2), tel.Ignored)
	assert.Equal(t, uint64(0), tel.Accepted)
}

func TestGyroSamplesMoveBall(t *testing.T) {
	sim := newTestSimulation(t, nil)

	sim.HandleSample(gyroSample([3]float64{0, 1, 0}, 1_000_000_000))
	sim.HandleSample(gyroSample([3]float64{0, 1, 0}, 1_016_000_000))

	snap := sim.Snapshot()
	assert.InDelta(t, 16, snap.Velocity.X, 1e-9)
	assert.InDelta(t, 50.256, snap.Position.X, 1e-9)
	assert.InDelta(t, 50, snap.Position.Y, 1e-9)
	assert.Equal(t, int64(1_016_000_000), snap.LastUpdate)
}

func TestHardStopKeepsBallOutOfWalls(t *testing.T) {
	sim := newTestSimulation(t, nil)
	src, err := sensor.NewSource(sensor.SourceConfig{
		Kind:     sensor.KindAngularRate,
		Interval: 16 * time.Millisecond,
		Jitter:   0.3,
		Tilt: func(elapsed time.Duration) r2.Vec {
			phase := elapsed.Seconds()
			return r2.Vec{X: math.Cos(phase), Y: math.Sin(phase * 1.3)}
		},
		Noise: sensor.GaussianNoise(nil, 0.05),
		Seed:  9,
	})
	require.NoError(t, err)

	_, radius := sim.Ball()
	for i := 0; i < 2000; i++ {
		prev := sim.Snapshot()
		sim.HandleSample(src.Next())
		snap := sim.Snapshot()
		box := common.RectAround(snap.Position, radius)
		for _, w := range sim.Walls() {
			require.False(t, w.Intersects(box), "step %d: ball %s inside %s", i, common.Format(snap.Position), w)
		}
		if snap.Velocity == common.Zero && prev.Seeded {
			assert.Equal(t, prev.Position, snap.Position)
		}
	}
}

func TestBounceKeepsBallInPlayfield(t *testing.T) {
	sim := newTestSimulation(t, func(c *config.Config) {
		c.Physics.Sensor = "accelerometer"
		c.Physics.Resolver = "bounce"
	})
	src, err := sensor.NewSource(sensor.SourceConfig{
		Kind:     sensor.KindLinearAcceleration,
		Interval: 20 * time.Millisecond,
		Tilt:     sensor.ConstantTilt(r2.Vec{X: 3, Y: 4}),
		Noise:    sensor.UniformNoise(nil, 2),
		Seed:     4,
	})
	require.NoError(t, err)

	center, radius := sim.Ball()
	bounds := sim.Bounds()
	for i := 0; i < 3000; i++ {
		sim.HandleSample(src.Next())
		center, _ = sim.Ball()
		require.GreaterOrEqual(t, center.X, bounds.Left+radius)
		require.LessOrEqual(t, center.X, bounds.Right-radius)
		require.GreaterOrEqual(t, center.Y, bounds.Top+radius)
		require.LessOrEqual(t, center.Y, bounds.Bottom-radius)
	}
	assert.Positive(t, sim.Telemetry().Collisions)
}

func TestNonFiniteMotionNeverCommitted(t *testing.T) {
	sim := newTestSimulation(t, func(c *config.Config) {
		c.Physics.AccelScale = 1e308
	})
	sim.HandleSample(gyroSample([3]float64{1e10, 1e10, 0}, 1_000_000_000))
	sim.HandleSample(gyroSample([3]float64{1e10, 1e10, 0}, 2_000_000_000))

	snap := sim.Snapshot()
	assert.True(t, common.IsFinite(snap.Position))
	assert.True(t, common.IsFinite(snap.Velocity))
	assert.Equal(t, r2.Vec{X: 50, Y: 50}, snap.Position)
	assert.Equal(t, uint64(1), sim.Telemetry().Rejected)
}

func TestNaNSampleIsCountedAsRejected(t *testing.T) {
	for _, name := range []string{"hardstop", "bounce"} {
		t.Run(name, func(t *testing.T) {
			sim := newTestSimulation(t, func(c *config.Config) {
				c.Physics.Resolver = name
			})
			sim.HandleSample(gyroSample([3]float64{0, 1, 0}, 1_000_000_000))
			sim.HandleSample(gyroSample([3]float64{0, 1, 0}, 1_020_000_000))
			moved := sim.Snapshot().Position
			require.NotEqual(t, r2.Vec{X: 50, Y: 50}, moved)

			sim.HandleSample(gyroSample([3]float64{math.NaN(), 1, 0}, 1_040_000_000))

			snap := sim.Snapshot()
			assert.Equal(t, moved, snap.Position)
			assert.Equal(t, common.Zero, snap.Velocity)
			assert.Equal(t, int64(1_040_000_000), snap.LastUpdate)

			tel := sim.Telemetry()
			assert.Equal(t, uint64(1), tel.Rejected)
			assert.Equal(t, uint64(3), tel.Accepted)
		})
	}
}

type nanResolver struct{}

func (nanResolver) Resolve(*physics.Arena, r2.Vec, physics.Motion) physics.Resolution {
	return physics.Resolution{Position: r2.Vec{X: math.NaN()}, Velocity: r2.Vec{Y: math.Inf(1)}, Wall: -1}
}

func TestNonFiniteResolutionIsRejected(t *testing.T) {
	sim := newTestSimulation(t, nil)
	sim.resolver = nanResolver{}

	sim.HandleSample(gyroSample([3]float64{1, 1, 0}, 1_000_000_000))
	sim.HandleSample(gyroSample([3]float64{1, 1, 0}, 1_010_000_000))

	snap := sim.Snapshot()
	assert.Equal(t, r2.Vec{X: 50, Y: 50}, snap.Position)
	assert.Equal(t, common.Zero, snap.Velocity)
	assert.Equal(t, uint64(1), sim.Telemetry().Rejected)
}

func TestReset(t *testing.T) {
	sim := newTestSimulation(t, nil)
	sim.HandleSample(gyroSample([3]float64{0, 1, 0}, 1_000_000_000))
	sim.HandleSample(gyroSample([3]float64{0, 1, 0}, 1_020_000_000))
	require.NotEqual(t, r2.Vec{X: 50, Y: 50}, sim.Snapshot().Position)

	require.Equal(t, uint64(2), sim.Telemetry().Accepted)

	sim.Reset()

	snap := sim.Snapshot()
	assert.Equal(t, r2.Vec{X: 50, Y: 50}, snap.Position)
	assert.Equal(t, common.Zero, snap.Velocity)
	assert.False(t, snap.Seeded)
	assert.Equal(t, Telemetry{}, sim.Telemetry())

	// The next sample is a bootstrap again.
	sim.HandleSample(gyroSample([3]float64{0, 1, 0}, 9_000_000_000))
	assert.Equal(t, r2.Vec{X: 50, Y: 50}, sim.Snapshot().Position)
}

func TestConcurrentSamplesAreSerialized(t *testing.T) {
	sim := newTestSimulation(t, func(c *config.Config) {
		c.Physics.Sensor = "accelerometer"
		c.Physics.Resolver = "bounce"
	})

	const writers, perWriter = 8, 250
	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				sim.HandleSample(sensor.Sample{Kind: sensor.KindLinearAcceleration, Values: [3]float64{0.01, 0.01, 0}})
			}
		}()
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 1000; i++ {
			snap := sim.Snapshot()
			assert.True(t, common.IsFinite(snap.Position))
			_ = sim.Telemetry()
		}
	}()

	wg.Wait()
	<-done
	assert.Equal(t, uint64(writers*perWriter), sim.Telemetry().Accepted)
}

func TestRunStopsOnCancel(t *testing.T) {
	sim := newTestSimulation(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := sim.Run(ctx, make(chan sensor.Sample))
	require.ErrorIs(t, err, context.Canceled)
}

func TestRunConsumesQueue(t *testing.T) {
	sim := newTestSimulation(t, nil)
	samples := make(chan sensor.Sample, 3)
	samples <- gyroSample([3]float64{0, 1, 0}, 1_000_000_000)
	samples <- gyroSample([3]float64{0, 1, 0}, 1_010_000_000)
	samples <- sensor.Sample{Kind: sensor.KindLinearAcceleration}
	close(samples)

	require.NoError(t, sim.Run(context.Background(), samples))
	tel := sim.Telemetry()
	assert.Equal(t, uint64(2), tel.Accepted)
	assert.Equal(t, uint64(1), tel.Ignored)
}

func TestTelemetryEstimatesSampleRate(t *testing.T) {
	sim := newTestSimulation(t, nil)
	for i := 0; i < 50; i++ {
		sim.HandleSample(gyroSample([3]float64{}, int64(time.Second)+int64(i)*int64(10*time.Millisecond)))
	}

	tel := sim.Telemetry()
	assert.Equal(t, uint64(50), tel.Accepted)
	assert.InDelta(t, float64(10*time.Millisecond), float64(tel.MeanInterval), float64(time.Microsecond))
	assert.Less(t, tel.StdDevInterval, time.Microsecond)
	assert.InDelta(t, 100, tel.SampleRate, 0.01)
}
