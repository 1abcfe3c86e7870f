package simulation

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r2"

	"tiltmaze/internal/common"
	"tiltmaze/internal/config"
	"tiltmaze/internal/maze"
	"tiltmaze/internal/physics"
	"tiltmaze/internal/sensor"
)

// Simulation owns the ball state and turns sensor samples into committed
// updates. Any number of goroutines may read from it; writes are serialized.
type Simulation struct {
	id         string
	layout     *maze.Layout
	arena      *physics.Arena
	integrator physics.Integrator
	resolver   physics.Resolver
	start      r2.Vec
	state      *State
	logger     *zap.Logger

	writeMu   sync.Mutex // held for the whole read-integrate-resolve-commit cycle
	telemetry *recorder
}

// NewSimulation creates a simulation session from a validated configuration.
// A nil logger disables logging.
func NewSimulation(cfg config.Config, logger *zap.Logger) (*Simulation, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	layout, err := maze.New(cfg.Viewport.Width, cfg.Viewport.Height, cfg.Maze.WallThickness, cfg.Maze.CellWidth)
	if err != nil {
		return nil, fmt.Errorf("failed to generate maze: %w", err)
	}
	kind, err := cfg.SensorKind()
	if err != nil {
		return nil, fmt.Errorf("failed to select sensor: %w", err)
	}
	integrator, err := physics.NewIntegrator(kind, cfg.Physics.AccelScale, cfg.Physics.Damping)
	if err != nil {
		return nil, fmt.Errorf("failed to create integrator: %w", err)
	}
	resolver, err := physics.NewResolver(cfg.Physics.Resolver, cfg.Physics.Restitution)
	if err != nil {
		return nil, fmt.Errorf("failed to create resolver: %w", err)
	}

	id := fmt.Sprintf("session-%s", uuid.NewString()[:8])
	start := common.Vec(cfg.Ball.StartX, cfg.Ball.StartY)
	s := &Simulation{
		id:     id,
		layout: layout,
		arena: &physics.Arena{
			Walls:  layout.Walls(),
			Bounds: layout.Bounds(),
			Radius: cfg.Ball.Radius,
		},
		integrator: integrator,
		resolver:   resolver,
		start:      start,
		state:      NewState(start),
		logger:     logger.With(zap.String("session", id)),
		telemetry:  newRecorder(cfg.Telemetry.Window),
	}

	s.logger.Info("simulation created",
		zap.Stringer("sensor", kind),
		zap.String("resolver", cfg.Physics.Resolver),
		zap.Int("walls", layout.NumWalls()),
		zap.String("start", common.Format(start)),
	)
	return s, nil
}

// GetID returns the unique identifier of the session.
func (s *Simulation) GetID() string {
	return s.id
}

// SensorKind returns the kind of samples the simulation consumes.
func (s *Simulation) SensorKind() sensor.Kind {
	return s.integrator.Kind()
}

// HandleSample processes one sensor sample to completion. It reports whether
// the sample was of the configured kind and therefore recorded.
func (s *Simulation) HandleSample(sample sensor.Sample) bool {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if sample.Kind != s.integrator.Kind() {
		s.telemetry.totals.Ignored++
		s.logger.Debug("ignoring sample", zap.Stringer("kind", sample.Kind))
		return false
	}
	s.telemetry.totals.Accepted++

	snap := s.state.Snapshot()
	position, velocity := snap.Position, snap.Velocity

	motion := s.integrator.Integrate(snap.Body(), sample)
	if motion.Moved {
		res := s.resolver.Resolve(s.arena, snap.Position, motion)
		if res.Collided {
			s.telemetry.totals.Collisions++
			s.logger.Debug("wall collision",
				zap.Int("wall", res.Wall),
				zap.String("candidate", common.Format(motion.Position)),
				zap.String("resolved", common.Format(res.Position)),
			)
		}
		position, velocity = res.Position, res.Velocity
		if res.Discarded || !common.IsFinite(position) || !common.IsFinite(velocity) {
			s.telemetry.totals.Rejected++
			s.logger.Warn("discarding non-finite motion",
				zap.String("candidate_position", common.Format(motion.Position)),
				zap.String("candidate_velocity", common.Format(motion.Velocity)),
				zap.Stringer("sample", sample),
			)
			position, velocity = snap.Position, common.Zero
		}
	} else if !snap.Seeded {
		s.telemetry.totals.Bootstraps++
		s.logger.Debug("clock seeded", zap.Int64("timestamp", sample.Timestamp))
	}

	s.state.ApplyUpdate(position, velocity, sample.Timestamp)
	s.telemetry.observe(sample.Timestamp)
	return true
}

// Run consumes samples until the channel is closed or ctx is done. It is the
// single update queue for sources that deliver from several goroutines.
func (s *Simulation) Run(ctx context.Context, samples <-chan sensor.Sample) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case sample, ok := <-samples:
			if !ok {
				return nil
			}
			s.HandleSample(sample)
		}
	}
}

// Reset restarts the session: the ball returns to its start position at rest
// and the next timestamped sample is treated as a bootstrap again. Telemetry
// starts over as well, counters included.
func (s *Simulation) Reset() {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.state.Reset(s.start)
	s.telemetry.reset()
	s.logger.Info("simulation reset")
}

// Snapshot returns the latest committed state.
func (s *Simulation) Snapshot() Snapshot {
	return s.state.Snapshot()
}

// Ball returns the ball center and radius for drawing.
func (s *Simulation) Ball() (r2.Vec, float64) {
	return s.state.CurrentPosition(), s.arena.Radius
}

// Walls returns a copy of the wall set in insertion order.
func (s *Simulation) Walls() []common.Rect {
	return s.layout.Walls()
}

// Bounds returns the playfield rectangle.
func (s *Simulation) Bounds() common.Rect {
	return s.arena.Bounds
}

// Telemetry returns the sample statistics gathered so far.
func (s *Simulation) Telemetry() Telemetry {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.telemetry.snapshot()
}

// String representation for logging
func (s *Simulation) String() string {
	snap := s.state.Snapshot()
	return fmt.Sprintf("Simulation[%s] Pos: %s Vel: %s", s.id, common.Format(snap.Position), common.Format(snap.Velocity))
}
