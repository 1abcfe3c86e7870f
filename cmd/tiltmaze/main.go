package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/spatial/r2"

	"tiltmaze/internal/common"
	"tiltmaze/internal/config"
	"tiltmaze/internal/logging"
	"tiltmaze/internal/sensor"
	"tiltmaze/internal/simulation"
	"tiltmaze/internal/visualization"
)

var (
	configPath  = flag.String("config", "", "path to a YAML config file (defaults when empty)")
	headless    = flag.Bool("headless", false, "run without a window, fed by a synthetic sensor")
	numSamples  = flag.Int("samples", 3000, "number of synthetic samples in headless mode (0 = until interrupted)")
	interval    = flag.Duration("interval", 16*time.Millisecond, "nominal synthetic sensor interval")
	jitter      = flag.Float64("jitter", 0.25, "synthetic sensor interval jitter as a fraction of -interval")
	noiseStdDev = flag.Float64("noise", 0.05, "standard deviation of Gaussian noise added to synthetic readings")
	seed        = flag.Int64("seed", 0, "synthetic sensor seed (0 = time based)")
	windowScale = flag.Float64("scale", 1.0, "window size relative to the viewport (overrides window.scale)")
)

func main() {
	flag.Parse()

	cfg, err := config.LoadFile(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "scale" {
			cfg.Window.Scale = *windowScale
		}
	})
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error in -scale: %v\n", err)
		os.Exit(2)
	}

	logger, err := logging.New(cfg.Log.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	sim, err := simulation.NewSimulation(cfg, logger)
	if err != nil {
		logger.Fatal("failed to create simulation", zap.Error(err))
	}

	if *headless {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		if err := runHeadless(ctx, sim, logger); err != nil {
			logger.Error("headless run failed", zap.Error(err))
			os.Exit(1)
		}
		return
	}

	width, height := cfg.WindowSize()
	if err := visualization.Run(sim, "Tilt Maze", width, height); err != nil {
		logger.Error("window closed with error", zap.Error(err))
		os.Exit(1)
	}
}

// runHeadless drives the simulation from a synthetic sensor on its own
// goroutine, the way a device delivers samples on a dedicated thread.
func runHeadless(ctx context.Context, sim *simulation.Simulation, logger *zap.Logger) error {
	// The tilt slowly sweeps around a circle so the ball visits the walls.
	tilt := func(elapsed time.Duration) r2.Vec {
		angle := elapsed.Seconds() * 0.7
		return r2.Vec{X: math.Cos(angle), Y: math.Sin(angle)}
	}
	src, err := sensor.NewSource(sensor.SourceConfig{
		Kind:     sim.SensorKind(),
		Interval: *interval,
		Jitter:   *jitter,
		Tilt:     tilt,
		Noise:    sensor.GaussianNoise(nil, *noiseStdDev),
		Seed:     *seed,
	})
	if err != nil {
		return fmt.Errorf("failed to create sensor source: %w", err)
	}
	logger.Info("starting headless run", zap.Stringer("source", src), zap.Int("samples", *numSamples))

	samples := make(chan sensor.Sample, 64)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(samples)
		return src.Stream(gctx, *numSamples, samples)
	})
	g.Go(func() error {
		return sim.Run(gctx, samples)
	})
	if err := g.Wait(); err != nil && ctx.Err() == nil {
		return err
	}

	snap := sim.Snapshot()
	tel := sim.Telemetry()
	logger.Info("headless run finished",
		zap.String("position", common.Format(snap.Position)),
		zap.String("velocity", common.Format(snap.Velocity)),
		zap.Uint64("accepted", tel.Accepted),
		zap.Uint64("collisions", tel.Collisions),
		zap.Uint64("rejected", tel.Rejected),
		zap.Duration("mean_interval", tel.MeanInterval),
		zap.Duration("stddev_interval", tel.StdDevInterval),
		zap.Float64("sample_rate_hz", tel.SampleRate),
	)
	return nil
}
