package simulation

import (
	"time"

	"gonum.org/v1/gonum/stat"
)

// Telemetry summarizes the samples a simulation has processed.
type Telemetry struct {
	Accepted   uint64 // samples of the configured kind
	Ignored    uint64 // samples of any other kind
	Bootstraps uint64 // samples that only seeded the clock
	Collisions uint64 // accepted samples whose motion hit a wall
	Rejected   uint64 // candidates discarded for being non-finite

	// Interval statistics over the most recent timestamped samples.
	MeanInterval   time.Duration
	StdDevInterval time.Duration
	SampleRate     float64 // Hz, 0 until enough samples arrived
}

// recorder accumulates telemetry. It is owned by the writer.
type recorder struct {
	window int
	stamps []float64 // seconds, oldest first
	totals Telemetry
}

func newRecorder(window int) *recorder {
	if window < 2 {
		window = 2
	}
	return &recorder{window: window, stamps: make([]float64, 0, window)}
}

// observe records the timestamp of an accepted sample. Samples without a
// timestamp or older than the previous one are not part of the window.
func (r *recorder) observe(timestamp int64) {
	if timestamp <= 0 {
		return
	}
	t := float64(timestamp) / 1e9
	if n := len(r.stamps); n > 0 && t <= r.stamps[n-1] {
		return
	}
	if len(r.stamps) == r.window {
		copy(r.stamps, r.stamps[1:])
		r.stamps = r.stamps[:len(r.stamps)-1]
	}
	r.stamps = append(r.stamps, t)
}

// reset drops the interval window and every counter.
func (r *recorder) reset() {
	r.stamps = r.stamps[:0]
	r.totals = Telemetry{}
}

// snapshot computes interval statistics from the current window.
func (r *recorder) snapshot() Telemetry {
	out := r.totals
	if len(r.stamps) < 3 {
		return out
	}

	intervals := make([]float64, len(r.stamps)-1)
	for i := range intervals {
		intervals[i] = r.stamps[i+1] - r.stamps[i]
	}
	mean, std := stat.MeanStdDev(intervals, nil)
	out.MeanInterval = time.Duration(mean * 1e9)
	out.StdDevInterval = time.Duration(std * 1e9)

	// Timestamp against sample index: the slope is seconds per sample.
	index := make([]float64, len(r.stamps))
	for i := range index {
		index[i] = float64(i)
	}
	_, beta := stat.LinearRegression(index, r.stamps, nil, false)
	if beta > 0 {
		out.SampleRate = 1 / beta
	}
	return out
}
