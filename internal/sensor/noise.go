package sensor

import "math/rand"

// NoiseFunction defines a function signature for adding noise to one axis of
// a reading. It takes the true value and returns the noisy value.
type NoiseFunction func(trueValue float64) float64

// NoNoise is a NoiseFunction that adds no noise.
func NoNoise(trueValue float64) float64 {
	return trueValue
}

// GaussianNoise creates a NoiseFunction that adds Gaussian (normal) noise.
// A nil rng uses the global source.
func GaussianNoise(rng *rand.Rand, stdDev float64) NoiseFunction {
	if stdDev < 0 {
		stdDev = 0
	}
	norm := rand.NormFloat64
	if rng != nil {
		norm = rng.NormFloat64
	}
	return func(trueValue float64) float64 {
		return trueValue + norm()*stdDev
	}
}

// UniformNoise creates a NoiseFunction that adds uniform noise within a range [-maxDelta, +maxDelta].
func UniformNoise(rng *rand.Rand, maxDelta float64) NoiseFunction {
	if maxDelta < 0 {
		maxDelta = 0
	}
	uniform := rand.Float64
	if rng != nil {
		uniform = rng.Float64
	}
	return func(trueValue float64) float64 {
		return trueValue + (uniform()*2-1)*maxDelta
	}
}
