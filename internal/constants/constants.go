// Package constants provides named constants used throughout the beliefsim codebase.
// This centralizes the reference experiment values so every package agrees on them.
package constants

// Population initialization constants
const (
	// InitialBeliefMin is the lower bound of the uniform band initial beliefs are drawn from.
	InitialBeliefMin = 0.4

	// InitialBeliefMax is the upper bound of the uniform band initial beliefs are drawn from.
	// Agents start near-undecided.
	InitialBeliefMax = 0.6

	// TrustMeanA is the mean of the trust distribution for demographic A ("female").
	TrustMeanA = 0.4

	// TrustMeanB is the mean of the trust distribution for demographic B ("male").
	TrustMeanB = 0.6

	// TrustStdDev is the standard deviation shared by both trust distributions.
	TrustStdDev = 0.05

	// TrustClipMin is the lowest trust value an agent can be initialized with.
	TrustClipMin = 0.1

	// TrustClipMax is the highest trust value an agent can be initialized with.
	TrustClipMax = 0.9
)

// Belief propagation constants
const (
	// BeliefThreshold is the belief a neighbor must exceed before it broadcasts.
	BeliefThreshold = 0.6

	// CorrectionSignal is the value carried by a corrective message.
	CorrectionSignal = 0.9

	// MisinformationSignal is the value carried by a misinformation message.
	MisinformationSignal = 0.1

	// NoiseStdDev is the standard deviation of the per-step Gaussian belief drift.
	NoiseStdDev = 0.02
)

// Experiment defaults
const (
	DefaultAgents               = 100
	DefaultTimesteps            = 50
	DefaultMisinformationRate   = 0.3
	DefaultKNeighbors           = 6
	DefaultRewireProb           = 0.2
	DefaultInterventionStep     = 30
	DefaultPostInterventionRate = 0.1

	// DefaultTrustLevelCount is how many evenly spaced trust levels a sweep covers
	// between TrustClipMin and TrustClipMax.
	DefaultTrustLevelCount = 9
)

// DefaultTrustLevels returns the reference sweep: 9 evenly spaced values in [0.1, 0.9].
func DefaultTrustLevels() []float64 {
	return Linspace(TrustClipMin, TrustClipMax, DefaultTrustLevelCount)
}

// Linspace returns n evenly spaced values from start to stop inclusive.
// n <= 0 yields an empty slice; n == 1 yields [start].
func Linspace(start, stop float64, n int) []float64 {
	if n <= 0 {
		return []float64{}
	}
	if n == 1 {
		return []float64{start}
	}
	out := make([]float64, n)
	step := (stop - start) / float64(n-1)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	// Pin the endpoint so accumulated float error never pushes it past stop.
	out[n-1] = stop
	return out
}
