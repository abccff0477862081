package network

import "math"

// PageRankConfig holds configuration for PageRank computation.
type PageRankConfig struct {
	// DampingFactor (d) is the probability of following an edge vs. teleporting.
	// Standard value: 0.85.
	DampingFactor float64

	// MaxIterations is the maximum number of power iteration steps. Default: 100.
	MaxIterations int

	// Tolerance is the convergence threshold. Default: 1e-6.
	Tolerance float64
}

// DefaultPageRankConfig returns the default PageRank configuration.
func DefaultPageRankConfig() PageRankConfig {
	return PageRankConfig{
		DampingFactor: 0.85,
		MaxIterations: 100,
		Tolerance:     1e-6,
	}
}

// ComputePageRank scores every agent's structural influence in the contact
// network. The result is indexed by node and normalized so the most central
// node scores 1.0.
//
// Algorithm: standard power iteration over the undirected graph
//  1. Initialize all nodes with score = 1/N
//  2. PR(v) = (1-d)/N + d * sum(PR(u)/degree(u)) for all neighbors u of v
//  3. Converge when max change < Tolerance
//  4. Normalize to [0, 1] by dividing by the max score
func ComputePageRank(g *Graph, config PageRankConfig) []float64 {
	n := g.NodeCount()
	if n == 0 {
		return []float64{}
	}

	d := config.DampingFactor
	nf := float64(n)
	scores := make([]float64, n)
	for i := range scores {
		scores[i] = 1.0 / nf
	}

	for iter := 0; iter < config.MaxIterations; iter++ {
		newScores := make([]float64, n)
		maxDelta := 0.0

		for v := 0; v < n; v++ {
			sum := 0.0
			for _, u := range g.Neighbors(v) {
				sum += scores[u] / float64(g.Degree(u))
			}

			newScore := (1.0-d)/nf + d*sum
			newScores[v] = newScore

			if delta := math.Abs(newScore - scores[v]); delta > maxDelta {
				maxDelta = delta
			}
		}

		scores = newScores

		if maxDelta < config.Tolerance {
			break
		}
	}

	maxScore := 0.0
	for _, score := range scores {
		if score > maxScore {
			maxScore = score
		}
	}
	if maxScore > 0 {
		for i := range scores {
			scores[i] /= maxScore
		}
	}

	return scores
}
