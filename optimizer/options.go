package optimizer

import "github.com/zappai-go/zappai/optimizer/genetic"

// Options configures the planting-window search.
type Options struct {
	// HorizonMonths is H, the length of the forecast the genetic search ranges
	// over.
	HorizonMonths int
	// TopK bounds how many distinct sowing/harvest windows are returned.
	TopK int
	// Genetic configures the underlying genetic-algorithm engine.
	Genetic *genetic.Options
}

// NewDefaultOptions returns the default tuning: a 24-month horizon, top 5
// distinct windows, and the genetic engine's own defaults (population 20,
// chromosome length 10, mutation 0.01, crossover 0.7, 20 generations).
func NewDefaultOptions() *Options {
	return &Options{
		HorizonMonths: 24,
		TopK:          5,
		Genetic:       genetic.NewDefaultOptions(),
	}
}
