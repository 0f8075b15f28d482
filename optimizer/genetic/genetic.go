// Package genetic is a reusable genetic-algorithm engine: roulette-wheel
// selection, single-point crossover, and independent bit-flip mutation over
// fixed-length boolean chromosomes, built around an injectable *rand.Rand so
// a run is fully determined by its seed.
package genetic

import "math/rand"

// Individual is a fixed-length chromosome of independent bits.
type Individual []bool

// ToInt decodes the chromosome as an unsigned integer, bit i contributing
// 2^i (least-significant bit first).
func (ind Individual) ToInt() int {
	result := 0
	for i, bit := range ind {
		if bit {
			result |= 1 << uint(i)
		}
	}
	return result
}

// Population is an ordered collection of individuals.
type Population []Individual

// FitnessFunc scores one individual; higher is better. Must be non-negative
// for the roulette-wheel selection below to behave.
type FitnessFunc func(Individual) float64

// Options configures the search.
type Options struct {
	ChromosomeLength int
	PopulationSize   int
	MutationRate     float64
	CrossoverRate    float64
	Generations      int
}

// NewDefaultOptions returns the default tuning: population 20, chromosome
// length 10, mutation rate 0.01, crossover rate 0.7, 20 generations.
func NewDefaultOptions() *Options {
	return &Options{
		ChromosomeLength: 10,
		PopulationSize:   20,
		MutationRate:     0.01,
		CrossoverRate:    0.7,
		Generations:      20,
	}
}

// Algorithm runs the evolutionary loop against a caller-supplied fitness
// function and random source.
type Algorithm struct {
	opt     *Options
	fitness FitnessFunc
	rng     *rand.Rand
}

// New builds an Algorithm. opt may be nil to use NewDefaultOptions(). rng
// must not be nil: it is the sole source of randomness, so the same rng seed
// reproduces an identical run end to end.
func New(opt *Options, fitness FitnessFunc, rng *rand.Rand) *Algorithm {
	if opt == nil {
		opt = NewDefaultOptions()
	}
	return &Algorithm{opt: opt, fitness: fitness, rng: rng}
}

// Run evolves a random initial population for opt.Generations generations
// and returns the final population alongside its fitness values; fitnesses[i]
// is the fitness of population[i].
func (a *Algorithm) Run() (Population, []float64) {
	population := a.randomPopulation()
	for g := 0; g < a.opt.Generations; g++ {
		fitnesses := a.evaluate(population)
		next := make(Population, 0, len(population))
		for len(next) < len(population) {
			parent1 := a.selectOne(population, fitnesses)
			parent2 := a.selectOne(population, fitnesses)
			child1, child2 := a.crossover(parent1, parent2)
			next = append(next, a.mutate(child1), a.mutate(child2))
		}
		population = next
	}
	return population, a.evaluate(population)
}

func (a *Algorithm) randomIndividual() Individual {
	ind := make(Individual, a.opt.ChromosomeLength)
	for i := range ind {
		ind[i] = a.rng.Intn(2) == 1
	}
	return ind
}

func (a *Algorithm) randomPopulation() Population {
	pop := make(Population, a.opt.PopulationSize)
	for i := range pop {
		pop[i] = a.randomIndividual()
	}
	return pop
}

func (a *Algorithm) evaluate(population Population) []float64 {
	out := make([]float64, len(population))
	for i, ind := range population {
		out[i] = a.fitness(ind)
	}
	return out
}

// selectOne picks one individual via fitness-proportionate (roulette-wheel)
// sampling; when the total fitness is 0 it falls back to a uniform draw.
func (a *Algorithm) selectOne(population Population, fitnesses []float64) Individual {
	total := 0.0
	for _, f := range fitnesses {
		total += f
	}
	if total <= 0 {
		return population[a.rng.Intn(len(population))]
	}

	threshold := a.rng.Float64() * total
	cum := 0.0
	for i, f := range fitnesses {
		cum += f
		if cum >= threshold {
			return population[i]
		}
	}
	return population[len(population)-1]
}

// crossover performs single-point crossover at a random internal index with
// probability opt.CrossoverRate; otherwise the parents are cloned unchanged.
func (a *Algorithm) crossover(p1, p2 Individual) (Individual, Individual) {
	if a.rng.Float64() >= a.opt.CrossoverRate {
		return cloneIndividual(p1), cloneIndividual(p2)
	}

	point := 1 + a.rng.Intn(len(p1)-1)
	c1 := make(Individual, len(p1))
	c2 := make(Individual, len(p1))
	copy(c1[:point], p1[:point])
	copy(c1[point:], p2[point:])
	copy(c2[:point], p2[:point])
	copy(c2[point:], p1[point:])
	return c1, c2
}

// mutate independently flips each bit with probability opt.MutationRate.
func (a *Algorithm) mutate(ind Individual) Individual {
	out := make(Individual, len(ind))
	for i, bit := range ind {
		if a.rng.Float64() < a.opt.MutationRate {
			out[i] = !bit
		} else {
			out[i] = bit
		}
	}
	return out
}

func cloneIndividual(ind Individual) Individual {
	out := make(Individual, len(ind))
	copy(out, ind)
	return out
}
