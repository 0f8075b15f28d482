package genetic

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countBits is a simple maximization target: more set bits, higher fitness.
func countBits(ind Individual) float64 {
	n := 0.0
	for _, bit := range ind {
		if bit {
			n++
		}
	}
	return n
}

func TestRunIsDeterministicGivenTheSameSeed(t *testing.T) {
	opt := NewDefaultOptions()

	a := New(opt, countBits, rand.New(rand.NewSource(7)))
	popA, fitA := a.Run()

	b := New(opt, countBits, rand.New(rand.NewSource(7)))
	popB, fitB := b.Run()

	require.Equal(t, len(popA), len(popB))
	for i := range popA {
		assert.Equal(t, popA[i], popB[i])
	}
	assert.Equal(t, fitA, fitB)
}

func TestRunConvergesTowardHigherFitness(t *testing.T) {
	opt := NewDefaultOptions()
	opt.Generations = 40

	a := New(opt, countBits, rand.New(rand.NewSource(1)))
	initialPopulation := a.randomPopulation()
	initialFit := a.evaluate(initialPopulation)

	_, finalFit := a.Run()

	assert.Greater(t, mean(finalFit), mean(initialFit))
}

func mean(v []float64) float64 {
	if len(v) == 0 {
		return 0
	}
	var sum float64
	for _, x := range v {
		sum += x
	}
	return sum / float64(len(v))
}

func TestSelectOneFallsBackToUniformWhenTotalFitnessIsZero(t *testing.T) {
	opt := NewDefaultOptions()
	opt.PopulationSize = 5
	a := New(opt, func(Individual) float64 { return 0 }, rand.New(rand.NewSource(3)))

	population := a.randomPopulation()
	fitnesses := make([]float64, len(population))

	picked := a.selectOne(population, fitnesses)
	found := false
	for _, ind := range population {
		if equalIndividual(ind, picked) {
			found = true
			break
		}
	}
	assert.True(t, found, "uniform fallback must still pick a member of the population")
}

func TestSelectOneFavorsHigherFitness(t *testing.T) {
	opt := NewDefaultOptions()
	a := New(opt, countBits, rand.New(rand.NewSource(5)))

	population := Population{
		{true, true, true, true, true},
		{false, false, false, false, false},
	}
	fitnesses := []float64{100, 0}

	counts := map[int]int{}
	for i := 0; i < 200; i++ {
		picked := a.selectOne(population, fitnesses)
		if equalIndividual(picked, population[0]) {
			counts[0]++
		} else {
			counts[1]++
		}
	}
	assert.Greater(t, counts[0], counts[1])
}

func TestCrossoverAlwaysClonesWhenRateIsZero(t *testing.T) {
	opt := NewDefaultOptions()
	opt.CrossoverRate = 0
	a := New(opt, countBits, rand.New(rand.NewSource(9)))

	p1 := Individual{true, true, true, true}
	p2 := Individual{false, false, false, false}
	c1, c2 := a.crossover(p1, p2)
	assert.Equal(t, p1, c1)
	assert.Equal(t, p2, c2)
}

func TestMutateNeverFlipsWhenRateIsZero(t *testing.T) {
	opt := NewDefaultOptions()
	opt.MutationRate = 0
	a := New(opt, countBits, rand.New(rand.NewSource(11)))

	ind := Individual{true, false, true, false, true}
	mutated := a.mutate(ind)
	assert.Equal(t, ind, mutated)
}

func TestIndividualToIntIsLittleEndian(t *testing.T) {
	ind := Individual{true, false, true, false, false}
	assert.Equal(t, 5, ind.ToInt())
}

func equalIndividual(a, b Individual) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
