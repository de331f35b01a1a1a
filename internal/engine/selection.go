package engine

import (
	"fmt"
	"math/rand"
	"sort"
)

// TournamentSelector draws Size individuals uniformly with replacement and
// keeps the fittest. Size 1 degenerates to uniform random selection; at
// equal fitness the first-encountered candidate wins, so the only
// nondeterminism is the draw itself.
type TournamentSelector struct {
	Size int
}

func (s TournamentSelector) Pick(rng *rand.Rand, population []Individual) (Individual, error) {
	if rng == nil {
		return Individual{}, fmt.Errorf("random source is required")
	}
	if s.Size < 1 {
		return Individual{}, fmt.Errorf("tournament size must be >= 1")
	}
	if len(population) == 0 {
		return Individual{}, fmt.Errorf("population is empty")
	}

	best := population[rng.Intn(len(population))]
	for i := 1; i < s.Size; i++ {
		candidate := population[rng.Intn(len(population))]
		if fitnessOf(candidate) > fitnessOf(best) {
			best = candidate
		}
	}
	return best, nil
}

// SelectParents runs two independent tournaments. The same individual may
// win both; self-crossover is degenerate but legal.
func SelectParents(rng *rand.Rand, selector TournamentSelector, population []Individual) (Individual, Individual, error) {
	first, err := selector.Pick(rng, population)
	if err != nil {
		return Individual{}, Individual{}, err
	}
	second, err := selector.Pick(rng, population)
	if err != nil {
		return Individual{}, Individual{}, err
	}
	return first, second, nil
}

// CarryElite copies the top eliteCount individuals by fitness into the next
// generation verbatim: age incremented, fitness preserved, no re-evaluation.
func CarryElite(population []Individual, eliteCount int) []Individual {
	if eliteCount <= 0 || len(population) == 0 {
		return nil
	}
	if eliteCount > len(population) {
		eliteCount = len(population)
	}

	ranked := make([]Individual, len(population))
	copy(ranked, population)
	sort.SliceStable(ranked, func(i, j int) bool {
		return fitnessOf(ranked[i]) > fitnessOf(ranked[j])
	})

	elites := make([]Individual, 0, eliteCount)
	for i := 0; i < eliteCount; i++ {
		elite := ranked[i].Clone()
		elite.Age++
		elites = append(elites, elite)
	}
	return elites
}

// BestIndividual returns the highest-fitness individual, breaking ties by
// lowest age to prefer the most recently evolved.
func BestIndividual(population []Individual) (Individual, bool) {
	if len(population) == 0 {
		return Individual{}, false
	}
	best := population[0]
	for _, candidate := range population[1:] {
		cf, bf := fitnessOf(candidate), fitnessOf(best)
		if cf > bf || (cf == bf && candidate.Age < best.Age) {
			best = candidate
		}
	}
	return best, true
}
