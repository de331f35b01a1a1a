package engine

import (
	"fmt"
	"math/rand"

	"phylogen/internal/genome"
)

// Mutate flips a coin per mutable unit at the given rate and perturbs the
// chosen units through the family's per-unit operator. When no unit is
// chosen (or the rate is zero) the individual is returned unchanged with its
// cached fitness intact; otherwise the genome is replaced, the mutation
// counter incremented, and fitness reset for re-evaluation.
func Mutate(rng *rand.Rand, ops genome.Ops, ind Individual, rate float64) (Individual, error) {
	if rng == nil {
		return Individual{}, fmt.Errorf("random source is required")
	}
	if ops == nil {
		return Individual{}, fmt.Errorf("genome ops are required")
	}
	if ind.Genome == nil {
		return Individual{}, fmt.Errorf("individual has no genome")
	}
	if ops.Family() != ind.Genome.Family() {
		return Individual{}, fmt.Errorf("%w: ops family %q vs genome family %q", ErrIncompatibleGenome, ops.Family(), ind.Genome.Family())
	}
	if rate <= 0 {
		return ind, nil
	}
	if rate > 1 {
		rate = 1
	}

	var chosen []int
	for unit := 0; unit < ind.Genome.UnitCount(); unit++ {
		if rng.Float64() < rate {
			chosen = append(chosen, unit)
		}
	}
	if len(chosen) == 0 {
		return ind, nil
	}

	mutated := ind.Genome
	for _, unit := range chosen {
		next, err := ops.MutateUnit(rng, mutated, unit)
		if err != nil {
			return Individual{}, fmt.Errorf("mutate unit %d: %w", unit, err)
		}
		if next == nil || next.Family() != ind.Genome.Family() {
			return Individual{}, fmt.Errorf("%w: mutation produced a malformed genome", ErrIncompatibleGenome)
		}
		mutated = next
	}

	out := ind
	out.Genome = mutated
	out.Fitness = nil
	out.Phenotype = nil
	out.MutationCount = ind.MutationCount + 1
	return out, nil
}

// Crossover combines two parents by uniform per-unit choice. The child's
// generation is one past the older parent and its fitness is unset.
func Crossover(rng *rand.Rand, ops genome.Ops, p1, p2 Individual) (Individual, error) {
	if rng == nil {
		return Individual{}, fmt.Errorf("random source is required")
	}
	if ops == nil {
		return Individual{}, fmt.Errorf("genome ops are required")
	}
	if p1.Genome == nil || p2.Genome == nil {
		return Individual{}, fmt.Errorf("both parents require genomes")
	}
	if p1.Genome.Family() != p2.Genome.Family() {
		return Individual{}, fmt.Errorf("%w: %q vs %q", ErrIncompatibleGenome, p1.Genome.Family(), p2.Genome.Family())
	}
	if ops.Family() != p1.Genome.Family() {
		return Individual{}, fmt.Errorf("%w: ops family %q vs genome family %q", ErrIncompatibleGenome, ops.Family(), p1.Genome.Family())
	}

	units := p1.Genome.UnitCount()
	if p2.Genome.UnitCount() > units {
		units = p2.Genome.UnitCount()
	}
	takeFirst := make([]bool, units)
	for i := range takeFirst {
		takeFirst[i] = rng.Float64() < 0.5
	}

	combined, err := ops.Combine(rng, p1.Genome, p2.Genome, takeFirst)
	if err != nil {
		return Individual{}, fmt.Errorf("%w: %v", ErrIncompatibleGenome, err)
	}
	if combined == nil || combined.Family() != p1.Genome.Family() {
		return Individual{}, fmt.Errorf("%w: crossover produced a malformed genome", ErrIncompatibleGenome)
	}

	generation := p1.Generation
	if p2.Generation > generation {
		generation = p2.Generation
	}
	return Individual{
		ID:             newID(),
		Genome:         combined,
		Generation:     generation + 1,
		ParentIDs:      []string{p1.ID, p2.ID},
		CrossoverCount: 1,
	}, nil
}
