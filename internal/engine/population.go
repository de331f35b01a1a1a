package engine

import (
	"context"
	"fmt"
	"math/rand"

	"golang.org/x/sync/errgroup"

	"phylogen/internal/genome"
)

// diversitySampleLimit caps the pairwise comparisons; above it the
// population is sampled on a deterministic stride.
const diversitySampleLimit = 64

// InitializePopulation asks the factory for size genomes in parallel and
// wraps them as generation-zero individuals with no parents and no fitness.
// Each slot derives its own random stream from the run seed so the result
// is deterministic regardless of scheduling.
func InitializePopulation(ctx context.Context, factory genome.Factory, template genome.Template, size, workers int, seed int64) ([]Individual, error) {
	if factory == nil {
		return nil, fmt.Errorf("genome factory is required")
	}
	if template == nil {
		return nil, fmt.Errorf("genome template is required")
	}
	if size < 1 {
		return nil, fmt.Errorf("population size must be >= 1")
	}
	if workers < 1 {
		workers = 1
	}

	population := make([]Individual, size)
	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(workers)
	for i := 0; i < size; i++ {
		idx := i
		group.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			slotRNG := newSlotRNG(seed, idx)
			g, err := factory.Random(slotRNG, template)
			if err != nil {
				return fmt.Errorf("generate genome %d: %w", idx, err)
			}
			population[idx] = Individual{
				ID:         newID(),
				Genome:     g,
				Generation: 0,
			}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	return population, nil
}

// Replace swaps in the next generation, asserting the fixed-size invariant.
// A size mismatch is a fatal programming error, not silently corrected.
func Replace(next []Individual, populationSize int) ([]Individual, error) {
	if len(next) != populationSize {
		return nil, fmt.Errorf("%w: got=%d want=%d", ErrPopulationSize, len(next), populationSize)
	}
	return next, nil
}

// Diversity is a deterministic normalized dissimilarity over the population:
// 0 when all genomes are structurally identical, approaching 1 at maximal
// observed dissimilarity. It averages pairwise family distances, sampling on
// a stride for large populations; without a usable distance it falls back to
// the distinct-fingerprint ratio.
func Diversity(ops genome.Ops, population []Individual) float64 {
	if len(population) < 2 {
		return 0
	}

	sample := population
	if len(sample) > diversitySampleLimit {
		stride := len(population) / diversitySampleLimit
		if stride < 1 {
			stride = 1
		}
		sampled := make([]Individual, 0, diversitySampleLimit)
		for i := 0; i < len(population) && len(sampled) < diversitySampleLimit; i += stride {
			sampled = append(sampled, population[i])
		}
		sample = sampled
	}

	if ops == nil {
		return fingerprintDiversity(sample)
	}

	pairs := 0
	total := 0.0
	for i := 0; i < len(sample); i++ {
		for j := i + 1; j < len(sample); j++ {
			if sample[i].Genome == nil || sample[j].Genome == nil {
				continue
			}
			total += ops.Distance(sample[i].Genome, sample[j].Genome)
			pairs++
		}
	}
	if pairs == 0 {
		return fingerprintDiversity(sample)
	}

	diversity := total / float64(pairs)
	if diversity < 0 {
		return 0
	}
	if diversity > 1 {
		return 1
	}
	return diversity
}

// newSlotRNG derives an independent stream per population slot so parallel
// generation stays reproducible for a fixed seed.
func newSlotRNG(seed int64, slot int) *rand.Rand {
	return rand.New(rand.NewSource(seed + int64(slot)*0x9E3779B9))
}

func fingerprintDiversity(population []Individual) float64 {
	fingerprints := make(map[string]struct{}, len(population))
	counted := 0
	for _, ind := range population {
		if ind.Genome == nil {
			continue
		}
		fingerprints[ind.Genome.Fingerprint()] = struct{}{}
		counted++
	}
	if counted < 2 {
		return 0
	}
	return float64(len(fingerprints)-1) / float64(counted-1)
}
