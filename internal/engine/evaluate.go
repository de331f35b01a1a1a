package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"phylogen/internal/genome"
)

// Evaluator is the external fitness function. It must be referentially
// transparent for identical genome content within a single run.
type Evaluator interface {
	Evaluate(ctx context.Context, g genome.Genome) (float64, error)
}

// EvaluatorFunc adapts a plain function to Evaluator.
type EvaluatorFunc func(ctx context.Context, g genome.Genome) (float64, error)

func (f EvaluatorFunc) Evaluate(ctx context.Context, g genome.Genome) (float64, error) {
	return f(ctx, g)
}

// PhenotypeEvaluator optionally returns the compiled artifact alongside the
// score; the engine caches it on the individual without inspecting it.
type PhenotypeEvaluator interface {
	Evaluator
	EvaluateWithPhenotype(ctx context.Context, g genome.Genome) (float64, any, error)
}

// EvalConfig bounds the evaluation batch.
type EvalConfig struct {
	// Workers caps concurrent in-flight evaluations.
	Workers int
	// Timeout applies per evaluation call; zero means no timeout.
	Timeout time.Duration
	// WorstScore is substituted for an individual whose evaluation failed
	// twice; normally the floor of the score range.
	WorstScore float64
}

// EvaluatePopulation scores every individual lacking a cached fitness.
// Individuals already scored (untouched elites, pure clones) are skipped.
// A single failed evaluation is retried once and then substituted with the
// worst-case score rather than aborting the run; the failure count is
// returned for the generation snapshot. When every pending evaluation in
// the batch fails the outage is escalated instead.
func EvaluatePopulation(ctx context.Context, cfg EvalConfig, evaluator Evaluator, population []Individual) ([]Individual, int, error) {
	if evaluator == nil {
		return nil, 0, fmt.Errorf("evaluator is required")
	}

	pending := make([]int, 0, len(population))
	for i := range population {
		if !population[i].Evaluated() {
			pending = append(pending, i)
		}
	}
	if len(pending) == 0 {
		return population, 0, nil
	}

	type result struct {
		idx       int
		fitness   float64
		phenotype any
		failed    bool
		err       error
	}

	jobs := make(chan int)
	results := make(chan result, len(pending))

	workerCount := cfg.Workers
	if workerCount < 1 {
		workerCount = 1
	}
	if workerCount > len(pending) {
		workerCount = len(pending)
	}

	var wg sync.WaitGroup
	wg.Add(workerCount)
	for w := 0; w < workerCount; w++ {
		go func() {
			defer wg.Done()
			for idx := range jobs {
				if err := ctx.Err(); err != nil {
					results <- result{idx: idx, err: err}
					continue
				}

				fitness, phenotype, err := evaluateOnce(ctx, cfg.Timeout, evaluator, population[idx].Genome)
				if err != nil && ctx.Err() == nil {
					fitness, phenotype, err = evaluateOnce(ctx, cfg.Timeout, evaluator, population[idx].Genome)
				}
				if err != nil {
					if ctxErr := ctx.Err(); ctxErr != nil {
						results <- result{idx: idx, err: ctxErr}
						continue
					}
					results <- result{idx: idx, fitness: cfg.WorstScore, failed: true}
					continue
				}
				results <- result{idx: idx, fitness: fitness, phenotype: phenotype}
			}
		}()
	}

	for _, idx := range pending {
		jobs <- idx
	}
	close(jobs)

	wg.Wait()
	close(results)

	out := make([]Individual, len(population))
	copy(out, population)
	failures := 0
	for res := range results {
		if res.err != nil {
			return nil, 0, res.err
		}
		fitness := res.fitness
		out[res.idx].Fitness = &fitness
		out[res.idx].Phenotype = res.phenotype
		if res.failed {
			failures++
		}
	}

	if failures == len(pending) {
		return nil, failures, fmt.Errorf("%w: all %d pending evaluations failed", ErrEvaluatorOutage, len(pending))
	}
	return out, failures, nil
}

// evaluateOnce applies the per-call timeout. A timed-out evaluation is
// indistinguishable from an evaluator failure to the caller.
func evaluateOnce(ctx context.Context, timeout time.Duration, evaluator Evaluator, g genome.Genome) (float64, any, error) {
	callCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	if withPhenotype, ok := evaluator.(PhenotypeEvaluator); ok {
		return withPhenotype.EvaluateWithPhenotype(callCtx, g)
	}
	fitness, err := evaluator.Evaluate(callCtx, g)
	return fitness, nil, err
}
