package engine

import "errors"

var (
	// ErrIncompatibleGenome marks a crossover between genomes of different
	// families or shapes. Fatal to the run, never coerced.
	ErrIncompatibleGenome = errors.New("incompatible genome shapes")

	// ErrPopulationSize marks a generational transition that would change
	// the population size. Programming-level invariant, always fatal.
	ErrPopulationSize = errors.New("population size invariant violation")

	// ErrEvaluatorOutage marks a batch in which every pending evaluation
	// failed. Escalated to a failed run.
	ErrEvaluatorOutage = errors.New("fitness evaluator outage")
)
