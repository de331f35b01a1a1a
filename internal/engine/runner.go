package engine

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"phylogen/internal/genome"
	"phylogen/internal/model"
)

// Command is a control message delivered to a running evolution loop.
// Commands are honored at generation boundaries only, never mid-batch, so a
// partially scored population is never observable.
type Command int

const CommandCancel Command = iota + 1

// RunConfig parameterizes one evolution run. All fields are validated before
// the run is created.
type RunConfig struct {
	RunID            string
	PopulationSize   int
	MutationRate     float64
	CrossoverRate    float64
	EliteCount       int
	TournamentSize   int
	MaxGenerations   int
	FitnessThreshold float64

	// ScoreFloor and ScoreCeil bound the evaluator's score range. The
	// floor doubles as the worst-case substitute for failed evaluations.
	// Both zero selects the default [0, 1].
	ScoreFloor float64
	ScoreCeil  float64

	Seed        int64
	Workers     int
	EvalTimeout time.Duration
	Template    genome.Template
}

func (c *RunConfig) Validate() error {
	if c.ScoreFloor == 0 && c.ScoreCeil == 0 {
		c.ScoreCeil = 1
	}
	if c.Workers < 1 {
		c.Workers = 1
	}
	if c.PopulationSize < 2 {
		return fmt.Errorf("population size must be >= 2, got %d", c.PopulationSize)
	}
	if c.MutationRate < 0 || c.MutationRate > 1 {
		return fmt.Errorf("mutation rate must be in [0, 1], got %v", c.MutationRate)
	}
	if c.CrossoverRate < 0 || c.CrossoverRate > 1 {
		return fmt.Errorf("crossover rate must be in [0, 1], got %v", c.CrossoverRate)
	}
	if c.EliteCount < 0 || c.EliteCount >= c.PopulationSize {
		return fmt.Errorf("elite count must be in [0, population size), got %d", c.EliteCount)
	}
	if c.TournamentSize < 1 {
		return fmt.Errorf("tournament size must be >= 1, got %d", c.TournamentSize)
	}
	if c.MaxGenerations < 1 {
		return fmt.Errorf("max generations must be >= 1, got %d", c.MaxGenerations)
	}
	if c.ScoreCeil <= c.ScoreFloor {
		return fmt.Errorf("score range is invalid: floor=%v ceil=%v", c.ScoreFloor, c.ScoreCeil)
	}
	if c.FitnessThreshold < c.ScoreFloor || c.FitnessThreshold > c.ScoreCeil {
		return fmt.Errorf("fitness threshold must be in [%v, %v], got %v", c.ScoreFloor, c.ScoreCeil, c.FitnessThreshold)
	}
	if c.Template == nil {
		return fmt.Errorf("genome template is required")
	}
	return nil
}

// RunState is a consistent point-in-time view of a run.
type RunState struct {
	Status         model.RunStatus
	Cancelled      bool
	Generation     int
	BestFitness    float64
	AverageFitness float64
	Diversity      float64
	Err            error
}

// RunResult is the terminal outcome of a run. History is retained even for
// failed runs so the last good generations stay inspectable.
type RunResult struct {
	Status          model.RunStatus
	Cancelled       bool
	Best            Individual
	HasBest         bool
	History         []model.GenerationSnapshot
	FinalPopulation []Individual
}

// Runner drives a single evolution run through
// Initializing -> Evolving -> {Converged | Terminated | Failed}. Each run
// owns its population and RNG stream; runners never share state.
type Runner struct {
	cfg       RunConfig
	factory   genome.Factory
	ops       genome.Ops
	evaluator Evaluator
	rng       *rand.Rand
	control   chan Command

	mu      sync.RWMutex
	state   RunState
	history []model.GenerationSnapshot
	best    *Individual
}

func NewRunner(cfg RunConfig, factory genome.Factory, ops genome.Ops, evaluator Evaluator) (*Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if factory == nil {
		return nil, fmt.Errorf("genome factory is required")
	}
	if ops == nil {
		return nil, fmt.Errorf("genome ops are required")
	}
	if evaluator == nil {
		return nil, fmt.Errorf("evaluator is required")
	}
	if factory.Family() != ops.Family() || factory.Family() != cfg.Template.Family() {
		return nil, fmt.Errorf("%w: factory=%q ops=%q template=%q",
			ErrIncompatibleGenome, factory.Family(), ops.Family(), cfg.Template.Family())
	}

	return &Runner{
		cfg:       cfg,
		factory:   factory,
		ops:       ops,
		evaluator: evaluator,
		rng:       rand.New(rand.NewSource(cfg.Seed)),
		control:   make(chan Command, 16),
		state:     RunState{Status: model.RunInitializing},
	}, nil
}

func (r *Runner) Config() RunConfig { return r.cfg }

// State returns the latest consistent snapshot of the run.
func (r *Runner) State() RunState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state
}

// History returns a copy of the per-generation snapshots recorded so far.
func (r *Runner) History() []model.GenerationSnapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]model.GenerationSnapshot(nil), r.history...)
}

// Best returns the winning individual once the run reached a terminal state.
func (r *Runner) Best() (Individual, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.best == nil {
		return Individual{}, false
	}
	return r.best.Clone(), true
}

// Cancel requests termination at the next generation boundary.
func (r *Runner) Cancel() error {
	select {
	case r.control <- CommandCancel:
		return nil
	default:
		return fmt.Errorf("run control channel is full")
	}
}

// Run executes the full generational loop and blocks until a terminal state.
func (r *Runner) Run(ctx context.Context) (RunResult, error) {
	evalCfg := EvalConfig{
		Workers:    r.cfg.Workers,
		Timeout:    r.cfg.EvalTimeout,
		WorstScore: r.cfg.ScoreFloor,
	}

	population, err := InitializePopulation(ctx, r.factory, r.cfg.Template, r.cfg.PopulationSize, r.cfg.Workers, r.cfg.Seed)
	if err != nil {
		return r.fail(err)
	}
	population, failures, err := EvaluatePopulation(ctx, evalCfg, r.evaluator, population)
	if err != nil {
		return r.fail(err)
	}
	r.setStatus(model.RunEvolving)

	generation := 0
	for {
		snapshot := summarizePopulation(r.ops, population, generation, failures)
		r.appendSnapshot(snapshot)

		if snapshot.BestFitness >= r.cfg.FitnessThreshold {
			return r.finish(model.RunConverged, false, population)
		}
		if generation >= r.cfg.MaxGenerations {
			return r.finish(model.RunTerminated, false, population)
		}
		if r.cancelRequested() || ctx.Err() != nil {
			return r.finish(model.RunTerminated, true, population)
		}

		next, err := r.nextGeneration(ctx, population)
		if err != nil {
			return r.fail(err)
		}
		next, failures, err = EvaluatePopulation(ctx, evalCfg, r.evaluator, next)
		if err != nil {
			return r.fail(err)
		}
		population, err = Replace(next, r.cfg.PopulationSize)
		if err != nil {
			return r.fail(err)
		}
		generation++
	}
}

// nextGeneration carries the elites and fills the remaining slots one child
// at a time, which keeps the fixed-size invariant trivially true for odd
// population sizes: the last slot simply gets one more single child.
func (r *Runner) nextGeneration(ctx context.Context, population []Individual) ([]Individual, error) {
	next := CarryElite(population, r.cfg.EliteCount)
	selector := TournamentSelector{Size: r.cfg.TournamentSize}
	for len(next) < r.cfg.PopulationSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		child, err := r.makeOffspring(selector, population)
		if err != nil {
			return nil, err
		}
		next = append(next, child)
	}
	return next, nil
}

// makeOffspring retries a locally failed operator once with a fresh draw and
// then falls back to a clone of the fitter parent, so a population slot is
// never silently dropped. Incompatible-genome errors stay fatal.
func (r *Runner) makeOffspring(selector TournamentSelector, population []Individual) (Individual, error) {
	child, err := r.offspringOnce(selector, population)
	if err == nil {
		return child, nil
	}
	if errors.Is(err, ErrIncompatibleGenome) {
		return Individual{}, err
	}

	child, retryErr := r.offspringOnce(selector, population)
	if retryErr == nil {
		return child, nil
	}
	if errors.Is(retryErr, ErrIncompatibleGenome) {
		return Individual{}, retryErr
	}

	p1, p2, selErr := SelectParents(r.rng, selector, population)
	if selErr != nil {
		return Individual{}, selErr
	}
	return Offspring(fitterOf(p1, p2)), nil
}

func (r *Runner) offspringOnce(selector TournamentSelector, population []Individual) (Individual, error) {
	p1, p2, err := SelectParents(r.rng, selector, population)
	if err != nil {
		return Individual{}, err
	}

	var child Individual
	if r.rng.Float64() < r.cfg.CrossoverRate {
		child, err = Crossover(r.rng, r.ops, p1, p2)
		if err != nil {
			return Individual{}, err
		}
	} else {
		child = Offspring(fitterOf(p1, p2))
	}
	return Mutate(r.rng, r.ops, child, r.cfg.MutationRate)
}

func fitterOf(a, b Individual) Individual {
	if fitnessOf(b) > fitnessOf(a) {
		return b
	}
	return a
}

func summarizePopulation(ops genome.Ops, population []Individual, generation, failures int) model.GenerationSnapshot {
	if len(population) == 0 {
		return model.GenerationSnapshot{Generation: generation}
	}

	best := fitnessOf(population[0])
	worst := best
	total := 0.0
	for _, ind := range population {
		fitness := fitnessOf(ind)
		total += fitness
		if fitness > best {
			best = fitness
		}
		if fitness < worst {
			worst = fitness
		}
	}

	return model.GenerationSnapshot{
		Generation:     generation,
		BestFitness:    best,
		AverageFitness: total / float64(len(population)),
		WorstFitness:   worst,
		Diversity:      Diversity(ops, population),
		PopulationSize: len(population),
		EvalFailures:   failures,
	}
}

func (r *Runner) appendSnapshot(snapshot model.GenerationSnapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.history = append(r.history, snapshot)
	r.state.Generation = snapshot.Generation
	r.state.BestFitness = snapshot.BestFitness
	r.state.AverageFitness = snapshot.AverageFitness
	r.state.Diversity = snapshot.Diversity
}

func (r *Runner) setStatus(status model.RunStatus) {
	r.mu.Lock()
	r.state.Status = status
	r.mu.Unlock()
}

func (r *Runner) cancelRequested() bool {
	select {
	case cmd := <-r.control:
		return cmd == CommandCancel
	default:
		return false
	}
}

func (r *Runner) finish(status model.RunStatus, cancelled bool, population []Individual) (RunResult, error) {
	best, hasBest := BestIndividual(population)

	r.mu.Lock()
	r.state.Status = status
	r.state.Cancelled = cancelled
	if hasBest {
		kept := best.Clone()
		r.best = &kept
	}
	history := append([]model.GenerationSnapshot(nil), r.history...)
	r.mu.Unlock()

	return RunResult{
		Status:          status,
		Cancelled:       cancelled,
		Best:            best,
		HasBest:         hasBest,
		History:         history,
		FinalPopulation: population,
	}, nil
}

// fail transitions to Failed with the offending error attached, keeping the
// recorded history for postmortem inspection. A context cancellation that
// surfaced mid-run counts as caller cancellation, not an engine failure.
func (r *Runner) fail(err error) (RunResult, error) {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		r.mu.Lock()
		r.state.Status = model.RunTerminated
		r.state.Cancelled = true
		history := append([]model.GenerationSnapshot(nil), r.history...)
		r.mu.Unlock()
		return RunResult{Status: model.RunTerminated, Cancelled: true, History: history}, nil
	}

	r.mu.Lock()
	r.state.Status = model.RunFailed
	r.state.Err = err
	history := append([]model.GenerationSnapshot(nil), r.history...)
	r.mu.Unlock()

	return RunResult{Status: model.RunFailed, History: history}, err
}
