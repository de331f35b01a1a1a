package platform

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"phylogen/internal/engine"
	"phylogen/internal/genome"
	"phylogen/internal/model"
	"phylogen/internal/storage"
)

type Config struct {
	Store storage.Store
}

type registeredFamily struct {
	factory genome.Factory
	ops     genome.Ops
}

type activeRun struct {
	runner  *engine.Runner
	family  string
	created string
	done    chan struct{}
}

// Habitat owns the live run registry and the persistence sink. Genome
// families are registered per instance; there is no global registry, so
// concurrent habitats never share state.
type Habitat struct {
	store storage.Store

	mu       sync.RWMutex
	families map[string]registeredFamily
	runs     map[string]*activeRun
	started  bool
}

func New(cfg Config) *Habitat {
	return &Habitat{
		store:    cfg.Store,
		families: make(map[string]registeredFamily),
		runs:     make(map[string]*activeRun),
	}
}

func (h *Habitat) Init(ctx context.Context) error {
	if h.store == nil {
		return fmt.Errorf("store is required")
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.started {
		return nil
	}
	if err := h.store.Init(ctx); err != nil {
		return err
	}
	h.started = true
	return nil
}

func (h *Habitat) Started() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.started
}

// RegisterFamily wires a genome factory and its operator strategy under the
// family name they share.
func (h *Habitat) RegisterFamily(factory genome.Factory, ops genome.Ops) error {
	if factory == nil || ops == nil {
		return fmt.Errorf("factory and ops are required")
	}
	name := factory.Family()
	if name == "" {
		return fmt.Errorf("family name is required")
	}
	if ops.Family() != name {
		return fmt.Errorf("family mismatch: factory=%q ops=%q", name, ops.Family())
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.started {
		return fmt.Errorf("habitat is not initialized")
	}
	if _, exists := h.families[name]; exists {
		return fmt.Errorf("duplicate genome family: %s", name)
	}
	h.families[name] = registeredFamily{factory: factory, ops: ops}
	return nil
}

func (h *Habitat) RegisteredFamilies() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	names := make([]string, 0, len(h.families))
	for name := range h.families {
		names = append(names, name)
	}
	return names
}

// StartRun validates the config, persists the initial run record, and
// launches the generational loop on its own goroutine. The returned run ID
// addresses all later queries.
func (h *Habitat) StartRun(ctx context.Context, familyName string, cfg engine.RunConfig, evaluator engine.Evaluator) (string, error) {
	h.mu.RLock()
	fam, ok := h.families[familyName]
	started := h.started
	h.mu.RUnlock()

	if !started {
		return "", fmt.Errorf("habitat is not initialized")
	}
	if !ok {
		return "", fmt.Errorf("genome family not registered: %s", familyName)
	}

	if cfg.RunID == "" {
		cfg.RunID = uuid.NewString()
	}
	runner, err := engine.NewRunner(cfg, fam.factory, fam.ops, evaluator)
	if err != nil {
		return "", err
	}

	if _, exists, err := h.store.GetRun(ctx, cfg.RunID); err != nil {
		return "", err
	} else if exists {
		return "", fmt.Errorf("run already exists: %s", cfg.RunID)
	}

	run := &activeRun{
		runner:  runner,
		family:  familyName,
		created: time.Now().UTC().Format(time.RFC3339),
		done:    make(chan struct{}),
	}

	h.mu.Lock()
	if _, exists := h.runs[cfg.RunID]; exists {
		h.mu.Unlock()
		return "", fmt.Errorf("run already active: %s", cfg.RunID)
	}
	h.runs[cfg.RunID] = run
	h.mu.Unlock()

	record := h.recordFor(cfg, familyName, run.created, runner.State(), "")
	if err := h.store.SaveRun(ctx, record); err != nil {
		h.mu.Lock()
		delete(h.runs, cfg.RunID)
		h.mu.Unlock()
		return "", err
	}

	go h.drive(cfg, familyName, run)
	return cfg.RunID, nil
}

// drive executes the run to a terminal state and persists the outcome. The
// run uses its own background context; cancellation flows through the
// runner's control channel at generation boundaries.
func (h *Habitat) drive(cfg engine.RunConfig, familyName string, run *activeRun) {
	defer close(run.done)

	ctx := context.Background()
	result, _ := run.runner.Run(ctx)

	finished := time.Now().UTC().Format(time.RFC3339)
	record := h.recordFor(cfg, familyName, run.created, run.runner.State(), finished)
	_ = h.store.SaveRun(ctx, record)
	_ = h.store.SaveSnapshots(ctx, cfg.RunID, result.History)

	if result.Status != model.RunFailed && result.HasBest {
		if payload, err := genome.Encode(result.Best.Genome); err == nil {
			_ = h.store.SaveBestIndividual(ctx, model.BestIndividualRecord{
				VersionedRecord: storage.Stamp(),
				RunID:           cfg.RunID,
				IndividualID:    result.Best.ID,
				Family:          familyName,
				Fitness:         fitnessOrFloor(result.Best, cfg.ScoreFloor),
				Generation:      result.Best.Generation,
				Age:             result.Best.Age,
				ParentIDs:       result.Best.ParentIDs,
				MutationCount:   result.Best.MutationCount,
				CrossoverCount:  result.Best.CrossoverCount,
				Genome:          payload,
			})
		}
	}

	h.mu.Lock()
	delete(h.runs, cfg.RunID)
	h.mu.Unlock()
}

// RunStatus returns the latest consistent view of a run, live when active,
// from the store once finished.
func (h *Habitat) RunStatus(ctx context.Context, runID string) (model.RunRecord, bool, error) {
	h.mu.RLock()
	run, active := h.runs[runID]
	h.mu.RUnlock()

	if active {
		return h.recordFor(run.runner.Config(), run.family, run.created, run.runner.State(), ""), true, nil
	}
	return h.store.GetRun(ctx, runID)
}

func (h *Habitat) GenerationHistory(ctx context.Context, runID string) ([]model.GenerationSnapshot, bool, error) {
	h.mu.RLock()
	run, active := h.runs[runID]
	h.mu.RUnlock()

	if active {
		return run.runner.History(), true, nil
	}
	return h.store.GetSnapshots(ctx, runID)
}

// BestIndividual is available once the run reached a terminal state.
func (h *Habitat) BestIndividual(ctx context.Context, runID string) (model.BestIndividualRecord, bool, error) {
	return h.store.GetBestIndividual(ctx, runID)
}

// CancelRun requests termination at the next generation boundary.
func (h *Habitat) CancelRun(runID string) error {
	h.mu.RLock()
	run, active := h.runs[runID]
	h.mu.RUnlock()

	if !active {
		return fmt.Errorf("run not active: %s", runID)
	}
	return run.runner.Cancel()
}

// WaitForRun blocks until the run reaches a terminal state and its outcome
// is persisted, or the context expires.
func (h *Habitat) WaitForRun(ctx context.Context, runID string) error {
	h.mu.RLock()
	run, active := h.runs[runID]
	h.mu.RUnlock()

	if !active {
		return nil
	}
	select {
	case <-run.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Habitat) Runs(ctx context.Context) ([]model.RunRecord, error) {
	records, err := h.store.ListRuns(ctx)
	if err != nil {
		return nil, err
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for i, record := range records {
		if run, active := h.runs[record.ID]; active {
			records[i] = h.recordFor(run.runner.Config(), run.family, run.created, run.runner.State(), "")
		}
	}
	return records, nil
}

func (h *Habitat) Close() error {
	return storage.CloseIfSupported(h.store)
}

func (h *Habitat) recordFor(cfg engine.RunConfig, familyName, created string, state engine.RunState, finished string) model.RunRecord {
	record := model.RunRecord{
		VersionedRecord:   storage.Stamp(),
		ID:                cfg.RunID,
		Family:            familyName,
		Status:            state.Status,
		Cancelled:         state.Cancelled,
		PopulationSize:    cfg.PopulationSize,
		MutationRate:      cfg.MutationRate,
		CrossoverRate:     cfg.CrossoverRate,
		EliteCount:        cfg.EliteCount,
		TournamentSize:    cfg.TournamentSize,
		MaxGenerations:    cfg.MaxGenerations,
		FitnessThreshold:  cfg.FitnessThreshold,
		Seed:              cfg.Seed,
		CurrentGeneration: state.Generation,
		BestFitness:       state.BestFitness,
		AverageFitness:    state.AverageFitness,
		Diversity:         state.Diversity,
		CreatedAtUTC:      created,
		FinishedAtUTC:     finished,
	}
	if state.Err != nil {
		record.Error = state.Err.Error()
	}
	return record
}

func fitnessOrFloor(ind engine.Individual, floor float64) float64 {
	if ind.Fitness == nil {
		return floor
	}
	return *ind.Fitness
}
