package model

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// RunStatus is the lifecycle state of an evolution run.
type RunStatus string

const (
	RunInitializing RunStatus = "initializing"
	RunEvolving     RunStatus = "evolving"
	RunConverged    RunStatus = "converged"
	RunTerminated   RunStatus = "terminated"
	RunFailed       RunStatus = "failed"
)

// Terminal reports whether the status admits no further transitions.
func (s RunStatus) Terminal() bool {
	switch s {
	case RunConverged, RunTerminated, RunFailed:
		return true
	default:
		return false
	}
}

// GenerationSnapshot is the immutable per-generation record kept for reporting.
type GenerationSnapshot struct {
	Generation     int     `json:"generation"`
	BestFitness    float64 `json:"best_fitness"`
	AverageFitness float64 `json:"average_fitness"`
	WorstFitness   float64 `json:"worst_fitness"`
	Diversity      float64 `json:"diversity"`
	PopulationSize int     `json:"population_size"`
	EvalFailures   int     `json:"eval_failures,omitempty"`
}

type RunRecord struct {
	VersionedRecord
	ID                string    `json:"id"`
	Family            string    `json:"family"`
	Status            RunStatus `json:"status"`
	Cancelled         bool      `json:"cancelled,omitempty"`
	PopulationSize    int       `json:"population_size"`
	MutationRate      float64   `json:"mutation_rate"`
	CrossoverRate     float64   `json:"crossover_rate"`
	EliteCount        int       `json:"elite_count"`
	TournamentSize    int       `json:"tournament_size"`
	MaxGenerations    int       `json:"max_generations"`
	FitnessThreshold  float64   `json:"fitness_threshold"`
	Seed              int64     `json:"seed"`
	CurrentGeneration int       `json:"current_generation"`
	BestFitness       float64   `json:"best_fitness"`
	AverageFitness    float64   `json:"average_fitness"`
	Diversity         float64   `json:"diversity"`
	Error             string    `json:"error,omitempty"`
	CreatedAtUTC      string    `json:"created_at_utc,omitempty"`
	FinishedAtUTC     string    `json:"finished_at_utc,omitempty"`
}

// BestIndividualRecord persists the winning individual of a finished run,
// genome payload included, for postmortem inspection.
type BestIndividualRecord struct {
	VersionedRecord
	RunID          string   `json:"run_id"`
	IndividualID   string   `json:"individual_id"`
	Family         string   `json:"family"`
	Fitness        float64  `json:"fitness"`
	Generation     int      `json:"generation"`
	Age            int      `json:"age"`
	ParentIDs      []string `json:"parent_ids,omitempty"`
	MutationCount  int      `json:"mutation_count"`
	CrossoverCount int      `json:"crossover_count"`
	Genome         []byte   `json:"genome"`
}
