package storage

import (
	"context"

	"phylogen/internal/model"
)

// Store defines the persistence sink for run records, generation history,
// and winning individuals.
type Store interface {
	Init(ctx context.Context) error
	SaveRun(ctx context.Context, record model.RunRecord) error
	GetRun(ctx context.Context, id string) (model.RunRecord, bool, error)
	ListRuns(ctx context.Context) ([]model.RunRecord, error)
	SaveSnapshots(ctx context.Context, runID string, snapshots []model.GenerationSnapshot) error
	GetSnapshots(ctx context.Context, runID string) ([]model.GenerationSnapshot, bool, error)
	SaveBestIndividual(ctx context.Context, record model.BestIndividualRecord) error
	GetBestIndividual(ctx context.Context, runID string) (model.BestIndividualRecord, bool, error)
}
