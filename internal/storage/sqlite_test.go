//go:build sqlite

package storage

import (
	"context"
	"path/filepath"
	"testing"

	"phylogen/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	if err := store.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStoreRunUpsert(t *testing.T) {
	ctx := context.Background()
	store := newTestSQLiteStore(t)

	if _, found, err := store.GetRun(ctx, "missing"); err != nil || found {
		t.Fatalf("expected miss, got found=%v err=%v", found, err)
	}

	record := testRunRecord("run-1", "2026-08-24T10:00:00Z")
	if err := store.SaveRun(ctx, record); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}

	record.Status = model.RunConverged
	record.BestFitness = 0.91
	if err := store.SaveRun(ctx, record); err != nil {
		t.Fatalf("SaveRun upsert: %v", err)
	}

	got, found, err := store.GetRun(ctx, "run-1")
	if err != nil || !found {
		t.Fatalf("GetRun: found=%v err=%v", found, err)
	}
	if got.Status != model.RunConverged || got.BestFitness != 0.91 {
		t.Errorf("upsert lost: %+v", got)
	}
}

func TestSQLiteStoreListRunsOrdered(t *testing.T) {
	ctx := context.Background()
	store := newTestSQLiteStore(t)

	_ = store.SaveRun(ctx, testRunRecord("b", "2026-08-24T12:00:00Z"))
	_ = store.SaveRun(ctx, testRunRecord("a", "2026-08-24T12:00:00Z"))
	_ = store.SaveRun(ctx, testRunRecord("c", "2026-08-24T09:00:00Z"))

	records, err := store.ListRuns(ctx)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	want := []string{"c", "a", "b"}
	for i := range want {
		if records[i].ID != want[i] {
			t.Fatalf("list order %v, want %v", records, want)
		}
	}
}

func TestSQLiteStoreSnapshotsAndBest(t *testing.T) {
	ctx := context.Background()
	store := newTestSQLiteStore(t)

	snapshots := []model.GenerationSnapshot{
		{Generation: 0, BestFitness: 0.4, PopulationSize: 30},
		{Generation: 1, BestFitness: 0.6, PopulationSize: 30},
	}
	if err := store.SaveSnapshots(ctx, "run-1", snapshots); err != nil {
		t.Fatalf("SaveSnapshots: %v", err)
	}
	got, found, err := store.GetSnapshots(ctx, "run-1")
	if err != nil || !found {
		t.Fatalf("GetSnapshots: found=%v err=%v", found, err)
	}
	if len(got) != 2 || got[1].BestFitness != 0.6 {
		t.Errorf("unexpected snapshots: %+v", got)
	}

	best := model.BestIndividualRecord{
		VersionedRecord: Stamp(),
		RunID:           "run-1",
		IndividualID:    "ind-1",
		Family:          "vector",
		Fitness:         0.93,
		Genome:          []byte(`{"family":"vector","payload":{"genes":[0.5]}}`),
	}
	if err := store.SaveBestIndividual(ctx, best); err != nil {
		t.Fatalf("SaveBestIndividual: %v", err)
	}
	gotBest, found, err := store.GetBestIndividual(ctx, "run-1")
	if err != nil || !found {
		t.Fatalf("GetBestIndividual: found=%v err=%v", found, err)
	}
	if gotBest.IndividualID != "ind-1" || string(gotBest.Genome) != string(best.Genome) {
		t.Errorf("unexpected best record: %+v", gotBest)
	}
}

func TestSQLiteStoreRequiresInit(t *testing.T) {
	store := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	if _, _, err := store.GetRun(context.Background(), "x"); err == nil {
		t.Error("expected error before Init")
	}

	empty := NewSQLiteStore("")
	if err := empty.Init(context.Background()); err == nil {
		t.Error("expected error for empty path")
	}
}
