package storage

import (
	"context"
	"testing"

	"phylogen/internal/model"
)

func newTestStore(t *testing.T) *MemoryStore {
	t.Helper()
	store := NewMemoryStore()
	if err := store.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	return store
}

func testRunRecord(id, created string) model.RunRecord {
	return model.RunRecord{
		VersionedRecord: Stamp(),
		ID:              id,
		Family:          "vector",
		Status:          model.RunEvolving,
		PopulationSize:  30,
		CreatedAtUTC:    created,
	}
}

func TestMemoryStoreRunRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	if _, found, err := store.GetRun(ctx, "missing"); err != nil || found {
		t.Fatalf("expected miss, got found=%v err=%v", found, err)
	}

	record := testRunRecord("run-1", "2026-08-24T10:00:00Z")
	if err := store.SaveRun(ctx, record); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}
	got, found, err := store.GetRun(ctx, "run-1")
	if err != nil || !found {
		t.Fatalf("GetRun: found=%v err=%v", found, err)
	}
	if got.ID != "run-1" || got.Status != model.RunEvolving {
		t.Errorf("unexpected record: %+v", got)
	}

	record.Status = model.RunConverged
	if err := store.SaveRun(ctx, record); err != nil {
		t.Fatalf("SaveRun overwrite: %v", err)
	}
	got, _, _ = store.GetRun(ctx, "run-1")
	if got.Status != model.RunConverged {
		t.Errorf("overwrite lost: status %s", got.Status)
	}
}

func TestMemoryStoreListRunsSorted(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	_ = store.SaveRun(ctx, testRunRecord("b", "2026-08-24T12:00:00Z"))
	_ = store.SaveRun(ctx, testRunRecord("a", "2026-08-24T12:00:00Z"))
	_ = store.SaveRun(ctx, testRunRecord("c", "2026-08-24T09:00:00Z"))

	records, err := store.ListRuns(ctx)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	ids := []string{records[0].ID, records[1].ID, records[2].ID}
	want := []string{"c", "a", "b"}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("list order %v, want %v", ids, want)
		}
	}
}

func TestMemoryStoreSnapshotsCopySemantics(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	snapshots := []model.GenerationSnapshot{
		{Generation: 0, BestFitness: 0.5, PopulationSize: 30},
		{Generation: 1, BestFitness: 0.6, PopulationSize: 30},
	}
	if err := store.SaveSnapshots(ctx, "run-1", snapshots); err != nil {
		t.Fatalf("SaveSnapshots: %v", err)
	}
	snapshots[0].BestFitness = 99

	got, found, err := store.GetSnapshots(ctx, "run-1")
	if err != nil || !found {
		t.Fatalf("GetSnapshots: found=%v err=%v", found, err)
	}
	if got[0].BestFitness != 0.5 {
		t.Error("store shares snapshot storage with the caller")
	}

	got[1].BestFitness = 99
	again, _, _ := store.GetSnapshots(ctx, "run-1")
	if again[1].BestFitness != 0.6 {
		t.Error("returned snapshots alias the stored slice")
	}

	if _, found, _ := store.GetSnapshots(ctx, "missing"); found {
		t.Error("expected miss for unknown run")
	}
}

func TestMemoryStoreBestIndividual(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	record := model.BestIndividualRecord{
		VersionedRecord: Stamp(),
		RunID:           "run-1",
		IndividualID:    "ind-1",
		Family:          "vector",
		Fitness:         0.93,
		Genome:          []byte(`{"family":"vector","payload":{}}`),
	}
	if err := store.SaveBestIndividual(ctx, record); err != nil {
		t.Fatalf("SaveBestIndividual: %v", err)
	}
	got, found, err := store.GetBestIndividual(ctx, "run-1")
	if err != nil || !found {
		t.Fatalf("GetBestIndividual: found=%v err=%v", found, err)
	}
	if got.IndividualID != "ind-1" || got.Fitness != 0.93 {
		t.Errorf("unexpected record: %+v", got)
	}

	if _, found, _ := store.GetBestIndividual(ctx, "missing"); found {
		t.Error("expected miss for unknown run")
	}
}
