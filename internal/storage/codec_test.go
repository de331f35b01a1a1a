package storage

import (
	"errors"
	"testing"

	"phylogen/internal/model"
)

func TestRunRecordCodecRoundTrip(t *testing.T) {
	record := testRunRecord("run-1", "2026-08-24T10:00:00Z")
	record.Status = model.RunConverged
	record.BestFitness = 0.95

	data, err := EncodeRun(record)
	if err != nil {
		t.Fatalf("EncodeRun: %v", err)
	}
	decoded, err := DecodeRun(data)
	if err != nil {
		t.Fatalf("DecodeRun: %v", err)
	}
	if decoded != record {
		t.Errorf("round trip changed the record:\n%+v\n%+v", decoded, record)
	}
}

func TestDecodeRunRejectsVersionMismatch(t *testing.T) {
	record := testRunRecord("run-1", "2026-08-24T10:00:00Z")
	record.SchemaVersion = CurrentSchemaVersion + 1

	data, err := EncodeRun(record)
	if err != nil {
		t.Fatalf("EncodeRun: %v", err)
	}
	if _, err := DecodeRun(data); !errors.Is(err, ErrVersionMismatch) {
		t.Fatalf("expected ErrVersionMismatch, got %v", err)
	}
}

func TestBestIndividualCodecRoundTrip(t *testing.T) {
	record := model.BestIndividualRecord{
		VersionedRecord: Stamp(),
		RunID:           "run-1",
		IndividualID:    "ind-1",
		Family:          "vector",
		Fitness:         0.88,
		Generation:      12,
		ParentIDs:       []string{"p1", "p2"},
		Genome:          []byte(`{"family":"vector","payload":{"genes":[0.1]}}`),
	}

	data, err := EncodeBestIndividual(record)
	if err != nil {
		t.Fatalf("EncodeBestIndividual: %v", err)
	}
	decoded, err := DecodeBestIndividual(data)
	if err != nil {
		t.Fatalf("DecodeBestIndividual: %v", err)
	}
	if decoded.IndividualID != record.IndividualID || decoded.Fitness != record.Fitness {
		t.Errorf("round trip changed the record: %+v", decoded)
	}
	if string(decoded.Genome) != string(record.Genome) {
		t.Error("genome payload changed in transit")
	}

	record.CodecVersion = CurrentCodecVersion + 1
	data, _ = EncodeBestIndividual(record)
	if _, err := DecodeBestIndividual(data); !errors.Is(err, ErrVersionMismatch) {
		t.Fatalf("expected ErrVersionMismatch, got %v", err)
	}
}

func TestSnapshotsCodecRoundTrip(t *testing.T) {
	snapshots := []model.GenerationSnapshot{
		{Generation: 0, BestFitness: 0.4, AverageFitness: 0.2, WorstFitness: 0.1, Diversity: 0.7, PopulationSize: 30},
		{Generation: 1, BestFitness: 0.6, AverageFitness: 0.3, WorstFitness: 0.1, Diversity: 0.6, PopulationSize: 30, EvalFailures: 2},
	}

	data, err := EncodeSnapshots(snapshots)
	if err != nil {
		t.Fatalf("EncodeSnapshots: %v", err)
	}
	decoded, err := DecodeSnapshots(data)
	if err != nil {
		t.Fatalf("DecodeSnapshots: %v", err)
	}
	if len(decoded) != len(snapshots) {
		t.Fatalf("decoded %d snapshots, want %d", len(decoded), len(snapshots))
	}
	for i := range snapshots {
		if decoded[i] != snapshots[i] {
			t.Errorf("snapshot %d changed: %+v vs %+v", i, decoded[i], snapshots[i])
		}
	}
}

func TestFactorySelectsBackend(t *testing.T) {
	store, err := NewStore("memory", "")
	if err != nil {
		t.Fatalf("NewStore(memory): %v", err)
	}
	if _, ok := store.(*MemoryStore); !ok {
		t.Errorf("expected *MemoryStore, got %T", store)
	}

	if _, err := NewStore("etcd", ""); err == nil {
		t.Error("expected error for unknown backend")
	}
}
