package engine

import (
	"context"
	"errors"
	"testing"

	"phylogen/internal/genome"
)

func TestInitializePopulationShape(t *testing.T) {
	tmpl := genome.VectorTemplate{Length: 8, Min: -1, Max: 1}
	population, err := InitializePopulation(context.Background(), genome.VectorFactory{}, tmpl, 10, 4, 1)
	if err != nil {
		t.Fatalf("InitializePopulation: %v", err)
	}
	if len(population) != 10 {
		t.Fatalf("expected 10 individuals, got %d", len(population))
	}
	seen := make(map[string]struct{})
	for i, ind := range population {
		if ind.Genome == nil {
			t.Fatalf("individual %d has no genome", i)
		}
		if ind.Generation != 0 {
			t.Errorf("individual %d generation %d, want 0", i, ind.Generation)
		}
		if ind.Fitness != nil {
			t.Errorf("individual %d starts evaluated", i)
		}
		if len(ind.ParentIDs) != 0 {
			t.Errorf("individual %d has parents %v", i, ind.ParentIDs)
		}
		if _, dup := seen[ind.ID]; dup {
			t.Errorf("duplicate individual ID %s", ind.ID)
		}
		seen[ind.ID] = struct{}{}
	}
}

// The same seed must yield the same genomes no matter how many workers ran
// the generation.
func TestInitializePopulationDeterministicAcrossWorkerCounts(t *testing.T) {
	tmpl := genome.VectorTemplate{Length: 8, Min: -1, Max: 1}

	serial, err := InitializePopulation(context.Background(), genome.VectorFactory{}, tmpl, 12, 1, 99)
	if err != nil {
		t.Fatalf("InitializePopulation: %v", err)
	}
	parallel, err := InitializePopulation(context.Background(), genome.VectorFactory{}, tmpl, 12, 6, 99)
	if err != nil {
		t.Fatalf("InitializePopulation: %v", err)
	}

	for i := range serial {
		if serial[i].Genome.Fingerprint() != parallel[i].Genome.Fingerprint() {
			t.Errorf("slot %d differs between worker counts", i)
		}
	}
}

func TestInitializePopulationCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	tmpl := genome.VectorTemplate{Length: 8, Min: -1, Max: 1}
	_, err := InitializePopulation(ctx, genome.VectorFactory{}, tmpl, 10, 2, 1)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestReplaceAssertsFixedSize(t *testing.T) {
	population := rankedPopulation(t, 5)

	if _, err := Replace(population, 5); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	_, err := Replace(population, 6)
	if !errors.Is(err, ErrPopulationSize) {
		t.Fatalf("expected ErrPopulationSize, got %v", err)
	}
}

func TestDiversityIdenticalPopulationIsZero(t *testing.T) {
	base := vectorIndividual(t, 1, 8)
	population := []Individual{base, base.Clone(), base.Clone()}

	if d := Diversity(genome.VectorOps{}, population); d != 0 {
		t.Errorf("identical population diversity %v, want 0", d)
	}
}

func TestDiversityDistinctPopulationIsPositive(t *testing.T) {
	population := []Individual{
		{Genome: &genome.VectorGenome{Min: 0, Max: 1, Genes: []float64{0, 0}}},
		{Genome: &genome.VectorGenome{Min: 0, Max: 1, Genes: []float64{1, 1}}},
		{Genome: &genome.VectorGenome{Min: 0, Max: 1, Genes: []float64{0.5, 0.5}}},
	}
	d := Diversity(genome.VectorOps{}, population)
	if d <= 0 || d > 1 {
		t.Errorf("distinct population diversity %v, want in (0, 1]", d)
	}
}

func TestDiversityFingerprintFallback(t *testing.T) {
	a := vectorIndividual(t, 1, 8)
	b := vectorIndividual(t, 2, 8)

	if d := Diversity(nil, []Individual{a, a.Clone()}); d != 0 {
		t.Errorf("duplicate fingerprints diversity %v, want 0", d)
	}
	if d := Diversity(nil, []Individual{a, b}); d != 1 {
		t.Errorf("all-distinct fingerprints diversity %v, want 1", d)
	}
}

func TestDiversityTinyPopulation(t *testing.T) {
	if d := Diversity(genome.VectorOps{}, nil); d != 0 {
		t.Errorf("empty population diversity %v, want 0", d)
	}
	if d := Diversity(genome.VectorOps{}, []Individual{vectorIndividual(t, 1, 4)}); d != 0 {
		t.Errorf("singleton population diversity %v, want 0", d)
	}
}

func TestDiversitySamplesLargePopulations(t *testing.T) {
	population := make([]Individual, diversitySampleLimit*4)
	for i := range population {
		population[i] = vectorIndividual(t, int64(i), 8)
	}
	d := Diversity(genome.VectorOps{}, population)
	if d <= 0 || d > 1 {
		t.Errorf("sampled diversity %v, want in (0, 1]", d)
	}
}
