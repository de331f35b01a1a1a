package engine

import (
	"errors"
	"math/rand"
	"testing"

	"phylogen/internal/genome"
)

func vectorIndividual(t *testing.T, seed int64, length int) Individual {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	g, err := genome.VectorFactory{}.Random(rng, genome.VectorTemplate{Length: length, Min: -1, Max: 1})
	if err != nil {
		t.Fatalf("Random: %v", err)
	}
	return Individual{ID: newID(), Genome: g}
}

func scored(ind Individual, fitness float64) Individual {
	ind.Fitness = &fitness
	return ind
}

func TestMutateZeroRateLeavesIndividualUntouched(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	ind := scored(vectorIndividual(t, 1, 8), 0.7)

	out, err := Mutate(rng, genome.VectorOps{}, ind, 0)
	if err != nil {
		t.Fatalf("Mutate: %v", err)
	}
	if out.Fitness == nil || *out.Fitness != 0.7 {
		t.Error("zero-rate mutation must keep the cached fitness")
	}
	if out.Genome.Fingerprint() != ind.Genome.Fingerprint() {
		t.Error("zero-rate mutation must not change the genome")
	}
	if out.MutationCount != 0 {
		t.Error("zero-rate mutation must not bump the mutation counter")
	}
}

func TestMutateFullRateResetsFitness(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	ind := scored(vectorIndividual(t, 2, 8), 0.7)

	out, err := Mutate(rng, genome.VectorOps{}, ind, 1)
	if err != nil {
		t.Fatalf("Mutate: %v", err)
	}
	if out.Fitness != nil {
		t.Error("mutation must reset fitness for re-evaluation")
	}
	if out.MutationCount != 1 {
		t.Errorf("mutation counter %d, want 1", out.MutationCount)
	}
	if out.ID != ind.ID || out.Generation != ind.Generation {
		t.Error("mutation must not change identity or generation")
	}
	if out.Genome.Fingerprint() == ind.Genome.Fingerprint() {
		t.Error("full-rate mutation should change the genome")
	}
	if ind.Fitness == nil {
		t.Error("input individual was modified")
	}
}

func TestMutateFamilyMismatch(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	ind := vectorIndividual(t, 3, 4)

	_, err := Mutate(rng, genome.BlueprintOps{}, ind, 0.5)
	if !errors.Is(err, ErrIncompatibleGenome) {
		t.Fatalf("expected ErrIncompatibleGenome, got %v", err)
	}
}

func TestCrossoverProvenance(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	p1 := scored(vectorIndividual(t, 4, 8), 0.3)
	p1.Generation = 2
	p2 := scored(vectorIndividual(t, 5, 8), 0.6)
	p2.Generation = 5

	child, err := Crossover(rng, genome.VectorOps{}, p1, p2)
	if err != nil {
		t.Fatalf("Crossover: %v", err)
	}
	if child.ID == p1.ID || child.ID == p2.ID || child.ID == "" {
		t.Error("child must get a fresh identity")
	}
	if child.Generation != 6 {
		t.Errorf("child generation %d, want 6 (one past the older parent)", child.Generation)
	}
	if len(child.ParentIDs) != 2 || child.ParentIDs[0] != p1.ID || child.ParentIDs[1] != p2.ID {
		t.Errorf("child parents %v, want both parent IDs", child.ParentIDs)
	}
	if child.CrossoverCount != 1 {
		t.Errorf("crossover counter %d, want 1", child.CrossoverCount)
	}
	if child.Fitness != nil {
		t.Error("crossover child must start unevaluated")
	}
}

func TestCrossoverFamilyMismatch(t *testing.T) {
	rng := rand.New(rand.NewSource(6))
	p1 := vectorIndividual(t, 6, 4)

	bpRng := rand.New(rand.NewSource(6))
	bp, err := genome.BlueprintFactory{}.Random(bpRng, genome.BlueprintTemplate{
		EntityNames:        []string{"user"},
		FieldPool:          []string{"id"},
		MaxFieldsPerEntity: 1,
	})
	if err != nil {
		t.Fatalf("Random: %v", err)
	}
	p2 := Individual{ID: newID(), Genome: bp}

	_, err = Crossover(rng, genome.VectorOps{}, p1, p2)
	if !errors.Is(err, ErrIncompatibleGenome) {
		t.Fatalf("expected ErrIncompatibleGenome, got %v", err)
	}
}

func TestOffspringCarriesCachedFitness(t *testing.T) {
	parent := scored(vectorIndividual(t, 7, 4), 0.42)
	parent.Generation = 3
	parent.Age = 2
	parent.MutationCount = 5

	child := Offspring(parent)
	if child.ID == parent.ID {
		t.Error("offspring must get a fresh identity")
	}
	if child.Generation != 4 {
		t.Errorf("offspring generation %d, want 4", child.Generation)
	}
	if child.Age != 0 || child.MutationCount != 0 || child.CrossoverCount != 0 {
		t.Error("offspring counters must reset")
	}
	if child.Fitness == nil || *child.Fitness != 0.42 {
		t.Error("offspring of an identical genome keeps the cached fitness")
	}
	if len(child.ParentIDs) != 1 || child.ParentIDs[0] != parent.ID {
		t.Errorf("offspring parents %v, want the single parent ID", child.ParentIDs)
	}
}
