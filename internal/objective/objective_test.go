package objective

import (
	"context"
	"math/rand"
	"sort"
	"testing"

	"phylogen/internal/genome"
)

func TestResolveKnownAndUnknown(t *testing.T) {
	for _, name := range []string{"sphere", "ridge", "coverage"} {
		obj, err := Resolve(name)
		if err != nil {
			t.Fatalf("Resolve(%q): %v", name, err)
		}
		if obj.Evaluator == nil || obj.DefaultTemplate == nil {
			t.Errorf("objective %q is incomplete", name)
		}
		if obj.Family != obj.DefaultTemplate.Family() {
			t.Errorf("objective %q family %q does not match its template %q", name, obj.Family, obj.DefaultTemplate.Family())
		}
	}
	if _, err := Resolve("nonsense"); err == nil {
		t.Error("expected error for unknown objective")
	}
}

func TestNamesAreSorted(t *testing.T) {
	names := Names()
	if len(names) < 3 {
		t.Fatalf("expected at least 3 objectives, got %d", len(names))
	}
	if !sort.StringsAreSorted(names) {
		t.Errorf("names are not sorted: %v", names)
	}
}

func TestSphereScoring(t *testing.T) {
	obj, _ := Resolve("sphere")

	origin := &genome.VectorGenome{Min: -1, Max: 1, Genes: []float64{0, 0, 0, 0}}
	score, err := obj.Evaluator.Evaluate(context.Background(), origin)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if score != 1 {
		t.Errorf("origin score %v, want 1", score)
	}

	corner := &genome.VectorGenome{Min: -1, Max: 1, Genes: []float64{1, -1, 1, -1}}
	score, _ = obj.Evaluator.Evaluate(context.Background(), corner)
	if score != 0 {
		t.Errorf("corner score %v, want 0", score)
	}

	if _, err := obj.Evaluator.Evaluate(context.Background(), &genome.BlueprintGenome{}); err == nil {
		t.Error("expected error for a foreign genome family")
	}
}

func TestRidgeScoring(t *testing.T) {
	obj, _ := Resolve("ridge")

	top := &genome.VectorGenome{Min: -1, Max: 1, Genes: []float64{1, 1, 1}}
	score, err := obj.Evaluator.Evaluate(context.Background(), top)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if score != 1 {
		t.Errorf("upper-bound score %v, want 1", score)
	}

	bottom := &genome.VectorGenome{Min: -1, Max: 1, Genes: []float64{-1, -1, -1}}
	score, _ = obj.Evaluator.Evaluate(context.Background(), bottom)
	if score != 0 {
		t.Errorf("lower-bound score %v, want 0", score)
	}
}

func TestCoverageScoring(t *testing.T) {
	obj, _ := Resolve("coverage")
	tmpl := obj.DefaultTemplate.(genome.BlueprintTemplate)

	rng := rand.New(rand.NewSource(9))
	for i := 0; i < 25; i++ {
		g, err := genome.BlueprintFactory{}.Random(rng, tmpl)
		if err != nil {
			t.Fatalf("Random: %v", err)
		}
		score, err := obj.Evaluator.Evaluate(context.Background(), g)
		if err != nil {
			t.Fatalf("Evaluate: %v", err)
		}
		if score < 0 || score > 1 {
			t.Errorf("coverage score %v outside [0, 1]", score)
		}
	}

	if _, err := obj.Evaluator.Evaluate(context.Background(), &genome.VectorGenome{}); err == nil {
		t.Error("expected error for a foreign genome family")
	}
}
