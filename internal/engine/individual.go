package engine

import (
	"math"

	"github.com/google/uuid"

	"phylogen/internal/genome"
)

// Individual wraps a genome with evaluation and provenance metadata. Fitness
// is nil until the evaluation driver scores it; operators always reset it.
type Individual struct {
	ID             string
	Genome         genome.Genome
	Fitness        *float64
	Generation     int
	Age            int
	ParentIDs      []string
	MutationCount  int
	CrossoverCount int

	// Phenotype is an externally produced artifact cached alongside
	// fitness (for example generated code plus its compile result). The
	// engine never inspects it.
	Phenotype any
}

// Evaluated reports whether the individual carries a fitness score.
func (i Individual) Evaluated() bool { return i.Fitness != nil }

// Clone deep-copies the individual, genome included, keeping identity and
// any cached fitness.
func (i Individual) Clone() Individual {
	out := i
	if i.Genome != nil {
		out.Genome = i.Genome.Clone()
	}
	if i.Fitness != nil {
		fitness := *i.Fitness
		out.Fitness = &fitness
	}
	out.ParentIDs = append([]string(nil), i.ParentIDs...)
	return out
}

// Offspring starts a child from a single parent: fresh identity, cloned
// genome, cached fitness carried over (the genome is identical, and the
// evaluator is deterministic for identical content).
func Offspring(parent Individual) Individual {
	child := parent.Clone()
	child.ID = newID()
	child.Generation = parent.Generation + 1
	child.Age = 0
	child.ParentIDs = []string{parent.ID}
	child.MutationCount = 0
	child.CrossoverCount = 0
	child.Phenotype = parent.Phenotype
	return child
}

func newID() string { return uuid.NewString() }

func fitnessOf(i Individual) float64 {
	if i.Fitness == nil {
		return math.Inf(-1)
	}
	return *i.Fitness
}
