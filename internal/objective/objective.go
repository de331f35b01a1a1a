package objective

import (
	"context"
	"fmt"
	"math"
	"sort"

	"phylogen/internal/engine"
	"phylogen/internal/genome"
)

// Objective is a named built-in fitness function with a default template,
// used by the CLI and by end-to-end tests. All objectives are deterministic
// functions of genome content and score into [0, 1].
type Objective struct {
	Name            string
	Family          string
	Description     string
	Evaluator       engine.Evaluator
	DefaultTemplate genome.Template
}

// Resolve returns the named objective from the closed built-in set.
func Resolve(name string) (Objective, error) {
	for _, obj := range builtins() {
		if obj.Name == name {
			return obj, nil
		}
	}
	return Objective{}, fmt.Errorf("unknown objective: %q (known: %v)", name, Names())
}

func Names() []string {
	names := make([]string, 0, len(builtins()))
	for _, obj := range builtins() {
		names = append(names, obj.Name)
	}
	sort.Strings(names)
	return names
}

func builtins() []Objective {
	return []Objective{
		{
			Name:        "sphere",
			Family:      genome.FamilyVector,
			Description: "reward genomes close to the origin",
			Evaluator:   engine.EvaluatorFunc(sphere),
			DefaultTemplate: genome.VectorTemplate{
				Length: 16,
				Min:    -1,
				Max:    1,
			},
		},
		{
			Name:        "ridge",
			Family:      genome.FamilyVector,
			Description: "reward genomes climbing toward the upper bound",
			Evaluator:   engine.EvaluatorFunc(ridge),
			DefaultTemplate: genome.VectorTemplate{
				Length: 16,
				Min:    -1,
				Max:    1,
			},
		},
		{
			Name:        "coverage",
			Family:      genome.FamilyBlueprint,
			Description: "reward blueprints covering their field and action pools",
			Evaluator:   engine.EvaluatorFunc(coverage),
			DefaultTemplate: genome.BlueprintTemplate{
				EntityNames:        []string{"user", "order", "product"},
				FieldPool:          []string{"id", "name", "email", "price", "quantity", "status", "created_at", "owner"},
				RelationKinds:      []string{"has_many", "belongs_to", "references"},
				ActionPool:         []string{"create", "read", "update", "delete", "list", "search"},
				MaxFieldsPerEntity: 5,
				MaxRelations:       6,
				MaxActions:         6,
			},
		},
	}
}

// sphere scores 1 at the origin and decays with the mean squared distance,
// normalized by the gene bounds.
func sphere(_ context.Context, g genome.Genome) (float64, error) {
	vec, ok := g.(*genome.VectorGenome)
	if !ok {
		return 0, fmt.Errorf("sphere objective requires a vector genome, got %T", g)
	}
	if len(vec.Genes) == 0 {
		return 0, nil
	}
	span := math.Max(math.Abs(vec.Min), math.Abs(vec.Max))
	if span == 0 {
		return 1, nil
	}
	total := 0.0
	for _, gene := range vec.Genes {
		norm := gene / span
		total += norm * norm
	}
	return 1 - total/float64(len(vec.Genes)), nil
}

// ridge scores the normalized mean gene value, 1 when every gene sits at the
// upper bound.
func ridge(_ context.Context, g genome.Genome) (float64, error) {
	vec, ok := g.(*genome.VectorGenome)
	if !ok {
		return 0, fmt.Errorf("ridge objective requires a vector genome, got %T", g)
	}
	if len(vec.Genes) == 0 || vec.Max <= vec.Min {
		return 0, nil
	}
	total := 0.0
	for _, gene := range vec.Genes {
		total += (gene - vec.Min) / (vec.Max - vec.Min)
	}
	return total / float64(len(vec.Genes)), nil
}

// coverage scores how much of the template's field and action pools the
// blueprint exercises, with a small weight on relation usage.
func coverage(_ context.Context, g genome.Genome) (float64, error) {
	bp, ok := g.(*genome.BlueprintGenome)
	if !ok {
		return 0, fmt.Errorf("coverage objective requires a blueprint genome, got %T", g)
	}
	tmpl := bp.Template

	fieldsUsed := make(map[string]struct{})
	for _, entity := range bp.Entities {
		for _, field := range entity.Fields {
			fieldsUsed[field] = struct{}{}
		}
	}
	actionsUsed := make(map[string]struct{})
	for _, action := range bp.Actions {
		actionsUsed[action] = struct{}{}
	}

	score := 0.0
	parts := 0
	if len(tmpl.FieldPool) > 0 {
		score += float64(len(fieldsUsed)) / float64(len(tmpl.FieldPool))
		parts++
	}
	if len(tmpl.ActionPool) > 0 {
		score += float64(len(actionsUsed)) / float64(len(tmpl.ActionPool))
		parts++
	}
	if tmpl.MaxRelations > 0 {
		score += float64(len(bp.Relations)) / float64(tmpl.MaxRelations)
		parts++
	}
	if parts == 0 {
		return 0, nil
	}
	return score / float64(parts), nil
}
