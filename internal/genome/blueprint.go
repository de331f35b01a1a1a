package genome

import (
	"fmt"
	"hash/fnv"
	"math/rand"
	"sort"
)

const FamilyBlueprint = "blueprint"

// BlueprintTemplate shapes an artifact blueprint genome: a fixed set of
// named entities plus variable-length relation and action collections. The
// pools bound what mutation may draw from; the Max fields bound collection
// growth.
type BlueprintTemplate struct {
	EntityNames        []string
	FieldPool          []string
	RelationKinds      []string
	ActionPool         []string
	MaxFieldsPerEntity int
	MaxRelations       int
	MaxActions         int
}

func (BlueprintTemplate) Family() string { return FamilyBlueprint }

type Entity struct {
	Name   string   `json:"name"`
	Fields []string `json:"fields"`
}

type Relation struct {
	From string `json:"from"`
	To   string `json:"to"`
	Kind string `json:"kind"`
}

// BlueprintGenome models a candidate artifact as entities, relations between
// them, and supported actions. Entity slots are required structure: operators
// may change an entity's fields but never add or drop an entity. Relations
// and actions are variable-length within template bounds. The template rides
// along so operators know their pools and bounds.
type BlueprintGenome struct {
	Entities  []Entity          `json:"entities"`
	Relations []Relation        `json:"relations"`
	Actions   []string          `json:"actions"`
	Template  BlueprintTemplate `json:"template"`
}

func (*BlueprintGenome) Family() string { return FamilyBlueprint }

// UnitCount is one unit per entity plus one for relations and one for actions.
func (g *BlueprintGenome) UnitCount() int { return len(g.Entities) + 2 }

func (g *BlueprintGenome) Clone() Genome {
	entities := make([]Entity, len(g.Entities))
	for i, entity := range g.Entities {
		entities[i] = Entity{
			Name:   entity.Name,
			Fields: append([]string(nil), entity.Fields...),
		}
	}
	return &BlueprintGenome{
		Entities:  entities,
		Relations: append([]Relation(nil), g.Relations...),
		Actions:   append([]string(nil), g.Actions...),
		Template:  g.Template,
	}
}

func (g *BlueprintGenome) Fingerprint() string {
	h := fnv.New64a()
	for _, entity := range g.Entities {
		_, _ = h.Write([]byte("e:" + entity.Name))
		fields := append([]string(nil), entity.Fields...)
		sort.Strings(fields)
		for _, field := range fields {
			_, _ = h.Write([]byte("f:" + field))
		}
	}
	relations := make([]string, 0, len(g.Relations))
	for _, rel := range g.Relations {
		relations = append(relations, "r:"+rel.From+">"+rel.To+":"+rel.Kind)
	}
	sort.Strings(relations)
	for _, rel := range relations {
		_, _ = h.Write([]byte(rel))
	}
	actions := append([]string(nil), g.Actions...)
	sort.Strings(actions)
	for _, action := range actions {
		_, _ = h.Write([]byte("a:" + action))
	}
	return fmt.Sprintf("bp:%016x", h.Sum64())
}

type BlueprintFactory struct{}

func (BlueprintFactory) Family() string { return FamilyBlueprint }

func (BlueprintFactory) Random(rng *rand.Rand, template Template) (Genome, error) {
	if rng == nil {
		return nil, fmt.Errorf("random source is required")
	}
	tmpl, ok := template.(BlueprintTemplate)
	if !ok {
		return nil, fmt.Errorf("blueprint factory: unexpected template %T", template)
	}
	if len(tmpl.EntityNames) == 0 {
		return nil, fmt.Errorf("blueprint template requires at least one entity")
	}
	if tmpl.MaxFieldsPerEntity <= 0 || tmpl.MaxRelations < 0 || tmpl.MaxActions < 0 {
		return nil, fmt.Errorf("blueprint template bounds are invalid")
	}

	entities := make([]Entity, 0, len(tmpl.EntityNames))
	for _, name := range tmpl.EntityNames {
		count := 0
		if len(tmpl.FieldPool) > 0 {
			count = 1 + rng.Intn(tmpl.MaxFieldsPerEntity)
		}
		entities = append(entities, Entity{
			Name:   name,
			Fields: sampleStrings(rng, tmpl.FieldPool, count),
		})
	}

	relations := make([]Relation, 0, tmpl.MaxRelations)
	if tmpl.MaxRelations > 0 && len(tmpl.RelationKinds) > 0 && len(tmpl.EntityNames) > 1 {
		for i := 0; i < rng.Intn(tmpl.MaxRelations+1); i++ {
			relations = appendRelation(relations, randomRelation(rng, tmpl), tmpl.MaxRelations)
		}
	}

	actionCount := 0
	if tmpl.MaxActions > 0 && len(tmpl.ActionPool) > 0 {
		actionCount = rng.Intn(tmpl.MaxActions + 1)
	}

	return &BlueprintGenome{
		Entities:  entities,
		Relations: relations,
		Actions:   sampleStrings(rng, tmpl.ActionPool, actionCount),
		Template:  tmpl,
	}, nil
}

// BlueprintOps mutates one structural slot at a time and combines parents by
// per-entity mask, relation union, and action interleave.
type BlueprintOps struct{}

func (BlueprintOps) Family() string { return FamilyBlueprint }

func (BlueprintOps) MutateUnit(rng *rand.Rand, g Genome, unit int) (Genome, error) {
	if rng == nil {
		return nil, fmt.Errorf("random source is required")
	}
	bp, ok := g.(*BlueprintGenome)
	if !ok {
		return nil, fmt.Errorf("blueprint ops: unexpected genome %T", g)
	}
	if unit < 0 || unit >= bp.UnitCount() {
		return nil, fmt.Errorf("blueprint ops: unit %d out of range [0, %d)", unit, bp.UnitCount())
	}
	out := bp.Clone().(*BlueprintGenome)
	tmpl := out.Template

	switch {
	case unit < len(out.Entities):
		entity := &out.Entities[unit]
		entity.Fields = mutateStringSet(rng, entity.Fields, tmpl.FieldPool, tmpl.MaxFieldsPerEntity)
	case unit == len(out.Entities):
		out.Relations = mutateRelations(rng, out.Relations, tmpl)
	default:
		out.Actions = mutateStringSet(rng, out.Actions, tmpl.ActionPool, tmpl.MaxActions)
	}
	return out, nil
}

func (BlueprintOps) Combine(rng *rand.Rand, a, b Genome, takeFirst []bool) (Genome, error) {
	first, ok := a.(*BlueprintGenome)
	if !ok {
		return nil, fmt.Errorf("blueprint ops: unexpected genome %T", a)
	}
	second, ok := b.(*BlueprintGenome)
	if !ok {
		return nil, fmt.Errorf("blueprint ops: unexpected genome %T", b)
	}
	if !sameEntityNames(first, second) {
		return nil, fmt.Errorf("blueprint ops: entity slots differ between parents")
	}
	if len(takeFirst) < first.UnitCount() {
		return nil, fmt.Errorf("blueprint ops: combine mask too short: %d < %d", len(takeFirst), first.UnitCount())
	}

	child := first.Clone().(*BlueprintGenome)
	for i := range child.Entities {
		if !takeFirst[i] {
			child.Entities[i].Fields = append([]string(nil), second.Entities[i].Fields...)
		}
	}

	// Relations merge by union, first parent's order first, capped at the
	// template bound.
	child.Relations = child.Relations[:0]
	for _, rel := range first.Relations {
		child.Relations = appendRelation(child.Relations, rel, first.Template.MaxRelations)
	}
	for _, rel := range second.Relations {
		child.Relations = appendRelation(child.Relations, rel, first.Template.MaxRelations)
	}

	// Actions interleave under the mask bit for their slot: mask true keeps
	// the first parent's list as the base, false the second's, then the
	// other parent's actions fill remaining capacity.
	base, other := first.Actions, second.Actions
	if !takeFirst[first.UnitCount()-1] {
		base, other = other, base
	}
	child.Actions = child.Actions[:0]
	for _, action := range base {
		child.Actions = appendUnique(child.Actions, action, first.Template.MaxActions)
	}
	for _, action := range other {
		child.Actions = appendUnique(child.Actions, action, first.Template.MaxActions)
	}
	return child, nil
}

func (BlueprintOps) Distance(a, b Genome) float64 {
	first, okA := a.(*BlueprintGenome)
	second, okB := b.(*BlueprintGenome)
	if !okA || !okB || !sameEntityNames(first, second) {
		return 1
	}

	parts := 0
	total := 0.0
	for i := range first.Entities {
		total += jaccardDistance(first.Entities[i].Fields, second.Entities[i].Fields)
		parts++
	}
	total += jaccardDistance(relationKeys(first.Relations), relationKeys(second.Relations))
	parts++
	total += jaccardDistance(first.Actions, second.Actions)
	parts++
	return total / float64(parts)
}

func sameEntityNames(a, b *BlueprintGenome) bool {
	if len(a.Entities) != len(b.Entities) {
		return false
	}
	for i := range a.Entities {
		if a.Entities[i].Name != b.Entities[i].Name {
			return false
		}
	}
	return true
}

func relationKeys(relations []Relation) []string {
	keys := make([]string, 0, len(relations))
	for _, rel := range relations {
		keys = append(keys, rel.From+">"+rel.To+":"+rel.Kind)
	}
	return keys
}

func jaccardDistance(a, b []string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	setA := make(map[string]struct{}, len(a))
	for _, item := range a {
		setA[item] = struct{}{}
	}
	union := make(map[string]struct{}, len(a)+len(b))
	for item := range setA {
		union[item] = struct{}{}
	}
	intersection := 0
	seenB := make(map[string]struct{}, len(b))
	for _, item := range b {
		if _, dup := seenB[item]; dup {
			continue
		}
		seenB[item] = struct{}{}
		if _, ok := setA[item]; ok {
			intersection++
		}
		union[item] = struct{}{}
	}
	return 1 - float64(intersection)/float64(len(union))
}

func mutateStringSet(rng *rand.Rand, current, pool []string, bound int) []string {
	if len(pool) == 0 || bound <= 0 {
		return current
	}
	out := append([]string(nil), current...)
	switch op := rng.Intn(3); {
	case op == 0 && len(out) < bound:
		out = appendUnique(out, pool[rng.Intn(len(pool))], bound)
	case op == 1 && len(out) > 0:
		idx := rng.Intn(len(out))
		out = append(out[:idx], out[idx+1:]...)
	case len(out) > 0:
		out[rng.Intn(len(out))] = pool[rng.Intn(len(pool))]
	default:
		out = appendUnique(out, pool[rng.Intn(len(pool))], bound)
	}
	return out
}

func mutateRelations(rng *rand.Rand, current []Relation, tmpl BlueprintTemplate) []Relation {
	if tmpl.MaxRelations <= 0 || len(tmpl.RelationKinds) == 0 || len(tmpl.EntityNames) < 2 {
		return current
	}
	out := append([]Relation(nil), current...)
	switch op := rng.Intn(2); {
	case op == 0 && len(out) < tmpl.MaxRelations:
		out = appendRelation(out, randomRelation(rng, tmpl), tmpl.MaxRelations)
	case len(out) > 0:
		idx := rng.Intn(len(out))
		out = append(out[:idx], out[idx+1:]...)
	default:
		out = appendRelation(out, randomRelation(rng, tmpl), tmpl.MaxRelations)
	}
	return out
}

func randomRelation(rng *rand.Rand, tmpl BlueprintTemplate) Relation {
	from := tmpl.EntityNames[rng.Intn(len(tmpl.EntityNames))]
	to := tmpl.EntityNames[rng.Intn(len(tmpl.EntityNames))]
	for to == from && len(tmpl.EntityNames) > 1 {
		to = tmpl.EntityNames[rng.Intn(len(tmpl.EntityNames))]
	}
	return Relation{
		From: from,
		To:   to,
		Kind: tmpl.RelationKinds[rng.Intn(len(tmpl.RelationKinds))],
	}
}

func appendRelation(relations []Relation, rel Relation, bound int) []Relation {
	if bound > 0 && len(relations) >= bound {
		return relations
	}
	for _, existing := range relations {
		if existing == rel {
			return relations
		}
	}
	return append(relations, rel)
}

func appendUnique(items []string, item string, bound int) []string {
	if bound > 0 && len(items) >= bound {
		return items
	}
	for _, existing := range items {
		if existing == item {
			return items
		}
	}
	return append(items, item)
}

func sampleStrings(rng *rand.Rand, pool []string, count int) []string {
	if count <= 0 || len(pool) == 0 {
		return []string{}
	}
	if count > len(pool) {
		count = len(pool)
	}
	picked := make([]string, 0, count)
	for _, idx := range rng.Perm(len(pool))[:count] {
		picked = append(picked, pool[idx])
	}
	return picked
}
