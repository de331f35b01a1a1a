package genome

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"math"
	"math/rand"
)

const FamilyVector = "vector"

// VectorTemplate shapes a fixed-length real-valued genome with per-gene bounds.
type VectorTemplate struct {
	Length int
	Min    float64
	Max    float64
}

func (VectorTemplate) Family() string { return FamilyVector }

// VectorGenome is a fixed-length slice of bounded reals. Each gene is one
// mutable unit.
type VectorGenome struct {
	Min   float64   `json:"min"`
	Max   float64   `json:"max"`
	Genes []float64 `json:"genes"`
}

func (*VectorGenome) Family() string { return FamilyVector }

func (g *VectorGenome) Clone() Genome {
	return &VectorGenome{
		Min:   g.Min,
		Max:   g.Max,
		Genes: append([]float64(nil), g.Genes...),
	}
}

func (g *VectorGenome) UnitCount() int { return len(g.Genes) }

func (g *VectorGenome) Fingerprint() string {
	h := fnv.New64a()
	var buf [8]byte
	for _, gene := range g.Genes {
		binary.BigEndian.PutUint64(buf[:], math.Float64bits(gene))
		_, _ = h.Write(buf[:])
	}
	return fmt.Sprintf("vec:%016x", h.Sum64())
}

type VectorFactory struct{}

func (VectorFactory) Family() string { return FamilyVector }

func (VectorFactory) Random(rng *rand.Rand, template Template) (Genome, error) {
	if rng == nil {
		return nil, fmt.Errorf("random source is required")
	}
	tmpl, ok := template.(VectorTemplate)
	if !ok {
		return nil, fmt.Errorf("vector factory: unexpected template %T", template)
	}
	if tmpl.Length <= 0 {
		return nil, fmt.Errorf("vector template length must be > 0")
	}
	if tmpl.Max <= tmpl.Min {
		return nil, fmt.Errorf("vector template bounds are invalid: min=%v max=%v", tmpl.Min, tmpl.Max)
	}
	genes := make([]float64, tmpl.Length)
	for i := range genes {
		genes[i] = tmpl.Min + rng.Float64()*(tmpl.Max-tmpl.Min)
	}
	return &VectorGenome{Min: tmpl.Min, Max: tmpl.Max, Genes: genes}, nil
}

// VectorOps perturbs genes by a gaussian step scaled to the gene range and
// combines parents gene-by-gene.
type VectorOps struct {
	// Sigma is the perturbation standard deviation as a fraction of the
	// gene range. Zero selects the default of 0.1.
	Sigma float64
}

func (VectorOps) Family() string { return FamilyVector }

func (o VectorOps) MutateUnit(rng *rand.Rand, g Genome, unit int) (Genome, error) {
	if rng == nil {
		return nil, fmt.Errorf("random source is required")
	}
	vec, ok := g.(*VectorGenome)
	if !ok {
		return nil, fmt.Errorf("vector ops: unexpected genome %T", g)
	}
	if unit < 0 || unit >= len(vec.Genes) {
		return nil, fmt.Errorf("vector ops: unit %d out of range [0, %d)", unit, len(vec.Genes))
	}
	sigma := o.Sigma
	if sigma <= 0 {
		sigma = 0.1
	}
	out := vec.Clone().(*VectorGenome)
	step := rng.NormFloat64() * sigma * (vec.Max - vec.Min)
	out.Genes[unit] = clamp(out.Genes[unit]+step, vec.Min, vec.Max)
	return out, nil
}

func (VectorOps) Combine(_ *rand.Rand, a, b Genome, takeFirst []bool) (Genome, error) {
	first, ok := a.(*VectorGenome)
	if !ok {
		return nil, fmt.Errorf("vector ops: unexpected genome %T", a)
	}
	second, ok := b.(*VectorGenome)
	if !ok {
		return nil, fmt.Errorf("vector ops: unexpected genome %T", b)
	}
	if len(first.Genes) != len(second.Genes) {
		return nil, fmt.Errorf("vector ops: gene length mismatch: %d vs %d", len(first.Genes), len(second.Genes))
	}
	if len(takeFirst) < len(first.Genes) {
		return nil, fmt.Errorf("vector ops: combine mask too short: %d < %d", len(takeFirst), len(first.Genes))
	}
	child := first.Clone().(*VectorGenome)
	for i := range child.Genes {
		if !takeFirst[i] {
			child.Genes[i] = second.Genes[i]
		}
	}
	return child, nil
}

func (VectorOps) Distance(a, b Genome) float64 {
	first, okA := a.(*VectorGenome)
	second, okB := b.(*VectorGenome)
	if !okA || !okB || len(first.Genes) != len(second.Genes) {
		return 1
	}
	if len(first.Genes) == 0 {
		return 0
	}
	span := first.Max - first.Min
	if span <= 0 {
		return 0
	}
	total := 0.0
	for i := range first.Genes {
		total += math.Abs(first.Genes[i]-second.Genes[i]) / span
	}
	return clamp(total/float64(len(first.Genes)), 0, 1)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
