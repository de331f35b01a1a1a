package genome

import (
	"encoding/json"
	"fmt"
	"math/rand"
)

// Genome is an opaque structured candidate subject to evolution. The engine
// requires only cloning, a stable fingerprint for diversity estimation, and
// a unit count so the per-unit operators know how many coins to flip.
type Genome interface {
	Family() string
	Clone() Genome
	Fingerprint() string
	UnitCount() int
}

// Template describes the shape an initial random genome must match. Concrete
// templates are family-specific; the engine treats them as opaque.
type Template interface {
	Family() string
}

// Factory produces initial random genomes matching a template.
type Factory interface {
	Family() string
	Random(rng *rand.Rand, template Template) (Genome, error)
}

// Ops carries the family-specific operator strategy injected into the engine.
//
// MutateUnit perturbs one mutable unit and returns a new genome; it must
// preserve the structural shape of its input (required slots stay present,
// variable-length collections stay within the family's bounds). Combine
// performs uniform crossover driven by takeFirst: unit i comes from a when
// takeFirst[i] is true, from b otherwise; variable-length collections follow
// the family's union or interleaving policy. Distance is a deterministic
// normalized dissimilarity in [0, 1].
type Ops interface {
	Family() string
	MutateUnit(rng *rand.Rand, g Genome, unit int) (Genome, error)
	Combine(rng *rand.Rand, a, b Genome, takeFirst []bool) (Genome, error)
	Distance(a, b Genome) float64
}

type envelope struct {
	Family  string          `json:"family"`
	Payload json.RawMessage `json:"payload"`
}

// Encode serializes a genome with its family tag for persistence.
func Encode(g Genome) ([]byte, error) {
	if g == nil {
		return nil, fmt.Errorf("genome is nil")
	}
	payload, err := json.Marshal(g)
	if err != nil {
		return nil, err
	}
	return json.Marshal(envelope{Family: g.Family(), Payload: payload})
}

// Decode restores a genome from its tagged serialized form. The family set
// is closed; unknown tags are an error, never a silent coercion.
func Decode(data []byte) (Genome, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, err
	}
	switch env.Family {
	case FamilyVector:
		var g VectorGenome
		if err := json.Unmarshal(env.Payload, &g); err != nil {
			return nil, fmt.Errorf("decode vector genome: %w", err)
		}
		return &g, nil
	case FamilyBlueprint:
		var g BlueprintGenome
		if err := json.Unmarshal(env.Payload, &g); err != nil {
			return nil, fmt.Errorf("decode blueprint genome: %w", err)
		}
		return &g, nil
	default:
		return nil, fmt.Errorf("unknown genome family: %q", env.Family)
	}
}
