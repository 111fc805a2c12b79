package crn

// NetworkConfig is the serialisable definition of a reaction network on a
// 1-D lattice of compartments. It is read from YAML or JSON.
type NetworkConfig struct {
	Name         string            `json:"name" yaml:"name"`
	Compartments int               `json:"compartments,omitempty" yaml:"compartments,omitempty"`
	Lattice      *LatticeConfig    `json:"lattice,omitempty" yaml:"lattice,omitempty"`
	Species      []SpeciesConfig   `json:"species" yaml:"species"`
	Reactions    []ReactionConfig  `json:"reactions,omitempty" yaml:"reactions,omitempty"`
	Diffusions   []DiffusionConfig `json:"diffusions,omitempty" yaml:"diffusions,omitempty"`
}

// LatticeConfig sizes the domain. The compartment spacing is
// Length/Compartments.
type LatticeConfig struct {
	Length float64 `json:"length" yaml:"length"`
}

type SpeciesConfig struct {
	Name        string         `json:"name" yaml:"name"`
	Description string         `json:"description,omitempty" yaml:"description,omitempty"`
	Meta        map[string]any `json:"meta,omitempty" yaml:"meta,omitempty"`
	// Initial holds one value per compartment, or a single value used in
	// every compartment. Empty means zero.
	Initial []float64 `json:"initial,omitempty" yaml:"initial,omitempty"`
}

// TermConfig is one side of a reaction: Count copies of Species.
type TermConfig struct {
	Species string `json:"species" yaml:"species"`
	Count   int    `json:"count,omitempty" yaml:"count,omitempty"`
}

// ReactionConfig defines a mass-action reaction. One event is created per
// listed compartment, or per compartment when the list is empty.
type ReactionConfig struct {
	ID           string       `json:"id" yaml:"id"`
	Reactants    []TermConfig `json:"reactants,omitempty" yaml:"reactants,omitempty"`
	Products     []TermConfig `json:"products,omitempty" yaml:"products,omitempty"`
	Rate         float64      `json:"rate" yaml:"rate"`
	Fast         bool         `json:"fast,omitempty" yaml:"fast,omitempty"`
	Compartments []int        `json:"compartments,omitempty" yaml:"compartments,omitempty"`
}

// DiffusionConfig adds nearest-neighbour hops for one species with
// coefficient D. Each hop has per-copy rate D/h².
type DiffusionConfig struct {
	Species     string  `json:"species" yaml:"species"`
	Coefficient float64 `json:"coefficient" yaml:"coefficient"`
	Fast        bool    `json:"fast,omitempty" yaml:"fast,omitempty"`
}

func (c NetworkConfig) compartments() int {
	if c.Compartments == 0 {
		return 1
	}
	return c.Compartments
}

// Spacing returns the lattice spacing h.
func (c NetworkConfig) Spacing() float64 {
	length := 1.0
	if c.Lattice != nil && c.Lattice.Length > 0 {
		length = c.Lattice.Length
	}
	return length / float64(c.compartments())
}

func (t TermConfig) count() int {
	if t.Count == 0 {
		return 1
	}
	return t.Count
}
