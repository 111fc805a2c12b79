package client

import "github.com/daniacca/crnsim/internal/crn"

// NetworkBuilder provides a fluent API for building network definitions.
type NetworkBuilder struct {
	name         string
	compartments int
	length       float64
	species      []crn.SpeciesConfig
	reactions    []*ReactionBuilder
	diffusions   []crn.DiffusionConfig
}

// NewNetwork creates a builder for a single-compartment network.
func NewNetwork(name string) *NetworkBuilder {
	return &NetworkBuilder{name: name}
}

// Compartments spreads the network over n compartments on a 1-D lattice.
func (nb *NetworkBuilder) Compartments(n int) *NetworkBuilder {
	nb.compartments = n
	return nb
}

// Length sets the lattice length; the spacing is length/compartments.
func (nb *NetworkBuilder) Length(length float64) *NetworkBuilder {
	nb.length = length
	return nb
}

// Species adds a species. initial holds one count per compartment, or a
// single count used everywhere.
func (nb *NetworkBuilder) Species(name string, initial ...float64) *NetworkBuilder {
	nb.species = append(nb.species, crn.SpeciesConfig{Name: name, Initial: initial})
	return nb
}

// Reaction adds a reaction.
func (nb *NetworkBuilder) Reaction(rb *ReactionBuilder) *NetworkBuilder {
	nb.reactions = append(nb.reactions, rb)
	return nb
}

// Diffuse lets species hop between neighbouring compartments with
// coefficient d.
func (nb *NetworkBuilder) Diffuse(species string, d float64) *NetworkBuilder {
	nb.diffusions = append(nb.diffusions, crn.DiffusionConfig{Species: species, Coefficient: d})
	return nb
}

// DiffuseFast is Diffuse with the hops treated as fast events.
func (nb *NetworkBuilder) DiffuseFast(species string, d float64) *NetworkBuilder {
	nb.diffusions = append(nb.diffusions, crn.DiffusionConfig{Species: species, Coefficient: d, Fast: true})
	return nb
}

// Build returns the network definition.
func (nb *NetworkBuilder) Build() crn.NetworkConfig {
	cfg := crn.NetworkConfig{
		Name:         nb.name,
		Compartments: nb.compartments,
		Species:      nb.species,
		Diffusions:   nb.diffusions,
	}
	if nb.length > 0 {
		cfg.Lattice = &crn.LatticeConfig{Length: nb.length}
	}
	for _, rb := range nb.reactions {
		cfg.Reactions = append(cfg.Reactions, rb.Build())
	}
	return cfg
}

// ReactionBuilder provides a fluent API for one mass-action reaction.
type ReactionBuilder struct {
	cfg crn.ReactionConfig
}

// NewReaction creates a reaction with rate constant 1.
func NewReaction(id string) *ReactionBuilder {
	return &ReactionBuilder{cfg: crn.ReactionConfig{ID: id, Rate: 1}}
}

// Consumes adds count copies of species to the reactants.
func (rb *ReactionBuilder) Consumes(species string, count int) *ReactionBuilder {
	rb.cfg.Reactants = append(rb.cfg.Reactants, crn.TermConfig{Species: species, Count: count})
	return rb
}

// Produces adds count copies of species to the products.
func (rb *ReactionBuilder) Produces(species string, count int) *ReactionBuilder {
	rb.cfg.Products = append(rb.cfg.Products, crn.TermConfig{Species: species, Count: count})
	return rb
}

// Rate sets the mass-action rate constant.
func (rb *ReactionBuilder) Rate(k float64) *ReactionBuilder {
	rb.cfg.Rate = k
	return rb
}

// Fast marks the reaction for the continuous part of hybrid methods.
func (rb *ReactionBuilder) Fast() *ReactionBuilder {
	rb.cfg.Fast = true
	return rb
}

// In restricts the reaction to the given compartments.
func (rb *ReactionBuilder) In(compartments ...int) *ReactionBuilder {
	rb.cfg.Compartments = append(rb.cfg.Compartments, compartments...)
	return rb
}

func (rb *ReactionBuilder) Build() crn.ReactionConfig {
	cfg := rb.cfg
	cfg.Reactants = append([]crn.TermConfig(nil), rb.cfg.Reactants...)
	cfg.Products = append([]crn.TermConfig(nil), rb.cfg.Products...)
	cfg.Compartments = append([]int(nil), rb.cfg.Compartments...)
	return cfg
}
