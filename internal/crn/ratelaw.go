package crn

import "math"

// RateLaw computes an event's propensity from the current state. It must be
// a pure function of the state and must never return a negative value.
//
// Propensity is the jump intensity. It must be zero whenever firing the
// event would consume more copies than are present, including when hybrid
// flows have left a fractional population.
type RateLaw interface {
	Propensity(s *State) float64
}

// FlowLaw is implemented by rate laws whose reaction-rate form differs from
// the jump intensity. Flows use FlowPropensity when it is available.
type FlowLaw interface {
	FlowPropensity(s *State) float64
}

// RateLawFunc adapts a plain function to RateLaw.
type RateLawFunc func(s *State) float64

func (f RateLawFunc) Propensity(s *State) float64 { return f(s) }

// flowPropensity is the rate used by the reaction-rate equations.
func flowPropensity(law RateLaw, s *State) float64 {
	if fl, ok := law.(FlowLaw); ok {
		return fl.FlowPropensity(s)
	}
	return law.Propensity(s)
}

// Reactant is one species consumed by a mass-action reaction.
type Reactant struct {
	Species int
	Order   int
}

// MassAction is the stochastic mass-action law in a single compartment:
// K times the number of distinct reactant combinations. A reaction with no
// reactants (a source) has constant propensity K.
type MassAction struct {
	K           float64
	Compartment int
	Reactants   []Reactant
}

// Propensity counts combinations over whole copies only, so a reactant
// holding fewer than Order copies gives zero.
func (m MassAction) Propensity(s *State) float64 {
	return m.combinations(s, math.Floor)
}

// FlowPropensity is the same combinatorial form over the continuous
// population.
func (m MassAction) FlowPropensity(s *State) float64 {
	return m.combinations(s, nil)
}

func (m MassAction) combinations(s *State, round func(float64) float64) float64 {
	a := m.K
	for _, r := range m.Reactants {
		x := s.At(r.Species, m.Compartment)
		if round != nil {
			x = round(x)
		}
		for j := 0; j < r.Order; j++ {
			f := x - float64(j)
			if f <= 0 {
				return 0
			}
			a *= f / float64(j+1)
		}
	}
	return a
}

// Hop is a diffusion jump of one copy of Species out of compartment From.
// K is the per-copy hop rate, D/h² on a uniform lattice.
type Hop struct {
	K       float64
	Species int
	From    int
}

func (h Hop) Propensity(s *State) float64 {
	return h.rate(math.Floor(s.At(h.Species, h.From)))
}

func (h Hop) FlowPropensity(s *State) float64 {
	return h.rate(s.At(h.Species, h.From))
}

func (h Hop) rate(x float64) float64 {
	if x <= 0 {
		return 0
	}
	return h.K * x
}
