package crn

import (
	"github.com/daniacca/crnsim/internal/crn/ode"
	"gonum.org/v1/gonum/floats"
)

// ReactionRateFlow returns the reaction-rate-equation right-hand side of
// events over the model's full state: the sum of each event's
// stoichiometry weighted by its propensity at y.
func ReactionRateFlow(m *Model, events []*Event) ode.Func {
	scratch := m.state.Clone()
	return func(_ float64, y, dydt []float64) {
		n := len(scratch.Raw())
		scratch.SetRaw(y[:n])
		rateOfChange(scratch, events, dydt[:n])
	}
}

// AugmentedFlow returns the time-changed flow used by the CHV driver. The
// vector is the flat state followed by one clock coordinate, and the
// independent variable is internal time. The slow aggregate rate is the
// jump intensity, so it matches the rates the driver fires with:
//
//	dy/ds = f_fast(y) / (a_slow(y) + lambda)
//	dt/ds = 1 / (a_slow(y) + lambda)
func AugmentedFlow(m *Model, lambda float64) ode.Func {
	scratch := m.state.Clone()
	fast, slow := m.FastEvents(), m.SlowEvents()
	return func(_ float64, y, dydt []float64) {
		n := len(scratch.Raw())
		scratch.SetRaw(y[:n])
		rateOfChange(scratch, fast, dydt[:n])
		a := lambda
		for _, e := range slow {
			a += e.law.Propensity(scratch)
		}
		inv := 1 / a
		floats.Scale(inv, dydt[:n])
		dydt[n] = inv
	}
}

func rateOfChange(s *State, events []*Event, dydt []float64) {
	for i := range dydt {
		dydt[i] = 0
	}
	for _, e := range events {
		if a := flowPropensity(e.law, s); a != 0 {
			floats.AddScaled(dydt, a, e.stoich.RawMatrix().Data)
		}
	}
}
