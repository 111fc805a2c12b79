package crn

import (
	"fmt"
	"math"
	"math/rand/v2"
	"strings"
	"time"
)

// Model owns the system state, the ordered event list and the fast/slow
// partition used by the hybrid drivers. A Model is mutated in place by
// every driver and is not safe for concurrent use; ensembles run on
// clones.
type Model struct {
	Name         string
	species      []Species
	compartments int
	state        *State
	events       []*Event
	fast         []*Event
	slow         []*Event
	seed         uint64
	src          *rand.PCG
}

// NewModel creates a model with a zero state of len(species) rows and the
// given number of compartments. The random stream is seeded from the clock
// until WithSeed is called.
func NewModel(name string, species []Species, compartments int) *Model {
	seed := uint64(time.Now().UnixNano())
	m := &Model{
		Name:         name,
		species:      append([]Species(nil), species...),
		compartments: compartments,
		seed:         seed,
		src:          newSource(seed),
	}
	if len(species) > 0 && compartments > 0 {
		m.state = NewState(len(species), compartments)
	}
	return m
}

func newSource(seed uint64) *rand.PCG {
	return rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)
}

// WithEvents appends events and returns the model for method chaining.
// Each event joins the fast or slow subset according to its Fast flag.
func (m *Model) WithEvents(events ...*Event) *Model {
	for _, e := range events {
		m.events = append(m.events, e)
		if e.Fast() {
			m.fast = append(m.fast, e)
		} else {
			m.slow = append(m.slow, e)
		}
	}
	return m
}

// WithSeed reseeds the model's random stream.
func (m *Model) WithSeed(seed uint64) *Model {
	m.seed = seed
	m.src = newSource(seed)
	return m
}

// WithState replaces the system state. The state is not copied.
func (m *Model) WithState(s *State) *Model {
	m.state = s
	return m
}

func (m *Model) Species() []Species { return m.species }

// SpeciesIndex returns the state row of a species.
func (m *Model) SpeciesIndex(name SpeciesName) (int, bool) {
	for i, sp := range m.species {
		if sp.Name == name {
			return i, true
		}
	}
	return 0, false
}

func (m *Model) Compartments() int    { return m.compartments }
func (m *Model) State() *State        { return m.state }
func (m *Model) Events() []*Event     { return m.events }
func (m *Model) FastEvents() []*Event { return m.fast }
func (m *Model) SlowEvents() []*Event { return m.slow }
func (m *Model) Seed() uint64         { return m.seed }

// Source is the model's random stream. Every draw a driver makes comes
// from it, so a seeded model reproduces its trajectory.
func (m *Model) Source() rand.Source { return m.src }

// Clone deep-copies state and events and gives the copy its own stream.
func (m *Model) Clone(seed uint64) *Model {
	c := &Model{
		Name:         m.Name,
		species:      append([]Species(nil), m.species...),
		compartments: m.compartments,
	}
	if m.state != nil {
		c.state = m.state.Clone()
	}
	for _, e := range m.events {
		c.WithEvents(e.Clone())
	}
	return c.WithSeed(seed)
}

// Validate checks the structural invariants the drivers rely on.
func (m *Model) Validate() error {
	var issues []string
	if len(m.species) == 0 {
		issues = append(issues, "model has no species")
	}
	if m.compartments <= 0 {
		issues = append(issues, fmt.Sprintf("compartment count must be positive, got %d", m.compartments))
	}
	if m.state == nil {
		issues = append(issues, "model has no state")
	} else {
		r, c := m.state.Dims()
		if r != len(m.species) || c != m.compartments {
			issues = append(issues, fmt.Sprintf("state is %dx%d, want %dx%d", r, c, len(m.species), m.compartments))
		}
		for _, v := range m.state.Raw() {
			if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
				issues = append(issues, "initial state must be finite and non-negative")
				break
			}
		}
	}

	seen := make(map[*Event]bool, len(m.events))
	for i, e := range m.events {
		if e == nil {
			issues = append(issues, fmt.Sprintf("event at index %d is nil", i))
			continue
		}
		if seen[e] {
			issues = append(issues, fmt.Sprintf("event %q appears twice", e.ID()))
		}
		seen[e] = true
		if e.law == nil {
			issues = append(issues, fmt.Sprintf("event %q has no rate law", e.ID()))
		}
		if !e.shapeMatches(len(m.species), m.compartments) {
			r, c := e.stoich.Dims()
			issues = append(issues, fmt.Sprintf("event %q stoichiometry is %dx%d, want %dx%d", e.ID(), r, c, len(m.species), m.compartments))
		}
	}

	inFast := make(map[*Event]bool, len(m.fast))
	for _, e := range m.fast {
		inFast[e] = true
	}
	for _, e := range m.slow {
		if inFast[e] {
			issues = append(issues, fmt.Sprintf("event %q is both fast and slow", e.ID()))
		}
	}
	if len(m.fast)+len(m.slow) != len(m.events) {
		issues = append(issues, "fast and slow events do not cover the event list")
	}
	for _, e := range append(append([]*Event(nil), m.fast...), m.slow...) {
		if !seen[e] {
			issues = append(issues, fmt.Sprintf("partitioned event %q is not in the event list", e.ID()))
		}
	}

	if len(issues) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidArgument, strings.Join(issues, "; "))
	}
	return nil
}

// UpdateRates recomputes the rates of events from the current state. It
// stops at the first negative or NaN propensity.
func (m *Model) UpdateRates(events []*Event) error {
	for _, e := range events {
		if a := e.UpdateRate(m.state); a < 0 || math.IsNaN(a) {
			return fmt.Errorf("%w: event %s returned %g", ErrNegativeRate, e.ID(), a)
		}
	}
	return nil
}

// AggregateRate sums the current rates of events.
func AggregateRate(events []*Event) float64 {
	var a float64
	for _, e := range events {
		a += e.Rate()
	}
	return a
}
