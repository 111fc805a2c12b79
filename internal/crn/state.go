package crn

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// State holds copy numbers per species (rows) and compartment (columns).
// The backing storage is contiguous and row-major so the flow evaluators
// can hand it to the ODE facility as a flat vector.
type State struct {
	m *mat.Dense
}

// NewState returns a zero state. It panics if either dimension is not
// positive.
func NewState(species, compartments int) *State {
	return &State{m: mat.NewDense(species, compartments, nil)}
}

// StateFrom wraps a copy of data, laid out row-major, as a state.
func StateFrom(species, compartments int, data []float64) (*State, error) {
	if species <= 0 || compartments <= 0 {
		return nil, fmt.Errorf("%w: state shape %dx%d", ErrInvalidArgument, species, compartments)
	}
	if len(data) != species*compartments {
		return nil, fmt.Errorf("%w: %d values for a %dx%d state", ErrInvalidArgument, len(data), species, compartments)
	}
	buf := make([]float64, len(data))
	copy(buf, data)
	return &State{m: mat.NewDense(species, compartments, buf)}, nil
}

// Dims returns the number of species and compartments.
func (s *State) Dims() (species, compartments int) {
	return s.m.Dims()
}

func (s *State) At(species, compartment int) float64 {
	return s.m.At(species, compartment)
}

func (s *State) Set(species, compartment int, v float64) {
	s.m.Set(species, compartment, v)
}

// Raw exposes the backing row-major slice. Writes through it mutate the
// state.
func (s *State) Raw() []float64 {
	return s.m.RawMatrix().Data
}

// SetRaw overwrites the state from a flat row-major vector. Extra values
// are ignored, which lets callers pass augmented ODE vectors.
func (s *State) SetRaw(data []float64) {
	copy(s.Raw(), data)
}

// Matrix returns a read-only view of the state.
func (s *State) Matrix() mat.Matrix {
	return s.m
}

// Apply adds a stoichiometry of the same shape to the state.
func (s *State) Apply(stoich mat.Matrix) {
	s.m.Add(s.m, stoich)
}

// Revert undoes Apply.
func (s *State) Revert(stoich mat.Matrix) {
	s.m.Sub(s.m, stoich)
}

// FirstNegative reports the first negative entry in row-major order.
func (s *State) FirstNegative() (species, compartment int, ok bool) {
	_, c := s.m.Dims()
	for i, v := range s.Raw() {
		if v < 0 {
			return i / c, i % c, true
		}
	}
	return 0, 0, false
}

// Total sums one species over all compartments.
func (s *State) Total(species int) float64 {
	return floats.Sum(s.m.RawRowView(species))
}

// Clone returns a deep copy.
func (s *State) Clone() *State {
	return &State{m: mat.DenseCopyOf(s.m)}
}

// Snapshot copies the state into a matrix that does not alias it.
func (s *State) Snapshot() *mat.Dense {
	return mat.DenseCopyOf(s.m)
}
