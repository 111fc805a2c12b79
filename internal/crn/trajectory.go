package crn

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// DefaultCapacity bounds the number of samples a trajectory records.
const DefaultCapacity = 500000

// Trajectory is the sequence of (time, state) samples produced by a driver.
// Index 0 is the initial state at t=0 and times are strictly increasing.
// Snapshots never alias the live state.
type Trajectory struct {
	RunID  string
	Method Method

	Times  []float64
	States []*mat.Dense

	capacity int
}

// NewTrajectory returns an empty trajectory holding at most capacity
// samples. A non-positive capacity selects DefaultCapacity.
func NewTrajectory(capacity int) *Trajectory {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	prealloc := min(capacity, 1024)
	return &Trajectory{
		Times:    make([]float64, 0, prealloc),
		States:   make([]*mat.Dense, 0, prealloc),
		capacity: capacity,
	}
}

// Record appends a snapshot of s at time t. A sample at the same time as
// the last one replaces it. Times going backwards are rejected.
func (tr *Trajectory) Record(t float64, s *State) error {
	if n := len(tr.Times); n > 0 {
		last := tr.Times[n-1]
		if t < last {
			return fmt.Errorf("%w: sample at t=%g after t=%g", ErrInvalidArgument, t, last)
		}
		if t == last {
			tr.States[n-1] = s.Snapshot()
			return nil
		}
	}
	if len(tr.Times) >= tr.capacity {
		return fmt.Errorf("%w: %d samples recorded before t=%g", ErrCapacityExceeded, tr.capacity, t)
	}
	tr.Times = append(tr.Times, t)
	tr.States = append(tr.States, s.Snapshot())
	return nil
}

func (tr *Trajectory) Len() int      { return len(tr.Times) }
func (tr *Trajectory) Capacity() int { return tr.capacity }

// At returns sample i.
func (tr *Trajectory) At(i int) (float64, *mat.Dense) {
	return tr.Times[i], tr.States[i]
}

// Final returns the last sample. It panics on an empty trajectory.
func (tr *Trajectory) Final() (float64, *mat.Dense) {
	return tr.At(len(tr.Times) - 1)
}

// FinalTime returns the time of the last sample, or 0 when empty.
func (tr *Trajectory) FinalTime() float64 {
	if len(tr.Times) == 0 {
		return 0
	}
	return tr.Times[len(tr.Times)-1]
}

// Series extracts one species in one compartment across all samples.
func (tr *Trajectory) Series(species, compartment int) []float64 {
	out := make([]float64, len(tr.States))
	for i, s := range tr.States {
		out[i] = s.At(species, compartment)
	}
	return out
}

// Totals sums one species over compartments for every sample.
func (tr *Trajectory) Totals(species int) []float64 {
	out := make([]float64, len(tr.States))
	for i, s := range tr.States {
		_, c := s.Dims()
		for j := 0; j < c; j++ {
			out[i] += s.At(species, j)
		}
	}
	return out
}
