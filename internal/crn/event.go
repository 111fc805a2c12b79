package crn

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
)

// Event is one reaction or diffusion channel. Its stoichiometry is fixed at
// construction. Its rate and the next-reaction clock pair change only
// through the methods below.
//
// The clock pair follows the modified next reaction scheme: internal is the
// integrated propensity since the run was armed, next is the internal time
// of the next firing. The waiting estimate is (next-internal)/rate.
type Event struct {
	id     string
	stoich *mat.Dense
	law    RateLaw
	fast   bool

	rate     float64
	internal float64
	next     float64
	waiting  float64
}

// NewEvent creates an event. The stoichiometry is copied.
func NewEvent(id string, stoich mat.Matrix, law RateLaw, fast bool) *Event {
	return &Event{
		id:      id,
		stoich:  mat.DenseCopyOf(stoich),
		law:     law,
		fast:    fast,
		waiting: math.Inf(1),
	}
}

func (e *Event) ID() string { return e.id }

// Rate returns the propensity computed by the last UpdateRate.
func (e *Event) Rate() float64 { return e.rate }

// Fast reports whether hybrid methods treat the event as continuous flow.
func (e *Event) Fast() bool { return e.fast }

// Stoichiometry returns the state change applied when the event fires.
func (e *Event) Stoichiometry() mat.Matrix { return e.stoich }

// WaitingEstimate is the time until the event's next putative firing at
// the current rate.
func (e *Event) WaitingEstimate() float64 { return e.waiting }

// UpdateRate recomputes the propensity from s and refreshes the waiting
// estimate. It returns the new rate.
func (e *Event) UpdateRate(s *State) float64 {
	e.rate = e.law.Propensity(s)
	e.refreshWaiting()
	return e.rate
}

// Arm resets the clock pair at the start of a next-reaction run.
func (e *Event) Arm(src rand.Source) {
	e.internal = 0
	e.next = exponential(1, src)
	e.refreshWaiting()
}

// Fire marks the event as the one that just occurred after elapsed time.
// Its internal clock advances like any other event's and a fresh unit
// exponential is added to its schedule.
func (e *Event) Fire(elapsed float64, src rand.Source) {
	e.internal += e.rate * elapsed
	e.next += exponential(1, src)
	e.refreshWaiting()
}

// NoFire advances the internal clock of an event that did not occur. With
// the rate unchanged this shortens the waiting estimate by exactly elapsed.
func (e *Event) NoFire(elapsed float64) {
	e.internal += e.rate * elapsed
	e.refreshWaiting()
}

func (e *Event) refreshWaiting() {
	if !(e.rate > 0) {
		e.waiting = math.Inf(1)
		return
	}
	w := (e.next - e.internal) / e.rate
	if w < 0 {
		w = 0
	}
	e.waiting = w
}

// Clone returns a deep copy sharing only the immutable rate law.
func (e *Event) Clone() *Event {
	c := *e
	c.stoich = mat.DenseCopyOf(e.stoich)
	return &c
}

func (e *Event) shapeMatches(species, compartments int) bool {
	r, c := e.stoich.Dims()
	return r == species && c == compartments
}
