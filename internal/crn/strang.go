package crn

import "fmt"

// SplitParams configures the Strang splitting driver.
type SplitParams struct {
	Integrator string
	Tolerance  float64
	// MacroStep is the splitting step h0.
	MacroStep float64
}

// StrangSplit runs the symmetric jump/flow/jump splitting. Each macro step
// of length h runs the direct method on the slow events for h/2, integrates
// the fast flow over h on the whole state, then runs the slow events for
// another h/2. One sample is recorded per macro step; the last step is
// shortened to land on the horizon.
func (s *Simulator) StrangSplit(m *Model, horizon float64, p SplitParams) (*Trajectory, error) {
	if !(p.MacroStep > 0) {
		return nil, &SimulationError{
			Method: MethodStrangSplit,
			Err:    fmt.Errorf("%w: macro step must be positive, got %g", ErrInvalidArgument, p.MacroStep),
		}
	}
	r, err := s.begin(MethodStrangSplit, m, horizon)
	if err != nil {
		return nil, err
	}
	if err := r.withIntegrator(p.Integrator, p.Tolerance); err != nil {
		return nil, &SimulationError{Method: MethodStrangSplit, Err: err}
	}

	fast, slow := m.FastEvents(), m.SlowEvents()
	for r.clock < horizon {
		start := r.clock
		h := min(p.MacroStep, horizon-start)

		if fired, err := r.jumpWindow(slow, start, h/2); err != nil {
			return r.fail(err, fired)
		}
		r.clock = start
		if err := r.flow(fast, h); err != nil {
			return r.fail(err, "")
		}
		if err := r.refresh(); err != nil {
			return r.fail(err, "")
		}
		if fired, err := r.jumpWindow(slow, start+h/2, h/2); err != nil {
			return r.fail(err, fired)
		}

		r.clock = start
		r.advance(h)
		r.step++
		if err := r.record(""); err != nil {
			return r.fail(err, "")
		}
	}
	return r.finish()
}

// jumpWindow runs the direct method on events over [from, from+width).
// Every jump inside the window is applied and followed by a rate refresh.
// On failure it returns the ID of the offending event.
func (r *run) jumpWindow(events []*Event, from, width float64) (string, error) {
	src := r.model.Source()
	elapsed := 0.0
	for {
		a := AggregateRate(events)
		delta := exponential(a, src)
		if elapsed+delta >= width {
			return "", nil
		}
		elapsed += delta
		r.clock = from + elapsed
		e := events[pickByMass(events, uniform(src)*a)]
		if err := r.apply(e); err != nil {
			return e.ID(), err
		}
		if err := r.refresh(); err != nil {
			return e.ID(), err
		}
	}
}
