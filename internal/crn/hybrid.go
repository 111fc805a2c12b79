package crn

import "fmt"

// HybridParams configures the threshold-adaptive driver.
type HybridParams struct {
	Integrator string
	// Tolerance is the integrator tolerance h1.
	Tolerance float64
	// Window is the comparison threshold h2.
	Window float64
}

// GillespieHybrid runs the threshold-adaptive hybrid. Each step draws a
// waiting time from the slow aggregate rate. A draw inside the window
// fires a slow event and then flows the fast events over the draw;
// otherwise the fast events flow over the whole window with no jump. The
// fixed window biases the jump decision, so the method is approximate.
func (s *Simulator) GillespieHybrid(m *Model, horizon float64, p HybridParams) (*Trajectory, error) {
	if !(p.Window > 0) {
		return nil, &SimulationError{
			Method: MethodGillespieHybrid,
			Err:    fmt.Errorf("%w: window must be positive, got %g", ErrInvalidArgument, p.Window),
		}
	}
	r, err := s.begin(MethodGillespieHybrid, m, horizon)
	if err != nil {
		return nil, err
	}
	if err := r.withIntegrator(p.Integrator, p.Tolerance); err != nil {
		return nil, &SimulationError{Method: MethodGillespieHybrid, Err: err}
	}

	fast, slow := m.FastEvents(), m.SlowEvents()
	src := m.Source()
	for r.clock < horizon {
		remaining := horizon - r.clock
		a := AggregateRate(slow)
		delta := exponential(a, src)

		fired := ""
		span := min(p.Window, remaining)
		if delta < p.Window && delta <= remaining {
			e := slow[pickByMass(slow, uniform(src)*a)]
			if err := r.apply(e); err != nil {
				return r.fail(err, e.ID())
			}
			fired = e.ID()
			span = delta
		}
		if err := r.flow(fast, span); err != nil {
			return r.fail(err, fired)
		}
		r.advance(span)
		if err := r.refresh(); err != nil {
			return r.fail(err, fired)
		}
		r.step++
		if err := r.record(fired); err != nil {
			return r.fail(err, fired)
		}
	}
	return r.finish()
}
