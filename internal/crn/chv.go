package crn

import "fmt"

// CHVParams configures the piecewise-deterministic driver.
type CHVParams struct {
	Integrator string
	Tolerance  float64
	// SamplingRate is the resampling rate lambda added to the slow
	// aggregate rate. It must be positive.
	SamplingRate float64
}

// CHV runs the piecewise-deterministic hybrid. Fast events are integrated
// as reaction-rate equations and slow events jump. Each outer step
// integrates the time-changed flow over an Exp(1) span of internal time;
// the clock coordinate at the end is the elapsed real time. At that point
// a slow event fires with probability a/(a+lambda), otherwise the step is
// a pure resampling tick. A step that would pass the horizon is discarded
// and the fast flow alone carries the state from the last accepted step to
// exactly the horizon.
func (s *Simulator) CHV(m *Model, horizon float64, p CHVParams) (*Trajectory, error) {
	if !(p.SamplingRate > 0) {
		return nil, &SimulationError{
			Method: MethodCHV,
			Err:    fmt.Errorf("%w: sampling rate must be positive, got %g", ErrInvalidArgument, p.SamplingRate),
		}
	}
	r, err := s.begin(MethodCHV, m, horizon)
	if err != nil {
		return nil, err
	}
	if err := r.withIntegrator(p.Integrator, p.Tolerance); err != nil {
		return nil, &SimulationError{Method: MethodCHV, Err: err}
	}

	lambda := p.SamplingRate
	fast, slow := m.FastEvents(), m.SlowEvents()
	src := m.Source()
	aug := AugmentedFlow(m, lambda)
	n := len(m.state.Raw())
	y := make([]float64, n+1)

	for {
		copy(y, m.state.Raw())
		y[n] = 0
		out, _, err := r.integ.Integrate(aug, y, exponential(1, src), r.tol)
		if err != nil {
			return r.fail(fmt.Errorf("%w: %w", ErrIntegrator, err), "")
		}
		elapsed := out[n]
		if r.clock+elapsed >= horizon {
			if err := r.flow(fast, horizon-r.clock); err != nil {
				return r.fail(err, "")
			}
			break
		}

		m.state.SetRaw(out[:n])
		r.clock += elapsed
		if err := r.settle(); err != nil {
			return r.fail(err, "")
		}
		if err := r.refresh(); err != nil {
			return r.fail(err, "")
		}

		fired := ""
		a := AggregateRate(slow)
		if u := uniform(src) * (a + lambda); u >= lambda {
			e := slow[pickByMass(slow, u-lambda)]
			if err := r.apply(e); err != nil {
				return r.fail(err, e.ID())
			}
			if err := r.refresh(); err != nil {
				return r.fail(err, e.ID())
			}
			fired = e.ID()
		}
		r.step++
		if err := r.record(fired); err != nil {
			return r.fail(err, fired)
		}
	}
	return r.finish()
}
