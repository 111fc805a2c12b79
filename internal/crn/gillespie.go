package crn

// Gillespie runs the exact direct method: the waiting time is exponential
// in the aggregate rate and the firing event is chosen with probability
// proportional to its rate.
func (s *Simulator) Gillespie(m *Model, horizon float64) (*Trajectory, error) {
	r, err := s.begin(MethodGillespie, m, horizon)
	if err != nil {
		return nil, err
	}
	events := m.Events()
	src := m.Source()

	for {
		a0 := AggregateRate(events)
		if !(a0 > 0) {
			break
		}
		delta := exponential(a0, src)
		if r.clock+delta > horizon {
			break
		}
		fired := SelectEvent(events, uniform(src))
		r.clock += delta
		if err := r.apply(fired); err != nil {
			return r.fail(err, fired.ID())
		}
		if err := r.refresh(); err != nil {
			return r.fail(err, fired.ID())
		}
		r.step++
		if err := r.record(fired.ID()); err != nil {
			return r.fail(err, fired.ID())
		}
	}
	return r.finish()
}

// SelectEvent picks an event by inverse-CDF search over the current rates:
// the first event whose cumulative share of the aggregate rate exceeds u,
// for u in [0, 1). It returns nil when every rate is zero.
func SelectEvent(events []*Event, u float64) *Event {
	idx := pickByMass(events, u*AggregateRate(events))
	if idx < 0 {
		return nil
	}
	return events[idx]
}

// pickByMass returns the first index whose cumulative rate exceeds target.
// Rounding past the total falls back to the last event with positive rate.
func pickByMass(events []*Event, target float64) int {
	var cum float64
	last := -1
	for i, e := range events {
		a := e.Rate()
		if a <= 0 {
			continue
		}
		cum += a
		last = i
		if cum > target {
			return i
		}
	}
	return last
}
