package crn

import "math"

// NextReaction runs the exact event-driven method. Every event keeps its
// own clock pair, the event with the smallest waiting estimate fires, and
// the others advance by the elapsed time. Ties go to the lowest index in
// m.Events().
func (s *Simulator) NextReaction(m *Model, horizon float64) (*Trajectory, error) {
	r, err := s.begin(MethodNextReaction, m, horizon)
	if err != nil {
		return nil, err
	}
	events := m.Events()
	src := m.Source()
	for _, e := range events {
		e.Arm(src)
	}

	for {
		idx, delta := nextToFire(events)
		if idx < 0 || r.clock+delta > horizon {
			break
		}
		fired := events[idx]
		r.clock += delta
		if err := r.apply(fired); err != nil {
			return r.fail(err, fired.ID())
		}
		for i, e := range events {
			if i == idx {
				e.Fire(delta, src)
			} else {
				e.NoFire(delta)
			}
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

// nextToFire returns the index and waiting estimate of the first event with
// the minimum estimate, or -1 when no event can fire.
func nextToFire(events []*Event) (int, float64) {
	idx := -1
	var best float64
	for i, e := range events {
		w := e.WaitingEstimate()
		if math.IsInf(w, 1) {
			continue
		}
		if idx < 0 || w < best {
			idx, best = i, w
		}
	}
	return idx, best
}
