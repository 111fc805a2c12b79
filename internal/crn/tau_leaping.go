package crn

// TauLeaping is the approximate leaping method. It is not implemented and
// always fails with ErrUnimplemented without touching the model.
func (s *Simulator) TauLeaping(m *Model, horizon float64) (*Trajectory, error) {
	s.logger.Warnf("%s requested but not implemented", MethodTauLeaping)
	return nil, &SimulationError{Method: MethodTauLeaping, Err: ErrUnimplemented}
}
