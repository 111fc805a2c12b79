package crn

import (
	"errors"
	"fmt"
	"math"

	"github.com/daniacca/crnsim/internal/crn/ode"
)

// Params collects the numeric parameters of every driver so a run can be
// configured by method name. Fields a method does not use are ignored.
type Params struct {
	// Integrator names the ODE method; empty selects ode.DefaultMethod.
	Integrator string
	// Tolerance is the absolute and relative integrator tolerance.
	Tolerance float64
	// SamplingRate is the CHV resampling rate lambda.
	SamplingRate float64
	// MacroStep is the Strang splitting step h0.
	MacroStep float64
	// Window is the threshold-adaptive comparison window h2.
	Window float64
}

// DefaultParams returns the parameters used when a run configuration
// leaves them unset.
func DefaultParams() Params {
	return Params{
		Integrator:   ode.DefaultMethod,
		Tolerance:    1e-6,
		SamplingRate: 1,
		MacroStep:    0.01,
		Window:       0.01,
	}
}

func (p Params) CHV() CHVParams {
	return CHVParams{Integrator: p.Integrator, Tolerance: p.Tolerance, SamplingRate: p.SamplingRate}
}

func (p Params) Split() SplitParams {
	return SplitParams{Integrator: p.Integrator, Tolerance: p.Tolerance, MacroStep: p.MacroStep}
}

func (p Params) Hybrid() HybridParams {
	return HybridParams{Integrator: p.Integrator, Tolerance: p.Tolerance, Window: p.Window}
}

// Simulator runs drivers against models. It holds run settings only; all
// simulation state lives in the Model passed to each call, so one
// Simulator may serve concurrent calls on distinct models.
type Simulator struct {
	capacity    int
	logger      Logger
	notifierMgr *NotificationManager
	notifierIDs []string
}

// NewSimulator creates a simulator with DefaultCapacity and no logging.
func NewSimulator() *Simulator {
	return &Simulator{
		capacity: DefaultCapacity,
		logger:   NewNoOpLogger(),
	}
}

// SetCapacity bounds the number of samples per trajectory. A non-positive
// value restores DefaultCapacity.
func (s *Simulator) SetCapacity(n int) {
	if n <= 0 {
		n = DefaultCapacity
	}
	s.capacity = n
}

func (s *Simulator) Capacity() int { return s.capacity }

// SetLogger sets the logger. A nil logger disables logging.
func (s *Simulator) SetLogger(l Logger) {
	s.logger = orNoOp(l)
}

// SetNotificationManager streams every recorded sample to the given
// notifiers.
func (s *Simulator) SetNotificationManager(mgr *NotificationManager, notifierIDs ...string) {
	s.notifierMgr = mgr
	s.notifierIDs = append([]string(nil), notifierIDs...)
}

// Run dispatches to the driver named by method.
func (s *Simulator) Run(m *Model, horizon float64, method Method, p Params) (*Trajectory, error) {
	switch method {
	case MethodNextReaction:
		return s.NextReaction(m, horizon)
	case MethodGillespie:
		return s.Gillespie(m, horizon)
	case MethodCHV:
		return s.CHV(m, horizon, p.CHV())
	case MethodStrangSplit:
		return s.StrangSplit(m, horizon, p.Split())
	case MethodGillespieHybrid:
		return s.GillespieHybrid(m, horizon, p.Hybrid())
	case MethodTauLeaping:
		return s.TauLeaping(m, horizon)
	default:
		return nil, &SimulationError{Method: method, Err: fmt.Errorf("%w: %q", ErrUnknownMethod, method)}
	}
}

// run is the bookkeeping of one driver call.
type run struct {
	sim     *Simulator
	method  Method
	model   *Model
	horizon float64
	traj    *Trajectory
	clock   float64
	step    int

	integ ode.Integrator
	tol   ode.Tolerance
}

// begin checks the driver preconditions, refreshes every rate and records
// the initial sample. On failure the returned run is nil.
func (s *Simulator) begin(method Method, m *Model, horizon float64) (*run, error) {
	reject := func(err error) (*run, error) {
		s.logger.Warnf("%s: rejected: %v", method, err)
		return nil, &SimulationError{Method: method, Err: err}
	}
	if m == nil {
		return reject(fmt.Errorf("%w: nil model", ErrInvalidArgument))
	}
	if err := m.Validate(); err != nil {
		return reject(err)
	}
	if !(horizon > 0) || math.IsInf(horizon, 1) {
		return reject(fmt.Errorf("%w: horizon must be positive and finite, got %g", ErrInvalidArgument, horizon))
	}
	if err := m.UpdateRates(m.Events()); err != nil {
		return reject(err)
	}

	r := &run{
		sim:     s,
		method:  method,
		model:   m,
		horizon: horizon,
		traj:    NewTrajectory(s.capacity),
	}
	r.traj.RunID = NewRunID()
	r.traj.Method = method
	if err := r.record(""); err != nil {
		return reject(err)
	}
	s.logger.Debugf("%s run %s started: model=%s horizon=%g events=%d fast=%d",
		method, r.traj.RunID, m.Name, horizon, len(m.Events()), len(m.FastEvents()))
	return r, nil
}

// withIntegrator resolves the ODE method and tolerance of a hybrid run.
func (r *run) withIntegrator(name string, tol float64) error {
	if !(tol > 0) {
		return fmt.Errorf("%w: integrator tolerance must be positive, got %g", ErrInvalidArgument, tol)
	}
	integ, err := ode.Lookup(name)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}
	r.integ = integ
	r.tol = ode.Uniform(tol)
	return nil
}

// fail wraps err with the run position and returns the partial trajectory.
func (r *run) fail(err error, event string) (*Trajectory, error) {
	serr := &SimulationError{Method: r.method, Step: r.step, Time: r.clock, Event: event, Err: err}
	r.sim.logger.Warnf("%s run %s stopped: %v", r.method, r.traj.RunID, serr)
	return r.traj, serr
}

// apply fires e against the state. A change that would leave any entry
// negative is reverted and reported.
func (r *run) apply(e *Event) error {
	st := r.model.state
	st.Apply(e.stoich)
	if i, j, neg := st.FirstNegative(); neg {
		st.Revert(e.stoich)
		return fmt.Errorf("%w: species %s in compartment %d", ErrNegativePopulation, r.speciesName(i), j)
	}
	return nil
}

func (r *run) speciesName(i int) SpeciesName {
	if i < len(r.model.species) {
		return r.model.species[i].Name
	}
	return SpeciesName(fmt.Sprint(i))
}

func (r *run) refresh() error {
	return r.model.UpdateRates(r.model.events)
}

// record snapshots the current state at the current clock.
func (r *run) record(event string) error {
	if err := r.traj.Record(r.clock, r.model.state); err != nil {
		return err
	}
	r.notify(event, false)
	return nil
}

func (r *run) notify(event string, final bool) {
	mgr := r.sim.notifierMgr
	if mgr == nil || len(r.sim.notifierIDs) == 0 {
		return
	}
	mgr.Enqueue(newSampleEvent(r, event, final), r.sim.notifierIDs)
}

// advance moves the clock by span, landing exactly on the horizon when
// span covers the remaining time.
func (r *run) advance(span float64) {
	if span >= r.horizon-r.clock {
		r.clock = r.horizon
		return
	}
	r.clock += span
}

// flow integrates the reaction-rate equations of events over span and
// writes the result back into the state.
func (r *run) flow(events []*Event, span float64) error {
	if span <= 0 || len(events) == 0 {
		return nil
	}
	st := r.model.state
	y, _, err := r.integ.Integrate(ReactionRateFlow(r.model, events), st.Raw(), span, r.tol)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrIntegrator, err)
	}
	st.SetRaw(y)
	return r.settle()
}

// settle clears negative entries below the integrator's resolution.
// Anything larger is a fault.
func (r *run) settle() error {
	st := r.model.state
	eps := 100 * (r.tol.Abs + r.tol.Rel)
	raw := st.Raw()
	for i, v := range raw {
		if v >= 0 {
			continue
		}
		if v < -eps {
			_, c := st.Dims()
			return fmt.Errorf("%w: species %s in compartment %d reached %g during flow",
				ErrNegativePopulation, r.speciesName(i/c), i%c, v)
		}
		raw[i] = 0
	}
	return nil
}

// finish records the final sample at exactly the horizon.
func (r *run) finish() (*Trajectory, error) {
	r.clock = r.horizon
	if err := r.traj.Record(r.clock, r.model.state); err != nil {
		return r.fail(err, "")
	}
	r.notify("", true)
	r.sim.logger.Debugf("%s run %s finished: steps=%d samples=%d",
		r.method, r.traj.RunID, r.step, r.traj.Len())
	return r.traj, nil
}

// IsFault reports whether err ended a run that had already started, as
// opposed to a rejected call.
func IsFault(err error) bool {
	return errors.Is(err, ErrNegativePopulation) ||
		errors.Is(err, ErrCapacityExceeded) ||
		errors.Is(err, ErrIntegrator)
}
