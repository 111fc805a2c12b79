package crn

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNegativePopulation reports that applying an event drove a state
	// entry below zero. The offending change has been reverted.
	ErrNegativePopulation = errors.New("negative population")
	// ErrCapacityExceeded reports that the trajectory buffer filled before
	// the horizon was reached.
	ErrCapacityExceeded = errors.New("trajectory capacity exceeded")
	// ErrIntegrator wraps failures of the ODE facility.
	ErrIntegrator = errors.New("integrator failure")
	// ErrInvalidArgument rejects malformed driver input.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrNegativeRate reports a rate law that returned a negative or NaN
	// propensity.
	ErrNegativeRate  = errors.New("negative propensity")
	ErrUnimplemented = errors.New("unimplemented method")
	ErrUnknownMethod = errors.New("unknown simulation method")
)

// SimulationError is returned by every driver. It records where the run
// stopped; errors.Is on the wrapped sentinel tells the outcomes apart.
type SimulationError struct {
	Method Method
	Step   int
	Time   float64
	Event  string
	Err    error
}

func (e *SimulationError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: step %d at t=%g", e.Method, e.Step, e.Time)
	if e.Event != "" {
		fmt.Fprintf(&b, " (event %s)", e.Event)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *SimulationError) Unwrap() error {
	return e.Err
}

// Method names a simulation driver.
type Method string

const (
	MethodNextReaction    Method = "next_reaction"
	MethodGillespie       Method = "gillespie"
	MethodCHV             Method = "chv"
	MethodStrangSplit     Method = "strang_split"
	MethodGillespieHybrid Method = "gillespie_hybrid"
	MethodTauLeaping      Method = "tau_leaping"
)

var methodAliases = map[string]Method{
	"next_reaction":    MethodNextReaction,
	"exact":            MethodNextReaction,
	"gillespie":        MethodGillespie,
	"ssa":              MethodGillespie,
	"chv":              MethodCHV,
	"strang_split":     MethodStrangSplit,
	"strang":           MethodStrangSplit,
	"gillespie_hybrid": MethodGillespieHybrid,
	"hybrid":           MethodGillespieHybrid,
	"tau_leaping":      MethodTauLeaping,
}

// ParseMethod resolves a method name or one of its short aliases.
// Dashes and underscores are interchangeable.
func ParseMethod(name string) (Method, error) {
	key := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "-", "_")
	if m, ok := methodAliases[key]; ok {
		return m, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMethod, name)
}

// Methods lists the canonical method names in dispatch order.
func Methods() []Method {
	return []Method{
		MethodNextReaction,
		MethodGillespie,
		MethodCHV,
		MethodStrangSplit,
		MethodGillespieHybrid,
		MethodTauLeaping,
	}
}

// IsHybrid reports whether the method uses the fast/slow partition.
func (m Method) IsHybrid() bool {
	return m == MethodCHV || m == MethodStrangSplit || m == MethodGillespieHybrid
}
