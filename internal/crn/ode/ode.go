// Package ode advances systems of ordinary differential equations over a
// fixed span using embedded Runge-Kutta pairs with adaptive step control.
//
// The simulation drivers treat this package as a black box: they hand it a
// right-hand side, an initial vector and an elapsed time, and get back the
// state at the end of the span.
package ode

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Func evaluates the right-hand side dy/dt = f(t, y) into dydt.
// Implementations must not retain y or dydt.
type Func func(t float64, y, dydt []float64)

// Tolerance controls the accuracy and cost of a single Integrate call.
type Tolerance struct {
	// Abs is the absolute error tolerance per component.
	Abs float64
	// Rel is the relative error tolerance per component.
	Rel float64
	// MaxSteps bounds accepted plus rejected steps. 0 selects DefaultMaxSteps.
	MaxSteps int
	// MinStep aborts the integration once a rejected step would shrink below
	// it. 0 selects a value proportional to the span.
	MinStep float64
	// InitialStep, if > 0, is used as the first trial step.
	InitialStep float64
}

// DefaultMaxSteps is the step budget used when Tolerance.MaxSteps is unset.
const DefaultMaxSteps = 100000

// Uniform returns a tolerance with equal absolute and relative bounds.
func Uniform(h float64) Tolerance {
	return Tolerance{Abs: h, Rel: h}
}

func (t Tolerance) withDefaults(span float64) Tolerance {
	if t.Abs <= 0 && t.Rel <= 0 {
		t.Abs, t.Rel = 1e-6, 1e-6
	}
	if t.MaxSteps <= 0 {
		t.MaxSteps = DefaultMaxSteps
	}
	if t.MinStep <= 0 {
		t.MinStep = span * 1e-14
	}
	return t
}

// Stats reports the work done by an Integrate call.
type Stats struct {
	Steps       int
	Rejected    int
	Evaluations int
	LastStep    float64
}

// Integrator advances y0 by span and returns the new state.
// y0 is never modified.
type Integrator interface {
	Name() string
	Integrate(f Func, y0 []float64, span float64, tol Tolerance) ([]float64, Stats, error)
}

var (
	ErrUnknownMethod = errors.New("ode: unknown integration method")
	ErrInvalidSpan   = errors.New("ode: span must be finite and non-negative")
	ErrStepTooSmall  = errors.New("ode: step size fell below minimum")
	ErrMaxSteps      = errors.New("ode: step budget exhausted before end of span")
	ErrNonFinite     = errors.New("ode: non-finite value in solution")
)

// DefaultMethod is used when an empty method name is looked up.
const DefaultMethod = "dopri5"

var registry = map[string]func() *Solver{
	"dopri5": DormandPrince,
	"rk45":   DormandPrince,
	"bs32":   BogackiShampine,
}

// Lookup returns the integrator registered under name (case-insensitive).
func Lookup(name string) (Integrator, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		key = DefaultMethod
	}
	ctor, ok := registry[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q (valid: %s)", ErrUnknownMethod, name, strings.Join(Methods(), ", "))
	}
	return ctor(), nil
}

// Methods lists the registered method names.
func Methods() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
