package ode

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Solver is an explicit embedded Runge-Kutta pair described by its Butcher
// tableau. E holds the difference between the propagating and embedded
// weights and drives the error estimate.
type Solver struct {
	name  string
	order int
	c     []float64
	a     [][]float64
	b     []float64
	e     []float64
}

// DormandPrince returns the Dormand-Prince 5(4) pair.
func DormandPrince() *Solver {
	return &Solver{
		name:  "dopri5",
		order: 5,
		c:     []float64{0, 1.0 / 5.0, 3.0 / 10.0, 4.0 / 5.0, 8.0 / 9.0, 1, 1},
		a: [][]float64{
			{},
			{1.0 / 5.0},
			{3.0 / 40.0, 9.0 / 40.0},
			{44.0 / 45.0, -56.0 / 15.0, 32.0 / 9.0},
			{19372.0 / 6561.0, -25360.0 / 2187.0, 64448.0 / 6561.0, -212.0 / 729.0},
			{9017.0 / 3168.0, -355.0 / 33.0, 46732.0 / 5247.0, 49.0 / 176.0, -5103.0 / 18656.0},
			{35.0 / 384.0, 0, 500.0 / 1113.0, 125.0 / 192.0, -2187.0 / 6784.0, 11.0 / 84.0},
		},
		b: []float64{35.0 / 384.0, 0, 500.0 / 1113.0, 125.0 / 192.0, -2187.0 / 6784.0, 11.0 / 84.0, 0},
		e: []float64{
			35.0/384.0 - 5179.0/57600.0,
			0,
			500.0/1113.0 - 7571.0/16695.0,
			125.0/192.0 - 393.0/640.0,
			-2187.0/6784.0 + 92097.0/339200.0,
			11.0/84.0 - 187.0/2100.0,
			-1.0 / 40.0,
		},
	}
}

// BogackiShampine returns the Bogacki-Shampine 3(2) pair. It is cheaper per
// step than DormandPrince and adequate at loose tolerances.
func BogackiShampine() *Solver {
	return &Solver{
		name:  "bs32",
		order: 3,
		c:     []float64{0, 0.5, 0.75, 1},
		a: [][]float64{
			{},
			{0.5},
			{0, 0.75},
			{2.0 / 9.0, 1.0 / 3.0, 4.0 / 9.0},
		},
		b: []float64{2.0 / 9.0, 1.0 / 3.0, 4.0 / 9.0, 0},
		e: []float64{
			2.0/9.0 - 7.0/24.0,
			1.0/3.0 - 1.0/4.0,
			4.0/9.0 - 1.0/3.0,
			-1.0 / 8.0,
		},
	}
}

func (s *Solver) Name() string { return s.name }

const (
	safety    = 0.9
	minFactor = 0.2
	maxFactor = 5.0
)

// Integrate advances y0 from t=0 to t=span.
func (s *Solver) Integrate(f Func, y0 []float64, span float64, tol Tolerance) ([]float64, Stats, error) {
	var stats Stats
	y := make([]float64, len(y0))
	copy(y, y0)

	if math.IsNaN(span) || math.IsInf(span, 0) || span < 0 {
		return y, stats, fmt.Errorf("%w: %v", ErrInvalidSpan, span)
	}
	if span == 0 || len(y) == 0 {
		return y, stats, nil
	}
	tol = tol.withDefaults(span)

	n := len(y)
	stages := len(s.b)
	k := make([][]float64, stages)
	for i := range k {
		k[i] = make([]float64, n)
	}
	work := make([]float64, n)
	next := make([]float64, n)
	errEst := make([]float64, n)

	f(0, y, k[0])
	stats.Evaluations++
	h := tol.InitialStep
	if h <= 0 {
		h = s.initialStep(y, k[0], span, tol)
	}

	t := 0.0
	for t < span {
		if stats.Steps+stats.Rejected >= tol.MaxSteps {
			return y, stats, fmt.Errorf("%w: reached t=%g of %g after %d steps", ErrMaxSteps, t, span, tol.MaxSteps)
		}
		last := false
		if h >= span-t {
			h = span - t
			last = true
		}

		// k[0] already holds f(t, y).
		for i := 1; i < stages; i++ {
			copy(work, y)
			for j, aij := range s.a[i] {
				if aij != 0 {
					floats.AddScaled(work, h*aij, k[j])
				}
			}
			f(t+s.c[i]*h, work, k[i])
		}
		stats.Evaluations += stages - 1

		copy(next, y)
		for i, bi := range s.b {
			if bi != 0 {
				floats.AddScaled(next, h*bi, k[i])
			}
		}
		for i := range errEst {
			errEst[i] = 0
		}
		for i, ei := range s.e {
			if ei != 0 {
				floats.AddScaled(errEst, h*ei, k[i])
			}
		}

		errNorm := s.errorNorm(y, next, errEst, tol)
		if math.IsNaN(errNorm) || math.IsInf(errNorm, 0) {
			stats.Rejected++
			h *= minFactor
			if !(h >= tol.MinStep) {
				return y, stats, fmt.Errorf("%w at t=%g", ErrNonFinite, t)
			}
			continue
		}

		if errNorm <= 1 {
			y, next = next, y
			stats.Steps++
			stats.LastStep = h
			if last {
				t = span
			} else {
				t += h
			}
			f(t, y, k[0])
			stats.Evaluations++
		} else {
			stats.Rejected++
		}

		factor := maxFactor
		if errNorm > 0 {
			factor = safety * math.Pow(errNorm, -1/float64(s.order))
			factor = math.Max(minFactor, math.Min(maxFactor, factor))
		}
		if errNorm > 1 {
			factor = math.Min(factor, 1)
		}
		h *= factor
		if errNorm > 1 && h < tol.MinStep {
			return y, stats, fmt.Errorf("%w: h=%g at t=%g", ErrStepTooSmall, h, t)
		}
	}

	if floats.HasNaN(y) {
		return y, stats, ErrNonFinite
	}
	return y, stats, nil
}

// errorNorm is the RMS of the local error scaled by the mixed tolerance.
func (s *Solver) errorNorm(y, next, errEst []float64, tol Tolerance) float64 {
	var sum float64
	for i := range errEst {
		scale := tol.Abs + tol.Rel*math.Max(math.Abs(y[i]), math.Abs(next[i]))
		if scale <= 0 {
			scale = math.SmallestNonzeroFloat64
		}
		r := errEst[i] / scale
		sum += r * r
	}
	return math.Sqrt(sum / float64(len(errEst)))
}

// initialStep picks a first trial step from the scaled magnitudes of y and
// f(0, y). A vanishing derivative takes the whole span in one step.
func (s *Solver) initialStep(y, dy []float64, span float64, tol Tolerance) float64 {
	var d0, d1 float64
	for i := range y {
		scale := tol.Abs + tol.Rel*math.Abs(y[i])
		if scale <= 0 {
			scale = 1
		}
		d0 += (y[i] / scale) * (y[i] / scale)
		d1 += (dy[i] / scale) * (dy[i] / scale)
	}
	d0 = math.Sqrt(d0 / float64(len(y)))
	d1 = math.Sqrt(d1 / float64(len(y)))
	if d1 == 0 || math.IsNaN(d1) || math.IsInf(d1, 0) {
		return span
	}
	if d0 < 1e-5 || d1 < 1e-5 {
		return math.Min(span, 1e-6)
	}
	return math.Min(span, 0.01*d0/d1)
}
