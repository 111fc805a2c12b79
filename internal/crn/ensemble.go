package crn

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// EnsembleConfig describes a batch of independent trajectories.
type EnsembleConfig struct {
	Trajectories int
	// Workers bounds concurrent trajectories; 0 uses GOMAXPROCS.
	Workers int
	// Seed of trajectory i is Seed+i.
	Seed    uint64
	Method  Method
	Horizon float64
	Params  Params
}

// EnsembleResult holds the final state of every completed trajectory and
// their per-entry mean and sample variance. A trajectory that stops on a
// fault is counted in Faults and left out of the statistics.
type EnsembleResult struct {
	Finals   []*mat.Dense
	Mean     *mat.Dense
	Variance *mat.Dense
	Steps    int

	Faults int
	// FirstFault is the fault of the lowest-numbered faulted trajectory.
	FirstFault error
}

// Completed is the number of trajectories that reached the horizon.
func (r *EnsembleResult) Completed() int { return len(r.Finals) }

// Ensemble runs cfg.Trajectories independent copies of m, each on its own
// clone and random stream, on a bounded worker pool. m itself is not
// mutated. Cancellation is checked before each trajectory starts.
//
// A fault ends only its own trajectory. Any other error, such as a
// rejected configuration, cancels the rest and is returned. When every
// trajectory faults the first fault is returned.
func (s *Simulator) Ensemble(ctx context.Context, m *Model, cfg EnsembleConfig) (*EnsembleResult, error) {
	if m == nil || cfg.Trajectories <= 0 {
		return nil, fmt.Errorf("%w: ensemble needs a model and at least one trajectory", ErrInvalidArgument)
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	finals := make([]*mat.Dense, cfg.Trajectories)
	faults := make([]error, cfg.Trajectories)
	steps := make([]int, cfg.Trajectories)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := 0; i < cfg.Trajectories; i++ {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			clone := m.Clone(cfg.Seed + uint64(i))
			tr, err := s.Run(clone, cfg.Horizon, cfg.Method, cfg.Params)
			if err != nil {
				if IsFault(err) {
					faults[i] = fmt.Errorf("trajectory %d: %w", i, err)
					return nil
				}
				return fmt.Errorf("trajectory %d: %w", i, err)
			}
			_, finals[i] = tr.Final()
			steps[i] = tr.Len() - 1
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	res := &EnsembleResult{}
	for i := range finals {
		if faults[i] != nil {
			if res.Faults == 0 {
				res.FirstFault = faults[i]
			}
			res.Faults++
			continue
		}
		res.Finals = append(res.Finals, finals[i])
		res.Steps += steps[i]
	}
	if len(res.Finals) == 0 {
		return nil, res.FirstFault
	}
	if res.Faults > 0 {
		s.logger.Warnf("ensemble: %d of %d %s trajectories faulted, first: %v",
			res.Faults, cfg.Trajectories, cfg.Method, res.FirstFault)
	}
	s.logger.Debugf("ensemble of %d %s trajectories finished", cfg.Trajectories, cfg.Method)

	res.Mean, res.Variance = summarize(res.Finals)
	return res, nil
}

// summarize computes entry-wise mean and sample variance.
func summarize(finals []*mat.Dense) (*mat.Dense, *mat.Dense) {
	r, c := finals[0].Dims()
	mean := mat.NewDense(r, c, nil)
	variance := mat.NewDense(r, c, nil)
	xs := make([]float64, len(finals))
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			for k, f := range finals {
				xs[k] = f.At(i, j)
			}
			if len(xs) == 1 {
				mean.Set(i, j, xs[0])
				continue
			}
			mu, v := stat.MeanVariance(xs, nil)
			mean.Set(i, j, mu)
			variance.Set(i, j, v)
		}
	}
	return mean, variance
}
