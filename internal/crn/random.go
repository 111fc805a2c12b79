package crn

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// exponential draws a waiting time with the given rate. A non-positive
// rate never fires.
func exponential(rate float64, src rand.Source) float64 {
	if !(rate > 0) {
		return math.Inf(1)
	}
	return distuv.Exponential{Rate: rate, Src: src}.Rand()
}

// uniform draws from [0, 1).
func uniform(src rand.Source) float64 {
	return distuv.Uniform{Min: 0, Max: 1, Src: src}.Rand()
}
