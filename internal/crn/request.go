package crn

import "fmt"

// RunRequest is the body of POST /runs: a network plus how to simulate it.
// Zero numeric fields fall back to the server's defaults.
type RunRequest struct {
	Network      NetworkConfig `json:"network"`
	Method       string        `json:"method,omitempty"`
	Horizon      float64       `json:"horizon,omitempty"`
	Seed         uint64        `json:"seed,omitempty"`
	Capacity     int           `json:"capacity,omitempty"`
	Integrator   string        `json:"integrator,omitempty"`
	Tolerance    float64       `json:"tolerance,omitempty"`
	SamplingRate float64       `json:"sampling_rate,omitempty"`
	MacroStep    float64       `json:"macro_step,omitempty"`
	Window       float64       `json:"window,omitempty"`
	// Stream publishes every recorded sample to the server's notifiers.
	Stream bool `json:"stream,omitempty"`
	// Trajectory asks for the full trajectory in the response.
	Trajectory bool `json:"trajectory,omitempty"`
}

// RunResponse is the reply to POST /runs.
type RunResponse struct {
	Summary    RunSummary        `json:"summary"`
	Trajectory *TrajectoryRecord `json:"trajectory,omitempty"`
}

// Resolve fills unset fields from the given defaults and parses the method.
func (req RunRequest) Resolve(method Method, horizon float64, p Params) (Method, float64, Params, error) {
	if req.Method != "" {
		parsed, err := ParseMethod(req.Method)
		if err != nil {
			return "", 0, Params{}, err
		}
		method = parsed
	}
	if req.Horizon != 0 {
		horizon = req.Horizon
	}
	if req.Integrator != "" {
		p.Integrator = req.Integrator
	}
	if req.Tolerance != 0 {
		p.Tolerance = req.Tolerance
	}
	if req.SamplingRate != 0 {
		p.SamplingRate = req.SamplingRate
	}
	if req.MacroStep != 0 {
		p.MacroStep = req.MacroStep
	}
	if req.Window != 0 {
		p.Window = req.Window
	}
	if !(horizon > 0) {
		return "", 0, Params{}, fmt.Errorf("%w: horizon must be positive, got %g", ErrInvalidArgument, horizon)
	}
	return method, horizon, p, nil
}
