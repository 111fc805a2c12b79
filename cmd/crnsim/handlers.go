package main

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/daniacca/crnsim/internal/crn"
)

const maxRequestBody = 8 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

type methodInfo struct {
	Name   crn.Method `json:"name"`
	Hybrid bool       `json:"hybrid"`
}

// GET /methods
func (s *Server) handleMethods(w http.ResponseWriter, r *http.Request) {
	methods := crn.Methods()
	out := make([]methodInfo, 0, len(methods))
	for _, m := range methods {
		out = append(out, methodInfo{Name: m, Hybrid: m.IsHybrid()})
	}
	writeJSON(w, http.StatusOK, out)
}

// POST /runs
// Body: crn.RunRequest JSON
// Replies 201 with a crn.RunResponse when the run reaches its horizon, and
// 422 with the partial result when the run faults.
func (s *Server) handleCreateRun(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var req crn.RunRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(&req); err != nil {
		http.Error(w, "invalid run json: "+err.Error(), http.StatusBadRequest)
		return
	}

	defaultMethod, err := s.defaults.SimulationMethod()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	method, horizon, params, err := req.Resolve(defaultMethod, s.defaults.Horizon, s.defaults.Params())
	if err != nil {
		http.Error(w, "invalid run: "+err.Error(), http.StatusBadRequest)
		return
	}

	m, err := crn.BuildModelFromConfig(req.Network)
	if err != nil {
		http.Error(w, "cannot build network: "+err.Error(), http.StatusBadRequest)
		return
	}
	seed := req.Seed
	if seed == 0 {
		seed = s.defaults.Seed
	}
	if seed != 0 {
		m.WithSeed(seed)
	}

	sim := crn.NewSimulator()
	capacity := req.Capacity
	if capacity == 0 {
		capacity = s.defaults.Capacity
	}
	sim.SetCapacity(capacity)
	sim.SetLogger(s.adapter)
	if req.Stream {
		sim.SetNotificationManager(s.notifierMgr, s.streamIDs...)
	}

	tr, runErr := sim.Run(m, horizon, method, params)
	if tr == nil {
		status := http.StatusBadRequest
		if errors.Is(runErr, crn.ErrUnimplemented) {
			status = http.StatusNotImplemented
		}
		http.Error(w, runErr.Error(), status)
		return
	}

	sum := crn.Summarize(m, horizon, method, tr, runErr)
	if err := s.runs.Add(sum); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	resp := crn.RunResponse{Summary: sum}
	if req.Trajectory {
		rec := crn.NewTrajectoryRecord(m, tr)
		resp.Trajectory = &rec
	}

	status := http.StatusCreated
	if runErr != nil {
		s.logger.Warn("run faulted", "run_id", sum.ID, "method", method, "error", runErr)
		status = http.StatusUnprocessableEntity
	} else {
		s.logger.Info("run finished", "run_id", sum.ID, "model", sum.Model, "method", method, "steps", sum.Steps)
	}
	writeJSON(w, status, resp)
}

// GET /runs
func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.runs.List())
}

// GET /runs/{id}
func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	sum, ok := s.runs.Get(r.PathValue("id"))
	if !ok {
		http.Error(w, "run not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

// DELETE /runs/{id}
func (s *Server) handleDeleteRun(w http.ResponseWriter, r *http.Request) {
	if err := s.runs.Delete(r.PathValue("id")); err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
