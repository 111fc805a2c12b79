package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/daniacca/crnsim/internal/crn"
)

// fakeServer mimics the crnsim HTTP API closely enough for the client.
func fakeServer(t *testing.T) *httptest.Server {
	t.Helper()
	runs := map[string]crn.RunSummary{}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("GET /methods", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]MethodInfo{{Name: crn.MethodGillespie}, {Name: crn.MethodCHV, Hybrid: true}})
	})
	mux.HandleFunc("POST /runs", func(w http.ResponseWriter, r *http.Request) {
		var req crn.RunRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if req.Method == "tau_leaping" {
			http.Error(w, "not implemented", http.StatusNotImplemented)
			return
		}
		sum := crn.RunSummary{ID: "run-" + req.Network.Name, Model: req.Network.Name, Horizon: req.Horizon, FinalTime: req.Horizon}
		status := http.StatusCreated
		if req.Capacity == 1 {
			sum.Error = "capacity exceeded"
			sum.FinalTime = req.Horizon / 2
			status = http.StatusUnprocessableEntity
		}
		runs[sum.ID] = sum
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(crn.RunResponse{Summary: sum})
	})
	mux.HandleFunc("GET /runs", func(w http.ResponseWriter, r *http.Request) {
		out := make([]crn.RunSummary, 0, len(runs))
		for _, s := range runs {
			out = append(out, s)
		}
		json.NewEncoder(w).Encode(out)
	})
	mux.HandleFunc("GET /runs/{id}", func(w http.ResponseWriter, r *http.Request) {
		sum, ok := runs[r.PathValue("id")]
		if !ok {
			http.Error(w, "run not found", http.StatusNotFound)
			return
		}
		json.NewEncoder(w).Encode(sum)
	})
	mux.HandleFunc("DELETE /runs/{id}", func(w http.ResponseWriter, r *http.Request) {
		if _, ok := runs[r.PathValue("id")]; !ok {
			http.Error(w, "run not found", http.StatusNotFound)
			return
		}
		delete(runs, r.PathValue("id"))
		w.WriteHeader(http.StatusNoContent)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_Health(t *testing.T) {
	srv := fakeServer(t)
	if err := New(srv.URL + "/").Health(context.Background()); err != nil {
		t.Fatalf("Health failed: %v", err)
	}

	srv.Close()
	if err := New(srv.URL).Health(context.Background()); err == nil {
		t.Error("expected error from a stopped server")
	}
}

func TestClient_Methods(t *testing.T) {
	srv := fakeServer(t)
	methods, err := New(srv.URL).Methods(context.Background())
	if err != nil {
		t.Fatalf("Methods failed: %v", err)
	}
	if len(methods) != 2 || methods[1].Name != crn.MethodCHV || !methods[1].Hybrid {
		t.Errorf("unexpected methods: %+v", methods)
	}
}

func TestClient_RunLifecycle(t *testing.T) {
	srv := fakeServer(t)
	c := New(srv.URL, WithHTTPClient(srv.Client()))
	ctx := context.Background()

	network := NewNetwork("decay").
		Species("A", 10).
		Reaction(NewReaction("decay").Consumes("A", 1).Rate(0.5)).
		Build()

	resp, err := c.Run(ctx, crn.RunRequest{Network: network, Horizon: 3})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if resp.Summary.ID != "run-decay" || resp.Summary.FinalTime != 3 {
		t.Errorf("unexpected summary: %+v", resp.Summary)
	}

	runs, err := c.ListRuns(ctx)
	if err != nil || len(runs) != 1 {
		t.Fatalf("ListRuns = %v, %v", runs, err)
	}

	sum, err := c.GetRun(ctx, "run-decay")
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}
	if sum.Model != "decay" {
		t.Errorf("expected model 'decay', got '%s'", sum.Model)
	}

	if err := c.DeleteRun(ctx, "run-decay"); err != nil {
		t.Fatalf("DeleteRun failed: %v", err)
	}
	if _, err := c.GetRun(ctx, "run-decay"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := c.DeleteRun(ctx, "run-decay"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestClient_RunFault(t *testing.T) {
	srv := fakeServer(t)
	network := NewNetwork("birth").Species("X").Build()

	resp, err := New(srv.URL).Run(context.Background(), crn.RunRequest{Network: network, Horizon: 4, Capacity: 1})
	var fault *RunFaultError
	if !errors.As(err, &fault) {
		t.Fatalf("expected RunFaultError, got %v", err)
	}
	if resp == nil || resp.Summary.FinalTime != 2 {
		t.Errorf("expected partial result, got %+v", resp)
	}
	if fault.Error() != "run run-birth faulted: capacity exceeded" {
		t.Errorf("unexpected message: %s", fault.Error())
	}
}

func TestClient_RunRejected(t *testing.T) {
	srv := fakeServer(t)
	_, err := New(srv.URL).Run(context.Background(), crn.RunRequest{Method: "tau_leaping"})
	if err == nil {
		t.Fatal("expected error")
	}
	if err.Error() != "server returned status 501: not implemented" {
		t.Errorf("unexpected error: %v", err)
	}
}
