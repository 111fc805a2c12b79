package crn

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// RunSummary is what a RunManager keeps about a finished run.
type RunSummary struct {
	ID        string             `json:"id"`
	Model     string             `json:"model"`
	Method    Method             `json:"method"`
	Horizon   float64            `json:"horizon"`
	Seed      uint64             `json:"seed"`
	Steps     int                `json:"steps"`
	FinalTime float64            `json:"final_time"`
	Totals    map[string]float64 `json:"totals"`
	Error     string             `json:"error,omitempty"`
	CreatedAt time.Time          `json:"created_at"`
}

// Summarize builds a RunSummary from a model and the outcome of a driver
// call. tr may be nil when the call was rejected.
func Summarize(m *Model, horizon float64, method Method, tr *Trajectory, runErr error) RunSummary {
	sum := RunSummary{
		Model:     m.Name,
		Method:    method,
		Horizon:   horizon,
		Seed:      m.Seed(),
		Totals:    make(map[string]float64),
		CreatedAt: time.Now().UTC(),
	}
	if tr != nil {
		sum.ID = tr.RunID
		sum.Steps = tr.Len() - 1
		sum.FinalTime = tr.FinalTime()
	}
	if sum.ID == "" {
		sum.ID = NewRunID()
	}
	for i, sp := range m.Species() {
		sum.Totals[string(sp.Name)] = m.State().Total(i)
	}
	if runErr != nil {
		sum.Error = runErr.Error()
	}
	return sum
}

// RunManager keeps the summaries of finished runs, isolated by run ID.
type RunManager struct {
	mu   sync.RWMutex
	runs map[string]RunSummary
}

// NewRunManager creates an empty run manager
func NewRunManager() *RunManager {
	return &RunManager{
		runs: make(map[string]RunSummary),
	}
}

// Add stores a summary. Returns an error if a run with that ID exists.
func (rm *RunManager) Add(sum RunSummary) error {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	if _, exists := rm.runs[sum.ID]; exists {
		return fmt.Errorf("run with id %s already exists", sum.ID)
	}
	rm.runs[sum.ID] = sum
	return nil
}

// Get retrieves a run by ID
func (rm *RunManager) Get(id string) (RunSummary, bool) {
	rm.mu.RLock()
	defer rm.mu.RUnlock()

	sum, exists := rm.runs[id]
	return sum, exists
}

// Delete removes a run by ID
func (rm *RunManager) Delete(id string) error {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	if _, exists := rm.runs[id]; !exists {
		return fmt.Errorf("run with id %s does not exist", id)
	}
	delete(rm.runs, id)
	return nil
}

// List returns every stored run, oldest first.
func (rm *RunManager) List() []RunSummary {
	rm.mu.RLock()
	defer rm.mu.RUnlock()

	out := make([]RunSummary, 0, len(rm.runs))
	for _, sum := range rm.runs {
		out = append(out, sum)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}
