package crn

import (
	"encoding/json"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// TrajectoryRecord is the JSON form of a trajectory. Each entry of States
// is one sample flattened row-major, species by compartment.
type TrajectoryRecord struct {
	RunID        string      `json:"run_id"`
	Model        string      `json:"model"`
	Method       Method      `json:"method"`
	Species      []string    `json:"species"`
	Compartments int         `json:"compartments"`
	Times        []float64   `json:"times"`
	States       [][]float64 `json:"states"`
}

// NewTrajectoryRecord flattens tr for encoding.
func NewTrajectoryRecord(m *Model, tr *Trajectory) TrajectoryRecord {
	rec := TrajectoryRecord{
		RunID:        tr.RunID,
		Model:        m.Name,
		Method:       tr.Method,
		Compartments: m.Compartments(),
		Times:        append([]float64(nil), tr.Times...),
		States:       make([][]float64, len(tr.States)),
	}
	for _, sp := range m.Species() {
		rec.Species = append(rec.Species, string(sp.Name))
	}
	for i, s := range tr.States {
		rec.States[i] = append([]float64(nil), s.RawMatrix().Data...)
	}
	return rec
}

func (r TrajectoryRecord) Len() int { return len(r.Times) }

// State returns sample i as a species by compartment matrix.
func (r TrajectoryRecord) State(i int) *mat.Dense {
	return mat.NewDense(len(r.Species), r.Compartments, append([]float64(nil), r.States[i]...))
}

// ValidateTrajectoryRecord checks that a decoded record is internally
// consistent: matching lengths, strictly increasing times and non-negative
// samples of the declared shape.
func ValidateTrajectoryRecord(rec TrajectoryRecord) error {
	if len(rec.Species) == 0 || rec.Compartments <= 0 {
		return fmt.Errorf("trajectory shape %dx%d is empty", len(rec.Species), rec.Compartments)
	}
	if len(rec.Times) != len(rec.States) {
		return fmt.Errorf("trajectory has %d times and %d states", len(rec.Times), len(rec.States))
	}
	size := len(rec.Species) * rec.Compartments
	for i, t := range rec.Times {
		if math.IsNaN(t) || (i > 0 && t <= rec.Times[i-1]) {
			return fmt.Errorf("time at index %d is not strictly increasing: %g", i, t)
		}
		if len(rec.States[i]) != size {
			return fmt.Errorf("state at index %d has %d values, want %d", i, len(rec.States[i]), size)
		}
		for _, v := range rec.States[i] {
			if v < 0 || math.IsNaN(v) {
				return fmt.Errorf("state at index %d has invalid value %g", i, v)
			}
		}
	}
	return nil
}

// EncodeTrajectoryJSON encodes a trajectory record to JSON.
func EncodeTrajectoryJSON(rec TrajectoryRecord) ([]byte, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("failed to encode trajectory: %w", err)
	}
	return data, nil
}

// DecodeTrajectoryJSON decodes and validates a trajectory record.
func DecodeTrajectoryJSON(data []byte) (TrajectoryRecord, error) {
	var rec TrajectoryRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return TrajectoryRecord{}, fmt.Errorf("failed to decode trajectory: %w", err)
	}
	if err := ValidateTrajectoryRecord(rec); err != nil {
		return TrajectoryRecord{}, fmt.Errorf("invalid trajectory: %w", err)
	}
	return rec, nil
}
