package crn

import (
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestStateFrom(t *testing.T) {
	data := []float64{1, 2, 3, 4, 5, 6}
	s, err := StateFrom(2, 3, data)
	if err != nil {
		t.Fatalf("StateFrom returned error: %v", err)
	}
	data[0] = 100
	if s.At(0, 0) != 1 {
		t.Errorf("StateFrom must copy its input, got %v", s.At(0, 0))
	}
	if s.At(1, 2) != 6 {
		t.Errorf("Expected row-major layout, At(1,2) = %v", s.At(1, 2))
	}
	r, c := s.Dims()
	if r != 2 || c != 3 {
		t.Errorf("Expected dims 2x3, got %dx%d", r, c)
	}

	if _, err := StateFrom(2, 2, data); err == nil {
		t.Error("Expected error for mismatched data length")
	}
	if _, err := StateFrom(0, 2, nil); err == nil {
		t.Error("Expected error for empty shape")
	}
}

func TestState_ApplyRevert(t *testing.T) {
	s, _ := StateFrom(1, 2, []float64{1, 0})
	stoich := mat.NewDense(1, 2, []float64{-1, 1})

	s.Apply(stoich)
	if s.At(0, 0) != 0 || s.At(0, 1) != 1 {
		t.Errorf("Apply gave %v", s.Raw())
	}
	if _, _, neg := s.FirstNegative(); neg {
		t.Error("Expected no negative entry")
	}

	s.Apply(stoich)
	sp, c, neg := s.FirstNegative()
	if !neg || sp != 0 || c != 0 {
		t.Errorf("Expected negative entry at (0,0), got (%d,%d,%v)", sp, c, neg)
	}

	s.Revert(stoich)
	if s.At(0, 0) != 0 || s.At(0, 1) != 1 {
		t.Errorf("Revert gave %v", s.Raw())
	}
}

func TestState_CloneAndSnapshotDoNotAlias(t *testing.T) {
	s, _ := StateFrom(1, 2, []float64{3, 4})
	clone := s.Clone()
	snap := s.Snapshot()

	s.Set(0, 0, 99)
	if clone.At(0, 0) != 3 {
		t.Errorf("Clone aliases state: %v", clone.At(0, 0))
	}
	if snap.At(0, 0) != 3 {
		t.Errorf("Snapshot aliases state: %v", snap.At(0, 0))
	}
}

func TestState_TotalAndRaw(t *testing.T) {
	s, _ := StateFrom(2, 2, []float64{1, 2, 3, 4})
	if got := s.Total(1); got != 7 {
		t.Errorf("Expected total 7, got %v", got)
	}
	s.SetRaw([]float64{5, 6, 7, 8, 9})
	if s.At(1, 1) != 8 {
		t.Errorf("SetRaw must ignore trailing values, At(1,1) = %v", s.At(1, 1))
	}
	s.Raw()[0] = 0
	if s.At(0, 0) != 0 {
		t.Error("Raw must expose the backing storage")
	}
}
