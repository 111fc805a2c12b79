package crn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrajectoryRecord_EncodeDecode(t *testing.T) {
	m := isomerization(t, 5, 2)
	tr, err := NewSimulator().Gillespie(m, 0.5)
	require.NoError(t, err)

	rec := NewTrajectoryRecord(m, tr)
	assert.Equal(t, []string{"A", "B"}, rec.Species)
	assert.Equal(t, tr.RunID, rec.RunID)
	assert.Equal(t, MethodGillespie, rec.Method)

	data, err := EncodeTrajectoryJSON(rec)
	require.NoError(t, err)
	decoded, err := DecodeTrajectoryJSON(data)
	require.NoError(t, err)

	assert.Equal(t, rec.Times, decoded.Times)
	_, final := tr.Final()
	got := decoded.State(decoded.Len() - 1)
	assert.Equal(t, final.RawMatrix().Data, got.RawMatrix().Data)
}

func TestValidateTrajectoryRecord(t *testing.T) {
	valid := TrajectoryRecord{
		Species:      []string{"X"},
		Compartments: 1,
		Times:        []float64{0, 1},
		States:       [][]float64{{0}, {1}},
	}
	require.NoError(t, ValidateTrajectoryRecord(valid))

	tests := []struct {
		name   string
		mutate func(*TrajectoryRecord)
	}{
		{"no species", func(r *TrajectoryRecord) { r.Species = nil }},
		{"length mismatch", func(r *TrajectoryRecord) { r.Times = r.Times[:1] }},
		{"time not increasing", func(r *TrajectoryRecord) { r.Times = []float64{1, 1} }},
		{"wrong state size", func(r *TrajectoryRecord) { r.States = [][]float64{{0}, {1, 2}} }},
		{"negative entry", func(r *TrajectoryRecord) { r.States = [][]float64{{0}, {-1}} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := valid
			tt.mutate(&rec)
			assert.Error(t, ValidateTrajectoryRecord(rec))
		})
	}

	_, err := DecodeTrajectoryJSON([]byte(`{"species":["X"],"compartments":1,"times":[0],"states":[[-3]]}`))
	assert.Error(t, err)
	_, err = DecodeTrajectoryJSON([]byte(`not json`))
	assert.Error(t, err)
}
