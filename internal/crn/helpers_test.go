package crn

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// birthDeath is ∅ -> X at rate 5 and X -> ∅ at per-copy rate 1.
func birthDeath(t testing.TB, seed uint64) *Model {
	t.Helper()
	cfg := NetworkConfig{
		Name:    "birth-death",
		Species: []SpeciesConfig{{Name: "X"}},
		Reactions: []ReactionConfig{
			{ID: "birth", Products: []TermConfig{{Species: "X"}}, Rate: 5},
			{ID: "death", Reactants: []TermConfig{{Species: "X"}}, Rate: 1},
		},
	}
	m, err := BuildModelFromConfig(cfg)
	require.NoError(t, err)
	return m.WithSeed(seed)
}

// isomerization is A <-> B on a lattice with both species diffusing.
// Reactions are slow and diffusion is fast, so every hybrid method has
// work on both sides of the partition.
func isomerization(t testing.TB, seed uint64, compartments int) *Model {
	t.Helper()
	cfg := NetworkConfig{
		Name:         "isomerization",
		Compartments: compartments,
		Lattice:      &LatticeConfig{Length: 1},
		Species: []SpeciesConfig{
			{Name: "A", Initial: []float64{30}},
			{Name: "B", Initial: []float64{0}},
		},
		Reactions: []ReactionConfig{
			{ID: "forward", Reactants: []TermConfig{{Species: "A"}}, Products: []TermConfig{{Species: "B"}}, Rate: 1},
			{ID: "backward", Reactants: []TermConfig{{Species: "B"}}, Products: []TermConfig{{Species: "A"}}, Rate: 2},
		},
		Diffusions: []DiffusionConfig{
			{Species: "A", Coefficient: 0.1, Fast: true},
			{Species: "B", Coefficient: 0.1, Fast: true},
		},
	}
	m, err := BuildModelFromConfig(cfg)
	require.NoError(t, err)
	return m.WithSeed(seed)
}

// decay is A -> B with every event fast, so hybrid drivers reduce to the
// reaction-rate equations.
func decay(t testing.TB, a0 float64) *Model {
	t.Helper()
	cfg := NetworkConfig{
		Name:    "decay",
		Species: []SpeciesConfig{{Name: "A", Initial: []float64{a0}}, {Name: "B"}},
		Reactions: []ReactionConfig{
			{ID: "decay", Reactants: []TermConfig{{Species: "A"}}, Products: []TermConfig{{Species: "B"}}, Rate: 1, Fast: true},
		},
	}
	m, err := BuildModelFromConfig(cfg)
	require.NoError(t, err)
	return m.WithSeed(1)
}

func testParams() Params {
	p := DefaultParams()
	p.MacroStep = 0.1
	p.Window = 0.1
	return p
}

// recordingLogger keeps warnings for assertions.
type recordingLogger struct {
	NoOpLogger
	mu       sync.Mutex
	warnings []string
}

func (l *recordingLogger) Warnf(format string, v ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warnings = append(l.warnings, format)
}
