package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/daniacca/crnsim/internal/crn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const decayNetwork = `
name: decay
species:
  - name: A
    initial: [20]
reactions:
  - id: decay
    reactants: [{species: A}]
    rate: 1
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
	return path
}

// execute runs the root command with args and returns its stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestNewRootCmd(t *testing.T) {
	root := newRootCmd()
	want := map[string]bool{"version": false, "run": false, "ensemble": false, "validate": false, "serve": false}
	for _, c := range root.Commands() {
		if _, ok := want[c.Name()]; ok {
			want[c.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("missing subcommand %q", name)
		}
	}
}

func TestVersionCmd(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "crnsim version "+version+"\n", out)

	out, err = execute(t, "version", "--json")
	require.NoError(t, err)
	var v map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &v))
	assert.Equal(t, version, v["version"])
}

func TestRunCmd_JSONSummary(t *testing.T) {
	network := writeFile(t, "decay.yaml", decayNetwork)
	trajPath := filepath.Join(t.TempDir(), "traj.json")

	out, err := execute(t, "run", "--network", network, "--horizon", "5", "--seed", "3", "--out", trajPath, "--json")
	require.NoError(t, err)

	var sum crn.RunSummary
	require.NoError(t, json.Unmarshal([]byte(out), &sum))
	assert.Equal(t, "decay", sum.Model)
	assert.Equal(t, crn.MethodGillespie, sum.Method)
	assert.Equal(t, uint64(3), sum.Seed)
	assert.Equal(t, 5.0, sum.FinalTime)
	assert.LessOrEqual(t, sum.Totals["A"], 20.0)
	assert.Empty(t, sum.Error)

	data, err := os.ReadFile(trajPath)
	require.NoError(t, err)
	rec, err := crn.DecodeTrajectoryJSON(data)
	require.NoError(t, err)
	assert.Equal(t, sum.ID, rec.RunID)
	assert.Equal(t, 0.0, rec.Times[0])
	assert.Equal(t, 5.0, rec.Times[rec.Len()-1])
	assert.Equal(t, []float64{20}, rec.States[0])
}

func TestRunCmd_TextSummary(t *testing.T) {
	network := writeFile(t, "decay.yaml", decayNetwork)
	out, err := execute(t, "run", "--network", network, "--horizon", "1", "--method", "next-reaction", "--seed", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Method:     next_reaction")
	assert.Contains(t, out, "Final time: 1")
	assert.Contains(t, out, "SPECIES")
}

func TestRunCmd_ConfigFile(t *testing.T) {
	network := writeFile(t, "decay.yaml", decayNetwork)
	cfgPath := writeFile(t, "run.yaml", "method: chv\nhorizon: 2\nseed: 11\nchv:\n  sampling_rate: 4\n")

	out, err := execute(t, "run", "--config", cfgPath, "--network", network, "--json")
	require.NoError(t, err)
	var sum crn.RunSummary
	require.NoError(t, json.Unmarshal([]byte(out), &sum))
	assert.Equal(t, crn.MethodCHV, sum.Method)
	assert.Equal(t, 2.0, sum.FinalTime)
	assert.Equal(t, uint64(11), sum.Seed)
}

func TestRunCmd_Errors(t *testing.T) {
	network := writeFile(t, "decay.yaml", decayNetwork)

	_, err := execute(t, "run")
	assert.Error(t, err, "--network is required")

	_, err = execute(t, "run", "--network", network, "--method", "leapfrog")
	assert.ErrorContains(t, err, "invalid method")

	_, err = execute(t, "run", "--network", network, "--method", "tau_leaping")
	assert.True(t, errors.Is(err, crn.ErrUnimplemented), "got %v", err)

	_, err = execute(t, "run", "--network", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestEnsembleCmd(t *testing.T) {
	network := writeFile(t, "decay.yaml", decayNetwork)
	out, err := execute(t, "ensemble", "--network", network, "--horizon", "1", "--seed", "5",
		"--trajectories", "20", "--workers", "2", "--json")
	require.NoError(t, err)

	var res ensembleOutput
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, 20, res.Trajectories)
	assert.Equal(t, 20, res.Completed)
	assert.Zero(t, res.Faults)
	require.Len(t, res.Entries, 1)
	assert.Equal(t, "A", res.Entries[0].Species)
	assert.Greater(t, res.Entries[0].Mean, 0.0)
	assert.Less(t, res.Entries[0].Mean, 20.0)
	assert.GreaterOrEqual(t, res.Entries[0].Variance, 0.0)
}

func TestEnsembleCmd_LatticeExampleHybrids(t *testing.T) {
	network := "../../examples/networks/isomerization_lattice.yaml"
	for _, method := range []string{"chv", "strang_split", "gillespie_hybrid"} {
		t.Run(method, func(t *testing.T) {
			out, err := execute(t, "ensemble", "--network", network, "--method", method,
				"--horizon", "2", "--seed", "1", "--trajectories", "40", "--json")
			require.NoError(t, err)

			var res ensembleOutput
			require.NoError(t, json.Unmarshal([]byte(out), &res))
			assert.Equal(t, 40, res.Completed)
			assert.Zero(t, res.Faults, res.FirstFault)
			assert.Len(t, res.Entries, 20)
		})
	}
}

func TestEnsembleCmd_Text(t *testing.T) {
	network := writeFile(t, "decay.yaml", decayNetwork)
	out, err := execute(t, "ensemble", "--network", network, "--horizon", "1", "--trajectories", "4")
	require.NoError(t, err)
	assert.Contains(t, out, "4 gillespie trajectories of decay")
	assert.Contains(t, out, "VARIANCE")
}

func TestValidateCmd(t *testing.T) {
	network := writeFile(t, "decay.yaml", decayNetwork)
	out, err := execute(t, "validate", "--network", network)
	require.NoError(t, err)
	assert.Contains(t, out, `network "decay" is valid (1 species, 1 compartments, 1 events, 0 fast)`)

	bad := writeFile(t, "bad.yaml", strings.Replace(decayNetwork, "{species: A}", "{species: Z}", 1))
	_, err = execute(t, "validate", "--network", bad)
	assert.ErrorContains(t, err, "invalid network")
}

func TestValidateCmd_JSON(t *testing.T) {
	network := writeFile(t, "net.json", `{"name":"lattice","compartments":3,
		"species":[{"name":"A","initial":[5]}],
		"diffusions":[{"species":"A","coefficient":0.1,"fast":true}]}`)
	out, err := execute(t, "validate", "--network", network, "--json")
	require.NoError(t, err)

	var v map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &v))
	assert.Equal(t, true, v["valid"])
	assert.Equal(t, 3.0, v["compartments"])
	assert.Equal(t, 4.0, v["events"])
	assert.Equal(t, 4.0, v["fast_events"])
}

func TestExampleNetworksValidate(t *testing.T) {
	paths, err := filepath.Glob("../../examples/networks/*.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, paths)
	for _, path := range paths {
		t.Run(filepath.Base(path), func(t *testing.T) {
			_, err := execute(t, "validate", "--network", path)
			assert.NoError(t, err)
		})
	}
}
