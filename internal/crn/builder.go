package crn

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gonum.org/v1/gonum/mat"
	"gopkg.in/yaml.v3"
)

// BuildModelFromConfig validates cfg and builds a model from it.
//
// Reactions become one mass-action event per compartment, in definition
// order. Diffusions follow, as one hop event per ordered pair of
// neighbouring compartments with reflecting ends.
func BuildModelFromConfig(cfg NetworkConfig) (*Model, error) {
	if err := ValidateNetworkConfig(cfg); err != nil {
		return nil, err
	}

	n := cfg.compartments()
	species := make([]Species, len(cfg.Species))
	index := make(map[string]int, len(cfg.Species))
	for i, sc := range cfg.Species {
		species[i] = Species{Name: SpeciesName(sc.Name), Description: sc.Description, Meta: sc.Meta}
		index[sc.Name] = i
	}

	m := NewModel(cfg.Name, species, n)
	for i, sc := range cfg.Species {
		for c := 0; c < n; c++ {
			switch len(sc.Initial) {
			case 0:
			case 1:
				m.state.Set(i, c, sc.Initial[0])
			default:
				m.state.Set(i, c, sc.Initial[c])
			}
		}
	}

	for _, rc := range cfg.Reactions {
		for _, c := range reactionCompartments(rc, n) {
			m.WithEvents(buildReaction(rc, index, len(species), n, c))
		}
	}

	h := cfg.Spacing()
	for _, dc := range cfg.Diffusions {
		if dc.Coefficient == 0 {
			continue
		}
		sp := index[dc.Species]
		k := dc.Coefficient / (h * h)
		for from := 0; from < n; from++ {
			for _, to := range []int{from - 1, from + 1} {
				if to < 0 || to >= n {
					continue
				}
				stoich := mat.NewDense(len(species), n, nil)
				stoich.Set(sp, from, -1)
				stoich.Set(sp, to, 1)
				id := fmt.Sprintf("diffuse:%s@%d->%d", dc.Species, from, to)
				m.WithEvents(NewEvent(id, stoich, Hop{K: k, Species: sp, From: from}, dc.Fast))
			}
		}
	}
	return m, nil
}

func reactionCompartments(rc ReactionConfig, n int) []int {
	if len(rc.Compartments) > 0 {
		return rc.Compartments
	}
	all := make([]int, n)
	for c := range all {
		all[c] = c
	}
	return all
}

func buildReaction(rc ReactionConfig, index map[string]int, species, n, c int) *Event {
	stoich := mat.NewDense(species, n, nil)
	orders := make(map[int]int)
	for _, t := range rc.Reactants {
		sp := index[t.Species]
		orders[sp] += t.count()
		stoich.Set(sp, c, stoich.At(sp, c)-float64(t.count()))
	}
	for _, t := range rc.Products {
		sp := index[t.Species]
		stoich.Set(sp, c, stoich.At(sp, c)+float64(t.count()))
	}

	reactants := make([]Reactant, 0, len(orders))
	for sp, o := range orders {
		reactants = append(reactants, Reactant{Species: sp, Order: o})
	}
	sort.Slice(reactants, func(i, j int) bool { return reactants[i].Species < reactants[j].Species })

	id := rc.ID
	if n > 1 {
		id = fmt.Sprintf("%s@%d", rc.ID, c)
	}
	return NewEvent(id, stoich, MassAction{K: rc.Rate, Compartment: c, Reactants: reactants}, rc.Fast)
}

// ParseNetwork decodes a network definition. format is "json" or "yaml".
func ParseNetwork(data []byte, format string) (NetworkConfig, error) {
	var cfg NetworkConfig
	switch strings.ToLower(format) {
	case "json":
		if err := json.Unmarshal(data, &cfg); err != nil {
			return NetworkConfig{}, fmt.Errorf("failed to decode network JSON: %w", err)
		}
	case "yaml", "yml", "":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return NetworkConfig{}, fmt.Errorf("failed to decode network YAML: %w", err)
		}
	default:
		return NetworkConfig{}, fmt.Errorf("unsupported network format %q", format)
	}
	return cfg, nil
}

// LoadNetworkFile reads a network definition. Files ending in .json are
// decoded as JSON, anything else as YAML.
func LoadNetworkFile(path string) (NetworkConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return NetworkConfig{}, fmt.Errorf("failed to read network file: %w", err)
	}
	format := "yaml"
	if strings.EqualFold(filepath.Ext(path), ".json") {
		format = "json"
	}
	return ParseNetwork(data, format)
}
