package crn

import (
	"fmt"
	"math"
	"strings"
)

// ValidationError collects multiple validation issues
type ValidationError struct {
	Issues []string
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 0 {
		return "invalid network: unknown validation error"
	}
	if len(e.Issues) == 1 {
		return e.Issues[0]
	}
	return "network validation errors: " + strings.Join(e.Issues, "; ")
}

func (e *ValidationError) Add(issue string) {
	e.Issues = append(e.Issues, issue)
}

func (e *ValidationError) Addf(format string, v ...any) {
	e.Add(fmt.Sprintf(format, v...))
}

func (e *ValidationError) HasIssues() bool {
	return len(e.Issues) > 0
}

func finiteNonNegative(v float64) bool {
	return v >= 0 && !math.IsInf(v, 1)
}

// ValidateNetworkConfig checks a network definition and reports every
// problem it finds in one *ValidationError.
func ValidateNetworkConfig(cfg NetworkConfig) error {
	err := &ValidationError{}

	if cfg.Name == "" {
		err.Add("network name is required")
	}
	if cfg.Compartments < 0 {
		err.Addf("compartments must be positive, got %d", cfg.Compartments)
	}
	n := cfg.compartments()
	if cfg.Lattice != nil && !(cfg.Lattice.Length > 0) {
		err.Addf("lattice length must be positive, got %g", cfg.Lattice.Length)
	}

	speciesMap := make(map[string]bool)
	if len(cfg.Species) == 0 {
		err.Add("at least one species is required")
	}
	for i, sp := range cfg.Species {
		if sp.Name == "" {
			err.Addf("species at index %d: name is required", i)
			continue
		}
		if speciesMap[sp.Name] {
			err.Add("duplicate species name: " + sp.Name)
		}
		speciesMap[sp.Name] = true

		if len(sp.Initial) > 1 && len(sp.Initial) != n {
			err.Addf("species '%s': initial has %d values, want 1 or %d", sp.Name, len(sp.Initial), n)
		}
		for _, v := range sp.Initial {
			if !finiteNonNegative(v) {
				err.Addf("species '%s': initial values must be finite and non-negative, got %g", sp.Name, v)
				break
			}
		}
	}

	reactionIDs := make(map[string]bool)
	for i, rc := range cfg.Reactions {
		prefix := fmt.Sprintf("reaction at index %d", i)
		if rc.ID == "" {
			err.Add(prefix + ": reaction ID is required")
		} else {
			prefix = "reaction '" + rc.ID + "'"
			if reactionIDs[rc.ID] {
				err.Add("duplicate reaction ID: " + rc.ID)
			}
			reactionIDs[rc.ID] = true
		}

		if !finiteNonNegative(rc.Rate) {
			err.Addf("%s: rate must be finite and non-negative, got %g", prefix, rc.Rate)
		}
		if len(rc.Reactants) == 0 && len(rc.Products) == 0 {
			err.Add(prefix + ": reaction has no reactants and no products")
		}
		validateTerms(rc.Reactants, prefix+" reactant", speciesMap, err)
		validateTerms(rc.Products, prefix+" product", speciesMap, err)
		for _, c := range rc.Compartments {
			if c < 0 || c >= n {
				err.Addf("%s: compartment %d out of range [0, %d)", prefix, c, n)
			}
		}
	}

	diffused := make(map[string]bool)
	for i, dc := range cfg.Diffusions {
		prefix := fmt.Sprintf("diffusion at index %d", i)
		if dc.Species == "" {
			err.Add(prefix + ": species is required")
		} else if !speciesMap[dc.Species] {
			err.Add(prefix + ": species '" + dc.Species + "' does not exist")
		} else if diffused[dc.Species] {
			err.Add(prefix + ": species '" + dc.Species + "' already diffuses")
		}
		diffused[dc.Species] = true
		if !finiteNonNegative(dc.Coefficient) {
			err.Addf("%s: coefficient must be finite and non-negative, got %g", prefix, dc.Coefficient)
		}
	}

	if err.HasIssues() {
		return err
	}
	return nil
}

func validateTerms(terms []TermConfig, prefix string, speciesMap map[string]bool, err *ValidationError) {
	for j, t := range terms {
		termPrefix := fmt.Sprintf("%s at index %d", prefix, j)
		if t.Species == "" {
			err.Add(termPrefix + ": species is required")
		} else if !speciesMap[t.Species] {
			err.Add(termPrefix + ": species '" + t.Species + "' does not exist")
		}
		if t.Count < 0 {
			err.Addf("%s: count must be positive, got %d", termPrefix, t.Count)
		}
	}
}
