package client

import (
	"testing"

	"github.com/daniacca/crnsim/internal/crn"
)

func TestNetworkBuilder(t *testing.T) {
	cfg := NewNetwork("lattice").
		Compartments(4).
		Length(2).
		Species("A", 30).
		Species("B", 0, 1, 2, 3).
		Reaction(NewReaction("forward").Consumes("A", 1).Produces("B", 1).Rate(1)).
		Reaction(NewReaction("dimer").Consumes("B", 2).Produces("A", 1).Rate(0.01).Fast().In(0, 3)).
		DiffuseFast("A", 0.1).
		Diffuse("B", 0.05).
		Build()

	if cfg.Name != "lattice" || cfg.Compartments != 4 {
		t.Errorf("unexpected header: %+v", cfg)
	}
	if cfg.Lattice == nil || cfg.Lattice.Length != 2 {
		t.Errorf("expected lattice length 2, got %+v", cfg.Lattice)
	}
	if cfg.Spacing() != 0.5 {
		t.Errorf("expected spacing 0.5, got %g", cfg.Spacing())
	}
	if len(cfg.Species) != 2 || len(cfg.Species[1].Initial) != 4 {
		t.Errorf("unexpected species: %+v", cfg.Species)
	}
	if len(cfg.Reactions) != 2 {
		t.Fatalf("expected 2 reactions, got %d", len(cfg.Reactions))
	}
	dimer := cfg.Reactions[1]
	if !dimer.Fast || dimer.Rate != 0.01 || dimer.Reactants[0].Count != 2 || len(dimer.Compartments) != 2 {
		t.Errorf("unexpected dimer reaction: %+v", dimer)
	}
	if len(cfg.Diffusions) != 2 || !cfg.Diffusions[0].Fast || cfg.Diffusions[1].Fast {
		t.Errorf("unexpected diffusions: %+v", cfg.Diffusions)
	}

	m, err := crn.BuildModelFromConfig(cfg)
	if err != nil {
		t.Fatalf("built network should be valid: %v", err)
	}
	// 4 forward + 2 dimer + 6 hops each for A and B
	if got := len(m.Events()); got != 18 {
		t.Errorf("expected 18 events, got %d", got)
	}
	// dimer (2) + A hops (6)
	if got := len(m.FastEvents()); got != 8 {
		t.Errorf("expected 8 fast events, got %d", got)
	}
}

func TestNewReaction_DefaultRate(t *testing.T) {
	cfg := NewReaction("r").Produces("X", 1).Build()
	if cfg.Rate != 1 {
		t.Errorf("expected default rate 1, got %g", cfg.Rate)
	}
	if cfg.ID != "r" || len(cfg.Products) != 1 || cfg.Products[0].Species != "X" {
		t.Errorf("unexpected reaction: %+v", cfg)
	}
}

func TestNetworkBuilder_SingleCompartment(t *testing.T) {
	cfg := NewNetwork("tiny").Species("X").Build()
	if cfg.Lattice != nil {
		t.Error("expected no lattice when no length is set")
	}
	if _, err := crn.BuildModelFromConfig(cfg); err != nil {
		t.Errorf("expected valid network, got %v", err)
	}
}
