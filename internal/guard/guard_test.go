package guard

import (
	"testing"

	"github.com/anthropics/chemlab-engine/internal/domain"
)

func TestGate_SafetyFlag(t *testing.T) {
	g := NewGate(true, GateConfig{})

	if err := g.CheckChemicalAdd(); err != nil {
		t.Errorf("CheckChemicalAdd with safety on: %v", err)
	}

	g.SetSafety(false)
	if err := g.CheckChemicalAdd(); err != domain.ErrSafetyDisabled {
		t.Errorf("CheckChemicalAdd with safety off = %v, want ErrSafetyDisabled", err)
	}

	g.SetSafety(true)
	if err := g.CheckChemicalAdd(); err != nil {
		t.Errorf("CheckChemicalAdd after re-enable: %v", err)
	}
}

func TestGate_RateLimit(t *testing.T) {
	g := NewGate(true, GateConfig{RateLimitPerMinute: 3})

	for i := 0; i < 3; i++ {
		if err := g.CheckRate("client-a"); err != nil {
			t.Fatalf("CheckRate call %d: %v", i+1, err)
		}
	}
	if err := g.CheckRate("client-a"); err != domain.ErrRateLimitExceeded {
		t.Errorf("CheckRate over limit = %v, want ErrRateLimitExceeded", err)
	}

	// A different key has its own bucket.
	if err := g.CheckRate("client-b"); err != nil {
		t.Errorf("CheckRate for fresh key: %v", err)
	}
}

func TestGate_RateLimitDisabled(t *testing.T) {
	g := NewGate(true, GateConfig{})
	for i := 0; i < 100; i++ {
		if err := g.CheckRate("client-a"); err != nil {
			t.Fatalf("CheckRate with no limit configured: %v", err)
		}
	}
}
