package chem

import (
	"math"
	"testing"

	"github.com/anthropics/chemlab-engine/internal/domain"
)

func acid(id string, molar float64) domain.Chemical {
	return domain.Chemical{ID: id, Name: id, Type: domain.ChemAcid, Concentration: molar}
}

func base(id string, molar float64) domain.Chemical {
	return domain.Chemical{ID: id, Name: id, Type: domain.ChemBase, Concentration: molar}
}

func TestComputePH_Equivalence(t *testing.T) {
	// 50ml of 0.1M HCl + 50ml of 0.1M NaOH must be exactly neutral.
	solutions := []domain.Solution{
		{Chemical: acid("hcl", 0.1), VolumeML: 50},
		{Chemical: base("naoh", 0.1), VolumeML: 50},
	}
	if got := ComputePH(solutions); got != 7.0 {
		t.Errorf("ComputePH = %v, want exactly 7", got)
	}
}

func TestComputePH_AcidOnly(t *testing.T) {
	// 50ml of 0.1M strong acid: pH = -log10(0.1) = 1.
	solutions := []domain.Solution{
		{Chemical: acid("hcl", 0.1), VolumeML: 50},
	}
	got := ComputePH(solutions)
	if math.Abs(got-1.0) > 1e-9 {
		t.Errorf("ComputePH = %v, want 1.0", got)
	}
}

func TestComputePH_ExcessBase(t *testing.T) {
	// 50ml 0.1M HCl + 60ml 0.1M NaOH: 0.001 mol OH- excess in 110ml.
	solutions := []domain.Solution{
		{Chemical: acid("hcl", 0.1), VolumeML: 50},
		{Chemical: base("naoh", 0.1), VolumeML: 60},
	}
	got := ComputePH(solutions)
	if got <= 7.0 {
		t.Errorf("ComputePH = %v, want > 7 past equivalence", got)
	}
	want := 14.0 + math.Log10(0.001/0.110)
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("ComputePH = %v, want %v", got, want)
	}
}

func TestComputePH_Monotonic(t *testing.T) {
	// Titrating 50ml of 0.1M HCl with 0.1M NaOH: pH strictly increases as
	// base volume grows through and past the equivalence point.
	prev := math.Inf(-1)
	for _, added := range []float64{0, 10, 25, 40, 49, 49.9, 50, 50.1, 55, 60} {
		solutions := []domain.Solution{
			{Chemical: acid("hcl", 0.1), VolumeML: 50},
		}
		if added > 0 {
			solutions = append(solutions, domain.Solution{Chemical: base("naoh", 0.1), VolumeML: added})
		}
		got := ComputePH(solutions)
		if got <= prev {
			t.Errorf("pH not increasing: %v ml added gives %v, previous %v", added, got, prev)
		}
		prev = got
	}
}

func TestComputePH_Defaults(t *testing.T) {
	tests := []struct {
		name      string
		solutions []domain.Solution
	}{
		{"empty", nil},
		{"no acid or base", []domain.Solution{
			{Chemical: domain.Chemical{ID: "nacl", Type: domain.ChemSalt}, VolumeML: 30},
		}},
		{"acid without concentration", []domain.Solution{
			{Chemical: domain.Chemical{ID: "mystery", Type: domain.ChemAcid}, VolumeML: 30},
		}},
		{"zero volume", []domain.Solution{
			{Chemical: acid("hcl", 0.1), VolumeML: 0},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ComputePH(tt.solutions); got != NeutralPH {
				t.Errorf("ComputePH = %v, want neutral %v", got, NeutralPH)
			}
		})
	}
}

func TestComputePH_NeverNaN(t *testing.T) {
	// Near-zero excess must not produce -Inf or NaN.
	solutions := []domain.Solution{
		{Chemical: acid("hcl", 0.1), VolumeML: 50},
		{Chemical: base("naoh", 0.1), VolumeML: 50.0000000001},
	}
	got := ComputePH(solutions)
	if math.IsNaN(got) || math.IsInf(got, 0) {
		t.Fatalf("ComputePH = %v, want a finite value", got)
	}
}
