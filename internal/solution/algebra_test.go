package solution

import (
	"math"
	"testing"

	"github.com/anthropics/chemlab-engine/internal/domain"
)

var (
	water = domain.Chemical{ID: "water", Name: "Water", Type: domain.ChemSolvent}
	hcl   = domain.Chemical{ID: "hcl", Name: "Hydrochloric acid", Type: domain.ChemAcid, Concentration: 0.1}
	naoh  = domain.Chemical{ID: "naoh", Name: "Sodium hydroxide", Type: domain.ChemBase, Concentration: 0.1}
)

func newBeaker(capacityML float64) *domain.Equipment {
	return &domain.Equipment{
		ID:         "eq-1",
		Name:       "Beaker",
		Type:       domain.EquipBeaker,
		CapacityML: capacityML,
		Size:       1.0,
	}
}

func TestAdd_MergesByChemicalID(t *testing.T) {
	alg := NewAlgebra()
	b := newBeaker(250)

	alg.Add(b, hcl, 50)
	alg.Add(b, naoh, 20)
	alg.Add(b, hcl, 30)

	if len(b.Solutions) != 2 {
		t.Fatalf("len(Solutions) = %d, want 2 (merged by chemical id)", len(b.Solutions))
	}
	if b.Solutions[0].Chemical.ID != "hcl" || b.Solutions[0].VolumeML != 80 {
		t.Errorf("first entry = %s %v ml, want hcl 80 ml", b.Solutions[0].Chemical.ID, b.Solutions[0].VolumeML)
	}
	if err := alg.CheckMergeInvariant(b); err != nil {
		t.Errorf("CheckMergeInvariant: %v", err)
	}
}

func TestAdd_ClampsToCapacity(t *testing.T) {
	alg := NewAlgebra()
	b := newBeaker(250)

	added, clamped := alg.Add(b, water, 300)
	if !clamped {
		t.Error("expected clamping when adding 300ml to a 250ml beaker")
	}
	if added != 250 {
		t.Errorf("added = %v, want 250", added)
	}
	if got := b.TotalVolumeML(); got != 250 {
		t.Errorf("TotalVolumeML = %v, want 250", got)
	}

	// A full container accepts nothing more.
	added, clamped = alg.Add(b, hcl, 10)
	if added != 0 || !clamped {
		t.Errorf("add to full container = (%v, %v), want (0, true)", added, clamped)
	}
}

func TestAdd_UnconstrainedCapacity(t *testing.T) {
	alg := NewAlgebra()
	b := newBeaker(0) // no capacity defined

	added, clamped := alg.Add(b, water, 5000)
	if clamped || added != 5000 {
		t.Errorf("add = (%v, %v), want (5000, false)", added, clamped)
	}
}

func TestAdd_IgnoresNonPositiveVolume(t *testing.T) {
	alg := NewAlgebra()
	b := newBeaker(250)

	if added, _ := alg.Add(b, water, 0); added != 0 {
		t.Errorf("added = %v, want 0", added)
	}
	if added, _ := alg.Add(b, water, -10); added != 0 {
		t.Errorf("added = %v, want 0", added)
	}
	if len(b.Solutions) != 0 {
		t.Errorf("len(Solutions) = %d, want 0", len(b.Solutions))
	}
}

func TestDrain_ArrayOrder(t *testing.T) {
	alg := NewAlgebra()
	b := newBeaker(250)
	alg.Add(b, hcl, 50)
	alg.Add(b, naoh, 30)

	removed := alg.Drain(b, 60)

	// First-added entry drains first.
	if len(removed) != 2 {
		t.Fatalf("len(removed) = %d, want 2", len(removed))
	}
	if removed[0].Chemical.ID != "hcl" || removed[0].VolumeML != 50 {
		t.Errorf("removed[0] = %s %v ml, want hcl 50 ml", removed[0].Chemical.ID, removed[0].VolumeML)
	}
	if removed[1].Chemical.ID != "naoh" || removed[1].VolumeML != 10 {
		t.Errorf("removed[1] = %s %v ml, want naoh 10 ml", removed[1].Chemical.ID, removed[1].VolumeML)
	}
	if got := b.TotalVolumeML(); math.Abs(got-20) > 1e-9 {
		t.Errorf("TotalVolumeML after drain = %v, want 20", got)
	}
}

func TestDrain_MoreThanContent(t *testing.T) {
	alg := NewAlgebra()
	b := newBeaker(250)
	alg.Add(b, hcl, 40)

	removed := alg.Drain(b, 100)
	if len(removed) != 1 || removed[0].VolumeML != 40 {
		t.Fatalf("removed = %+v, want the full 40ml", removed)
	}
	if len(b.Solutions) != 0 {
		t.Errorf("container not empty after over-drain: %+v", b.Solutions)
	}
	if got := b.TotalVolumeML(); got != 0 {
		t.Errorf("TotalVolumeML = %v, want 0 (never negative)", got)
	}
}

func TestDrain_DropsDust(t *testing.T) {
	alg := NewAlgebra()
	b := newBeaker(250)
	alg.Add(b, hcl, 50)

	// Leave 0.005ml behind, which is below the 0.01ml threshold.
	alg.Drain(b, 49.995)
	if len(b.Solutions) != 0 {
		t.Errorf("expected dust entry to be dropped, got %+v", b.Solutions)
	}
}

func TestDrainFirst_OnlyTouchesLeadingEntry(t *testing.T) {
	alg := NewAlgebra()
	b := newBeaker(0)
	alg.Add(b, naoh, 50)
	alg.Add(b, hcl, 30)

	removed := alg.DrainFirst(b, 100)
	if len(removed) != 1 || removed[0].Chemical.ID != "naoh" || removed[0].VolumeML != 50 {
		t.Fatalf("removed = %+v, want 50ml of naoh", removed)
	}
	if len(b.Solutions) != 1 || b.Solutions[0].Chemical.ID != "hcl" {
		t.Errorf("remaining = %+v, want the untouched hcl entry", b.Solutions)
	}
}

func TestMergeInto_VolumeConservation(t *testing.T) {
	alg := NewAlgebra()
	src := newBeaker(250)
	dst := newBeaker(250)
	alg.Add(src, hcl, 80)
	alg.Add(src, naoh, 40)
	alg.Add(dst, hcl, 10)

	before := src.TotalVolumeML() + dst.TotalVolumeML()

	removed := alg.Drain(src, 100)
	added, clamped := alg.MergeInto(dst, removed)
	if clamped {
		t.Fatal("unexpected clamp merging 100ml into a 250ml beaker holding 10ml")
	}
	if math.Abs(added-100) > 1e-9 {
		t.Errorf("added = %v, want 100", added)
	}

	after := src.TotalVolumeML() + dst.TotalVolumeML()
	if math.Abs(before-after) > 1e-9 {
		t.Errorf("volume not conserved: before %v, after %v", before, after)
	}
	if err := alg.CheckMergeInvariant(dst); err != nil {
		t.Errorf("CheckMergeInvariant: %v", err)
	}
}

func TestCheckMergeInvariant_Violation(t *testing.T) {
	alg := NewAlgebra()
	b := newBeaker(250)
	b.Solutions = []domain.Solution{
		{Chemical: hcl, VolumeML: 10},
		{Chemical: hcl, VolumeML: 20},
	}
	if err := alg.CheckMergeInvariant(b); err != domain.ErrMergeInvariant {
		t.Errorf("CheckMergeInvariant = %v, want ErrMergeInvariant", err)
	}
}
