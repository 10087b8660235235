// Package chem implements the pH and indicator color model.
//
// All functions are pure: same inputs always produce the same outputs, and
// nothing here touches workbench state.
package chem

import (
	"math"

	"github.com/anthropics/chemlab-engine/internal/domain"
)

// MoleTolerance is the equivalence-point tolerance in moles. Acid and base
// amounts closer than this are treated as exactly neutralized.
const MoleTolerance = 1e-9

// NeutralPH is returned when the mixture has no computable acid/base balance.
const NeutralPH = 7.0

// ComputePH derives the pH of a mixture from the acid and base moles present.
//
// Moles of H+ come from every acid entry with a known concentration, moles of
// OH- from every base entry with a known concentration. The excess species
// determines the branch:
//
//	molesH > molesOH:  pH  = -log10((molesH - molesOH) / totalVolumeL)
//	molesOH > molesH:  pOH = -log10((molesOH - molesH) / totalVolumeL), pH = 14 - pOH
//	equal (within MoleTolerance): pH = 7 exactly
//
// Mixtures with no acid, no base, an acid or base of unknown concentration,
// or no volume default to neutral 7. The branching keeps the log argument
// strictly positive so the result is never -Inf or NaN.
func ComputePH(solutions []domain.Solution) float64 {
	var molesH, molesOH, totalML float64
	var sawAcid, sawBase, unknown bool

	for _, s := range solutions {
		totalML += s.VolumeML
		switch s.Chemical.Type {
		case domain.ChemAcid:
			sawAcid = true
			if !s.Chemical.HasConcentration() {
				unknown = true
				continue
			}
			molesH += (s.VolumeML / 1000.0) * s.Chemical.Concentration
		case domain.ChemBase:
			sawBase = true
			if !s.Chemical.HasConcentration() {
				unknown = true
				continue
			}
			molesOH += (s.VolumeML / 1000.0) * s.Chemical.Concentration
		}
	}

	if unknown || (!sawAcid && !sawBase) || totalML <= 0 {
		return NeutralPH
	}

	diff := molesH - molesOH
	if math.Abs(diff) <= MoleTolerance {
		return NeutralPH // equivalence point
	}

	totalL := totalML / 1000.0
	if diff > 0 {
		conc := diff / totalL
		if conc <= MoleTolerance {
			return NeutralPH
		}
		return -math.Log10(conc)
	}

	conc := -diff / totalL
	if conc <= MoleTolerance {
		return NeutralPH
	}
	pOH := -math.Log10(conc)
	return 14.0 - pOH
}
