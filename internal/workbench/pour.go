package workbench

import (
	"fmt"

	"github.com/anthropics/chemlab-engine/internal/catalog"
	"github.com/anthropics/chemlab-engine/internal/domain"
)

// AddChemical loads volumeML of a catalog chemical into a container. The
// operation is gated on safety equipment, merges by chemical identity, and
// clamps to the container's remaining capacity with a logged warning.
func (e *Engine) AddChemical(containerID, chemicalID string, volumeML float64) error {
	if err := e.Gate.CheckChemicalAdd(); err != nil {
		e.recordOp("add_chemical", err)
		return err
	}

	chemical, ok := catalog.ChemicalTemplate(chemicalID)
	if !ok {
		e.recordOp("add_chemical", domain.ErrInvalidReference)
		return domain.ErrInvalidReference
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	eq := e.findLocked(containerID)
	if eq == nil {
		e.recordOp("add_chemical", domain.ErrInvalidReference)
		return domain.ErrInvalidReference
	}
	if !eq.IsContainer() {
		e.recordOp("add_chemical", domain.ErrNotAContainer)
		return domain.ErrNotAContainer
	}

	added, clamped := e.Algebra.Add(eq, chemical, volumeML)
	if added == 0 && clamped {
		e.appendLogLocked(fmt.Sprintf("%s is full; no %s was added.", eq.Name, chemical.Name), false)
		e.recordOp("add_chemical", domain.ErrCapacityExceeded)
		return domain.ErrCapacityExceeded
	}

	e.recomputeLocked(eq)
	if clamped {
		e.appendLogLocked(fmt.Sprintf("Added %.1fml of %s to %s (clamped to capacity).", added, chemical.Name, eq.Name), false)
	} else {
		e.appendLogLocked(fmt.Sprintf("Added %.1fml of %s to %s.", added, chemical.Name, eq.Name), false)
	}
	e.recordOp("add_chemical", nil)
	return nil
}

// Pour transfers up to volumeML from the source container into the target.
// The amount is clamped to what the source holds and to the target's
// remaining headroom, so volume is conserved: nothing drained is lost.
// Both containers are recomputed, since draining changes the source mixture
// too.
func (e *Engine) Pour(sourceID, targetID string, volumeML float64) error {
	if err := e.Gate.CheckChemicalAdd(); err != nil {
		e.recordOp("pour", err)
		return err
	}
	if sourceID == targetID {
		e.recordOp("pour", domain.ErrSelfPour)
		return domain.ErrSelfPour
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	src := e.findLocked(sourceID)
	dst := e.findLocked(targetID)
	if src == nil || dst == nil {
		e.recordOp("pour", domain.ErrInvalidReference)
		return domain.ErrInvalidReference
	}
	if !src.IsContainer() || !dst.IsContainer() {
		e.recordOp("pour", domain.ErrNotAContainer)
		return domain.ErrNotAContainer
	}

	available := src.TotalVolumeML()
	if available <= 0 {
		e.recordOp("pour", domain.ErrSourceEmpty)
		return domain.ErrSourceEmpty
	}

	volume, clamped := e.clampTransferLocked(volumeML, available, dst)
	if volume <= 0 {
		e.appendLogLocked(fmt.Sprintf("%s is full; nothing was poured from %s.", dst.Name, src.Name), false)
		e.recordOp("pour", domain.ErrCapacityExceeded)
		return domain.ErrCapacityExceeded
	}

	removed := e.Algebra.Drain(src, volume)
	e.Algebra.MergeInto(dst, removed)

	e.recomputeLocked(src)
	e.recomputeLocked(dst)

	if clamped {
		e.appendLogLocked(fmt.Sprintf("Poured %.1fml from %s into %s (clamped to capacity).", volume, src.Name, dst.Name), false)
	} else {
		e.appendLogLocked(fmt.Sprintf("Poured %.1fml from %s into %s.", volume, src.Name, dst.Name), false)
	}
	e.recordOp("pour", nil)
	return nil
}

// Titrate delivers deltaML of the burette's leading chemical into the primary
// reaction container. The workbench must hold exactly the apparatus the
// workflow needs: one burette and a beaker or erlenmeyer flask. The delta is
// clamped so the cumulative amount delivered never exceeds what the burette
// holds.
func (e *Engine) Titrate(deltaML float64) error {
	if err := e.Gate.CheckChemicalAdd(); err != nil {
		e.recordOp("titrate", err)
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	var burette *domain.Equipment
	for _, eq := range e.equipment {
		if eq.Type == domain.EquipBurette {
			burette = eq
			break
		}
	}
	if burette == nil {
		e.appendLogLocked("Titration needs a burette on the workbench.", false)
		e.recordOp("titrate", domain.ErrMissingApparatus)
		return domain.ErrMissingApparatus
	}

	var vessel *domain.Equipment
	for _, eq := range e.equipment {
		if eq.Type == domain.EquipBeaker || eq.Type == domain.EquipErlenmeyerFlask {
			vessel = eq
			break
		}
	}
	if vessel == nil {
		e.appendLogLocked("Titration needs a beaker or erlenmeyer flask on the workbench.", false)
		e.recordOp("titrate", domain.ErrMissingApparatus)
		return domain.ErrMissingApparatus
	}

	if len(burette.Solutions) == 0 {
		e.recordOp("titrate", domain.ErrSourceEmpty)
		return domain.ErrSourceEmpty
	}

	reagent := burette.Solutions[0]
	volume, _ := e.clampTransferLocked(deltaML, reagent.VolumeML, vessel)
	if volume <= 0 {
		e.recordOp("titrate", domain.ErrCapacityExceeded)
		return domain.ErrCapacityExceeded
	}

	removed := e.Algebra.DrainFirst(burette, volume)
	e.Algebra.MergeInto(vessel, removed)

	e.recomputeLocked(burette)
	e.recomputeLocked(vessel)

	phNote := ""
	if vessel.PH != nil {
		phNote = fmt.Sprintf(" (pH %.2f)", *vessel.PH)
	}
	e.appendLogLocked(fmt.Sprintf("Titrated %.2fml of %s into %s%s.", volume, reagent.Chemical.Name, vessel.Name, phNote), false)
	e.recordOp("titrate", nil)
	return nil
}

// clampTransferLocked bounds a requested transfer volume by the amount
// available in the source and the headroom left in the target.
func (e *Engine) clampTransferLocked(requested, available float64, dst *domain.Equipment) (float64, bool) {
	if requested < 0 {
		requested = 0
	}
	clamped := false
	if requested > available {
		requested = available
	}
	if dst.CapacityML > 0 {
		headroom := dst.CapacityML - dst.TotalVolumeML()
		if headroom < 0 {
			headroom = 0
		}
		if requested > headroom {
			requested = headroom
			clamped = true
		}
	}
	return requested, clamped
}
