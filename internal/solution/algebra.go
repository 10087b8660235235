// Package solution implements the container solution algebra: adding,
// merging, and draining the (chemical, volume) entries held by a container.
package solution

import (
	"github.com/anthropics/chemlab-engine/internal/domain"
)

// DefaultMinVolumeML is the volume below which an entry is considered empty.
const DefaultMinVolumeML = 0.01

// Algebra performs solution-list operations on containers. All operations
// preserve the merge invariant: at most one entry per chemical id.
type Algebra struct {
	// MinVolumeML is the threshold below which a drained entry is dropped,
	// so repeated pours terminate instead of leaving floating-point dust.
	MinVolumeML float64
}

// NewAlgebra creates an Algebra with the standard empty-entry threshold.
func NewAlgebra() *Algebra {
	return &Algebra{MinVolumeML: DefaultMinVolumeML}
}

// Add merges volumeML of the chemical into the container. An existing entry
// with the same chemical id has its volume incremented; otherwise a new entry
// is appended. When the container has a defined capacity the addition is
// clamped to the remaining headroom.
//
// It returns the volume actually added and whether clamping occurred.
func (a *Algebra) Add(e *domain.Equipment, chem domain.Chemical, volumeML float64) (float64, bool) {
	if volumeML <= 0 {
		return 0, false
	}

	clamped := false
	if e.CapacityML > 0 {
		remaining := e.CapacityML - e.TotalVolumeML()
		if remaining <= 0 {
			return 0, true
		}
		if volumeML > remaining {
			volumeML = remaining
			clamped = true
		}
	}

	for i := range e.Solutions {
		if e.Solutions[i].Chemical.ID == chem.ID {
			e.Solutions[i].VolumeML += volumeML
			return volumeML, clamped
		}
	}
	e.Solutions = append(e.Solutions, domain.Solution{Chemical: chem, VolumeML: volumeML})
	return volumeML, clamped
}

// Drain removes up to volumeML from the container, draining entries in array
// order (first added, first drained). The removed portions are returned in
// drain order. Entries left below MinVolumeML are dropped. Volumes never go
// negative; a request larger than the content drains everything.
func (a *Algebra) Drain(e *domain.Equipment, volumeML float64) []domain.Solution {
	if volumeML <= 0 || len(e.Solutions) == 0 {
		return nil
	}

	var removed []domain.Solution
	remaining := volumeML
	kept := e.Solutions[:0]

	for _, s := range e.Solutions {
		if remaining <= 0 {
			kept = append(kept, s)
			continue
		}
		take := s.VolumeML
		if take > remaining {
			take = remaining
		}
		remaining -= take
		s.VolumeML -= take
		if take > 0 {
			removed = append(removed, domain.Solution{Chemical: s.Chemical, VolumeML: take})
		}
		if s.VolumeML >= a.MinVolumeML {
			kept = append(kept, s)
		}
	}

	e.Solutions = kept
	return removed
}

// DrainFirst removes up to volumeML from the container's first entry only.
// Titration delivers the burette's leading chemical without disturbing
// anything loaded behind it.
func (a *Algebra) DrainFirst(e *domain.Equipment, volumeML float64) []domain.Solution {
	if volumeML <= 0 || len(e.Solutions) == 0 {
		return nil
	}

	first := &e.Solutions[0]
	take := first.VolumeML
	if take > volumeML {
		take = volumeML
	}
	first.VolumeML -= take

	var removed []domain.Solution
	if take > 0 {
		removed = append(removed, domain.Solution{Chemical: first.Chemical, VolumeML: take})
	}
	if first.VolumeML < a.MinVolumeML {
		e.Solutions = e.Solutions[1:]
	}
	return removed
}

// MergeInto merges previously drained solutions into the target container,
// entry by entry, with the same merge and clamp semantics as Add. It returns
// the total volume actually added and whether any portion was clamped away.
func (a *Algebra) MergeInto(e *domain.Equipment, removed []domain.Solution) (float64, bool) {
	var total float64
	clamped := false
	for _, s := range removed {
		added, c := a.Add(e, s.Chemical, s.VolumeML)
		total += added
		clamped = clamped || c
	}
	return total, clamped
}

// CheckMergeInvariant verifies that no two entries share a chemical id.
// A violation indicates an internal bug; callers log and skip rather than
// crash.
func (a *Algebra) CheckMergeInvariant(e *domain.Equipment) error {
	seen := make(map[string]bool, len(e.Solutions))
	for _, s := range e.Solutions {
		if seen[s.Chemical.ID] {
			return domain.ErrMergeInvariant
		}
		seen[s.Chemical.ID] = true
	}
	return nil
}
