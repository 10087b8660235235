// Package interaction interprets pointer-driven click sequences as workbench
// transitions. Exactly one mode is active at a time; the tagged Mode value
// makes illegal combinations (holding a chemical while mid-pour) unrepresentable.
package interaction

// Kind identifies which interaction mode is active.
type Kind int

const (
	KindIdle Kind = iota
	KindHoldingChemical
	KindHoldingEquipment
	KindPouring
	KindAttaching
)

func (k Kind) String() string {
	switch k {
	case KindIdle:
		return "idle"
	case KindHoldingChemical:
		return "holding_chemical"
	case KindHoldingEquipment:
		return "holding_equipment"
	case KindPouring:
		return "pouring"
	case KindAttaching:
		return "attaching"
	default:
		return "unknown"
	}
}

// Mode is a tagged union over the interaction states. Only the constructors
// below can build one, so the payload fields always match the kind.
type Mode struct {
	kind       Kind
	chemicalID string
	volumeML   float64
	sourceID   string
	targetID   string
}

// Idle is the quiescent mode: nothing held, no action in progress.
func Idle() Mode { return Mode{kind: KindIdle} }

// HoldingChemical represents a chemical picked up from the inventory,
// awaiting a destination container click.
func HoldingChemical(chemicalID string, volumeML float64) Mode {
	return Mode{kind: KindHoldingChemical, chemicalID: chemicalID, volumeML: volumeML}
}

// HoldingEquipment represents a non-empty container picked up for pouring.
func HoldingEquipment(equipmentID string) Mode {
	return Mode{kind: KindHoldingEquipment, sourceID: equipmentID}
}

// Pouring represents a source and target pair awaiting a volume confirmation.
func Pouring(sourceID, targetID string) Mode {
	return Mode{kind: KindPouring, sourceID: sourceID, targetID: targetID}
}

// Attaching represents an equipment item awaiting a parent to attach to.
func Attaching(sourceID string) Mode {
	return Mode{kind: KindAttaching, sourceID: sourceID}
}

func (m Mode) Kind() Kind { return m.kind }

// Active reports whether any mode other than idle is in effect.
func (m Mode) Active() bool { return m.kind != KindIdle }

// Chemical returns the held chemical id and requested volume when the mode
// is HoldingChemical.
func (m Mode) Chemical() (id string, volumeML float64, ok bool) {
	if m.kind != KindHoldingChemical {
		return "", 0, false
	}
	return m.chemicalID, m.volumeML, true
}

// Source returns the source equipment id for the holding, pouring, and
// attaching modes.
func (m Mode) Source() (string, bool) {
	switch m.kind {
	case KindHoldingEquipment, KindPouring, KindAttaching:
		return m.sourceID, true
	default:
		return "", false
	}
}

// Target returns the pour target when the mode is Pouring.
func (m Mode) Target() (string, bool) {
	if m.kind != KindPouring {
		return "", false
	}
	return m.targetID, true
}

// validNext mirrors the allowed mode transitions. Pickups and cancellation
// force the machine back through idle first, so every entry fans out of a
// cleared state.
var validNext = map[Kind][]Kind{
	KindIdle:             {KindHoldingChemical, KindHoldingEquipment, KindAttaching},
	KindHoldingChemical:  {KindIdle},
	KindHoldingEquipment: {KindIdle, KindPouring},
	KindPouring:          {KindIdle},
	KindAttaching:        {KindIdle},
}

func canEnter(from, to Kind) bool {
	for _, k := range validNext[from] {
		if k == to {
			return true
		}
	}
	return false
}
