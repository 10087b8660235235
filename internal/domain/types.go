// Package domain defines the core types for the chemistry lab experiment engine.
package domain

// ChemicalType classifies catalog chemicals.
type ChemicalType string

const (
	ChemAcid      ChemicalType = "acid"
	ChemBase      ChemicalType = "base"
	ChemIndicator ChemicalType = "indicator"
	ChemSalt      ChemicalType = "salt"
	ChemSolvent   ChemicalType = "solvent"
	ChemOxidant   ChemicalType = "oxidant"
	ChemReductant ChemicalType = "reductant"
	ChemOther     ChemicalType = "other"
)

// Chemical is an immutable catalog entry copied by value into solutions.
// Concentration is in mol/L; zero means unspecified. Acids and bases need a
// concentration to participate in pH computation.
type Chemical struct {
	ID            string       `json:"id"`
	Name          string       `json:"name"`
	Formula       string       `json:"formula"`
	Type          ChemicalType `json:"type"`
	Concentration float64      `json:"concentration,omitempty"`
}

// HasConcentration reports whether the chemical carries a usable molarity.
func (c Chemical) HasConcentration() bool {
	return c.Concentration > 0
}

// Solution is a homogeneous portion of one chemical inside a container.
type Solution struct {
	Chemical Chemical `json:"chemical"`
	VolumeML float64  `json:"volume_ml"`
}

// EquipmentType classifies workbench apparatus.
type EquipmentType string

const (
	EquipBeaker            EquipmentType = "beaker"
	EquipBurette           EquipmentType = "burette"
	EquipPipette           EquipmentType = "pipette"
	EquipGraduatedCylinder EquipmentType = "graduated-cylinder"
	EquipErlenmeyerFlask   EquipmentType = "erlenmeyer-flask"
	EquipVolumetricFlask   EquipmentType = "volumetric-flask"
	EquipTestTube          EquipmentType = "test-tube"
	EquipHeating           EquipmentType = "heating"
	EquipMeasurement       EquipmentType = "measurement"
	EquipThermometer       EquipmentType = "thermometer"
	EquipPHMeter           EquipmentType = "ph-meter"
	EquipStand             EquipmentType = "stand"
	EquipClamp             EquipmentType = "clamp"
	EquipOther             EquipmentType = "other"
)

// EquipmentTemplate is a read-only catalog entry for apparatus.
// CapacityML of zero means the item is not a liquid container.
type EquipmentTemplate struct {
	ID         string        `json:"id"`
	Name       string        `json:"name"`
	Type       EquipmentType `json:"type"`
	CapacityML float64       `json:"capacity_ml,omitempty"`
}

// Position is the workbench placement of an equipment item. Cosmetic only.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// ReactionEffects is the last computed reaction summary for a container.
type ReactionEffects struct {
	Equation          string  `json:"equation"`
	Description       string  `json:"description"`
	TemperatureChange float64 `json:"temperature_change"`
	GasProduced       string  `json:"gas_produced,omitempty"`
	PrecipitateFormed string  `json:"precipitate_formed,omitempty"`
	IsExplosive       bool    `json:"is_explosive"`
}

// Equipment is a workbench apparatus instance. ID is unique per instance and
// distinct from the catalog template id. PH is nil until the container holds
// an aqueous mixture. Color is a CSS-compatible token, "transparent" when
// empty or when no indicator is present.
type Equipment struct {
	ID         string           `json:"id"`
	TemplateID string           `json:"template_id"`
	Name       string           `json:"name"`
	Type       EquipmentType    `json:"type"`
	CapacityML float64          `json:"capacity_ml,omitempty"`
	Solutions  []Solution       `json:"solutions"`
	PH         *float64         `json:"ph"`
	Color      string           `json:"color"`
	Selected   bool             `json:"is_selected"`
	Position   Position         `json:"position"`
	Size       float64          `json:"size"`
	AttachedTo string           `json:"attached_to,omitempty"`
	Effects    *ReactionEffects `json:"reaction_effects,omitempty"`
}

// TotalVolumeML returns the summed volume of all solutions in the container.
func (e *Equipment) TotalVolumeML() float64 {
	var total float64
	for _, s := range e.Solutions {
		total += s.VolumeML
	}
	return total
}

// IsContainer reports whether the equipment can hold solutions.
func (e *Equipment) IsContainer() bool {
	switch e.Type {
	case EquipBeaker, EquipBurette, EquipPipette, EquipGraduatedCylinder,
		EquipErlenmeyerFlask, EquipVolumetricFlask, EquipTestTube:
		return true
	}
	return false
}

// ExperimentState is an immutable snapshot of the workbench aggregate.
// Generation increments on every reset so late collaborator results can be
// discarded.
type ExperimentState struct {
	Equipment  []Equipment `json:"equipment"`
	Generation int64       `json:"generation"`
}

// PrimaryContainer returns the primary reaction vessel: the first beaker or
// erlenmeyer flask on the workbench, in placement order. The second return is
// false when none is present.
func (s ExperimentState) PrimaryContainer() (Equipment, bool) {
	for _, e := range s.Equipment {
		if e.Type == EquipBeaker || e.Type == EquipErlenmeyerFlask {
			return e, true
		}
	}
	return Equipment{}, false
}

// LabLogEntry is one record in the append-only lab log.
type LabLogEntry struct {
	ID        string `json:"id"`
	Seq       int64  `json:"seq"`
	Text      string `json:"text"`
	Custom    bool   `json:"is_custom"`
	CreatedAt int64  `json:"created_at"`
}

// Prediction is the reaction predictor's output for a mixed container.
// Product volumes must sum to the input volumes; the engine verifies this
// before applying the prediction.
type Prediction struct {
	Products          []Solution `json:"products"`
	PH                float64    `json:"ph"`
	Color             string     `json:"color"`
	GasProduced       string     `json:"gas_produced,omitempty"`
	PrecipitateFormed string     `json:"precipitate_formed,omitempty"`
	IsExplosive       bool       `json:"is_explosive"`
	TemperatureChange float64    `json:"temperature_change"`
	Description       string     `json:"description"`
	Equation          string     `json:"equation"`
}

// CatalogRecord is one search hit: either a chemical or an equipment template.
type CatalogRecord struct {
	Chemical  *Chemical          `json:"chemical,omitempty"`
	Equipment *EquipmentTemplate `json:"equipment,omitempty"`
}

// Suggestion is the advisory output of the next-step collaborator.
type Suggestion struct {
	NextStep  string `json:"next_step_suggestion"`
	Hint      string `json:"hint,omitempty"`
	Rationale string `json:"rationale,omitempty"`
}
