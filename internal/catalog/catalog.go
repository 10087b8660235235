// Package catalog holds the read-only chemical and apparatus reference data.
//
// Lookups never fail hard: a missing id yields a zero value and false, and
// callers decide whether absence is an error.
package catalog

import (
	"sort"
	"strings"

	"github.com/anthropics/chemlab-engine/internal/domain"
)

// chemicals is the built-in chemical reference table.
var chemicals = map[string]domain.Chemical{
	"water":               {ID: "water", Name: "Distilled Water", Formula: "H2O", Type: domain.ChemSolvent},
	"hcl-0.1m":            {ID: "hcl-0.1m", Name: "Hydrochloric Acid (0.1M)", Formula: "HCl", Type: domain.ChemAcid, Concentration: 0.1},
	"hcl-1m":              {ID: "hcl-1m", Name: "Hydrochloric Acid (1M)", Formula: "HCl", Type: domain.ChemAcid, Concentration: 1.0},
	"h2so4-0.1m":          {ID: "h2so4-0.1m", Name: "Sulfuric Acid (0.1M)", Formula: "H2SO4", Type: domain.ChemAcid, Concentration: 0.1},
	"ch3cooh-0.1m":        {ID: "ch3cooh-0.1m", Name: "Acetic Acid (0.1M)", Formula: "CH3COOH", Type: domain.ChemAcid, Concentration: 0.1},
	"naoh-0.1m":           {ID: "naoh-0.1m", Name: "Sodium Hydroxide (0.1M)", Formula: "NaOH", Type: domain.ChemBase, Concentration: 0.1},
	"naoh-1m":             {ID: "naoh-1m", Name: "Sodium Hydroxide (1M)", Formula: "NaOH", Type: domain.ChemBase, Concentration: 1.0},
	"nh3-0.1m":            {ID: "nh3-0.1m", Name: "Ammonia Solution (0.1M)", Formula: "NH3", Type: domain.ChemBase, Concentration: 0.1},
	"nacl":                {ID: "nacl", Name: "Sodium Chloride Solution", Formula: "NaCl", Type: domain.ChemSalt},
	"cuso4":               {ID: "cuso4", Name: "Copper Sulfate Solution", Formula: "CuSO4", Type: domain.ChemSalt},
	"kmno4":               {ID: "kmno4", Name: "Potassium Permanganate", Formula: "KMnO4", Type: domain.ChemOxidant},
	"na2s2o3":             {ID: "na2s2o3", Name: "Sodium Thiosulfate", Formula: "Na2S2O3", Type: domain.ChemReductant},
	"phenolphthalein":     {ID: "phenolphthalein", Name: "Phenolphthalein", Type: domain.ChemIndicator},
	"methyl-orange":       {ID: "methyl-orange", Name: "Methyl Orange", Type: domain.ChemIndicator},
	"bromothymol-blue":    {ID: "bromothymol-blue", Name: "Bromothymol Blue", Type: domain.ChemIndicator},
	"litmus":              {ID: "litmus", Name: "Litmus Solution", Type: domain.ChemIndicator},
	"universal-indicator": {ID: "universal-indicator", Name: "Universal Indicator", Type: domain.ChemIndicator},
}

// equipment is the built-in apparatus template table.
var equipment = map[string]domain.EquipmentTemplate{
	"beaker-250":       {ID: "beaker-250", Name: "Beaker (250ml)", Type: domain.EquipBeaker, CapacityML: 250},
	"burette-50":       {ID: "burette-50", Name: "Burette (50ml)", Type: domain.EquipBurette, CapacityML: 50},
	"pipette-25":       {ID: "pipette-25", Name: "Pipette (25ml)", Type: domain.EquipPipette, CapacityML: 25},
	"cylinder-100":     {ID: "cylinder-100", Name: "Graduated Cylinder (100ml)", Type: domain.EquipGraduatedCylinder, CapacityML: 100},
	"erlenmeyer-250":   {ID: "erlenmeyer-250", Name: "Erlenmeyer Flask (250ml)", Type: domain.EquipErlenmeyerFlask, CapacityML: 250},
	"volumetric-100":   {ID: "volumetric-100", Name: "Volumetric Flask (100ml)", Type: domain.EquipVolumetricFlask, CapacityML: 100},
	"test-tube-20":     {ID: "test-tube-20", Name: "Test Tube (20ml)", Type: domain.EquipTestTube, CapacityML: 20},
	"bunsen-burner":    {ID: "bunsen-burner", Name: "Bunsen Burner", Type: domain.EquipHeating},
	"thermometer":      {ID: "thermometer", Name: "Thermometer", Type: domain.EquipThermometer},
	"ph-meter":         {ID: "ph-meter", Name: "pH Meter", Type: domain.EquipPHMeter},
	"balance":          {ID: "balance", Name: "Electronic Balance", Type: domain.EquipMeasurement},
	"retort-stand":     {ID: "retort-stand", Name: "Retort Stand", Type: domain.EquipStand},
	"burette-clamp":    {ID: "burette-clamp", Name: "Burette Clamp", Type: domain.EquipClamp},
	"watch-glass":      {ID: "watch-glass", Name: "Watch Glass", Type: domain.EquipOther},
}

// ChemicalTemplate looks up a chemical by id.
func ChemicalTemplate(id string) (domain.Chemical, bool) {
	c, ok := chemicals[id]
	return c, ok
}

// EquipmentTemplate looks up an apparatus template by id.
func EquipmentTemplate(id string) (domain.EquipmentTemplate, bool) {
	e, ok := equipment[id]
	return e, ok
}

// Chemicals returns all chemical templates sorted by id.
func Chemicals() []domain.Chemical {
	out := make([]domain.Chemical, 0, len(chemicals))
	for _, c := range chemicals {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// EquipmentTemplates returns all apparatus templates sorted by id.
func EquipmentTemplates() []domain.EquipmentTemplate {
	out := make([]domain.EquipmentTemplate, 0, len(equipment))
	for _, e := range equipment {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Search matches the query against chemical and apparatus names, formulas,
// and ids, case-insensitively. An empty result list is a valid "no results".
func Search(query string) []domain.CatalogRecord {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}

	var hits []domain.CatalogRecord
	for _, c := range Chemicals() {
		if strings.Contains(strings.ToLower(c.Name), q) ||
			strings.Contains(strings.ToLower(c.Formula), q) ||
			strings.Contains(c.ID, q) {
			chem := c
			hits = append(hits, domain.CatalogRecord{Chemical: &chem})
		}
	}
	for _, e := range EquipmentTemplates() {
		if strings.Contains(strings.ToLower(e.Name), q) || strings.Contains(e.ID, q) {
			tmpl := e
			hits = append(hits, domain.CatalogRecord{Equipment: &tmpl})
		}
	}
	return hits
}
