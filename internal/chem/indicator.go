package chem

import (
	"math"

	"github.com/anthropics/chemlab-engine/internal/domain"
)

// ColorNone is the display color of a container with no visible tint.
const ColorNone = "transparent"

// band is one step of an indicator's (pH threshold -> color) function.
// The band covers ph < max, or ph <= max when inclusive is set.
type band struct {
	max       float64
	inclusive bool
	color     string
}

// indicatorBands maps each indicator id to its color step function. The last
// band of every indicator has max = +Inf so a color is always found.
var indicatorBands = map[string][]band{
	"phenolphthalein": {
		{max: 8.2, color: ColorNone},
		{max: math.Inf(1), color: "pink"},
	},
	"methyl-orange": {
		{max: 3.1, color: "red"},
		{max: 4.4, inclusive: true, color: "orange"},
		{max: math.Inf(1), color: "yellow"},
	},
	"bromothymol-blue": {
		{max: 6.0, color: "yellow"},
		{max: 7.6, inclusive: true, color: "green"},
		{max: math.Inf(1), color: "blue"},
	},
	"litmus": {
		{max: 4.5, color: "red"},
		{max: 8.3, inclusive: true, color: "purple"},
		{max: math.Inf(1), color: "blue"},
	},
	"universal-indicator": {
		{max: 3.0, color: "red"},
		{max: 6.0, color: "orange"},
		{max: 8.0, inclusive: true, color: "green"},
		{max: 11.0, inclusive: true, color: "blue"},
		{max: math.Inf(1), color: "violet"},
	},
}

// IndicatorColor maps (indicator id, pH) to a CSS-compatible color token.
// Unknown indicator ids yield ColorNone.
func IndicatorColor(indicatorID string, ph float64) string {
	bands, ok := indicatorBands[indicatorID]
	if !ok {
		return ColorNone
	}
	for _, b := range bands {
		if ph < b.max || (b.inclusive && ph == b.max) {
			return b.color
		}
	}
	return ColorNone
}

// IndicatorIn returns the id of the first indicator present in the mixture.
// The second return is false when no indicator is present.
func IndicatorIn(solutions []domain.Solution) (string, bool) {
	for _, s := range solutions {
		if s.Chemical.Type == domain.ChemIndicator {
			return s.Chemical.ID, true
		}
	}
	return "", false
}

// MixtureColor derives the display color of a mixture: the first indicator's
// color at the given pH, or ColorNone when no indicator is present.
func MixtureColor(solutions []domain.Solution, ph float64) string {
	id, ok := IndicatorIn(solutions)
	if !ok {
		return ColorNone
	}
	return IndicatorColor(id, ph)
}
