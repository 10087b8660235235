// Package assist defines the external AI collaborators consumed by the
// experiment engine: reaction prediction, catalog search, and next-step
// suggestions. The engine only sees the interfaces; every implementation must
// degrade to a safe deterministic fallback instead of propagating raw
// failures into the state machine.
package assist

import (
	"context"
	"math"

	"github.com/anthropics/chemlab-engine/internal/chem"
	"github.com/anthropics/chemlab-engine/internal/domain"
)

// Predictor predicts the reaction products of a mixed container.
type Predictor interface {
	PredictReaction(ctx context.Context, inputs []domain.Solution) (domain.Prediction, error)
}

// Searcher resolves a free-text query into catalog-shaped records.
// An empty result list is a valid "no results", never an error.
type Searcher interface {
	SearchCatalog(ctx context.Context, query string) ([]domain.CatalogRecord, error)
}

// Advisor produces a purely advisory next-step suggestion from a snapshot of
// the workbench and the action history. It never mutates state.
type Advisor interface {
	SuggestNextStep(ctx context.Context, state domain.ExperimentState, history []string) (domain.Suggestion, error)
}

// NoReaction is the deterministic fallback bundle: products identical to the
// inputs, pH and color derived locally, no effects.
func NoReaction(inputs []domain.Solution) domain.Prediction {
	products := make([]domain.Solution, len(inputs))
	copy(products, inputs)
	ph := chem.ComputePH(inputs)
	return domain.Prediction{
		Products:    products,
		PH:          ph,
		Color:       chem.MixtureColor(inputs, ph),
		Description: "no reaction",
	}
}

// ConservesVolume checks that the product volumes sum to the input volumes
// within toleranceML. The engine rejects predictions that fail this check.
func ConservesVolume(inputs, products []domain.Solution, toleranceML float64) bool {
	var in, out float64
	for _, s := range inputs {
		in += s.VolumeML
	}
	for _, s := range products {
		out += s.VolumeML
	}
	return math.Abs(in-out) <= toleranceML
}
