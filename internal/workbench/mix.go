package workbench

import (
	"context"
	"fmt"
	"math"

	"github.com/anthropics/chemlab-engine/internal/assist"
	"github.com/anthropics/chemlab-engine/internal/domain"
)

// Mix sends a container's current solutions to the reaction predictor and,
// on success, replaces them with the predicted products and stores the
// reaction effects.
//
// The prediction call runs outside the engine lock, bounded by MixTimeout.
// While it is in flight the container rejects duplicate Mix calls. The result
// is applied only if the container still exists with unchanged solutions and
// the experiment was not reset in the meantime; a stale result is discarded,
// never retroactively applied. On prediction failure or a volume-conservation
// violation the solutions are left unchanged and the error is logged.
func (e *Engine) Mix(ctx context.Context, containerID string) error {
	e.mu.Lock()

	eq := e.findLocked(containerID)
	if eq == nil {
		e.mu.Unlock()
		e.recordOp("mix", domain.ErrInvalidReference)
		return domain.ErrInvalidReference
	}
	if e.inflight[containerID] {
		e.mu.Unlock()
		e.recordOp("mix", domain.ErrMixInFlight)
		return domain.ErrMixInFlight
	}
	if len(eq.Solutions) < 2 {
		e.mu.Unlock()
		e.recordOp("mix", domain.ErrMixNothingToDo)
		return domain.ErrMixNothingToDo
	}
	if e.Predictor == nil {
		e.mu.Unlock()
		e.recordOp("mix", domain.ErrAssistUnavailable)
		return domain.ErrAssistUnavailable
	}

	inputs := make([]domain.Solution, len(eq.Solutions))
	copy(inputs, eq.Solutions)
	generation := e.generation
	e.inflight[containerID] = true
	e.mu.Unlock()

	callCtx, cancel := context.WithTimeout(ctx, e.MixTimeout)
	prediction, predErr := e.Predictor.PredictReaction(callCtx, inputs)
	cancel()

	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.inflight, containerID)

	if e.generation != generation {
		e.logger.Infow("discarding mix result after reset", "equipment", containerID)
		e.recordOp("mix", domain.ErrMixResultDiscarded)
		return domain.ErrMixResultDiscarded
	}
	eq = e.findLocked(containerID)
	if eq == nil || !solutionsEqual(eq.Solutions, inputs) {
		e.logger.Infow("discarding mix result, container changed", "equipment", containerID)
		e.recordOp("mix", domain.ErrMixResultDiscarded)
		return domain.ErrMixResultDiscarded
	}

	if predErr != nil {
		e.appendLogLocked(fmt.Sprintf("Reaction prediction for %s failed; contents unchanged.", eq.Name), false)
		if e.Metrics != nil {
			e.Metrics.AssistFailures.Inc()
		}
		e.recordOp("mix", predErr)
		return domain.WrapEngineError(domain.ErrPredictionFailed.Code, "mix", predErr)
	}

	if !assist.ConservesVolume(inputs, prediction.Products, e.Algebra.MinVolumeML) {
		e.appendLogLocked(fmt.Sprintf("Reaction prediction for %s was inconsistent; contents unchanged.", eq.Name), false)
		if e.Metrics != nil {
			e.Metrics.AssistFailures.Inc()
		}
		e.recordOp("mix", domain.ErrPredictionInvalid)
		return domain.ErrPredictionInvalid
	}

	eq.Solutions = make([]domain.Solution, len(prediction.Products))
	copy(eq.Solutions, prediction.Products)
	eq.Effects = &domain.ReactionEffects{
		Equation:          prediction.Equation,
		Description:       prediction.Description,
		TemperatureChange: prediction.TemperatureChange,
		GasProduced:       prediction.GasProduced,
		PrecipitateFormed: prediction.PrecipitateFormed,
		IsExplosive:       prediction.IsExplosive,
	}
	e.recomputeLocked(eq)

	text := fmt.Sprintf("Mixed contents of %s: %s", eq.Name, prediction.Description)
	if prediction.Equation != "" {
		text += " (" + prediction.Equation + ")"
	}
	e.appendLogLocked(text, false)
	e.recordOp("mix", nil)
	return nil
}

// MixPending reports whether a prediction is in flight for the container.
func (e *Engine) MixPending(containerID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.inflight[containerID]
}

func solutionsEqual(a, b []domain.Solution) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Chemical.ID != b[i].Chemical.ID {
			return false
		}
		if math.Abs(a[i].VolumeML-b[i].VolumeML) > 1e-9 {
			return false
		}
	}
	return true
}
