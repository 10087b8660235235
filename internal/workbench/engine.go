// Package workbench implements the experiment state machine: the workbench
// aggregate of apparatus and solutions, and the transition operations that
// act on it.
//
// The Engine is the single owner of experiment state. All mutations are
// serialized behind a mutex and complete atomically; callers only ever see
// deep-copied snapshots. After every mutating operation the engine recomputes
// pH and color for each touched container and appends a human-readable entry
// to the append-only lab log.
package workbench

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/anthropics/chemlab-engine/internal/assist"
	"github.com/anthropics/chemlab-engine/internal/catalog"
	"github.com/anthropics/chemlab-engine/internal/chem"
	"github.com/anthropics/chemlab-engine/internal/domain"
	"github.com/anthropics/chemlab-engine/internal/guard"
	"github.com/anthropics/chemlab-engine/internal/metrics"
	"github.com/anthropics/chemlab-engine/internal/solution"
)

// Size bounds for the cosmetic equipment scale.
const (
	MinEquipmentSize = 0.5
	MaxEquipmentSize = 2.5
)

// DefaultMixTimeout bounds the reaction-prediction call.
const DefaultMixTimeout = 30 * time.Second

// LogSink receives lab log entries for best-effort persistence. Append and
// Clear failures are logged, never surfaced to the state machine.
type LogSink interface {
	Append(ctx context.Context, entry domain.LabLogEntry) error
	Clear(ctx context.Context) error
}

// Engine is the experiment state machine.
type Engine struct {
	Gate      *guard.Gate
	Predictor assist.Predictor // optional; Mix fails softly when nil
	Metrics   *metrics.Set     // optional
	Sink      LogSink          // optional
	Algebra   *solution.Algebra
	// MixTimeout bounds the external reaction-prediction call.
	MixTimeout time.Duration

	logger *zap.SugaredLogger

	mu         sync.Mutex
	equipment  []*domain.Equipment
	logs       []domain.LabLogEntry
	logSeq     int64
	generation int64
	inflight   map[string]bool
}

// NewEngine creates an empty workbench guarded by the given safety gate.
func NewEngine(gate *guard.Gate, logger *zap.SugaredLogger) *Engine {
	return &Engine{
		Gate:       gate,
		Algebra:    solution.NewAlgebra(),
		MixTimeout: DefaultMixTimeout,
		logger:     logger,
		inflight:   make(map[string]bool),
	}
}

// Snapshot returns a deep copy of the current experiment state.
func (e *Engine) Snapshot() domain.ExperimentState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

func (e *Engine) snapshotLocked() domain.ExperimentState {
	out := domain.ExperimentState{
		Equipment:  make([]domain.Equipment, 0, len(e.equipment)),
		Generation: e.generation,
	}
	for _, eq := range e.equipment {
		out.Equipment = append(out.Equipment, copyEquipment(eq))
	}
	return out
}

func copyEquipment(eq *domain.Equipment) domain.Equipment {
	c := *eq
	c.Solutions = make([]domain.Solution, len(eq.Solutions))
	copy(c.Solutions, eq.Solutions)
	if eq.PH != nil {
		ph := *eq.PH
		c.PH = &ph
	}
	if eq.Effects != nil {
		fx := *eq.Effects
		c.Effects = &fx
	}
	return c
}

// Equipment returns a copy of a single equipment record by id.
func (e *Engine) Equipment(id string) (domain.Equipment, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	eq := e.findLocked(id)
	if eq == nil {
		return domain.Equipment{}, false
	}
	return copyEquipment(eq), true
}

// Logs returns a copy of the lab log in append order.
func (e *Engine) Logs() []domain.LabLogEntry {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]domain.LabLogEntry, len(e.logs))
	copy(out, e.logs)
	return out
}

// LogsSince returns lab log entries with sequence numbers greater than seq.
func (e *Engine) LogsSince(seq int64) []domain.LabLogEntry {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []domain.LabLogEntry
	for _, entry := range e.logs {
		if entry.Seq > seq {
			out = append(out, entry)
		}
	}
	return out
}

// Annotate appends a user-authored note to the lab log.
func (e *Engine) Annotate(text string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.appendLogLocked(text, true)
}

// Notice appends a system notice to the lab log. Used by callers that sit
// on top of the engine (the interaction controller) to surface messages
// through the same channel the transitions log to.
func (e *Engine) Notice(text string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.appendLogLocked(text, false)
}

// Reset clears all equipment and the lab log and bumps the generation so any
// in-flight collaborator result is discarded on arrival. Already-committed
// transitions are never un-applied.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.equipment = nil
	e.logs = nil
	e.logSeq = 0
	e.generation++
	e.recordOp("reset", nil)

	if e.Sink != nil {
		if err := e.Sink.Clear(context.Background()); err != nil {
			e.logger.Warnw("failed to clear persisted lab log", "error", err)
		}
	}
	e.logger.Infow("experiment reset", "generation", e.generation)
}

// AddEquipment instantiates a new apparatus from a catalog template and
// places it on the workbench. A second burette is rejected softly: the
// titration workflow requires the burette to be unique.
func (e *Engine) AddEquipment(templateID string) (domain.Equipment, error) {
	tmpl, ok := catalog.EquipmentTemplate(templateID)
	if !ok {
		e.recordOp("add_equipment", domain.ErrInvalidReference)
		return domain.Equipment{}, domain.ErrInvalidReference
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if tmpl.Type == domain.EquipBurette {
		for _, eq := range e.equipment {
			if eq.Type == domain.EquipBurette {
				e.appendLogLocked(fmt.Sprintf("A burette is already on the workbench; %s was not added.", tmpl.Name), false)
				e.recordOp("add_equipment", domain.ErrSingletonExists)
				return domain.Equipment{}, domain.ErrSingletonExists
			}
		}
	}

	eq := &domain.Equipment{
		ID:         uuid.NewString(),
		TemplateID: tmpl.ID,
		Name:       tmpl.Name,
		Type:       tmpl.Type,
		CapacityML: tmpl.CapacityML,
		Color:      chem.ColorNone,
		Size:       1.0,
		Position:   domain.Position{X: 40 * float64(len(e.equipment)), Y: 0},
	}
	e.equipment = append(e.equipment, eq)

	e.appendLogLocked(fmt.Sprintf("Added %s to the workbench.", eq.Name), false)
	e.recordOp("add_equipment", nil)
	return copyEquipment(eq), nil
}

// RemoveEquipment removes an apparatus. Solutions it held are discarded, and
// anything attached to it is detached first.
func (e *Engine) RemoveEquipment(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	idx := e.indexOfLocked(id)
	if idx < 0 {
		e.recordOp("remove_equipment", domain.ErrInvalidReference)
		return domain.ErrInvalidReference
	}

	removed := e.equipment[idx]
	for _, eq := range e.equipment {
		if eq.AttachedTo == id {
			eq.AttachedTo = ""
		}
	}
	e.equipment = append(e.equipment[:idx], e.equipment[idx+1:]...)

	e.appendLogLocked(fmt.Sprintf("Removed %s from the workbench.", removed.Name), false)
	e.recordOp("remove_equipment", nil)
	return nil
}

// Resize clamps the cosmetic scale of an apparatus to [0.5, 2.5]. No
// chemistry effect.
func (e *Engine) Resize(id string, size float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	eq := e.findLocked(id)
	if eq == nil {
		e.recordOp("resize", domain.ErrInvalidReference)
		return domain.ErrInvalidReference
	}

	if size < MinEquipmentSize {
		size = MinEquipmentSize
	}
	if size > MaxEquipmentSize {
		size = MaxEquipmentSize
	}
	eq.Size = size
	e.recordOp("resize", nil)
	return nil
}

// Move updates an apparatus' workbench position. Cosmetic only, not logged.
func (e *Engine) Move(id string, pos domain.Position) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	eq := e.findLocked(id)
	if eq == nil {
		return domain.ErrInvalidReference
	}
	eq.Position = pos
	return nil
}

// Select marks one apparatus as selected and clears the flag on all others.
func (e *Engine) Select(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	target := e.findLocked(id)
	if target == nil {
		return domain.ErrInvalidReference
	}
	for _, eq := range e.equipment {
		eq.Selected = eq == target
	}
	return nil
}

// Attach links source under target (e.g. a burette into a clamp on a stand).
// An item has at most one parent, and cycles are rejected with a logged
// notice and no state change.
func (e *Engine) Attach(sourceID, targetID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	src := e.findLocked(sourceID)
	dst := e.findLocked(targetID)
	if src == nil || dst == nil {
		e.recordOp("attach", domain.ErrInvalidReference)
		return domain.ErrInvalidReference
	}
	if src == dst {
		e.recordOp("attach", domain.ErrSelfAttach)
		return domain.ErrSelfAttach
	}
	if src.AttachedTo != "" {
		e.recordOp("attach", domain.ErrAlreadyAttached)
		return domain.ErrAlreadyAttached
	}

	// Walk the target's parent chain; reaching the source means a cycle.
	for p := dst; p != nil && p.AttachedTo != ""; p = e.findLocked(p.AttachedTo) {
		if p.AttachedTo == src.ID {
			e.appendLogLocked(fmt.Sprintf("Cannot attach %s to %s: would form a loop.", src.Name, dst.Name), false)
			e.recordOp("attach", domain.ErrAttachmentCycle)
			return domain.ErrAttachmentCycle
		}
	}

	src.AttachedTo = dst.ID
	e.appendLogLocked(fmt.Sprintf("Attached %s to %s.", src.Name, dst.Name), false)
	e.recordOp("attach", nil)
	return nil
}

// Detach removes the parent link of an apparatus. No solutions move.
func (e *Engine) Detach(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	eq := e.findLocked(id)
	if eq == nil {
		e.recordOp("detach", domain.ErrInvalidReference)
		return domain.ErrInvalidReference
	}
	if eq.AttachedTo == "" {
		e.recordOp("detach", domain.ErrNotAttached)
		return domain.ErrNotAttached
	}

	parent := e.findLocked(eq.AttachedTo)
	eq.AttachedTo = ""
	parentName := "its mount"
	if parent != nil {
		parentName = parent.Name
	}
	e.appendLogLocked(fmt.Sprintf("Detached %s from %s.", eq.Name, parentName), false)
	e.recordOp("detach", nil)
	return nil
}

// AssemblyOf returns every apparatus connected to id through attachment
// links, in workbench order, including the item itself.
func (e *Engine) AssemblyOf(id string) ([]domain.Equipment, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.findLocked(id) == nil {
		return nil, domain.ErrInvalidReference
	}

	// Attachment links form a forest; collect the connected component by
	// iterating until the member set stops growing.
	members := map[string]bool{id: true}
	for changed := true; changed; {
		changed = false
		for _, eq := range e.equipment {
			if members[eq.ID] && eq.AttachedTo != "" && !members[eq.AttachedTo] {
				members[eq.AttachedTo] = true
				changed = true
			}
			if eq.AttachedTo != "" && members[eq.AttachedTo] && !members[eq.ID] {
				members[eq.ID] = true
				changed = true
			}
		}
	}

	var out []domain.Equipment
	for _, eq := range e.equipment {
		if members[eq.ID] {
			out = append(out, copyEquipment(eq))
		}
	}
	return out, nil
}

// ---- internal helpers ----

func (e *Engine) findLocked(id string) *domain.Equipment {
	for _, eq := range e.equipment {
		if eq.ID == id {
			return eq
		}
	}
	return nil
}

func (e *Engine) indexOfLocked(id string) int {
	for i, eq := range e.equipment {
		if eq.ID == id {
			return i
		}
	}
	return -1
}

// recomputeLocked re-derives pH and color for a container and logs any
// visible color change.
func (e *Engine) recomputeLocked(eq *domain.Equipment) {
	prevColor := eq.Color

	if len(eq.Solutions) == 0 {
		eq.PH = nil
		eq.Color = chem.ColorNone
	} else {
		ph := chem.ComputePH(eq.Solutions)
		eq.PH = &ph
		eq.Color = chem.MixtureColor(eq.Solutions, ph)
	}

	if err := e.Algebra.CheckMergeInvariant(eq); err != nil {
		// Internal invariant violation: degrade gracefully in production.
		e.logger.Errorw("merge invariant violated", "equipment", eq.ID)
	}

	if prevColor != "" && eq.Color != prevColor {
		e.appendLogLocked(fmt.Sprintf("%s turned %s.", eq.Name, eq.Color), false)
	}
}

// appendLogLocked appends one entry to the lab log and forwards it to the
// persistence sink best-effort.
func (e *Engine) appendLogLocked(text string, custom bool) {
	e.logSeq++
	entry := domain.LabLogEntry{
		ID:        uuid.NewString(),
		Seq:       e.logSeq,
		Text:      text,
		Custom:    custom,
		CreatedAt: time.Now().Unix(),
	}
	e.logs = append(e.logs, entry)

	if e.Metrics != nil {
		e.Metrics.LogEntries.Inc()
	}
	if e.Sink != nil {
		if err := e.Sink.Append(context.Background(), entry); err != nil {
			e.logger.Warnw("failed to persist lab log entry", "error", err)
		}
	}
}

func (e *Engine) recordOp(op string, err error) {
	if e.Metrics != nil {
		e.Metrics.RecordOp(op, err)
	}
}
