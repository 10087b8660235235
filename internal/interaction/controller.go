package interaction

import (
	"sync"

	"go.uber.org/zap"

	"github.com/anthropics/chemlab-engine/internal/catalog"
	"github.com/anthropics/chemlab-engine/internal/domain"
	"github.com/anthropics/chemlab-engine/internal/workbench"
)

// Controller drives workbench transitions from pointer events. It owns the
// single active Mode; the engine owns all chemistry state.
type Controller struct {
	mu     sync.Mutex
	engine *workbench.Engine
	logger *zap.SugaredLogger
	mode   Mode
}

func NewController(engine *workbench.Engine, logger *zap.SugaredLogger) *Controller {
	return &Controller{
		engine: engine,
		logger: logger,
		mode:   Idle(),
	}
}

// Mode returns the currently active interaction mode.
func (c *Controller) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// PickUpChemical picks a chemical from the inventory, entering
// HoldingChemical. Any prior mode is canceled first with a log notice.
func (c *Controller) PickUpChemical(chemicalID string, volumeML float64) error {
	chem, ok := catalog.ChemicalTemplate(chemicalID)
	if !ok {
		return domain.ErrInvalidReference
	}
	if volumeML <= 0 {
		return domain.ErrPreconditionFailed
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.clearLocked()
	c.setLocked(HoldingChemical(chem.ID, volumeML))
	return nil
}

// PickUpEquipment picks up a container for pouring. Picking up an empty
// container is a no-op: there is nothing to pour.
func (c *Controller) PickUpEquipment(id string) error {
	eq, ok := c.engine.Equipment(id)
	if !ok {
		return domain.ErrInvalidReference
	}
	if !eq.IsContainer() {
		return domain.ErrNotAContainer
	}
	if len(eq.Solutions) == 0 {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.clearLocked()
	c.setLocked(HoldingEquipment(eq.ID))
	return nil
}

// BeginAttach starts an attachment gesture from the given equipment,
// entering Attaching. Any prior mode is canceled first with a log notice.
func (c *Controller) BeginAttach(sourceID string) error {
	if _, ok := c.engine.Equipment(sourceID); !ok {
		return domain.ErrInvalidReference
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.clearLocked()
	c.setLocked(Attaching(sourceID))
	return nil
}

// ClickContainer interprets a click on a piece of equipment according to the
// active mode. In idle it does nothing; mid-pour the click is ignored until
// the volume is confirmed or canceled.
func (c *Controller) ClickContainer(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.mode.kind {
	case KindHoldingChemical:
		// An invalid target keeps the chemical in hand.
		err := c.engine.AddChemical(id, c.mode.chemicalID, c.mode.volumeML)
		if err != nil {
			if err == domain.ErrInvalidReference || err == domain.ErrNotAContainer {
				c.engine.Notice("That is not a valid container for the held chemical.")
			}
			return err
		}
		c.setLocked(Idle())
		return nil

	case KindHoldingEquipment:
		if id == c.mode.sourceID {
			return nil
		}
		eq, ok := c.engine.Equipment(id)
		if !ok {
			return domain.ErrInvalidReference
		}
		if !eq.IsContainer() {
			return domain.ErrNotAContainer
		}
		c.setLocked(Pouring(c.mode.sourceID, eq.ID))
		return nil

	case KindAttaching:
		source := c.mode.sourceID
		c.setLocked(Idle())
		return c.engine.Attach(source, id)

	default:
		return nil
	}
}

// ConfirmPour completes a pending pour with the chosen volume and returns
// the machine to idle.
func (c *Controller) ConfirmPour(volumeML float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.mode.kind != KindPouring {
		return domain.ErrPreconditionFailed
	}
	source, target := c.mode.sourceID, c.mode.targetID
	c.setLocked(Idle())
	return c.engine.Pour(source, target, volumeML)
}

// CancelPour abandons a pending pour without touching any container.
func (c *Controller) CancelPour() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.mode.kind != KindPouring {
		return domain.ErrPreconditionFailed
	}
	c.setLocked(Idle())
	return nil
}

// Cancel returns the machine to idle from any mode. It is safe to invoke
// repeatedly; the notice is logged only when a mode was actually active.
func (c *Controller) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clearLocked()
}

// Reset clears the whole experiment and the interaction mode together.
func (c *Controller) Reset() {
	c.mu.Lock()
	c.mode = Idle()
	c.mu.Unlock()
	c.engine.Reset()
}

func (c *Controller) clearLocked() {
	if !c.mode.Active() {
		return
	}
	c.engine.Notice("Action canceled.")
	c.mode = Idle()
}

func (c *Controller) setLocked(m Mode) {
	if !canEnter(c.mode.kind, m.kind) && c.mode.kind != m.kind {
		c.logger.Warnw("unexpected interaction transition",
			"from", c.mode.kind.String(),
			"to", m.kind.String(),
		)
	}
	c.mode = m
}
