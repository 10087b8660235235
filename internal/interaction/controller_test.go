package interaction

import (
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/anthropics/chemlab-engine/internal/domain"
	"github.com/anthropics/chemlab-engine/internal/guard"
	"github.com/anthropics/chemlab-engine/internal/workbench"
)

func newTestController(t *testing.T) (*Controller, *workbench.Engine) {
	t.Helper()
	logger := zap.NewNop().Sugar()
	e := workbench.NewEngine(guard.NewGate(true, guard.GateConfig{}), logger)
	return NewController(e, logger), e
}

func addBeaker(t *testing.T, e *workbench.Engine) domain.Equipment {
	t.Helper()
	eq, err := e.AddEquipment("beaker-250")
	if err != nil {
		t.Fatalf("AddEquipment: %v", err)
	}
	return eq
}

func hasNotice(e *workbench.Engine, substr string) bool {
	for _, entry := range e.Logs() {
		if strings.Contains(entry.Text, substr) {
			return true
		}
	}
	return false
}

func TestPickUpChemicalAndClick(t *testing.T) {
	c, e := newTestController(t)
	beaker := addBeaker(t, e)

	if err := c.PickUpChemical("hcl-0.1m", 50); err != nil {
		t.Fatalf("PickUpChemical: %v", err)
	}
	if got := c.Mode().Kind(); got != KindHoldingChemical {
		t.Fatalf("mode = %v, want holding_chemical", got)
	}

	if err := c.ClickContainer(beaker.ID); err != nil {
		t.Fatalf("ClickContainer: %v", err)
	}
	if got := c.Mode().Kind(); got != KindIdle {
		t.Errorf("mode after deposit = %v, want idle", got)
	}

	eq, _ := e.Equipment(beaker.ID)
	if eq.TotalVolumeML() != 50 {
		t.Errorf("beaker volume = %v, want 50", eq.TotalVolumeML())
	}
}

func TestPickUpChemical_Validation(t *testing.T) {
	c, _ := newTestController(t)

	if err := c.PickUpChemical("unobtainium", 10); err != domain.ErrInvalidReference {
		t.Errorf("unknown chemical = %v, want ErrInvalidReference", err)
	}
	if err := c.PickUpChemical("hcl-0.1m", 0); err != domain.ErrPreconditionFailed {
		t.Errorf("zero volume = %v, want ErrPreconditionFailed", err)
	}
	if c.Mode().Active() {
		t.Error("mode changed by rejected pickup")
	}
}

func TestInvalidTargetKeepsChemicalHeld(t *testing.T) {
	c, e := newTestController(t)
	stand, err := e.AddEquipment("retort-stand")
	if err != nil {
		t.Fatalf("AddEquipment: %v", err)
	}

	if err := c.PickUpChemical("naoh-0.1m", 25); err != nil {
		t.Fatalf("PickUpChemical: %v", err)
	}
	if err := c.ClickContainer(stand.ID); err != domain.ErrNotAContainer {
		t.Fatalf("click on stand = %v, want ErrNotAContainer", err)
	}
	if got := c.Mode().Kind(); got != KindHoldingChemical {
		t.Errorf("mode = %v, want chemical still held", got)
	}
	if !hasNotice(e, "not a valid container") {
		t.Error("expected a notice about the invalid target")
	}
}

func TestPickUpClearsPriorModeWithNotice(t *testing.T) {
	c, e := newTestController(t)

	if err := c.PickUpChemical("hcl-0.1m", 10); err != nil {
		t.Fatalf("first pickup: %v", err)
	}
	if err := c.PickUpChemical("naoh-0.1m", 10); err != nil {
		t.Fatalf("second pickup: %v", err)
	}

	id, _, _ := c.Mode().Chemical()
	if id != "naoh-0.1m" {
		t.Errorf("held chemical = %q, want naoh-0.1m", id)
	}
	if !hasNotice(e, "Action canceled.") {
		t.Error("expected the first pickup to be canceled with a notice")
	}
}

func TestPourGesture(t *testing.T) {
	c, e := newTestController(t)
	src := addBeaker(t, e)
	dst, err := e.AddEquipment("erlenmeyer-250")
	if err != nil {
		t.Fatalf("AddEquipment: %v", err)
	}
	if err := e.AddChemical(src.ID, "water", 100); err != nil {
		t.Fatalf("AddChemical: %v", err)
	}

	if err := c.PickUpEquipment(src.ID); err != nil {
		t.Fatalf("PickUpEquipment: %v", err)
	}
	if err := c.ClickContainer(dst.ID); err != nil {
		t.Fatalf("ClickContainer: %v", err)
	}
	if got := c.Mode().Kind(); got != KindPouring {
		t.Fatalf("mode = %v, want pouring", got)
	}

	if err := c.ConfirmPour(40); err != nil {
		t.Fatalf("ConfirmPour: %v", err)
	}
	if c.Mode().Active() {
		t.Error("mode not idle after confirmed pour")
	}

	srcEq, _ := e.Equipment(src.ID)
	dstEq, _ := e.Equipment(dst.ID)
	if srcEq.TotalVolumeML() != 60 || dstEq.TotalVolumeML() != 40 {
		t.Errorf("volumes = %v / %v, want 60 / 40", srcEq.TotalVolumeML(), dstEq.TotalVolumeML())
	}
}

func TestPickUpEmptyEquipmentIsNoOp(t *testing.T) {
	c, e := newTestController(t)
	beaker := addBeaker(t, e)

	if err := c.PickUpEquipment(beaker.ID); err != nil {
		t.Fatalf("PickUpEquipment: %v", err)
	}
	if c.Mode().Active() {
		t.Error("picking up an empty container should leave the machine idle")
	}
}

func TestClickSameContainerWhileHoldingIsNoOp(t *testing.T) {
	c, e := newTestController(t)
	src := addBeaker(t, e)
	if err := e.AddChemical(src.ID, "water", 30); err != nil {
		t.Fatalf("AddChemical: %v", err)
	}
	if err := c.PickUpEquipment(src.ID); err != nil {
		t.Fatalf("PickUpEquipment: %v", err)
	}
	if err := c.ClickContainer(src.ID); err != nil {
		t.Fatalf("ClickContainer: %v", err)
	}
	if got := c.Mode().Kind(); got != KindHoldingEquipment {
		t.Errorf("mode = %v, want still holding", got)
	}
}

func TestCancelPourLeavesContainersUntouched(t *testing.T) {
	c, e := newTestController(t)
	src := addBeaker(t, e)
	dst, err := e.AddEquipment("erlenmeyer-250")
	if err != nil {
		t.Fatalf("AddEquipment: %v", err)
	}
	if err := e.AddChemical(src.ID, "water", 100); err != nil {
		t.Fatalf("AddChemical: %v", err)
	}
	if err := c.PickUpEquipment(src.ID); err != nil {
		t.Fatalf("PickUpEquipment: %v", err)
	}
	if err := c.ClickContainer(dst.ID); err != nil {
		t.Fatalf("ClickContainer: %v", err)
	}

	if err := c.CancelPour(); err != nil {
		t.Fatalf("CancelPour: %v", err)
	}
	if c.Mode().Active() {
		t.Error("mode not idle after cancel")
	}

	srcEq, _ := e.Equipment(src.ID)
	dstEq, _ := e.Equipment(dst.ID)
	if srcEq.TotalVolumeML() != 100 || dstEq.TotalVolumeML() != 0 {
		t.Error("cancel must not move any volume")
	}
}

func TestConfirmPourOutsidePouringMode(t *testing.T) {
	c, _ := newTestController(t)
	if err := c.ConfirmPour(10); err != domain.ErrPreconditionFailed {
		t.Errorf("ConfirmPour in idle = %v, want ErrPreconditionFailed", err)
	}
	if err := c.CancelPour(); err != domain.ErrPreconditionFailed {
		t.Errorf("CancelPour in idle = %v, want ErrPreconditionFailed", err)
	}
}

func TestAttachGesture(t *testing.T) {
	c, e := newTestController(t)
	stand, err := e.AddEquipment("retort-stand")
	if err != nil {
		t.Fatalf("AddEquipment: %v", err)
	}
	clamp, err := e.AddEquipment("burette-clamp")
	if err != nil {
		t.Fatalf("AddEquipment: %v", err)
	}

	if err := c.BeginAttach(clamp.ID); err != nil {
		t.Fatalf("BeginAttach: %v", err)
	}
	if got := c.Mode().Kind(); got != KindAttaching {
		t.Fatalf("mode = %v, want attaching", got)
	}

	if err := c.ClickContainer(stand.ID); err != nil {
		t.Fatalf("attach click: %v", err)
	}
	if c.Mode().Active() {
		t.Error("mode not idle after attach")
	}

	got, _ := e.Equipment(clamp.ID)
	if got.AttachedTo != stand.ID {
		t.Errorf("AttachedTo = %q, want %q", got.AttachedTo, stand.ID)
	}
}

func TestCancelIsIdempotent(t *testing.T) {
	c, e := newTestController(t)

	c.Cancel()
	c.Cancel()
	if len(e.Logs()) != 0 {
		t.Error("canceling from idle must not log")
	}

	if err := c.PickUpChemical("hcl-0.1m", 10); err != nil {
		t.Fatalf("PickUpChemical: %v", err)
	}
	c.Cancel()
	if c.Mode().Active() {
		t.Error("mode not idle after cancel")
	}
	if !hasNotice(e, "Action canceled.") {
		t.Error("expected a cancellation notice")
	}

	before := len(e.Logs())
	c.Cancel()
	if len(e.Logs()) != before {
		t.Error("second cancel must not log again")
	}
}

func TestResetClearsMode(t *testing.T) {
	c, e := newTestController(t)
	beaker := addBeaker(t, e)
	if err := e.AddChemical(beaker.ID, "water", 10); err != nil {
		t.Fatalf("AddChemical: %v", err)
	}
	if err := c.PickUpEquipment(beaker.ID); err != nil {
		t.Fatalf("PickUpEquipment: %v", err)
	}

	c.Reset()

	if c.Mode().Active() {
		t.Error("mode not idle after reset")
	}
	state := e.Snapshot()
	if len(state.Equipment) != 0 || len(e.Logs()) != 0 {
		t.Error("reset must clear equipment and logs")
	}
}
