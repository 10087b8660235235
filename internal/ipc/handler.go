// Package ipc provides the HTTP API for the lab engine. The surface is
// consumed by a local desktop UI, so responses are plain JSON and the lab
// log is additionally exposed as an SSE stream.
package ipc

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/anthropics/chemlab-engine/internal/assist"
	"github.com/anthropics/chemlab-engine/internal/catalog"
	"github.com/anthropics/chemlab-engine/internal/domain"
	"github.com/anthropics/chemlab-engine/internal/guard"
	"github.com/anthropics/chemlab-engine/internal/interaction"
	"github.com/anthropics/chemlab-engine/internal/workbench"
)

// Handler holds all dependencies for the HTTP handlers.
type Handler struct {
	Engine     *workbench.Engine
	Controller *interaction.Controller
	Gate       *guard.Gate
	Searcher   assist.Searcher // optional; local catalog search when nil
	Advisor    assist.Advisor  // optional
}

// AddEquipmentRequest is the body for POST /api/v1/equipment.
type AddEquipmentRequest struct {
	TemplateID string `json:"template_id"`
}

// AddChemicalRequest is the body for POST /api/v1/equipment/{id}/chemical.
type AddChemicalRequest struct {
	ChemicalID string  `json:"chemical_id"`
	VolumeML   float64 `json:"volume_ml"`
}

// PourRequest is the body for POST /api/v1/pour.
type PourRequest struct {
	SourceID string  `json:"source_id"`
	TargetID string  `json:"target_id"`
	VolumeML float64 `json:"volume_ml"`
}

// TitrateRequest is the body for POST /api/v1/titrate.
type TitrateRequest struct {
	DeltaML float64 `json:"delta_ml"`
}

// AttachRequest is the body for POST /api/v1/attach.
type AttachRequest struct {
	SourceID string `json:"source_id"`
	TargetID string `json:"target_id"`
}

// ResizeRequest is the body for POST /api/v1/equipment/{id}/resize.
type ResizeRequest struct {
	Size float64 `json:"size"`
}

// MoveRequest is the body for POST /api/v1/equipment/{id}/move.
type MoveRequest struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// AnnotateRequest is the body for POST /api/v1/logs.
type AnnotateRequest struct {
	Text string `json:"text"`
}

// SafetyRequest is the body for POST /api/v1/safety.
type SafetyRequest struct {
	Enabled bool `json:"enabled"`
}

// SuggestRequest is the body for POST /api/v1/suggest.
type SuggestRequest struct {
	History []string `json:"history"`
}

// InteractionRequest covers the interaction-gesture endpoints.
type InteractionRequest struct {
	ChemicalID  string  `json:"chemical_id,omitempty"`
	EquipmentID string  `json:"equipment_id,omitempty"`
	VolumeML    float64 `json:"volume_ml,omitempty"`
}

// ModeView is the JSON shape of the active interaction mode.
type ModeView struct {
	Mode       string  `json:"mode"`
	ChemicalID string  `json:"chemical_id,omitempty"`
	VolumeML   float64 `json:"volume_ml,omitempty"`
	SourceID   string  `json:"source_id,omitempty"`
	TargetID   string  `json:"target_id,omitempty"`
}

// APIError is a structured error response.
type APIError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Health handles GET /api/v1/health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetState handles GET /api/v1/state.
func (h *Handler) GetState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Engine.Snapshot())
}

// AddEquipment handles POST /api/v1/equipment.
func (h *Handler) AddEquipment(w http.ResponseWriter, r *http.Request) {
	var req AddEquipmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, APIError{Code: 400, Message: "invalid request body"})
		return
	}
	if req.TemplateID == "" {
		writeJSON(w, http.StatusBadRequest, APIError{Code: 400, Message: "template_id is required"})
		return
	}

	eq, err := h.Engine.AddEquipment(req.TemplateID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, eq)
}

// RemoveEquipment handles DELETE /api/v1/equipment/{id}.
func (h *Handler) RemoveEquipment(w http.ResponseWriter, r *http.Request) {
	if err := h.Engine.RemoveEquipment(r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddChemical handles POST /api/v1/equipment/{id}/chemical.
func (h *Handler) AddChemical(w http.ResponseWriter, r *http.Request) {
	var req AddChemicalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, APIError{Code: 400, Message: "invalid request body"})
		return
	}
	if req.ChemicalID == "" {
		writeJSON(w, http.StatusBadRequest, APIError{Code: 400, Message: "chemical_id is required"})
		return
	}

	if err := h.Engine.AddChemical(r.PathValue("id"), req.ChemicalID, req.VolumeML); err != nil {
		writeError(w, err)
		return
	}
	writeEquipment(w, h.Engine, r.PathValue("id"))
}

// Mix handles POST /api/v1/equipment/{id}/mix.
func (h *Handler) Mix(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.Engine.Mix(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	writeEquipment(w, h.Engine, id)
}

// Resize handles POST /api/v1/equipment/{id}/resize.
func (h *Handler) Resize(w http.ResponseWriter, r *http.Request) {
	var req ResizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, APIError{Code: 400, Message: "invalid request body"})
		return
	}
	if err := h.Engine.Resize(r.PathValue("id"), req.Size); err != nil {
		writeError(w, err)
		return
	}
	writeEquipment(w, h.Engine, r.PathValue("id"))
}

// Move handles POST /api/v1/equipment/{id}/move.
func (h *Handler) Move(w http.ResponseWriter, r *http.Request) {
	var req MoveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, APIError{Code: 400, Message: "invalid request body"})
		return
	}
	if err := h.Engine.Move(r.PathValue("id"), domain.Position{X: req.X, Y: req.Y}); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Select handles POST /api/v1/equipment/{id}/select.
func (h *Handler) Select(w http.ResponseWriter, r *http.Request) {
	if err := h.Engine.Select(r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Detach handles POST /api/v1/equipment/{id}/detach.
func (h *Handler) Detach(w http.ResponseWriter, r *http.Request) {
	if err := h.Engine.Detach(r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetAssembly handles GET /api/v1/equipment/{id}/assembly.
func (h *Handler) GetAssembly(w http.ResponseWriter, r *http.Request) {
	assembly, err := h.Engine.AssemblyOf(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	if assembly == nil {
		assembly = []domain.Equipment{}
	}
	writeJSON(w, http.StatusOK, assembly)
}

// Pour handles POST /api/v1/pour.
func (h *Handler) Pour(w http.ResponseWriter, r *http.Request) {
	var req PourRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, APIError{Code: 400, Message: "invalid request body"})
		return
	}
	if err := h.Engine.Pour(req.SourceID, req.TargetID, req.VolumeML); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.Engine.Snapshot())
}

// Titrate handles POST /api/v1/titrate.
func (h *Handler) Titrate(w http.ResponseWriter, r *http.Request) {
	var req TitrateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, APIError{Code: 400, Message: "invalid request body"})
		return
	}
	if err := h.Engine.Titrate(req.DeltaML); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.Engine.Snapshot())
}

// Attach handles POST /api/v1/attach.
func (h *Handler) Attach(w http.ResponseWriter, r *http.Request) {
	var req AttachRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, APIError{Code: 400, Message: "invalid request body"})
		return
	}
	if err := h.Engine.Attach(req.SourceID, req.TargetID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Reset handles POST /api/v1/reset. The interaction mode is cleared with
// the experiment when a controller is wired.
func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	if h.Controller != nil {
		h.Controller.Reset()
	} else {
		h.Engine.Reset()
	}
	w.WriteHeader(http.StatusNoContent)
}

// Annotate handles POST /api/v1/logs.
func (h *Handler) Annotate(w http.ResponseWriter, r *http.Request) {
	var req AnnotateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, APIError{Code: 400, Message: "invalid request body"})
		return
	}
	if req.Text == "" {
		writeJSON(w, http.StatusBadRequest, APIError{Code: 400, Message: "text is required"})
		return
	}
	h.Engine.Annotate(req.Text)
	w.WriteHeader(http.StatusCreated)
}

// ListLogs handles GET /api/v1/logs?since_seq=N.
func (h *Handler) ListLogs(w http.ResponseWriter, r *http.Request) {
	sinceSeq := int64(0)
	if s := r.URL.Query().Get("since_seq"); s != "" {
		parsed, err := strconv.ParseInt(s, 10, 64)
		if err == nil {
			sinceSeq = parsed
		}
	}

	entries := h.Engine.LogsSince(sinceSeq)
	if entries == nil {
		entries = []domain.LabLogEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// StreamLogs handles GET /api/v1/logs/stream (SSE).
func (h *Handler) StreamLogs(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, APIError{Code: 500, Message: "streaming not supported"})
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	// Send the existing log, then poll for new entries.
	lastSeq := int64(0)
	for _, entry := range h.Engine.LogsSince(0) {
		writeSSEEntry(w, flusher, entry)
		lastSeq = entry.Seq
	}

	ctx := r.Context()
	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, entry := range h.Engine.LogsSince(lastSeq) {
				writeSSEEntry(w, flusher, entry)
				lastSeq = entry.Seq
			}
		}
	}
}

// SearchCatalog handles GET /api/v1/catalog/search?q=...
func (h *Handler) SearchCatalog(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")

	var (
		records []domain.CatalogRecord
		err     error
	)
	if h.Searcher != nil {
		records, err = h.Searcher.SearchCatalog(r.Context(), query)
	} else {
		records = catalog.Search(query)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	if records == nil {
		records = []domain.CatalogRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

// Suggest handles POST /api/v1/suggest.
func (h *Handler) Suggest(w http.ResponseWriter, r *http.Request) {
	if h.Advisor == nil {
		writeError(w, domain.ErrAssistUnavailable)
		return
	}
	if err := h.Gate.CheckRate("suggest"); err != nil {
		writeError(w, err)
		return
	}

	var req SuggestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, APIError{Code: 400, Message: "invalid request body"})
		return
	}

	suggestion, err := h.Advisor.SuggestNextStep(r.Context(), h.Engine.Snapshot(), req.History)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, suggestion)
}

// SetSafety handles POST /api/v1/safety.
func (h *Handler) SetSafety(w http.ResponseWriter, r *http.Request) {
	var req SafetyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, APIError{Code: 400, Message: "invalid request body"})
		return
	}
	h.Gate.SetSafety(req.Enabled)
	writeJSON(w, http.StatusOK, map[string]bool{"enabled": h.Gate.SafetyEnabled()})
}

// PickUpChemical handles POST /api/v1/interaction/chemical.
func (h *Handler) PickUpChemical(w http.ResponseWriter, r *http.Request) {
	var req InteractionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, APIError{Code: 400, Message: "invalid request body"})
		return
	}
	if err := h.Controller.PickUpChemical(req.ChemicalID, req.VolumeML); err != nil {
		writeError(w, err)
		return
	}
	h.writeMode(w)
}

// PickUpEquipment handles POST /api/v1/interaction/equipment.
func (h *Handler) PickUpEquipment(w http.ResponseWriter, r *http.Request) {
	var req InteractionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, APIError{Code: 400, Message: "invalid request body"})
		return
	}
	if err := h.Controller.PickUpEquipment(req.EquipmentID); err != nil {
		writeError(w, err)
		return
	}
	h.writeMode(w)
}

// Click handles POST /api/v1/interaction/click.
func (h *Handler) Click(w http.ResponseWriter, r *http.Request) {
	var req InteractionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, APIError{Code: 400, Message: "invalid request body"})
		return
	}
	if err := h.Controller.ClickContainer(req.EquipmentID); err != nil {
		writeError(w, err)
		return
	}
	h.writeMode(w)
}

// BeginAttach handles POST /api/v1/interaction/attach.
func (h *Handler) BeginAttach(w http.ResponseWriter, r *http.Request) {
	var req InteractionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, APIError{Code: 400, Message: "invalid request body"})
		return
	}
	if err := h.Controller.BeginAttach(req.EquipmentID); err != nil {
		writeError(w, err)
		return
	}
	h.writeMode(w)
}

// ConfirmPour handles POST /api/v1/interaction/pour.
func (h *Handler) ConfirmPour(w http.ResponseWriter, r *http.Request) {
	var req InteractionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, APIError{Code: 400, Message: "invalid request body"})
		return
	}
	if err := h.Controller.ConfirmPour(req.VolumeML); err != nil {
		writeError(w, err)
		return
	}
	h.writeMode(w)
}

// CancelInteraction handles POST /api/v1/interaction/cancel.
func (h *Handler) CancelInteraction(w http.ResponseWriter, r *http.Request) {
	h.Controller.Cancel()
	h.writeMode(w)
}

// GetMode handles GET /api/v1/interaction.
func (h *Handler) GetMode(w http.ResponseWriter, r *http.Request) {
	h.writeMode(w)
}

func (h *Handler) writeMode(w http.ResponseWriter) {
	mode := h.Controller.Mode()
	view := ModeView{Mode: mode.Kind().String()}
	if id, vol, ok := mode.Chemical(); ok {
		view.ChemicalID = id
		view.VolumeML = vol
	}
	if id, ok := mode.Source(); ok {
		view.SourceID = id
	}
	if id, ok := mode.Target(); ok {
		view.TargetID = id
	}
	writeJSON(w, http.StatusOK, view)
}

func writeEquipment(w http.ResponseWriter, engine *workbench.Engine, id string) {
	eq, ok := engine.Equipment(id)
	if !ok {
		writeError(w, domain.ErrInvalidReference)
		return
	}
	writeJSON(w, http.StatusOK, eq)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	if engErr, ok := err.(*domain.EngineError); ok {
		status := http.StatusInternalServerError
		switch engErr.Code {
		case domain.ErrInvalidReference.Code:
			status = http.StatusNotFound
		case domain.ErrSingletonExists.Code, domain.ErrMixInFlight.Code, domain.ErrAlreadyAttached.Code:
			status = http.StatusConflict
		case domain.ErrSafetyDisabled.Code:
			status = http.StatusForbidden
		case domain.ErrRateLimitExceeded.Code:
			status = http.StatusTooManyRequests
		case domain.ErrAssistUnavailable.Code:
			status = http.StatusServiceUnavailable
		case domain.ErrPredictionTimeout.Code:
			status = http.StatusGatewayTimeout
		case domain.ErrCapacityExceeded.Code, domain.ErrSelfPour.Code, domain.ErrSelfAttach.Code,
			domain.ErrAttachmentCycle.Code, domain.ErrNotAContainer.Code, domain.ErrSourceEmpty.Code,
			domain.ErrMissingApparatus.Code, domain.ErrMixNothingToDo.Code, domain.ErrNotAttached.Code,
			domain.ErrPreconditionFailed.Code, domain.ErrMergeInvariant.Code:
			status = http.StatusUnprocessableEntity
		}
		writeJSON(w, status, APIError{Code: engErr.Code, Message: engErr.Message})
		return
	}
	writeJSON(w, http.StatusInternalServerError, APIError{Code: -1, Message: err.Error()})
}

func writeSSEEntry(w http.ResponseWriter, f http.Flusher, entry domain.LabLogEntry) {
	data, _ := json.Marshal(entry)
	fmt.Fprintf(w, "data: %s\n\n", data)
	f.Flush()
}
