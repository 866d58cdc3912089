package controller

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/slotswap/slotswap_api/internal/model"
	"github.com/slotswap/slotswap_api/internal/service"
)

type slotRequest struct {
	Title     string            `json:"title"`
	StartTime *time.Time        `json:"start_time"`
	EndTime   *time.Time        `json:"end_time"`
	Status    *model.SlotStatus `json:"status"`
}

func pathID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid %s", model.ErrInvalidOperation, name)
	}
	return id, nil
}

func (h *Handlers) listMySlots(w http.ResponseWriter, r *http.Request) {
	slots, err := h.slotService.ListMine(r.Context(), callerID(r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	if slots == nil {
		slots = []*model.Slot{}
	}
	writeJSON(w, http.StatusOK, slots)
}

func (h *Handlers) createSlot(w http.ResponseWriter, r *http.Request) {
	var req slotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, fmt.Errorf("%w: invalid request body", model.ErrInvalidOperation))
		return
	}

	var start, end time.Time
	if req.StartTime != nil {
		start = *req.StartTime
	}
	if req.EndTime != nil {
		end = *req.EndTime
	}
	var status model.SlotStatus
	if req.Status != nil {
		status = *req.Status
	}

	slot, err := h.slotService.Create(r.Context(), callerID(r), req.Title, start, end, status)
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, slot)
}

func (h *Handlers) updateSlot(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, err)
		return
	}

	var req slotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, fmt.Errorf("%w: invalid request body", model.ErrInvalidOperation))
		return
	}

	changes := service.SlotChanges{
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Status:    req.Status,
	}
	if req.Title != "" {
		changes.Title = &req.Title
	}

	slot, err := h.slotService.Update(r.Context(), id, callerID(r), changes)
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, slot)
}

func (h *Handlers) deleteSlot(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, err)
		return
	}

	if err := h.slotService.Delete(r.Context(), id, callerID(r)); err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Slot deleted successfully"})
}
