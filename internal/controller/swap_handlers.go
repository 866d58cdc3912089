package controller

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/slotswap/slotswap_api/internal/model"
)

func (h *Handlers) listSwappableSlots(w http.ResponseWriter, r *http.Request) {
	slots, err := h.swapService.ListSwappable(r.Context(), callerID(r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	if slots == nil {
		slots = []*model.Slot{}
	}
	writeJSON(w, http.StatusOK, slots)
}

func (h *Handlers) listMySwapRequests(w http.ResponseWriter, r *http.Request) {
	inbox, err := h.swapService.ListMyRequests(r.Context(), callerID(r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	if inbox.Incoming == nil {
		inbox.Incoming = []*model.SwapRequest{}
	}
	if inbox.Outgoing == nil {
		inbox.Outgoing = []*model.SwapRequest{}
	}
	writeJSON(w, http.StatusOK, inbox)
}

type proposeSwapRequest struct {
	MySlotID    uuid.UUID `json:"my_slot_id"`
	TheirSlotID uuid.UUID `json:"their_slot_id"`
}

func (h *Handlers) proposeSwap(w http.ResponseWriter, r *http.Request) {
	var req proposeSwapRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, fmt.Errorf("%w: invalid request body", model.ErrInvalidOperation))
		return
	}
	if req.MySlotID == uuid.Nil || req.TheirSlotID == uuid.Nil {
		h.writeError(w, fmt.Errorf("%w: my_slot_id and their_slot_id are required", model.ErrInvalidOperation))
		return
	}

	swap, err := h.swapService.Propose(r.Context(), callerID(r), req.MySlotID, req.TheirSlotID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, swap)
}

type respondSwapRequest struct {
	Accept bool `json:"accept"`
}

func (h *Handlers) respondSwap(w http.ResponseWriter, r *http.Request) {
	requestID, err := pathID(r, "requestId")
	if err != nil {
		h.writeError(w, err)
		return
	}

	var req respondSwapRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, fmt.Errorf("%w: invalid request body", model.ErrInvalidOperation))
		return
	}

	swap, err := h.swapService.Respond(r.Context(), callerID(r), requestID, req.Accept)
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, swap)
}
