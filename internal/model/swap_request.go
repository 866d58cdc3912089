package model

import (
	"time"

	"github.com/google/uuid"
)

type SwapStatus string

const (
	SwapStatusPending  SwapStatus = "PENDING"
	SwapStatusAccepted SwapStatus = "ACCEPTED"
	SwapStatusRejected SwapStatus = "REJECTED"
)

type SwapRequest struct {
	ID          uuid.UUID  `json:"id"`
	RequesterID uuid.UUID  `json:"requester_id"`
	ResponderID uuid.UUID  `json:"responder_id"`
	MySlotID    uuid.UUID  `json:"my_slot_id"`
	TheirSlotID uuid.UUID  `json:"their_slot_id"`
	Status      SwapStatus `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	// Дополнительные поля для отображения (не из таблицы swap_requests)
	Requester *User `json:"requester,omitempty"`
	Responder *User `json:"responder,omitempty"`
	MySlot    *Slot `json:"my_slot,omitempty"`
	TheirSlot *Slot `json:"their_slot,omitempty"`
}

// IsPending показывает что заявка ещё не обработана
func (r *SwapRequest) IsPending() bool {
	return r.Status == SwapStatusPending
}
