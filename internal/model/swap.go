package model

import (
	"fmt"

	"github.com/google/uuid"
)

// Чистая логика обмена: функции ниже не ходят в базу, а только проверяют
// предусловия и мутируют переданные записи. Загрузка, блокировки и коммит —
// забота сервиса, который вызывает их внутри одной транзакции.

// ProposeSwap проверяет предусловия предложения обмена и при успехе переводит
// оба слота в SWAP_PENDING, возвращая новую заявку в статусе PENDING.
// При любой ошибке слоты остаются нетронутыми.
func ProposeSwap(mySlot, theirSlot *Slot, requesterID uuid.UUID) (*SwapRequest, error) {
	if !mySlot.IsOwnedBy(requesterID) {
		return nil, fmt.Errorf("%w: slot does not belong to requester", ErrForbidden)
	}
	if theirSlot.IsOwnedBy(requesterID) {
		return nil, fmt.Errorf("%w: cannot swap with yourself", ErrInvalidOperation)
	}
	if mySlot.Status != SlotStatusSwappable || theirSlot.Status != SlotStatusSwappable {
		return nil, fmt.Errorf("%w: slot is not swappable", ErrConflict)
	}

	mySlot.Status = SlotStatusSwapPending
	theirSlot.Status = SlotStatusSwapPending

	return &SwapRequest{
		RequesterID: requesterID,
		ResponderID: theirSlot.OwnerID,
		MySlotID:    mySlot.ID,
		TheirSlotID: theirSlot.ID,
		Status:      SwapStatusPending,
	}, nil
}

// ResolveSwap применяет ответ респондента к заявке и паре слотов.
// accept=false: заявка REJECTED, оба слота возвращаются в SWAPPABLE.
// accept=true: владельцы слотов меняются местами, оба слота становятся BUSY,
// заявка ACCEPTED. Обработанная заявка терминальна — повторный вызов даёт
// Conflict без каких-либо изменений.
func ResolveSwap(req *SwapRequest, mySlot, theirSlot *Slot, responderID uuid.UUID, accept bool) error {
	if req.ResponderID != responderID {
		return fmt.Errorf("%w: only the responder can answer this request", ErrForbidden)
	}
	if !req.IsPending() {
		return fmt.Errorf("%w: request already handled", ErrConflict)
	}

	if !accept {
		req.Status = SwapStatusRejected
		mySlot.Status = SlotStatusSwappable
		theirSlot.Status = SlotStatusSwappable
		return nil
	}

	mySlot.OwnerID, theirSlot.OwnerID = theirSlot.OwnerID, mySlot.OwnerID
	mySlot.Status = SlotStatusBusy
	theirSlot.Status = SlotStatusBusy
	req.Status = SwapStatusAccepted
	return nil
}
