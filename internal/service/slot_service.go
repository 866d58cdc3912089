package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/slotswap/slotswap_api/internal/model"
	"github.com/slotswap/slotswap_api/internal/repository"
)

// SlotService — обычный CRUD слотов. Единственное его пересечение со
// state-машиной обмена: слот в SWAP_PENDING нельзя ни менять, ни удалять,
// из этого статуса слот выводит только координатор.
type SlotService struct {
	txm      repository.TxManager
	slotRepo repository.SlotRepository
	logger   *zap.Logger
}

func NewSlotService(txm repository.TxManager, slotRepo repository.SlotRepository, logger *zap.Logger) *SlotService {
	return &SlotService{
		txm:      txm,
		slotRepo: slotRepo,
		logger:   logger,
	}
}

// SlotChanges — частичное обновление слота. nil-поля не трогаем.
type SlotChanges struct {
	Title     *string
	StartTime *time.Time
	EndTime   *time.Time
	Status    *model.SlotStatus
}

// Create создаёт слот владельца. Статус по умолчанию BUSY;
// SWAP_PENDING от клиента не принимается никогда.
func (s *SlotService) Create(ctx context.Context, ownerID uuid.UUID, title string, start, end time.Time, status model.SlotStatus) (*model.Slot, error) {
	if title == "" || start.IsZero() || end.IsZero() {
		return nil, fmt.Errorf("%w: title, start_time and end_time are required", model.ErrInvalidOperation)
	}
	if status == "" {
		status = model.SlotStatusBusy
	}
	if status == model.SlotStatusSwapPending || !status.IsValid() {
		return nil, fmt.Errorf("%w: invalid slot status %q", model.ErrInvalidOperation, status)
	}

	slot := &model.Slot{
		OwnerID:   ownerID,
		Title:     title,
		StartTime: start,
		EndTime:   end,
		Status:    status,
	}

	if err := s.slotRepo.Create(ctx, slot); err != nil {
		return nil, err
	}

	s.logger.Info("Slot created",
		zap.String("slot_id", slot.ID.String()),
		zap.String("owner_id", ownerID.String()),
	)

	return slot, nil
}

// ListMine возвращает все слоты владельца по возрастанию start_time
func (s *SlotService) ListMine(ctx context.Context, ownerID uuid.UUID) ([]*model.Slot, error) {
	return s.slotRepo.GetByOwner(ctx, ownerID)
}

// Update применяет изменения к слоту владельца.
// Выполняется в транзакции с блокировкой строки, чтобы переключение
// статуса не могло затереть SWAP_PENDING, выставленный гонящимся Propose.
func (s *SlotService) Update(ctx context.Context, id, ownerID uuid.UUID, changes SlotChanges) (*model.Slot, error) {
	var updated *model.Slot

	err := s.txm.WithTx(ctx, func(ctx context.Context, r repository.TxRepositories) error {
		slot, err := r.Slots.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		// чужой слот не отличаем от несуществующего
		if slot == nil || !slot.IsOwnedBy(ownerID) {
			return fmt.Errorf("%w: slot not found", model.ErrNotFound)
		}
		if slot.Status == model.SlotStatusSwapPending {
			return fmt.Errorf("%w: slot is locked by a pending swap", model.ErrConflict)
		}

		if changes.Title != nil {
			slot.Title = *changes.Title
		}
		if changes.StartTime != nil {
			slot.StartTime = *changes.StartTime
		}
		if changes.EndTime != nil {
			slot.EndTime = *changes.EndTime
		}
		if changes.Status != nil {
			if *changes.Status == model.SlotStatusSwapPending || !changes.Status.IsValid() {
				return fmt.Errorf("%w: invalid slot status %q", model.ErrInvalidOperation, *changes.Status)
			}
			slot.Status = *changes.Status
		}

		if err := r.Slots.Update(ctx, slot); err != nil {
			return err
		}

		updated = slot
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Slot updated",
		zap.String("slot_id", id.String()),
		zap.String("owner_id", ownerID.String()),
		zap.String("status", string(updated.Status)),
	)

	return updated, nil
}

// Delete удаляет слот владельца. Слот с активной заявкой удалить нельзя.
func (s *SlotService) Delete(ctx context.Context, id, ownerID uuid.UUID) error {
	err := s.txm.WithTx(ctx, func(ctx context.Context, r repository.TxRepositories) error {
		slot, err := r.Slots.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if slot == nil || !slot.IsOwnedBy(ownerID) {
			return fmt.Errorf("%w: slot not found", model.ErrNotFound)
		}
		if slot.Status == model.SlotStatusSwapPending {
			return fmt.Errorf("%w: slot is locked by a pending swap", model.ErrConflict)
		}

		deleted, err := r.Slots.Delete(ctx, id, ownerID)
		if err != nil {
			return err
		}
		if !deleted {
			return fmt.Errorf("%w: slot not found", model.ErrNotFound)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("Slot deleted",
		zap.String("slot_id", id.String()),
		zap.String("owner_id", ownerID.String()),
	)

	return nil
}
