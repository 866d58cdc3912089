package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/slotswap/slotswap_api/internal/model"
)

// Репозитории возвращают nil, nil если запись не найдена —
// доменную ошибку NotFound решает сервис.

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
}

type SlotRepository interface {
	Create(ctx context.Context, slot *model.Slot) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Slot, error)
	// GetByIDForUpdate берёт блокировку строки до конца транзакции.
	// Вне транзакции ведёт себя как обычный GetByID.
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Slot, error)
	GetByOwner(ctx context.Context, ownerID uuid.UUID) ([]*model.Slot, error)
	// GetSwappableExcept возвращает все SWAPPABLE слоты чужих владельцев
	// вместе с данными владельца, по возрастанию start_time.
	GetSwappableExcept(ctx context.Context, ownerID uuid.UUID) ([]*model.Slot, error)
	Update(ctx context.Context, slot *model.Slot) error
	Delete(ctx context.Context, id, ownerID uuid.UUID) (bool, error)
}

type SwapRequestRepository interface {
	Create(ctx context.Context, req *model.SwapRequest) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.SwapRequest, error)
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.SwapRequest, error)
	GetByRequester(ctx context.Context, userID uuid.UUID) ([]*model.SwapRequest, error)
	GetByResponder(ctx context.Context, userID uuid.UUID) ([]*model.SwapRequest, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.SwapStatus) error
}
