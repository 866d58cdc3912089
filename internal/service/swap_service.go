package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/slotswap/slotswap_api/internal/model"
	"github.com/slotswap/slotswap_api/internal/repository"
)

// SwapService — координатор обменов. Единственный писатель статусов
// заявок и SWAP_PENDING у слотов: Propose и Respond выполняются как одна
// атомарная единица работы через TxManager, всё остальное — чтение.
type SwapService struct {
	txm      repository.TxManager
	slotRepo repository.SlotRepository
	swapRepo repository.SwapRequestRepository
	userRepo repository.UserRepository
	logger   *zap.Logger
}

func NewSwapService(
	txm repository.TxManager,
	slotRepo repository.SlotRepository,
	swapRepo repository.SwapRequestRepository,
	userRepo repository.UserRepository,
	logger *zap.Logger,
) *SwapService {
	return &SwapService{
		txm:      txm,
		slotRepo: slotRepo,
		swapRepo: swapRepo,
		userRepo: userRepo,
		logger:   logger,
	}
}

// lockSlotPair читает оба слота с блокировкой строк в порядке возрастания ID,
// чтобы встречные Propose/Respond на одной паре не взаимоблокировались.
func lockSlotPair(ctx context.Context, slots repository.SlotRepository, aID, bID uuid.UUID) (a, b *model.Slot, err error) {
	first, second := aID, bID
	swapped := false
	if second.String() < first.String() {
		first, second = second, first
		swapped = true
	}

	s1, err := slots.GetByIDForUpdate(ctx, first)
	if err != nil {
		return nil, nil, err
	}
	s2, err := slots.GetByIDForUpdate(ctx, second)
	if err != nil {
		return nil, nil, err
	}

	if swapped {
		return s2, s1, nil
	}
	return s1, s2, nil
}

// Propose создаёт заявку на обмен mySlot на theirSlot.
// Все предусловия проверяются внутри транзакции на заблокированных строках,
// так что из двух гонящихся предложений по одному слоту выигрывает ровно
// одно, второе получает Conflict.
func (s *SwapService) Propose(ctx context.Context, requesterID, mySlotID, theirSlotID uuid.UUID) (*model.SwapRequest, error) {
	var created *model.SwapRequest

	err := s.txm.WithTx(ctx, func(ctx context.Context, r repository.TxRepositories) error {
		mySlot, theirSlot, err := lockSlotPair(ctx, r.Slots, mySlotID, theirSlotID)
		if err != nil {
			return err
		}
		if mySlot == nil || theirSlot == nil {
			return fmt.Errorf("%w: slot not found", model.ErrNotFound)
		}

		req, err := model.ProposeSwap(mySlot, theirSlot, requesterID)
		if err != nil {
			return err
		}

		if err := r.Swaps.Create(ctx, req); err != nil {
			return err
		}
		if err := r.Slots.Update(ctx, mySlot); err != nil {
			return err
		}
		if err := r.Slots.Update(ctx, theirSlot); err != nil {
			return err
		}

		created = req
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Swap proposed",
		zap.String("request_id", created.ID.String()),
		zap.String("requester_id", requesterID.String()),
		zap.String("my_slot_id", mySlotID.String()),
		zap.String("their_slot_id", theirSlotID.String()),
	)

	return created, nil
}

// Respond обрабатывает ответ респондента на заявку.
// accept=true меняет владельцев слотов местами и убирает оба слота с биржи,
// accept=false возвращает их в SWAPPABLE. Повторный ответ даёт Conflict.
func (s *SwapService) Respond(ctx context.Context, responderID, requestID uuid.UUID, accept bool) (*model.SwapRequest, error) {
	var handled *model.SwapRequest

	err := s.txm.WithTx(ctx, func(ctx context.Context, r repository.TxRepositories) error {
		req, err := r.Swaps.GetByIDForUpdate(ctx, requestID)
		if err != nil {
			return err
		}
		if req == nil {
			return fmt.Errorf("%w: swap request not found", model.ErrNotFound)
		}
		if req.ResponderID != responderID {
			return fmt.Errorf("%w: only the responder can answer this request", model.ErrForbidden)
		}
		if !req.IsPending() {
			return fmt.Errorf("%w: request already handled", model.ErrConflict)
		}

		mySlot, theirSlot, err := lockSlotPair(ctx, r.Slots, req.MySlotID, req.TheirSlotID)
		if err != nil {
			return err
		}
		if mySlot == nil || theirSlot == nil {
			// не должно случаться пока держится инвариант SWAP_PENDING
			return fmt.Errorf("%w: referenced slot is missing", model.ErrNotFound)
		}

		if err := model.ResolveSwap(req, mySlot, theirSlot, responderID, accept); err != nil {
			return err
		}

		if err := r.Swaps.UpdateStatus(ctx, req.ID, req.Status); err != nil {
			return err
		}
		if err := r.Slots.Update(ctx, mySlot); err != nil {
			return err
		}
		if err := r.Slots.Update(ctx, theirSlot); err != nil {
			return err
		}

		handled = req
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Swap request handled",
		zap.String("request_id", requestID.String()),
		zap.String("responder_id", responderID.String()),
		zap.Bool("accepted", accept),
	)

	return handled, nil
}

// ListSwappable возвращает чужие SWAPPABLE слоты по возрастанию start_time,
// с данными владельца для отображения
func (s *SwapService) ListSwappable(ctx context.Context, callerID uuid.UUID) ([]*model.Slot, error) {
	slots, err := s.slotRepo.GetSwappableExcept(ctx, callerID)
	if err != nil {
		return nil, fmt.Errorf("list swappable slots: %w", err)
	}
	return slots, nil
}

// SwapInbox — входящие и исходящие заявки пользователя
type SwapInbox struct {
	Incoming []*model.SwapRequest `json:"incoming"`
	Outgoing []*model.SwapRequest `json:"outgoing"`
}

// ListMyRequests возвращает заявки пользователя с подгруженными слотами
// и контрагентом
func (s *SwapService) ListMyRequests(ctx context.Context, callerID uuid.UUID) (*SwapInbox, error) {
	incoming, err := s.swapRepo.GetByResponder(ctx, callerID)
	if err != nil {
		return nil, fmt.Errorf("list incoming requests: %w", err)
	}
	outgoing, err := s.swapRepo.GetByRequester(ctx, callerID)
	if err != nil {
		return nil, fmt.Errorf("list outgoing requests: %w", err)
	}

	for _, req := range incoming {
		if err := s.hydrate(ctx, req); err != nil {
			return nil, err
		}
	}
	for _, req := range outgoing {
		if err := s.hydrate(ctx, req); err != nil {
			return nil, err
		}
	}

	return &SwapInbox{Incoming: incoming, Outgoing: outgoing}, nil
}

// hydrate подгружает слоты и обоих участников заявки для отображения
func (s *SwapService) hydrate(ctx context.Context, req *model.SwapRequest) error {
	var err error
	if req.MySlot, err = s.slotRepo.GetByID(ctx, req.MySlotID); err != nil {
		return fmt.Errorf("hydrate my slot: %w", err)
	}
	if req.TheirSlot, err = s.slotRepo.GetByID(ctx, req.TheirSlotID); err != nil {
		return fmt.Errorf("hydrate their slot: %w", err)
	}
	if req.Requester, err = s.userRepo.GetByID(ctx, req.RequesterID); err != nil {
		return fmt.Errorf("hydrate requester: %w", err)
	}
	if req.Responder, err = s.userRepo.GetByID(ctx, req.ResponderID); err != nil {
		return fmt.Errorf("hydrate responder: %w", err)
	}
	return nil
}
