// Package memory — реализация репозиториев и TxManager в памяти.
// Используется в тестах сервисов вместо Postgres: транзакция работает
// на копии данных и публикует её только при успешном завершении, так что
// семантика "всё или ничего" сохраняется.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/slotswap/slotswap_api/internal/model"
	"github.com/slotswap/slotswap_api/internal/repository"
)

type data struct {
	users map[uuid.UUID]*model.User
	slots map[uuid.UUID]*model.Slot
	swaps map[uuid.UUID]*model.SwapRequest
}

func newData() *data {
	return &data{
		users: make(map[uuid.UUID]*model.User),
		slots: make(map[uuid.UUID]*model.Slot),
		swaps: make(map[uuid.UUID]*model.SwapRequest),
	}
}

func (d *data) clone() *data {
	c := newData()
	for k, v := range d.users {
		u := *v
		c.users[k] = &u
	}
	for k, v := range d.slots {
		s := *v
		s.Owner = nil
		c.slots[k] = &s
	}
	for k, v := range d.swaps {
		r := *v
		r.Requester, r.Responder, r.MySlot, r.TheirSlot = nil, nil, nil, nil
		c.swaps[k] = &r
	}
	return c
}

// Store — общее хранилище. Мьютекс сериализует транзакции, поэтому
// конкурирующие WithTx видят состояние друг друга строго по очереди.
type Store struct {
	mu sync.Mutex
	d  *data
}

func NewStore() *Store {
	return &Store{d: newData()}
}

// WithTx исполняет fn на копии данных и публикует её только при успехе.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context, repos repository.TxRepositories) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	draft := s.d.clone()
	repos := repository.TxRepositories{
		Users: &userRepo{d: draft},
		Slots: &slotRepo{d: draft},
		Swaps: &swapRepo{d: draft},
	}

	if err := fn(ctx, repos); err != nil {
		return err
	}

	s.d = draft
	return nil
}

// Users возвращает репозиторий пользователей вне транзакции
func (s *Store) Users() repository.UserRepository { return &lockedUserRepo{s: s} }

// Slots возвращает репозиторий слотов вне транзакции
func (s *Store) Slots() repository.SlotRepository { return &lockedSlotRepo{s: s} }

// Swaps возвращает репозиторий заявок вне транзакции
func (s *Store) Swaps() repository.SwapRequestRepository { return &lockedSwapRepo{s: s} }

// --- репозитории поверх одного снимка данных ---

type userRepo struct{ d *data }

func (r *userRepo) Create(_ context.Context, user *model.User) error {
	user.ID = uuid.New()
	user.CreatedAt = time.Now()
	u := *user
	r.d.users[u.ID] = &u
	return nil
}

func (r *userRepo) GetByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	u, ok := r.d.users[id]
	if !ok {
		return nil, nil
	}
	c := *u
	return &c, nil
}

func (r *userRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range r.d.users {
		if u.Email == email {
			c := *u
			return &c, nil
		}
	}
	return nil, nil
}

type slotRepo struct{ d *data }

func (r *slotRepo) Create(_ context.Context, slot *model.Slot) error {
	slot.ID = uuid.New()
	slot.CreatedAt = time.Now()
	slot.UpdatedAt = slot.CreatedAt
	s := *slot
	s.Owner = nil
	r.d.slots[s.ID] = &s
	return nil
}

func (r *slotRepo) GetByID(_ context.Context, id uuid.UUID) (*model.Slot, error) {
	s, ok := r.d.slots[id]
	if !ok {
		return nil, nil
	}
	c := *s
	return &c, nil
}

func (r *slotRepo) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Slot, error) {
	// Транзакции и так сериализованы мьютексом Store
	return r.GetByID(ctx, id)
}

func (r *slotRepo) GetByOwner(_ context.Context, ownerID uuid.UUID) ([]*model.Slot, error) {
	var slots []*model.Slot
	for _, s := range r.d.slots {
		if s.OwnerID == ownerID {
			c := *s
			slots = append(slots, &c)
		}
	}
	sort.Slice(slots, func(i, j int) bool { return slots[i].StartTime.Before(slots[j].StartTime) })
	return slots, nil
}

func (r *slotRepo) GetSwappableExcept(_ context.Context, ownerID uuid.UUID) ([]*model.Slot, error) {
	var slots []*model.Slot
	for _, s := range r.d.slots {
		if s.Status == model.SlotStatusSwappable && s.OwnerID != ownerID {
			c := *s
			if owner, ok := r.d.users[s.OwnerID]; ok {
				o := *owner
				c.Owner = &o
			}
			slots = append(slots, &c)
		}
	}
	sort.Slice(slots, func(i, j int) bool { return slots[i].StartTime.Before(slots[j].StartTime) })
	return slots, nil
}

func (r *slotRepo) Update(_ context.Context, slot *model.Slot) error {
	if _, ok := r.d.slots[slot.ID]; !ok {
		return model.ErrNotFound
	}
	c := *slot
	c.Owner = nil
	c.UpdatedAt = time.Now()
	r.d.slots[c.ID] = &c
	return nil
}

func (r *slotRepo) Delete(_ context.Context, id, ownerID uuid.UUID) (bool, error) {
	s, ok := r.d.slots[id]
	if !ok || s.OwnerID != ownerID {
		return false, nil
	}
	delete(r.d.slots, id)
	return true, nil
}

type swapRepo struct{ d *data }

func (r *swapRepo) Create(_ context.Context, req *model.SwapRequest) error {
	req.ID = uuid.New()
	req.CreatedAt = time.Now()
	req.UpdatedAt = req.CreatedAt
	c := *req
	r.d.swaps[c.ID] = &c
	return nil
}

func (r *swapRepo) GetByID(_ context.Context, id uuid.UUID) (*model.SwapRequest, error) {
	sw, ok := r.d.swaps[id]
	if !ok {
		return nil, nil
	}
	c := *sw
	return &c, nil
}

func (r *swapRepo) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.SwapRequest, error) {
	return r.GetByID(ctx, id)
}

func (r *swapRepo) byParticipant(pick func(*model.SwapRequest) uuid.UUID, userID uuid.UUID) []*model.SwapRequest {
	var reqs []*model.SwapRequest
	for _, sw := range r.d.swaps {
		if pick(sw) == userID {
			c := *sw
			reqs = append(reqs, &c)
		}
	}
	sort.Slice(reqs, func(i, j int) bool { return reqs[i].CreatedAt.After(reqs[j].CreatedAt) })
	return reqs
}

func (r *swapRepo) GetByRequester(_ context.Context, userID uuid.UUID) ([]*model.SwapRequest, error) {
	return r.byParticipant(func(sw *model.SwapRequest) uuid.UUID { return sw.RequesterID }, userID), nil
}

func (r *swapRepo) GetByResponder(_ context.Context, userID uuid.UUID) ([]*model.SwapRequest, error) {
	return r.byParticipant(func(sw *model.SwapRequest) uuid.UUID { return sw.ResponderID }, userID), nil
}

func (r *swapRepo) UpdateStatus(_ context.Context, id uuid.UUID, status model.SwapStatus) error {
	sw, ok := r.d.swaps[id]
	if !ok {
		return model.ErrNotFound
	}
	sw.Status = status
	sw.UpdatedAt = time.Now()
	return nil
}

// --- обёртки с блокировкой для доступа вне транзакции ---

type lockedUserRepo struct{ s *Store }

func (l *lockedUserRepo) Create(ctx context.Context, user *model.User) error {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	return (&userRepo{d: l.s.d}).Create(ctx, user)
}

func (l *lockedUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	return (&userRepo{d: l.s.d}).GetByID(ctx, id)
}

func (l *lockedUserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	return (&userRepo{d: l.s.d}).GetByEmail(ctx, email)
}

type lockedSlotRepo struct{ s *Store }

func (l *lockedSlotRepo) Create(ctx context.Context, slot *model.Slot) error {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	return (&slotRepo{d: l.s.d}).Create(ctx, slot)
}

func (l *lockedSlotRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Slot, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	return (&slotRepo{d: l.s.d}).GetByID(ctx, id)
}

func (l *lockedSlotRepo) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Slot, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	return (&slotRepo{d: l.s.d}).GetByIDForUpdate(ctx, id)
}

func (l *lockedSlotRepo) GetByOwner(ctx context.Context, ownerID uuid.UUID) ([]*model.Slot, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	return (&slotRepo{d: l.s.d}).GetByOwner(ctx, ownerID)
}

func (l *lockedSlotRepo) GetSwappableExcept(ctx context.Context, ownerID uuid.UUID) ([]*model.Slot, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	return (&slotRepo{d: l.s.d}).GetSwappableExcept(ctx, ownerID)
}

func (l *lockedSlotRepo) Update(ctx context.Context, slot *model.Slot) error {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	return (&slotRepo{d: l.s.d}).Update(ctx, slot)
}

func (l *lockedSlotRepo) Delete(ctx context.Context, id, ownerID uuid.UUID) (bool, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	return (&slotRepo{d: l.s.d}).Delete(ctx, id, ownerID)
}

type lockedSwapRepo struct{ s *Store }

func (l *lockedSwapRepo) Create(ctx context.Context, req *model.SwapRequest) error {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	return (&swapRepo{d: l.s.d}).Create(ctx, req)
}

func (l *lockedSwapRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.SwapRequest, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	return (&swapRepo{d: l.s.d}).GetByID(ctx, id)
}

func (l *lockedSwapRepo) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.SwapRequest, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	return (&swapRepo{d: l.s.d}).GetByIDForUpdate(ctx, id)
}

func (l *lockedSwapRepo) GetByRequester(ctx context.Context, userID uuid.UUID) ([]*model.SwapRequest, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	return (&swapRepo{d: l.s.d}).GetByRequester(ctx, userID)
}

func (l *lockedSwapRepo) GetByResponder(ctx context.Context, userID uuid.UUID) ([]*model.SwapRequest, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	return (&swapRepo{d: l.s.d}).GetByResponder(ctx, userID)
}

func (l *lockedSwapRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status model.SwapStatus) error {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	return (&swapRepo{d: l.s.d}).UpdateStatus(ctx, id, status)
}
