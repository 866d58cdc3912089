package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/slotswap/slotswap_api/internal/model"
	"github.com/slotswap/slotswap_api/internal/repository/memory"
)

type swapFixture struct {
	svc   *SwapService
	store *memory.Store
}

func newSwapFixture() *swapFixture {
	store := memory.NewStore()
	svc := NewSwapService(store, store.Slots(), store.Swaps(), store.Users(), zap.NewNop())
	return &swapFixture{svc: svc, store: store}
}

func (f *swapFixture) addUser(t *testing.T, name string) *model.User {
	t.Helper()
	user := &model.User{Name: name, Email: name + "@example.com", PasswordHash: "x"}
	require.NoError(t, f.store.Users().Create(context.Background(), user))
	return user
}

func (f *swapFixture) addSlot(t *testing.T, owner uuid.UUID, status model.SlotStatus, start time.Time) *model.Slot {
	t.Helper()
	slot := &model.Slot{
		OwnerID:   owner,
		Title:     "shift",
		StartTime: start,
		EndTime:   start.Add(time.Hour),
		Status:    status,
	}
	require.NoError(t, f.store.Slots().Create(context.Background(), slot))
	return slot
}

func (f *swapFixture) slot(t *testing.T, id uuid.UUID) *model.Slot {
	t.Helper()
	slot, err := f.store.Slots().GetByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, slot)
	return slot
}

func TestSwapService_Propose(t *testing.T) {
	ctx := context.Background()
	f := newSwapFixture()
	u1 := f.addUser(t, "alice")
	u2 := f.addUser(t, "bob")
	mySlot := f.addSlot(t, u1.ID, model.SlotStatusSwappable, time.Now())
	theirSlot := f.addSlot(t, u2.ID, model.SlotStatusSwappable, time.Now())

	req, err := f.svc.Propose(ctx, u1.ID, mySlot.ID, theirSlot.ID)
	require.NoError(t, err)

	assert.Equal(t, model.SwapStatusPending, req.Status)
	assert.Equal(t, u1.ID, req.RequesterID)
	assert.Equal(t, u2.ID, req.ResponderID)
	assert.Equal(t, model.SlotStatusSwapPending, f.slot(t, mySlot.ID).Status)
	assert.Equal(t, model.SlotStatusSwapPending, f.slot(t, theirSlot.ID).Status)

	// ровно одна PENDING заявка на эту пару
	outgoing, err := f.store.Swaps().GetByRequester(ctx, u1.ID)
	require.NoError(t, err)
	require.Len(t, outgoing, 1)
	assert.Equal(t, req.ID, outgoing[0].ID)
}

func TestSwapService_Propose_Failures(t *testing.T) {
	ctx := context.Background()
	f := newSwapFixture()
	u1 := f.addUser(t, "alice")
	u2 := f.addUser(t, "bob")

	t.Run("my slot not owned by requester", func(t *testing.T) {
		a := f.addSlot(t, u2.ID, model.SlotStatusSwappable, time.Now())
		b := f.addSlot(t, u2.ID, model.SlotStatusSwappable, time.Now())

		_, err := f.svc.Propose(ctx, u1.ID, a.ID, b.ID)
		require.ErrorIs(t, err, model.ErrForbidden)
		assert.Equal(t, model.SlotStatusSwappable, f.slot(t, a.ID).Status)
		assert.Equal(t, model.SlotStatusSwappable, f.slot(t, b.ID).Status)
	})

	t.Run("their slot missing", func(t *testing.T) {
		a := f.addSlot(t, u1.ID, model.SlotStatusSwappable, time.Now())

		_, err := f.svc.Propose(ctx, u1.ID, a.ID, uuid.New())
		require.ErrorIs(t, err, model.ErrNotFound)
		assert.Equal(t, model.SlotStatusSwappable, f.slot(t, a.ID).Status)
	})

	t.Run("swap with yourself", func(t *testing.T) {
		a := f.addSlot(t, u1.ID, model.SlotStatusSwappable, time.Now())
		b := f.addSlot(t, u1.ID, model.SlotStatusSwappable, time.Now())

		_, err := f.svc.Propose(ctx, u1.ID, a.ID, b.ID)
		require.ErrorIs(t, err, model.ErrInvalidOperation)
	})

	t.Run("their slot not swappable", func(t *testing.T) {
		a := f.addSlot(t, u1.ID, model.SlotStatusSwappable, time.Now())
		b := f.addSlot(t, u2.ID, model.SlotStatusBusy, time.Now())

		_, err := f.svc.Propose(ctx, u1.ID, a.ID, b.ID)
		require.ErrorIs(t, err, model.ErrConflict)
		assert.Equal(t, model.SlotStatusSwappable, f.slot(t, a.ID).Status)
	})

	t.Run("double proposal against pending slot", func(t *testing.T) {
		a := f.addSlot(t, u1.ID, model.SlotStatusSwappable, time.Now())
		b := f.addSlot(t, u2.ID, model.SlotStatusSwappable, time.Now())
		c := f.addSlot(t, u1.ID, model.SlotStatusSwappable, time.Now())

		_, err := f.svc.Propose(ctx, u1.ID, a.ID, b.ID)
		require.NoError(t, err)

		_, err = f.svc.Propose(ctx, u1.ID, c.ID, b.ID)
		require.ErrorIs(t, err, model.ErrConflict)
		// слот второго предложения не тронут
		assert.Equal(t, model.SlotStatusSwappable, f.slot(t, c.ID).Status)
	})
}

func TestSwapService_Respond_Accept(t *testing.T) {
	ctx := context.Background()
	f := newSwapFixture()
	u1 := f.addUser(t, "alice")
	u2 := f.addUser(t, "bob")
	mySlot := f.addSlot(t, u1.ID, model.SlotStatusSwappable, time.Now())
	theirSlot := f.addSlot(t, u2.ID, model.SlotStatusSwappable, time.Now())

	req, err := f.svc.Propose(ctx, u1.ID, mySlot.ID, theirSlot.ID)
	require.NoError(t, err)

	handled, err := f.svc.Respond(ctx, u2.ID, req.ID, true)
	require.NoError(t, err)
	assert.Equal(t, model.SwapStatusAccepted, handled.Status)

	// владельцы поменялись, оба слота ушли с биржи
	gotMy := f.slot(t, mySlot.ID)
	gotTheir := f.slot(t, theirSlot.ID)
	assert.Equal(t, u2.ID, gotMy.OwnerID)
	assert.Equal(t, u1.ID, gotTheir.OwnerID)
	assert.Equal(t, model.SlotStatusBusy, gotMy.Status)
	assert.Equal(t, model.SlotStatusBusy, gotTheir.Status)
}

func TestSwapService_Respond_Reject(t *testing.T) {
	ctx := context.Background()
	f := newSwapFixture()
	u1 := f.addUser(t, "alice")
	u2 := f.addUser(t, "bob")
	mySlot := f.addSlot(t, u1.ID, model.SlotStatusSwappable, time.Now())
	theirSlot := f.addSlot(t, u2.ID, model.SlotStatusSwappable, time.Now())

	req, err := f.svc.Propose(ctx, u1.ID, mySlot.ID, theirSlot.ID)
	require.NoError(t, err)

	handled, err := f.svc.Respond(ctx, u2.ID, req.ID, false)
	require.NoError(t, err)
	assert.Equal(t, model.SwapStatusRejected, handled.Status)

	// владельцы прежние, слоты снова SWAPPABLE
	gotMy := f.slot(t, mySlot.ID)
	gotTheir := f.slot(t, theirSlot.ID)
	assert.Equal(t, u1.ID, gotMy.OwnerID)
	assert.Equal(t, u2.ID, gotTheir.OwnerID)
	assert.Equal(t, model.SlotStatusSwappable, gotMy.Status)
	assert.Equal(t, model.SlotStatusSwappable, gotTheir.Status)
}

func TestSwapService_Respond_Failures(t *testing.T) {
	ctx := context.Background()
	f := newSwapFixture()
	u1 := f.addUser(t, "alice")
	u2 := f.addUser(t, "bob")
	u3 := f.addUser(t, "mallory")
	mySlot := f.addSlot(t, u1.ID, model.SlotStatusSwappable, time.Now())
	theirSlot := f.addSlot(t, u2.ID, model.SlotStatusSwappable, time.Now())

	req, err := f.svc.Propose(ctx, u1.ID, mySlot.ID, theirSlot.ID)
	require.NoError(t, err)

	t.Run("unknown request", func(t *testing.T) {
		_, err := f.svc.Respond(ctx, u2.ID, uuid.New(), true)
		require.ErrorIs(t, err, model.ErrNotFound)
	})

	t.Run("stranger cannot respond", func(t *testing.T) {
		_, err := f.svc.Respond(ctx, u3.ID, req.ID, true)
		require.ErrorIs(t, err, model.ErrForbidden)
		// состояние не тронуто
		assert.Equal(t, model.SlotStatusSwapPending, f.slot(t, mySlot.ID).Status)
		assert.Equal(t, model.SlotStatusSwapPending, f.slot(t, theirSlot.ID).Status)
	})

	t.Run("second respond is a clean conflict", func(t *testing.T) {
		_, err := f.svc.Respond(ctx, u2.ID, req.ID, true)
		require.NoError(t, err)

		_, err = f.svc.Respond(ctx, u2.ID, req.ID, false)
		require.ErrorIs(t, err, model.ErrConflict)

		// эффекты первого ответа не переприменились и не откатились
		gotMy := f.slot(t, mySlot.ID)
		gotTheir := f.slot(t, theirSlot.ID)
		assert.Equal(t, u2.ID, gotMy.OwnerID)
		assert.Equal(t, u1.ID, gotTheir.OwnerID)
		assert.Equal(t, model.SlotStatusBusy, gotMy.Status)
		assert.Equal(t, model.SlotStatusBusy, gotTheir.Status)
	})
}

func TestSwapService_ConcurrentProposals(t *testing.T) {
	ctx := context.Background()
	f := newSwapFixture()
	target := f.addUser(t, "carol")
	theirSlot := f.addSlot(t, target.ID, model.SlotStatusSwappable, time.Now())

	const proposers = 8
	slots := make([]*model.Slot, proposers)
	users := make([]*model.User, proposers)
	for i := range users {
		users[i] = f.addUser(t, "proposer"+string(rune('a'+i)))
		slots[i] = f.addSlot(t, users[i].ID, model.SlotStatusSwappable, time.Now())
	}

	var wg sync.WaitGroup
	errs := make([]error, proposers)
	for i := 0; i < proposers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.Propose(ctx, users[i].ID, slots[i].ID, theirSlot.ID)
		}(i)
	}
	wg.Wait()

	// выигрывает ровно один, остальные получают Conflict
	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
		} else {
			assert.ErrorIs(t, err, model.ErrConflict)
		}
	}
	assert.Equal(t, 1, winners)

	// целевой слот зарезервирован ровно одной PENDING заявкой
	assert.Equal(t, model.SlotStatusSwapPending, f.slot(t, theirSlot.ID).Status)
	incoming, err := f.store.Swaps().GetByResponder(ctx, target.ID)
	require.NoError(t, err)
	pending := 0
	for _, r := range incoming {
		if r.IsPending() {
			pending++
		}
	}
	assert.Equal(t, 1, pending)
}

func TestSwapService_ListSwappable(t *testing.T) {
	ctx := context.Background()
	f := newSwapFixture()
	u1 := f.addUser(t, "alice")
	u2 := f.addUser(t, "bob")

	later := time.Now().Add(2 * time.Hour)
	earlier := time.Now().Add(time.Hour)
	f.addSlot(t, u1.ID, model.SlotStatusSwappable, time.Now()) // свой — не показываем
	f.addSlot(t, u2.ID, model.SlotStatusBusy, time.Now())      // не на бирже
	s2 := f.addSlot(t, u2.ID, model.SlotStatusSwappable, later)
	s1 := f.addSlot(t, u2.ID, model.SlotStatusSwappable, earlier)

	slots, err := f.svc.ListSwappable(ctx, u1.ID)
	require.NoError(t, err)
	require.Len(t, slots, 2)

	// по возрастанию start_time и с данными владельца
	assert.Equal(t, s1.ID, slots[0].ID)
	assert.Equal(t, s2.ID, slots[1].ID)
	require.NotNil(t, slots[0].Owner)
	assert.Equal(t, "bob", slots[0].Owner.Name)
}

func TestSwapService_ListMyRequests(t *testing.T) {
	ctx := context.Background()
	f := newSwapFixture()
	u1 := f.addUser(t, "alice")
	u2 := f.addUser(t, "bob")
	a := f.addSlot(t, u1.ID, model.SlotStatusSwappable, time.Now())
	b := f.addSlot(t, u2.ID, model.SlotStatusSwappable, time.Now())

	req, err := f.svc.Propose(ctx, u1.ID, a.ID, b.ID)
	require.NoError(t, err)

	// для инициатора заявка исходящая
	inbox, err := f.svc.ListMyRequests(ctx, u1.ID)
	require.NoError(t, err)
	assert.Empty(t, inbox.Incoming)
	require.Len(t, inbox.Outgoing, 1)
	got := inbox.Outgoing[0]
	assert.Equal(t, req.ID, got.ID)
	require.NotNil(t, got.MySlot)
	require.NotNil(t, got.TheirSlot)
	require.NotNil(t, got.Responder)
	assert.Equal(t, "bob", got.Responder.Name)

	// для респондента — входящая
	inbox, err = f.svc.ListMyRequests(ctx, u2.ID)
	require.NoError(t, err)
	assert.Empty(t, inbox.Outgoing)
	require.Len(t, inbox.Incoming, 1)
	require.NotNil(t, inbox.Incoming[0].Requester)
	assert.Equal(t, "alice", inbox.Incoming[0].Requester.Name)
}
