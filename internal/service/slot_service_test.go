package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/slotswap/slotswap_api/internal/model"
	"github.com/slotswap/slotswap_api/internal/repository/memory"
)

func newSlotService(store *memory.Store) *SlotService {
	return NewSlotService(store, store.Slots(), zap.NewNop())
}

func statusPtr(s model.SlotStatus) *model.SlotStatus { return &s }

func TestSlotService_Create(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := newSlotService(store)
	owner := uuid.New()
	start := time.Now()

	t.Run("defaults to BUSY", func(t *testing.T) {
		slot, err := svc.Create(ctx, owner, "morning shift", start, start.Add(time.Hour), "")
		require.NoError(t, err)
		assert.Equal(t, model.SlotStatusBusy, slot.Status)
		assert.Equal(t, owner, slot.OwnerID)
	})

	t.Run("missing title", func(t *testing.T) {
		_, err := svc.Create(ctx, owner, "", start, start.Add(time.Hour), "")
		require.ErrorIs(t, err, model.ErrInvalidOperation)
	})

	t.Run("client cannot create SWAP_PENDING", func(t *testing.T) {
		_, err := svc.Create(ctx, owner, "shift", start, start.Add(time.Hour), model.SlotStatusSwapPending)
		require.ErrorIs(t, err, model.ErrInvalidOperation)
	})
}

func TestSlotService_Update(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := newSlotService(store)
	owner := uuid.New()
	start := time.Now()

	slot, err := svc.Create(ctx, owner, "shift", start, start.Add(time.Hour), "")
	require.NoError(t, err)

	t.Run("toggle BUSY to SWAPPABLE", func(t *testing.T) {
		updated, err := svc.Update(ctx, slot.ID, owner, SlotChanges{Status: statusPtr(model.SlotStatusSwappable)})
		require.NoError(t, err)
		assert.Equal(t, model.SlotStatusSwappable, updated.Status)
	})

	t.Run("stranger gets NotFound", func(t *testing.T) {
		_, err := svc.Update(ctx, slot.ID, uuid.New(), SlotChanges{Status: statusPtr(model.SlotStatusBusy)})
		require.ErrorIs(t, err, model.ErrNotFound)
	})

	t.Run("cannot set SWAP_PENDING by hand", func(t *testing.T) {
		_, err := svc.Update(ctx, slot.ID, owner, SlotChanges{Status: statusPtr(model.SlotStatusSwapPending)})
		require.ErrorIs(t, err, model.ErrInvalidOperation)
	})

	t.Run("pending slot is frozen", func(t *testing.T) {
		pending := &model.Slot{OwnerID: owner, Title: "locked", StartTime: start, EndTime: start.Add(time.Hour), Status: model.SlotStatusSwapPending}
		require.NoError(t, store.Slots().Create(ctx, pending))

		_, err := svc.Update(ctx, pending.ID, owner, SlotChanges{Status: statusPtr(model.SlotStatusBusy)})
		require.ErrorIs(t, err, model.ErrConflict)

		got, err := store.Slots().GetByID(ctx, pending.ID)
		require.NoError(t, err)
		assert.Equal(t, model.SlotStatusSwapPending, got.Status)
	})
}

func TestSlotService_Delete(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := newSlotService(store)
	owner := uuid.New()
	start := time.Now()

	t.Run("ok", func(t *testing.T) {
		slot, err := svc.Create(ctx, owner, "shift", start, start.Add(time.Hour), "")
		require.NoError(t, err)

		require.NoError(t, svc.Delete(ctx, slot.ID, owner))

		got, err := store.Slots().GetByID(ctx, slot.ID)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("stranger gets NotFound", func(t *testing.T) {
		slot, err := svc.Create(ctx, owner, "shift", start, start.Add(time.Hour), "")
		require.NoError(t, err)

		require.ErrorIs(t, svc.Delete(ctx, slot.ID, uuid.New()), model.ErrNotFound)
	})

	t.Run("pending slot cannot be deleted", func(t *testing.T) {
		pending := &model.Slot{OwnerID: owner, Title: "locked", StartTime: start, EndTime: start.Add(time.Hour), Status: model.SlotStatusSwapPending}
		require.NoError(t, store.Slots().Create(ctx, pending))

		require.ErrorIs(t, svc.Delete(ctx, pending.ID, owner), model.ErrConflict)

		got, err := store.Slots().GetByID(ctx, pending.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
	})
}
