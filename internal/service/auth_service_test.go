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

func newAuthService(store *memory.Store) *AuthService {
	return NewAuthService(store.Users(), "test-secret", time.Hour, zap.NewNop())
}

func TestAuthService_RegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := newAuthService(store)

	user, token, err := svc.Register(ctx, "alice", "alice@example.com", "s3cret")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.NotEqual(t, "s3cret", user.PasswordHash) // пароль не хранится открытым

	// токен резолвится в identity владельца
	callerID, err := svc.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, callerID)

	t.Run("duplicate email", func(t *testing.T) {
		_, _, err := svc.Register(ctx, "alice2", "alice@example.com", "other")
		require.ErrorIs(t, err, model.ErrConflict)
	})

	t.Run("login ok", func(t *testing.T) {
		got, token, err := svc.Login(ctx, "alice@example.com", "s3cret")
		require.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)

		callerID, err := svc.VerifyToken(token)
		require.NoError(t, err)
		assert.Equal(t, user.ID, callerID)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, _, err := svc.Login(ctx, "alice@example.com", "wrong")
		require.ErrorIs(t, err, model.ErrUnauthenticated)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, _, err := svc.Login(ctx, "nobody@example.com", "s3cret")
		require.ErrorIs(t, err, model.ErrUnauthenticated)
	})
}

func TestAuthService_Me(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := newAuthService(store)

	user, _, err := svc.Register(ctx, "bob", "bob@example.com", "pw")
	require.NoError(t, err)

	got, err := svc.Me(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "bob", got.Name)

	_, err = svc.Me(ctx, uuid.New())
	require.ErrorIs(t, err, model.ErrNotFound)
}

func TestAuthService_VerifyToken_Invalid(t *testing.T) {
	store := memory.NewStore()
	svc := newAuthService(store)

	_, err := svc.VerifyToken("not-a-token")
	require.ErrorIs(t, err, model.ErrUnauthenticated)

	// токен, подписанный другим секретом
	other := NewAuthService(store.Users(), "other-secret", time.Hour, zap.NewNop())
	_, token, err := other.Register(context.Background(), "eve", "eve@example.com", "pw")
	require.NoError(t, err)

	_, err = svc.VerifyToken(token)
	require.ErrorIs(t, err, model.ErrUnauthenticated)
}
