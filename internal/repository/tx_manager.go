package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/slotswap/slotswap_api/internal/model"
)

// TxRepositories — набор репозиториев, привязанных к одной транзакции.
type TxRepositories struct {
	Users UserRepository
	Slots SlotRepository
	Swaps SwapRequestRepository
}

// TxManager исполняет fn как одну атомарную единицу работы:
// либо коммитятся все изменения, сделанные через repos, либо ни одно.
type TxManager interface {
	WithTx(ctx context.Context, fn func(ctx context.Context, repos TxRepositories) error) error
}

type PgxTxManager struct {
	pool *pgxpool.Pool
}

func NewPgxTxManager(pool *pgxpool.Pool) *PgxTxManager {
	return &PgxTxManager{pool: pool}
}

func (m *PgxTxManager) WithTx(ctx context.Context, fn func(ctx context.Context, repos TxRepositories) error) error {
	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	repos := TxRepositories{
		Users: NewPostgresUserRepository(tx),
		Slots: NewPostgresSlotRepository(tx),
		Swaps: NewPostgresSwapRequestRepository(tx),
	}

	if err := fn(ctx, repos); err != nil {
		_ = tx.Rollback(ctx)
		return translatePgError(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return translatePgError(fmt.Errorf("commit transaction: %w", err))
	}

	return nil
}

// translatePgError переводит конфликты уровня СУБД в доменный Conflict,
// чтобы клиент видел повторяемую ошибку, а не голую ошибку драйвера.
func translatePgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01": // serialization_failure, deadlock_detected
			return fmt.Errorf("%w: transaction conflict, retry the operation", model.ErrConflict)
		case "23505": // unique_violation — частичные индексы по PENDING-заявкам
			return fmt.Errorf("%w: slot already has a pending request", model.ErrConflict)
		}
	}
	return err
}
