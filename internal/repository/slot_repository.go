package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/slotswap/slotswap_api/internal/model"
	"github.com/slotswap/slotswap_api/internal/repository/base"
)

type PostgresSlotRepository struct {
	db base.DB
}

func NewPostgresSlotRepository(db base.DB) *PostgresSlotRepository {
	return &PostgresSlotRepository{db: db}
}

// Create создаёт новый слот
func (r *PostgresSlotRepository) Create(ctx context.Context, slot *model.Slot) error {
	query := `
		INSERT INTO slots (owner_id, title, start_time, end_time, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRow(
		ctx, query,
		slot.OwnerID,
		slot.Title,
		slot.StartTime,
		slot.EndTime,
		slot.Status,
	).Scan(&slot.ID, &slot.CreatedAt, &slot.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create slot: %w", err)
	}

	return nil
}

func (r *PostgresSlotRepository) scanSlot(row pgx.Row) (*model.Slot, error) {
	var slot model.Slot
	err := row.Scan(
		&slot.ID,
		&slot.OwnerID,
		&slot.Title,
		&slot.StartTime,
		&slot.EndTime,
		&slot.Status,
		&slot.CreatedAt,
		&slot.UpdatedAt,
	)
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan slot: %w", err)
	}
	return &slot, nil
}

// GetByID получает слот по ID
func (r *PostgresSlotRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Slot, error) {
	query := `
		SELECT id, owner_id, title, start_time, end_time, status, created_at, updated_at
		FROM slots
		WHERE id = $1
	`
	return r.scanSlot(r.db.QueryRow(ctx, query, id))
}

// GetByIDForUpdate получает слот по ID с блокировкой строки.
// Конкурирующие транзакции на том же слоте встают в очередь и после
// разблокировки видят уже закоммиченный статус.
func (r *PostgresSlotRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Slot, error) {
	query := `
		SELECT id, owner_id, title, start_time, end_time, status, created_at, updated_at
		FROM slots
		WHERE id = $1
		FOR UPDATE
	`
	return r.scanSlot(r.db.QueryRow(ctx, query, id))
}

// GetByOwner получает все слоты пользователя по возрастанию start_time
func (r *PostgresSlotRepository) GetByOwner(ctx context.Context, ownerID uuid.UUID) ([]*model.Slot, error) {
	query := `
		SELECT id, owner_id, title, start_time, end_time, status, created_at, updated_at
		FROM slots
		WHERE owner_id = $1
		ORDER BY start_time
	`

	rows, err := r.db.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("get slots by owner: %w", err)
	}
	defer rows.Close()

	var slots []*model.Slot
	for rows.Next() {
		var slot model.Slot
		err := rows.Scan(
			&slot.ID,
			&slot.OwnerID,
			&slot.Title,
			&slot.StartTime,
			&slot.EndTime,
			&slot.Status,
			&slot.CreatedAt,
			&slot.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan slot: %w", err)
		}
		slots = append(slots, &slot)
	}

	return slots, rows.Err()
}

// GetSwappableExcept получает SWAPPABLE слоты всех владельцев кроме указанного,
// сразу с именем и email владельца для отображения
func (r *PostgresSlotRepository) GetSwappableExcept(ctx context.Context, ownerID uuid.UUID) ([]*model.Slot, error) {
	query := `
		SELECT s.id, s.owner_id, s.title, s.start_time, s.end_time, s.status,
		       s.created_at, s.updated_at,
		       u.id, u.name, u.email, u.created_at
		FROM slots s
		JOIN users u ON u.id = s.owner_id
		WHERE s.status = 'SWAPPABLE'
		  AND s.owner_id <> $1
		ORDER BY s.start_time
	`

	rows, err := r.db.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("get swappable slots: %w", err)
	}
	defer rows.Close()

	var slots []*model.Slot
	for rows.Next() {
		var slot model.Slot
		var owner model.User
		err := rows.Scan(
			&slot.ID,
			&slot.OwnerID,
			&slot.Title,
			&slot.StartTime,
			&slot.EndTime,
			&slot.Status,
			&slot.CreatedAt,
			&slot.UpdatedAt,
			&owner.ID,
			&owner.Name,
			&owner.Email,
			&owner.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan swappable slot: %w", err)
		}
		slot.Owner = &owner
		slots = append(slots, &slot)
	}

	return slots, rows.Err()
}

// Update сохраняет изменяемые поля слота (владельца и статус в том числе —
// координатор обмена пишет их через этот же метод внутри транзакции)
func (r *PostgresSlotRepository) Update(ctx context.Context, slot *model.Slot) error {
	query := `
		UPDATE slots
		SET owner_id = $1, title = $2, start_time = $3, end_time = $4,
		    status = $5, updated_at = now()
		WHERE id = $6
	`

	tag, err := r.db.Exec(
		ctx, query,
		slot.OwnerID,
		slot.Title,
		slot.StartTime,
		slot.EndTime,
		slot.Status,
		slot.ID,
	)
	if err != nil {
		return fmt.Errorf("update slot: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update slot: %w", model.ErrNotFound)
	}

	return nil
}

// Delete удаляет слот владельца. Возвращает false если такого слота
// у владельца нет.
func (r *PostgresSlotRepository) Delete(ctx context.Context, id, ownerID uuid.UUID) (bool, error) {
	query := `DELETE FROM slots WHERE id = $1 AND owner_id = $2`

	tag, err := r.db.Exec(ctx, query, id, ownerID)
	if err != nil {
		return false, fmt.Errorf("delete slot: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}
