package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/slotswap/slotswap_api/internal/model"
	"github.com/slotswap/slotswap_api/internal/repository/base"
)

type PostgresSwapRequestRepository struct {
	db base.DB
}

func NewPostgresSwapRequestRepository(db base.DB) *PostgresSwapRequestRepository {
	return &PostgresSwapRequestRepository{db: db}
}

// Create создаёт новую заявку на обмен в статусе PENDING
func (r *PostgresSwapRequestRepository) Create(ctx context.Context, req *model.SwapRequest) error {
	query := `
		INSERT INTO swap_requests (requester_id, responder_id, my_slot_id, their_slot_id, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRow(
		ctx, query,
		req.RequesterID,
		req.ResponderID,
		req.MySlotID,
		req.TheirSlotID,
		req.Status,
	).Scan(&req.ID, &req.CreatedAt, &req.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create swap request: %w", err)
	}

	return nil
}

func (r *PostgresSwapRequestRepository) scanRequest(row pgx.Row) (*model.SwapRequest, error) {
	var req model.SwapRequest
	err := row.Scan(
		&req.ID,
		&req.RequesterID,
		&req.ResponderID,
		&req.MySlotID,
		&req.TheirSlotID,
		&req.Status,
		&req.CreatedAt,
		&req.UpdatedAt,
	)
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan swap request: %w", err)
	}
	return &req, nil
}

// GetByID получает заявку по ID
func (r *PostgresSwapRequestRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.SwapRequest, error) {
	query := `
		SELECT id, requester_id, responder_id, my_slot_id, their_slot_id, status, created_at, updated_at
		FROM swap_requests
		WHERE id = $1
	`
	return r.scanRequest(r.db.QueryRow(ctx, query, id))
}

// GetByIDForUpdate получает заявку по ID с блокировкой строки
func (r *PostgresSwapRequestRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.SwapRequest, error) {
	query := `
		SELECT id, requester_id, responder_id, my_slot_id, their_slot_id, status, created_at, updated_at
		FROM swap_requests
		WHERE id = $1
		FOR UPDATE
	`
	return r.scanRequest(r.db.QueryRow(ctx, query, id))
}

func (r *PostgresSwapRequestRepository) getByParticipant(ctx context.Context, column string, userID uuid.UUID) ([]*model.SwapRequest, error) {
	query := fmt.Sprintf(`
		SELECT id, requester_id, responder_id, my_slot_id, their_slot_id, status, created_at, updated_at
		FROM swap_requests
		WHERE %s = $1
		ORDER BY created_at DESC
	`, column)

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("get swap requests by %s: %w", column, err)
	}
	defer rows.Close()

	var requests []*model.SwapRequest
	for rows.Next() {
		var req model.SwapRequest
		err := rows.Scan(
			&req.ID,
			&req.RequesterID,
			&req.ResponderID,
			&req.MySlotID,
			&req.TheirSlotID,
			&req.Status,
			&req.CreatedAt,
			&req.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan swap request: %w", err)
		}
		requests = append(requests, &req)
	}

	return requests, rows.Err()
}

// GetByRequester получает исходящие заявки пользователя
func (r *PostgresSwapRequestRepository) GetByRequester(ctx context.Context, userID uuid.UUID) ([]*model.SwapRequest, error) {
	return r.getByParticipant(ctx, "requester_id", userID)
}

// GetByResponder получает входящие заявки пользователя
func (r *PostgresSwapRequestRepository) GetByResponder(ctx context.Context, userID uuid.UUID) ([]*model.SwapRequest, error) {
	return r.getByParticipant(ctx, "responder_id", userID)
}

// UpdateStatus переводит заявку в новый статус
func (r *PostgresSwapRequestRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.SwapStatus) error {
	query := `
		UPDATE swap_requests
		SET status = $1, updated_at = now()
		WHERE id = $2
	`

	tag, err := r.db.Exec(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("update swap request status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update swap request status: %w", model.ErrNotFound)
	}

	return nil
}
