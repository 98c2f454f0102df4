package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"candy-stand/candy-svc/internal/domain"

	"github.com/google/uuid"
)

type PostgresOrderRepository struct {
	DB *sql.DB
}

func NewPostgresOrderRepository(db *sql.DB) *PostgresOrderRepository {
	return &PostgresOrderRepository{DB: db}
}

func (r *PostgresOrderRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.DB.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS orders (
			id          TEXT PRIMARY KEY,
			lane_number TEXT NOT NULL,
			is_paid     BOOLEAN NOT NULL DEFAULT FALSE,
			items       JSONB NOT NULL,
			customer    JSONB,
			created_at  TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`)
	return err
}

func (r *PostgresOrderRepository) NextOrderID(ctx context.Context) (string, error) {
	return uuid.NewString(), nil
}

// SaveOrder inserts the order once. A second save under the same id returns
// domain.ErrOrderExists and leaves the stored order unchanged.
func (r *PostgresOrderRepository) SaveOrder(ctx context.Context, order *domain.Order) error {
	items, err := json.Marshal(order.Items)
	if err != nil {
		return err
	}
	var customer []byte
	if order.Customer != nil {
		if customer, err = json.Marshal(order.Customer); err != nil {
			return err
		}
	}

	res, err := r.DB.ExecContext(ctx, `
		INSERT INTO orders (id, lane_number, is_paid, items, customer, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO NOTHING`,
		order.ID, order.LaneNumber, order.IsPaid, items, customer, order.CreatedAt)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrOrderExists
	}
	return nil
}

func (r *PostgresOrderRepository) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	var (
		order    domain.Order
		items    []byte
		customer []byte
	)
	err := r.DB.QueryRowContext(ctx, `
		SELECT id, lane_number, is_paid, items, customer, created_at
		FROM orders WHERE id = $1`, id).
		Scan(&order.ID, &order.LaneNumber, &order.IsPaid, &items, &customer, &order.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrOrderNotFound
	}
	if err != nil {
		return nil, domain.NewPersistenceError("read order", err)
	}

	if err := json.Unmarshal(items, &order.Items); err != nil {
		return nil, err
	}
	if len(customer) > 0 {
		order.Customer = &domain.CustomerDetails{}
		if err := json.Unmarshal(customer, order.Customer); err != nil {
			return nil, err
		}
	}
	return &order, nil
}
