package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"candy-stand/ledger-svc/internal/domain"

	"github.com/redis/go-redis/v9"
)

const (
	salesRetention = 7 * 24 * time.Hour
	salesTxRetries = 10
)

type Store struct {
	db  *sql.DB
	rdb *redis.Client
}

func NewStore(db *sql.DB, rdb *redis.Client) *Store {
	return &Store{
		db:  db,
		rdb: rdb,
	}
}

func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS order_log (
			id           BIGSERIAL PRIMARY KEY,
			logged_at    TIMESTAMPTZ NOT NULL,
			order_id     TEXT NOT NULL UNIQUE,
			lane_number  TEXT NOT NULL,
			is_paid      BOOLEAN NOT NULL,
			item_summary TEXT NOT NULL,
			customer     JSONB NOT NULL DEFAULT '{}'::jsonb
		)`)
	return err
}

// AppendRow adds one row per order; a redelivered order is reported as not inserted.
func (s *Store) AppendRow(ctx context.Context, msg domain.OrderLogMessage) (bool, error) {
	customer := msg.CustomerJSON
	if customer == "" {
		customer = "{}"
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO order_log (logged_at, order_id, lane_number, is_paid, item_summary, customer)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (order_id) DO NOTHING
	`, msg.Timestamp, msg.OrderID, msg.LaneNumber, msg.IsPaid, msg.ItemSummary, customer)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// UpdateSales bumps the day's per-item quantities and the paid/table order counts. Each
// order id is counted once per day, so replays after a partial failure are safe.
func (s *Store) UpdateSales(ctx context.Context, msg domain.OrderLogMessage) error {
	day := msg.Day()
	itemsKey := DailyItemsKey(day)
	ordersKey := DailyOrdersKey(day)
	countedKey := DailyCountedKey(day)

	field := "table"
	if msg.IsPaid {
		field = "paid"
	}

	txf := func(tx *redis.Tx) error {
		counted, err := tx.SIsMember(ctx, countedKey, msg.OrderID).Result()
		if err != nil {
			return err
		}
		if counted {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			for _, item := range msg.Items {
				pipe.ZIncrBy(ctx, itemsKey, float64(item.Quantity), item.Name)
			}
			pipe.HIncrBy(ctx, ordersKey, field, 1)
			pipe.SAdd(ctx, countedKey, msg.OrderID)
			pipe.Expire(ctx, itemsKey, salesRetention)
			pipe.Expire(ctx, ordersKey, salesRetention)
			pipe.Expire(ctx, countedKey, salesRetention)
			return nil
		})
		return err
	}

	for attempt := 0; attempt < salesTxRetries; attempt++ {
		err := s.rdb.Watch(ctx, txf, countedKey)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return redis.TxFailedErr
}

func DailyItemsKey(day string) string {
	return "sales:daily:" + day + ":items"
}

func DailyOrdersKey(day string) string {
	return "sales:daily:" + day + ":orders"
}

func DailyCountedKey(day string) string {
	return "sales:daily:" + day + ":counted"
}
