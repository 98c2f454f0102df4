package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"candy-stand/candy-svc/internal/domain"
)

// PostgresInventoryStore locks rows with SELECT ... FOR UPDATE in key order, so
// concurrent transactions over overlapping items serialize instead of deadlocking.
type PostgresInventoryStore struct {
	DB *sql.DB
}

func NewPostgresInventoryStore(db *sql.DB) *PostgresInventoryStore {
	return &PostgresInventoryStore{DB: db}
}

func (s *PostgresInventoryStore) EnsureSchema(ctx context.Context) error {
	_, err := s.DB.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS inventory (
			id           TEXT PRIMARY KEY,
			name         TEXT NOT NULL DEFAULT '',
			price_cents  BIGINT NOT NULL DEFAULT 0,
			stock        INTEGER NOT NULL DEFAULT 0,
			reservations JSONB NOT NULL DEFAULT '{}'::jsonb
		)`)
	return err
}

func (s *PostgresInventoryStore) RunTransaction(ctx context.Context, keys []domain.ItemKey, fn domain.InventoryTxFunc) error {
	keys = uniqueKeys(keys)

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.NewPersistenceError("begin inventory transaction", err)
	}
	defer tx.Rollback()

	records := make(map[domain.ItemKey]*domain.InventoryRecord, len(keys))
	for _, key := range keys {
		record, err := scanRecord(tx.QueryRowContext(ctx, `
			SELECT id, name, price_cents, stock, reservations
			FROM inventory WHERE id = $1 FOR UPDATE`, string(key)))
		if errors.Is(err, sql.ErrNoRows) {
			continue
		}
		if err != nil {
			return domain.NewPersistenceError("lock inventory", err)
		}
		records[key] = record
	}

	if err := fn(records); err != nil {
		return err
	}

	for _, key := range keys {
		record, ok := records[key]
		if !ok {
			continue
		}
		record.Key = key
		if err := upsertRecord(ctx, tx, record); err != nil {
			return domain.NewPersistenceError("write inventory", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return domain.NewPersistenceError("commit inventory transaction", err)
	}
	return nil
}

// Get returns nil and no error when the item does not exist.
func (s *PostgresInventoryStore) Get(ctx context.Context, key domain.ItemKey) (*domain.InventoryRecord, error) {
	record, err := scanRecord(s.DB.QueryRowContext(ctx, `
		SELECT id, name, price_cents, stock, reservations
		FROM inventory WHERE id = $1`, string(key)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, domain.NewPersistenceError("read inventory", err)
	}
	return record, nil
}

func (s *PostgresInventoryStore) List(ctx context.Context) ([]domain.InventoryRecord, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT id, name, price_cents, stock, reservations
		FROM inventory ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []domain.InventoryRecord{}
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *record)
	}
	return records, rows.Err()
}

func (s *PostgresInventoryStore) Put(ctx context.Context, record domain.InventoryRecord) error {
	if record.Key == "" {
		return domain.NewValidationError("id", "inventory record needs an id")
	}
	return upsertRecord(ctx, s.DB, &record)
}

type rowScanner interface {
	Scan(dest ...any) error
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func scanRecord(row rowScanner) (*domain.InventoryRecord, error) {
	var (
		record domain.InventoryRecord
		id     string
		raw    []byte
	)
	if err := row.Scan(&id, &record.Name, &record.PriceCents, &record.Stock, &raw); err != nil {
		return nil, err
	}
	record.Key = domain.ItemKey(id)
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &record.Reservations); err != nil {
			return nil, err
		}
	}
	return &record, nil
}

func upsertRecord(ctx context.Context, db execer, record *domain.InventoryRecord) error {
	reservations := record.Reservations
	if reservations == nil {
		reservations = map[string]domain.Reservation{}
	}
	raw, err := json.Marshal(reservations)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO inventory (id, name, price_cents, stock, reservations)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name, price_cents = EXCLUDED.price_cents,
			stock = EXCLUDED.stock, reservations = EXCLUDED.reservations`,
		string(record.Key), record.Name, record.PriceCents, record.Stock, raw)
	return err
}
