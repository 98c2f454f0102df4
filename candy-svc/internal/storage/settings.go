package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/redis/go-redis/v9"
)

const ShopSettingsKey = "config:shop"

type shopDocument struct {
	IsOpen bool `json:"isOpen"`
}

// RedisShopSettings reads the shop flag from a JSON document at ShopSettingsKey.
type RedisShopSettings struct {
	Client *redis.Client
}

func NewRedisShopSettings(client *redis.Client) *RedisShopSettings {
	return &RedisShopSettings{Client: client}
}

func (s *RedisShopSettings) ShopOpen(ctx context.Context) (bool, bool, error) {
	raw, err := s.Client.Get(ctx, ShopSettingsKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, false, nil
	}
	if err != nil {
		return false, false, err
	}
	var doc shopDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return false, false, err
	}
	return doc.IsOpen, true, nil
}

func (s *RedisShopSettings) SetShopOpen(ctx context.Context, open bool) error {
	data, err := json.Marshal(shopDocument{IsOpen: open})
	if err != nil {
		return err
	}
	return s.Client.Set(ctx, ShopSettingsKey, data, 0).Err()
}

type PostgresShopSettings struct {
	DB *sql.DB
}

func NewPostgresShopSettings(db *sql.DB) *PostgresShopSettings {
	return &PostgresShopSettings{DB: db}
}

func (s *PostgresShopSettings) EnsureSchema(ctx context.Context) error {
	_, err := s.DB.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS shop_settings (
			id      TEXT PRIMARY KEY,
			is_open BOOLEAN NOT NULL
		)`)
	return err
}

func (s *PostgresShopSettings) ShopOpen(ctx context.Context) (bool, bool, error) {
	var open bool
	err := s.DB.QueryRowContext(ctx, `SELECT is_open FROM shop_settings WHERE id = 'shop'`).Scan(&open)
	if errors.Is(err, sql.ErrNoRows) {
		return false, false, nil
	}
	if err != nil {
		return false, false, err
	}
	return open, true, nil
}

func (s *PostgresShopSettings) SetShopOpen(ctx context.Context, open bool) error {
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO shop_settings (id, is_open) VALUES ('shop', $1)
		ON CONFLICT (id) DO UPDATE SET is_open = EXCLUDED.is_open`, open)
	return err
}
