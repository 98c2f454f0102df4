package service

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"candy-stand/candy-svc/internal/domain"

	"go.uber.org/zap"
)

// LoadSeed reads a JSON array of inventory records.
func LoadSeed(path string) ([]domain.InventoryRecord, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed %s: %w", path, err)
	}
	var records []domain.InventoryRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("decode seed %s: %w", path, err)
	}
	return records, nil
}

// SeedInventory creates records that do not exist yet. Existing records keep their
// stock and holds, so restarting with the same seed is harmless.
func SeedInventory(ctx context.Context, store InventoryStore, records []domain.InventoryRecord, logger *zap.Logger) (int, error) {
	created := 0
	for _, record := range records {
		key, err := domain.ResolveItemKey(string(record.Key), record.Name)
		if err != nil {
			return created, err
		}
		record.Key = key

		existing, err := store.Get(ctx, key)
		if err != nil {
			return created, err
		}
		if existing != nil {
			continue
		}
		if record.Reservations == nil {
			record.Reservations = map[string]domain.Reservation{}
		}
		if err := store.Put(ctx, record); err != nil {
			return created, domain.NewPersistenceError("seed inventory", err)
		}
		created++
		logger.Info("seeded inventory item", zap.String("item", string(key)), zap.Int("stock", record.Stock))
	}
	return created, nil
}
