package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"candy-stand/candy-svc/internal/domain"

	"github.com/redis/go-redis/v9"
)

const inventoryPrefix = "inventory:"

var ErrTxContention = errors.New("inventory transaction retries exhausted")

// RedisInventoryStore keeps one JSON document per item and runs transactions with
// WATCH/MULTI, retrying when a watched key changes underneath.
type RedisInventoryStore struct {
	Client     *redis.Client
	MaxRetries int
}

func NewRedisInventoryStore(client *redis.Client, maxRetries int) *RedisInventoryStore {
	if maxRetries <= 0 {
		maxRetries = 1
	}
	return &RedisInventoryStore{Client: client, MaxRetries: maxRetries}
}

func (s *RedisInventoryStore) Key(key domain.ItemKey) string {
	return inventoryPrefix + string(key)
}

func (s *RedisInventoryStore) RunTransaction(ctx context.Context, keys []domain.ItemKey, fn domain.InventoryTxFunc) error {
	keys = uniqueKeys(keys)
	redisKeys := make([]string, len(keys))
	for i, key := range keys {
		redisKeys[i] = s.Key(key)
	}

	var fnErr error
	txf := func(tx *redis.Tx) error {
		records := make(map[domain.ItemKey]*domain.InventoryRecord, len(keys))
		for _, key := range keys {
			record, err := readRecord(ctx, tx, s.Key(key), key)
			if err != nil {
				return err
			}
			if record != nil {
				records[key] = record
			}
		}

		if err := fn(records); err != nil {
			fnErr = err
			return err
		}

		payloads := make(map[string][]byte, len(records))
		for _, key := range keys {
			record, ok := records[key]
			if !ok {
				continue
			}
			record.Key = key
			data, err := json.Marshal(record)
			if err != nil {
				return err
			}
			payloads[s.Key(key)] = data
		}

		if len(payloads) == 0 {
			return nil
		}
		_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			for redisKey, data := range payloads {
				pipe.Set(ctx, redisKey, data, 0)
			}
			return nil
		})
		return err
	}

	for attempt := 0; attempt < s.MaxRetries; attempt++ {
		fnErr = nil
		err := s.Client.Watch(ctx, txf, redisKeys...)
		if err == nil {
			return nil
		}
		if fnErr != nil {
			return fnErr
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return domain.NewPersistenceError("inventory transaction", err)
	}
	return domain.NewPersistenceError("inventory transaction", ErrTxContention)
}

// Get returns nil and no error when the item does not exist.
func (s *RedisInventoryStore) Get(ctx context.Context, key domain.ItemKey) (*domain.InventoryRecord, error) {
	record, err := readRecord(ctx, s.Client, s.Key(key), key)
	if err != nil {
		return nil, domain.NewPersistenceError("read inventory", err)
	}
	return record, nil
}

func (s *RedisInventoryStore) List(ctx context.Context) ([]domain.InventoryRecord, error) {
	var redisKeys []string
	iter := s.Client.Scan(ctx, 0, inventoryPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		redisKeys = append(redisKeys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	sort.Strings(redisKeys)

	records := make([]domain.InventoryRecord, 0, len(redisKeys))
	if len(redisKeys) == 0 {
		return records, nil
	}

	values, err := s.Client.MGet(ctx, redisKeys...).Result()
	if err != nil {
		return nil, err
	}
	for i, value := range values {
		raw, ok := value.(string)
		if !ok {
			continue
		}
		var record domain.InventoryRecord
		if err := json.Unmarshal([]byte(raw), &record); err != nil {
			return nil, fmt.Errorf("decode %s: %w", redisKeys[i], err)
		}
		record.Key = domain.ItemKey(strings.TrimPrefix(redisKeys[i], inventoryPrefix))
		records = append(records, record)
	}
	return records, nil
}

func (s *RedisInventoryStore) Put(ctx context.Context, record domain.InventoryRecord) error {
	if record.Key == "" {
		return domain.NewValidationError("id", "inventory record needs an id")
	}
	data, err := json.Marshal(record)
	if err != nil {
		return err
	}
	return s.Client.Set(ctx, s.Key(record.Key), data, 0).Err()
}

type stringGetter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func readRecord(ctx context.Context, cmd stringGetter, redisKey string, key domain.ItemKey) (*domain.InventoryRecord, error) {
	raw, err := cmd.Get(ctx, redisKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var record domain.InventoryRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, fmt.Errorf("decode %s: %w", redisKey, err)
	}
	record.Key = key
	return &record, nil
}

func uniqueKeys(keys []domain.ItemKey) []domain.ItemKey {
	seen := make(map[domain.ItemKey]struct{}, len(keys))
	out := make([]domain.ItemKey, 0, len(keys))
	for _, key := range keys {
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, key)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
