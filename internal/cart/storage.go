package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/literaryhaven-backend/pkg/redis"
)

// Storage is the durable key/value port backing a cart. Read reports
// found=false for a missing key.
type Storage interface {
	Read(ctx context.Context, key string) (value string, found bool, err error)
	Write(ctx context.Context, key, value string) error
}

const snapshotVersion = 1

type persistedCart struct {
	Version int        `json:"version"`
	Items   []LineItem `json:"items"`
}

func encodeItems(items []LineItem) (string, error) {
	payload, err := json.Marshal(persistedCart{Version: snapshotVersion, Items: items})
	if err != nil {
		return "", err
	}
	return string(payload), nil
}

// decodeItems accepts the versioned envelope or a bare item array.
func decodeItems(raw string) ([]LineItem, error) {
	var envelope persistedCart
	if err := json.Unmarshal([]byte(raw), &envelope); err == nil {
		if envelope.Version != snapshotVersion {
			return nil, fmt.Errorf("unsupported cart version %d", envelope.Version)
		}
		return envelope.Items, nil
	}
	var items []LineItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, fmt.Errorf("decode cart: %w", err)
	}
	return items, nil
}

// sanitize restores the line item invariants on data read back from storage.
func sanitize(items []LineItem) []LineItem {
	out := make([]LineItem, 0, len(items))
	index := make(map[uuid.UUID]int, len(items))
	for _, item := range items {
		if item.Product.ID == uuid.Nil || item.Product.Price.IsNegative() || item.Quantity < 1 {
			continue
		}
		if pos, ok := index[item.Product.ID]; ok {
			merged := out[pos]
			merged.Quantity = clampQuantity(merged.Quantity+item.Quantity, merged.Product.StockQuantity)
			out[pos] = merged
			continue
		}
		item.Quantity = clampQuantity(item.Quantity, item.Product.StockQuantity)
		if item.Quantity < 1 {
			continue
		}
		index[item.Product.ID] = len(out)
		out = append(out, item)
	}
	return out
}

type redisKV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
}

// RedisStorage persists carts in Redis with a sliding TTL refreshed on write.
type RedisStorage struct {
	client redisKV
	ttl    time.Duration
}

// NewRedisStorage builds a Redis-backed cart storage.
func NewRedisStorage(client redisKV, ttl time.Duration) (*RedisStorage, error) {
	if client == nil {
		return nil, errors.New("redis client required")
	}
	return &RedisStorage{client: client, ttl: ttl}, nil
}

func (s *RedisStorage) Read(ctx context.Context, key string) (string, bool, error) {
	value, err := s.client.Get(ctx, key)
	if redis.IsNil(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (s *RedisStorage) Write(ctx context.Context, key, value string) error {
	return s.client.Set(ctx, key, value, s.ttl)
}

// MemoryStorage keeps carts in process memory.
type MemoryStorage struct {
	mu   sync.RWMutex
	data map[string]string
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{data: make(map[string]string)}
}

func (s *MemoryStorage) Read(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.data[key]
	return value, ok, nil
}

func (s *MemoryStorage) Write(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
	return nil
}
