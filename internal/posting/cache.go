package posting

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cleared-dev/razao/internal/model"
)

// Cache stores derivation results by key.
type Cache interface {
	Get(ctx context.Context, key string) (Result, bool, error)
	Set(ctx context.Context, key string, r Result) error
}

// Key identifies a derivation by its full input: the movement, its
// installments and the directory fingerprint. A change to any of them
// yields a different key.
func Key(m model.Movement, installments []model.Installment, fingerprint string) string {
	sorted := append([]model.Installment(nil), installments...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	payload, _ := json.Marshal(struct {
		Movement     model.Movement      `json:"m"`
		Installments []model.Installment `json:"i"`
		Directory    string              `json:"d"`
	}{m, sorted, fingerprint})

	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

// RedisCache keeps derivation results in Redis as JSON.
type RedisCache struct {
	client redis.Cmdable
	prefix string
	ttl    time.Duration
}

// NewRedisCache creates a RedisCache. A zero ttl keeps entries until evicted.
func NewRedisCache(client redis.Cmdable, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, prefix: "razao:derivation:", ttl: ttl}
}

// Get implements Cache.
func (c *RedisCache) Get(ctx context.Context, key string) (Result, bool, error) {
	data, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return Result{}, false, nil
	}
	if err != nil {
		return Result{}, false, fmt.Errorf("reading derivation cache: %w", err)
	}
	var r Result
	if err := json.Unmarshal(data, &r); err != nil {
		return Result{}, false, fmt.Errorf("decoding cached derivation: %w", err)
	}
	return r, true, nil
}

// Set implements Cache.
func (c *RedisCache) Set(ctx context.Context, key string, r Result) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encoding derivation: %w", err)
	}
	if err := c.client.Set(ctx, c.prefix+key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("writing derivation cache: %w", err)
	}
	return nil
}
