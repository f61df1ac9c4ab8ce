package deduplication

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// BloomConfig configures the RedisBloom connection.
type BloomConfig struct {
	Addr     string // e.g. localhost:6379
	Password string
	DB       int
	// KeyPrefix is joined with each namespace to form the filter key.
	KeyPrefix string
	TTL       time.Duration
	// Capacity sets the initial BF.RESERVE capacity (number of items)
	Capacity int
	// ErrorRate sets the desired false positive probability (e.g. 0.001)
	ErrorRate float64
}

// RedisBloom is a minimal Redis-backed Bloom client using RedisBloom commands.
type RedisBloom struct {
	client *redis.Client
	cfg    BloomConfig
}

// NewRedisBloom connects to Redis and verifies connectivity.
func NewRedisBloom(ctx context.Context, cfg BloomConfig) (*RedisBloom, error) {
	if cfg.Capacity <= 0 {
		cfg.Capacity = 100000
	}
	if cfg.ErrorRate <= 0 {
		cfg.ErrorRate = 0.001
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 30 * 24 * time.Hour
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr, err)
	}
	return &RedisBloom{client: client, cfg: cfg}, nil
}

func (r *RedisBloom) Close() error {
	return r.client.Close()
}

func (r *RedisBloom) key(namespace string) string {
	return r.cfg.KeyPrefix + ":" + namespace
}

// reserve creates the filter for namespace if it does not exist yet. Failure
// is tolerated because BF.ADD auto-creates filters with default sizing.
func (r *RedisBloom) reserve(ctx context.Context, namespace string) {
	key := r.key(namespace)
	exists, err := r.client.Exists(ctx, key).Result()
	if err != nil || exists != 0 {
		return
	}
	_ = r.client.Do(ctx, "BF.RESERVE", key, fmt.Sprintf("%f", r.cfg.ErrorRate), r.cfg.Capacity).Err()
}

// Exists runs BF.EXISTS.
func (r *RedisBloom) Exists(ctx context.Context, namespace, hash string) (bool, error) {
	res, err := r.client.Do(ctx, "BF.EXISTS", r.key(namespace), hash).Result()
	if err != nil {
		return false, err
	}
	switch v := res.(type) {
	case int64:
		return v == 1, nil
	case bool:
		return v, nil
	case string:
		return v == "1", nil
	default:
		return false, fmt.Errorf("unexpected BF.EXISTS response type %T: %v", res, res)
	}
}

// Add runs BF.ADD and slides the key TTL forward.
func (r *RedisBloom) Add(ctx context.Context, namespace, hash string) error {
	key := r.key(namespace)
	if err := r.client.Do(ctx, "BF.ADD", key, hash).Err(); err != nil {
		return err
	}
	return r.client.Expire(ctx, key, r.cfg.TTL).Err()
}

// BloomStore fronts a Store with a Bloom filter. A filter miss answers
// "absent" without touching the backing store; a hit is confirmed by it, so
// false positives never hide a new record. Redis errors fall through to the
// backing store.
type BloomStore struct {
	Store
	bloom     *RedisBloom
	namespace string
	logger    *slog.Logger
}

// NewBloomStore wraps next and seeds the filter from its current entries.
func NewBloomStore(ctx context.Context, next Store, bloom *RedisBloom, namespace string, logger *slog.Logger) (*BloomStore, error) {
	bs := &BloomStore{Store: next, bloom: bloom, namespace: namespace, logger: logger}
	bloom.reserve(ctx, namespace)

	entries, err := next.Entries(ctx)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if err := bloom.Add(ctx, namespace, e.Hash); err != nil {
			logger.Warn("bloom seed failed; continuing without it", "namespace", namespace, "error", err)
			break
		}
	}
	return bs, nil
}

func (b *BloomStore) Contains(ctx context.Context, hash string) (bool, error) {
	maybe, err := b.bloom.Exists(ctx, b.namespace, hash)
	if err != nil {
		b.logger.Warn("bloom lookup failed", "namespace", b.namespace, "error", err)
		return b.Store.Contains(ctx, hash)
	}
	if !maybe {
		return false, nil
	}
	return b.Store.Contains(ctx, hash)
}

func (b *BloomStore) Add(ctx context.Context, hash string, meta map[string]any) (bool, error) {
	added, err := b.Store.Add(ctx, hash, meta)
	if err != nil {
		return false, err
	}
	if err := b.bloom.Add(ctx, b.namespace, hash); err != nil {
		b.logger.Warn("bloom add failed", "namespace", b.namespace, "error", err)
	}
	return added, nil
}
