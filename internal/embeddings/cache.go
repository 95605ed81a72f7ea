package embeddings

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"log/slog"
	"math"
	"time"

	pgvector "github.com/pgvector/pgvector-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/rueidis"
)

const cacheKeyPrefix = "scriptorium:emb:"

// KV is the consumer interface for the embedding cache.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte)
}

// Cached is a caching decorator around a Provider. Entries are keyed by the
// SHA-256 of the input text, so identical text never hits the model twice.
type Cached struct {
	inner      Provider
	kv         KV
	cacheTotal *prometheus.CounterVec
	logger     *slog.Logger
}

// NewCached wraps a provider with a cache. cacheTotal is a counter vec with
// label "result" ("hit"/"miss"); it may be nil.
func NewCached(inner Provider, kv KV, cacheTotal *prometheus.CounterVec, logger *slog.Logger) *Cached {
	return &Cached{inner: inner, kv: kv, cacheTotal: cacheTotal, logger: logger}
}

// Name returns the inner provider name.
func (c *Cached) Name() string { return c.inner.Name() }

// Embed returns a cached embedding or calls the inner provider and caches
// the result. Cache failures degrade to a miss, never to an error.
func (c *Cached) Embed(ctx context.Context, text string) (pgvector.Vector, error) {
	key := cacheKey(text)

	if data, ok := c.kv.Get(ctx, key); ok {
		if vec, err := bytesToVector(data); err == nil {
			c.count("hit")
			return pgvector.NewVector(vec), nil
		}
		c.logger.Warn("discarding malformed cached embedding", "key", key)
	}
	c.count("miss")

	vec, err := c.inner.Embed(ctx, text)
	if err != nil {
		return pgvector.Vector{}, err
	}

	c.kv.Set(ctx, key, vectorToBytes(vec.Slice()))
	return vec, nil
}

func (c *Cached) count(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(result).Inc()
	}
}

func cacheKey(text string) string {
	h := sha256.Sum256([]byte(text))
	return cacheKeyPrefix + hex.EncodeToString(h[:])
}

func vectorToBytes(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func bytesToVector(data []byte) ([]float32, error) {
	if len(data) == 0 || len(data)%4 != 0 {
		return nil, fmt.Errorf("embedding payload length %d is not a multiple of 4", len(data))
	}
	vec := make([]float32, len(data)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return vec, nil
}

// RedisKV implements KV over a rueidis client. Errors are logged and treated
// as misses so a cache outage never blocks embedding.
type RedisKV struct {
	client rueidis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewRedisKV connects to Redis at addr. ttl bounds entry lifetime; zero
// means no expiry.
func NewRedisKV(addr string, ttl time.Duration, logger *slog.Logger) (*RedisKV, error) {
	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  []string{addr},
		DisableCache: true,
	})
	if err != nil {
		return nil, fmt.Errorf("creating redis client: %w", err)
	}
	return &RedisKV{client: client, ttl: ttl, logger: logger}, nil
}

// Get retrieves a value by key.
func (r *RedisKV) Get(ctx context.Context, key string) ([]byte, bool) {
	cmd := r.client.B().Get().Key(key).Build()
	data, err := r.client.Do(ctx, cmd).AsBytes()
	if err != nil {
		if !rueidis.IsRedisNil(err) {
			r.logger.Warn("embedding cache get failed", "key", key, "error", err)
		}
		return nil, false
	}
	return data, true
}

// Set stores a value at the given key.
func (r *RedisKV) Set(ctx context.Context, key string, value []byte) {
	var cmd rueidis.Completed
	if r.ttl > 0 {
		cmd = r.client.B().Set().Key(key).Value(rueidis.BinaryString(value)).Ex(r.ttl).Build()
	} else {
		cmd = r.client.B().Set().Key(key).Value(rueidis.BinaryString(value)).Build()
	}
	if err := r.client.Do(ctx, cmd).Error(); err != nil {
		r.logger.Warn("embedding cache set failed", "key", key, "error", err)
	}
}

// Close shuts down the client.
func (r *RedisKV) Close() {
	r.client.Close()
}
