// Package cache provides a Redis-backed embedding cache that decorates any embedder.
//
// Vectors are stored under a key derived from the model name and the SHA-256
// of the text, so switching models never serves stale vectors. The cache is
// best effort: a Redis failure is logged and the call falls through to the
// wrapped embedder.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/custodia-labs/ragcore/internal/core/ports/driven"
	"github.com/custodia-labs/ragcore/internal/logger"
)

var log = logger.With("embedding cache")

// Ensure Embedder implements the interface.
var _ driven.Embedder = (*Embedder)(nil)

// DefaultTTL is how long a cached vector lives when no TTL is configured.
const DefaultTTL = 24 * time.Hour

const keyPrefix = "ragcore:emb:"

// Client is the subset of the Redis client used by the cache.
// *redis.Client satisfies it.
type Client interface {
	MGet(ctx context.Context, keys ...string) *redis.SliceCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Ping(ctx context.Context) *redis.StatusCmd
	Close() error
}

// Options holds configuration for connecting to Redis.
type Options struct {
	// Address is host:port or a redis:// URL.
	Address string

	// Password is the password used to authenticate.
	Password string

	// DB is the database index to select.
	DB int

	// TTL is the lifetime of cached vectors (default: 24h).
	TTL time.Duration
}

// Embedder caches the vectors of a wrapped embedder in Redis.
type Embedder struct {
	inner  driven.Embedder
	client Client
	ttl    time.Duration
}

// NewClient opens a Redis client for the given options.
func NewClient(opts Options) (*redis.Client, error) {
	if opts.Address == "" {
		return nil, errors.New("redis address is required")
	}
	if strings.Contains(opts.Address, "://") {
		parsed, err := redis.ParseURL(opts.Address)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		if opts.Password != "" {
			parsed.Password = opts.Password
		}
		return redis.NewClient(parsed), nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     opts.Address,
		Password: opts.Password,
		DB:       opts.DB,
	}), nil
}

// New wraps inner with a cache stored through client.
func New(inner driven.Embedder, client Client, ttl time.Duration) *Embedder {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Embedder{inner: inner, client: client, ttl: ttl}
}

// Embed returns the cached vector for text, embedding it on a miss.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.EmbedMany(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedMany looks every text up in one round trip and embeds only the misses.
func (e *Embedder) EmbedMany(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	keys := make([]string, len(texts))
	for i, text := range texts {
		keys[i] = e.key(text)
	}

	vectors := make([][]float32, len(texts))
	cached, err := e.client.MGet(ctx, keys...).Result()
	if err != nil {
		log.Warn("lookup failed, embedding without cache: %v", err)
		cached = nil
	}
	for i, v := range cached {
		s, ok := v.(string)
		if !ok {
			continue
		}
		vec, err := decodeVector([]byte(s))
		if err != nil {
			log.Warn("ignoring malformed cache entry %s: %v", keys[i], err)
			continue
		}
		vectors[i] = vec
	}

	var missIdx []int
	var missTexts []string
	for i, vec := range vectors {
		if vec == nil {
			missIdx = append(missIdx, i)
			missTexts = append(missTexts, texts[i])
		}
	}
	if len(missTexts) == 0 {
		log.Debug("%d/%d hits", len(texts), len(texts))
		return vectors, nil
	}

	fresh, err := e.inner.EmbedMany(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	if len(fresh) != len(missTexts) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d texts", len(fresh), len(missTexts))
	}

	for j, i := range missIdx {
		vectors[i] = fresh[j]
		if err := e.client.Set(ctx, keys[i], encodeVector(fresh[j]), e.ttl).Err(); err != nil {
			log.Warn("store %s: %v", keys[i], err)
		}
	}
	log.Debug("%d/%d hits", len(texts)-len(missTexts), len(texts))
	return vectors, nil
}

// Dimensions returns the wrapped embedder's vector size.
func (e *Embedder) Dimensions() int {
	return e.inner.Dimensions()
}

// ModelName returns the wrapped embedder's model.
func (e *Embedder) ModelName() string {
	return e.inner.ModelName()
}

// Ping checks the wrapped embedder. An unreachable cache is only logged.
func (e *Embedder) Ping(ctx context.Context) error {
	if err := e.client.Ping(ctx).Err(); err != nil {
		log.Warn("redis unreachable, cache disabled until it recovers: %v", err)
	}
	return e.inner.Ping(ctx)
}

// Close closes the Redis client and the wrapped embedder.
func (e *Embedder) Close() error {
	return errors.Join(e.client.Close(), e.inner.Close())
}

func (e *Embedder) key(text string) string {
	sum := sha256.Sum256([]byte(text))
	return keyPrefix + e.inner.ModelName() + ":" + hex.EncodeToString(sum[:])
}

func encodeVector(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func decodeVector(b []byte) ([]float32, error) {
	if len(b) == 0 || len(b)%4 != 0 {
		return nil, fmt.Errorf("invalid vector payload of %d bytes", len(b))
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v, nil
}
