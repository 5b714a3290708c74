package cache

import (
	"context"
	"time"

	"github.com/nsprime0-ui/prime-downloader-backend/pkg/logger"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

var log = logger.Get("Cache")

// keyNamespace prefixes every cache key to avoid collision with
// unrelated uses of the same store.
const keyNamespace = "prime:extract:"

// Config controls the optional lookup cache. An empty address disables
// caching entirely (a no-op store is injected instead).
type Config struct {
	RedisAddr     string `yaml:"redis_addr" env:"REDIS_ADDR"`
	RedisPassword string `yaml:"redis_password" env:"REDIS_PASSWORD"`
	RedisDB       int    `yaml:"redis_db" env:"REDIS_DB" env-default:"0"`
	TTLSecs       int    `yaml:"ttl" env:"CACHE_TTL" env-default:"300"`
}

// Store is the advisory lookup cache for serialized extraction
// payloads. Implementations must never fail a request: a read error is
// a miss and a write error is a no-op.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, payload []byte)
}

// New constructs the store appropriate for the provided config: a
// redis-backed store when an address is configured, otherwise the
// no-op store.
func New(config Config) Store {
	if config.RedisAddr == "" {
		log.Emit(logger.INFO, "No cache store configured, lookup caching disabled\n")
		return NoopStore{}
	}

	return &redisStore{
		client: redis.NewClient(&redis.Options{
			Addr:     config.RedisAddr,
			Password: config.RedisPassword,
			DB:       config.RedisDB,
		}),
		ttl: time.Duration(config.TTLSecs) * time.Second,
	}
}

type redisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func (store *redisStore) Get(ctx context.Context, key string) ([]byte, bool) {
	payload, err := store.client.Get(ctx, keyNamespace+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Emit(logger.WARNING, "Cache read for %s failed, treating as miss: %v\n", key, err)
		}
		return nil, false
	}

	return payload, true
}

func (store *redisStore) Set(ctx context.Context, key string, payload []byte) {
	if err := store.client.Set(ctx, keyNamespace+key, payload, store.ttl).Err(); err != nil {
		log.Emit(logger.WARNING, "Cache write for %s failed, entry not stored: %v\n", key, err)
	}
}

// NoopStore satisfies Store while performing no caching at all. It is
// injected when no cache store is configured so the pipeline never
// needs to branch on a global flag.
type NoopStore struct{}

func (NoopStore) Get(context.Context, string) ([]byte, bool) { return nil, false }
func (NoopStore) Set(context.Context, string, []byte)        {}
