package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/pilo-web/internal/domain/repository"
	"github.com/jhoicas/pilo-web/pkg/config"
)

var _ repository.ClientStateRepository = (*RedisStore)(nil)

// NewRedisClient crea el cliente y verifica la conexión con un ping corto.
func NewRedisClient(ctx context.Context, cfg config.StorageConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPass,
		DB:       cfg.RedisDB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis: ping %s: %w", cfg.RedisAddr, err)
	}
	return client, nil
}

// RedisStore guarda cada namespace como un hash "pilo:state:<namespace>" con TTL deslizante.
type RedisStore struct {
	rdb    *redis.Client
	ttl    time.Duration
	prefix string
}

// NewRedisStore construye el store. ttl <= 0 deja las claves sin expiración.
func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl, prefix: "pilo:state:"}
}

func (s *RedisStore) key(namespace string) string { return s.prefix + namespace }

func (s *RedisStore) Get(ctx context.Context, namespace, key string) (string, error) {
	v, err := s.rdb.HGet(ctx, s.key(namespace), key).Result()
	if errors.Is(err, redis.Nil) {
		return "", repository.ErrStateNotFound
	}
	if err != nil {
		return "", fmt.Errorf("redis: hget: %w", err)
	}
	return v, nil
}

func (s *RedisStore) Set(ctx context.Context, namespace, key, value string) error {
	k := s.key(namespace)
	pipe := s.rdb.TxPipeline()
	pipe.HSet(ctx, k, key, value)
	if s.ttl > 0 {
		pipe.Expire(ctx, k, s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: hset: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, namespace string, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := s.rdb.HDel(ctx, s.key(namespace), keys...).Err(); err != nil {
		return fmt.Errorf("redis: hdel: %w", err)
	}
	return nil
}
