package storage

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

var _ fiber.Storage = (*FiberRedisStorage)(nil)

// FiberRedisStorage adapta go-redis a fiber.Storage para que el limiter de login
// comparta contadores entre réplicas.
type FiberRedisStorage struct {
	rdb    *redis.Client
	prefix string
}

// NewFiberRedisStorage construye el adaptador con el prefijo dado.
func NewFiberRedisStorage(rdb *redis.Client, prefix string) *FiberRedisStorage {
	return &FiberRedisStorage{rdb: rdb, prefix: prefix}
}

func (s *FiberRedisStorage) Get(key string) ([]byte, error) {
	if key == "" {
		return nil, nil
	}
	val, err := s.rdb.Get(context.Background(), s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	return val, err
}

func (s *FiberRedisStorage) Set(key string, val []byte, exp time.Duration) error {
	if key == "" || len(val) == 0 {
		return nil
	}
	return s.rdb.Set(context.Background(), s.prefix+key, val, exp).Err()
}

func (s *FiberRedisStorage) Delete(key string) error {
	if key == "" {
		return nil
	}
	return s.rdb.Del(context.Background(), s.prefix+key).Err()
}

// Reset borra solo las claves con el prefijo propio.
func (s *FiberRedisStorage) Reset() error {
	ctx := context.Background()
	iter := s.rdb.Scan(ctx, 0, s.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := s.rdb.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

// Close no cierra el cliente: lo comparte el ClientState.
func (s *FiberRedisStorage) Close() error { return nil }
