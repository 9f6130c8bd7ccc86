package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/pilo-web/internal/domain/repository"
	"github.com/jhoicas/pilo-web/pkg/config"
)

// Opened resultado de Open: el repositorio, el cliente Redis (si aplica) y un closer.
type Opened struct {
	Repo   repository.ClientStateRepository
	Redis  *redis.Client
	closer io.Closer
}

// Close libera el backend subyacente.
func (o *Opened) Close() error {
	if o.closer == nil {
		return nil
	}
	return o.closer.Close()
}

// Open selecciona el driver configurado.
func Open(ctx context.Context, cfg config.StorageConfig) (*Opened, error) {
	switch cfg.Driver {
	case "", "memory":
		return &Opened{Repo: NewMemoryStore()}, nil
	case "redis":
		rdb, err := NewRedisClient(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return &Opened{Repo: NewRedisStore(rdb, cfg.RedisTTL), Redis: rdb, closer: rdb}, nil
	case "sqlite":
		st, err := NewSQLiteStore(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return &Opened{Repo: st, closer: st}, nil
	default:
		return nil, fmt.Errorf("storage: driver desconocido %q", cfg.Driver)
	}
}
