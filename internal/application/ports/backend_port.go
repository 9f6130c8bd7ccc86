package ports

import (
	"context"

	"github.com/jhoicas/pilo-web/internal/application/dto"
	"github.com/jhoicas/pilo-web/internal/domain/entity"
)

// AuthBackend puerto de salida hacia el backend de Pilo.
// El token viaja explícito en cada llamada: la implementación no guarda estado por usuario.
type AuthBackend interface {
	// Do petición cruda; errores no-2xx como *domain.BackendError, sin respuesta como domain.ErrNoResponse.
	Do(ctx context.Context, req dto.BackendRequest) (*dto.BackendResponse, error)
	Login(ctx context.Context, creds entity.Credentials) (*dto.AuthResult, error)
	Signup(ctx context.Context, reg entity.Registration) (*dto.AuthResult, error)
	Logout(ctx context.Context, token string) error
	Me(ctx context.Context, token string) (*entity.User, error)
}

// ProductAPI llamadas autenticadas de producto e historial. El token lo gestiona la sesión.
type ProductAPI interface {
	Product(ctx context.Context, code string) (*entity.Product, error)
	AddHistory(ctx context.Context, code string, p *entity.Product) error
	History(ctx context.Context) ([]entity.HistoryEntry, error)
}
