package repository

import (
	"context"
	"errors"
)

// Claves persistidas por cliente (mismo nombre que usaba el almacenamiento del navegador).
const (
	KeyToken = "token"
	KeyUser  = "user"
)

// ErrStateNotFound la clave no existe en el namespace.
var ErrStateNotFound = errors.New("clave de estado no encontrada")

// ClientStateRepository almacenamiento durable clave/valor del lado cliente, particionado
// por namespace (id de sesión del navegador o perfil local del CLI).
type ClientStateRepository interface {
	Get(ctx context.Context, namespace, key string) (string, error)
	Set(ctx context.Context, namespace, key, value string) error
	Delete(ctx context.Context, namespace string, keys ...string) error
}
