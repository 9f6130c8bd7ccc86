package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound       = errors.New("recurso no encontrado")
	ErrInvalidInput   = errors.New("entrada inválida")
	ErrUnauthorized   = errors.New("no autorizado")
	ErrNoToken        = errors.New("No authentication token found")
	ErrSessionExpired = errors.New("Session expired. Please login again.")
	ErrNoResponse     = errors.New("sin respuesta del backend")
	ErrInvalidBarcode = errors.New("código de barras inválido")
)

// BackendError respuesta no-2xx del backend. Message viene del campo "message" del sobre JSON.
type BackendError struct {
	Status  int
	Message string
}

func (e *BackendError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend: HTTP %d", e.Status)
	}
	return fmt.Sprintf("backend: HTTP %d: %s", e.Status, e.Message)
}

// Is permite errors.Is(err, ErrUnauthorized) / ErrNotFound según el status.
func (e *BackendError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.Status == 401
	case ErrNotFound:
		return e.Status == 404
	}
	return false
}

// AsBackendError extrae el BackendError de una cadena de errores.
func AsBackendError(err error) (*BackendError, bool) {
	var be *BackendError
	if errors.As(err, &be) {
		return be, true
	}
	return nil, false
}

// BackendMessage devuelve el mensaje del backend si lo hay, o fallback.
func BackendMessage(err error, fallback string) string {
	if be, ok := AsBackendError(err); ok && be.Message != "" {
		return be.Message
	}
	return fallback
}
