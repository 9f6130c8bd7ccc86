package dto

import (
	"strings"
	"time"

	"github.com/jhoicas/pilo-web/internal/domain/entity"
)

// BackendRequest petición cruda al backend. Token se envía tal cual en Authorization.
type BackendRequest struct {
	Method string
	Path   string
	Token  string
	Body   any
}

// BackendResponse respuesta 2xx. RotatedToken no vacío si el backend entregó un token nuevo.
type BackendResponse struct {
	Status       int
	Body         []byte
	RotatedToken string
}

// AuthResult data de login/signup.
type AuthResult struct {
	Token string      `json:"token"`
	User  entity.User `json:"user"`
}

// BearerToken valor a persistir: el token con prefijo "Bearer " salvo que ya lo traiga.
func (a AuthResult) BearerToken() string {
	return WithBearer(a.Token)
}

// WithBearer antepone "Bearer " si el token no trae ya el esquema.
func WithBearer(token string) string {
	t := strings.TrimSpace(token)
	if t == "" {
		return ""
	}
	if len(t) > 7 && strings.EqualFold(t[:7], "Bearer ") {
		return t
	}
	return "Bearer " + t
}

// HistoryAddRequest cuerpo de POST /data/history/add.
type HistoryAddRequest struct {
	ProductCode string          `json:"productCode"`
	Timestamp   time.Time       `json:"timestamp"`
	ProductData *entity.Product `json:"productData,omitempty"`
}
