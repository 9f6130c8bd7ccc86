package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/jhoicas/pilo-web/internal/application/dto"
	"github.com/jhoicas/pilo-web/internal/application/ports"
	"github.com/jhoicas/pilo-web/internal/domain/entity"
)

type userData struct {
	User entity.User `json:"user"`
}

// Login POST /auth/login.
func (c *Client) Login(ctx context.Context, creds entity.Credentials) (*dto.AuthResult, error) {
	return c.authenticate(ctx, PathLogin, creds)
}

// Signup POST /auth/signup.
func (c *Client) Signup(ctx context.Context, reg entity.Registration) (*dto.AuthResult, error) {
	return c.authenticate(ctx, PathSignup, reg)
}

func (c *Client) authenticate(ctx context.Context, path string, body any) (*dto.AuthResult, error) {
	resp, err := c.Do(ctx, Request{Method: http.MethodPost, Path: path, Body: body})
	if err != nil {
		return nil, err
	}
	var out dto.AuthResult
	if err := DecodeData(resp.Body, &out); err != nil {
		return nil, err
	}
	if out.Token == "" {
		return nil, fmt.Errorf("backend: %s sin token", path)
	}
	return &out, nil
}

// Logout POST /auth/logout.
func (c *Client) Logout(ctx context.Context, token string) error {
	_, err := c.Do(ctx, Request{Method: http.MethodPost, Path: PathLogout, Token: token})
	return err
}

// Me GET /auth/me.
func (c *Client) Me(ctx context.Context, token string) (*entity.User, error) {
	resp, err := c.Do(ctx, Request{Method: http.MethodGet, Path: PathMe, Token: token})
	if err != nil {
		return nil, err
	}
	return DecodeUser(resp.Body)
}

// DecodeUser extrae data.user de una respuesta de /auth/me.
func DecodeUser(raw []byte) (*entity.User, error) {
	var out userData
	if err := DecodeData(raw, &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}

// ── API autenticada (token gestionado por la sesión) ──────────────────────────

// Doer ejecuta una petición autenticada y devuelve el cuerpo de la respuesta.
// Lo implementa session.Store, que aplica la rotación de token y el manejo de 401.
type Doer interface {
	AuthenticatedRequest(ctx context.Context, method, path string, body any) ([]byte, error)
}

// Verificar en tiempo de compilación que API implementa ProductAPI.
var _ ports.ProductAPI = (*API)(nil)

// API llamadas tipadas sobre un Doer.
type API struct {
	doer Doer
	now  func() time.Time
}

// NewAPI construye la API tipada.
func NewAPI(doer Doer) *API {
	return &API{doer: doer, now: time.Now}
}

// Product GET /api/v1/barcode/{code}. El producto viene en la raíz del cuerpo; nil si el backend no envió datos.
func (a *API) Product(ctx context.Context, code string) (*entity.Product, error) {
	raw, err := a.doer.AuthenticatedRequest(ctx, http.MethodGet, PathProduct+url.PathEscape(code), nil)
	if err != nil {
		return nil, err
	}
	if body := bytes.TrimSpace(raw); len(body) == 0 || string(body) == "null" {
		return nil, nil
	}
	var p entity.Product
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("backend: deserializar producto: %w", err)
	}
	if p.Code == "" {
		p.Code = code
	}
	return &p, nil
}

// AddHistory POST /data/history/add.
func (a *API) AddHistory(ctx context.Context, code string, p *entity.Product) error {
	_, err := a.doer.AuthenticatedRequest(ctx, http.MethodPost, PathHistoryAdd, dto.HistoryAddRequest{
		ProductCode: code,
		Timestamp:   a.now().UTC(),
		ProductData: p,
	})
	return err
}

// History GET /data/history, ordenado por recencia según lo entrega el backend.
func (a *API) History(ctx context.Context) ([]entity.HistoryEntry, error) {
	raw, err := a.doer.AuthenticatedRequest(ctx, http.MethodGet, PathHistory, nil)
	if err != nil {
		return nil, err
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("backend: deserializar historial: %w", err)
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return []entity.HistoryEntry{}, nil
	}
	var out []entity.HistoryEntry
	if err := json.Unmarshal(env.Data, &out); err != nil {
		return nil, fmt.Errorf("backend: deserializar historial: %w", err)
	}
	return out, nil
}
