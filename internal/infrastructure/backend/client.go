package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jhoicas/pilo-web/internal/application/dto"
	"github.com/jhoicas/pilo-web/internal/application/ports"
	"github.com/jhoicas/pilo-web/internal/domain"
	"github.com/jhoicas/pilo-web/pkg/config"
)

// Verificar en tiempo de compilación que Client implementa AuthBackend.
var _ ports.AuthBackend = (*Client)(nil)

// Rutas del backend.
const (
	PathSignup     = "/auth/signup"
	PathLogin      = "/auth/login"
	PathLogout     = "/auth/logout"
	PathMe         = "/auth/me"
	PathProduct    = "/api/v1/barcode/"
	PathHistory    = "/data/history"
	PathHistoryAdd = "/data/history/add"
)

// maxBody límite de lectura de respuestas (historiales largos con imágenes en URL).
const maxBody = 4 << 20

// Client cliente JSON del backend. No guarda estado por usuario: el token viaja en cada Request,
// por eso es seguro para uso concurrente.
type Client struct {
	baseURL     string
	tokenHeader string
	httpClient  *http.Client
}

// NewClient construye el cliente a partir de la configuración.
func NewClient(cfg config.BackendConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	header := cfg.TokenHeader
	if header == "" {
		header = "X-New-Token"
	}
	return &Client{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		tokenHeader: header,
		httpClient:  &http.Client{Timeout: timeout},
	}
}

// Request y Response alias de los DTO para los llamadores de este paquete.
type (
	Request  = dto.BackendRequest
	Response = dto.BackendResponse
)

// envelope sobre común {status, message, data}.
type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// Do ejecuta la petición. Errores:
//   - respuesta no-2xx o sobre con status "error" → *domain.BackendError (401 cumple errors.Is(err, domain.ErrUnauthorized))
//   - sin respuesta (red, DNS, timeout del cliente) → envuelve domain.ErrNoResponse
func (c *Client) Do(ctx context.Context, r Request) (*Response, error) {
	var body io.Reader
	if r.Body != nil {
		raw, err := json.Marshal(r.Body)
		if err != nil {
			return nil, fmt.Errorf("backend: serializar request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, r.Method, c.baseURL+r.Path, body)
	if err != nil {
		return nil, fmt.Errorf("backend: crear HTTP request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if r.Token != "" {
		req.Header.Set("Authorization", r.Token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("backend: %s %s: cancelado: %w", r.Method, r.Path, ctx.Err())
		}
		return nil, fmt.Errorf("backend: %s %s: %w: %w", r.Method, r.Path, domain.ErrNoResponse, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("backend: %s %s: leer respuesta: %w: %w", r.Method, r.Path, domain.ErrNoResponse, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &domain.BackendError{Status: resp.StatusCode, Message: messageOf(raw)}
	}
	var env envelope
	if json.Unmarshal(raw, &env) == nil && env.Status == "error" {
		return nil, &domain.BackendError{Status: resp.StatusCode, Message: env.Message}
	}

	return &Response{
		Status:       resp.StatusCode,
		Body:         raw,
		RotatedToken: strings.TrimSpace(resp.Header.Get(c.tokenHeader)),
	}, nil
}

func messageOf(raw []byte) string {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return ""
	}
	return env.Message
}

// DecodeData decodifica el campo data del sobre en out.
func DecodeData(raw []byte, out any) error {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("backend: deserializar sobre: %w", err)
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return fmt.Errorf("backend: respuesta sin data")
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("backend: deserializar data: %w", err)
	}
	return nil
}
