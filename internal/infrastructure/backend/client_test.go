package backend_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/pilo-web/internal/application/dto"
	"github.com/jhoicas/pilo-web/internal/domain"
	"github.com/jhoicas/pilo-web/internal/domain/entity"
	"github.com/jhoicas/pilo-web/internal/infrastructure/backend"
	"github.com/jhoicas/pilo-web/pkg/config"
)

func newClient(url string) *backend.Client {
	return backend.NewClient(config.BackendConfig{BaseURL: url, Timeout: 2 * time.Second, TokenHeader: "X-New-Token"})
}

func TestDo_AdjuntaTokenYDevuelveRotado(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer abc", r.Header.Get("Authorization"), "el token viaja tal cual")
		assert.Equal(t, "/data/history", r.URL.Path)
		w.Header().Set("X-New-Token", "Bearer rotated")
		w.Write([]byte(`{"status":"success","data":[]}`))
	}))
	defer srv.Close()

	resp, err := newClient(srv.URL).Do(context.Background(), backend.Request{
		Method: http.MethodGet, Path: backend.PathHistory, Token: "Bearer abc",
	})
	require.NoError(t, err)
	assert.Equal(t, "Bearer rotated", resp.RotatedToken)
}

func TestDo_ErroresPorStatus(t *testing.T) {
	cases := []struct {
		status  int
		body    string
		message string
	}{
		{http.StatusUnauthorized, `{"status":"error","message":"jwt expired"}`, "jwt expired"},
		{http.StatusNotFound, `{"message":"Product not in database"}`, "Product not in database"},
		{http.StatusServiceUnavailable, `upstream down`, ""},
	}
	for _, c := range cases {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(c.status)
			w.Write([]byte(c.body))
		}))
		_, err := newClient(srv.URL).Do(context.Background(), backend.Request{Method: http.MethodGet, Path: "/x"})
		srv.Close()

		be, ok := domain.AsBackendError(err)
		require.True(t, ok, "status %d debe producir BackendError", c.status)
		assert.Equal(t, c.status, be.Status)
		assert.Equal(t, c.message, be.Message)
	}
}

func TestDo_401EsErrUnauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := newClient(srv.URL).Do(context.Background(), backend.Request{Method: http.MethodGet, Path: backend.PathMe})
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
}

func TestDo_SobreConStatusErrorEn200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"error","message":"Login failed hard"}`))
	}))
	defer srv.Close()

	_, err := newClient(srv.URL).Login(context.Background(), entity.Credentials{Email: "a@b.co", Password: "x"})
	assert.Equal(t, "Login failed hard", domain.BackendMessage(err, "fallback"))
}

func TestDo_SinRespuesta(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := newClient(url).Do(context.Background(), backend.Request{Method: http.MethodGet, Path: "/x"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNoResponse), "servidor caído: %v", err)
	_, isBackend := domain.AsBackendError(err)
	assert.False(t, isBackend)
}

func TestLogin_DecodificaTokenYUsuario(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var creds entity.Credentials
		require.NoError(t, json.NewDecoder(r.Body).Decode(&creds))
		assert.Equal(t, "ana@pilo.life", creds.Email)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.Write([]byte(`{"status":"success","data":{"token":"t0k","user":{"name":"Ana","email":"ana@pilo.life"}}}`))
	}))
	defer srv.Close()

	res, err := newClient(srv.URL).Login(context.Background(), entity.Credentials{Email: "ana@pilo.life", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "Bearer t0k", res.BearerToken())
	assert.Equal(t, "Ana", res.User.Name)
}

func TestWithBearer(t *testing.T) {
	assert.Equal(t, "Bearer abc", dto.WithBearer("abc"))
	assert.Equal(t, "Bearer abc", dto.WithBearer("Bearer abc"))
	assert.Equal(t, "bearer abc", dto.WithBearer("bearer abc"))
	assert.Equal(t, "", dto.WithBearer("  "))
}

// ── API tipada ───────────────────────────────────────────────────────────────

type fakeDoer struct {
	calls  []string
	bodies []any
	reply  []byte
	err    error
}

func (f *fakeDoer) AuthenticatedRequest(_ context.Context, method, path string, body any) ([]byte, error) {
	f.calls = append(f.calls, method+" "+path)
	f.bodies = append(f.bodies, body)
	return f.reply, f.err
}

func TestAPI_Product(t *testing.T) {
	d := &fakeDoer{reply: []byte(`{"product_name":"Oats","nutrition_values":{"fat":{"value":2}}}`)}
	p, err := backend.NewAPI(d).Product(context.Background(), "5901234123457")
	require.NoError(t, err)
	assert.Equal(t, []string{"GET /api/v1/barcode/5901234123457"}, d.calls)
	assert.Equal(t, "5901234123457", p.Code, "el código se completa si el backend no lo envía")
	assert.Equal(t, "2", p.NutritionValues["fat"].String())
}

func TestAPI_ProductSinDatos(t *testing.T) {
	d := &fakeDoer{reply: []byte(`null`)}
	p, err := backend.NewAPI(d).Product(context.Background(), "5901234123457")
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestAPI_AddHistory(t *testing.T) {
	d := &fakeDoer{reply: []byte(`{"status":"success"}`)}
	p := &entity.Product{Code: "12345678"}
	require.NoError(t, backend.NewAPI(d).AddHistory(context.Background(), "12345678", p))
	assert.Equal(t, []string{"POST /data/history/add"}, d.calls)
	body, ok := d.bodies[0].(dto.HistoryAddRequest)
	require.True(t, ok)
	assert.Equal(t, "12345678", body.ProductCode)
	assert.Same(t, p, body.ProductData)
	assert.False(t, body.Timestamp.IsZero())
}

func TestAPI_History(t *testing.T) {
	d := &fakeDoer{reply: []byte(`{"status":"success","data":[{"code":"12345678","createdAt":"2024-01-02T03:04:05Z"}]}`)}
	list, err := backend.NewAPI(d).History(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "12345678", list[0].Code)

	d.reply = []byte(`{"status":"success","data":null}`)
	list, err = backend.NewAPI(d).History(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
}
