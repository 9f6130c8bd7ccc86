package session_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/pilo-web/internal/application/session"
	"github.com/jhoicas/pilo-web/internal/domain/repository"
	"github.com/jhoicas/pilo-web/internal/infrastructure/backend"
	"github.com/jhoicas/pilo-web/internal/infrastructure/storage"
)

func TestManager_GetInicializaYReutiliza(t *testing.T) {
	fb := newFakeBackend(t)
	fb.on(http.MethodGet, backend.PathMe, jsonReply(200, meOK))
	repo := storage.NewMemoryStore()
	require.NoError(t, repo.Set(context.Background(), "sid-1", repository.KeyToken, "Bearer tok-1"))

	m := session.NewManager(repo, fb.client(), nil, session.ManagerConfig{InitWait: 2 * time.Second})
	st := m.Get(context.Background(), "sid-1")
	snap := st.Snapshot()
	assert.False(t, snap.Loading, "Get espera a que Initialize resuelva")
	require.NotNil(t, snap.User)

	again := m.Get(context.Background(), "sid-1")
	assert.Same(t, st, again)
	assert.Equal(t, 1, fb.count(http.MethodGet, backend.PathMe), "una sola inicialización por sesión")

	other := m.Get(context.Background(), "sid-2")
	assert.NotSame(t, st, other)
	assert.Nil(t, other.Snapshot().User, "namespaces aislados")
}

func TestManager_DevuelveLoadingSiInitTarda(t *testing.T) {
	fb := newFakeBackend(t)
	release := make(chan struct{})
	fb.on(http.MethodGet, backend.PathMe, func(w http.ResponseWriter, r *http.Request) {
		<-release
		jsonReply(200, meOK)(w, r)
	})
	defer close(release)
	repo := storage.NewMemoryStore()
	require.NoError(t, repo.Set(context.Background(), "slow", repository.KeyToken, "Bearer tok-1"))

	m := session.NewManager(repo, fb.client(), nil, session.ManagerConfig{InitWait: 20 * time.Millisecond})
	st := m.Get(context.Background(), "slow")
	snap := st.Snapshot()
	assert.True(t, snap.Loading)
	assert.Nil(t, snap.User, "mientras carga nunca hay usuario visible")
}

func TestManager_EvictIdle(t *testing.T) {
	fb := newFakeBackend(t)
	m := session.NewManager(storage.NewMemoryStore(), fb.client(), nil, session.ManagerConfig{
		IdleTTL:  10 * time.Millisecond,
		InitWait: time.Second,
	})
	m.Get(context.Background(), "a")
	assert.Equal(t, 1, m.Len())

	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, 1, m.EvictIdle())
	assert.Equal(t, 0, m.Len())
	_, ok := m.Peek("a")
	assert.False(t, ok)
}

func TestManager_HoldEvitaLaExpulsion(t *testing.T) {
	fb := newFakeBackend(t)
	m := session.NewManager(storage.NewMemoryStore(), fb.client(), nil, session.ManagerConfig{
		IdleTTL:  10 * time.Millisecond,
		InitWait: time.Second,
	})
	st := m.Get(context.Background(), "ws")
	release := m.Hold(st)

	time.Sleep(30 * time.Millisecond)
	assert.Zero(t, m.EvictIdle(), "una conexión abierta retiene la sesión")
	assert.Same(t, st, m.Get(context.Background(), "ws"), "un solo Store por sid")

	release()
	release()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, 1, m.EvictIdle())
	_, ok := m.Peek("ws")
	assert.False(t, ok)
}

func TestManager_HoldReinstalaStoreExpulsado(t *testing.T) {
	fb := newFakeBackend(t)
	m := session.NewManager(storage.NewMemoryStore(), fb.client(), nil, session.ManagerConfig{
		IdleTTL:  10 * time.Millisecond,
		InitWait: time.Second,
	})
	st := m.Get(context.Background(), "late")
	time.Sleep(30 * time.Millisecond)
	require.Equal(t, 1, m.EvictIdle())

	release := m.Hold(st)
	defer release()
	assert.Same(t, st, m.Get(context.Background(), "late"))
}
