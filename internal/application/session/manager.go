package session

import (
	"context"
	"sync"
	"time"

	"github.com/jhoicas/pilo-web/internal/application/ports"
	"github.com/jhoicas/pilo-web/internal/domain/repository"
	"github.com/jhoicas/pilo-web/pkg/logger"
)

// ManagerConfig tiempos del gestor de sesiones.
type ManagerConfig struct {
	IdleTTL     time.Duration // sin uso durante este tiempo → se descarta la sesión en memoria
	InitWait    time.Duration // espera máxima a Initialize antes de devolver una sesión en Loading
	InitTimeout time.Duration // tope de la llamada a /auth/me en segundo plano
}

type entry struct {
	store    *Store
	lastUsed time.Time
	holds    int // conexiones largas que usan el Store; nunca se expulsa con holds > 0
}

// Manager asocia cada id de sesión del navegador a su Store. El estado persistido
// sobrevive a la expulsión: la próxima visita vuelve a inicializar desde el ClientState.
type Manager struct {
	repo repository.ClientStateRepository
	api  ports.AuthBackend
	log  *logger.Logger
	cfg  ManagerConfig
	now  func() time.Time

	mu      sync.Mutex
	entries map[string]*entry
}

// NewManager construye el gestor.
func NewManager(repo repository.ClientStateRepository, api ports.AuthBackend, log *logger.Logger, cfg ManagerConfig) *Manager {
	if log == nil {
		log = logger.Nop()
	}
	if cfg.InitTimeout <= 0 {
		cfg.InitTimeout = 15 * time.Second
	}
	return &Manager{
		repo:    repo,
		api:     api,
		log:     log,
		cfg:     cfg,
		now:     time.Now,
		entries: make(map[string]*entry),
	}
}

// Get devuelve la sesión del sid, creándola e inicializándola en segundo plano si no existe.
// Espera hasta InitWait a que la inicialización resuelva; pasado ese tiempo la sesión
// se devuelve en Loading y el guard muestra el indicador de carga.
func (m *Manager) Get(ctx context.Context, sid string) *Store {
	m.mu.Lock()
	e, ok := m.entries[sid]
	if !ok {
		e = &entry{store: NewStore(sid, m.repo, m.api, m.log)}
		m.entries[sid] = e
		go func(st *Store) {
			initCtx, cancel := context.WithTimeout(context.Background(), m.cfg.InitTimeout)
			defer cancel()
			st.Initialize(initCtx)
		}(e.store)
	}
	e.lastUsed = m.now()
	st := e.store
	m.mu.Unlock()

	if m.cfg.InitWait <= 0 {
		return st
	}
	timer := time.NewTimer(m.cfg.InitWait)
	defer timer.Stop()
	select {
	case <-st.Done():
	case <-timer.C:
	case <-ctx.Done():
	}
	return st
}

// Peek devuelve la sesión sin crearla.
func (m *Manager) Peek(sid string) (*Store, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[sid]
	if !ok {
		return nil, false
	}
	return e.store, true
}

// Len cantidad de sesiones en memoria.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Hold fija el Store en memoria mientras una conexión larga lo usa. release es idempotente
// y cuenta como uso. Si la entrada ya no existe se vuelve a registrar este mismo Store.
func (m *Manager) Hold(st *Store) (release func()) {
	m.mu.Lock()
	e, ok := m.entries[st.Namespace()]
	switch {
	case !ok:
		e = &entry{store: st}
		m.entries[st.Namespace()] = e
	case e.store != st:
		m.log.Warn().Str("sid", st.Namespace()).Msg("hold sobre un Store reemplazado")
	}
	e.holds++
	e.lastUsed = m.now()
	m.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			e.holds--
			e.lastUsed = m.now()
			m.mu.Unlock()
		})
	}
}

// EvictIdle descarta las sesiones sin uso desde hace más de IdleTTL y sin conexiones
// que las retengan. Devuelve cuántas.
func (m *Manager) EvictIdle() int {
	if m.cfg.IdleTTL <= 0 {
		return 0
	}
	cutoff := m.now().Add(-m.cfg.IdleTTL)
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for sid, e := range m.entries {
		if e.holds == 0 && e.lastUsed.Before(cutoff) {
			delete(m.entries, sid)
			n++
		}
	}
	return n
}

// Run ejecuta la expulsión periódica hasta que ctx se cancele.
func (m *Manager) Run(ctx context.Context) {
	if m.cfg.IdleTTL <= 0 {
		return
	}
	interval := m.cfg.IdleTTL / 2
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.EvictIdle(); n > 0 {
				m.log.Debug().Int("evicted", n).Msg("sesiones inactivas descartadas")
			}
		}
	}
}
