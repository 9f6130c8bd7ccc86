package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/jhoicas/pilo-web/internal/application/dto"
	"github.com/jhoicas/pilo-web/internal/application/ports"
	"github.com/jhoicas/pilo-web/internal/domain"
	"github.com/jhoicas/pilo-web/internal/domain/entity"
	"github.com/jhoicas/pilo-web/internal/domain/repository"
	"github.com/jhoicas/pilo-web/internal/infrastructure/backend"
	"github.com/jhoicas/pilo-web/pkg/jwt"
	"github.com/jhoicas/pilo-web/pkg/logger"
)

// Mensajes visibles para el usuario.
const (
	MsgLoginFailed       = "Login failed"
	MsgLoginError        = "An error occurred during login"
	MsgSignupError       = "An error occurred during signup"
	MsgUpdateUserFailed  = "Failed to update user"
	MsgRestoreSessionErr = "Failed to restore session"
)

// State instantánea de la sesión.
type State struct {
	Token   string
	User    *entity.User
	Loading bool
	Error   string
}

// IsAuthenticated es verdadero si y solo si hay usuario.
func (s State) IsAuthenticated() bool {
	return s.User != nil
}

// Result resultado de login/signup/updateUser.
type Result struct {
	Success bool
	Error   string
}

// Store sesión de un cliente (un navegador o el perfil local del CLI). Único escritor:
// toda mutación pasa por mu, incluida la rotación de token, que se aplica antes de
// devolver la respuesta que la trajo.
type Store struct {
	ns   string
	repo repository.ClientStateRepository
	api  ports.AuthBackend
	log  *logger.Logger
	now  func() time.Time

	mu       sync.Mutex
	state    State
	gen      uint64 // sube con cada reemplazo completo del estado (login, init, clear)
	initOnce sync.Once
	initDone chan struct{}
}

// NewStore crea la sesión en estado Loading. Llamar Initialize antes de consultar.
func NewStore(namespace string, repo repository.ClientStateRepository, api ports.AuthBackend, log *logger.Logger) *Store {
	if log == nil {
		log = logger.Nop()
	}
	return &Store{
		ns:       namespace,
		repo:     repo,
		api:      api,
		log:      log,
		now:      time.Now,
		state:    State{Loading: true},
		initDone: make(chan struct{}),
	}
}

// Namespace clave de partición en el ClientState.
func (s *Store) Namespace() string { return s.ns }

// Snapshot copia del estado actual.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.state
	if st.User != nil {
		u := *st.User
		st.User = &u
	}
	return st
}

// Done se cierra cuando Initialize terminó.
func (s *Store) Done() <-chan struct{} { return s.initDone }

// Initialize resuelve la sesión desde el almacenamiento. Solo la primera llamada tiene efecto;
// al volver, Loading es falso y el usuario está presente o ausente, nunca indeterminado.
func (s *Store) Initialize(ctx context.Context) {
	s.initOnce.Do(func() {
		defer close(s.initDone)
		s.initialize(ctx)
	})
}

func (s *Store) initialize(ctx context.Context) {
	token, err := s.repo.Get(ctx, s.ns, repository.KeyToken)
	if errors.Is(err, repository.ErrStateNotFound) || (err == nil && token == "") {
		s.set(State{})
		return
	}
	if err != nil {
		s.log.Error().Err(err).Str("ns", s.ns).Msg("leer token persistido")
		s.set(State{Error: MsgRestoreSessionErr})
		return
	}

	if jwt.Expired(token, s.now()) {
		s.log.Debug().Str("ns", s.ns).Msg("token vencido, se omite /auth/me")
		s.clear(ctx)
		return
	}

	user, err := s.api.Me(ctx, token)
	if err != nil {
		s.log.Warn().Err(err).Str("ns", s.ns).Msg("inicialización de sesión fallida")
		s.clear(ctx)
		return
	}
	if err := s.persistUser(ctx, user); err != nil {
		s.log.Warn().Err(err).Str("ns", s.ns).Msg("cachear perfil")
	}
	s.set(State{Token: token, User: user})
}

// Login envía credenciales. En error deja intacta la sesión previa y solo registra el mensaje.
func (s *Store) Login(ctx context.Context, creds entity.Credentials) Result {
	res, err := s.api.Login(ctx, creds)
	if err != nil {
		msg := authMessage(err, MsgLoginFailed, MsgLoginError)
		s.setError(msg)
		return Result{Error: msg}
	}
	return s.establish(ctx, res, MsgLoginError)
}

// Signup registra al usuario y abre sesión igual que Login.
func (s *Store) Signup(ctx context.Context, reg entity.Registration) Result {
	res, err := s.api.Signup(ctx, reg)
	if err != nil {
		msg := authMessage(err, MsgSignupError, MsgSignupError)
		return Result{Error: msg}
	}
	return s.establish(ctx, res, MsgSignupError)
}

func (s *Store) establish(ctx context.Context, res *dto.AuthResult, failMsg string) Result {
	token := res.BearerToken()
	user := res.User
	if err := s.repo.Set(ctx, s.ns, repository.KeyToken, token); err != nil {
		s.log.Error().Err(err).Str("ns", s.ns).Msg("persistir token")
		s.setError(failMsg)
		return Result{Error: failMsg}
	}
	if err := s.persistUser(ctx, &user); err != nil {
		s.log.Error().Err(err).Str("ns", s.ns).Msg("persistir perfil")
	}
	s.set(State{Token: token, User: &user})
	return Result{Success: true}
}

// authMessage mensaje del backend; si el sobre vino con error sin mensaje, rejected; en otro caso failed.
func authMessage(err error, rejected, failed string) string {
	if be, ok := domain.AsBackendError(err); ok {
		if be.Message != "" {
			return be.Message
		}
		if be.Status >= 200 && be.Status < 300 {
			return rejected
		}
	}
	return failed
}

// Logout avisa al backend (sin importar el resultado) y borra el estado local.
func (s *Store) Logout(ctx context.Context) {
	s.mu.Lock()
	token := s.state.Token
	s.mu.Unlock()
	if token != "" {
		if err := s.api.Logout(ctx, token); err != nil {
			s.log.Debug().Err(err).Str("ns", s.ns).Msg("logout en backend ignorado")
		}
	}
	s.clear(ctx)
}

// AuthenticatedRequest petición con el token persistido.
//   - sin token → domain.ErrNoToken
//   - 401 → limpia la sesión y devuelve domain.ErrSessionExpired
//   - otro error → se propaga sin cambios
//   - token rotado → se persiste y se usa desde la siguiente llamada
func (s *Store) AuthenticatedRequest(ctx context.Context, method, path string, body any) ([]byte, error) {
	token, gen, err := s.token(ctx)
	if err != nil {
		return nil, err
	}
	resp, err := s.api.Do(ctx, dto.BackendRequest{Method: method, Path: path, Token: token, Body: body})
	if err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			s.log.Info().Str("ns", s.ns).Str("path", path).Msg("401 del backend, sesión limpiada")
			s.clear(ctx)
			return nil, domain.ErrSessionExpired
		}
		return nil, err
	}
	if resp.RotatedToken != "" && resp.RotatedToken != token {
		s.rotate(ctx, gen, token, resp.RotatedToken)
	}
	return resp.Body, nil
}

// UpdateUser aplica el perfil local solo tras la confirmación del backend.
func (s *Store) UpdateUser(ctx context.Context, upd entity.ProfileUpdate) Result {
	raw, err := s.AuthenticatedRequest(ctx, http.MethodPut, backend.PathMe, upd)
	if err != nil {
		if errors.Is(err, domain.ErrSessionExpired) || errors.Is(err, domain.ErrNoToken) {
			return Result{Error: err.Error()}
		}
		return Result{Error: domain.BackendMessage(err, MsgUpdateUserFailed)}
	}
	user, err := backend.DecodeUser(raw)
	if err != nil {
		return Result{Error: MsgUpdateUserFailed}
	}
	if err := s.persistUser(ctx, user); err != nil {
		s.log.Warn().Err(err).Str("ns", s.ns).Msg("cachear perfil actualizado")
	}
	s.mu.Lock()
	s.state.User = user
	s.mu.Unlock()
	return Result{Success: true}
}

// ClearError descarta el error de autenticación mostrado por el guard.
func (s *Store) ClearError() {
	s.mu.Lock()
	s.state.Error = ""
	s.mu.Unlock()
}

// ── helpers ──────────────────────────────────────────────────────────────────

// token devuelve también la generación del estado con la que se leyó.
func (s *Store) token(ctx context.Context) (string, uint64, error) {
	s.mu.Lock()
	t, gen := s.state.Token, s.gen
	s.mu.Unlock()
	if t != "" {
		return t, gen, nil
	}
	v, err := s.repo.Get(ctx, s.ns, repository.KeyToken)
	if errors.Is(err, repository.ErrStateNotFound) || (err == nil && v == "") {
		return "", gen, domain.ErrNoToken
	}
	if err != nil {
		return "", gen, fmt.Errorf("session: leer token: %w", err)
	}
	return v, gen, nil
}

// rotate aplica el token rotado solo si la sesión con la que salió la petición sigue vigente.
// Vigente: misma generación, o el estado actual sigue usando el token enviado.
// Una respuesta tardía tras un 401, un logout o un nuevo login se descarta.
func (s *Store) rotate(ctx context.Context, gen uint64, sent, token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen && s.state.Token != sent {
		s.log.Debug().Str("ns", s.ns).Msg("token rotado descartado: la sesión cambió")
		return
	}
	s.state.Token = token
	if err := s.repo.Set(ctx, s.ns, repository.KeyToken, token); err != nil {
		s.log.Error().Err(err).Str("ns", s.ns).Msg("persistir token rotado")
	}
}

func (s *Store) persistUser(ctx context.Context, user *entity.User) error {
	raw, err := json.Marshal(user)
	if err != nil {
		return err
	}
	return s.repo.Set(ctx, s.ns, repository.KeyUser, string(raw))
}

func (s *Store) set(st State) {
	s.mu.Lock()
	s.state = st
	s.gen++
	s.mu.Unlock()
}

func (s *Store) setError(msg string) {
	s.mu.Lock()
	s.state.Error = msg
	s.mu.Unlock()
}

// clear borra token y perfil persistidos y el estado en memoria.
// La cancelación del llamador no interrumpe el borrado. Borrado y reinicio van bajo mu
// para que ninguna rotación concurrente reescriba el token en medio.
func (s *Store) clear(ctx context.Context) {
	delCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.repo.Delete(delCtx, s.ns, repository.KeyToken, repository.KeyUser); err != nil {
		s.log.Error().Err(err).Str("ns", s.ns).Msg("borrar estado persistido")
	}
	s.state = State{}
	s.gen++
}
