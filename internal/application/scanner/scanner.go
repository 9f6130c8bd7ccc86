// Package scanner implementa el flujo de escaneo: permiso de cámara, bucle de muestreo con
// debounce, validación del candidato, envío al backend y liberación del stream.
package scanner

import (
	"context"
	"errors"
	"image"
	"net/url"
	"sync"
	"time"

	"github.com/jhoicas/pilo-web/internal/domain"
	"github.com/jhoicas/pilo-web/internal/domain/barcode"
	"github.com/jhoicas/pilo-web/pkg/config"
	"github.com/jhoicas/pilo-web/pkg/logger"
)

// Phase estado del escáner.
type Phase string

const (
	PhaseUnsupported        Phase = "unsupported"
	PhaseAwaitingPermission Phase = "awaiting_permission"
	PhaseScanning           Phase = "scanning"
	PhaseProcessing         Phase = "processing"
	PhaseError              Phase = "error"
	PhaseDone               Phase = "done"
)

var (
	ErrBusy   = errors.New("scanner: procesamiento en curso")
	ErrClosed = errors.New("scanner: cerrado")
)

// Snapshot estado observable. Navigate no vacío indica que la vista debe salir hacia esa ruta.
type Snapshot struct {
	Phase          Phase    `json:"phase"`
	Message        string   `json:"message,omitempty"`
	Notice         string   `json:"notice,omitempty"`
	Code           string   `json:"code,omitempty"`
	Devices        []Device `json:"devices,omitempty"`
	DeviceID       string   `json:"deviceId,omitempty"`
	TorchSupported bool     `json:"torchSupported"`
	TorchOn        bool     `json:"torchOn"`
	Processing     bool     `json:"processing"`
	Navigate       string   `json:"navigate,omitempty"`
}

// Retryable solo el estado Error ofrece reintento; Unsupported es terminal.
func (s Snapshot) Retryable() bool { return s.Phase == PhaseError }

// Failed el último intento terminó en fallo. Sin cámara la fase sigue siendo Unsupported
// y Message lleva el motivo del fallo.
func (s Snapshot) Failed() bool {
	return s.Phase == PhaseError || (s.Phase == PhaseUnsupported && s.Message != "" && s.Message != MsgUnsupported)
}

// Observer recibe cada transición. Se invoca con el estado bloqueado: no debe llamar al Scanner.
type Observer func(Snapshot)

// Scanner una instancia por vista montada.
//
// Como máximo un análisis de frame y un envío vivos a la vez: processing es el guard
// single-flight compartido por el bucle y por ScanImage. Close (o un envío exitoso)
// detiene el bucle y cierra el stream antes de volver.
type Scanner struct {
	camera    Camera
	detector  Detector
	submitter Submitter
	cfg       config.ScannerConfig
	log       *logger.Logger
	observer  Observer

	base       context.Context
	baseCancel context.CancelFunc
	supported  bool

	ops sync.Mutex // serializa las acciones del usuario

	mu         sync.Mutex
	state      Snapshot
	stream     Stream
	deviceIdx  int
	processing bool
	retries    int
	closed     bool
	loopCancel context.CancelFunc
	loopDone   chan struct{}
}

// New crea el escáner. camera nil equivale a un runtime sin capacidad de cámara.
func New(camera Camera, detector Detector, submitter Submitter, cfg config.ScannerConfig, log *logger.Logger, observer Observer) *Scanner {
	if cfg.Interval <= 0 {
		cfg.Interval = 150 * time.Millisecond
	}
	if cfg.MaxRetries < 1 {
		cfg.MaxRetries = 5
	}
	if cfg.StreamTimeout <= 0 {
		cfg.StreamTimeout = 10 * time.Second
	}
	if log == nil {
		log = logger.Nop()
	}
	base, cancel := context.WithCancel(context.Background())
	s := &Scanner{
		camera:     camera,
		detector:   detector,
		submitter:  submitter,
		cfg:        cfg,
		log:        log,
		observer:   observer,
		base:       base,
		baseCancel: cancel,
	}
	s.supported = camera != nil && detector != nil && camera.Supported()
	if !s.supported {
		s.state = Snapshot{Phase: PhaseUnsupported, Message: MsgUnsupported}
	} else {
		s.state = Snapshot{Phase: PhaseAwaitingPermission}
	}
	return s
}

// Snapshot copia del estado actual.
func (s *Scanner) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// ── acciones ─────────────────────────────────────────────────────────────────

// Start pide acceso a la cámara y arranca el escaneo. Válido desde AwaitingPermission y Error.
func (s *Scanner) Start(ctx context.Context) error {
	s.ops.Lock()
	defer s.ops.Unlock()
	if s.isClosed() {
		return ErrClosed
	}
	if !s.supported {
		return nil
	}
	switch s.Snapshot().Phase {
	case PhaseAwaitingPermission, PhaseError:
	default:
		return nil
	}
	ctx, cancel := s.bind(ctx)
	defer cancel()

	s.stopLoop()
	s.releaseStream()
	s.acquire(ctx, -1)
	return nil
}

// Retry vuelve a pedir acceso desde Error; la cámara siempre se re-adquiere.
func (s *Scanner) Retry(ctx context.Context) error {
	return s.Start(ctx)
}

// Switch pasa a la siguiente cámara enumerada y repite la secuencia de acceso.
func (s *Scanner) Switch(ctx context.Context) error {
	s.ops.Lock()
	defer s.ops.Unlock()
	if s.isClosed() {
		return ErrClosed
	}
	s.mu.Lock()
	if s.state.Phase != PhaseScanning || len(s.state.Devices) < 2 {
		s.mu.Unlock()
		return nil
	}
	if s.processing {
		s.mu.Unlock()
		return ErrBusy
	}
	s.processing = true
	next := (s.deviceIdx + 1) % len(s.state.Devices)
	s.mu.Unlock()
	defer s.end()

	ctx, cancel := s.bind(ctx)
	defer cancel()

	s.stopLoop()
	s.releaseStream()
	s.acquire(ctx, next)
	return nil
}

// ToggleTorch cambia la linterna; el estado solo cambia si el stream aceptó la restricción.
func (s *Scanner) ToggleTorch(ctx context.Context) error {
	s.ops.Lock()
	defer s.ops.Unlock()

	s.mu.Lock()
	st := s.stream
	if s.state.Phase != PhaseScanning || st == nil || !st.TorchSupported() {
		s.mu.Unlock()
		return nil
	}
	on := !s.state.TorchOn
	s.mu.Unlock()

	ctx, cancel := s.bind(ctx)
	defer cancel()
	if err := st.SetTorch(ctx, on); err != nil {
		s.log.Warn().Err(err).Bool("on", on).Msg("no se pudo aplicar la linterna")
		return err
	}
	s.mu.Lock()
	if s.stream == st {
		s.state.TorchOn = on
		s.emitLocked()
	}
	s.mu.Unlock()
	return nil
}

// ScanImage corre una imagen fija por el mismo detector y el mismo envío que un frame en vivo.
// Sin código válido deja el estado como estaba y publica un aviso.
func (s *Scanner) ScanImage(ctx context.Context, img image.Image) error {
	s.ops.Lock()
	defer s.ops.Unlock()
	if s.isClosed() || s.Snapshot().Phase == PhaseDone {
		return ErrClosed
	}
	if s.detector == nil {
		return errors.New("scanner: sin detector")
	}
	if !s.begin() {
		return ErrBusy
	}
	ctx, cancel := s.bind(ctx)
	defer cancel()

	candidates, err := s.detector.Detect(ctx, img)
	if err != nil && !errors.Is(err, ErrNoCandidate) {
		s.log.Debug().Err(err).Msg("detección en imagen fallida")
	}
	code, ok := barcode.FirstValid(candidates)
	if err != nil || !ok {
		s.mu.Lock()
		s.processing = false
		s.state.Notice = MsgNoBarcodeInImage
		s.emitLocked()
		s.mu.Unlock()
		return nil
	}

	s.stopLoop()
	s.submit(ctx, code)
	return nil
}

// Close detiene el bucle y libera el stream. Tras volver no queda ninguna pista de cámara activa.
func (s *Scanner) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.baseCancel()
	s.ops.Lock()
	defer s.ops.Unlock()
	s.stopLoop()
	s.releaseStream()
	s.end()
}

// ── flujo interno ────────────────────────────────────────────────────────────

// acquire permiso → enumeración → stream (con timeout) → Scanning y arranque del bucle.
// idx < 0 elige la cámara por defecto.
func (s *Scanner) acquire(ctx context.Context, idx int) {
	if err := s.camera.RequestAccess(ctx); err != nil {
		s.fail(MsgCameraAccess, err)
		return
	}
	devices, err := s.camera.Devices(ctx)
	if err != nil || len(devices) == 0 {
		s.fail(MsgCameraAccess, err)
		return
	}
	if idx < 0 || idx >= len(devices) {
		idx = DefaultDevice(devices)
	}

	openCtx, cancel := context.WithTimeout(ctx, s.cfg.StreamTimeout)
	defer cancel()
	stream, err := s.camera.Open(openCtx, devices[idx].ID)
	if err != nil {
		msg := MsgCameraAccess
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			msg = MsgStreamTimeout
		}
		s.fail(msg, err)
		return
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		stream.Close()
		return
	}
	s.stream = stream
	s.deviceIdx = idx
	s.retries = 0
	s.state = Snapshot{
		Phase:          PhaseScanning,
		Devices:        devices,
		DeviceID:       devices[idx].ID,
		TorchSupported: stream.TorchSupported(),
		Processing:     s.processing,
	}
	loopCtx, loopCancel := context.WithCancel(s.base)
	done := make(chan struct{})
	s.loopCancel, s.loopDone = loopCancel, done
	s.emitLocked()
	s.mu.Unlock()

	s.log.Debug().Str("device", devices[idx].ID).Msg("escaneo iniciado")
	go s.loop(loopCtx, stream, done)
}

// loop muestrea un frame por intervalo. Termina al aceptar un código, al superar el tope de
// reintentos, o cuando se cancela ctx.
func (s *Scanner) loop(ctx context.Context, stream Stream, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		s.mu.Lock()
		busy, phase := s.processing, s.state.Phase
		s.mu.Unlock()
		if busy {
			continue
		}
		if phase != PhaseScanning {
			return
		}

		code, err := s.analyze(ctx, stream)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			if s.countFailure(err) {
				return
			}
			continue
		}
		s.mu.Lock()
		s.retries = 0
		s.mu.Unlock()
		if code == "" {
			continue
		}
		if !s.begin() {
			continue
		}
		s.submit(ctx, code)
		return
	}
}

// analyze devuelve "" sin error cuando el frame no trae un candidato válido.
func (s *Scanner) analyze(ctx context.Context, stream Stream) (string, error) {
	img, err := stream.Frame(ctx)
	if err != nil {
		return "", err
	}
	candidates, err := s.detector.Detect(ctx, img)
	if errors.Is(err, ErrNoCandidate) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	code, _ := barcode.FirstValid(candidates)
	return code, nil
}

// countFailure suma un fallo consecutivo; al superar MaxRetries pasa a Error y devuelve true.
func (s *Scanner) countFailure(err error) bool {
	s.mu.Lock()
	s.retries++
	n := s.retries
	s.mu.Unlock()
	s.log.Debug().Err(err).Int("retry", n).Msg("fallo de detección")
	if n > s.cfg.MaxRetries {
		s.fail(MsgInitFailed, err)
		return true
	}
	return false
}

// submit Processing: revalida, consulta el producto y registra el escaneo.
// Requiere el guard single-flight tomado.
func (s *Scanner) submit(ctx context.Context, code string) {
	s.mu.Lock()
	s.state.Phase = PhaseProcessing
	s.state.Processing = true
	s.state.Code = code
	s.state.Message = ""
	s.state.Notice = ""
	s.emitLocked()
	s.mu.Unlock()

	if !barcode.Valid(code) {
		s.fail(MsgInvalidBarcode, domain.ErrInvalidBarcode)
		return
	}
	p, err := s.submitter.LookupProduct(ctx, code)
	if err == nil {
		err = s.submitter.RecordScan(ctx, code, p)
	}
	if err != nil {
		switch {
		case ctx.Err() != nil && s.isClosed():
			s.releaseStream()
			s.end()
		case sessionLost(err):
			s.log.Info().Str("code", code).Msg("sesión expirada durante el escaneo")
			s.finish(Snapshot{Phase: s.failedPhase(), Code: code, Message: domain.ErrSessionExpired.Error(), Navigate: "/login"})
		default:
			s.log.Warn().Err(err).Str("code", code).Msg("envío de código fallido")
			s.fail(MessageFor(err), err)
		}
		return
	}
	s.log.Info().Str("code", code).Msg("producto escaneado")
	s.finish(Snapshot{Phase: PhaseDone, Code: code, Navigate: "/product/" + url.PathEscape(code)})
}

// fail pasa a Error liberando el stream. La cámara se re-adquiere en el reintento.
func (s *Scanner) fail(msg string, err error) {
	if err != nil {
		s.log.Debug().Err(err).Str("message", msg).Msg("escáner en error")
	}
	s.mu.Lock()
	devices := s.state.Devices
	s.mu.Unlock()
	s.finish(Snapshot{Phase: s.failedPhase(), Message: msg, Devices: devices})
}

// failedPhase Unsupported es terminal: un fallo sin cámara no abre la puerta al reintento.
func (s *Scanner) failedPhase() Phase {
	if !s.supported {
		return PhaseUnsupported
	}
	return PhaseError
}

// finish cierra el stream y luego publica el estado final del intento.
func (s *Scanner) finish(next Snapshot) {
	s.releaseStream()
	s.mu.Lock()
	s.processing = false
	s.state = next
	if !s.closed {
		s.emitLocked()
	}
	s.mu.Unlock()
}

func (s *Scanner) begin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.processing || s.closed {
		return false
	}
	s.processing = true
	return true
}

func (s *Scanner) end() {
	s.mu.Lock()
	s.processing = false
	if s.state.Processing {
		s.state.Processing = false
		if !s.closed {
			s.emitLocked()
		}
	}
	s.mu.Unlock()
}

// stopLoop cancela el bucle y espera a que termine. Nunca se llama desde el propio bucle.
func (s *Scanner) stopLoop() {
	s.mu.Lock()
	cancel, done := s.loopCancel, s.loopDone
	s.loopCancel, s.loopDone = nil, nil
	s.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (s *Scanner) releaseStream() {
	s.mu.Lock()
	st := s.stream
	s.stream = nil
	s.state.TorchOn = false
	s.mu.Unlock()
	if st == nil {
		return
	}
	if err := st.Close(); err != nil {
		s.log.Warn().Err(err).Msg("cerrar stream de cámara")
	}
}

// bind deriva un contexto que además se cancela con Close.
func (s *Scanner) bind(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(s.base, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

func (s *Scanner) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Scanner) snapshotLocked() Snapshot {
	st := s.state
	if st.Devices != nil {
		st.Devices = append([]Device(nil), st.Devices...)
	}
	return st
}

func (s *Scanner) emitLocked() {
	if s.observer != nil {
		s.observer(s.snapshotLocked())
	}
}
