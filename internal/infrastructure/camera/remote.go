// Package camera adapta la cámara del navegador, vía WebSocket, al puerto scanner.Camera.
package camera

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/jhoicas/pilo-web/internal/application/scanner"
	"github.com/jhoicas/pilo-web/internal/infrastructure/barcode"
	"github.com/jhoicas/pilo-web/pkg/logger"
)

// TextMessage tipo de mensaje de texto de RFC 6455 (igual en gorilla y fasthttp/websocket).
const TextMessage = 1

// Comandos servidor → navegador.
const (
	CmdRequestAccess = "request_access"
	CmdOpen          = "open"
	CmdCapture       = "capture"
	CmdTorch         = "torch"
	CmdClose         = "close"
	CmdState         = "state"
	CmdNavigate      = "navigate"
)

// Respuestas navegador → servidor.
const (
	ReplyAccess      = "access"
	ReplyStreamReady = "stream_ready"
	ReplyStreamError = "stream_error"
	ReplyFrame       = "frame"
	ReplyTorchResult = "torch_result"
	ReplyClosed      = "closed"
)

// Acciones del usuario navegador → servidor.
const (
	ActionHello       = "hello"
	ActionStart       = "start"
	ActionRetry       = "retry"
	ActionSwitch      = "switch"
	ActionTorchToggle = "torch_toggle"
	ActionUpload      = "upload"
)

var (
	ErrClosed  = errors.New("camera: conexión cerrada")
	ErrPending = errors.New("camera: ya hay una petición en curso")
)

// Message sobre JSON del protocolo.
type Message struct {
	Type     string            `json:"type"`
	OK       bool              `json:"ok,omitempty"`
	Error    string            `json:"error,omitempty"`
	DeviceID string            `json:"deviceId,omitempty"`
	Devices  []scanner.Device  `json:"devices,omitempty"`
	Torch    bool              `json:"torch,omitempty"`
	On       bool              `json:"on,omitempty"`
	Data     string            `json:"data,omitempty"`
	Camera   bool              `json:"camera,omitempty"`
	State    *scanner.Snapshot `json:"state,omitempty"`
	URL      string            `json:"url,omitempty"`
}

// Conn lo que se usa de una conexión WebSocket. Lo cumplen *websocket.Conn de
// gofiber/contrib y de gorilla.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Remote una conexión de escáner. Las respuestas se correlacionan por tipo: como mucho
// una petición pendiente por tipo de respuesta.
type Remote struct {
	conn Conn
	log  *logger.Logger

	out       chan []byte
	actions   chan Message
	closed    chan struct{}
	closeOnce sync.Once

	mu        sync.Mutex
	waiters   map[string]chan Message
	supported bool
	devices   []scanner.Device
}

// NewRemote envuelve la conexión. Llamar ReadHello y después Run.
func NewRemote(conn Conn, log *logger.Logger) *Remote {
	if log == nil {
		log = logger.Nop()
	}
	return &Remote{
		conn:    conn,
		log:     log,
		out:     make(chan []byte, 32),
		actions: make(chan Message, 16),
		closed:  make(chan struct{}),
		waiters: make(map[string]chan Message),
	}
}

// ReadHello lee el primer mensaje, que anuncia las capacidades del navegador.
func (r *Remote) ReadHello() (Message, error) {
	_, raw, err := r.conn.ReadMessage()
	if err != nil {
		return Message{}, fmt.Errorf("camera: leer hello: %w", err)
	}
	var msg Message
	if err := json.Unmarshal(raw, &msg); err != nil || msg.Type != ActionHello {
		return Message{}, fmt.Errorf("camera: se esperaba hello")
	}
	r.mu.Lock()
	r.supported = msg.Camera
	r.mu.Unlock()
	return msg, nil
}

// Actions acciones del usuario en orden de llegada. Se cierra al terminar Run.
func (r *Remote) Actions() <-chan Message { return r.actions }

// Done se cierra cuando la conexión terminó.
func (r *Remote) Done() <-chan struct{} { return r.closed }

// Run lee mensajes hasta que la conexión se cierra o ctx se cancela.
func (r *Remote) Run(ctx context.Context) error {
	go r.writeLoop()
	stop := context.AfterFunc(ctx, r.shutdown)
	defer stop()
	defer close(r.actions)
	defer r.shutdown()

	for {
		_, raw, err := r.conn.ReadMessage()
		if err != nil {
			select {
			case <-r.closed:
				return nil
			default:
				return fmt.Errorf("camera: leer: %w", err)
			}
		}
		var msg Message
		if err := json.Unmarshal(raw, &msg); err != nil {
			r.log.Debug().Err(err).Msg("mensaje ws inválido")
			continue
		}
		if r.deliver(msg) {
			continue
		}
		switch msg.Type {
		case ActionStart, ActionRetry, ActionSwitch, ActionTorchToggle, ActionUpload:
			select {
			case r.actions <- msg:
			default:
				r.log.Warn().Str("type", msg.Type).Msg("acción descartada, cola llena")
			}
		case ReplyClosed:
		default:
			r.log.Debug().Str("type", msg.Type).Msg("mensaje ws sin destinatario")
		}
	}
}

func (r *Remote) shutdown() {
	r.closeOnce.Do(func() {
		close(r.closed)
		r.conn.Close()
	})
}

func (r *Remote) writeLoop() {
	for {
		select {
		case <-r.closed:
			return
		case b := <-r.out:
			if err := r.conn.WriteMessage(TextMessage, b); err != nil {
				r.log.Debug().Err(err).Msg("escribir ws")
				r.shutdown()
				return
			}
		}
	}
}

// Send encola un mensaje hacia el navegador.
func (r *Remote) Send(msg Message) error {
	b, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("camera: serializar %s: %w", msg.Type, err)
	}
	select {
	case r.out <- b:
		return nil
	case <-r.closed:
		return ErrClosed
	}
}

// PushState publica el estado del escáner (y la navegación, si la hay). Sirve como scanner.Observer.
func (r *Remote) PushState(s scanner.Snapshot) {
	if err := r.Send(Message{Type: CmdState, State: &s}); err != nil {
		return
	}
	if s.Navigate != "" {
		r.Send(Message{Type: CmdNavigate, URL: s.Navigate})
	}
}

// replyKey agrupa las respuestas que resuelven la misma petición.
func replyKey(kind string) string {
	switch kind {
	case ReplyStreamReady, ReplyStreamError:
		return CmdOpen
	case ReplyAccess:
		return CmdRequestAccess
	case ReplyFrame:
		return CmdCapture
	case ReplyTorchResult:
		return CmdTorch
	}
	return ""
}

func (r *Remote) deliver(msg Message) bool {
	key := replyKey(msg.Type)
	if key == "" {
		return false
	}
	r.mu.Lock()
	ch, ok := r.waiters[key]
	delete(r.waiters, key)
	r.mu.Unlock()
	if !ok {
		r.log.Debug().Str("type", msg.Type).Msg("respuesta tardía descartada")
		return true
	}
	ch <- msg
	return true
}

func (r *Remote) request(ctx context.Context, cmd Message) (Message, error) {
	ch := make(chan Message, 1)
	r.mu.Lock()
	if _, busy := r.waiters[cmd.Type]; busy {
		r.mu.Unlock()
		return Message{}, ErrPending
	}
	r.waiters[cmd.Type] = ch
	r.mu.Unlock()

	cleanup := func() {
		r.mu.Lock()
		if r.waiters[cmd.Type] == ch {
			delete(r.waiters, cmd.Type)
		}
		r.mu.Unlock()
	}

	if err := r.Send(cmd); err != nil {
		cleanup()
		return Message{}, err
	}
	select {
	case msg := <-ch:
		return msg, nil
	case <-ctx.Done():
		cleanup()
		return Message{}, ctx.Err()
	case <-r.closed:
		cleanup()
		return Message{}, ErrClosed
	}
}

// ── scanner.Camera ───────────────────────────────────────────────────────────

// Verificar en tiempo de compilación que Remote implementa Camera.
var _ scanner.Camera = (*Remote)(nil)

func (r *Remote) Supported() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.supported
}

// RequestAccess dispara el diálogo de permiso del navegador. La respuesta trae las cámaras.
func (r *Remote) RequestAccess(ctx context.Context) error {
	msg, err := r.request(ctx, Message{Type: CmdRequestAccess})
	if err != nil {
		return err
	}
	if !msg.OK {
		return fmt.Errorf("camera: permiso denegado: %s", msg.Error)
	}
	r.mu.Lock()
	r.devices = msg.Devices
	r.mu.Unlock()
	return nil
}

// Devices cámaras enumeradas en el último permiso concedido.
func (r *Remote) Devices(ctx context.Context) ([]scanner.Device, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]scanner.Device(nil), r.devices...), nil
}

// Open enlaza el stream a la vista previa. Si vence ctx, pide cerrar lo que el navegador haya abierto.
func (r *Remote) Open(ctx context.Context, deviceID string) (scanner.Stream, error) {
	msg, err := r.request(ctx, Message{Type: CmdOpen, DeviceID: deviceID})
	if err != nil {
		if ctx.Err() != nil {
			r.Send(Message{Type: CmdClose})
		}
		return nil, err
	}
	if msg.Type == ReplyStreamError {
		return nil, fmt.Errorf("camera: abrir %s: %s", deviceID, msg.Error)
	}
	return &remoteStream{remote: r, deviceID: deviceID, torch: msg.Torch, active: true}, nil
}

type remoteStream struct {
	remote   *Remote
	deviceID string
	torch    bool

	mu     sync.Mutex
	active bool
}

// Verificar en tiempo de compilación que remoteStream implementa Stream.
var _ scanner.Stream = (*remoteStream)(nil)

func (s *remoteStream) Frame(ctx context.Context) (image.Image, error) {
	if !s.Active() {
		return nil, ErrClosed
	}
	msg, err := s.remote.request(ctx, Message{Type: CmdCapture})
	if err != nil {
		return nil, err
	}
	if msg.Error != "" {
		return nil, fmt.Errorf("camera: capturar: %s", msg.Error)
	}
	return barcode.DecodeDataURL(msg.Data)
}

func (s *remoteStream) TorchSupported() bool { return s.torch }

func (s *remoteStream) SetTorch(ctx context.Context, on bool) error {
	msg, err := s.remote.request(ctx, Message{Type: CmdTorch, On: on})
	if err != nil {
		return err
	}
	if !msg.OK {
		return fmt.Errorf("camera: linterna: %s", msg.Error)
	}
	return nil
}

// Close marca el stream inactivo y ordena al navegador detener las pistas.
func (s *remoteStream) Close() error {
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return nil
	}
	s.active = false
	s.mu.Unlock()
	if err := s.remote.Send(Message{Type: CmdClose, DeviceID: s.deviceID}); err != nil && !errors.Is(err, ErrClosed) {
		return err
	}
	return nil
}

func (s *remoteStream) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}
