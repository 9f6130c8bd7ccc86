package scanner_test

import (
	"context"
	"errors"
	"image"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/pilo-web/internal/application/scanner"
	"github.com/jhoicas/pilo-web/internal/domain"
	"github.com/jhoicas/pilo-web/internal/domain/entity"
	"github.com/jhoicas/pilo-web/pkg/config"
)

// ──────────────────────────────────────────────────────────────────────────────
// Fakes de los puertos
// ──────────────────────────────────────────────────────────────────────────────

type fakeStream struct {
	mu       sync.Mutex
	device   string
	active   bool
	torch    bool
	torchErr error
	torchOn  bool
	frameErr error
}

func (s *fakeStream) Frame(ctx context.Context) (image.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return nil, errors.New("stream cerrado")
	}
	if s.frameErr != nil {
		return nil, s.frameErr
	}
	return image.NewGray(image.Rect(0, 0, 2, 2)), nil
}

func (s *fakeStream) TorchSupported() bool { return s.torch }

func (s *fakeStream) SetTorch(ctx context.Context, on bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.torchErr != nil {
		return s.torchErr
	}
	s.torchOn = on
	return nil
}

func (s *fakeStream) Close() error {
	s.mu.Lock()
	s.active = false
	s.mu.Unlock()
	return nil
}

func (s *fakeStream) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

type fakeCamera struct {
	mu        sync.Mutex
	supported bool
	accessErr error
	access    int
	devices   []scanner.Device
	hang      bool // Open bloquea hasta que venza el contexto
	torch     bool
	streams   []*fakeStream
}

func newFakeCamera() *fakeCamera {
	return &fakeCamera{
		supported: true,
		devices:   []scanner.Device{{ID: "front", Label: "Front Camera"}, {ID: "back", Label: "Back Camera"}},
	}
}

func (c *fakeCamera) Supported() bool { return c.supported }

func (c *fakeCamera) RequestAccess(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.access++
	return c.accessErr
}

func (c *fakeCamera) Devices(ctx context.Context) ([]scanner.Device, error) {
	return c.devices, nil
}

func (c *fakeCamera) Open(ctx context.Context, id string) (scanner.Stream, error) {
	if c.hang {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	st := &fakeStream{device: id, active: true, torch: c.torch}
	c.streams = append(c.streams, st)
	return st, nil
}

func (c *fakeCamera) activeTracks() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, s := range c.streams {
		if s.Active() {
			n++
		}
	}
	return n
}

func (c *fakeCamera) lastStream() *fakeStream {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.streams) == 0 {
		return nil
	}
	return c.streams[len(c.streams)-1]
}

type fakeDetector struct {
	calls   atomic.Int64
	detect  func(n int64) ([]string, error)
	byImage func(img image.Image) ([]string, error)
}

func (d *fakeDetector) Detect(ctx context.Context, img image.Image) ([]string, error) {
	n := d.calls.Add(1)
	if d.byImage != nil {
		return d.byImage(img)
	}
	return d.detect(n)
}

func detectAlways(codes ...string) *fakeDetector {
	return &fakeDetector{detect: func(int64) ([]string, error) { return codes, nil }}
}

type fakeSubmitter struct {
	mu        sync.Mutex
	lookups   []string
	records   []string
	lookupErr error
	recordErr error
	block     chan struct{}
	inFlight  atomic.Int64
	maxFlight atomic.Int64
}

func (f *fakeSubmitter) LookupProduct(ctx context.Context, code string) (*entity.Product, error) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	if n > f.maxFlight.Load() {
		f.maxFlight.Store(n)
	}
	f.mu.Lock()
	f.lookups = append(f.lookups, code)
	block := f.block
	f.mu.Unlock()
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.lookupErr != nil {
		return nil, f.lookupErr
	}
	return &entity.Product{Code: code, ProductName: "Test"}, nil
}

func (f *fakeSubmitter) RecordScan(ctx context.Context, code string, p *entity.Product) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, code)
	return f.recordErr
}

func (f *fakeSubmitter) counts() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.lookups), len(f.records)
}

var testCfg = config.ScannerConfig{Interval: 5 * time.Millisecond, MaxRetries: 3, StreamTimeout: time.Second}

func waitPhase(t *testing.T, sc *scanner.Scanner, phase scanner.Phase) scanner.Snapshot {
	t.Helper()
	require.Eventually(t, func() bool { return sc.Snapshot().Phase == phase }, 2*time.Second, 2*time.Millisecond,
		"fase esperada %s, actual %s", phase, sc.Snapshot().Phase)
	return sc.Snapshot()
}

// ──────────────────────────────────────────────────────────────────────────────
// Estados iniciales y permisos
// ──────────────────────────────────────────────────────────────────────────────

func TestScanner_SinCapacidadEsTerminal(t *testing.T) {
	cam := newFakeCamera()
	cam.supported = false
	sc := scanner.New(cam, detectAlways(), &fakeSubmitter{}, testCfg, nil, nil)
	defer sc.Close()

	snap := sc.Snapshot()
	assert.Equal(t, scanner.PhaseUnsupported, snap.Phase)
	assert.Equal(t, scanner.MsgUnsupported, snap.Message)
	assert.False(t, snap.Retryable())

	require.NoError(t, sc.Start(context.Background()))
	assert.Equal(t, scanner.PhaseUnsupported, sc.Snapshot().Phase, "sin reintento posible")
	assert.Empty(t, cam.streams)
}

func TestScanner_SinCapacidadFalloDeImagenSigueTerminal(t *testing.T) {
	cam := newFakeCamera()
	cam.supported = false
	sub := &fakeSubmitter{lookupErr: &domain.BackendError{Status: 404, Message: "no"}}
	sc := scanner.New(cam, detectAlways("96385074"), sub, testCfg, nil, nil)
	defer sc.Close()

	require.NoError(t, sc.ScanImage(context.Background(), image.NewGray(image.Rect(0, 0, 1, 1))))
	snap := sc.Snapshot()
	assert.Equal(t, scanner.PhaseUnsupported, snap.Phase)
	assert.Equal(t, scanner.MsgProductNotFound, snap.Message)
	assert.False(t, snap.Retryable())
	assert.True(t, snap.Failed())

	require.NoError(t, sc.Retry(context.Background()))
	require.NoError(t, sc.Start(context.Background()))
	assert.Zero(t, cam.access, "sin cámara nunca se pide acceso")
	assert.Equal(t, scanner.PhaseUnsupported, sc.Snapshot().Phase)
}

func TestScanner_SinCamaraReintentoNoFalla(t *testing.T) {
	sub := &fakeSubmitter{lookupErr: &domain.BackendError{Status: 503}}
	sc := scanner.New(nil, detectAlways("96385074"), sub, testCfg, nil, nil)
	defer sc.Close()

	require.NoError(t, sc.ScanImage(context.Background(), image.NewGray(image.Rect(0, 0, 1, 1))))
	assert.Equal(t, scanner.MsgUnavailable, sc.Snapshot().Message)
	assert.NotPanics(t, func() {
		require.NoError(t, sc.Retry(context.Background()))
		require.NoError(t, sc.Switch(context.Background()))
	})
	snap := sc.Snapshot()
	assert.Equal(t, scanner.PhaseUnsupported, snap.Phase)
	assert.True(t, snap.Failed())

	sub.mu.Lock()
	sub.lookupErr = nil
	sub.mu.Unlock()
	require.NoError(t, sc.ScanImage(context.Background(), image.NewGray(image.Rect(0, 0, 1, 1))))
	assert.Equal(t, scanner.PhaseDone, sc.Snapshot().Phase, "la subida sigue disponible tras un fallo")
}

func TestScanner_PermisoDenegadoYReintento(t *testing.T) {
	cam := newFakeCamera()
	cam.accessErr = errors.New("NotAllowedError")
	sc := scanner.New(cam, &fakeDetector{detect: func(int64) ([]string, error) { return nil, scanner.ErrNoCandidate }}, &fakeSubmitter{}, testCfg, nil, nil)
	defer sc.Close()
	assert.Equal(t, scanner.PhaseAwaitingPermission, sc.Snapshot().Phase)

	require.NoError(t, sc.Start(context.Background()))
	snap := sc.Snapshot()
	assert.Equal(t, scanner.PhaseError, snap.Phase)
	assert.Equal(t, scanner.MsgCameraAccess, snap.Message)
	assert.True(t, snap.Retryable())

	cam.mu.Lock()
	cam.accessErr = nil
	cam.mu.Unlock()
	require.NoError(t, sc.Retry(context.Background()))
	snap = sc.Snapshot()
	assert.Equal(t, scanner.PhaseScanning, snap.Phase)
	assert.Equal(t, "back", snap.DeviceID, "se prefiere la cámara trasera")
}

func TestScanner_TimeoutDelStream(t *testing.T) {
	cam := newFakeCamera()
	cam.hang = true
	cfg := testCfg
	cfg.StreamTimeout = 20 * time.Millisecond
	sc := scanner.New(cam, detectAlways(), &fakeSubmitter{}, cfg, nil, nil)
	defer sc.Close()

	require.NoError(t, sc.Start(context.Background()))
	snap := sc.Snapshot()
	assert.Equal(t, scanner.PhaseError, snap.Phase)
	assert.Equal(t, scanner.MsgStreamTimeout, snap.Message)
}

func TestDefaultDevice(t *testing.T) {
	assert.Equal(t, 0, scanner.DefaultDevice([]scanner.Device{{Label: "FaceTime HD"}, {Label: "USB cam"}}))
	assert.Equal(t, 1, scanner.DefaultDevice([]scanner.Device{{Label: "front"}, {Label: "camera 0, facing REAR"}}))
	assert.Equal(t, 2, scanner.DefaultDevice([]scanner.Device{{}, {}, {Label: "Environment"}}))
	assert.Equal(t, 0, scanner.DefaultDevice(nil))
}

// ──────────────────────────────────────────────────────────────────────────────
// Bucle de escaneo y envío
// ──────────────────────────────────────────────────────────────────────────────

func TestScanner_EscaneoExitosoNavegaAlProducto(t *testing.T) {
	cam := newFakeCamera()
	sub := &fakeSubmitter{}
	var mu sync.Mutex
	var seen []scanner.Snapshot
	sc := scanner.New(cam, detectAlways("ABC123", "5901234123457", "12345678"), sub, testCfg, nil, func(s scanner.Snapshot) {
		mu.Lock()
		seen = append(seen, s)
		mu.Unlock()
	})
	defer sc.Close()

	require.NoError(t, sc.Start(context.Background()))
	snap := waitPhase(t, sc, scanner.PhaseDone)
	assert.Equal(t, "/product/5901234123457", snap.Navigate)
	assert.Equal(t, 0, cam.activeTracks(), "el stream se libera antes de navegar")

	time.Sleep(10 * testCfg.Interval)
	lookups, records := sub.counts()
	assert.Equal(t, 1, lookups)
	assert.Equal(t, 1, records)
	assert.Equal(t, []string{"5901234123457"}, sub.lookups, "gana el primer candidato válido")

	mu.Lock()
	defer mu.Unlock()
	var phases []scanner.Phase
	for _, s := range seen {
		phases = append(phases, s.Phase)
	}
	assert.Equal(t, []scanner.Phase{scanner.PhaseScanning, scanner.PhaseProcessing, scanner.PhaseDone}, phases)
}

func TestScanner_ProductoNoEncontradoNoRegistraHistorial(t *testing.T) {
	cam := newFakeCamera()
	sub := &fakeSubmitter{lookupErr: &domain.BackendError{Status: 404, Message: "no"}}
	sc := scanner.New(cam, detectAlways("5901234123457"), sub, testCfg, nil, nil)
	defer sc.Close()

	require.NoError(t, sc.Start(context.Background()))
	snap := waitPhase(t, sc, scanner.PhaseError)
	assert.Equal(t, scanner.MsgProductNotFound, snap.Message)
	assert.Empty(t, snap.Navigate)
	assert.Equal(t, 0, cam.activeTracks())

	time.Sleep(10 * testCfg.Interval)
	lookups, records := sub.counts()
	assert.Equal(t, 1, lookups, "el escaneo no se reanuda solo")
	assert.Equal(t, 0, records)
}

func TestScanner_SesionExpiradaRedirigeAlLogin(t *testing.T) {
	cam := newFakeCamera()
	sub := &fakeSubmitter{lookupErr: domain.ErrSessionExpired}
	sc := scanner.New(cam, detectAlways("12345678"), sub, testCfg, nil, nil)
	defer sc.Close()

	require.NoError(t, sc.Start(context.Background()))
	snap := waitPhase(t, sc, scanner.PhaseError)
	assert.Equal(t, "/login", snap.Navigate)
	assert.Equal(t, 0, cam.activeTracks())
}

func TestScanner_SinCandidatoNoCuentaComoFallo(t *testing.T) {
	cam := newFakeCamera()
	det := &fakeDetector{detect: func(int64) ([]string, error) { return nil, scanner.ErrNoCandidate }}
	sc := scanner.New(cam, det, &fakeSubmitter{}, testCfg, nil, nil)
	defer sc.Close()

	require.NoError(t, sc.Start(context.Background()))
	require.Eventually(t, func() bool { return det.calls.Load() > int64(testCfg.MaxRetries)*3 }, 2*time.Second, time.Millisecond)
	assert.Equal(t, scanner.PhaseScanning, sc.Snapshot().Phase)
}

func TestScanner_CandidatosInvalidosSeIgnoran(t *testing.T) {
	cam := newFakeCamera()
	sub := &fakeSubmitter{}
	det := detectAlways("1234567", "123456789012345", "12345abc")
	sc := scanner.New(cam, det, sub, testCfg, nil, nil)
	defer sc.Close()

	require.NoError(t, sc.Start(context.Background()))
	require.Eventually(t, func() bool { return det.calls.Load() > 5 }, 2*time.Second, time.Millisecond)
	lookups, _ := sub.counts()
	assert.Equal(t, 0, lookups)
	assert.Equal(t, scanner.PhaseScanning, sc.Snapshot().Phase)
}

func TestScanner_TopeDeReintentos(t *testing.T) {
	cam := newFakeCamera()
	det := &fakeDetector{detect: func(int64) ([]string, error) { return nil, errors.New("decoder crashed") }}
	sc := scanner.New(cam, det, &fakeSubmitter{}, testCfg, nil, nil)
	defer sc.Close()

	require.NoError(t, sc.Start(context.Background()))
	snap := waitPhase(t, sc, scanner.PhaseError)
	assert.Equal(t, scanner.MsgInitFailed, snap.Message)
	assert.Equal(t, int64(testCfg.MaxRetries+1), det.calls.Load())
	assert.Equal(t, 0, cam.activeTracks())
}

func TestScanner_FallosNoConsecutivosNoAgotanReintentos(t *testing.T) {
	cam := newFakeCamera()
	// un fallo seguido de un frame sano, en bucle
	det := &fakeDetector{detect: func(n int64) ([]string, error) {
		if n%2 == 1 {
			return nil, errors.New("decoder hiccup")
		}
		return nil, scanner.ErrNoCandidate
	}}
	sc := scanner.New(cam, det, &fakeSubmitter{}, testCfg, nil, nil)
	defer sc.Close()

	require.NoError(t, sc.Start(context.Background()))
	require.Eventually(t, func() bool { return det.calls.Load() > int64(testCfg.MaxRetries)*4 }, 2*time.Second, time.Millisecond)
	assert.Equal(t, scanner.PhaseScanning, sc.Snapshot().Phase, "solo los fallos consecutivos cuentan")
}

func TestScanner_DebounceEntreAnalisis(t *testing.T) {
	cam := newFakeCamera()
	det := &fakeDetector{detect: func(int64) ([]string, error) { return nil, scanner.ErrNoCandidate }}
	cfg := testCfg
	cfg.Interval = 20 * time.Millisecond
	sc := scanner.New(cam, det, &fakeSubmitter{}, cfg, nil, nil)

	require.NoError(t, sc.Start(context.Background()))
	time.Sleep(110 * time.Millisecond)
	sc.Close()
	assert.LessOrEqual(t, det.calls.Load(), int64(6), "como mucho un análisis por intervalo")
}

// ──────────────────────────────────────────────────────────────────────────────
// Single-flight y ciclo de vida
// ──────────────────────────────────────────────────────────────────────────────

func TestScanner_UnSoloEnvioEnVuelo(t *testing.T) {
	cam := newFakeCamera()
	sub := &fakeSubmitter{block: make(chan struct{})}
	sc := scanner.New(cam, detectAlways("5901234123457"), sub, testCfg, nil, nil)
	defer sc.Close()

	require.NoError(t, sc.Start(context.Background()))
	waitPhase(t, sc, scanner.PhaseProcessing)

	err := sc.ScanImage(context.Background(), image.NewGray(image.Rect(0, 0, 1, 1)))
	assert.ErrorIs(t, err, scanner.ErrBusy)
	time.Sleep(10 * testCfg.Interval)

	close(sub.block)
	waitPhase(t, sc, scanner.PhaseDone)
	lookups, records := sub.counts()
	assert.Equal(t, 1, lookups)
	assert.Equal(t, 1, records)
	assert.Equal(t, int64(1), sub.maxFlight.Load())
}

func TestScanner_CloseLiberaLaCamara(t *testing.T) {
	cam := newFakeCamera()
	det := &fakeDetector{detect: func(int64) ([]string, error) { return nil, scanner.ErrNoCandidate }}
	sc := scanner.New(cam, det, &fakeSubmitter{}, testCfg, nil, nil)

	require.NoError(t, sc.Start(context.Background()))
	require.Equal(t, 1, cam.activeTracks())
	sc.Close()
	assert.Equal(t, 0, cam.activeTracks())

	calls := det.calls.Load()
	time.Sleep(10 * testCfg.Interval)
	assert.Equal(t, calls, det.calls.Load(), "el bucle no sigue tras Close")

	sc.Close()
	assert.ErrorIs(t, sc.Start(context.Background()), scanner.ErrClosed)
}

func TestScanner_CloseDuranteEnvio(t *testing.T) {
	cam := newFakeCamera()
	sub := &fakeSubmitter{block: make(chan struct{})}
	sc := scanner.New(cam, detectAlways("12345678"), sub, testCfg, nil, nil)

	require.NoError(t, sc.Start(context.Background()))
	waitPhase(t, sc, scanner.PhaseProcessing)
	sc.Close()
	assert.Equal(t, 0, cam.activeTracks())
	_, records := sub.counts()
	assert.Equal(t, 0, records)
}

func TestScanner_CambioDeCamara(t *testing.T) {
	cam := newFakeCamera()
	det := &fakeDetector{detect: func(int64) ([]string, error) { return nil, scanner.ErrNoCandidate }}
	sc := scanner.New(cam, det, &fakeSubmitter{}, testCfg, nil, nil)
	defer sc.Close()

	require.NoError(t, sc.Start(context.Background()))
	first := cam.lastStream()
	require.NoError(t, sc.Switch(context.Background()))

	snap := sc.Snapshot()
	assert.Equal(t, scanner.PhaseScanning, snap.Phase)
	assert.Equal(t, "front", snap.DeviceID, "cicla a la siguiente cámara")
	assert.False(t, snap.Processing)
	assert.False(t, first.Active())
	assert.Equal(t, 1, cam.activeTracks())
}

func TestScanner_CambioDeCamaraPublicaFinDeProcesamiento(t *testing.T) {
	cam := newFakeCamera()
	det := &fakeDetector{detect: func(int64) ([]string, error) { return nil, scanner.ErrNoCandidate }}
	var (
		mu   sync.Mutex
		seen []scanner.Snapshot
	)
	sc := scanner.New(cam, det, &fakeSubmitter{}, testCfg, nil, func(s scanner.Snapshot) {
		mu.Lock()
		seen = append(seen, s)
		mu.Unlock()
	})
	defer sc.Close()

	require.NoError(t, sc.Start(context.Background()))
	require.NoError(t, sc.Switch(context.Background()))

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, seen)
	last := seen[len(seen)-1]
	assert.Equal(t, scanner.PhaseScanning, last.Phase)
	assert.Equal(t, "front", last.DeviceID)
	assert.False(t, last.Processing, "el navegador no queda con el overlay de procesamiento")
}

func TestScanner_Linterna(t *testing.T) {
	cam := newFakeCamera()
	cam.torch = true
	det := &fakeDetector{detect: func(int64) ([]string, error) { return nil, scanner.ErrNoCandidate }}
	sc := scanner.New(cam, det, &fakeSubmitter{}, testCfg, nil, nil)
	defer sc.Close()

	require.NoError(t, sc.Start(context.Background()))
	assert.True(t, sc.Snapshot().TorchSupported)
	require.NoError(t, sc.ToggleTorch(context.Background()))
	assert.True(t, sc.Snapshot().TorchOn)
	assert.True(t, cam.lastStream().torchOn)

	cam.lastStream().mu.Lock()
	cam.lastStream().torchErr = errors.New("OverconstrainedError")
	cam.lastStream().mu.Unlock()
	assert.Error(t, sc.ToggleTorch(context.Background()))
	assert.True(t, sc.Snapshot().TorchOn, "sin confirmación no cambia")
}

// ──────────────────────────────────────────────────────────────────────────────
// Imagen fija
// ──────────────────────────────────────────────────────────────────────────────

func TestScanImage_SinCodigoPublicaAviso(t *testing.T) {
	det := &fakeDetector{detect: func(int64) ([]string, error) { return nil, scanner.ErrNoCandidate }}
	sc := scanner.New(nil, det, &fakeSubmitter{}, testCfg, nil, nil)
	defer sc.Close()

	require.NoError(t, sc.ScanImage(context.Background(), image.NewGray(image.Rect(0, 0, 1, 1))))
	snap := sc.Snapshot()
	assert.Equal(t, scanner.PhaseUnsupported, snap.Phase)
	assert.Equal(t, scanner.MsgNoBarcodeInImage, snap.Notice)
	assert.False(t, snap.Processing)
}

func TestScanImage_MismoEnvioQueElBucle(t *testing.T) {
	sub := &fakeSubmitter{}
	sc := scanner.New(nil, detectAlways("x", "96385074"), sub, testCfg, nil, nil)
	defer sc.Close()

	require.NoError(t, sc.ScanImage(context.Background(), image.NewGray(image.Rect(0, 0, 1, 1))))
	snap := sc.Snapshot()
	assert.Equal(t, scanner.PhaseDone, snap.Phase)
	assert.Equal(t, "/product/96385074", snap.Navigate)
	lookups, records := sub.counts()
	assert.Equal(t, 1, lookups)
	assert.Equal(t, 1, records)
}

func TestScanImage_DetieneElBucleEnVivo(t *testing.T) {
	cam := newFakeCamera()
	// los frames en vivo son 2x2; la imagen subida 1x1 es la única con código
	det := &fakeDetector{byImage: func(img image.Image) ([]string, error) {
		if img.Bounds().Dx() == 1 {
			return []string{"12345670"}, nil
		}
		return nil, scanner.ErrNoCandidate
	}}
	sub := &fakeSubmitter{}
	sc := scanner.New(cam, det, sub, testCfg, nil, nil)
	defer sc.Close()

	require.NoError(t, sc.Start(context.Background()))
	require.NoError(t, sc.ScanImage(context.Background(), image.NewGray(image.Rect(0, 0, 1, 1))))
	waitPhase(t, sc, scanner.PhaseDone)
	assert.Equal(t, 0, cam.activeTracks())
	time.Sleep(10 * testCfg.Interval)
	lookups, _ := sub.counts()
	assert.Equal(t, 1, lookups)
}

// ──────────────────────────────────────────────────────────────────────────────
// Tabla de mensajes
// ──────────────────────────────────────────────────────────────────────────────

func TestMessageFor(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{domain.ErrInvalidBarcode, scanner.MsgInvalidBarcode},
		{&domain.BackendError{Status: 400}, scanner.MsgInvalidBarcode},
		{&domain.BackendError{Status: 404, Message: "gone"}, scanner.MsgProductNotFound},
		{&domain.BackendError{Status: 503}, scanner.MsgUnavailable},
		{&domain.BackendError{Status: 500}, scanner.MsgFetchFailed},
		{&domain.BackendError{Status: 422}, scanner.MsgFetchFailed},
		{errors.Join(domain.ErrNoResponse, errors.New("dial tcp")), scanner.MsgNetwork},
		{errors.New("boom"), scanner.MsgUnexpected},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, scanner.MessageFor(c.err), "%v", c.err)
	}
}
