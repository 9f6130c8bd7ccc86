package http

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/pilo-web/internal/application/scanner"
	"github.com/jhoicas/pilo-web/internal/application/session"
	"github.com/jhoicas/pilo-web/internal/domain"
	"github.com/jhoicas/pilo-web/internal/infrastructure/backend"
	"github.com/jhoicas/pilo-web/internal/infrastructure/barcode"
	"github.com/jhoicas/pilo-web/internal/infrastructure/camera"
	"github.com/jhoicas/pilo-web/pkg/config"
	"github.com/jhoicas/pilo-web/pkg/logger"
)

// MsgUploadMissing formulario de subida sin archivo.
const MsgUploadMissing = "Please choose an image to scan."

// ScanHandler página del escáner, su WebSocket y la subida de imágenes.
type ScanHandler struct {
	detector scanner.Detector
	sessions *session.Manager
	cfg      config.ScannerConfig
	log      *logger.Logger
}

// NewScanHandler construye el handler.
// sessions puede ser nil (sin expulsión que evitar).
func NewScanHandler(detector scanner.Detector, sessions *session.Manager, cfg config.ScannerConfig, log *logger.Logger) *ScanHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &ScanHandler{detector: detector, sessions: sessions, cfg: cfg, log: log.Named("scanner")}
}

func (h *ScanHandler) submitter(st *session.Store) scanner.Submitter {
	return scanner.NewBackendSubmitter(backend.NewAPI(st))
}

// Page GET /scan.
func (h *ScanHandler) Page(c *fiber.Ctx) error {
	return render(c, fiber.StatusOK, "scan", fiber.Map{"Title": "Scan", "Nav": "scan"})
}

// Upgrade solo deja pasar peticiones de upgrade a WebSocket.
func (h *ScanHandler) Upgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	return c.Next()
}

// Stream GET /scan/ws. Un escáner por conexión; el navegador solo aporta la cámara.
func (h *ScanHandler) Stream(conn *websocket.Conn) {
	st, _ := conn.Locals(LocalSession).(*session.Store)
	if st == nil {
		conn.Close()
		return
	}
	if h.sessions != nil {
		release := h.sessions.Hold(st)
		defer release()
	}
	remote := camera.NewRemote(conn, h.log)
	hello, err := remote.ReadHello()
	if err != nil {
		h.log.Debug().Err(err).Msg("conexión de escáner sin hello")
		conn.Close()
		return
	}

	sc := scanner.New(remote, h.detector, h.submitter(st), h.cfg, h.log, remote.PushState)
	defer sc.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	remote.PushState(sc.Snapshot())
	if hello.Camera {
		go sc.Start(ctx)
	}
	go h.dispatch(ctx, sc, remote)

	if err := remote.Run(ctx); err != nil {
		h.log.Debug().Err(err).Msg("conexión de escáner cerrada")
	}
}

// dispatch traduce las acciones del usuario a operaciones del escáner.
func (h *ScanHandler) dispatch(ctx context.Context, sc *scanner.Scanner, remote *camera.Remote) {
	for msg := range remote.Actions() {
		switch msg.Type {
		case camera.ActionStart:
			go sc.Start(ctx)
		case camera.ActionRetry:
			go sc.Retry(ctx)
		case camera.ActionSwitch:
			go sc.Switch(ctx)
		case camera.ActionTorchToggle:
			go sc.ToggleTorch(ctx)
		case camera.ActionUpload:
			go h.upload(ctx, sc, remote, msg.Data)
		}
	}
}

func (h *ScanHandler) upload(ctx context.Context, sc *scanner.Scanner, remote *camera.Remote, data string) {
	img, err := barcode.DecodeDataURL(data)
	if err != nil {
		h.log.Debug().Err(err).Msg("imagen subida ilegible")
		snap := sc.Snapshot()
		snap.Notice = scanner.MsgNoBarcodeInImage
		remote.PushState(snap)
		return
	}
	if err := sc.ScanImage(ctx, img); err != nil && !errors.Is(err, scanner.ErrClosed) {
		h.log.Debug().Err(err).Msg("escaneo de imagen rechazado")
	}
}

// Upload POST /scan/upload. Camino sin JavaScript: la imagen pasa por el mismo detector y envío.
func (h *ScanHandler) Upload(c *fiber.Ctx) error {
	fh, err := c.FormFile("image")
	if err != nil {
		return h.uploadResult(c, fiber.StatusBadRequest, "", MsgUploadMissing)
	}
	f, err := fh.Open()
	if err != nil {
		return h.uploadResult(c, fiber.StatusBadRequest, "", MsgUploadMissing)
	}
	defer f.Close()

	img, err := barcode.Decode(f)
	if err != nil {
		h.log.Debug().Err(err).Str("file", fh.Filename).Msg("imagen subida ilegible")
		return h.uploadResult(c, fiber.StatusUnprocessableEntity, "", scanner.MsgNoBarcodeInImage)
	}

	sc := scanner.New(nil, h.detector, h.submitter(CurrentSession(c)), h.cfg, h.log, nil)
	defer sc.Close()
	if err := sc.ScanImage(c.UserContext(), img); err != nil {
		return err
	}

	snap := sc.Snapshot()
	switch {
	case snap.Navigate == "/login":
		return redirectSessionLost(c, domain.ErrSessionExpired, "/scan")
	case snap.Navigate != "":
		return c.Redirect(snap.Navigate, fiber.StatusSeeOther)
	case snap.Notice != "":
		return h.uploadResult(c, fiber.StatusUnprocessableEntity, "", snap.Notice)
	case snap.Failed():
		return h.uploadResult(c, fiber.StatusUnprocessableEntity, snap.Message, "")
	}
	return c.Redirect("/scan", fiber.StatusSeeOther)
}

func (h *ScanHandler) uploadResult(c *fiber.Ctx, status int, errMsg, notice string) error {
	return render(c, status, "scan", fiber.Map{
		"Title":  "Scan",
		"Nav":    "scan",
		"Error":  strings.TrimSpace(errMsg),
		"Notice": notice,
	})
}
