package http

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/pilo-web/internal/application/ports"
	"github.com/jhoicas/pilo-web/internal/application/usecase"
	"github.com/jhoicas/pilo-web/internal/infrastructure/backend"
	"github.com/jhoicas/pilo-web/pkg/logger"
)

// HistoryHandler historial de escaneos y sus exportaciones.
type HistoryHandler struct {
	pdf ports.HistoryPDFGenerator
	xml ports.HistoryXMLExporter
	log *logger.Logger
	now func() time.Time
}

// NewHistoryHandler construye el handler.
func NewHistoryHandler(pdf ports.HistoryPDFGenerator, xml ports.HistoryXMLExporter, log *logger.Logger) *HistoryHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &HistoryHandler{pdf: pdf, xml: xml, log: log, now: time.Now}
}

func (h *HistoryHandler) useCase(c *fiber.Ctx) *usecase.HistoryUseCase {
	return usecase.NewHistoryUseCase(backend.NewAPI(CurrentSession(c)), h.log)
}

// Page GET /history. Esqueleto; app.js pide la lista.
func (h *HistoryHandler) Page(c *fiber.Ctx) error {
	return render(c, fiber.StatusOK, "history", fiber.Map{"Title": "Scan History", "Nav": "history"})
}

// List GET /history/list. Error, vacío o tarjetas, en ese orden.
func (h *HistoryHandler) List(c *fiber.Ctx) error {
	page, err := h.useCase(c).Page(c.UserContext())
	if err != nil {
		if sessionLost(err) {
			return redirectSessionLost(c, err, "/history")
		}
		return err
	}
	return fragment(c, "partials/history_list", page)
}

// ExportPDF GET /history/export.pdf.
func (h *HistoryHandler) ExportPDF(c *fiber.Ctx) error {
	return h.export(c, "application/pdf", "pdf", h.pdf.GenerateHistoryPDF)
}

// ExportXML GET /history/export.xml.
func (h *HistoryHandler) ExportXML(c *fiber.Ctx) error {
	return h.export(c, "application/xml", "xml", h.xml.ExportHistoryXML)
}

type exportFunc func(ctx context.Context, in ports.HistoryExport) ([]byte, error)

func (h *HistoryHandler) export(c *fiber.Ctx, contentType, ext string, gen exportFunc) error {
	ctx := c.UserContext()
	entries, err := h.useCase(c).Entries(ctx)
	if err != nil {
		if sessionLost(err) {
			return redirectSessionLost(c, err, "/history")
		}
		h.log.Warn().Err(err).Str("format", ext).Msg("exportar historial")
		return render(c, fiber.StatusBadGateway, "error", fiber.Map{
			"Title":   "Scan History",
			"Heading": "Scan History",
			"Message": usecase.MsgHistoryError,
			"Back":    "/history",
		})
	}
	now := h.now()
	out, err := gen(ctx, ports.HistoryExport{
		User:        CurrentUser(c),
		Entries:     entries,
		GeneratedAt: now,
		BaseURL:     c.BaseURL(),
	})
	if err != nil {
		return fmt.Errorf("http: exportar historial %s: %w", ext, err)
	}
	c.Set(fiber.HeaderContentType, contentType)
	c.Attachment(fmt.Sprintf("pilo-history-%s.%s", now.Format("20060102"), ext))
	return c.Send(out)
}
