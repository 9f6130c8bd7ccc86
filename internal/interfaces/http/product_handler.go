package http

import (
	"net/url"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/pilo-web/internal/application/usecase"
	"github.com/jhoicas/pilo-web/internal/domain/barcode"
	"github.com/jhoicas/pilo-web/internal/infrastructure/backend"
	infrabarcode "github.com/jhoicas/pilo-web/internal/infrastructure/barcode"
	"github.com/jhoicas/pilo-web/pkg/logger"
)

// Tamaño de la imagen del código de barras en la ficha.
const (
	barcodeWidth  = 320
	barcodeHeight = 120
)

// ProductHandler ficha de producto.
type ProductHandler struct {
	minDelay time.Duration
	log      *logger.Logger
}

// NewProductHandler construye el handler. minDelay es el tiempo mínimo del esqueleto de carga.
func NewProductHandler(minDelay time.Duration, log *logger.Logger) *ProductHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &ProductHandler{minDelay: minDelay, log: log}
}

// Page GET /product/:barcode. Devuelve el esqueleto; app.js pide el detalle.
func (h *ProductHandler) Page(c *fiber.Ctx) error {
	code, err := url.PathUnescape(c.Params("barcode"))
	if err != nil {
		code = c.Params("barcode")
	}
	return render(c, fiber.StatusOK, "product", fiber.Map{
		"Title": "Product",
		"Nav":   "scan",
		"Code":  code,
	})
}

// Details GET /product/:barcode/details. Fragmento con el detalle, el error o "no encontrado".
func (h *ProductHandler) Details(c *fiber.Ctx) error {
	code, err := url.PathUnescape(c.Params("barcode"))
	if err != nil {
		code = c.Params("barcode")
	}
	uc := usecase.NewProductUseCase(backend.NewAPI(CurrentSession(c)), h.minDelay, h.log)
	details, err := uc.Details(c.UserContext(), code)
	if err != nil {
		if sessionLost(err) {
			return redirectSessionLost(c, err, "/product/"+url.PathEscape(code))
		}
		return err
	}
	return fragment(c, "partials/product_details", details)
}

// Barcode GET /product/:barcode/barcode.png.
func (h *ProductHandler) Barcode(c *fiber.Ctx) error {
	code := c.Params("barcode")
	if !barcode.Valid(code) {
		return fiber.NewError(fiber.StatusBadRequest, "invalid barcode")
	}
	c.Set(fiber.HeaderContentType, "image/png")
	c.Set(fiber.HeaderCacheControl, "public, max-age=86400")
	if err := infrabarcode.WritePNG(c, code, barcodeWidth, barcodeHeight); err != nil {
		h.log.Warn().Err(err).Str("code", code).Msg("render de código de barras")
		return fiber.NewError(fiber.StatusInternalServerError, "barcode rendering failed")
	}
	return nil
}
