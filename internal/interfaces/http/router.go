package http

import (
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/filesystem"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/jhoicas/pilo-web/internal/application/ports"
	"github.com/jhoicas/pilo-web/internal/application/scanner"
	"github.com/jhoicas/pilo-web/internal/application/session"
	"github.com/jhoicas/pilo-web/pkg/config"
	"github.com/jhoicas/pilo-web/pkg/logger"
)

// Límite del cuerpo: imágenes de hasta 8 MB más el sobre multipart.
const bodyLimit = 10 << 20

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Sessions  *session.Manager
	Session   config.SessionConfig
	Scanner   config.ScannerConfig
	Product   config.ProductConfig
	RateLimit config.RateLimitConfig
	// LimiterStorage almacena los contadores del límite de login; nil usa memoria.
	LimiterStorage fiber.Storage
	Detector       scanner.Detector
	PDF            ports.HistoryPDFGenerator
	XML            ports.HistoryXMLExporter
	Log            *logger.Logger
}

// NewApp aplicación Fiber con vistas, recuperación de pánicos y log de peticiones.
func NewApp(name string, log *logger.Logger) *fiber.App {
	if log == nil {
		log = logger.Nop()
	}
	app := fiber.New(fiber.Config{
		AppName:      name,
		Views:        NewViews(),
		BodyLimit:    bodyLimit,
		IdleTimeout:  60 * time.Second,
		ErrorHandler: ErrorHandler(log),
	})
	app.Use(recover.New())
	app.Use(RequestLogger(log.Named("http")))
	return app
}

// Router registra las páginas.
func Router(app *fiber.App, deps RouterDeps) {
	log := deps.Log
	if log == nil {
		log = logger.Nop()
	}

	app.Use("/static", filesystem.New(filesystem.Config{Root: StaticFS()}))

	app.Use(SessionMiddleware(deps.Session, deps.Sessions))

	// Públicas
	authHandler := NewAuthHandler(log)
	app.Get("/login", authHandler.LoginPage)
	app.Post("/login", limiter.New(limiter.Config{
		Next:         func(*fiber.Ctx) bool { return !deps.RateLimit.Enabled },
		Max:          deps.RateLimit.Max,
		Expiration:   deps.RateLimit.Window,
		KeyGenerator: func(c *fiber.Ctx) string { return "login:" + c.IP() },
		LimitReached: authHandler.LoginLimited,
		Storage:      deps.LimiterStorage,
	}), authHandler.Login)
	app.Get("/signup", authHandler.SignupPage)
	app.Post("/signup", authHandler.Signup)
	app.Post("/logout", authHandler.Logout)
	app.Get("/user", authHandler.Profile)
	app.Post("/user", authHandler.UpdateProfile)

	// Protegidas
	protected := app.Group("/", RequireAuth())
	protected.Get("/", func(c *fiber.Ctx) error { return c.Redirect("/scan", fiber.StatusFound) })

	scanHandler := NewScanHandler(deps.Detector, deps.Sessions, deps.Scanner, log)
	protected.Get("/scan", scanHandler.Page)
	protected.Get("/scan/ws", scanHandler.Upgrade, websocket.New(scanHandler.Stream))
	protected.Post("/scan/upload", scanHandler.Upload)

	productHandler := NewProductHandler(deps.Product.MinDelay, log)
	protected.Get("/product/:barcode", productHandler.Page)
	protected.Get("/product/:barcode/details", productHandler.Details)
	protected.Get("/product/:barcode/barcode.png", productHandler.Barcode)

	historyHandler := NewHistoryHandler(deps.PDF, deps.XML, log)
	protected.Get("/history", historyHandler.Page)
	protected.Get("/history/list", historyHandler.List)
	protected.Get("/history/export.pdf", historyHandler.ExportPDF)
	protected.Get("/history/export.xml", historyHandler.ExportXML)
}
