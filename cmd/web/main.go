package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/pilo-web/internal/application/session"
	"github.com/jhoicas/pilo-web/internal/infrastructure/backend"
	"github.com/jhoicas/pilo-web/internal/infrastructure/barcode"
	"github.com/jhoicas/pilo-web/internal/infrastructure/export"
	infrapdf "github.com/jhoicas/pilo-web/internal/infrastructure/pdf"
	"github.com/jhoicas/pilo-web/internal/infrastructure/storage"
	httpRouter "github.com/jhoicas/pilo-web/internal/interfaces/http"
	"github.com/jhoicas/pilo-web/pkg/config"
	"github.com/jhoicas/pilo-web/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("backend", cfg.Backend.BaseURL).
		Str("storage", cfg.Storage.Driver).
		Msg("iniciando aplicación")

	ctx, cancelRun := context.WithCancel(context.Background())
	defer cancelRun()

	opened, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		log.Fatal().Err(err).Msg("abrir almacenamiento de sesiones")
	}
	defer opened.Close()

	client := backend.NewClient(cfg.Backend)
	sessions := session.NewManager(opened.Repo, client, log.Named("session"), session.ManagerConfig{
		IdleTTL:  cfg.Session.IdleTTL,
		InitWait: cfg.Session.InitWait,
	})
	go sessions.Run(ctx)

	// Con Redis el límite de login se comparte entre instancias; sin él el limiter usa memoria.
	var limiterStorage fiber.Storage
	if opened.Redis != nil {
		limiterStorage = storage.NewFiberRedisStorage(opened.Redis, "pilo:limiter:")
	}

	app := httpRouter.NewApp(cfg.App.Name, log)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name, "sessions": sessions.Len()})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		Sessions:       sessions,
		Session:        cfg.Session,
		Scanner:        cfg.Scanner,
		Product:        cfg.Product,
		RateLimit:      cfg.RateLimit,
		LimiterStorage: limiterStorage,
		Detector:       barcode.NewZXingDetector(),
		PDF:            infrapdf.NewMarotoHistoryPDF(),
		XML:            export.NewXMLExporter(),
		Log:            log,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")
	cancelRun()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
