package http

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/jhoicas/pilo-web/internal/application/session"
	"github.com/jhoicas/pilo-web/internal/domain/entity"
	"github.com/jhoicas/pilo-web/pkg/config"
	"github.com/jhoicas/pilo-web/pkg/jwt"
)

// Locals keys de la sesión y del usuario en Fiber.
const (
	LocalSession = "session"
	LocalUser    = "user"
)

const cookieIssuer = "pilo-web"

// SessionMiddleware resuelve la cookie firmada del navegador a su Store. Sin cookie válida
// se emite un sid nuevo; el estado persistido bajo un sid anterior queda huérfano.
func SessionMiddleware(cfg config.SessionConfig, mgr *session.Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var sid string
		if raw := c.Cookies(cfg.CookieName); raw != "" {
			if v, err := jwt.Parse(cfg.Secret, raw); err == nil {
				sid = v
			}
		}
		if sid == "" {
			sid = uuid.NewString()
			signed, err := jwt.Generate(cfg.Secret, sid, cookieIssuer, cfg.TTL)
			if err != nil {
				return fmt.Errorf("http: firmar cookie de sesión: %w", err)
			}
			c.Cookie(&fiber.Cookie{
				Name:     cfg.CookieName,
				Value:    signed,
				Path:     "/",
				Expires:  time.Now().Add(cfg.TTL),
				Secure:   cfg.Secure,
				HTTPOnly: true,
				SameSite: fiber.CookieSameSiteLaxMode,
			})
		}
		c.Locals(LocalSession, mgr.Get(c.UserContext(), sid))
		return c.Next()
	}
}

// CurrentSession devuelve la sesión del contexto (después de SessionMiddleware).
func CurrentSession(c *fiber.Ctx) *session.Store {
	st, _ := c.Locals(LocalSession).(*session.Store)
	return st
}

// CurrentUser devuelve el usuario autenticado (después de RequireAuth).
func CurrentUser(c *fiber.Ctx) *entity.User {
	u, _ := c.Locals(LocalUser).(*entity.User)
	return u
}
