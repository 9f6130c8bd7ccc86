package http

import (
	"net/url"

	"github.com/gofiber/fiber/v2"
)

// MsgLoginRequired mensaje que acompaña la redirección del guard.
const MsgLoginRequired = "Please log in to access this page"

// RequireAuth protege rutas. Prioridad: cargando → error → sin usuario → acceso.
//   - Loading: indicador de carga que se refresca solo, sin contenido protegido.
//   - Error: panel con "Return to Login".
//   - sin usuario: 302 a /login con from y message.
func RequireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		st := CurrentSession(c)
		if st == nil {
			return redirectToLogin(c, MsgLoginRequired)
		}
		s := st.Snapshot()
		switch {
		case s.Loading:
			return render(c, fiber.StatusOK, "loading", fiber.Map{"Title": "Loading", "Refresh": 1})
		case s.Error != "":
			return render(c, fiber.StatusUnauthorized, "auth_error", fiber.Map{"Title": "Authentication Error", "Message": s.Error})
		case !s.IsAuthenticated():
			return redirectToLogin(c, MsgLoginRequired)
		}
		c.Locals(LocalUser, s.User)
		return c.Next()
	}
}

// redirectToLogin 302 a /login recordando la ruta original.
func redirectToLogin(c *fiber.Ctx, message string) error {
	q := url.Values{}
	q.Set("from", c.OriginalURL())
	if message != "" {
		q.Set("message", message)
	}
	return c.Redirect("/login?"+q.Encode(), fiber.StatusFound)
}
