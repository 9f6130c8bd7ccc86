package http

import (
	"errors"
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/pilo-web/internal/domain"
)

// render página completa con el layout. Completa User desde la sesión si no viene.
func render(c *fiber.Ctx, status int, name string, data fiber.Map) error {
	if data == nil {
		data = fiber.Map{}
	}
	if _, ok := data["User"]; !ok {
		if st := CurrentSession(c); st != nil {
			data["User"] = st.Snapshot().User
		}
	}
	return c.Status(status).Render(name, data, layoutMain)
}

// fragment parcial sin layout (lo inserta app.js en el esqueleto).
func fragment(c *fiber.Ctx, name string, data any) error {
	return c.Render(name, data)
}

// sessionLost errores que obligan a iniciar sesión de nuevo.
func sessionLost(err error) bool {
	return errors.Is(err, domain.ErrSessionExpired) || errors.Is(err, domain.ErrNoToken)
}

// redirectSessionLost la sesión ya fue limpiada por el Store; se vuelve al login.
func redirectSessionLost(c *fiber.Ctx, err error, from string) error {
	q := url.Values{}
	if from != "" {
		q.Set("from", from)
	}
	msg := domain.ErrSessionExpired.Error()
	if errors.Is(err, domain.ErrNoToken) {
		msg = MsgLoginRequired
	}
	q.Set("message", msg)
	return c.Redirect("/login?"+q.Encode(), fiber.StatusFound)
}

// safeFrom solo acepta rutas relativas del mismo sitio. El resto vuelve a /scan.
func safeFrom(from string) string {
	const fallback = "/scan"
	if from == "" || !strings.HasPrefix(from, "/") || strings.HasPrefix(from, "//") || strings.Contains(from, `\`) {
		return fallback
	}
	u, err := url.Parse(from)
	if err != nil || u.IsAbs() || u.Host != "" {
		return fallback
	}
	switch {
	case u.Path == "/login", u.Path == "/signup", u.Path == "/scan/ws":
		return fallback
	}
	return from
}
