package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/pilo-web/internal/application/dto"
	"github.com/jhoicas/pilo-web/pkg/logger"
)

// Mensajes de los formularios de acceso.
const (
	MsgInvalidForm       = "Invalid form submission"
	MsgCredentials       = "Email and password are required"
	MsgTooManyAttempts   = "Too many login attempts. Please try again later."
	MsgProfileValidation = "Please fix the highlighted fields"
)

// AuthHandler login, signup, logout y perfil.
type AuthHandler struct {
	log *logger.Logger
}

// NewAuthHandler construye el handler de auth.
func NewAuthHandler(log *logger.Logger) *AuthHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &AuthHandler{log: log}
}

// LoginPage GET /login. Con sesión activa vuelve a from.
func (h *AuthHandler) LoginPage(c *fiber.Ctx) error {
	st := CurrentSession(c)
	s := st.Snapshot()
	if s.IsAuthenticated() {
		return c.Redirect(safeFrom(c.Query("from")), fiber.StatusFound)
	}
	if s.Error != "" {
		st.ClearError()
	}
	return render(c, fiber.StatusOK, "login", fiber.Map{
		"Title":   "Login",
		"From":    c.Query("from"),
		"Message": c.Query("message"),
		"Error":   s.Error,
	})
}

// Login POST /login. El error se muestra en línea y se descarta del estado.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var in dto.LoginForm
	if err := c.BodyParser(&in); err != nil {
		return h.loginError(c, fiber.StatusBadRequest, in, MsgInvalidForm)
	}
	creds := in.Credentials()
	if creds.Email == "" || creds.Password == "" {
		return h.loginError(c, fiber.StatusUnprocessableEntity, in, MsgCredentials)
	}
	st := CurrentSession(c)
	res := st.Login(c.UserContext(), creds)
	if !res.Success {
		st.ClearError()
		h.log.Info().Str("email", creds.Email).Str("reason", res.Error).Msg("login rechazado")
		return h.loginError(c, fiber.StatusUnauthorized, in, res.Error)
	}
	return c.Redirect(safeFrom(in.From), fiber.StatusSeeOther)
}

// LoginLimited respuesta del limitador de intentos.
func (h *AuthHandler) LoginLimited(c *fiber.Ctx) error {
	var in dto.LoginForm
	if err := c.BodyParser(&in); err != nil {
		h.log.Debug().Err(err).Msg("formulario de login ilegible en respuesta de límite")
	}
	return h.loginError(c, fiber.StatusTooManyRequests, in, MsgTooManyAttempts)
}

func (h *AuthHandler) loginError(c *fiber.Ctx, status int, in dto.LoginForm, msg string) error {
	return render(c, status, "login", fiber.Map{
		"Title": "Login",
		"From":  in.From,
		"Email": in.Email,
		"Error": msg,
	})
}

// SignupPage GET /signup.
func (h *AuthHandler) SignupPage(c *fiber.Ctx) error {
	if CurrentSession(c).Snapshot().IsAuthenticated() {
		return c.Redirect("/scan", fiber.StatusFound)
	}
	return h.signupForm(c, fiber.StatusOK, dto.SignupForm{}, nil, "")
}

// Signup POST /signup. Valida igual que el formulario original antes de llamar al backend.
func (h *AuthHandler) Signup(c *fiber.Ctx) error {
	var in dto.SignupForm
	if err := c.BodyParser(&in); err != nil {
		return h.signupForm(c, fiber.StatusBadRequest, in, nil, MsgInvalidForm)
	}
	reg, errs := in.Validate()
	if errs != nil {
		return h.signupForm(c, fiber.StatusUnprocessableEntity, in, errs, "")
	}
	res := CurrentSession(c).Signup(c.UserContext(), reg)
	if !res.Success {
		return h.signupForm(c, fiber.StatusBadRequest, in, nil, res.Error)
	}
	h.log.Info().Str("email", reg.Email).Msg("usuario registrado")
	return c.Redirect("/scan", fiber.StatusSeeOther)
}

func (h *AuthHandler) signupForm(c *fiber.Ctx, status int, in dto.SignupForm, errs dto.FieldErrors, msg string) error {
	if errs == nil {
		errs = dto.FieldErrors{}
	}
	return render(c, status, "signup", fiber.Map{
		"Title":  "Sign Up",
		"Form":   in,
		"Errors": errs,
		"Error":  msg,
	})
}

// Logout POST /logout. Best-effort contra el backend; el estado local siempre se borra.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	CurrentSession(c).Logout(c.UserContext())
	return c.Redirect("/login", fiber.StatusSeeOther)
}

// Profile GET /user. Pública: sin sesión muestra la invitación a iniciar sesión.
func (h *AuthHandler) Profile(c *fiber.Ctx) error {
	return render(c, fiber.StatusOK, "user", fiber.Map{
		"Title":  "Profile",
		"Nav":    "user",
		"Saved":  c.Query("saved") == "1",
		"Errors": dto.FieldErrors{},
	})
}

// UpdateProfile POST /user. El perfil local cambia solo si el backend confirma.
func (h *AuthHandler) UpdateProfile(c *fiber.Ctx) error {
	st := CurrentSession(c)
	if !st.Snapshot().IsAuthenticated() {
		return redirectToLogin(c, MsgLoginRequired)
	}
	var in dto.ProfileForm
	if err := c.BodyParser(&in); err != nil {
		return h.profileError(c, fiber.StatusBadRequest, nil, MsgInvalidForm)
	}
	upd, errs := in.Update()
	if errs != nil {
		return h.profileError(c, fiber.StatusUnprocessableEntity, errs, MsgProfileValidation)
	}
	res := st.UpdateUser(c.UserContext(), upd)
	if !res.Success {
		if !st.Snapshot().IsAuthenticated() {
			return redirectToLogin(c, res.Error)
		}
		return h.profileError(c, fiber.StatusBadGateway, nil, res.Error)
	}
	return c.Redirect("/user?saved=1", fiber.StatusSeeOther)
}

func (h *AuthHandler) profileError(c *fiber.Ctx, status int, errs dto.FieldErrors, msg string) error {
	if errs == nil {
		errs = dto.FieldErrors{}
	}
	return render(c, status, "user", fiber.Map{
		"Title":  "Profile",
		"Nav":    "user",
		"Errors": errs,
		"Error":  msg,
	})
}
