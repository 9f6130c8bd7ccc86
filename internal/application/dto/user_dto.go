package dto

import (
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/jhoicas/pilo-web/internal/domain/entity"
)

var emailRe = regexp.MustCompile(`\S+@\S+\.\S+`)

// Errores de validación del formulario de registro.
const (
	MsgNameRequired     = "Name is required"
	MsgEmailRequired    = "Email is required"
	MsgEmailInvalid     = "Email is invalid"
	MsgPasswordRequired = "Password is required"
	MsgPasswordShort    = "Password must be at least 6 characters"
	MsgAgeRequired      = "Age is required"
	MsgAgeInvalid       = "Please enter a valid age"
)

// FieldErrors errores por campo del formulario.
type FieldErrors map[string]string

// LoginForm formulario de /login. From es la ruta protegida que originó la redirección.
type LoginForm struct {
	Email    string `form:"email"`
	Password string `form:"password"`
	From     string `form:"from"`
}

// Credentials credenciales recortadas.
func (f LoginForm) Credentials() entity.Credentials {
	return entity.Credentials{Email: strings.TrimSpace(f.Email), Password: strings.TrimSpace(f.Password)}
}

// SignupForm formulario de /signup.
type SignupForm struct {
	Name        string   `form:"name"`
	Email       string   `form:"email"`
	Password    string   `form:"password"`
	Age         string   `form:"age"`
	Allergies   []string `form:"allergies"`
	Preferences []string `form:"preferences"`
}

// Validate aplica las reglas del formulario. Opciones desconocidas se descartan.
func (f SignupForm) Validate() (entity.Registration, FieldErrors) {
	errs := FieldErrors{}
	name := strings.TrimSpace(f.Name)
	email := strings.TrimSpace(f.Email)

	if name == "" {
		errs["name"] = MsgNameRequired
	}
	switch {
	case email == "":
		errs["email"] = MsgEmailRequired
	case !emailRe.MatchString(email):
		errs["email"] = MsgEmailInvalid
	}
	switch {
	case f.Password == "":
		errs["password"] = MsgPasswordRequired
	case len(f.Password) < 6:
		errs["password"] = MsgPasswordShort
	}
	age, _ := parseAge(f.Age, errs)

	reg := entity.Registration{
		Name:        name,
		Email:       email,
		Password:    f.Password,
		Age:         age,
		Allergies:   pick(f.Allergies, entity.AllergyOptions),
		Preferences: pick(f.Preferences, entity.PreferenceOptions),
	}
	if len(errs) == 0 {
		return reg, nil
	}
	return reg, errs
}

// ProfileForm formulario de edición de perfil. Campos vacíos no se envían.
type ProfileForm struct {
	Name        string   `form:"name"`
	Email       string   `form:"email"`
	Age         string   `form:"age"`
	Allergies   []string `form:"allergies"`
	Preferences []string `form:"preferences"`
}

// Update construye el PUT parcial.
func (f ProfileForm) Update() (entity.ProfileUpdate, FieldErrors) {
	errs := FieldErrors{}
	var upd entity.ProfileUpdate
	if name := strings.TrimSpace(f.Name); name != "" {
		upd.Name = &name
	}
	if email := strings.TrimSpace(f.Email); email != "" {
		if !emailRe.MatchString(email) {
			errs["email"] = MsgEmailInvalid
		}
		upd.Email = &email
	}
	if strings.TrimSpace(f.Age) != "" {
		if age, ok := parseAge(f.Age, errs); ok {
			upd.Age = &age
		}
	}
	upd.Allergies = pick(f.Allergies, entity.AllergyOptions)
	upd.Preferences = pick(f.Preferences, entity.PreferenceOptions)
	if len(errs) == 0 {
		return upd, nil
	}
	return upd, errs
}

func parseAge(raw string, errs FieldErrors) (int, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		errs["age"] = MsgAgeRequired
		return 0, false
	}
	age, err := strconv.Atoi(raw)
	if err != nil || age < 1 {
		errs["age"] = MsgAgeInvalid
		return 0, false
	}
	return age, true
}

func pick(values, allowed []string) []string {
	out := []string{}
	for _, v := range values {
		if slices.Contains(allowed, v) && !slices.Contains(out, v) {
			out = append(out, v)
		}
	}
	return out
}
