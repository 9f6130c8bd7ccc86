package entity

// Opciones válidas del formulario de registro.
var (
	AllergyOptions = []string{
		"gluten", "peanuts", "eggs", "milk", "sesame-seeds", "gelatin",
		"mustard", "fish", "soybeans", "nuts", "celery",
	}
	PreferenceOptions = []string{
		"vegetarian", "vegan", "halal", "kosher", "dairy-free", "gluten-free",
	}
)

// User perfil del usuario tal como lo entrega el backend (GET /auth/me).
// Se cachea serializado en el ClientState junto al token.
type User struct {
	ID          string   `json:"_id,omitempty"`
	Name        string   `json:"name"`
	Email       string   `json:"email"`
	Age         int      `json:"age,omitempty"`
	Allergies   []string `json:"allergies,omitempty"`
	Preferences []string `json:"preferences,omitempty"`
}

// Initial letra del avatar; "U" si no hay nombre.
func (u *User) Initial() string {
	if u == nil {
		return "U"
	}
	for _, r := range u.Name {
		return string(r)
	}
	return "U"
}

// DisplayName nombre para mostrar; "User" si no hay nombre.
func (u *User) DisplayName() string {
	if u == nil || u.Name == "" {
		return "User"
	}
	return u.Name
}

// Credentials cuerpo de POST /auth/login.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Registration cuerpo de POST /auth/signup.
type Registration struct {
	Name        string   `json:"name"`
	Email       string   `json:"email"`
	Password    string   `json:"password"`
	Age         int      `json:"age"`
	Allergies   []string `json:"allergies"`
	Preferences []string `json:"preferences"`
}

// ProfileUpdate cuerpo parcial de PUT /auth/me. Campos nil no se envían.
type ProfileUpdate struct {
	Name        *string  `json:"name,omitempty"`
	Email       *string  `json:"email,omitempty"`
	Age         *int     `json:"age,omitempty"`
	Allergies   []string `json:"allergies,omitempty"`
	Preferences []string `json:"preferences,omitempty"`
}
