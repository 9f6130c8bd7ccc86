package http

import (
	"embed"
	"io/fs"
	"net/http"
	"net/url"
	"strings"

	"github.com/gofiber/template/html/v2"

	"github.com/jhoicas/pilo-web/internal/domain/entity"
	"github.com/jhoicas/pilo-web/internal/domain/nutrition"
)

//go:embed views
var viewsFS embed.FS

//go:embed static
var staticFS embed.FS

// Layout de todas las páginas completas.
const layoutMain = "layouts/main"

// NewViews motor de plantillas sobre las vistas embebidas.
func NewViews() *html.Engine {
	sub, err := fs.Sub(viewsFS, "views")
	if err != nil {
		panic(err)
	}
	engine := html.NewFileSystem(http.FS(sub), ".html")
	engine.AddFunc("pathEscape", url.PathEscape)
	engine.AddFunc("join", strings.Join)
	engine.AddFunc("contains", func(list []string, v string) bool {
		for _, s := range list {
			if s == v {
				return true
			}
		}
		return false
	})
	engine.AddFunc("allergyOptions", func() []string { return entity.AllergyOptions })
	engine.AddFunc("preferenceOptions", func() []string { return entity.PreferenceOptions })
	engine.AddFunc("optionLabel", func(s string) string { return nutrition.Label(strings.ReplaceAll(s, "-", "_")) })
	return engine
}

// StaticFS scripts y estilos servidos bajo /static.
func StaticFS() http.FileSystem {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.FS(sub)
}
