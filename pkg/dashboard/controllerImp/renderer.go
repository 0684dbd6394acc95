package controllerImp

import (
	"embed"
	"html/template"
	"io"
	"time"

	"github.com/labstack/echo/v4"

	"irrigation/pkg/status"
)

//go:embed templates/*.html
var templateFS embed.FS

// Renderer adapts html/template to echo.Renderer.
type Renderer struct {
	t *template.Template
}

var funcs = template.FuncMap{
	"clock": func(t time.Time) string {
		if t.IsZero() {
			return "-"
		}
		return t.Format("02/01/2006 15:04:05")
	},
	"hhmm": func(s string) string {
		if len(s) > 5 {
			return s[:5]
		}
		return s
	},
}

func NewRenderer() (*Renderer, error) {
	t, err := template.New("").Funcs(funcs).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	return &Renderer{t: t}, nil
}

func (r *Renderer) Render(w io.Writer, name string, data interface{}, _ echo.Context) error {
	return r.t.ExecuteTemplate(w, name, data)
}

// today is the minimum accepted by the date input.
func today(now time.Time) string { return now.Format(status.DateLayout) }
