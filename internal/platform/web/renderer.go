package web

import (
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"time"

	"github.com/labstack/echo/v4"
)

// Renderer implements echo.Renderer over a set of html/template files.
// Pages are looked up by the name given in their {{define}} block.
type Renderer struct {
	templates *template.Template
}

var funcs = template.FuncMap{
	"datetime": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Format("2006-01-02 15:04")
	},
}

func NewRenderer(fsys fs.FS, patterns ...string) (*Renderer, error) {
	t, err := template.New("").Funcs(funcs).ParseFS(fsys, patterns...)
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &Renderer{templates: t}, nil
}

func (r *Renderer) Render(w io.Writer, name string, data interface{}, c echo.Context) error {
	if r.templates.Lookup(name) == nil {
		return fmt.Errorf("template %q is not defined", name)
	}
	return r.templates.ExecuteTemplate(w, name, data)
}
