package template

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"time"

	"github.com/ghaggin/fluidbalance/internal/config"
	"github.com/ghaggin/fluidbalance/internal/model"
	"github.com/ghaggin/fluidbalance/internal/notify"
	"github.com/ghaggin/fluidbalance/internal/slots"
)

const (
	templateDir string = "tmpl"
	baseLayout  string = "base.html"
)

//go:embed tmpl/*.html
var files embed.FS

// Pages lists every page template the console renders.
var Pages = []string{
	"login.html",
	"register.html",
	"recover-password.html",
	"dashboard.html",
	"patient.html",
	"calculated-balance.html",
	"catalog.html",
	"update-password.html",
	"error.html",
}

type Data struct {
	PageTitle string
	// Subject is the signed-in clinician; empty on anonymous pages.
	Subject        string
	Notices        []notify.Message
	TimeLeftMillis int64
	// CSRFToken goes into every form that posts back to the console.
	CSRFToken string
	Page      any
}

type Renderer struct {
	pages map[string]*template.Template
}

func New(cfg *config.Config) (*Renderer, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	return NewRenderer(loc, cfg.Display.Locale)
}

func NewRenderer(loc *time.Location, locale string) (*Renderer, error) {
	funcs := funcMap(loc, locale)

	r := &Renderer{pages: make(map[string]*template.Template, len(Pages))}
	for _, name := range Pages {
		t, err := template.New(name).Funcs(funcs).ParseFS(files,
			templateDir+"/"+baseLayout,
			templateDir+"/"+name,
		)
		if err != nil {
			return nil, fmt.Errorf("template: parse %s: %w", name, err)
		}
		r.pages[name] = t
	}
	return r, nil
}

// Render executes tmpl inside the base layout. Nothing is written when
// execution fails, so the caller may still send an error page.
func (r *Renderer) Render(w http.ResponseWriter, status int, tmpl string, td *Data) error {
	t, ok := r.pages[tmpl]
	if !ok {
		return fmt.Errorf("template: unknown page %s", tmpl)
	}

	buf := &bytes.Buffer{}

	err := t.ExecuteTemplate(buf, "base", td)
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err = buf.WriteTo(w)
	return err
}

func funcMap(loc *time.Location, locale string) template.FuncMap {
	return template.FuncMap{
		"label": func(v any) string {
			t := asTime(v)
			if t.IsZero() {
				return "Sin fecha"
			}
			return slots.Label(t.In(loc), locale)
		},
		"date": func(v any) string {
			t := asTime(v)
			if t.IsZero() {
				return "Sin fecha"
			}
			return slots.DateLabel(t.In(loc), locale)
		},
		"iso": func(v any) string {
			t := asTime(v)
			if t.IsZero() {
				return ""
			}
			return model.FormatISO(t)
		},
		"slotValue": func(v any) string {
			t := asTime(v)
			if t.IsZero() {
				return ""
			}
			return slots.Slot{Time: t.In(loc)}.Value()
		},
		"num": func(f float64) string {
			return strconv.FormatFloat(f, 'f', -1, 64)
		},
	}
}

func asTime(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case model.Time:
		return t.Time
	case *model.Time:
		if t == nil {
			return time.Time{}
		}
		return t.Time
	}
	return time.Time{}
}
