package web

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ghaggin/fluidbalance/internal/api"
	"github.com/ghaggin/fluidbalance/internal/auth"
	"github.com/ghaggin/fluidbalance/internal/middleware"
	"github.com/ghaggin/fluidbalance/internal/notify"
	"github.com/ghaggin/fluidbalance/internal/template"
	"github.com/go-chi/chi/v5"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

type handlers struct {
	log      *zap.Logger
	clock    clockwork.Clock
	loc      *time.Location
	locale   string
	session  *auth.Manager
	auth     *auth.Client
	svc      *api.Services
	flash    *middleware.SessionManager
	notices  *notify.Queue
	nav      *Navigator
	renderer *template.Renderer
}

func newHandlers(p Params) (*handlers, error) {
	loc, err := p.Config.Location()
	if err != nil {
		return nil, err
	}
	return &handlers{
		log:      p.Log,
		clock:    p.Clock,
		loc:      loc,
		locale:   p.Config.Display.Locale,
		session:  p.Session,
		auth:     p.AuthClient,
		svc:      p.Services,
		flash:    p.Sessions,
		notices:  p.Notices,
		nav:      p.Navigator,
		renderer: p.Renderer,
	}, nil
}

type errorPage struct {
	Message string
}

// render shows tmpl with every pending notice: those raised outside a
// request first, then this browser's flashes. A navigation forced while the
// handler ran (a 401 from the backend) wins over the page.
func (h *handlers) render(w http.ResponseWriter, r *http.Request, status int, tmpl, title string, page any) {
	if route := h.nav.Take(); route != "" && route != r.URL.Path {
		redirect(w, r, route)
		return
	}

	td := &template.Data{
		PageTitle: title,
		Page:      page,
	}
	tok, err := h.flash.CSRFToken(r.Context())
	if err != nil {
		h.log.Error("failed creating csrf token", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	td.CSRFToken = tok
	td.Notices = append(h.notices.Drain(), h.flash.PopFlashes(r.Context())...)
	if h.session.SessionUsable() {
		td.Subject = h.session.Subject()
		td.TimeLeftMillis = h.session.TimeLeft().Milliseconds()
	}

	if err := h.renderer.Render(w, status, tmpl, td); err != nil {
		h.log.Error("failed rendering page", zap.String("template", tmpl), zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func (h *handlers) notFound(w http.ResponseWriter, r *http.Request, msg string) {
	h.render(w, r, http.StatusNotFound, "error.html", "No encontrado", errorPage{Message: msg})
}

func (h *handlers) success(r *http.Request, text string) {
	h.flash.Flash(r.Context(), notify.LevelSuccess, text)
}

// failure flashes err to the clinician. Rejected credentials were already
// announced by the backend transport.
func (h *handlers) failure(r *http.Request, err error, fallback string) {
	h.log.Info("action failed", zap.String("path", r.URL.Path), zap.Error(err))
	if api.IsUnauthorized(err) {
		return
	}
	h.flashError(r, err, fallback)
}

func (h *handlers) flashError(r *http.Request, err error, fallback string) {
	h.flash.Flash(r.Context(), notify.LevelError, api.Message(err, fallback))
}

func redirect(w http.ResponseWriter, r *http.Request, path string) {
	http.Redirect(w, r, path, http.StatusSeeOther)
}

type timeLeftResponse struct {
	Millis   int64  `json:"millis"`
	Navigate string `json:"navigate,omitempty"`
}

// timeLeft lets an open page follow the countdown and any forced navigation
// without reloading.
func (h *handlers) timeLeft(w http.ResponseWriter, _ *http.Request) {
	resp := timeLeftResponse{Navigate: h.nav.Pending()}
	if left := h.session.TimeLeft(); left > 0 {
		resp.Millis = left.Milliseconds()
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.log.Warn("failed writing time left", zap.Error(err))
	}
}

func urlID(r *http.Request, param string) (int64, bool) {
	n, err := strconv.ParseInt(chi.URLParam(r, param), 10, 64)
	return n, err == nil && n > 0
}

func formID(r *http.Request, key string) int64 {
	n, err := strconv.ParseInt(strings.TrimSpace(r.PostForm.Get(key)), 10, 64)
	if err != nil {
		return 0
	}
	return n
}

func formInt(r *http.Request, key string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(r.PostForm.Get(key)))
	return n, err == nil
}

func formFloat(r *http.Request, key string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(r.PostForm.Get(key)), 64)
	return f, err == nil
}

const dayLayout = "2006-01-02"

// parseRange reads the start and end date filters. Both empty means no
// filter; the end day is included whole.
func (h *handlers) parseRange(r *http.Request) (api.Range, string, string, error) {
	startRaw := strings.TrimSpace(r.URL.Query().Get("start"))
	endRaw := strings.TrimSpace(r.URL.Query().Get("end"))
	if startRaw == "" && endRaw == "" {
		return api.Range{}, "", "", nil
	}

	var rng api.Range
	if t, err := time.ParseInLocation(dayLayout, startRaw, h.loc); err == nil {
		rng.Start = t
	}
	if t, err := time.ParseInLocation(dayLayout, endRaw, h.loc); err == nil {
		rng.End = t.AddDate(0, 0, 1).Add(-time.Millisecond)
	}
	if err := api.ValidateRange(rng.Start, rng.End); err != nil {
		return api.Range{}, startRaw, endRaw, err
	}
	return rng, startRaw, endRaw, nil
}
