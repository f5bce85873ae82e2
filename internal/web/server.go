// Package web serves the clinician console: server-rendered pages over the
// backend API, gated by the session guards.
package web

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/ghaggin/fluidbalance/internal/api"
	"github.com/ghaggin/fluidbalance/internal/auth"
	"github.com/ghaggin/fluidbalance/internal/config"
	"github.com/ghaggin/fluidbalance/internal/guard"
	"github.com/ghaggin/fluidbalance/internal/middleware"
	"github.com/ghaggin/fluidbalance/internal/notify"
	"github.com/ghaggin/fluidbalance/internal/telemetry"
	"github.com/ghaggin/fluidbalance/internal/template"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	// anonymous form posts allowed per client per window
	formRateLimit  = 20
	formRateWindow = time.Minute
)

type Server struct {
	log    *zap.Logger
	server *http.Server
}

type Params struct {
	fx.In

	Log        *zap.Logger
	Config     *config.Config
	Clock      clockwork.Clock
	Session    *auth.Manager
	AuthClient *auth.Client
	Services   *api.Services
	Sessions   *middleware.SessionManager
	Notices    *notify.Queue
	Navigator  *Navigator
	Renderer   *template.Renderer
	Gatherer   prometheus.Gatherer
	Telemetry  *telemetry.Providers
}

func New(p Params) (*Server, error) {
	h, err := newHandlers(p)
	if err != nil {
		return nil, err
	}

	root := chi.NewRouter()
	root.Use(chimw.Recoverer)
	root.Use(p.Telemetry.Middleware)
	root.Use(requestLogger(p.Log))
	h.routes(root, p.Gatherer)

	return &Server{
		log: p.Log,
		server: &http.Server{
			Addr:              p.Config.Server.Addr,
			Handler:           root,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}, nil
}

func (h *handlers) routes(root chi.Router, gatherer prometheus.Gatherer) {
	root.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	root.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	root.Get("/session/time-left", h.timeLeft)

	root.Group(func(r chi.Router) {
		r.Use(h.flash.Wrap)
		r.Use(h.flash.CSRF(h.log))
		r.Use(h.nav.Middleware)

		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, auth.RouteLogin, http.StatusSeeOther)
		})

		// No Auth
		r.Group(func(r chi.Router) {
			r.Use(guard.RequireAnonymous(h.session))
			r.Get("/login", h.loginPage)
			r.Get("/register", h.registerPage)
			r.Get("/recover-password", h.recoverPage)

			r.Group(func(r chi.Router) {
				r.Use(httprate.LimitByIP(formRateLimit, formRateWindow))
				r.Post("/login", h.login)
				r.Post("/register", h.register)
				r.Post("/recover-password", h.recover)
			})
		})

		// Auth
		r.Group(func(r chi.Router) {
			r.Use(guard.RequireSession(h.session))
			r.Post("/logout", h.logout)

			r.Route("/dashboard", func(r chi.Router) {
				r.Get("/", h.dashboard)
				r.Post("/patients", h.createPatient)
				r.Post("/patients/{patientID}/update", h.updatePatient)
				r.Post("/patients/{patientID}/delete", h.deletePatient)

				r.Route("/patient/{patientID}", func(r chi.Router) {
					r.Get("/", h.patient)

					r.Post("/balances", h.patientAction(h.createBalance))
					r.Post("/balances/{itemID}/update", h.patientAction(h.updateBalance))
					r.Post("/balances/{itemID}/delete", h.patientAction(h.deleteBalance))

					r.Post("/extra-fluids", h.patientAction(h.createExtraFluid))
					r.Post("/extra-fluids/{itemID}/update", h.patientAction(h.updateExtraFluid))
					r.Post("/extra-fluids/{itemID}/delete", h.patientAction(h.deleteExtraFluid))

					r.Post("/medicine-details", h.patientAction(h.createMedicineDetail))
					r.Post("/medicine-details/{itemID}/update", h.patientAction(h.updateMedicineDetail))
					r.Post("/medicine-details/{itemID}/delete", h.patientAction(h.deleteMedicineDetail))

					r.Post("/vital-sign-details", h.patientAction(h.createVitalSignDetail))
					r.Post("/vital-sign-details/{itemID}/update", h.patientAction(h.updateVitalSignDetail))
					r.Post("/vital-sign-details/{itemID}/delete", h.patientAction(h.deleteVitalSignDetail))

					r.Get("/{label}/calculated-balance", h.calculated)
					r.Get("/{label}/calculated-balance/pdf", h.calculatedPDF)
					r.Post("/{label}/calculated-balance/email", h.calculatedEmail)
				})

				h.catalogRoutes(r, "/medicines", medicineCatalog(h.svc))
				h.catalogRoutes(r, "/vital-signs", vitalSignCatalog(h.svc))

				r.Get("/update-password", h.updatePasswordPage)
				r.Post("/update-password", h.updatePassword)
			})
		})
	})
}

func RegisterHooks(lc fx.Lifecycle, s *Server) {
	lc.Append(fx.Hook{
		OnStart: s.Start,
		OnStop:  s.server.Shutdown,
	})
}

func (s *Server) Start(_ context.Context) error {
	go func() {
		s.log.Info("console listening", zap.String("addr", s.server.Addr))
		err := s.server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("error shutting down server", zap.Error(err))
		}
	}()
	return nil
}

func requestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			log.Debug("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("elapsed", time.Since(start)),
			)
		})
	}
}
