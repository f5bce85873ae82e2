package main

import (
	"context"
	"fmt"
	"os"

	"github.com/ghaggin/fluidbalance/internal/api"
	"github.com/ghaggin/fluidbalance/internal/auth"
	"github.com/ghaggin/fluidbalance/internal/config"
	"github.com/ghaggin/fluidbalance/internal/interceptor"
	"github.com/ghaggin/fluidbalance/internal/metrics"
	"github.com/ghaggin/fluidbalance/internal/middleware"
	"github.com/ghaggin/fluidbalance/internal/notify"
	"github.com/ghaggin/fluidbalance/internal/repository"
	"github.com/ghaggin/fluidbalance/internal/sessiontimer"
	"github.com/ghaggin/fluidbalance/internal/telemetry"
	"github.com/ghaggin/fluidbalance/internal/template"
	"github.com/ghaggin/fluidbalance/internal/web"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// core wires the session and the backend clients. The web surface is added
// on top by the serve command.
func core(path config.Path) fx.Option {
	return fx.Options(
		fx.Supply(path),
		fx.Provide(
			config.New,
			newLogger,
			clockwork.NewRealClock,
			notify.NewQueue,
			func(q *notify.Queue) notify.Notifier { return q },
			newTimer,
			repository.NewJSON,
			metrics.NewRegistry,
			func(r *prometheus.Registry) prometheus.Registerer { return r },
			func(r *prometheus.Registry) prometheus.Gatherer { return r },
			metrics.New,
			interceptor.NewBase,
			interceptor.New,
			newResourceClient,
			api.NewServices,
		),
		auth.Module,
		web.Module,
	)
}

func console() fx.Option {
	return fx.Options(
		fx.Provide(
			telemetry.New,
			middleware.NewSessionManager,
			template.New,
		),
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log.Named("fx")}
		}),
		fx.Invoke(
			restoreSession,
			web.RegisterHooks,
		),
	)
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.Log.Production {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

func newTimer(clock clockwork.Clock, n notify.Notifier, log *zap.Logger, cfg *config.Config) *sessiontimer.Timer {
	return sessiontimer.New(clock, n, log, cfg.Session.WarningLead)
}

func newResourceClient(t *interceptor.Transport, cfg *config.Config, log *zap.Logger) *api.Client {
	return api.NewClient(cfg.Backend.APIURL, interceptor.NewHTTPClient(t, cfg), log)
}

// restoreSession re-arms the countdown for a token persisted by an earlier
// run before the console starts serving.
func restoreSession(lc fx.Lifecycle, m *auth.Manager, log *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			restored, err := m.InitSessionFromStorage(ctx)
			if err != nil {
				return err
			}
			log.Info("session storage loaded", zap.Bool("restored", restored))
			return nil
		},
	})
}
