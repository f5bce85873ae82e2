// Package interceptor holds the http.RoundTrippers every backend call goes
// through: request ids and tracing for all of them, bearer credentials and
// global 401 handling for the resource API.
package interceptor

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ghaggin/fluidbalance/internal/config"
	"github.com/ghaggin/fluidbalance/internal/metrics"
	"github.com/ghaggin/fluidbalance/internal/notify"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const ExpiredMessage = "Tu sesión ha expirado"

// Session is the slice of the auth manager the interceptor needs.
type Session interface {
	Token() string
	// ForceLogout tears the session down locally and reports whether a
	// token was present.
	ForceLogout(ctx context.Context, reason string) bool
	CanNotifySessionExpired() bool
}

// Base is the credential-free transport shared by every backend client.
type Base struct {
	http.RoundTripper
}

func NewBase() Base {
	return Base{RequestID(otelhttp.NewTransport(http.DefaultTransport))}
}

type Transport struct {
	next     http.RoundTripper
	session  Session
	notifier notify.Notifier
	public   []string
	metrics  *metrics.Metrics
	log      *zap.Logger
}

type Params struct {
	fx.In

	Base     Base
	Session  Session
	Notifier notify.Notifier
	Config   *config.Config
	Metrics  *metrics.Metrics
	Log      *zap.Logger
}

func New(p Params) *Transport {
	next := p.Base.RoundTripper
	if next == nil {
		next = http.DefaultTransport
	}
	return &Transport{
		next:     next,
		session:  p.Session,
		notifier: p.Notifier,
		public:   p.Config.Backend.PublicPaths,
		metrics:  p.Metrics,
		log:      p.Log,
	}
}

// NewHTTPClient returns the client used for the resource API.
func NewHTTPClient(t *Transport, cfg *config.Config) *http.Client {
	return &http.Client{
		Transport: t,
		Timeout:   cfg.Backend.Timeout,
	}
}

func (t *Transport) isPublic(path string) bool {
	for _, p := range t.public {
		if p != "" && strings.Contains(path, p) {
			return true
		}
	}
	return false
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	public := t.isPublic(req.URL.Path)
	if public {
		return t.observe(req, public)
	}

	if tok := t.session.Token(); tok != "" {
		req = req.Clone(req.Context())
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := t.observe(req, public)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusUnauthorized {
		t.unauthorized(req)
	}
	// the caller still sees the 401
	return resp, nil
}

func (t *Transport) observe(req *http.Request, public bool) (*http.Response, error) {
	start := time.Now()
	resp, err := t.next.RoundTrip(req)
	if err != nil {
		t.metrics.BackendRequests.WithLabelValues(req.Method, strconv.FormatBool(public), "error").Inc()
		return nil, err
	}
	t.metrics.BackendRequests.WithLabelValues(req.Method, strconv.FormatBool(public), strconv.Itoa(resp.StatusCode)).Inc()
	t.log.Debug("backend request",
		zap.String("method", req.Method),
		zap.String("path", req.URL.Path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)
	return resp, nil
}

func (t *Transport) unauthorized(req *http.Request) {
	t.metrics.Unauthorized.Inc()

	had := t.session.ForceLogout(req.Context(), metrics.ReasonUnauthorized)
	t.log.Info("backend rejected credentials",
		zap.String("path", req.URL.Path),
		zap.Bool("had_session", had),
	)
	if had && t.session.CanNotifySessionExpired() {
		t.notifier.Notify(notify.LevelInfo, ExpiredMessage)
	}
}
