// Package auth owns the clinician's session: the persisted bearer token, the
// countdown to its forced logout and the calls to the backend's /auth
// endpoints. Nothing else writes the token store.
package auth

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ghaggin/fluidbalance/internal/metrics"
	"github.com/ghaggin/fluidbalance/internal/model"
	"github.com/ghaggin/fluidbalance/internal/repository"
	"github.com/ghaggin/fluidbalance/internal/sessiontimer"
	"github.com/ghaggin/fluidbalance/internal/token"
	"github.com/jonboulle/clockwork"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var ErrSessionExpired = errors.New("auth: session already expired")

// Timer is the countdown the manager arms on every login.
type Timer interface {
	Start(expiresAt time.Time, onExpire func()) bool
	Stop()
}

type Manager struct {
	clock   clockwork.Clock
	store   repository.Repository
	timer   Timer
	client  *Client
	nav     Navigator
	metrics *metrics.Metrics
	log     *zap.Logger

	mu      sync.Mutex
	session model.Session
}

type ManagerParams struct {
	fx.In

	Clock     clockwork.Clock
	Store     repository.Repository
	Timer     *sessiontimer.Timer
	Client    *Client
	Navigator Navigator
	Metrics   *metrics.Metrics
	Log       *zap.Logger
}

func NewManager(p ManagerParams) *Manager {
	return newManager(p.Clock, p.Store, p.Timer, p.Client, p.Navigator, p.Metrics, p.Log)
}

func newManager(clock clockwork.Clock, store repository.Repository, timer Timer, client *Client, nav Navigator, m *metrics.Metrics, log *zap.Logger) *Manager {
	return &Manager{
		clock:   clock,
		store:   store,
		timer:   timer,
		client:  client,
		nav:     nav,
		metrics: m,
		log:     log,
	}
}

// Login exchanges credentials for a token. It does not start a session;
// call HandleLogin with the result.
func (m *Manager) Login(ctx context.Context, creds model.Credentials) (string, error) {
	return m.client.Login(ctx, creds)
}

// HandleLogin persists tok and arms the countdown to its expiry. A token
// that cannot be decoded, has no exp or is already expired is discarded.
func (m *Manager) HandleLogin(ctx context.Context, tok string) error {
	exp, err := token.Expiration(tok)
	if err != nil {
		m.log.Warn("rejecting login token", zap.Error(err))
		m.handleLogout(ctx, metrics.ReasonStale)
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.store.Set(ctx, repository.TokenKey, tok); err != nil {
		return err
	}
	m.session = model.Session{Token: tok, ExpiresAt: exp}

	if !m.timer.Start(exp, m.expire) {
		m.resetLocked(ctx, metrics.ReasonStale)
		return ErrSessionExpired
	}

	m.metrics.SessionsStarted.Inc()
	m.log.Info("session started", zap.Time("expires_at", exp))
	return nil
}

// InitSessionFromStorage re-arms the countdown for a persisted token. It
// reports whether a live session was restored; stale tokens are cleared.
func (m *Manager) InitSessionFromStorage(ctx context.Context) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	tok, err := m.store.Get(ctx, repository.TokenKey)
	if errors.Is(err, repository.ErrNotFound) || (err == nil && tok == "") {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	exp, err := token.Expiration(tok)
	if err != nil {
		m.log.Info("discarding undecodable stored token", zap.Error(err))
		m.resetLocked(ctx, metrics.ReasonStale)
		return false, nil
	}

	m.session = model.Session{Token: tok, ExpiresAt: exp}
	if !m.timer.Start(exp, m.expire) {
		m.log.Info("stored session already expired", zap.Time("expired_at", exp))
		m.resetLocked(ctx, metrics.ReasonStale)
		return false, nil
	}

	m.metrics.SessionsStarted.Inc()
	m.log.Info("session restored", zap.Time("expires_at", exp))
	return true, nil
}

// Logout tells the backend on a best-effort basis, then tears the session
// down and sends the clinician to the login page regardless.
func (m *Manager) Logout(ctx context.Context) {
	if tok := m.Token(); tok != "" {
		if err := m.client.Logout(ctx, tok); err != nil {
			m.log.Warn("backend logout failed", zap.Error(err))
		}
	}
	m.handleLogout(ctx, metrics.ReasonLogout)
	m.nav.Navigate(RouteLogin)
}

// HandleLogout clears the stored token, re-opens the expiry notice and stops
// the countdown. It never calls the backend.
func (m *Manager) HandleLogout(ctx context.Context) {
	m.handleLogout(ctx, metrics.ReasonLogout)
}

// ForceLogout is HandleLogout followed by navigation to the login page.
func (m *Manager) ForceLogout(ctx context.Context, reason string) bool {
	had := m.handleLogout(ctx, reason)
	m.nav.Navigate(RouteLogin)
	return had
}

func (m *Manager) handleLogout(ctx context.Context, reason string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.resetLocked(ctx, reason)
}

func (m *Manager) resetLocked(ctx context.Context, reason string) bool {
	had := m.session.Active()
	m.session.Reset()
	m.timer.Stop()

	if err := m.store.Remove(ctx, repository.TokenKey); err != nil {
		m.log.Error("failed removing stored token", zap.Error(err))
	}
	if had {
		m.metrics.SessionsEnded.WithLabelValues(reason).Inc()
		m.log.Info("session ended", zap.String("reason", reason))
	}
	return had
}

// expire runs when the countdown reaches the token's expiry. A session
// started after the countdown fired is left alone.
func (m *Manager) expire() {
	m.mu.Lock()
	if m.session.Active() && m.clock.Now().Before(m.session.ExpiresAt) {
		m.mu.Unlock()
		return
	}
	m.resetLocked(context.Background(), metrics.ReasonTimer)
	m.mu.Unlock()

	m.nav.Navigate(RouteLogin)
}

// CanNotifySessionExpired returns true on its first call per session and
// false afterwards, until the flag is reset by HandleLogin or HandleLogout.
func (m *Manager) CanNotifySessionExpired() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session.NotifiedExpiry {
		return false
	}
	m.session.NotifiedExpiry = true
	return true
}

// TimeLeft is the time until the current token expires, or 0 without one.
func (m *Manager) TimeLeft() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.session.Active() {
		return 0
	}
	return m.session.ExpiresAt.Sub(m.clock.Now())
}

func (m *Manager) Token() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session.Token
}

// SessionUsable is the single predicate both route guards use: a token is
// present, decodes, carries exp and has not expired.
func (m *Manager) SessionUsable() bool {
	return token.IsValid(m.Token(), m.clock.Now())
}

func (m *Manager) claims() (*token.Claims, bool) {
	tok := m.Token()
	if tok == "" {
		return nil, false
	}
	c, err := token.Decode(tok)
	if err != nil {
		return nil, false
	}
	return c, true
}

// UserID identifies the clinician for user-scoped endpoints.
func (m *Manager) UserID() (int64, bool) {
	c, ok := m.claims()
	if !ok {
		return 0, false
	}
	return c.UserID()
}

// OwnerID is the key the clinician's patients are listed under.
func (m *Manager) OwnerID() (int64, bool) {
	c, ok := m.claims()
	if !ok {
		return 0, false
	}
	return c.OwnerID()
}

// Subject returns the token's sub claim for display.
func (m *Manager) Subject() string {
	c, ok := m.claims()
	if !ok {
		return ""
	}
	return c.SubjectString()
}
