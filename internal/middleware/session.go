package middleware

import (
	"context"
	"encoding/gob"
	"net/http"

	"github.com/alexedwards/scs/v2"
	"github.com/ghaggin/fluidbalance/internal/config"
	"github.com/ghaggin/fluidbalance/internal/notify"
)

const (
	flashKey = "flash"
)

// SessionManager keeps per-browser state between requests: the notices a
// handler raises before redirecting.
type SessionManager struct {
	impl *scs.SessionManager
}

func NewSessionManager(cfg *config.Config) (*SessionManager, error) {
	gob.Register([]notify.Message{})

	sm := &SessionManager{}
	sm.impl = scs.New()
	sm.impl.Lifetime = cfg.Session.FlashLifetime
	sm.impl.Cookie.Name = "fluidbalance_session"
	sm.impl.Cookie.HttpOnly = true
	sm.impl.Cookie.SameSite = http.SameSiteLaxMode

	return sm, nil
}

func (s *SessionManager) Wrap(next http.Handler) http.Handler {
	return s.impl.LoadAndSave(next)
}

// Flash queues a notice for the next page this browser renders.
func (s *SessionManager) Flash(ctx context.Context, level notify.Level, text string) {
	msgs, _ := s.impl.Get(ctx, flashKey).([]notify.Message)
	msgs = append(msgs, notify.Message{Level: level, Text: text})
	s.impl.Put(ctx, flashKey, msgs)
}

// PopFlashes returns and clears the queued notices.
func (s *SessionManager) PopFlashes(ctx context.Context) []notify.Message {
	msgs, _ := s.impl.Pop(ctx, flashKey).([]notify.Message)
	return msgs
}
