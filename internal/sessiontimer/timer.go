// Package sessiontimer counts down to the forced logout of a session.
//
// A Timer is either idle or armed. Arming schedules two one-shot actions
// relative to the wall clock at arm time: a warning notification shortly
// before expiry and the expiry callback itself. Start always passes through
// idle, so at most one pair is ever pending.
package sessiontimer

import (
	"sync"
	"time"

	"github.com/ghaggin/fluidbalance/internal/notify"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

const (
	DefaultWarningLead = time.Minute
	WarningMessage     = "Tu sesión está por expirar"
)

type State int

const (
	Idle State = iota
	Armed
)

func (s State) String() string {
	if s == Armed {
		return "armed"
	}
	return "idle"
}

type Timer struct {
	clock    clockwork.Clock
	notifier notify.Notifier
	log      *zap.Logger
	lead     time.Duration

	mu         sync.Mutex
	state      State
	generation uint64
	warning    clockwork.Timer
	logout     clockwork.Timer
}

func New(clock clockwork.Clock, notifier notify.Notifier, log *zap.Logger, lead time.Duration) *Timer {
	if lead <= 0 {
		lead = DefaultWarningLead
	}
	return &Timer{
		clock:    clock,
		notifier: notifier,
		log:      log,
		lead:     lead,
	}
}

// Start arms the timer for expiresAt, cancelling any pending pair first.
// It returns false and stays idle when expiresAt is not in the future.
func (t *Timer) Start(expiresAt time.Time, onExpire func()) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stopLocked()

	remaining := expiresAt.Sub(t.clock.Now())
	if remaining <= 0 {
		t.log.Debug("session already expired, timer stays idle", zap.Time("expires_at", expiresAt))
		return false
	}

	t.generation++
	gen := t.generation

	if w := remaining - t.lead; w > 0 {
		t.warning = t.clock.AfterFunc(w, func() { t.fireWarning(gen) })
	}
	t.logout = t.clock.AfterFunc(remaining, func() { t.fireExpire(gen, onExpire) })
	t.state = Armed

	t.log.Debug("session timer armed", zap.Duration("remaining", remaining))
	return true
}

// Stop cancels both pending actions. Stopping an idle timer is a no-op.
func (t *Timer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopLocked()
}

func (t *Timer) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

func (t *Timer) stopLocked() {
	if t.warning != nil {
		t.warning.Stop()
		t.warning = nil
	}
	if t.logout != nil {
		t.logout.Stop()
		t.logout = nil
	}
	// bumping the generation makes callbacks that already fired inert
	t.generation++
	t.state = Idle
}

func (t *Timer) fireWarning(gen uint64) {
	t.mu.Lock()
	if gen != t.generation || t.state != Armed {
		t.mu.Unlock()
		return
	}
	t.warning = nil
	t.mu.Unlock()

	t.notifier.Notify(notify.LevelWarning, WarningMessage)
}

func (t *Timer) fireExpire(gen uint64, onExpire func()) {
	t.mu.Lock()
	if gen != t.generation || t.state != Armed {
		t.mu.Unlock()
		return
	}
	t.warning = nil
	t.logout = nil
	t.state = Idle
	t.mu.Unlock()

	if onExpire != nil {
		onExpire()
	}
}
