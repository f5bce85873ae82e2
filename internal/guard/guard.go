// Package guard gates the console's route groups on session validity.
package guard

import (
	"context"
	"net/http"

	"github.com/ghaggin/fluidbalance/internal/auth"
	"github.com/ghaggin/fluidbalance/internal/metrics"
)

// Session is what the guards read from the auth manager.
type Session interface {
	SessionUsable() bool
	ForceLogout(ctx context.Context, reason string) bool
}

// RequireSession lets the request through only with a usable session.
// Otherwise the session is torn down and the browser sent to the login page.
func RequireSession(s Session) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !s.SessionUsable() {
				s.ForceLogout(r.Context(), metrics.ReasonGuard)
				http.Redirect(w, r, auth.RouteLogin, http.StatusSeeOther)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireAnonymous keeps signed-in clinicians out of the login and
// registration pages.
func RequireAnonymous(s Session) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if s.SessionUsable() {
				http.Redirect(w, r, auth.RouteDashboard, http.StatusSeeOther)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
