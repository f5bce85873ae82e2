package web

import (
	"net/http"
	"sync"
)

// Navigator holds a forced navigation raised outside of a request, such as
// the session timer expiring or the backend rejecting the token. The next
// page request is sent there.
type Navigator struct {
	mu      sync.Mutex
	pending string
}

func NewNavigator() *Navigator {
	return &Navigator{}
}

func (n *Navigator) Navigate(route string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.pending = route
}

// Pending returns the route without consuming it.
func (n *Navigator) Pending() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.pending
}

// Take returns the pending route and clears it.
func (n *Navigator) Take() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	route := n.pending
	n.pending = ""
	return route
}

// Middleware redirects the next request to the pending route. A request
// already headed there just clears it.
func (n *Navigator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route := n.Take()
		if route != "" && route != r.URL.Path {
			http.Redirect(w, r, route, http.StatusSeeOther)
			return
		}

		next.ServeHTTP(w, r)
	})
}
