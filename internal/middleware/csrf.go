package middleware

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"encoding/base64"
	"net/http"
	"net/url"

	"go.uber.org/zap"
)

const (
	csrfKey = "csrf"

	// CSRFField is the form field every console form posts its token in.
	CSRFField  = "csrf_token"
	CSRFHeader = "X-CSRF-Token"
)

// CSRFToken returns this browser's token, creating it on first use.
func (s *SessionManager) CSRFToken(ctx context.Context) (string, error) {
	if tok := s.impl.GetString(ctx, csrfKey); tok != "" {
		return tok, nil
	}

	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	tok := base64.RawURLEncoding.EncodeToString(b)
	s.impl.Put(ctx, csrfKey, tok)
	return tok, nil
}

func (s *SessionManager) validCSRF(ctx context.Context, tok string) bool {
	want := s.impl.GetString(ctx, csrfKey)
	if want == "" || tok == "" {
		return false
	}
	return hmac.Equal([]byte(tok), []byte(want))
}

// CSRF rejects state-changing requests that come from another origin or do
// not carry this browser's token. It must run inside Wrap.
func (s *SessionManager) CSRF(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				next.ServeHTTP(w, r)
				return
			}

			if !sameOrigin(r) {
				log.Warn("rejecting cross-origin request",
					zap.String("path", r.URL.Path),
					zap.String("origin", r.Header.Get("Origin")),
				)
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}

			tok := r.Header.Get(CSRFHeader)
			if tok == "" {
				tok = r.PostFormValue(CSRFField)
			}
			if !s.validCSRF(r.Context(), tok) {
				log.Warn("rejecting request without a valid csrf token", zap.String("path", r.URL.Path))
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// sameOrigin accepts requests without Origin (older browsers, curl) but
// refuses any Origin whose host differs from the one the console serves.
func sameOrigin(r *http.Request) bool {
	if r.Header.Get("Sec-Fetch-Site") == "cross-site" {
		return false
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return u.Host == r.Host
}
