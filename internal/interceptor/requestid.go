package interceptor

import (
	"net/http"

	"github.com/google/uuid"
)

const RequestIDHeader = "X-Request-ID"

type requestID struct {
	next http.RoundTripper
}

// RequestID tags requests that do not carry an X-Request-ID yet.
func RequestID(next http.RoundTripper) http.RoundTripper {
	return &requestID{next: next}
}

func (r *requestID) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get(RequestIDHeader) == "" {
		req = req.Clone(req.Context())
		req.Header.Set(RequestIDHeader, uuid.NewString())
	}
	return r.next.RoundTrip(req)
}
