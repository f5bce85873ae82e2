package middleware

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/ghaggin/fluidbalance/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type browser struct {
	handler http.Handler
	cookies []*http.Cookie
}

func (b *browser) send(req *http.Request) *httptest.ResponseRecorder {
	for _, c := range b.cookies {
		req.AddCookie(c)
	}
	rr := httptest.NewRecorder()
	b.handler.ServeHTTP(rr, req)
	if cookies := rr.Result().Cookies(); len(cookies) > 0 {
		b.cookies = cookies
	}
	return rr
}

func postForm(target string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func newCSRFBrowser(t *testing.T) (*browser, *int) {
	sm, err := NewSessionManager(config.Default())
	require.NoError(t, err)

	posted := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/form", func(w http.ResponseWriter, r *http.Request) {
		tok, err := sm.CSRFToken(r.Context())
		require.NoError(t, err)
		_, _ = w.Write([]byte(tok))
	})
	mux.HandleFunc("/delete", func(w http.ResponseWriter, r *http.Request) {
		posted++
		http.Redirect(w, r, "/form", http.StatusSeeOther)
	})

	return &browser{handler: sm.Wrap(sm.CSRF(zap.NewNop())(mux))}, &posted
}

func Test_CSRFTokenRequired(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	b, posted := newCSRFBrowser(t)

	rr := b.send(httptest.NewRequest(http.MethodGet, "/form", nil))
	require.Equal(http.StatusOK, rr.Code)
	tok := rr.Body.String()
	require.NotEmpty(tok)

	again := b.send(httptest.NewRequest(http.MethodGet, "/form", nil))
	assert.Equal(tok, again.Body.String())

	rr = b.send(postForm("/delete", url.Values{}))
	assert.Equal(http.StatusForbidden, rr.Code)

	rr = b.send(postForm("/delete", url.Values{CSRFField: {"not-the-token"}}))
	assert.Equal(http.StatusForbidden, rr.Code)
	assert.Equal(0, *posted)

	rr = b.send(postForm("/delete", url.Values{CSRFField: {tok}}))
	assert.Equal(http.StatusSeeOther, rr.Code)

	req := httptest.NewRequest(http.MethodPost, "/delete", nil)
	req.Header.Set(CSRFHeader, tok)
	rr = b.send(req)
	assert.Equal(http.StatusSeeOther, rr.Code)
	assert.Equal(2, *posted)
}

func Test_CSRFRejectsOtherOrigins(t *testing.T) {
	b, posted := newCSRFBrowser(t)

	rr := b.send(httptest.NewRequest(http.MethodGet, "/form", nil))
	tok := rr.Body.String()

	testCases := []struct {
		name   string
		header string
		value  string
		want   int
	}{
		{"foreign origin", "Origin", "https://evil.example", http.StatusForbidden},
		{"opaque origin", "Origin", "null", http.StatusForbidden},
		{"cross-site fetch", "Sec-Fetch-Site", "cross-site", http.StatusForbidden},
		{"same origin", "Origin", "http://example.com", http.StatusSeeOther},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := postForm("/delete", url.Values{CSRFField: {tok}})
			req.Header.Set(tc.header, tc.value)
			assert.Equal(t, tc.want, b.send(req).Code)
		})
	}
	assert.Equal(t, 1, *posted)
}

func Test_CSRFWithoutSession(t *testing.T) {
	b, posted := newCSRFBrowser(t)

	rr := b.send(postForm("/delete", url.Values{CSRFField: {""}}))
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Zero(t, *posted)
}
