package guard

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ghaggin/fluidbalance/internal/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSession struct {
	usable  bool
	reasons []string
}

func (s *fakeSession) SessionUsable() bool { return s.usable }

func (s *fakeSession) ForceLogout(_ context.Context, reason string) bool {
	s.reasons = append(s.reasons, reason)
	had := s.usable
	s.usable = false
	return had
}

func serve(t *testing.T, mw func(http.Handler) http.Handler) (*httptest.ResponseRecorder, bool) {
	t.Helper()

	req, err := http.NewRequest(http.MethodGet, "/dashboard", nil)
	require.Nil(t, err)
	rr := httptest.NewRecorder()

	calledNext := false
	next := http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		calledNext = true
	})

	mw(next).ServeHTTP(rr, req)
	return rr, calledNext
}

func Test_RequireSession_Denied(t *testing.T) {
	assert := assert.New(t)

	s := &fakeSession{}
	rr, calledNext := serve(t, RequireSession(s))

	assert.False(calledNext)
	assert.Equal(http.StatusSeeOther, rr.Code)
	assert.Equal("/login", rr.Result().Header.Get("Location"))
	assert.Equal([]string{metrics.ReasonGuard}, s.reasons)
}

func Test_RequireSession_Allowed(t *testing.T) {
	assert := assert.New(t)

	s := &fakeSession{usable: true}
	rr, calledNext := serve(t, RequireSession(s))

	assert.True(calledNext)
	assert.Equal(http.StatusOK, rr.Code)
	assert.Empty(s.reasons)
}

func Test_RequireAnonymous(t *testing.T) {
	assert := assert.New(t)

	rr, calledNext := serve(t, RequireAnonymous(&fakeSession{usable: true}))
	assert.False(calledNext)
	assert.Equal(http.StatusSeeOther, rr.Code)
	assert.Equal("/dashboard", rr.Result().Header.Get("Location"))

	s := &fakeSession{}
	_, calledNext = serve(t, RequireAnonymous(s))
	assert.True(calledNext)
	assert.Empty(s.reasons)
}
