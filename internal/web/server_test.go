package web

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ghaggin/fluidbalance/internal/api"
	"github.com/ghaggin/fluidbalance/internal/auth"
	"github.com/ghaggin/fluidbalance/internal/config"
	"github.com/ghaggin/fluidbalance/internal/interceptor"
	"github.com/ghaggin/fluidbalance/internal/metrics"
	"github.com/ghaggin/fluidbalance/internal/middleware"
	"github.com/ghaggin/fluidbalance/internal/notify"
	"github.com/ghaggin/fluidbalance/internal/repository"
	"github.com/ghaggin/fluidbalance/internal/sessiontimer"
	"github.com/ghaggin/fluidbalance/internal/telemetry"
	"github.com/ghaggin/fluidbalance/internal/template"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	waitFor = time.Second
	tick    = 5 * time.Millisecond
)

type fakeClock interface {
	clockwork.Clock
	Advance(d time.Duration)
}

type recorded struct {
	Method string
	Path   string
	Query  url.Values
	Auth   string
	Body   string
}

// backend fakes the dialysis API. Unrouted GETs answer an empty list.
type backend struct {
	*httptest.Server

	mu       sync.Mutex
	routes   map[string]http.HandlerFunc
	requests []recorded
}

func newBackend(t *testing.T) *backend {
	b := &backend{routes: map[string]http.HandlerFunc{}}
	b.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)

		b.mu.Lock()
		b.requests = append(b.requests, recorded{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.Query(),
			Auth:   r.Header.Get("Authorization"),
			Body:   string(body),
		})
		h, ok := b.routes[r.Method+" "+r.URL.Path]
		b.mu.Unlock()

		if ok {
			h(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if r.Method == http.MethodGet {
			_, _ = w.Write([]byte("[]"))
			return
		}
		_, _ = w.Write([]byte("{}"))
	}))
	t.Cleanup(b.Close)
	return b
}

func (b *backend) handle(method, path string, h http.HandlerFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.routes[method+" "+path] = h
}

func (b *backend) json(method, path string, status int, v any) {
	b.handle(method, path, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(v)
	})
}

func (b *backend) calls(method, path string) []recorded {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []recorded
	for _, r := range b.requests {
		if r.Method == method && r.Path == path {
			out = append(out, r)
		}
	}
	return out
}

type fixture struct {
	t       *testing.T
	clock   fakeClock
	backend *backend
	session *auth.Manager
	nav     *Navigator
	handler http.Handler
	cookies map[string]*http.Cookie
	csrf    string
}

var start = time.Date(2024, time.January, 10, 9, 0, 0, 0, time.UTC)

func newFixture(t *testing.T) *fixture {
	t.Helper()
	require := require.New(t)

	clock := clockwork.NewFakeClockAt(start)
	log := zap.NewNop()
	be := newBackend(t)

	cfg := config.Default()
	cfg.Backend.AuthURL = be.URL
	cfg.Backend.APIURL = be.URL
	cfg.Display.Timezone = "UTC"

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	queue := notify.NewQueue(log)
	nav := NewNavigator()

	authClient := auth.NewClientWith(api.NewClient(be.URL, be.Client(), log))
	manager := auth.NewManager(auth.ManagerParams{
		Clock:     clock,
		Store:     repository.NewMemory(),
		Timer:     sessiontimer.New(clock, queue, log, cfg.Session.WarningLead),
		Client:    authClient,
		Navigator: nav,
		Metrics:   m,
		Log:       log,
	})

	transport := interceptor.New(interceptor.Params{
		Base:     interceptor.Base{RoundTripper: http.DefaultTransport},
		Session:  manager,
		Notifier: queue,
		Config:   cfg,
		Metrics:  m,
		Log:      log,
	})
	services := api.New(api.NewClient(be.URL, interceptor.NewHTTPClient(transport, cfg), log), clock, time.UTC)

	sessions, err := middleware.NewSessionManager(cfg)
	require.NoError(err)
	renderer, err := template.NewRenderer(time.UTC, cfg.Display.Locale)
	require.NoError(err)
	providers, err := telemetry.NewProviders(context.Background(), "", "fluidbalance-test")
	require.NoError(err)

	srv, err := New(Params{
		Log:        log,
		Config:     cfg,
		Clock:      clock,
		Session:    manager,
		AuthClient: authClient,
		Services:   services,
		Sessions:   sessions,
		Notices:    queue,
		Navigator:  nav,
		Renderer:   renderer,
		Gatherer:   reg,
		Telemetry:  providers,
	})
	require.NoError(err)

	f := &fixture{
		t:       t,
		clock:   clock,
		backend: be,
		session: manager,
		nav:     nav,
		handler: srv.server.Handler,
		cookies: map[string]*http.Cookie{},
	}
	f.csrf = f.csrfToken()
	return f
}

var csrfInput = regexp.MustCompile(`name="csrf_token" value="([^"]+)"`)

// csrfToken opens the login page like a browser would and keeps the token
// its forms carry.
func (f *fixture) csrfToken() string {
	f.t.Helper()

	rr := f.do(http.MethodGet, "/login", nil)
	require.Equal(f.t, http.StatusOK, rr.Code)
	m := csrfInput.FindStringSubmatch(rr.Body.String())
	require.Len(f.t, m, 2)
	return m[1]
}

// do sends a request the way a browser would, carrying cookies between calls
// and posting the page's csrf token.
func (f *fixture) do(method, target string, form url.Values) *httptest.ResponseRecorder {
	f.t.Helper()

	if method != http.MethodGet && f.csrf != "" {
		if form == nil {
			form = url.Values{}
		}
		if _, ok := form["csrf_token"]; !ok {
			form.Set("csrf_token", f.csrf)
		}
	}
	return f.send(method, target, form, nil)
}

func (f *fixture) send(method, target string, form url.Values, header http.Header) *httptest.ResponseRecorder {
	f.t.Helper()

	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, target, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	for k, v := range header {
		req.Header[k] = v
	}
	for _, c := range f.cookies {
		req.AddCookie(c)
	}

	rr := httptest.NewRecorder()
	f.handler.ServeHTTP(rr, req)

	for _, c := range rr.Result().Cookies() {
		f.cookies[c.Name] = c
	}
	return rr
}

func makeToken(t *testing.T, claims map[string]any) string {
	t.Helper()
	b, err := json.Marshal(claims)
	require.NoError(t, err)
	enc := base64.RawURLEncoding
	return enc.EncodeToString([]byte(`{"alg":"RS256","typ":"JWT"}`)) + "." + enc.EncodeToString(b) + ".c2ln"
}

// login signs in a clinician whose token lives for an hour.
func (f *fixture) login() string {
	f.t.Helper()

	tok := makeToken(f.t, map[string]any{
		"sub":    "enfermera",
		"jti":    "7",
		"userId": 42,
		"exp":    start.Add(time.Hour).Unix(),
	})
	f.backend.json(http.MethodPost, "/auth/login", http.StatusOK, map[string]string{"token": tok})

	rr := f.do(http.MethodPost, "/login", url.Values{"username": {"enfermera"}, "password": {"secreta"}})
	require.Equal(f.t, http.StatusSeeOther, rr.Code)
	require.Equal(f.t, "/dashboard", rr.Header().Get("Location"))
	require.True(f.t, f.session.SessionUsable())
	return tok
}

func Test_AnonymousRedirectedToLogin(t *testing.T) {
	assert := assert.New(t)
	f := newFixture(t)

	rr := f.do(http.MethodGet, "/dashboard", nil)
	assert.Equal(http.StatusSeeOther, rr.Code)
	assert.Equal("/login", rr.Header().Get("Location"))

	rr = f.do(http.MethodGet, "/", nil)
	assert.Equal(http.StatusSeeOther, rr.Code)
	assert.Equal("/login", rr.Header().Get("Location"))

	rr = f.do(http.MethodGet, "/login", nil)
	assert.Equal(http.StatusOK, rr.Code)
	assert.Contains(rr.Body.String(), `action="/login"`)
}

func Test_LoginThenDashboard(t *testing.T) {
	assert := assert.New(t)
	f := newFixture(t)

	tok := f.login()
	f.backend.json(http.MethodGet, "/api/patients/users/7", http.StatusOK, []map[string]any{
		{"id": 3, "name": "Ana López", "age": 54, "userId": 7, "status": "Estable"},
	})

	rr := f.do(http.MethodGet, "/dashboard", nil)
	assert.Equal(http.StatusOK, rr.Code)
	assert.Contains(rr.Body.String(), "Ana López")
	assert.Contains(rr.Body.String(), "Cerrar sesión")

	calls := f.backend.calls(http.MethodGet, "/api/patients/users/7")
	if assert.Len(calls, 1) {
		assert.Equal("Bearer "+tok, calls[0].Auth)
	}

	// signed in clinicians skip the login page
	rr = f.do(http.MethodGet, "/login", nil)
	assert.Equal(http.StatusSeeOther, rr.Code)
	assert.Equal("/dashboard", rr.Header().Get("Location"))
}

func Test_LoginRejected(t *testing.T) {
	assert := assert.New(t)
	f := newFixture(t)

	f.backend.json(http.MethodPost, "/auth/login", http.StatusUnauthorized, map[string]string{"message": "Credenciales inválidas"})

	rr := f.do(http.MethodPost, "/login", url.Values{"username": {"enfermera"}, "password": {"mala"}})
	assert.Equal(http.StatusUnauthorized, rr.Code)
	assert.Contains(rr.Body.String(), "Credenciales inválidas")
	assert.Contains(rr.Body.String(), `value="enfermera"`)
	assert.False(f.session.SessionUsable())
}

func Test_TimerExpirySendsToLogin(t *testing.T) {
	assert := assert.New(t)
	f := newFixture(t)
	f.login()

	f.clock.Advance(59 * time.Minute)
	f.clock.Advance(time.Minute)

	assert.Eventually(func() bool {
		return !f.session.SessionUsable() && f.nav.Pending() == "/login"
	}, waitFor, tick)

	rr := f.do(http.MethodGet, "/dashboard/medicines", nil)
	assert.Equal(http.StatusSeeOther, rr.Code)
	assert.Equal("/login", rr.Header().Get("Location"))

	rr = f.do(http.MethodGet, "/login", nil)
	assert.Equal(http.StatusOK, rr.Code)
	assert.Contains(rr.Body.String(), sessiontimer.WarningMessage)
	assert.Empty(f.nav.Pending())
}

func Test_UnauthorizedBackendEndsSession(t *testing.T) {
	assert := assert.New(t)
	f := newFixture(t)
	f.login()

	f.backend.json(http.MethodGet, "/api/patients/users/7", http.StatusUnauthorized, map[string]string{"message": "token revocado"})

	rr := f.do(http.MethodGet, "/dashboard", nil)
	assert.Equal(http.StatusSeeOther, rr.Code)
	assert.Equal("/login", rr.Header().Get("Location"))
	assert.False(f.session.SessionUsable())

	rr = f.do(http.MethodGet, "/login", nil)
	body := rr.Body.String()
	assert.Equal(1, strings.Count(body, interceptor.ExpiredMessage))
	assert.NotContains(body, "token revocado")
}

func Test_TimeLeft(t *testing.T) {
	assert := assert.New(t)
	f := newFixture(t)

	rr := f.do(http.MethodGet, "/session/time-left", nil)
	assert.JSONEq(`{"millis":0}`, rr.Body.String())

	f.login()
	f.clock.Advance(10 * time.Minute)

	rr = f.do(http.MethodGet, "/session/time-left", nil)
	assert.Equal("application/json", rr.Header().Get("Content-Type"))
	assert.JSONEq(`{"millis":3000000}`, rr.Body.String())
}

func Test_Logout(t *testing.T) {
	assert := assert.New(t)
	f := newFixture(t)
	tok := f.login()

	rr := f.do(http.MethodPost, "/logout", url.Values{})
	assert.Equal(http.StatusSeeOther, rr.Code)
	assert.Equal("/login", rr.Header().Get("Location"))
	assert.False(f.session.SessionUsable())

	calls := f.backend.calls(http.MethodPost, "/auth/logout")
	if assert.Len(calls, 1) {
		assert.Equal("Bearer "+tok, calls[0].Auth)
	}
}

func Test_HealthAndMetrics(t *testing.T) {
	assert := assert.New(t)
	f := newFixture(t)
	f.login()

	rr := f.do(http.MethodGet, "/healthz", nil)
	assert.Equal(http.StatusOK, rr.Code)

	rr = f.do(http.MethodGet, "/metrics", nil)
	assert.Equal(http.StatusOK, rr.Code)
	assert.Contains(rr.Body.String(), "fluidbalance_sessions_started_total")
}

func patientFixture(t *testing.T) *fixture {
	f := newFixture(t)
	f.login()
	f.backend.json(http.MethodGet, "/api/patients/users/7", http.StatusOK, []map[string]any{
		{"id": 3, "name": "Ana López", "age": 54, "userId": 7, "status": "Estable"},
	})
	f.backend.json(http.MethodGet, "/api/fluid-dates/active-dates", http.StatusOK, []string{"14:00", "bad", "08:00"})
	return f
}

func Test_PatientPageShowsTodaysSlots(t *testing.T) {
	assert := assert.New(t)
	f := patientFixture(t)

	rr := f.do(http.MethodGet, "/dashboard/patient/3", nil)
	assert.Equal(http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(body, `<option value="2024-01-10T08:00">10 ene 2024 · 08:00</option>`)
	assert.Contains(body, `<option value="2024-01-10T14:00">10 ene 2024 · 14:00</option>`)
	assert.Less(strings.Index(body, "08:00</option>"), strings.Index(body, "14:00</option>"))

	rr = f.do(http.MethodGet, "/dashboard/patient/99", nil)
	assert.Equal(http.StatusNotFound, rr.Code)
}

func Test_CreateBalanceRequiresActiveSlot(t *testing.T) {
	assert := assert.New(t)
	f := patientFixture(t)

	form := url.Values{
		"date":             {"2024-01-10T09:30"},
		"infused":          {"2000"},
		"drained":          {"1800"},
		"descriptionFluid": {"bolsa 1.5%"},
	}
	rr := f.do(http.MethodPost, "/dashboard/patient/3/balances", form)
	assert.Equal(http.StatusSeeOther, rr.Code)
	assert.Equal("/dashboard/patient/3", rr.Header().Get("Location"))
	assert.Empty(f.backend.calls(http.MethodPost, "/api/fluid-balances/save"))

	rr = f.do(http.MethodGet, "/dashboard/patient/3", nil)
	assert.Contains(rr.Body.String(), "Selecciona una fecha activa disponible.")

	form.Set("date", "2024-01-10T08:00")
	rr = f.do(http.MethodPost, "/dashboard/patient/3/balances", form)
	assert.Equal(http.StatusSeeOther, rr.Code)

	calls := f.backend.calls(http.MethodPost, "/api/fluid-balances/save")
	if assert.Len(calls, 1) {
		var sent map[string]any
		assert.NoError(json.Unmarshal([]byte(calls[0].Body), &sent))
		assert.Equal("2024-01-10T08:00:00.000Z", sent["date"])
		assert.Equal(float64(3), sent["patientId"])
		assert.Equal(float64(2000), sent["infused"])
	}

	rr = f.do(http.MethodGet, "/dashboard/patient/3", nil)
	assert.Contains(rr.Body.String(), "Balance agregado correctamente")
}

func Test_UpdateBalanceStaysOnItsDay(t *testing.T) {
	assert := assert.New(t)
	f := patientFixture(t)

	form := url.Values{
		"original": {"2024-01-09T14:00"},
		"date":     {"2024-01-10T08:00"},
		"infused":  {"2000"},
		"drained":  {"1900"},
	}
	f.do(http.MethodPost, "/dashboard/patient/3/balances/5/update", form)
	assert.Empty(f.backend.calls(http.MethodPatch, "/api/fluid-balances/5"))

	form.Set("date", "2024-01-09T08:00")
	rr := f.do(http.MethodPost, "/dashboard/patient/3/balances/5/update", form)
	assert.Equal(http.StatusSeeOther, rr.Code)

	calls := f.backend.calls(http.MethodPatch, "/api/fluid-balances/5")
	if assert.Len(calls, 1) {
		assert.Contains(calls[0].Body, `"date":"2024-01-09T08:00:00.000Z"`)
	}
}

func Test_PatientDateFilter(t *testing.T) {
	assert := assert.New(t)
	f := patientFixture(t)

	f.do(http.MethodGet, "/dashboard/patient/3?start=2024-01-01&end=2024-01-05", nil)

	calls := f.backend.calls(http.MethodGet, "/api/fluid-balances/dates")
	if assert.Len(calls, 1) {
		assert.Equal("2024-01-01T00:00:00.000Z", calls[0].Query.Get("startDate"))
		assert.Equal("2024-01-05T23:59:59.999Z", calls[0].Query.Get("endDate"))
	}
	assert.Len(f.backend.calls(http.MethodGet, "/api/extra-fluids/patients/3/dates"), 1)

	rr := f.do(http.MethodGet, "/dashboard/patient/3?start=2024-01-05&end=2024-01-01", nil)
	assert.Contains(rr.Body.String(), "La fecha inicial no puede ser mayor que la final.")
}

func Test_CalculatedPDF(t *testing.T) {
	assert := assert.New(t)
	f := patientFixture(t)

	pdf := []byte("%PDF-1.4 fake")
	f.backend.handle(http.MethodGet, "/api/fluid-balances/reports/balances/patients/3/dates", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write(pdf)
	})

	rr := f.do(http.MethodGet, "/dashboard/patient/3/Ana%20L%C3%B3pez/calculated-balance/pdf?start=2024-01-01&end=2024-01-05", nil)
	assert.Equal(http.StatusOK, rr.Code)
	assert.Equal("application/pdf", rr.Header().Get("Content-Type"))
	assert.Equal(`attachment; filename="Balance_Ana_López-2024-01-01-2024-01-05.pdf"`, rr.Header().Get("Content-Disposition"))
	assert.Equal(pdf, rr.Body.Bytes())

	rr = f.do(http.MethodGet, "/dashboard/patient/3/Ana%20L%C3%B3pez/calculated-balance/pdf", nil)
	assert.Equal(`attachment; filename="Balance_Ana_López-2024-01-10.pdf"`, rr.Header().Get("Content-Disposition"))
}

func Test_CalculatedPageCapsSummaries(t *testing.T) {
	assert := assert.New(t)
	f := patientFixture(t)

	summaries := make([]map[string]any, 20)
	for i := range summaries {
		summaries[i] = map[string]any{"finalBalance": 100 + i}
	}
	f.backend.json(http.MethodGet, "/api/fluid-balances/calculate/patients/3/dates", http.StatusOK, summaries)

	rr := f.do(http.MethodGet, "/dashboard/patient/3/Ana/calculated-balance", nil)
	assert.Equal(http.StatusOK, rr.Code)
	assert.Equal(api.MaxSummaries, strings.Count(rr.Body.String(), `class="summary"`))
}

func Test_CalculatedEmail(t *testing.T) {
	assert := assert.New(t)
	f := patientFixture(t)

	rr := f.do(http.MethodPost, "/dashboard/patient/3/Ana/calculated-balance/email", url.Values{})
	assert.Equal(http.StatusSeeOther, rr.Code)
	assert.Equal("/dashboard/patient/3/Ana/calculated-balance", rr.Header().Get("Location"))
	assert.Len(f.backend.calls(http.MethodGet, "/api/fluid-balances/reports/balances/patients/3/dates/email"), 1)

	rr = f.do(http.MethodGet, "/dashboard/patient/3/Ana/calculated-balance", nil)
	assert.Contains(rr.Body.String(), "Enviamos el balance al correo configurado.")
}

func Test_CreatePatientUsesOwner(t *testing.T) {
	assert := assert.New(t)
	f := patientFixture(t)

	rr := f.do(http.MethodPost, "/dashboard/patients", url.Values{"name": {"Luis"}, "age": {"61"}, "bagTypeId": {"2"}})
	assert.Equal(http.StatusSeeOther, rr.Code)

	calls := f.backend.calls(http.MethodPost, "/api/patients/save")
	if assert.Len(calls, 1) {
		assert.JSONEq(`{"name":"Luis","age":61,"userId":7,"bagTypeId":2,"status":null}`, calls[0].Body)
	}

	f.do(http.MethodPost, "/dashboard/patients", url.Values{"name": {"Luis"}, "age": {"130"}, "bagTypeId": {"2"}})
	assert.Len(f.backend.calls(http.MethodPost, "/api/patients/save"), 1)

	rr = f.do(http.MethodGet, "/dashboard", nil)
	assert.Contains(rr.Body.String(), "La edad debe estar entre 0 y 120.")
}

func Test_MedicineCatalog(t *testing.T) {
	assert := assert.New(t)
	f := newFixture(t)
	f.login()

	f.backend.json(http.MethodGet, "/api/medicines", http.StatusOK, []map[string]any{{"id": 1, "name": "Heparina", "userId": 42}})

	rr := f.do(http.MethodGet, "/dashboard/medicines", nil)
	assert.Equal(http.StatusOK, rr.Code)
	assert.Contains(rr.Body.String(), `value="Heparina"`)

	rr = f.do(http.MethodPost, "/dashboard/medicines", url.Values{"name": {"Eritropoyetina"}})
	assert.Equal("/dashboard/medicines", rr.Header().Get("Location"))
	calls := f.backend.calls(http.MethodPost, "/api/medicines/save")
	if assert.Len(calls, 1) {
		assert.JSONEq(`{"name":"Eritropoyetina","userId":42}`, calls[0].Body)
	}

	f.do(http.MethodPost, "/dashboard/medicines/1/delete", url.Values{})
	assert.Len(f.backend.calls(http.MethodDelete, "/api/medicines/1"), 1)

	rr = f.do(http.MethodGet, "/dashboard/medicines", nil)
	assert.Contains(rr.Body.String(), "Medicina registrada exitosamente")
	assert.Contains(rr.Body.String(), "Medicina eliminada exitosamente")
}

func publicKeyPEM(t *testing.T) string {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	return string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}))
}

func Test_UpdatePasswordEndsSession(t *testing.T) {
	assert := assert.New(t)
	f := newFixture(t)
	f.login()

	pub := publicKeyPEM(t)
	f.backend.handle(http.MethodGet, "/auth/public-key", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(pub))
	})

	rr := f.do(http.MethodPost, "/dashboard/update-password", url.Values{"currentPassword": {"vieja"}, "newPassword": {"vieja"}})
	assert.Equal("/dashboard/update-password", rr.Header().Get("Location"))
	assert.True(f.session.SessionUsable())

	rr = f.do(http.MethodGet, "/dashboard/update-password", nil)
	assert.Contains(rr.Body.String(), "La nueva contraseña debe ser diferente a la actual.")

	rr = f.do(http.MethodPost, "/dashboard/update-password", url.Values{"currentPassword": {"vieja"}, "newPassword": {"nueva1"}})
	assert.Equal(http.StatusSeeOther, rr.Code)
	assert.Equal("/login", rr.Header().Get("Location"))
	assert.False(f.session.SessionUsable())

	calls := f.backend.calls(http.MethodPatch, "/api/users/42/password")
	if assert.Len(calls, 1) {
		var sent map[string]string
		assert.NoError(json.Unmarshal([]byte(calls[0].Body), &sent))
		assert.NotEqual("vieja", sent["currentPassword"])
		assert.NotEmpty(sent["newPassword"])
	}

	rr = f.do(http.MethodGet, "/login", nil)
	assert.Contains(rr.Body.String(), "Contraseña actualizada exitosamente. Inicia sesión nuevamente.")
}

func Test_Register(t *testing.T) {
	assert := assert.New(t)
	f := newFixture(t)

	pub := publicKeyPEM(t)
	f.backend.handle(http.MethodGet, "/auth/public-key", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(pub))
	})

	rr := f.do(http.MethodPost, "/register", url.Values{"username": {"ana"}, "email": {"no-es-correo"}, "password": {"secreta"}})
	assert.Equal(http.StatusUnprocessableEntity, rr.Code)
	assert.Contains(rr.Body.String(), "Ingresa un correo válido.")

	rr = f.do(http.MethodPost, "/register", url.Values{"username": {"ana"}, "email": {"ana@clinica.mx"}, "password": {"secreta"}})
	assert.Equal(http.StatusSeeOther, rr.Code)
	assert.Equal("/login", rr.Header().Get("Location"))

	calls := f.backend.calls(http.MethodPost, "/api/users/save")
	if assert.Len(calls, 1) {
		assert.Empty(calls[0].Auth)
		assert.NotContains(calls[0].Body, "secreta")
	}

	rr = f.do(http.MethodGet, "/login", nil)
	assert.Contains(rr.Body.String(), "Usuario registrado exitosamente")
}

func Test_ForeignPostsRefused(t *testing.T) {
	assert := assert.New(t)
	f := newFixture(t)
	f.login()

	rr := f.send(http.MethodPost, "/dashboard/patients/5/delete", url.Values{}, nil)
	assert.Equal(http.StatusForbidden, rr.Code)

	rr = f.send(http.MethodPost, "/dashboard/patients/5/delete", url.Values{"csrf_token": {f.csrf}}, http.Header{
		"Origin": {"https://evil.example"},
	})
	assert.Equal(http.StatusForbidden, rr.Code)

	// a fresh browser has no session cookie, so no token can match
	f.cookies = map[string]*http.Cookie{}
	rr = f.send(http.MethodPost, "/logout", url.Values{"csrf_token": {f.csrf}}, nil)
	assert.Equal(http.StatusForbidden, rr.Code)

	assert.Empty(f.backend.calls(http.MethodDelete, "/api/patients/5"))
	assert.Empty(f.backend.calls(http.MethodPost, "/auth/logout"))
	assert.True(f.session.SessionUsable())
}

func Test_OwnPostsAccepted(t *testing.T) {
	f := newFixture(t)
	f.login()

	rr := f.send(http.MethodPost, "/dashboard/patients/5/delete", url.Values{"csrf_token": {f.csrf}}, http.Header{
		"Origin": {"http://example.com"},
	})
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Len(t, f.backend.calls(http.MethodDelete, "/api/patients/5"), 1)
}
