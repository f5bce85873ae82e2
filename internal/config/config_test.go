package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func missingFile(t *testing.T) string {
	return filepath.Join(t.TempDir(), "absent.yaml")
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(missingFile(t))
	require.NoError(t, err)

	assert.Equal(t, "localhost:8123", cfg.Server.Addr)
	assert.Equal(t, "http://localhost:8080", cfg.Backend.AuthURL)
	assert.Equal(t, "http://localhost:8082", cfg.Backend.APIURL)
	assert.Equal(t, []string{"/auth/login", "/users/save"}, cfg.Backend.PublicPaths)
	assert.Equal(t, time.Minute, cfg.Session.WarningLead)
	assert.Equal(t, "es-MX", cfg.Display.Locale)
}

func TestLoad_YAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
server:
  addr: ":9000"
backend:
  api_url: "https://balance.example.com"
  timeout: 5s
session:
  warning_lead: 2m
display:
  locale: en-US
  timezone: America/Mexico_City
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, "https://balance.example.com", cfg.Backend.APIURL)
	assert.Equal(t, "http://localhost:8080", cfg.Backend.AuthURL)
	assert.Equal(t, 5*time.Second, cfg.Backend.Timeout)
	assert.Equal(t, 2*time.Minute, cfg.Session.WarningLead)
	assert.Equal(t, "en-US", cfg.Display.Locale)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "America/Mexico_City", loc.String())
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("FLUIDBALANCE_API_URL", "http://api.internal:8082")
	t.Setenv("FLUIDBALANCE_WARNING_LEAD", "30s")
	t.Setenv("FLUIDBALANCE_PUBLIC_PATHS", "/auth/login, /users/save ,/auth/public-key")

	cfg, err := Load(missingFile(t))
	require.NoError(t, err)

	assert.Equal(t, "http://api.internal:8082", cfg.Backend.APIURL)
	assert.Equal(t, 30*time.Second, cfg.Session.WarningLead)
	assert.Equal(t, []string{"/auth/login", "/users/save", "/auth/public-key"}, cfg.Backend.PublicPaths)
}

func TestLoad_Invalid(t *testing.T) {
	testCases := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"empty api url", map[string]string{"FLUIDBALANCE_API_URL": ""}, "config: backend.api_url must be set"},
		{"negative lead", map[string]string{"FLUIDBALANCE_WARNING_LEAD": "-1s"}, "config: session.warning_lead must be positive"},
		{"unknown locale", map[string]string{"FLUIDBALANCE_LOCALE": "fr-FR"}, "config: display.locale is not supported"},
		{"unknown zone", map[string]string{"FLUIDBALANCE_TIMEZONE": "Mars/Olympus"}, "config: display.timezone is not a known zone"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			cfg, err := Load(missingFile(t))
			require.Error(t, err)
			assert.Nil(t, cfg)
			assert.Equal(t, tc.want, err.Error())
		})
	}
}

func TestLoad_BadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: ["), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}
