package config

import (
	"errors"
	"strings"
	"time"
)

// DefaultPath is where New looks for the config file when no path is given.
const DefaultPath = "./config/config.yaml"

type Config struct {
	Server    Server    `yaml:"server"`
	Backend   Backend   `yaml:"backend"`
	Session   Session   `yaml:"session"`
	Display   Display   `yaml:"display"`
	Telemetry Telemetry `yaml:"telemetry"`
	Log       Log       `yaml:"log"`
}

type Server struct {
	Addr string `yaml:"addr"`
}

type Backend struct {
	// AuthURL serves /auth/*.
	AuthURL string `yaml:"auth_url"`
	// APIURL serves /api/*.
	APIURL  string        `yaml:"api_url"`
	Timeout time.Duration `yaml:"timeout"`
	// PublicPaths are sent without a bearer token.
	PublicPaths []string `yaml:"public_paths"`
}

type Session struct {
	WarningLead   time.Duration `yaml:"warning_lead"`
	StoragePath   string        `yaml:"storage_path"`
	FlashLifetime time.Duration `yaml:"flash_lifetime"`
}

type Display struct {
	Locale   string `yaml:"locale"`
	Timezone string `yaml:"timezone"`
}

type Telemetry struct {
	OTLPEndpoint string `yaml:"otlp_endpoint"`
	ServiceName  string `yaml:"service_name"`
}

type Log struct {
	Production bool `yaml:"production"`
}

func Default() *Config {
	return &Config{
		Server: Server{
			Addr: "localhost:8123",
		},
		Backend: Backend{
			AuthURL:     "http://localhost:8080",
			APIURL:      "http://localhost:8082",
			Timeout:     30 * time.Second,
			PublicPaths: []string{"/auth/login", "/users/save"},
		},
		Session: Session{
			WarningLead:   time.Minute,
			StoragePath:   "./data/store.json",
			FlashLifetime: 12 * time.Hour,
		},
		Display: Display{
			Locale:   "es-MX",
			Timezone: "Local",
		},
		Telemetry: Telemetry{
			ServiceName: "fluidbalance",
		},
	}
}

var supportedLocales = map[string]bool{
	"es-MX": true,
	"es":    true,
	"en-US": true,
	"en":    true,
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.Server.Addr) == "" {
		return errors.New("config: server.addr must be set")
	}
	if strings.TrimSpace(c.Backend.AuthURL) == "" {
		return errors.New("config: backend.auth_url must be set")
	}
	if strings.TrimSpace(c.Backend.APIURL) == "" {
		return errors.New("config: backend.api_url must be set")
	}
	if c.Session.WarningLead <= 0 {
		return errors.New("config: session.warning_lead must be positive")
	}
	if strings.TrimSpace(c.Session.StoragePath) == "" {
		return errors.New("config: session.storage_path must be set")
	}
	if !supportedLocales[c.Display.Locale] {
		return errors.New("config: display.locale is not supported")
	}
	if _, err := c.Location(); err != nil {
		return errors.New("config: display.timezone is not a known zone")
	}
	return nil
}

// Location resolves Display.Timezone; "" and "Local" mean the host zone.
func (c *Config) Location() (*time.Location, error) {
	if c.Display.Timezone == "" || c.Display.Timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Display.Timezone)
}
