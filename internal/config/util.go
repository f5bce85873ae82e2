package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Path is the config file location, provided by the CLI.
type Path string

const envPrefix = "FLUIDBALANCE"

func New(path Path) (*Config, error) {
	return Load(string(path))
}

// Load starts from Default, overlays the YAML file at path when it exists,
// then applies FLUIDBALANCE_* environment variables and validates.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = DefaultPath
	}
	filename, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	yamlFile, err := os.ReadFile(filename)
	switch {
	case errors.Is(err, os.ErrNotExist):
		// defaults and environment only
	case err != nil:
		return nil, fmt.Errorf("config: read %s: %w", filename, err)
	default:
		if err := yaml.Unmarshal(yamlFile, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", filename, err)
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.AllowEmptyEnv(true)

	setString := func(key string, dst *string) {
		if v.IsSet(key) {
			*dst = v.GetString(key)
		}
	}

	setString("SERVER_ADDR", &cfg.Server.Addr)
	setString("AUTH_URL", &cfg.Backend.AuthURL)
	setString("API_URL", &cfg.Backend.APIURL)
	setString("STORAGE_PATH", &cfg.Session.StoragePath)
	setString("LOCALE", &cfg.Display.Locale)
	setString("TIMEZONE", &cfg.Display.Timezone)
	setString("OTLP_ENDPOINT", &cfg.Telemetry.OTLPEndpoint)
	setString("SERVICE_NAME", &cfg.Telemetry.ServiceName)

	if v.IsSet("BACKEND_TIMEOUT") {
		cfg.Backend.Timeout = v.GetDuration("BACKEND_TIMEOUT")
	}
	if v.IsSet("WARNING_LEAD") {
		cfg.Session.WarningLead = v.GetDuration("WARNING_LEAD")
	}
	if v.IsSet("LOG_PRODUCTION") {
		cfg.Log.Production = v.GetBool("LOG_PRODUCTION")
	}
	if v.IsSet("PUBLIC_PATHS") {
		var paths []string
		for _, p := range strings.Split(v.GetString("PUBLIC_PATHS"), ",") {
			if s := strings.TrimSpace(p); s != "" {
				paths = append(paths, s)
			}
		}
		cfg.Backend.PublicPaths = paths
	}
}
