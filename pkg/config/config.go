package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultBaseURL = "http://localhost:8081"
	defaultTimeout = 10 * time.Second
)

// Config drives how the client talks to the TripWell API.
type Config struct {
	// BaseURL is the scheme://host[:port] the API is served from.
	BaseURL string `yaml:"base_url"`
	// Timeout bounds every HTTP exchange, including the body read.
	Timeout time.Duration `yaml:"timeout"`
	// TokenStorePath locates the JSON file holding the credential pair.
	// Empty keeps credentials in memory only.
	TokenStorePath string `yaml:"token_store"`
	// UserAgent overrides the default User-Agent header.
	UserAgent string `yaml:"user_agent"`

	Telemetry Telemetry `yaml:"telemetry"`
}

// Telemetry toggles the OpenTelemetry wiring.
type Telemetry struct {
	Enabled bool `yaml:"enabled"`
	// Endpoint is the OTLP/HTTP collector address. Empty keeps spans
	// in-process (no exporter).
	Endpoint    string `yaml:"endpoint"`
	ServiceName string `yaml:"service_name"`
	Environment string `yaml:"environment"`
}

// Default returns the configuration matching the API's local development
// setup.
func Default() Config {
	return Config{
		BaseURL:   defaultBaseURL,
		Timeout:   defaultTimeout,
		UserAgent: "tripwell-go",
		Telemetry: Telemetry{
			ServiceName: "tripwell-client",
			Environment: "dev",
		},
	}
}

// Load reads a YAML config file layered over Default. Environment overrides
// are applied afterwards so TRIPWELL_* variables win over the file.
func Load(path string) (Config, error) {
	cfg := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	cfg.applyEnv()
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// FromEnv builds a config from defaults plus TRIPWELL_* variables, for
// callers that do not ship a config file.
func FromEnv() (Config, error) {
	cfg := Default()
	cfg.applyEnv()
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("TRIPWELL_BASE_URL"); v != "" {
		c.BaseURL = v
	}
	if v := os.Getenv("TRIPWELL_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			c.Timeout = d
		}
	}
	if v := os.Getenv("TRIPWELL_TOKEN_STORE"); v != "" {
		c.TokenStorePath = v
	}
	if v := os.Getenv("TRIPWELL_OTLP_ENDPOINT"); v != "" {
		c.Telemetry.Enabled = true
		c.Telemetry.Endpoint = v
	}
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.BaseURL) == "" {
		return fmt.Errorf("config: base_url is empty")
	}
	if !strings.HasPrefix(c.BaseURL, "http://") && !strings.HasPrefix(c.BaseURL, "https://") {
		return fmt.Errorf("config: base_url %q must start with http:// or https://", c.BaseURL)
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	return nil
}
