package goAuthClient

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Config is the full client configuration.
//
// Config values are copied by Builder.WithConfig and treated as immutable
// once the Client is built.
type Config struct {
	API     APIConfig     `yaml:"api" envPrefix:"API_"`
	Session SessionConfig `yaml:"session" envPrefix:"SESSION_"`
	Refresh RefreshConfig `yaml:"refresh" envPrefix:"REFRESH_"`
	Expiry  ExpiryConfig  `yaml:"expiry" envPrefix:"EXPIRY_"`
	Audit   AuditConfig   `yaml:"audit" envPrefix:"AUDIT_"`
	Metrics MetricsConfig `yaml:"metrics" envPrefix:"METRICS_"`
	Locale  string        `yaml:"locale" env:"LOCALE"`
}

/*
====================================
API CONFIG
====================================
*/

// APIConfig describes the backend the client talks to.
type APIConfig struct {
	BaseURL        string        `yaml:"base_url" env:"BASE_URL"`
	RequestTimeout time.Duration `yaml:"request_timeout" env:"REQUEST_TIMEOUT"`
	UserAgent      string        `yaml:"user_agent" env:"USER_AGENT"`
	LoginPath      string        `yaml:"login_path" env:"LOGIN_PATH"`
	RegisterPath   string        `yaml:"register_path" env:"REGISTER_PATH"`
	RefreshPath    string        `yaml:"refresh_path" env:"REFRESH_PATH"`
	LogoutPath     string        `yaml:"logout_path" env:"LOGOUT_PATH"`
	ProfilePath    string        `yaml:"profile_path" env:"PROFILE_PATH"`
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig controls credential cookies, persistence and navigation.
type SessionConfig struct {
	AccessCookieName string        `yaml:"access_cookie_name" env:"ACCESS_COOKIE_NAME"`
	StoreKey         string        `yaml:"store_key" env:"STORE_KEY"`
	PersistTTL       time.Duration `yaml:"persist_ttl" env:"PERSIST_TTL"`
	LoginRoute       string        `yaml:"login_route" env:"LOGIN_ROUTE"`
}

// RefreshConfig controls the refresh coordinator and interceptor.
type RefreshConfig struct {
	Timeout             time.Duration `yaml:"timeout" env:"TIMEOUT"`
	AuthFailureStatuses []int         `yaml:"auth_failure_statuses" env:"AUTH_FAILURE_STATUSES"`
}

// ExpiryConfig controls the session-expiry warning timer.
type ExpiryConfig struct {
	Enabled          bool          `yaml:"enabled" env:"ENABLED"`
	WarningWindow    time.Duration `yaml:"warning_window" env:"WARNING_WINDOW"`
	MinimumDelay     time.Duration `yaml:"minimum_delay" env:"MINIMUM_DELAY"`
	DefaultExpiresIn time.Duration `yaml:"default_expires_in" env:"DEFAULT_EXPIRES_IN"`
	PromptTimeout    time.Duration `yaml:"prompt_timeout" env:"PROMPT_TIMEOUT"`
}

// AuditConfig controls the asynchronous audit dispatcher.
type AuditConfig struct {
	Enabled    bool `yaml:"enabled" env:"ENABLED"`
	BufferSize int  `yaml:"buffer_size" env:"BUFFER_SIZE"`
	DropIfFull bool `yaml:"drop_if_full" env:"DROP_IF_FULL"`
}

// MetricsConfig controls in-process counters.
type MetricsConfig struct {
	Enabled                 bool `yaml:"enabled" env:"ENABLED"`
	EnableLatencyHistograms bool `yaml:"enable_latency_histograms" env:"ENABLE_LATENCY_HISTOGRAMS"`
}

/*
====================================
DEFAULT CONFIG
====================================
*/

func defaultConfig() Config {
	return Config{
		API: APIConfig{
			BaseURL:        "http://localhost:3000/api/",
			RequestTimeout: 30 * time.Second,
			UserAgent:      "goAuthClient/1",
			LoginPath:      "auth/login",
			RegisterPath:   "auth/register",
			RefreshPath:    "auth/refresh",
			LogoutPath:     "auth/logout",
			ProfilePath:    "users/profile",
		},
		Session: SessionConfig{
			AccessCookieName: "access_token",
			StoreKey:         "default",
			PersistTTL:       7 * 24 * time.Hour,
			LoginRoute:       "/login",
		},
		Refresh: RefreshConfig{
			Timeout:             15 * time.Second,
			AuthFailureStatuses: []int{401},
		},
		Expiry: ExpiryConfig{
			Enabled:          true,
			WarningWindow:    60 * time.Second,
			MinimumDelay:     5 * time.Second,
			DefaultExpiresIn: 15 * time.Minute,
			PromptTimeout:    60 * time.Second,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 true,
			EnableLatencyHistograms: false,
		},
		Locale: "en-US",
	}
}

// DefaultConfig returns the configuration used when none is supplied.
func DefaultConfig() Config {
	return defaultConfig()
}

// LoadConfig builds a Config from defaults, an optional YAML file and
// AUTHCLIENT_-prefixed environment variables, in that order of precedence.
func LoadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	if strings.TrimSpace(path) != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: "AUTHCLIENT_"}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the configuration for values the client cannot run with.
func (c *Config) Validate() error {
	base, err := url.Parse(c.API.BaseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return errors.New("API BaseURL must be an absolute URL")
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return errors.New("API BaseURL scheme must be http or https")
	}
	if c.API.RequestTimeout < 0 {
		return errors.New("API RequestTimeout must be >= 0")
	}
	for name, p := range map[string]string{
		"LoginPath":    c.API.LoginPath,
		"RegisterPath": c.API.RegisterPath,
		"RefreshPath":  c.API.RefreshPath,
		"LogoutPath":   c.API.LogoutPath,
		"ProfilePath":  c.API.ProfilePath,
	} {
		if strings.TrimSpace(p) == "" {
			return fmt.Errorf("API %s must not be empty", name)
		}
	}

	if strings.TrimSpace(c.Session.StoreKey) == "" {
		return errors.New("Session StoreKey must not be empty")
	}
	if c.Session.PersistTTL <= 0 {
		return errors.New("Session PersistTTL must be > 0")
	}

	if c.Refresh.Timeout <= 0 {
		return errors.New("Refresh Timeout must be > 0")
	}
	if len(c.Refresh.AuthFailureStatuses) == 0 {
		return errors.New("Refresh AuthFailureStatuses must not be empty")
	}
	for _, status := range c.Refresh.AuthFailureStatuses {
		if status < 400 || status > 499 {
			return fmt.Errorf("Refresh AuthFailureStatuses contains non-4xx status %d", status)
		}
	}

	if c.Expiry.Enabled {
		if c.Expiry.WarningWindow < 0 {
			return errors.New("Expiry WarningWindow must be >= 0")
		}
		if c.Expiry.MinimumDelay <= 0 {
			return errors.New("Expiry MinimumDelay must be > 0")
		}
		if c.Expiry.DefaultExpiresIn <= 0 {
			return errors.New("Expiry DefaultExpiresIn must be > 0")
		}
		if c.Expiry.PromptTimeout <= 0 {
			return errors.New("Expiry PromptTimeout must be > 0")
		}
	}

	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when audit is enabled")
	}
	return nil
}

func cloneConfig(in Config) Config {
	out := in
	if in.Refresh.AuthFailureStatuses != nil {
		out.Refresh.AuthFailureStatuses = append([]int(nil), in.Refresh.AuthFailureStatuses...)
	}
	return out
}
