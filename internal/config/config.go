// Package config loads the service configuration from YAML with
// environment variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	App struct {
		// dev | staging | prod
		Env string `yaml:"env"`
	} `yaml:"app"`

	Server struct {
		Addr string `yaml:"addr"`
		// BaseURL is the externally visible origin, used to build the
		// OAuth redirect URL (e.g. https://link.snapcal.app).
		BaseURL     string `yaml:"base_url"`
		AdminAPIKey string `yaml:"admin_api_key"`
	} `yaml:"server"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`

	Storage struct {
		// postgres | memory
		Driver   string `yaml:"driver"`
		DSN      string `yaml:"dsn"`
		MaxConns int    `yaml:"max_conns"`
	} `yaml:"storage"`

	Sessions struct {
		// postgres | redis | memory
		Backend string `yaml:"backend"`
		// TTL of a handshake session, e.g. "10m".
		TTL string `yaml:"ttl"`
		// SweepCron schedules the background expired-session sweep.
		SweepCron string `yaml:"sweep_cron"`
		Redis     struct {
			Addr   string `yaml:"addr"`
			DB     int    `yaml:"db"`
			Prefix string `yaml:"prefix"`
		} `yaml:"redis"`
	} `yaml:"sessions"`

	Google struct {
		ClientID     string `yaml:"client_id"`
		ClientSecret string `yaml:"client_secret"`
		// RedirectURL defaults to BaseURL + /v1/link/callback.
		RedirectURL string `yaml:"redirect_url"`
		// ExchangeTimeout bounds the code exchange call, e.g. "15s".
		ExchangeTimeout string `yaml:"exchange_timeout"`
	} `yaml:"google"`

	Notify struct {
		// discord | noop
		Kind    string `yaml:"kind"`
		Discord struct {
			BotToken string `yaml:"bot_token"`
			APIBase  string `yaml:"api_base"`
		} `yaml:"discord"`
	} `yaml:"notify"`

	Rate struct {
		// StartPerMinute limits /v1/link/start per external id.
		StartPerMinute float64 `yaml:"start_per_minute"`
		StartBurst     int     `yaml:"start_burst"`
	} `yaml:"rate"`
}

// Load reads the YAML file (optional), applies env overrides and
// defaults, and validates the result.
func Load(path string) (*Config, error) {
	c := &Config{}

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, c); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	c.applyEnv()
	c.applyDefaults()

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) applyEnv() {
	setStr := func(dst *string, key string) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			*dst = v
		}
	}
	setStr(&c.App.Env, "APP_ENV")
	setStr(&c.Server.Addr, "SERVER_ADDR")
	setStr(&c.Server.BaseURL, "BASE_URL")
	setStr(&c.Server.AdminAPIKey, "ADMIN_API_KEY")
	setStr(&c.Log.Level, "LOG_LEVEL")
	setStr(&c.Storage.Driver, "STORAGE_DRIVER")
	setStr(&c.Storage.DSN, "DATABASE_URL")
	setStr(&c.Sessions.Backend, "SESSIONS_BACKEND")
	setStr(&c.Sessions.Redis.Addr, "REDIS_ADDR")
	setStr(&c.Google.ClientID, "GOOGLE_CLIENT_ID")
	setStr(&c.Google.ClientSecret, "GOOGLE_CLIENT_SECRET")
	setStr(&c.Google.RedirectURL, "GOOGLE_REDIRECT_URL")
	setStr(&c.Notify.Kind, "NOTIFY_KIND")
	setStr(&c.Notify.Discord.BotToken, "DISCORD_BOT_TOKEN")

	if v := strings.TrimSpace(os.Getenv("REDIS_DB")); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Sessions.Redis.DB = n
		}
	}
}

func (c *Config) applyDefaults() {
	if c.App.Env == "" {
		c.App.Env = "dev"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.BaseURL == "" {
		c.Server.BaseURL = "http://localhost:8080"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "memory"
	}
	if c.Sessions.Backend == "" {
		c.Sessions.Backend = c.Storage.Driver
		if c.Sessions.Backend == "" {
			c.Sessions.Backend = "memory"
		}
	}
	if c.Sessions.TTL == "" {
		c.Sessions.TTL = "10m"
	}
	if c.Sessions.SweepCron == "" {
		c.Sessions.SweepCron = "*/5 * * * *"
	}
	if c.Sessions.Redis.Prefix == "" {
		c.Sessions.Redis.Prefix = "hs:"
	}
	if c.Google.RedirectURL == "" {
		c.Google.RedirectURL = strings.TrimRight(c.Server.BaseURL, "/") + "/v1/link/callback"
	}
	if c.Google.ExchangeTimeout == "" {
		c.Google.ExchangeTimeout = "15s"
	}
	if c.Notify.Kind == "" {
		c.Notify.Kind = "noop"
	}
	if c.Notify.Discord.APIBase == "" {
		c.Notify.Discord.APIBase = "https://discord.com/api/v10"
	}
	if c.Rate.StartPerMinute <= 0 {
		c.Rate.StartPerMinute = 10
	}
	if c.Rate.StartBurst <= 0 {
		c.Rate.StartBurst = 5
	}
}

// Validate checks structural settings. Google credentials are not
// required here: their absence surfaces as a configuration error at
// link initiation, per the flow contract.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case "postgres", "memory":
	default:
		return fmt.Errorf("config: unknown storage driver %q", c.Storage.Driver)
	}
	if c.Storage.Driver == "postgres" && c.Storage.DSN == "" {
		return fmt.Errorf("config: storage driver postgres requires a DSN")
	}
	switch c.Sessions.Backend {
	case "postgres", "redis", "memory":
	default:
		return fmt.Errorf("config: unknown sessions backend %q", c.Sessions.Backend)
	}
	if c.Sessions.Backend == "postgres" && c.Storage.DSN == "" {
		return fmt.Errorf("config: sessions backend postgres requires a DSN")
	}
	if c.Sessions.Backend == "redis" && c.Sessions.Redis.Addr == "" {
		return fmt.Errorf("config: sessions backend redis requires an address")
	}
	if _, err := time.ParseDuration(c.Sessions.TTL); err != nil {
		return fmt.Errorf("config: invalid sessions.ttl: %w", err)
	}
	if _, err := time.ParseDuration(c.Google.ExchangeTimeout); err != nil {
		return fmt.Errorf("config: invalid google.exchange_timeout: %w", err)
	}
	switch c.Notify.Kind {
	case "discord", "noop":
	default:
		return fmt.Errorf("config: unknown notify kind %q", c.Notify.Kind)
	}
	return nil
}

// SessionTTL returns the parsed handshake TTL.
func (c *Config) SessionTTL() time.Duration {
	d, err := time.ParseDuration(c.Sessions.TTL)
	if err != nil || d <= 0 {
		return 10 * time.Minute
	}
	return d
}

// ExchangeTimeout returns the parsed provider exchange timeout.
func (c *Config) ExchangeTimeout() time.Duration {
	d, err := time.ParseDuration(c.Google.ExchangeTimeout)
	if err != nil || d <= 0 {
		return 15 * time.Second
	}
	return d
}

// GoogleConfigured reports whether provider credentials are present.
func (c *Config) GoogleConfigured() bool {
	return c.Google.ClientID != "" && c.Google.ClientSecret != ""
}
