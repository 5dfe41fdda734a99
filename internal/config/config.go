package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/abrezinsky/courtboard/internal/court"
	"github.com/abrezinsky/courtboard/internal/match"
	"github.com/abrezinsky/courtboard/internal/propagation"
)

// Pub/sub drivers
const (
	DriverGoChannel = "gochannel"
	DriverNATS      = "nats"
)

const defaultCourtCount = 8

// Config struct to hold the configuration settings
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Remote    RemoteConfig    `yaml:"remote"`
	PubSub    PubSubConfig    `yaml:"pubsub"`
	Auth      AuthConfig      `yaml:"auth"`
	Display   DisplayConfig   `yaml:"display"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Courts    []CourtConfig   `yaml:"courts"`
}

// ServerConfig holds the HTTP server settings.
type ServerConfig struct {
	Port     int    `yaml:"port"`
	DB       string `yaml:"db"`
	LogLevel string `yaml:"log_level"`
	BaseURL  string `yaml:"base_url"`
}

// RemoteConfig points the persistence adapter at an external scoreboard
// endpoint. An empty BaseURL forwards to this server's own endpoint.
type RemoteConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// PubSubConfig selects the cross-device topic transport.
type PubSubConfig struct {
	Driver  string `yaml:"driver"` // gochannel|nats
	NATSURL string `yaml:"nats_url"`
	Topic   string `yaml:"topic"`
}

// AuthConfig holds session signing settings.
type AuthConfig struct {
	Secret        string        `yaml:"secret"`
	SessionTTL    time.Duration `yaml:"session_ttl"`
	AdminPassword string        `yaml:"admin_password"`
}

// DisplayConfig holds overlay timing.
type DisplayConfig struct {
	PollInterval time.Duration `yaml:"poll_interval"`
	TimeoutFlash time.Duration `yaml:"timeout_flash"`
}

// RateLimitConfig limits control API and login requests per client IP.
type RateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

// CourtConfig configures one court.
type CourtConfig struct {
	ID           string `yaml:"id"`
	Name         string `yaml:"name"`
	Password     string `yaml:"password"`
	TimeoutSlots int    `yaml:"timeout_slots"`
	SetTracking  string `yaml:"set_tracking"`
	SwapPolicy   string `yaml:"swap_policy"`
}

// Variant returns the court's variant with defaults filled in.
func (c CourtConfig) Variant() match.Variant {
	return match.Variant{
		TimeoutSlots: c.TimeoutSlots,
		SetTracking:  match.SetTracking(c.SetTracking),
		SwapPolicy:   match.SwapPolicy(c.SwapPolicy),
	}.WithDefaults()
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	cfg := &Config{
		Server: ServerConfig{
			Port:     8000,
			DB:       "scoreboard.db",
			LogLevel: "info",
		},
		Remote: RemoteConfig{Timeout: 5 * time.Second},
		PubSub: PubSubConfig{Driver: DriverGoChannel, Topic: propagation.DefaultTopic},
		Auth:   AuthConfig{SessionTTL: 24 * time.Hour},
		Display: DisplayConfig{
			PollInterval: time.Second,
			TimeoutFlash: 5 * time.Second,
		},
		RateLimit: RateLimitConfig{RPS: 20, Burst: 40},
	}
	for i := 1; i <= defaultCourtCount; i++ {
		id := fmt.Sprintf("%03d", i)
		cfg.Courts = append(cfg.Courts, CourtConfig{ID: id, Password: "court" + id})
	}
	return cfg
}

// LoadConfig loads the configuration from a YAML file. A missing file yields
// the defaults. A .env file in the working directory is loaded first and
// environment variables override file values.
func LoadConfig(filename string) (*Config, error) {
	// Missing .env is fine
	_ = godotenv.Load()

	cfg := Default()
	if filename != "" {
		data, err := os.ReadFile(filename)
		switch {
		case err == nil:
			courts := cfg.Courts
			cfg.Courts = nil
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to unmarshal config: %w", err)
			}
			if len(cfg.Courts) == 0 {
				cfg.Courts = courts
			}
		case !os.IsNotExist(err):
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	cfg.fillDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// --- OVERRIDE WITH ENV VARS IF PRESENT ---
func applyEnv(cfg *Config) error {
	if v := os.Getenv("COURTBOARD_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid COURTBOARD_PORT value: %v", err)
		}
		cfg.Server.Port = port
	}
	if v := os.Getenv("COURTBOARD_DB"); v != "" {
		cfg.Server.DB = v
	}
	if v := os.Getenv("COURTBOARD_LOG_LEVEL"); v != "" {
		cfg.Server.LogLevel = v
	}
	if v := os.Getenv("COURTBOARD_BASE_URL"); v != "" {
		cfg.Server.BaseURL = v
	}
	if v := os.Getenv("COURTBOARD_REMOTE_URL"); v != "" {
		cfg.Remote.BaseURL = v
	}
	if v := os.Getenv("COURTBOARD_JWT_SECRET"); v != "" {
		cfg.Auth.Secret = v
	}
	if v := os.Getenv("COURTBOARD_ADMIN_PASSWORD"); v != "" {
		cfg.Auth.AdminPassword = v
	}
	if v := os.Getenv("COURTBOARD_PUBSUB"); v != "" {
		cfg.PubSub.Driver = v
	}
	if v := os.Getenv("NATS_URL"); v != "" {
		cfg.PubSub.NATSURL = v
	}
	return nil
}

func (c *Config) fillDefaults() {
	d := Default()
	if c.Server.Port == 0 {
		c.Server.Port = d.Server.Port
	}
	if c.Server.DB == "" {
		c.Server.DB = d.Server.DB
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = d.Server.LogLevel
	}
	if c.Remote.Timeout == 0 {
		c.Remote.Timeout = d.Remote.Timeout
	}
	if c.PubSub.Driver == "" {
		c.PubSub.Driver = d.PubSub.Driver
	}
	if c.PubSub.Topic == "" {
		c.PubSub.Topic = d.PubSub.Topic
	}
	if c.Auth.SessionTTL == 0 {
		c.Auth.SessionTTL = d.Auth.SessionTTL
	}
	if c.Display.PollInterval == 0 {
		c.Display.PollInterval = d.Display.PollInterval
	}
	if c.Display.TimeoutFlash == 0 {
		c.Display.TimeoutFlash = d.Display.TimeoutFlash
	}
	if c.RateLimit.RPS == 0 {
		c.RateLimit = d.RateLimit
	}
}

// Validate checks values that would otherwise fail at runtime.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	switch c.PubSub.Driver {
	case DriverGoChannel:
	case DriverNATS:
		if c.PubSub.NATSURL == "" {
			return fmt.Errorf("pubsub driver %q requires nats_url", DriverNATS)
		}
	default:
		return fmt.Errorf("unknown pubsub driver %q", c.PubSub.Driver)
	}
	if c.RateLimit.RPS < 0 || c.RateLimit.Burst < 0 {
		return fmt.Errorf("rate limit must not be negative")
	}

	seen := make(map[string]bool, len(c.Courts))
	for _, cc := range c.Courts {
		id, ok := court.NormalizeID(cc.ID)
		if !ok {
			return fmt.Errorf("invalid court id %q", cc.ID)
		}
		if seen[id] {
			return fmt.Errorf("duplicate court id %q", id)
		}
		seen[id] = true
		if err := cc.Variant().Validate(); err != nil {
			return fmt.Errorf("court %s: %w", id, err)
		}
	}
	return nil
}

// CourtEntries converts the configured courts for court.NewRegistry.
func (c *Config) CourtEntries() []court.Entry {
	entries := make([]court.Entry, 0, len(c.Courts))
	for _, cc := range c.Courts {
		entries = append(entries, court.Entry{
			ID:       cc.ID,
			Name:     cc.Name,
			Password: cc.Password,
			Variant:  cc.Variant(),
		})
	}
	return entries
}
