package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the gateway configuration.
type Config struct {
	// Server bind address (host:port)
	ListenAddr string

	// Platform session endpoint URL (returns { clientPrincipal: ... })
	PlatformEndpoint string

	// Application permission endpoint URL
	PermissionEndpoint string

	// Interval between platform polls
	PollInterval time.Duration

	// Per-request timeout for either endpoint
	FetchTimeout time.Duration

	// Transport retries per poll cycle before the failure settles
	MaxRetries int

	// Path to the menu definition document (JSON)
	MenuPath string

	// CORS allowed origins for the HTTP surface
	AllowedOrigins []string

	// Enable debug logging
	Debug bool
}

// Load reads configuration from PORTALGATE_-prefixed environment
// variables, with an optional config file layered underneath
// (PORTALGATE_CONFIG points at a viper-supported file). Environment
// variables win over the file.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("PORTALGATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault("listen_addr", "localhost:8080")
	v.SetDefault("platform_endpoint", "")
	v.SetDefault("permission_endpoint", "")
	v.SetDefault("poll_interval", "30s")
	v.SetDefault("fetch_timeout", "10s")
	v.SetDefault("max_retries", 3)
	v.SetDefault("menu_path", "menu.json")
	v.SetDefault("allowed_origins", "")
	v.SetDefault("debug", false)

	if file := v.GetString("config"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", file, err)
		}
	}

	cfg := &Config{
		ListenAddr:         v.GetString("listen_addr"),
		PlatformEndpoint:   v.GetString("platform_endpoint"),
		PermissionEndpoint: v.GetString("permission_endpoint"),
		PollInterval:       v.GetDuration("poll_interval"),
		FetchTimeout:       v.GetDuration("fetch_timeout"),
		MaxRetries:         v.GetInt("max_retries"),
		MenuPath:           v.GetString("menu_path"),
		AllowedOrigins:     splitOrigins(v.GetString("allowed_origins")),
		Debug:              v.GetBool("debug"),
	}

	if cfg.PollInterval <= 0 {
		return nil, fmt.Errorf("PORTALGATE_POLL_INTERVAL must be positive, got %s", cfg.PollInterval)
	}
	if cfg.FetchTimeout <= 0 {
		return nil, fmt.Errorf("PORTALGATE_FETCH_TIMEOUT must be positive, got %s", cfg.FetchTimeout)
	}
	if cfg.MaxRetries < 0 {
		return nil, fmt.Errorf("PORTALGATE_MAX_RETRIES must not be negative, got %d", cfg.MaxRetries)
	}

	return cfg, nil
}

// ValidateServe checks the fields the serve command requires. The offline
// commands (check, menu validate) run without endpoints configured.
func (c *Config) ValidateServe() error {
	if c.PlatformEndpoint == "" {
		return fmt.Errorf("PORTALGATE_PLATFORM_ENDPOINT is required")
	}
	if c.PermissionEndpoint == "" {
		return fmt.Errorf("PORTALGATE_PERMISSION_ENDPOINT is required")
	}
	if c.MenuPath == "" {
		return fmt.Errorf("PORTALGATE_MENU_PATH is required")
	}
	return nil
}

func splitOrigins(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}
