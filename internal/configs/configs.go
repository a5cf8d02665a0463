/*
Package configs loads the relay's settings from environment variables.
*/
package configs

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// AppConfig holds every runtime setting. Values come from the environment.
type AppConfig struct {
	// General server settings
	Environment string
	Port        int

	// AllowedOrigins lists the browser origins accepted for CORS and
	// WebSocket upgrades outside development.
	AllowedOrigins []string

	// MaxMessageBytes caps a single inbound WebSocket frame. Attachments are
	// sent inline as base64, so the default is generous.
	MaxMessageBytes int64

	// Handshake throttling per remote address.
	HandshakeRate  float64
	HandshakeBurst int

	// Inbound event throttling per connection.
	MessageRate  float64
	MessageBurst int
}

// IsDevelopment reports whether the relay runs in the development environment.
func (c *AppConfig) IsDevelopment() bool {
	return c.Environment == "development"
}

// LoadConfig reads the configuration, applying defaults for unset variables
// and rejecting values that do not parse or fall outside their range.
func LoadConfig() (*AppConfig, error) {
	cfg := &AppConfig{
		Environment: os.Getenv("ENVIRONMENT"),
	}
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}

	var err error

	if cfg.Port, err = intEnv("PORT", 8000); err != nil {
		return nil, err
	}
	if cfg.Port < 1024 || cfg.Port > 65535 {
		return nil, fmt.Errorf("port number %d is outside the allowed range (1024-65535)", cfg.Port)
	}

	for _, origin := range strings.Split(os.Getenv("ALLOWED_ORIGINS"), ",") {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, trimmed)
		}
	}
	if len(cfg.AllowedOrigins) == 0 {
		if !cfg.IsDevelopment() {
			return nil, fmt.Errorf("ALLOWED_ORIGINS environment variable is required in %s environment", cfg.Environment)
		}
		cfg.AllowedOrigins = []string{"http://localhost:3000"}
	}

	maxBytes, err := intEnv("MAX_MESSAGE_BYTES", 4<<20)
	if err != nil {
		return nil, err
	}
	if maxBytes < 1024 {
		return nil, fmt.Errorf("MAX_MESSAGE_BYTES must be at least 1024, got %d", maxBytes)
	}
	cfg.MaxMessageBytes = int64(maxBytes)

	if cfg.HandshakeRate, err = floatEnv("HANDSHAKE_RATE", 0.5); err != nil {
		return nil, err
	}
	if cfg.HandshakeBurst, err = intEnv("HANDSHAKE_BURST", 5); err != nil {
		return nil, err
	}
	if cfg.MessageRate, err = floatEnv("MESSAGE_RATE", 5); err != nil {
		return nil, err
	}
	if cfg.MessageBurst, err = intEnv("MESSAGE_BURST", 10); err != nil {
		return nil, err
	}

	if cfg.HandshakeRate <= 0 || cfg.MessageRate <= 0 {
		return nil, fmt.Errorf("HANDSHAKE_RATE and MESSAGE_RATE must be positive")
	}
	if cfg.HandshakeBurst < 1 || cfg.MessageBurst < 1 {
		return nil, fmt.Errorf("HANDSHAKE_BURST and MESSAGE_BURST must be at least 1")
	}

	return cfg, nil
}

func intEnv(key string, def int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s environment variable: %w", key, err)
	}
	return v, nil
}

func floatEnv(key string, def float64) (float64, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}

	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s environment variable: %w", key, err)
	}
	return v, nil
}
