/*
Package configs is responsible for loading and parsing the application's configuration settings.

Settings are read from environment variables, optionally seeded from a .env file.
They cover the client (gateway address, local state path, request timeout) and the
development gateway (port, JWT secret, CORS origins).
*/
package configs

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig contains all configuration parameters required for the application to run.
type AppConfig struct {
	// General Settings
	Environment string

	// Client Settings
	GatewayBaseURL string
	StateDBPath    string
	RequestTimeout time.Duration

	// Development Gateway Settings
	Port           int
	JWTSecret      string
	AllowedOrigins []string
}

// LoadConfig reads the application configuration from environment variables.
// A .env file in the working directory is loaded first when present.
// It provides defaults and performs type conversion and validation.
func LoadConfig() (*AppConfig, error) {
	// Missing .env is the normal case outside development.
	_ = godotenv.Load()

	cfg := &AppConfig{}

	// --- General Settings ---
	cfg.Environment = os.Getenv("ENVIRONMENT")
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}

	// --- Client Settings ---
	cfg.GatewayBaseURL = os.Getenv("GATEWAY_URL")
	if cfg.GatewayBaseURL == "" {
		cfg.GatewayBaseURL = "http://localhost:8000"
	}
	parsed, err := url.Parse(cfg.GatewayBaseURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return nil, fmt.Errorf("GATEWAY_URL %q is not a valid http(s) URL", cfg.GatewayBaseURL)
	}
	cfg.GatewayBaseURL = strings.TrimRight(cfg.GatewayBaseURL, "/")

	cfg.StateDBPath = os.Getenv("STATE_DB_PATH")
	if cfg.StateDBPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		cfg.StateDBPath = filepath.Join(home, ".questify", "state.db")
	}

	timeoutStr := os.Getenv("REQUEST_TIMEOUT_SECONDS")
	if timeoutStr == "" {
		timeoutStr = "10"
	}
	timeoutSec, err := strconv.Atoi(timeoutStr)
	if err != nil || timeoutSec <= 0 {
		return nil, fmt.Errorf("invalid REQUEST_TIMEOUT_SECONDS environment variable: %q", timeoutStr)
	}
	cfg.RequestTimeout = time.Duration(timeoutSec) * time.Second

	// --- Development Gateway Settings ---
	portStr := os.Getenv("PORT")
	if portStr == "" {
		portStr = "8000"
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid PORT environment variable: %w", err)
	}
	if port < 1024 || port > 65535 {
		return nil, fmt.Errorf("port number %d is outside the allowed range (1024-65535)", port)
	}
	cfg.Port = port

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		if cfg.Environment != "development" {
			return nil, fmt.Errorf("JWT_SECRET environment variable is required in %s environment", cfg.Environment)
		}
		jwtSecret = "your_default_insecure_secret_key_change_me"
	}
	cfg.JWTSecret = jwtSecret

	originsStr := os.Getenv("ALLOWED_ORIGINS")
	if originsStr != "" {
		for _, origin := range strings.Split(originsStr, ",") {
			trimmed := strings.TrimSpace(origin)
			if trimmed != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, trimmed)
			}
		}
	} else {
		cfg.AllowedOrigins = []string{}
	}

	return cfg, nil
}
