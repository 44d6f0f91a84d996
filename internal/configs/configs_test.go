package configs

import (
	"testing"
	"time"
)

func setBaseEnv(t *testing.T) {
	t.Helper()
	t.Setenv("ENVIRONMENT", "development")
	t.Setenv("GATEWAY_URL", "")
	t.Setenv("STATE_DB_PATH", "/tmp/questify-test/state.db")
	t.Setenv("REQUEST_TIMEOUT_SECONDS", "")
	t.Setenv("PORT", "")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("ALLOWED_ORIGINS", "")
}

func TestLoadConfigDefaults(t *testing.T) {
	setBaseEnv(t)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.GatewayBaseURL != "http://localhost:8000" {
		t.Errorf("GatewayBaseURL = %q", cfg.GatewayBaseURL)
	}
	if cfg.RequestTimeout != 10*time.Second {
		t.Errorf("RequestTimeout = %v", cfg.RequestTimeout)
	}
	if cfg.Port != 8000 {
		t.Errorf("Port = %d", cfg.Port)
	}
	if cfg.JWTSecret == "" {
		t.Error("expected a development fallback JWT secret")
	}
}

func TestLoadConfigTrimsGatewayURL(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("GATEWAY_URL", "https://play.example.com/")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.GatewayBaseURL != "https://play.example.com" {
		t.Errorf("GatewayBaseURL = %q", cfg.GatewayBaseURL)
	}
}

func TestLoadConfigRejectsBadGatewayURL(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("GATEWAY_URL", "ftp://example.com")

	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected an error for a non-http gateway URL")
	}
}

func TestLoadConfigRejectsBadTimeout(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("REQUEST_TIMEOUT_SECONDS", "0")

	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected an error for a non-positive timeout")
	}
}

func TestLoadConfigRejectsPrivilegedPort(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("PORT", "80")

	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected an error for a privileged port")
	}
}

func TestLoadConfigRequiresSecretOutsideDevelopment(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("ENVIRONMENT", "production")

	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected an error when JWT_SECRET is unset in production")
	}
}

func TestLoadConfigParsesOrigins(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com ,")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "https://b.example.com" {
		t.Errorf("AllowedOrigins = %v", cfg.AllowedOrigins)
	}
}
