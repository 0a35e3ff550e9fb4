package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaultsWithoutFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ServiceName != "distributor" || cfg.HTTP.Port != 8080 || cfg.Database.Driver != "sqlite" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.Auth.TokenTTL != 24*time.Hour || cfg.Onboarding.StatsTTL != time.Minute {
		t.Fatalf("unexpected durations: token=%v stats=%v", cfg.Auth.TokenTTL, cfg.Onboarding.StatsTTL)
	}
	if cfg.Notification.Driver != "log" || cfg.RateLimit.PerMinute != 10 {
		t.Fatalf("unexpected notification or rate limit defaults: %+v %+v", cfg.Notification, cfg.RateLimit)
	}
	if !cfg.IsDev() {
		t.Fatal("expected dev environment by default")
	}
}

func TestLoadFileAndEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
service_name = "distributor-test"

[http]
port = 9000

[notification]
driver = "smtp"
smtp_host = "mail.example.com"
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("APP_HTTP_PORT", "9100")
	t.Setenv("APP_AUTH_JWT_SECRET", "from-env")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ServiceName != "distributor-test" || cfg.Notification.SMTPHost != "mail.example.com" {
		t.Fatalf("expected file values, got %+v", cfg)
	}
	if cfg.HTTP.Port != 9100 || cfg.Auth.JWTSecret != "from-env" {
		t.Fatalf("expected env overrides, got port=%d secret=%q", cfg.HTTP.Port, cfg.Auth.JWTSecret)
	}
}

func TestLoadRejectsBrokenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[http\nport = "), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func validConfig() *Config {
	return &Config{
		ServiceName:  "distributor",
		Environment:  "dev",
		HTTP:         HTTPConfig{Port: 8080},
		Database:     DatabaseConfig{Driver: "sqlite"},
		Auth:         AuthConfig{JWTSecret: "changeme"},
		Notification: NotificationConfig{Driver: "log"},
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"missing service name", func(c *Config) { c.ServiceName = "" }, "service_name"},
		{"bad port", func(c *Config) { c.HTTP.Port = 70000 }, "HTTP port"},
		{"postgres without dsn", func(c *Config) { c.Database.Driver = "postgres" }, "DSN"},
		{"unknown driver", func(c *Config) { c.Database.Driver = "mysql" }, "database driver"},
		{"default secret in prod", func(c *Config) { c.Environment = "prod" }, "jwt_secret"},
		{"kafka without brokers", func(c *Config) { c.Notification.Driver = "kafka" }, "kafka.brokers"},
		{"unknown sender", func(c *Config) { c.Notification.Driver = "sms" }, "notification driver"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error mentioning %q, got %v", tc.want, err)
			}
		})
	}

	if err := validConfig().Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
}
