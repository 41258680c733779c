package config

import (
	"os"
	"testing"
)

// validConfig returns a development config that passes validation.
func validConfig() Config {
	return Config{
		Port:                8080,
		Env:                 EnvDevelopment,
		DatabasePath:        "./data/test.db",
		LogLevel:            "info",
		LogFormat:           "text",
		UpcomingWindowDays:  30,
		LifeExpectancyYears: 83,
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() with defaults failed: %v", err)
	}

	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Port)
	}
	if cfg.Env != EnvDevelopment {
		t.Errorf("Env = %q, want %q", cfg.Env, EnvDevelopment)
	}
	if cfg.DatabasePath != "./data/ledger.db" {
		t.Errorf("DatabasePath = %q, want %q", cfg.DatabasePath, "./data/ledger.db")
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "info")
	}
	if cfg.LogFormat != "text" {
		t.Errorf("LogFormat = %q, want %q", cfg.LogFormat, "text")
	}
	if cfg.UpcomingWindowDays != 30 {
		t.Errorf("UpcomingWindowDays = %d, want 30", cfg.UpcomingWindowDays)
	}
	if cfg.LifeExpectancyYears != 83 {
		t.Errorf("LifeExpectancyYears = %d, want 83", cfg.LifeExpectancyYears)
	}
}

func TestLoad_FromEnv(t *testing.T) {
	clearEnv()

	os.Setenv("PORT", "3000")
	os.Setenv("ENV", "production")
	os.Setenv("DATABASE_PATH", "/data/test.db")
	os.Setenv("API_KEY", "secret-key-123")
	os.Setenv("LOG_LEVEL", "debug")
	os.Setenv("LOG_FORMAT", "json")
	os.Setenv("UPCOMING_WINDOW_DAYS", "60")
	os.Setenv("LIFE_EXPECTANCY_YEARS", "90")
	defer clearEnv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Port != 3000 {
		t.Errorf("Port = %d, want 3000", cfg.Port)
	}
	if cfg.Env != EnvProduction {
		t.Errorf("Env = %q, want %q", cfg.Env, EnvProduction)
	}
	if cfg.DatabasePath != "/data/test.db" {
		t.Errorf("DatabasePath = %q, want %q", cfg.DatabasePath, "/data/test.db")
	}
	if cfg.APIKey != "secret-key-123" {
		t.Errorf("APIKey = %q, want %q", cfg.APIKey, "secret-key-123")
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "debug")
	}
	if cfg.LogFormat != "json" {
		t.Errorf("LogFormat = %q, want %q", cfg.LogFormat, "json")
	}
	if cfg.UpcomingWindowDays != 60 {
		t.Errorf("UpcomingWindowDays = %d, want 60", cfg.UpcomingWindowDays)
	}
	if cfg.LifeExpectancyYears != 90 {
		t.Errorf("LifeExpectancyYears = %d, want 90", cfg.LifeExpectancyYears)
	}
}

func TestLoad_InvalidEnv(t *testing.T) {
	clearEnv()
	os.Setenv("ENV", "production") // no API_KEY
	defer clearEnv()

	if _, err := Load(); err == nil {
		t.Error("Load() error = nil, want error for production without API_KEY")
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"valid development config", func(c *Config) {}, false},
		{"valid production config", func(c *Config) {
			c.Env = EnvProduction
			c.APIKey = "required-in-prod"
			c.LogFormat = "json"
		}, false},
		{"production requires API key", func(c *Config) { c.Env = EnvProduction }, true},
		{"invalid port - too low", func(c *Config) { c.Port = 0 }, true},
		{"invalid port - too high", func(c *Config) { c.Port = 70000 }, true},
		{"invalid environment", func(c *Config) { c.Env = "invalid" }, true},
		{"invalid log level", func(c *Config) { c.LogLevel = "verbose" }, true},
		{"invalid log format", func(c *Config) { c.LogFormat = "xml" }, true},
		{"empty database path", func(c *Config) { c.DatabasePath = "" }, true},
		{"window too small", func(c *Config) { c.UpcomingWindowDays = 0 }, true},
		{"window too large", func(c *Config) { c.UpcomingWindowDays = 400 }, true},
		{"life expectancy zero", func(c *Config) { c.LifeExpectancyYears = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_IsDevelopment(t *testing.T) {
	cfg := &Config{Env: EnvDevelopment}
	if !cfg.IsDevelopment() {
		t.Error("IsDevelopment() = false, want true")
	}

	cfg.Env = EnvProduction
	if cfg.IsDevelopment() {
		t.Error("IsDevelopment() = true, want false")
	}
}

func TestConfig_IsProduction(t *testing.T) {
	cfg := &Config{Env: EnvProduction}
	if !cfg.IsProduction() {
		t.Error("IsProduction() = false, want true")
	}

	cfg.Env = EnvDevelopment
	if cfg.IsProduction() {
		t.Error("IsProduction() = true, want false")
	}
}

func TestConfig_Addr(t *testing.T) {
	cfg := &Config{Port: 9090}
	if got := cfg.Addr(); got != ":9090" {
		t.Errorf("Addr() = %q, want %q", got, ":9090")
	}
}

// clearEnv removes all config-related environment variables
func clearEnv() {
	vars := []string{
		"PORT", "ENV", "DATABASE_PATH", "API_KEY",
		"LOG_LEVEL", "LOG_FORMAT",
		"UPCOMING_WINDOW_DAYS", "LIFE_EXPECTANCY_YEARS",
	}
	for _, v := range vars {
		os.Unsetenv(v)
	}
}
