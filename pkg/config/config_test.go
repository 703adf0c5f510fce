package config

import (
	"strings"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("FFLOGS_API_KEY", "")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DBPath != DefaultDB {
		t.Fatalf("DBPath = %q, want %q", cfg.DBPath, DefaultDB)
	}
	if cfg.BaseURL != "https://www.fflogs.com/v1" {
		t.Fatalf("BaseURL = %q", cfg.BaseURL)
	}
	if cfg.RPS != 5 {
		t.Fatalf("RPS = %v, want 5", cfg.RPS)
	}
	if cfg.LogLevel != "info" {
		t.Fatalf("LogLevel = %q", cfg.LogLevel)
	}
	if cfg.Remote() {
		t.Fatal("Remote() with no API key should be false")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("XL_DB", "/tmp/x.db")
	t.Setenv("FFLOGS_API_KEY", "k")
	t.Setenv("FFLOGS_RPS", "0.5")
	t.Setenv("XL_LOG_LEVEL", "debug")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DBPath != "/tmp/x.db" || cfg.APIKey != "k" || cfg.RPS != 0.5 {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if !cfg.Remote() {
		t.Fatal("Remote() with API key should be true")
	}
	t.Setenv("XL_OFFLINE", "true")
	cfg, err = Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Remote() {
		t.Fatal("Remote() offline should be false")
	}
	if _, err := cfg.Logger(); err != nil {
		t.Fatalf("Logger: %v", err)
	}
}

func TestLoadErrors(t *testing.T) {
	cases := []struct {
		name, key, value, want string
	}{
		{"bad rps", "FFLOGS_RPS", "fast", "parse env:"},
		{"zero rps", "FFLOGS_RPS", "0", "FFLOGS_RPS"},
		{"bad level", "XL_LOG_LEVEL", "loud", "XL_LOG_LEVEL"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(tc.key, tc.value)
			_, err := Load()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("error %q does not mention %q", err, tc.want)
			}
		})
	}
}
