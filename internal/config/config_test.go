package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadAppliesDefaults(t *testing.T) {
	configViper := NewViper()
	configViper.Set("auth.signing_secret", "secret")

	cfg, err := Load(configViper)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DatabasePath != defaultDatabasePath || cfg.LogFormat != "json" {
		t.Fatalf("unexpected defaults %#v", cfg)
	}
	if cfg.SessionTTL != 8*time.Hour || cfg.PresenceInterval != time.Second {
		t.Fatalf("unexpected durations %v %v", cfg.SessionTTL, cfg.PresenceInterval)
	}
	if cfg.WriteLevel != 1 || cfg.AdminLevel != 1 {
		t.Fatalf("unexpected levels %d %d", cfg.WriteLevel, cfg.AdminLevel)
	}
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("STOCKROOM_AUTH_SIGNING_SECRET", "from-env")
	t.Setenv("STOCKROOM_AUTH_WRITE_LEVEL", "2")
	t.Setenv("STOCKROOM_LOG_FORMAT", "Console")

	cfg, err := Load(NewViper())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.SigningSecret != "from-env" || cfg.WriteLevel != 2 || cfg.LogFormat != "console" {
		t.Fatalf("environment not applied: %#v", cfg)
	}
}

func TestLoadValidates(t *testing.T) {
	testCases := []struct {
		key   string
		value interface{}
		want  string
	}{
		{key: "auth.signing_secret", value: " ", want: "auth.signing_secret"},
		{key: "log.format", value: "xml", want: "log.format"},
		{key: "auth.session_ttl_minutes", value: 0, want: "session_ttl"},
		{key: "auth.admin_level", value: 0, want: "admin_level"},
		{key: "database.path", value: "", want: "database.path"},
	}
	for _, testCase := range testCases {
		configViper := NewViper()
		configViper.Set("auth.signing_secret", "secret")
		configViper.Set(testCase.key, testCase.value)
		_, err := Load(configViper)
		if err == nil || !strings.Contains(err.Error(), testCase.want) {
			t.Fatalf("%s=%v: expected error mentioning %q, got %v", testCase.key, testCase.value, testCase.want, err)
		}
	}
}
