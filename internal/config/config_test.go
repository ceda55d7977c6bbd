package config

import (
	"errors"
	"testing"
	"time"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/chatbot")
	t.Setenv("LLM_API_KEY", "sk-test")
	t.Setenv("AUTH_JWT_SECRET", "secret")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.HTTPPort != "8000" {
		t.Fatalf("expected default port 8000, got %q", cfg.HTTPPort)
	}
	if cfg.DBDriver != DriverPostgres {
		t.Fatalf("expected postgres driver, got %q", cfg.DBDriver)
	}
	if cfg.LLMModel != "gpt-4o" {
		t.Fatalf("expected gpt-4o, got %q", cfg.LLMModel)
	}
	if cfg.LLMSystemPrompt != DefaultSystemPrompt {
		t.Fatalf("expected default system prompt")
	}
	if cfg.ExchangeRateWindow != time.Minute {
		t.Fatalf("expected 1m window, got %s", cfg.ExchangeRateWindow)
	}
}

func TestLoadConfig_MissingRequired(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("LLM_API_KEY", "")
	if _, err := LoadConfig(); err == nil {
		t.Fatalf("expected error for missing required vars")
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		cfg     Config
		wantErr error
		driver  string
	}{
		{name: "jwt secret only", cfg: Config{DBDriver: "postgres", AuthJWTSecret: "s"}, driver: DriverPostgres},
		{name: "provider only", cfg: Config{DBDriver: "sqlite3", AuthProviderURL: "https://x.supabase.co", AuthProviderKey: "k"}, driver: DriverSQLite},
		{name: "no auth", cfg: Config{DBDriver: "postgres"}, wantErr: ErrAuthNotConfigured},
		{name: "provider without key", cfg: Config{DBDriver: "postgres", AuthProviderURL: "https://x.supabase.co"}, wantErr: ErrAuthNotConfigured},
		{name: "unknown driver", cfg: Config{DBDriver: "oracle", AuthJWTSecret: "s"}, wantErr: ErrUnknownDriver},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
			if tc.wantErr == nil && tc.cfg.DBDriver != tc.driver {
				t.Fatalf("expected driver %q, got %q", tc.driver, tc.cfg.DBDriver)
			}
		})
	}
}

func TestLoadLocalConfig_SkipsAuth(t *testing.T) {
	t.Setenv("DATABASE_URL", "chat.db")
	t.Setenv("LLM_API_KEY", "sk-test")
	t.Setenv("DB_DRIVER", "SQLite3")
	t.Setenv("AUTH_JWT_SECRET", "")
	t.Setenv("AUTH_PROVIDER_URL", "")

	cfg, err := LoadLocalConfig()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.DBDriver != DriverSQLite {
		t.Fatalf("expected sqlite driver, got %q", cfg.DBDriver)
	}
	if _, err := LoadConfig(); !errors.Is(err, ErrAuthNotConfigured) {
		t.Fatalf("expected ErrAuthNotConfigured from LoadConfig, got %v", err)
	}
}
