package config

import (
	"testing"
	"time"
)

func TestLoad_AppEnvValidation(t *testing.T) {
	t.Setenv("APP_ENV", "invalid")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for invalid APP_ENV")
	}
}

func TestLoad_UptraceRequiresDSNWhenEnabled(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "true")
	t.Setenv("UPTRACE_DSN", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when UPTRACE_ENABLED=true without UPTRACE_DSN")
	}
}

func TestLoad_SeedDefaultsByEnv(t *testing.T) {
	t.Run("prod disables demo seed by default", func(t *testing.T) {
		t.Setenv("APP_ENV", EnvProd)
		t.Setenv("INTERNAL_JOB_TOKEN", "job-token")
		t.Setenv("SEED_DEMO_DATA", "")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if cfg.SeedDemoData {
			t.Fatalf("expected SeedDemoData=false in prod by default")
		}
	})

	t.Run("dev seeds demo data by default", func(t *testing.T) {
		t.Setenv("APP_ENV", EnvDev)
		t.Setenv("SEED_DEMO_DATA", "")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if !cfg.SeedDemoData {
			t.Fatalf("expected SeedDemoData=true in dev by default")
		}
	})
}

func TestLoad_ProdRequiresInternalJobToken(t *testing.T) {
	t.Setenv("APP_ENV", EnvProd)
	t.Setenv("INTERNAL_JOB_TOKEN", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when APP_ENV=prod without INTERNAL_JOB_TOKEN")
	}
}

func TestLoad_WebhookConfigParsing(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)

	t.Run("disabled by default", func(t *testing.T) {
		t.Setenv("WEBHOOK_ENABLED", "")
		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if cfg.WebhookEnabled {
			t.Fatalf("expected WebhookEnabled=false by default")
		}
	})

	t.Run("enabled requires base url", func(t *testing.T) {
		t.Setenv("WEBHOOK_ENABLED", "true")
		t.Setenv("WEBHOOK_BASE_URL", "")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error when WEBHOOK_ENABLED=true without WEBHOOK_BASE_URL")
		}
	})

	t.Run("enabled with required values", func(t *testing.T) {
		t.Setenv("WEBHOOK_ENABLED", "true")
		t.Setenv("WEBHOOK_BASE_URL", "https://hooks.example.com")
		t.Setenv("WEBHOOK_TOKEN", "hook-token")
		t.Setenv("WEBHOOK_MAX_RETRIES", "2")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if !cfg.WebhookEnabled {
			t.Fatalf("expected WebhookEnabled=true")
		}
		if cfg.WebhookBaseURL != "https://hooks.example.com" {
			t.Fatalf("unexpected WebhookBaseURL: %q", cfg.WebhookBaseURL)
		}
		if cfg.WebhookPath != "/v1/events" {
			t.Fatalf("unexpected default WebhookPath: %q", cfg.WebhookPath)
		}
		if cfg.WebhookMaxRetries != 2 {
			t.Fatalf("unexpected WebhookMaxRetries: %d", cfg.WebhookMaxRetries)
		}
	})
}

func TestLoad_AccountDefaults(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.AccountBaseURL != "http://localhost:8081" {
		t.Fatalf("unexpected AccountBaseURL: %q", cfg.AccountBaseURL)
	}
	if cfg.AccountIntrospectPath != "/v1/auth/introspect" {
		t.Fatalf("unexpected AccountIntrospectPath: %q", cfg.AccountIntrospectPath)
	}
	if cfg.AccountTimeout != 3*time.Second {
		t.Fatalf("unexpected AccountTimeout: %s", cfg.AccountTimeout)
	}
	if cfg.AccountCacheTTL != 30*time.Second {
		t.Fatalf("unexpected AccountCacheTTL: %s", cfg.AccountCacheTTL)
	}
	if !cfg.AccountCircuitEnabled || cfg.AccountCircuitFailureCount != 5 {
		t.Fatalf("unexpected account circuit defaults: enabled=%v count=%d", cfg.AccountCircuitEnabled, cfg.AccountCircuitFailureCount)
	}
}

func TestLoad_SweepConfigParsing(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)

	t.Run("defaults", func(t *testing.T) {
		t.Setenv("SWEEP_ENABLED", "")
		t.Setenv("SWEEP_INTERVAL", "")
		t.Setenv("SWEEP_WORKERS", "")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if !cfg.SweepEnabled {
			t.Fatalf("expected sweep enabled by default")
		}
		if cfg.SweepInterval != time.Minute {
			t.Fatalf("unexpected default sweep interval: %s", cfg.SweepInterval)
		}
		if cfg.SweepWorkers != 4 {
			t.Fatalf("unexpected default sweep workers: %d", cfg.SweepWorkers)
		}
	})

	t.Run("invalid interval", func(t *testing.T) {
		t.Setenv("SWEEP_INTERVAL", "bad")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for invalid SWEEP_INTERVAL")
		}
	})

	t.Run("workers must be positive", func(t *testing.T) {
		t.Setenv("SWEEP_INTERVAL", "30s")
		t.Setenv("SWEEP_WORKERS", "0")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for SWEEP_WORKERS=0")
		}
	})
}

func TestLoad_CORSOriginsDefaultAndParsing(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)

	t.Run("default wildcard", func(t *testing.T) {
		t.Setenv("CORS_ALLOWED_ORIGINS", "")
		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if len(cfg.CORSAllowedOrigins) != 1 || cfg.CORSAllowedOrigins[0] != "*" {
			t.Fatalf("unexpected default CORS origins: %+v", cfg.CORSAllowedOrigins)
		}
	})

	t.Run("comma separated parsing", func(t *testing.T) {
		t.Setenv("CORS_ALLOWED_ORIGINS", " https://app.astralfield.io, http://localhost:5173 ")
		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if len(cfg.CORSAllowedOrigins) != 2 {
			t.Fatalf("unexpected CORS origins length: %d", len(cfg.CORSAllowedOrigins))
		}
		if cfg.CORSAllowedOrigins[0] != "https://app.astralfield.io" {
			t.Fatalf("unexpected first CORS origin: %s", cfg.CORSAllowedOrigins[0])
		}
	})
}

func TestLoad_DBDisablePreparedBinaryResultParsing(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)

	t.Run("default true", func(t *testing.T) {
		t.Setenv("DB_DISABLE_PREPARED_BINARY_RESULT", "")
		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if !cfg.DBDisablePreparedBinary {
			t.Fatalf("expected DBDisablePreparedBinary=true by default")
		}
	})

	t.Run("invalid value", func(t *testing.T) {
		t.Setenv("DB_DISABLE_PREPARED_BINARY_RESULT", "not-bool")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for invalid DB_DISABLE_PREPARED_BINARY_RESULT")
		}
	})
}

func TestLoad_LogLevelParsing(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("APP_LOG_LEVEL", "warn")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.LogLevel.String() != "warn" {
		t.Fatalf("unexpected log level: %s", cfg.LogLevel.String())
	}
}
