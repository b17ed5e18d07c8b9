package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/astralfield/roster-engine/internal/platform/logging"
)

// Config stores runtime configuration for the service.
type Config struct {
	AppEnv                       string
	ServiceName                  string
	ServiceVersion               string
	HTTPAddr                     string
	DBURL                        string
	DBDisablePreparedBinary      bool
	SeedDemoData                 bool
	CORSAllowedOrigins           []string
	ReadTimeout                  time.Duration
	WriteTimeout                 time.Duration
	PprofEnabled                 bool
	PprofAddr                    string
	AccountBaseURL               string
	AccountIntrospectPath        string
	AccountTimeout               time.Duration
	AccountCacheTTL              time.Duration
	AccountCircuitEnabled        bool
	AccountCircuitFailureCount   int
	AccountCircuitOpenTimeout    time.Duration
	AccountCircuitHalfOpenMaxReq int
	WebhookEnabled               bool
	WebhookBaseURL               string
	WebhookPath                  string
	WebhookToken                 string
	WebhookTimeout               time.Duration
	WebhookMaxRetries            int
	WebhookCircuitEnabled        bool
	WebhookCircuitFailureCount   int
	WebhookCircuitOpenTimeout    time.Duration
	WebhookCircuitHalfOpenMaxReq int
	UptraceEnabled               bool
	UptraceDSN                   string
	PyroscopeEnabled             bool
	PyroscopeServerAddress       string
	PyroscopeAppName             string
	PyroscopeAuthToken           string
	PyroscopeBasicAuthUser       string
	PyroscopeBasicAuthPassword   string
	PyroscopeUploadRate          time.Duration
	InternalJobToken             string
	SweepEnabled                 bool
	SweepInterval                time.Duration
	SweepWorkers                 int
	LogLevel                     logging.Level
}

func Load() (Config, error) {
	appEnv, err := parseAppEnv(getEnv("APP_ENV", EnvDev))
	if err != nil {
		return Config{}, err
	}

	seedDefault := "true"
	if appEnv == EnvProd {
		seedDefault = "false"
	}
	seedDemoData, err := strconv.ParseBool(getEnv("SEED_DEMO_DATA", seedDefault))
	if err != nil {
		return Config{}, fmt.Errorf("parse SEED_DEMO_DATA: %w", err)
	}

	uptraceEnabled, err := strconv.ParseBool(getEnv("UPTRACE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse UPTRACE_ENABLED: %w", err)
	}
	uptraceDSN := strings.TrimSpace(getEnv("UPTRACE_DSN", ""))
	if uptraceEnabled && uptraceDSN == "" {
		return Config{}, fmt.Errorf("UPTRACE_DSN is required when UPTRACE_ENABLED=true")
	}

	pprofEnabled, err := strconv.ParseBool(getEnv("PPROF_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PPROF_ENABLED: %w", err)
	}
	pprofAddr := strings.TrimSpace(getEnv("PPROF_ADDR", ":6060"))
	if pprofEnabled && pprofAddr == "" {
		return Config{}, fmt.Errorf("PPROF_ADDR is required when PPROF_ENABLED=true")
	}

	pyroscopeEnabled, err := strconv.ParseBool(getEnv("PYROSCOPE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PYROSCOPE_ENABLED: %w", err)
	}
	pyroscopeServerAddress := strings.TrimSpace(getEnv("PYROSCOPE_SERVER_ADDRESS", ""))
	if pyroscopeEnabled && pyroscopeServerAddress == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_SERVER_ADDRESS is required when PYROSCOPE_ENABLED=true")
	}
	pyroscopeUploadRate, err := time.ParseDuration(getEnv("PYROSCOPE_UPLOAD_RATE", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PYROSCOPE_UPLOAD_RATE: %w", err)
	}
	if pyroscopeUploadRate <= 0 {
		return Config{}, fmt.Errorf("PYROSCOPE_UPLOAD_RATE must be > 0")
	}

	accountTimeout, err := time.ParseDuration(getEnv("ACCOUNT_TIMEOUT", "3s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse ACCOUNT_TIMEOUT: %w", err)
	}
	accountCacheTTL, err := time.ParseDuration(getEnv("ACCOUNT_CACHE_TTL", "30s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse ACCOUNT_CACHE_TTL: %w", err)
	}
	if accountCacheTTL <= 0 {
		return Config{}, fmt.Errorf("ACCOUNT_CACHE_TTL must be > 0")
	}
	accountCircuitEnabled, err := strconv.ParseBool(getEnv("ACCOUNT_CIRCUIT_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse ACCOUNT_CIRCUIT_ENABLED: %w", err)
	}
	accountCircuitFailureCount, err := getEnvAsInt("ACCOUNT_CIRCUIT_FAILURE_COUNT", 5)
	if err != nil {
		return Config{}, fmt.Errorf("parse ACCOUNT_CIRCUIT_FAILURE_COUNT: %w", err)
	}
	if accountCircuitFailureCount < 1 {
		return Config{}, fmt.Errorf("ACCOUNT_CIRCUIT_FAILURE_COUNT must be >= 1")
	}
	accountCircuitOpenTimeout, err := time.ParseDuration(getEnv("ACCOUNT_CIRCUIT_OPEN_TIMEOUT", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse ACCOUNT_CIRCUIT_OPEN_TIMEOUT: %w", err)
	}
	if accountCircuitOpenTimeout <= 0 {
		return Config{}, fmt.Errorf("ACCOUNT_CIRCUIT_OPEN_TIMEOUT must be > 0")
	}
	accountCircuitHalfOpenMaxReq, err := getEnvAsInt("ACCOUNT_CIRCUIT_HALF_OPEN_MAX_REQ", 2)
	if err != nil {
		return Config{}, fmt.Errorf("parse ACCOUNT_CIRCUIT_HALF_OPEN_MAX_REQ: %w", err)
	}
	if accountCircuitHalfOpenMaxReq < 1 {
		return Config{}, fmt.Errorf("ACCOUNT_CIRCUIT_HALF_OPEN_MAX_REQ must be >= 1")
	}

	webhookEnabled, err := strconv.ParseBool(getEnv("WEBHOOK_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse WEBHOOK_ENABLED: %w", err)
	}
	webhookBaseURL := strings.TrimSpace(getEnv("WEBHOOK_BASE_URL", ""))
	if webhookEnabled && webhookBaseURL == "" {
		return Config{}, fmt.Errorf("WEBHOOK_BASE_URL is required when WEBHOOK_ENABLED=true")
	}
	webhookTimeout, err := time.ParseDuration(getEnv("WEBHOOK_TIMEOUT", "5s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse WEBHOOK_TIMEOUT: %w", err)
	}
	if webhookTimeout <= 0 {
		return Config{}, fmt.Errorf("WEBHOOK_TIMEOUT must be > 0")
	}
	webhookMaxRetries, err := getEnvAsInt("WEBHOOK_MAX_RETRIES", 3)
	if err != nil {
		return Config{}, fmt.Errorf("parse WEBHOOK_MAX_RETRIES: %w", err)
	}
	if webhookMaxRetries < 0 {
		return Config{}, fmt.Errorf("WEBHOOK_MAX_RETRIES must be >= 0")
	}
	webhookCircuitEnabled, err := strconv.ParseBool(getEnv("WEBHOOK_CIRCUIT_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse WEBHOOK_CIRCUIT_ENABLED: %w", err)
	}
	webhookCircuitFailureCount, err := getEnvAsInt("WEBHOOK_CIRCUIT_FAILURE_COUNT", 5)
	if err != nil {
		return Config{}, fmt.Errorf("parse WEBHOOK_CIRCUIT_FAILURE_COUNT: %w", err)
	}
	if webhookCircuitFailureCount < 1 {
		return Config{}, fmt.Errorf("WEBHOOK_CIRCUIT_FAILURE_COUNT must be >= 1")
	}
	webhookCircuitOpenTimeout, err := time.ParseDuration(getEnv("WEBHOOK_CIRCUIT_OPEN_TIMEOUT", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse WEBHOOK_CIRCUIT_OPEN_TIMEOUT: %w", err)
	}
	if webhookCircuitOpenTimeout <= 0 {
		return Config{}, fmt.Errorf("WEBHOOK_CIRCUIT_OPEN_TIMEOUT must be > 0")
	}
	webhookCircuitHalfOpenMaxReq, err := getEnvAsInt("WEBHOOK_CIRCUIT_HALF_OPEN_MAX_REQ", 2)
	if err != nil {
		return Config{}, fmt.Errorf("parse WEBHOOK_CIRCUIT_HALF_OPEN_MAX_REQ: %w", err)
	}
	if webhookCircuitHalfOpenMaxReq < 1 {
		return Config{}, fmt.Errorf("WEBHOOK_CIRCUIT_HALF_OPEN_MAX_REQ must be >= 1")
	}

	sweepEnabled, err := strconv.ParseBool(getEnv("SWEEP_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse SWEEP_ENABLED: %w", err)
	}
	sweepInterval, err := time.ParseDuration(getEnv("SWEEP_INTERVAL", "1m"))
	if err != nil {
		return Config{}, fmt.Errorf("parse SWEEP_INTERVAL: %w", err)
	}
	if sweepInterval <= 0 {
		return Config{}, fmt.Errorf("SWEEP_INTERVAL must be > 0")
	}
	sweepWorkers, err := getEnvAsInt("SWEEP_WORKERS", 4)
	if err != nil {
		return Config{}, fmt.Errorf("parse SWEEP_WORKERS: %w", err)
	}
	if sweepWorkers < 1 {
		return Config{}, fmt.Errorf("SWEEP_WORKERS must be >= 1")
	}

	readTimeout, err := time.ParseDuration(getEnv("APP_READ_TIMEOUT", "10s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse APP_READ_TIMEOUT: %w", err)
	}
	writeTimeout, err := time.ParseDuration(getEnv("APP_WRITE_TIMEOUT", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse APP_WRITE_TIMEOUT: %w", err)
	}

	dbDisablePreparedBinary, err := strconv.ParseBool(getEnv("DB_DISABLE_PREPARED_BINARY_RESULT", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse DB_DISABLE_PREPARED_BINARY_RESULT: %w", err)
	}

	cfg := Config{
		AppEnv:                       appEnv,
		ServiceName:                  getEnv("APP_SERVICE_NAME", "roster-engine-api"),
		ServiceVersion:               getEnv("APP_SERVICE_VERSION", "dev"),
		HTTPAddr:                     getEnv("APP_HTTP_ADDR", ":8080"),
		DBURL:                        strings.TrimSpace(getEnv("DB_URL", "")),
		DBDisablePreparedBinary:      dbDisablePreparedBinary,
		SeedDemoData:                 seedDemoData,
		CORSAllowedOrigins:           splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		ReadTimeout:                  readTimeout,
		WriteTimeout:                 writeTimeout,
		PprofEnabled:                 pprofEnabled,
		PprofAddr:                    pprofAddr,
		AccountBaseURL:               getEnv("ACCOUNT_BASE_URL", "http://localhost:8081"),
		AccountIntrospectPath:        getEnv("ACCOUNT_INTROSPECT_PATH", "/v1/auth/introspect"),
		AccountTimeout:               accountTimeout,
		AccountCacheTTL:              accountCacheTTL,
		AccountCircuitEnabled:        accountCircuitEnabled,
		AccountCircuitFailureCount:   accountCircuitFailureCount,
		AccountCircuitOpenTimeout:    accountCircuitOpenTimeout,
		AccountCircuitHalfOpenMaxReq: accountCircuitHalfOpenMaxReq,
		WebhookEnabled:               webhookEnabled,
		WebhookBaseURL:               webhookBaseURL,
		WebhookPath:                  getEnv("WEBHOOK_PATH", "/v1/events"),
		WebhookToken:                 strings.TrimSpace(getEnv("WEBHOOK_TOKEN", "")),
		WebhookTimeout:               webhookTimeout,
		WebhookMaxRetries:            webhookMaxRetries,
		WebhookCircuitEnabled:        webhookCircuitEnabled,
		WebhookCircuitFailureCount:   webhookCircuitFailureCount,
		WebhookCircuitOpenTimeout:    webhookCircuitOpenTimeout,
		WebhookCircuitHalfOpenMaxReq: webhookCircuitHalfOpenMaxReq,
		UptraceEnabled:               uptraceEnabled,
		UptraceDSN:                   uptraceDSN,
		PyroscopeEnabled:             pyroscopeEnabled,
		PyroscopeServerAddress:       pyroscopeServerAddress,
		PyroscopeAuthToken:           strings.TrimSpace(getEnv("PYROSCOPE_AUTH_TOKEN", "")),
		PyroscopeBasicAuthUser:       strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_USER", "")),
		PyroscopeBasicAuthPassword:   strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_PASSWORD", "")),
		PyroscopeUploadRate:          pyroscopeUploadRate,
		InternalJobToken:             strings.TrimSpace(getEnv("INTERNAL_JOB_TOKEN", "")),
		SweepEnabled:                 sweepEnabled,
		SweepInterval:                sweepInterval,
		SweepWorkers:                 sweepWorkers,
		LogLevel:                     parseLogLevel(getEnv("APP_LOG_LEVEL", "info")),
	}
	cfg.PyroscopeAppName = strings.TrimSpace(getEnv("PYROSCOPE_APP_NAME", cfg.ServiceName))
	if cfg.PyroscopeEnabled && cfg.PyroscopeAppName == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_APP_NAME cannot be empty when PYROSCOPE_ENABLED=true")
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		return Config{}, fmt.Errorf("CORS_ALLOWED_ORIGINS cannot be empty")
	}
	if cfg.AppEnv == EnvProd && cfg.InternalJobToken == "" {
		return Config{}, fmt.Errorf("INTERNAL_JOB_TOKEN is required when APP_ENV=prod")
	}

	return cfg, nil
}

func parseLogLevel(v string) logging.Level {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "debug":
		return logging.LevelDebug
	case "warn", "warning":
		return logging.LevelWarn
	case "error":
		return logging.LevelError
	default:
		return logging.LevelInfo
	}
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return fallback
	}

	return value
}

func getEnvAsInt(key string, fallback int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}

	out, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}

	return out, nil
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		item := strings.TrimSpace(part)
		if item == "" {
			continue
		}
		out = append(out, item)
	}

	return out
}

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

func parseAppEnv(v string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(v))
	switch value {
	case EnvDev, EnvStage, EnvProd:
		return value, nil
	default:
		return "", fmt.Errorf("invalid APP_ENV %q: valid values are %s, %s, %s", v, EnvDev, EnvStage, EnvProd)
	}
}
