// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes server timeouts,
// logging, record store selection, notification delivery, rate limiting,
// idempotency, and observability settings.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/tbourn/dealership-backend/internal/sysutil"
)

// Record store backends accepted by STORE_BACKEND.
const (
	BackendFile     = "file"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendS3       = "s3"
)

// Notification providers accepted by NOTIFY_PROVIDER.
const (
	NotifyLog  = "log"
	NotifySMTP = "smtp"
	NotifySES  = "ses"
)

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// AWSConfig holds the credentials and default region shared by the S3 store
// backend and the SES mail provider. Empty keys fall back to the default AWS
// credential chain.
type AWSConfig struct {
	Region          string // AWS_REGION
	AccessKeyID     string // AWS_ACCESS_KEY_ID
	SecretAccessKey string // AWS_SECRET_ACCESS_KEY
}

// StoreConfig selects and configures the record store backend. Exactly one
// backend is active for the lifetime of the process.
type StoreConfig struct {
	Backend     string // file|sqlite|postgres|s3
	DataDir     string // directory holding <collection>.json for the file backend
	DBPath      string // SQLite path for the sqlite backend
	DatabaseURL string // DSN for the postgres backend
	S3Bucket    string
	S3Prefix    string
}

// NotifyConfig configures outbound email notifications.
type NotifyConfig struct {
	Provider   string        // log|smtp|ses
	FromEmail  string        // NOTIFY_FROM
	FromName   string        // NOTIFY_FROM_NAME
	AdminEmail string        // inbox receiving contact-form notifications
	SiteName   string        // dealership name used in templates
	Timeout    time.Duration // upper bound for a single send

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string

	SESRegion string // defaults to AWS_REGION
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // e.g. 20s
	IdleTimeout       time.Duration // e.g. 60s
	MaxHeaderBytes    int           // bytes
	GinMode           string        // debug|release|test

	// Logging / Docs
	LogLevel       string // debug|info|warn|error|fatal|panic
	LogPretty      bool   // pretty console logs in dev
	SwaggerEnabled bool   // enable Swagger UI route
	APIBasePath    string // base path for API routes

	// Storage and delivery
	Store  StoreConfig
	Notify NotifyConfig
	AWS    AWSConfig

	// Admin search
	SearchThreshold float64  // minimum query coverage [0,1]
	SearchMinPrefix int      // shortest query token matched as a prefix; 0 disables
	SearchStopwords []string // words ignored in queries and records

	// Rate limiting (form submissions)
	RateRPS   float64 // tokens per second (>= 0)
	RateBurst int     // bucket size (>= 1)

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Idempotency
	IdempotencyTTL time.Duration // how long a given Idempotency-Key is replayed
	RedisURL       string        // optional replay store; empty falls back to the SQL store

	// Observability
	OTEL OTELConfig
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables,
// applies defaults, normalizes values, and validates the result.
func Load() (Config, error) {
	cfg := Config{
		// Server
		Port:              getenv("PORT", "8080"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 20*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		// Logging / Docs
		LogLevel:       strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty:      getbool("LOG_PRETTY", false),
		SwaggerEnabled: getbool("SWAGGER_ENABLED", false),
		APIBasePath:    normalizeBasePath(getenv("API_BASE_PATH", "/api")),

		Store: StoreConfig{
			Backend:     strings.ToLower(getenv("STORE_BACKEND", BackendFile)),
			DataDir:     getenv("DATA_DIR", "data"),
			DBPath:      getenv("DB_PATH", "dealership.db"),
			DatabaseURL: getenv("DATABASE_URL", ""),
			S3Bucket:    getenv("S3_BUCKET", ""),
			S3Prefix:    strings.Trim(getenv("S3_PREFIX", "collections"), "/"),
		},
		Notify: NotifyConfig{
			Provider:       strings.ToLower(getenv("NOTIFY_PROVIDER", NotifyLog)),
			FromEmail:      getenv("NOTIFY_FROM", "noreply@dealership.example"),
			FromName:       getenv("NOTIFY_FROM_NAME", "Dealership"),
			AdminEmail:     getenv("NOTIFY_ADMIN_EMAIL", "sales@dealership.example"),
			SiteName:       getenv("SITE_NAME", "Dealership"),
			Timeout:        getdur("NOTIFY_TIMEOUT", 5*time.Second),
			SMTPHost:       getenv("SMTP_HOST", "localhost"),
			SMTPPort:       getint("SMTP_PORT", 587),
			SMTPUsername:   getenv("SMTP_USERNAME", ""),
			SMTPPassword:   getenv("SMTP_PASSWORD", ""),
			SESRegion:      getenv("SES_REGION", getenv("AWS_REGION", "us-east-1")),
		},
		AWS: AWSConfig{
			Region:          getenv("AWS_REGION", "us-east-1"),
			AccessKeyID:     getenv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getenv("AWS_SECRET_ACCESS_KEY", ""),
		},

		SearchThreshold: getfloat("SEARCH_THRESHOLD", 0.5),
		SearchMinPrefix: getint("SEARCH_MIN_PREFIX", 3),
		SearchStopwords: splitCSV(getenv("SEARCH_STOPWORDS", "")),

		// Rate limiting
		RateRPS:   getfloat("RATE_RPS", 1.0),
		RateBurst: getint("RATE_BURST", 5),

		// Web protection
		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
		},
		Security: SecurityConfig{
			EnableHSTS: getbool("ENABLE_HSTS", false),
			HSTSMaxAge: getdur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		// Idempotency
		IdempotencyTTL: getdur("IDEMPOTENCY_TTL", 24*time.Hour),
		RedisURL:       getenv("REDIS_URL", ""),

		// Observability (OpenTelemetry)
		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "dealership-backend"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}

	// --- validation ---
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return cfg, errors.New("PORT must not be empty")
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 {
		return cfg, errors.New("timeouts must be positive durations")
	}
	if cfg.MaxHeaderBytes <= 0 {
		return cfg, errors.New("MAX_HEADER_BYTES must be > 0")
	}
	if err := cfg.Store.validate(); err != nil {
		return cfg, err
	}
	if err := cfg.Notify.validate(); err != nil {
		return cfg, err
	}
	if cfg.SearchThreshold < 0 || cfg.SearchThreshold > 1 {
		return cfg, errors.New("SEARCH_THRESHOLD must be between 0 and 1")
	}
	if cfg.SearchMinPrefix < 0 {
		return cfg, errors.New("SEARCH_MIN_PREFIX must be >= 0")
	}
	if cfg.RateRPS < 0 {
		return cfg, errors.New("RATE_RPS must be >= 0")
	}
	if cfg.RateBurst < 1 {
		return cfg, errors.New("RATE_BURST must be >= 1")
	}
	if cfg.Security.HSTSMaxAge < 0 {
		return cfg, errors.New("HSTS_MAX_AGE must be >= 0")
	}
	if cfg.IdempotencyTTL <= 0 {
		return cfg, errors.New("IDEMPOTENCY_TTL must be > 0")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}

	return cfg, nil
}

func (s StoreConfig) validate() error {
	switch s.Backend {
	case BackendFile:
		if strings.TrimSpace(s.DataDir) == "" {
			return errors.New("DATA_DIR must not be empty")
		}
	case BackendSQLite:
		if strings.TrimSpace(s.DBPath) == "" {
			return errors.New("DB_PATH must not be empty")
		}
	case BackendPostgres:
		if strings.TrimSpace(s.DatabaseURL) == "" {
			return errors.New("DATABASE_URL is required for the postgres backend")
		}
	case BackendS3:
		if strings.TrimSpace(s.S3Bucket) == "" {
			return errors.New("S3_BUCKET is required for the s3 backend")
		}
	default:
		return errors.New("STORE_BACKEND must be one of: file, sqlite, postgres, s3")
	}
	return nil
}

func (n NotifyConfig) validate() error {
	switch n.Provider {
	case NotifyLog, NotifySES:
	case NotifySMTP:
		if strings.TrimSpace(n.SMTPHost) == "" || n.SMTPPort <= 0 {
			return errors.New("SMTP_HOST and SMTP_PORT are required for the smtp provider")
		}
	default:
		return errors.New("NOTIFY_PROVIDER must be one of: log, smtp, ses")
	}
	if n.Timeout <= 0 {
		return errors.New("NOTIFY_TIMEOUT must be > 0")
	}
	return nil
}

// UsesSQL reports whether the configured backend is a gorm-managed database.
func (s StoreConfig) UsesSQL() bool {
	return s.Backend == BackendSQLite || s.Backend == BackendPostgres
}

// ---- helpers (no external deps) ----

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	if sysutil.IsTruthy(v) {
		return true
	}
	switch strings.ToLower(v) {
	case "0", "false", "no", "n", "off":
		return false
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// normalizeBasePath ensures leading '/' and strips trailing '/' (except root).
func normalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 && strings.HasSuffix(p, "/") {
		p = strings.TrimRight(p, "/")
	}
	return p
}
