// Package config loads application settings from environment variables,
// applies defaults, and validates the result: server timeouts, logging,
// the database path, the reasoning-model client, sweep policy constants,
// rate limiting, and observability.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// CORSConfig holds the allowed browser origins; empty means allow all.
type CORSConfig struct {
	AllowedOrigins []string
}

// SecurityConfig controls the security response headers.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// OTELConfig configures the OTLP trace exporter.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// GeminiConfig defines the reasoning-model client settings.
type GeminiConfig struct {
	APIKey  string        // GEMINI_API_KEY
	Model   string        // GEMINI_MODEL
	Timeout time.Duration // GEMINI_TIMEOUT (bounded wait per ranking call)
}

// SweepConfig defines the auto-match sweep policy constants.
type SweepConfig struct {
	RateLimitCap     int           // SWEEP_RATE_CAP calls per window per actor
	RateLimitWindow  time.Duration // SWEEP_RATE_WINDOW
	ScoreThreshold   float64       // SWEEP_SCORE_THRESHOLD on the 0-100 scale
	PerRequestTopN   int           // SWEEP_TOP_N ranked candidates per request
	MaxMatchesPerRun int           // SWEEP_MAX_MATCHES global cap per run
}

// KafkaConfig defines the notification publishing settings.
type KafkaConfig struct {
	Enabled bool   // KAFKA_ENABLED
	Broker  string // KAFKA_BROKER
	Topic   string // KAFKA_TOPIC
}

// Config is the full runtime configuration, grouped by concern.
type Config struct {
	// Server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // e.g. 20s
	IdleTimeout       time.Duration // e.g. 60s
	MaxHeaderBytes    int           // bytes
	GinMode           string        // debug|release|test

	// Logging
	LogLevel    string // debug|info|warn|error|fatal|panic
	LogPretty   bool   // pretty console logs in dev
	APIBasePath string // base path for API routes

	// App
	DBPath           string // SQLite path
	JWTSecret        string // signing secret for the auth service
	InteractiveTopN  int    // suggestion cap for the interactive path

	// Collaborators
	Gemini GeminiConfig
	Sweep  SweepConfig
	Kafka  KafkaConfig

	// Edge rate limiting (HTTP layer; distinct from the sweep's
	// per-actor sliding window)
	RateRPS   float64 // tokens per second (>= 0)
	RateBurst int     // bucket size (>= 1)

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

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

// Load builds a Config from the environment. Values are normalized
// (trimmed, lowercased where enumerated) before validation, so "Warning"
// and "warn " both land on the same log level.
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

		// Logging
		LogLevel:    strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty:   getbool("LOG_PRETTY", false),
		APIBasePath: normalizeBasePath(getenv("API_BASE_PATH", "/api/v1")),

		// App
		DBPath:          getenv("DB_PATH", "app.db"),
		JWTSecret:       getenv("JWT_SECRET", ""),
		InteractiveTopN: getint("MATCH_TOP_N", 5),

		// Collaborators
		Gemini: GeminiConfig{
			APIKey:  getenv("GEMINI_API_KEY", ""),
			Model:   getenv("GEMINI_MODEL", "gemini-2.5-flash"),
			Timeout: getdur("GEMINI_TIMEOUT", 30*time.Second),
		},
		Sweep: SweepConfig{
			RateLimitCap:     getint("SWEEP_RATE_CAP", 5),
			RateLimitWindow:  getdur("SWEEP_RATE_WINDOW", time.Hour),
			ScoreThreshold:   getfloat("SWEEP_SCORE_THRESHOLD", 70),
			PerRequestTopN:   getint("SWEEP_TOP_N", 3),
			MaxMatchesPerRun: getint("SWEEP_MAX_MATCHES", 20),
		},
		Kafka: KafkaConfig{
			Enabled: getbool("KAFKA_ENABLED", false),
			Broker:  getenv("KAFKA_BROKER", "localhost:9092"),
			Topic:   getenv("KAFKA_TOPIC", "match.notifications"),
		},

		// Edge rate limiting
		RateRPS:   getfloat("RATE_RPS", 5.0),
		RateBurst: getint("RATE_BURST", 10),

		// Web protection
		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
		},
		Security: SecurityConfig{
			EnableHSTS: getbool("ENABLE_HSTS", false),
			HSTSMaxAge: getdur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		// Observability (OpenTelemetry)
		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "tech-part-finder"),
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
	if strings.TrimSpace(cfg.DBPath) == "" {
		return cfg, errors.New("DB_PATH must not be empty")
	}
	if cfg.InteractiveTopN < 1 {
		return cfg, errors.New("MATCH_TOP_N must be >= 1")
	}
	if cfg.Gemini.Timeout <= 0 {
		return cfg, errors.New("GEMINI_TIMEOUT must be > 0")
	}
	if cfg.Sweep.RateLimitCap < 1 {
		return cfg, errors.New("SWEEP_RATE_CAP must be >= 1")
	}
	if cfg.Sweep.RateLimitWindow <= 0 {
		return cfg, errors.New("SWEEP_RATE_WINDOW must be > 0")
	}
	if cfg.Sweep.ScoreThreshold < 0 || cfg.Sweep.ScoreThreshold > 100 {
		return cfg, errors.New("SWEEP_SCORE_THRESHOLD must be in [0,100]")
	}
	if cfg.Sweep.PerRequestTopN < 1 {
		return cfg, errors.New("SWEEP_TOP_N must be >= 1")
	}
	if cfg.Sweep.MaxMatchesPerRun < 1 {
		return cfg, errors.New("SWEEP_MAX_MATCHES must be >= 1")
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
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}

	return cfg, nil
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
	if v, ok := os.LookupEnv(k); ok && v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
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
