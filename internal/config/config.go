// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes server timeouts,
// logging, storage, the token quota, the speech provider, and observability.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// Runtime environments (APP_ENV).
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTest        = "test"
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
	ServiceName string  // OTEL_SERVICE_NAME (e.g. "growth-tools-backend")
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// DBConfig selects the persistent store.
type DBConfig struct {
	Driver string // DB_DRIVER: sqlite|postgres
	Path   string // DB_PATH (sqlite)
	URL    string // DATABASE_URL (postgres)
}

// QuotaConfig configures the global token budget.
type QuotaConfig struct {
	Limit                int64         // TOKEN_LIMIT
	Window               time.Duration // QUOTA_WINDOW
	TextTokensPer1KChars int64         // TEXT_TOKENS_PER_1K_CHARS
	AudioTokensPerMinute int64         // AUDIO_TOKENS_PER_MINUTE
	Cache                string        // QUOTA_CACHE: memory|redis
	CacheTTL             time.Duration // QUOTA_CACHE_TTL (memory cache only, 0 = until window end)
}

// RedisConfig locates the shared quota cache.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// VoiceProfileConfig tunes provider calls for one demo surface.
type VoiceProfileConfig struct {
	Voice    string
	Language string
	Prompt   string
}

// ProviderConfig configures the hosted speech/transcription API.
type ProviderConfig struct {
	APIKey             string // OPENAI_API_KEY; empty leaves the voice routes unconfigured
	BaseURL            string // OPENAI_BASE_URL
	SpeechModel        string // OPENAI_SPEECH_MODEL
	TranscriptionModel string // OPENAI_TRANSCRIPTION_MODEL
	DefaultVoice       string // OPENAI_VOICE

	GrowthTools     VoiceProfileConfig // GROWTH_TOOLS_*
	NeedsAssessment VoiceProfileConfig // NEEDS_ASSESSMENT_*

	MaxSpeechChars int   // MAX_SPEECH_CHARS
	MaxAudioBytes  int64 // MAX_AUDIO_BYTES
}

// LogFileConfig enables a rotating log file next to stdout.
type LogFileConfig struct {
	Path       string // LOG_FILE; empty disables
	MaxSizeMB  int    // LOG_MAX_SIZE_MB
	MaxBackups int    // LOG_MAX_BACKUPS
	MaxAgeDays int    // LOG_MAX_AGE_DAYS
	Compress   bool   // LOG_COMPRESS
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // e.g. 60s (audio streams)
	IdleTimeout       time.Duration // e.g. 60s
	MaxHeaderBytes    int           // bytes
	GinMode           string        // debug|release|test
	AppEnv            string        // development|production|test

	// Logging / Docs
	LogLevel       string // debug|info|warn|error|fatal|panic
	LogPretty      bool   // pretty console logs in dev
	LogFile        LogFileConfig
	SwaggerEnabled bool   // enable Swagger UI route
	APIBasePath    string // base path for API routes

	// Storage
	DB        DBConfig
	VoteStore string // VOTE_STORE: memory|db

	// Quota
	Quota QuotaConfig
	Redis RedisConfig

	// Speech provider
	Provider ProviderConfig

	// Rate limiting
	RateRPS   float64 // tokens per second (>= 0)
	RateBurst int     // bucket size (>= 1)

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Idempotency
	IdempotencyTTL time.Duration // how long a given Idempotency-Key is valid

	// Observability
	OTEL OTELConfig
}

// IsDevelopment reports whether APP_ENV is development.
func (c Config) IsDevelopment() bool { return c.AppEnv == EnvDevelopment }

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
		WriteTimeout:      getdur("WRITE_TIMEOUT", 60*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),
		AppEnv:            strings.ToLower(getenv("APP_ENV", EnvProduction)),

		// Logging / Docs
		LogLevel:  strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty: getbool("LOG_PRETTY", false),
		LogFile: LogFileConfig{
			Path:       getenv("LOG_FILE", ""),
			MaxSizeMB:  getint("LOG_MAX_SIZE_MB", 100),
			MaxBackups: getint("LOG_MAX_BACKUPS", 3),
			MaxAgeDays: getint("LOG_MAX_AGE_DAYS", 28),
			Compress:   getbool("LOG_COMPRESS", true),
		},
		SwaggerEnabled: getbool("SWAGGER_ENABLED", false),
		APIBasePath:    normalizeBasePath(getenv("API_BASE_PATH", "/api")),

		// Storage
		DB: DBConfig{
			Driver: strings.ToLower(getenv("DB_DRIVER", "sqlite")),
			Path:   getenv("DB_PATH", "app.db"),
			URL:    getenv("DATABASE_URL", ""),
		},
		VoteStore: strings.ToLower(getenv("VOTE_STORE", "memory")),

		// Quota
		Quota: QuotaConfig{
			Limit:                getint64("TOKEN_LIMIT", 1_000_000),
			Window:               getdur("QUOTA_WINDOW", 24*time.Hour),
			TextTokensPer1KChars: getint64("TEXT_TOKENS_PER_1K_CHARS", 100_000),
			AudioTokensPerMinute: getint64("AUDIO_TOKENS_PER_MINUTE", 40_000),
			Cache:                strings.ToLower(getenv("QUOTA_CACHE", "memory")),
			CacheTTL:             getdur("QUOTA_CACHE_TTL", 0),
		},
		Redis: RedisConfig{
			Addr:     getenv("REDIS_ADDR", ""),
			Password: getenv("REDIS_PASSWORD", ""),
			DB:       getint("REDIS_DB", 0),
		},

		// Speech provider
		Provider: ProviderConfig{
			APIKey:             getenv("OPENAI_API_KEY", ""),
			BaseURL:            getenv("OPENAI_BASE_URL", ""),
			SpeechModel:        getenv("OPENAI_SPEECH_MODEL", "tts-1"),
			TranscriptionModel: getenv("OPENAI_TRANSCRIPTION_MODEL", "whisper-1"),
			DefaultVoice:       getenv("OPENAI_VOICE", "alloy"),
			GrowthTools: VoiceProfileConfig{
				Voice:    getenv("GROWTH_TOOLS_VOICE", "alloy"),
				Language: getenv("GROWTH_TOOLS_LANGUAGE", "en"),
				Prompt:   getenv("GROWTH_TOOLS_PROMPT", ""),
			},
			NeedsAssessment: VoiceProfileConfig{
				Voice:    getenv("NEEDS_ASSESSMENT_VOICE", "nova"),
				Language: getenv("NEEDS_ASSESSMENT_LANGUAGE", "en"),
				Prompt:   getenv("NEEDS_ASSESSMENT_PROMPT", "A small business owner describes their goals, challenges and budget."),
			},
			MaxSpeechChars: getint("MAX_SPEECH_CHARS", 4096),
			MaxAudioBytes:  getint64("MAX_AUDIO_BYTES", 25<<20),
		},

		// Rate limiting
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

		// Idempotency
		IdempotencyTTL: getdur("IDEMPOTENCY_TTL", 24*time.Hour),

		// Observability (OpenTelemetry)
		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "growth-tools-backend"),
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
	switch cfg.AppEnv {
	case "dev":
		cfg.AppEnv = EnvDevelopment
	case "prod":
		cfg.AppEnv = EnvProduction
	}

	// --- validation ---
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	switch cfg.AppEnv {
	case EnvDevelopment, EnvProduction, EnvTest:
	default:
		return cfg, errors.New("APP_ENV must be one of: development, production, test")
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
	switch cfg.DB.Driver {
	case "sqlite":
		if strings.TrimSpace(cfg.DB.Path) == "" {
			return cfg, errors.New("DB_PATH must not be empty")
		}
	case "postgres":
		if strings.TrimSpace(cfg.DB.URL) == "" {
			return cfg, errors.New("DATABASE_URL is required when DB_DRIVER=postgres")
		}
	default:
		return cfg, errors.New("DB_DRIVER must be sqlite or postgres")
	}
	switch cfg.VoteStore {
	case "memory", "db":
	default:
		return cfg, errors.New("VOTE_STORE must be memory or db")
	}
	if cfg.Quota.Limit <= 0 {
		return cfg, errors.New("TOKEN_LIMIT must be > 0")
	}
	if cfg.Quota.Window <= 0 {
		return cfg, errors.New("QUOTA_WINDOW must be > 0")
	}
	if cfg.Quota.TextTokensPer1KChars <= 0 || cfg.Quota.AudioTokensPerMinute <= 0 {
		return cfg, errors.New("token conversion ratios must be > 0")
	}
	if cfg.Quota.CacheTTL < 0 {
		return cfg, errors.New("QUOTA_CACHE_TTL must be >= 0")
	}
	switch cfg.Quota.Cache {
	case "memory":
	case "redis":
		if strings.TrimSpace(cfg.Redis.Addr) == "" {
			return cfg, errors.New("REDIS_ADDR is required when QUOTA_CACHE=redis")
		}
	default:
		return cfg, errors.New("QUOTA_CACHE must be memory or redis")
	}
	if cfg.Provider.MaxSpeechChars < 0 {
		return cfg, errors.New("MAX_SPEECH_CHARS must be >= 0")
	}
	if cfg.Provider.MaxAudioBytes <= 0 {
		return cfg, errors.New("MAX_AUDIO_BYTES must be > 0")
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
	if cfg.LogFile.Path != "" && cfg.LogFile.MaxSizeMB <= 0 {
		return cfg, errors.New("LOG_MAX_SIZE_MB must be > 0")
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

// getint64 also accepts underscores as digit separators ("1_000_000").
func getint64(k string, def int64) int64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.ParseInt(strings.ReplaceAll(strings.TrimSpace(v), "_", ""), 10, 64); err == nil {
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
