package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database DatabaseConfig
	Redis    RedisConfig
	CORS     CORSConfig
	Log      LogConfig
	Reports  ReportsConfig
	Alerts   AlertsConfig
	Answer   AnswerConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// ReportsConfig tunes report generation and caching.
type ReportsConfig struct {
	CacheTTL      time.Duration
	TrendFlatBand float64
	DefaultLimit  int
	MaxLimit      int
}

// AlertsConfig governs background threshold evaluation.
type AlertsConfig struct {
	EvalWorkers int
	EvalRetries int
	RollingDays int
	QueueBuffer int
	RetryDelay  time.Duration
}

// AnswerConfig configures the outbound query-answering service client.
type AnswerConfig struct {
	BaseURL     string
	Timeout     time.Duration
	MaxAttempts int
	BackoffBase time.Duration
	BackoffMax  time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Enabled:  v.GetBool("REDIS_ENABLED"),
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Reports = ReportsConfig{
		CacheTTL:      parseDuration(v.GetString("REPORTS_CACHE_TTL"), 0),
		TrendFlatBand: v.GetFloat64("REPORTS_TREND_FLAT_BAND"),
		DefaultLimit:  v.GetInt("REPORTS_DEFAULT_LIMIT"),
		MaxLimit:      v.GetInt("REPORTS_MAX_LIMIT"),
	}

	cfg.Alerts = AlertsConfig{
		EvalWorkers: v.GetInt("ALERTS_EVAL_WORKERS"),
		EvalRetries: v.GetInt("ALERTS_EVAL_RETRIES"),
		RollingDays: v.GetInt("ALERTS_ROLLING_DAYS"),
		QueueBuffer: v.GetInt("ALERTS_QUEUE_BUFFER"),
		RetryDelay:  parseDuration(v.GetString("ALERTS_RETRY_DELAY"), time.Second),
	}

	cfg.Answer = AnswerConfig{
		BaseURL:     v.GetString("ANSWER_BASE_URL"),
		Timeout:     parseDuration(v.GetString("ANSWER_TIMEOUT"), 15*time.Second),
		MaxAttempts: v.GetInt("ANSWER_MAX_ATTEMPTS"),
		BackoffBase: parseDuration(v.GetString("ANSWER_BACKOFF_BASE"), 500*time.Millisecond),
		BackoffMax:  parseDuration(v.GetString("ANSWER_BACKOFF_MAX"), 10*time.Second),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "attendance_insight")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_ENABLED", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("REPORTS_CACHE_TTL", "0")
	v.SetDefault("REPORTS_TREND_FLAT_BAND", 0.5)
	v.SetDefault("REPORTS_DEFAULT_LIMIT", 50)
	v.SetDefault("REPORTS_MAX_LIMIT", 200)

	v.SetDefault("ALERTS_EVAL_WORKERS", 1)
	v.SetDefault("ALERTS_EVAL_RETRIES", 3)
	v.SetDefault("ALERTS_ROLLING_DAYS", 30)
	v.SetDefault("ALERTS_QUEUE_BUFFER", 16)
	v.SetDefault("ALERTS_RETRY_DELAY", "1s")

	v.SetDefault("ANSWER_BASE_URL", "")
	v.SetDefault("ANSWER_TIMEOUT", "15s")
	v.SetDefault("ANSWER_MAX_ATTEMPTS", 3)
	v.SetDefault("ANSWER_BACKOFF_BASE", "500ms")
	v.SetDefault("ANSWER_BACKOFF_MAX", "10s")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
