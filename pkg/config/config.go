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

	Database     DatabaseConfig
	Redis        RedisConfig
	JWT          JWTConfig
	CORS         CORSConfig
	Log          LogConfig
	Scheduler    SchedulerConfig
	ConflictScan ConflictScanConfig
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
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// SchedulerConfig carries the hard scheduling rules applied when placing
// sessions on a provider's weekly grid.
type SchedulerConfig struct {
	DayStart              string
	DayEnd                string
	SlotGranularityMins   int
	MaxDailyMinutes       int
	MaxConsecutiveMinutes int
	SlotCapacity          int
	RejectionSampleSize   int
}

// ConflictScanConfig tunes the background queue that re-checks sessions
// after bell schedules or special activities change.
type ConflictScanConfig struct {
	Workers    int
	BufferSize int
	MaxRetries int
	RetryDelay time.Duration
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
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret: v.GetString("JWT_SECRET"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Scheduler = SchedulerConfig{
		DayStart:              v.GetString("SCHEDULER_DAY_START"),
		DayEnd:                v.GetString("SCHEDULER_DAY_END"),
		SlotGranularityMins:   v.GetInt("SCHEDULER_SLOT_GRANULARITY_MINUTES"),
		MaxDailyMinutes:       v.GetInt("SCHEDULER_MAX_DAILY_MINUTES"),
		MaxConsecutiveMinutes: v.GetInt("SCHEDULER_MAX_CONSECUTIVE_MINUTES"),
		SlotCapacity:          v.GetInt("SCHEDULER_SLOT_CAPACITY"),
		RejectionSampleSize:   v.GetInt("SCHEDULER_REJECTION_SAMPLE_SIZE"),
	}

	cfg.ConflictScan = ConflictScanConfig{
		Workers:    v.GetInt("CONFLICT_SCAN_WORKERS"),
		BufferSize: v.GetInt("CONFLICT_SCAN_BUFFER_SIZE"),
		MaxRetries: v.GetInt("CONFLICT_SCAN_MAX_RETRIES"),
		RetryDelay: parseDuration(v.GetString("CONFLICT_SCAN_RETRY_DELAY"), 5*time.Second),
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
	v.SetDefault("DB_NAME", "caseload")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("SCHEDULER_DAY_START", "08:00")
	v.SetDefault("SCHEDULER_DAY_END", "15:00")
	v.SetDefault("SCHEDULER_SLOT_GRANULARITY_MINUTES", 30)
	v.SetDefault("SCHEDULER_MAX_DAILY_MINUTES", 120)
	v.SetDefault("SCHEDULER_MAX_CONSECUTIVE_MINUTES", 60)
	v.SetDefault("SCHEDULER_SLOT_CAPACITY", 4)
	v.SetDefault("SCHEDULER_REJECTION_SAMPLE_SIZE", 5)

	v.SetDefault("CONFLICT_SCAN_WORKERS", 1)
	v.SetDefault("CONFLICT_SCAN_BUFFER_SIZE", 16)
	v.SetDefault("CONFLICT_SCAN_MAX_RETRIES", 3)
	v.SetDefault("CONFLICT_SCAN_RETRY_DELAY", "5s")
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
