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
	JWT      JWTConfig
	CORS     CORSConfig
	Log      LogConfig
	Engine   EngineConfig
	Worklist WorklistConfig
	Nudges   NudgeConfig
	Exports  ExportConfig
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
	Secret            string
	Expiration        time.Duration
	RefreshExpiration time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// EngineConfig holds the tunables of the lead lifecycle and retention rules.
type EngineConfig struct {
	RenewalWindowDays   int
	NurtureReengageDays int
	UpcomingWindowDays  int
	AbsenceStreakWindow int
	ReviewSlotHour      int
	MilestoneLookback   int
	DefaultMilestoneSet string
	MaxNudgesPerLead    int
}

// WorklistConfig governs caching of the categorised daily worklist.
type WorklistConfig struct {
	CacheEnabled bool
	CacheTTL     time.Duration
}

// NudgeConfig tunes the retention nudge dispatch queue.
type NudgeConfig struct {
	Enabled    bool
	Workers    int
	BufferSize int
	MaxRetries int
	RetryDelay time.Duration
}

// ExportConfig toggles worklist export endpoints.
type ExportConfig struct {
	Enabled bool
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
		Secret:            v.GetString("JWT_SECRET"),
		Expiration:        parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
		RefreshExpiration: parseDuration(v.GetString("REFRESH_TOKEN_EXPIRATION"), 7*24*time.Hour),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Engine = EngineConfig{
		RenewalWindowDays:   v.GetInt("ENGINE_RENEWAL_WINDOW_DAYS"),
		NurtureReengageDays: v.GetInt("ENGINE_NURTURE_REENGAGE_DAYS"),
		UpcomingWindowDays:  v.GetInt("ENGINE_UPCOMING_WINDOW_DAYS"),
		AbsenceStreakWindow: v.GetInt("ENGINE_ABSENCE_STREAK_WINDOW"),
		ReviewSlotHour:      v.GetInt("ENGINE_REVIEW_SLOT_HOUR"),
		MilestoneLookback:   v.GetInt("ENGINE_MILESTONE_LOOKBACK_DAYS"),
		DefaultMilestoneSet: v.GetString("ENGINE_MILESTONE_SET"),
		MaxNudgesPerLead:    v.GetInt("ENGINE_MAX_NUDGES_PER_LEAD"),
	}

	cfg.Worklist = WorklistConfig{
		CacheEnabled: v.GetBool("WORKLIST_CACHE_ENABLED"),
		CacheTTL:     parseDuration(v.GetString("WORKLIST_CACHE_TTL"), 2*time.Minute),
	}

	cfg.Nudges = NudgeConfig{
		Enabled:    v.GetBool("ENABLE_NUDGES"),
		Workers:    v.GetInt("NUDGE_WORKERS"),
		BufferSize: v.GetInt("NUDGE_BUFFER_SIZE"),
		MaxRetries: v.GetInt("NUDGE_MAX_RETRIES"),
		RetryDelay: parseDuration(v.GetString("NUDGE_RETRY_DELAY"), 30*time.Second),
	}

	cfg.Exports = ExportConfig{
		Enabled: v.GetBool("ENABLE_EXPORTS"),
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
	v.SetDefault("DB_NAME", "academy_crm")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")
	v.SetDefault("REFRESH_TOKEN_EXPIRATION", "168h")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("ENGINE_RENEWAL_WINDOW_DAYS", 7)
	v.SetDefault("ENGINE_NURTURE_REENGAGE_DAYS", 5)
	v.SetDefault("ENGINE_UPCOMING_WINDOW_DAYS", 7)
	v.SetDefault("ENGINE_ABSENCE_STREAK_WINDOW", 3)
	v.SetDefault("ENGINE_REVIEW_SLOT_HOUR", 10)
	v.SetDefault("ENGINE_MILESTONE_LOOKBACK_DAYS", 7)
	v.SetDefault("ENGINE_MILESTONE_SET", "web")
	v.SetDefault("ENGINE_MAX_NUDGES_PER_LEAD", 3)

	v.SetDefault("WORKLIST_CACHE_ENABLED", false)
	v.SetDefault("WORKLIST_CACHE_TTL", "2m")

	v.SetDefault("ENABLE_NUDGES", false)
	v.SetDefault("NUDGE_WORKERS", 1)
	v.SetDefault("NUDGE_BUFFER_SIZE", 16)
	v.SetDefault("NUDGE_MAX_RETRIES", 3)
	v.SetDefault("NUDGE_RETRY_DELAY", "30s")

	v.SetDefault("ENABLE_EXPORTS", false)
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
