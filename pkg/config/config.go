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

	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	CORS      CORSConfig
	Log       LogConfig
	Mailer    MailerConfig
	App       AppConfig
	Progress  ProgressConfig
	Reminders RemindersConfig
	Reports   ReportsConfig
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
	Secret     string
	Expiration time.Duration
	Issuer     string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// MailerConfig configures the outbound email provider.
type MailerConfig struct {
	APIBaseURL  string
	APIKey      string
	FromAddress string
	ReplyTo     string
	SendTimeout time.Duration
}

// AppConfig holds product-level settings shared across emails and links.
type AppConfig struct {
	BaseURL     string
	ProductName string
}

// ProgressConfig governs caching of the evaluation progress endpoint.
type ProgressConfig struct {
	CacheTTL time.Duration
}

// RemindersConfig gates the cron-driven reminder dispatcher.
type RemindersConfig struct {
	Enabled    bool
	CronSecret string
	Workers    int
}

// ReportsConfig tunes report delivery.
type ReportsConfig struct {
	MaxAdditionalRecipients int
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
		Secret:     v.GetString("JWT_SECRET"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
		Issuer:     v.GetString("JWT_ISSUER"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Mailer = MailerConfig{
		APIBaseURL:  v.GetString("RESEND_API_URL"),
		APIKey:      v.GetString("RESEND_API_KEY"),
		FromAddress: v.GetString("MAIL_FROM"),
		ReplyTo:     v.GetString("MAIL_REPLY_TO"),
		SendTimeout: parseDuration(v.GetString("MAIL_SEND_TIMEOUT"), 10*time.Second),
	}

	cfg.App = AppConfig{
		BaseURL:     v.GetString("APP_URL"),
		ProductName: v.GetString("APP_PRODUCT_NAME"),
	}

	cfg.Progress = ProgressConfig{
		CacheTTL: parseDuration(v.GetString("PROGRESS_CACHE_TTL"), 5*time.Minute),
	}

	cfg.Reminders = RemindersConfig{
		Enabled:    v.GetBool("ENABLE_REMINDERS"),
		CronSecret: v.GetString("CRON_SECRET"),
		Workers:    v.GetInt("REMINDER_WORKERS"),
	}

	cfg.Reports = ReportsConfig{
		MaxAdditionalRecipients: v.GetInt("REPORT_MAX_ADDITIONAL_RECIPIENTS"),
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
	v.SetDefault("DB_NAME", "evaluation_api")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")
	v.SetDefault("JWT_ISSUER", "evaluation-api")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("RESEND_API_URL", "https://api.resend.com")
	v.SetDefault("RESEND_API_KEY", "")
	v.SetDefault("MAIL_FROM", "The Nonprofit Edge <lyn@thenonprofitedge.org>")
	v.SetDefault("MAIL_REPLY_TO", "insights@thenonprofitedge.org")
	v.SetDefault("MAIL_SEND_TIMEOUT", "10s")

	v.SetDefault("APP_URL", "https://thenonprofitedge.org")
	v.SetDefault("APP_PRODUCT_NAME", "The Nonprofit Edge")

	v.SetDefault("PROGRESS_CACHE_TTL", "5m")

	v.SetDefault("ENABLE_REMINDERS", true)
	v.SetDefault("CRON_SECRET", "")
	v.SetDefault("REMINDER_WORKERS", 2)

	v.SetDefault("REPORT_MAX_ADDITIONAL_RECIPIENTS", 5)
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
