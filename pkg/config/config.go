package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Mail drivers supported by the dispatcher.
const (
	MailDriverSendgrid = "sendgrid"
	MailDriverConsole  = "console"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database DatabaseConfig
	Redis    RedisConfig
	CORS     CORSConfig
	Log      LogConfig
	Trigger  TriggerConfig
	Mail     MailConfig
	Reports  ReportsConfig
}

type DatabaseConfig struct {
	URL          string
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

// TriggerConfig guards the scheduler-facing endpoints.
type TriggerConfig struct {
	Secret             string
	ExposeErrorDetails bool
}

// MailConfig carries the template email provider credentials.
type MailConfig struct {
	Driver         string
	SendgridAPIKey string
	TemplateID     string
	FromAddress    string
	FromName       string
}

// ReportsConfig tunes weekly report generation and dispatch.
type ReportsConfig struct {
	Timezone    string
	FanoutLimit int
	CacheTTL    time.Duration
	LockTTL     time.Duration
	AttachPDF   bool
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
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		URL:          v.GetString("DATABASE_URL"),
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
		Enabled:  v.GetBool("ENABLE_REDIS"),
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

	cfg.Trigger = TriggerConfig{
		Secret:             v.GetString("REPORT_TRIGGER_SECRET"),
		ExposeErrorDetails: v.GetBool("EXPOSE_ERROR_DETAILS") && cfg.Env != EnvProduction,
	}

	cfg.Mail = MailConfig{
		Driver:         strings.ToLower(v.GetString("MAIL_DRIVER")),
		SendgridAPIKey: v.GetString("SENDGRID_API_KEY"),
		TemplateID:     v.GetString("SENDGRID_TEMPLATE_ID"),
		FromAddress:    v.GetString("MAIL_FROM_ADDRESS"),
		FromName:       v.GetString("MAIL_FROM_NAME"),
	}

	fanout := v.GetInt("REPORT_FANOUT_LIMIT")
	if fanout <= 0 {
		fanout = 8
	}
	cfg.Reports = ReportsConfig{
		Timezone:    v.GetString("REPORT_TIMEZONE"),
		FanoutLimit: fanout,
		CacheTTL:    parseDuration(v.GetString("REPORT_CACHE_TTL"), 24*time.Hour),
		LockTTL:     parseDuration(v.GetString("REPORT_LOCK_TTL"), 10*time.Minute),
		AttachPDF:   v.GetBool("REPORT_ATTACH_PDF"),
	}

	return cfg, nil
}

// Validate reports missing store credentials. A DATABASE_URL takes precedence
// over the discrete DB_* settings. Mail credentials are checked by the
// dispatcher so that a misconfigured mailer still allows report builds.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Database.URL) != "" {
		return nil
	}
	var missing []string
	if strings.TrimSpace(c.Database.Host) == "" {
		missing = append(missing, "DB_HOST")
	}
	if strings.TrimSpace(c.Database.User) == "" {
		missing = append(missing, "DB_USER")
	}
	if strings.TrimSpace(c.Database.Name) == "" {
		missing = append(missing, "DB_NAME")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing store configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}

// Location resolves the report timezone, falling back to UTC.
func (r ReportsConfig) Location() *time.Location {
	if r.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(r.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "teachers_portal")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("ENABLE_REDIS", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("REPORT_TRIGGER_SECRET", "")
	v.SetDefault("EXPOSE_ERROR_DETAILS", false)

	v.SetDefault("MAIL_DRIVER", MailDriverSendgrid)
	v.SetDefault("SENDGRID_API_KEY", "")
	v.SetDefault("SENDGRID_TEMPLATE_ID", "")
	v.SetDefault("MAIL_FROM_ADDRESS", "noreply@teachers-portal.local")
	v.SetDefault("MAIL_FROM_NAME", "Teachers Portal")

	v.SetDefault("REPORT_TIMEZONE", "UTC")
	v.SetDefault("REPORT_FANOUT_LIMIT", 8)
	v.SetDefault("REPORT_CACHE_TTL", "24h")
	v.SetDefault("REPORT_LOCK_TTL", "10m")
	v.SetDefault("REPORT_ATTACH_PDF", false)
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
