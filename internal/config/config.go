package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/yusuke-yano-01/Timelog/internal/shared/connection"

	"go.uber.org/zap"
)

type Config struct {
	AppEnv string
	Port   string

	DB          connection.PostgresConfig
	RedisAddr   string
	KafkaBroker string

	JWTSecret string
	Location  *time.Location

	AutoMigrate        bool
	ReportCacheTTL     time.Duration
	CORSAllowedOrigins []string

	AdminName     string
	AdminEmail    string
	AdminPassword string
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// Load reads the process environment. godotenv is expected to have
// populated it from .env already.
func Load() (*Config, error) {
	log := zap.L().Named("config")

	tzName := getEnvOrDefault("APP_TIMEZONE", "Asia/Tokyo")
	loc, err := time.LoadLocation(tzName)
	if err != nil {
		return nil, fmt.Errorf("invalid APP_TIMEZONE %q: %w", tzName, err)
	}

	ttl, err := time.ParseDuration(getEnvOrDefault("REPORT_CACHE_TTL", "10m"))
	if err != nil {
		return nil, fmt.Errorf("invalid REPORT_CACHE_TTL: %w", err)
	}

	cfg := &Config{
		AppEnv: getEnvOrDefault("APP_ENV", "development"),
		Port:   getEnvOrDefault("PORT", "3000"),
		DB: connection.PostgresConfig{
			Host:     getEnvOrDefault("DB_HOST", "localhost"),
			User:     os.Getenv("DB_USER"),
			Password: os.Getenv("DB_PASSWORD"),
			Name:     os.Getenv("DB_NAME"),
			Port:     getEnvOrDefault("DB_PORT", "5432"),
			SSLMode:  getEnvOrDefault("DB_SSLMODE", "disable"),
			TimeZone: tzName,
		},
		RedisAddr:          os.Getenv("REDIS_ADDR"),
		KafkaBroker:        os.Getenv("KAFKA_BROKER"),
		JWTSecret:          os.Getenv("JWT_SECRET"),
		Location:           loc,
		AutoMigrate:        parseBoolEnv(os.Getenv("AUTO_MIGRATE")),
		ReportCacheTTL:     ttl,
		CORSAllowedOrigins: splitList(getEnvOrDefault("CORS_ALLOWED_ORIGINS", "http://localhost:5173")),
		AdminName:          getEnvOrDefault("ADMIN_NAME", "Administrator"),
		AdminEmail:         os.Getenv("ADMIN_EMAIL"),
		AdminPassword:      os.Getenv("ADMIN_PASSWORD"),
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.DB.Name == "" {
		return nil, fmt.Errorf("DB_NAME is required")
	}

	log.Info("configuration loaded",
		zap.String("env", cfg.AppEnv),
		zap.String("timezone", tzName),
		zap.Bool("auto_migrate", cfg.AutoMigrate),
		zap.Duration("report_cache_ttl", cfg.ReportCacheTTL),
	)
	return cfg, nil
}

func getEnvOrDefault(key, def string) string {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return def
	}
	return val
}

func parseBoolEnv(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "t", "yes", "y", "on":
		return true
	default:
		return false
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
