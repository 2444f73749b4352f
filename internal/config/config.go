package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	NewRelic   NewRelicConfig
	Partner    PartnerConfig
	Constraint ConstraintConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DatabaseConfig holds PostgreSQL configuration.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig holds Redis configuration.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NewRelicConfig holds New Relic configuration.
type NewRelicConfig struct {
	AppName    string
	LicenseKey string
	Enabled    bool
}

// PartnerConfig holds the downstream dispatch partner API configuration.
type PartnerConfig struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// ConstraintConfig holds booking and lifecycle rule configuration.
// Enabled=false turns every rule check into a pass, which is how
// staging environments run without partner-grade booking data.
type ConstraintConfig struct {
	Enabled                 bool
	AllowedOriginCities     []string
	MinBookingLead          time.Duration
	MinDistanceKm           float64
	MaxDistanceKm           float64
	AvailableVehicleClasses []string
	StartLeadWindow         time.Duration
	ArriveWindow            time.Duration
	NoShowMinDelay          time.Duration
	GeofenceRadiusM         float64
}

// Load loads configuration from environment variables. A .env file in the
// working directory is read first when present.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			ReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 10*time.Second),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "dispatch"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),
		},
		NewRelic: NewRelicConfig{
			AppName:    getEnv("NEW_RELIC_APP_NAME", "dispatch-service"),
			LicenseKey: getEnv("NEW_RELIC_LICENSE_KEY", ""),
			Enabled:    getBoolEnv("NEW_RELIC_ENABLED", false),
		},
		Partner: PartnerConfig{
			BaseURL: getEnv("PARTNER_BASE_URL", ""),
			Token:   getEnv("PARTNER_API_TOKEN", ""),
			Timeout: getDurationEnv("PARTNER_TIMEOUT", 10*time.Second),
		},
		Constraint: ConstraintConfig{
			Enabled:                 getBoolEnv("CONSTRAINTS_ENABLED", true),
			AllowedOriginCities:     getSliceEnv("ALLOWED_ORIGIN_CITIES", nil),
			MinBookingLead:          getDurationEnv("MIN_BOOKING_LEAD", 30*time.Minute),
			MinDistanceKm:           getFloatEnv("MIN_DISTANCE_KM", 1),
			MaxDistanceKm:           getFloatEnv("MAX_DISTANCE_KM", 1000),
			AvailableVehicleClasses: getSliceEnv("AVAILABLE_VEHICLE_CLASSES", nil),
			StartLeadWindow:         getDurationEnv("START_LEAD_WINDOW", 2*time.Hour),
			ArriveWindow:            getDurationEnv("ARRIVE_WINDOW", 2*time.Hour),
			NoShowMinDelay:          getDurationEnv("NO_SHOW_MIN_DELAY", 30*time.Minute),
			GeofenceRadiusM:         getFloatEnv("GEOFENCE_RADIUS_M", 500),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getSliceEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				out = append(out, trimmed)
			}
		}
		return out
	}
	return defaultValue
}
