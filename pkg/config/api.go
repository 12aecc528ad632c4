package config

import "time"

// APIConfig holds runtime configuration for the telemetry API service.
type APIConfig struct {
	Environment        string
	Addr               string
	DatabaseURL        string
	MigrationsDir      string
	LogFile            string
	StreamInterval     time.Duration
	HistoryLimit       int
	ExportWindowDays   int
	RateLimitRedisAddr string
	RateLimitRedisPass string
	RateLimitRedisDB   int
}

// LoadAPIConfig constructs an APIConfig from environment variables.
func LoadAPIConfig() APIConfig {
	return APIConfig{
		Environment:        GetString("APP_ENV", "development"),
		Addr:               GetString("API_ADDR", ":8000"),
		DatabaseURL:        GetString("DATABASE_URL", "postgres://telemetry:telemetry@db:5432/telemetry?sslmode=disable"),
		MigrationsDir:      GetString("DB_MIGRATIONS_DIR", "./db/migrations"),
		LogFile:            GetString("LOG_FILE", ""),
		StreamInterval:     GetSeconds("STREAM_INTERVAL_SECONDS", time.Second),
		HistoryLimit:       GetInt("TELEMETRY_HISTORY_LIMIT", 100),
		ExportWindowDays:   GetInt("EXPORT_WINDOW_DAYS", 7),
		RateLimitRedisAddr: GetString("RATE_LIMIT_REDIS_ADDR", ""),
		RateLimitRedisPass: GetString("RATE_LIMIT_REDIS_PASSWORD", ""),
		RateLimitRedisDB:   GetInt("RATE_LIMIT_REDIS_DB", 0),
	}
}
