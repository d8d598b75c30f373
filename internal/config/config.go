package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the full service configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Relevance RelevanceConfig `mapstructure:"relevance"`
	Feed      FeedConfig      `mapstructure:"feed"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

// DatabaseConfig accepts either a full URL or individual parts
type DatabaseConfig struct {
	URL      string `mapstructure:"url"`
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
}

// DSN returns the URL when set, otherwise a key/value DSN built from the parts
func (c DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

// RedisConfig is optional; an empty host disables caching and the distributed run lock
type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	Password string `mapstructure:"password"`
}

func (c RedisConfig) Enabled() bool {
	return c.Host != ""
}

type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
}

type RelevanceConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	Interval       time.Duration `mapstructure:"interval"`
	WindowDays     int           `mapstructure:"window_days"`
	Workers        int           `mapstructure:"workers"`
	MaxRunDuration time.Duration `mapstructure:"max_run_duration"`
	LockTTL        time.Duration `mapstructure:"lock_ttl"`
}

type FeedConfig struct {
	MaxCandidates         int           `mapstructure:"max_candidates"`
	LocalRadiusKm         float64       `mapstructure:"local_radius_km"`
	HighQualityMinScore   float64       `mapstructure:"high_quality_min_score"`
	HighAffinityThreshold float64       `mapstructure:"high_affinity_threshold"`
	ViewerCacheTTL        time.Duration `mapstructure:"viewer_cache_ttl"`
}

type TelemetryConfig struct {
	Enabled      bool    `mapstructure:"enabled"`
	Endpoint     string  `mapstructure:"endpoint"`
	SamplingRate float64 `mapstructure:"sampling_rate"`
	ServiceName  string  `mapstructure:"service_name"`
}

// legacyEnv maps keys to the unprefixed variables the deployment scripts already export
var legacyEnv = map[string][]string{
	"server.port":        {"SERVER_PORT", "PORT"},
	"server.environment": {"SERVER_ENVIRONMENT", "ENVIRONMENT"},
	"database.host":      {"DATABASE_HOST", "DB_HOST"},
	"database.port":      {"DATABASE_PORT", "DB_PORT"},
	"database.user":      {"DATABASE_USER", "DB_USER"},
	"database.password":  {"DATABASE_PASSWORD", "DB_PASSWORD"},
	"database.name":      {"DATABASE_NAME", "DB_NAME"},
	"database.sslmode":   {"DATABASE_SSLMODE", "DB_SSLMODE"},
	"auth.jwt_secret":    {"AUTH_JWT_SECRET", "JWT_SECRET"},
	"telemetry.endpoint": {"TELEMETRY_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT"},
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8787")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"*"})

	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "petfeed.log")

	v.SetDefault("database.url", "")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "petfeed")
	v.SetDefault("database.sslmode", "disable")

	v.SetDefault("redis.host", "")
	v.SetDefault("redis.port", "6379")
	v.SetDefault("redis.password", "")

	v.SetDefault("auth.jwt_secret", "")

	v.SetDefault("relevance.enabled", true)
	v.SetDefault("relevance.interval", 5*time.Minute)
	v.SetDefault("relevance.window_days", 7)
	v.SetDefault("relevance.workers", 8)
	v.SetDefault("relevance.max_run_duration", 4*time.Minute)
	v.SetDefault("relevance.lock_ttl", 5*time.Minute)

	v.SetDefault("feed.max_candidates", 500)
	v.SetDefault("feed.local_radius_km", 25.0)
	v.SetDefault("feed.high_quality_min_score", 1.0)
	v.SetDefault("feed.high_affinity_threshold", 1.1)
	v.SetDefault("feed.viewer_cache_ttl", time.Minute)

	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.endpoint", "localhost:4318")
	v.SetDefault("telemetry.sampling_rate", 0.1)
	v.SetDefault("telemetry.service_name", "petfeed")
}

// Load reads configuration from defaults, an optional config file named by
// CONFIG_FILE, and the environment, in increasing order of precedence.
// A .env file in the working directory is loaded first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, envs := range legacyEnv {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return nil, fmt.Errorf("bind %s: %w", key, err)
		}
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if errors.As(err, &notFound) {
				return nil, fmt.Errorf("config file not found: %w", err)
			}
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the service cannot run with
func (c *Config) Validate() error {
	if c.Relevance.Interval <= 0 {
		return fmt.Errorf("relevance.interval must be positive, got %s", c.Relevance.Interval)
	}
	if c.Relevance.WindowDays <= 0 {
		return fmt.Errorf("relevance.window_days must be positive, got %d", c.Relevance.WindowDays)
	}
	if c.Feed.MaxCandidates <= 0 {
		return fmt.Errorf("feed.max_candidates must be positive, got %d", c.Feed.MaxCandidates)
	}
	if c.Telemetry.SamplingRate < 0 || c.Telemetry.SamplingRate > 1 {
		return fmt.Errorf("telemetry.sampling_rate must be within [0, 1], got %g", c.Telemetry.SamplingRate)
	}
	if c.Server.Environment == "production" && c.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret is required in production")
	}
	return nil
}

// IsDevelopment reports whether the service runs in development mode
func (c *Config) IsDevelopment() bool {
	return c.Server.Environment == "development"
}
