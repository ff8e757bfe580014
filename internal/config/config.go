package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	Storage   StorageConfig
	Redis     RedisConfig
	Tracing   TracingConfig   `mapstructure:"tracing"`
	CORS      CORSConfig      `mapstructure:"cors"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Dashboard DashboardConfig `mapstructure:"dashboard"`
	Risk      RiskConfig      `mapstructure:"risk"`
	Reports   ReportConfig    `mapstructure:"reports"`

	// Runtime flags, set from the command line rather than the config file.
	ForceMigrate bool `mapstructure:"-"`
	MigrateOnly  bool `mapstructure:"-"`
}

type ServerConfig struct {
	Port string
	Mode string
}

type DatabaseConfig struct {
	Host      string
	Port      int
	User      string
	Password  string
	DBName    string
	Charset   string
	ParseTime bool
}

type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	ExpireTime time.Duration `mapstructure:"expire_hours"`
}

type StorageConfig struct {
	Type          string `mapstructure:"type"`
	LocalPath     string `mapstructure:"local_path"`
	MinioEndpoint string `mapstructure:"minio_endpoint"`
	MinioAccessID string `mapstructure:"minio_access_key"`
	MinioSecret   string `mapstructure:"minio_secret_key"`
	MinioBucket   string `mapstructure:"minio_bucket"`
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type TracingConfig struct {
	Enabled           bool   `mapstructure:"enabled"`
	CollectorEndpoint string `mapstructure:"collector_endpoint"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type RateLimitConfig struct {
	MaxRequests   int `mapstructure:"max_requests"`
	WindowMinutes int `mapstructure:"window_minutes"`
}

// DashboardConfig controls snapshot caching for the admin dashboard.
type DashboardConfig struct {
	CacheTTLSeconds int `mapstructure:"cache_ttl_seconds"`
}

// RiskConfig is the at-risk classification policy. Operators tune it in
// config.yaml; weights are renormalized at use so their sum need not be 1.
type RiskConfig struct {
	InactivityWeight        float64 `mapstructure:"inactivity_weight"`
	CompletionWeight        float64 `mapstructure:"completion_weight"`
	SatisfactionWeight      float64 `mapstructure:"satisfaction_weight"`
	InactivityThresholdDays int     `mapstructure:"inactivity_threshold_days"`
	MediumCutPoint          float64 `mapstructure:"medium_cut_point"`
	HighCutPoint            float64 `mapstructure:"high_cut_point"`
}

type ReportConfig struct {
	RetentionHours int `mapstructure:"retention_hours"`
}

func setDefaults() {
	viper.SetDefault("dashboard.cache_ttl_seconds", 300)
	viper.SetDefault("risk.inactivity_weight", 0.4)
	viper.SetDefault("risk.completion_weight", 0.4)
	viper.SetDefault("risk.satisfaction_weight", 0.2)
	viper.SetDefault("risk.inactivity_threshold_days", 30)
	viper.SetDefault("risk.medium_cut_point", 0.33)
	viper.SetDefault("risk.high_cut_point", 0.66)
	viper.SetDefault("reports.retention_hours", 24)
	viper.SetDefault("rate_limit.max_requests", 100000)
	viper.SetDefault("rate_limit.window_minutes", 1)
}

func LoadConfig(path string) (*Config, error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetEnvPrefix("EDU_ADMIN")
	viper.AutomaticEnv()

	// Database
	viper.BindEnv("database.host", "DATABASE_HOST")
	viper.BindEnv("database.port", "DATABASE_PORT")
	viper.BindEnv("database.user", "DATABASE_USER")
	viper.BindEnv("database.password", "DATABASE_PASSWORD")
	viper.BindEnv("database.dbname", "DATABASE_NAME")

	// JWT
	viper.BindEnv("jwt.secret", "JWT_SECRET")

	// Redis
	viper.BindEnv("redis.host", "REDIS_HOST")
	viper.BindEnv("redis.port", "REDIS_PORT")
	viper.BindEnv("redis.password", "REDIS_PASSWORD")

	// Server
	viper.BindEnv("server.mode", "SERVER_MODE")

	// Storage
	viper.BindEnv("storage.type", "STORAGE_TYPE")
	viper.BindEnv("storage.minio_endpoint", "MINIO_ENDPOINT")
	viper.BindEnv("storage.minio_access_key", "MINIO_ACCESS_KEY")
	viper.BindEnv("storage.minio_secret_key", "MINIO_SECRET_KEY")
	viper.BindEnv("storage.minio_bucket", "MINIO_BUCKET")

	// Tracing
	viper.BindEnv("tracing.enabled", "TRACING_ENABLED")
	viper.BindEnv("tracing.collector_endpoint", "TRACING_COLLECTOR_ENDPOINT")

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	cfg.JWT.ExpireTime = cfg.JWT.ExpireTime * time.Hour

	if cfg.Server.Mode == "release" && len(cfg.JWT.Secret) < 32 {
		return nil, fmt.Errorf("JWT secret is too short (%d chars), must be at least 32 characters in release mode", len(cfg.JWT.Secret))
	}

	if err := cfg.Risk.Validate(); err != nil {
		return nil, err
	}

	if cfg.Storage.Type == "local" {
		if _, err := os.Stat(cfg.Storage.LocalPath); os.IsNotExist(err) {
			os.MkdirAll(cfg.Storage.LocalPath, 0755)
		}
	}

	return &cfg, nil
}

// Validate rejects a risk policy that cannot classify anything sensibly.
func (r *RiskConfig) Validate() error {
	if r.InactivityWeight < 0 || r.CompletionWeight < 0 || r.SatisfactionWeight < 0 {
		return fmt.Errorf("risk weights must be non-negative")
	}
	if r.InactivityWeight+r.CompletionWeight+r.SatisfactionWeight == 0 {
		return fmt.Errorf("at least one risk weight must be positive")
	}
	if r.MediumCutPoint <= 0 || r.HighCutPoint <= r.MediumCutPoint || r.HighCutPoint >= 1 {
		return fmt.Errorf("risk cut points must satisfy 0 < medium < high < 1")
	}
	if r.InactivityThresholdDays <= 0 {
		return fmt.Errorf("risk inactivity threshold days must be positive")
	}
	return nil
}
