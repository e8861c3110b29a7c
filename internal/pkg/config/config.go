package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Database  DatabaseConfig  `mapstructure:"database"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Valkey    ValkeyConfig    `mapstructure:"valkey"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	AI        AIConfig        `mapstructure:"ai"`
	ML        MLConfig        `mapstructure:"ml"`
	Stripe    StripeConfig    `mapstructure:"stripe"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Temporal  TemporalConfig  `mapstructure:"temporal"`
	Rewards   RewardsConfig   `mapstructure:"rewards"`
}

type ServerConfig struct {
	Port           int    `mapstructure:"port"`
	ReadTimeout    int    `mapstructure:"read_timeout"`
	WriteTimeout   int    `mapstructure:"write_timeout"`
	BodyLimitMB    int    `mapstructure:"body_limit_mb"`
	AllowedOrigins string `mapstructure:"allowed_origins"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type NATSConfig struct {
	URL string `mapstructure:"url"`
}

type ValkeyConfig struct {
	Addr string `mapstructure:"addr"`
}

type TelemetryConfig struct {
	ServiceName   string `mapstructure:"service_name"`
	CollectorAddr string `mapstructure:"collector_addr"`
	Enabled       bool   `mapstructure:"enabled"`
}

// AIConfig configures the generative model endpoints. Models are paths under
// BaseURL, tried in the listed order.
type AIConfig struct {
	APIKey         string   `mapstructure:"api_key"`
	BaseURL        string   `mapstructure:"base_url"`
	VisionModels   []string `mapstructure:"vision_models"`
	TextModels     []string `mapstructure:"text_models"`
	AttemptTimeout int      `mapstructure:"attempt_timeout"` // seconds
	MaxConcurrency int      `mapstructure:"max_concurrency"`
}

// AttemptTimeoutDuration returns AttemptTimeout as a time.Duration.
func (a AIConfig) AttemptTimeoutDuration() time.Duration {
	return time.Duration(a.AttemptTimeout) * time.Second
}

type MLConfig struct {
	BaseURL      string `mapstructure:"base_url"`
	Timeout      int    `mapstructure:"timeout"`       // seconds
	PollInterval int    `mapstructure:"poll_interval"` // seconds, predictor only
}

type StripeConfig struct {
	SecretKey     string `mapstructure:"secret_key"`
	WebhookSecret string `mapstructure:"webhook_secret"`
	PublicBaseURL string `mapstructure:"public_base_url"`
}

type StorageConfig struct {
	URL        string `mapstructure:"url"`
	ServiceKey string `mapstructure:"service_key"`
}

type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
}

type TemporalConfig struct {
	HostPort  string `mapstructure:"host_port"`
	Namespace string `mapstructure:"namespace"`
	TaskQueue string `mapstructure:"task_queue"`
}

type RewardsConfig struct {
	RedeemCost       int `mapstructure:"redeem_cost"`
	CompletionPoints int `mapstructure:"completion_points"`
}

// Load reads configuration from file and environment variables.
func Load(service string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 30)
	v.SetDefault("server.body_limit_mb", 8)
	v.SetDefault("server.allowed_origins", "http://localhost:3000")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "passtheplate")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "passtheplate")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("valkey.addr", "localhost:6379")
	v.SetDefault("telemetry.service_name", service)
	v.SetDefault("telemetry.collector_addr", "localhost:4317")
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("ai.api_key", "")
	v.SetDefault("ai.base_url", "https://generativelanguage.googleapis.com")
	v.SetDefault("ai.vision_models", []string{
		"v1beta/models/gemini-2.5-flash",
		"v1beta/models/gemini-2.5-flash-lite",
		"v1/models/gemini-pro-vision",
	})
	v.SetDefault("ai.text_models", []string{
		"v1beta/models/gemini-2.5-flash",
		"v1beta/models/gemini-2.5-flash-lite",
		"v1/models/gemini-pro",
	})
	v.SetDefault("ai.attempt_timeout", 20)
	v.SetDefault("ai.max_concurrency", 4)
	v.SetDefault("ml.base_url", "http://localhost:8000")
	v.SetDefault("ml.timeout", 10)
	v.SetDefault("ml.poll_interval", 300)
	v.SetDefault("stripe.secret_key", "")
	v.SetDefault("stripe.webhook_secret", "")
	v.SetDefault("stripe.public_base_url", "http://localhost:3000")
	v.SetDefault("storage.url", "")
	v.SetDefault("storage.service_key", "")
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("temporal.host_port", "localhost:7233")
	v.SetDefault("temporal.namespace", "default")
	v.SetDefault("temporal.task_queue", "gift-card-redemption")
	v.SetDefault("rewards.redeem_cost", 50)
	v.SetDefault("rewards.completion_points", 10)

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig() // OK if missing

	// Environment variables: PASSTHEPLATE_DATABASE_HOST → database.host
	v.SetEnvPrefix("PASSTHEPLATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that required configuration fields are present and sane.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, "server.read_timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, "server.write_timeout must be positive")
	}
	if c.Database.Host == "" {
		errs = append(errs, "database.host is required")
	}
	if c.Database.Port <= 0 || c.Database.Port > 65535 {
		errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", c.Database.Port))
	}
	if c.Database.User == "" {
		errs = append(errs, "database.user is required")
	}
	if c.Database.DBName == "" {
		errs = append(errs, "database.dbname is required")
	}
	if c.NATS.URL == "" {
		errs = append(errs, "nats.url is required")
	}
	if c.Valkey.Addr == "" {
		errs = append(errs, "valkey.addr is required")
	}
	if len(c.AI.VisionModels) == 0 || len(c.AI.TextModels) == 0 {
		errs = append(errs, "ai.vision_models and ai.text_models must not be empty")
	}
	if c.AI.AttemptTimeout <= 0 {
		errs = append(errs, "ai.attempt_timeout must be positive")
	}
	if c.AI.MaxConcurrency <= 0 {
		errs = append(errs, "ai.max_concurrency must be positive")
	}
	if c.ML.Timeout <= 0 {
		errs = append(errs, "ml.timeout must be positive")
	}
	if c.Rewards.RedeemCost <= 0 {
		errs = append(errs, "rewards.redeem_cost must be positive")
	}
	if c.Rewards.CompletionPoints < 0 {
		errs = append(errs, "rewards.completion_points must not be negative")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
