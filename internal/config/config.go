package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the process configuration, read from the environment and an optional .env file.
type Config struct {
	Environment string
	Port        string
	LogLevel    string
	LogFile     string

	Database DatabaseConfig
	Redis    RedisConfig

	// BaseURL is the public origin short links are served from.
	BaseURL string

	IPInfoURL   string
	IPInfoToken string
	NATSURL     string
	JWTSecret   string

	// NATSConnectTimeout bounds how long startup waits for the JetStream stream.
	NATSConnectTimeout time.Duration

	CORSOrigins      []string
	TrustedProxies   []string
	RequiredServices []string

	Telemetry TelemetryConfig
	Queue     QueueConfig
	Retention RetentionConfig

	RouteCacheTTL time.Duration
	VisitorCookie string

	RedirectRateLimit int
	APIRateLimit      int
}

type DatabaseConfig struct {
	Driver   string
	URL      string
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// DSN returns the connection string for the configured driver.
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	if d.Driver == "sqlite" {
		return d.Name + ".db"
	}
	dsn := fmt.Sprintf("host=%s port=%s user=%s dbname=%s sslmode=%s", d.Host, d.Port, d.User, d.Name, d.SSLMode)
	if d.Password != "" {
		dsn += " password=" + d.Password
	}
	return dsn
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
}

// Enabled reports whether a Redis host was configured.
func (r RedisConfig) Enabled() bool {
	return r.Host != ""
}

type TelemetryConfig struct {
	Enabled      bool
	Endpoint     string
	SamplingRate float64
}

type QueueConfig struct {
	Workers int
	Size    int
}

type RetentionConfig struct {
	Days     int
	Schedule string
}

// IsDevelopment reports whether the service runs with development defaults.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development" || c.Environment == "test"
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENVIRONMENT", "development")
	v.SetDefault("PORT", "5000")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FILE", "zaplinker.log")

	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_NAME", "zaplinker")
	v.SetDefault("DB_SSLMODE", "disable")

	v.SetDefault("REDIS_PORT", "6379")

	v.SetDefault("BASE_URL", "http://localhost:5000")
	v.SetDefault("IPINFO_URL", "https://ipinfo.io")
	v.SetDefault("NATS_CONNECT_TIMEOUT", "15s")
	v.SetDefault("CORS_ORIGINS", "*")
	v.SetDefault("REQUIRED_SERVICES", "")

	v.SetDefault("OTEL_ENABLED", false)
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318")
	v.SetDefault("OTEL_SAMPLING_RATE", 0.1)

	v.SetDefault("QUEUE_WORKERS", 4)
	v.SetDefault("QUEUE_SIZE", 1000)
	v.SetDefault("RETENTION_DAYS", 365)
	v.SetDefault("RETENTION_SCHEDULE", "0 3 * * *")

	v.SetDefault("ROUTE_CACHE_TTL", "5m")
	v.SetDefault("VISITOR_COOKIE", "zl_vid")

	v.SetDefault("REDIRECT_RATE_LIMIT", 120)
	v.SetDefault("API_RATE_LIMIT", 100)
}

// Load reads .env (when present) and the process environment.
func Load() (*Config, error) {
	// Missing .env is normal in containers
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	cfg := &Config{
		Environment: v.GetString("ENVIRONMENT"),
		Port:        v.GetString("PORT"),
		LogLevel:    v.GetString("LOG_LEVEL"),
		LogFile:     v.GetString("LOG_FILE"),
		Database: DatabaseConfig{
			Driver:   strings.ToLower(v.GetString("DB_DRIVER")),
			URL:      v.GetString("DATABASE_URL"),
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			Name:     v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSLMODE"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetString("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
		},
		BaseURL:            strings.TrimRight(v.GetString("BASE_URL"), "/"),
		IPInfoURL:          v.GetString("IPINFO_URL"),
		IPInfoToken:        v.GetString("IPINFO_APIKEY"),
		NATSURL:            v.GetString("NATS_URL"),
		JWTSecret:          v.GetString("JWT_SECRET"),
		NATSConnectTimeout: v.GetDuration("NATS_CONNECT_TIMEOUT"),
		CORSOrigins:        splitList(v.GetString("CORS_ORIGINS")),
		TrustedProxies:     splitList(v.GetString("TRUSTED_PROXIES")),
		RequiredServices:   splitList(v.GetString("REQUIRED_SERVICES")),
		Telemetry: TelemetryConfig{
			Enabled:      v.GetBool("OTEL_ENABLED"),
			Endpoint:     v.GetString("OTEL_EXPORTER_OTLP_ENDPOINT"),
			SamplingRate: v.GetFloat64("OTEL_SAMPLING_RATE"),
		},
		Queue: QueueConfig{
			Workers: v.GetInt("QUEUE_WORKERS"),
			Size:    v.GetInt("QUEUE_SIZE"),
		},
		Retention: RetentionConfig{
			Days:     v.GetInt("RETENTION_DAYS"),
			Schedule: v.GetString("RETENTION_SCHEDULE"),
		},
		RouteCacheTTL:     v.GetDuration("ROUTE_CACHE_TTL"),
		VisitorCookie:     v.GetString("VISITOR_COOKIE"),
		RedirectRateLimit: v.GetInt("REDIRECT_RATE_LIMIT"),
		APIRateLimit:      v.GetInt("API_RATE_LIMIT"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the server cannot run with.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q (want postgres or sqlite)", c.Database.Driver)
	}
	if c.JWTSecret == "" && !c.IsDevelopment() {
		return fmt.Errorf("JWT_SECRET is required outside development")
	}
	if c.Queue.Workers <= 0 || c.Queue.Size <= 0 {
		return fmt.Errorf("QUEUE_WORKERS and QUEUE_SIZE must be positive")
	}
	if c.Retention.Days <= 0 {
		return fmt.Errorf("RETENTION_DAYS must be positive")
	}
	if c.VisitorCookie == "" {
		return fmt.Errorf("VISITOR_COOKIE must not be empty")
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
