package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ENVIRONMENT", "development")
	t.Setenv("DB_DRIVER", "sqlite")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "5000", cfg.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, 365, cfg.Retention.Days)
	assert.Equal(t, "0 3 * * *", cfg.Retention.Schedule)
	assert.Equal(t, 5*time.Minute, cfg.RouteCacheTTL)
	assert.Equal(t, 15*time.Second, cfg.NATSConnectTimeout)
	assert.Equal(t, "zl_vid", cfg.VisitorCookie)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.False(t, cfg.Telemetry.Enabled)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("PORT", "9000")
	t.Setenv("BASE_URL", "https://zap.example/")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("QUEUE_WORKERS", "2")
	t.Setenv("ROUTE_CACHE_TTL", "30s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, "https://zap.example", cfg.BaseURL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.Equal(t, 2, cfg.Queue.Workers)
	assert.Equal(t, 30*time.Second, cfg.RouteCacheTTL)
	assert.False(t, cfg.IsDevelopment())
}

func TestLoadRequiresSecretInProduction(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	assert.ErrorContains(t, err, "JWT_SECRET")
}

func TestValidateRejectsUnknownDriver(t *testing.T) {
	t.Setenv("ENVIRONMENT", "development")
	t.Setenv("DB_DRIVER", "mysql")

	_, err := Load()
	assert.ErrorContains(t, err, "DB_DRIVER")
}

func TestDSN(t *testing.T) {
	pg := DatabaseConfig{Driver: "postgres", Host: "db", Port: "5432", User: "zap", Name: "zaplinker", SSLMode: "disable", Password: "pw"}
	assert.Equal(t, "host=db port=5432 user=zap dbname=zaplinker sslmode=disable password=pw", pg.DSN())

	lite := DatabaseConfig{Driver: "sqlite", Name: "dev"}
	assert.Equal(t, "dev.db", lite.DSN())

	url := DatabaseConfig{Driver: "postgres", URL: "postgres://x"}
	assert.Equal(t, "postgres://x", url.DSN())
}
