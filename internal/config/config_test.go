package config_test

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuanvumaihuynh/product-catalog/internal/config"
)

func TestNew(t *testing.T) {
	type appConfig struct {
		Log     config.Log
		HTTP    config.HTTP
		Catalog config.Catalog
		Redis   config.Redis
	}

	t.Run("Should apply defaults", func(t *testing.T) {
		cfg, err := config.New[appConfig]()
		require.NoError(t, err)

		assert.Equal(t, config.LogFormatJSON, cfg.Log.Format)
		assert.Equal(t, slog.LevelInfo, cfg.Log.Level)
		assert.Equal(t, uint32(8000), cfg.HTTP.Port)
		assert.Equal(t, []string{"*"}, cfg.HTTP.CORSAllowedOrigin)
		assert.Equal(t, 10, cfg.Catalog.LowStockThreshold)
		assert.Equal(t, 100, cfg.Catalog.MaxBatchSize)
		assert.Empty(t, cfg.Redis.URL)
		assert.Equal(t, 30*time.Second, cfg.Redis.StatisticsTTL)
	})

	t.Run("Should read overrides from env", func(t *testing.T) {
		t.Setenv("LOG_FORMAT", "text")
		t.Setenv("CATALOG_LOW_STOCK_THRESHOLD", "5")
		t.Setenv("HTTP_CORS_ALLOWED_ORIGINS", "http://a.test,http://b.test")

		cfg, err := config.New[appConfig]()
		require.NoError(t, err)

		assert.Equal(t, config.LogFormatText, cfg.Log.Format)
		assert.Equal(t, 5, cfg.Catalog.LowStockThreshold)
		assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.HTTP.CORSAllowedOrigin)
	})

	t.Run("Should read the log output", func(t *testing.T) {
		t.Setenv("LOG_OUTPUT", "stderr")

		cfg, err := config.New[appConfig]()
		require.NoError(t, err)
		assert.Equal(t, config.LogOutputStderr, cfg.Log.Output)
		assert.Equal(t, "product-catalog", cfg.Log.ServiceName)
	})

	t.Run("Should fail on unknown log format", func(t *testing.T) {
		t.Setenv("LOG_FORMAT", "xml")

		_, err := config.New[appConfig]()
		assert.Error(t, err)
	})
}

type authOnly struct {
	Auth config.Auth
}

func (c authOnly) Validate() error { return c.Auth.Validate() }

func TestNewValidates(t *testing.T) {
	t.Run("Should reject auth without a secret", func(t *testing.T) {
		t.Setenv("AUTH_ENABLED", "true")

		_, err := config.New[authOnly]()
		assert.ErrorContains(t, err, "AUTH_JWT_SECRET")
	})

	t.Run("Should accept auth with a secret", func(t *testing.T) {
		t.Setenv("AUTH_ENABLED", "true")
		t.Setenv("AUTH_JWT_SECRET", "s3cret")

		cfg, err := config.New[authOnly]()
		require.NoError(t, err)
		assert.True(t, cfg.Auth.Enabled)
	})
}

func TestPostgresDSN(t *testing.T) {
	t.Run("Should build a pgx connection string", func(t *testing.T) {
		p := config.Postgres{Host: "db", Port: 5432, User: "u", Password: "p", DB: "catalog", SSLMode: "disable"}
		assert.Equal(t, "postgres://u:p@db:5432/catalog?sslmode=disable", p.DSN())
	})

	t.Run("Should escape credentials and add the application name", func(t *testing.T) {
		p := config.Postgres{Host: "db", Port: 5432, User: "u", Password: "p@ss/word", DB: "catalog", SSLMode: "require", ApplicationName: "catalog-api"}
		assert.Equal(t, "postgres://u:p%40ss%2Fword@db:5432/catalog?application_name=catalog-api&sslmode=require", p.DSN())
	})
}

func TestKafka(t *testing.T) {
	t.Run("Should prefix topics", func(t *testing.T) {
		k := config.Kafka{TopicPrefix: "staging."}
		assert.Equal(t, "staging.catalog.product.created", k.Topic("catalog.product.created"))
		assert.False(t, k.Enabled())
	})
}
