package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		t.Setenv("SAJ_APP_ID", "app")
		t.Setenv("SAJ_APP_SECRET", "secret")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "3000", cfg.Port)
		assert.Equal(t, DriverPostgres, cfg.DBDriver)
		assert.Equal(t, 8*time.Hour, cfg.CacheTTL)
		assert.Equal(t, 15*time.Minute, cfg.RateLimitWindow)
		assert.Equal(t, "en_US:English", cfg.SAJLanguage)
		assert.False(t, cfg.RedisEnabled)
		assert.False(t, cfg.IsProduction())
	})

	t.Run("missing credentials", func(t *testing.T) {
		t.Setenv("SAJ_APP_ID", "")
		t.Setenv("SAJ_APP_SECRET", "")

		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("unknown driver", func(t *testing.T) {
		t.Setenv("SAJ_APP_ID", "app")
		t.Setenv("SAJ_APP_SECRET", "secret")
		t.Setenv("DB_DRIVER", "oracle")

		_, err := Load()
		assert.ErrorContains(t, err, "oracle")
	})
}

func TestPostgresDSN(t *testing.T) {
	cfg := &Config{DBHost: "db", DBPort: "5433", DBUser: "u", DBPassword: "p", DBName: "n", DBSSLMode: "require"}
	assert.Equal(t, "host=db user=u password=p dbname=n port=5433 sslmode=require TimeZone=UTC", cfg.PostgresDSN())

	cfg.DatabaseURL = "postgres://u:p@db/n"
	assert.Equal(t, "postgres://u:p@db/n", cfg.PostgresDSN())
}
