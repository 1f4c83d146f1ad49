package di

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"saj-gateway/internal/config"
	"saj-gateway/internal/mqtt"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewContainerWithSQLite(t *testing.T) {
	cfg := &config.Config{
		Env:          "development",
		DBDriver:     config.DriverSQLite,
		SQLitePath:   filepath.Join(t.TempDir(), "gateway.db"),
		CacheTTL:     time.Hour,
		SAJBaseURL:   "http://127.0.0.1:1",
		SAJAppID:     "app-1",
		SAJAppSecret: "secret-1",
		SAJLanguage:  "en_US:English",
	}

	c, err := NewContainerWithLogger(cfg, zap.NewNop())
	require.NoError(t, err)
	defer c.Cleanup()

	assert.Nil(t, c.Redis)
	assert.IsType(t, mqtt.NopPublisher{}, c.Publisher)
	assert.Equal(t, "app-1", c.Upstream.AppID())

	req := httptest.NewRequest(http.MethodGet, "/api/devices/summary", nil)
	rec := httptest.NewRecorder()
	c.Server.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"total":0,"online":0,"alarms":0,"offline":0}`, rec.Body.String())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, c.Shutdown(ctx))
}

func TestNewContainerFailsOnUnreachableRedis(t *testing.T) {
	cfg := &config.Config{
		DBDriver:     config.DriverSQLite,
		SQLitePath:   filepath.Join(t.TempDir(), "gateway.db"),
		CacheTTL:     time.Hour,
		RedisEnabled: true,
		RedisHost:    "127.0.0.1",
		RedisPort:    "1",
		SAJAppID:     "app-1",
		SAJAppSecret: "secret-1",
	}

	_, err := NewContainerWithLogger(cfg, zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis init failed")
}
