package saj

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"saj-gateway/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	cfg := &config.Config{
		SAJBaseURL:   srv.URL,
		SAJAppID:     "app-1",
		SAJAppSecret: "secret-1",
		SAJLanguage:  "en_US:English",
	}
	return NewClient(cfg, zap.NewNop())
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func TestClientAccessToken(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/access_token", r.URL.Path)
		assert.Equal(t, "app-1", r.URL.Query().Get("appId"))
		assert.Equal(t, "secret-1", r.URL.Query().Get("appSecret"))
		assert.Equal(t, "en_US:English", r.Header.Get("content-language"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		writeJSON(w, http.StatusOK, `{"code":200,"msg":"ok","data":{"access_token":"tok-123","expires":28800}}`)
	})

	data, err := client.AccessToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-123", data.AccessToken)
	assert.EqualValues(t, 28800, data.Expires)
}

func TestClientApplicationError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"code":200010,"msg":"token invalid"}`)
	})

	_, err := client.Realtime(context.Background(), "tok", "A1")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, CodeUnauthorized, apiErr.Code)
	assert.Equal(t, "token invalid", apiErr.Msg)
	assert.Equal(t, "realtime", apiErr.Op)
}

func TestClientTransportErrors(t *testing.T) {
	t.Run("http status with envelope", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusBadGateway, `{"code":502,"msg":"upstream down"}`)
		})

		_, err := client.History(context.Background(), "tok", "A1", "2024-01-01", "2024-01-02")
		var tErr *TransportError
		require.True(t, errors.As(err, &tErr))
		assert.Equal(t, http.StatusBadGateway, tErr.StatusCode)
		assert.Equal(t, "upstream down", tErr.Msg)
	})

	t.Run("http status without body", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})

		_, err := client.PlantEnergy(context.Background(), "tok", "P1", "2024-01-01 00:00:00")
		var tErr *TransportError
		require.True(t, errors.As(err, &tErr))
		assert.Equal(t, http.StatusServiceUnavailable, tErr.StatusCode)
		assert.NotEmpty(t, tErr.Msg)
	})

	t.Run("connection refused", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		srv.Close()
		client := NewClient(&config.Config{SAJBaseURL: srv.URL, SAJAppID: "app-1"}, zap.NewNop())

		_, err := client.AccessToken(context.Background())
		var tErr *TransportError
		require.True(t, errors.As(err, &tErr))
		assert.Zero(t, tErr.StatusCode)
	})
}

func TestClientDetachedFromCallerCancellation(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"code":200,"msg":"ok","data":{"power":1}}`)
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	env, err := client.Realtime(ctx, "tok", "A1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"power":1}`, string(env.Data))
}

func TestClientDeviceScopedHeaders(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/device/uploadData", r.URL.Path)
		assert.Equal(t, "tok", r.Header.Get("accessToken"))
		assert.Equal(t, Sign("app-1", "A1"), r.Header.Get("clientSign"))
		assert.Equal(t, "2", r.URL.Query().Get("timeUnit"))
		writeJSON(w, http.StatusOK, `{"code":200,"msg":"ok","data":[]}`)
	})

	_, err := client.UploadData(context.Background(), "tok", "A1", "2024-01", "2024-02", 2)
	require.NoError(t, err)
}

func TestClientProbeDevice(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/device/realtime", r.URL.Path)
		assert.Equal(t, "A1", r.URL.Query().Get("deviceSN"))
		assert.Equal(t, Sign("app-1", "A1"), r.URL.Query().Get("clientSign"))
		writeJSON(w, http.StatusOK, `{"code":200,"msg":"ok","data":{"plantName":"Roof"}}`)
	})

	env, err := client.ProbeDevice(context.Background(), "tok", "A1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"plantName":"Roof"}`, string(env.Data))
}

func TestClientPages(t *testing.T) {
	t.Run("devices", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/developer/device/page", r.URL.Path)
			assert.Equal(t, "3", r.URL.Query().Get("pageNum"))
			assert.Equal(t, "100", r.URL.Query().Get("pageSize"))
			writeJSON(w, http.StatusOK, `{"code":200,"msg":"ok","total":2,"rows":[
				{"deviceSn":"A1","isOnline":1,"isAlarm":0},
				{"deviceSn":"A2","isOnline":false,"isAlarm":true}
			]}`)
		})

		page, err := client.DevicePage(context.Background(), "tok", 3, 100)
		require.NoError(t, err)
		assert.Equal(t, 2, page.Total)
		require.Len(t, page.Records, 2)
		assert.True(t, page.Records[0].IsOnline.Bool())
		assert.True(t, page.Records[1].IsAlarm.Bool())
	})

	t.Run("plants", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/developer/plant/page", r.URL.Path)
			writeJSON(w, http.StatusOK, `{"code":200,"msg":"ok","data":{"total":1,"rows":[{"plantId":"P1","plantName":"Farm"}]}}`)
		})

		page, err := client.PlantPage(context.Background(), "tok", 1, 100)
		require.NoError(t, err)
		assert.Equal(t, 1, page.Total)
		require.Len(t, page.Records, 1)
		assert.Equal(t, "Farm", page.Records[0].PlantName)
	})
}
