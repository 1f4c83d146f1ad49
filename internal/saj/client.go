package saj

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"saj-gateway/internal/config"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	tokenTimeout    = 10 * time.Second
	realtimeTimeout = 15 * time.Second
	bulkTimeout     = 30 * time.Second
)

// Client issues calls against the SAJ developer API. It holds no token
// state; callers pass the access token they obtained from the token provider.
type Client struct {
	httpClient *resty.Client
	appID      string
	appSecret  string
	logger     *zap.Logger
}

func NewClient(cfg *config.Config, logger *zap.Logger) *Client {
	httpClient := resty.New().
		SetBaseURL(cfg.SAJBaseURL).
		SetHeader("content-language", cfg.SAJLanguage).
		SetHeader("Accept", "application/json")

	return &Client{
		httpClient: httpClient,
		appID:      cfg.SAJAppID,
		appSecret:  cfg.SAJAppSecret,
		logger:     logger.With(zap.String("component", "saj_client")),
	}
}

// AppID is the application identifier used for signing.
func (c *Client) AppID() string {
	return c.appID
}

type request struct {
	op         string
	path       string
	timeout    time.Duration
	params     map[string]string
	token      string
	clientSign string
}

// do runs one GET. The call is detached from ctx cancellation and bounded
// by its own timeout; a call in flight runs to completion or timeout.
func (c *Client) do(ctx context.Context, r request) (*Envelope, error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
	defer cancel()

	var env Envelope
	req := c.httpClient.R().
		SetContext(ctx).
		SetHeader("X-Request-ID", uuid.NewString()).
		SetQueryParams(r.params).
		ForceContentType("application/json").
		SetResult(&env).
		SetError(&env)
	if r.token != "" {
		req.SetHeader("accessToken", r.token)
	}
	if r.clientSign != "" {
		req.SetHeader("clientSign", r.clientSign)
	}

	resp, err := req.Get(r.path)
	if resp != nil && resp.IsError() {
		msg := env.Msg
		if msg == "" {
			msg = resp.Status()
		}
		c.logger.Error("SAJ API returned HTTP error",
			zap.String("op", r.op),
			zap.Int("status_code", resp.StatusCode()),
			zap.String("msg", msg),
		)
		return nil, &TransportError{Op: r.op, StatusCode: resp.StatusCode(), Msg: msg, Err: err}
	}
	if err != nil {
		c.logger.Error("SAJ API call failed", zap.String("op", r.op), zap.Error(err))
		return nil, &TransportError{Op: r.op, Msg: err.Error(), Err: err}
	}

	if env.Code != SuccessCode {
		c.logger.Warn("SAJ API returned error code",
			zap.String("op", r.op),
			zap.Int("code", env.Code),
			zap.String("msg", env.Msg),
		)
		return nil, &APIError{Op: r.op, Code: env.Code, Msg: env.Msg}
	}

	c.logger.Debug("SAJ API call succeeded", zap.String("op", r.op), zap.Duration("latency", resp.Time()))
	return &env, nil
}

// AccessToken requests a fresh token with the configured app credentials.
func (c *Client) AccessToken(ctx context.Context) (*TokenData, error) {
	env, err := c.do(ctx, request{
		op:      "access_token",
		path:    "/access_token",
		timeout: tokenTimeout,
		params: map[string]string{
			"appId":     c.appID,
			"appSecret": c.appSecret,
		},
	})
	if err != nil {
		return nil, err
	}

	var data TokenData
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &data); err != nil {
			return nil, fmt.Errorf("failed to decode access token: %w", err)
		}
	}
	return &data, nil
}

// DevicePage fetches one page of the developer device listing.
func (c *Client) DevicePage(ctx context.Context, token string, pageNum, pageSize int) (*DevicePage, error) {
	env, err := c.do(ctx, request{
		op:      "device_page",
		path:    "/developer/device/page",
		timeout: bulkTimeout,
		token:   token,
		params: map[string]string{
			"appId":    c.appID,
			"pageNum":  strconv.Itoa(pageNum),
			"pageSize": strconv.Itoa(pageSize),
		},
	})
	if err != nil {
		return nil, err
	}

	page := &DevicePage{Envelope: env, Total: env.Total}
	if len(env.Rows) > 0 {
		if err := json.Unmarshal(env.Rows, &page.Records); err != nil {
			return nil, fmt.Errorf("failed to decode device page: %w", err)
		}
	}
	return page, nil
}

// PlantPage fetches one page of the developer plant listing.
func (c *Client) PlantPage(ctx context.Context, token string, pageNum, pageSize int) (*PlantPage, error) {
	env, err := c.do(ctx, request{
		op:      "plant_page",
		path:    "/developer/plant/page",
		timeout: realtimeTimeout,
		token:   token,
		params: map[string]string{
			"appId":    c.appID,
			"pageNum":  strconv.Itoa(pageNum),
			"pageSize": strconv.Itoa(pageSize),
		},
	})
	if err != nil {
		return nil, err
	}

	page := &PlantPage{Envelope: env}
	if len(env.Data) > 0 {
		var data plantPageData
		if err := json.Unmarshal(env.Data, &data); err != nil {
			return nil, fmt.Errorf("failed to decode plant page: %w", err)
		}
		page.Records = data.Rows
		page.Total = data.Total
	}
	return page, nil
}

func (c *Client) Realtime(ctx context.Context, token, deviceSn string) (*Envelope, error) {
	return c.do(ctx, request{
		op:         "realtime",
		path:       "/device/realtimeDataCommon",
		timeout:    realtimeTimeout,
		token:      token,
		clientSign: Sign(c.appID, deviceSn),
		params:     map[string]string{"deviceSn": deviceSn},
	})
}

func (c *Client) History(ctx context.Context, token, deviceSn, startTime, endTime string) (*Envelope, error) {
	return c.do(ctx, request{
		op:         "history",
		path:       "/device/historyDataCommon",
		timeout:    bulkTimeout,
		token:      token,
		clientSign: Sign(c.appID, deviceSn),
		params: map[string]string{
			"deviceSn":  deviceSn,
			"startTime": startTime,
			"endTime":   endTime,
		},
	})
}

// UploadData fetches raw uploaded points; timeUnit is 0 minute, 1 day,
// 2 month or 3 year.
func (c *Client) UploadData(ctx context.Context, token, deviceSn, startTime, endTime string, timeUnit int) (*Envelope, error) {
	return c.do(ctx, request{
		op:         "upload_data",
		path:       "/device/uploadData",
		timeout:    bulkTimeout,
		token:      token,
		clientSign: Sign(c.appID, deviceSn),
		params: map[string]string{
			"deviceSn":  deviceSn,
			"startTime": startTime,
			"endTime":   endTime,
			"timeUnit":  strconv.Itoa(timeUnit),
		},
	})
}

func (c *Client) PlantEnergy(ctx context.Context, token, plantID, clientDate string) (*Envelope, error) {
	return c.do(ctx, request{
		op:      "plant_energy",
		path:    "/plant/energy",
		timeout: realtimeTimeout,
		token:   token,
		params: map[string]string{
			"plantId":    plantID,
			"clientDate": clientDate,
		},
	})
}

// ProbeDevice checks that a serial is known to the vendor and reachable
// with this app's credentials.
func (c *Client) ProbeDevice(ctx context.Context, token, deviceSn string) (*Envelope, error) {
	return c.do(ctx, request{
		op:      "probe_device",
		path:    "/device/realtime",
		timeout: realtimeTimeout,
		token:   token,
		params: map[string]string{
			"deviceSN":   deviceSn,
			"clientSign": Sign(c.appID, deviceSn),
		},
	})
}
