package token

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"saj-gateway/internal/logging"
	"saj-gateway/internal/models"
	cache "saj-gateway/internal/redis"
	"saj-gateway/internal/repositories/interfaces"
	"saj-gateway/internal/saj"

	"go.uber.org/zap"
)

// DefaultLifetime applies when the vendor omits the expires field.
const DefaultLifetime = 28800 * time.Second

// Upstream is the token endpoint of the vendor API.
type Upstream interface {
	AccessToken(ctx context.Context) (*saj.TokenData, error)
}

// FrontCache is an optional fast tier in front of the token table.
type FrontCache interface {
	GetToken(ctx context.Context) (string, error)
	SaveToken(ctx context.Context, token string, ttl time.Duration) error
}

// AuthError means no usable token could be obtained from the vendor.
type AuthError struct {
	Code int
	Msg  string
	Err  error
}

func (e *AuthError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("failed to get access token: code %d: %s", e.Code, e.Msg)
	}
	return fmt.Sprintf("failed to get access token: %s", e.Msg)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// Provider hands out a usable vendor token, reading the caches first and
// falling back to the token endpoint. Cache failures are logged and never
// abort acquisition.
type Provider struct {
	store    interfaces.TokenRepositoryInterface
	upstream Upstream
	front    FrontCache
	maxTTL   time.Duration
	logger   *zap.Logger
	now      func() time.Time

	// mu serialises the miss path so concurrent misses share one fetch.
	mu sync.Mutex
}

// NewProvider builds a provider. front may be nil.
func NewProvider(store interfaces.TokenRepositoryInterface, upstream Upstream, front FrontCache, maxTTL time.Duration, logger *zap.Logger) *Provider {
	return &Provider{
		store:    store,
		upstream: upstream,
		front:    front,
		maxTTL:   maxTTL,
		logger:   logger.With(zap.String("component", "token_provider")),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// ValidToken returns a cached token when one is valid, otherwise a fresh one.
func (p *Provider) ValidToken(ctx context.Context) (string, error) {
	if token, ok := p.cached(ctx); ok {
		return token, nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	// Another request may have refreshed while we waited.
	if token, ok := p.cached(ctx); ok {
		return token, nil
	}
	return p.fetch(ctx)
}

// Refresh skips the caches and always requests a new token.
func (p *Provider) Refresh(ctx context.Context) (*saj.TokenData, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	data, err := p.request(ctx)
	if err != nil {
		return nil, err
	}
	p.persist(ctx, data)
	return data, nil
}

// Status describes the latest active token row.
func (p *Provider) Status(ctx context.Context) (*models.TokenStatus, error) {
	row, err := p.store.FindLatestActive(ctx)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return &models.TokenStatus{
			HasToken:  false,
			IsActive:  false,
			IsExpired: true,
			Message:   "No cached token found",
		}, nil
	}

	now := p.now()
	status := &models.TokenStatus{
		HasToken:     true,
		IsActive:     row.IsActive,
		IsExpired:    !row.Valid(now),
		ExpiresAt:    &row.ExpiresAt,
		CreatedAt:    &row.CreatedAt,
		TokenPreview: logging.Preview(row.Token),
	}
	if !status.IsExpired {
		status.TimeUntilExpiry = int64(row.ExpiresAt.Sub(now) / time.Second)
	}
	return status, nil
}

func (p *Provider) cached(ctx context.Context) (string, bool) {
	if p.front != nil {
		token, err := p.front.GetToken(ctx)
		if err == nil && token != "" {
			return token, true
		}
		if err != nil && !errors.Is(err, cache.ErrCacheMiss) {
			p.logger.Debug("Front cache lookup failed", zap.Error(err))
		}
	}

	row, err := p.store.FindValid(ctx, p.now())
	if err != nil {
		p.logger.Warn("Token cache read failed, treating as miss", zap.Error(err))
		return "", false
	}
	if row == nil {
		return "", false
	}
	p.warmFront(ctx, row.Token, row.ExpiresAt)
	return row.Token, true
}

func (p *Provider) fetch(ctx context.Context) (string, error) {
	data, err := p.request(ctx)
	if err != nil {
		return "", err
	}
	p.persist(ctx, data)
	return data.AccessToken, nil
}

func (p *Provider) request(ctx context.Context) (*saj.TokenData, error) {
	p.logger.Info("Requesting new access token")

	data, err := p.upstream.AccessToken(ctx)
	if err != nil {
		var apiErr *saj.APIError
		if errors.As(err, &apiErr) {
			return nil, &AuthError{Code: apiErr.Code, Msg: apiErr.Msg, Err: err}
		}
		return nil, &AuthError{Msg: err.Error(), Err: err}
	}
	if data == nil || data.AccessToken == "" {
		return nil, &AuthError{Code: saj.SuccessCode, Msg: "empty access token in response"}
	}
	if data.Expires <= 0 {
		data.Expires = int64(DefaultLifetime / time.Second)
	}

	p.logger.Info("Access token obtained",
		zap.String("token_preview", logging.Preview(data.AccessToken)),
		zap.Int64("expires_in", data.Expires),
	)
	return data, nil
}

// persist writes the token through both tiers on a best-effort basis.
func (p *Provider) persist(ctx context.Context, data *saj.TokenData) {
	expiresAt := p.now().Add(time.Duration(data.Expires) * time.Second)
	row := &models.AccessToken{Token: data.AccessToken, ExpiresAt: expiresAt}
	if err := p.store.ReplaceActive(ctx, row); err != nil {
		p.logger.Warn("Failed to persist access token", zap.Error(err))
	}
	p.warmFront(ctx, data.AccessToken, expiresAt)
}

func (p *Provider) warmFront(ctx context.Context, token string, expiresAt time.Time) {
	if p.front == nil {
		return
	}
	ttl := expiresAt.Sub(p.now())
	if p.maxTTL > 0 && ttl > p.maxTTL {
		ttl = p.maxTTL
	}
	if err := p.front.SaveToken(ctx, token, ttl); err != nil {
		p.logger.Warn("Failed to write token to front cache", zap.Error(err))
	}
}
