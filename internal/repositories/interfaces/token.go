package interfaces

import (
	"context"
	"time"

	"saj-gateway/internal/models"
)

// TokenRepositoryInterface is the persistent token cache.
type TokenRepositoryInterface interface {
	// FindValid returns the newest active token expiring after now, or nil.
	FindValid(ctx context.Context, now time.Time) (*models.AccessToken, error)
	// FindLatestActive returns the newest active token regardless of expiry, or nil.
	FindLatestActive(ctx context.Context) (*models.AccessToken, error)
	// ReplaceActive deactivates every active token, then stores token as active.
	ReplaceActive(ctx context.Context, token *models.AccessToken) error
}
