package interfaces

import (
	"context"

	"saj-gateway/internal/models"
)

// SyncHistoryRepositoryInterface is the append-only audit log of sync runs
// for one record family.
type SyncHistoryRepositoryInterface interface {
	Start(ctx context.Context, totalFromAPI int) (uint, error)
	Complete(ctx context.Context, runID uint, newAdded, updated, failed int) error
	Fail(ctx context.Context, runID uint, message string) error
	Recent(ctx context.Context, limit int) ([]models.SyncRun, error)
}
