package reconcile

import (
	"context"
	"fmt"

	"saj-gateway/internal/models"
	"saj-gateway/internal/repositories/interfaces"

	"go.uber.org/zap"
)

// Store is the natural-key view of one record family. Key returns the
// normalized natural key used for lookup and storage.
type Store[R any] interface {
	Key(record R) string
	Validate(record R) error
	Exists(ctx context.Context, key string) (bool, error)
	Insert(ctx context.Context, record R) (uint, error)
	Update(ctx context.Context, record R) error
}

// Engine upserts batches of records and keeps one history row per run.
type Engine[R any] struct {
	kind    models.SyncKind
	store   Store[R]
	history interfaces.SyncHistoryRepositoryInterface
	logger  *zap.Logger
}

func NewEngine[R any](kind models.SyncKind, store Store[R], history interfaces.SyncHistoryRepositoryInterface, logger *zap.Logger) *Engine[R] {
	return &Engine[R]{
		kind:    kind,
		store:   store,
		history: history,
		logger:  logger.With(zap.String("component", "reconciler"), zap.String("kind", string(kind))),
	}
}

// Reconcile applies records in order. Records that fail are logged and
// counted; they never stop the batch. The error return is reserved for
// history bookkeeping failures.
func (e *Engine[R]) Reconcile(ctx context.Context, records []R) (*models.SyncResult, error) {
	// A started run must always be finalized, even if the caller goes away.
	ctx = context.WithoutCancel(ctx)

	runID, err := e.history.Start(ctx, len(records))
	if err != nil {
		return nil, fmt.Errorf("failed to start %s sync run: %w", e.kind, err)
	}
	logger := e.logger.With(zap.Uint("run_id", runID))
	logger.Info("Sync started", zap.Int("total", len(records)))

	result := &models.SyncResult{
		Kind:           e.kind,
		RunID:          runID,
		TotalProcessed: len(records),
		NewIDs:         []uint{},
	}

	for i, record := range records {
		key := e.store.Key(record)
		if key == "" {
			result.FailedCount++
			logger.Warn("Skipping record without natural key", zap.Int("index", i))
			continue
		}
		if err := e.store.Validate(record); err != nil {
			result.FailedCount++
			logger.Warn("Skipping malformed record", zap.String("key", key), zap.Error(err))
			continue
		}

		id, created, err := e.apply(ctx, key, record)
		if err != nil {
			result.FailedCount++
			logger.Error("Failed to sync record", zap.String("key", key), zap.Error(err))
			continue
		}
		if created {
			result.NewCount++
			result.NewIDs = append(result.NewIDs, id)
		} else {
			result.UpdatedCount++
		}
	}

	if err := e.history.Complete(ctx, runID, result.NewCount, result.UpdatedCount, result.FailedCount); err != nil {
		if failErr := e.history.Fail(ctx, runID, err.Error()); failErr != nil {
			logger.Error("Failed to mark sync run as failed", zap.Error(failErr))
		}
		return nil, fmt.Errorf("failed to finalize %s sync run %d: %w", e.kind, runID, err)
	}

	logger.Info("Sync completed",
		zap.Int("new", result.NewCount),
		zap.Int("updated", result.UpdatedCount),
		zap.Int("failed", result.FailedCount),
	)
	return result, nil
}

func (e *Engine[R]) apply(ctx context.Context, key string, record R) (uint, bool, error) {
	exists, err := e.store.Exists(ctx, key)
	if err != nil {
		return 0, false, err
	}
	if exists {
		return 0, false, e.store.Update(ctx, record)
	}
	id, err := e.store.Insert(ctx, record)
	return id, true, err
}

// Recent lists the latest runs of this engine's kind.
func (e *Engine[R]) Recent(ctx context.Context, limit int) ([]models.SyncRun, error) {
	return e.history.Recent(ctx, limit)
}
