package repositories

import (
	"context"
	"time"

	"saj-gateway/internal/models"
	"saj-gateway/internal/repositories/base"
	"saj-gateway/internal/repositories/interfaces"

	"gorm.io/gorm"
)

// SyncHistoryRepository implements SyncHistoryRepositoryInterface over one
// history table.
type SyncHistoryRepository struct {
	db    *gorm.DB
	table string
}

func NewDeviceSyncHistoryRepository(db *gorm.DB) interfaces.SyncHistoryRepositoryInterface {
	return &SyncHistoryRepository{db: db, table: models.DeviceSyncRun{}.TableName()}
}

func NewPlantSyncHistoryRepository(db *gorm.DB) interfaces.SyncHistoryRepositoryInterface {
	return &SyncHistoryRepository{db: db, table: models.PlantSyncRun{}.TableName()}
}

func (r *SyncHistoryRepository) Start(ctx context.Context, totalFromAPI int) (uint, error) {
	run := models.SyncRun{
		TotalFromAPI: totalFromAPI,
		StartedAt:    time.Now().UTC(),
	}
	if err := r.db.WithContext(ctx).Table(r.table).Create(&run).Error; err != nil {
		return 0, base.WrapDBError("create", r.table, err)
	}
	return run.ID, nil
}

func (r *SyncHistoryRepository) Complete(ctx context.Context, runID uint, newAdded, updated, failed int) error {
	return r.finish(ctx, runID, map[string]interface{}{
		"completed_at": time.Now().UTC(),
		"new_added":    newAdded,
		"updated":      updated,
		"failed":       failed,
		"success":      true,
	})
}

func (r *SyncHistoryRepository) Fail(ctx context.Context, runID uint, message string) error {
	return r.finish(ctx, runID, map[string]interface{}{
		"completed_at":  time.Now().UTC(),
		"success":       false,
		"error_message": message,
	})
}

func (r *SyncHistoryRepository) Recent(ctx context.Context, limit int) ([]models.SyncRun, error) {
	var runs []models.SyncRun
	err := paginate(r.db.WithContext(ctx).Table(r.table).Order("started_at desc, id desc"), limit, 0).Find(&runs).Error
	if err != nil {
		return nil, base.WrapDBError("list", r.table, err)
	}
	return runs, nil
}

func (r *SyncHistoryRepository) finish(ctx context.Context, runID uint, updates map[string]interface{}) error {
	result := r.db.WithContext(ctx).Table(r.table).Where("id = ?", runID).Updates(updates)
	if result.Error != nil {
		return base.WrapDBError("update", r.table, result.Error)
	}
	if result.RowsAffected == 0 {
		return base.NewEntityNotFoundError(r.table, "id")
	}
	return nil
}
