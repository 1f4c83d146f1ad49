package repositories

import (
	"context"
	"time"

	"saj-gateway/internal/models"
	"saj-gateway/internal/repositories/base"
	"saj-gateway/internal/repositories/interfaces"

	"gorm.io/gorm"
)

const plantsTable = "saj_plants"

// PlantRepository implements PlantRepositoryInterface.
type PlantRepository struct {
	db *gorm.DB
}

func NewPlantRepository(db *gorm.DB) interfaces.PlantRepositoryInterface {
	return &PlantRepository{db: db}
}

func (r *PlantRepository) FindByPlantID(ctx context.Context, plantID string) (*models.Plant, error) {
	var plant models.Plant
	err := r.db.WithContext(ctx).Where("plant_id = ?", plantID).First(&plant).Error
	if err != nil {
		return nil, base.HandleDBError("find", plantsTable, "plant_id="+plantID, err)
	}
	return &plant, nil
}

func (r *PlantRepository) Create(ctx context.Context, plant *models.Plant) error {
	if err := r.db.WithContext(ctx).Create(plant).Error; err != nil {
		return base.HandleDBError("create", plantsTable, plant.PlantID, err)
	}
	return nil
}

func (r *PlantRepository) UpdateInfo(ctx context.Context, plant *models.Plant) error {
	result := r.db.WithContext(ctx).Model(&models.Plant{}).
		Where("plant_id = ?", plant.PlantID).
		Updates(map[string]interface{}{
			"plant_no":   plant.PlantNo,
			"plant_name": plant.PlantName,
			"remark":     plant.Remark,
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return base.WrapDBError("update", plantsTable, result.Error)
	}
	if result.RowsAffected == 0 {
		return base.NewEntityNotFoundError(plantsTable, "plant_id="+plant.PlantID)
	}
	return nil
}

func (r *PlantRepository) List(ctx context.Context, limit, offset int) ([]models.Plant, error) {
	var plants []models.Plant
	query := paginate(r.db.WithContext(ctx).Order("updated_at desc, created_at desc"), limit, offset)
	if err := query.Find(&plants).Error; err != nil {
		return nil, base.WrapDBError("list", plantsTable, err)
	}
	return plants, nil
}

// Summary counts plants; a plant without a remark is considered active.
func (r *PlantRepository) Summary(ctx context.Context) (*models.PlantSummary, error) {
	var summary models.PlantSummary
	db := r.db.WithContext(ctx).Model(&models.Plant{})
	if err := db.Session(&gorm.Session{}).Count(&summary.Total).Error; err != nil {
		return nil, base.WrapDBError("summarize", plantsTable, err)
	}
	if err := db.Session(&gorm.Session{}).Where("remark IS NULL OR remark = ''").Count(&summary.Active).Error; err != nil {
		return nil, base.WrapDBError("summarize", plantsTable, err)
	}
	summary.WithRemarks = summary.Total - summary.Active
	return &summary, nil
}
