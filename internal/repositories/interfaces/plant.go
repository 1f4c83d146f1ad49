package interfaces

import (
	"context"

	"saj-gateway/internal/models"
)

// PlantRepositoryInterface persists mirrored plants keyed by plant id.
type PlantRepositoryInterface interface {
	FindByPlantID(ctx context.Context, plantID string) (*models.Plant, error)
	Create(ctx context.Context, plant *models.Plant) error
	// UpdateInfo touches only plant number, name, remark and updated_at.
	UpdateInfo(ctx context.Context, plant *models.Plant) error
	List(ctx context.Context, limit, offset int) ([]models.Plant, error)
	Summary(ctx context.Context) (*models.PlantSummary, error)
}
