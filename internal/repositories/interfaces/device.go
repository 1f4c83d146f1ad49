package interfaces

import (
	"context"

	"saj-gateway/internal/models"
)

// DeviceRepositoryInterface persists mirrored devices keyed by serial number.
type DeviceRepositoryInterface interface {
	FindBySn(ctx context.Context, deviceSn string) (*models.Device, error)
	FindByID(ctx context.Context, id uint) (*models.Device, error)
	Create(ctx context.Context, device *models.Device) error
	// UpdateStatus touches only the online/alarm flags and updated_at.
	UpdateStatus(ctx context.Context, deviceSn string, isOnline, isAlarm bool) error
	UpdateClientSign(ctx context.Context, id uint, clientSign string) error
	List(ctx context.Context, limit, offset int) ([]models.Device, error)
	ListOffline(ctx context.Context, limit, offset int) ([]models.Device, error)
	Summary(ctx context.Context) (*models.DeviceSummary, error)
}
