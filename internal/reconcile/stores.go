package reconcile

import (
	"context"

	"saj-gateway/internal/models"
	"saj-gateway/internal/repositories/base"
	"saj-gateway/internal/repositories/interfaces"
	"saj-gateway/internal/saj"

	"go.uber.org/zap"
)

type (
	DeviceReconciler = Engine[models.DeviceRecord]
	PlantReconciler  = Engine[models.PlantRecord]
)

// NewDeviceReconciler builds the device engine. New devices get their
// clientSign computed when appID is set.
func NewDeviceReconciler(repo interfaces.DeviceRepositoryInterface, history interfaces.SyncHistoryRepositoryInterface, appID string, logger *zap.Logger) *DeviceReconciler {
	return NewEngine[models.DeviceRecord](models.SyncKindDevices, &deviceStore{repo: repo, appID: appID}, history, logger)
}

func NewPlantReconciler(repo interfaces.PlantRepositoryInterface, history interfaces.SyncHistoryRepositoryInterface, logger *zap.Logger) *PlantReconciler {
	return NewEngine[models.PlantRecord](models.SyncKindPlants, &plantStore{repo: repo}, history, logger)
}

type deviceStore struct {
	repo  interfaces.DeviceRepositoryInterface
	appID string
}

func (s *deviceStore) Key(record models.DeviceRecord) string {
	return record.Key()
}

func (s *deviceStore) Validate(record models.DeviceRecord) error {
	return record.DecodeErr()
}

func (s *deviceStore) Exists(ctx context.Context, key string) (bool, error) {
	return found(s.repo.FindBySn(ctx, key))
}

func (s *deviceStore) Insert(ctx context.Context, record models.DeviceRecord) (uint, error) {
	device := record.ToDevice()
	if s.appID != "" {
		device.ClientSign = saj.Sign(s.appID, device.DeviceSn)
	}
	if err := s.repo.Create(ctx, device); err != nil {
		return 0, err
	}
	return device.ID, nil
}

// Update only touches the status flags; identity and metadata stay as first seen.
func (s *deviceStore) Update(ctx context.Context, record models.DeviceRecord) error {
	return s.repo.UpdateStatus(ctx, record.Key(), record.IsOnline.Bool(), record.IsAlarm.Bool())
}

type plantStore struct {
	repo interfaces.PlantRepositoryInterface
}

func (s *plantStore) Key(record models.PlantRecord) string {
	return record.Key()
}

func (s *plantStore) Validate(record models.PlantRecord) error {
	return record.DecodeErr()
}

func (s *plantStore) Exists(ctx context.Context, key string) (bool, error) {
	return found(s.repo.FindByPlantID(ctx, key))
}

func (s *plantStore) Insert(ctx context.Context, record models.PlantRecord) (uint, error) {
	plant := record.ToPlant()
	if err := s.repo.Create(ctx, plant); err != nil {
		return 0, err
	}
	return plant.ID, nil
}

func (s *plantStore) Update(ctx context.Context, record models.PlantRecord) error {
	return s.repo.UpdateInfo(ctx, record.ToPlant())
}

func found[T any](row *T, err error) (bool, error) {
	if err != nil {
		if base.IsEntityNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return row != nil, nil
}
