package repositories

import (
	"context"
	"fmt"
	"time"

	"saj-gateway/internal/models"
	"saj-gateway/internal/repositories/base"
	"saj-gateway/internal/repositories/interfaces"

	"gorm.io/gorm"
)

const devicesTable = "saj_devices"

// DeviceRepository implements DeviceRepositoryInterface.
type DeviceRepository struct {
	db *gorm.DB
}

func NewDeviceRepository(db *gorm.DB) interfaces.DeviceRepositoryInterface {
	return &DeviceRepository{db: db}
}

func (r *DeviceRepository) FindBySn(ctx context.Context, deviceSn string) (*models.Device, error) {
	var device models.Device
	err := r.db.WithContext(ctx).Where("device_sn = ?", deviceSn).First(&device).Error
	if err != nil {
		return nil, base.HandleDBError("find", devicesTable, "device_sn="+deviceSn, err)
	}
	return &device, nil
}

func (r *DeviceRepository) FindByID(ctx context.Context, id uint) (*models.Device, error) {
	var device models.Device
	if err := r.db.WithContext(ctx).First(&device, id).Error; err != nil {
		return nil, base.HandleDBError("find", devicesTable, fmt.Sprintf("id=%d", id), err)
	}
	return &device, nil
}

func (r *DeviceRepository) Create(ctx context.Context, device *models.Device) error {
	if err := r.db.WithContext(ctx).Create(device).Error; err != nil {
		return base.HandleDBError("create", devicesTable, device.DeviceSn, err)
	}
	return nil
}

func (r *DeviceRepository) UpdateStatus(ctx context.Context, deviceSn string, isOnline, isAlarm bool) error {
	result := r.db.WithContext(ctx).Model(&models.Device{}).
		Where("device_sn = ?", deviceSn).
		Updates(map[string]interface{}{
			"is_online":  isOnline,
			"is_alarm":   isAlarm,
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return base.WrapDBError("update", devicesTable, result.Error)
	}
	if result.RowsAffected == 0 {
		return base.NewEntityNotFoundError(devicesTable, "device_sn="+deviceSn)
	}
	return nil
}

func (r *DeviceRepository) UpdateClientSign(ctx context.Context, id uint, clientSign string) error {
	result := r.db.WithContext(ctx).Model(&models.Device{}).Where("id = ?", id).Update("client_sign", clientSign)
	if result.Error != nil {
		return base.WrapDBError("update", devicesTable, result.Error)
	}
	if result.RowsAffected == 0 {
		return base.NewEntityNotFoundError(devicesTable, fmt.Sprintf("id=%d", id))
	}
	return nil
}

// List returns devices most recently touched first. A non-positive limit means no limit.
func (r *DeviceRepository) List(ctx context.Context, limit, offset int) ([]models.Device, error) {
	var devices []models.Device
	query := paginate(r.db.WithContext(ctx).Order("updated_at desc, created_at desc"), limit, offset)
	if err := query.Find(&devices).Error; err != nil {
		return nil, base.WrapDBError("list", devicesTable, err)
	}
	return devices, nil
}

func (r *DeviceRepository) ListOffline(ctx context.Context, limit, offset int) ([]models.Device, error) {
	var devices []models.Device
	query := r.db.WithContext(ctx).Where("is_online = ?", false).Order("updated_at desc, created_at desc")
	if err := paginate(query, limit, offset).Find(&devices).Error; err != nil {
		return nil, base.WrapDBError("list", devicesTable, err)
	}
	return devices, nil
}

func (r *DeviceRepository) Summary(ctx context.Context) (*models.DeviceSummary, error) {
	var summary models.DeviceSummary
	db := r.db.WithContext(ctx).Model(&models.Device{})
	counts := []struct {
		dst   *int64
		query *gorm.DB
	}{
		{&summary.Total, db.Session(&gorm.Session{})},
		{&summary.Online, db.Session(&gorm.Session{}).Where("is_online = ?", true)},
		{&summary.Alarms, db.Session(&gorm.Session{}).Where("is_alarm = ?", true)},
		{&summary.Offline, db.Session(&gorm.Session{}).Where("is_online = ?", false)},
	}
	for _, c := range counts {
		if err := c.query.Count(c.dst).Error; err != nil {
			return nil, base.WrapDBError("summarize", devicesTable, err)
		}
	}
	return &summary, nil
}

func paginate(query *gorm.DB, limit, offset int) *gorm.DB {
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	return query
}
