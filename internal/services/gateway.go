package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"saj-gateway/internal/models"
	"saj-gateway/internal/mqtt"
	"saj-gateway/internal/reconcile"
	"saj-gateway/internal/repositories/base"
	"saj-gateway/internal/repositories/interfaces"
	"saj-gateway/internal/saj"
	"saj-gateway/internal/utils"

	"go.uber.org/zap"
)

// TokenProvider hands out vendor access tokens.
type TokenProvider interface {
	ValidToken(ctx context.Context) (string, error)
	Refresh(ctx context.Context) (*saj.TokenData, error)
	Status(ctx context.Context) (*models.TokenStatus, error)
}

// Upstream is the set of vendor data calls the gateway proxies.
type Upstream interface {
	DevicePage(ctx context.Context, token string, pageNum, pageSize int) (*saj.DevicePage, error)
	PlantPage(ctx context.Context, token string, pageNum, pageSize int) (*saj.PlantPage, error)
	Realtime(ctx context.Context, token, deviceSn string) (*saj.Envelope, error)
	History(ctx context.Context, token, deviceSn, startTime, endTime string) (*saj.Envelope, error)
	UploadData(ctx context.Context, token, deviceSn, startTime, endTime string, timeUnit int) (*saj.Envelope, error)
	PlantEnergy(ctx context.Context, token, plantID, clientDate string) (*saj.Envelope, error)
	ProbeDevice(ctx context.Context, token, deviceSn string) (*saj.Envelope, error)
}

// GatewayService implements the gateway use cases on top of the token
// provider, the vendor client and the local mirror.
type GatewayService struct {
	tokens     TokenProvider
	upstream   Upstream
	devices    interfaces.DeviceRepositoryInterface
	plants     interfaces.PlantRepositoryInterface
	deviceSync *reconcile.DeviceReconciler
	plantSync  *reconcile.PlantReconciler
	signer     *reconcile.SignatureGenerator
	events     mqtt.Publisher
	logger     *zap.Logger
}

func NewGatewayService(
	tokens TokenProvider,
	upstream Upstream,
	devices interfaces.DeviceRepositoryInterface,
	plants interfaces.PlantRepositoryInterface,
	deviceSync *reconcile.DeviceReconciler,
	plantSync *reconcile.PlantReconciler,
	signer *reconcile.SignatureGenerator,
	events mqtt.Publisher,
	logger *zap.Logger,
) *GatewayService {
	if events == nil {
		events = mqtt.NopPublisher{}
	}
	return &GatewayService{
		tokens:     tokens,
		upstream:   upstream,
		devices:    devices,
		plants:     plants,
		deviceSync: deviceSync,
		plantSync:  plantSync,
		signer:     signer,
		events:     events,
		logger:     logger.With(zap.String("component", "gateway_service")),
	}
}

// ===================================================================
// TOKEN
// ===================================================================

func (s *GatewayService) RequestToken(ctx context.Context) (*saj.TokenData, error) {
	return s.tokens.Refresh(ctx)
}

func (s *GatewayService) TokenStatus(ctx context.Context) (*models.TokenStatus, error) {
	return s.tokens.Status(ctx)
}

// ===================================================================
// VENDOR LISTINGS
// ===================================================================

func (s *GatewayService) VendorDevices(ctx context.Context, pageNum, pageSize int) (*saj.Envelope, error) {
	token, err := s.tokens.ValidToken(ctx)
	if err != nil {
		return nil, err
	}
	page, err := s.upstream.DevicePage(ctx, token, pageNum, pageSize)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Vendor device page fetched", zap.Int("page", pageNum), zap.Int("rows", len(page.Records)))
	return page.Envelope, nil
}

func (s *GatewayService) VendorPlants(ctx context.Context, pageNum, pageSize int) (*saj.Envelope, error) {
	token, err := s.tokens.ValidToken(ctx)
	if err != nil {
		return nil, err
	}
	page, err := s.upstream.PlantPage(ctx, token, pageNum, pageSize)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Vendor plant page fetched", zap.Int("page", pageNum), zap.Int("rows", len(page.Records)))
	return page.Envelope, nil
}

// ===================================================================
// SYNC
// ===================================================================

func (s *GatewayService) SyncDevices(ctx context.Context, records []models.DeviceRecord) (*models.SyncResult, error) {
	result, err := s.deviceSync.Reconcile(ctx, records)
	if err != nil {
		return nil, err
	}
	s.announce(result)
	return result, nil
}

func (s *GatewayService) SyncPlants(ctx context.Context, records []models.PlantRecord) (*models.SyncResult, error) {
	result, err := s.plantSync.Reconcile(ctx, records)
	if err != nil {
		return nil, err
	}
	s.announce(result)
	return result, nil
}

// PullDevices reads the whole vendor device listing and reconciles it.
func (s *GatewayService) PullDevices(ctx context.Context) (*models.SyncResult, error) {
	token, err := s.tokens.ValidToken(ctx)
	if err != nil {
		return nil, err
	}
	records, err := reconcile.CollectPages(ctx, func(ctx context.Context, pageNum, pageSize int) ([]models.DeviceRecord, int, error) {
		page, err := s.upstream.DevicePage(ctx, token, pageNum, pageSize)
		if err != nil {
			return nil, 0, err
		}
		return page.Records, page.Total, nil
	})
	if err != nil {
		return nil, err
	}
	return s.SyncDevices(ctx, records)
}

// PullPlants reads the whole vendor plant listing and reconciles it.
func (s *GatewayService) PullPlants(ctx context.Context) (*models.SyncResult, error) {
	token, err := s.tokens.ValidToken(ctx)
	if err != nil {
		return nil, err
	}
	records, err := reconcile.CollectPages(ctx, func(ctx context.Context, pageNum, pageSize int) ([]models.PlantRecord, int, error) {
		page, err := s.upstream.PlantPage(ctx, token, pageNum, pageSize)
		if err != nil {
			return nil, 0, err
		}
		return page.Records, page.Total, nil
	})
	if err != nil {
		return nil, err
	}
	return s.SyncPlants(ctx, records)
}

func (s *GatewayService) GenerateSignatures(ctx context.Context, ids []uint) (int, error) {
	return s.signer.Generate(ctx, ids)
}

func (s *GatewayService) DeviceSyncHistory(ctx context.Context, limit int) ([]models.SyncRun, error) {
	return s.deviceSync.Recent(ctx, limit)
}

func (s *GatewayService) PlantSyncHistory(ctx context.Context, limit int) ([]models.SyncRun, error) {
	return s.plantSync.Recent(ctx, limit)
}

func (s *GatewayService) announce(result *models.SyncResult) {
	if err := s.events.PublishSyncResult(result); err != nil {
		s.logger.Warn("Failed to publish sync result", zap.Uint("run_id", result.RunID), zap.Error(err))
	}
}

// ===================================================================
// LOCAL MIRROR
// ===================================================================

func (s *GatewayService) ListDevices(ctx context.Context, limit, offset int) ([]models.Device, error) {
	return s.devices.List(ctx, limit, offset)
}

func (s *GatewayService) OfflineDevices(ctx context.Context, limit, offset int) ([]models.Device, error) {
	return s.devices.ListOffline(ctx, limit, offset)
}

func (s *GatewayService) DeviceSummary(ctx context.Context) (*models.DeviceSummary, error) {
	return s.devices.Summary(ctx)
}

// FindDevice returns the stored device or nil. Store failures are logged
// and reported as a miss so callers can fall back to a placeholder.
func (s *GatewayService) FindDevice(ctx context.Context, deviceSn string) *models.Device {
	device, err := s.devices.FindBySn(ctx, deviceSn)
	if err != nil {
		if !base.IsEntityNotFound(err) {
			s.logger.Warn("Device lookup failed, continuing without store", zap.String("device_sn", deviceSn), zap.Error(err))
		}
		return nil
	}
	return device
}

// AddDeviceRequest is a manually registered device.
type AddDeviceRequest struct {
	DeviceSn   string `json:"deviceSn"`
	PlantName  string `json:"plantName"`
	DeviceType string `json:"deviceType"`
	Country    string `json:"country"`
}

// AddDevice stores a device outside of sync, offline and without alarm.
// It fails with a DuplicateEntityError when the serial is already known.
func (s *GatewayService) AddDevice(ctx context.Context, req AddDeviceRequest) (*models.Device, error) {
	deviceSn := strings.TrimSpace(req.DeviceSn)
	if existing := s.FindDevice(ctx, deviceSn); existing != nil {
		return nil, base.NewDuplicateEntityError("saj_devices", "device_sn", deviceSn)
	}

	device := &models.Device{
		DeviceSn:   deviceSn,
		PlantName:  utils.GetValueOrDefault(req.PlantName, "Manually Added Plant"),
		DeviceType: utils.GetValueOrDefault(req.DeviceType, "Unknown Type"),
		Country:    utils.GetValueOrDefault(req.Country, "Unknown"),
	}
	if err := s.devices.Create(ctx, device); err != nil {
		return nil, err
	}
	s.logger.Info("Device added manually", zap.String("device_sn", deviceSn), zap.Uint("id", device.ID))
	return device, nil
}

func (s *GatewayService) ListPlants(ctx context.Context, limit, offset int) ([]models.Plant, error) {
	return s.plants.List(ctx, limit, offset)
}

func (s *GatewayService) PlantSummary(ctx context.Context) (*models.PlantSummary, error) {
	return s.plants.Summary(ctx)
}

// ===================================================================
// TELEMETRY
// ===================================================================

// Realtime returns the data part of the realtime envelope and publishes it.
func (s *GatewayService) Realtime(ctx context.Context, deviceSn string) (json.RawMessage, error) {
	token, err := s.tokens.ValidToken(ctx)
	if err != nil {
		return nil, err
	}
	env, err := s.upstream.Realtime(ctx, token, deviceSn)
	if err != nil {
		return nil, err
	}
	if len(env.Data) > 0 {
		if err := s.events.PublishRealtime(deviceSn, env.Data); err != nil {
			s.logger.Warn("Failed to publish realtime data", zap.String("device_sn", deviceSn), zap.Error(err))
		}
	}
	return env.Data, nil
}

func (s *GatewayService) History(ctx context.Context, deviceSn, startTime, endTime string) (*saj.Envelope, error) {
	token, err := s.tokens.ValidToken(ctx)
	if err != nil {
		return nil, err
	}
	return s.upstream.History(ctx, token, deviceSn, startTime, endTime)
}

func (s *GatewayService) UploadData(ctx context.Context, deviceSn, startTime, endTime string, timeUnit int) (*saj.Envelope, error) {
	token, err := s.tokens.ValidToken(ctx)
	if err != nil {
		return nil, err
	}
	return s.upstream.UploadData(ctx, token, deviceSn, startTime, endTime, timeUnit)
}

func (s *GatewayService) PlantGeneration(ctx context.Context, plantID, clientDate string) (*saj.Envelope, error) {
	token, err := s.tokens.ValidToken(ctx)
	if err != nil {
		return nil, err
	}
	return s.upstream.PlantEnergy(ctx, token, plantID, clientDate)
}

// ProbeResult is the basic device view returned by a successful probe.
type ProbeResult struct {
	DeviceSn   string  `json:"deviceSn"`
	PlantName  string  `json:"plantName"`
	DeviceType string  `json:"deviceType"`
	Country    string  `json:"country"`
	IsOnline   bool    `json:"isOnline"`
	IsAlarm    bool    `json:"isAlarm"`
	PowerNow   float64 `json:"powerNow"`
}

type probeData struct {
	PlantName  string          `json:"plantName"`
	DeviceType string          `json:"deviceType"`
	Country    string          `json:"country"`
	IsOnline   models.FlexBool `json:"isOnline"`
	IsAlarm    models.FlexBool `json:"isAlarm"`
	PowerNow   json.Number     `json:"powerNow"`
}

// TestDevice checks a serial against the vendor before it is added.
func (s *GatewayService) TestDevice(ctx context.Context, deviceSn string) (*ProbeResult, error) {
	token, err := s.tokens.ValidToken(ctx)
	if err != nil {
		return nil, err
	}
	env, err := s.upstream.ProbeDevice(ctx, token, deviceSn)
	if err != nil {
		return nil, err
	}

	var data probeData
	if len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, &data); err != nil {
			return nil, fmt.Errorf("failed to decode probe response: %w", err)
		}
	}
	power, _ := data.PowerNow.Float64()
	return &ProbeResult{
		DeviceSn:   deviceSn,
		PlantName:  utils.GetValueOrDefault(data.PlantName, "Unknown Plant"),
		DeviceType: utils.GetValueOrDefault(data.DeviceType, "Unknown Type"),
		Country:    utils.GetValueOrDefault(data.Country, "Unknown"),
		IsOnline:   data.IsOnline.Bool(),
		IsAlarm:    data.IsAlarm.Bool(),
		PowerNow:   power,
	}, nil
}
