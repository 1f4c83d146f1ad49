package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"saj-gateway/internal/handlers/base"
	"saj-gateway/internal/models"
	repobase "saj-gateway/internal/repositories/base"
	"saj-gateway/internal/saj"
	"saj-gateway/internal/services"
	"saj-gateway/internal/token"
	"saj-gateway/internal/utils"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const (
	defaultOfflineLimit = 50
	defaultHistoryLimit = 10
	clientDateLayout    = "2006-01-02 15:04:05"
)

var timeUnitNames = []string{"minute", "day", "month", "year"}

// GatewayHandler exposes the gateway service over HTTP.
type GatewayHandler struct {
	svc    *services.GatewayService
	logger *zap.Logger
}

func NewGatewayHandler(svc *services.GatewayService, logger *zap.Logger) *GatewayHandler {
	return &GatewayHandler{
		svc:    svc,
		logger: logger.With(zap.String("component", "gateway_handler")),
	}
}

// ===================================================================
// TOKEN
// ===================================================================

func (h *GatewayHandler) RequestToken(c echo.Context) error {
	data, err := h.svc.RequestToken(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, data)
}

func (h *GatewayHandler) TokenStatus(c echo.Context) error {
	status, err := h.svc.TokenStatus(c.Request().Context())
	if err != nil {
		return utils.NewInternalServerError("Failed to get token status", err)
	}
	return c.JSON(http.StatusOK, status)
}

// ===================================================================
// VENDOR LISTINGS
// ===================================================================

func (h *GatewayHandler) VendorDevices(c echo.Context) error {
	page := base.ExtractOptionalIntParam(c, "page", 1)
	pageSize := base.ExtractOptionalIntParam(c, "pageSize", 100)

	env, err := h.svc.VendorDevices(c.Request().Context(), page, pageSize)
	if err != nil {
		return utils.NewInternalServerError("Failed to fetch devices", err)
	}
	return c.JSON(http.StatusOK, env)
}

func (h *GatewayHandler) VendorPlants(c echo.Context) error {
	pageNum := base.ExtractOptionalIntParam(c, "pageNum", 1)
	pageSize := base.ExtractOptionalIntParam(c, "pageSize", 100)

	env, err := h.svc.VendorPlants(c.Request().Context(), pageNum, pageSize)
	if err != nil {
		return utils.NewInternalServerError("Failed to fetch plants", err)
	}
	return c.JSON(http.StatusOK, env)
}

// ===================================================================
// SYNC
// ===================================================================

type syncDevicesRequest struct {
	Devices []models.DeviceRecord `json:"devices"`
}

type syncPlantsRequest struct {
	Plants []models.PlantRecord `json:"plants"`
}

type generateSignaturesRequest struct {
	DeviceIDs []uint `json:"deviceIds"`
}

func (h *GatewayHandler) SyncDevices(c echo.Context) error {
	var req syncDevicesRequest
	if err := c.Bind(&req); err != nil {
		return utils.NewBadRequestError("Invalid request body", err.Error(), err)
	}
	if req.Devices == nil {
		return utils.NewBadRequestError("Invalid request body", "devices array is required")
	}

	result, err := h.svc.SyncDevices(c.Request().Context(), req.Devices)
	if err != nil {
		return utils.NewInternalServerError("Database sync failed", err)
	}
	return c.JSON(http.StatusOK, deviceSyncResponse(result))
}

func (h *GatewayHandler) PullDevices(c echo.Context) error {
	result, err := h.svc.PullDevices(c.Request().Context())
	if err != nil {
		return utils.NewInternalServerError("Database sync failed", err)
	}
	return c.JSON(http.StatusOK, deviceSyncResponse(result))
}

func (h *GatewayHandler) SyncPlants(c echo.Context) error {
	var req syncPlantsRequest
	if err := c.Bind(&req); err != nil {
		return utils.NewBadRequestError("Invalid request body", err.Error(), err)
	}
	if req.Plants == nil {
		return utils.NewBadRequestError("Invalid request body", "plants array is required")
	}

	result, err := h.svc.SyncPlants(c.Request().Context(), req.Plants)
	if err != nil {
		return utils.NewInternalServerError("Plant database sync failed", err)
	}
	return c.JSON(http.StatusOK, plantSyncResponse(result))
}

func (h *GatewayHandler) PullPlants(c echo.Context) error {
	result, err := h.svc.PullPlants(c.Request().Context())
	if err != nil {
		return utils.NewInternalServerError("Plant database sync failed", err)
	}
	return c.JSON(http.StatusOK, plantSyncResponse(result))
}

func (h *GatewayHandler) GenerateSignatures(c echo.Context) error {
	var req generateSignaturesRequest
	if err := c.Bind(&req); err != nil {
		return utils.NewBadRequestError("Invalid request body", err.Error(), err)
	}

	generated, err := h.svc.GenerateSignatures(c.Request().Context(), req.DeviceIDs)
	if err != nil {
		return utils.NewInternalServerError("Failed to generate client signatures", err)
	}
	return base.SendSuccess(c, map[string]interface{}{"generated": generated})
}

func (h *GatewayHandler) DeviceSyncHistory(c echo.Context) error {
	runs, err := h.svc.DeviceSyncHistory(c.Request().Context(), base.ExtractOptionalIntParam(c, "limit", defaultHistoryLimit))
	if err != nil {
		return utils.NewInternalServerError("Failed to fetch sync history", err)
	}
	return c.JSON(http.StatusOK, runs)
}

func (h *GatewayHandler) PlantSyncHistory(c echo.Context) error {
	runs, err := h.svc.PlantSyncHistory(c.Request().Context(), base.ExtractOptionalIntParam(c, "limit", defaultHistoryLimit))
	if err != nil {
		return utils.NewInternalServerError("Failed to fetch plant sync history", err)
	}
	return c.JSON(http.StatusOK, runs)
}

func deviceSyncResponse(result *models.SyncResult) map[string]interface{} {
	return map[string]interface{}{
		"success":        true,
		"syncId":         result.RunID,
		"newDevices":     result.NewCount,
		"updatedDevices": result.UpdatedCount,
		"failedDevices":  result.FailedCount,
		"totalProcessed": result.TotalProcessed,
		"newDeviceIds":   result.NewIDs,
	}
}

func plantSyncResponse(result *models.SyncResult) map[string]interface{} {
	return map[string]interface{}{
		"success":        true,
		"syncId":         result.RunID,
		"newPlants":      result.NewCount,
		"updatedPlants":  result.UpdatedCount,
		"failedPlants":   result.FailedCount,
		"totalProcessed": result.TotalProcessed,
		"newPlantIds":    result.NewIDs,
	}
}

// ===================================================================
// LOCAL MIRROR
// ===================================================================

func (h *GatewayHandler) ListDevices(c echo.Context) error {
	p := base.ExtractPaginationParams(c, 0)
	devices, err := h.svc.ListDevices(c.Request().Context(), p.Limit, p.Offset)
	if err != nil {
		return utils.NewInternalServerError("Failed to fetch devices", err)
	}
	return c.JSON(http.StatusOK, devices)
}

func (h *GatewayHandler) DeviceSummary(c echo.Context) error {
	summary, err := h.svc.DeviceSummary(c.Request().Context())
	if err != nil {
		return utils.NewInternalServerError("Failed to get device summary", err)
	}
	return c.JSON(http.StatusOK, summary)
}

func (h *GatewayHandler) OfflineDevices(c echo.Context) error {
	p := base.ExtractPaginationParams(c, defaultOfflineLimit)
	devices, err := h.svc.OfflineDevices(c.Request().Context(), p.Limit, p.Offset)
	if err != nil {
		return utils.NewInternalServerError("Failed to get offline devices", err)
	}
	return c.JSON(http.StatusOK, devices)
}

// GetDevice answers from the store and falls back to a placeholder built
// from the serial, so the dashboard can render unknown devices.
func (h *GatewayHandler) GetDevice(c echo.Context) error {
	deviceSn := c.Param("deviceSn")
	if device := h.svc.FindDevice(c.Request().Context(), deviceSn); device != nil {
		return c.JSON(http.StatusOK, device)
	}

	now := time.Now().UTC()
	return c.JSON(http.StatusOK, map[string]interface{}{
		"deviceSn":   deviceSn,
		"deviceName": "Device " + utils.LastN(deviceSn, 8),
		"status":     "unknown",
		"createdAt":  now,
		"updatedAt":  now,
	})
}

type deviceSnRequest struct {
	DeviceSn string `json:"deviceSn"`
}

func (h *GatewayHandler) TestDevice(c echo.Context) error {
	var req deviceSnRequest
	if err := c.Bind(&req); err != nil {
		return utils.NewBadRequestError("Invalid request body", err.Error(), err)
	}
	deviceSn := strings.TrimSpace(req.DeviceSn)
	if deviceSn == "" {
		return utils.NewBadRequestError("Device SN is required", "")
	}

	result, err := h.svc.TestDevice(c.Request().Context(), deviceSn)
	if err != nil {
		var authErr *token.AuthError
		var apiErr *saj.APIError
		if !errors.As(err, &authErr) && errors.As(err, &apiErr) {
			return base.SendFailure(c, http.StatusBadRequest, "Device not found or inaccessible", utils.GetValueOrDefault(apiErr.Msg, "Unknown error from SAJ API"))
		}
		return utils.NewInternalServerError("Failed to test device", err)
	}
	return base.SendSuccess(c, map[string]interface{}{
		"message": "Device found and accessible",
		"device":  result,
	})
}

func (h *GatewayHandler) AddDevice(c echo.Context) error {
	var req services.AddDeviceRequest
	if err := c.Bind(&req); err != nil {
		return utils.NewBadRequestError("Invalid request body", err.Error(), err)
	}
	if strings.TrimSpace(req.DeviceSn) == "" {
		return utils.NewBadRequestError("Device SN is required", "")
	}

	device, err := h.svc.AddDevice(c.Request().Context(), req)
	if err != nil {
		if repobase.IsDuplicateEntity(err) {
			return base.SendFailure(c, http.StatusBadRequest, "Device already exists",
				"Device "+strings.TrimSpace(req.DeviceSn)+" is already in the database")
		}
		return utils.NewInternalServerError("Failed to add device to database", err)
	}
	return base.SendSuccess(c, map[string]interface{}{
		"message": "Device added successfully",
		"device":  device,
	})
}

func (h *GatewayHandler) ListPlants(c echo.Context) error {
	p := base.ExtractPaginationParams(c, 0)
	plants, err := h.svc.ListPlants(c.Request().Context(), p.Limit, p.Offset)
	if err != nil {
		return utils.NewInternalServerError("Failed to fetch plants", err)
	}
	return c.JSON(http.StatusOK, plants)
}

func (h *GatewayHandler) PlantSummary(c echo.Context) error {
	summary, err := h.svc.PlantSummary(c.Request().Context())
	if err != nil {
		return utils.NewInternalServerError("Failed to get plant summary", err)
	}
	return c.JSON(http.StatusOK, summary)
}

// ===================================================================
// TELEMETRY
// ===================================================================

func (h *GatewayHandler) Realtime(c echo.Context) error {
	data, err := h.svc.Realtime(c.Request().Context(), c.Param("deviceSn"))
	if err != nil {
		return utils.NewInternalServerError("Failed to get real-time data", err)
	}
	if len(data) == 0 {
		return c.JSON(http.StatusOK, nil)
	}
	return c.JSONBlob(http.StatusOK, data)
}

func (h *GatewayHandler) Historical(c echo.Context) error {
	q, missing := base.ExtractRequiredQuery(c, "startTime", "endTime")
	if len(missing) > 0 {
		return utils.NewBadRequestError("Missing required parameters", "startTime and endTime are required")
	}

	env, err := h.svc.History(c.Request().Context(), c.Param("deviceSn"), q["startTime"], q["endTime"])
	if err != nil {
		return utils.NewInternalServerError("Failed to get historical data", err)
	}
	return c.JSON(http.StatusOK, env)
}

type envelopeWithInfo struct {
	*saj.Envelope
	RequestInfo interface{} `json:"requestInfo"`
}

func (h *GatewayHandler) UploadData(c echo.Context) error {
	q, missing := base.ExtractRequiredQuery(c, "startTime", "endTime", "timeUnit")
	timeUnit, err := strconv.Atoi(q["timeUnit"])
	if len(missing) > 0 || err != nil || timeUnit < 0 || timeUnit >= len(timeUnitNames) {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"error":   "Missing required parameters",
			"message": "startTime, endTime and timeUnit are required",
			"timeUnitOptions": map[string]string{
				"0": "minute data",
				"1": "day data",
				"2": "month data",
				"3": "year data",
			},
		})
	}

	deviceSn := c.Param("deviceSn")
	env, err := h.svc.UploadData(c.Request().Context(), deviceSn, q["startTime"], q["endTime"], timeUnit)
	if err != nil {
		return utils.NewInternalServerError("Failed to get upload data", err)
	}
	return c.JSON(http.StatusOK, envelopeWithInfo{
		Envelope: env,
		RequestInfo: map[string]interface{}{
			"deviceSn":     deviceSn,
			"startTime":    q["startTime"],
			"endTime":      q["endTime"],
			"timeUnit":     timeUnit,
			"timeUnitName": timeUnitNames[timeUnit],
			"dataPoints":   dataPoints(env),
		},
	})
}

func (h *GatewayHandler) PlantGeneration(c echo.Context) error {
	plantID := c.Param("plantId")
	clientDate := utils.GetValueOrDefault(c.QueryParam("clientDate"), time.Now().UTC().Format(clientDateLayout))

	env, err := h.svc.PlantGeneration(c.Request().Context(), plantID, clientDate)
	if err != nil {
		return utils.NewInternalServerError("Failed to get plant generation data", err)
	}
	return c.JSON(http.StatusOK, envelopeWithInfo{
		Envelope: env,
		RequestInfo: map[string]interface{}{
			"plantId":     plantID,
			"clientDate":  clientDate,
			"requestTime": time.Now().UTC().Format(time.RFC3339),
		},
	})
}

// ===================================================================
// SERVICE
// ===================================================================

func (h *GatewayHandler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"service":   "SAJ API Gateway",
		"version":   Version,
	})
}

func (h *GatewayHandler) Index(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"message":     "SAJ Solar API Gateway",
		"description": "Proxy and local mirror for SAJ solar inverter devices and plants",
		"endpoints": map[string]string{
			"health":   "/health",
			"devices":  "/api/devices",
			"plants":   "/api/plants",
			"realtime": "/api/devices/:deviceSn/realtime",
			"sync":     "/api/devices/sync",
		},
		"status": "ready",
	})
}

// dataPoints counts the entries of an array payload; other payloads count as 0.
func dataPoints(env *saj.Envelope) int {
	var points []json.RawMessage
	if err := json.Unmarshal(env.Data, &points); err != nil {
		return 0
	}
	return len(points)
}
