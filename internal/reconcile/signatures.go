package reconcile

import (
	"context"
	"fmt"

	"saj-gateway/internal/repositories/base"
	"saj-gateway/internal/repositories/interfaces"
	"saj-gateway/internal/saj"

	"go.uber.org/zap"
)

// SignatureGenerator backfills clientSign for stored devices.
type SignatureGenerator struct {
	repo   interfaces.DeviceRepositoryInterface
	appID  string
	logger *zap.Logger
}

func NewSignatureGenerator(repo interfaces.DeviceRepositoryInterface, appID string, logger *zap.Logger) *SignatureGenerator {
	return &SignatureGenerator{
		repo:   repo,
		appID:  appID,
		logger: logger.With(zap.String("component", "signature_generator")),
	}
}

// Generate signs the devices with the given row ids and returns how many
// were written. Unknown ids are skipped.
func (g *SignatureGenerator) Generate(ctx context.Context, ids []uint) (int, error) {
	generated := 0
	for _, id := range ids {
		device, err := g.repo.FindByID(ctx, id)
		if base.IsEntityNotFound(err) {
			g.logger.Warn("Device not found, skipping signature", zap.Uint("id", id))
			continue
		}
		if err != nil {
			return generated, fmt.Errorf("failed to load device %d: %w", id, err)
		}
		if err := g.repo.UpdateClientSign(ctx, id, saj.Sign(g.appID, device.DeviceSn)); err != nil {
			return generated, fmt.Errorf("failed to store signature for device %d: %w", id, err)
		}
		generated++
	}
	g.logger.Info("Client signatures generated", zap.Int("generated", generated), zap.Int("requested", len(ids)))
	return generated, nil
}
