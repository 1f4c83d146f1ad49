package repositories

import (
	"context"
	"errors"
	"time"

	"saj-gateway/internal/database"
	"saj-gateway/internal/models"
	"saj-gateway/internal/repositories/base"
	"saj-gateway/internal/repositories/interfaces"

	"gorm.io/gorm"
)

const tokensTable = "saj_tokens"

// TokenRepository implements TokenRepositoryInterface.
type TokenRepository struct {
	db  *gorm.DB
	uow database.UnitOfWorkInterface
}

func NewTokenRepository(db *gorm.DB, uow database.UnitOfWorkInterface) interfaces.TokenRepositoryInterface {
	return &TokenRepository{db: db, uow: uow}
}

func (r *TokenRepository) FindValid(ctx context.Context, now time.Time) (*models.AccessToken, error) {
	var token models.AccessToken
	err := r.db.WithContext(ctx).
		Where("is_active = ? AND expires_at > ?", true, now.UTC()).
		Order("created_at desc, id desc").
		First(&token).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, base.WrapDBError("find", tokensTable, err)
	}
	return &token, nil
}

func (r *TokenRepository) FindLatestActive(ctx context.Context) (*models.AccessToken, error) {
	var token models.AccessToken
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("created_at desc, id desc").
		First(&token).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, base.WrapDBError("find", tokensTable, err)
	}
	return &token, nil
}

// ReplaceActive runs deactivate-then-insert in one transaction so readers
// never observe a window without an active token.
func (r *TokenRepository) ReplaceActive(ctx context.Context, token *models.AccessToken) error {
	token.IsActive = true
	token.ExpiresAt = token.ExpiresAt.UTC()
	return r.uow.Do(func(tx *gorm.DB) error {
		tx = tx.WithContext(ctx)
		if err := tx.Model(&models.AccessToken{}).Where("is_active = ?", true).Update("is_active", false).Error; err != nil {
			return base.WrapDBError("deactivate", tokensTable, err)
		}
		if err := tx.Create(token).Error; err != nil {
			return base.WrapDBError("create", tokensTable, err)
		}
		return nil
	})
}
