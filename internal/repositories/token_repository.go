package repositories

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"pixtouch/internal/models/db_models"
)

type TokenRepository interface {
	Insert(ctx context.Context, token *db_models.VerificationToken) error
	FindByToken(ctx context.Context, token string) (*db_models.VerificationToken, error)
	// Consume deletes the token row; the rows-affected result makes it
	// single-use even under racing verification requests.
	Consume(tx *gorm.DB, token string) (bool, error)
	DeleteByIdentifier(ctx context.Context, identifier string) error
}

type tokenRepository struct {
	db *gorm.DB
}

func NewTokenRepository(db *gorm.DB) TokenRepository {
	return &tokenRepository{
		db: db,
	}
}

func (r *tokenRepository) Insert(ctx context.Context, token *db_models.VerificationToken) error {
	return r.db.WithContext(ctx).Create(token).Error
}

func (r *tokenRepository) FindByToken(ctx context.Context, token string) (*db_models.VerificationToken, error) {
	var row db_models.VerificationToken
	err := r.db.WithContext(ctx).First(&row, "token = ?", token).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *tokenRepository) Consume(tx *gorm.DB, token string) (bool, error) {
	res := tx.Unscoped().Delete(&db_models.VerificationToken{}, "token = ?", token)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *tokenRepository) DeleteByIdentifier(ctx context.Context, identifier string) error {
	return r.db.WithContext(ctx).Unscoped().
		Delete(&db_models.VerificationToken{}, "identifier = ?", identifier).Error
}
