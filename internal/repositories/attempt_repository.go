package repositories

import (
	"context"
	"time"

	"gorm.io/gorm"
	"pixtouch/internal/models/db_models"
)

type AttemptRepository interface {
	Insert(ctx context.Context, attempt *db_models.SignupAttempt) error
	CountSuccessfulSince(ctx context.Context, ip string, since time.Time) (int64, error)
	// MarkSucceeded flips the pending attempt rows for this ip/email pair
	// once the signup completes, so they start counting toward the cap.
	MarkSucceeded(ctx context.Context, ip, email string) error
}

type attemptRepository struct {
	db *gorm.DB
}

func NewAttemptRepository(db *gorm.DB) AttemptRepository {
	return &attemptRepository{
		db: db,
	}
}

func (r *attemptRepository) Insert(ctx context.Context, attempt *db_models.SignupAttempt) error {
	return r.db.WithContext(ctx).Create(attempt).Error
}

func (r *attemptRepository) CountSuccessfulSince(ctx context.Context, ip string, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&db_models.SignupAttempt{}).
		Where("ip_address = ? AND success = ? AND created_at >= ?", ip, true, since.Unix()).
		Count(&count).Error
	return count, err
}

func (r *attemptRepository) MarkSucceeded(ctx context.Context, ip, email string) error {
	return r.db.WithContext(ctx).Model(&db_models.SignupAttempt{}).
		Where("ip_address = ? AND email = ? AND success = ?", ip, email, false).
		Update("success", true).Error
}
