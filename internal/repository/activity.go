package repository

import (
	"context"

	"playrewards/internal/models"

	"gorm.io/gorm"
)

// ActivityRepository reads the activity log.
type ActivityRepository interface {
	// GetLatestActivity returns up to limit records for userID, newest first.
	GetLatestActivity(ctx context.Context, userID uint, limit int) ([]models.ActivityRecord, error)
	Record(ctx context.Context, record *models.ActivityRecord) error
}

type activityRepository struct {
	db *gorm.DB
}

// NewActivityRepository returns a new ActivityRepository implementation.
func NewActivityRepository(db *gorm.DB) ActivityRepository {
	return &activityRepository{db: db}
}

func (r *activityRepository) GetLatestActivity(ctx context.Context, userID uint, limit int) ([]models.ActivityRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	var records []models.ActivityRecord
	if err := readDB(r.db).WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&records).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return records, nil
}

// Record appends an activity entry. Used by seeding and tests; production
// writes come from the gameplay services that own the log.
func (r *activityRepository) Record(ctx context.Context, record *models.ActivityRecord) error {
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}
