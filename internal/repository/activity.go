package repository

import (
	"context"

	"gorm.io/gorm"

	"grocollect/internal/model"
)

// ActivityRepository is the append-only audit sink. Entries are written
// as a side effect of every core transition and never updated.
type ActivityRepository interface {
	Append(ctx context.Context, entry *model.ActivityLog) error
	ListByEntity(ctx context.Context, entityType, entityID string) ([]*model.ActivityLog, error)
}

type activityRepoImpl struct {
	db *gorm.DB
}

func NewActivityRepository(db *gorm.DB) ActivityRepository {
	return &activityRepoImpl{
		db: db,
	}
}

func (r *activityRepoImpl) Append(ctx context.Context, entry *model.ActivityLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *activityRepoImpl) ListByEntity(ctx context.Context, entityType, entityID string) ([]*model.ActivityLog, error) {
	var entries []*model.ActivityLog
	err := r.db.WithContext(ctx).
		Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		Order("id").
		Find(&entries).Error

	if err != nil {
		return nil, err
	}

	return entries, nil
}
