package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"grocollect/internal/model"
)

type WebhookEventRepository interface {
	Record(ctx context.Context, reference, eventID, status string) error
}

type webhookEventRepositoryIml struct {
	db *gorm.DB
}

func NewWebhookEventRepository(db *gorm.DB) WebhookEventRepository {
	return &webhookEventRepositoryIml{db: db}
}

func (r *webhookEventRepositoryIml) Record(ctx context.Context, reference, eventID, status string) error {
	return r.db.WithContext(ctx).Create(&model.WebhookEvent{
		EventID:     eventID,
		Reference:   reference,
		Status:      status,
		ProcessedAt: time.Now(),
	}).Error
}
