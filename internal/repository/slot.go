package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"grocollect/internal/model"
)

type SlotRepository interface {
	Seed(ctx context.Context) error
	FindByID(ctx context.Context, slotID string) (*model.PickupSlot, error)
	List(ctx context.Context, date string) ([]*model.PickupSlot, error)
	// DecrementRemaining takes one unit of capacity; false means the
	// slot is full or inactive.
	DecrementRemaining(ctx context.Context, tx *gorm.DB, slotID string) (bool, error)
	IncrementRemaining(ctx context.Context, tx *gorm.DB, slotID string) error
}

type slotRepoImpl struct {
	db *gorm.DB
}

func NewSlotRepository(db *gorm.DB) SlotRepository {
	return &slotRepoImpl{
		db: db,
	}
}

func (r *slotRepoImpl) Seed(ctx context.Context) error {
	windows := [][2]string{{"09:00", "11:00"}, {"11:00", "13:00"}, {"15:00", "17:00"}}

	var slots []model.PickupSlot
	for day := 0; day < 3; day++ {
		date := time.Now().AddDate(0, 0, day).Format("2006-01-02")
		for i, w := range windows {
			slots = append(slots, model.PickupSlot{
				ID:        fmt.Sprintf("slot-%s-%d", date, i+1),
				Date:      date,
				TimeFrom:  w[0],
				TimeTo:    w[1],
				Capacity:  10,
				Remaining: 10,
				IsActive:  true,
			})
		}
	}

	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&slots).Error
}

func (r *slotRepoImpl) FindByID(ctx context.Context, slotID string) (*model.PickupSlot, error) {
	var slot model.PickupSlot
	err := r.db.WithContext(ctx).
		Where("id = ?", slotID).
		First(&slot).Error

	if err != nil {
		return nil, err
	}

	return &slot, nil
}

func (r *slotRepoImpl) List(ctx context.Context, date string) ([]*model.PickupSlot, error) {
	q := r.db.WithContext(ctx).Where("is_active = ?", true)
	if date != "" {
		q = q.Where("date = ?", date)
	}

	var slots []*model.PickupSlot
	if err := q.Order("date, time_from").Find(&slots).Error; err != nil {
		return nil, err
	}

	return slots, nil
}

func (r *slotRepoImpl) DecrementRemaining(ctx context.Context, tx *gorm.DB, slotID string) (bool, error) {
	result := tx.WithContext(ctx).Model(&model.PickupSlot{}).
		Where("id = ? AND remaining > 0 AND is_active = ?", slotID, true).
		Update("remaining", gorm.Expr("remaining - 1"))

	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected > 0, nil
}

func (r *slotRepoImpl) IncrementRemaining(ctx context.Context, tx *gorm.DB, slotID string) error {
	return tx.WithContext(ctx).Model(&model.PickupSlot{}).
		Where("id = ? AND remaining < capacity", slotID).
		Update("remaining", gorm.Expr("remaining + 1")).Error
}
