package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"grocollect/internal/model"
)

type OrderRepository interface {
	Create(ctx context.Context, tx *gorm.DB, order *model.Order, items []*model.OrderItem) error
	FindByID(ctx context.Context, orderID string) (*model.Order, error)
	// FindByReference resolves either the internal id or the
	// human-readable order number, which is what webhooks carry.
	FindByReference(ctx context.Context, ref string) (*model.Order, error)
	GetItems(ctx context.Context, tx *gorm.DB, orderID string) ([]*model.OrderItem, error)
	// UpdateStatus applies a conditional transition: the row is written
	// only if its current status is one of from. It reports whether the
	// write happened, which is the atomic guard every transition relies
	// on under concurrent requests.
	UpdateStatus(ctx context.Context, tx *gorm.DB, orderID string, from []model.OrderStatus, to model.OrderStatus, set map[string]interface{}) (bool, error)
	FindExpired(ctx context.Context, now time.Time, statuses []model.OrderStatus) ([]*model.Order, error)
}

type orderRepoImpl struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepoImpl{
		db: db,
	}
}

func (r *orderRepoImpl) Create(ctx context.Context, tx *gorm.DB, order *model.Order, items []*model.OrderItem) error {
	if err := tx.WithContext(ctx).Create(order).Error; err != nil {
		return err
	}
	return tx.WithContext(ctx).Create(&items).Error
}

func (r *orderRepoImpl) FindByID(ctx context.Context, orderID string) (*model.Order, error) {
	var order model.Order
	err := r.db.WithContext(ctx).
		Where("id = ?", orderID).
		First(&order).Error

	if err != nil {
		return nil, err
	}

	return &order, nil
}

func (r *orderRepoImpl) FindByReference(ctx context.Context, ref string) (*model.Order, error) {
	var order model.Order
	err := r.db.WithContext(ctx).
		Where("id = ? OR order_number = ?", ref, ref).
		First(&order).Error

	if err != nil {
		return nil, err
	}

	return &order, nil
}

func (r *orderRepoImpl) GetItems(ctx context.Context, tx *gorm.DB, orderID string) ([]*model.OrderItem, error) {
	var items []*model.OrderItem
	err := tx.WithContext(ctx).
		Where("order_id = ?", orderID).
		Find(&items).Error

	if err != nil {
		return nil, err
	}

	return items, nil
}

func (r *orderRepoImpl) UpdateStatus(ctx context.Context, tx *gorm.DB, orderID string, from []model.OrderStatus, to model.OrderStatus, set map[string]interface{}) (bool, error) {
	for _, f := range from {
		if !f.CanTransition(to) {
			return false, fmt.Errorf("transition %s -> %s not in lifecycle table", f, to)
		}
	}

	updates := map[string]interface{}{
		"status":     to,
		"updated_at": time.Now(),
	}
	for k, v := range set {
		updates[k] = v
	}

	result := tx.WithContext(ctx).Model(&model.Order{}).
		Where("id = ? AND status IN ?", orderID, from).
		Updates(updates)

	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected > 0, nil
}

func (r *orderRepoImpl) FindExpired(ctx context.Context, now time.Time, statuses []model.OrderStatus) ([]*model.Order, error) {
	var orders []*model.Order
	err := r.db.WithContext(ctx).
		Where("expires_at < ? AND status IN ?", now, statuses).
		Find(&orders).Error

	if err != nil {
		return nil, err
	}

	return orders, nil
}

// IsDuplicateKey reports whether an insert failed on a unique
// constraint, which order creation uses to retry temp code collisions.
func IsDuplicateKey(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
