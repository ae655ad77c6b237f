package repository

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"grocollect/internal/model"
)

type ProductRepository interface {
	Seed(ctx context.Context) error
	FindByID(ctx context.Context, productID string) (*model.Product, error)
	FindMany(ctx context.Context, productIDs []string) ([]*model.Product, error)
	// DecrementStock reserves quantity units atomically; it reports
	// false when the remaining stock is insufficient.
	DecrementStock(ctx context.Context, tx *gorm.DB, productID string, quantity int32) (bool, error)
	IncrementStock(ctx context.Context, tx *gorm.DB, productID string, quantity int32) error
}

type productRepoImpl struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepoImpl{
		db: db,
	}
}

func (r *productRepoImpl) Seed(ctx context.Context) error {
	products := []model.Product{
		{ID: "tomate_1kg", Name: "Tomates fraîches 1kg", Price: decimal.NewFromInt(1500), Currency: "XAF", Stock: 40, IsPerishable: true},
		{ID: "lait_1l", Name: "Lait frais 1L", Price: decimal.NewFromInt(1200), Currency: "XAF", Stock: 30, IsPerishable: true},
		{ID: "riz_5kg", Name: "Riz parfumé 5kg", Price: decimal.NewFromInt(4500), Currency: "XAF", Stock: 60, IsPerishable: false},
		{ID: "huile_1l", Name: "Huile végétale 1L", Price: decimal.NewFromInt(2000), Currency: "XAF", Stock: 50, IsPerishable: false},
	}

	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&products).Error
}

func (r *productRepoImpl) FindByID(ctx context.Context, productID string) (*model.Product, error) {
	var product model.Product
	err := r.db.WithContext(ctx).
		Where("id = ?", productID).
		First(&product).Error

	if err != nil {
		return nil, err
	}

	return &product, nil
}

func (r *productRepoImpl) FindMany(ctx context.Context, productIDs []string) ([]*model.Product, error) {
	var products []*model.Product
	err := r.db.WithContext(ctx).
		Where("id IN ?", productIDs).
		Find(&products).
		Error

	if err != nil {
		return nil, err
	}

	return products, nil
}

func (r *productRepoImpl) DecrementStock(ctx context.Context, tx *gorm.DB, productID string, quantity int32) (bool, error) {
	result := tx.WithContext(ctx).Model(&model.Product{}).
		Where("id = ? AND stock >= ?", productID, quantity).
		Update("stock", gorm.Expr("stock - ?", quantity))

	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected > 0, nil
}

func (r *productRepoImpl) IncrementStock(ctx context.Context, tx *gorm.DB, productID string, quantity int32) error {
	return tx.WithContext(ctx).Model(&model.Product{}).
		Where("id = ?", productID).
		Update("stock", gorm.Expr("stock + ?", quantity)).Error
}
