package repository

import (
	"context"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"grocollect/internal/model"
)

type StaffRepository interface {
	Seed(ctx context.Context) error
	FindByEmail(ctx context.Context, email string) (*model.Staff, error)
}

type staffRepoImpl struct {
	db *gorm.DB
}

func NewStaffRepository(db *gorm.DB) StaffRepository {
	return &staffRepoImpl{
		db: db,
	}
}

// Seed creates the default staff accounts for dev bootstrap.
func (r *staffRepoImpl) Seed(ctx context.Context) error {
	accounts := []struct {
		id, name, email, password string
		role                      model.StaffRole
	}{
		{"staff-admin", "Admin", "admin@grocollect.local", "admin1234", model.RoleAdmin},
		{"staff-preparer", "Préparateur", "preparer@grocollect.local", "prepare1234", model.RolePreparer},
		{"staff-cashier", "Caissier", "cashier@grocollect.local", "cashier1234", model.RoleCashier},
	}

	var records []model.Staff
	for _, a := range accounts {
		hash, err := bcrypt.GenerateFromPassword([]byte(a.password), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		records = append(records, model.Staff{
			ID:       a.id,
			Name:     a.name,
			Email:    a.email,
			Password: string(hash),
			Role:     a.role,
			IsActive: true,
		})
	}

	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&records).Error
}

func (r *staffRepoImpl) FindByEmail(ctx context.Context, email string) (*model.Staff, error) {
	var staff model.Staff
	err := r.db.WithContext(ctx).
		Where("email = ?", email).
		First(&staff).Error

	if err != nil {
		return nil, err
	}

	return &staff, nil
}
