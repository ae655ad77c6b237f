package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type StaffRole string

const (
	RolePreparer StaffRole = "preparer"
	RoleCashier  StaffRole = "cashier"
	RoleAdmin    StaffRole = "admin"
)

type Product struct {
	ID           string          `gorm:"primaryKey;size:64;not null"` // product sku
	Name         string          `gorm:"size:128;not null"`
	Price        decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Currency     string          `gorm:"size:8;not null"`
	Stock        int32           `gorm:"not null"`
	IsPerishable bool            `gorm:"not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type PickupSlot struct {
	ID        string `gorm:"primaryKey;size:64;not null"`
	Date      string `gorm:"size:10;index;not null"` // YYYY-MM-DD
	TimeFrom  string `gorm:"size:5;not null"`        // HH:MM
	TimeTo    string `gorm:"size:5;not null"`
	Capacity  int32  `gorm:"not null"`
	Remaining int32  `gorm:"not null"`
	IsActive  bool   `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// EndsAt is the end of the slot's pickup window in local time.
func (s *PickupSlot) EndsAt() (time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02T15:04", s.Date+"T"+s.TimeTo, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse slot window end: %w", err)
	}
	return t, nil
}

type Order struct {
	ID            string          `gorm:"primaryKey;size:64;not null"` // internal uuid
	OrderNumber   string          `gorm:"size:64;uniqueIndex;not null"`
	UserID        string          `gorm:"size:64;index"` // optional linked account
	CustomerName  string          `gorm:"size:128;not null"`
	CustomerPhone string          `gorm:"size:32;not null"`
	CustomerEmail string          `gorm:"size:128"`
	PickupSlotID  string          `gorm:"size:64;index;not null"`
	Status        OrderStatus     `gorm:"size:32;index;not null"`
	PaymentMethod string          `gorm:"size:32;not null"`
	Notes         string          `gorm:"size:512"`
	Amount        decimal.Decimal `gorm:"type:decimal(12,2);not null"` // sum of item subtotals at creation
	Currency      string          `gorm:"size:8;not null"`

	TempPickupCode  string  `gorm:"size:16;uniqueIndex;not null"`
	FinalPickupCode *string `gorm:"size:16"` // set once the temp code has been validated

	ExpiresAt       time.Time `gorm:"index;not null"` // computed once at creation
	CodeValidatedAt *time.Time
	PickedUpAt      *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type OrderItem struct {
	ID      uint   `gorm:"primaryKey"`
	OrderID string `gorm:"size:64;index;not null"`
	// price and name are snapshots taken at order creation
	ProductID   string          `gorm:"size:64;index;not null"`
	ProductName string          `gorm:"size:128;not null"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Quantity    int32           `gorm:"not null"`
	Subtotal    decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	CreatedAt   time.Time
}

type Staff struct {
	ID        string    `gorm:"primaryKey;size:64;not null"`
	Name      string    `gorm:"size:128;not null"`
	Email     string    `gorm:"size:128;uniqueIndex;not null"`
	Password  string    `gorm:"size:128;not null"` // bcrypt hash
	Role      StaffRole `gorm:"size:32;not null"`
	IsActive  bool      `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ActivityLog is an append-only audit record; rows are never updated.
type ActivityLog struct {
	ID         uint   `gorm:"primaryKey"`
	StaffID    string `gorm:"size:64;index"`
	StaffName  string `gorm:"size:128"`
	StaffRole  string `gorm:"size:32"`
	Action     string `gorm:"size:64;index;not null"`
	EntityType string `gorm:"size:32;not null"`
	EntityID   string `gorm:"size:64;index"`
	Details    string `gorm:"size:512"`
	CreatedAt  time.Time
}

// WebhookEvent records processed provider callbacks for replay
// observability. Reconciliation correctness never depends on it; the
// conditional status update is the idempotency guard.
type WebhookEvent struct {
	ID          uint   `gorm:"primaryKey"`
	EventID     string `gorm:"size:128;index"`
	Reference   string `gorm:"size:64;index;not null"`
	Status      string `gorm:"size:32;not null"`
	ProcessedAt time.Time
	CreatedAt   time.Time
}
