package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"grocollect/internal/client"
	"grocollect/internal/config"
	"grocollect/internal/domain"
	"grocollect/internal/dto"
	"grocollect/internal/model"
	"grocollect/internal/policy"
	"grocollect/internal/ratelimit"
	"grocollect/internal/repository"
)

const testWebhookSecret = "test-webhook-secret"

// fixedNow keeps policy arithmetic deterministic across the suite.
var fixedNow = time.Date(2025, 3, 10, 10, 0, 0, 0, time.Local)

type mockNotifier struct {
	mu     sync.Mutex
	emails []string
	sms    []string
}

func (m *mockNotifier) SendEmail(ctx context.Context, to, subject, html string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.emails = append(m.emails, subject)
	return true
}

func (m *mockNotifier) SendSMS(ctx context.Context, to, message string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sms = append(m.sms, message)
	return true
}

func (m *mockNotifier) emailCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.emails)
}

type fixture struct {
	db           *gorm.DB
	orderRepo    repository.OrderRepository
	productRepo  repository.ProductRepository
	slotRepo     repository.SlotRepository
	activityRepo repository.ActivityRepository
	notifier     *mockNotifier
	orderSvc     OrderService
	paymentSvc   PaymentService
	pickupSvc    PickupService
	sweeper      *Sweeper
}

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared",
		strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// a single connection serializes writers, which is all sqlite can
	// promise anyway; the conditional updates stay the real guard
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&model.Product{},
		&model.PickupSlot{},
		&model.Order{},
		&model.OrderItem{},
		&model.Staff{},
		&model.ActivityLog{},
		&model.WebhookEvent{},
	))
	return db
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := setupDB(t)
	logger := zap.NewNop()

	orderRepo := repository.NewOrderRepository(db)
	productRepo := repository.NewProductRepository(db)
	slotRepo := repository.NewSlotRepository(db)
	activityRepo := repository.NewActivityRepository(db)
	webhookEventRepo := repository.NewWebhookEventRepository(db)

	lygos := client.NewLygosClient(&config.Lygos{WebhookSecret: testWebhookSecret})
	limiter := ratelimit.New(time.Minute, 20)
	notifier := &mockNotifier{}

	orderSvc := NewOrderService(db, lygos, policy.Default(),
		orderRepo, productRepo, slotRepo, activityRepo, logger)
	orderSvc.(*orderServiceImpl).now = func() time.Time { return fixedNow }

	paymentSvc := NewPaymentService(db, lygos, limiter,
		orderRepo, slotRepo, webhookEventRepo, activityRepo, notifier, logger)
	pickupSvc := NewPickupService(db, orderRepo, activityRepo, notifier, logger)
	sweeper := NewSweeper(db, orderRepo, productRepo, slotRepo, activityRepo, logger)

	seedCatalog(t, db)

	return &fixture{
		db:           db,
		orderRepo:    orderRepo,
		productRepo:  productRepo,
		slotRepo:     slotRepo,
		activityRepo: activityRepo,
		notifier:     notifier,
		orderSvc:     orderSvc,
		paymentSvc:   paymentSvc,
		pickupSvc:    pickupSvc,
		sweeper:      sweeper,
	}
}

func seedCatalog(t *testing.T, db *gorm.DB) {
	t.Helper()

	products := []model.Product{
		{ID: "jus", Name: "Jus d'orange", Price: decimal.RequireFromString("1.50"), Currency: "XAF", Stock: 10, IsPerishable: false},
		{ID: "pain", Name: "Pain complet", Price: decimal.RequireFromString("2.00"), Currency: "XAF", Stock: 10, IsPerishable: false},
		{ID: "lait", Name: "Lait frais", Price: decimal.RequireFromString("3.00"), Currency: "XAF", Stock: 5, IsPerishable: true},
	}
	require.NoError(t, db.Create(&products).Error)

	slots := []model.PickupSlot{
		// ends 6h after fixedNow: fits both 24h and 48h windows
		{ID: "slot-near", Date: "2025-03-10", TimeFrom: "14:00", TimeTo: "16:00", Capacity: 10, Remaining: 10, IsActive: true},
		// ends 32h after fixedNow: fits 48h, exceeds 24h
		{ID: "slot-mid", Date: "2025-03-11", TimeFrom: "16:00", TimeTo: "18:00", Capacity: 10, Remaining: 10, IsActive: true},
		// ends 49h after fixedNow: exceeds both windows
		{ID: "slot-far", Date: "2025-03-12", TimeFrom: "09:00", TimeTo: "11:00", Capacity: 10, Remaining: 10, IsActive: true},
		{ID: "slot-full", Date: "2025-03-10", TimeFrom: "16:00", TimeTo: "18:00", Capacity: 1, Remaining: 0, IsActive: true},
	}
	require.NoError(t, db.Create(&slots).Error)
}

func baseOrderRequest() *dto.CreateOrderRequest {
	return &dto.CreateOrderRequest{
		CustomerName:  "Awa Ndiaye",
		CustomerPhone: "+242060000001",
		CustomerEmail: "awa@example.com",
		PickupSlotID:  "slot-near",
		PaymentMethod: "momo",
		Items: []dto.OrderItemRequest{
			{ProductID: "jus", Quantity: 1},
			{ProductID: "pain", Quantity: 2},
		},
	}
}

func signWebhook(body []byte) string {
	mac := hmac.New(sha256.New, []byte(testWebhookSecret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// deliverPaidWebhook pushes a correctly signed success event through
// the reconciliation path.
func deliverPaidWebhook(t *testing.T, f *fixture, reference string) {
	t.Helper()
	body := []byte(fmt.Sprintf(`{"reference":%q,"status":"paid"}`, reference))
	require.NoError(t, f.paymentSvc.HandleWebhook(context.Background(), "10.0.0.1", signWebhook(body), body))
}

func kindOf(t *testing.T, err error) domain.Kind {
	t.Helper()
	var de *domain.Error
	require.True(t, errors.As(err, &de), "expected *domain.Error, got %v", err)
	return de.Kind
}

func preparer() StaffIdentity {
	return StaffIdentity{ID: "staff-preparer", Name: "Préparateur", Role: model.RolePreparer}
}

func cashier() StaffIdentity {
	return StaffIdentity{ID: "staff-cashier", Name: "Caissier", Role: model.RoleCashier}
}
