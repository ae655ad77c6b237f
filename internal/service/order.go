package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"grocollect/internal/client"
	"grocollect/internal/domain"
	"grocollect/internal/dto"
	"grocollect/internal/model"
	"grocollect/internal/pickupcode"
	"grocollect/internal/policy"
	"grocollect/internal/repository"
)

const orderCurrency = "XAF"

// createAttempts bounds retries on a temporary-code collision. Hitting
// the bound means the CSPRNG is broken, not a user-facing condition.
const createAttempts = 3

type OrderService interface {
	Create(ctx context.Context, req *dto.CreateOrderRequest, userID string) (*dto.OrderResponse, error)
	GetByID(ctx context.Context, orderID string) (*dto.OrderResponse, error)
	ListSlots(ctx context.Context, date string) ([]*dto.PickupSlotResponse, error)
	InitiatePayment(ctx context.Context, req *dto.InitiatePaymentRequest) (*dto.InitiatePaymentResponse, error)
}

type orderServiceImpl struct {
	db           *gorm.DB
	lygosClient  client.LygosClient
	policy       policy.Policy
	orderRepo    repository.OrderRepository
	productRepo  repository.ProductRepository
	slotRepo     repository.SlotRepository
	activityRepo repository.ActivityRepository
	logger       *zap.Logger
	now          func() time.Time
}

func NewOrderService(
	db *gorm.DB,
	lygosClient client.LygosClient,
	pol policy.Policy,
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	slotRepo repository.SlotRepository,
	activityRepo repository.ActivityRepository,
	logger *zap.Logger,
) OrderService {
	return &orderServiceImpl{
		db:           db,
		lygosClient:  lygosClient,
		policy:       pol,
		orderRepo:    orderRepo,
		productRepo:  productRepo,
		slotRepo:     slotRepo,
		activityRepo: activityRepo,
		logger:       logger,
		now:          time.Now,
	}
}

func (s *orderServiceImpl) Create(ctx context.Context, req *dto.CreateOrderRequest, userID string) (*dto.OrderResponse, error) {
	productIDs := make([]string, len(req.Items))
	quantities := make(map[string]int32, len(req.Items))
	for i, item := range req.Items {
		if _, dup := quantities[item.ProductID]; dup {
			return nil, domain.Validation("duplicate product %s in order items", item.ProductID)
		}
		productIDs[i] = item.ProductID
		quantities[item.ProductID] = item.Quantity
	}

	products, err := s.productRepo.FindMany(ctx, productIDs)
	if err != nil {
		return nil, fmt.Errorf("get products: %w", err)
	}
	if len(products) != len(req.Items) {
		return nil, domain.NotFound("some products not found")
	}

	hasPerishable := false
	totalAmount := decimal.Zero
	items := make([]*model.OrderItem, len(products))
	for i, product := range products {
		quantity := quantities[product.ID]
		if product.Stock < quantity {
			return nil, domain.Validation("insufficient stock for %s", product.Name)
		}
		if product.IsPerishable {
			hasPerishable = true
		}

		// price snapshot: the order keeps the price at creation time
		subtotal := product.Price.Mul(decimal.NewFromInt32(quantity))
		totalAmount = totalAmount.Add(subtotal)
		items[i] = &model.OrderItem{
			ProductID:   product.ID,
			ProductName: product.Name,
			UnitPrice:   product.Price,
			Quantity:    quantity,
			Subtotal:    subtotal,
		}
	}

	now := s.now()
	deadline := s.policy.Deadline(now, hasPerishable)

	slot, err := s.slotRepo.FindByID(ctx, req.PickupSlotID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NotFound("pickup slot not found")
		}
		return nil, fmt.Errorf("get pickup slot: %w", err)
	}
	if !slot.IsActive {
		return nil, domain.Validation("pickup slot is not available")
	}
	if err := s.policy.ValidateSlot(slot, deadline); err != nil {
		return nil, err
	}

	var order *model.Order
	for attempt := 0; attempt < createAttempts; attempt++ {
		order, err = s.tryCreate(ctx, req, userID, items, totalAmount, deadline)
		if err == nil {
			break
		}
		if repository.IsDuplicateKey(err) {
			s.logger.Warn("temporary code collision, retrying", zap.Int("attempt", attempt+1))
			continue
		}
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	if aerr := s.activityRepo.Append(ctx, &model.ActivityLog{
		StaffID:    "system",
		Action:     "order_created",
		EntityType: "order",
		EntityID:   order.ID,
		Details:    "Commande " + order.OrderNumber,
	}); aerr != nil {
		s.logger.Warn("append activity log", zap.Error(aerr))
	}

	return s.toResponse(order, items), nil
}

// tryCreate runs one insert attempt inside a transaction. Stock and
// slot capacity decrements live in the same transaction as the order
// row so a rejection leaves nothing persisted.
func (s *orderServiceImpl) tryCreate(ctx context.Context, req *dto.CreateOrderRequest, userID string, items []*model.OrderItem, totalAmount decimal.Decimal, deadline time.Time) (*model.Order, error) {
	suffix, err := pickupcode.OrderSuffix()
	if err != nil {
		return nil, err
	}
	tempCode, err := pickupcode.Temporary()
	if err != nil {
		return nil, err
	}

	order := &model.Order{
		ID:             uuid.NewString(),
		OrderNumber:    fmt.Sprintf("GC-%d-%s", s.now().UnixMilli(), suffix),
		UserID:         userID,
		CustomerName:   req.CustomerName,
		CustomerPhone:  req.CustomerPhone,
		CustomerEmail:  req.CustomerEmail,
		PickupSlotID:   req.PickupSlotID,
		Status:         model.StatusPendingPayment,
		PaymentMethod:  req.PaymentMethod,
		Notes:          req.Notes,
		Amount:         totalAmount,
		Currency:       orderCurrency,
		TempPickupCode: tempCode,
		ExpiresAt:      deadline,
	}

	orderItems := make([]*model.OrderItem, len(items))
	for i, item := range items {
		copied := *item
		copied.ID = 0
		copied.OrderID = order.ID
		orderItems[i] = &copied
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, item := range orderItems {
			ok, derr := s.productRepo.DecrementStock(ctx, tx, item.ProductID, item.Quantity)
			if derr != nil {
				return fmt.Errorf("reserve stock: %w", derr)
			}
			if !ok {
				return domain.Validation("insufficient stock for %s", item.ProductName)
			}
		}

		ok, derr := s.slotRepo.DecrementRemaining(ctx, tx, req.PickupSlotID)
		if derr != nil {
			return fmt.Errorf("reserve slot capacity: %w", derr)
		}
		if !ok {
			return domain.Validation("pickup slot is full")
		}

		return s.orderRepo.Create(ctx, tx, order, orderItems)
	})
	if err != nil {
		return nil, err
	}

	return order, nil
}

func (s *orderServiceImpl) GetByID(ctx context.Context, orderID string) (*dto.OrderResponse, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NotFound("order not found")
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	items, err := s.orderRepo.GetItems(ctx, s.db, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order items: %w", err)
	}

	return s.toResponse(order, items), nil
}

func (s *orderServiceImpl) ListSlots(ctx context.Context, date string) ([]*dto.PickupSlotResponse, error) {
	slots, err := s.slotRepo.List(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("list pickup slots: %w", err)
	}

	out := make([]*dto.PickupSlotResponse, len(slots))
	for i, slot := range slots {
		out[i] = &dto.PickupSlotResponse{
			ID:        slot.ID,
			Date:      slot.Date,
			TimeFrom:  slot.TimeFrom,
			TimeTo:    slot.TimeTo,
			Remaining: slot.Remaining,
		}
	}
	return out, nil
}

func (s *orderServiceImpl) InitiatePayment(ctx context.Context, req *dto.InitiatePaymentRequest) (*dto.InitiatePaymentResponse, error) {
	order, err := s.orderRepo.FindByID(ctx, req.OrderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NotFound("order not found")
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	if order.Status != model.StatusPendingPayment {
		return nil, domain.IllegalTransition("order %s is not awaiting payment", order.OrderNumber)
	}

	result, err := s.lygosClient.InitiatePayment(ctx, &client.InitiatePaymentParams{
		OrderID:    order.ID,
		Amount:     order.Amount,
		Currency:   order.Currency,
		PayerPhone: order.CustomerPhone,
	})
	if err != nil {
		return nil, domain.Upstream("payment initiation failed", err)
	}

	return &dto.InitiatePaymentResponse{
		PaymentURL:    result.PaymentURL,
		Provider:      result.Provider,
		TransactionID: result.TransactionID,
	}, nil
}

func (s *orderServiceImpl) toResponse(order *model.Order, items []*model.OrderItem) *dto.OrderResponse {
	itemResponses := make([]dto.OrderItemResponse, len(items))
	for i, item := range items {
		itemResponses[i] = dto.OrderItemResponse{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			UnitPrice:   item.UnitPrice.StringFixed(2),
			Quantity:    item.Quantity,
			Subtotal:    item.Subtotal.StringFixed(2),
		}
	}

	return &dto.OrderResponse{
		ID:              order.ID,
		OrderNumber:     order.OrderNumber,
		Status:          order.Status.String(),
		CustomerName:    order.CustomerName,
		CustomerPhone:   order.CustomerPhone,
		CustomerEmail:   order.CustomerEmail,
		PickupSlotID:    order.PickupSlotID,
		PaymentMethod:   order.PaymentMethod,
		Notes:           order.Notes,
		Amount:          order.Amount.StringFixed(2),
		Currency:        order.Currency,
		TempPickupCode:  order.TempPickupCode,
		ExpiresAt:       order.ExpiresAt,
		CodeValidatedAt: order.CodeValidatedAt,
		PickedUpAt:      order.PickedUpAt,
		CreatedAt:       order.CreatedAt,
		Items:           itemResponses,
	}
}
