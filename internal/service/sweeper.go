package service

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"grocollect/internal/model"
	"grocollect/internal/repository"
)

// Sweeper cancels orders whose pickup deadline has passed, releasing
// reserved stock and slot capacity. The state machine treats the sweep
// as a sanctioned source of the canceled transition from
// pending_payment, confirmed and in_preparation.
type Sweeper struct {
	db           *gorm.DB
	orderRepo    repository.OrderRepository
	productRepo  repository.ProductRepository
	slotRepo     repository.SlotRepository
	activityRepo repository.ActivityRepository
	logger       *zap.Logger
}

func NewSweeper(
	db *gorm.DB,
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	slotRepo repository.SlotRepository,
	activityRepo repository.ActivityRepository,
	logger *zap.Logger,
) *Sweeper {
	return &Sweeper{
		db:           db,
		orderRepo:    orderRepo,
		productRepo:  productRepo,
		slotRepo:     slotRepo,
		activityRepo: activityRepo,
		logger:       logger,
	}
}

// CancelExpired processes every overdue order once and returns how many
// it canceled. Each order is handled in its own transaction so one
// failure does not block the rest of the sweep.
func (s *Sweeper) CancelExpired(ctx context.Context, now time.Time) (int, error) {
	orders, err := s.orderRepo.FindExpired(ctx, now, model.ExpirableStatuses)
	if err != nil {
		return 0, err
	}

	canceled := 0
	for _, order := range orders {
		if err := s.cancelOne(ctx, order); err != nil {
			s.logger.Warn("sweep failed for order",
				zap.String("order", order.OrderNumber), zap.Error(err))
			continue
		}
		canceled++
	}
	return canceled, nil
}

func (s *Sweeper) cancelOne(ctx context.Context, order *model.Order) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		applied, err := s.orderRepo.UpdateStatus(ctx, tx, order.ID,
			model.ExpirableStatuses, model.StatusCanceled, nil)
		if err != nil {
			return err
		}
		if !applied {
			// raced with a webhook or staff action; nothing to release
			return nil
		}

		// the item read must share the sweep's transaction: reading on the
		// root handle would wait for a second pool connection
		items, err := s.orderRepo.GetItems(ctx, tx, order.ID)
		if err != nil {
			return err
		}
		for _, item := range items {
			if err := s.productRepo.IncrementStock(ctx, tx, item.ProductID, item.Quantity); err != nil {
				return err
			}
		}
		if err := s.slotRepo.IncrementRemaining(ctx, tx, order.PickupSlotID); err != nil {
			return err
		}

		if aerr := s.activityRepo.Append(ctx, &model.ActivityLog{
			StaffID:    "system",
			Action:     "order_expired",
			EntityType: "order",
			EntityID:   order.ID,
			Details:    "Commande expirée: " + order.OrderNumber,
		}); aerr != nil {
			s.logger.Warn("append activity log", zap.Error(aerr))
		}
		return nil
	})
}

// Run drives the sweep on a fixed interval until ctx is canceled.
func (s *Sweeper) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.CancelExpired(ctx, time.Now())
			if err != nil {
				s.logger.Error("expiration sweep failed", zap.Error(err))
				continue
			}
			if n > 0 {
				s.logger.Info("expiration sweep canceled orders", zap.Int("count", n))
			}
		}
	}
}
