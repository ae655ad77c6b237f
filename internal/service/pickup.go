package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"grocollect/internal/client"
	"grocollect/internal/domain"
	"grocollect/internal/model"
	"grocollect/internal/pickupcode"
	"grocollect/internal/repository"
)

// StaffIdentity is the authenticated staff member acting on an order,
// extracted from the JWT role claim.
type StaffIdentity struct {
	ID   string
	Name string
	Role model.StaffRole
}

func (s StaffIdentity) hasRole(roles ...model.StaffRole) bool {
	if s.Role == model.RoleAdmin {
		return true
	}
	for _, r := range roles {
		if s.Role == r {
			return true
		}
	}
	return false
}

type PickupService interface {
	// ValidateTemporaryCode is stage 1: a preparer checks the code the
	// customer received at order placement and a final code is issued.
	ValidateTemporaryCode(ctx context.Context, staff StaffIdentity, orderID, temporaryCode string) (string, error)
	// VerifyFinalCode is stage 2: a cashier checks the staff-issued
	// final code and the pickup is completed.
	VerifyFinalCode(ctx context.Context, staff StaffIdentity, orderID, finalCode string) error
	StartPreparation(ctx context.Context, staff StaffIdentity, orderID string) error
	MarkReady(ctx context.Context, staff StaffIdentity, orderID string) error
}

type pickupServiceImpl struct {
	db           *gorm.DB
	orderRepo    repository.OrderRepository
	activityRepo repository.ActivityRepository
	notifier     client.Notifier
	logger       *zap.Logger
	now          func() time.Time
}

func NewPickupService(
	db *gorm.DB,
	orderRepo repository.OrderRepository,
	activityRepo repository.ActivityRepository,
	notifier client.Notifier,
	logger *zap.Logger,
) PickupService {
	return &pickupServiceImpl{
		db:           db,
		orderRepo:    orderRepo,
		activityRepo: activityRepo,
		notifier:     notifier,
		logger:       logger,
		now:          time.Now,
	}
}

func (s *pickupServiceImpl) ValidateTemporaryCode(ctx context.Context, staff StaffIdentity, orderID, temporaryCode string) (string, error) {
	if !staff.hasRole(model.RolePreparer) {
		return "", domain.Forbidden("role %s cannot validate temporary codes", staff.Role)
	}

	order, err := s.findOrder(ctx, orderID)
	if err != nil {
		return "", err
	}

	// exact match, case-sensitive, no normalization
	if order.TempPickupCode != temporaryCode {
		s.logger.Warn("temporary code mismatch",
			zap.String("order", order.OrderNumber), zap.String("staff", staff.ID))
		return "", domain.InvalidCode("code temporaire invalide")
	}

	finalCode, err := pickupcode.Final()
	if err != nil {
		return "", fmt.Errorf("generate final code: %w", err)
	}

	now := s.now()
	applied, err := s.orderRepo.UpdateStatus(ctx, s.db, order.ID,
		[]model.OrderStatus{model.StatusPaid}, model.StatusConfirmed,
		map[string]interface{}{
			"final_pickup_code": finalCode,
			"code_validated_at": now,
		})
	if err != nil {
		return "", fmt.Errorf("confirm order: %w", err)
	}
	if !applied {
		return "", domain.IllegalTransition("cannot confirm order in status %s", order.Status)
	}

	s.audit(ctx, staff, "validated_code", order.ID, "Code final généré pour "+order.OrderNumber)

	// the final code reaches the customer out-of-band; staff only sees
	// the confirmation
	s.dispatchFinalCode(ctx, order, finalCode)

	return finalCode, nil
}

func (s *pickupServiceImpl) VerifyFinalCode(ctx context.Context, staff StaffIdentity, orderID, finalCode string) error {
	if !staff.hasRole(model.RoleCashier) {
		return domain.Forbidden("role %s cannot verify final codes", staff.Role)
	}

	order, err := s.findOrder(ctx, orderID)
	if err != nil {
		return err
	}

	if order.FinalPickupCode == nil || *order.FinalPickupCode != finalCode {
		s.logger.Warn("final code mismatch",
			zap.String("order", order.OrderNumber), zap.String("staff", staff.ID))
		return domain.InvalidCode("code final invalide")
	}

	applied, err := s.orderRepo.UpdateStatus(ctx, s.db, order.ID,
		[]model.OrderStatus{model.StatusConfirmed, model.StatusReady}, model.StatusCompleted,
		map[string]interface{}{
			"picked_up_at": s.now(),
		})
	if err != nil {
		return fmt.Errorf("complete order: %w", err)
	}
	if !applied {
		return domain.IllegalTransition("commande déjà traitée")
	}

	s.audit(ctx, staff, "completed_order", order.ID, "Retrait validé pour "+order.OrderNumber)
	return nil
}

func (s *pickupServiceImpl) StartPreparation(ctx context.Context, staff StaffIdentity, orderID string) error {
	if !staff.hasRole(model.RolePreparer) {
		return domain.Forbidden("role %s cannot prepare orders", staff.Role)
	}

	order, err := s.findOrder(ctx, orderID)
	if err != nil {
		return err
	}

	applied, err := s.orderRepo.UpdateStatus(ctx, s.db, order.ID,
		[]model.OrderStatus{model.StatusConfirmed}, model.StatusInPreparation, nil)
	if err != nil {
		return fmt.Errorf("start preparation: %w", err)
	}
	if !applied {
		return domain.IllegalTransition("cannot start preparation for order in status %s", order.Status)
	}

	s.audit(ctx, staff, "started_preparation", order.ID, "Préparation démarrée pour "+order.OrderNumber)
	return nil
}

func (s *pickupServiceImpl) MarkReady(ctx context.Context, staff StaffIdentity, orderID string) error {
	if !staff.hasRole(model.RolePreparer) {
		return domain.Forbidden("role %s cannot mark orders ready", staff.Role)
	}

	order, err := s.findOrder(ctx, orderID)
	if err != nil {
		return err
	}

	applied, err := s.orderRepo.UpdateStatus(ctx, s.db, order.ID,
		[]model.OrderStatus{model.StatusInPreparation}, model.StatusReady, nil)
	if err != nil {
		return fmt.Errorf("mark ready: %w", err)
	}
	if !applied {
		return domain.IllegalTransition("cannot mark ready an order in status %s", order.Status)
	}

	s.audit(ctx, staff, "marked_ready", order.ID, "Commande prête: "+order.OrderNumber)
	return nil
}

func (s *pickupServiceImpl) findOrder(ctx context.Context, orderID string) (*model.Order, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NotFound("commande introuvable")
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	return order, nil
}

func (s *pickupServiceImpl) audit(ctx context.Context, staff StaffIdentity, action, orderID, details string) {
	if err := s.activityRepo.Append(ctx, &model.ActivityLog{
		StaffID:    staff.ID,
		StaffName:  staff.Name,
		StaffRole:  string(staff.Role),
		Action:     action,
		EntityType: "order",
		EntityID:   orderID,
		Details:    details,
	}); err != nil {
		s.logger.Warn("append activity log", zap.Error(err))
	}
}

func (s *pickupServiceImpl) dispatchFinalCode(ctx context.Context, order *model.Order, finalCode string) {
	nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()

	delivered := false
	if order.CustomerEmail != "" {
		html := fmt.Sprintf("<p>Votre code final de retrait pour la commande %s: <b>%s</b></p>",
			order.OrderNumber, finalCode)
		delivered = s.notifier.SendEmail(nctx, order.CustomerEmail, "Votre code de retrait "+order.OrderNumber, html)
	}
	if order.CustomerPhone != "" {
		if s.notifier.SendSMS(nctx, order.CustomerPhone, client.FinalCodeSMS(order.OrderNumber, finalCode)) {
			delivered = true
		}
	}
	if !delivered {
		s.logger.Warn("final code not delivered to customer", zap.String("order", order.OrderNumber))
	}
}
