package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"grocollect/internal/client"
	"grocollect/internal/domain"
	"grocollect/internal/model"
	"grocollect/internal/ratelimit"
	"grocollect/internal/repository"
)

// notifyTimeout bounds notification dispatch so a slow channel cannot
// hold up the webhook response; dispatch failures never roll back the
// state transition.
const notifyTimeout = 10 * time.Second

type PaymentService interface {
	HandleWebhook(ctx context.Context, sourceIP, signatureHeader string, rawBody []byte) error
}

type paymentServiceImpl struct {
	db               *gorm.DB
	lygosClient      client.LygosClient
	limiter          *ratelimit.Limiter
	orderRepo        repository.OrderRepository
	slotRepo         repository.SlotRepository
	webhookEventRepo repository.WebhookEventRepository
	activityRepo     repository.ActivityRepository
	notifier         client.Notifier
	logger           *zap.Logger
}

func NewPaymentService(
	db *gorm.DB,
	lygosClient client.LygosClient,
	limiter *ratelimit.Limiter,
	orderRepo repository.OrderRepository,
	slotRepo repository.SlotRepository,
	webhookEventRepo repository.WebhookEventRepository,
	activityRepo repository.ActivityRepository,
	notifier client.Notifier,
	logger *zap.Logger,
) PaymentService {
	return &paymentServiceImpl{
		db:               db,
		lygosClient:      lygosClient,
		limiter:          limiter,
		orderRepo:        orderRepo,
		slotRepo:         slotRepo,
		webhookEventRepo: webhookEventRepo,
		activityRepo:     activityRepo,
		notifier:         notifier,
		logger:           logger,
	}
}

func (s *paymentServiceImpl) HandleWebhook(ctx context.Context, sourceIP, signatureHeader string, rawBody []byte) error {
	// quota check runs before any body processing
	if !s.limiter.Allow(sourceIP) {
		s.logger.Warn("webhook rate limited", zap.String("ip", sourceIP))
		return domain.RateLimited("too many requests")
	}

	if !s.lygosClient.VerifySignature(rawBody, signatureHeader) {
		s.logger.Warn("webhook signature rejected", zap.String("ip", sourceIP))
		return domain.Signature("invalid signature")
	}

	var event model.LygosWebhookEvent
	if err := json.Unmarshal(rawBody, &event); err != nil {
		return domain.Validation("malformed webhook payload")
	}

	reference := event.OrderReference()
	if reference == "" || event.Status == "" {
		return domain.Validation("webhook payload missing reference or status")
	}

	switch strings.ToLower(event.Status) {
	case "success", "paid":
		return s.reconcilePaid(ctx, &event, reference)
	case "failed", "canceled":
		return s.reconcileCanceled(ctx, &event, reference)
	default:
		// unrecognized provider statuses are acknowledged untouched
		s.logger.Info("webhook status ignored",
			zap.String("reference", reference), zap.String("status", event.Status))
		return nil
	}
}

func (s *paymentServiceImpl) reconcilePaid(ctx context.Context, event *model.LygosWebhookEvent, reference string) error {
	order, err := s.orderRepo.FindByReference(ctx, reference)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// ack so the provider stops retrying a reference we will
			// never be able to resolve
			s.logger.Warn("webhook for unknown order", zap.String("reference", reference))
			return nil
		}
		return fmt.Errorf("resolve webhook reference: %w", err)
	}

	applied, err := s.orderRepo.UpdateStatus(ctx, s.db, order.ID,
		[]model.OrderStatus{model.StatusPendingPayment}, model.StatusPaid, nil)
	if err != nil {
		return fmt.Errorf("mark order paid: %w", err)
	}

	s.recordEvent(ctx, reference, event)

	if !applied {
		// re-delivered success events land here: already-paid is a
		// no-op ack, and a late success for an expired (canceled)
		// order is acknowledged and left for ops to resolve
		s.logger.Info("payment webhook was a no-op",
			zap.String("order", order.OrderNumber), zap.String("status", order.Status.String()))
		return nil
	}

	if aerr := s.activityRepo.Append(ctx, &model.ActivityLog{
		StaffID:    "system",
		Action:     "payment_confirmed",
		EntityType: "order",
		EntityID:   order.ID,
		Details:    "Paiement reçu pour " + order.OrderNumber,
	}); aerr != nil {
		s.logger.Warn("append activity log", zap.Error(aerr))
	}

	s.sendConfirmation(ctx, order)
	return nil
}

func (s *paymentServiceImpl) reconcileCanceled(ctx context.Context, event *model.LygosWebhookEvent, reference string) error {
	order, err := s.orderRepo.FindByReference(ctx, reference)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Warn("webhook for unknown order", zap.String("reference", reference))
			return nil
		}
		return fmt.Errorf("resolve webhook reference: %w", err)
	}

	applied, err := s.orderRepo.UpdateStatus(ctx, s.db, order.ID,
		[]model.OrderStatus{model.StatusPendingPayment}, model.StatusCanceled, nil)
	if err != nil {
		return fmt.Errorf("cancel order: %w", err)
	}

	s.recordEvent(ctx, reference, event)

	if applied {
		if aerr := s.activityRepo.Append(ctx, &model.ActivityLog{
			StaffID:    "system",
			Action:     "payment_failed",
			EntityType: "order",
			EntityID:   order.ID,
			Details:    "Paiement échoué pour " + order.OrderNumber,
		}); aerr != nil {
			s.logger.Warn("append activity log", zap.Error(aerr))
		}
	}
	return nil
}

// sendConfirmation dispatches the order confirmation with the
// temporary pickup code. Best-effort: a failure or timeout is logged
// and swallowed.
func (s *paymentServiceImpl) sendConfirmation(ctx context.Context, order *model.Order) {
	nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()

	items, err := s.orderRepo.GetItems(nctx, s.db, order.ID)
	if err != nil {
		s.logger.Warn("load items for confirmation", zap.Error(err))
		items = nil
	}

	var slot *model.PickupSlot
	if sl, serr := s.slotRepo.FindByID(nctx, order.PickupSlotID); serr == nil {
		slot = sl
	}

	if order.CustomerEmail != "" {
		subject := "Confirmation de votre commande " + order.OrderNumber
		html := confirmationEmailHTML(order, items, slot)
		if !s.notifier.SendEmail(nctx, order.CustomerEmail, subject, html) {
			s.logger.Warn("confirmation email not delivered", zap.String("order", order.OrderNumber))
		}
	}
	if order.CustomerPhone != "" {
		sms := client.OrderConfirmationSMS(order.OrderNumber, order.TempPickupCode)
		if !s.notifier.SendSMS(nctx, order.CustomerPhone, sms) {
			s.logger.Warn("confirmation sms not delivered", zap.String("order", order.OrderNumber))
		}
	}
}

func (s *paymentServiceImpl) recordEvent(ctx context.Context, reference string, event *model.LygosWebhookEvent) {
	if err := s.webhookEventRepo.Record(ctx, reference, event.ID, event.Status); err != nil {
		s.logger.Warn("record webhook event", zap.Error(err))
	}
}

func confirmationEmailHTML(order *model.Order, items []*model.OrderItem, slot *model.PickupSlot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<h2>Commande %s confirmée</h2>", order.OrderNumber)
	fmt.Fprintf(&b, "<p>Bonjour %s,</p>", order.CustomerName)
	b.WriteString("<ul>")
	for _, item := range items {
		fmt.Fprintf(&b, "<li>%s × %d : %s %s</li>",
			item.ProductName, item.Quantity, item.Subtotal.StringFixed(2), order.Currency)
	}
	b.WriteString("</ul>")
	fmt.Fprintf(&b, "<p>Total: <b>%s %s</b></p>", order.Amount.StringFixed(2), order.Currency)
	fmt.Fprintf(&b, "<p>Code de retrait temporaire: <b>%s</b></p>", order.TempPickupCode)
	if slot != nil {
		fmt.Fprintf(&b, "<p>Créneau de retrait: %s de %s à %s</p>", slot.Date, slot.TimeFrom, slot.TimeTo)
	}
	return b.String()
}
