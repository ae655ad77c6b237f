package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grocollect/internal/domain"
	"grocollect/internal/model"
)

func orderStatus(t *testing.T, f *fixture, orderID string) model.OrderStatus {
	t.Helper()
	order, err := f.orderRepo.FindByID(context.Background(), orderID)
	require.NoError(t, err)
	return order.Status
}

func TestWebhookPaidTransition(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	order, err := f.orderSvc.Create(ctx, baseOrderRequest(), "")
	require.NoError(t, err)

	deliverPaidWebhook(t, f, order.OrderNumber)

	assert.Equal(t, model.StatusPaid, orderStatus(t, f, order.ID))
	assert.Equal(t, 1, f.notifier.emailCount())

	entries, err := f.activityRepo.ListByEntity(ctx, "order", order.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "order_created", entries[0].Action)
	assert.Equal(t, "payment_confirmed", entries[1].Action)
}

func TestWebhookPaidIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	order, err := f.orderSvc.Create(ctx, baseOrderRequest(), "")
	require.NoError(t, err)

	// provider re-delivery: second event is acked without side effects
	deliverPaidWebhook(t, f, order.OrderNumber)
	deliverPaidWebhook(t, f, order.OrderNumber)

	assert.Equal(t, model.StatusPaid, orderStatus(t, f, order.ID))
	assert.Equal(t, 1, f.notifier.emailCount(), "confirmation must be sent once")

	entries, err := f.activityRepo.ListByEntity(ctx, "order", order.ID)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	order, err := f.orderSvc.Create(ctx, baseOrderRequest(), "")
	require.NoError(t, err)

	body := []byte(fmt.Sprintf(`{"reference":%q,"status":"paid"}`, order.OrderNumber))
	// signature computed over different bytes than the delivered body
	reserialized := []byte(fmt.Sprintf(`{ "reference": %q, "status": "paid" }`, order.OrderNumber))

	err = f.paymentSvc.HandleWebhook(ctx, "10.0.0.2", signWebhook(reserialized), body)
	require.Error(t, err)
	assert.Equal(t, domain.KindSignature, kindOf(t, err))
	assert.Equal(t, model.StatusPendingPayment, orderStatus(t, f, order.ID))
	assert.Zero(t, f.notifier.emailCount())
}

func TestWebhookFailedCancelsOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	order, err := f.orderSvc.Create(ctx, baseOrderRequest(), "")
	require.NoError(t, err)

	body := []byte(fmt.Sprintf(`{"reference":%q,"status":"failed"}`, order.OrderNumber))
	require.NoError(t, f.paymentSvc.HandleWebhook(ctx, "10.0.0.3", signWebhook(body), body))

	assert.Equal(t, model.StatusCanceled, orderStatus(t, f, order.ID))

	entries, err := f.activityRepo.ListByEntity(ctx, "order", order.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "payment_failed", entries[1].Action)
}

func TestWebhookUnknownStatusAcked(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	order, err := f.orderSvc.Create(ctx, baseOrderRequest(), "")
	require.NoError(t, err)

	body := []byte(fmt.Sprintf(`{"reference":%q,"status":"processing"}`, order.OrderNumber))
	require.NoError(t, f.paymentSvc.HandleWebhook(ctx, "10.0.0.4", signWebhook(body), body))

	assert.Equal(t, model.StatusPendingPayment, orderStatus(t, f, order.ID))
}

func TestWebhookUnknownOrderAcked(t *testing.T) {
	f := newFixture(t)

	body := []byte(`{"reference":"GC-0-UNKNOWN","status":"paid"}`)
	assert.NoError(t, f.paymentSvc.HandleWebhook(context.Background(), "10.0.0.5", signWebhook(body), body))
}

func TestWebhookMalformedPayload(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	body := []byte(`{not json`)
	err := f.paymentSvc.HandleWebhook(ctx, "10.0.0.6", signWebhook(body), body)
	require.Error(t, err)
	assert.Equal(t, domain.KindValidation, kindOf(t, err))

	body = []byte(`{"status":"paid"}`)
	err = f.paymentSvc.HandleWebhook(ctx, "10.0.0.6", signWebhook(body), body)
	require.Error(t, err)
	assert.Equal(t, domain.KindValidation, kindOf(t, err))
}

func TestWebhookLatePaidAfterCancelIsNoOp(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	order, err := f.orderSvc.Create(ctx, baseOrderRequest(), "")
	require.NoError(t, err)

	failed := []byte(fmt.Sprintf(`{"reference":%q,"status":"canceled"}`, order.OrderNumber))
	require.NoError(t, f.paymentSvc.HandleWebhook(ctx, "10.0.0.7", signWebhook(failed), failed))
	require.Equal(t, model.StatusCanceled, orderStatus(t, f, order.ID))

	// a success event arriving after cancelation is acked but not applied
	deliverPaidWebhook(t, f, order.OrderNumber)

	assert.Equal(t, model.StatusCanceled, orderStatus(t, f, order.ID))
	assert.Zero(t, f.notifier.emailCount())
}

func TestWebhookRateLimit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	body := []byte(`{"reference":"GC-0-UNKNOWN","status":"paid"}`)
	sig := signWebhook(body)

	for i := 0; i < 20; i++ {
		require.NoError(t, f.paymentSvc.HandleWebhook(ctx, "203.0.113.9", sig, body))
	}

	err := f.paymentSvc.HandleWebhook(ctx, "203.0.113.9", sig, body)
	require.Error(t, err)
	assert.Equal(t, domain.KindRateLimited, kindOf(t, err))

	// other source addresses keep their own budget
	assert.NoError(t, f.paymentSvc.HandleWebhook(ctx, "203.0.113.10", sig, body))
}

func TestWebhookResolvesMetadataOrderID(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	order, err := f.orderSvc.Create(ctx, baseOrderRequest(), "")
	require.NoError(t, err)

	// providers that omit the reference still carry the order id in metadata
	body := []byte(fmt.Sprintf(`{"status":"success","metadata":{"orderId":%q}}`, order.ID))
	require.NoError(t, f.paymentSvc.HandleWebhook(ctx, "10.0.0.8", signWebhook(body), body))

	assert.Equal(t, model.StatusPaid, orderStatus(t, f, order.ID))
}

func TestWebhookEventRecorded(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	order, err := f.orderSvc.Create(ctx, baseOrderRequest(), "")
	require.NoError(t, err)
	deliverPaidWebhook(t, f, order.OrderNumber)

	var events []model.WebhookEvent
	require.NoError(t, f.db.Where("reference = ?", order.OrderNumber).Find(&events).Error)
	require.Len(t, events, 1)
	assert.Equal(t, "paid", events[0].Status)
}
