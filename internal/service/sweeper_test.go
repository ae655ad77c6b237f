package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grocollect/internal/model"
)

func TestSweeperCancelsExpiredOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	order, err := f.orderSvc.Create(ctx, baseOrderRequest(), "")
	require.NoError(t, err)

	// sweep runs past the non-perishable 48h window
	sweepAt := fixedNow.Add(49 * time.Hour)
	canceled, err := f.sweeper.CancelExpired(ctx, sweepAt)
	require.NoError(t, err)
	assert.Equal(t, 1, canceled)

	assert.Equal(t, model.StatusCanceled, orderStatus(t, f, order.ID))

	// reserved stock and slot capacity come back
	product, err := f.productRepo.FindByID(ctx, "pain")
	require.NoError(t, err)
	assert.EqualValues(t, 10, product.Stock)

	slot, err := f.slotRepo.FindByID(ctx, "slot-near")
	require.NoError(t, err)
	assert.EqualValues(t, 10, slot.Remaining)

	entries, err := f.activityRepo.ListByEntity(ctx, "order", order.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "order_expired", entries[1].Action)
}

func TestSweepFinishesOnSingleConnection(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	order, err := f.orderSvc.Create(ctx, baseOrderRequest(), "")
	require.NoError(t, err)

	// the fixture pool holds one connection; the sweep must read items
	// inside its own transaction or it waits on itself forever
	done := make(chan error, 1)
	go func() {
		_, serr := f.sweeper.CancelExpired(ctx, fixedNow.Add(49*time.Hour))
		done <- serr
	}()

	select {
	case serr := <-done:
		require.NoError(t, serr)
	case <-time.After(10 * time.Second):
		t.Fatal("sweep did not finish on a single-connection pool")
	}

	assert.Equal(t, model.StatusCanceled, orderStatus(t, f, order.ID))
}

func TestSweeperLeavesUnexpiredOrders(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	order, err := f.orderSvc.Create(ctx, baseOrderRequest(), "")
	require.NoError(t, err)

	canceled, err := f.sweeper.CancelExpired(ctx, fixedNow.Add(time.Hour))
	require.NoError(t, err)
	assert.Zero(t, canceled)
	assert.Equal(t, model.StatusPendingPayment, orderStatus(t, f, order.ID))
}

func TestSweeperLeavesPaidAwaitingValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	order := paidOrder(t, f)

	// paid is not an expirable status: the customer already committed money
	canceled, err := f.sweeper.CancelExpired(ctx, fixedNow.Add(72*time.Hour))
	require.NoError(t, err)
	assert.Zero(t, canceled)
	assert.Equal(t, model.StatusPaid, orderStatus(t, f, order.ID))
}

func TestSweeperCancelsStalledConfirmedOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	order := paidOrder(t, f)
	_, err := f.pickupSvc.ValidateTemporaryCode(ctx, preparer(), order.ID, order.TempPickupCode)
	require.NoError(t, err)

	canceled, err := f.sweeper.CancelExpired(ctx, fixedNow.Add(72*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, canceled)
	assert.Equal(t, model.StatusCanceled, orderStatus(t, f, order.ID))
}
