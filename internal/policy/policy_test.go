package policy

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grocollect/internal/domain"
	"grocollect/internal/model"
)

func TestDeadline(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.Local)
	p := Default()

	assert.Equal(t, now.Add(24*time.Hour), p.Deadline(now, true))
	assert.Equal(t, now.Add(48*time.Hour), p.Deadline(now, false))
}

func TestDeadlineConfigurableHours(t *testing.T) {
	now := time.Now()
	p := Policy{PerishableHours: 6, NonPerishableHours: 12}

	assert.Equal(t, now.Add(6*time.Hour), p.Deadline(now, true))
	assert.Equal(t, now.Add(12*time.Hour), p.Deadline(now, false))
}

func TestValidateSlotWithinDeadline(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.Local)
	p := Default()
	deadline := p.Deadline(now, false) // 2025-03-12 12:00

	slot := &model.PickupSlot{Date: "2025-03-12", TimeFrom: "09:00", TimeTo: "11:00"}
	assert.NoError(t, p.ValidateSlot(slot, deadline))
}

func TestValidateSlotEndBeyondDeadline(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.Local)
	p := Default()
	deadline := p.Deadline(now, true) // 2025-03-11 12:00

	// window starts inside the deadline but ends past it; the end of
	// the window is what counts
	slot := &model.PickupSlot{Date: "2025-03-11", TimeFrom: "11:00", TimeTo: "13:00"}
	err := p.ValidateSlot(slot, deadline)
	require.Error(t, err)

	var de *domain.Error
	require.True(t, errors.As(err, &de))
	assert.Equal(t, domain.KindValidation, de.Kind)
}

func TestValidateSlotEndExactlyAtDeadline(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.Local)
	p := Default()
	deadline := p.Deadline(now, true)

	slot := &model.PickupSlot{Date: "2025-03-11", TimeFrom: "10:00", TimeTo: "12:00"}
	assert.NoError(t, p.ValidateSlot(slot, deadline))
}

func TestValidateSlotBadWindow(t *testing.T) {
	p := Default()
	slot := &model.PickupSlot{Date: "not-a-date", TimeFrom: "09:00", TimeTo: "11:00"}
	assert.Error(t, p.ValidateSlot(slot, time.Now()))
}
