// Package policy computes the pickup deadline an order must be
// collected by and validates the chosen slot against it.
package policy

import (
	"time"

	"grocollect/internal/domain"
	"grocollect/internal/model"
)

type Policy struct {
	PerishableHours    int
	NonPerishableHours int
}

func Default() Policy {
	return Policy{PerishableHours: 24, NonPerishableHours: 48}
}

// Deadline returns the latest pickup time for an order created at now.
// Orders containing any perishable item get the shorter window.
func (p Policy) Deadline(now time.Time, perishable bool) time.Time {
	hours := p.NonPerishableHours
	if perishable {
		hours = p.PerishableHours
	}
	return now.Add(time.Duration(hours) * time.Hour)
}

// ValidateSlot rejects a slot whose window ends after the deadline.
// The check runs synchronously at order creation and is never relaxed.
func (p Policy) ValidateSlot(slot *model.PickupSlot, deadline time.Time) error {
	end, err := slot.EndsAt()
	if err != nil {
		return domain.Validation("invalid pickup slot window: %v", err)
	}
	if end.After(deadline) {
		return domain.Validation("chosen pickup slot exceeds allowed window")
	}
	return nil
}
