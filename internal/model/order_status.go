package model

type OrderStatus string

const (
	StatusPendingPayment OrderStatus = "pending_payment"
	StatusPaid           OrderStatus = "paid"
	StatusConfirmed      OrderStatus = "confirmed"
	StatusInPreparation  OrderStatus = "in_preparation"
	StatusReady          OrderStatus = "ready"
	StatusCompleted      OrderStatus = "completed"
	StatusCanceled       OrderStatus = "canceled"
)

// transitions is the single source of truth for order lifecycle legality.
// Every status mutation goes through a conditional update whose allowed
// source set is drawn from this table; nothing checks statuses ad hoc.
var transitions = map[OrderStatus][]OrderStatus{
	StatusPendingPayment: {StatusPaid, StatusCanceled},
	StatusPaid:           {StatusConfirmed},
	StatusConfirmed:      {StatusInPreparation, StatusCompleted, StatusCanceled},
	StatusInPreparation:  {StatusReady, StatusCanceled},
	StatusReady:          {StatusCompleted},
}

func (s OrderStatus) String() string { return string(s) }

func (s OrderStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCanceled
}

func (s OrderStatus) CanTransition(to OrderStatus) bool {
	for _, t := range transitions[s] {
		if t == to {
			return true
		}
	}
	return false
}

// TransitionSources returns every status from which to is reachable.
func TransitionSources(to OrderStatus) []OrderStatus {
	var from []OrderStatus
	for _, s := range []OrderStatus{
		StatusPendingPayment, StatusPaid, StatusConfirmed,
		StatusInPreparation, StatusReady, StatusCompleted, StatusCanceled,
	} {
		if s.CanTransition(to) {
			from = append(from, s)
		}
	}
	return from
}

// ExpirableStatuses are the states the expiration sweep may cancel from.
var ExpirableStatuses = []OrderStatus{StatusPendingPayment, StatusConfirmed, StatusInPreparation}
