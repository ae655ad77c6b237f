package model

// LygosWebhookEvent mirrors the payment provider's callback body.
// It is transient: only its effect on the order is persisted.
type LygosWebhookEvent struct {
	ID        string        `json:"id"`
	Reference string        `json:"reference"`
	Status    string        `json:"status"`
	Metadata  LygosMetadata `json:"metadata"`
}

type LygosMetadata struct {
	OrderID string `json:"orderId"`
}

// OrderReference resolves the order reference, falling back to the
// metadata order id some provider events carry instead.
func (e *LygosWebhookEvent) OrderReference() string {
	if e.Reference != "" {
		return e.Reference
	}
	return e.Metadata.OrderID
}
