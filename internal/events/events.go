package events

// Order event types picked up by downstream fulfillment and notification
// consumers.
const (
	EventOrderCreated       = "order.created"
	EventOrderStatusChanged = "order.status_changed"
)

// OrderCreatedPayload captures the minimal data a consumer needs to act
// on a freshly placed order.
type OrderCreatedPayload struct {
	OrderID      string `json:"order_id"`
	OrderNumber  string `json:"order_number"`
	UserID       string `json:"user_id"`
	TotalInclTax string `json:"total_incl_tax"`
	LineCount    int    `json:"line_count"`
}

// ToMap converts a payload into an outbox-friendly map.
func (p OrderCreatedPayload) ToMap() map[string]any {
	return map[string]any{
		"order_id":       p.OrderID,
		"order_number":   p.OrderNumber,
		"user_id":        p.UserID,
		"total_incl_tax": p.TotalInclTax,
		"line_count":     p.LineCount,
	}
}

// OrderStatusChangedPayload records a fulfillment status transition.
type OrderStatusChangedPayload struct {
	OrderID    string `json:"order_id"`
	FromStatus string `json:"from_status"`
	ToStatus   string `json:"to_status"`
}

// ToMap converts a payload into an outbox-friendly map.
func (p OrderStatusChangedPayload) ToMap() map[string]any {
	return map[string]any{
		"order_id":    p.OrderID,
		"from_status": p.FromStatus,
		"to_status":   p.ToStatus,
	}
}
