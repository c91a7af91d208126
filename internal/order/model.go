package order

import "time"

type OrderStatus string

const (
	StatusPending    OrderStatus = "pending"
	StatusAccepted   OrderStatus = "accepted"
	StatusDispatched OrderStatus = "dispatched"
	StatusDelivered  OrderStatus = "delivered"
	StatusCancelled  OrderStatus = "cancelled"
)

// Valid reports membership in the closed status set.
func (s OrderStatus) Valid() bool {
	switch s {
	case StatusPending, StatusAccepted, StatusDispatched, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// Terminal statuses have no expected onward transitions.
func (s OrderStatus) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// OrderItem is a snapshot of a line item, copied at creation time.
// Name and price are historical, never re-derived from the live catalog.
type OrderItem struct {
	ID       uint    `json:"id,omitempty"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}

type Order struct {
	ID           uint        `json:"id"`
	Code         string      `json:"orderId"`
	UserID       *uint       `json:"userId,omitempty"`
	CustomerName string      `json:"customerName"`
	Email        string      `json:"email,omitempty"`
	Phone        string      `json:"phone"`
	Address      string      `json:"address"`
	DeliverySlot string      `json:"deliverySlot,omitempty"`
	Items        []OrderItem `json:"items"`
	Subtotal     float64     `json:"subtotal"`
	ServiceFee   float64     `json:"serviceFee"`
	DeliveryFee  float64     `json:"deliveryFee"`
	Total        float64     `json:"total"`
	Status       OrderStatus `json:"status"`
	BillHTML     string      `json:"billHtml,omitempty"`
	CreatedAt    time.Time   `json:"date"`
	AcceptedAt   *time.Time  `json:"acceptedAt,omitempty"`
	DispatchedAt *time.Time  `json:"dispatchedAt,omitempty"`
	DeliveredAt  *time.Time  `json:"deliveredAt,omitempty"`
	CancelledAt  *time.Time  `json:"cancelledAt,omitempty"`
}

// TransitionPolicy decides which status changes the lifecycle accepts.
type TransitionPolicy string

const (
	// PolicyLenient accepts any member of the status set from any
	// current status, matching the storefront's historical behavior.
	PolicyLenient TransitionPolicy = "lenient"
	// PolicyStrict enforces the forward-only fulfillment flow, with
	// cancellation reachable from any non-terminal status.
	PolicyStrict TransitionPolicy = "strict"
)

var strictNext = map[OrderStatus][]OrderStatus{
	StatusPending:    {StatusAccepted, StatusCancelled},
	StatusAccepted:   {StatusDispatched, StatusCancelled},
	StatusDispatched: {StatusDelivered, StatusCancelled},
}

// Allows reports whether the policy permits moving from one status to
// another. Re-asserting the current status is always permitted.
func (p TransitionPolicy) Allows(from, to OrderStatus) bool {
	if from == to {
		return true
	}
	if p != PolicyStrict {
		return true
	}
	for _, next := range strictNext[from] {
		if next == to {
			return true
		}
	}
	return false
}
