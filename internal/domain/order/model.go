package order

import "time"

// Item is a single line item on an order.
type Item struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

// Order is the canonical order record. Every raw document, regardless of
// shape, normalizes into one of these with defaults substituted for
// anything missing.
type Order struct {
	ID              string    `json:"id"`
	OrderID         string    `json:"orderId"`
	CustomerName    string    `json:"customerName"`
	CustomerPhone   string    `json:"customerPhone"`
	TotalAmount     float64   `json:"totalAmount"`
	DeliveryAddress string    `json:"deliveryAddress"`
	Items           []Item    `json:"items"`
	OrderStatus     string    `json:"orderStatus"`
	CreatedAt       time.Time `json:"createdAt"`
}

// Shape identifies which of the two upstream order schemas a raw
// document uses.
type Shape int

const (
	// ShapeFlat carries order details as top-level fields; orderId, when
	// present, is a plain identifier.
	ShapeFlat Shape = iota

	// ShapeNested carries the authoritative order details inside an
	// orderId object.
	ShapeNested
)

// Raw is a raw order document with its shape resolved once at ingestion.
type Raw struct {
	Shape   Shape
	Doc     map[string]any
	Details map[string]any // nested orderId payload; nil for ShapeFlat
	OrderID string         // scalar order identifier; "" when unavailable
}
