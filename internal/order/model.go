package order

import "time"

type Status string

const (
	StatusPending   Status = "pending"
	StatusCommitted Status = "committed"
	StatusFailed    Status = "failed"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusCommitted, StatusFailed:
		return true
	}
	return false
}

type Order struct {
	ID              string    `json:"id"`
	UserID          string    `json:"user_id"`
	Status          Status    `json:"status"`
	ShippingAddress string    `json:"shipping_address"`
	PaymentMethod   string    `json:"payment_method"`
	Total           string    `json:"total_amount"` // NUMERIC -> string
	CreatedAt       time.Time `json:"created_at"`
}

// LineItem is immutable once its order commits. Price is the unit price
// snapshot captured at reservation time, not the live catalog price.
type LineItem struct {
	ID        string `json:"id"`
	OrderID   string `json:"order_id"`
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Price     string `json:"unit_price_at_purchase"`
}
