package order

// PlaceOrderItem is one requested line of a placement.
type PlaceOrderItem struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// PlaceOrderRequest is the placement payload.
type PlaceOrderRequest struct {
	ShippingAddress string           `json:"shipping_address"`
	PaymentMethod   string           `json:"payment_method"`
	Items           []PlaceOrderItem `json:"items"`
}

// PlaceOrderResponse is returned on a committed placement.
type PlaceOrderResponse struct {
	Order Order      `json:"order"`
	Items []LineItem `json:"items"`
}
