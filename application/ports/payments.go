package ports

import "context"

// PaymentRequest describes a card charge for an order
type PaymentRequest struct {
	OrderID  string
	UserID   string
	Amount   float64
	Currency string
}

// PaymentReceipt is returned by a successful charge
type PaymentReceipt struct {
	Reference string
	Captured  bool
}

// PaymentGateway captures card payments
type PaymentGateway interface {
	Charge(ctx context.Context, req PaymentRequest) (PaymentReceipt, error)
}
