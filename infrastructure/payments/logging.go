// Package payments holds PaymentGateway adapters. Capture is not performed:
// the logging gateway accepts every charge and records it.
package payments

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"storefront-backend/application/ports"
)

// LoggingGateway approves charges without contacting a processor
type LoggingGateway struct {
	logger *zap.Logger
}

var _ ports.PaymentGateway = (*LoggingGateway)(nil)

// NewLoggingGateway creates the gateway
func NewLoggingGateway(logger *zap.Logger) *LoggingGateway {
	return &LoggingGateway{logger: logger}
}

// Charge logs the request and returns a synthetic reference
func (g *LoggingGateway) Charge(ctx context.Context, req ports.PaymentRequest) (ports.PaymentReceipt, error) {
	if req.Amount <= 0 {
		return ports.PaymentReceipt{}, fmt.Errorf("invalid charge amount %.2f", req.Amount)
	}
	ref := "pay_" + uuid.NewString()
	g.logger.Info("payment accepted",
		zap.String("order_id", req.OrderID),
		zap.String("user_id", req.UserID),
		zap.Float64("amount", req.Amount),
		zap.String("currency", req.Currency),
		zap.String("reference", ref),
	)
	return ports.PaymentReceipt{Reference: ref, Captured: true}, nil
}
