package gateway

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Status is the canonical settlement state. Every provider-specific
// vocabulary is mapped onto it; unrecognized values become StatusUnknown and
// never drive a transition.
type Status string

const (
	StatusPending  Status = "pending"
	StatusPaid     Status = "paid"
	StatusCanceled Status = "canceled"
	StatusUnknown  Status = "unknown"
)

// ParseStatus normalizes a provider-reported status string.
func ParseStatus(raw string) Status {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "paid":
		return StatusPaid
	case "canceled", "cancelled", "expired":
		return StatusCanceled
	case "created", "pending", "waiting_payment":
		return StatusPending
	default:
		return StatusUnknown
	}
}

// Charge is the result of creating a PIX cash-in with a provider.
// QRBase64 may be empty when the provider does not render an image.
type Charge struct {
	ChargeCode    string
	TransactionID string
	QRBase64      string
}

// Gateway is the PIX provider capability used by the checkout path and the
// reconciliation worker. Amount is in major units (reais); each client
// converts to the unit its provider expects.
type Gateway interface {
	CreateCharge(ctx context.Context, amount decimal.Decimal, reference string) (*Charge, error)
	GetStatus(ctx context.Context, transactionID string) (Status, error)
}

// minimumCents is the smallest chargeable PIX amount (R$ 0,50). Checked
// locally before any network call.
const minimumCents = 50

func checkMinimum(amount decimal.Decimal) error {
	cents := amount.Mul(decimal.NewFromInt(100)).IntPart()
	if cents < minimumCents {
		return &ConfigurationError{Reason: fmt.Sprintf("amount below gateway minimum of %d cents", minimumCents)}
	}
	return nil
}

// ConfigurationError means the operator left credentials unset or requested
// an amount the provider documents as unchargeable. Never retried.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "gateway configuration: " + e.Reason
}

// Error is a transport or HTTP failure talking to the provider. Retryable on
// the next reconciliation pass; timeouts are reported the same way.
type Error struct {
	Op         string
	StatusCode int
	Body       string
	Err        error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("gateway %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("gateway %s: status %d: %s", e.Op, e.StatusCode, e.Body)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ProtocolError means the provider answered 2xx but the payload was unusable
// (no charge code). A fresh checkout attempt may still succeed.
type ProtocolError struct {
	Reason string
}

func (e *ProtocolError) Error() string {
	return "gateway protocol: " + e.Reason
}
