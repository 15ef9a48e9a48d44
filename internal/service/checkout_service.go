package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"sigilo/internal/models"
	"sigilo/internal/repository"
	"sigilo/pkg/gateway"
	"sigilo/pkg/qr"

	"github.com/google/uuid"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrPaymentNotFound = errors.New("payment not found")
)

// CheckoutService owns the payment state machine: it creates gateway
// charges, persists payments, reconciles them against provider-reported
// settlement and releases the secret link exactly once on confirmation.
type CheckoutService struct {
	products *repository.ProductRepository
	payments *repository.PaymentRepository
	gateway  gateway.Gateway
	notifier Notifier
}

func NewCheckoutService(
	products *repository.ProductRepository,
	payments *repository.PaymentRepository,
	gw gateway.Gateway,
	notifier Notifier,
) *CheckoutService {
	return &CheckoutService{
		products: products,
		payments: payments,
		gateway:  gw,
		notifier: notifier,
	}
}

// CheckoutResult carries the created payment plus the catalog marketing
// fields the checkout response echoes back.
type CheckoutResult struct {
	Payment      *models.Payment
	Note         string
	LifetimeText string
}

// CreateCheckout creates a gateway charge for the product and persists a
// pending payment. A payment row exists only if the charge succeeded; gateway
// errors surface to the caller untouched so it can tell configuration,
// transport and protocol failures apart.
func (s *CheckoutService) CreateCheckout(ctx context.Context, productID string, customerID int64, customerRef string) (*CheckoutResult, error) {
	product, err := s.products.GetByID(productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}

	paymentID := fmt.Sprintf("%s-%s", product.ProductID, shortID())
	if customerRef == "" {
		customerRef = strings.ReplaceAll(uuid.NewString(), "-", "")
	}

	charge, err := s.gateway.CreateCharge(ctx, product.Price, paymentID)
	if err != nil {
		return nil, err
	}

	qrBase64 := charge.QRBase64
	if qrBase64 == "" {
		qrBase64, err = qr.Base64PNG(charge.ChargeCode)
		if err != nil {
			// The copy-and-paste code alone is payable; the image is not.
			log.Printf("[Checkout] QR render failed for %s: %v", paymentID, err)
			qrBase64 = ""
		}
	}

	txID := charge.TransactionID
	if txID == "" {
		txID = paymentID
	}

	now := time.Now().UTC()
	payment := &models.Payment{
		PaymentID:    paymentID,
		ProductID:    product.ProductID,
		ProductTitle: product.Title,
		Price:        product.Price,
		SecretLink:   product.SecretLink,
		CustomerID:   customerID,
		CustomerRef:  customerRef,
		PixCode:      charge.ChargeCode,
		QRBase64:     qrBase64,
		Status:       models.StatusPending,
		GatewayTxID:  txID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.payments.Create(payment); err != nil {
		return nil, err
	}
	return &CheckoutResult{
		Payment:      payment,
		Note:         product.Note,
		LifetimeText: product.LifetimeText,
	}, nil
}

// Reconcile queries the gateway for a pending payment and applies the
// resulting transition. It never returns an error for gateway failures: the
// payment stays pending and the next sweep retries, so one bad record cannot
// stall the rest of a pass.
func (s *CheckoutService) Reconcile(ctx context.Context, p *models.Payment) {
	if p.Status != models.StatusPending {
		return
	}
	txID := p.GatewayTxID
	if txID == "" {
		txID = p.PaymentID
	}
	status, err := s.gateway.GetStatus(ctx, txID)
	if err != nil {
		log.Printf("[Reconcile] status query failed for %s: %v", p.PaymentID, err)
		return
	}
	s.applyStatus(ctx, p, status)
}

// ApplyGatewayStatus is the webhook entry point: it maps the provider's raw
// status vocabulary onto the canonical one and applies the same transition
// rules as Reconcile. Unknown payments and unrecognized statuses are logged
// and ignored so providers retrying stale events get a clean 200.
func (s *CheckoutService) ApplyGatewayStatus(ctx context.Context, referenceID, rawStatus string) error {
	status := gateway.ParseStatus(rawStatus)
	if status == gateway.StatusUnknown {
		log.Printf("[Webhook] unrecognized status %q for %s", rawStatus, referenceID)
		return nil
	}
	p, err := s.payments.GetByID(referenceID)
	if err != nil {
		return err
	}
	if p == nil {
		log.Printf("[Webhook] unknown payment reference %s", referenceID)
		return nil
	}
	s.applyStatus(ctx, p, status)
	return nil
}

// applyStatus drives the pending->paid / pending->canceled transitions.
// The compare-and-swap in the repository decides the winner under concurrent
// reconciliation; only the winner notifies, so delivery fires at most once.
func (s *CheckoutService) applyStatus(ctx context.Context, p *models.Payment, status gateway.Status) {
	var to models.PaymentStatus
	switch status {
	case gateway.StatusPaid:
		to = models.StatusPaid
	case gateway.StatusCanceled:
		to = models.StatusCanceled
	default:
		return
	}

	won, err := s.payments.TransitionFromPending(p.PaymentID, to)
	if err != nil {
		log.Printf("[Reconcile] transition failed for %s: %v", p.PaymentID, err)
		return
	}
	if !won {
		return
	}
	p.Status = to
	log.Printf("[Reconcile] payment %s -> %s", p.PaymentID, to)

	if to == models.StatusPaid && p.CustomerID != 0 {
		if err := s.notifier.NotifyPaymentConfirmed(ctx, p.CustomerID, p.ProductTitle, p.SecretLink); err != nil {
			// Delivery failure does not undo the confirmation; the customer
			// can still fetch the link through the read path.
			log.Printf("[Reconcile] delivery failed for %s (customer %d): %v", p.PaymentID, p.CustomerID, err)
		}
	}
}

// GetPaymentView returns the read projection with the secret link withheld
// unless the payment is paid.
func (s *CheckoutService) GetPaymentView(paymentID string) (*models.PaymentView, error) {
	p, err := s.payments.GetByID(paymentID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrPaymentNotFound
	}
	view := p.View()
	return &view, nil
}

// shortID yields 8 hex chars (4 bytes of uuid-sourced entropy) for payment ids.
func shortID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}
