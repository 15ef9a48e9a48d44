package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"sigilo/internal/database"
	"sigilo/internal/models"
	"sigilo/internal/repository"
	"sigilo/pkg/gateway"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// single connection keeps the in-memory database alive and serializes writes
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.AutoMigrate(db))
	return db
}

type recordingNotifier struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (n *recordingNotifier) NotifyPaymentConfirmed(ctx context.Context, customerID int64, productTitle, secretLink string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, secretLink)
	return n.err
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.calls)
}

type fixture struct {
	svc      *CheckoutService
	products *repository.ProductRepository
	payments *repository.PaymentRepository
	stub     *gateway.Stub
	notifier *recordingNotifier
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testDB(t)
	f := &fixture{
		products: repository.NewProductRepository(db),
		payments: repository.NewPaymentRepository(db),
		stub:     gateway.NewStub(),
		notifier: &recordingNotifier{},
	}
	f.svc = NewCheckoutService(f.products, f.payments, f.stub, f.notifier)

	require.NoError(t, f.products.Save(&models.Product{
		ProductID:  "vip-pro",
		Title:      "VIP Pro",
		Price:      decimal.RequireFromString("497.00"),
		Currency:   "BRL",
		SecretLink: "https://example.com/secret/vip-pro",
	}))
	return f
}

func TestCreateCheckout(t *testing.T) {
	f := newFixture(t)

	result, err := f.svc.CreateCheckout(context.Background(), "vip-pro", 42, "")
	require.NoError(t, err)
	p := result.Payment

	assert.Equal(t, models.StatusPending, p.Status)
	assert.NotEmpty(t, p.PixCode)
	assert.NotEmpty(t, p.QRBase64)
	assert.Equal(t, "vip-pro", p.ProductID)
	assert.Equal(t, "VIP Pro", p.ProductTitle)
	assert.Equal(t, int64(42), p.CustomerID)
	assert.NotEmpty(t, p.CustomerRef)
	assert.Regexp(t, `^vip-pro-[0-9a-f]{8}$`, p.PaymentID)
	assert.True(t, p.Price.Equal(decimal.RequireFromString("497.00")))

	stored, err := f.payments.GetByID(p.PaymentID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, models.StatusPending, stored.Status)
	assert.Equal(t, "https://example.com/secret/vip-pro", stored.SecretLink)
}

func TestCreateCheckoutUnknownProduct(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CreateCheckout(context.Background(), "does-not-exist", 0, "")
	assert.ErrorIs(t, err, ErrProductNotFound)

	all, err := f.payments.List()
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestCreateCheckoutGatewayFailure(t *testing.T) {
	f := newFixture(t)
	f.stub.ChargeErr = &gateway.Error{Op: "create charge", StatusCode: 503, Body: "unavailable"}

	_, err := f.svc.CreateCheckout(context.Background(), "vip-pro", 0, "")
	var gwErr *gateway.Error
	assert.ErrorAs(t, err, &gwErr)

	all, err := f.payments.List()
	require.NoError(t, err)
	assert.Empty(t, all, "no payment row may exist when charge creation failed")
}

func TestCreateCheckoutConfigurationError(t *testing.T) {
	f := newFixture(t)
	f.stub.ChargeErr = &gateway.ConfigurationError{Reason: "PUSHINPAY_API_KEY not set"}

	_, err := f.svc.CreateCheckout(context.Background(), "vip-pro", 0, "")
	var confErr *gateway.ConfigurationError
	assert.ErrorAs(t, err, &confErr)
}

func TestReconcilePaidDeliversOnce(t *testing.T) {
	f := newFixture(t)

	result, err := f.svc.CreateCheckout(context.Background(), "vip-pro", 42, "")
	require.NoError(t, err)
	p := result.Payment
	f.stub.SetStatus(p.GatewayTxID, gateway.StatusPaid)

	f.svc.Reconcile(context.Background(), p)
	assert.Equal(t, models.StatusPaid, p.Status)
	assert.Equal(t, 1, f.notifier.count())
	assert.Equal(t, []string{"https://example.com/secret/vip-pro"}, f.notifier.calls)

	// second pass over the already-paid payment is a no-op
	fresh, err := f.payments.GetByID(p.PaymentID)
	require.NoError(t, err)
	f.svc.Reconcile(context.Background(), fresh)
	assert.Equal(t, models.StatusPaid, fresh.Status)
	assert.Equal(t, 1, f.notifier.count())
}

func TestReconcileCanceled(t *testing.T) {
	f := newFixture(t)

	result, err := f.svc.CreateCheckout(context.Background(), "vip-pro", 42, "")
	require.NoError(t, err)
	f.stub.SetStatus(result.Payment.GatewayTxID, gateway.StatusCanceled)

	f.svc.Reconcile(context.Background(), result.Payment)
	stored, err := f.payments.GetByID(result.Payment.PaymentID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCanceled, stored.Status)
	assert.Zero(t, f.notifier.count())

	// terminal status never reverts
	f.stub.SetStatus(stored.GatewayTxID, gateway.StatusPaid)
	f.svc.Reconcile(context.Background(), stored)
	stored, err = f.payments.GetByID(stored.PaymentID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCanceled, stored.Status)
	assert.Zero(t, f.notifier.count())
}

func TestReconcileGatewayFailureKeepsPending(t *testing.T) {
	f := newFixture(t)

	result, err := f.svc.CreateCheckout(context.Background(), "vip-pro", 42, "")
	require.NoError(t, err)
	f.stub.StatusErr = errors.New("connection refused")

	f.svc.Reconcile(context.Background(), result.Payment)
	stored, err := f.payments.GetByID(result.Payment.PaymentID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, stored.Status)
	assert.Zero(t, f.notifier.count())
}

func TestReconcileUnknownStatusNoTransition(t *testing.T) {
	f := newFixture(t)

	result, err := f.svc.CreateCheckout(context.Background(), "vip-pro", 42, "")
	require.NoError(t, err)
	f.stub.SetStatus(result.Payment.GatewayTxID, gateway.StatusUnknown)

	f.svc.Reconcile(context.Background(), result.Payment)
	stored, err := f.payments.GetByID(result.Payment.PaymentID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, stored.Status)
}

func TestConcurrentReconcileDeliversExactlyOnce(t *testing.T) {
	f := newFixture(t)

	result, err := f.svc.CreateCheckout(context.Background(), "vip-pro", 42, "")
	require.NoError(t, err)
	f.stub.SetStatus(result.Payment.GatewayTxID, gateway.StatusPaid)

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		pc := *result.Payment
		wg.Add(1)
		go func() {
			defer wg.Done()
			f.svc.Reconcile(context.Background(), &pc)
		}()
	}
	wg.Wait()

	stored, err := f.payments.GetByID(result.Payment.PaymentID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPaid, stored.Status)
	assert.Equal(t, 1, f.notifier.count(), "exactly one delivery across concurrent reconcilers")
}

func TestReconcileAnonymousCustomerSkipsDelivery(t *testing.T) {
	f := newFixture(t)

	result, err := f.svc.CreateCheckout(context.Background(), "vip-pro", 0, "web-ref")
	require.NoError(t, err)
	f.stub.SetStatus(result.Payment.GatewayTxID, gateway.StatusPaid)

	f.svc.Reconcile(context.Background(), result.Payment)
	assert.Equal(t, models.StatusPaid, result.Payment.Status)
	assert.Zero(t, f.notifier.count())
}

func TestDeliveryFailureKeepsPaid(t *testing.T) {
	f := newFixture(t)
	f.notifier.err = errors.New("chat not found")

	result, err := f.svc.CreateCheckout(context.Background(), "vip-pro", 42, "")
	require.NoError(t, err)
	f.stub.SetStatus(result.Payment.GatewayTxID, gateway.StatusPaid)

	f.svc.Reconcile(context.Background(), result.Payment)
	stored, err := f.payments.GetByID(result.Payment.PaymentID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPaid, stored.Status)
	assert.Equal(t, 1, f.notifier.count())
}

func TestApplyGatewayStatusWebhook(t *testing.T) {
	f := newFixture(t)

	result, err := f.svc.CreateCheckout(context.Background(), "vip-pro", 42, "")
	require.NoError(t, err)
	id := result.Payment.PaymentID

	// unrecognized vocabulary is logged and ignored
	require.NoError(t, f.svc.ApplyGatewayStatus(context.Background(), id, "chargeback"))
	stored, _ := f.payments.GetByID(id)
	assert.Equal(t, models.StatusPending, stored.Status)

	// unknown references are ignored
	require.NoError(t, f.svc.ApplyGatewayStatus(context.Background(), "missing-1234", "paid"))

	// provider casing is normalized
	require.NoError(t, f.svc.ApplyGatewayStatus(context.Background(), id, "PAID"))
	stored, _ = f.payments.GetByID(id)
	assert.Equal(t, models.StatusPaid, stored.Status)
	assert.Equal(t, 1, f.notifier.count())

	// replayed webhook is idempotent
	require.NoError(t, f.svc.ApplyGatewayStatus(context.Background(), id, "paid"))
	assert.Equal(t, 1, f.notifier.count())
}

func TestGetPaymentViewRedaction(t *testing.T) {
	f := newFixture(t)

	result, err := f.svc.CreateCheckout(context.Background(), "vip-pro", 42, "")
	require.NoError(t, err)
	id := result.Payment.PaymentID

	view, err := f.svc.GetPaymentView(id)
	require.NoError(t, err)
	assert.Empty(t, view.SecretLink, "pending payments must not reveal the secret link")

	f.stub.SetStatus(result.Payment.GatewayTxID, gateway.StatusPaid)
	f.svc.Reconcile(context.Background(), result.Payment)

	view, err = f.svc.GetPaymentView(id)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/secret/vip-pro", view.SecretLink)

	_, err = f.svc.GetPaymentView("nope")
	assert.ErrorIs(t, err, ErrPaymentNotFound)
}

func TestProductDeletionKeepsPaymentSnapshot(t *testing.T) {
	f := newFixture(t)

	result, err := f.svc.CreateCheckout(context.Background(), "vip-pro", 42, "")
	require.NoError(t, err)
	require.NoError(t, f.products.Delete("vip-pro"))

	f.stub.SetStatus(result.Payment.GatewayTxID, gateway.StatusPaid)
	f.svc.Reconcile(context.Background(), result.Payment)

	view, err := f.svc.GetPaymentView(result.Payment.PaymentID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPaid, view.Status)
	assert.Equal(t, "VIP Pro", view.ProductTitle)
	assert.Equal(t, "https://example.com/secret/vip-pro", view.SecretLink)
}
