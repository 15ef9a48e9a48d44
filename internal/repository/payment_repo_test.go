package repository

import (
	"testing"
	"time"

	"sigilo/internal/database"
	"sigilo/internal/models"

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
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.AutoMigrate(db))
	return db
}

func seedPayment(t *testing.T, repo *PaymentRepository, id string, status models.PaymentStatus) *models.Payment {
	t.Helper()
	now := time.Now().UTC()
	p := &models.Payment{
		PaymentID:    id,
		ProductID:    "vip-pro",
		ProductTitle: "VIP Pro",
		Price:        decimal.RequireFromString("497.00"),
		SecretLink:   "https://example.com/secret",
		Status:       status,
		GatewayTxID:  "tx-" + id,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, repo.Create(p))
	return p
}

func TestEmptyStoreReadsAsZeroRecords(t *testing.T) {
	repo := NewPaymentRepository(testDB(t))

	pending, err := repo.ListPending()
	require.NoError(t, err)
	assert.Empty(t, pending)

	p, err := repo.GetByID("nothing")
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestTransitionFromPending(t *testing.T) {
	repo := NewPaymentRepository(testDB(t))
	seedPayment(t, repo, "vip-pro-aaaa1111", models.StatusPending)

	won, err := repo.TransitionFromPending("vip-pro-aaaa1111", models.StatusPaid)
	require.NoError(t, err)
	assert.True(t, won)

	stored, err := repo.GetByID("vip-pro-aaaa1111")
	require.NoError(t, err)
	assert.Equal(t, models.StatusPaid, stored.Status)

	// second CAS on the same payment loses: status is no longer pending
	won, err = repo.TransitionFromPending("vip-pro-aaaa1111", models.StatusPaid)
	require.NoError(t, err)
	assert.False(t, won)

	// and a cross transition between terminal states is refused too
	won, err = repo.TransitionFromPending("vip-pro-aaaa1111", models.StatusCanceled)
	require.NoError(t, err)
	assert.False(t, won)
}

func TestTransitionUnknownPayment(t *testing.T) {
	repo := NewPaymentRepository(testDB(t))
	won, err := repo.TransitionFromPending("ghost-00000000", models.StatusPaid)
	require.NoError(t, err)
	assert.False(t, won)
}

func TestListPendingFiltersTerminal(t *testing.T) {
	repo := NewPaymentRepository(testDB(t))
	seedPayment(t, repo, "vip-pro-00000001", models.StatusPending)
	seedPayment(t, repo, "vip-pro-00000002", models.StatusPaid)
	seedPayment(t, repo, "vip-pro-00000003", models.StatusCanceled)

	pending, err := repo.ListPending()
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "vip-pro-00000001", pending[0].PaymentID)
}

func TestStats(t *testing.T) {
	repo := NewPaymentRepository(testDB(t))
	seedPayment(t, repo, "vip-pro-00000001", models.StatusPending)
	seedPayment(t, repo, "vip-pro-00000002", models.StatusPaid)
	seedPayment(t, repo, "vip-pro-00000003", models.StatusPaid)

	stats, err := repo.Stats()
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.TotalPayments)
	assert.Equal(t, int64(2), stats.PaidPayments)
	assert.True(t, stats.Revenue.Equal(decimal.RequireFromString("994.00")), "revenue was %s", stats.Revenue)
}

func TestStatsEmpty(t *testing.T) {
	repo := NewPaymentRepository(testDB(t))
	stats, err := repo.Stats()
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats.TotalPayments)
	assert.True(t, stats.Revenue.IsZero())
}
