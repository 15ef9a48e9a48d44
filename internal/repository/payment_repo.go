package repository

import (
	"errors"
	"time"

	"sigilo/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type PaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) Create(p *models.Payment) error {
	return r.db.Create(p).Error
}

// GetByID returns (nil, nil) when the payment is unknown.
func (r *PaymentRepository) GetByID(paymentID string) (*models.Payment, error) {
	var p models.Payment
	err := r.db.First(&p, "payment_id = ?", paymentID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PaymentRepository) ListPending() ([]models.Payment, error) {
	var payments []models.Payment
	err := r.db.Where("status = ?", models.StatusPending).Find(&payments).Error
	return payments, err
}

func (r *PaymentRepository) List() ([]models.Payment, error) {
	var payments []models.Payment
	err := r.db.Order("created_at").Find(&payments).Error
	return payments, err
}

// TransitionFromPending is a compare-and-swap on status: the update applies
// only while the stored status is still pending, so concurrent reconcilers
// of the same payment see exactly one winner. Returns whether this caller won.
func (r *PaymentRepository) TransitionFromPending(paymentID string, to models.PaymentStatus) (bool, error) {
	res := r.db.Model(&models.Payment{}).
		Where("payment_id = ? AND status = ?", paymentID, models.StatusPending).
		Updates(map[string]interface{}{"status": to, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// SalesStats aggregates the append-only payments trail.
type SalesStats struct {
	TotalPayments int64           `json:"total_payments"`
	PaidPayments  int64           `json:"paid_payments"`
	Revenue       decimal.Decimal `json:"revenue"`
}

func (r *PaymentRepository) Stats() (*SalesStats, error) {
	var stats SalesStats
	if err := r.db.Model(&models.Payment{}).Count(&stats.TotalPayments).Error; err != nil {
		return nil, err
	}
	if err := r.db.Model(&models.Payment{}).
		Where("status = ?", models.StatusPaid).
		Count(&stats.PaidPayments).Error; err != nil {
		return nil, err
	}
	var revenue decimal.NullDecimal
	err := r.db.Model(&models.Payment{}).
		Where("status = ?", models.StatusPaid).
		Select("SUM(price)").
		Scan(&revenue).Error
	if err != nil {
		return nil, err
	}
	stats.Revenue = revenue.Decimal
	return &stats, nil
}
