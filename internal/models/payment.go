package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	StatusPending  PaymentStatus = "pending"
	StatusPaid     PaymentStatus = "paid"
	StatusCanceled PaymentStatus = "canceled"
)

// Terminal reports whether the status admits no further transitions.
func (s PaymentStatus) Terminal() bool {
	return s == StatusPaid || s == StatusCanceled
}

// Payment is a single purchase attempt. Product fields are denormalized at
// creation time so catalog edits and deletions never affect issued payments.
// Rows are never deleted; status moves pending->paid or pending->canceled only.
type Payment struct {
	PaymentID    string          `gorm:"primaryKey;size:96" json:"payment_id"`
	ProductID    string          `gorm:"size:64;index;not null" json:"product_id"`
	ProductTitle string          `gorm:"size:255" json:"product_title"`
	Price        decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	SecretLink   string          `gorm:"size:512" json:"-"`
	CustomerID   int64           `gorm:"index" json:"customer_id"`
	CustomerRef  string          `gorm:"size:64" json:"customer_ref"`
	PixCode      string          `gorm:"type:text" json:"pix_code"`
	QRBase64     string          `gorm:"type:mediumtext" json:"qr_base64,omitempty"`
	Status       PaymentStatus   `gorm:"size:16;index;not null" json:"status"`
	GatewayTxID  string          `gorm:"size:128;index" json:"gateway_tx_id"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

func (Payment) TableName() string {
	return "payments"
}

// PaymentView is the read-facing projection of a Payment. SecretLink is set
// only when the payment is paid.
type PaymentView struct {
	Payment
	SecretLink string `json:"secret_link,omitempty"`
}

// View builds the projection, withholding the secret link unless paid.
func (p Payment) View() PaymentView {
	v := PaymentView{Payment: p}
	if p.Status == StatusPaid {
		v.SecretLink = p.SecretLink
	}
	return v
}
