package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Product is a sellable catalog item. ProductID is a human-assigned slug and
// never changes once created. The secret link is never serialized on the
// public read path; payments snapshot it at checkout time.
type Product struct {
	ProductID    string                      `gorm:"primaryKey;size:64" json:"product_id"`
	Title        string                      `gorm:"size:255;not null" json:"title"`
	Price        decimal.Decimal             `gorm:"type:decimal(10,2);not null" json:"price"`
	Currency     string                      `gorm:"size:3;default:'BRL'" json:"currency"`
	Description  string                      `gorm:"type:text" json:"description"`
	SecretLink   string                      `gorm:"size:512" json:"-"`
	MediaType    string                      `gorm:"size:16;default:'image'" json:"media_type"`
	MediaSrc     string                      `gorm:"size:512" json:"media_src,omitempty"`
	MediaPoster  string                      `gorm:"size:512" json:"media_poster,omitempty"`
	Benefits     datatypes.JSONSlice[string] `json:"benefits"`
	Note         string                      `gorm:"size:255" json:"note"`
	LifetimeText string                      `gorm:"size:255" json:"lifetime_text"`
	Category     string                      `gorm:"size:64" json:"category"`
	CreatedAt    time.Time                   `json:"created_at"`
	UpdatedAt    time.Time                   `json:"updated_at"`
}

func (Product) TableName() string {
	return "products"
}
