package repository

import (
	"errors"

	"sigilo/internal/models"

	"gorm.io/gorm"
)

type ProductRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// Save creates or overwrites the product under its slug (last write wins).
func (r *ProductRepository) Save(p *models.Product) error {
	return r.db.Save(p).Error
}

// GetByID returns (nil, nil) when the slug is unknown.
func (r *ProductRepository) GetByID(productID string) (*models.Product, error) {
	var p models.Product
	err := r.db.First(&p, "product_id = ?", productID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ProductRepository) List() ([]models.Product, error) {
	var products []models.Product
	err := r.db.Order("product_id").Find(&products).Error
	return products, err
}

// Delete removes a product from the catalog. Payments referencing it keep
// their denormalized snapshot and are untouched.
func (r *ProductRepository) Delete(productID string) error {
	return r.db.Delete(&models.Product{}, "product_id = ?", productID).Error
}
