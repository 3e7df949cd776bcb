package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/ndanilko/storefront/internal/models"
)

func (r *GormRepo) ProductByID(ctx context.Context, id uint) (models.Product, error) {
	var product models.Product
	err := r.DB.WithContext(ctx).First(&product, id).Error
	return product, err
}

func (r *GormRepo) Products(ctx context.Context, category string, offset, limit int) ([]models.Product, int64, error) {
	scope := func() *gorm.DB {
		q := r.DB.WithContext(ctx).Model(&models.Product{})
		if category != "" {
			q = q.Where("category = ?", category)
		}
		return q
	}

	var total int64
	if err := scope().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var items []models.Product
	if err := scope().Order("id ASC").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *GormRepo) CreateProduct(ctx context.Context, p *models.Product) error {
	return r.DB.WithContext(ctx).Create(p).Error
}

func (r *GormRepo) SaveProduct(ctx context.Context, p *models.Product) error {
	return r.DB.WithContext(ctx).Save(p).Error
}

func (r *GormRepo) DeleteProduct(ctx context.Context, id uint) error {
	return r.DB.WithContext(ctx).Delete(&models.Product{}, id).Error
}

// UpdateStock overwrites the product's stock with a value computed by the
// caller. It is deliberately a plain write, not an atomic decrement: the
// checkout flow reads stock first and writes the clamped result back.
func (r *GormRepo) UpdateStock(ctx context.Context, productID, stock uint) error {
	return r.DB.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", productID).
		Update("stock", stock).Error
}
