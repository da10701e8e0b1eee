package catalog

import (
	"context"

	"github.com/urbanpizzeria/pos-backend/pkg/db"
	"github.com/urbanpizzeria/pos-backend/pkg/db/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CacheRepository is the durable product cache behind the catalog service.
type CacheRepository interface {
	GetAll(ctx context.Context) ([]models.CachedProduct, error)
	ReplaceAll(ctx context.Context, products []models.CachedProduct) error
	Delete(ctx context.Context, name string, price int) error
}

type cacheRepository struct {
	client *db.Client
}

// NewCacheRepository builds the gorm-backed product cache.
func NewCacheRepository(client *db.Client) CacheRepository {
	return &cacheRepository{client: client}
}

func (r *cacheRepository) GetAll(ctx context.Context) ([]models.CachedProduct, error) {
	var products []models.CachedProduct
	err := r.client.DB().WithContext(ctx).
		Preload("Varieties").
		Order("name asc").
		Find(&products).Error
	if err != nil {
		return nil, err
	}
	return products, nil
}

// ReplaceAll swaps the whole cache for the given snapshot in one
// transaction. Varieties are deleted outright rather than relying on the
// cascade so sqlite behaves the same as postgres.
func (r *cacheRepository) ReplaceAll(ctx context.Context, products []models.CachedProduct) error {
	return r.client.WithTx(ctx, func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).
			Delete(&models.CachedVariety{}).Error; err != nil {
			return err
		}
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).
			Delete(&models.CachedProduct{}).Error; err != nil {
			return err
		}
		if len(products) == 0 {
			return nil
		}
		return tx.Clauses(clause.OnConflict{UpdateAll: true}).
			Create(&products).Error
	})
}

func (r *cacheRepository) Delete(ctx context.Context, name string, price int) error {
	return r.client.WithTx(ctx, func(tx *gorm.DB) error {
		var matches []models.CachedProduct
		query := tx.Where("name = ?", name).
			Where("price = ? OR price IS NULL", price)
		if err := query.Find(&matches).Error; err != nil {
			return err
		}
		for _, product := range matches {
			if err := tx.Where("product_id = ?", product.ID).
				Delete(&models.CachedVariety{}).Error; err != nil {
				return err
			}
			if err := tx.Delete(&models.CachedProduct{}, "id = ?", product.ID).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
