package cart

import (
	"context"

	"github.com/urbanpizzeria/pos-backend/pkg/db/models"
	"gorm.io/gorm"
)

// DraftRepository persists the draft-cart snapshot in the durable store.
type DraftRepository interface {
	Load(ctx context.Context) ([]models.DraftLine, error)
	Replace(ctx context.Context, lines []models.DraftLine) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type draftRepository struct {
	db *gorm.DB
	tx txRunner
}

// NewDraftRepository builds the durable draft snapshot repository.
func NewDraftRepository(db *gorm.DB, tx txRunner) DraftRepository {
	return &draftRepository{db: db, tx: tx}
}

func (r *draftRepository) Load(ctx context.Context) ([]models.DraftLine, error) {
	var rows []models.DraftLine
	err := r.db.WithContext(ctx).
		Order("position ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Replace rewrites the whole snapshot. Repeating the write is harmless.
func (r *draftRepository) Replace(ctx context.Context, lines []models.DraftLine) error {
	return r.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&models.DraftLine{}).Error; err != nil {
			return err
		}
		if len(lines) == 0 {
			return nil
		}
		return tx.Create(&lines).Error
	})
}
