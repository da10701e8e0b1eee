package orders

import (
	"context"

	"github.com/urbanpizzeria/pos-backend/pkg/db"
	"github.com/urbanpizzeria/pos-backend/pkg/db/models"
)

// QueueRepository is the durable queue of locally finalized orders awaiting
// a confirmed remote write.
type QueueRepository interface {
	GetAll(ctx context.Context) ([]models.QueuedOrder, error)
	Enqueue(ctx context.Context, order models.QueuedOrder) error
	Delete(ctx context.Context, id string) error
}

type queueRepository struct {
	client *db.Client
}

// NewQueueRepository builds the gorm-backed offline order queue.
func NewQueueRepository(client *db.Client) QueueRepository {
	return &queueRepository{client: client}
}

// GetAll returns queued orders oldest first so the drain preserves the
// order staff finalized them in.
func (r *queueRepository) GetAll(ctx context.Context) ([]models.QueuedOrder, error) {
	var queued []models.QueuedOrder
	err := r.client.DB().WithContext(ctx).
		Order("created_at asc").
		Find(&queued).Error
	if err != nil {
		return nil, err
	}
	return queued, nil
}

func (r *queueRepository) Enqueue(ctx context.Context, order models.QueuedOrder) error {
	return r.client.DB().WithContext(ctx).Create(&order).Error
}

func (r *queueRepository) Delete(ctx context.Context, id string) error {
	return r.client.DB().WithContext(ctx).
		Delete(&models.QueuedOrder{}, "id = ?", id).Error
}
