package tickets

import (
	"context"

	"github.com/urbanpizzeria/pos-backend/internal/cron"
	"github.com/urbanpizzeria/pos-backend/pkg/metrics"
)

// expiryJob sweeps expired tickets from every queue. Eviction counts feed
// the job metrics per order type.
type expiryJob struct {
	store   *Store
	metrics *metrics.JobMetrics
}

// NewExpiryJob returns the periodic ticket-expiry sweep.
func NewExpiryJob(store *Store, jobMetrics *metrics.JobMetrics) cron.Job {
	return &expiryJob{store: store, metrics: jobMetrics}
}

func (j *expiryJob) Name() string { return "ticket-expiry" }

func (j *expiryJob) Run(ctx context.Context) error {
	evicted, err := j.store.Expire(ctx)
	for orderType, count := range evicted {
		j.metrics.AddEvicted(orderType.String(), count)
	}
	return err
}
