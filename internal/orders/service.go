package orders

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/urbanpizzeria/pos-backend/internal/cron"
	"github.com/urbanpizzeria/pos-backend/pkg/db/models"
	pkgerrors "github.com/urbanpizzeria/pos-backend/pkg/errors"
	"github.com/urbanpizzeria/pos-backend/pkg/logger"
	"github.com/urbanpizzeria/pos-backend/pkg/remote"
)

const dayLayout = "2006-01-02"

type remoteAPI interface {
	FetchOrders(ctx context.Context) ([]remote.Order, error)
	CreateOrder(ctx context.Context, order remote.Order) (*remote.Order, error)
	RemoveOrder(ctx context.Context, id string) error
}

// ListResult is one order listing: the records plus day totals.
type ListResult struct {
	Orders     []remote.Order  `json:"orders"`
	Count      int             `json:"count"`
	GrandTotal decimal.Decimal `json:"grandTotal"`
	// Source is "remote" or "queue" so clients can flag stale data.
	Source string `json:"source"`
}

// SyncResult summarizes one offline drain.
type SyncResult struct {
	Submitted int `json:"submitted"`
	Remaining int `json:"remaining"`
}

// Service owns finalized orders: listing with offline fallback, placement
// with offline queueing, and the drain that replays the queue to the remote
// store.
type Service struct {
	queue  QueueRepository
	remote remoteAPI
	lock   cron.Lock
	logg   *logger.Logger
	now    func() time.Time
}

// ServiceParams configure the order service.
type ServiceParams struct {
	Queue  QueueRepository
	Remote remoteAPI
	Lock   cron.Lock
	Logger *logger.Logger
	Now    func() time.Time
}

// NewService builds the order service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Queue == nil {
		return nil, fmt.Errorf("queue repository required")
	}
	if params.Remote == nil {
		return nil, fmt.Errorf("remote client required")
	}
	if params.Lock == nil {
		return nil, fmt.Errorf("drain lock required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		queue:  params.Queue,
		remote: params.Remote,
		lock:   params.Lock,
		logg:   params.Logger,
		now:    now,
	}, nil
}

// List fetches the authoritative order list, falling back to the local
// queue when the remote store is unreachable. An unreachable remote is
// never a hard error here. A non-empty day ("2006-01-02") filters to that
// calendar day; totals cover the filtered set.
func (s *Service) List(ctx context.Context, day string) (ListResult, error) {
	var filter *time.Time
	if day != "" {
		parsed, err := time.Parse(dayLayout, day)
		if err != nil {
			return ListResult{}, pkgerrors.New(pkgerrors.CodeValidation, "day must look like 2006-01-02").
				WithDetails(map[string]any{"day": day})
		}
		filter = &parsed
	}

	fetched, err := s.remote.FetchOrders(ctx)
	source := "remote"
	if err != nil {
		if !pkgerrors.IsCode(err, pkgerrors.CodeRemoteUnavailable) {
			return ListResult{}, err
		}
		s.logg.Warn(ctx, "remote order store unavailable, listing queued orders: "+err.Error())
		queued, qerr := s.queue.GetAll(ctx)
		if qerr != nil {
			return ListResult{}, qerr
		}
		fetched = make([]remote.Order, 0, len(queued))
		for _, row := range queued {
			order, derr := fromQueueModel(row)
			if derr != nil {
				s.logg.Warn(ctx, "skipping malformed queued order: "+derr.Error())
				continue
			}
			fetched = append(fetched, order)
		}
		source = "queue"
	}

	result := ListResult{Source: source, GrandTotal: decimal.Zero}
	for _, order := range fetched {
		if filter != nil && !sameDay(order.Timestamp, *filter) {
			continue
		}
		result.Orders = append(result.Orders, order)
		result.GrandTotal = result.GrandTotal.Add(order.TotalAmount)
	}
	result.Count = len(result.Orders)
	return result, nil
}

// Place submits a finalized order to the remote store. When the store is
// unreachable the order is queued locally for a later drain; a rejection is
// surfaced as-is.
func (s *Service) Place(ctx context.Context, order remote.Order) (remote.Order, bool, error) {
	order.ID = ""
	if order.Timestamp.IsZero() {
		order.Timestamp = s.now()
	}
	normalizePhone(&order)

	created, err := s.remote.CreateOrder(ctx, order)
	if err == nil {
		return *created, false, nil
	}
	if !pkgerrors.IsCode(err, pkgerrors.CodeRemoteUnavailable) {
		return remote.Order{}, false, err
	}

	row, merr := toQueueModel(order)
	if merr != nil {
		return remote.Order{}, false, merr
	}
	if qerr := s.queue.Enqueue(ctx, row); qerr != nil {
		return remote.Order{}, false, qerr
	}
	order.ID = row.ID
	s.logg.Info(s.logg.WithField(ctx, "queuedOrderId", row.ID), "remote unreachable, order queued locally")
	return order, true, nil
}

// Remove deletes an order remote-first, then evicts any local copy.
func (s *Service) Remove(ctx context.Context, id string) error {
	if err := s.remote.RemoveOrder(ctx, id); err != nil {
		return err
	}
	if err := s.queue.Delete(ctx, id); err != nil {
		s.logg.Error(ctx, "evicting order from local queue", err)
	}
	return nil
}

// SyncOffline drains the local queue to the remote store. Each queued order
// is deleted only after its remote write is confirmed; the first failure
// aborts the rest of the drain, and deletions already confirmed stand. The
// whole drain holds the redis lock so two terminals cannot interleave.
func (s *Service) SyncOffline(ctx context.Context) (SyncResult, error) {
	acquired, err := s.lock.Acquire(ctx)
	if err != nil {
		return SyncResult{}, err
	}
	if !acquired {
		s.logg.Info(ctx, "offline drain already running elsewhere, skipping")
		return SyncResult{}, nil
	}
	defer func() {
		if rerr := s.lock.Release(ctx); rerr != nil {
			s.logg.Error(ctx, "releasing drain lock", rerr)
		}
	}()

	queued, err := s.queue.GetAll(ctx)
	if err != nil {
		return SyncResult{}, err
	}

	result := SyncResult{Remaining: len(queued)}
	for _, row := range queued {
		order, derr := fromQueueModel(row)
		if derr != nil {
			return result, pkgerrors.Wrap(pkgerrors.CodeInternal, derr, "decoding queued order").
				WithDetails(map[string]any{"queuedOrderId": row.ID})
		}
		order.ID = ""
		normalizePhone(&order)

		if _, serr := s.remote.CreateOrder(ctx, order); serr != nil {
			s.logg.Warn(ctx, "offline drain stopped: "+serr.Error())
			return result, serr
		}
		if derr := s.queue.Delete(ctx, row.ID); derr != nil {
			return result, derr
		}
		result.Submitted++
		result.Remaining--

		if _, ferr := s.remote.FetchOrders(ctx); ferr != nil {
			s.logg.Warn(ctx, "offline drain stopped refreshing orders: "+ferr.Error())
			return result, ferr
		}
	}

	if result.Submitted > 0 {
		s.logg.Info(s.logg.WithField(ctx, "submitted", result.Submitted), "offline orders drained")
	}
	return result, nil
}

func normalizePhone(order *remote.Order) {
	if order.Phone != nil && *order.Phone == "" {
		order.Phone = nil
	}
}

func sameDay(ts, day time.Time) bool {
	y1, m1, d1 := ts.Date()
	y2, m2, d2 := day.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

func fromQueueModel(row models.QueuedOrder) (remote.Order, error) {
	var lines []remote.OrderLine
	if err := json.Unmarshal([]byte(row.Products), &lines); err != nil {
		return remote.Order{}, err
	}
	return remote.Order{
		ID:          row.ID,
		Products:    lines,
		TotalAmount: row.TotalAmount,
		Delivery:    row.Delivery,
		Discount:    row.Discount,
		Phone:       row.Phone,
		Timestamp:   row.Timestamp,
	}, nil
}

func toQueueModel(order remote.Order) (models.QueuedOrder, error) {
	encoded, err := json.Marshal(order.Products)
	if err != nil {
		return models.QueuedOrder{}, err
	}
	return models.QueuedOrder{
		ID:          uuid.NewString(),
		Products:    string(encoded),
		TotalAmount: order.TotalAmount,
		Delivery:    order.Delivery,
		Discount:    order.Discount,
		Phone:       order.Phone,
		Timestamp:   order.Timestamp,
	}, nil
}
