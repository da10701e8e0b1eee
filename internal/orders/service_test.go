package orders

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/urbanpizzeria/pos-backend/pkg/db/models"
	pkgerrors "github.com/urbanpizzeria/pos-backend/pkg/errors"
	"github.com/urbanpizzeria/pos-backend/pkg/logger"
	"github.com/urbanpizzeria/pos-backend/pkg/remote"
)

type stubQueue struct {
	rows []models.QueuedOrder
}

func (q *stubQueue) GetAll(context.Context) ([]models.QueuedOrder, error) {
	out := make([]models.QueuedOrder, len(q.rows))
	copy(out, q.rows)
	return out, nil
}

func (q *stubQueue) Enqueue(_ context.Context, order models.QueuedOrder) error {
	q.rows = append(q.rows, order)
	return nil
}

func (q *stubQueue) Delete(_ context.Context, id string) error {
	kept := q.rows[:0]
	for _, row := range q.rows {
		if row.ID == id {
			continue
		}
		kept = append(kept, row)
	}
	q.rows = kept
	return nil
}

type stubRemote struct {
	orders    []remote.Order
	fetchErr  error
	createErr map[int]error
	removeErr error

	creates int
	fetches int
	created []remote.Order
}

func (r *stubRemote) FetchOrders(context.Context) ([]remote.Order, error) {
	r.fetches++
	if r.fetchErr != nil {
		return nil, r.fetchErr
	}
	return r.orders, nil
}

func (r *stubRemote) CreateOrder(_ context.Context, order remote.Order) (*remote.Order, error) {
	r.creates++
	if err := r.createErr[r.creates]; err != nil {
		return nil, err
	}
	r.created = append(r.created, order)
	created := order
	created.ID = "remote-1"
	return &created, nil
}

func (r *stubRemote) RemoveOrder(context.Context, string) error {
	return r.removeErr
}

type stubLock struct {
	held     bool
	acquires int
	releases int
}

func (l *stubLock) Acquire(context.Context) (bool, error) {
	l.acquires++
	return !l.held, nil
}

func (l *stubLock) Release(context.Context) error {
	l.releases++
	return nil
}

func newTestService(t *testing.T, queue *stubQueue, remoteStub *stubRemote, lock *stubLock) *Service {
	t.Helper()
	if queue == nil {
		queue = &stubQueue{}
	}
	if remoteStub == nil {
		remoteStub = &stubRemote{}
	}
	if lock == nil {
		lock = &stubLock{}
	}
	svc, err := NewService(ServiceParams{
		Queue:  queue,
		Remote: remoteStub,
		Lock:   lock,
		Logger: logger.New(logger.Options{Output: io.Discard}),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return svc
}

func queuedOrder(id string, amount int64) models.QueuedOrder {
	return models.QueuedOrder{
		ID:          id,
		Products:    `[{"name":"Cheese pizza","size":"med","price":250,"quantity":2}]`,
		TotalAmount: decimal.NewFromInt(amount),
		Timestamp:   time.Date(2026, time.January, 1, 19, 0, 0, 0, time.UTC),
	}
}

func TestSyncOfflineFirstFailureAborts(t *testing.T) {
	t.Parallel()

	queue := &stubQueue{rows: []models.QueuedOrder{
		queuedOrder("a", 500),
		queuedOrder("b", 300),
		queuedOrder("c", 700),
	}}
	remoteStub := &stubRemote{createErr: map[int]error{
		2: pkgerrors.New(pkgerrors.CodeRemoteUnavailable, "connection refused"),
	}}
	svc := newTestService(t, queue, remoteStub, nil)

	result, err := svc.SyncOffline(context.Background())
	if !pkgerrors.IsCode(err, pkgerrors.CodeRemoteUnavailable) {
		t.Fatalf("expected drain to surface the failure, got %v", err)
	}
	if result.Submitted != 1 {
		t.Fatalf("expected exactly one confirmed submission, got %+v", result)
	}

	// The first deletion stands, the failed and untried orders stay queued.
	if len(queue.rows) != 2 || queue.rows[0].ID != "b" || queue.rows[1].ID != "c" {
		t.Fatalf("unexpected queue after aborted drain: %+v", queue.rows)
	}
}

func TestSyncOfflineStripsServerFieldsAndNormalizesPhone(t *testing.T) {
	t.Parallel()

	empty := ""
	row := queuedOrder("a", 500)
	row.Phone = &empty
	queue := &stubQueue{rows: []models.QueuedOrder{row}}
	remoteStub := &stubRemote{}
	svc := newTestService(t, queue, remoteStub, nil)

	if _, err := svc.SyncOffline(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(remoteStub.created) != 1 {
		t.Fatalf("expected one submission, got %d", len(remoteStub.created))
	}
	submitted := remoteStub.created[0]
	if submitted.ID != "" {
		t.Fatalf("expected local id stripped, got %q", submitted.ID)
	}
	if submitted.Phone != nil {
		t.Fatalf("expected empty phone normalized to null, got %v", *submitted.Phone)
	}
	if len(queue.rows) != 0 {
		t.Fatalf("expected queue drained, got %+v", queue.rows)
	}
	// Each confirmed write re-fetches the authoritative list.
	if remoteStub.fetches != 1 {
		t.Fatalf("expected one refetch, got %d", remoteStub.fetches)
	}
}

func TestSyncOfflineSkipsWhenLockHeld(t *testing.T) {
	t.Parallel()

	queue := &stubQueue{rows: []models.QueuedOrder{queuedOrder("a", 500)}}
	remoteStub := &stubRemote{}
	svc := newTestService(t, queue, remoteStub, &stubLock{held: true})

	result, err := svc.SyncOffline(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Submitted != 0 || remoteStub.creates != 0 {
		t.Fatalf("expected drain skipped under contention, got %+v", result)
	}
}

func TestListFallsBackToQueueWhenRemoteUnavailable(t *testing.T) {
	t.Parallel()

	queue := &stubQueue{rows: []models.QueuedOrder{queuedOrder("a", 500)}}
	remoteStub := &stubRemote{fetchErr: pkgerrors.New(pkgerrors.CodeRemoteUnavailable, "timeout")}
	svc := newTestService(t, queue, remoteStub, nil)

	result, err := svc.List(context.Background(), "")
	if err != nil {
		t.Fatalf("fallback must not surface as an error, got %v", err)
	}
	if result.Source != "queue" || result.Count != 1 {
		t.Fatalf("expected queued fallback listing, got %+v", result)
	}
}

func TestListDayFilterAndTotals(t *testing.T) {
	t.Parallel()

	remoteStub := &stubRemote{orders: []remote.Order{
		{ID: "1", TotalAmount: decimal.NewFromInt(500), Timestamp: time.Date(2026, time.January, 1, 13, 0, 0, 0, time.UTC)},
		{ID: "2", TotalAmount: decimal.NewFromInt(300), Timestamp: time.Date(2026, time.January, 1, 20, 0, 0, 0, time.UTC)},
		{ID: "3", TotalAmount: decimal.NewFromInt(900), Timestamp: time.Date(2026, time.January, 2, 12, 0, 0, 0, time.UTC)},
	}}
	svc := newTestService(t, nil, remoteStub, nil)

	result, err := svc.List(context.Background(), "2026-01-01")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Count != 2 {
		t.Fatalf("expected two orders on the day, got %+v", result)
	}
	if !result.GrandTotal.Equal(decimal.NewFromInt(800)) {
		t.Fatalf("expected grand total 800, got %s", result.GrandTotal)
	}

	if _, err := svc.List(context.Background(), "not-a-day"); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation rejection for malformed day, got %v", err)
	}
}

func TestPlaceQueuesWhenRemoteUnavailable(t *testing.T) {
	t.Parallel()

	queue := &stubQueue{}
	remoteStub := &stubRemote{createErr: map[int]error{
		1: pkgerrors.New(pkgerrors.CodeRemoteUnavailable, "connection refused"),
	}}
	svc := newTestService(t, queue, remoteStub, nil)

	placed, queued, err := svc.Place(context.Background(), remote.Order{
		Products:    []remote.OrderLine{{Name: "Cheese pizza", Size: "med", Price: 250, Quantity: 2}},
		TotalAmount: decimal.NewFromInt(500),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !queued || placed.ID == "" {
		t.Fatalf("expected order queued locally with a generated id, got %+v", placed)
	}
	if len(queue.rows) != 1 {
		t.Fatalf("expected one queued row, got %+v", queue.rows)
	}
}

func TestPlaceSurfacesRejections(t *testing.T) {
	t.Parallel()

	remoteStub := &stubRemote{createErr: map[int]error{
		1: pkgerrors.New(pkgerrors.CodeRemoteRejected, "bad payload"),
	}}
	queue := &stubQueue{}
	svc := newTestService(t, queue, remoteStub, nil)

	_, _, err := svc.Place(context.Background(), remote.Order{TotalAmount: decimal.NewFromInt(100)})
	if !pkgerrors.IsCode(err, pkgerrors.CodeRemoteRejected) {
		t.Fatalf("expected rejection surfaced, got %v", err)
	}
	if len(queue.rows) != 0 {
		t.Fatalf("rejections must not queue, got %+v", queue.rows)
	}
}
