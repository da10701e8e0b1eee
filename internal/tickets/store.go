package tickets

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/urbanpizzeria/pos-backend/internal/cart"
	"github.com/urbanpizzeria/pos-backend/pkg/enums"
	pkgerrors "github.com/urbanpizzeria/pos-backend/pkg/errors"
	"github.com/urbanpizzeria/pos-backend/pkg/logger"
	"github.com/urbanpizzeria/pos-backend/pkg/scratchpad"
	"go.uber.org/multierr"
)

const dateLayout = "2 Jan 2006, 3:04:05 PM"

type padStore interface {
	GetJSON(ctx context.Context, name string, dest any) (bool, error)
	SetJSON(ctx context.Context, name string, value any) error
}

// draftOwner is the slice of the cart aggregator the ticket store drives.
type draftOwner interface {
	Snapshot() []cart.Line
	Replace(ctx context.Context, lines []cart.Line) []cart.Line
	Clear(ctx context.Context)
}

// Store owns the three pending-ticket queues, one per order type. Every
// mutation rewrites that queue's scratchpad snapshot whole.
type Store struct {
	mu     sync.Mutex
	queues map[enums.OrderType][]Ticket

	pad    padStore
	draft  draftOwner
	expiry time.Duration
	now    func() time.Time
	logg   *logger.Logger
}

// StoreParams configure the ticket store.
type StoreParams struct {
	Pad    padStore
	Draft  draftOwner
	Expiry time.Duration
	Logger *logger.Logger
	Now    func() time.Time
}

// NewStore builds the ticket store.
func NewStore(params StoreParams) (*Store, error) {
	if params.Pad == nil {
		return nil, fmt.Errorf("scratchpad required")
	}
	if params.Draft == nil {
		return nil, fmt.Errorf("draft owner required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	expiry := params.Expiry
	if expiry <= 0 {
		expiry = 2 * time.Hour
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	queues := make(map[enums.OrderType][]Ticket, len(enums.OrderTypes()))
	for _, orderType := range enums.OrderTypes() {
		queues[orderType] = nil
	}
	return &Store{
		queues: queues,
		pad:    params.Pad,
		draft:  params.Draft,
		expiry: expiry,
		now:    now,
		logg:   params.Logger,
	}, nil
}

// Expiry returns the configured ticket lifetime.
func (s *Store) Expiry() time.Duration {
	return s.expiry
}

// Hydrate restores every queue from the scratchpad.
func (s *Store) Hydrate(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	for _, orderType := range enums.OrderTypes() {
		var queue []Ticket
		found, err := s.pad.GetJSON(ctx, scratchpad.TicketQueueKey(orderType.String()), &queue)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if found {
			s.queues[orderType] = queue
		}
	}
	return multierr.Combine(errs...)
}

// Print snapshots the current draft into a new pending ticket, appends it to
// the queue for orderType, and clears the draft.
func (s *Store) Print(ctx context.Context, orderType enums.OrderType) (Ticket, error) {
	if !orderType.IsValid() {
		return Ticket{}, pkgerrors.New(pkgerrors.CodeValidation, "unknown order type")
	}

	items := s.draft.Snapshot()
	if len(items) == 0 {
		return Ticket{}, pkgerrors.New(pkgerrors.CodeValidation, "draft cart is empty")
	}

	now := s.now()
	ticket := Ticket{
		ID:        uuid.New(),
		Timestamp: now,
		Date:      now.Format(dateLayout),
		Items:     items,
		OrderType: orderType,
	}

	s.mu.Lock()
	s.queues[orderType] = append(s.queues[orderType], ticket)
	s.persist(ctx, orderType)
	s.mu.Unlock()

	s.draft.Clear(ctx)

	logCtx := s.logg.WithOrderType(ctx, orderType.String())
	logCtx = s.logg.WithTicketID(logCtx, ticket.ID.String())
	s.logg.Info(logCtx, "kitchen ticket printed")
	return ticket, nil
}

// List returns a value copy of one queue in insertion (display) order.
func (s *Store) List(orderType enums.OrderType) []Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneQueue(s.queues[orderType])
}

// Counts reports the pending ticket count per order type.
func (s *Store) Counts() map[enums.OrderType]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	counts := make(map[enums.OrderType]int, len(s.queues))
	for orderType, queue := range s.queues {
		counts[orderType] = len(queue)
	}
	return counts
}

// Delete removes the ticket at position from that queue. There is no
// recovery at this layer; confirmation belongs to the caller.
func (s *Store) Delete(ctx context.Context, orderType enums.OrderType, position int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ticket, err := s.remove(ctx, orderType, position)
	if err != nil {
		return err
	}

	logCtx := s.logg.WithOrderType(ctx, orderType.String())
	logCtx = s.logg.WithTicketID(logCtx, ticket.ID.String())
	s.logg.Info(logCtx, "kitchen ticket deleted")
	return nil
}

// Edit pops the ticket at position back into the cart aggregator as the
// active draft, discarding whatever draft was there.
func (s *Store) Edit(ctx context.Context, orderType enums.OrderType, position int) ([]cart.Line, error) {
	s.mu.Lock()
	ticket, err := s.remove(ctx, orderType, position)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	lines := s.draft.Replace(ctx, ticket.Items)

	logCtx := s.logg.WithOrderType(ctx, orderType.String())
	logCtx = s.logg.WithTicketID(logCtx, ticket.ID.String())
	s.logg.Info(logCtx, "kitchen ticket reopened for editing")
	return lines, nil
}

// Invoice stages the ticket at position for the order-finalization flow:
// its items become the handoff draft and its order type the active one. The
// ticket itself stays queued until that flow completes elsewhere.
func (s *Store) Invoice(ctx context.Context, orderType enums.OrderType, position int) (Ticket, error) {
	s.mu.Lock()
	queue := s.queues[orderType]
	if position < 0 || position >= len(queue) {
		s.mu.Unlock()
		return Ticket{}, positionError(orderType, position)
	}
	ticket := cloneTicket(queue[position])
	s.mu.Unlock()

	if err := s.pad.SetJSON(ctx, scratchpad.KeyDraftCart, ticket.Items); err != nil {
		return Ticket{}, err
	}
	if err := s.pad.SetJSON(ctx, scratchpad.KeyActiveOrderType, ticket.OrderType); err != nil {
		return Ticket{}, err
	}

	logCtx := s.logg.WithOrderType(ctx, orderType.String())
	logCtx = s.logg.WithTicketID(logCtx, ticket.ID.String())
	s.logg.Info(logCtx, "kitchen ticket staged for invoicing")
	return ticket, nil
}

// Expire evicts every ticket whose age has reached the expiry bound. The
// bound is inclusive: a ticket exactly at the lifetime is evicted. Evicted
// tickets are pruned outright and unrecoverable.
func (s *Store) Expire(ctx context.Context) (map[enums.OrderType]int, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := map[enums.OrderType]int{}
	var errs []error
	for _, orderType := range enums.OrderTypes() {
		queue := s.queues[orderType]
		fresh := queue[:0]
		for _, ticket := range queue {
			if ticket.Age(now) >= s.expiry {
				continue
			}
			fresh = append(fresh, ticket)
		}
		removed := len(queue) - len(fresh)
		if removed == 0 {
			continue
		}
		evicted[orderType] = removed
		s.queues[orderType] = fresh
		if err := s.pad.SetJSON(ctx, scratchpad.TicketQueueKey(orderType.String()), fresh); err != nil {
			errs = append(errs, err)
		}
	}
	return evicted, multierr.Combine(errs...)
}

// remove drops and returns the ticket at position. Callers hold the lock.
func (s *Store) remove(ctx context.Context, orderType enums.OrderType, position int) (Ticket, error) {
	queue := s.queues[orderType]
	if position < 0 || position >= len(queue) {
		return Ticket{}, positionError(orderType, position)
	}
	ticket := queue[position]
	s.queues[orderType] = append(queue[:position], queue[position+1:]...)
	s.persist(ctx, orderType)
	return ticket, nil
}

func (s *Store) persist(ctx context.Context, orderType enums.OrderType) {
	key := scratchpad.TicketQueueKey(orderType.String())
	if err := s.pad.SetJSON(ctx, key, s.queues[orderType]); err != nil {
		s.logg.Error(ctx, "persisting ticket queue", err)
	}
}

func positionError(orderType enums.OrderType, position int) error {
	return pkgerrors.New(pkgerrors.CodeNotFound, "no ticket at position").
		WithDetails(map[string]any{"orderType": orderType.String(), "position": position})
}

func cloneQueue(queue []Ticket) []Ticket {
	out := make([]Ticket, len(queue))
	for i, ticket := range queue {
		out[i] = cloneTicket(ticket)
	}
	return out
}

func cloneTicket(ticket Ticket) Ticket {
	ticket.Items = cart.Clone(ticket.Items)
	return ticket
}
