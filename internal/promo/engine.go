package promo

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/urbanpizzeria/pos-backend/internal/cart"
	pkgerrors "github.com/urbanpizzeria/pos-backend/pkg/errors"
	"github.com/urbanpizzeria/pos-backend/pkg/logger"
)

const defaultRecheckInterval = time.Hour

// Engine owns the day-gated buy-one-get-one state. The day gate is
// recomputed on load and on every recheck tick; the tick forces the offer on
// during the designated day and off outside it, so a manual off-toggle lasts
// at most until the next recheck.
type Engine struct {
	mu         sync.Mutex
	active     bool
	dayMatches bool

	day      time.Weekday
	interval time.Duration
	table    Eligibility
	now      func() time.Time
	logg     *logger.Logger
	onChange func()
}

// EngineParams configure the promotion engine.
type EngineParams struct {
	Day      time.Weekday
	Interval time.Duration
	Table    Eligibility
	Logger   *logger.Logger
	Now      func() time.Time
}

// NewEngine builds the promotion engine and evaluates the day gate
// immediately.
func NewEngine(params EngineParams) (*Engine, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	table := params.Table
	if table == nil {
		table = DefaultEligibility()
	}
	interval := params.Interval
	if interval <= 0 {
		interval = defaultRecheckInterval
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	e := &Engine{
		day:      params.Day,
		interval: interval,
		table:    table,
		now:      now,
		logg:     params.Logger,
	}
	e.recheck(context.Background())
	return e, nil
}

// OnChange registers a hook fired whenever the active flag flips. The cart
// aggregator uses it to re-derive the draft overlay.
func (e *Engine) OnChange(fn func()) {
	e.mu.Lock()
	e.onChange = fn
	e.mu.Unlock()
}

// Run re-evaluates the day gate on the configured cadence until the context
// is canceled.
func (e *Engine) Run(ctx context.Context) error {
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			e.logg.Info(ctx, "promotion recheck stopped")
			return ctx.Err()
		case <-ticker.C:
			e.recheck(ctx)
		}
	}
}

// Active reports whether the offer currently applies.
func (e *Engine) Active() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.active
}

// Eligible reports whether today is the designated promotion day.
func (e *Engine) Eligible() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.dayMatches
}

// SetActive toggles the offer. Turning it on outside the designated day is
// rejected with an INVALID_ELIGIBILITY notice and leaves state unchanged.
func (e *Engine) SetActive(enable bool) error {
	e.mu.Lock()
	if enable && !e.dayMatches {
		day := e.day.String()
		e.mu.Unlock()
		return pkgerrors.New(pkgerrors.CodeInvalidEligibility, fmt.Sprintf("offer is only available on %ss", day))
	}
	changed := e.active != enable
	e.active = enable
	hook := e.onChange
	e.mu.Unlock()

	if changed && hook != nil {
		hook()
	}
	return nil
}

func (e *Engine) recheck(ctx context.Context) {
	today := e.now().Weekday()

	e.mu.Lock()
	e.dayMatches = today == e.day
	changed := e.active != e.dayMatches
	e.active = e.dayMatches
	hook := e.onChange
	active := e.active
	e.mu.Unlock()

	if changed {
		e.logg.Info(e.logg.WithField(ctx, "active", active), "promotion day gate changed")
		if hook != nil {
			hook()
		}
	}
}

// Apply derives the free-line overlay for the given cart. For every covered
// paid line exactly one free line exists with the same (name, size); sized
// lines take the paid quantity, unsized lines a fixed quantity of one. Stale
// free lines are pruned, and applying twice equals applying once.
func (e *Engine) Apply(lines []cart.Line) []cart.Line {
	e.mu.Lock()
	active := e.active
	table := e.table
	e.mu.Unlock()

	type freeKey struct {
		name string
		size string
	}

	desired := map[freeKey]cart.Line{}
	order := []freeKey{}
	if active {
		for _, line := range lines {
			if line.IsFree || !table.Covers(line.Name, line.Size) {
				continue
			}
			quantity := 1
			if line.Size != "" {
				quantity = line.Quantity
			}
			trigger := line.Key()
			fk := freeKey{name: line.Name, size: line.Size}
			if _, exists := desired[fk]; !exists {
				order = append(order, fk)
			}
			desired[fk] = cart.Line{
				Name:          line.Name,
				Size:          line.Size,
				Price:         0,
				Quantity:      quantity,
				IsFree:        true,
				OriginalPrice: line.Price,
				DerivedFrom:   &trigger,
			}
		}
	}

	out := make([]cart.Line, 0, len(lines)+len(desired))
	seen := map[freeKey]bool{}
	for _, line := range lines {
		if !line.IsFree {
			out = append(out, line)
			continue
		}
		fk := freeKey{name: line.Name, size: line.Size}
		derived, ok := desired[fk]
		if !ok || seen[fk] {
			continue
		}
		seen[fk] = true
		out = append(out, derived)
	}
	for _, fk := range order {
		if seen[fk] {
			continue
		}
		out = append(out, desired[fk])
	}
	return out
}
