package promo

import (
	"context"
	"io"
	"reflect"
	"testing"
	"time"

	"github.com/urbanpizzeria/pos-backend/internal/cart"
	pkgerrors "github.com/urbanpizzeria/pos-backend/pkg/errors"
	"github.com/urbanpizzeria/pos-backend/pkg/logger"
)

var (
	// 2026-01-01 is a Thursday, 2026-01-02 a Friday.
	aThursday = time.Date(2026, time.January, 1, 12, 0, 0, 0, time.UTC)
	aFriday   = time.Date(2026, time.January, 2, 12, 0, 0, 0, time.UTC)
)

func newTestEngine(t *testing.T, now time.Time) *Engine {
	t.Helper()
	engine, err := NewEngine(EngineParams{
		Day:    time.Thursday,
		Logger: logger.New(logger.Options{Output: io.Discard}),
		Now:    func() time.Time { return now },
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return engine
}

func TestGateFollowsConfiguredDay(t *testing.T) {
	t.Parallel()

	if engine := newTestEngine(t, aThursday); !engine.Active() || !engine.Eligible() {
		t.Fatal("expected engine active on the configured day")
	}
	if engine := newTestEngine(t, aFriday); engine.Active() || engine.Eligible() {
		t.Fatal("expected engine inactive off the configured day")
	}
}

func TestSetActiveRejectedOffDay(t *testing.T) {
	t.Parallel()

	engine := newTestEngine(t, aFriday)
	err := engine.SetActive(true)
	if !pkgerrors.IsCode(err, pkgerrors.CodeInvalidEligibility) {
		t.Fatalf("expected INVALID_ELIGIBILITY, got %v", err)
	}
	if engine.Active() {
		t.Fatal("failed toggle must leave state unchanged")
	}
}

func TestSetActiveOffAlwaysAllowed(t *testing.T) {
	t.Parallel()

	engine := newTestEngine(t, aThursday)
	if err := engine.SetActive(false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if engine.Active() {
		t.Fatal("expected engine off after disable")
	}
}

func TestRecheckForcesGate(t *testing.T) {
	t.Parallel()

	now := aThursday
	engine, err := NewEngine(EngineParams{
		Day:    time.Thursday,
		Logger: logger.New(logger.Options{Output: io.Discard}),
		Now:    func() time.Time { return now },
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := engine.SetActive(false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The periodic re-evaluation overrides a manual toggle: the clock
	// still says Thursday, so the offer snaps back on.
	engine.recheck(context.Background())
	if !engine.Active() {
		t.Fatal("expected recheck to force the gate back on")
	}

	// Midnight passes, the gate drops.
	now = aFriday
	engine.recheck(context.Background())
	if engine.Active() {
		t.Fatal("expected recheck to force the gate off")
	}
}

func TestApplySizedFreeLineMatchesPaidQuantity(t *testing.T) {
	t.Parallel()

	engine := newTestEngine(t, aThursday)
	lines := engine.Apply([]cart.Line{
		{Name: "Cheese pizza", Size: "med", Price: 250, Quantity: 3},
	})

	if len(lines) != 2 {
		t.Fatalf("expected paid plus free line, got %+v", lines)
	}
	free := lines[1]
	if !free.IsFree || free.Price != 0 || free.Quantity != 3 {
		t.Fatalf("expected free med line at quantity 3, got %+v", free)
	}
	if free.OriginalPrice != 250 {
		t.Fatalf("expected foregone price 250, got %d", free.OriginalPrice)
	}
	if free.DerivedFrom == nil || *free.DerivedFrom != (cart.Key{Name: "Cheese pizza", Price: 250, Size: "med"}) {
		t.Fatalf("expected back-reference to the paid line, got %+v", free.DerivedFrom)
	}
}

func TestApplyUnsizedFreeLineQuantityOne(t *testing.T) {
	t.Parallel()

	engine := newTestEngine(t, aThursday)
	lines := engine.Apply([]cart.Line{
		{Name: "Cheese pizza", Price: 250, Quantity: 4},
	})

	if len(lines) != 2 || lines[1].Quantity != 1 {
		t.Fatalf("expected unsized free line at quantity one, got %+v", lines)
	}
}

func TestApplyRespectsSizeRestrictions(t *testing.T) {
	t.Parallel()

	engine := newTestEngine(t, aThursday)
	lines := engine.Apply([]cart.Line{
		{Name: "Bursty cheese pizza", Size: "med", Price: 300, Quantity: 1},
		{Name: "Bursty cheese pizza", Size: "large", Price: 400, Quantity: 1},
		{Name: "Garlic bread", Price: 120, Quantity: 2},
	})

	frees := 0
	for _, line := range lines {
		if !line.IsFree {
			continue
		}
		frees++
		if line.Size != "med" {
			t.Fatalf("only the med size is covered, got free %+v", line)
		}
	}
	if frees != 1 {
		t.Fatalf("expected exactly one free line, got %d", frees)
	}
}

func TestApplyIdempotent(t *testing.T) {
	t.Parallel()

	engine := newTestEngine(t, aThursday)
	input := []cart.Line{
		{Name: "Cheese pizza", Size: "med", Price: 250, Quantity: 2},
		{Name: "Hot stuff", Size: "large", Price: 450, Quantity: 1},
		{Name: "Coke", Price: 60, Quantity: 2},
	}

	once := engine.Apply(input)
	twice := engine.Apply(once)
	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("apply is not idempotent:\nonce:  %+v\ntwice: %+v", once, twice)
	}
}

func TestApplyTracksQuantityChanges(t *testing.T) {
	t.Parallel()

	engine := newTestEngine(t, aThursday)
	lines := engine.Apply([]cart.Line{
		{Name: "Cheese pizza", Size: "med", Price: 250, Quantity: 2},
	})

	// The paid quantity moves, the derived line follows on the next apply.
	lines[0].Quantity = 5
	lines = engine.Apply(lines)
	if len(lines) != 2 || lines[1].Quantity != 5 {
		t.Fatalf("expected free line to track paid quantity, got %+v", lines)
	}
}

func TestApplyInactiveStripsFreeLines(t *testing.T) {
	t.Parallel()

	active := newTestEngine(t, aThursday)
	withOverlay := active.Apply([]cart.Line{
		{Name: "Cheese pizza", Size: "med", Price: 250, Quantity: 2},
	})
	if len(withOverlay) != 2 {
		t.Fatalf("expected overlay applied, got %+v", withOverlay)
	}

	inactive := newTestEngine(t, aFriday)
	stripped := inactive.Apply(withOverlay)
	if len(stripped) != 1 || stripped[0].IsFree {
		t.Fatalf("expected free lines stripped when inactive, got %+v", stripped)
	}
}

func TestApplyInactiveIdentityOnPaidCarts(t *testing.T) {
	t.Parallel()

	engine := newTestEngine(t, aFriday)
	input := []cart.Line{
		{Name: "Cheese pizza", Size: "med", Price: 250, Quantity: 2},
		{Name: "Coke", Price: 60, Quantity: 1},
	}
	if got := engine.Apply(input); !reflect.DeepEqual(got, input) {
		t.Fatalf("inactive apply must not touch paid lines, got %+v", got)
	}
}

func TestOnChangeFiresOnTransitions(t *testing.T) {
	t.Parallel()

	engine := newTestEngine(t, aThursday)
	fired := 0
	engine.OnChange(func() { fired++ })

	if err := engine.SetActive(false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := engine.SetActive(false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := engine.SetActive(true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fired != 2 {
		t.Fatalf("expected hook on each transition only, fired %d times", fired)
	}
}
