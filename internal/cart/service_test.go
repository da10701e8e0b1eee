package cart

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"

	"github.com/urbanpizzeria/pos-backend/pkg/db/models"
	pkgerrors "github.com/urbanpizzeria/pos-backend/pkg/errors"
	"github.com/urbanpizzeria/pos-backend/pkg/logger"
)

type stubPad struct {
	data map[string][]byte
}

func newStubPad() *stubPad {
	return &stubPad{data: map[string][]byte{}}
}

func (p *stubPad) GetJSON(_ context.Context, name string, dest any) (bool, error) {
	raw, ok := p.data[name]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dest)
}

func (p *stubPad) SetJSON(_ context.Context, name string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	p.data[name] = raw
	return nil
}

func (p *stubPad) Remove(_ context.Context, names ...string) error {
	for _, name := range names {
		delete(p.data, name)
	}
	return nil
}

type stubDraftRepo struct {
	rows       []models.DraftLine
	replaceErr error
}

func (r *stubDraftRepo) Load(context.Context) ([]models.DraftLine, error) {
	return r.rows, nil
}

func (r *stubDraftRepo) Replace(_ context.Context, rows []models.DraftLine) error {
	if r.replaceErr != nil {
		return r.replaceErr
	}
	r.rows = rows
	return nil
}

// identityOverlay leaves the cart alone, standing in for an inactive offer.
type identityOverlay struct{}

func (identityOverlay) Apply(lines []Line) []Line { return lines }

// freeEchoOverlay derives one free line per paid line, for tests that need
// derived rows without the real promotion engine.
type freeEchoOverlay struct{}

func (freeEchoOverlay) Apply(lines []Line) []Line {
	out := make([]Line, 0, len(lines)*2)
	for _, line := range lines {
		if line.IsFree {
			continue
		}
		out = append(out, line)
	}
	for _, line := range out {
		key := line.Key()
		out = append(out, Line{
			Name:          line.Name,
			Size:          line.Size,
			Quantity:      line.Quantity,
			IsFree:        true,
			OriginalPrice: line.Price,
			DerivedFrom:   &key,
		})
	}
	return out
}

func newTestAggregator(t *testing.T, overlay Overlay, pad *stubPad, repo *stubDraftRepo) *Aggregator {
	t.Helper()
	if overlay == nil {
		overlay = identityOverlay{}
	}
	if pad == nil {
		pad = newStubPad()
	}
	if repo == nil {
		repo = &stubDraftRepo{}
	}
	agg, err := NewAggregator(AggregatorParams{
		Overlay: overlay,
		Pad:     pad,
		Repo:    repo,
		Logger:  logger.New(logger.Options{Output: io.Discard}),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return agg
}

func TestAddLineMergesByKey(t *testing.T) {
	t.Parallel()

	agg := newTestAggregator(t, nil, nil, nil)
	ctx := context.Background()

	if _, err := agg.AddLine(ctx, ProductRef{Name: "Garlic bread", Price: 120}, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	lines, err := agg.AddLine(ctx, ProductRef{Name: "Garlic bread", Price: 120}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(lines) != 1 {
		t.Fatalf("expected one merged line, got %d", len(lines))
	}
	if lines[0].Quantity != 2 {
		t.Fatalf("expected quantity 2, got %d", lines[0].Quantity)
	}

	// Same name at a different price is a distinct line.
	lines, err = agg.AddLine(ctx, ProductRef{Name: "Garlic bread", Price: 150}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(lines) != 2 {
		t.Fatalf("expected two lines, got %d", len(lines))
	}
}

func TestAddLineSelectionsSetQuantity(t *testing.T) {
	t.Parallel()

	agg := newTestAggregator(t, nil, nil, nil)
	ctx := context.Background()

	selections := []Selection{{Size: "med", Price: 300, Quantity: 2}}
	if _, err := agg.AddLine(ctx, ProductRef{Name: "Farmhouse pizza"}, selections); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Re-adding the same selection sets the quantity, it does not add.
	selections[0].Quantity = 5
	lines, err := agg.AddLine(ctx, ProductRef{Name: "Farmhouse pizza"}, selections)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(lines) != 1 || lines[0].Quantity != 5 {
		t.Fatalf("expected single line at quantity 5, got %+v", lines)
	}

	if _, err := agg.AddLine(ctx, ProductRef{Name: "Farmhouse pizza"}, []Selection{{Size: "med", Price: 300, Quantity: 0}}); err == nil {
		t.Fatal("expected rejection for zero-quantity selection")
	}
}

func TestAddLineRejectedBatchLeavesDraftUntouched(t *testing.T) {
	t.Parallel()

	agg := newTestAggregator(t, nil, nil, nil)
	ctx := context.Background()

	// The second selection is invalid; the valid first one must not land
	// either.
	selections := []Selection{
		{Size: "med", Price: 300, Quantity: 2},
		{Size: "large", Price: 450, Quantity: 0},
	}
	if _, err := agg.AddLine(ctx, ProductRef{Name: "Cheese pizza"}, selections); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation rejection, got %v", err)
	}
	if lines := agg.Snapshot(); len(lines) != 0 {
		t.Fatalf("rejected batch must leave the draft empty, got %+v", lines)
	}

	// Same rule on a non-empty draft: the prior state survives whole.
	if _, err := agg.AddLine(ctx, ProductRef{Name: "Coke", Price: 60}, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	before := agg.Snapshot()
	if _, err := agg.AddLine(ctx, ProductRef{Name: "Cheese pizza"}, selections); err == nil {
		t.Fatal("expected validation rejection")
	}
	after := agg.Snapshot()
	if len(after) != len(before) || after[0] != before[0] {
		t.Fatalf("draft changed on rejected batch: %+v vs %+v", before, after)
	}
}

func TestChangeQuantityRemovesAtZero(t *testing.T) {
	t.Parallel()

	agg := newTestAggregator(t, nil, nil, nil)
	ctx := context.Background()

	if _, err := agg.AddLine(ctx, ProductRef{Name: "Coke", Price: 60}, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	lines, err := agg.ChangeQuantity(ctx, "Coke", 60, -1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(lines) != 0 {
		t.Fatalf("expected empty draft after dropping below one, got %+v", lines)
	}
}

func TestChangeQuantityMovesAllLinesSharingKey(t *testing.T) {
	t.Parallel()

	agg := newTestAggregator(t, nil, nil, nil)
	ctx := context.Background()

	// Two sizes of one product at the same price share the (name, price)
	// key and move together.
	selections := []Selection{
		{Size: "med", Price: 300, Quantity: 2},
		{Size: "large", Price: 300, Quantity: 1},
	}
	if _, err := agg.AddLine(ctx, ProductRef{Name: "Farmhouse pizza"}, selections); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lines, err := agg.ChangeQuantity(ctx, "Farmhouse pizza", 300, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(lines) != 2 || lines[0].Quantity != 3 || lines[1].Quantity != 2 {
		t.Fatalf("expected delta applied to both sizes, got %+v", lines)
	}

	// Dropping below one prunes each affected line.
	lines, err = agg.ChangeQuantity(ctx, "Farmhouse pizza", 300, -3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(lines) != 0 {
		t.Fatalf("expected both sizes removed, got %+v", lines)
	}
}

func TestChangeQuantityUnknownKeyLeavesDraftUntouched(t *testing.T) {
	t.Parallel()

	agg := newTestAggregator(t, nil, nil, nil)
	ctx := context.Background()

	if _, err := agg.AddLine(ctx, ProductRef{Name: "Coke", Price: 60}, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	before := agg.Snapshot()

	_, err := agg.ChangeQuantity(ctx, "Pepsi", 60, 1)
	if !pkgerrors.IsCode(err, pkgerrors.CodeInconsistentKey) {
		t.Fatalf("expected INCONSISTENT_KEY, got %v", err)
	}

	after := agg.Snapshot()
	if len(after) != len(before) || after[0] != before[0] {
		t.Fatalf("draft changed on unknown key: %+v vs %+v", before, after)
	}
}

func TestChangeQuantityRejectsFreeLines(t *testing.T) {
	t.Parallel()

	agg := newTestAggregator(t, freeEchoOverlay{}, nil, nil)
	ctx := context.Background()

	lines, err := agg.AddLine(ctx, ProductRef{Name: "Margherita", Price: 250}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(lines) != 2 || !lines[1].IsFree {
		t.Fatalf("expected a derived free line, got %+v", lines)
	}

	// Free lines carry price zero, so (name, 0) addresses the free row.
	_, err = agg.ChangeQuantity(ctx, "Margherita", 0, 1)
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation rejection for free line, got %v", err)
	}
}

func TestPurgeProductPrunesDerivedLines(t *testing.T) {
	t.Parallel()

	agg := newTestAggregator(t, freeEchoOverlay{}, nil, nil)
	ctx := context.Background()

	if _, err := agg.AddLine(ctx, ProductRef{Name: "Margherita", Price: 250}, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	lines := agg.PurgeProduct(ctx, "Margherita", 250)
	if len(lines) != 0 {
		t.Fatalf("expected purge to drop paid and derived lines, got %+v", lines)
	}
}

func TestHydratePrefersScratchpad(t *testing.T) {
	t.Parallel()

	pad := newStubPad()
	if err := pad.SetJSON(context.Background(), "draft_cart", []Line{{Name: "Coke", Price: 60, Quantity: 3}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	repo := &stubDraftRepo{rows: []models.DraftLine{{Name: "Pepsi", Price: 60, Quantity: 1}}}

	agg := newTestAggregator(t, nil, pad, repo)
	if err := agg.Hydrate(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lines := agg.Snapshot()
	if len(lines) != 1 || lines[0].Name != "Coke" || lines[0].Quantity != 3 {
		t.Fatalf("expected scratchpad draft to win, got %+v", lines)
	}
}

func TestHydrateFallsBackToDurableStore(t *testing.T) {
	t.Parallel()

	repo := &stubDraftRepo{rows: []models.DraftLine{
		{Position: 0, Name: "Margherita", Size: "med", Price: 250, Quantity: 2},
		{Position: 1, Name: "Margherita", Size: "med", Quantity: 2, IsFree: true, OriginalPrice: 250, DerivedFrom: "Margherita(med)@250"},
	}}

	agg := newTestAggregator(t, nil, nil, repo)
	if err := agg.Hydrate(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lines := agg.Snapshot()
	if len(lines) != 2 {
		t.Fatalf("expected two restored lines, got %+v", lines)
	}
	if !lines[1].IsFree || lines[1].DerivedFrom == nil {
		t.Fatalf("expected derived line restored with back-reference, got %+v", lines[1])
	}
}

func TestMutationsSurviveDurableWriteFailure(t *testing.T) {
	t.Parallel()

	repo := &stubDraftRepo{replaceErr: errors.New("disk full")}
	agg := newTestAggregator(t, nil, nil, repo)

	lines, err := agg.AddLine(context.Background(), ProductRef{Name: "Coke", Price: 60}, nil)
	if err != nil {
		t.Fatalf("expected in-memory state to survive persistence failure, got %v", err)
	}
	if len(lines) != 1 {
		t.Fatalf("expected one line, got %+v", lines)
	}
}

func TestTotalIgnoresFreeLines(t *testing.T) {
	t.Parallel()

	lines := []Line{
		{Name: "Margherita", Size: "med", Price: 250, Quantity: 2},
		{Name: "Margherita", Size: "med", Quantity: 2, IsFree: true, OriginalPrice: 250},
	}
	if got := Total(lines); got != 500 {
		t.Fatalf("expected total 500, got %d", got)
	}
}
