package cart

import (
	"context"
	"fmt"
	"sync"

	"github.com/urbanpizzeria/pos-backend/pkg/db/models"
	pkgerrors "github.com/urbanpizzeria/pos-backend/pkg/errors"
	"github.com/urbanpizzeria/pos-backend/pkg/logger"
	"github.com/urbanpizzeria/pos-backend/pkg/scratchpad"
)

// Overlay derives promotion lines from a cart. Applying it twice must give
// the same result as applying it once.
type Overlay interface {
	Apply(lines []Line) []Line
}

type padStore interface {
	GetJSON(ctx context.Context, name string, dest any) (bool, error)
	SetJSON(ctx context.Context, name string, value any) error
	Remove(ctx context.Context, names ...string) error
}

// ProductRef identifies a no-variety product being added to the draft.
type ProductRef struct {
	Name  string
	Price int
}

// Aggregator owns the in-progress draft cart. All mutations merge by line
// key, re-derive the promotion overlay, and persist the full snapshot to the
// scratchpad and the durable store.
type Aggregator struct {
	mu      sync.Mutex
	lines   []Line
	overlay Overlay
	pad     padStore
	repo    DraftRepository
	logg    *logger.Logger
}

// AggregatorParams configure the cart aggregator.
type AggregatorParams struct {
	Overlay Overlay
	Pad     padStore
	Repo    DraftRepository
	Logger  *logger.Logger
}

// NewAggregator builds the draft cart owner.
func NewAggregator(params AggregatorParams) (*Aggregator, error) {
	if params.Overlay == nil {
		return nil, fmt.Errorf("promotion overlay required")
	}
	if params.Pad == nil {
		return nil, fmt.Errorf("scratchpad required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("draft repository required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Aggregator{
		overlay: params.Overlay,
		pad:     params.Pad,
		repo:    params.Repo,
		logg:    params.Logger,
	}, nil
}

// Hydrate restores the draft from the scratchpad, falling back to the
// durable snapshot when the scratchpad is empty.
func (a *Aggregator) Hydrate(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	var lines []Line
	found, err := a.pad.GetJSON(ctx, scratchpad.KeyDraftCart, &lines)
	if err != nil {
		return err
	}
	if found {
		a.lines = lines
		return nil
	}

	rows, err := a.repo.Load(ctx)
	if err != nil {
		return err
	}
	a.lines = linesFromModels(rows)
	return nil
}

// AddLine merges a product into the draft. With no selections the matching
// (name, price, no-size) line is incremented by one, or appended at quantity
// one. With selections each (name, price, size) line's quantity is set, not
// incremented, to the selection's quantity.
func (a *Aggregator) AddLine(ctx context.Context, product ProductRef, selections []Selection) ([]Line, error) {
	if product.Name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name is required")
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if len(selections) == 0 {
		key := Key{Name: product.Name, Price: product.Price}
		if idx := a.findPaid(key); idx >= 0 {
			a.lines[idx].Quantity++
		} else {
			a.lines = append(a.lines, Line{
				Name:     product.Name,
				Price:    product.Price,
				Quantity: 1,
			})
		}
	} else {
		// The whole batch is vetted before any line is touched; a rejected
		// call leaves the draft exactly as it was.
		for _, sel := range selections {
			if sel.Quantity < 1 {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, "selection quantity must be at least 1")
			}
		}
		for _, sel := range selections {
			key := Key{Name: product.Name, Price: sel.Price, Size: sel.Size}
			if idx := a.findPaid(key); idx >= 0 {
				a.lines[idx].Quantity = sel.Quantity
			} else {
				a.lines = append(a.lines, Line{
					Name:     product.Name,
					Size:     sel.Size,
					Price:    sel.Price,
					Quantity: sel.Quantity,
				})
			}
		}
	}

	return a.deriveAndPersist(ctx), nil
}

// ChangeQuantity applies delta to every paid line matching (name, price); a
// product held in two sizes at one price moves as a unit. Lines dropping
// below quantity one are removed entirely. Unknown keys leave the draft
// untouched and surface an INCONSISTENT_KEY notice; free lines are never
// quantity-edited directly.
func (a *Aggregator) ChangeQuantity(ctx context.Context, name string, price, delta int) ([]Line, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	matched := false
	for _, line := range a.lines {
		if line.Name != name || line.Price != price {
			continue
		}
		if line.IsFree {
			return a.snapshot(), pkgerrors.New(pkgerrors.CodeValidation, "free lines are derived by the promotion and cannot be edited")
		}
		matched = true
	}
	if !matched {
		key := Key{Name: name, Price: price}
		return a.snapshot(), pkgerrors.New(pkgerrors.CodeInconsistentKey, "no cart line for key").
			WithDetails(map[string]any{"key": key.String()})
	}

	kept := a.lines[:0]
	for _, line := range a.lines {
		if !line.IsFree && line.Name == name && line.Price == price {
			line.Quantity += delta
			if line.Quantity < 1 {
				continue
			}
		}
		kept = append(kept, line)
	}
	a.lines = kept

	return a.deriveAndPersist(ctx), nil
}

// PurgeProduct drops every line keyed by (name, price). The promotion
// overlay then prunes any free line the purged product was carrying.
func (a *Aggregator) PurgeProduct(ctx context.Context, name string, price int) []Line {
	a.mu.Lock()
	defer a.mu.Unlock()

	kept := a.lines[:0]
	for _, line := range a.lines {
		if line.Name == name && line.Price == price && !line.IsFree {
			continue
		}
		kept = append(kept, line)
	}
	a.lines = kept

	return a.deriveAndPersist(ctx)
}

// Replace swaps the whole draft, discarding whatever was active. Used when a
// printed ticket is pulled back for editing.
func (a *Aggregator) Replace(ctx context.Context, lines []Line) []Line {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.lines = Clone(lines)
	return a.deriveAndPersist(ctx)
}

// Clear empties the draft.
func (a *Aggregator) Clear(ctx context.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.lines = nil
	a.persist(ctx)
}

// Reapply re-derives the overlay without any other mutation. Called when the
// promotion flips state.
func (a *Aggregator) Reapply(ctx context.Context) []Line {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.deriveAndPersist(ctx)
}

// Snapshot returns a value copy of the current draft.
func (a *Aggregator) Snapshot() []Line {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.snapshot()
}

// Total returns the draft total. Free lines contribute zero.
func (a *Aggregator) Total() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return Total(a.lines)
}

// StageVarietyDraft parks in-progress variety selections so a navigation
// can resume them.
func (a *Aggregator) StageVarietyDraft(ctx context.Context, selections []Selection) error {
	if len(selections) == 0 {
		return a.pad.Remove(ctx, scratchpad.KeyVarietyDraft)
	}
	return a.pad.SetJSON(ctx, scratchpad.KeyVarietyDraft, selections)
}

// VarietyDraft returns the parked variety selections, if any.
func (a *Aggregator) VarietyDraft(ctx context.Context) ([]Selection, error) {
	var selections []Selection
	found, err := a.pad.GetJSON(ctx, scratchpad.KeyVarietyDraft, &selections)
	if err != nil || !found {
		return nil, err
	}
	return selections, nil
}

// ClearVarietyDraft drops the parked selections.
func (a *Aggregator) ClearVarietyDraft(ctx context.Context) error {
	return a.pad.Remove(ctx, scratchpad.KeyVarietyDraft)
}

func (a *Aggregator) findPaid(key Key) int {
	for i, line := range a.lines {
		if !line.IsFree && line.Key() == key {
			return i
		}
	}
	return -1
}

func (a *Aggregator) deriveAndPersist(ctx context.Context) []Line {
	a.lines = a.overlay.Apply(a.lines)
	a.persist(ctx)
	return a.snapshot()
}

// persist rewrites both snapshots. Failures degrade to in-memory state with
// a logged error; the next mutation rewrites the full snapshot anyway.
func (a *Aggregator) persist(ctx context.Context) {
	if err := a.pad.SetJSON(ctx, scratchpad.KeyDraftCart, a.lines); err != nil {
		a.logg.Error(ctx, "persisting draft cart to scratchpad", err)
	}
	if err := a.repo.Replace(ctx, linesToModels(a.lines)); err != nil {
		a.logg.Error(ctx, "persisting draft cart to durable store", err)
	}
}

func (a *Aggregator) snapshot() []Line {
	return Clone(a.lines)
}

func linesToModels(lines []Line) []models.DraftLine {
	rows := make([]models.DraftLine, len(lines))
	for i, line := range lines {
		derivedFrom := ""
		if line.DerivedFrom != nil {
			derivedFrom = line.DerivedFrom.String()
		}
		rows[i] = models.DraftLine{
			Position:      i,
			Name:          line.Name,
			Size:          line.Size,
			Price:         line.Price,
			Quantity:      line.Quantity,
			IsFree:        line.IsFree,
			OriginalPrice: line.OriginalPrice,
			DerivedFrom:   derivedFrom,
		}
	}
	return rows
}

func linesFromModels(rows []models.DraftLine) []Line {
	if len(rows) == 0 {
		return nil
	}
	lines := make([]Line, len(rows))
	for i, row := range rows {
		lines[i] = Line{
			Name:          row.Name,
			Size:          row.Size,
			Price:         row.Price,
			Quantity:      row.Quantity,
			IsFree:        row.IsFree,
			OriginalPrice: row.OriginalPrice,
		}
		// A free line always derives from the paid line sharing its name
		// and size at the foregone price.
		if row.IsFree && row.DerivedFrom != "" {
			lines[i].DerivedFrom = &Key{Name: row.Name, Price: row.OriginalPrice, Size: row.Size}
		}
	}
	return lines
}
