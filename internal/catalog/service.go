package catalog

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/urbanpizzeria/pos-backend/internal/cart"
	"github.com/urbanpizzeria/pos-backend/pkg/db/models"
	pkgerrors "github.com/urbanpizzeria/pos-backend/pkg/errors"
	"github.com/urbanpizzeria/pos-backend/pkg/logger"
	"github.com/urbanpizzeria/pos-backend/pkg/remote"
)

type remoteAPI interface {
	FetchProducts(ctx context.Context) ([]remote.Product, error)
	RemoveProduct(ctx context.Context, name string, price int) error
}

type cartPurger interface {
	PurgeProduct(ctx context.Context, name string, price int) []cart.Line
}

// CategoryGroup is one category's products, name-sorted.
type CategoryGroup struct {
	Category string    `json:"category"`
	Products []Product `json:"products"`
}

// Service publishes the product catalog. Loading is two-phase: the durable
// cache is published as soon as it is read so the terminal is usable
// offline, then a remote refresh supersedes it. The remote snapshot wins no
// matter which phase finishes first.
type Service struct {
	mu              sync.Mutex
	products        []Product
	loaded          bool
	remotePublished bool
	closed          bool

	cache  CacheRepository
	remote remoteAPI
	purger cartPurger
	logg   *logger.Logger
}

// ServiceParams configure the catalog service.
type ServiceParams struct {
	Cache  CacheRepository
	Remote remoteAPI
	Purger cartPurger
	Logger *logger.Logger
}

// NewService builds the catalog service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Cache == nil {
		return nil, fmt.Errorf("cache repository required")
	}
	if params.Remote == nil {
		return nil, fmt.Errorf("remote client required")
	}
	if params.Purger == nil {
		return nil, fmt.Errorf("cart purger required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Service{
		cache:  params.Cache,
		remote: params.Remote,
		purger: params.Purger,
		logg:   params.Logger,
	}, nil
}

// Hydrate publishes the cached catalog. A cache miss or read failure leaves
// the catalog empty without blocking startup.
func (s *Service) Hydrate(ctx context.Context) error {
	cached, err := s.cache.GetAll(ctx)
	if err != nil {
		s.logg.Warn(ctx, "reading product cache: "+err.Error())
		return err
	}

	products := make([]Product, 0, len(cached))
	for _, row := range cached {
		product, err := fromCacheModel(row)
		if err != nil {
			s.logg.Warn(ctx, "skipping malformed cached product: "+err.Error())
			continue
		}
		products = append(products, product)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.remotePublished {
		return nil
	}
	s.products = products
	s.loaded = true
	s.logg.Info(s.logg.WithField(ctx, "products", len(products)), "catalog hydrated from cache")
	return nil
}

// Refresh fetches the remote catalog, publishes it, and rewrites the cache.
// A remote failure is quiet: the cached catalog stays published.
func (s *Service) Refresh(ctx context.Context) {
	fetched, err := s.remote.FetchProducts(ctx)
	if err != nil {
		s.logg.Warn(ctx, "remote catalog unavailable, keeping cached products: "+err.Error())
		return
	}

	products := make([]Product, 0, len(fetched))
	rows := make([]models.CachedProduct, 0, len(fetched))
	for _, wire := range fetched {
		product, err := fromWire(wire)
		if err != nil {
			s.logg.Warn(ctx, "skipping malformed remote product: "+err.Error())
			continue
		}
		products = append(products, product)
		rows = append(rows, toCacheModel(product))
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.products = products
	s.loaded = true
	s.remotePublished = true
	s.mu.Unlock()

	if err := s.cache.ReplaceAll(ctx, rows); err != nil {
		s.logg.Error(ctx, "rewriting product cache", err)
	}
	s.logg.Info(s.logg.WithField(ctx, "products", len(products)), "catalog refreshed from remote")
}

// Close stops any in-flight load from publishing. Further publishes are
// dropped, reads keep working.
func (s *Service) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

// Loaded reports whether any catalog snapshot has been published yet.
func (s *Service) Loaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded
}

// List returns the catalog grouped by category, categories and products
// both name-sorted. A non-empty query filters by case-insensitive substring
// match on the product name.
func (s *Service) List(query string) []CategoryGroup {
	s.mu.Lock()
	products := make([]Product, len(s.products))
	copy(products, s.products)
	s.mu.Unlock()

	needle := strings.ToLower(strings.TrimSpace(query))
	grouped := map[string][]Product{}
	for _, product := range products {
		if needle != "" && !strings.Contains(strings.ToLower(product.Name), needle) {
			continue
		}
		grouped[product.Category] = append(grouped[product.Category], product)
	}

	groups := make([]CategoryGroup, 0, len(grouped))
	for category, members := range grouped {
		sort.Slice(members, func(i, j int) bool { return members[i].Name < members[j].Name })
		groups = append(groups, CategoryGroup{Category: category, Products: members})
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Category < groups[j].Category })
	return groups
}

// Find returns the product with the given name.
func (s *Service) Find(name string) (Product, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, product := range s.products {
		if product.Name == name {
			return product, true
		}
	}
	return Product{}, false
}

// RemoveProduct deletes a product remote-first. Only a confirmed remote
// delete touches the cache, the published catalog, and any draft lines for
// the product.
func (s *Service) RemoveProduct(ctx context.Context, name string) error {
	product, found := s.Find(name)
	if !found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found").
			WithDetails(map[string]any{"name": name})
	}
	price := product.BasePrice()

	if err := s.remote.RemoveProduct(ctx, name, price); err != nil {
		return err
	}

	if err := s.cache.Delete(ctx, name, price); err != nil {
		s.logg.Error(ctx, "deleting product from cache", err)
	}

	s.mu.Lock()
	kept := s.products[:0]
	for _, candidate := range s.products {
		if candidate.Name == name {
			continue
		}
		kept = append(kept, candidate)
	}
	s.products = kept
	s.mu.Unlock()

	s.purger.PurgeProduct(ctx, name, price)
	s.logg.Info(s.logg.WithField(ctx, "product", name), "product removed")
	return nil
}

func fromWire(wire remote.Product) (Product, error) {
	varieties := make([]Variety, len(wire.Varieties))
	for i, v := range wire.Varieties {
		varieties[i] = Variety{Size: v.Size, Price: v.Price}
	}
	id := wire.ID
	if id == "" {
		id = wire.Name
	}
	return NewProduct(id, wire.Name, wire.Category, wire.Price, varieties)
}

func fromCacheModel(row models.CachedProduct) (Product, error) {
	varieties := make([]Variety, len(row.Varieties))
	for i, v := range row.Varieties {
		varieties[i] = Variety{Size: v.Size, Price: v.Price}
	}
	return NewProduct(row.ID, row.Name, row.Category, row.Price, varieties)
}

func toCacheModel(product Product) models.CachedProduct {
	row := models.CachedProduct{
		ID:       product.ID,
		Name:     product.Name,
		Category: product.Category,
	}
	switch pricing := product.Pricing.(type) {
	case SingleSKU:
		price := pricing.Price
		row.Price = &price
	case MultiSKU:
		for _, v := range pricing.Varieties {
			row.Varieties = append(row.Varieties, models.CachedVariety{
				ProductID: product.ID,
				Size:      v.Size,
				Price:     v.Price,
			})
		}
	}
	return row
}
